/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package props

import (
	"fmt"
	"sort"
)

// Registry maps object names to factories. One registry per object family is
// owned by the application context.
type Registry[T Describer] struct {
	order     []string
	factories map[string]func() T
}

func NewRegistry[T Describer]() *Registry[T] {
	return &Registry[T]{factories: make(map[string]func() T)}
}

// Register adds a factory under the name its products report.
func (r *Registry[T]) Register(factory func() T) {
	name := factory().Name()
	if _, dup := r.factories[name]; !dup {
		r.order = append(r.order, name)
	}
	r.factories[name] = factory
}

// New constructs the object registered under name.
func (r *Registry[T]) New(name string) (T, error) {
	f, ok := r.factories[name]
	if !ok {
		var zero T
		return zero, fmt.Errorf("registry: %q: %w", name, ErrUnknownProperty)
	}
	return f(), nil
}

// Names returns the registered names in registration order.
func (r *Registry[T]) Names() []string { return append([]string(nil), r.order...) }

// SortedNames returns the registered names alphabetically, for menus.
func (r *Registry[T]) SortedNames() []string {
	out := r.Names()
	sort.Strings(out)
	return out
}
