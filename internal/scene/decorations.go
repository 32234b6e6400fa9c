/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package scene

import (
	"image/color"

	"photolayouts/internal/props"
)

// Background fills the scene rectangle below all items.
type Background struct {
	Color   color.RGBA
	changed func()
}

func (*Background) Name() string { return "Background" }

func (b *Background) Properties() []props.Property {
	return []props.Property{
		{Name: "color", Display: "Color", Kind: props.Color,
			Get: func() any { return b.Color },
			Set: func(v any) { b.Color = v.(color.RGBA); b.notify() }},
	}
}

func (b *Background) SetColor(c color.RGBA) { b.Color = c; b.notify() }

func (b *Background) notify() {
	if b.changed != nil {
		b.changed()
	}
}

// SceneBorder is a frame painted inside the scene edge above all items.
type SceneBorder struct {
	Width   int
	Color   color.RGBA
	changed func()
}

func (*SceneBorder) Name() string { return "SceneBorder" }

func (b *SceneBorder) Properties() []props.Property {
	return []props.Property{
		{Name: "width", Display: "Width", Kind: props.Int, Min: 0, Max: 1000, Step: 1,
			Get: func() any { return b.Width },
			Set: func(v any) { b.Width = v.(int); b.notify() }},
		{Name: "color", Display: "Color", Kind: props.Color,
			Get: func() any { return b.Color },
			Set: func(v any) { b.Color = v.(color.RGBA); b.notify() }},
	}
}

func (b *SceneBorder) SetWidth(w int)        { b.Width = max(w, 0); b.notify() }
func (b *SceneBorder) SetColor(c color.RGBA) { b.Color = c; b.notify() }

func (b *SceneBorder) notify() {
	if b.changed != nil {
		b.changed()
	}
}
