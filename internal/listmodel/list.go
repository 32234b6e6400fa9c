/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package listmodel is an ordered, observable list with row insert, remove and
// move primitives. Effects and borders groups are built on it.
package listmodel

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfBounds = errors.New("row out of bounds")
	ErrOverlap     = errors.New("destination inside moved range")
)

// Observer is notified after each structural change.
type Observer interface {
	RowsInserted(row, count int)
	RowsRemoved(row, count int)
	// RowsMoved reports the rows [src, src+count) now starting at dst (post-removal index).
	RowsMoved(src, count, dst int)
}

// List holds values of T in row order.
type List[T any] struct {
	items     []T
	observers []Observer
	// OnChange runs after every structural change.
	OnChange func()
}

func (l *List[T]) Len() int     { return len(l.items) }
func (l *List[T]) At(row int) T { return l.items[row] }

// Items returns a copy of the rows.
func (l *List[T]) Items() []T { return append([]T(nil), l.items...) }

// IndexOf returns the first row whose value satisfies eq, or -1.
func (l *List[T]) IndexOf(eq func(T) bool) int {
	for i, v := range l.items {
		if eq(v) {
			return i
		}
	}
	return -1
}

func (l *List[T]) Observe(o Observer) { l.observers = append(l.observers, o) }

func (l *List[T]) Unobserve(o Observer) {
	for i, x := range l.observers {
		if x == o {
			l.observers = append(l.observers[:i], l.observers[i+1:]...)
			return
		}
	}
}

// Insert places vs starting at row (0..Len).
func (l *List[T]) Insert(row int, vs ...T) error {
	if row < 0 || row > len(l.items) {
		return fmt.Errorf("insert at %d of %d: %w", row, len(l.items), ErrOutOfBounds)
	}
	if len(vs) == 0 {
		return nil
	}
	l.items = append(l.items[:row], append(append([]T(nil), vs...), l.items[row:]...)...)
	for _, o := range l.observers {
		o.RowsInserted(row, len(vs))
	}
	l.changed()
	return nil
}

// Remove deletes count rows starting at row and returns them.
func (l *List[T]) Remove(row, count int) ([]T, error) {
	if row < 0 || count <= 0 || row+count > len(l.items) {
		return nil, fmt.Errorf("remove %d+%d of %d: %w", row, count, len(l.items), ErrOutOfBounds)
	}
	out := append([]T(nil), l.items[row:row+count]...)
	l.items = append(l.items[:row], l.items[row+count:]...)
	for _, o := range l.observers {
		o.RowsRemoved(row, count)
	}
	l.changed()
	return out, nil
}

// Move relocates rows [src, src+count) so that they land before the row that was
// at dst prior to the move. When dst > src the final start row is dst-count.
func (l *List[T]) Move(src, count, dst int) error {
	n := len(l.items)
	if src < 0 || count <= 0 || src+count > n || dst < 0 || dst > n {
		return fmt.Errorf("move %d+%d to %d of %d: %w", src, count, dst, n, ErrOutOfBounds)
	}
	if dst >= src && dst <= src+count {
		return fmt.Errorf("move %d+%d to %d: %w", src, count, dst, ErrOverlap)
	}
	moved := append([]T(nil), l.items[src:src+count]...)
	rest := append(append([]T(nil), l.items[:src]...), l.items[src+count:]...)
	if dst > src {
		dst -= count
	}
	l.items = append(rest[:dst], append(moved, rest[dst:]...)...)
	for _, o := range l.observers {
		o.RowsMoved(src, count, dst)
	}
	l.changed()
	return nil
}

func (l *List[T]) changed() {
	if l.OnChange != nil {
		l.OnChange()
	}
}
