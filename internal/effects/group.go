/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package effects holds pixel effects and the per-item effects group.
package effects

import (
	"image"

	"golang.org/x/image/draw"

	"photolayouts/internal/listmodel"
	"photolayouts/internal/props"
)

// Effect transforms an item's pixels before borders are painted.
type Effect interface {
	props.Describer
	// Apply returns a new image; src is never modified.
	Apply(src image.Image) image.Image
}

// Owner is refreshed whenever the group or one of its effects changes.
type Owner interface{ Refresh() }

// Group is the ordered effect list of one item. The owner link is not an
// ownership edge; Detach clears it before the item is dropped.
type Group struct {
	rows  listmodel.List[Effect]
	owner Owner
}

func NewGroup(owner Owner) *Group {
	g := &Group{owner: owner}
	g.rows.OnChange = g.Changed
	return g
}

func (g *Group) Owner() Owner { return g.owner }
func (g *Group) Detach()      { g.owner = nil }

// Rows exposes the list so views can observe structural changes.
func (g *Group) Rows() *listmodel.List[Effect] { return &g.rows }

func (g *Group) Len() int             { return g.rows.Len() }
func (g *Group) At(row int) Effect    { return g.rows.At(row) }
func (g *Group) Effects() []Effect    { return g.rows.Items() }
func (g *Group) IndexOf(e Effect) int { return g.rows.IndexOf(func(x Effect) bool { return x == e }) }

func (g *Group) Insert(row int, es ...Effect) error      { return g.rows.Insert(row, es...) }
func (g *Group) Remove(row, count int) ([]Effect, error) { return g.rows.Remove(row, count) }
func (g *Group) Move(src, count, dst int) error          { return g.rows.Move(src, count, dst) }

// Changed refreshes the owning item. Property editors call it after a Set.
func (g *Group) Changed() {
	if g.owner != nil {
		g.owner.Refresh()
	}
}

// Apply runs the effects from the last row to the first: the most recently
// inserted effect sees the original image.
func (g *Group) Apply(src image.Image) image.Image {
	out := src
	for i := g.rows.Len() - 1; i >= 0; i-- {
		out = g.rows.At(i).Apply(out)
	}
	return out
}

// Registry maps effect names to factories.
type Registry = props.Registry[Effect]

// NewRegistry returns a registry with the built-in effects.
func NewRegistry() *Registry {
	r := props.NewRegistry[Effect]()
	r.Register(func() Effect { return &Grayscale{} })
	r.Register(func() Effect { return &Sepia{} })
	r.Register(func() Effect { return &Negative{} })
	r.Register(func() Effect { return &Blur{Radius: 2} })
	r.Register(func() Effect { return NewColorize() })
	return r
}

// rgbaCopy returns a fresh RGBA copy of src rebased at the origin.
func rgbaCopy(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

func clampTo(v float64, hi uint8) uint8 {
	if v < 0 {
		return 0
	}
	if v > float64(hi) {
		return hi
	}
	return uint8(v + 0.5)
}
