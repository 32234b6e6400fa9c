/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package borders holds the border drawers and the per-item borders group.
// Drawer 0 sits against the item's opaque area; every following drawer wraps
// the outline produced by the previous one.
package borders

import (
	"github.com/fogleman/gg"

	"photolayouts/internal/listmodel"
	"photolayouts/internal/props"
	"photolayouts/internal/vector"
)

// Drawer decorates an outline.
type Drawer interface {
	props.Describer
	// Path returns the outline of the frame around inner, in inner's coordinates.
	Path(inner vector.Path) vector.Path
	// Paint paints the frame between inner and Path(inner).
	Paint(dc *gg.Context, inner vector.Path)
}

// Owner is refreshed whenever the group or one of its drawers changes.
type Owner interface{ Refresh() }

// Group is the ordered drawer list of one item. The owner link is non-owning
// and is cleared by Detach.
type Group struct {
	rows  listmodel.List[Drawer]
	owner Owner
}

func NewGroup(owner Owner) *Group {
	g := &Group{owner: owner}
	g.rows.OnChange = g.Changed
	return g
}

func (g *Group) Owner() Owner { return g.owner }
func (g *Group) Detach()      { g.owner = nil }

func (g *Group) Rows() *listmodel.List[Drawer] { return &g.rows }

func (g *Group) Len() int             { return g.rows.Len() }
func (g *Group) At(row int) Drawer    { return g.rows.At(row) }
func (g *Group) Drawers() []Drawer    { return g.rows.Items() }
func (g *Group) IndexOf(d Drawer) int { return g.rows.IndexOf(func(x Drawer) bool { return x == d }) }

func (g *Group) Insert(row int, ds ...Drawer) error      { return g.rows.Insert(row, ds...) }
func (g *Group) Remove(row, count int) ([]Drawer, error) { return g.rows.Remove(row, count) }
func (g *Group) Move(src, count, dst int) error          { return g.rows.Move(src, count, dst) }

func (g *Group) Changed() {
	if g.owner != nil {
		g.owner.Refresh()
	}
}

// inners returns the inner outline of every drawer plus the final outer outline.
func (g *Group) inners(opaque vector.Path) ([]vector.Path, vector.Path) {
	in := make([]vector.Path, g.rows.Len())
	cur := opaque
	for i := range in {
		in[i] = cur
		cur = g.rows.At(i).Path(cur)
	}
	return in, cur
}

// Shape returns the outermost outline, or an empty path without drawers.
func (g *Group) Shape(opaque vector.Path) vector.Path {
	if g.rows.Len() == 0 {
		return vector.Path{}
	}
	_, outer := g.inners(opaque)
	return outer
}

// Paint paints all frames, the highest row first so the innermost frame ends on top.
func (g *Group) Paint(dc *gg.Context, opaque vector.Path) {
	in, _ := g.inners(opaque)
	for i := len(in) - 1; i >= 0; i-- {
		g.rows.At(i).Paint(dc, in[i])
	}
}

// Registry maps drawer names to factories.
type Registry = props.Registry[Drawer]

// NewRegistry returns a registry with the built-in drawers.
func NewRegistry() *Registry {
	r := props.NewRegistry[Drawer]()
	r.Register(func() Drawer { return NewSolid() })
	r.Register(func() Drawer { return NewPolaroid() })
	return r
}
