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
	"math"

	"photolayouts/internal/items"
	"photolayouts/internal/layers"
	"photolayouts/internal/vector"
)

// Modifiers are the keyboard modifiers held during a pointer event.
type Modifiers uint8

const (
	// ModAdditive toggles items in and out of the selection.
	ModAdditive Modifiers = 1 << iota
	// ModSnap snaps drags to the grid (and rotation to 15° steps).
	ModSnap
)

type Key int

const (
	KeyDelete Key = iota + 1
	KeyEscape
)

// pressState is the drag in progress between press and release.
type pressState struct {
	active  bool
	at      vector.Pt
	overlay Overlay
	items   []items.Item
	from    []vector.Pt
}

// MousePress routes a button press: overlays first, then selection, then the
// start of a move drag.
func (s *Scene) MousePress(p vector.Pt, mods Modifiers) {
	s.press = pressState{}
	if s.mode&^Viewing == 0 {
		return
	}
	for _, o := range s.overlays {
		if o.Hit(p) {
			o.Press(p)
			s.press = pressState{active: true, at: p, overlay: o}
			return
		}
	}
	it := s.ItemAt(p)
	var node *layers.Node
	if it != nil {
		node = s.model.FindItem(it)
	}
	if s.mode&Selecting != 0 {
		switch {
		case it == nil:
			if mods&ModAdditive == 0 {
				s.sel.Clear()
			}
		case mods&ModAdditive != 0:
			s.sel.Toggle(node)
		case !s.sel.IsSelected(node):
			s.sel.Set(node)
		}
	}
	if s.mode&Moving == 0 || node == nil || !s.sel.IsSelected(node) {
		return
	}
	sel := s.sel.Items()
	from := make([]vector.Pt, len(sel))
	for i, x := range sel {
		from[i] = x.Core().Pos()
	}
	s.press = pressState{active: true, at: p, items: sel, from: from}
}

// MouseMove drags the pressed overlay or moves the selection live.
func (s *Scene) MouseMove(p vector.Pt, mods Modifiers) {
	if !s.press.active {
		return
	}
	if s.press.overlay != nil {
		s.press.overlay.Drag(p, mods)
		return
	}
	d := p.Sub(s.press.at)
	for i, it := range s.press.items {
		pos := s.press.from[i].Add(d)
		if mods&ModSnap != 0 {
			pos = vector.SnapToGrid(pos, s.grid.X, s.grid.Y)
		}
		it.Core().SetPos(pos)
	}
}

// MouseRelease commits the drag as one undo step when anything moved.
func (s *Scene) MouseRelease(p vector.Pt, mods Modifiers) {
	pr := s.press
	s.press = pressState{}
	if !pr.active {
		return
	}
	if pr.overlay != nil {
		pr.overlay.Release(p)
		return
	}
	to := make([]vector.Pt, len(pr.items))
	moved := false
	for i, it := range pr.items {
		to[i] = it.Core().Pos()
		if to[i] != pr.from[i] {
			moved = true
		}
	}
	if moved {
		s.MoveItems(pr.items, pr.from, to)
	}
}

// KeyPress handles Delete (remove selection) and Escape (abort drag or clear selection).
func (s *Scene) KeyPress(k Key) {
	switch k {
	case KeyDelete:
		if !s.sel.Empty() {
			if err := s.RemoveSelected(); err != nil && err != ErrCancelled {
				s.log.Warn("remove selection", "err", err)
			}
		}
	case KeyEscape:
		if s.press.active {
			if s.press.overlay != nil {
				s.press.overlay.Cancel()
			}
			for i, it := range s.press.items {
				it.Core().SetPos(s.press.from[i])
			}
			s.press = pressState{}
			return
		}
		s.sel.Clear()
	}
}

// Overlay is a handle widget shown for the selection in rotate, scale or crop mode.
type Overlay interface {
	Mode() Mode
	Handles() []vector.Rect
	Hit(p vector.Pt) bool
	Press(p vector.Pt)
	Drag(p vector.Pt, mods Modifiers)
	Release(p vector.Pt)
	Cancel()
}

// HandleSize is the side of an overlay handle in scene units.
const HandleSize = 10.0

func handleAt(p vector.Pt) vector.Rect {
	return vector.R(p.X-HandleSize/2, p.Y-HandleSize/2, HandleSize, HandleSize)
}

// Overlays returns the current overlay widgets.
func (s *Scene) Overlays() []Overlay { return s.overlays }

// rebuildOverlays drops the overlays and creates fresh ones for the current
// mode and selection.
func (s *Scene) rebuildOverlays() {
	s.overlays = nil
	sel := s.sel.Items()
	if len(sel) == 0 {
		return
	}
	b := s.SelectionBounds()
	if s.mode&Rotating != 0 {
		s.overlays = append(s.overlays, &rotateOverlay{transformOverlay: transformOverlay{s: s, items: sel, center: b.Center()},
			handle: vector.Pt{X: b.X + b.W/2, Y: b.Y - 2*HandleSize}})
	}
	if s.mode&Scaling != 0 {
		s.overlays = append(s.overlays, &scaleOverlay{transformOverlay: transformOverlay{s: s, items: sel, center: b.Center()},
			handle: b.Max()})
	}
	if s.mode&Cropping != 0 && len(sel) == 1 {
		s.overlays = append(s.overlays, newCropOverlay(s, sel[0]))
	}
}

// transformOverlay applies a pivot transform to the selection while dragging.
type transformOverlay struct {
	s      *Scene
	items  []items.Item
	center vector.Pt
	from   []vector.Affine2D
}

func (t *transformOverlay) begin() {
	t.from = make([]vector.Affine2D, len(t.items))
	for i, it := range t.items {
		t.from[i] = it.Core().Transform()
	}
}

func (t *transformOverlay) live(m vector.Affine2D) {
	for i, it := range t.items {
		it.Core().SetTransform(vector.Around(m, t.center).Mul(t.from[i]))
	}
}

func (t *transformOverlay) commit(text string) {
	if t.from == nil {
		return
	}
	to := make([]vector.Affine2D, len(t.items))
	changed := false
	for i, it := range t.items {
		to[i] = it.Core().Transform()
		changed = changed || to[i] != t.from[i]
	}
	if changed {
		t.s.TransformItems(text, t.items, t.from, to)
	}
	t.from = nil
}

func (t *transformOverlay) Cancel() {
	for i, it := range t.items {
		if t.from != nil {
			it.Core().SetTransform(t.from[i])
		}
	}
	t.from = nil
}

type rotateOverlay struct {
	transformOverlay
	handle vector.Pt
	start  float64
}

func (o *rotateOverlay) Mode() Mode             { return Rotating }
func (o *rotateOverlay) Handles() []vector.Rect { return []vector.Rect{handleAt(o.handle)} }
func (o *rotateOverlay) Hit(p vector.Pt) bool   { return handleAt(o.handle).Contains(p) }
func (o *rotateOverlay) angle(p vector.Pt) float64 {
	return math.Atan2(p.Y-o.center.Y, p.X-o.center.X)
}

func (o *rotateOverlay) Press(p vector.Pt) {
	o.begin()
	o.start = o.angle(p)
}

func (o *rotateOverlay) Drag(p vector.Pt, mods Modifiers) {
	a := o.angle(p) - o.start
	if mods&ModSnap != 0 {
		step := math.Pi / 12
		a = math.Round(a/step) * step
	}
	o.live(vector.Rotate(a))
}

func (o *rotateOverlay) Release(vector.Pt) { o.commit("Rotate") }

type scaleOverlay struct {
	transformOverlay
	handle vector.Pt
	d0     float64
}

func (o *scaleOverlay) Mode() Mode             { return Scaling }
func (o *scaleOverlay) Handles() []vector.Rect { return []vector.Rect{handleAt(o.handle)} }
func (o *scaleOverlay) Hit(p vector.Pt) bool   { return handleAt(o.handle).Contains(p) }

func (o *scaleOverlay) Press(p vector.Pt) {
	o.begin()
	o.d0 = math.Hypot(p.X-o.center.X, p.Y-o.center.Y)
}

func (o *scaleOverlay) Drag(p vector.Pt, _ Modifiers) {
	if o.d0 == 0 {
		return
	}
	f := math.Max(math.Hypot(p.X-o.center.X, p.Y-o.center.Y)/o.d0, 0.01)
	o.live(vector.Scale(f, f))
}

func (o *scaleOverlay) Release(vector.Pt) { o.commit("Scale") }

// cropOverlay edits a rectangular crop of one item through its four corners.
type cropOverlay struct {
	s      *Scene
	item   items.Item
	rect   vector.Rect // item coordinates
	orig   vector.Rect
	corner int // dragged corner, -1 when idle
}

func newCropOverlay(s *Scene, it items.Item) *cropOverlay {
	r := items.OpaqueArea(it).Bounds()
	return &cropOverlay{s: s, item: it, rect: r, orig: r, corner: -1}
}

func (o *cropOverlay) Mode() Mode { return Cropping }

func (o *cropOverlay) corners() [4]vector.Pt {
	r := o.rect
	m := o.item.Core().Transform()
	return [4]vector.Pt{
		m.Apply(vector.Pt{X: r.X, Y: r.Y}),
		m.Apply(vector.Pt{X: r.X + r.W, Y: r.Y}),
		m.Apply(vector.Pt{X: r.X + r.W, Y: r.Y + r.H}),
		m.Apply(vector.Pt{X: r.X, Y: r.Y + r.H}),
	}
}

func (o *cropOverlay) Handles() []vector.Rect {
	cs := o.corners()
	out := make([]vector.Rect, len(cs))
	for i, c := range cs {
		out[i] = handleAt(c)
	}
	return out
}

func (o *cropOverlay) Hit(p vector.Pt) bool {
	for _, h := range o.Handles() {
		if h.Contains(p) {
			return true
		}
	}
	return false
}

func (o *cropOverlay) Press(p vector.Pt) {
	o.corner = -1
	for i, h := range o.Handles() {
		if h.Contains(p) {
			o.corner = i
			return
		}
	}
}

func (o *cropOverlay) Drag(p vector.Pt, _ Modifiers) {
	if o.corner < 0 {
		return
	}
	inv, ok := o.item.Core().Transform().Invert()
	if !ok {
		return
	}
	q := inv.Apply(p)
	x0, y0, x1, y1 := o.rect.X, o.rect.Y, o.rect.X+o.rect.W, o.rect.Y+o.rect.H
	switch o.corner {
	case 0:
		x0, y0 = q.X, q.Y
	case 1:
		x1, y0 = q.X, q.Y
	case 2:
		x1, y1 = q.X, q.Y
	case 3:
		x0, y1 = q.X, q.Y
	}
	o.rect = vector.R(math.Min(x0, x1), math.Min(y0, y1), math.Abs(x1-x0), math.Abs(y1-y0))
	o.s.changed()
}

// Rect is the crop rectangle being edited, in item coordinates.
func (o *cropOverlay) Rect() vector.Rect { return o.rect }

func (o *cropOverlay) Release(vector.Pt) {
	if o.corner < 0 || o.rect == o.orig || o.rect.Empty() {
		o.corner = -1
		return
	}
	o.corner = -1
	if err := o.s.CropItem(o.item, vector.RectPath(o.rect)); err != nil {
		o.s.log.Warn("crop", "err", err)
	}
}

func (o *cropOverlay) Cancel() {
	o.rect = o.orig
	o.corner = -1
	o.s.changed()
}
