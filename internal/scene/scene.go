/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package scene is the live composition: items in a layers tree, the
// selection, decorations, interaction state and the undo commands that mutate
// them.
package scene

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"strings"

	"photolayouts/internal/borders"
	"photolayouts/internal/effects"
	"photolayouts/internal/items"
	"photolayouts/internal/layers"
	applog "photolayouts/internal/log"
	"photolayouts/internal/textlayout"
	"photolayouts/internal/undo"
	"photolayouts/internal/vector"
)

// Mode is a set of interaction flags.
type Mode uint8

const (
	Viewing Mode = 1 << iota
	Selecting
	Moving
	Rotating
	Scaling
	Cropping
)

// DefaultMode lets the user select and drag items.
const DefaultMode = Selecting | Moving

var (
	ErrMalformed   = errors.New("scene: malformed document")
	ErrNotInScene  = errors.New("scene: item not in this scene")
	ErrAlreadyHere = errors.New("scene: item already in this scene")
	ErrCancelled   = errors.New("scene: cancelled")
)

// Options configures a new scene.
type Options struct {
	Stack   *undo.Stack
	Effects *effects.Registry
	Borders *borders.Registry
	Fonts   textlayout.Provider
	GridX   float64
	GridY   float64
}

// Scene owns the items of one canvas. All mutations of items, tree and
// selection run on the UI goroutine.
type Scene struct {
	rect       vector.Rect
	model      *layers.Model
	sel        *layers.Selection
	background *Background
	border     *SceneBorder
	mode       Mode
	selectable map[string]bool
	stack      *undo.Stack
	effects    *effects.Registry
	borders    *borders.Registry
	fonts      textlayout.Provider
	grid       Grid
	overlays   []Overlay
	press      pressState
	subs       map[items.Item]func()
	observers  []func()
	log        *slog.Logger

	// Confirm asks the user before removing count items; nil means yes.
	Confirm func(count int) bool
}

// New returns an empty scene covering rect.
func New(rect vector.Rect, opts Options) *Scene {
	s := &Scene{
		rect:    rect,
		model:   layers.NewModel(),
		mode:    DefaultMode,
		stack:   opts.Stack,
		effects: opts.Effects,
		borders: opts.Borders,
		fonts:   opts.Fonts,
		grid:    Grid{X: opts.GridX, Y: opts.GridY},
		subs:    make(map[items.Item]func()),
		log:     applog.WithComponent("scene"),
	}
	if s.stack == nil {
		s.stack = undo.NewStack(0)
	}
	if s.effects == nil {
		s.effects = effects.NewRegistry()
	}
	if s.borders == nil {
		s.borders = borders.NewRegistry()
	}
	s.background = &Background{Color: color.RGBA{R: 255, G: 255, B: 255, A: 255}, changed: s.changed}
	s.border = &SceneBorder{Color: color.RGBA{A: 255}, changed: s.changed}
	s.sel = layers.NewSelection(s.model)
	s.sel.OnChanged(s.selectionChanged)
	return s
}

func (s *Scene) Rect() vector.Rect                  { return s.rect }
func (s *Scene) Model() *layers.Model               { return s.model }
func (s *Scene) Selection() *layers.Selection       { return s.sel }
func (s *Scene) Background() *Background            { return s.background }
func (s *Scene) Border() *SceneBorder               { return s.border }
func (s *Scene) Stack() *undo.Stack                 { return s.stack }
func (s *Scene) EffectsRegistry() *effects.Registry { return s.effects }
func (s *Scene) BordersRegistry() *borders.Registry { return s.borders }
func (s *Scene) Fonts() textlayout.Provider         { return s.fonts }
func (s *Scene) Grid() *Grid                        { return &s.grid }

// SetRect resizes the scene; the canvas wraps this in an undoable command.
func (s *Scene) SetRect(r vector.Rect) {
	s.rect = r
	s.grid.regenerate(r)
	s.changed()
}

// OnChanged registers a repaint callback.
func (s *Scene) OnChanged(fn func()) { s.observers = append(s.observers, fn) }

func (s *Scene) changed() {
	for _, fn := range s.observers {
		fn()
	}
}

// Items lists the items topmost first.
func (s *Scene) Items() []items.Item { return s.model.Items() }

// Contains reports whether it belongs to this scene.
func (s *Scene) Contains(it items.Item) bool { return it != nil && it.Core().Owner() == s }

func (s *Scene) Mode() Mode { return s.mode }

// SetMode switches the interaction mode and rebuilds the overlays.
func (s *Scene) SetMode(m Mode) {
	if m == s.mode {
		return
	}
	s.mode = m
	s.press = pressState{}
	s.rebuildOverlays()
	s.changed()
}

// SetSelectableClasses restricts selection to the given item classes; no
// classes means every class is selectable.
func (s *Scene) SetSelectableClasses(classes ...string) {
	if len(classes) == 0 {
		s.selectable = nil
		return
	}
	s.selectable = make(map[string]bool, len(classes))
	for _, c := range classes {
		s.selectable[c] = true
	}
	var keep []*layers.Node
	for _, n := range s.sel.Nodes() {
		if s.isSelectable(n.Item()) {
			keep = append(keep, n)
		}
	}
	if len(keep) != s.sel.Len() {
		s.sel.Set(keep...)
	}
}

func (s *Scene) isSelectable(it items.Item) bool {
	return it != nil && (s.selectable == nil || s.selectable[it.Class()])
}

// SetGridVisible shows or hides the grid lines.
func (s *Scene) SetGridVisible(v bool) {
	s.grid.Visible = v
	s.grid.regenerate(s.rect)
	s.changed()
}

// SetGrid changes the spacing; visible lines are regenerated in place.
func (s *Scene) SetGrid(x, y float64) {
	s.grid.X, s.grid.Y = x, y
	s.grid.regenerate(s.rect)
	s.changed()
}

// UniqueName returns base, or base with the lowest free " N" suffix.
func (s *Scene) UniqueName(base string) string {
	taken := map[string]bool{}
	for _, it := range s.model.Items() {
		taken[it.Core().Name()] = true
	}
	if base == "" {
		base = "Item"
	}
	if !taken[base] {
		return base
	}
	stem := strings.TrimRight(base, "0123456789 ")
	if stem == "" {
		stem = base
	}
	for i := 1; ; i++ {
		if n := fmt.Sprintf("%s %d", stem, i); !taken[n] {
			return n
		}
	}
}

// attach links an item to the scene after it entered the tree.
func (s *Scene) attach(it items.Item) {
	it.Core().SetOwner(s)
	if _, ok := s.subs[it]; !ok {
		s.subs[it] = it.Core().OnChange(func(items.Item) { s.changed() })
	}
}

// release unlinks an item that left the tree. Its groups stay linked so the
// item can come back through undo.
func (s *Scene) release(it items.Item) {
	if rm, ok := s.subs[it]; ok {
		rm()
		delete(s.subs, it)
	}
	it.Core().SetOwner(nil)
}

func (s *Scene) selectionChanged() {
	s.press = pressState{}
	s.rebuildOverlays()
	s.changed()
}

// ItemAt returns the topmost visible, selectable item under p.
func (s *Scene) ItemAt(p vector.Pt) items.Item {
	for _, it := range s.model.Items() {
		if s.isSelectable(it) && items.HitTest(it, p) {
			return it
		}
	}
	return nil
}

// SelectionShape is the union of the selected items' scene shapes.
func (s *Scene) SelectionShape() vector.Path {
	var p vector.Path
	for _, it := range s.sel.Items() {
		p.Append(items.SceneShape(it))
	}
	return p
}

// SelectionBounds is the bounding box of the selected items.
func (s *Scene) SelectionBounds() vector.Rect {
	var r vector.Rect
	for _, it := range s.sel.Items() {
		r = r.Union(items.SceneBounds(it))
	}
	return r
}

// Clear removes every item without undo history; used when a document is discarded.
func (s *Scene) Clear() {
	for _, it := range s.model.Items() {
		s.release(it)
		it.Core().Detach()
	}
	if n := s.model.Root().ChildCount(); n > 0 {
		_, _ = s.model.RemoveRows(0, n, nil)
	}
	s.changed()
}
