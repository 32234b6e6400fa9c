//go:build fyne

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"image"
	"math"

	"fyne.io/fyne/v2"
	fcanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"photolayouts/internal/canvas"
	"photolayouts/internal/scene"
	"photolayouts/internal/vector"
)

// scrollPerNotch is the fyne scroll distance of one wheel notch.
const scrollPerNotch = 10

// CanvasWidget shows a canvas and routes pointer, wheel and key input to it.
type CanvasWidget struct {
	widget.BaseWidget

	c      *canvas.Canvas
	raster *fcanvas.Raster
	// pixels per fyne unit of the last rendered frame
	ratio   float32
	pressed bool

	// OnEdited is called after input changed the canvas.
	OnEdited func()
}

var (
	_ desktop.Mouseable = (*CanvasWidget)(nil)
	_ desktop.Hoverable = (*CanvasWidget)(nil)
	_ fyne.Scrollable   = (*CanvasWidget)(nil)
	_ fyne.Focusable    = (*CanvasWidget)(nil)
)

func NewCanvasWidget(c *canvas.Canvas) *CanvasWidget {
	w := &CanvasWidget{c: c, ratio: 1}
	w.raster = fcanvas.NewRaster(w.draw)
	w.ExtendBaseWidget(w)
	return w
}

// SetCanvas replaces the shown canvas; nil shows an empty area.
func (w *CanvasWidget) SetCanvas(c *canvas.Canvas) {
	w.c = c
	w.pressed = false
	w.Refresh()
}

func (w *CanvasWidget) Canvas() *canvas.Canvas { return w.c }

func (w *CanvasWidget) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(w.raster)
}

func (w *CanvasWidget) MinSize() fyne.Size { return fyne.NewSize(320, 240) }

func (w *CanvasWidget) draw(pw, ph int) image.Image {
	if w.c == nil {
		return image.NewRGBA(image.Rect(0, 0, pw, ph))
	}
	if sz := w.Size(); sz.Width > 0 {
		w.ratio = float32(pw) / sz.Width
	}
	w.c.SetViewport(float64(pw), float64(ph))
	return w.c.Render()
}

// viewPt converts a widget position to viewport pixels.
func (w *CanvasWidget) viewPt(p fyne.Position) vector.Pt {
	return vector.Pt{X: float64(p.X * w.ratio), Y: float64(p.Y * w.ratio)}
}

func (w *CanvasWidget) scenePt(p fyne.Position) vector.Pt { return w.c.MapToScene(w.viewPt(p)) }

// sceneModifiers maps keyboard modifiers: Shift toggles selection, Control
// (or Super) snaps to the grid.
func sceneModifiers(m fyne.KeyModifier) scene.Modifiers {
	var out scene.Modifiers
	if m&fyne.KeyModifierShift != 0 {
		out |= scene.ModAdditive
	}
	if m&(fyne.KeyModifierControl|fyne.KeyModifierSuper) != 0 {
		out |= scene.ModSnap
	}
	return out
}

// sceneKey maps a typed key to a scene key; ok is false for keys the scene
// ignores.
func sceneKey(k fyne.KeyName) (scene.Key, bool) {
	switch k {
	case fyne.KeyDelete, fyne.KeyBackspace:
		return scene.KeyDelete, true
	case fyne.KeyEscape:
		return scene.KeyEscape, true
	}
	return 0, false
}

// wheelDelta converts a fyne scroll distance into wheel units of notch per
// detent.
func wheelDelta(dy float32, notch int) int {
	return int(math.Round(float64(dy) / scrollPerNotch * float64(notch)))
}

func (w *CanvasWidget) edited() {
	w.raster.Refresh()
	if w.OnEdited != nil {
		w.OnEdited()
	}
}

// editable is false while the canvas waits for a worker; input is dropped then.
func (w *CanvasWidget) editable() bool { return w.c != nil && w.c.Interactive() }

func (w *CanvasWidget) MouseDown(e *desktop.MouseEvent) {
	if !w.editable() || e.Button != desktop.MouseButtonPrimary {
		return
	}
	if c := fyne.CurrentApp().Driver().CanvasForObject(w); c != nil {
		c.Focus(w)
	}
	p, mods := w.scenePt(e.Position), sceneModifiers(e.Modifier)
	w.pressed = true
	_ = w.c.Edit(func(s *scene.Scene) error {
		s.MousePress(p, mods)
		return nil
	})
	w.edited()
}

func (w *CanvasWidget) MouseUp(e *desktop.MouseEvent) {
	if w.c == nil || !w.pressed {
		return
	}
	w.pressed = false
	if !w.c.Interactive() {
		return
	}
	p, mods := w.scenePt(e.Position), sceneModifiers(e.Modifier)
	_ = w.c.Edit(func(s *scene.Scene) error {
		s.MouseRelease(p, mods)
		return nil
	})
	w.edited()
}

func (w *CanvasWidget) MouseIn(*desktop.MouseEvent) {}
func (w *CanvasWidget) MouseOut()                   {}

func (w *CanvasWidget) MouseMoved(e *desktop.MouseEvent) {
	if !w.pressed || !w.editable() {
		return
	}
	p, mods := w.scenePt(e.Position), sceneModifiers(e.Modifier)
	_ = w.c.Edit(func(s *scene.Scene) error {
		s.MouseMove(p, mods)
		return nil
	})
	w.raster.Refresh()
}

func (w *CanvasWidget) Scrolled(e *fyne.ScrollEvent) {
	if w.c == nil {
		return
	}
	if w.c.Wheel(wheelDelta(e.Scrolled.DY, w.c.WheelNotch()), w.viewPt(e.Position)) {
		w.raster.Refresh()
	}
}

func (w *CanvasWidget) FocusGained()   {}
func (w *CanvasWidget) FocusLost()     {}
func (w *CanvasWidget) TypedRune(rune) {}

func (w *CanvasWidget) TypedKey(e *fyne.KeyEvent) {
	if !w.editable() {
		return
	}
	k, ok := sceneKey(e.Name)
	if !ok {
		return
	}
	_ = w.c.Edit(func(s *scene.Scene) error {
		s.KeyPress(k)
		return nil
	})
	w.edited()
}
