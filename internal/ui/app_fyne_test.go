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

// These tests validate the Fyne-based canvas widget. They are gated behind
// the "fyne" build tag so CI (which is headless) does not need Fyne or a
// display. To run locally:
//
//	go test -tags fyne ./internal/ui
package ui

import (
	"image"
	"path/filepath"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"

	"photolayouts/internal/canvas"
	"photolayouts/internal/config"
	"photolayouts/internal/items"
	"photolayouts/internal/scene"
)

func newWidgetCanvas(t *testing.T) *canvas.Canvas {
	t.Helper()
	opt := canvas.OptionsFrom(config.Defaults())
	opt.Page.Width, opt.Page.Height = 200, 100
	c := canvas.New(opt)
	t.Cleanup(c.Close)
	return c
}

func TestSceneModifiers(t *testing.T) {
	if got := sceneModifiers(0); got != 0 {
		t.Fatalf("no modifiers = %v", got)
	}
	if got := sceneModifiers(fyne.KeyModifierShift); got != scene.ModAdditive {
		t.Fatalf("shift = %v", got)
	}
	if got := sceneModifiers(fyne.KeyModifierControl | fyne.KeyModifierShift); got != scene.ModAdditive|scene.ModSnap {
		t.Fatalf("ctrl+shift = %v", got)
	}
	if got := sceneModifiers(fyne.KeyModifierSuper); got != scene.ModSnap {
		t.Fatalf("super = %v", got)
	}
}

func TestSceneKey(t *testing.T) {
	for name, want := range map[fyne.KeyName]scene.Key{
		fyne.KeyDelete:    scene.KeyDelete,
		fyne.KeyBackspace: scene.KeyDelete,
		fyne.KeyEscape:    scene.KeyEscape,
	} {
		if got, ok := sceneKey(name); !ok || got != want {
			t.Fatalf("%s = %v, %v", name, got, ok)
		}
	}
	if _, ok := sceneKey(fyne.KeyA); ok {
		t.Fatalf("letters should not reach the scene")
	}
}

func TestWheelDelta(t *testing.T) {
	if got := wheelDelta(scrollPerNotch, 120); got != 120 {
		t.Fatalf("one detent = %d", got)
	}
	if got := wheelDelta(-2*scrollPerNotch, 120); got != -240 {
		t.Fatalf("two detents down = %d", got)
	}
}

func TestCanvasWidgetRoutesInput(t *testing.T) {
	test.NewTempApp(t)
	c := newWidgetCanvas(t)
	p := items.NewPhoto(image.NewRGBA(image.Rect(0, 0, 20, 10)), "p")
	if err := c.Scene().AddItem(p); err != nil {
		t.Fatalf("add: %v", err)
	}
	w := NewCanvasWidget(c)
	w.Resize(fyne.NewSize(200, 100))
	if img := w.draw(200, 100); img.Bounds().Dx() != 200 {
		t.Fatalf("frame = %v", img.Bounds())
	}
	edits := 0
	w.OnEdited = func() { edits++ }

	w.TypedKey(&fyne.KeyEvent{Name: fyne.KeyEscape})
	if !c.Scene().Selection().Empty() {
		t.Fatalf("escape should clear the selection")
	}

	ev := &desktop.MouseEvent{Button: desktop.MouseButtonPrimary}
	ev.Position = fyne.NewPos(5, 5)
	w.MouseDown(ev)
	w.MouseUp(ev)
	if c.Scene().Selection().Len() != 1 {
		t.Fatalf("click did not select the photo")
	}

	w.TypedKey(&fyne.KeyEvent{Name: fyne.KeyDelete})
	if len(c.Scene().Items()) != 0 {
		t.Fatalf("delete left %d items", len(c.Scene().Items()))
	}
	if edits != 4 {
		t.Fatalf("edits = %d", edits)
	}
	if !c.Undo() || len(c.Scene().Items()) != 1 {
		t.Fatalf("delete was not undoable")
	}
}

func TestCanvasWidgetWheelZooms(t *testing.T) {
	test.NewTempApp(t)
	c := newWidgetCanvas(t)
	w := NewCanvasWidget(c)
	w.Resize(fyne.NewSize(200, 100))
	w.draw(200, 100)
	w.Scrolled(&fyne.ScrollEvent{Scrolled: fyne.NewDelta(0, scrollPerNotch)})
	if c.Scale() != 1.25 {
		t.Fatalf("scale = %v", c.Scale())
	}
}

func TestCanvasWidgetWithoutCanvas(t *testing.T) {
	test.NewTempApp(t)
	w := NewCanvasWidget(nil)
	if img := w.draw(10, 10); img.Bounds().Dx() != 10 {
		t.Fatalf("empty frame = %v", img.Bounds())
	}
	w.TypedKey(&fyne.KeyEvent{Name: fyne.KeyDelete})
	w.Scrolled(&fyne.ScrollEvent{})
	w.MouseDown(&desktop.MouseEvent{Button: desktop.MouseButtonPrimary})
}

func TestCanvasWidgetDropsInputWhileBusy(t *testing.T) {
	test.NewTempApp(t)
	c := newWidgetCanvas(t)
	if err := c.Scene().AddItem(items.NewPhoto(image.NewRGBA(image.Rect(0, 0, 20, 10)), "p")); err != nil {
		t.Fatalf("add: %v", err)
	}
	job, err := c.AddImages(filepath.Join(t.TempDir(), "missing.png"))
	if err != nil {
		t.Fatalf("add images: %v", err)
	}
	_ = job.Wait()

	w := NewCanvasWidget(c)
	w.Resize(fyne.NewSize(200, 100))
	edits := 0
	w.OnEdited = func() { edits++ }
	w.TypedKey(&fyne.KeyEvent{Name: fyne.KeyDelete})
	w.MouseDown(&desktop.MouseEvent{Button: desktop.MouseButtonPrimary})
	if len(c.Scene().Items()) != 1 || edits != 0 {
		t.Fatalf("busy canvas took input: items=%d edits=%d", len(c.Scene().Items()), edits)
	}

	c.Pump()
	w.TypedKey(&fyne.KeyEvent{Name: fyne.KeyDelete})
	if len(c.Scene().Items()) != 0 || edits != 1 {
		t.Fatalf("after pump: items=%d edits=%d", len(c.Scene().Items()), edits)
	}
}
