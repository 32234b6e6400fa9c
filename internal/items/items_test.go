/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package items

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"photolayouts/internal/borders"
	"photolayouts/internal/effects"
	"photolayouts/internal/vector"
)

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return img
}

func TestPhotoShapeFollowsCropAndBorders(t *testing.T) {
	p := NewPhoto(testImage(100, 50), "Photo")
	if got := OpaqueArea(p).Bounds(); got != vector.R(0, 0, 100, 50) {
		t.Fatalf("uncropped opaque area = %+v", got)
	}
	p.SetCrop(vector.RectPath(vector.R(50, -10, 100, 30)))
	if got := OpaqueArea(p).Bounds(); got != vector.R(50, 0, 50, 20) {
		t.Fatalf("cropped opaque area = %+v", got)
	}
	_ = p.Borders().Insert(0, &borders.Solid{Width: 5, Color: color.RGBA{A: 255}, Corners: borders.Miter})
	if got := Shape(p).Bounds(); got != vector.R(45, -5, 60, 30) {
		t.Fatalf("shape with border = %+v", got)
	}
}

func TestHitTestUsesTransform(t *testing.T) {
	p := NewPhoto(testImage(10, 10), "Photo")
	p.SetTransform(vector.Translate(100, 100))
	if !HitTest(p, vector.Pt{X: 105, Y: 105}) {
		t.Fatalf("expected hit inside translated item")
	}
	if HitTest(p, vector.Pt{X: 5, Y: 5}) {
		t.Fatalf("unexpected hit at the untransformed position")
	}
	p.SetVisible(false)
	if HitTest(p, vector.Pt{X: 105, Y: 105}) {
		t.Fatalf("hidden items are not hit")
	}
}

func TestRefreshNotifiesObserversUntilDetached(t *testing.T) {
	p := NewPhoto(testImage(4, 4), "Photo")
	n := 0
	remove := p.OnChange(func(Item) { n++ })
	_ = p.Effects().Insert(0, &effects.Grayscale{})
	p.SetPos(vector.Pt{X: 3, Y: 4})
	if n != 2 {
		t.Fatalf("notifications = %d", n)
	}
	remove()
	p.SetPos(vector.Pt{X: 1, Y: 1})
	if n != 2 {
		t.Fatalf("removed observer still called")
	}
	p.OnChange(func(Item) { n++ })
	p.Detach()
	_ = p.Effects().Insert(0, &effects.Negative{})
	if n != 2 || p.Effects().Owner() != nil {
		t.Fatalf("detached item still notified")
	}
}

func TestTextItemMeasuresContent(t *testing.T) {
	ti := NewText("ab\nc", nil, "Text")
	ti.SetFont(ti.Font()) // keep defaults, exercise cache reset
	b := ti.DrawShape().Bounds()
	c := ti.Content().Bounds()
	if b.W <= 0 || b.H <= 0 || int(b.W) != c.Dx() || int(b.H) != c.Dy() {
		t.Fatalf("shape %+v vs content %v", b, c)
	}
	before := b.W
	ti.SetText("a much longer line")
	if ti.DrawShape().Bounds().W <= before {
		t.Fatalf("shape did not grow with text")
	}
}

func TestLoadPhotoAndThumbnail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, testImage(40, 20)); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()
	p, err := LoadPhoto("file://"+path, "Photo")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.SourceURL == "" || p.Image().Bounds().Dx() != 40 {
		t.Fatalf("unexpected photo %+v", p.Image().Bounds())
	}
	if got := p.Icon(10).Bounds(); got.Dx() != 10 || got.Dy() != 5 {
		t.Fatalf("icon size %v", got)
	}
	if _, err := LoadPhoto(filepath.Join(t.TempDir(), "missing.png"), "x"); err == nil {
		t.Fatalf("missing file should fail")
	}
}
