/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package render

import (
	"image"
	"image/color"
	"testing"

	"photolayouts/internal/effects"
	"photolayouts/internal/items"
	"photolayouts/internal/scene"
	"photolayouts/internal/vector"
)

var (
	blue = color.RGBA{B: 255, A: 255}
	red  = color.RGBA{R: 255, A: 255}
)

func redImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, red)
		}
	}
	return img
}

func testScene(t *testing.T) (*scene.Scene, *items.PhotoItem) {
	t.Helper()
	s := scene.New(vector.R(0, 0, 20, 10), scene.Options{})
	s.Background().SetColor(blue)
	p := items.NewPhoto(redImage(4, 4), "p")
	if err := s.AddItem(p); err != nil {
		t.Fatal(err)
	}
	p.SetPos(vector.Pt{X: 4, Y: 2})
	return s, p
}

func at(img *image.RGBA, x, y int) color.RGBA { return img.RGBAAt(x, y) }

func TestSceneDrawsBackgroundAndItem(t *testing.T) {
	s, _ := testScene(t)
	img := Scene(s, Options{})
	if img.Bounds().Dx() != 20 || img.Bounds().Dy() != 10 {
		t.Fatalf("size %v", img.Bounds())
	}
	if c := at(img, 15, 8); c != blue {
		t.Fatalf("background pixel %v", c)
	}
	if c := at(img, 5, 3); c != red {
		t.Fatalf("item pixel %v", c)
	}
}

func TestCropClipsContent(t *testing.T) {
	s, p := testScene(t)
	p.SetCrop(vector.RectPath(vector.R(0, 0, 2, 2)))
	img := Scene(s, Options{})
	if c := at(img, 5, 3); c != red {
		t.Fatalf("inside crop %v", c)
	}
	if c := at(img, 7, 5); c != blue {
		t.Fatalf("outside crop %v", c)
	}
}

func TestEffectsHiddenAndSceneBorder(t *testing.T) {
	s, p := testScene(t)
	_ = p.Effects().Insert(0, &effects.Negative{})
	s.Border().SetWidth(1)
	img := Scene(s, Options{})
	if c := at(img, 5, 3); c != (color.RGBA{G: 255, B: 255, A: 255}) {
		t.Fatalf("negated pixel %v", c)
	}
	if c := at(img, 0, 0); c != (color.RGBA{A: 255}) {
		t.Fatalf("border pixel %v", c)
	}
	p.SetVisible(false)
	if c := at(Scene(s, Options{}), 5, 3); c != blue {
		t.Fatalf("hidden item drawn: %v", c)
	}
}

func TestScaleAndPreview(t *testing.T) {
	s, _ := testScene(t)
	img := Scene(s, Options{Scale: 2})
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 20 {
		t.Fatalf("scaled size %v", img.Bounds())
	}
	if c := at(img, 11, 7); c != red {
		t.Fatalf("scaled item pixel %v", c)
	}
	pv := Preview(s, 10)
	if pv.Bounds().Dx() != 10 || pv.Bounds().Dy() != 5 {
		t.Fatalf("preview size %v", pv.Bounds())
	}
}

func TestSelectionOverlayDrawsOnlyWhenAsked(t *testing.T) {
	s, _ := testScene(t)
	plain := Scene(s, Options{})
	marked := Scene(s, Options{Selection: true})
	diff := 0
	for i := range plain.Pix {
		if plain.Pix[i] != marked.Pix[i] {
			diff++
		}
	}
	if diff == 0 {
		t.Fatalf("selection outline not drawn")
	}
}
