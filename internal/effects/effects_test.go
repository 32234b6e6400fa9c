/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package effects

import (
	"image"
	"image/color"
	"testing"

	"photolayouts/internal/props"
)

func solid(c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

type refreshCounter struct{ n int }

func (r *refreshCounter) Refresh() { r.n++ }

func TestGroupAppliesLastInsertedFirst(t *testing.T) {
	g := NewGroup(nil)
	red := &Colorize{Color: color.RGBA{R: 255, A: 255}, Strength: 1}
	if err := g.Insert(0, red, &Negative{}); err != nil {
		t.Fatal(err)
	}
	out := g.Apply(solid(color.RGBA{R: 10, G: 20, B: 30, A: 255})).(*image.RGBA)
	if got := out.RGBAAt(1, 1); got != (color.RGBA{R: 255, A: 255}) {
		t.Fatalf("negative must run before colorize, got %v", got)
	}
	// reversed rows give the opposite composition
	if err := g.Move(1, 1, 0); err != nil {
		t.Fatal(err)
	}
	out = g.Apply(solid(color.RGBA{R: 10, G: 20, B: 30, A: 255})).(*image.RGBA)
	if got := out.RGBAAt(1, 1); got != (color.RGBA{G: 255, B: 255, A: 255}) {
		t.Fatalf("got %v", got)
	}
}

func TestGroupRefreshesOwnerUntilDetached(t *testing.T) {
	rc := &refreshCounter{}
	g := NewGroup(rc)
	_ = g.Insert(0, &Grayscale{})
	_, _ = g.Remove(0, 1)
	if rc.n != 2 {
		t.Fatalf("refresh count = %d", rc.n)
	}
	g.Detach()
	_ = g.Insert(0, &Sepia{})
	if rc.n != 2 || g.Owner() != nil {
		t.Fatalf("detached group still refreshed owner")
	}
}

func TestApplyDoesNotModifySource(t *testing.T) {
	src := solid(color.RGBA{R: 200, G: 100, B: 50, A: 255})
	for _, e := range []Effect{&Grayscale{}, &Sepia{}, &Negative{}, &Blur{Radius: 1}, NewColorize()} {
		_ = e.Apply(src)
		if got := src.RGBAAt(0, 0); got != (color.RGBA{R: 200, G: 100, B: 50, A: 255}) {
			t.Fatalf("%s modified its source: %v", e.Name(), got)
		}
	}
}

func TestGrayscaleEqualChannels(t *testing.T) {
	out := (&Grayscale{}).Apply(solid(color.RGBA{R: 200, G: 100, B: 50, A: 255})).(*image.RGBA)
	c := out.RGBAAt(2, 2)
	if c.R != c.G || c.G != c.B {
		t.Fatalf("not gray: %v", c)
	}
}

func TestBlurSmoothsEdge(t *testing.T) {
	img := solid(color.RGBA{A: 255})
	for y := 0; y < 4; y++ {
		img.SetRGBA(0, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	}
	out := (&Blur{Radius: 1}).Apply(img).(*image.RGBA)
	if c := out.RGBAAt(1, 1); c.R == 0 || c.R == 255 {
		t.Fatalf("expected blended pixel, got %v", c)
	}
	if c := out.RGBAAt(3, 1); c.R != 0 {
		t.Fatalf("far pixel changed: %v", c)
	}
}

func TestRegistryBuildsEveryEffect(t *testing.T) {
	r := NewRegistry()
	for _, name := range r.Names() {
		e, err := r.New(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if _, err := props.EncodeAttrs(e); err != nil {
			t.Fatalf("%s attrs: %v", name, err)
		}
	}
	if len(r.Names()) != 5 {
		t.Fatalf("names: %v", r.Names())
	}
}
