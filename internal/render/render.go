/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package render rasterizes a scene: background, visible items bottom-up with
// their effects, crop and borders, then the scene border.
package render

import (
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"

	"photolayouts/internal/items"
	"photolayouts/internal/paint"
	"photolayouts/internal/scene"
	"photolayouts/internal/vector"
)

// Options control what is drawn besides the document itself.
type Options struct {
	// Scale is output pixels per scene unit; zero means 1.
	Scale float64
	// Grid draws the visible grid lines.
	Grid bool
	// Selection outlines selected items and draws overlay handles.
	Selection bool
}

var (
	gridColor      = color.RGBA{R: 160, G: 160, B: 160, A: 120}
	selectionColor = color.RGBA{R: 30, G: 120, B: 230, A: 255}
)

// Scene renders s into a new image sized to the scene rectangle.
func Scene(s *scene.Scene, opt Options) *image.RGBA {
	scale := opt.Scale
	if scale <= 0 {
		scale = 1
	}
	r := s.Rect()
	w := max(int(math.Ceil(r.W*scale)), 1)
	h := max(int(math.Ceil(r.H*scale)), 1)
	dc := gg.NewContext(w, h)
	base := vector.Scale(scale, scale).Mul(vector.Translate(-r.X, -r.Y))
	Draw(dc, s, base, opt)
	return dc.Image().(*image.RGBA)
}

// Preview renders s with its longest side at px pixels.
func Preview(s *scene.Scene, px int) *image.RGBA {
	r := s.Rect()
	side := math.Max(r.W, r.H)
	if side <= 0 || px <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	return Scene(s, Options{Scale: float64(px) / side})
}

// Draw paints s onto dc with base mapping scene to device coordinates.
func Draw(dc *gg.Context, s *scene.Scene, base vector.Affine2D, opt Options) {
	r := s.Rect()
	dc.Push()
	paint.SetMatrix(dc, base)
	dc.DrawRectangle(r.X, r.Y, r.W, r.H)
	dc.SetColor(s.Background().Color)
	dc.Fill()
	dc.Pop()

	for _, it := range s.Model().PaintOrder() {
		Item(dc, it, base)
	}

	if s.Border().Width > 0 {
		dc.Push()
		paint.SetMatrix(dc, base)
		outer, inner := s.BorderPaths()
		paint.FillEvenOdd(dc, s.Border().Color, outer, inner)
		dc.Pop()
	}
	if opt.Grid {
		drawGrid(dc, s, base)
	}
	if opt.Selection {
		drawSelection(dc, s, base)
	}
}

// Item paints one visible item: its effected content clipped to the opaque
// area, then its borders.
func Item(dc *gg.Context, it items.Item, base vector.Affine2D) {
	b := it.Core()
	if !b.Visible() {
		return
	}
	m := base.Mul(b.Transform())
	opaque := items.OpaqueArea(it)
	content := b.Rendered()
	cb := content.Bounds()
	dr := it.DrawShape().Bounds()

	if cb.Dx() > 0 && cb.Dy() > 0 && !dr.Empty() {
		dc.Push()
		paint.SetMatrix(dc, m)
		dc.NewSubPath()
		paint.TracePath(dc, opaque)
		dc.SetFillRuleEvenOdd()
		dc.Clip()
		fit := vector.Translate(dr.X, dr.Y).Mul(vector.Scale(dr.W/float64(cb.Dx()), dr.H/float64(cb.Dy())))
		paint.SetMatrix(dc, m.Mul(fit))
		dc.DrawImage(content, -cb.Min.X, -cb.Min.Y)
		dc.ResetClip()
		dc.Pop()
	}

	if b.Borders().Len() > 0 {
		dc.Push()
		paint.SetMatrix(dc, m)
		b.Borders().Paint(dc, opaque)
		dc.Pop()
	}
}

func drawGrid(dc *gg.Context, s *scene.Scene, base vector.Affine2D) {
	lines := s.Grid().Lines()
	if len(lines) == 0 {
		return
	}
	dc.Push()
	defer dc.Pop()
	dc.Identity()
	dc.SetColor(gridColor)
	dc.SetLineWidth(1)
	for _, l := range lines {
		a, b := base.Apply(l.From), base.Apply(l.To)
		dc.DrawLine(a.X, a.Y, b.X, b.Y)
	}
	dc.Stroke()
}

func drawSelection(dc *gg.Context, s *scene.Scene, base vector.Affine2D) {
	dc.Push()
	defer dc.Pop()
	dc.Identity()
	dc.SetColor(selectionColor)
	dc.SetLineWidth(1)
	dc.SetDash(4, 3)
	for _, it := range s.Selection().Items() {
		dc.NewSubPath()
		paint.TracePath(dc, items.SceneShape(it).Transform(base))
		dc.Stroke()
	}
	dc.SetDash()
	for _, o := range s.Overlays() {
		for _, h := range o.Handles() {
			hr := base.MapRect(h)
			dc.DrawRectangle(hr.X, hr.Y, hr.W, hr.H)
			dc.Fill()
		}
	}
}
