/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package borders

import (
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"photolayouts/internal/paint"
	"photolayouts/internal/props"
	"photolayouts/internal/vector"
)

// Corner styles of a solid frame.
const (
	Miter = "miter"
	Round = "round"
	Bevel = "bevel"
)

// Solid is a plain frame of Width around the bounds of the inner outline.
type Solid struct {
	Width   int
	Color   color.RGBA
	Corners string
}

func NewSolid() *Solid {
	return &Solid{Width: 10, Color: color.RGBA{A: 255}, Corners: Miter}
}

func (*Solid) Name() string { return "Solid" }

func (s *Solid) Properties() []props.Property {
	return []props.Property{
		{Name: "width", Display: "Width", Kind: props.Int, Min: 0, Max: 500, Step: 1,
			Get: func() any { return s.Width }, Set: func(v any) { s.Width = v.(int) }},
		{Name: "color", Display: "Color", Kind: props.Color,
			Get: func() any { return s.Color }, Set: func(v any) { s.Color = v.(color.RGBA) }},
		{Name: "corners", Display: "Corners", Kind: props.Enum, Choices: []string{Miter, Round, Bevel},
			Get: func() any { return s.Corners }, Set: func(v any) { s.Corners = v.(string) }},
	}
}

func (s *Solid) Path(inner vector.Path) vector.Path {
	w := float64(s.Width)
	r := inner.Bounds().Inset(-w, -w)
	switch s.Corners {
	case Round:
		return roundedRect(r, w)
	case Bevel:
		return bevelRect(r, w)
	}
	return vector.RectPath(r)
}

func (s *Solid) Paint(dc *gg.Context, inner vector.Path) {
	if s.Width <= 0 {
		return
	}
	paint.FillEvenOdd(dc, s.Color, s.Path(inner), inner)
}

// Polaroid is a frame with a wider bottom strip carrying a caption.
type Polaroid struct {
	Width    int
	Text     string
	Color    color.RGBA
	FontSize float64
}

func NewPolaroid() *Polaroid {
	return &Polaroid{Width: 20, Color: color.RGBA{R: 255, G: 255, B: 255, A: 255}, FontSize: 13}
}

func (*Polaroid) Name() string { return "Polaroid" }

func (p *Polaroid) Properties() []props.Property {
	return []props.Property{
		{Name: "width", Display: "Width", Kind: props.Int, Min: 0, Max: 500, Step: 1,
			Get: func() any { return p.Width }, Set: func(v any) { p.Width = v.(int) }},
		{Name: "text", Display: "Caption", Kind: props.String,
			Get: func() any { return p.Text }, Set: func(v any) { p.Text = v.(string) }},
		{Name: "color", Display: "Color", Kind: props.Color,
			Get: func() any { return p.Color }, Set: func(v any) { p.Color = v.(color.RGBA) }},
		{Name: "font_size", Display: "Font size", Kind: props.Float, Min: 4, Max: 200, Step: 1,
			Get: func() any { return p.FontSize }, Set: func(v any) { p.FontSize = v.(float64) }},
	}
}

// strip is the height of the caption strip below the inner outline.
func (p *Polaroid) strip() float64 {
	return math.Max(float64(p.Width), p.FontSize*2)
}

func (p *Polaroid) Path(inner vector.Path) vector.Path {
	b := inner.Bounds()
	w := float64(p.Width)
	return vector.RectPath(vector.R(b.X-w, b.Y-w, b.W+2*w, b.H+w+p.strip()))
}

func (p *Polaroid) Paint(dc *gg.Context, inner vector.Path) {
	paint.FillEvenOdd(dc, p.Color, p.Path(inner), inner)
	if p.Text == "" {
		return
	}
	b := inner.Bounds()
	face := basicfont.Face7x13
	scale := p.FontSize / float64(face.Height)
	if cw := p.captionWidth(); cw > b.W && cw > 0 {
		scale *= b.W / cw
	}
	dc.Push()
	defer dc.Pop()
	dc.SetFontFace(face)
	dc.SetColor(textColor(p.Color))
	cx, cy := b.X+b.W/2, b.Y+b.H+p.strip()/2
	dc.Translate(cx, cy)
	dc.Scale(scale, scale)
	dc.DrawStringAnchored(p.Text, 0, 0, 0.5, 0.35)
}

// captionWidth is the caption advance at FontSize.
func (p *Polaroid) captionWidth() float64 {
	adv := font.MeasureString(basicfont.Face7x13, p.Text)
	return float64(adv.Round()) * p.FontSize / float64(basicfont.Face7x13.Height)
}

// textColor picks black or white for contrast against bg.
func textColor(bg color.RGBA) color.Color {
	if 0.299*float64(bg.R)+0.587*float64(bg.G)+0.114*float64(bg.B) > 127 {
		return color.Black
	}
	return color.White
}

func roundedRect(r vector.Rect, rad float64) vector.Path {
	rad = math.Min(rad, math.Min(r.W, r.H)/2)
	const k = 0.5522847498307936
	x0, y0, x1, y1 := r.X, r.Y, r.X+r.W, r.Y+r.H
	var p vector.Path
	p.MoveTo(x0+rad, y0)
	p.LineTo(x1-rad, y0)
	p.CubicTo(x1-rad+rad*k, y0, x1, y0+rad-rad*k, x1, y0+rad)
	p.LineTo(x1, y1-rad)
	p.CubicTo(x1, y1-rad+rad*k, x1-rad+rad*k, y1, x1-rad, y1)
	p.LineTo(x0+rad, y1)
	p.CubicTo(x0+rad-rad*k, y1, x0, y1-rad+rad*k, x0, y1-rad)
	p.LineTo(x0, y0+rad)
	p.CubicTo(x0, y0+rad-rad*k, x0+rad-rad*k, y0, x0+rad, y0)
	p.Close()
	return p
}

func bevelRect(r vector.Rect, cut float64) vector.Path {
	cut = math.Min(cut, math.Min(r.W, r.H)/2)
	x0, y0, x1, y1 := r.X, r.Y, r.X+r.W, r.Y+r.H
	var p vector.Path
	p.MoveTo(x0+cut, y0)
	p.LineTo(x1-cut, y0)
	p.LineTo(x1, y0+cut)
	p.LineTo(x1, y1-cut)
	p.LineTo(x1-cut, y1)
	p.LineTo(x0+cut, y1)
	p.LineTo(x0, y1-cut)
	p.LineTo(x0, y0+cut)
	p.Close()
	return p
}
