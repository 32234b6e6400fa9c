/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package textlayout measures and draws the multi-line text of text items.
// Font faces come from a Provider so measurement is deterministic in tests.
package textlayout

import (
	"image/color"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"photolayouts/internal/props"
)

// Line is a single laid out line.
type Line struct {
	Text     string
	Width    float64
	Baseline float64 // y of the baseline from the top of the block
}

// Block is text laid out line by line; lines break only at '\n'.
type Block struct {
	Lines   []Line
	Width   float64
	Height  float64
	Metrics Metrics
}

// Layout measures text in the font resolved for spec. Sizes are in pixels at
// the requested font size.
func Layout(provider Provider, spec props.FontSpec, text string) Block {
	if provider == nil {
		provider = BasicProvider{}
	}
	face, met := provider.Resolve(spec)
	d := &font.Drawer{Face: face}
	lineH := (met.Ascent + met.Descent + met.LineGap) * met.Scale
	b := Block{Metrics: met}
	for i, s := range strings.Split(text, "\n") {
		w := float64(d.MeasureString(s).Round()) * met.Scale
		b.Lines = append(b.Lines, Line{Text: s, Width: w, Baseline: float64(i)*lineH + met.Ascent*met.Scale})
		if w > b.Width {
			b.Width = w
		}
	}
	b.Height = float64(len(b.Lines)) * lineH
	return b
}

// Draw paints a laid out block with its top-left corner at (x, y).
func Draw(dc *gg.Context, provider Provider, spec props.FontSpec, b Block, x, y float64, c color.Color) {
	if provider == nil {
		provider = BasicProvider{}
	}
	face, met := provider.Resolve(spec)
	dc.Push()
	defer dc.Pop()
	dc.SetFontFace(face)
	dc.SetColor(c)
	dc.Translate(x, y)
	dc.Scale(met.Scale, met.Scale)
	for _, l := range b.Lines {
		dc.DrawString(l.Text, 0, l.Baseline/met.Scale)
	}
}
