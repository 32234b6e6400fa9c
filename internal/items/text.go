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
	"math"

	"github.com/fogleman/gg"

	"photolayouts/internal/props"
	"photolayouts/internal/textlayout"
	"photolayouts/internal/vector"
)

// TextItem shows multi-line text in one font and color.
type TextItem struct {
	Base
	text  string
	color color.RGBA
	font  props.FontSpec
	fonts textlayout.Provider
	block *textlayout.Block
}

// NewText returns a text item. A nil provider uses the built-in bitmap font.
func NewText(text string, fonts textlayout.Provider, name string) *TextItem {
	t := &TextItem{
		text:  text,
		color: color.RGBA{A: 255},
		font:  props.FontSpec{Family: "Sans", Size: 24},
		fonts: fonts,
	}
	t.init(t, name)
	return t
}

func (t *TextItem) Core() *Base   { return &t.Base }
func (t *TextItem) Class() string { return ClassText }

func (t *TextItem) Text() string          { return t.text }
func (t *TextItem) Color() color.RGBA     { return t.color }
func (t *TextItem) Font() props.FontSpec  { return t.font }
func (t *TextItem) SetText(s string)      { t.text = s; t.changed() }
func (t *TextItem) SetColor(c color.RGBA) { t.color = c; t.changed() }
func (t *TextItem) SetFont(f props.FontSpec) {
	t.font = f
	t.changed()
}

// SetFonts swaps the font provider, e.g. once user fonts are loaded.
func (t *TextItem) SetFonts(p textlayout.Provider) { t.fonts = p; t.changed() }

func (t *TextItem) changed() {
	t.block = nil
	t.Refresh()
}

func (t *TextItem) layout() textlayout.Block {
	if t.block == nil {
		b := textlayout.Layout(t.fonts, t.font, t.text)
		t.block = &b
	}
	return *t.block
}

func (t *TextItem) DrawShape() vector.Path {
	b := t.layout()
	return vector.RectPath(vector.R(0, 0, math.Ceil(b.Width), math.Ceil(b.Height)))
}

func (t *TextItem) Content() image.Image {
	b := t.layout()
	w, h := int(math.Ceil(b.Width)), int(math.Ceil(b.Height))
	if w == 0 || h == 0 {
		return image.NewRGBA(image.Rect(0, 0, w, h))
	}
	dc := gg.NewContext(w, h)
	textlayout.Draw(dc, t.fonts, t.font, b, 0, 0, t.color)
	return dc.Image()
}

// Properties exposes the text attributes to the generic property editor.
func (t *TextItem) Properties() []props.Property {
	return []props.Property{
		{Name: "text", Display: "Text", Kind: props.String,
			Get: func() any { return t.text }, Set: func(v any) { t.SetText(v.(string)) }},
		{Name: "color", Display: "Color", Kind: props.Color,
			Get: func() any { return t.color }, Set: func(v any) { t.SetColor(v.(color.RGBA)) }},
		{Name: "font", Display: "Font", Kind: props.Font,
			Get: func() any { return t.font }, Set: func(v any) { t.SetFont(v.(props.FontSpec)) }},
	}
}
