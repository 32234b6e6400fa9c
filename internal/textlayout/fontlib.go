/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"

	"photolayouts/internal/props"
)

// FontLibrary stores loaded OpenType fonts mapped by family/bold/italic.
type FontLibrary struct {
	fonts map[fontKey]*opentype.Font
}

type fontKey struct {
	family string
	bold   bool
	italic bool
}

func NewFontLibrary() *FontLibrary { return &FontLibrary{fonts: make(map[fontKey]*opentype.Font)} }

// LoadTTF loads a font file into the library under the given family/bold/italic.
func (fl *FontLibrary) LoadTTF(family string, bold, italic bool, path string) error {
	if fl.fonts == nil {
		fl.fonts = make(map[fontKey]*opentype.Font)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font %s: %w", path, err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %s: %w", path, err)
	}
	fl.fonts[fontKey{family: strings.ToLower(family), bold: bold, italic: italic}] = f
	return nil
}

// LoadDir loads every .ttf/.otf file in dir. The family is the file name up to
// the first '-'; "Bold" and "Italic" in the rest select the style, so
// "Sans-BoldItalic.ttf" is family Sans, bold and italic. Unparseable files are
// returned as errors after the rest have been loaded.
func (fl *FontLibrary) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read font dir: %w", err)
	}
	var errs []string
	n := 0
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".ttf" && ext != ".otf") {
			continue
		}
		stem := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		family, style, _ := strings.Cut(stem, "-")
		if err := fl.LoadTTF(family, strings.Contains(style, "Bold"), strings.Contains(style, "Italic"), filepath.Join(dir, e.Name())); err != nil {
			errs = append(errs, err.Error())
			continue
		}
		n++
	}
	if len(errs) > 0 {
		return n, fmt.Errorf("load fonts: %s", strings.Join(errs, "; "))
	}
	return n, nil
}

// Families lists the loaded family names.
func (fl *FontLibrary) Families() []string {
	seen := map[string]bool{}
	var out []string
	for k := range fl.fonts {
		if !seen[k.family] {
			seen[k.family] = true
			out = append(out, k.family)
		}
	}
	return out
}

func (fl *FontLibrary) find(spec props.FontSpec) *opentype.Font {
	if fl == nil || fl.fonts == nil {
		return nil
	}
	fam := strings.ToLower(spec.Family)
	if f, ok := fl.fonts[fontKey{family: fam, bold: spec.Bold, italic: spec.Italic}]; ok {
		return f
	}
	if f, ok := fl.fonts[fontKey{family: fam}]; ok {
		return f
	}
	for k, f := range fl.fonts {
		if k.family == fam {
			return f
		}
	}
	return nil
}

// Metrics provides font metrics in pixels for the resolved face. Scale is the
// factor the face must be drawn at to reach the requested size; it is 1 for
// real outline fonts.
type Metrics struct {
	Ascent, Descent, LineGap float64
	Scale                    float64
}

// Provider maps a FontSpec to a concrete font.Face.
type Provider interface {
	Resolve(props.FontSpec) (font.Face, Metrics)
}

// BasicProvider uses the fixed 7x13 bitmap face scaled to the requested size.
type BasicProvider struct{}

func (BasicProvider) Resolve(spec props.FontSpec) (font.Face, Metrics) {
	f := basicfont.Face7x13
	m := f.Metrics()
	s := 1.0
	if spec.Size > 0 {
		s = spec.Size / float64(f.Height)
	}
	return f, Metrics{
		Ascent:  float64(m.Ascent.Round()),
		Descent: float64(m.Descent.Round()),
		LineGap: float64(m.Height.Round() - m.Ascent.Round() - m.Descent.Round()),
		Scale:   s,
	}
}

// OTProvider resolves FontSpec using a FontLibrary and falls back to another Provider.
type OTProvider struct {
	Lib      *FontLibrary
	DPI      float64 // default 72 if zero
	Fallback Provider
}

func (p OTProvider) Resolve(spec props.FontSpec) (font.Face, Metrics) {
	if spec.Size <= 0 {
		spec.Size = 12
	}
	dpi := p.DPI
	if dpi <= 0 {
		dpi = 72
	}
	if f := p.Lib.find(spec); f != nil {
		face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: spec.Size, DPI: dpi, Hinting: font.HintingFull})
		if err == nil {
			m := face.Metrics()
			return face, Metrics{
				Ascent:  float64(m.Ascent.Round()),
				Descent: float64(m.Descent.Round()),
				LineGap: float64(m.Height.Round() - m.Ascent.Round() - m.Descent.Round()),
				Scale:   1,
			}
		}
	}
	fb := p.Fallback
	if fb == nil {
		fb = BasicProvider{}
	}
	return fb.Resolve(spec)
}
