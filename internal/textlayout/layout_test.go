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
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/fogleman/gg"

	"photolayouts/internal/props"
)

func TestLayoutSplitsLines(t *testing.T) {
	b := Layout(BasicProvider{}, props.FontSpec{Size: 13}, "Hello\nworld!")
	if len(b.Lines) != 2 {
		t.Fatalf("lines = %d", len(b.Lines))
	}
	if b.Lines[0].Width != 35 || b.Width != 42 {
		t.Fatalf("widths: %v / %v", b.Lines[0].Width, b.Width)
	}
	if b.Height <= 0 || b.Lines[1].Baseline <= b.Lines[0].Baseline {
		t.Fatalf("bad vertical layout: %+v", b)
	}
}

func TestLayoutScalesWithSize(t *testing.T) {
	small := Layout(BasicProvider{}, props.FontSpec{Size: 13}, "ABC")
	big := Layout(BasicProvider{}, props.FontSpec{Size: 26}, "ABC")
	if big.Width != 2*small.Width || big.Height != 2*small.Height {
		t.Fatalf("expected double size, got %+v vs %+v", big, small)
	}
}

func TestDrawPaintsInk(t *testing.T) {
	spec := props.FontSpec{Size: 13}
	b := Layout(nil, spec, "XX")
	dc := gg.NewContext(int(b.Width)+2, int(b.Height)+2)
	Draw(dc, nil, spec, b, 1, 1, color.Black)
	img := dc.Image().(*image.RGBA)
	ink := 0
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] > 0 {
			ink++
		}
	}
	if ink == 0 {
		t.Fatalf("no glyph pixels drawn")
	}
}

func TestLoadDirSkipsMissingAndReportsBadFonts(t *testing.T) {
	fl := NewFontLibrary()
	if n, err := fl.LoadDir(filepath.Join(t.TempDir(), "none")); n != 0 || err != nil {
		t.Fatalf("missing dir: %d %v", n, err)
	}
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Broken-Bold.ttf"), []byte("not a font"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	n, err := fl.LoadDir(dir)
	if n != 0 || err == nil {
		t.Fatalf("expected parse error, got %d %v", n, err)
	}
	// unresolved families fall back to the bitmap face
	_, met := OTProvider{Lib: fl}.Resolve(props.FontSpec{Family: "Broken", Size: 26})
	if met.Scale != 2 {
		t.Fatalf("fallback scale = %v", met.Scale)
	}
}
