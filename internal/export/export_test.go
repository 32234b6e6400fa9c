/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"photolayouts/internal/items"
	"photolayouts/internal/scene"
	"photolayouts/internal/vector"
)

func sampleScene(t *testing.T) *scene.Scene {
	t.Helper()
	s := scene.New(vector.R(0, 0, 72, 36), scene.Options{})
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	if err := s.AddItem(items.NewPhoto(img, "p")); err != nil {
		t.Fatal(err)
	}
	s.Background().SetColor(color.RGBA{G: 200, A: 255})
	return s
}

func TestPNGUsesDPI(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.png")
	page := scene.Page{Unit: "in", Resolution: 72, ResolutionUnit: "px/in"}
	if err := PNG(sampleScene(t), page, out, PNGOptions{DPI: 144}); err != nil {
		t.Fatalf("png: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Width != 144 || cfg.Height != 72 {
		t.Fatalf("size = %dx%d", cfg.Width, cfg.Height)
	}
}

func TestPDFCreatesFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.pdf")
	s := sampleScene(t)
	page := scene.Page{Unit: "in", Resolution: 72, ResolutionUnit: "px/in"}
	if w, h := PageSizePt(s, page); w != 72 || h != 36 {
		t.Fatalf("page = %vx%v pt", w, h)
	}
	if err := PDF(s, page, out, PDFOptions{DPI: 72, Title: "Test"}); err != nil {
		t.Fatalf("pdf: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF-")) {
		t.Fatalf("not a pdf")
	}
}

func TestExportDispatchesOnExtensionAndPreset(t *testing.T) {
	dir := t.TempDir()
	s := sampleScene(t)
	page := scene.Page{Resolution: 72, ResolutionUnit: "px/in"}
	if err := Export(s, page, filepath.Join(dir, "a.pdf"), Options{}); err != nil {
		t.Fatalf("pdf by ext: %v", err)
	}
	if err := Export(s, page, filepath.Join(dir, "b.out"), Options{Preset: PresetWeb}); err != nil {
		t.Fatalf("web preset: %v", err)
	}
	b, _ := os.ReadFile(filepath.Join(dir, "b.out"))
	cfg, err := png.DecodeConfig(bytes.NewReader(b))
	if err != nil || cfg.Width != 96 {
		t.Fatalf("web preset png: %v width=%d", err, cfg.Width)
	}
}
