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
	"fmt"
	"image/png"

	"github.com/jung-kurt/gofpdf"

	"photolayouts/internal/scene"
	"photolayouts/internal/storage"
	"photolayouts/internal/version"
)

// PDFOptions controls PDF export behavior.
// The page is sized from the canvas physical size; its content is one raster
// image at DPI (300 when zero).
type PDFOptions struct {
	DPI         float64
	Title       string
	IncludeGrid bool
}

// PageSizePt is the physical page size in points.
func PageSizePt(s *scene.Scene, page scene.Page) (w, h float64) {
	ppi := page.PixelsPerInch()
	r := s.Rect()
	return r.W / ppi * 72, r.H / ppi * 72
}

// PDF writes a single-page PDF of the scene to outPath.
func PDF(s *scene.Scene, page scene.Page, outPath string, opt PDFOptions) error {
	if s == nil {
		return fmt.Errorf("scene is nil")
	}
	dpi := opt.DPI
	if dpi <= 0 {
		dpi = 300
	}
	wpt, hpt := PageSizePt(s, page)
	if wpt <= 0 || hpt <= 0 {
		return fmt.Errorf("empty page")
	}
	var raster bytes.Buffer
	if err := png.Encode(&raster, Raster(s, page, dpi, opt.IncludeGrid)); err != nil {
		return fmt.Errorf("encode page: %w", err)
	}

	// Use points for 1:1 mapping from page size to PDF
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: wpt, Ht: hpt},
	})
	if opt.Title != "" {
		pdf.SetTitle(opt.Title, true)
	}
	pdf.SetCreator("Photo Layouts Editor "+version.String(), true)
	pdf.AddPageFormat("", gofpdf.SizeType{Wd: wpt, Ht: hpt})
	iopt := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("page", iopt, &raster)
	pdf.ImageOptions("page", 0, 0, wpt, hpt, false, iopt, 0, "")
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("build pdf: %w", err)
	}
	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return storage.WriteFileAtomic(outPath, out.Bytes())
}
