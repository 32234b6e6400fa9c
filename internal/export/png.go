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
	"image"
	"image/png"

	"photolayouts/internal/render"
	"photolayouts/internal/scene"
	"photolayouts/internal/storage"
)

// PNGOptions controls PNG export behavior.
// - DPI: when > 0 overrides the page resolution for the output pixel size
// - IncludeGrid: draw the visible grid lines on top
type PNGOptions struct {
	DPI         float64
	IncludeGrid bool
}

// rasterScale maps scene units (pixels at the page resolution) to output pixels.
func rasterScale(page scene.Page, dpi float64) float64 {
	if dpi <= 0 {
		return 1
	}
	return dpi / page.PixelsPerInch()
}

// Raster renders the scene for export.
func Raster(s *scene.Scene, page scene.Page, dpi float64, grid bool) *image.RGBA {
	return render.Scene(s, render.Options{Scale: rasterScale(page, dpi), Grid: grid})
}

// PNG writes the rendered scene to outPath.
func PNG(s *scene.Scene, page scene.Page, outPath string, opt PNGOptions) error {
	if s == nil {
		return fmt.Errorf("scene is nil")
	}
	img := Raster(s, page, opt.DPI, opt.IncludeGrid)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	if err := storage.WriteFileAtomic(outPath, buf.Bytes()); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}
