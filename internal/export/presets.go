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
	"fmt"
	"path/filepath"
	"strings"

	"photolayouts/internal/scene"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetWeb   PresetName = "web"
	PresetPrint PresetName = "print"
)

// Options select format and resolution for Export. Zero fields take the
// preset defaults; Format defaults to the file extension.
type Options struct {
	Preset      PresetName
	Format      string // png or pdf
	DPI         float64
	IncludeGrid *bool
	Title       string
}

func presetDPI(p PresetName) float64 {
	switch p {
	case PresetPrint:
		return 300
	case PresetWeb:
		return 96
	default:
		return 0
	}
}

func presetDefaultFormat(p PresetName) string {
	if p == PresetPrint {
		return "pdf"
	}
	return "png"
}

// FormatFor guesses the export format from a file name.
func FormatFor(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// Export writes s to outPath according to opt.
func Export(s *scene.Scene, page scene.Page, outPath string, opt Options) error {
	format := strings.ToLower(strings.TrimSpace(opt.Format))
	if format == "" {
		format = FormatFor(outPath)
	}
	if format != "png" && format != "pdf" {
		format = presetDefaultFormat(opt.Preset)
	}
	dpi := opt.DPI
	if dpi <= 0 {
		dpi = presetDPI(opt.Preset)
	}
	grid := false
	if opt.IncludeGrid != nil {
		grid = *opt.IncludeGrid
	}
	switch format {
	case "pdf":
		return PDF(s, page, outPath, PDFOptions{DPI: dpi, Title: opt.Title, IncludeGrid: grid})
	case "png":
		return PNG(s, page, outPath, PNGOptions{DPI: dpi, IncludeGrid: grid})
	}
	return fmt.Errorf("unknown format: %s", format)
}
