/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package fontpack moves user fonts in and out of the fonts directory as zip
// archives.
package fontpack

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/image/font/opentype"

	applog "photolayouts/internal/log"
	"photolayouts/internal/storage"
)

// ManifestName is the text file at the root of every exported pack.
const ManifestName = "fontpack.manifest.txt"

// maxFontBytes bounds a single archive entry.
const maxFontBytes = 32 << 20

var ErrTooLarge = errors.New("fontpack: entry too large")

func isFontName(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	return ext == ".ttf" || ext == ".otf"
}

// Export zips the .ttf/.otf files of fontsDir into dest with a manifest at
// the root. A missing fonts directory yields a pack with only the manifest.
func Export(fontsDir, dest string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("fontpack"), "export").With(slog.String("dir", fontsDir))
	if strings.TrimSpace(dest) == "" {
		return 0, errors.New("fontpack: destination is required")
	}
	entries, err := os.ReadDir(fontsDir)
	if err != nil && !os.IsNotExist(err) {
		return 0, fmt.Errorf("read fonts dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && isFontName(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	manifest := fmt.Sprintf("Photo Layouts Font Pack\nCreated: %s\nFonts: %d\n\n%s\n",
		time.Now().Format(time.RFC3339), len(names), strings.Join(names, "\n"))
	w, err := zw.Create(ManifestName)
	if err != nil {
		return 0, fmt.Errorf("add manifest: %w", err)
	}
	if _, err := io.WriteString(w, manifest); err != nil {
		return 0, fmt.Errorf("write manifest: %w", err)
	}
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(fontsDir, name))
		if err != nil {
			return 0, err
		}
		fw, err := zw.Create(name)
		if err != nil {
			return 0, err
		}
		if _, err := fw.Write(data); err != nil {
			return 0, err
		}
	}
	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("build zip: %w", err)
	}
	if err := storage.WriteFileAtomic(dest, buf.Bytes()); err != nil {
		l.Error("write pack failed", slog.Any("err", err))
		return 0, err
	}
	l.Info("font pack exported", slog.Int("fonts", len(names)), slog.String("zip", dest))
	return len(names), nil
}

// Install extracts the fonts of the pack into fontsDir. Directories inside the
// archive are flattened. Existing files are kept, entries that do not parse as
// OpenType are skipped and entries escaping the archive root are rejected.
// It returns the number of fonts written.
func Install(fontsDir, pack string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("fontpack"), "install").With(slog.String("dir", fontsDir))
	r, err := zip.OpenReader(pack)
	if err != nil {
		return 0, fmt.Errorf("open pack: %w", err)
	}
	defer func() { _ = r.Close() }()
	if err := os.MkdirAll(fontsDir, 0o755); err != nil {
		return 0, fmt.Errorf("ensure fonts dir: %w", err)
	}

	installed := 0
	for _, f := range r.File {
		if f.FileInfo().IsDir() || f.Name == ManifestName || !isFontName(f.Name) {
			continue
		}
		clean := path.Clean(strings.ReplaceAll(f.Name, "\\", "/"))
		if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
			l.Warn("unsafe entry rejected", slog.String("entry", f.Name))
			continue
		}
		target := filepath.Join(fontsDir, path.Base(clean))
		if _, err := os.Stat(target); err == nil {
			l.Warn("skip existing font", slog.String("path", target))
			continue
		}
		data, err := readEntry(f)
		if err != nil {
			return installed, err
		}
		if _, err := opentype.Parse(data); err != nil {
			l.Warn("skip invalid font", slog.String("entry", f.Name), slog.Any("err", err))
			continue
		}
		if err := storage.WriteFileAtomic(target, data); err != nil {
			return installed, err
		}
		installed++
	}
	l.Info("font pack installed", slog.Int("fonts", installed))
	return installed, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > maxFontBytes {
		return nil, fmt.Errorf("%s: %w (%d bytes)", f.Name, ErrTooLarge, f.UncompressedSize64)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(io.LimitReader(rc, maxFontBytes))
}
