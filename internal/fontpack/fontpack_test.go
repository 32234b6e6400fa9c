/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package fontpack

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/goregular"
)

func writeZip(t *testing.T, path string, files map[string][]byte) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	zw := zip.NewWriter(f)
	for name, data := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("entry %s: %v", name, err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	_ = f.Close()
}

func TestExportWithoutFontsDir(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "out", "pack.zip")
	n, err := Export(filepath.Join(dir, "missing"), dest)
	if err != nil || n != 0 {
		t.Fatalf("export = %d, %v", n, err)
	}
	r, err := zip.OpenReader(dest)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	defer r.Close()
	if len(r.File) != 1 || r.File[0].Name != ManifestName {
		t.Fatalf("entries = %d", len(r.File))
	}
	if _, err := Export(dir, ""); err == nil {
		t.Fatalf("empty destination accepted")
	}
}

func TestExportInstallRoundTrip(t *testing.T) {
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "Go-Regular.ttf"), goregular.TTF, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	pack := filepath.Join(t.TempDir(), "fonts.zip")
	if n, err := Export(src, pack); err != nil || n != 1 {
		t.Fatalf("export = %d, %v", n, err)
	}

	dst := filepath.Join(t.TempDir(), "fonts")
	n, err := Install(dst, pack)
	if err != nil || n != 1 {
		t.Fatalf("install = %d, %v", n, err)
	}
	data, err := os.ReadFile(filepath.Join(dst, "Go-Regular.ttf"))
	if err != nil || len(data) != len(goregular.TTF) {
		t.Fatalf("installed font: %d bytes, %v", len(data), err)
	}
	if n, err := Install(dst, pack); err != nil || n != 0 {
		t.Fatalf("second install = %d, %v", n, err)
	}
}

func TestInstallRejectsUnsafeAndInvalidEntries(t *testing.T) {
	dir := t.TempDir()
	pack := filepath.Join(dir, "pack.zip")
	writeZip(t, pack, map[string][]byte{
		"../evil.ttf":         goregular.TTF,
		"/abs.ttf":            goregular.TTF,
		"broken.otf":          []byte("not a font"),
		"readme.md":           []byte("hello"),
		"nested/dir/Good.ttf": goregular.TTF,
	})
	fonts := filepath.Join(dir, "fonts")
	n, err := Install(fonts, pack)
	if err != nil || n != 1 {
		t.Fatalf("install = %d, %v", n, err)
	}
	if _, err := os.Stat(filepath.Join(fonts, "Good.ttf")); err != nil {
		t.Fatalf("nested font not flattened: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "evil.ttf")); err == nil {
		t.Fatalf("entry escaped the fonts directory")
	}
	if _, err := os.Stat(filepath.Join(fonts, "broken.otf")); err == nil {
		t.Fatalf("invalid font installed")
	}
}

func TestInstallMissingPack(t *testing.T) {
	if _, err := Install(t.TempDir(), filepath.Join(t.TempDir(), "none.zip")); err == nil {
		t.Fatalf("missing pack accepted")
	}
}
