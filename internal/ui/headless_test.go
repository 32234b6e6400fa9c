/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"bytes"
	"image"
	"path/filepath"
	"strings"
	"testing"

	"photolayouts/internal/appctx"
	"photolayouts/internal/config"
	"photolayouts/internal/items"
)

func newTestApp(t *testing.T) *appctx.App {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("AppData", home)
	cfg := config.Defaults()
	cfg.Storage.IndexPath = filepath.Join(home, "index.sqlite")
	a, err := appctx.New(cfg)
	if err != nil {
		t.Fatalf("app: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func saveDoc(t *testing.T, a *appctx.App, path string, n int) {
	t.Helper()
	c := a.NewCanvas()
	defer c.Close()
	for i := 0; i < n; i++ {
		if err := c.Scene().AddItem(items.NewPhoto(image.NewRGBA(image.Rect(0, 0, 8, 8)), "photo")); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	h, err := c.Save(path)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := Wait(c, h); err != nil {
		t.Fatalf("save worker: %v", err)
	}
	if !c.IsSaved() {
		t.Fatalf("canvas not saved after wait")
	}
}

func TestOpenAndWaitSummarizes(t *testing.T) {
	a := newTestApp(t)
	path := filepath.Join(t.TempDir(), "two.ple")
	saveDoc(t, a, path, 2)

	c, sum := OpenAndWait(a, path)
	if c == nil {
		t.Fatalf("open: %v", sum.Err)
	}
	defer c.Close()
	if sum.Err != nil || sum.Items != 2 || sum.Skipped != 0 || sum.Template {
		t.Fatalf("summary = %+v", sum)
	}
	if !c.Interactive() {
		t.Fatalf("canvas busy after wait")
	}
	if got := sum.String(); !strings.Contains(got, "document, 2 items") {
		t.Fatalf("summary line = %q", got)
	}
}

func TestRunHeadlessReportsEachFile(t *testing.T) {
	a := newTestApp(t)
	dir := t.TempDir()
	good := filepath.Join(dir, "good.ple")
	saveDoc(t, a, good, 1)
	missing := filepath.Join(dir, "missing.ple")

	var out bytes.Buffer
	err := RunHeadless(a, []string{good, missing}, &out)
	if err == nil || !strings.Contains(err.Error(), "1 of 2") {
		t.Fatalf("err = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("output = %q", out.String())
	}
	if !strings.HasPrefix(lines[0], good+": document, 1 items") {
		t.Fatalf("line 0 = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], missing) || !strings.Contains(lines[1], "error:") {
		t.Fatalf("line 1 = %q", lines[1])
	}
}

func TestRunHeadlessNoFiles(t *testing.T) {
	a := newTestApp(t)
	var out bytes.Buffer
	if err := RunHeadless(a, nil, &out); err != nil {
		t.Fatalf("err = %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("output = %q", out.String())
	}
}
