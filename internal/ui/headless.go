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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"photolayouts/internal/appctx"
	"photolayouts/internal/canvas"
	applog "photolayouts/internal/log"
	"photolayouts/internal/worker"
)

// pumpInterval is how often a waiting runner drains worker events.
const pumpInterval = 10 * time.Millisecond

// Summary describes one opened document after its loader finished.
type Summary struct {
	Path     string
	Items    int
	Skipped  int
	Failed   int
	Template bool
	Err      error
}

func (s Summary) String() string {
	kind := "document"
	if s.Template {
		kind = "template"
	}
	line := fmt.Sprintf("%s: %s, %d items", s.Path, kind, s.Items)
	if s.Skipped > 0 {
		line += fmt.Sprintf(", %d skipped", s.Skipped)
	}
	if s.Failed > 0 {
		line += fmt.Sprintf(", %d failed", s.Failed)
	}
	if s.Err != nil {
		line += fmt.Sprintf(", error: %v", s.Err)
	}
	return line
}

// Wait pumps c until the worker behind h and every callback it triggers
// have finished, and returns the worker's error.
func Wait(c *canvas.Canvas, h *worker.Handle) error {
	t := time.NewTicker(pumpInterval)
	defer t.Stop()
	for !c.Interactive() {
		select {
		case <-h.Done():
		case <-t.C:
		}
		c.Pump()
	}
	return h.Err()
}

// OpenAndWait opens path on a canvas of a, waits for its loader and reports
// what was loaded. The canvas is returned open; the caller closes it.
func OpenAndWait(a *appctx.App, path string) (*canvas.Canvas, Summary) {
	sum := Summary{Path: path}
	c, h, err := a.Open(path)
	if err != nil {
		sum.Err = err
		return nil, sum
	}
	sum.Err = Wait(c, h)
	sum.Items = len(c.Scene().Items())
	sum.Skipped = c.Skipped()
	sum.Template = c.IsTemplate()
	var le *worker.LoadError
	if errors.As(sum.Err, &le) {
		sum.Failed = le.Failed
	}
	return c, sum
}

// RunHeadless opens each file, waits for it to load and prints one summary
// line per file to out. It fails if any file could not be opened.
func RunHeadless(a *appctx.App, files []string, out io.Writer) error {
	l := applog.WithComponent("ui").With(slog.Bool("headless", true))
	var failed int
	for _, f := range files {
		c, sum := OpenAndWait(a, f)
		if c != nil {
			c.Close()
		}
		if c == nil {
			failed++
			l.Error("open failed", slog.String("path", f), slog.Any("err", sum.Err))
		} else {
			l.Info("loaded", slog.String("path", f), slog.Int("items", sum.Items), slog.Int("skipped", sum.Skipped))
		}
		fmt.Fprintln(out, sum)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be opened", failed, len(files))
	}
	return nil
}
