/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package appctx builds the objects shared by every canvas of a running
// application once at startup.
package appctx

import (
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	"photolayouts/internal/borders"
	"photolayouts/internal/canvas"
	"photolayouts/internal/config"
	"photolayouts/internal/effects"
	"photolayouts/internal/fontpack"
	applog "photolayouts/internal/log"
	"photolayouts/internal/progress"
	"photolayouts/internal/storage"
	"photolayouts/internal/textlayout"
	"photolayouts/internal/worker"
)

const FontsDirName = "fonts"

// App is the application context.
type App struct {
	Config   config.AppConfig
	DataDir  string
	Effects  *effects.Registry
	Borders  *borders.Registry
	Fonts    *textlayout.FontLibrary
	Provider textlayout.Provider
	// Index is nil when the index database could not be opened.
	Index *storage.Index
}

// New loads the user fonts and opens the index. Neither is fatal: a broken
// font file is skipped and a missing index only disables recent files.
func New(cfg config.AppConfig) (*App, error) {
	l := applog.WithOperation(applog.WithComponent("app"), "init")
	dir, err := config.DataDir()
	if err != nil {
		return nil, err
	}
	a := &App{
		Config:  cfg,
		DataDir: dir,
		Effects: effects.NewRegistry(),
		Borders: borders.NewRegistry(),
		Fonts:   textlayout.NewFontLibrary(),
	}
	n, ferr := a.Fonts.LoadDir(a.FontsDir())
	if ferr != nil {
		l.Warn("some fonts not loaded", slog.Any("err", ferr))
	}
	a.Provider = textlayout.OTProvider{Lib: a.Fonts, Fallback: textlayout.BasicProvider{}}

	idxPath := strings.TrimSpace(cfg.Storage.IndexPath)
	if idxPath == "" {
		idxPath = storage.DefaultIndexPath(dir)
	}
	idx, ierr := storage.OpenIndex(idxPath, storage.IndexOptions{
		RecentLimit:     cfg.Storage.RecentLimit,
		PreviewMaxBytes: cfg.Storage.PreviewMaxBytes,
	})
	if ierr != nil {
		l.Warn("index unavailable", slog.Any("err", ierr))
	} else {
		a.Index = idx
	}
	l.Info("ready", slog.String("data_dir", dir), slog.Int("fonts", n), slog.Bool("index", a.Index != nil))
	return a, nil
}

// FontsDir holds the user fonts loaded at startup.
func (a *App) FontsDir() string { return filepath.Join(a.DataDir, FontsDirName) }

// InstallFonts extracts a font pack into FontsDir and loads the new fonts.
func (a *App) InstallFonts(pack string) (int, error) {
	n, err := fontpack.Install(a.FontsDir(), pack)
	if n > 0 {
		if _, lerr := a.Fonts.LoadDir(a.FontsDir()); lerr != nil {
			applog.WithComponent("app").Warn("some fonts not loaded", slog.Any("err", lerr))
		}
	}
	return n, err
}

// ExportFonts writes the user fonts to a font pack.
func (a *App) ExportFonts(dest string) (int, error) { return fontpack.Export(a.FontsDir(), dest) }

// CanvasOptions returns the options every canvas of this app is created with.
// Each canvas gets its own progress queue so Pump only sees its own workers.
func (a *App) CanvasOptions() canvas.Options {
	opt := canvas.OptionsFrom(a.Config)
	opt.Effects = a.Effects
	opt.Borders = a.Borders
	opt.Fonts = a.Provider
	opt.Index = a.Index
	opt.Queue = progress.NewQueue(progress.DefaultSize)
	return opt
}

// NewCanvas returns an empty canvas with the configured defaults.
func (a *App) NewCanvas() *canvas.Canvas { return canvas.New(a.CanvasOptions()) }

// Open opens a document and starts loading it.
func (a *App) Open(path string) (*canvas.Canvas, *worker.Handle, error) {
	return canvas.Open(path, a.CanvasOptions())
}

// Close releases the index.
func (a *App) Close() error {
	if a.Index == nil {
		return nil
	}
	err := a.Index.Close()
	a.Index = nil
	if err != nil {
		return errors.Join(errors.New("close index"), err)
	}
	return nil
}
