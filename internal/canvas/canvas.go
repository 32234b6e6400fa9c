/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package canvas ties one scene to its undo stack, its file and the
// background workers that load and save it. Worker results reach the canvas
// through Pump, which the UI calls on its own goroutine.
package canvas

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"photolayouts/internal/borders"
	"photolayouts/internal/config"
	"photolayouts/internal/dom"
	"photolayouts/internal/effects"
	"photolayouts/internal/items"
	applog "photolayouts/internal/log"
	"photolayouts/internal/progress"
	"photolayouts/internal/props"
	"photolayouts/internal/render"
	"photolayouts/internal/scene"
	"photolayouts/internal/storage"
	"photolayouts/internal/textlayout"
	"photolayouts/internal/undo"
	"photolayouts/internal/vector"
	"photolayouts/internal/worker"
)

// Ext is the file extension of layout documents and templates.
const Ext = ".ple"

// WithExt returns path with Ext appended unless it already ends in it.
func WithExt(path string) string {
	if strings.EqualFold(filepath.Ext(path), Ext) {
		return path
	}
	return path + Ext
}

var (
	ErrNoDestination = errors.New("canvas: no destination file")
	ErrBusy          = errors.New("canvas: a background job is running")
	ErrInvalidSize   = errors.New("canvas: invalid size")
)

// Options configures a canvas. OptionsFrom fills it from the user config.
type Options struct {
	Page       scene.Page
	Background color.RGBA
	Editor     config.EditorConfig
	Saving     config.SavingConfig

	Effects *effects.Registry
	Borders *borders.Registry
	Fonts   textlayout.Provider
	// Index records opened files and template previews; nil disables it.
	Index *storage.Index
	// Queue receives worker progress; nil gives the canvas its own.
	Queue *progress.Queue
}

// OptionsFrom converts the configured defaults. Page sizes in physical units
// are turned into pixels at the configured resolution.
func OptionsFrom(cfg config.AppConfig) Options {
	page := scene.Page{
		Unit:           cfg.Canvas.Unit,
		Resolution:     cfg.Canvas.Resolution,
		ResolutionUnit: cfg.Canvas.ResolutionUnit,
	}
	perPx := page.Length(1)
	if perPx <= 0 {
		perPx = 1
	}
	page.Width = cfg.Canvas.Width / perPx
	page.Height = cfg.Canvas.Height / perPx
	bg := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	if c, err := props.ParseColor(cfg.Canvas.Background); err == nil {
		bg = c
	}
	return Options{Page: page, Background: bg, Editor: cfg.Editor, Saving: cfg.Saving}
}

// Canvas owns one scene and its undo stack.
type Canvas struct {
	mu    sync.RWMutex
	scene *scene.Scene
	stack *undo.Stack
	page  scene.Page
	opt   Options

	path     string
	template bool
	skipped  int

	savedIndex atomic.Int64
	saved      atomic.Bool
	repaint    atomic.Bool

	view view

	queue   *progress.Queue
	tracker *progress.Tracker
	pending map[uuid.UUID]func(error)
	ctx     context.Context
	cancel  context.CancelFunc
	log     *slog.Logger

	// OnSavedChanged is called when the saved state flips.
	OnSavedChanged func(saved bool)
	// OnError receives worker failures and refused requests; nil logs only.
	OnError func(error)
}

func (o Options) sceneOptions(stack *undo.Stack) scene.Options {
	return scene.Options{
		Stack:   stack,
		Effects: o.Effects,
		Borders: o.Borders,
		Fonts:   o.Fonts,
		GridX:   o.Editor.GridX,
		GridY:   o.Editor.GridY,
	}
}

// New returns an empty, saved canvas of opt.Page size.
func New(opt Options) *Canvas {
	stack := undo.NewStack(opt.Editor.UndoLimit)
	s := scene.New(vector.R(0, 0, opt.Page.Width, opt.Page.Height), opt.sceneOptions(stack))
	s.Background().SetColor(opt.Background)
	return newCanvas(s, stack, opt.Page, opt)
}

func newCanvas(s *scene.Scene, stack *undo.Stack, page scene.Page, opt Options) *Canvas {
	if opt.Queue == nil {
		opt.Queue = progress.NewQueue(progress.DefaultSize)
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Canvas{
		scene:   s,
		stack:   stack,
		page:    page,
		opt:     opt,
		queue:   opt.Queue,
		tracker: progress.NewTracker(),
		pending: make(map[uuid.UUID]func(error)),
		ctx:     ctx,
		cancel:  cancel,
		log:     applog.WithComponent("canvas"),
	}
	c.view = newView(opt.Editor)
	c.saved.Store(true)
	c.tracker.OnFinish = c.finished
	stack.OnIndexChanged(func(int) { c.updateSaved() })
	stack.OnCleanChanged(func(bool) { c.updateSaved() })
	s.OnChanged(func() { c.repaint.Store(true) })
	if opt.Editor.ShowGrid {
		s.SetGridVisible(true)
	}
	return c
}

// Open reads a document and starts the loading worker. The canvas is usable
// at once; items fill in as Pump applies the loader's progress. Documents
// that cannot be parsed fall back to their newest backup.
func Open(path string, opt Options) (*Canvas, *worker.Handle, error) {
	l := applog.WithOperation(applog.WithComponent("canvas"), "open").With(slog.String("path", path))
	root, err := parseFile(path)
	if err != nil {
		bak, berr := storage.LatestBackup(path)
		if berr != nil {
			l.Error("open failed", slog.Any("err", err))
			return nil, nil, err
		}
		l.Warn("document unreadable, using backup", slog.Any("err", err), slog.String("backup", bak))
		if root, err = parseFile(bak); err != nil {
			return nil, nil, err
		}
	}
	stack := undo.NewStack(opt.Editor.UndoLimit)
	s, plan, err := scene.FromSVG(root, opt.sceneOptions(stack))
	if err != nil {
		l.Error("open failed", slog.Any("err", err))
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	c := newCanvas(s, stack, plan.Page, opt)
	c.skipped = plan.Skipped
	c.template = plan.Template
	if !plan.Template {
		// Templates are never overwritten by a plain Save.
		c.path = path
	}
	if plan.Skipped > 0 {
		l.Warn("items skipped", slog.Int("count", plan.Skipped))
	}
	h := worker.Load(applog.WithCanvasFile(c.ctx, path), c.queue, s, plan, &c.mu)
	c.pending[h.ID] = func(err error) {
		c.stack.Clear()
		c.updateSaved()
		if err != nil {
			c.report(err)
		}
	}
	c.record(path, plan.Template)
	l.Info("opened", slog.Int("items", len(plan.Entries)), slog.Bool("template", plan.Template))
	return c, h, nil
}

func parseFile(path string) (*dom.Element, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return dom.Parse(f)
}

func (c *Canvas) Scene() *scene.Scene    { return c.scene }
func (c *Canvas) Stack() *undo.Stack     { return c.stack }
func (c *Canvas) Page() scene.Page       { return c.page }
func (c *Canvas) Path() string           { return c.path }
func (c *Canvas) IsTemplate() bool       { return c.template }
func (c *Canvas) Queue() *progress.Queue { return c.queue }

// Skipped is the number of document items that could not even be created.
func (c *Canvas) Skipped() int { return c.skipped }

// IsSaved reports whether the current undo index is the saved one.
func (c *Canvas) IsSaved() bool { return c.saved.Load() }

// NeedsRepaint reports and clears the scene-changed flag.
func (c *Canvas) NeedsRepaint() bool { return c.repaint.Swap(false) }

// Close stops running workers.
func (c *Canvas) Close() { c.cancel() }

// updateSaved re-derives the saved flag from the stack. The saved index
// follows the stack's clean index, which shifts when history is trimmed and
// becomes -1 when a new branch discards it.
func (c *Canvas) updateSaved() {
	c.savedIndex.Store(int64(c.stack.CleanIndex()))
	now := c.stack.IsClean() || int64(c.stack.Index()) == c.savedIndex.Load()
	if c.saved.Swap(now) != now {
		if c.OnSavedChanged != nil {
			c.OnSavedChanged(now)
		}
	}
}

func (c *Canvas) report(err error) {
	c.log.Warn("canvas error", slog.Any("err", err))
	if c.OnError != nil {
		c.OnError(err)
	}
}

// Pump applies queued worker events. It must run on the UI goroutine.
func (c *Canvas) Pump() int { return c.queue.Drain(c.tracker.Handle) }

// Interactive is false while a worker started by this canvas has not been
// pumped to its end.
func (c *Canvas) Interactive() bool { return len(c.pending) == 0 }

// Indicators returns the progress of running workers.
func (c *Canvas) Indicators() []progress.Indicator { return c.tracker.Active() }

func (c *Canvas) finished(in progress.Indicator, err error) {
	done, ok := c.pending[in.Worker]
	if !ok {
		return
	}
	delete(c.pending, in.Worker)
	done(err)
	c.repaint.Store(true)
}

// Save writes the canvas to path, or to its own file when path is empty.
func (c *Canvas) Save(path string) (*worker.Handle, error) { return c.save(path, false) }

// SaveTemplate writes the canvas as a template with an embedded preview.
func (c *Canvas) SaveTemplate(path string) (*worker.Handle, error) { return c.save(path, true) }

func (c *Canvas) save(path string, template bool) (*worker.Handle, error) {
	l := applog.WithOperation(c.log, "save")
	if path == "" {
		path = c.path
	}
	if path == "" {
		l.Error("save refused", slog.Any("err", ErrNoDestination))
		c.report(ErrNoDestination)
		return nil, ErrNoDestination
	}
	if !c.Interactive() {
		return nil, ErrBusy
	}
	opt := worker.SaveOptions{
		Path:      path,
		Page:      c.page,
		Template:  template,
		ChunkSize: c.opt.Saving.ChunkSize,
		Backup:    true,
	}
	var preview storage.Preview
	if template {
		px := c.opt.Saving.TemplatePreviewPx
		if px <= 0 {
			px = 200
		}
		c.mu.RLock()
		img := render.Preview(c.scene, px)
		c.mu.RUnlock()
		opt.Preview = img
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err == nil {
			preview = storage.Preview{Width: img.Bounds().Dx(), Height: img.Bounds().Dy(), PNG: buf.Bytes()}
		}
	}
	h := worker.Save(applog.WithCanvasFile(c.ctx, path), c.queue, c.scene, c.mu.RLocker(), opt)
	c.pending[h.ID] = func(err error) {
		if err != nil {
			l.Error("save failed", slog.String("path", path), slog.Any("err", err))
			c.report(err)
			return
		}
		if !template {
			c.path = path
			c.template = false
		}
		c.stack.SetClean()
		c.updateSaved()
		c.record(path, template)
		if template && len(preview.PNG) > 0 && c.opt.Index != nil {
			if err := c.opt.Index.PutPreview(c.ctx, path, preview); err != nil {
				l.Warn("template preview not cached", slog.Any("err", err))
			}
		}
		l.Info("saved", slog.String("path", path), slog.Bool("template", template))
	}
	return h, nil
}

func (c *Canvas) record(path string, template bool) {
	if c.opt.Index == nil {
		return
	}
	if err := c.opt.Index.RecordOpened(c.ctx, path, template); err != nil {
		c.log.Warn("recent files update failed", slog.Any("err", err))
	}
}

// AddImages decodes the files on a worker and adds the photos as one undo
// step once Pump sees the job finish.
func (c *Canvas) AddImages(urls ...string) (*worker.ImagesJob, error) {
	if !c.Interactive() {
		return nil, ErrBusy
	}
	job := worker.DecodeImages(c.ctx, c.queue, urls, worker.ImageOptions{Embed: c.opt.Saving.EmbedImages})
	c.pending[job.ID] = func(err error) {
		for u, ferr := range job.Failed {
			c.log.Warn("image not loaded", slog.String("url", u), slog.Any("err", ferr))
		}
		if len(job.Photos) > 0 {
			its := make([]items.Item, len(job.Photos))
			for i, p := range job.Photos {
				its[i] = p
			}
			c.mu.Lock()
			aerr := c.scene.AddItems(its...)
			c.mu.Unlock()
			if aerr != nil {
				c.report(aerr)
			}
		}
		if err != nil {
			c.report(err)
		}
	}
	return job, nil
}

// Edit runs fn with the scene write-locked. UI mutations go through it so a
// running save never reads a half-applied change. While a worker is pending
// the canvas is not interactive and Edit returns ErrBusy without calling fn.
func (c *Canvas) Edit(fn func(s *scene.Scene) error) error {
	if !c.Interactive() {
		return ErrBusy
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn(c.scene)
}

// Undo steps back one command; it does nothing while a worker is pending.
func (c *Canvas) Undo() bool {
	if !c.Interactive() {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stack.Undo()
}

func (c *Canvas) Redo() bool {
	if !c.Interactive() {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stack.Redo()
}

// AutosavePath is where Autosave writes: next to the canvas file, or in the
// temp dir for a canvas that has none.
func (c *Canvas) AutosavePath() string {
	if c.path == "" {
		return filepath.Join(os.TempDir(), "photolayouts-untitled.autosave"+Ext)
	}
	ext := filepath.Ext(c.path)
	return strings.TrimSuffix(c.path, ext) + ".autosave" + ext
}

// Autosave writes a recovery copy synchronously. It leaves the saved state
// alone and gives up when the scene is locked by a worker.
func (c *Canvas) Autosave() (string, error) {
	if !c.mu.TryRLock() {
		return "", ErrBusy
	}
	root, err := c.scene.ToSVG(c.page)
	c.mu.RUnlock()
	if err != nil {
		return "", err
	}
	data, err := dom.Writer{Prefixes: scene.Prefixes, Indent: " "}.Marshal(root)
	if err != nil {
		return "", err
	}
	path := c.AutosavePath()
	if err := storage.WriteFileAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}
