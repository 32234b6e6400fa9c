//go:build fyne && cgo

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
	"context"
	"fmt"
	"image/png"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	fcanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"photolayouts/internal/appctx"
	"photolayouts/internal/canvas"
	"photolayouts/internal/crash"
	"photolayouts/internal/export"
	applog "photolayouts/internal/log"
	"photolayouts/internal/scene"
	"photolayouts/internal/version"
)

// tickInterval is how often worker events are pumped into the window.
const tickInterval = 50 * time.Millisecond

var imageExts = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

type mainWindow struct {
	app    *appctx.App
	w      fyne.Window
	l      *slog.Logger
	ref    *crash.Ref
	view   *CanvasWidget
	status *widget.Label
	bar    *widget.ProgressBar
	cur    *canvas.Canvas
}

// Run opens the desktop window. The first file, if any, is opened at once.
func Run(a *appctx.App, files []string) error {
	l := applog.WithComponent("ui")
	l.Info("starting UI", slog.String("version", version.String()))

	ref := &crash.Ref{}
	defer crash.Recover(ref)

	fyneApp := app.NewWithID("photolayouts")
	w := fyneApp.NewWindow("Photo Layouts")
	// Restore window size from preferences (with sane minimums)
	prefs := fyneApp.Preferences()
	winW := max(prefs.IntWithFallback("window.width", 1200), 800)
	winH := max(prefs.IntWithFallback("window.height", 800), 600)
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	m := &mainWindow{
		app:    a,
		w:      w,
		l:      l,
		ref:    ref,
		status: widget.NewLabel("Ready"),
		bar:    widget.NewProgressBar(),
	}
	m.bar.Hide()
	m.view = NewCanvasWidget(nil)
	m.view.OnEdited = m.updateTitle
	m.setCanvas(a.NewCanvas())

	bottom := container.NewBorder(nil, nil, nil, m.bar, m.status)
	w.SetContent(container.NewBorder(nil, bottom, nil, nil, m.view))
	m.buildMenu()

	stop := make(chan struct{})
	go func() {
		t := time.NewTicker(tickInterval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				fyne.Do(m.tick)
			}
		}
	}()

	// Persist preferences on close
	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		close(stop)
		if m.cur != nil {
			m.cur.Close()
		}
		w.Close()
	})

	if len(files) > 0 {
		m.open(files[0])
	}
	w.ShowAndRun()
	return nil
}

func (m *mainWindow) setCanvas(c *canvas.Canvas) {
	if m.cur != nil {
		m.cur.Close()
	}
	m.cur = c
	m.ref.Set(c)
	c.OnSavedChanged = func(saved bool) {
		m.updateTitle()
		if saved {
			m.buildMenu()
		}
	}
	c.OnError = func(err error) { dialog.ShowError(err, m.w) }
	m.view.SetCanvas(c)
	m.updateTitle()
}

func (m *mainWindow) updateTitle() {
	name := "Untitled"
	if m.cur.Path() != "" {
		name = filepath.Base(m.cur.Path())
	}
	if !m.cur.IsSaved() {
		name += " *"
	}
	m.w.SetTitle(name + " - Photo Layouts")
}

// tick drains worker events on the UI goroutine.
func (m *mainWindow) tick() {
	c := m.cur
	if c == nil {
		return
	}
	n := c.Pump()
	if ind := c.Indicators(); len(ind) > 0 {
		m.bar.Show()
		m.bar.SetValue(ind[0].Fraction)
		text := ind[0].Title
		if ind[0].Label != "" {
			text += ": " + ind[0].Label
		}
		m.status.SetText(text)
	} else if m.bar.Visible() {
		m.bar.Hide()
		m.status.SetText("Ready")
	}
	if c.NeedsRepaint() || n > 0 {
		m.view.Refresh()
	}
}

func (m *mainWindow) open(path string) {
	c, _, err := m.app.Open(path)
	if err != nil {
		m.l.Error("open failed", slog.String("path", path), slog.Any("err", err))
		dialog.ShowError(err, m.w)
		return
	}
	m.setCanvas(c)
	if n := c.Skipped(); n > 0 {
		m.status.SetText(fmt.Sprintf("%d items could not be read", n))
	}
	m.buildMenu()
}

func (m *mainWindow) save(path string, template bool) {
	if path == "" && m.cur.Path() == "" {
		m.saveAs(template)
		return
	}
	var err error
	if template {
		_, err = m.cur.SaveTemplate(path)
	} else {
		_, err = m.cur.Save(path)
	}
	if err != nil {
		m.l.Warn("save not started", slog.Any("err", err))
		return
	}
	m.status.SetText("Saving…")
}

func (m *mainWindow) saveAs(template bool) {
	d := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, m.w)
			return
		}
		if uc == nil {
			return
		}
		path := uc.URI().Path()
		_ = uc.Close()
		m.save(canvas.WithExt(path), template)
	}, m.w)
	d.SetFileName("layout" + canvas.Ext)
	d.SetFilter(fstorage.NewExtensionFileFilter([]string{canvas.Ext}))
	d.Show()
}

func (m *mainWindow) showOpen() {
	d := dialog.NewFileOpen(func(ur fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, m.w)
			return
		}
		if ur == nil {
			return
		}
		path := ur.URI().Path()
		_ = ur.Close()
		m.open(path)
	}, m.w)
	d.SetFilter(fstorage.NewExtensionFileFilter([]string{canvas.Ext}))
	d.Show()
}

func (m *mainWindow) addImages(paths ...string) {
	if len(paths) == 0 {
		return
	}
	if _, err := m.cur.AddImages(paths...); err != nil {
		dialog.ShowError(err, m.w)
	}
}

func (m *mainWindow) showAddImage() {
	d := dialog.NewFileOpen(func(ur fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, m.w)
			return
		}
		if ur == nil {
			return
		}
		path := ur.URI().Path()
		_ = ur.Close()
		m.addImages(path)
	}, m.w)
	d.SetFilter(fstorage.NewExtensionFileFilter(imageExts))
	d.Show()
}

func (m *mainWindow) showAddFolder() {
	dialog.ShowFolderOpen(func(lu fyne.ListableURI, err error) {
		if err != nil {
			dialog.ShowError(err, m.w)
			return
		}
		if lu == nil {
			return
		}
		children, err := lu.List()
		if err != nil {
			dialog.ShowError(err, m.w)
			return
		}
		var paths []string
		for _, u := range children {
			for _, ext := range imageExts {
				if strings.EqualFold(u.Extension(), ext) {
					paths = append(paths, u.Path())
					break
				}
			}
		}
		m.addImages(paths...)
	}, m.w)
}

func (m *mainWindow) showExport(preset export.PresetName, ext string) {
	d := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, m.w)
			return
		}
		if uc == nil {
			return
		}
		path := uc.URI().Path()
		_ = uc.Close()
		if !strings.HasSuffix(strings.ToLower(path), ext) {
			path += ext
		}
		m.status.SetText("Exporting…")
		go func(c *canvas.Canvas) {
			err := c.Export(path, export.Options{Preset: preset})
			fyne.Do(func() {
				if err != nil {
					dialog.ShowError(err, m.w)
					m.status.SetText("Export failed.")
					return
				}
				m.status.SetText("Exported to " + path)
			})
		}(m.cur)
	}, m.w)
	d.SetFileName("layout" + ext)
	d.SetFilter(fstorage.NewExtensionFileFilter([]string{ext}))
	d.Show()
}

func (m *mainWindow) showResize() {
	pg := m.cur.Page()
	wEntry := widget.NewEntry()
	wEntry.SetText(strconv.FormatFloat(pg.Width, 'f', -1, 64))
	hEntry := widget.NewEntry()
	hEntry.SetText(strconv.FormatFloat(pg.Height, 'f', -1, 64))
	dialog.ShowForm("Canvas Size", "Resize", "Cancel", []*widget.FormItem{
		widget.NewFormItem("Width", wEntry),
		widget.NewFormItem("Height", hEntry),
	}, func(ok bool) {
		if !ok {
			return
		}
		w, werr := strconv.ParseFloat(strings.TrimSpace(wEntry.Text), 64)
		h, herr := strconv.ParseFloat(strings.TrimSpace(hEntry.Text), 64)
		if werr != nil || herr != nil {
			dialog.ShowError(canvas.ErrInvalidSize, m.w)
			return
		}
		if err := m.cur.Resize(w, h); err != nil {
			dialog.ShowError(err, m.w)
			return
		}
		m.view.Refresh()
	}, m.w)
}

// showTemplates lists saved templates with their previews; picking one opens it.
func (m *mainWindow) showTemplates() {
	idx := m.app.Index
	if idx == nil {
		dialog.ShowInformation("Templates", "The template index is not available.", m.w)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	tpls, err := idx.Templates(ctx)
	if err != nil {
		dialog.ShowError(err, m.w)
		return
	}
	if len(tpls) == 0 {
		dialog.ShowInformation("Templates", "No templates saved yet.", m.w)
		return
	}
	var d dialog.Dialog
	list := widget.NewList(
		func() int { return len(tpls) },
		func() fyne.CanvasObject {
			img := fcanvas.NewImageFromImage(nil)
			img.FillMode = fcanvas.ImageFillContain
			img.SetMinSize(fyne.NewSize(64, 48))
			return container.NewBorder(nil, nil, img, nil, widget.NewLabel(""))
		},
		func(i widget.ListItemID, o fyne.CanvasObject) {
			row := o.(*fyne.Container)
			label := row.Objects[0].(*widget.Label)
			img := row.Objects[1].(*fcanvas.Image)
			label.SetText(filepath.Base(tpls[i].Path))
			img.Image = nil
			if pv, ok, _ := idx.Preview(context.Background(), tpls[i].Path); ok {
				if decoded, err := png.Decode(bytes.NewReader(pv.PNG)); err == nil {
					img.Image = decoded
				}
			}
			img.Refresh()
		},
	)
	list.OnSelected = func(i widget.ListItemID) {
		d.Hide()
		m.open(tpls[i].Path)
	}
	scroll := container.NewVScroll(list)
	scroll.SetMinSize(fyne.NewSize(360, 300))
	d = dialog.NewCustom("Templates", "Close", scroll, m.w)
	d.Show()
}

// recentMenu lists recently opened documents from the index.
func (m *mainWindow) recentMenu() *fyne.Menu {
	menu := fyne.NewMenu("Open Recent")
	if m.app.Index == nil {
		return menu
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	recent, err := m.app.Index.Recent(ctx)
	if err != nil {
		m.l.Warn("recent files unavailable", slog.Any("err", err))
		return menu
	}
	for _, r := range recent {
		path := r.Path
		menu.Items = append(menu.Items, fyne.NewMenuItem(path, func() { m.open(path) }))
	}
	return menu
}

func (m *mainWindow) edit(fn func(s *scene.Scene) error) {
	if err := m.cur.Edit(fn); err != nil {
		dialog.ShowError(err, m.w)
	}
	m.view.Refresh()
}

func (m *mainWindow) buildMenu() {
	newItem := fyne.NewMenuItem("New", func() {
		m.l.Info("menu: new")
		m.setCanvas(m.app.NewCanvas())
	})
	openItem := fyne.NewMenuItem("Open…", func() {
		m.l.Info("menu: open")
		m.showOpen()
	})
	recentItem := fyne.NewMenuItem("Open Recent", nil)
	recentItem.ChildMenu = m.recentMenu()
	templatesItem := fyne.NewMenuItem("New from Template…", m.showTemplates)
	saveItem := fyne.NewMenuItem("Save", func() {
		m.l.Info("menu: save")
		m.save("", false)
	})
	saveAsItem := fyne.NewMenuItem("Save As…", func() { m.saveAs(false) })
	saveTplItem := fyne.NewMenuItem("Save as Template…", func() { m.saveAs(true) })
	addImageItem := fyne.NewMenuItem("Add Image…", m.showAddImage)
	addFolderItem := fyne.NewMenuItem("Add Images from Folder…", m.showAddFolder)
	exportPNGItem := fyne.NewMenuItem("Export PNG…", func() { m.showExport(export.PresetWeb, ".png") })
	exportPDFItem := fyne.NewMenuItem("Export PDF…", func() { m.showExport(export.PresetPrint, ".pdf") })

	// Keyboard shortcuts
	newItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyN, Modifier: fyne.KeyModifierControl}
	openItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: fyne.KeyModifierControl}
	saveItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierControl}
	saveAsItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierControl | fyne.KeyModifierShift}
	addImageItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyI, Modifier: fyne.KeyModifierControl}

	fileMenu := fyne.NewMenu("File", newItem, openItem, recentItem, templatesItem, fyne.NewMenuItemSeparator(),
		saveItem, saveAsItem, saveTplItem, fyne.NewMenuItemSeparator(),
		addImageItem, addFolderItem, fyne.NewMenuItemSeparator(), exportPNGItem, exportPDFItem)

	undoItem := fyne.NewMenuItem("Undo", func() {
		if m.cur.Undo() {
			m.view.Refresh()
		}
	})
	redoItem := fyne.NewMenuItem("Redo", func() {
		if m.cur.Redo() {
			m.view.Refresh()
		}
	})
	undoItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierControl}
	redoItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyY, Modifier: fyne.KeyModifierControl}
	deleteItem := fyne.NewMenuItem("Delete Selection", func() {
		m.edit(func(s *scene.Scene) error { return s.RemoveSelected() })
	})
	raiseItem := fyne.NewMenuItem("Raise", func() {
		if m.cur.MoveSelectedRowsUp() {
			m.view.Refresh()
		}
	})
	lowerItem := fyne.NewMenuItem("Lower", func() {
		if m.cur.MoveSelectedRowsDown() {
			m.view.Refresh()
		}
	})
	resizeItem := fyne.NewMenuItem("Canvas Size…", m.showResize)
	editMenu := fyne.NewMenu("Edit", undoItem, redoItem, fyne.NewMenuItemSeparator(), deleteItem, raiseItem, lowerItem,
		fyne.NewMenuItemSeparator(), resizeItem)

	zoomIn := fyne.NewMenuItem("Zoom In", func() {
		at := m.cur.Center()
		if m.cur.ScaleBy(1.25, &at) {
			m.view.Refresh()
		}
	})
	zoomOut := fyne.NewMenuItem("Zoom Out", func() {
		at := m.cur.Center()
		if m.cur.ScaleBy(0.8, &at) {
			m.view.Refresh()
		}
	})
	fitItem := fyne.NewMenuItem("Fit Page", func() {
		if m.cur.FitScene() {
			m.view.Refresh()
		}
	})
	gridItem := fyne.NewMenuItem("Show Grid", func() {
		m.edit(func(s *scene.Scene) error {
			s.SetGridVisible(!s.Grid().Visible)
			return nil
		})
	})
	zoomIn.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyEqual, Modifier: fyne.KeyModifierControl}
	zoomOut.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyMinus, Modifier: fyne.KeyModifierControl}
	fitItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.Key0, Modifier: fyne.KeyModifierControl}
	viewMenu := fyne.NewMenu("View", zoomIn, zoomOut, fitItem, fyne.NewMenuItemSeparator(), gridItem)

	aboutItem := fyne.NewMenuItem("About Photo Layouts", func() {
		dialog.ShowInformation("About", "Photo Layouts "+version.String(), m.w)
	})
	helpMenu := fyne.NewMenu("Help", aboutItem)

	m.w.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, viewMenu, helpMenu))
}
