/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package canvas

import (
	"log/slog"

	"photolayouts/internal/export"
	"photolayouts/internal/layers"
	"photolayouts/internal/scene"
	"photolayouts/internal/vector"
)

// Resize changes the page size in pixels as one undo step.
func (c *Canvas) Resize(w, h float64) error {
	if w <= 0 || h <= 0 {
		c.log.Debug("resize refused", slog.Float64("w", w), slog.Float64("h", h))
		return ErrInvalidSize
	}
	if !c.Interactive() {
		return ErrBusy
	}
	if w == c.page.Width && h == c.page.Height {
		return nil
	}
	to := c.page
	to.Width, to.Height = w, h
	c.mu.Lock()
	c.stack.Push(&resizeCmd{c: c, from: c.page, to: to})
	c.mu.Unlock()
	return nil
}

type resizeCmd struct {
	c        *Canvas
	from, to scene.Page
}

func (r *resizeCmd) Text() string { return "Resize canvas" }
func (r *resizeCmd) Redo()        { r.c.setPage(r.to) }
func (r *resizeCmd) Undo()        { r.c.setPage(r.from) }

func (c *Canvas) setPage(p scene.Page) {
	c.page = p
	c.scene.SetRect(vector.R(0, 0, p.Width, p.Height))
	c.repaint.Store(true)
}

// MoveSelectedRowsUp raises the selected layers by one row. Selections that
// are not one contiguous run under a single parent are refused.
func (c *Canvas) MoveSelectedRowsUp() bool { return c.moveSelectedRows(-1) }

// MoveSelectedRowsDown lowers the selected layers by one row.
func (c *Canvas) MoveSelectedRowsDown() bool { return c.moveSelectedRows(1) }

func (c *Canvas) moveSelectedRows(dir int) bool {
	if !c.Interactive() {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	parent, first, count, ok := c.scene.Selection().Contiguous()
	if !ok {
		c.log.Debug("row move refused: selection not contiguous")
		return false
	}
	if parent == nil {
		parent = c.scene.Model().Root()
	}
	// A downward destination counts the moved rows still in place.
	dst := first - 1
	if dir > 0 {
		dst = first + count + 1
	}
	if dst < 0 || dst > parent.ChildCount() {
		c.log.Debug("row move refused: at the edge", slog.Int("first", first), slog.Int("count", count))
		return false
	}
	mv := layers.RowMove{SrcParent: parent, SrcRow: first, Count: count, DstParent: parent, DstRow: dst}
	return c.scene.MoveRows(mv) == nil
}

// Export renders the canvas to a PNG or PDF file.
func (c *Canvas) Export(path string, opt export.Options) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := export.Export(c.scene, c.page, path, opt); err != nil {
		c.log.Error("export failed", slog.String("path", path), slog.Any("err", err))
		return err
	}
	return nil
}
