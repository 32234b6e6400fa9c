/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package worker

import (
	"context"
	"errors"
	"image"
	"sync"

	"photolayouts/internal/dom"
	"photolayouts/internal/progress"
	"photolayouts/internal/scene"
	"photolayouts/internal/storage"
)

// DefaultChunkSize is the write size between progress reports.
const DefaultChunkSize = 64 << 10

// serializeShare is the progress fraction reserved for building the document.
const serializeShare = 0.2

// SaveOptions describe one save.
type SaveOptions struct {
	Path      string
	Page      scene.Page
	Template  bool
	Preview   image.Image // template preview
	ChunkSize int
	Backup    bool
}

// Save serializes s with mu held, then writes the document in chunks to a
// temp file that replaces Path on success. A cancelled save leaves Path
// untouched.
func Save(ctx context.Context, q *progress.Queue, s *scene.Scene, mu sync.Locker, opt SaveOptions) *Handle {
	return start(ctx, q, "Saving", func(ctx context.Context, r *progress.Reporter) error {
		if opt.Path == "" {
			return errors.New("save: no destination")
		}
		_ = r.Action("Serializing")
		mu.Lock()
		var root *dom.Element
		var err error
		if opt.Template {
			root, err = s.ToTemplateSVG(opt.Page, opt.Preview)
		} else {
			root, err = s.ToSVG(opt.Page)
		}
		mu.Unlock()
		if err != nil {
			return err
		}
		data, err := dom.Writer{Prefixes: scene.Prefixes, Indent: " "}.Marshal(root)
		if err != nil {
			return err
		}
		r.Progress(serializeShare)

		_ = r.Action("Writing")
		f, err := storage.CreateAtomic(opt.Path, opt.Backup)
		if err != nil {
			return err
		}
		chunk := opt.ChunkSize
		if chunk <= 0 {
			chunk = DefaultChunkSize
		}
		for off := 0; off < len(data); off += chunk {
			if err := ctx.Err(); err != nil {
				f.Abort()
				return err
			}
			end := min(off+chunk, len(data))
			if _, err := f.Write(data[off:end]); err != nil {
				f.Abort()
				return err
			}
			r.Progress(serializeShare + (1-serializeShare)*float64(end)/float64(len(data)))
		}
		return f.Commit()
	})
}
