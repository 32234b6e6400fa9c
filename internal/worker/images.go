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
	"fmt"
	"path/filepath"
	"strings"

	"photolayouts/internal/items"
	"photolayouts/internal/progress"
)

// ImagesJob decodes image files into photo items. Results are valid once the
// job is done.
type ImagesJob struct {
	*Handle
	Photos []*items.PhotoItem
	Failed map[string]error
}

// ImageOptions controls the photo items made by DecodeImages.
type ImageOptions struct {
	// Embed stores the pixels in the document; otherwise only the file is linked.
	Embed bool
}

// DecodeImages loads every url in order. Unreadable files are collected in
// Failed; the job error is set only when nothing could be loaded.
func DecodeImages(ctx context.Context, q *progress.Queue, urls []string, opt ImageOptions) *ImagesJob {
	job := &ImagesJob{Failed: map[string]error{}}
	job.Handle = start(ctx, q, "Loading images", func(ctx context.Context, r *progress.Reporter) error {
		for i, u := range urls {
			if err := ctx.Err(); err != nil {
				return err
			}
			name := strings.TrimSuffix(filepath.Base(u), filepath.Ext(u))
			_ = r.Action(name)
			p, err := items.LoadPhoto(u, name)
			if err != nil {
				job.Failed[u] = err
			} else {
				p.Embed = opt.Embed
				job.Photos = append(job.Photos, p)
			}
			r.Progress(float64(i+1) / float64(len(urls)))
		}
		if len(urls) > 0 && len(job.Photos) == 0 {
			return fmt.Errorf("no image could be loaded (%d failed)", len(job.Failed))
		}
		return nil
	})
	return job
}
