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
	"sync"

	applog "photolayouts/internal/log"
	"photolayouts/internal/progress"
	"photolayouts/internal/scene"
)

// LoadError reports the items whose payload could not be loaded. The rest of
// the document loaded normally.
type LoadError struct {
	Failed, Total int
	First         error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%d of %d items could not be loaded: %v", e.Failed, e.Total, e.First)
}

func (e *LoadError) Unwrap() error { return e.First }

// Load fills the items of plan: background, then each item in plan order,
// then the border. Each stage gets an equal share of the progress range.
// Decoding runs unlocked; mu is held while results are applied to s.
func Load(ctx context.Context, q *progress.Queue, s *scene.Scene, plan *scene.LoadPlan, mu sync.Locker) *Handle {
	return start(ctx, q, "Loading", func(ctx context.Context, r *progress.Reporter) error {
		l := applog.WithComponent("worker")
		stages := len(plan.Entries) + 2
		locked := func(fn func() error) error {
			mu.Lock()
			defer mu.Unlock()
			return fn()
		}

		_ = r.Action("Background")
		if err := locked(func() error { return s.LoadBackground(plan.Background) }); err != nil {
			return err
		}
		r.Slice(0, stages).Progress(1)

		lerr := &LoadError{Total: len(plan.Entries)}
		for i, e := range plan.Entries {
			if err := ctx.Err(); err != nil {
				return err
			}
			_ = r.Action(e.Item.Core().Name())
			pl, err := s.DecodeItem(e.Item, e.Element)
			if pl != nil {
				_ = locked(func() error { s.ApplyItem(e.Item, pl); return nil })
			}
			if err != nil {
				l.WarnContext(ctx, "item payload", "item", e.Item.Core().String(), "err", err)
				lerr.Failed++
				if lerr.First == nil {
					lerr.First = fmt.Errorf("%s: %w", e.Item.Core(), err)
				}
			}
			r.Slice(i+1, stages).Progress(1)
		}

		_ = r.Action("Border")
		if err := locked(func() error { return s.LoadBorder(plan.Border) }); err != nil {
			return err
		}
		r.Progress(1)
		if lerr.Failed > 0 {
			return lerr
		}
		return nil
	})
}
