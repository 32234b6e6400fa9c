/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package worker runs document loading, saving and image decoding off the UI
// goroutine. Each job reports through a progress.Reporter and ends with
// exactly one Finish event.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/google/uuid"

	applog "photolayouts/internal/log"
	"photolayouts/internal/progress"
)

// Handle is a started job.
type Handle struct {
	ID   uuid.UUID
	done chan struct{}
	err  error
}

// Done is closed after the job posted its Finish event.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the job ends and returns its error.
func (h *Handle) Wait() error {
	<-h.done
	return h.err
}

// Err returns the job error without blocking; nil while running.
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

// start runs fn on its own goroutine. A panic in fn becomes the job error.
func start(ctx context.Context, q *progress.Queue, title string, fn func(ctx context.Context, r *progress.Reporter) error) *Handle {
	r := q.Reporter(ctx)
	h := &Handle{ID: r.ID(), done: make(chan struct{})}
	l := applog.WithOperation(applog.WithComponent("worker"), title).With(slog.String("worker", h.ID.String()))
	go func() {
		defer close(h.done)
		defer func() {
			if p := recover(); p != nil {
				l.ErrorContext(ctx, "panic recovered", slog.Any("panic", p), slog.String("stack", string(debug.Stack())))
				h.err = fmt.Errorf("%s: panic: %v", title, p)
				r.Finish(h.err)
			}
		}()
		if err := r.Init(title); err != nil {
			h.err = err
			r.Finish(err)
			return
		}
		l.DebugContext(ctx, "started")
		h.err = fn(ctx, r)
		if h.err != nil {
			l.WarnContext(ctx, "finished with error", slog.Any("err", h.err))
		} else {
			l.DebugContext(ctx, "finished")
		}
		r.Finish(h.err)
	}()
	return h
}
