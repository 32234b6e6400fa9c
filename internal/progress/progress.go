/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package progress carries worker progress to the UI goroutine. Workers post
// tagged events on a bounded queue; the UI drains it each tick and keeps one
// indicator per worker.
package progress

import (
	"context"
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/google/uuid"

	applog "photolayouts/internal/log"
)

// Kind discriminates the event payload.
type Kind int

const (
	Init Kind = iota + 1
	Progress
	Action
	Finish
)

func (k Kind) String() string {
	switch k {
	case Init:
		return "init"
	case Progress:
		return "progress"
	case Action:
		return "action"
	case Finish:
		return "finish"
	}
	return "unknown"
}

// Event is one message from a worker. Only copies of primitive data travel
// here, never pointers into the document.
type Event struct {
	Worker   uuid.UUID
	Kind     Kind
	Fraction float64 // Progress: overall fraction in [0,1]
	Label    string  // Init: title, Action: current step
	Err      error   // Finish: nil on success
}

// DefaultSize is the queue capacity used when none is given.
const DefaultSize = 64

// Queue is a bounded worker → UI event channel. Progress events are dropped
// when it is full; the others wait for room.
type Queue struct {
	q       chan Event
	dropped atomic.Int64
	log     *slog.Logger
}

func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultSize
	}
	return &Queue{q: make(chan Event, size), log: applog.WithComponent("progress")}
}

// Post enqueues e. It returns ctx.Err() if a blocking post is abandoned.
func (q *Queue) Post(ctx context.Context, e Event) error {
	if e.Kind == Progress {
		select {
		case q.q <- e:
		default:
			q.dropped.Add(1)
		}
		return nil
	}
	select {
	case q.q <- e:
		return nil
	case <-ctx.Done():
		q.log.Debug("event abandoned", "kind", e.Kind, "worker", e.Worker)
		return ctx.Err()
	}
}

// C exposes the receive side for select loops.
func (q *Queue) C() <-chan Event { return q.q }

// Drain hands every queued event to fn without blocking and returns the count.
func (q *Queue) Drain(fn func(Event)) int {
	n := 0
	for {
		select {
		case e := <-q.q:
			fn(e)
			n++
		default:
			return n
		}
	}
}

// Dropped is the number of progress events lost to a full queue.
func (q *Queue) Dropped() int64 { return q.dropped.Load() }

// Reporter posts the events of one worker. Fractions are clamped to its span
// and never go backwards.
type Reporter struct {
	q      *Queue
	ctx    context.Context
	id     uuid.UUID
	lo, hi float64
	last   *float64
}

// Reporter returns a reporter with a fresh worker identity.
func (q *Queue) Reporter(ctx context.Context) *Reporter {
	last := 0.0
	return &Reporter{q: q, ctx: ctx, id: uuid.New(), lo: 0, hi: 1, last: &last}
}

func (r *Reporter) ID() uuid.UUID { return r.id }

func (r *Reporter) Init(title string) error {
	return r.q.Post(r.ctx, Event{Worker: r.id, Kind: Init, Label: title})
}

// Progress reports f in [0,1] of the reporter's span.
func (r *Reporter) Progress(f float64) {
	f = r.lo + (r.hi-r.lo)*math.Min(math.Max(f, 0), 1)
	if f < *r.last {
		return
	}
	*r.last = f
	_ = r.q.Post(r.ctx, Event{Worker: r.id, Kind: Progress, Fraction: f})
}

func (r *Reporter) Action(label string) error {
	return r.q.Post(r.ctx, Event{Worker: r.id, Kind: Action, Label: label})
}

// Finish ends the worker. It uses a background context so the UI always
// learns about the end, also after cancellation.
func (r *Reporter) Finish(err error) {
	_ = r.q.Post(context.Background(), Event{Worker: r.id, Kind: Finish, Err: err, Fraction: *r.last})
}

// Slice returns a reporter for stage i of n equal stages of r's span. It
// shares r's identity.
func (r *Reporter) Slice(i, n int) *Reporter {
	if n <= 0 {
		return r
	}
	w := (r.hi - r.lo) / float64(n)
	c := *r
	c.lo = r.lo + w*float64(i)
	c.hi = c.lo + w
	return &c
}
