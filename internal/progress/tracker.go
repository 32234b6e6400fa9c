/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package progress

import (
	"github.com/google/uuid"
)

// Indicator is the UI state of one running worker.
type Indicator struct {
	Worker   uuid.UUID
	Title    string
	Label    string
	Fraction float64
}

// Tracker keeps the indicators of running workers. It is used from the UI
// goroutine only.
type Tracker struct {
	order []uuid.UUID
	ind   map[uuid.UUID]*Indicator
	// OnFinish is called with each finished worker's final state and error.
	OnFinish func(Indicator, error)
}

func NewTracker() *Tracker { return &Tracker{ind: make(map[uuid.UUID]*Indicator)} }

// Handle applies one event. A Progress or Action for an unknown worker
// creates its indicator.
func (t *Tracker) Handle(e Event) {
	in := t.ind[e.Worker]
	if in == nil && e.Kind != Finish {
		in = &Indicator{Worker: e.Worker}
		t.ind[e.Worker] = in
		t.order = append(t.order, e.Worker)
	}
	switch e.Kind {
	case Init:
		in.Title = e.Label
	case Progress:
		if e.Fraction > in.Fraction {
			in.Fraction = e.Fraction
		}
	case Action:
		in.Label = e.Label
	case Finish:
		var last Indicator
		if in != nil {
			last = *in
			delete(t.ind, e.Worker)
			for i, id := range t.order {
				if id == e.Worker {
					t.order = append(t.order[:i], t.order[i+1:]...)
					break
				}
			}
		} else {
			last.Worker = e.Worker
		}
		if t.OnFinish != nil {
			t.OnFinish(last, e.Err)
		}
	}
}

// Busy reports whether any worker is running.
func (t *Tracker) Busy() bool { return len(t.order) > 0 }

// Active returns the running indicators in start order.
func (t *Tracker) Active() []Indicator {
	out := make([]Indicator, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, *t.ind[id])
	}
	return out
}
