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
	"context"
	"errors"
	"math"
	"testing"
	"time"
)

func TestQueueDropsProgressWhenFull(t *testing.T) {
	q := NewQueue(2)
	r := q.Reporter(context.Background())
	r.Progress(0.1)
	r.Progress(0.2)
	r.Progress(0.3) // dropped
	if q.Dropped() != 1 {
		t.Fatalf("dropped = %d, want 1", q.Dropped())
	}
	var got []float64
	q.Drain(func(e Event) { got = append(got, e.Fraction) })
	if len(got) != 2 || got[0] != 0.1 || got[1] != 0.2 {
		t.Fatalf("drained %v", got)
	}
}

func TestBlockingPostHonoursContext(t *testing.T) {
	q := NewQueue(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	r := q.Reporter(ctx)
	if err := r.Init("one"); err != nil {
		t.Fatalf("first init: %v", err)
	}
	if err := r.Action("two"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("blocked action err = %v", err)
	}
}

func TestSliceMapsIntoSpanAndStaysMonotonic(t *testing.T) {
	q := NewQueue(16)
	r := q.Reporter(context.Background())
	r.Slice(1, 4).Progress(0.5) // 0.375
	r.Slice(0, 4).Progress(1)   // 0.25, behind: ignored
	r.Slice(3, 4).Progress(2)   // clamped to 1
	var got []float64
	q.Drain(func(e Event) {
		if e.Worker != r.ID() {
			t.Fatalf("slice changed identity")
		}
		got = append(got, e.Fraction)
	})
	if len(got) != 2 || math.Abs(got[0]-0.375) > 1e-12 || got[1] != 1 {
		t.Fatalf("fractions = %v", got)
	}
}

func TestTrackerLifecycle(t *testing.T) {
	q := NewQueue(16)
	a := q.Reporter(context.Background())
	b := q.Reporter(context.Background())
	_ = a.Init("Loading")
	_ = b.Init("Saving")
	a.Progress(0.5)
	_ = b.Action("Writing")
	boom := errors.New("boom")
	b.Finish(boom)

	tr := NewTracker()
	var finished []Indicator
	var errs []error
	tr.OnFinish = func(in Indicator, err error) {
		finished = append(finished, in)
		errs = append(errs, err)
	}
	q.Drain(tr.Handle)

	act := tr.Active()
	if len(act) != 1 || act[0].Worker != a.ID() || act[0].Title != "Loading" || act[0].Fraction != 0.5 {
		t.Fatalf("active = %+v", act)
	}
	if len(finished) != 1 || finished[0].Label != "Writing" || !errors.Is(errs[0], boom) {
		t.Fatalf("finished = %+v %v", finished, errs)
	}
	a.Finish(nil)
	q.Drain(tr.Handle)
	if tr.Busy() {
		t.Fatalf("tracker still busy")
	}
}
