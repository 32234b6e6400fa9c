/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package vector

import (
	"math"
	"testing"
)

func TestPathBoundsAndTransform(t *testing.T) {
	p := RectPath(R(0, 0, 100, 50))
	if b := p.Bounds(); b != R(0, 0, 100, 50) {
		t.Fatalf("bounds = %+v", b)
	}
	moved := p.Transform(Translate(10, 20))
	if b := moved.Bounds(); b != R(10, 20, 100, 50) {
		t.Fatalf("transformed bounds = %+v", b)
	}
	if p.Cmds[0].Data[0] != 0 {
		t.Fatalf("Transform must not mutate the receiver")
	}
	if !(Path{}).IsEmpty() || !(Path{}).Bounds().Empty() {
		t.Fatalf("zero path should be empty")
	}
}

func TestPathContains(t *testing.T) {
	r := RectPath(R(0, 0, 10, 10))
	if !r.Contains(Pt{5, 5}) || r.Contains(Pt{15, 5}) {
		t.Fatalf("rect containment wrong")
	}
	e := EllipsePath(R(0, 0, 100, 100))
	if !e.Contains(Pt{50, 50}) {
		t.Fatalf("ellipse center should be inside")
	}
	if e.Contains(Pt{3, 3}) {
		t.Fatalf("ellipse corner should be outside")
	}
	// even-odd: a hole punched by a second subpath
	var ring Path
	ring.Append(RectPath(R(0, 0, 30, 30)))
	ring.Append(RectPath(R(10, 10, 10, 10)))
	if ring.Contains(Pt{15, 15}) || !ring.Contains(Pt{5, 5}) {
		t.Fatalf("even-odd ring containment wrong")
	}
}

func TestClipRect(t *testing.T) {
	p := RectPath(R(-10, -10, 40, 40)).ClipRect(R(0, 0, 20, 20))
	b := p.Bounds()
	if math.Abs(b.X) > 1e-9 || math.Abs(b.Y) > 1e-9 || math.Abs(b.W-20) > 1e-9 || math.Abs(b.H-20) > 1e-9 {
		t.Fatalf("clipped bounds = %+v", b)
	}
	if !RectPath(R(50, 50, 5, 5)).ClipRect(R(0, 0, 20, 20)).IsEmpty() {
		t.Fatalf("disjoint clip should be empty")
	}
}

func TestPathStringRoundTrip(t *testing.T) {
	var p Path
	p.MoveTo(1.5, 2)
	p.LineTo(10, 2)
	p.QuadTo(12, 4, 10, 6)
	p.CubicTo(8, 8, 4, 8, 1.5, 6)
	p.Close()
	got, err := ParsePath(p.String())
	if err != nil {
		t.Fatalf("ParsePath: %v", err)
	}
	if len(got.Cmds) != len(p.Cmds) {
		t.Fatalf("cmd count %d != %d", len(got.Cmds), len(p.Cmds))
	}
	for i := range p.Cmds {
		if got.Cmds[i] != p.Cmds[i] {
			t.Fatalf("cmd %d mismatch: %+v vs %+v", i, got.Cmds[i], p.Cmds[i])
		}
	}
	if _, err := ParsePath("M 1"); err == nil {
		t.Fatalf("expected error for truncated command")
	}
	if _, err := ParsePath("A 1 2 3"); err == nil {
		t.Fatalf("expected error for unsupported command")
	}
}
