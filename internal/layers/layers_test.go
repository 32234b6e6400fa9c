/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package layers

import (
	"errors"
	"fmt"
	"testing"

	"photolayouts/internal/items"
)

func newItems(n int) []items.Item {
	out := make([]items.Item, n)
	for i := range out {
		out[i] = items.NewPhoto(nil, fmt.Sprintf("p%d", i))
	}
	return out
}

func names(m *Model) string {
	s := ""
	for _, it := range m.Items() {
		s += it.Core().Name() + " "
	}
	return s
}

func checkZ(t *testing.T, parent *Node) {
	t.Helper()
	n := parent.ChildCount()
	for k := 0; k < n; k++ {
		if z := parent.Child(k).Item().Core().Z(); z != n-k {
			t.Fatalf("row %d: z=%d want %d", k, z, n-k)
		}
	}
}

func TestInsertRenumbers(t *testing.T) {
	m := NewModel()
	its := newItems(3)
	if _, err := m.InsertItems(0, nil, its...); err != nil {
		t.Fatal(err)
	}
	checkZ(t, m.Root())
	extra := items.NewPhoto(nil, "top")
	if _, err := m.InsertItems(0, nil, extra); err != nil {
		t.Fatal(err)
	}
	checkZ(t, m.Root())
	if extra.Z() != 4 {
		t.Fatalf("new row 0 must be topmost, z=%d", extra.Z())
	}
	if _, err := m.InsertItems(9, nil, items.NewPhoto(nil, "x")); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("want ErrOutOfBounds, got %v", err)
	}
}

func TestMoveRowsSameParent(t *testing.T) {
	m := NewModel()
	_, _ = m.InsertItems(0, nil, newItems(5)...)
	// move p0,p1 below p3: dst=4 lands at 4-2=2
	if err := m.MoveRows(0, 2, nil, 4, nil); err != nil {
		t.Fatal(err)
	}
	if got := names(m); got != "p2 p3 p0 p1 p4 " {
		t.Fatalf("order %q", got)
	}
	checkZ(t, m.Root())
	if err := m.MoveRows(4, 1, nil, 0, nil); err != nil {
		t.Fatal(err)
	}
	if got := names(m); got != "p4 p2 p3 p0 p1 " {
		t.Fatalf("order %q", got)
	}
	checkZ(t, m.Root())
}

func TestMoveRowsRejects(t *testing.T) {
	m := NewModel()
	_, _ = m.InsertItems(0, nil, newItems(4)...)
	for _, dst := range []int{1, 2, 3} {
		if err := m.MoveRows(1, 2, nil, dst, nil); !errors.Is(err, ErrOverlap) {
			t.Fatalf("dst=%d: want ErrOverlap, got %v", dst, err)
		}
	}
	if err := m.MoveRows(3, 2, nil, 0, nil); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("want ErrOutOfBounds, got %v", err)
	}
	if got := names(m); got != "p0 p1 p2 p3 " {
		t.Fatalf("rejected move changed the tree: %q", got)
	}
}

func TestMoveRowsAcrossParents(t *testing.T) {
	m := NewModel()
	nodes, _ := m.InsertItems(0, nil, newItems(3)...)
	group := nodes[2]
	if err := m.MoveRows(0, 1, nil, 0, group); err != nil {
		t.Fatal(err)
	}
	if m.Root().ChildCount() != 2 || group.ChildCount() != 1 {
		t.Fatalf("unexpected shape root=%d group=%d", m.Root().ChildCount(), group.ChildCount())
	}
	checkZ(t, m.Root())
	checkZ(t, group)
	if err := m.MoveRows(1, 1, nil, 0, group.Child(0)); !errors.Is(err, ErrCycle) {
		t.Fatalf("want ErrCycle, got %v", err)
	}
}

func TestRemoveAndReinsertNodes(t *testing.T) {
	m := NewModel()
	_, _ = m.InsertItems(0, nil, newItems(3)...)
	removed, err := m.RemoveRows(1, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	checkZ(t, m.Root())
	if removed[0].Parent() != nil || m.Contains(removed[0]) {
		t.Fatalf("removed node still attached")
	}
	if err := m.InsertNodes(1, nil, removed...); err != nil {
		t.Fatal(err)
	}
	if got := names(m); got != "p0 p1 p2 " {
		t.Fatalf("order %q", got)
	}
}

func TestSelectionFollowsModel(t *testing.T) {
	m := NewModel()
	sel := NewSelection(m)
	nodes, _ := m.InsertItems(0, nil, newItems(4)...)
	calls := 0
	sel.OnChanged(func() { calls++ })
	sel.Set(nodes[1], nodes[2])
	if parent, first, count, ok := sel.Contiguous(); !ok || parent != m.Root() || first != 1 || count != 2 {
		t.Fatalf("contiguous = %v %d %d", ok, first, count)
	}
	sel.Toggle(nodes[2])
	sel.Add(nodes[3])
	if _, _, _, ok := sel.Contiguous(); ok {
		t.Fatalf("rows 1 and 3 are not contiguous")
	}
	if _, err := m.RemoveRows(3, 1, nil); err != nil {
		t.Fatal(err)
	}
	if sel.Len() != 1 || !sel.IsSelected(nodes[1]) {
		t.Fatalf("selection not pruned: %d", sel.Len())
	}
	if calls != 4 {
		t.Fatalf("observer calls = %d", calls)
	}
	if _, row, ok := sel.TopRow(); !ok || row != 1 {
		t.Fatalf("top row = %d", row)
	}
}

func TestRowMoveInvertIsIdentity(t *testing.T) {
	for src := 0; src < 6; src++ {
		for count := 1; src+count <= 6; count++ {
			for dst := 0; dst <= 6; dst++ {
				m := NewModel()
				_, _ = m.InsertItems(0, nil, newItems(6)...)
				before := names(m)
				mv := RowMove{SrcRow: src, Count: count, DstRow: dst}
				err := mv.Apply(m)
				if dst >= src && dst <= src+count {
					if !errors.Is(err, ErrOverlap) {
						t.Fatalf("%+v: want ErrOverlap, got %v", mv, err)
					}
					continue
				}
				if err != nil {
					t.Fatalf("%+v: %v", mv, err)
				}
				if err := mv.Invert().Apply(m); err != nil {
					t.Fatalf("invert of %+v: %v", mv, err)
				}
				if got := names(m); got != before {
					t.Fatalf("%+v: %q != %q", mv, got, before)
				}
				checkZ(t, m.Root())
			}
		}
	}
}
