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
	"sort"

	"photolayouts/internal/items"
)

// Selection is the set of selected nodes of one model. It is the only
// selection store: the scene reads and writes it directly, and observers run
// once per change after the set is updated.
type Selection struct {
	model     *Model
	nodes     []*Node
	observers []func()
}

// NewSelection attaches a selection to m; removed nodes leave the selection.
func NewSelection(m *Model) *Selection {
	s := &Selection{model: m}
	m.Observe(s)
	return s
}

func (s *Selection) OnChanged(fn func()) { s.observers = append(s.observers, fn) }

func (s *Selection) notify() {
	for _, fn := range s.observers {
		fn()
	}
}

func (s *Selection) Len() int       { return len(s.nodes) }
func (s *Selection) Empty() bool    { return len(s.nodes) == 0 }
func (s *Selection) Nodes() []*Node { return append([]*Node(nil), s.nodes...) }

func (s *Selection) Items() []items.Item {
	out := make([]items.Item, 0, len(s.nodes))
	for _, n := range s.nodes {
		if n.item != nil {
			out = append(out, n.item)
		}
	}
	return out
}

func (s *Selection) IsSelected(n *Node) bool {
	for _, x := range s.nodes {
		if x == n {
			return true
		}
	}
	return false
}

// Set replaces the selection.
func (s *Selection) Set(nodes ...*Node) {
	s.nodes = s.nodes[:0]
	for _, n := range nodes {
		if n != nil && !s.IsSelected(n) && s.model.Contains(n) {
			s.nodes = append(s.nodes, n)
		}
	}
	s.notify()
}

// Add extends the selection.
func (s *Selection) Add(nodes ...*Node) {
	changed := false
	for _, n := range nodes {
		if n != nil && !s.IsSelected(n) && s.model.Contains(n) {
			s.nodes = append(s.nodes, n)
			changed = true
		}
	}
	if changed {
		s.notify()
	}
}

// Toggle flips the selection state of n.
func (s *Selection) Toggle(n *Node) {
	for i, x := range s.nodes {
		if x == n {
			s.nodes = append(s.nodes[:i], s.nodes[i+1:]...)
			s.notify()
			return
		}
	}
	s.Add(n)
}

func (s *Selection) Clear() {
	if len(s.nodes) == 0 {
		return
	}
	s.nodes = s.nodes[:0]
	s.notify()
}

// SelectItems selects the nodes wrapping its.
func (s *Selection) SelectItems(its ...items.Item) {
	nodes := make([]*Node, 0, len(its))
	for _, it := range its {
		if n := s.model.FindItem(it); n != nil {
			nodes = append(nodes, n)
		}
	}
	s.Set(nodes...)
}

// TopRow returns the parent and smallest row among the selected nodes. ok is
// false when nothing is selected.
func (s *Selection) TopRow() (parent *Node, row int, ok bool) {
	row = -1
	for _, n := range s.nodes {
		r := n.Row()
		if row < 0 || (n.parent == parent && r < row) {
			parent, row = n.parent, r
		}
	}
	return parent, row, row >= 0
}

// Contiguous reports the selected rows as one range when they share a parent
// and have no gaps.
func (s *Selection) Contiguous() (parent *Node, first, count int, ok bool) {
	if len(s.nodes) == 0 {
		return nil, 0, 0, false
	}
	parent = s.nodes[0].parent
	rows := make([]int, 0, len(s.nodes))
	for _, n := range s.nodes {
		if n.parent != parent {
			return nil, 0, 0, false
		}
		rows = append(rows, n.Row())
	}
	sort.Ints(rows)
	for i := 1; i < len(rows); i++ {
		if rows[i] != rows[i-1]+1 {
			return nil, 0, 0, false
		}
	}
	return parent, rows[0], len(rows), true
}

func (s *Selection) RowsInserted(*Node, int, int) {}

func (s *Selection) RowsRemoved(_ *Node, _, _ int, _ []*Node) {
	kept := s.nodes[:0]
	for _, n := range s.nodes {
		if s.model.Contains(n) {
			kept = append(kept, n)
		}
	}
	if len(kept) != len(s.nodes) {
		s.nodes = kept
		s.notify()
	}
}

func (s *Selection) RowsMoved(*Node, int, int, *Node, int) {}
