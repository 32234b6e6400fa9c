/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package layers is the tree that owns sibling order, and through it the
// z-value of every item: the child at row k of a parent with n children has
// z = n - k, so row 0 is drawn on top.
package layers

import (
	"errors"
	"fmt"
	"log/slog"

	"photolayouts/internal/items"
	applog "photolayouts/internal/log"
)

var (
	ErrOutOfBounds = errors.New("layers: row out of bounds")
	ErrOverlap     = errors.New("layers: destination overlaps moved rows")
	ErrForeignNode = errors.New("layers: node not in this model")
	ErrCycle       = errors.New("layers: cannot move a node below itself")
)

// Node wraps zero or one item. The root and group nodes have no item.
type Node struct {
	item     items.Item
	parent   *Node
	children []*Node
}

// NewNode wraps it in a detached node.
func NewNode(it items.Item) *Node { return &Node{item: it} }

func (n *Node) Item() items.Item    { return n.item }
func (n *Node) Parent() *Node       { return n.parent }
func (n *Node) ChildCount() int     { return len(n.children) }
func (n *Node) Child(row int) *Node { return n.children[row] }
func (n *Node) Children() []*Node   { return append([]*Node(nil), n.children...) }

// Row is the index of n in its parent, or -1 for a detached node.
func (n *Node) Row() int {
	if n.parent == nil {
		return -1
	}
	for i, c := range n.parent.children {
		if c == n {
			return i
		}
	}
	return -1
}

func (n *Node) isAncestorOf(o *Node) bool {
	for p := o; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

// Observer is told about structural changes after they happen.
type Observer interface {
	RowsInserted(parent *Node, row, count int)
	RowsRemoved(parent *Node, row, count int, removed []*Node)
	RowsMoved(srcParent *Node, srcRow, count int, dstParent *Node, dstRow int)
}

// Model is the layers tree.
type Model struct {
	root      *Node
	observers []Observer
	log       *slog.Logger
}

func NewModel() *Model {
	return &Model{root: &Node{}, log: applog.WithComponent("layers")}
}

func (m *Model) Root() *Node        { return m.root }
func (m *Model) Observe(o Observer) { m.observers = append(m.observers, o) }
func (m *Model) parentOrRoot(p *Node) *Node {
	if p == nil {
		return m.root
	}
	return p
}

// Contains reports whether n is attached below the root.
func (m *Model) Contains(n *Node) bool { return n != nil && m.root.isAncestorOf(n) }

// InsertItems wraps its in new nodes at row of parent (nil = root).
func (m *Model) InsertItems(row int, parent *Node, its ...items.Item) ([]*Node, error) {
	nodes := make([]*Node, len(its))
	for i, it := range its {
		nodes[i] = NewNode(it)
	}
	if err := m.InsertNodes(row, parent, nodes...); err != nil {
		return nil, err
	}
	return nodes, nil
}

// InsertNodes attaches detached nodes (with their subtrees) at row of parent.
func (m *Model) InsertNodes(row int, parent *Node, nodes ...*Node) error {
	parent = m.parentOrRoot(parent)
	if !m.Contains(parent) {
		return ErrForeignNode
	}
	if row < 0 || row > len(parent.children) {
		m.log.Debug("insert rejected", "row", row, "count", len(parent.children))
		return fmt.Errorf("insert at %d: %w", row, ErrOutOfBounds)
	}
	if len(nodes) == 0 {
		return nil
	}
	for _, n := range nodes {
		n.parent = parent
	}
	parent.children = append(parent.children[:row], append(append([]*Node(nil), nodes...), parent.children[row:]...)...)
	renumber(parent)
	for _, o := range m.observers {
		o.RowsInserted(parent, row, len(nodes))
	}
	return nil
}

// RemoveRows detaches count nodes from row of parent and returns them. The
// nodes keep their subtrees so they can be inserted again.
func (m *Model) RemoveRows(row, count int, parent *Node) ([]*Node, error) {
	parent = m.parentOrRoot(parent)
	if !m.Contains(parent) {
		return nil, ErrForeignNode
	}
	if row < 0 || count <= 0 || row+count > len(parent.children) {
		m.log.Debug("remove rejected", "row", row, "n", count, "count", len(parent.children))
		return nil, fmt.Errorf("remove %d+%d: %w", row, count, ErrOutOfBounds)
	}
	out := append([]*Node(nil), parent.children[row:row+count]...)
	parent.children = append(parent.children[:row], parent.children[row+count:]...)
	for _, n := range out {
		n.parent = nil
	}
	renumber(parent)
	for _, o := range m.observers {
		o.RowsRemoved(parent, row, count, out)
	}
	return out, nil
}

// CheckMove validates a MoveRows request without performing it.
func (m *Model) CheckMove(srcRow, count int, srcParent *Node, dstRow int, dstParent *Node) error {
	srcParent, dstParent = m.parentOrRoot(srcParent), m.parentOrRoot(dstParent)
	if !m.Contains(srcParent) || !m.Contains(dstParent) {
		return ErrForeignNode
	}
	if srcRow < 0 || count <= 0 || srcRow+count > len(srcParent.children) || dstRow < 0 || dstRow > len(dstParent.children) {
		return fmt.Errorf("move %d+%d to %d: %w", srcRow, count, dstRow, ErrOutOfBounds)
	}
	if srcParent == dstParent {
		if dstRow >= srcRow && dstRow <= srcRow+count {
			return fmt.Errorf("move %d+%d to %d: %w", srcRow, count, dstRow, ErrOverlap)
		}
		return nil
	}
	for _, n := range srcParent.children[srcRow : srcRow+count] {
		if n.isAncestorOf(dstParent) {
			return ErrCycle
		}
	}
	return nil
}

// MoveRows moves count rows starting at srcRow of srcParent so they are
// inserted before the row dstRow of dstParent as it was before the move. For a
// move down within one parent the rows end up starting at dstRow-count.
func (m *Model) MoveRows(srcRow, count int, srcParent *Node, dstRow int, dstParent *Node) error {
	if err := m.CheckMove(srcRow, count, srcParent, dstRow, dstParent); err != nil {
		m.log.Debug("move rejected", "src", srcRow, "n", count, "dst", dstRow, "err", err)
		return err
	}
	srcParent, dstParent = m.parentOrRoot(srcParent), m.parentOrRoot(dstParent)
	moved := append([]*Node(nil), srcParent.children[srcRow:srcRow+count]...)
	srcParent.children = append(srcParent.children[:srcRow], srcParent.children[srcRow+count:]...)
	final := dstRow
	if srcParent == dstParent && dstRow > srcRow {
		final -= count
	}
	for _, n := range moved {
		n.parent = dstParent
	}
	dstParent.children = append(dstParent.children[:final], append(moved, dstParent.children[final:]...)...)
	renumber(srcParent)
	if dstParent != srcParent {
		renumber(dstParent)
	}
	for _, o := range m.observers {
		o.RowsMoved(srcParent, srcRow, count, dstParent, dstRow)
	}
	return nil
}

// renumber restores z = childCount - row for every child of parent.
func renumber(parent *Node) {
	n := len(parent.children)
	for i, c := range parent.children {
		if c.item != nil {
			c.item.Core().SetZ(n - i)
		}
	}
}

// FindItem returns the node wrapping it, or nil.
func (m *Model) FindItem(it items.Item) *Node {
	var found *Node
	walk(m.root, func(n *Node) bool {
		if n.item == it {
			found = n
			return false
		}
		return true
	})
	return found
}

// Items lists every item depth-first in row order, so the topmost comes first.
func (m *Model) Items() []items.Item {
	var out []items.Item
	walk(m.root, func(n *Node) bool {
		if n.item != nil {
			out = append(out, n.item)
		}
		return true
	})
	return out
}

// PaintOrder lists the items bottom-most first.
func (m *Model) PaintOrder() []items.Item {
	its := m.Items()
	for i, j := 0, len(its)-1; i < j; i, j = i+1, j-1 {
		its[i], its[j] = its[j], its[i]
	}
	return its
}

func walk(n *Node, fn func(*Node) bool) bool {
	for _, c := range n.children {
		if !fn(c) || !walk(c, fn) {
			return false
		}
	}
	return true
}

// RowMove is the value form of a MoveRows call.
type RowMove struct {
	SrcParent *Node
	SrcRow    int
	Count     int
	DstParent *Node
	DstRow    int
}

// Apply performs the move on m.
func (r RowMove) Apply(m *Model) error {
	return m.MoveRows(r.SrcRow, r.Count, r.SrcParent, r.DstRow, r.DstParent)
}

// Invert returns the move that undoes r once r has been applied.
func (r RowMove) Invert() RowMove {
	if r.SrcParent == r.DstParent {
		if r.DstRow > r.SrcRow {
			return RowMove{SrcParent: r.DstParent, SrcRow: r.DstRow - r.Count, Count: r.Count, DstParent: r.SrcParent, DstRow: r.SrcRow}
		}
		return RowMove{SrcParent: r.DstParent, SrcRow: r.DstRow, Count: r.Count, DstParent: r.SrcParent, DstRow: r.SrcRow + r.Count}
	}
	return RowMove{SrcParent: r.DstParent, SrcRow: r.DstRow, Count: r.Count, DstParent: r.SrcParent, DstRow: r.SrcRow}
}
