/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package scene

import (
	"fmt"

	"photolayouts/internal/borders"
	"photolayouts/internal/effects"
	"photolayouts/internal/items"
	"photolayouts/internal/layers"
	"photolayouts/internal/props"
	"photolayouts/internal/undo"
	"photolayouts/internal/vector"
)

// AddItems inserts items above the topmost selected row (row 0 without a
// selection) as one undoable step. Items already in the scene are skipped.
func (s *Scene) AddItems(its ...items.Item) error {
	var fresh []items.Item
	for _, it := range its {
		if it == nil || s.Contains(it) {
			continue
		}
		if it.Core().Owner() != nil {
			return fmt.Errorf("add %s: %w", it.Core(), ErrAlreadyHere)
		}
		fresh = append(fresh, it)
	}
	if len(fresh) == 0 {
		return nil
	}
	parent, row, ok := s.sel.TopRow()
	if !ok {
		parent, row = s.model.Root(), 0
	}
	for _, it := range fresh {
		it.Core().SetName(s.UniqueName(it.Core().Name()))
	}
	text := "Add item"
	if len(fresh) > 1 {
		text = fmt.Sprintf("Add %d items", len(fresh))
	}
	s.stack.Push(&addItemsCmd{s: s, text: text, parent: parent, row: row, items: fresh})
	return nil
}

// AddItem is AddItems for one item.
func (s *Scene) AddItem(it items.Item) error { return s.AddItems(it) }

// RemoveItems removes its from the scene. With confirm set, Confirm is asked
// first. Several items are removed as one undo macro.
func (s *Scene) RemoveItems(confirm bool, its ...items.Item) error {
	var nodes []*layers.Node
	for _, it := range its {
		n := s.model.FindItem(it)
		if n == nil {
			return fmt.Errorf("remove %s: %w", it.Core(), ErrNotInScene)
		}
		nodes = append(nodes, n)
	}
	if len(nodes) == 0 {
		return nil
	}
	if confirm && s.Confirm != nil && !s.Confirm(len(nodes)) {
		return ErrCancelled
	}
	if len(nodes) > 1 {
		s.stack.BeginMacro(fmt.Sprintf("Remove %d items", len(nodes)))
		defer s.stack.EndMacro()
	}
	for _, n := range nodes {
		s.stack.Push(&removeItemCmd{s: s, node: n})
	}
	return nil
}

// RemoveSelected removes the selected items after confirmation.
func (s *Scene) RemoveSelected() error { return s.RemoveItems(true, s.sel.Items()...) }

// MoveRows validates and performs a tree move as one undoable step.
func (s *Scene) MoveRows(mv layers.RowMove) error {
	if mv.SrcParent == nil {
		mv.SrcParent = s.model.Root()
	}
	if mv.DstParent == nil {
		mv.DstParent = s.model.Root()
	}
	if err := s.model.CheckMove(mv.SrcRow, mv.Count, mv.SrcParent, mv.DstRow, mv.DstParent); err != nil {
		s.log.Debug("row move refused", "err", err)
		return err
	}
	s.stack.Push(&moveRowsCmd{s: s, fwd: mv})
	return nil
}

// MoveItems records new positions for its. The items may already stand at
// to (after a live drag); from are their positions before.
func (s *Scene) MoveItems(its []items.Item, from, to []vector.Pt) {
	s.stack.Push(&moveItemsCmd{s: s, items: its, from: from, to: to})
}

// CropItem sets the crop shape of it, in item coordinates.
func (s *Scene) CropItem(it items.Item, crop vector.Path) error {
	if !s.Contains(it) {
		return ErrNotInScene
	}
	s.stack.Push(&cropCmd{item: it, from: it.Core().Crop(), to: crop.Clone()})
	return nil
}

// TransformItems records new transforms for its; like MoveItems the items
// may already carry them.
func (s *Scene) TransformItems(text string, its []items.Item, from, to []vector.Affine2D) {
	s.stack.Push(&transformCmd{s: s, text: text, items: its, from: from, to: to})
}

// SetProperty changes one schema property of target (an effect, a border
// drawer, a decoration or a text item) as an undoable step.
func (s *Scene) SetProperty(target props.Describer, name string, value any) error {
	p, ok := props.Find(target, name)
	if !ok {
		return fmt.Errorf("%s.%s: %w", target.Name(), name, props.ErrUnknownProperty)
	}
	v, err := p.Check(value)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", target.Name(), name, err)
	}
	s.stack.Push(&setPropertyCmd{target: target, prop: p, from: p.Get(), to: v, refresh: s.refresherFor(target)})
	return nil
}

// refresherFor finds the group that must refresh after target changes.
func (s *Scene) refresherFor(target props.Describer) func() {
	for _, it := range s.model.Items() {
		b := it.Core()
		if e, ok := target.(effects.Effect); ok && b.Effects().IndexOf(e) >= 0 {
			return b.Effects().Changed
		}
		if d, ok := target.(borders.Drawer); ok && b.Borders().IndexOf(d) >= 0 {
			return b.Borders().Changed
		}
	}
	return s.changed
}

// InsertEffects adds effects to it at row.
func (s *Scene) InsertEffects(it items.Item, row int, es ...effects.Effect) error {
	g := it.Core().Effects()
	if row < 0 || row > g.Len() {
		return fmt.Errorf("insert effect at %d: %w", row, layers.ErrOutOfBounds)
	}
	s.stack.Push(&insertRowsCmd[effects.Effect]{text: "Add effect", list: g, row: row, vals: es})
	return nil
}

// AddEffect creates the named effect and puts it at row 0.
func (s *Scene) AddEffect(it items.Item, name string) (effects.Effect, error) {
	e, err := s.effects.New(name)
	if err != nil {
		return nil, err
	}
	return e, s.InsertEffects(it, 0, e)
}

func (s *Scene) RemoveEffects(it items.Item, row, count int) error {
	g := it.Core().Effects()
	if row < 0 || count <= 0 || row+count > g.Len() {
		return fmt.Errorf("remove effect %d+%d: %w", row, count, layers.ErrOutOfBounds)
	}
	s.stack.Push(&removeRowsCmd[effects.Effect]{text: "Remove effect", list: g, row: row, count: count})
	return nil
}

func (s *Scene) MoveEffects(it items.Item, src, count, dst int) error {
	if err := checkListMove(it.Core().Effects().Len(), src, count, dst); err != nil {
		return err
	}
	s.stack.Push(&moveListRowsCmd[effects.Effect]{text: "Move effect", list: it.Core().Effects(), src: src, count: count, dst: dst})
	return nil
}

// InsertBorders adds drawers to it at row.
func (s *Scene) InsertBorders(it items.Item, row int, ds ...borders.Drawer) error {
	g := it.Core().Borders()
	if row < 0 || row > g.Len() {
		return fmt.Errorf("insert border at %d: %w", row, layers.ErrOutOfBounds)
	}
	s.stack.Push(&insertRowsCmd[borders.Drawer]{text: "Add border", list: g, row: row, vals: ds})
	return nil
}

// AddBorder creates the named drawer and appends it as the outermost frame.
func (s *Scene) AddBorder(it items.Item, name string) (borders.Drawer, error) {
	d, err := s.borders.New(name)
	if err != nil {
		return nil, err
	}
	return d, s.InsertBorders(it, it.Core().Borders().Len(), d)
}

func (s *Scene) RemoveBorders(it items.Item, row, count int) error {
	g := it.Core().Borders()
	if row < 0 || count <= 0 || row+count > g.Len() {
		return fmt.Errorf("remove border %d+%d: %w", row, count, layers.ErrOutOfBounds)
	}
	s.stack.Push(&removeRowsCmd[borders.Drawer]{text: "Remove border", list: g, row: row, count: count})
	return nil
}

func (s *Scene) MoveBorders(it items.Item, src, count, dst int) error {
	if err := checkListMove(it.Core().Borders().Len(), src, count, dst); err != nil {
		return err
	}
	s.stack.Push(&moveListRowsCmd[borders.Drawer]{text: "Move border", list: it.Core().Borders(), src: src, count: count, dst: dst})
	return nil
}

func checkListMove(n, src, count, dst int) error {
	if src < 0 || count <= 0 || src+count > n || dst < 0 || dst > n {
		return fmt.Errorf("move %d+%d to %d: %w", src, count, dst, layers.ErrOutOfBounds)
	}
	if dst >= src && dst <= src+count {
		return fmt.Errorf("move %d+%d to %d: %w", src, count, dst, layers.ErrOverlap)
	}
	return nil
}

type addItemsCmd struct {
	s      *Scene
	text   string
	parent *layers.Node
	row    int
	items  []items.Item
	nodes  []*layers.Node
}

func (c *addItemsCmd) Text() string { return c.text }

func (c *addItemsCmd) Redo() {
	if c.nodes == nil {
		nodes, err := c.s.model.InsertItems(c.row, c.parent, c.items...)
		if err != nil {
			c.s.log.Error("add items", "err", err)
			return
		}
		c.nodes = nodes
	} else if err := c.s.model.InsertNodes(c.row, c.parent, c.nodes...); err != nil {
		c.s.log.Error("add items", "err", err)
		return
	}
	for _, it := range c.items {
		c.s.attach(it)
	}
	c.s.sel.Set(c.nodes...)
}

func (c *addItemsCmd) Undo() {
	if _, err := c.s.model.RemoveRows(c.row, len(c.nodes), c.parent); err != nil {
		c.s.log.Error("undo add items", "err", err)
		return
	}
	for _, it := range c.items {
		c.s.release(it)
	}
	c.s.changed()
}

type removeItemCmd struct {
	s      *Scene
	node   *layers.Node
	parent *layers.Node
	row    int
}

func (c *removeItemCmd) Text() string { return "Remove item" }

func (c *removeItemCmd) Redo() {
	c.parent, c.row = c.node.Parent(), c.node.Row()
	if _, err := c.s.model.RemoveRows(c.row, 1, c.parent); err != nil {
		c.s.log.Error("remove item", "err", err)
		return
	}
	c.s.release(c.node.Item())
	c.s.changed()
}

func (c *removeItemCmd) Undo() {
	if err := c.s.model.InsertNodes(c.row, c.parent, c.node); err != nil {
		c.s.log.Error("undo remove item", "err", err)
		return
	}
	c.s.attach(c.node.Item())
	c.s.changed()
}

// moveRowsCmd keeps its forward move as a value; undo applies the inverse.
type moveRowsCmd struct {
	s   *Scene
	fwd layers.RowMove
}

func (c *moveRowsCmd) Text() string { return "Move layers" }

func (c *moveRowsCmd) Redo() { c.apply(c.fwd) }
func (c *moveRowsCmd) Undo() { c.apply(c.fwd.Invert()) }

func (c *moveRowsCmd) apply(mv layers.RowMove) {
	if err := mv.Apply(c.s.model); err != nil {
		c.s.log.Error("move rows", "err", err)
		return
	}
	c.s.changed()
}

type moveItemsCmd struct {
	s        *Scene
	items    []items.Item
	from, to []vector.Pt
}

func (c *moveItemsCmd) Text() string {
	if len(c.items) == 1 {
		return "Move item"
	}
	return fmt.Sprintf("Move %d items", len(c.items))
}

func (c *moveItemsCmd) Redo() { c.set(c.to) }
func (c *moveItemsCmd) Undo() { c.set(c.from) }

func (c *moveItemsCmd) set(pos []vector.Pt) {
	for i, it := range c.items {
		it.Core().SetPos(pos[i])
	}
	c.s.rebuildOverlays()
}

type transformCmd struct {
	s        *Scene
	text     string
	items    []items.Item
	from, to []vector.Affine2D
}

func (c *transformCmd) Text() string { return c.text }
func (c *transformCmd) Redo()        { c.set(c.to) }
func (c *transformCmd) Undo()        { c.set(c.from) }

func (c *transformCmd) set(ms []vector.Affine2D) {
	for i, it := range c.items {
		it.Core().SetTransform(ms[i])
	}
	c.s.rebuildOverlays()
}

type cropCmd struct {
	item     items.Item
	from, to vector.Path
}

func (c *cropCmd) Text() string { return "Crop" }
func (c *cropCmd) Redo()        { c.item.Core().SetCrop(c.to) }
func (c *cropCmd) Undo()        { c.item.Core().SetCrop(c.from) }

type setPropertyCmd struct {
	target   props.Describer
	prop     props.Property
	from, to any
	refresh  func()
}

func (c *setPropertyCmd) Text() string { return "Change " + c.prop.Display }
func (c *setPropertyCmd) Redo()        { c.prop.Set(c.to); c.refresh() }
func (c *setPropertyCmd) Undo()        { c.prop.Set(c.from); c.refresh() }

// MergeWith folds consecutive edits of one property into a single step.
func (c *setPropertyCmd) MergeWith(next undo.Command) bool {
	n, ok := next.(*setPropertyCmd)
	if !ok || n.target != c.target || n.prop.Name != c.prop.Name {
		return false
	}
	c.to = n.to
	return true
}

// rowList is the mutation surface shared by effects and borders groups.
type rowList[T any] interface {
	Insert(row int, vs ...T) error
	Remove(row, count int) ([]T, error)
	Move(src, count, dst int) error
}

type insertRowsCmd[T any] struct {
	text string
	list rowList[T]
	row  int
	vals []T
}

func (c *insertRowsCmd[T]) Text() string { return c.text }
func (c *insertRowsCmd[T]) Redo()        { _ = c.list.Insert(c.row, c.vals...) }
func (c *insertRowsCmd[T]) Undo()        { _, _ = c.list.Remove(c.row, len(c.vals)) }

type removeRowsCmd[T any] struct {
	text       string
	list       rowList[T]
	row, count int
	removed    []T
}

func (c *removeRowsCmd[T]) Text() string { return c.text }
func (c *removeRowsCmd[T]) Redo()        { c.removed, _ = c.list.Remove(c.row, c.count) }
func (c *removeRowsCmd[T]) Undo()        { _ = c.list.Insert(c.row, c.removed...) }

type moveListRowsCmd[T any] struct {
	text            string
	list            rowList[T]
	src, count, dst int
}

func (c *moveListRowsCmd[T]) Text() string { return c.text }
func (c *moveListRowsCmd[T]) Redo()        { _ = c.list.Move(c.src, c.count, c.dst) }

func (c *moveListRowsCmd[T]) Undo() {
	if c.dst > c.src {
		_ = c.list.Move(c.dst-c.count, c.count, c.src)
		return
	}
	_ = c.list.Move(c.dst, c.count, c.src+c.count)
}
