/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package undo is a linear stack of reversible commands scoped to one canvas.
package undo

import "sync"

// Command is one reversible mutation. Redo applies it, Undo restores the prior state.
// Commands must not call back into the stack that runs them.
type Command interface {
	Text() string
	Redo()
	Undo()
}

// Merger is implemented by commands that can absorb an immediately following
// command of the same kind (e.g. consecutive edits of one property).
type Merger interface {
	// MergeWith folds next into the receiver and reports whether it did.
	MergeWith(next Command) bool
}

// macro groups the commands pushed between BeginMacro and EndMacro.
type macro struct {
	text string
	cmds []Command
}

func (m *macro) Text() string { return m.text }

func (m *macro) Redo() {
	for _, c := range m.cmds {
		c.Redo()
	}
}

func (m *macro) Undo() {
	for i := len(m.cmds) - 1; i >= 0; i-- {
		m.cmds[i].Undo()
	}
}

// Stack executes commands and keeps the undo history. It is safe for
// concurrent use; observers run after the lock is released.
type Stack struct {
	mu     sync.Mutex
	cmds   []Command
	index  int // number of applied commands
	clean  int // index of the clean state, -1 if it was dropped
	limit  int
	macros []*macro

	onIndex []func(int)
	onClean []func(bool)
}

// NewStack returns an empty, clean stack keeping at most limit commands (0 = unlimited).
func NewStack(limit int) *Stack {
	return &Stack{limit: limit}
}

func (s *Stack) OnIndexChanged(fn func(index int)) {
	s.mu.Lock()
	s.onIndex = append(s.onIndex, fn)
	s.mu.Unlock()
}

func (s *Stack) OnCleanChanged(fn func(clean bool)) {
	s.mu.Lock()
	s.onClean = append(s.onClean, fn)
	s.mu.Unlock()
}

// snapshot captures what observers care about.
type snapshot struct {
	index int
	clean bool
}

func (s *Stack) stateLocked() snapshot { return snapshot{s.index, s.index == s.clean} }

// finish unlocks and notifies observers about what changed since before.
func (s *Stack) finish(before snapshot) {
	after := s.stateLocked()
	onIndex := append([]func(int){}, s.onIndex...)
	onClean := append([]func(bool){}, s.onClean...)
	s.mu.Unlock()
	if after.index != before.index {
		for _, fn := range onIndex {
			fn(after.index)
		}
	}
	if after.clean != before.clean {
		for _, fn := range onClean {
			fn(after.clean)
		}
	}
}

// Push executes c.Redo and records it. Inside a macro the command joins the macro.
func (s *Stack) Push(c Command) {
	s.mu.Lock()
	before := s.stateLocked()
	c.Redo()
	if n := len(s.macros); n > 0 {
		m := s.macros[n-1]
		m.cmds = append(m.cmds, c)
		s.mu.Unlock()
		return
	}
	s.recordLocked(c, true)
	s.finish(before)
}

func (s *Stack) recordLocked(c Command, mayMerge bool) {
	if s.clean > s.index {
		s.clean = -1
	}
	s.cmds = s.cmds[:s.index]
	if mayMerge && s.index > 0 && s.index != s.clean {
		if m, ok := s.cmds[s.index-1].(Merger); ok && m.MergeWith(c) {
			return
		}
	}
	s.cmds = append(s.cmds, c)
	s.index++
	if s.limit > 0 && len(s.cmds) > s.limit {
		drop := len(s.cmds) - s.limit
		s.cmds = append([]Command(nil), s.cmds[drop:]...)
		s.index -= drop
		if s.clean >= 0 {
			s.clean -= drop
			if s.clean < 0 {
				s.clean = -1
			}
		}
	}
}

// BeginMacro starts grouping pushed commands under text. Macros nest; only
// the outermost EndMacro records the group as one history entry.
func (s *Stack) BeginMacro(text string) {
	s.mu.Lock()
	s.macros = append(s.macros, &macro{text: text})
	s.mu.Unlock()
}

// EndMacro closes the innermost macro. Empty macros leave no history entry.
func (s *Stack) EndMacro() {
	s.mu.Lock()
	n := len(s.macros)
	if n == 0 {
		s.mu.Unlock()
		return
	}
	m := s.macros[n-1]
	s.macros = s.macros[:n-1]
	if len(m.cmds) == 0 {
		s.mu.Unlock()
		return
	}
	if n > 1 {
		parent := s.macros[n-2]
		parent.cmds = append(parent.cmds, m)
		s.mu.Unlock()
		return
	}
	before := s.stateLocked()
	s.recordLocked(m, false)
	s.finish(before)
}

// InMacro reports whether a macro is open.
func (s *Stack) InMacro() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.macros) > 0
}

// Undo reverts the last applied command; it is a no-op at the origin or inside a macro.
func (s *Stack) Undo() bool {
	s.mu.Lock()
	if s.index == 0 || len(s.macros) > 0 {
		s.mu.Unlock()
		return false
	}
	before := s.stateLocked()
	s.index--
	s.cmds[s.index].Undo()
	s.finish(before)
	return true
}

// Redo re-applies the next command.
func (s *Stack) Redo() bool {
	s.mu.Lock()
	if s.index == len(s.cmds) || len(s.macros) > 0 {
		s.mu.Unlock()
		return false
	}
	before := s.stateLocked()
	s.cmds[s.index].Redo()
	s.index++
	s.finish(before)
	return true
}

// SetIndex undoes or redoes until the stack is at idx.
func (s *Stack) SetIndex(idx int) {
	for {
		cur := s.Index()
		switch {
		case idx < cur && s.Undo():
		case idx > cur && s.Redo():
		default:
			return
		}
	}
}

func (s *Stack) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

func (s *Stack) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cmds)
}

func (s *Stack) CanUndo() bool { return s.Index() > 0 }
func (s *Stack) CanRedo() bool { return s.Index() < s.Count() }

// UndoText is the text of the command Undo would revert.
func (s *Stack) UndoText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == 0 {
		return ""
	}
	return s.cmds[s.index-1].Text()
}

func (s *Stack) RedoText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == len(s.cmds) {
		return ""
	}
	return s.cmds[s.index].Text()
}

// SetClean marks the current index as the clean state.
func (s *Stack) SetClean() {
	s.mu.Lock()
	before := s.stateLocked()
	s.clean = s.index
	s.finish(before)
}

func (s *Stack) IsClean() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index == s.clean
}

// CleanIndex is the index marked clean, or -1 when that state is gone.
func (s *Stack) CleanIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clean
}

// Clear drops all history and makes the current state clean.
func (s *Stack) Clear() {
	s.mu.Lock()
	before := s.stateLocked()
	s.cmds = nil
	s.index = 0
	s.clean = 0
	s.macros = nil
	s.finish(before)
}
