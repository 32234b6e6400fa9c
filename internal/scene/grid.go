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
	"math"

	"photolayouts/internal/vector"
)

// GridLine is one line of the visible grid, in scene coordinates.
type GridLine struct {
	From, To vector.Pt
}

// Grid is the snapping grid and its visible lines.
type Grid struct {
	X, Y    float64
	Visible bool
	lines   []*GridLine
}

// Lines returns the visible lines; nil while the grid is hidden.
func (g *Grid) Lines() []*GridLine {
	if !g.Visible {
		return nil
	}
	return g.lines
}

// regenerate sizes the line set to r. Line values are reused in place, also
// across hiding and showing; only growing past the largest count allocates.
func (g *Grid) regenerate(r vector.Rect) {
	if !g.Visible || g.X <= 0 || g.Y <= 0 || r.Empty() {
		g.lines = g.lines[:0]
		return
	}
	nx := int(math.Floor(r.W/g.X)) + 1
	ny := int(math.Floor(r.H/g.Y)) + 1
	want := nx + ny
	if c := cap(g.lines); c < want {
		g.lines = append(g.lines[:c], make([]*GridLine, want-c)...)
	}
	g.lines = g.lines[:want]
	for i, l := range g.lines {
		if l == nil {
			g.lines[i] = &GridLine{}
		}
	}
	for i := 0; i < nx; i++ {
		x := r.X + float64(i)*g.X
		*g.lines[i] = GridLine{From: vector.Pt{X: x, Y: r.Y}, To: vector.Pt{X: x, Y: r.Y + r.H}}
	}
	for j := 0; j < ny; j++ {
		y := r.Y + float64(j)*g.Y
		*g.lines[nx+j] = GridLine{From: vector.Pt{X: r.X, Y: y}, To: vector.Pt{X: r.X + r.W, Y: y}}
	}
}
