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
	"image/color"
	"math/rand"
	"strings"
	"testing"

	"photolayouts/internal/effects"
	"photolayouts/internal/items"
	"photolayouts/internal/layers"
	"photolayouts/internal/props"
	"photolayouts/internal/vector"
)

// snapshot renders the undoable state of s: tree order, positions, z values,
// crop shapes, effect and border properties and the decorations.
func snapshot(s *Scene) string {
	var b strings.Builder
	var walk func(n *layers.Node, depth int)
	walk = func(n *layers.Node, depth int) {
		for _, c := range n.Children() {
			if it := c.Item(); it != nil {
				core := it.Core()
				fmt.Fprintf(&b, "%*s%s pos=%v z=%d crop=%q", depth, "", core.Name(), core.Pos(), core.Z(), core.Crop().String())
				for _, e := range core.Effects().Effects() {
					fmt.Fprintf(&b, " fx:%s%s", e.Name(), propValues(e))
				}
				for _, d := range core.Borders().Drawers() {
					fmt.Fprintf(&b, " border:%s%s", d.Name(), propValues(d))
				}
				b.WriteByte('\n')
			}
			walk(c, depth+1)
		}
	}
	walk(s.Model().Root(), 0)
	fmt.Fprintf(&b, "bg%s frame%s\n", propValues(s.Background()), propValues(s.Border()))
	return b.String()
}

func propValues(d props.Describer) string {
	var b strings.Builder
	for _, p := range d.Properties() {
		fmt.Fprintf(&b, " %s=%v", p.Name, p.Get())
	}
	return b.String()
}

// randomEdit applies one random undoable operation to s.
func randomEdit(t *testing.T, s *Scene, rng *rand.Rand) {
	t.Helper()
	its := s.Items()
	if len(its) == 0 {
		_ = s.AddItem(newPhoto("Photo"))
		return
	}
	it := its[rng.Intn(len(its))]
	switch rng.Intn(7) {
	case 0:
		if err := s.AddItem(newPhoto("Photo")); err != nil {
			t.Fatalf("add: %v", err)
		}
	case 1:
		if len(its) > 1 {
			if err := s.RemoveItems(false, it); err != nil {
				t.Fatalf("remove: %v", err)
			}
		}
	case 2:
		to := vector.Pt{X: float64(rng.Intn(200)), Y: float64(rng.Intn(100))}
		s.MoveItems([]items.Item{it}, []vector.Pt{it.Core().Pos()}, []vector.Pt{to})
	case 3:
		n := s.Model().Root().ChildCount()
		src, dst := rng.Intn(n), rng.Intn(n+1)
		if dst != src && dst != src+1 {
			if err := s.MoveRows(layers.RowMove{SrcRow: src, Count: 1, DstRow: dst}); err != nil {
				t.Fatalf("move rows %d->%d: %v", src, dst, err)
			}
		}
	case 4:
		r := vector.R(float64(rng.Intn(5)), float64(rng.Intn(5)), float64(5+rng.Intn(10)), float64(3+rng.Intn(5)))
		if err := s.CropItem(it, vector.RectPath(r)); err != nil {
			t.Fatalf("crop: %v", err)
		}
	case 5:
		fx := it.Core().Effects()
		if fx.Len() == 0 {
			if _, err := s.AddEffect(it, "Blur"); err != nil {
				t.Fatalf("add effect: %v", err)
			}
			return
		}
		if err := s.SetProperty(fx.At(0), "radius", rng.Intn(20)); err != nil {
			t.Fatalf("set radius: %v", err)
		}
	case 6:
		c := color.RGBA{R: uint8(rng.Intn(256)), G: uint8(rng.Intn(256)), A: 255}
		if err := s.SetProperty(s.Background(), "color", c); err != nil {
			t.Fatalf("set background: %v", err)
		}
	}
}

func TestRandomEditsUndoRedoSymmetry(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		t.Run(fmt.Sprint(seed), func(t *testing.T) {
			rng := rand.New(rand.NewSource(seed))
			s := newScene()
			for i := 0; i < 3; i++ {
				_ = s.AddItem(newPhoto("Photo"))
			}
			if _, err := s.AddBorder(s.Items()[0], "Solid"); err != nil {
				t.Fatalf("add border: %v", err)
			}
			_ = s.InsertEffects(s.Items()[1], 0, &effects.Sepia{})
			s.Stack().Clear()
			start := snapshot(s)

			for i := 0; i < 40; i++ {
				randomEdit(t, s, rng)
			}
			end := snapshot(s)

			for s.Stack().Undo() {
			}
			if got := snapshot(s); got != start {
				t.Fatalf("after undo:\n%s\nwant:\n%s", got, start)
			}
			for s.Stack().Redo() {
			}
			if got := snapshot(s); got != end {
				t.Fatalf("after redo:\n%s\nwant:\n%s", got, end)
			}
		})
	}
}
