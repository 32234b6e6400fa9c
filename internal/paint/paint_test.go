/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package paint

import (
	"image/color"
	"math"
	"testing"

	"github.com/fogleman/gg"

	"photolayouts/internal/vector"
)

func TestConcatMatchesAffine(t *testing.T) {
	cases := []vector.Affine2D{
		vector.Identity,
		vector.Translate(5, -3),
		vector.Scale(2, 0.5),
		vector.Rotate(0.7).Mul(vector.Scale(1.5, 3)),
		{A: 1, B: 0.2, C: 0.6, D: 1.1, E: 4, F: 7},
		vector.Scale(-1, 1).Mul(vector.Translate(2, 2)),
	}
	pts := []vector.Pt{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: 3, Y: -2}}
	for i, m := range cases {
		dc := gg.NewContext(1, 1)
		SetMatrix(dc, m)
		for _, p := range pts {
			want := m.Apply(p)
			x, y := dc.TransformPoint(p.X, p.Y)
			if math.Abs(x-want.X) > 1e-9 || math.Abs(y-want.Y) > 1e-9 {
				t.Errorf("case %d: %v -> (%g,%g), want %v", i, p, x, y, want)
			}
		}
	}
}

func TestFillEvenOddLeavesHole(t *testing.T) {
	dc := gg.NewContext(20, 20)
	outer := vector.RectPath(vector.R(0, 0, 20, 20))
	inner := vector.RectPath(vector.R(5, 5, 10, 10))
	FillEvenOdd(dc, color.Black, outer, inner)

	img := dc.Image()
	if _, _, _, a := img.At(2, 2).RGBA(); a == 0 {
		t.Fatal("ring not filled")
	}
	if _, _, _, a := img.At(10, 10).RGBA(); a != 0 {
		t.Fatal("hole filled")
	}
}
