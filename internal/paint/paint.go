/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package paint adapts vector paths and transforms to gg drawing contexts.
package paint

import (
	"image/color"
	"math"

	"github.com/fogleman/gg"

	"photolayouts/internal/vector"
)

// TracePath appends p to the current path of dc.
func TracePath(dc *gg.Context, p vector.Path) {
	for _, c := range p.Cmds {
		d := c.Data
		switch c.Op {
		case vector.MoveTo:
			dc.MoveTo(d[0], d[1])
		case vector.LineTo:
			dc.LineTo(d[0], d[1])
		case vector.QuadTo:
			dc.QuadraticTo(d[0], d[1], d[2], d[3])
		case vector.CubicTo:
			dc.CubicTo(d[0], d[1], d[2], d[3], d[4], d[5])
		case vector.Close:
			dc.ClosePath()
		}
	}
}

// FillEvenOdd fills the given paths together under the even-odd rule, so an
// inner path punches a hole into an outer one.
func FillEvenOdd(dc *gg.Context, c color.Color, paths ...vector.Path) {
	dc.Push()
	defer dc.Pop()
	dc.NewSubPath()
	for _, p := range paths {
		TracePath(dc, p)
	}
	dc.SetFillRuleEvenOdd()
	dc.SetColor(c)
	dc.Fill()
}

// SetMatrix replaces the current transform of dc with m.
func SetMatrix(dc *gg.Context, m vector.Affine2D) {
	dc.Identity()
	Concat(dc, m)
}

// Concat applies m on top of the current transform of dc. gg only exposes
// translate/rotate/shear/scale, so m is decomposed into those (QR).
func Concat(dc *gg.Context, m vector.Affine2D) {
	dc.Translate(m.E, m.F)
	sx := math.Hypot(m.A, m.B)
	if sx == 0 {
		dc.Scale(0, 0)
		return
	}
	sy := (m.A*m.D - m.B*m.C) / sx
	dc.Rotate(math.Atan2(m.B, m.A))
	if sy != 0 {
		dc.Shear((m.A*m.C+m.B*m.D)/(sx*sy), 0)
	}
	dc.Scale(sx, sy)
}
