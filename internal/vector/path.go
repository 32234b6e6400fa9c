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

// Path commands and shapes. Crop shapes, item draw areas and border outlines are all Paths.

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type PathOp uint8

const (
	MoveTo PathOp = iota
	LineTo
	QuadTo  // quadratic bezier (cx, cy, x, y)
	CubicTo // cubic bezier (cx1, cy1, cx2, cy2, x, y)
	Close
)

type PathCmd struct {
	Op   PathOp
	Data [6]float64 // enough for cubic; unused slots are zero
}

// Path is a sequence of subpaths. The zero Path is empty.
type Path struct{ Cmds []PathCmd }

func (p *Path) MoveTo(x, y float64) {
	p.Cmds = append(p.Cmds, PathCmd{Op: MoveTo, Data: [6]float64{x, y}})
}
func (p *Path) LineTo(x, y float64) {
	p.Cmds = append(p.Cmds, PathCmd{Op: LineTo, Data: [6]float64{x, y}})
}
func (p *Path) QuadTo(cx, cy, x, y float64) {
	p.Cmds = append(p.Cmds, PathCmd{Op: QuadTo, Data: [6]float64{cx, cy, x, y}})
}
func (p *Path) CubicTo(cx1, cy1, cx2, cy2, x, y float64) {
	p.Cmds = append(p.Cmds, PathCmd{Op: CubicTo, Data: [6]float64{cx1, cy1, cx2, cy2, x, y}})
}
func (p *Path) Close() { p.Cmds = append(p.Cmds, PathCmd{Op: Close}) }

// IsEmpty reports whether the path has no drawing commands.
func (p Path) IsEmpty() bool { return len(p.Cmds) == 0 }

// Clone returns a deep copy.
func (p Path) Clone() Path {
	if p.Cmds == nil {
		return Path{}
	}
	return Path{Cmds: append([]PathCmd(nil), p.Cmds...)}
}

// Append adds all subpaths of o to p.
func (p *Path) Append(o Path) { p.Cmds = append(p.Cmds, o.Cmds...) }

// RectPath returns a closed rectangle path.
func RectPath(r Rect) Path {
	var p Path
	p.MoveTo(r.X, r.Y)
	p.LineTo(r.X+r.W, r.Y)
	p.LineTo(r.X+r.W, r.Y+r.H)
	p.LineTo(r.X, r.Y+r.H)
	p.Close()
	return p
}

// kappa approximates a quarter circle with a cubic bezier.
const kappa = 0.5522847498307936

// EllipsePath returns a closed ellipse inscribed in r.
func EllipsePath(r Rect) Path {
	cx, cy := r.X+r.W/2, r.Y+r.H/2
	rx, ry := r.W/2, r.H/2
	ox, oy := rx*kappa, ry*kappa
	var p Path
	p.MoveTo(cx+rx, cy)
	p.CubicTo(cx+rx, cy+oy, cx+ox, cy+ry, cx, cy+ry)
	p.CubicTo(cx-ox, cy+ry, cx-rx, cy+oy, cx-rx, cy)
	p.CubicTo(cx-rx, cy-oy, cx-ox, cy-ry, cx, cy-ry)
	p.CubicTo(cx+ox, cy-ry, cx+rx, cy-oy, cx+rx, cy)
	p.Close()
	return p
}

// Bounds returns an axis-aligned bounding box using control points.
// This is conservative for curves, which is enough for selection and layout.
func (p Path) Bounds() Rect {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	add := func(x, y float64) {
		minX, minY = math.Min(minX, x), math.Min(minY, y)
		maxX, maxY = math.Max(maxX, x), math.Max(maxY, y)
	}
	for _, c := range p.Cmds {
		switch c.Op {
		case MoveTo, LineTo:
			add(c.Data[0], c.Data[1])
		case QuadTo:
			add(c.Data[0], c.Data[1])
			add(c.Data[2], c.Data[3])
		case CubicTo:
			add(c.Data[0], c.Data[1])
			add(c.Data[2], c.Data[3])
			add(c.Data[4], c.Data[5])
		}
	}
	if minX > maxX || minY > maxY {
		return Rect{}
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Transform returns the path with every point mapped through m.
func (p Path) Transform(m Affine2D) Path {
	out := Path{Cmds: make([]PathCmd, len(p.Cmds))}
	for i, c := range p.Cmds {
		n := pointCount(c.Op)
		for j := 0; j < n; j++ {
			q := m.Apply(Pt{c.Data[2*j], c.Data[2*j+1]})
			c.Data[2*j], c.Data[2*j+1] = q.X, q.Y
		}
		out.Cmds[i] = c
	}
	return out
}

func pointCount(op PathOp) int {
	switch op {
	case MoveTo, LineTo:
		return 1
	case QuadTo:
		return 2
	case CubicTo:
		return 3
	}
	return 0
}

// flattenSteps is the number of segments used per curve when flattening.
const flattenSteps = 16

// Flatten converts the path into closed polygons, approximating curves with line segments.
func (p Path) Flatten() [][]Pt {
	var polys [][]Pt
	var cur []Pt
	var last, start Pt
	flush := func() {
		if len(cur) > 1 {
			polys = append(polys, cur)
		}
		cur = nil
	}
	for _, c := range p.Cmds {
		switch c.Op {
		case MoveTo:
			flush()
			last = Pt{c.Data[0], c.Data[1]}
			start = last
			cur = []Pt{last}
		case LineTo:
			last = Pt{c.Data[0], c.Data[1]}
			cur = append(cur, last)
		case QuadTo:
			c1, e := Pt{c.Data[0], c.Data[1]}, Pt{c.Data[2], c.Data[3]}
			for i := 1; i <= flattenSteps; i++ {
				t := float64(i) / flattenSteps
				u := 1 - t
				cur = append(cur, Pt{
					X: u*u*last.X + 2*u*t*c1.X + t*t*e.X,
					Y: u*u*last.Y + 2*u*t*c1.Y + t*t*e.Y,
				})
			}
			last = e
		case CubicTo:
			c1, c2, e := Pt{c.Data[0], c.Data[1]}, Pt{c.Data[2], c.Data[3]}, Pt{c.Data[4], c.Data[5]}
			for i := 1; i <= flattenSteps; i++ {
				t := float64(i) / flattenSteps
				u := 1 - t
				cur = append(cur, Pt{
					X: u*u*u*last.X + 3*u*u*t*c1.X + 3*u*t*t*c2.X + t*t*t*e.X,
					Y: u*u*u*last.Y + 3*u*u*t*c1.Y + 3*u*t*t*c2.Y + t*t*t*e.Y,
				})
			}
			last = e
		case Close:
			flush()
			last = start
		}
	}
	flush()
	return polys
}

// Contains reports whether q lies inside the path using the even-odd rule.
func (p Path) Contains(q Pt) bool {
	inside := false
	for _, poly := range p.Flatten() {
		n := len(poly)
		for i, j := 0, n-1; i < n; j, i = i, i+1 {
			a, b := poly[i], poly[j]
			if (a.Y > q.Y) != (b.Y > q.Y) {
				x := (b.X-a.X)*(q.Y-a.Y)/(b.Y-a.Y) + a.X
				if q.X < x {
					inside = !inside
				}
			}
		}
	}
	return inside
}

// ClipRect intersects the path with r (Sutherland–Hodgman on the flattened polygons).
func (p Path) ClipRect(r Rect) Path {
	var out Path
	for _, poly := range p.Flatten() {
		poly = clipEdge(poly, func(q Pt) bool { return q.X >= r.X }, func(a, b Pt) Pt { return lerpX(a, b, r.X) })
		poly = clipEdge(poly, func(q Pt) bool { return q.X <= r.X+r.W }, func(a, b Pt) Pt { return lerpX(a, b, r.X+r.W) })
		poly = clipEdge(poly, func(q Pt) bool { return q.Y >= r.Y }, func(a, b Pt) Pt { return lerpY(a, b, r.Y) })
		poly = clipEdge(poly, func(q Pt) bool { return q.Y <= r.Y+r.H }, func(a, b Pt) Pt { return lerpY(a, b, r.Y+r.H) })
		if len(poly) < 3 {
			continue
		}
		out.MoveTo(poly[0].X, poly[0].Y)
		for _, q := range poly[1:] {
			out.LineTo(q.X, q.Y)
		}
		out.Close()
	}
	return out
}

func clipEdge(poly []Pt, inside func(Pt) bool, cross func(a, b Pt) Pt) []Pt {
	if len(poly) == 0 {
		return nil
	}
	var out []Pt
	prev := poly[len(poly)-1]
	for _, cur := range poly {
		switch {
		case inside(cur) && inside(prev):
			out = append(out, cur)
		case inside(cur):
			out = append(out, cross(prev, cur), cur)
		case inside(prev):
			out = append(out, cross(prev, cur))
		}
		prev = cur
	}
	return out
}

func lerpX(a, b Pt, x float64) Pt {
	t := (x - a.X) / (b.X - a.X)
	return Pt{X: x, Y: a.Y + t*(b.Y-a.Y)}
}

func lerpY(a, b Pt, y float64) Pt {
	t := (y - a.Y) / (b.Y - a.Y)
	return Pt{X: a.X + t*(b.X-a.X), Y: y}
}

// String renders absolute SVG path data ("M x y L x y C ... Z").
func (p Path) String() string {
	var b strings.Builder
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for i, c := range p.Cmds {
		if i > 0 {
			b.WriteByte(' ')
		}
		switch c.Op {
		case MoveTo:
			b.WriteString("M " + f(c.Data[0]) + " " + f(c.Data[1]))
		case LineTo:
			b.WriteString("L " + f(c.Data[0]) + " " + f(c.Data[1]))
		case QuadTo:
			b.WriteString("Q " + f(c.Data[0]) + " " + f(c.Data[1]) + " " + f(c.Data[2]) + " " + f(c.Data[3]))
		case CubicTo:
			b.WriteString("C " + f(c.Data[0]) + " " + f(c.Data[1]) + " " + f(c.Data[2]) + " " + f(c.Data[3]) + " " + f(c.Data[4]) + " " + f(c.Data[5]))
		case Close:
			b.WriteString("Z")
		}
	}
	return b.String()
}

// ParsePath parses the absolute path data produced by String.
// Commands M, L, Q, C and Z are accepted, separated by whitespace or commas.
func ParsePath(s string) (Path, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' || r == '\n' || r == '\t' || r == '\r' })
	var p Path
	for i := 0; i < len(fields); {
		op := fields[i]
		i++
		var n int
		var kind PathOp
		switch op {
		case "M":
			kind, n = MoveTo, 2
		case "L":
			kind, n = LineTo, 2
		case "Q":
			kind, n = QuadTo, 4
		case "C":
			kind, n = CubicTo, 6
		case "Z", "z":
			p.Close()
			continue
		default:
			return Path{}, fmt.Errorf("parse path: unsupported command %q", op)
		}
		if i+n > len(fields) {
			return Path{}, fmt.Errorf("parse path: command %s needs %d values", op, n)
		}
		cmd := PathCmd{Op: kind}
		for j := 0; j < n; j++ {
			v, err := strconv.ParseFloat(fields[i+j], 64)
			if err != nil {
				return Path{}, fmt.Errorf("parse path: %w", err)
			}
			cmd.Data[j] = v
		}
		i += n
		p.Cmds = append(p.Cmds, cmd)
	}
	return p, nil
}
