/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package canvas

import (
	"image"
	"log/slog"
	"math"

	"github.com/fogleman/gg"

	"photolayouts/internal/config"
	"photolayouts/internal/render"
	"photolayouts/internal/vector"
)

const (
	DefaultMinScale   = 0.1
	DefaultMaxScale   = 10
	DefaultWheelNotch = 120

	// wheelStep is the zoom factor of one wheel notch.
	wheelStep = 1.25
)

// view is the pan/zoom state. Scale is relative to 1:1; center is the scene
// point shown in the middle of the viewport.
type view struct {
	scale    float64
	center   vector.Pt
	centered bool
	w, h     float64
	min, max float64
	notch    int
}

func newView(e config.EditorConfig) view {
	v := view{scale: 1, min: e.MinScale, max: e.MaxScale, notch: e.WheelNotch}
	if v.min <= 0 {
		v.min = DefaultMinScale
	}
	if v.max <= 0 || v.max < v.min {
		v.max = DefaultMaxScale
	}
	if v.notch <= 0 {
		v.notch = DefaultWheelNotch
	}
	return v
}

// SetViewport sets the widget size in device pixels.
func (c *Canvas) SetViewport(w, h float64) {
	c.view.w, c.view.h = max(w, 0), max(h, 0)
}

func (c *Canvas) Scale() float64 { return c.view.scale }

// WheelNotch is the wheel delta of one detent.
func (c *Canvas) WheelNotch() int { return c.view.notch }

// Center is the scene point in the middle of the viewport.
func (c *Canvas) Center() vector.Pt {
	if !c.view.centered {
		return c.scene.Rect().Center()
	}
	return c.view.center
}

func (c *Canvas) viewport() (float64, float64) {
	if c.view.w > 0 && c.view.h > 0 {
		return c.view.w, c.view.h
	}
	r := c.scene.Rect()
	return r.W, r.H
}

// ViewTransform maps scene coordinates to viewport pixels.
func (c *Canvas) ViewTransform() vector.Affine2D {
	w, h := c.viewport()
	ctr := c.Center()
	s := c.view.scale
	return vector.Translate(w/2, h/2).Mul(vector.Scale(s, s)).Mul(vector.Translate(-ctr.X, -ctr.Y))
}

// MapToScene converts a viewport point into scene coordinates.
func (c *Canvas) MapToScene(p vector.Pt) vector.Pt {
	inv, ok := c.ViewTransform().Invert()
	if !ok {
		return p
	}
	return inv.Apply(p)
}

func (c *Canvas) inBounds(s float64) bool { return s >= c.view.min && s <= c.view.max }

func (c *Canvas) clamp(s float64) float64 { return math.Min(math.Max(s, c.view.min), c.view.max) }

func (c *Canvas) recenter(at *vector.Pt) {
	if at == nil {
		c.view.center = c.scene.Rect().Center()
	} else {
		c.view.center = *at
	}
	c.view.centered = true
	c.repaint.Store(true)
}

// ScaleBy multiplies the zoom by factor and centers the view on at (scene
// coordinates), or on the scene center when at is nil. Non-positive factors
// and factors leaving the zoom bounds are refused.
func (c *Canvas) ScaleBy(factor float64, at *vector.Pt) bool {
	next := c.view.scale * factor
	if factor <= 0 || math.IsNaN(factor) || !c.inBounds(next) {
		c.log.Debug("scale refused", slog.Float64("factor", factor), slog.Float64("scale", c.view.scale))
		return false
	}
	c.view.scale = next
	c.recenter(at)
	return true
}

// ScaleToRect zooms so the viewport rectangle r fills the viewport: a
// rectangle larger than the viewport shrinks the view, a smaller one grows
// it. The result is clamped to the zoom bounds.
func (c *Canvas) ScaleToRect(r vector.Rect) bool {
	if r.Empty() {
		return false
	}
	w, h := c.viewport()
	factor := math.Min(w/r.W, h/r.H)
	if factor <= 0 || math.IsInf(factor, 0) {
		return false
	}
	at := c.MapToScene(r.Center())
	c.view.scale = c.clamp(c.view.scale * factor)
	c.recenter(&at)
	return true
}

// FitScene zooms so the whole scene is visible.
func (c *Canvas) FitScene() bool {
	return c.ScaleToRect(c.ViewTransform().MapRect(c.scene.Rect()))
}

// Wheel zooms by one step per wheel notch around the viewport point at.
// Zooming past a bound stops at the bound.
func (c *Canvas) Wheel(delta int, at vector.Pt) bool {
	if delta == 0 {
		return false
	}
	next := c.clamp(c.view.scale * math.Pow(wheelStep, float64(delta)/float64(c.view.notch)))
	if next == c.view.scale {
		return false
	}
	p := c.MapToScene(at)
	c.view.scale = next
	c.recenter(&p)
	return true
}

// Render paints the viewport: document, grid and selection.
func (c *Canvas) Render() *image.RGBA {
	w, h := c.viewport()
	dc := gg.NewContext(max(int(math.Ceil(w)), 1), max(int(math.Ceil(h)), 1))
	dc.SetRGB(0.5, 0.5, 0.5)
	dc.Clear()
	c.mu.RLock()
	render.Draw(dc, c.scene, c.ViewTransform(), render.Options{Grid: c.scene.Grid().Visible, Selection: true})
	c.mu.RUnlock()
	return dc.Image().(*image.RGBA)
}
