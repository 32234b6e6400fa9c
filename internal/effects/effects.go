/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package effects

import (
	"image"
	"image/color"

	"photolayouts/internal/props"
)

// Pixels in image.RGBA are alpha-premultiplied, so channel values are bounded by A.

type Grayscale struct{}

func (*Grayscale) Name() string                 { return "Grayscale" }
func (*Grayscale) Properties() []props.Property { return nil }

func (*Grayscale) Apply(src image.Image) image.Image {
	img := rgbaCopy(src)
	for i := 0; i < len(img.Pix); i += 4 {
		p := img.Pix[i : i+4 : i+4]
		y := clampTo(0.299*float64(p[0])+0.587*float64(p[1])+0.114*float64(p[2]), p[3])
		p[0], p[1], p[2] = y, y, y
	}
	return img
}

type Sepia struct{}

func (*Sepia) Name() string                 { return "Sepia" }
func (*Sepia) Properties() []props.Property { return nil }

func (*Sepia) Apply(src image.Image) image.Image {
	img := rgbaCopy(src)
	for i := 0; i < len(img.Pix); i += 4 {
		p := img.Pix[i : i+4 : i+4]
		r, g, b := float64(p[0]), float64(p[1]), float64(p[2])
		p[0] = clampTo(0.393*r+0.769*g+0.189*b, p[3])
		p[1] = clampTo(0.349*r+0.686*g+0.168*b, p[3])
		p[2] = clampTo(0.272*r+0.534*g+0.131*b, p[3])
	}
	return img
}

type Negative struct{}

func (*Negative) Name() string                 { return "Negative" }
func (*Negative) Properties() []props.Property { return nil }

func (*Negative) Apply(src image.Image) image.Image {
	img := rgbaCopy(src)
	for i := 0; i < len(img.Pix); i += 4 {
		p := img.Pix[i : i+4 : i+4]
		p[0], p[1], p[2] = p[3]-p[0], p[3]-p[1], p[3]-p[2]
	}
	return img
}

// Blur is a separable box blur.
type Blur struct {
	Radius int
}

func (*Blur) Name() string { return "Blur" }

func (b *Blur) Properties() []props.Property {
	return []props.Property{
		{Name: "radius", Display: "Radius", Kind: props.Int, Min: 0, Max: 200, Step: 1,
			Get: func() any { return b.Radius }, Set: func(v any) { b.Radius = v.(int) }},
	}
}

func (b *Blur) Apply(src image.Image) image.Image {
	img := rgbaCopy(src)
	if b.Radius <= 0 {
		return img
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()
	tmp := make([]uint8, len(img.Pix))
	boxPass(img.Pix, tmp, w, h, img.Stride, 4, b.Radius)
	boxPass(tmp, img.Pix, h, w, 4, img.Stride, b.Radius)
	return img
}

// boxPass averages each of lines runs of n samples (step bytes apart, runs
// lineStride bytes apart) over a window of 2r+1 clamped at the edges.
func boxPass(src, dst []uint8, n, lines, lineStride, step, r int) {
	for l := 0; l < lines; l++ {
		base := l * lineStride
		for c := 0; c < 4; c++ {
			var sum, cnt int
			for k := 0; k <= r && k < n; k++ {
				sum += int(src[base+k*step+c])
				cnt++
			}
			for i := 0; i < n; i++ {
				dst[base+i*step+c] = uint8(sum / cnt)
				if out := i - r; out >= 0 {
					sum -= int(src[base+out*step+c])
					cnt--
				}
				if in := i + r + 1; in < n {
					sum += int(src[base+in*step+c])
					cnt++
				}
			}
		}
	}
}

// Colorize blends every pixel toward Color by Strength (0..1).
type Colorize struct {
	Color    color.RGBA
	Strength float64
}

func NewColorize() *Colorize {
	return &Colorize{Color: color.RGBA{R: 255, G: 255, B: 255, A: 255}, Strength: 0.5}
}

func (*Colorize) Name() string { return "Colorize" }

func (c *Colorize) Properties() []props.Property {
	return []props.Property{
		{Name: "color", Display: "Color", Kind: props.Color,
			Get: func() any { return c.Color }, Set: func(v any) { c.Color = v.(color.RGBA) }},
		{Name: "strength", Display: "Strength", Kind: props.Float, Min: 0, Max: 1, Step: 0.05,
			Get: func() any { return c.Strength }, Set: func(v any) { c.Strength = v.(float64) }},
	}
}

func (c *Colorize) Apply(src image.Image) image.Image {
	img := rgbaCopy(src)
	s := c.Strength
	for i := 0; i < len(img.Pix); i += 4 {
		p := img.Pix[i : i+4 : i+4]
		a := float64(p[3]) / 255
		p[0] = clampTo(float64(p[0])*(1-s)+float64(c.Color.R)*a*s, p[3])
		p[1] = clampTo(float64(p[1])*(1-s)+float64(c.Color.G)*a*s, p[3])
		p[2] = clampTo(float64(p[2])*(1-s)+float64(c.Color.B)*a*s, p[3])
	}
	return img
}
