/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package items

import (
	"image"

	"photolayouts/internal/vector"
)

// PhotoItem shows a raster image. Its pixels may arrive after construction:
// a document loader first restores the image path, then the image.
type PhotoItem struct {
	Base
	img       image.Image
	imagePath vector.Path
	// SourceURL is where the image was loaded from; empty for pasted images.
	SourceURL string
	// Embed stores the pixels in the document instead of only the URL.
	Embed bool
}

// NewPhoto returns a photo item showing img (which may be nil).
func NewPhoto(img image.Image, name string) *PhotoItem {
	p := &PhotoItem{Embed: true}
	p.init(p, name)
	if img != nil {
		p.SetImage(img)
	}
	return p
}

// LoadPhoto decodes the image at src (path or file URL) into a new item.
func LoadPhoto(src, name string) (*PhotoItem, error) {
	img, err := LoadImageFile(src)
	if err != nil {
		return nil, err
	}
	p := NewPhoto(img, name)
	p.SourceURL = src
	return p, nil
}

func (p *PhotoItem) Core() *Base   { return &p.Base }
func (p *PhotoItem) Class() string { return ClassPhoto }

func (p *PhotoItem) Image() image.Image { return p.img }

// SetImage replaces the pixels; the image path is reset to the image rectangle.
func (p *PhotoItem) SetImage(img image.Image) {
	p.img = img
	b := img.Bounds()
	p.imagePath = vector.RectPath(vector.R(0, 0, float64(b.Dx()), float64(b.Dy())))
	p.Refresh()
}

// ImagePath is the drawing area of the photo in item coordinates.
func (p *PhotoItem) ImagePath() vector.Path { return p.imagePath.Clone() }

func (p *PhotoItem) SetImagePath(path vector.Path) {
	p.imagePath = path.Clone()
	p.Refresh()
}

func (p *PhotoItem) DrawShape() vector.Path { return p.imagePath }

func (p *PhotoItem) Content() image.Image {
	if p.img == nil {
		return placeholder(p.imagePath.Bounds())
	}
	return p.img
}
