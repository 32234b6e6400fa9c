/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package items holds the placeable canvas objects: photos and text. Every
// item embeds Base, which owns the item's effects and borders groups.
package items

import (
	"image"

	"github.com/google/uuid"

	"photolayouts/internal/borders"
	"photolayouts/internal/effects"
	"photolayouts/internal/vector"
)

// Class names as persisted in documents.
const (
	ClassPhoto = "PhotoItem"
	ClassText  = "TextItem"
)

// Item is implemented by PhotoItem and TextItem.
type Item interface {
	Core() *Base
	Class() string
	// DrawShape is the intrinsic drawing area in item coordinates.
	DrawShape() vector.Path
	// Content is the item's pixels, with bounds at the origin matching DrawShape.
	Content() image.Image
}

// Base holds what all items share.
type Base struct {
	ID uuid.UUID

	self      Item
	name      string
	crop      vector.Path
	z         int
	transform vector.Affine2D
	hidden    bool
	effects   *effects.Group
	borders   *borders.Group
	icon      image.Image
	rendered  image.Image
	owner     any
	observers map[int]func(Item)
	nextObs   int
}

func (b *Base) init(self Item, name string) {
	b.ID = uuid.New()
	b.self = self
	b.name = name
	b.transform = vector.Identity
	b.effects = effects.NewGroup(b)
	b.borders = borders.NewGroup(b)
}

func (b *Base) Name() string        { return b.name }
func (b *Base) SetName(name string) { b.name = name; b.Refresh() }

func (b *Base) Crop() vector.Path { return b.crop.Clone() }

// SetCrop sets the crop shape in item coordinates; an empty path means uncropped.
func (b *Base) SetCrop(p vector.Path) { b.crop = p.Clone(); b.Refresh() }

func (b *Base) Z() int { return b.z }

// SetZ is called by the layers model only.
func (b *Base) SetZ(z int) { b.z = z }

func (b *Base) Transform() vector.Affine2D { return b.transform }

func (b *Base) SetTransform(m vector.Affine2D) { b.transform = m; b.Refresh() }

func (b *Base) Pos() vector.Pt { return b.transform.Translation() }

func (b *Base) SetPos(p vector.Pt) { b.SetTransform(b.transform.WithTranslation(p)) }

func (b *Base) Visible() bool     { return !b.hidden }
func (b *Base) SetVisible(v bool) { b.hidden = !v; b.Refresh() }

func (b *Base) Effects() *effects.Group { return b.effects }
func (b *Base) Borders() *borders.Group { return b.borders }

// Owner is the scene the item was added to, if any.
func (b *Base) Owner() any     { return b.owner }
func (b *Base) SetOwner(o any) { b.owner = o }
func (b *Base) Item() Item     { return b.self }
func (b *Base) String() string { return b.self.Class() + " " + b.name }

// OnChange registers fn to run after every change; the returned func removes it.
func (b *Base) OnChange(fn func(Item)) (remove func()) {
	if b.observers == nil {
		b.observers = make(map[int]func(Item))
	}
	id := b.nextObs
	b.nextObs++
	b.observers[id] = fn
	return func() { delete(b.observers, id) }
}

// Refresh drops cached renderings and notifies observers.
func (b *Base) Refresh() {
	b.icon = nil
	b.rendered = nil
	for _, fn := range b.observers {
		fn(b.self)
	}
}

// Icon returns a thumbnail of the item's content with its longest side at most px.
func (b *Base) Icon(px int) image.Image {
	if b.icon == nil || max(b.icon.Bounds().Dx(), b.icon.Bounds().Dy()) != px {
		b.icon = Thumbnail(b.Rendered(), px)
	}
	return b.icon
}

// Rendered is the content with all effects applied, cached until the next Refresh.
func (b *Base) Rendered() image.Image {
	if b.rendered == nil {
		b.rendered = b.effects.Apply(b.self.Content())
	}
	return b.rendered
}

// Detach clears every non-owning link before the item is dropped.
func (b *Base) Detach() {
	b.effects.Detach()
	b.borders.Detach()
	b.observers = nil
	b.owner = nil
}

// OpaqueArea is the draw shape restricted to the crop shape, in item coordinates.
func OpaqueArea(it Item) vector.Path {
	draw := it.DrawShape()
	crop := it.Core().crop
	if crop.IsEmpty() {
		return draw
	}
	return crop.ClipRect(draw.Bounds())
}

// Shape is the opaque area plus the borders around it, in item coordinates.
func Shape(it Item) vector.Path {
	opaque := OpaqueArea(it)
	if outer := it.Core().borders.Shape(opaque); !outer.IsEmpty() {
		return outer
	}
	return opaque
}

// SceneShape is Shape mapped through the item transform.
func SceneShape(it Item) vector.Path { return Shape(it).Transform(it.Core().transform) }

// SceneBounds is the bounding rectangle of SceneShape.
func SceneBounds(it Item) vector.Rect { return SceneShape(it).Bounds() }

// HitTest reports whether the scene point p lies on the visible item.
func HitTest(it Item, p vector.Pt) bool {
	b := it.Core()
	if b.hidden {
		return false
	}
	inv, ok := b.transform.Invert()
	if !ok {
		return false
	}
	return Shape(it).Contains(inv.Apply(p))
}

// placeholder is drawn for items whose pixels are not loaded yet.
func placeholder(r vector.Rect) image.Image {
	w, h := max(int(r.W+0.5), 0), max(int(r.H+0.5), 0)
	return image.NewRGBA(image.Rect(0, 0, w, h))
}
