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
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"photolayouts/internal/borders"
	"photolayouts/internal/dom"
	"photolayouts/internal/effects"
	"photolayouts/internal/items"
	"photolayouts/internal/props"
	"photolayouts/internal/vector"
)

// Document namespaces. A page element in TemplateNS marks a template.
const (
	SVGNS      = "http://www.w3.org/2000/svg"
	PLENS      = "urn:photolayouts:ple"
	TemplateNS = "urn:photolayouts:template"
)

// Prefixes are the namespace prefixes used when writing documents.
var Prefixes = map[string]string{SVGNS: "", PLENS: "ple", TemplateNS: "plet"}

const sceneID = "PLEScene"

// Page is the physical description of the canvas.
type Page struct {
	Width, Height  float64 // pixels
	Unit           string  // px, mm, cm, in, pt, pc
	Resolution     float64 // pixels per resolution unit
	ResolutionUnit string  // px/in, px/cm, px/mm, px/pt, px/pc
}

// unitsPerInch converts lengths for the svg width/height attributes.
var unitsPerInch = map[string]float64{"in": 1, "mm": 25.4, "cm": 2.54, "pt": 72, "pc": 6}

// PixelsPerInch normalizes the page resolution.
func (p Page) PixelsPerInch() float64 {
	if p.Resolution <= 0 {
		return 72
	}
	if u := strings.TrimPrefix(p.ResolutionUnit, "px/"); u != "" && u != "px" {
		if f, ok := unitsPerInch[u]; ok {
			return p.Resolution * f
		}
	}
	return p.Resolution
}

// Length converts pixels into the page unit.
func (p Page) Length(px float64) float64 {
	f, ok := unitsPerInch[p.Unit]
	if !ok {
		return px
	}
	return px / p.PixelsPerInch() * f
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// ToSVG serializes the scene into a document tree.
func (s *Scene) ToSVG(page Page) (*dom.Element, error) {
	return s.toSVG(page, PLENS, nil)
}

// ToTemplateSVG is ToSVG with the template page marker and an embedded PNG preview.
func (s *Scene) ToTemplateSVG(page Page, preview image.Image) (*dom.Element, error) {
	return s.toSVG(page, TemplateNS, preview)
}

func (s *Scene) toSVG(page Page, pageNS string, preview image.Image) (*dom.Element, error) {
	unit := page.Unit
	if unit == "" {
		unit = "px"
	}
	r := s.rect
	root := dom.New(SVGNS, "svg").
		SetAttr("viewBox", fmt.Sprintf("%s %s %s %s", ftoa(r.X), ftoa(r.Y), ftoa(r.W), ftoa(r.H))).
		SetAttr("width", ftoa(vector.FloatRound(page.Length(r.W), 4))+unit).
		SetAttr("height", ftoa(vector.FloatRound(page.Length(r.H), 4))+unit)
	root.Add(pageNS, "page").
		SetAttr("width", ftoa(r.W)).
		SetAttr("height", ftoa(r.H)).
		SetAttr("unit", unit).
		SetAttr("resolution", ftoa(page.Resolution)).
		SetAttr("resolution_unit", page.ResolutionUnit)
	if preview != nil {
		data, err := items.EncodePNG(preview)
		if err != nil {
			return nil, err
		}
		b := preview.Bounds()
		pv := root.Add(TemplateNS, "preview").
			SetAttr("width", strconv.Itoa(b.Dx())).
			SetAttr("height", strconv.Itoa(b.Dy()))
		pv.Text = base64.StdEncoding.EncodeToString(data)
	}
	g := root.Add(SVGNS, "g").SetAttr("id", sceneID).SetAttr("width", ftoa(r.W)).SetAttr("height", ftoa(r.H))

	bg, err := s.backgroundSVG()
	if err != nil {
		return nil, err
	}
	g.Append(bg)
	for _, it := range s.model.PaintOrder() {
		el, err := ItemSVG(it)
		if err != nil {
			return nil, fmt.Errorf("serialize %s: %w", it.Core(), err)
		}
		g.Append(el)
	}
	bd, err := s.borderSVG()
	if err != nil {
		return nil, err
	}
	g.Append(bd)
	return root, nil
}

// describerElement writes every property of d as a base64 attribute on el.
func describerElement(el *dom.Element, d props.Describer) error {
	attrs, err := props.EncodeAttrs(d)
	if err != nil {
		return err
	}
	for _, a := range attrs {
		el.SetAttr(a.Name, a.Value)
	}
	return nil
}

func (s *Scene) backgroundSVG() (*dom.Element, error) {
	g := dom.New(SVGNS, "g").SetAttr("class", "background")
	if err := describerElement(g, s.background); err != nil {
		return nil, err
	}
	r := s.rect
	c := s.background.Color
	g.Add(SVGNS, "rect").
		SetAttr("x", ftoa(r.X)).SetAttr("y", ftoa(r.Y)).
		SetAttr("width", ftoa(r.W)).SetAttr("height", ftoa(r.H)).
		SetAttr("fill", props.FormatColor(c)[:7]).
		SetAttr("fill-opacity", ftoa(vector.FloatRound(float64(c.A)/255, 3)))
	return g, nil
}

// BorderPaths returns the outer and inner outline of the scene border.
func (s *Scene) BorderPaths() (outer, inner vector.Path) {
	w := float64(s.border.Width)
	return vector.RectPath(s.rect), vector.RectPath(s.rect.Inset(w, w))
}

func (s *Scene) borderSVG() (*dom.Element, error) {
	g := dom.New(SVGNS, "g").SetAttr("class", "border")
	if err := describerElement(g, s.border); err != nil {
		return nil, err
	}
	if s.border.Width > 0 {
		outer, inner := s.BorderPaths()
		c := s.border.Color
		g.Add(SVGNS, "path").
			SetAttr("d", outer.String()+" "+inner.String()).
			SetAttr("fill-rule", "evenodd").
			SetAttr("fill", props.FormatColor(c)[:7]).
			SetAttr("fill-opacity", ftoa(vector.FloatRound(float64(c.A)/255, 3)))
	}
	return g, nil
}

// ItemSVG serializes one item with its payload, effects and borders.
func ItemSVG(it items.Item) (*dom.Element, error) {
	b := it.Core()
	g := dom.New(SVGNS, "g").
		SetAttr("class", it.Class()).
		SetAttr("name", b.Name()).
		SetAttr("transform", b.Transform().MatrixString())
	if !b.Visible() {
		g.SetAttr("visibility", "hidden")
	}
	data := g.Add(SVGNS, "defs").SetAttr("class", "data").Add(PLENS, "data")
	switch x := it.(type) {
	case *items.PhotoItem:
		data.Add(PLENS, "path").SetAttr("class", "m_image_path").Text = x.ImagePath().String()
	}
	if crop := b.Crop(); !crop.IsEmpty() {
		data.Add(PLENS, "path").SetAttr("class", "m_crop_shape").Text = crop.String()
	}
	data.Add(PLENS, "transform").SetAttr("matrix", b.Transform().MatrixString())
	switch x := it.(type) {
	case *items.PhotoItem:
		img := data.Add(PLENS, "image").SetAttr("src", x.SourceURL)
		if x.Image() != nil {
			bb := x.Image().Bounds()
			img.SetAttr("width", strconv.Itoa(bb.Dx())).SetAttr("height", strconv.Itoa(bb.Dy()))
			if x.Embed || x.SourceURL == "" {
				raw, err := items.EncodePNG(x.Image())
				if err != nil {
					return nil, err
				}
				img.Text = base64.StdEncoding.EncodeToString(raw)
			}
		}
	case *items.TextItem:
		t := data.Add(PLENS, "text").
			SetAttr("color", props.FormatColor(x.Color())).
			SetAttr("font", props.FormatFont(x.Font()))
		t.Text = x.Text()
	default:
		return nil, fmt.Errorf("unknown item class %q", it.Class())
	}
	fx := g.Add(SVGNS, "effects")
	for _, e := range b.Effects().Effects() {
		if err := describerElement(fx.Add(SVGNS, "effect").SetAttr("name", e.Name()), e); err != nil {
			return nil, err
		}
	}
	bs := g.Add(SVGNS, "g").SetAttr("class", "borders")
	for _, d := range b.Borders().Drawers() {
		el := dom.New(SVGNS, "g")
		if err := describerElement(el, d); err != nil {
			return nil, err
		}
		// the drawer name goes first; a property called name is not allowed
		el.Attrs = append([]dom.Attr{{Name: "name", Value: d.Name()}}, el.Attrs...)
		bs.Append(el)
	}
	return g, nil
}

// PlanEntry pairs a reconstructed item with the element holding its payload.
type PlanEntry struct {
	Item    items.Item
	Element *dom.Element
}

// LoadPlan is what FromSVG leaves for the loading worker: the heavy payload
// of every item plus the decorations.
type LoadPlan struct {
	Page       Page
	Template   bool
	Preview    image.Image
	Background *dom.Element
	Border     *dom.Element
	Entries    []PlanEntry
	// Skipped counts item elements that could not be constructed.
	Skipped int
}

// FromSVG rebuilds the scene structure from a document. A missing page or
// scene group aborts with ErrMalformed; broken item elements are skipped and
// counted in the plan.
func FromSVG(root *dom.Element, opts Options) (*Scene, *LoadPlan, error) {
	if root == nil || root.Space != SVGNS || root.Name != "svg" {
		return nil, nil, fmt.Errorf("%w: root is not svg", ErrMalformed)
	}
	plan := &LoadPlan{}
	pageEl := root.Child(PLENS, "page")
	if pageEl == nil {
		if pageEl = root.Child(TemplateNS, "page"); pageEl != nil {
			plan.Template = true
		}
	}
	if pageEl == nil {
		return nil, nil, fmt.Errorf("%w: missing page", ErrMalformed)
	}
	g := root.ChildWith(SVGNS, "g", "id", sceneID)
	if g == nil {
		return nil, nil, fmt.Errorf("%w: missing %s group", ErrMalformed, sceneID)
	}
	w, errW := strconv.ParseFloat(g.AttrOr("width", ""), 64)
	h, errH := strconv.ParseFloat(g.AttrOr("height", ""), 64)
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return nil, nil, fmt.Errorf("%w: bad scene size", ErrMalformed)
	}
	plan.Page = Page{
		Width:          w,
		Height:         h,
		Unit:           pageEl.AttrOr("unit", "px"),
		ResolutionUnit: pageEl.AttrOr("resolution_unit", "px/in"),
	}
	plan.Page.Resolution, _ = strconv.ParseFloat(pageEl.AttrOr("resolution", "72"), 64)
	if pv := root.Child(TemplateNS, "preview"); pv != nil {
		if raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(pv.Text)); err == nil {
			plan.Preview, _, _ = items.DecodeImage(bytes.NewReader(raw))
		}
	}

	s := New(vector.R(0, 0, w, h), opts)
	for _, el := range g.Children {
		if el.Space != SVGNS || el.Name != "g" {
			continue
		}
		switch cls := el.AttrOr("class", ""); cls {
		case "background":
			plan.Background = el
		case "border":
			plan.Border = el
		default:
			it, err := s.itemSkeleton(el)
			if err != nil {
				s.log.Warn("skip item", "class", cls, "err", err)
				plan.Skipped++
				continue
			}
			if _, err := s.model.InsertItems(0, nil, it); err != nil {
				plan.Skipped++
				continue
			}
			s.attach(it)
			plan.Entries = append(plan.Entries, PlanEntry{Item: it, Element: el})
		}
	}
	return s, plan, nil
}

func itemData(el *dom.Element) *dom.Element {
	defs := el.ChildWith(SVGNS, "defs", "class", "data")
	if defs == nil {
		return nil
	}
	return defs.Child(PLENS, "data")
}

// itemSkeleton constructs an item with its name, transform and shape data.
func (s *Scene) itemSkeleton(el *dom.Element) (items.Item, error) {
	data := itemData(el)
	if data == nil {
		return nil, fmt.Errorf("%w: missing data", ErrMalformed)
	}
	tr := data.Child(PLENS, "transform")
	if tr == nil {
		return nil, fmt.Errorf("%w: missing transform", ErrMalformed)
	}
	m, err := vector.ParseMatrix(tr.AttrOr("matrix", ""))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	name := el.AttrOr("name", "")
	var it items.Item
	switch cls := el.AttrOr("class", ""); cls {
	case items.ClassPhoto:
		pathEl := data.ChildWith(PLENS, "path", "class", "m_image_path")
		if pathEl == nil {
			return nil, fmt.Errorf("%w: missing image path", ErrMalformed)
		}
		p, err := vector.ParsePath(pathEl.Text)
		if err != nil || p.IsEmpty() {
			return nil, fmt.Errorf("%w: bad image path", ErrMalformed)
		}
		ph := items.NewPhoto(nil, name)
		ph.SetImagePath(p)
		it = ph
	case items.ClassText:
		if data.Child(PLENS, "text") == nil {
			return nil, fmt.Errorf("%w: missing text", ErrMalformed)
		}
		it = items.NewText("", s.fonts, name)
	default:
		return nil, fmt.Errorf("%w: unknown class %q", ErrMalformed, cls)
	}
	it.Core().SetTransform(m)
	if el.AttrOr("visibility", "") == "hidden" {
		it.Core().SetVisible(false)
	}
	return it, nil
}

// ItemPayload is the decoded heavy content of one item element. Decoding
// does not touch the item, so it may run off the UI goroutine.
type ItemPayload struct {
	crop    *vector.Path
	effects []effects.Effect
	borders []borders.Drawer

	pixels    image.Image
	sourceURL string
	embed     bool

	text  *string
	color color.RGBA
	font  props.FontSpec
}

// ImageError reports photo pixels that could not be read. The payload
// returned alongside it is complete apart from the pixels.
type ImageError struct {
	Src string
	Err error
}

func (e *ImageError) Error() string {
	if e.Src == "" {
		return "embedded image: " + e.Err.Error()
	}
	return fmt.Sprintf("image %s: %v", e.Src, e.Err)
}

func (e *ImageError) Unwrap() error { return e.Err }

// DecodeItem reads the payload of el for it: pixels or text, crop shape,
// effects and borders. Unknown effect or border names are skipped. When only
// the pixels fail it returns the payload together with an *ImageError.
func (s *Scene) DecodeItem(it items.Item, el *dom.Element) (*ItemPayload, error) {
	data := itemData(el)
	if data == nil {
		return nil, fmt.Errorf("%w: missing data", ErrMalformed)
	}
	pl := &ItemPayload{}
	if c := data.ChildWith(PLENS, "path", "class", "m_crop_shape"); c != nil {
		crop, err := vector.ParsePath(c.Text)
		if err != nil {
			return nil, fmt.Errorf("crop: %w", err)
		}
		pl.crop = &crop
	}
	if err := s.decodeGroups(pl, el); err != nil {
		return nil, err
	}
	switch it.(type) {
	case *items.PhotoItem:
		if err := decodePhoto(pl, data.Child(PLENS, "image")); err != nil {
			var ie *ImageError
			if errors.As(err, &ie) {
				return pl, err
			}
			return nil, err
		}
	case *items.TextItem:
		t := data.Child(PLENS, "text")
		if t == nil {
			return nil, fmt.Errorf("%w: missing text", ErrMalformed)
		}
		c, err := props.ParseColor(t.AttrOr("color", "#000000"))
		if err != nil {
			return nil, err
		}
		f, err := props.ParseFont(t.AttrOr("font", ""))
		if err != nil {
			return nil, err
		}
		text := t.Text
		pl.text, pl.color, pl.font = &text, c, f
	}
	return pl, nil
}

// ApplyItem moves a decoded payload into it.
func (s *Scene) ApplyItem(it items.Item, pl *ItemPayload) {
	b := it.Core()
	if pl.crop != nil {
		b.SetCrop(*pl.crop)
	}
	if len(pl.effects) > 0 {
		_ = b.Effects().Insert(b.Effects().Len(), pl.effects...)
	}
	if len(pl.borders) > 0 {
		_ = b.Borders().Insert(b.Borders().Len(), pl.borders...)
	}
	switch x := it.(type) {
	case *items.PhotoItem:
		x.SourceURL, x.Embed = pl.sourceURL, pl.embed
		if pl.pixels != nil {
			setPixels(x, pl.pixels)
		}
	case *items.TextItem:
		if pl.text != nil {
			x.SetColor(pl.color)
			x.SetFont(pl.font)
			x.SetText(*pl.text)
		}
	}
}

// LoadItem decodes and applies the payload of an item created by FromSVG.
// A photo whose pixels cannot be read still gets the rest of its payload and
// keeps its placeholder. On any other error the item is left as it was.
func (s *Scene) LoadItem(it items.Item, el *dom.Element) error {
	pl, err := s.DecodeItem(it, el)
	if pl != nil {
		s.ApplyItem(it, pl)
	}
	return err
}

func decodePhoto(pl *ItemPayload, img *dom.Element) error {
	if img == nil {
		return fmt.Errorf("%w: missing image", ErrMalformed)
	}
	pl.sourceURL = img.AttrOr("src", "")
	body := strings.TrimSpace(img.Text)
	pl.embed = body != ""
	if body != "" {
		raw, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return &ImageError{Err: err}
		}
		pix, _, err := items.DecodeImage(bytes.NewReader(raw))
		if err != nil {
			return &ImageError{Err: err}
		}
		pl.pixels = pix
		return nil
	}
	if pl.sourceURL == "" {
		return fmt.Errorf("%w: image without data or source", ErrMalformed)
	}
	pix, err := items.LoadImageFile(pl.sourceURL)
	if err != nil {
		return &ImageError{Src: pl.sourceURL, Err: err}
	}
	pl.pixels = pix
	return nil
}

// setPixels keeps a stored image path that differs from the image rectangle.
func setPixels(p *items.PhotoItem, pix image.Image) {
	path := p.ImagePath()
	p.SetImage(pix)
	if !path.IsEmpty() {
		p.SetImagePath(path)
	}
}

func (s *Scene) decodeGroups(pl *ItemPayload, el *dom.Element) error {
	if fx := el.Child(SVGNS, "effects"); fx != nil {
		for _, e := range fx.All(SVGNS, "effect") {
			name := e.AttrOr("name", "")
			eff, err := s.effects.New(name)
			if err != nil {
				s.log.Warn("unknown effect", "name", name)
				continue
			}
			if err := props.DecodeAttrs(eff, attrLookup(e)); err != nil {
				return fmt.Errorf("effect %s: %w", name, err)
			}
			pl.effects = append(pl.effects, eff)
		}
	}
	if bs := el.ChildWith(SVGNS, "g", "class", "borders"); bs != nil {
		for _, d := range bs.All(SVGNS, "g") {
			name := d.AttrOr("name", "")
			dr, err := s.borders.New(name)
			if err != nil {
				s.log.Warn("unknown border", "name", name)
				continue
			}
			if err := props.DecodeAttrs(dr, attrLookup(d)); err != nil {
				return fmt.Errorf("border %s: %w", name, err)
			}
			pl.borders = append(pl.borders, dr)
		}
	}
	return nil
}

func attrLookup(el *dom.Element) func(string) (string, bool) {
	return func(name string) (string, bool) { return el.Attr(name) }
}

// LoadBackground restores the background decoration.
func (s *Scene) LoadBackground(el *dom.Element) error {
	if el == nil {
		return nil
	}
	if err := props.DecodeAttrs(s.background, attrLookup(el)); err != nil {
		return fmt.Errorf("background: %w", err)
	}
	s.changed()
	return nil
}

// LoadBorder restores the scene border decoration.
func (s *Scene) LoadBorder(el *dom.Element) error {
	if el == nil {
		return nil
	}
	if err := props.DecodeAttrs(s.border, attrLookup(el)); err != nil {
		return fmt.Errorf("border: %w", err)
	}
	s.changed()
	return nil
}

// LoadAll runs every stage of the plan synchronously and returns the number
// of item payloads that failed.
func (p *LoadPlan) LoadAll(s *Scene) (failed int, err error) {
	if err := s.LoadBackground(p.Background); err != nil {
		return 0, err
	}
	for _, e := range p.Entries {
		if err := s.LoadItem(e.Item, e.Element); err != nil {
			s.log.Warn("load item", "item", e.Item.Core().String(), "err", err)
			failed++
		}
	}
	return failed, s.LoadBorder(p.Border)
}
