/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package props declares the editable attributes of effects and border drawers.
// Each object lists its properties explicitly (display name, kind, range, getter
// and setter); generic editors and the file format work only through this schema.
package props

import (
	"encoding/base64"
	"errors"
	"fmt"
	"image/color"
	"net/url"
	"strconv"
	"strings"
)

// Kind tells editors and codecs how to treat a property value.
type Kind uint8

const (
	Int Kind = iota
	Float
	Bool
	String
	Color
	Font
	Enum
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case String:
		return "string"
	case Color:
		return "color"
	case Font:
		return "font"
	case Enum:
		return "enum"
	}
	return "unknown"
}

// FontSpec is the value type of Font properties.
type FontSpec struct {
	Family string
	Size   float64
	Bold   bool
	Italic bool
}

// Property is one editable attribute. Values have a fixed Go type per Kind:
// Int→int, Float→float64, Bool→bool, String→string, Color→color.RGBA,
// Font→FontSpec, Enum→string (one of Choices).
type Property struct {
	Name    string // persisted attribute name
	Display string
	Kind    Kind
	Min     float64
	Max     float64
	Step    float64
	Choices []string
	Get     func() any
	Set     func(any)
}

// Describer is implemented by every object with an editable schema.
type Describer interface {
	// Name identifies the object type; it is the registry key and the persisted name.
	Name() string
	Properties() []Property
}

var (
	ErrUnknownProperty = errors.New("unknown property")
	ErrBadValue        = errors.New("bad property value")
)

// Find returns the property called name.
func Find(d Describer, name string) (Property, bool) {
	for _, p := range d.Properties() {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// Get reads a property value by name.
func Get(d Describer, name string) (any, error) {
	p, ok := Find(d, name)
	if !ok {
		return nil, fmt.Errorf("%s.%s: %w", d.Name(), name, ErrUnknownProperty)
	}
	return p.Get(), nil
}

// Set validates and writes a property value by name.
func Set(d Describer, name string, v any) error {
	p, ok := Find(d, name)
	if !ok {
		return fmt.Errorf("%s.%s: %w", d.Name(), name, ErrUnknownProperty)
	}
	nv, err := p.Check(v)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", d.Name(), name, err)
	}
	p.Set(nv)
	return nil
}

// Check verifies that v has the Go type of the property's kind and clamps numbers into [Min, Max]
// when a range is declared.
func (p Property) Check(v any) (any, error) {
	switch p.Kind {
	case Int:
		n, ok := v.(int)
		if !ok {
			return nil, fmt.Errorf("%w: want int, got %T", ErrBadValue, v)
		}
		if p.Max > p.Min {
			n = int(clamp(float64(n), p.Min, p.Max))
		}
		return n, nil
	case Float:
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("%w: want float64, got %T", ErrBadValue, v)
		}
		if p.Max > p.Min {
			f = clamp(f, p.Min, p.Max)
		}
		return f, nil
	case Bool:
		if _, ok := v.(bool); !ok {
			return nil, fmt.Errorf("%w: want bool, got %T", ErrBadValue, v)
		}
	case String:
		if _, ok := v.(string); !ok {
			return nil, fmt.Errorf("%w: want string, got %T", ErrBadValue, v)
		}
	case Color:
		if _, ok := v.(color.RGBA); !ok {
			return nil, fmt.Errorf("%w: want color.RGBA, got %T", ErrBadValue, v)
		}
	case Font:
		if _, ok := v.(FontSpec); !ok {
			return nil, fmt.Errorf("%w: want FontSpec, got %T", ErrBadValue, v)
		}
	case Enum:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: want string, got %T", ErrBadValue, v)
		}
		found := false
		for _, c := range p.Choices {
			if c == s {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %q not in %v", ErrBadValue, s, p.Choices)
		}
	}
	return v, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Raw returns the canonical byte form of a value for kind k.
func Raw(k Kind, v any) ([]byte, error) {
	switch k {
	case Int:
		n, ok := v.(int)
		if !ok {
			return nil, fmt.Errorf("%w: want int, got %T", ErrBadValue, v)
		}
		return []byte(strconv.Itoa(n)), nil
	case Float:
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("%w: want float64, got %T", ErrBadValue, v)
		}
		return []byte(strconv.FormatFloat(f, 'g', -1, 64)), nil
	case Bool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: want bool, got %T", ErrBadValue, v)
		}
		return []byte(strconv.FormatBool(b)), nil
	case String, Enum:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: want string, got %T", ErrBadValue, v)
		}
		return []byte(s), nil
	case Color:
		c, ok := v.(color.RGBA)
		if !ok {
			return nil, fmt.Errorf("%w: want color.RGBA, got %T", ErrBadValue, v)
		}
		return []byte(FormatColor(c)), nil
	case Font:
		f, ok := v.(FontSpec)
		if !ok {
			return nil, fmt.Errorf("%w: want FontSpec, got %T", ErrBadValue, v)
		}
		return []byte(FormatFont(f)), nil
	}
	return nil, fmt.Errorf("%w: kind %v", ErrBadValue, k)
}

// Parse is the inverse of Raw.
func Parse(k Kind, raw []byte) (any, error) {
	s := string(raw)
	switch k {
	case Int:
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadValue, err)
		}
		return n, nil
	case Float:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadValue, err)
		}
		return f, nil
	case Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadValue, err)
		}
		return b, nil
	case String, Enum:
		return s, nil
	case Color:
		return ParseColor(s)
	case Font:
		return ParseFont(s)
	}
	return nil, fmt.Errorf("%w: kind %v", ErrBadValue, k)
}

// FormatColor renders #rrggbbaa.
func FormatColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// ParseColor accepts #rrggbb and #rrggbbaa.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 && len(s) != 8 {
		return color.RGBA{}, fmt.Errorf("%w: color %q", ErrBadValue, s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: color %q", ErrBadValue, s)
	}
	if len(s) == 6 {
		return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// familyEscaper keeps the field separator out of a font family.
var familyEscaper = strings.NewReplacer("%", "%25", ",", "%2C")

// FormatFont renders family,size,bold,italic. Commas and percent signs in
// the family are percent-encoded.
func FormatFont(f FontSpec) string {
	return strings.Join([]string{
		familyEscaper.Replace(f.Family),
		strconv.FormatFloat(f.Size, 'g', -1, 64),
		strconv.FormatBool(f.Bold),
		strconv.FormatBool(f.Italic),
	}, ",")
}

// ParseFont is the inverse of FormatFont.
func ParseFont(s string) (FontSpec, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return FontSpec{}, fmt.Errorf("%w: font %q", ErrBadValue, s)
	}
	size, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return FontSpec{}, fmt.Errorf("%w: font size %q", ErrBadValue, parts[1])
	}
	bold, err1 := strconv.ParseBool(parts[2])
	italic, err2 := strconv.ParseBool(parts[3])
	if err1 != nil || err2 != nil {
		return FontSpec{}, fmt.Errorf("%w: font flags %q", ErrBadValue, s)
	}
	family, err := url.PathUnescape(parts[0])
	if err != nil {
		return FontSpec{}, fmt.Errorf("%w: font family %q", ErrBadValue, parts[0])
	}
	return FontSpec{Family: family, Size: size, Bold: bold, Italic: italic}, nil
}

// Attr is a persisted name/value pair; Value is base64 of the raw bytes.
type Attr struct {
	Name  string
	Value string
}

// EncodeAttrs renders every property of d as a base64 attribute, in schema order.
func EncodeAttrs(d Describer) ([]Attr, error) {
	ps := d.Properties()
	out := make([]Attr, 0, len(ps))
	for _, p := range ps {
		raw, err := Raw(p.Kind, p.Get())
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", d.Name(), p.Name, err)
		}
		out = append(out, Attr{Name: p.Name, Value: base64.StdEncoding.EncodeToString(raw)})
	}
	return out, nil
}

// DecodeAttrs sets every property of d found through lookup. Properties without an
// attribute keep their value; attributes that are present but undecodable are errors.
func DecodeAttrs(d Describer, lookup func(name string) (string, bool)) error {
	for _, p := range d.Properties() {
		enc, ok := lookup(p.Name)
		if !ok {
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(enc)
		if err != nil {
			return fmt.Errorf("%s.%s: %w: %v", d.Name(), p.Name, ErrBadValue, err)
		}
		v, err := Parse(p.Kind, raw)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", d.Name(), p.Name, err)
		}
		if v, err = p.Check(v); err != nil {
			return fmt.Errorf("%s.%s: %w", d.Name(), p.Name, err)
		}
		p.Set(v)
	}
	return nil
}
