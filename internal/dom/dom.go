/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package dom is a small namespace-aware element tree for reading and writing
// layout documents.
package dom

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

var ErrNoRoot = errors.New("dom: document has no root element")

// Attr is an attribute; Space is a namespace URI, empty for plain attributes.
type Attr struct {
	Space, Name, Value string
}

// Element is one node of the tree. Space is the namespace URI.
type Element struct {
	Space    string
	Name     string
	Attrs    []Attr
	Children []*Element
	Text     string
	Parent   *Element
}

func New(space, name string) *Element { return &Element{Space: space, Name: name} }

// SetAttr sets a plain attribute, replacing an existing one.
func (e *Element) SetAttr(name, value string) *Element { return e.SetAttrNS("", name, value) }

func (e *Element) SetAttrNS(space, name, value string) *Element {
	for i, a := range e.Attrs {
		if a.Space == space && a.Name == name {
			e.Attrs[i].Value = value
			return e
		}
	}
	e.Attrs = append(e.Attrs, Attr{Space: space, Name: name, Value: value})
	return e
}

// Attr returns a plain attribute.
func (e *Element) Attr(name string) (string, bool) { return e.AttrNS("", name) }

func (e *Element) AttrNS(space, name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Space == space && a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrOr returns a plain attribute or def.
func (e *Element) AttrOr(name, def string) string {
	if v, ok := e.Attr(name); ok {
		return v
	}
	return def
}

// Append adds children and returns e.
func (e *Element) Append(children ...*Element) *Element {
	for _, c := range children {
		c.Parent = e
		e.Children = append(e.Children, c)
	}
	return e
}

// Add creates, appends and returns a new child.
func (e *Element) Add(space, name string) *Element {
	c := New(space, name)
	e.Append(c)
	return c
}

// Child returns the first child with the given namespace and name.
func (e *Element) Child(space, name string) *Element {
	for _, c := range e.Children {
		if c.Space == space && c.Name == name {
			return c
		}
	}
	return nil
}

// ChildWith returns the first child named name whose attribute attr equals value.
func (e *Element) ChildWith(space, name, attr, value string) *Element {
	for _, c := range e.Children {
		if c.Space == space && c.Name == name {
			if v, ok := c.Attr(attr); ok && v == value {
				return c
			}
		}
	}
	return nil
}

// All returns the children with the given namespace and name.
func (e *Element) All(space, name string) []*Element {
	var out []*Element
	for _, c := range e.Children {
		if c.Space == space && c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Parse reads a document and returns its root element.
func Parse(r io.Reader) (*Element, error) {
	d := xml.NewDecoder(r)
	var root, cur *Element
	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dom: parse: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := New(t.Name.Space, t.Name.Local)
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
					continue
				}
				el.Attrs = append(el.Attrs, Attr{Space: a.Name.Space, Name: a.Name.Local, Value: a.Value})
			}
			if cur == nil {
				if root != nil {
					return nil, fmt.Errorf("dom: parse: multiple root elements")
				}
				root = el
			} else {
				cur.Append(el)
			}
			cur = el
		case xml.EndElement:
			cur = cur.Parent
		case xml.CharData:
			if cur != nil {
				cur.Text += string(t)
			}
		}
	}
	if root == nil {
		return nil, ErrNoRoot
	}
	trimText(root)
	return root, nil
}

// trimText drops the indentation whitespace of elements that have children.
func trimText(e *Element) {
	if len(e.Children) > 0 {
		e.Text = strings.TrimSpace(e.Text)
	}
	for _, c := range e.Children {
		trimText(c)
	}
}

// Writer serializes trees with fixed namespace prefixes. The namespace mapped
// to the empty prefix becomes the default namespace.
type Writer struct {
	Prefixes map[string]string // namespace URI -> prefix
	Indent   string
}

// Marshal returns the serialized document.
func (w Writer) Marshal(root *Element) ([]byte, error) {
	var buf bytes.Buffer
	if err := w.Write(&buf, root); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write serializes root with an XML declaration. All namespace declarations
// are placed on the root element.
func (w Writer) Write(out io.Writer, root *Element) error {
	bw := bufio.NewWriter(out)
	used := map[string]bool{}
	collectSpaces(root, used)
	prefixes := map[string]string{}
	n := 0
	for _, uri := range sortedKeys(used) {
		if p, ok := w.Prefixes[uri]; ok {
			prefixes[uri] = p
			continue
		}
		n++
		prefixes[uri] = fmt.Sprintf("ns%d", n)
	}
	bw.WriteString(xml.Header)
	var decls []Attr
	for _, uri := range sortedKeys(used) {
		if p := prefixes[uri]; p == "" {
			decls = append(decls, Attr{Name: "xmlns", Value: uri})
		} else {
			decls = append(decls, Attr{Name: "xmlns:" + p, Value: uri})
		}
	}
	if err := w.writeElement(bw, root, prefixes, decls, 0); err != nil {
		return err
	}
	bw.WriteString("\n")
	return bw.Flush()
}

func (w Writer) writeElement(bw *bufio.Writer, e *Element, prefixes map[string]string, extra []Attr, depth int) error {
	indent := ""
	if w.Indent != "" {
		indent = "\n" + strings.Repeat(w.Indent, depth)
		if depth == 0 {
			indent = ""
		}
	}
	name := qualify(prefixes, e.Space, e.Name)
	bw.WriteString(indent)
	bw.WriteString("<" + name)
	for _, a := range append(extra, e.Attrs...) {
		bw.WriteString(" " + qualify(prefixes, a.Space, a.Name) + `="`)
		if err := xml.EscapeText(bw, []byte(a.Value)); err != nil {
			return err
		}
		bw.WriteString(`"`)
	}
	if len(e.Children) == 0 && e.Text == "" {
		bw.WriteString("/>")
		return nil
	}
	bw.WriteString(">")
	if err := xml.EscapeText(bw, []byte(e.Text)); err != nil {
		return err
	}
	for _, c := range e.Children {
		if err := w.writeElement(bw, c, prefixes, nil, depth+1); err != nil {
			return err
		}
	}
	if len(e.Children) > 0 && w.Indent != "" {
		bw.WriteString("\n" + strings.Repeat(w.Indent, depth))
	}
	bw.WriteString("</" + name + ">")
	return nil
}

func qualify(prefixes map[string]string, space, name string) string {
	if space == "" {
		return name
	}
	if p := prefixes[space]; p != "" {
		return p + ":" + name
	}
	return name
}

func collectSpaces(e *Element, used map[string]bool) {
	if e.Space != "" {
		used[e.Space] = true
	}
	for _, a := range e.Attrs {
		if a.Space != "" {
			used[a.Space] = true
		}
	}
	for _, c := range e.Children {
		collectSpaces(c, used)
	}
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
