/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package dom

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

const (
	svgNS = "http://www.w3.org/2000/svg"
	ext   = "urn:test:ext"
)

func TestWriteParseRoundTrip(t *testing.T) {
	root := New(svgNS, "svg").SetAttr("width", "10px")
	g := root.Add(svgNS, "g").SetAttr("class", `a"b<c`)
	d := g.Add(ext, "data")
	d.Add(ext, "image").SetAttr("src", "file:///x.png").Text = "AAAA"
	w := Writer{Prefixes: map[string]string{svgNS: "", ext: "x"}, Indent: " "}
	out, err := w.Marshal(root)
	if err != nil {
		t.Fatal(err)
	}
	s := string(out)
	if !strings.Contains(s, `xmlns="`+svgNS+`"`) || !strings.Contains(s, `xmlns:x="`+ext+`"`) || !strings.Contains(s, "<x:image") {
		t.Fatalf("unexpected document:\n%s", s)
	}
	back, err := Parse(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	if back.Space != svgNS || back.Name != "svg" || back.AttrOr("width", "") != "10px" {
		t.Fatalf("root = %+v", back)
	}
	bg := back.Child(svgNS, "g")
	if bg == nil || bg.AttrOr("class", "") != `a"b<c` {
		t.Fatalf("escaped attribute lost: %+v", bg)
	}
	img := bg.Child(ext, "data").Child(ext, "image")
	if img == nil || img.Text != "AAAA" || img.Parent.Name != "data" {
		t.Fatalf("image = %+v", img)
	}
	if len(back.Attrs) != 1 {
		t.Fatalf("namespace declarations must not show up as attributes: %+v", back.Attrs)
	}
}

func TestChildWithAndAll(t *testing.T) {
	root := New("", "root")
	root.Add("", "g").SetAttr("class", "background")
	root.Add("", "g").SetAttr("class", "border")
	if root.ChildWith("", "g", "class", "border") == nil || len(root.All("", "g")) != 2 {
		t.Fatalf("lookup failed")
	}
	if root.ChildWith("", "g", "class", "none") != nil {
		t.Fatalf("unexpected match")
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse(strings.NewReader("")); !errors.Is(err, ErrNoRoot) {
		t.Fatalf("want ErrNoRoot, got %v", err)
	}
	if _, err := Parse(strings.NewReader("<a><b></a>")); err == nil {
		t.Fatalf("malformed xml should fail")
	}
}
