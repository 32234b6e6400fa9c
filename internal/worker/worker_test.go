/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package worker

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"photolayouts/internal/dom"
	"photolayouts/internal/effects"
	"photolayouts/internal/items"
	"photolayouts/internal/progress"
	"photolayouts/internal/scene"
	"photolayouts/internal/vector"
)

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 6, 4))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(1, 1, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	return img
}

func sampleScene(t *testing.T) *scene.Scene {
	t.Helper()
	s := scene.New(vector.R(0, 0, 100, 80), scene.Options{})
	if err := s.AddItem(items.NewPhoto(testImage(), "Photo")); err != nil {
		t.Fatalf("add photo: %v", err)
	}
	s.Selection().Clear()
	if err := s.AddItem(items.NewText("Caption", nil, "Caption")); err != nil {
		t.Fatalf("add text: %v", err)
	}
	s.Background().SetColor(color.RGBA{R: 9, A: 255})
	return s
}

func reload(t *testing.T, s *scene.Scene) (*scene.Scene, *scene.LoadPlan) {
	t.Helper()
	root, err := s.ToSVG(scene.Page{})
	if err != nil {
		t.Fatalf("to svg: %v", err)
	}
	s2, plan, err := scene.FromSVG(root, scene.Options{})
	if err != nil {
		t.Fatalf("from svg: %v", err)
	}
	return s2, plan
}

func drain(q *progress.Queue) []progress.Event {
	var out []progress.Event
	q.Drain(func(e progress.Event) { out = append(out, e) })
	return out
}

func TestLoadRunsStagesInOrder(t *testing.T) {
	s2, plan := reload(t, sampleScene(t))
	q := progress.NewQueue(256)
	h := Load(context.Background(), q, s2, plan, &sync.Mutex{})
	if err := h.Wait(); err != nil {
		t.Fatalf("load: %v", err)
	}
	evs := drain(q)
	if evs[0].Kind != progress.Init || evs[len(evs)-1].Kind != progress.Finish || evs[len(evs)-1].Err != nil {
		t.Fatalf("bad framing: first %v last %v", evs[0].Kind, evs[len(evs)-1].Kind)
	}
	var actions []string
	last := 0.0
	for _, e := range evs {
		if e.Worker != h.ID {
			t.Fatalf("event from foreign worker")
		}
		switch e.Kind {
		case progress.Action:
			actions = append(actions, e.Label)
		case progress.Progress:
			if e.Fraction < last {
				t.Fatalf("progress went back: %v after %v", e.Fraction, last)
			}
			last = e.Fraction
		}
	}
	want := "Background,Photo,Caption,Border"
	if got := strings.Join(actions, ","); got != want {
		t.Fatalf("actions = %s, want %s", got, want)
	}
	if last != 1 {
		t.Fatalf("final progress = %v", last)
	}
	p := s2.Items()[1].(*items.PhotoItem)
	if p.Image() == nil || p.Image().At(1, 1) == p.Image().At(0, 0) {
		t.Fatalf("photo pixels not loaded")
	}
	if txt := s2.Items()[0].(*items.TextItem); txt.Text() != "Caption" {
		t.Fatalf("text = %q", txt.Text())
	}
	if s2.Background().Color.R != 9 {
		t.Fatalf("background not loaded")
	}
}

func TestLoadSkipsBrokenItemAndReportsIt(t *testing.T) {
	s := sampleScene(t)
	root, _ := s.ToSVG(scene.Page{})
	photo := root.ChildWith(scene.SVGNS, "g", "id", "PLEScene").ChildWith(scene.SVGNS, "g", "class", items.ClassPhoto)
	photo.ChildWith(scene.SVGNS, "defs", "class", "data").Child(scene.PLENS, "data").Child(scene.PLENS, "image").Text = "AAAA"
	s2, plan, err := scene.FromSVG(root, scene.Options{})
	if err != nil {
		t.Fatalf("from svg: %v", err)
	}
	q := progress.NewQueue(256)
	err = Load(context.Background(), q, s2, plan, &sync.Mutex{}).Wait()
	var le *LoadError
	if !errors.As(err, &le) || le.Failed != 1 || le.Total != 2 {
		t.Fatalf("err = %v", err)
	}
	if txt := s2.Items()[0].(*items.TextItem); txt.Text() != "Caption" {
		t.Fatalf("remaining item not loaded")
	}
	evs := drain(q)
	if fin := evs[len(evs)-1]; fin.Kind != progress.Finish || fin.Err == nil {
		t.Fatalf("finish event = %+v", fin)
	}
}

func TestLoadMissingLinkedImageKeepsPayload(t *testing.T) {
	src := filepath.Join(t.TempDir(), "linked.png")
	data, err := items.EncodePNG(testImage())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(src, data, 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := items.LoadPhoto(src, "Linked")
	if err != nil {
		t.Fatal(err)
	}
	p.Embed = false
	p.SetCrop(vector.RectPath(vector.R(1, 1, 3, 2)))
	_ = p.Effects().Insert(0, &effects.Grayscale{})
	s := scene.New(vector.R(0, 0, 100, 80), scene.Options{})
	if err := s.AddItem(p); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(src); err != nil {
		t.Fatal(err)
	}

	s2, plan := reload(t, s)
	err = Load(context.Background(), progress.NewQueue(256), s2, plan, &sync.Mutex{}).Wait()
	var le *LoadError
	var ie *scene.ImageError
	if !errors.As(err, &le) || le.Failed != 1 || !errors.As(err, &ie) || ie.Src != src {
		t.Fatalf("err = %v", err)
	}
	got := s2.Items()[0].(*items.PhotoItem)
	if got.Image() != nil || got.SourceURL != src || got.Embed {
		t.Fatalf("photo image=%v src=%q embed=%v", got.Image() != nil, got.SourceURL, got.Embed)
	}
	if got.Effects().Len() != 1 || got.Crop().IsEmpty() {
		t.Fatalf("effects=%d crop empty=%v", got.Effects().Len(), got.Crop().IsEmpty())
	}

	// Once the file is back, the re-saved document loads the pixels again.
	if err := os.WriteFile(src, data, 0o644); err != nil {
		t.Fatal(err)
	}
	s3, plan := reload(t, s2)
	if err := Load(context.Background(), progress.NewQueue(256), s3, plan, &sync.Mutex{}).Wait(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if back := s3.Items()[0].(*items.PhotoItem); back.Image() == nil || back.Effects().Len() != 1 {
		t.Fatalf("second load lost the photo")
	}
}

func TestSaveWritesChunksAndReloads(t *testing.T) {
	s := sampleScene(t)
	path := filepath.Join(t.TempDir(), "layout.ple")
	q := progress.NewQueue(1024)
	var mu sync.RWMutex
	h := Save(context.Background(), q, s, mu.RLocker(), SaveOptions{Path: path, ChunkSize: 128})
	if err := h.Wait(); err != nil {
		t.Fatalf("save: %v", err)
	}
	progressed := 0
	for _, e := range drain(q) {
		if e.Kind == progress.Progress {
			progressed++
		}
	}
	if progressed < 3 {
		t.Fatalf("only %d progress events", progressed)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	root, err := dom.Parse(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, plan, err := scene.FromSVG(root, scene.Options{}); err != nil || len(plan.Entries) != 2 {
		t.Fatalf("reload: %v", err)
	}
	ents, _ := os.ReadDir(filepath.Dir(path))
	if len(ents) != 1 {
		t.Fatalf("temp files left: %v", ents)
	}
}

func TestSaveCancelledKeepsDestination(t *testing.T) {
	s := sampleScene(t)
	path := filepath.Join(t.TempDir(), "layout.ple")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Save(ctx, progress.NewQueue(64), s, &sync.Mutex{}, SaveOptions{Path: path}).Wait()
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if b, _ := os.ReadFile(path); string(b) != "old" {
		t.Fatalf("destination changed: %q", b)
	}
}

func TestSaveWithoutPath(t *testing.T) {
	if err := Save(context.Background(), progress.NewQueue(8), sampleScene(t), &sync.Mutex{}, SaveOptions{}).Wait(); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDecodeImagesCollectsFailures(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.png")
	data, err := items.EncodePNG(testImage())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(good, data, 0o644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "missing.png")
	job := DecodeImages(context.Background(), progress.NewQueue(64), []string{good, missing}, ImageOptions{})
	if err := job.Wait(); err != nil {
		t.Fatalf("job: %v", err)
	}
	if len(job.Photos) != 1 || job.Photos[0].Name() != "good" || job.Photos[0].SourceURL != good || job.Photos[0].Embed {
		t.Fatalf("photos = %v", job.Photos)
	}
	if _, ok := job.Failed[missing]; !ok || len(job.Failed) != 1 {
		t.Fatalf("failed = %v", job.Failed)
	}
	if err := DecodeImages(context.Background(), progress.NewQueue(64), []string{missing}, ImageOptions{Embed: true}).Wait(); err == nil {
		t.Fatalf("all-failed job should error")
	}
}
