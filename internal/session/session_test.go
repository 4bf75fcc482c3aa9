/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"viewpointgen/internal/generate"
	"viewpointgen/internal/i18n"
	"viewpointgen/internal/imageio"
	"viewpointgen/internal/mask"
	"viewpointgen/internal/storage"
	"viewpointgen/internal/vector"
)

type fakeGen struct {
	reqs []generate.Request
	err  error
	wait chan struct{}
}

func (f *fakeGen) Generate(ctx context.Context, req generate.Request) (generate.Result, error) {
	f.reqs = append(f.reqs, req)
	if f.wait != nil {
		<-f.wait
	}
	if f.err != nil {
		return generate.Result{}, f.err
	}
	out := imageio.Part{Data: []byte("generated"), MIMEType: imageio.MIMEPNG}
	return generate.Result{Image: &out, Prompt: generate.BuildPrompt(req)}, nil
}

func photo(t *testing.T) imageio.Part {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	img.Set(0, 0, color.Black)
	p, err := imageio.EncodePNG(img)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestUploadValidatesAndResetsHistory(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemoryStore(), &fakeGen{})
	if err := s.Upload(ctx, imageio.Part{Data: []byte("x"), MIMEType: "text/plain"}); !errors.Is(err, imageio.ErrUnsupportedType) {
		t.Fatalf("Upload err = %v", err)
	}
	if err := s.Upload(ctx, photo(t)); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, err := s.Generate(ctx); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	s.SaveMask(imageio.Part{Data: []byte("m"), MIMEType: imageio.MIMEPNG})

	if err := s.Upload(ctx, photo(t)); err != nil {
		t.Fatalf("second Upload: %v", err)
	}
	items, _ := s.History(ctx)
	if len(items) != 1 || !items[0].IsOriginal || items[0].Prompt != storage.OriginalPrompt {
		t.Fatalf("history after upload = %+v", items)
	}
	if _, ok := s.Mask(); ok {
		t.Fatalf("mask survived a new upload")
	}
	if _, ok := s.Current(); ok {
		t.Fatalf("current view survived a new upload")
	}
}

func TestGenerateRecordsHistory(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGen{}
	s := New(storage.NewMemoryStore(), gen)
	if _, err := s.Generate(ctx); !errors.Is(err, ErrNoOriginal) {
		t.Fatalf("Generate before upload err = %v", err)
	}
	_ = s.Upload(ctx, photo(t))
	s.SetScene(generate.Winter, generate.Night)
	s.SetCustomPrompt("fog")
	it, err := s.Generate(ctx)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	req := gen.reqs[0]
	if req.Season != generate.Winter || req.TimeOfDay != generate.Night || req.CustomPrompt != "fog" || req.Mask != nil {
		t.Fatalf("request = %+v", req)
	}
	cur, ok := s.Current()
	if !ok || cur.ID != it.ID {
		t.Fatalf("current = %+v", cur)
	}
	items, _ := s.History(ctx)
	if len(items) != 2 || items[0].ID != it.ID {
		t.Fatalf("history = %+v", items)
	}
	if err := s.ClearHistory(ctx); err != nil {
		t.Fatal(err)
	}
	if items, _ = s.History(ctx); len(items) != 1 || !items[0].IsOriginal {
		t.Fatalf("ClearHistory kept %+v", items)
	}
}

func TestMaskRequiresInstructions(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGen{}
	s := New(storage.NewMemoryStore(), gen)
	_ = s.Upload(ctx, photo(t))

	var saved int
	ed, err := s.OpenMaskEditor(mask.Options{OnSave: func(imageio.Part) { saved++ }})
	if err != nil {
		t.Fatalf("OpenMaskEditor: %v", err)
	}
	disp := vector.Size{W: 20, H: 15}
	ed.BeginStroke(mask.Pointer{Pos: vector.Pt{X: 5, Y: 5}, Display: disp})
	ed.ExtendStroke(mask.Pointer{Pos: vector.Pt{X: 10, Y: 5}, Display: disp})
	ed.CommitStroke()
	if _, err := ed.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	m, ok := s.Mask()
	if !ok || saved != 1 || m.MIMEType != imageio.MIMEPNG {
		t.Fatalf("mask not attached: ok=%v saved=%d", ok, saved)
	}

	if _, err := s.Generate(ctx); !errors.Is(err, generate.ErrMaskPromptRequired) {
		t.Fatalf("Generate err = %v, want ErrMaskPromptRequired", err)
	}
	if len(gen.reqs) != 0 {
		t.Fatalf("invalid request reached the generator")
	}
	s.SetMaskPrompt("make it brick")
	if _, err := s.Generate(ctx); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if gen.reqs[0].Mask == nil || gen.reqs[0].MaskPrompt != "make it brick" {
		t.Fatalf("mask not sent: %+v", gen.reqs[0])
	}

	s.ClearMask()
	if req, err := s.Request(); err != nil || req.Mask != nil || req.MaskPrompt != "" {
		t.Fatalf("ClearMask left %+v, %v", req, err)
	}
}

func TestOpenMaskEditorNeedsUpload(t *testing.T) {
	s := New(storage.NewMemoryStore(), nil)
	if _, err := s.OpenMaskEditor(mask.Options{}); !errors.Is(err, ErrNoOriginal) {
		t.Fatalf("err = %v", err)
	}
}

func TestGenerateFailureLeavesHistory(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("quota")
	s := New(storage.NewMemoryStore(), &fakeGen{err: boom})
	_ = s.Upload(ctx, photo(t))
	if _, err := s.Generate(ctx); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if items, _ := s.History(ctx); len(items) != 1 {
		t.Fatalf("failed generation recorded: %d items", len(items))
	}
	if s.Busy() {
		t.Fatalf("busy flag not released")
	}
}

func TestGenerateIsExclusive(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGen{wait: make(chan struct{})}
	s := New(storage.NewMemoryStore(), gen)
	_ = s.Upload(ctx, photo(t))
	done := make(chan error)
	go func() {
		_, err := s.Generate(ctx)
		done <- err
	}()
	for !s.Busy() {
	}
	if _, err := s.Generate(ctx); !errors.Is(err, ErrBusy) {
		t.Fatalf("concurrent Generate err = %v", err)
	}
	close(gen.wait)
	if err := <-done; err != nil {
		t.Fatalf("first Generate: %v", err)
	}
}

func TestUseAsInputAndSelectHistory(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemoryStore(), &fakeGen{})
	_ = s.Upload(ctx, photo(t))
	if err := s.UseAsInput(); !errors.Is(err, ErrNoCurrent) {
		t.Fatalf("UseAsInput without view err = %v", err)
	}
	it, _ := s.Generate(ctx)
	s.SaveMask(imageio.Part{Data: []byte("m"), MIMEType: imageio.MIMEPNG})
	if err := s.UseAsInput(); err != nil {
		t.Fatalf("UseAsInput: %v", err)
	}
	orig, _ := s.Original()
	if string(orig.Data) != "generated" {
		t.Fatalf("input not replaced")
	}
	if _, ok := s.Mask(); ok {
		t.Fatalf("mask kept after UseAsInput")
	}
	if items, _ := s.History(ctx); len(items) != 2 {
		t.Fatalf("UseAsInput changed history: %d", len(items))
	}
	got, err := s.SelectHistory(ctx, it.ID)
	if err != nil || got.ID != it.ID {
		t.Fatalf("SelectHistory = %+v, %v", got, err)
	}
	if _, err := s.SelectHistory(ctx, "nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("SelectHistory missing err = %v", err)
	}
}

func TestRescueWritesParts(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemoryStore(), &fakeGen{})
	_ = s.Upload(ctx, photo(t))
	_, _ = s.Generate(ctx)
	dir, err := s.Rescue(t.TempDir())
	if err != nil {
		t.Fatalf("Rescue: %v", err)
	}
	for _, name := range []string{"input.png", "view.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("%s not rescued: %v", name, err)
		}
	}
}

func TestUserMessage(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{ErrNoOriginal, i18n.T(i18n.Spanish, i18n.KeyErrorUploadFirst)},
		{fmt.Errorf("generate: %w", generate.ErrMaskPromptRequired), i18n.T(i18n.Spanish, i18n.KeyErrorMaskPrompt)},
		{fmt.Errorf("upload: %w", imageio.ErrDecode), i18n.T(i18n.Spanish, i18n.KeyErrorInvalidFile)},
		{errors.New("boom"), "boom"},
		{nil, ""},
	}
	for _, tc := range cases {
		if got := UserMessage(i18n.Spanish, tc.err); got != tc.want {
			t.Fatalf("UserMessage(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
	noImage := fmt.Errorf("%w: model said no", generate.ErrNoImage)
	if got := UserMessage(i18n.English, noImage); !strings.HasPrefix(got, i18n.T(i18n.English, i18n.KeyErrorNoImage)) || !strings.Contains(got, "model said no") {
		t.Fatalf("no-image message = %q", got)
	}
}
