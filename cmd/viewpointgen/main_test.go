/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"viewpointgen/internal/imageio"
)

func isolateConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("AppData", dir)
	// keeps Load away from the OS keychain
	t.Setenv("AVG_API_KEY", "unused")
	return dir
}

func writeBackground(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 90, G: 120, B: 150, A: 255})
		}
	}
	p, err := imageio.EncodePNG(img)
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	if err := os.WriteFile(path, p.Data, 0o644); err != nil {
		t.Fatalf("write background: %v", err)
	}
}

func TestReadScriptRejectsUnknownOps(t *testing.T) {
	if _, err := readScript(strings.NewReader(`{"events":[{"op":"erase"}]}`)); err == nil {
		t.Fatalf("expected error for unknown op")
	}
	if _, err := readScript(strings.NewReader(`{"events":[],"extra":1}`)); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func TestReadScriptRequiresDisplaySize(t *testing.T) {
	for _, src := range []string{
		`{"events":[{"op":"begin","x":10,"y":10}]}`,
		`{"events":[{"op":"begin","x":10,"y":10,"w":100,"h":50},{"op":"extend","x":20,"y":10,"w":100}]}`,
		`{"events":[{"op":"begin","x":10,"y":10,"w":-100,"h":50}]}`,
	} {
		if _, err := readScript(strings.NewReader(src)); err == nil {
			t.Fatalf("expected error for %s", src)
		}
	}
	s, err := readScript(strings.NewReader(`{"events":[{"op":"begin","x":0,"y":0,"w":100,"h":50},{"op":"commit"},{"op":"undo"}]}`))
	if err != nil {
		t.Fatalf("readScript: %v", err)
	}
	if len(s.Events) != 3 {
		t.Fatalf("events = %d, want 3", len(s.Events))
	}
}

func TestRunMaskReplaysScript(t *testing.T) {
	dir := isolateConfig(t)
	bgPath := filepath.Join(dir, "bg.png")
	writeBackground(t, bgPath, 200, 100)

	// Two strokes at half display size, the second undone.
	script := `{"events":[
		{"op":"brush","size":5},
		{"op":"begin","x":10,"y":10,"w":100,"h":50},
		{"op":"extend","x":40,"y":10,"w":100,"h":50},
		{"op":"commit"},
		{"op":"begin","x":80,"y":40,"w":100,"h":50},
		{"op":"commit"},
		{"op":"undo"}
	]}`
	scriptPath := filepath.Join(dir, "strokes.json")
	if err := os.WriteFile(scriptPath, []byte(script), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	out, n, err := runMask(bgPath, scriptPath, filepath.Join(dir, "out", "mask"), filepath.Join(dir, "sheet.pdf"))
	if err != nil {
		t.Fatalf("runMask: %v", err)
	}
	if n != 1 {
		t.Fatalf("committed strokes = %d, want 1", n)
	}
	if filepath.Ext(out) != ".png" {
		t.Fatalf("artifact path %q should get a .png extension", out)
	}
	p, err := imageio.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	img, err := imageio.Decode(p)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 100 {
		t.Fatalf("mask bounds = %v, want native 200x100", b)
	}
	alphaAt := func(x, y int) uint32 { _, _, _, a := img.At(x, y).RGBA(); return a }
	// (25,10) display is (50,20) native.
	if alphaAt(50, 20) == 0 {
		t.Fatalf("committed stroke missing from mask")
	}
	if alphaAt(160, 80) != 0 {
		t.Fatalf("undone stroke present in mask")
	}
	pdf, err := os.ReadFile(filepath.Join(dir, "sheet.pdf"))
	if err != nil || !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("review sheet not written: %v", err)
	}
}

func TestRunGenerateRejectsBadArgs(t *testing.T) {
	isolateConfig(t)
	if err := runGenerate(nil); err == nil {
		t.Fatalf("expected error without an image")
	}
	if err := runGenerate([]string{"-season", "Monsoon", "x.png"}); err == nil {
		t.Fatalf("expected error for unknown season")
	}
}
