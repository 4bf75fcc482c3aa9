/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package mask

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"testing"

	"viewpointgen/internal/config"
	"viewpointgen/internal/imageio"
	"viewpointgen/internal/vector"
)

func background(t *testing.T, w, h int) imageio.Part {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0x80
		if i%4 == 3 {
			img.Pix[i] = 0xFF
		}
	}
	p, err := imageio.EncodePNG(img)
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	return p
}

func open(t *testing.T, w, h int, opts Options) *Editor {
	t.Helper()
	e, err := Open(background(t, w, h), opts)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return e
}

func decodeMask(t *testing.T, p imageio.Part) image.Image {
	t.Helper()
	if p.MIMEType != imageio.MIMEPNG {
		t.Fatalf("artifact MIME = %q, want png", p.MIMEType)
	}
	img, err := imageio.Decode(p)
	if err != nil {
		t.Fatalf("decode artifact: %v", err)
	}
	return img
}

func alpha(img image.Image, x, y int) uint32 {
	_, _, _, a := img.At(x, y).RGBA()
	return a
}

func at(x, y float32, disp vector.Size) Pointer {
	return Pointer{Pos: vector.Pt{X: x, Y: y}, Display: disp}
}

// drag feeds one press-move-release sequence.
func drag(e *Editor, disp vector.Size, pts ...vector.Pt) {
	e.BeginStroke(Pointer{Pos: pts[0], Display: disp})
	for _, p := range pts[1:] {
		e.ExtendStroke(Pointer{Pos: p, Display: disp})
	}
	e.CommitStroke()
}

func TestOpenRejectsUndecodableBackground(t *testing.T) {
	_, err := Open(imageio.Part{Data: []byte("nope"), MIMEType: imageio.MIMEPNG}, Options{})
	if !errors.Is(err, imageio.ErrDecode) {
		t.Fatalf("err = %v, want ErrDecode", err)
	}
	_, err = Open(imageio.Part{Data: []byte("nope"), MIMEType: "text/plain"}, Options{})
	if !errors.Is(err, imageio.ErrUnsupportedType) {
		t.Fatalf("err = %v, want ErrUnsupportedType", err)
	}
}

func TestCoordinateFidelityAcrossScales(t *testing.T) {
	const native = 200
	for _, s := range []float32{0.5, 1, 2} {
		t.Run(fmt.Sprintf("scale=%v", s), func(t *testing.T) {
			e := open(t, native, native, Options{})
			disp := vector.Size{W: native / s, H: native / s}
			pts := []vector.Pt{
				{X: 0.2 * disp.W, Y: 0.3 * disp.H},
				{X: 0.5 * disp.W, Y: 0.5 * disp.H},
				{X: 0.7 * disp.W, Y: 0.4 * disp.H},
			}
			e.SetBrushSize(5)
			drag(e, disp, pts...)
			art, err := e.Save()
			if err != nil {
				t.Fatalf("Save: %v", err)
			}
			img := decodeMask(t, art)
			for _, p := range pts {
				n := p.Mul(s)
				if a := alpha(img, int(n.X), int(n.Y)); a != 0xFFFF {
					t.Fatalf("pixel at native %v (display %v) alpha=%#x, want opaque", n, p, a)
				}
			}
			mid := pts[0].Add(pts[1]).Mul(0.5 * s)
			if alpha(img, int(mid.X), int(mid.Y)) != 0xFFFF {
				t.Fatalf("segment midpoint %v not painted", mid)
			}
			if alpha(img, 2, native-3) != 0 {
				t.Fatalf("far corner painted")
			}
		})
	}
}

func TestDisplaySizeIsSampledPerEvent(t *testing.T) {
	e := open(t, 800, 600, Options{})
	e.BeginStroke(at(10, 10, vector.Size{W: 400, H: 300}))
	e.ExtendStroke(at(40, 20, vector.Size{W: 800, H: 600}))
	st, ok := e.InProgress()
	if !ok {
		t.Fatalf("expected an open stroke")
	}
	want := []vector.Pt{{X: 20, Y: 20}, {X: 40, Y: 20}}
	for i, p := range want {
		if !st.Points[i].Eq(p, 1e-4) {
			t.Fatalf("point %d = %v, want %v", i, st.Points[i], p)
		}
	}
	if st.Radius != 40 {
		t.Fatalf("radius = %v, want 40 (20 display px at scale 2)", st.Radius)
	}
}

func TestUndoMatchesHistoryWithoutLastStroke(t *testing.T) {
	disp := vector.Size{W: 160, H: 120}
	strokes := [][]vector.Pt{
		{{X: 10, Y: 10}, {X: 60, Y: 40}, {X: 90, Y: 20}},
		{{X: 30, Y: 90}, {X: 30, Y: 30}},
		{{X: 50, Y: 50}, {X: 52, Y: 51}, {X: 140, Y: 100}, {X: 100, Y: 110}},
		{{X: 70, Y: 60}},
	}
	for n := 1; n <= len(strokes); n++ {
		all := open(t, 320, 240, Options{})
		prefix := open(t, 320, 240, Options{})
		for i, pts := range strokes[:n] {
			all.SetBrushSize(float64(4 + 3*i))
			drag(all, disp, pts...)
			if i < n-1 {
				prefix.SetBrushSize(float64(4 + 3*i))
				drag(prefix, disp, pts...)
			}
		}
		all.Undo()
		if got, want := len(all.Strokes()), n-1; got != want {
			t.Fatalf("n=%d: history length after undo = %d, want %d", n, got, want)
		}
		if !bytes.Equal(all.Canvas().Pix, prefix.Canvas().Pix) {
			t.Fatalf("n=%d: canvas after undo differs from canvas of first %d strokes", n, n-1)
		}
	}
}

func TestEmptyOperationsLeaveHistoryUnchanged(t *testing.T) {
	e := open(t, 50, 50, Options{})
	e.Undo()
	e.CommitStroke()
	if len(e.Strokes()) != 0 || e.State() != StateIdle {
		t.Fatalf("empty ops changed state: %d strokes, %v", len(e.Strokes()), e.State())
	}

	drag(e, vector.Size{W: 50, H: 50}, vector.Pt{X: 5, Y: 5}, vector.Pt{X: 9, Y: 9})
	before := e.Strokes()
	canvas := e.Canvas().Pix
	e.CommitStroke()
	e.ExtendStroke(at(20, 20, vector.Size{W: 50, H: 50}))
	after := e.Strokes()
	if len(after) != len(before) || len(after[0].Points) != len(before[0].Points) {
		t.Fatalf("history changed: before %v after %v", before, after)
	}
	if !bytes.Equal(canvas, e.Canvas().Pix) {
		t.Fatalf("ignored input painted the canvas")
	}
}

func TestSinglePointStrokePaintsDot(t *testing.T) {
	e := open(t, 100, 100, Options{})
	e.SetBrushSize(6)
	e.BeginStroke(at(50, 50, vector.Size{W: 100, H: 100}))
	e.CommitStroke()
	if len(e.Strokes()) != 1 {
		t.Fatalf("single point stroke was not committed")
	}
	art, _ := e.Save()
	img := decodeMask(t, art)
	if alpha(img, 50, 50) != 0xFFFF || alpha(img, 53, 50) != 0xFFFF {
		t.Fatalf("dot not painted")
	}
	if alpha(img, 60, 50) != 0 {
		t.Fatalf("dot larger than radius")
	}
}

func TestExportDimensionsMatchNativeSize(t *testing.T) {
	cases := []struct {
		w, h    int
		disp    vector.Size
		strokes int
	}{
		{800, 600, vector.Size{W: 400, H: 300}, 0},
		{800, 600, vector.Size{W: 1600, H: 1200}, 3},
		{33, 77, vector.Size{W: 33, H: 77}, 1},
		{1, 1, vector.Size{}, 2},
	}
	for _, tc := range cases {
		e := open(t, tc.w, tc.h, Options{})
		for i := 0; i < tc.strokes; i++ {
			drag(e, tc.disp, vector.Pt{X: float32(i), Y: 0}, vector.Pt{X: tc.disp.W, Y: tc.disp.H})
		}
		art, err := e.Save()
		if err != nil {
			t.Fatalf("Save: %v", err)
		}
		b := decodeMask(t, art).Bounds()
		if b.Dx() != tc.w || b.Dy() != tc.h {
			t.Fatalf("%dx%d with %d strokes: artifact is %dx%d", tc.w, tc.h, tc.strokes, b.Dx(), b.Dy())
		}
	}
}

func TestEmptySaveIsFullyTransparent(t *testing.T) {
	e := open(t, 40, 30, Options{})
	art, err := e.Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	img := decodeMask(t, art)
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			if alpha(img, x, y) != 0 {
				t.Fatalf("pixel (%d,%d) not transparent", x, y)
			}
		}
	}
}

func TestExtendGrowsOnlyTheOpenStroke(t *testing.T) {
	disp := vector.Size{W: 100, H: 100}
	e := open(t, 100, 100, Options{})
	drag(e, disp, vector.Pt{X: 1, Y: 1}, vector.Pt{X: 2, Y: 2})
	committed := e.Strokes()

	e.BeginStroke(at(10, 10, disp))
	for i := 1; i <= 25; i++ {
		before, _ := e.InProgress()
		e.ExtendStroke(at(10+float32(i), 10, disp))
		after, _ := e.InProgress()
		if len(after.Points) != len(before.Points)+1 {
			t.Fatalf("extend %d: points %d -> %d", i, len(before.Points), len(after.Points))
		}
		now := e.Strokes()
		if len(now) != 1 || len(now[0].Points) != len(committed[0].Points) || now[0].Points[1] != committed[0].Points[1] {
			t.Fatalf("committed stroke mutated during extend")
		}
	}
}

func TestScenarioEightHundredBySixHundredAtHalfSize(t *testing.T) {
	e := open(t, 800, 600, Options{})
	e.SetBrushSize(5)
	drag(e, vector.Size{W: 400, H: 300}, vector.Pt{X: 10, Y: 10}, vector.Pt{X: 20, Y: 10})
	art, err := e.Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	img := decodeMask(t, art)
	if b := img.Bounds(); b.Dx() != 800 || b.Dy() != 600 {
		t.Fatalf("artifact is %v, want 800x600", b)
	}
	a, b := vector.Pt{X: 20, Y: 20}, vector.Pt{X: 40, Y: 20}
	const r = 10
	for y := 0; y < 600; y++ {
		for x := 0; x < 800; x++ {
			d := segDist(vector.Pt{X: float32(x) + 0.5, Y: float32(y) + 0.5}, a, b)
			al := alpha(img, x, y)
			switch {
			case d < r-1.5 && al != 0xFFFF:
				t.Fatalf("pixel (%d,%d) at distance %.2f not opaque", x, y, d)
			case d > r+1.5 && al != 0:
				t.Fatalf("pixel (%d,%d) at distance %.2f not transparent", x, y, d)
			case al != 0 && al != 0xFFFF:
				t.Fatalf("pixel (%d,%d) has partial alpha %#x", x, y, al)
			}
		}
	}
}

func segDist(p, a, b vector.Pt) float64 {
	ab, ap := b.Sub(a), p.Sub(a)
	t := float64(ab.X*ap.X+ab.Y*ap.Y) / float64(ab.X*ab.X+ab.Y*ab.Y)
	t = math.Max(0, math.Min(1, t))
	q := a.Add(ab.Mul(float32(t)))
	return float64(p.Dist(q))
}

func TestBrushSizeClamping(t *testing.T) {
	e := open(t, 10, 10, Options{BrushMin: 2, BrushMax: 50, BrushDefault: 12})
	if e.BrushSize() != 12 {
		t.Fatalf("default brush = %v", e.BrushSize())
	}
	cases := []struct {
		in, want float64
	}{
		{25, 25},
		{0.5, 2},
		{500, 50},
		{0, 2},
		{-7, 2},
		{math.NaN(), 2},
		{math.Inf(1), 50},
		{math.Inf(-1), 2},
	}
	for _, tc := range cases {
		e.SetBrushSize(tc.in)
		if e.BrushSize() != tc.want {
			t.Fatalf("SetBrushSize(%v) -> %v, want %v", tc.in, e.BrushSize(), tc.want)
		}
	}
}

func TestBrushChangeAffectsOnlyLaterStrokes(t *testing.T) {
	disp := vector.Size{W: 100, H: 100}
	e := open(t, 100, 100, Options{})
	e.SetBrushSize(3)
	e.BeginStroke(at(10, 10, disp))
	e.SetBrushSize(30)
	e.ExtendStroke(at(20, 10, disp))
	e.CommitStroke()
	drag(e, disp, vector.Pt{X: 50, Y: 50})
	got := e.Strokes()
	if got[0].Radius != 3 || got[1].Radius != 30 {
		t.Fatalf("radii = %v, %v; want 3, 30", got[0].Radius, got[1].Radius)
	}
}

func TestBeginIgnoredWhileDrawing(t *testing.T) {
	disp := vector.Size{W: 10, H: 10}
	e := open(t, 10, 10, Options{})
	e.BeginStroke(at(1, 1, disp))
	e.BeginStroke(at(5, 5, disp))
	st, _ := e.InProgress()
	if len(st.Points) != 1 || st.Points[0] != (vector.Pt{X: 1, Y: 1}) {
		t.Fatalf("second begin replaced the open stroke: %v", st.Points)
	}
	e.Undo()
	if e.State() != StateDrawing {
		t.Fatalf("undo interrupted the open stroke")
	}
}

func TestSaveCallbacksFireOnceEach(t *testing.T) {
	var saves, closes int
	var got imageio.Part
	e := open(t, 20, 20, Options{
		OnSave:  func(p imageio.Part) { saves++; got = p },
		OnClose: func() { closes++ },
	})
	drag(e, vector.Size{W: 20, H: 20}, vector.Pt{X: 5, Y: 5})
	art, err := e.Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saves != 1 || closes != 1 || !bytes.Equal(got.Data, art.Data) {
		t.Fatalf("saves=%d closes=%d", saves, closes)
	}
	if e.State() != StateClosed || len(e.Strokes()) != 0 {
		t.Fatalf("editor not discarded after save")
	}
	if _, err := e.Save(); !errors.Is(err, ErrClosed) {
		t.Fatalf("second Save err = %v, want ErrClosed", err)
	}
	e.Cancel()
	if saves != 1 || closes != 1 {
		t.Fatalf("callbacks fired after close: saves=%d closes=%d", saves, closes)
	}
}

func TestCancelNeverSaves(t *testing.T) {
	var saves, closes int
	e := open(t, 20, 20, Options{
		OnSave:  func(imageio.Part) { saves++ },
		OnClose: func() { closes++ },
	})
	drag(e, vector.Size{W: 20, H: 20}, vector.Pt{X: 5, Y: 5}, vector.Pt{X: 15, Y: 15})
	e.Cancel()
	e.Cancel()
	if saves != 0 || closes != 1 {
		t.Fatalf("saves=%d closes=%d, want 0,1", saves, closes)
	}
	if len(e.Strokes()) != 0 {
		t.Fatalf("history not discarded on cancel")
	}
	e.BeginStroke(at(1, 1, vector.Size{W: 20, H: 20}))
	if e.State() != StateClosed {
		t.Fatalf("closed editor accepted input")
	}
}

func TestSaveDropsOpenStroke(t *testing.T) {
	disp := vector.Size{W: 30, H: 30}
	e := open(t, 30, 30, Options{})
	e.BeginStroke(at(15, 15, disp))
	e.ExtendStroke(at(20, 15, disp))
	art, _ := e.Save()
	if alpha(decodeMask(t, art), 15, 15) != 0 {
		t.Fatalf("uncommitted stroke reached the artifact")
	}
}

func TestCompositeTintsPaintedPixelsOnly(t *testing.T) {
	e := open(t, 40, 40, Options{Tint: vector.Color{R: 255, A: 255}, Opacity: 0.5})
	drag(e, vector.Size{W: 40, H: 40}, vector.Pt{X: 10, Y: 10})
	img := e.Composite()
	bg := color.RGBAModel.Convert(img.At(35, 35)).(color.RGBA)
	if bg.R != 0x80 || bg.G != 0x80 {
		t.Fatalf("unpainted pixel changed: %v", bg)
	}
	px := color.RGBAModel.Convert(img.At(10, 10)).(color.RGBA)
	if px.R <= bg.R || px.G >= bg.G {
		t.Fatalf("painted pixel not tinted red: %v", px)
	}
	if p := e.Preview(20, 20); p.Bounds().Dx() != 20 {
		t.Fatalf("preview bounds = %v", p.Bounds())
	}
}

func TestOptionsFromConfigFallsBackOnBadColor(t *testing.T) {
	o := DefaultOptions()
	if o.Tint != defaultTint || o.Opacity != 0.5 || o.BrushDefault != 20 {
		t.Fatalf("defaults = %#v", o)
	}
	mc := config.Defaults().Mask
	mc.OverlayColor = "not-a-color"
	if o2 := OptionsFromConfig(mc); o2.Tint != defaultTint {
		t.Fatalf("tint = %v", o2.Tint)
	}
}

func TestTintOfSavedArtifactMatchesLiveComposite(t *testing.T) {
	opts := Options{Tint: vector.Color{R: 255, A: 255}, Opacity: 0.5}
	e := open(t, 40, 40, opts)
	drag(e, vector.Size{W: 40, H: 40}, vector.Pt{X: 10, Y: 10}, vector.Pt{X: 30, Y: 10})
	live := e.Composite()
	bg := e.bg
	art, err := e.Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	got := Tint(bg, decodeMask(t, art), opts.Tint, opts.Opacity)
	for _, p := range []image.Point{{10, 10}, {20, 10}, {35, 35}} {
		if got.RGBAAt(p.X, p.Y) != live.RGBAAt(p.X, p.Y) {
			t.Fatalf("pixel %v: saved %v, live %v", p, got.RGBAAt(p.X, p.Y), live.RGBAAt(p.X, p.Y))
		}
	}
}

func TestMinimumBrushSurvivesDownscaledCornerDot(t *testing.T) {
	e := open(t, 100, 100, Options{BrushMin: 1, BrushMax: 50})
	e.SetBrushSize(1)
	disp := vector.Size{W: 200, H: 200}
	// (20,20) lands on the corner shared by native pixels (9,9) and (10,10).
	e.BeginStroke(at(20, 20, disp))
	e.CommitStroke()
	if st := e.Strokes()[0]; st.Radius < 1 {
		t.Fatalf("native radius = %v, want at least 1", st.Radius)
	}
	art, err := e.Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	m := decodeMask(t, art)
	if alpha(m, 10, 10) != 0xFFFF {
		t.Fatalf("pixel holding the dot is not selected")
	}
}

func TestThinStrokeKeepsEveryPointPixel(t *testing.T) {
	e := open(t, 100, 100, Options{BrushMin: 1, BrushMax: 50})
	e.SetBrushSize(1)
	disp := vector.Size{W: 200, H: 200}
	pts := []vector.Pt{{X: 21, Y: 33}, {X: 61, Y: 37}, {X: 120, Y: 151}}
	drag(e, disp, pts...)
	art, err := e.Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	m := decodeMask(t, art)
	for _, p := range pts {
		x, y := int(p.X/2), int(p.Y/2)
		if alpha(m, x, y) != 0xFFFF {
			t.Fatalf("pixel (%d,%d) under display point %v is not selected", x, y, p)
		}
	}
}

func TestStrokeCountDoesNotAllocate(t *testing.T) {
	e := open(t, 40, 40, Options{})
	disp := vector.Size{W: 40, H: 40}
	for i := range 5 {
		drag(e, disp, vector.Pt{X: float32(i * 5), Y: 5}, vector.Pt{X: float32(i * 5), Y: 30})
	}
	if n := e.StrokeCount(); n != 5 {
		t.Fatalf("StrokeCount = %d, want 5", n)
	}
	if allocs := testing.AllocsPerRun(100, func() { _ = e.StrokeCount() }); allocs != 0 {
		t.Fatalf("StrokeCount allocates %v times", allocs)
	}
}
