/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package mask implements the free-hand mask editor: pointer drags paint a
// selection over a background image, committed strokes can be undone, and
// saving rasterizes the selection at the image's native resolution.
package mask

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"

	"golang.org/x/image/draw"

	"viewpointgen/internal/config"
	"viewpointgen/internal/imageio"
	applog "viewpointgen/internal/log"
	"viewpointgen/internal/telemetry"
	"viewpointgen/internal/undo"
	"viewpointgen/internal/vector"
)

// ErrClosed is returned by Save once the editor has been saved or cancelled.
var ErrClosed = errors.New("mask editor closed")

// State is the interaction state of an editor.
type State int

const (
	StateIdle State = iota
	StateDrawing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDrawing:
		return "drawing"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Options configures an editor. Zero values fall back to DefaultOptions.
type Options struct {
	BrushMin     float64
	BrushMax     float64
	BrushDefault float64

	// Tint and Opacity style the live overlay; they never reach the artifact.
	Tint    vector.Color
	Opacity float64

	// OnSave receives the artifact of a successful save.
	OnSave func(imageio.Part)
	// OnClose fires once, after a save or a cancel.
	OnClose func()
}

// DefaultOptions mirrors config.Defaults().Mask.
func DefaultOptions() Options {
	return OptionsFromConfig(config.Defaults().Mask)
}

// OptionsFromConfig converts the persisted mask section. An unparsable overlay
// color falls back to the default tint.
func OptionsFromConfig(mc config.MaskConfig) Options {
	tint, err := vector.ParseHex(mc.OverlayColor)
	if err != nil {
		tint = defaultTint
	}
	return Options{
		BrushMin:     mc.BrushMin,
		BrushMax:     mc.BrushMax,
		BrushDefault: mc.BrushDefault,
		Tint:         tint,
		Opacity:      mc.OverlayOpacity,
	}
}

var defaultTint = vector.Color{R: 0x00, G: 0xB4, B: 0xFF, A: 0xFF}

func (o Options) withDefaults() Options {
	if !(o.BrushMin > 0) || math.IsInf(o.BrushMin, 0) {
		o.BrushMin = 1
	}
	if !(o.BrushMax >= o.BrushMin) || math.IsInf(o.BrushMax, 0) {
		o.BrushMax = max(o.BrushMin, 100)
	}
	if !(o.BrushDefault > 0) {
		o.BrushDefault = 20
	}
	o.BrushDefault = min(max(o.BrushDefault, o.BrushMin), o.BrushMax)
	if o.Tint == (vector.Color{}) {
		o.Tint = defaultTint
	}
	if !(o.Opacity > 0 && o.Opacity <= 1) {
		o.Opacity = 0.5
	}
	return o
}

// Editor is one masking session over a single background image. All methods
// are meant to be called from one event stream; inputs are accepted, clamped,
// or ignored, never rejected.
type Editor struct {
	opts    Options
	log     *slog.Logger
	bg      image.Image
	native  vector.Size
	surface *Surface
	history *undo.History[Stroke]
	current *Stroke
	state   State
	brush   float64
	// rev changes whenever painted content is removed, so overlays that
	// draw incrementally know to start over.
	rev uint64
}

// Open decodes bg and returns an idle editor with an empty history. Decode
// failures wrap imageio.ErrUnsupportedType or imageio.ErrDecode.
func Open(bg imageio.Part, opts Options) (*Editor, error) {
	img, err := imageio.Decode(bg)
	if err != nil {
		return nil, fmt.Errorf("open mask editor: %w", err)
	}
	return OpenImage(img, opts), nil
}

// OpenImage starts an editor over an already decoded background.
func OpenImage(bg image.Image, opts Options) *Editor {
	opts = opts.withDefaults()
	b := bg.Bounds()
	e := &Editor{
		opts:    opts,
		log:     applog.WithComponent("mask"),
		bg:      bg,
		native:  vector.Size{W: float32(b.Dx()), H: float32(b.Dy())},
		surface: NewSurface(b.Dx(), b.Dy()),
		history: undo.New[Stroke](),
		brush:   opts.BrushDefault,
	}
	e.log.Debug("editor opened", slog.Int("w", b.Dx()), slog.Int("h", b.Dy()))
	return e
}

// State returns the current interaction state.
func (e *Editor) State() State { return e.state }

// NativeSize is the background's pixel size, which is also the artifact size.
func (e *Editor) NativeSize() (w, h int) { return int(e.native.W), int(e.native.H) }

// BrushSize returns the radius, in display pixels, applied to the next stroke.
func (e *Editor) BrushSize() float64 { return e.brush }

// BrushRange returns the configured clamp range.
func (e *Editor) BrushRange() (lo, hi float64) { return e.opts.BrushMin, e.opts.BrushMax }

// SetBrushSize clamps radius into the configured range. Non-numeric and
// non-positive values select the minimum.
func (e *Editor) SetBrushSize(radius float64) {
	switch {
	case math.IsNaN(radius) || radius <= 0:
		radius = e.opts.BrushMin
	case math.IsInf(radius, 1):
		radius = e.opts.BrushMax
	}
	e.brush = min(max(radius, e.opts.BrushMin), e.opts.BrushMax)
}

// minNativeRadius keeps a dab wide enough to cover at least half of the pixel
// holding its centre, wherever the centre falls. A quarter disc of radius 1
// covers pi/4 of a pixel, which still clears the binarize threshold when a
// point lands exactly on a pixel corner.
const minNativeRadius = 1

// BeginStroke opens a stroke at p and paints its first dot. Ignored unless idle.
func (e *Editor) BeginStroke(p Pointer) {
	if e.state != StateIdle {
		return
	}
	vp := e.viewport(p)
	pt := vp.ToNative(p.Pos)
	if !pt.IsFinite() {
		return
	}
	r := max(vp.LengthToNative(float32(e.brush)), minNativeRadius)
	e.current = &Stroke{Points: []vector.Pt{pt}, Radius: r}
	e.state = StateDrawing
	e.paint(e.surface.Dab(pt, r))
}

// ExtendStroke appends p to the open stroke and paints the segment from the
// previous point. Ignored unless drawing.
func (e *Editor) ExtendStroke(p Pointer) {
	if e.state != StateDrawing || e.current == nil {
		return
	}
	pt := e.viewport(p).ToNative(p.Pos)
	if !pt.IsFinite() {
		return
	}
	prev := e.current.Points[len(e.current.Points)-1]
	e.current.Points = append(e.current.Points, pt)
	e.paint(e.surface.Segment(prev, pt, e.current.Radius))
}

// CommitStroke closes the open stroke and pushes it onto the history. An
// empty or absent stroke leaves the history untouched.
func (e *Editor) CommitStroke() {
	if e.state != StateDrawing {
		return
	}
	st := e.current
	e.current = nil
	e.state = StateIdle
	if st == nil || len(st.Points) == 0 {
		return
	}
	e.history.Push(*st)
	e.log.Debug("stroke committed", slog.Int("points", len(st.Points)), slog.Int("strokes", e.history.Len()))
}

// Undo drops the newest committed stroke, clears the canvas and replays the
// rest. Ignored while a stroke is open.
func (e *Editor) Undo() {
	if e.state != StateIdle {
		return
	}
	if !e.history.Pop() {
		return
	}
	e.rev++
	e.surface.Clear()
	e.paint(e.replay(e.surface))
	e.log.Debug("stroke undone", slog.Int("strokes", e.history.Len()))
}

// Strokes returns a copy of the committed history in drawing order.
func (e *Editor) Strokes() []Stroke {
	var out []Stroke
	for st := range e.history.All() {
		out = append(out, st.Clone())
	}
	return out
}

// StrokeCount is the number of committed strokes. Unlike Strokes it copies
// nothing.
func (e *Editor) StrokeCount() int { return e.history.Len() }

// InProgress returns a copy of the open stroke, if any.
func (e *Editor) InProgress() (Stroke, bool) {
	if e.current == nil {
		return Stroke{}, false
	}
	return e.current.Clone(), true
}

// Canvas returns a snapshot of the live paint layer at native resolution.
func (e *Editor) Canvas() *image.RGBA { return e.surface.Image() }

// Background is the image the editor was opened over. Callers must not
// modify it.
func (e *Editor) Background() image.Image { return e.bg }

// Overlay returns the tint color and opacity of the live overlay.
func (e *Editor) Overlay() (vector.Color, float64) { return e.opts.Tint, e.opts.Opacity }

// Composite renders the background with the paint layer tinted on top.
func (e *Editor) Composite() *image.RGBA {
	return Tint(e.bg, e.surface.Image(), e.opts.Tint, e.opts.Opacity)
}

// Tint draws c at opacity over bg wherever coverage has alpha. coverage is
// read in bg's coordinate space, so a saved artifact of the same size can be
// rendered the way the editor showed it.
func Tint(bg, coverage image.Image, c vector.Color, opacity float64) *image.RGBA {
	b := bg.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), bg, b.Min, draw.Src)
	a := opacity * float64(c.A) / 255
	tint := &image.Uniform{C: premultiply(c, a)}
	draw.DrawMask(dst, dst.Bounds(), tint, image.Point{}, coverage, coverage.Bounds().Min, draw.Over)
	return dst
}

// Preview is Composite scaled to fit within the given display box.
func (e *Editor) Preview(maxW, maxH int) image.Image {
	return imageio.Thumbnail(e.Composite(), maxW, maxH)
}

// Save rasterizes the committed history onto a fresh native-size surface,
// encodes it as PNG, hands it to OnSave, and closes the editor. An open
// stroke is discarded. Saving with no strokes yields a transparent artifact.
func (e *Editor) Save() (imageio.Part, error) {
	if e.state == StateClosed {
		return imageio.Part{}, ErrClosed
	}
	w, h := e.NativeSize()
	off := NewSurface(w, h)
	defer off.Close()
	if err := e.replay(off); err != nil {
		return imageio.Part{}, fmt.Errorf("rasterize mask: %w", err)
	}
	bin := Binarize(off.Image())
	for st := range e.history.All() {
		stampPoints(bin, st.Points)
	}
	art, err := imageio.EncodePNG(bin)
	if err != nil {
		return imageio.Part{}, err
	}
	n := e.history.Len()
	e.close()
	e.log.Info("mask saved", slog.Int("strokes", n), slog.Int("bytes", len(art.Data)))
	telemetry.Event("mask_saved", map[string]any{"strokes": n})
	if e.opts.OnSave != nil {
		e.opts.OnSave(art)
	}
	if e.opts.OnClose != nil {
		e.opts.OnClose()
	}
	return art, nil
}

// Cancel discards all strokes and closes the editor without an artifact.
func (e *Editor) Cancel() {
	if e.state == StateClosed {
		return
	}
	n := e.history.Len()
	e.close()
	e.log.Info("mask cancelled", slog.Int("strokes", n))
	telemetry.Event("mask_cancelled", nil)
	if e.opts.OnClose != nil {
		e.opts.OnClose()
	}
}

func (e *Editor) close() {
	e.rev++
	e.current = nil
	e.history.Clear()
	e.state = StateClosed
	_ = e.surface.Close()
}

func (e *Editor) replay(s *Surface) error {
	for st := range e.history.All() {
		if err := s.DrawStroke(st); err != nil {
			return err
		}
	}
	return nil
}

// viewport pairs the native size with the display size carried by p.
func (e *Editor) viewport(p Pointer) vector.Viewport {
	return vector.Viewport{Native: e.native, Display: p.Display}
}

// paint logs renderer failures; the interaction itself carries on.
func (e *Editor) paint(err error) {
	if err != nil {
		e.log.Warn("paint failed", slog.Any("err", err))
	}
}

func premultiply(c vector.Color, a float64) color.RGBA {
	a = min(max(a, 0), 1)
	return color.RGBA{
		R: uint8(float64(c.R)*a + 0.5),
		G: uint8(float64(c.G)*a + 0.5),
		B: uint8(float64(c.B)*a + 0.5),
		A: uint8(255*a + 0.5),
	}
}
