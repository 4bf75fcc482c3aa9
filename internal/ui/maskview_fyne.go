//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"viewpointgen/internal/mask"
	"viewpointgen/internal/vector"
)

// MaskView paints on a mask.Editor. The background is letterboxed into the
// widget; pointer positions are reported relative to the fitted image with its
// current on-screen size, so resizing mid-stroke keeps the stroke in place.
type MaskView struct {
	widget.BaseWidget

	ed *mask.Editor

	// OnChange fires after every edit that changes the overlay.
	OnChange func()

	hover    fyne.Position
	hovering bool
	// pressed is set while a mouse press, not a drag, opened the stroke.
	pressed bool
}

func NewMaskView(ed *mask.Editor) *MaskView {
	v := &MaskView{ed: ed}
	v.ExtendBaseWidget(v)
	return v
}

// Editor returns the editor driven by v.
func (v *MaskView) Editor() *mask.Editor { return v.ed }

// imageRect is the letterboxed area of the background inside size.
func (v *MaskView) imageRect(size fyne.Size) (fyne.Position, fyne.Size) {
	w, h := v.ed.NativeSize()
	fit := vector.FitSize(vector.Size{W: float32(w), H: float32(h)}, vector.Size{W: size.Width, H: size.Height})
	off := fyne.NewPos((size.Width-fit.W)/2, (size.Height-fit.H)/2)
	return off, fyne.NewSize(fit.W, fit.H)
}

// pointer converts a widget-space position into an editor event.
func (v *MaskView) pointer(pos fyne.Position) mask.Pointer {
	off, disp := v.imageRect(v.Size())
	return mask.Pointer{
		Pos:     vector.Pt{X: pos.X - off.X, Y: pos.Y - off.Y},
		Display: vector.Size{W: disp.Width, H: disp.Height},
	}
}

func (v *MaskView) MinSize() fyne.Size { return fyne.NewSize(320, 240) }

// MouseDown opens the stroke where the primary button went down. Fyne only
// reports Dragged once the pointer has left its drag threshold.
func (v *MaskView) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary || v.ed.State() != mask.StateIdle {
		return
	}
	v.ed.BeginStroke(v.pointer(e.Position))
	v.pressed = v.ed.State() == mask.StateDrawing
	v.hover, v.hovering = e.Position, true
	v.changed()
}

// MouseUp closes a stroke a press opened; a no-op when DragEnd already did.
func (v *MaskView) MouseUp(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary || v.ed.State() != mask.StateDrawing {
		return
	}
	v.ed.CommitStroke()
	v.changed()
}

func (v *MaskView) Dragged(e *fyne.DragEvent) {
	p := v.pointer(e.Position)
	if v.ed.State() == mask.StateDrawing {
		v.ed.ExtendStroke(p)
	} else {
		v.ed.BeginStroke(p)
	}
	v.hover, v.hovering = e.Position, true
	v.changed()
}

func (v *MaskView) DragEnd() {
	v.pressed = false
	v.ed.CommitStroke()
	v.changed()
}

// Tapped leaves a single dab. On desktop the press already painted it.
func (v *MaskView) Tapped(e *fyne.PointEvent) {
	if v.pressed {
		v.pressed = false
		v.ed.CommitStroke()
		return
	}
	v.ed.BeginStroke(v.pointer(e.Position))
	v.ed.CommitStroke()
	v.changed()
}

func (v *MaskView) MouseIn(e *desktop.MouseEvent) {
	v.hover, v.hovering = e.Position, true
	v.Refresh()
}

func (v *MaskView) MouseMoved(e *desktop.MouseEvent) {
	v.hover = e.Position
	v.Refresh()
}

func (v *MaskView) MouseOut() {
	v.hovering = false
	v.Refresh()
}

// Undo removes the last committed stroke.
func (v *MaskView) Undo() {
	v.ed.Undo()
	v.changed()
}

// SetBrushSize sets the radius in on-screen pixels.
func (v *MaskView) SetBrushSize(r float64) {
	v.ed.SetBrushSize(r)
	v.Refresh()
}

func (v *MaskView) changed() {
	v.Refresh()
	if v.OnChange != nil {
		v.OnChange()
	}
}

// CreateRenderer stacks the background, which is drawn once, under the paint
// overlay, which is kept at on-screen resolution and redrawn incrementally.
func (v *MaskView) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 30, G: 30, B: 34, A: 255})
	img := canvas.NewImageFromImage(v.ed.Background())
	img.FillMode = canvas.ImageFillStretch
	_, opacity := v.ed.Overlay()
	overlay := &canvas.Image{
		FillMode:  canvas.ImageFillStretch,
		ScaleMode: canvas.ImageScaleFastest,
	}
	overlay.Translucency = 1 - opacity
	cursor := canvas.NewCircle(color.Transparent)
	cursor.StrokeColor = color.White
	cursor.StrokeWidth = 1
	cursor.Hide()
	return &maskViewRenderer{
		v:       v,
		bg:      bg,
		img:     img,
		overlay: overlay,
		layer:   mask.NewOverlay(),
		cursor:  cursor,
		objects: []fyne.CanvasObject{bg, img, overlay, cursor},
	}
}

type maskViewRenderer struct {
	v       *MaskView
	bg      *canvas.Rectangle
	img     *canvas.Image
	overlay *canvas.Image
	layer   *mask.Overlay
	cursor  *canvas.Circle
	objects []fyne.CanvasObject
}

func (r *maskViewRenderer) Destroy()                     { _ = r.layer.Close() }
func (r *maskViewRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *maskViewRenderer) MinSize() fyne.Size           { return r.v.MinSize() }

func (r *maskViewRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))
	off, disp := r.v.imageRect(size)
	r.img.Move(off)
	r.img.Resize(disp)
	r.overlay.Move(off)
	r.overlay.Resize(disp)
	r.syncOverlay(disp)

	rad := float32(r.v.ed.BrushSize())
	if r.v.hovering && r.v.ed.State() != mask.StateClosed {
		r.cursor.Move(fyne.NewPos(r.v.hover.X-rad, r.v.hover.Y-rad))
		r.cursor.Resize(fyne.NewSize(2*rad, 2*rad))
		r.cursor.Show()
	} else {
		r.cursor.Hide()
	}
}

// syncOverlay draws whatever the editor painted since the last call, at the
// device pixel size of the fitted image.
func (r *maskViewRenderer) syncOverlay(disp fyne.Size) {
	scale := float32(1)
	if app := fyne.CurrentApp(); app != nil {
		if c := app.Driver().CanvasForObject(r.v); c != nil {
			scale = c.Scale()
		}
	}
	w, h := int(disp.Width*scale+0.5), int(disp.Height*scale+0.5)
	if img, changed := r.layer.Sync(r.v.ed, w, h); changed {
		r.overlay.Image = img
		canvas.Refresh(r.overlay)
	}
}

func (r *maskViewRenderer) Refresh() {
	r.Layout(r.v.Size())
	canvas.Refresh(r.cursor)
}
