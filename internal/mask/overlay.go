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
	"image"
	"log/slog"

	"viewpointgen/internal/vector"
)

// Overlay is the editor's paint layer redrawn at display resolution in the
// tint color, for views that show the background as a separate static image.
// It follows the editor incrementally: after the first sync, each call only
// draws the segments added since the previous one. Resizing or undoing starts
// it over.
//
// The overlay is fully opaque where painted; the view applies the editor's
// opacity when it composes the layer.
type Overlay struct {
	surf  *Surface
	log   *slog.Logger
	w, h  int
	rev   uint64
	done  int // committed strokes drawn
	drawn int // points of the open stroke drawn
}

// NewOverlay returns an empty overlay. The first Sync allocates it.
func NewOverlay() *Overlay { return &Overlay{} }

// Sync brings the overlay up to date with e at a display size of w x h and
// reports whether anything was drawn. img is nil until the first sync.
func (o *Overlay) Sync(e *Editor, w, h int) (img *image.RGBA, changed bool) {
	w, h = max(w, 1), max(h, 1)
	if e.state == StateClosed {
		return o.Image(), false
	}
	if o.surf == nil || w != o.w || h != o.h || e.rev != o.rev || e.history.Len() < o.done {
		o.reset(e, w, h)
		changed = true
	}
	vp := vector.Viewport{Native: e.native, Display: vector.Size{W: float32(w), H: float32(h)}}
	switch n := e.history.Len(); {
	case n == o.done+1:
		// The stroke drawn as open so far has just been committed.
		st, _ := e.history.Last()
		changed = o.draw(vp, st, o.drawn) || changed
		o.done, o.drawn = n, 0
	case n > o.done:
		i := 0
		for st := range e.history.All() {
			if i >= o.done {
				from := 0
				if i == o.done {
					from = o.drawn
				}
				changed = o.draw(vp, st, from) || changed
			}
			i++
		}
		o.done, o.drawn = n, 0
	}
	if e.current != nil {
		if o.draw(vp, *e.current, o.drawn) {
			changed = true
		}
		o.drawn = len(e.current.Points)
	}
	return o.Image(), changed
}

// Image returns the last synced overlay, or nil before the first Sync.
func (o *Overlay) Image() *image.RGBA {
	if o.surf == nil {
		return nil
	}
	return o.surf.Image()
}

// Close releases the renderer.
func (o *Overlay) Close() error {
	if o.surf == nil {
		return nil
	}
	err := o.surf.Close()
	o.surf = nil
	return err
}

func (o *Overlay) reset(e *Editor, w, h int) {
	if o.surf != nil {
		_ = o.surf.Close()
	}
	o.surf = newSurfaceColor(w, h, e.opts.Tint)
	o.log = e.log
	o.w, o.h, o.rev = w, h, e.rev
	o.done, o.drawn = 0, 0
}

// draw paints st from point index from onwards, mapped from native space to
// the overlay's display space, with the same Dab and Segment sequence the
// native surface uses.
func (o *Overlay) draw(vp vector.Viewport, st Stroke, from int) bool {
	if from >= len(st.Points) {
		return false
	}
	r := st.Radius / vp.Scale()
	var err error
	if from == 0 {
		err = o.surf.Dab(vp.ToDisplay(st.Points[0]), r)
		from = 1
	}
	for i := from; i < len(st.Points) && err == nil; i++ {
		err = o.surf.Segment(vp.ToDisplay(st.Points[i-1]), vp.ToDisplay(st.Points[i]), r)
	}
	if err != nil {
		o.log.Warn("overlay paint failed", slog.Any("err", err))
	}
	return true
}
