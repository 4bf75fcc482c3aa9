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
	"image/color"
	"math"

	"github.com/gogpu/gg"
	"golang.org/x/image/draw"

	"viewpointgen/internal/vector"
)

// Surface is the backing raster strokes are painted onto. Paint is opaque
// white on a transparent ground; only the alpha channel carries meaning.
//
// Incremental drawing and replay go through the same two primitives, Dab for
// the first point and Segment for every following one, so redrawing a stroke
// list reproduces the incremental result exactly.
type Surface struct {
	dc *gg.Context
}

// NewSurface allocates a transparent w x h surface.
func NewSurface(w, h int) *Surface {
	return newSurfaceColor(w, h, vector.Color{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF})
}

// newSurfaceColor is NewSurface painting in c instead of white.
func newSurfaceColor(w, h int, c vector.Color) *Surface {
	dc := gg.NewContext(max(w, 1), max(h, 1))
	dc.Clear()
	dc.SetRGBA(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255, float64(c.A)/255)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)
	return &Surface{dc: dc}
}

func (s *Surface) Width() int  { return s.dc.Width() }
func (s *Surface) Height() int { return s.dc.Height() }

// Dab paints a filled disc.
func (s *Surface) Dab(p vector.Pt, r float32) error {
	s.dc.DrawCircle(float64(p.X), float64(p.Y), float64(r))
	return s.dc.Fill()
}

// Segment paints a round-capped line of width 2r from a to b.
func (s *Surface) Segment(a, b vector.Pt, r float32) error {
	s.dc.SetLineWidth(float64(2 * r))
	s.dc.MoveTo(float64(a.X), float64(a.Y))
	s.dc.LineTo(float64(b.X), float64(b.Y))
	return s.dc.Stroke()
}

// DrawStroke paints a whole stroke.
func (s *Surface) DrawStroke(st Stroke) error {
	if len(st.Points) == 0 {
		return nil
	}
	if err := s.Dab(st.Points[0], st.Radius); err != nil {
		return err
	}
	for i := 1; i < len(st.Points); i++ {
		if err := s.Segment(st.Points[i-1], st.Points[i], st.Radius); err != nil {
			return err
		}
	}
	return nil
}

// Clear resets every pixel to transparent.
func (s *Surface) Clear() { s.dc.Clear() }

// Image returns a snapshot of the surface.
func (s *Surface) Image() *image.RGBA {
	src := s.dc.Image()
	if rgba, ok := src.(*image.RGBA); ok {
		return rgba
	}
	dst := image.NewRGBA(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	return dst
}

// Close releases renderer resources.
func (s *Surface) Close() error { return s.dc.Close() }

// Binarize maps coverage to the mask convention: alpha >= 128 becomes opaque
// white, anything else fully transparent.
func Binarize(src image.Image) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	on := color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF}
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			_, _, _, a := src.At(b.Min.X+x, b.Min.Y+y).RGBA()
			if a>>8 >= alphaThreshold {
				dst.SetNRGBA(x, y, on)
			}
		}
	}
	return dst
}

const alphaThreshold = 128

// stampPoints marks the pixel containing each point as selected, so a stroke
// always shows up in the artifact however thin its anti-aliased footprint.
func stampPoints(dst *image.NRGBA, pts []vector.Pt) {
	on := color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF}
	b := dst.Bounds()
	for _, p := range pts {
		x, y := int(math.Floor(float64(p.X))), int(math.Floor(float64(p.Y)))
		if image.Pt(x, y).In(b) {
			dst.SetNRGBA(x, y, on)
		}
	}
}
