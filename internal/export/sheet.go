/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"

	"viewpointgen/internal/imageio"
	"viewpointgen/internal/vector"
	"viewpointgen/internal/version"
)

// ReviewSheet is a one-page summary of a masked edit. Any image may be empty
// and is then drawn as an empty frame.
type ReviewSheet struct {
	Title    string
	Original imageio.Part
	Preview  imageio.Part // background with the tinted selection
	Mask     imageio.Part
	Notes    string // typically the prompt
}

// A4 landscape in points.
const (
	sheetW  = 842.0
	sheetH  = 595.0
	margin  = 36.0
	gutter  = 18.0
	caption = 14.0
)

var frameColor = vector.Color{R: 160, G: 160, B: 160, A: 255}

// WriteReviewSheet lays out original, preview and mask side by side.
func WriteReviewSheet(path string, s ReviewSheet) error {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: sheetW, Ht: sheetH},
	})
	title := s.Title
	if title == "" {
		title = "Mask review"
	}
	pdf.SetTitle(title, true)
	pdf.SetCreator("Viewpoint Generator "+version.String(), true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Text(margin, margin+4, title)
	pdf.SetFont("Helvetica", "", 9)
	pdf.Text(margin, margin+18, time.Now().Format("2006-01-02 15:04"))

	top := margin + 40
	cellW := (sheetW - 2*margin - 2*gutter) / 3
	cellH := sheetH - top - margin - caption - 40
	panels := []struct {
		label string
		part  imageio.Part
		mask  bool
	}{
		{"Original", s.Original, false},
		{"Selection", s.Preview, false},
		{"Mask", s.Mask, true},
	}
	for i, p := range panels {
		x := margin + float64(i)*(cellW+gutter)
		pdf.SetFont("Helvetica", "", 11)
		pdf.Text(x, top+caption-3, p.label)
		if err := placeImage(pdf, fmt.Sprintf("img%d", i), p.part, p.mask, x, top+caption, cellW, cellH); err != nil {
			return fmt.Errorf("review sheet %s: %w", p.label, err)
		}
	}
	if s.Notes != "" {
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetXY(margin, sheetH-margin-30)
		pdf.MultiCell(sheetW-2*margin, 11, pdf.UnicodeTranslatorFromDescriptor("")(s.Notes), "", "L", false)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// placeImage fits p into the cell, centred, and frames the cell.
func placeImage(pdf *gofpdf.Fpdf, name string, p imageio.Part, isMask bool, x, y, w, h float64) error {
	setDrawColor(pdf, frameColor)
	pdf.SetLineWidth(0.5)
	pdf.Rect(x, y, w, h, "D")
	if p.Empty() {
		return nil
	}
	img, err := imageio.Decode(p)
	if err != nil {
		return err
	}
	if isMask {
		img = maskOnWhite(img)
	}
	png, err := imageio.EncodePNG(img)
	if err != nil {
		return err
	}
	pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png.Data))
	if err := pdf.Error(); err != nil {
		return err
	}
	b := img.Bounds()
	fit := vector.FitSize(vector.Size{W: float32(b.Dx()), H: float32(b.Dy())}, vector.Size{W: float32(w - 4), H: float32(h - 4)})
	fw, fh := float64(fit.W), float64(fit.H)
	pdf.ImageOptions(name, x+(w-fw)/2, y+(h-fh)/2, fw, fh, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	return pdf.Error()
}

// maskOnWhite renders selected pixels black on a white ground so the mask
// is visible on paper.
func maskOnWhite(src image.Image) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			_, _, _, a := src.At(b.Min.X+x, b.Min.Y+y).RGBA()
			v := uint8(255 - a>>8)
			dst.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return dst
}

func setDrawColor(pdf *gofpdf.Fpdf, c vector.Color) {
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}
