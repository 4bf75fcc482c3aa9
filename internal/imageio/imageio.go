/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package imageio moves images across the application boundary: it decodes
// uploaded bytes, encodes rasters losslessly, and carries both as a Part
// (bytes plus MIME type), the representation the generation service accepts.
package imageio

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

const (
	MIMEPNG  = "image/png"
	MIMEJPEG = "image/jpeg"
	MIMEWebP = "image/webp"
	MIMEBMP  = "image/bmp"
	MIMETIFF = "image/tiff"
)

var (
	// ErrUnsupportedType is returned for MIME types the decoder does not handle.
	ErrUnsupportedType = errors.New("unsupported image type")
	// ErrDecode is returned when bytes cannot be decoded as the declared type.
	ErrDecode = errors.New("image decode failed")
)

// Part is an encoded image together with its MIME type.
type Part struct {
	Data     []byte
	MIMEType string
}

// Empty reports whether the part carries no bytes.
func (p Part) Empty() bool { return len(p.Data) == 0 }

// Base64 returns the standard base64 encoding of the image bytes.
func (p Part) Base64() string { return base64.StdEncoding.EncodeToString(p.Data) }

// DataURL renders the part as a data: URL.
func (p Part) DataURL() string { return "data:" + p.MIMEType + ";base64," + p.Base64() }

// Ext returns the file extension matching the MIME type, "png" when unknown.
func (p Part) Ext() string {
	switch normalizeMIME(p.MIMEType) {
	case MIMEJPEG:
		return "jpg"
	case MIMEWebP:
		return "webp"
	case MIMEBMP:
		return "bmp"
	case MIMETIFF:
		return "tiff"
	default:
		return "png"
	}
}

// PartFromBase64 decodes a base64 payload into a Part.
func PartFromBase64(b64, mimeType string) (Part, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(b64))
	if err != nil {
		return Part{}, fmt.Errorf("decode base64: %w", err)
	}
	return Part{Data: data, MIMEType: normalizeMIME(mimeType)}, nil
}

// ReadFile loads an image file, sniffing the MIME type from its content and
// falling back to the file extension.
func ReadFile(path string) (Part, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Part{}, fmt.Errorf("read image: %w", err)
	}
	return Part{Data: data, MIMEType: Sniff(data, filepath.Ext(path))}, nil
}

// Sniff guesses the MIME type of data; ext (".png", "jpg", ...) breaks ties.
func Sniff(data []byte, ext string) string {
	if ct := normalizeMIME(http.DetectContentType(data)); isSupported(ct) {
		return ct
	}
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "png":
		return MIMEPNG
	case "jpg", "jpeg":
		return MIMEJPEG
	case "webp":
		return MIMEWebP
	case "bmp":
		return MIMEBMP
	case "tif", "tiff":
		return MIMETIFF
	}
	return "application/octet-stream"
}

// Decode decodes p according to its MIME type.
func Decode(p Part) (image.Image, error) {
	mt := normalizeMIME(p.MIMEType)
	if !isSupported(mt) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, p.MIMEType)
	}
	if len(p.Data) == 0 {
		return nil, fmt.Errorf("%w: empty %s payload", ErrDecode, mt)
	}
	r := bytes.NewReader(p.Data)
	var (
		img image.Image
		err error
	)
	switch mt {
	case MIMEPNG:
		img, err = png.Decode(r)
	case MIMEJPEG:
		img, err = jpeg.Decode(r)
	case MIMEWebP:
		img, err = webp.Decode(r)
	case MIMEBMP:
		img, err = bmp.Decode(r)
	case MIMETIFF:
		img, err = tiff.Decode(r)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, mt, err)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: %s has no pixels", ErrDecode, mt)
	}
	return img, nil
}

// EncodePNG losslessly encodes img.
func EncodePNG(img image.Image) (Part, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return Part{}, fmt.Errorf("encode png: %w", err)
	}
	return Part{Data: buf.Bytes(), MIMEType: MIMEPNG}, nil
}

// Thumbnail downscales img to fit within maxW x maxH keeping its aspect ratio.
// Images already small enough are returned as-is.
func Thumbnail(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	if maxW <= 0 || maxH <= 0 || (b.Dx() <= maxW && b.Dy() <= maxH) {
		return img
	}
	s := min(float64(maxW)/float64(b.Dx()), float64(maxH)/float64(b.Dy()))
	w := max(1, int(float64(b.Dx())*s+0.5))
	h := max(1, int(float64(b.Dy())*s+0.5))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func normalizeMIME(mt string) string {
	mt = strings.ToLower(strings.TrimSpace(mt))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	switch mt {
	case "image/jpg", "image/pjpeg":
		return MIMEJPEG
	case "image/x-ms-bmp":
		return MIMEBMP
	}
	return mt
}

func isSupported(mt string) bool {
	switch mt {
	case MIMEPNG, MIMEJPEG, MIMEWebP, MIMEBMP, MIMETIFF:
		return true
	}
	return false
}
