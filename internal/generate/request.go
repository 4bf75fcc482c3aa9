/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package generate builds viewpoint generation requests and sends them to an
// image model.
package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"viewpointgen/internal/imageio"
)

var (
	// ErrNoImage means the model answered without an image; Result.Text holds its reply.
	ErrNoImage = errors.New("generation returned no image")
	// ErrMaskPromptRequired means a mask was attached without instructions for it.
	ErrMaskPromptRequired = errors.New("instructions for the selected area are required")
	// ErrNoInput means the request has no source image.
	ErrNoInput = errors.New("no source image")
	// ErrBlocked means the service refused the content.
	ErrBlocked = errors.New("content blocked by safety settings")
)

// Season of the generated scene.
type Season int

const (
	Winter Season = iota
	Spring
	Summer
	Autumn
)

var seasonNames = [...]string{"Winter", "Spring", "Summer", "Autumn"}

func (s Season) String() string {
	if s < 0 || int(s) >= len(seasonNames) {
		return fmt.Sprintf("Season(%d)", int(s))
	}
	return seasonNames[s]
}

// Seasons lists all seasons in slider order.
func Seasons() []Season { return []Season{Winter, Spring, Summer, Autumn} }

// ParseSeason matches a season name case-insensitively.
func ParseSeason(s string) (Season, error) {
	for i, n := range seasonNames {
		if strings.EqualFold(strings.TrimSpace(s), n) {
			return Season(i), nil
		}
	}
	return Summer, fmt.Errorf("unknown season %q", s)
}

// TimeOfDay of the generated scene.
type TimeOfDay int

const (
	Dawn TimeOfDay = iota
	Daytime
	Dusk
	Night
)

var timeNames = [...]string{"Dawn", "Daytime", "Dusk", "Night"}

func (t TimeOfDay) String() string {
	if t < 0 || int(t) >= len(timeNames) {
		return fmt.Sprintf("TimeOfDay(%d)", int(t))
	}
	return timeNames[t]
}

// Times lists all times of day in slider order.
func Times() []TimeOfDay { return []TimeOfDay{Dawn, Daytime, Dusk, Night} }

// ParseTimeOfDay matches a time-of-day name case-insensitively.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for i, n := range timeNames {
		if strings.EqualFold(strings.TrimSpace(s), n) {
			return TimeOfDay(i), nil
		}
	}
	return Daytime, fmt.Errorf("unknown time of day %q", s)
}

// Request is one generation call.
type Request struct {
	Image        imageio.Part
	Season       Season
	TimeOfDay    TimeOfDay
	CustomPrompt string
	// Mask optionally restricts the change to the painted region.
	Mask       *imageio.Part
	MaskPrompt string
}

// NewRequest returns a request with the default scene (Summer, Daytime).
func NewRequest(img imageio.Part) Request {
	return Request{Image: img, Season: Summer, TimeOfDay: Daytime}
}

// Validate checks the request before anything is sent.
func (r Request) Validate() error {
	if r.Image.Empty() {
		return ErrNoInput
	}
	if r.Mask != nil && !r.Mask.Empty() && strings.TrimSpace(r.MaskPrompt) == "" {
		return ErrMaskPromptRequired
	}
	return nil
}

func (r Request) masked() bool { return r.Mask != nil && !r.Mask.Empty() }

// BuildPrompt renders the text instruction sent alongside the images.
func BuildPrompt(r Request) string {
	var b strings.Builder
	b.WriteString("Generate a new photorealistic view of the building shown in the first image. ")
	b.WriteString("Keep its architecture, materials and proportions recognisable. ")
	fmt.Fprintf(&b, "The current season is %s. ", r.Season)
	fmt.Fprintf(&b, "The time of day is %s.", r.TimeOfDay)
	if c := strings.TrimSpace(r.CustomPrompt); c != "" {
		fmt.Fprintf(&b, " Additional details: %s", c)
	}
	if r.masked() {
		b.WriteString(" The second image is a mask with the same dimensions as the first: opaque white pixels mark the selected area and transparent pixels must stay unchanged.")
		fmt.Fprintf(&b, " Apply this change only inside the selected area: %s", strings.TrimSpace(r.MaskPrompt))
	}
	return b.String()
}

// Result is what the model returned.
type Result struct {
	Image  *imageio.Part
	Prompt string
	Text   string
}

// Generator produces a new view for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (Result, error)
}
