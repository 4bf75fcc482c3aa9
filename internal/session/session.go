/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package session holds the state of one working session: the input image,
// the optional mask, scene settings, the generated view and its history.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"viewpointgen/internal/export"
	"viewpointgen/internal/generate"
	"viewpointgen/internal/i18n"
	"viewpointgen/internal/imageio"
	applog "viewpointgen/internal/log"
	"viewpointgen/internal/mask"
	"viewpointgen/internal/storage"
	"viewpointgen/internal/telemetry"
)

var (
	// ErrNoOriginal means nothing has been uploaded yet.
	ErrNoOriginal = errors.New("upload an image first")
	// ErrBusy means a generation is already running.
	ErrBusy = errors.New("generation already in progress")
	// ErrNoCurrent means there is no generated view to act on.
	ErrNoCurrent = errors.New("no generated view")
	// ErrNoGenerator means no API key was configured.
	ErrNoGenerator = errors.New("no generator configured")
)

// Session is safe for use from the UI goroutine and a generation goroutine.
type Session struct {
	id    string
	store storage.Store
	gen   generate.Generator
	log   *slog.Logger

	mu           sync.Mutex
	original     *imageio.Part
	mask         *imageio.Part
	maskPrompt   string
	season       generate.Season
	timeOfDay    generate.TimeOfDay
	customPrompt string
	current      *storage.Item
	busy         bool
}

// New starts a session over store. gen may be nil until a key is configured.
func New(store storage.Store, gen generate.Generator) *Session {
	id := storage.NewID()
	return &Session{
		id:        id,
		store:     store,
		gen:       gen,
		log:       applog.WithComponent("session").With(slog.String("session", id)),
		season:    generate.Summer,
		timeOfDay: generate.Daytime,
	}
}

func (s *Session) ID() string { return s.id }

// Context tags ctx with the session ID for logging.
func (s *Session) Context(ctx context.Context) context.Context { return applog.WithSession(ctx, s.id) }

// SetGenerator swaps the generation backend.
func (s *Session) SetGenerator(g generate.Generator) {
	s.mu.Lock()
	s.gen = g
	s.mu.Unlock()
}

// Upload makes p the new input image. Mask, current view and history are
// discarded and the history restarts with p as the original.
func (s *Session) Upload(ctx context.Context, p imageio.Part) error {
	if _, err := imageio.Decode(p); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	if _, err := s.store.Reset(ctx, storage.Item{Image: p, IsOriginal: true}); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	s.mu.Lock()
	s.original = &p
	s.mask = nil
	s.maskPrompt = ""
	s.current = nil
	s.mu.Unlock()
	s.log.InfoContext(ctx, "image uploaded", slog.String("mime", p.MIMEType), slog.Int("bytes", len(p.Data)))
	return nil
}

// Original returns the current input image.
func (s *Session) Original() (imageio.Part, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.original == nil {
		return imageio.Part{}, false
	}
	return *s.original, true
}

// OpenMaskEditor starts a mask editor over the input image. A save stores
// the artifact as the session mask before opts.OnSave runs.
func (s *Session) OpenMaskEditor(opts mask.Options) (*mask.Editor, error) {
	orig, ok := s.Original()
	if !ok {
		return nil, ErrNoOriginal
	}
	onSave := opts.OnSave
	opts.OnSave = func(p imageio.Part) {
		s.SaveMask(p)
		if onSave != nil {
			onSave(p)
		}
	}
	return mask.Open(orig, opts)
}

// SaveMask attaches a mask to the next generation.
func (s *Session) SaveMask(p imageio.Part) {
	s.mu.Lock()
	s.mask = &p
	s.mu.Unlock()
	s.log.Debug("mask attached", slog.Int("bytes", len(p.Data)))
}

// ClearMask detaches the mask and its instructions.
func (s *Session) ClearMask() {
	s.mu.Lock()
	s.mask = nil
	s.maskPrompt = ""
	s.mu.Unlock()
}

// Mask returns the attached mask.
func (s *Session) Mask() (imageio.Part, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mask == nil {
		return imageio.Part{}, false
	}
	return *s.mask, true
}

func (s *Session) SetMaskPrompt(v string) {
	s.mu.Lock()
	s.maskPrompt = v
	s.mu.Unlock()
}

func (s *Session) SetScene(season generate.Season, tod generate.TimeOfDay) {
	s.mu.Lock()
	s.season, s.timeOfDay = season, tod
	s.mu.Unlock()
}

func (s *Session) SetCustomPrompt(v string) {
	s.mu.Lock()
	s.customPrompt = v
	s.mu.Unlock()
}

// Request assembles the generation request from the current state.
func (s *Session) Request() (generate.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requestLocked()
}

func (s *Session) requestLocked() (generate.Request, error) {
	if s.original == nil {
		return generate.Request{}, ErrNoOriginal
	}
	req := generate.Request{
		Image:        *s.original,
		Season:       s.season,
		TimeOfDay:    s.timeOfDay,
		CustomPrompt: s.customPrompt,
		MaskPrompt:   s.maskPrompt,
	}
	if s.mask != nil {
		m := *s.mask
		req.Mask = &m
	}
	return req, req.Validate()
}

// Generate sends the current request and records the result in history.
// It blocks for the duration of the call; only one may run at a time.
func (s *Session) Generate(ctx context.Context) (storage.Item, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return storage.Item{}, ErrBusy
	}
	req, err := s.requestLocked()
	gen := s.gen
	if err == nil && gen == nil {
		err = ErrNoGenerator
	}
	if err != nil {
		s.mu.Unlock()
		return storage.Item{}, err
	}
	s.busy = true
	s.current = nil
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	ctx = s.Context(ctx)
	masked := req.Mask != nil
	telemetry.Event(telemetry.GenerationRequested, map[string]any{"masked": masked, "custom": strings.TrimSpace(req.CustomPrompt) != ""})
	res, err := gen.Generate(ctx, req)
	if err != nil {
		telemetry.Event(telemetry.GenerationFailed, map[string]any{"no_image": errors.Is(err, generate.ErrNoImage)})
		s.log.WarnContext(ctx, "generation failed", slog.Any("err", err))
		return storage.Item{}, err
	}
	it, err := s.store.Add(ctx, storage.Item{Image: *res.Image, Prompt: res.Prompt})
	if err != nil {
		return storage.Item{}, fmt.Errorf("record history: %w", err)
	}
	s.mu.Lock()
	s.current = &it
	s.mu.Unlock()
	s.log.InfoContext(ctx, "view generated", slog.String("item", it.ID), slog.Bool("masked", masked))
	return it, nil
}

// Busy reports whether a generation is running.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Current returns the displayed view.
func (s *Session) Current() (storage.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return storage.Item{}, false
	}
	return *s.current, true
}

// UseAsInput promotes the displayed view to input image. History is kept;
// the mask no longer matches and is dropped.
func (s *Session) UseAsInput() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ErrNoCurrent
	}
	img := s.current.Image
	s.original = &img
	s.current = nil
	s.mask = nil
	s.maskPrompt = ""
	return nil
}

// SelectHistory displays a history item.
func (s *Session) SelectHistory(ctx context.Context, id string) (storage.Item, error) {
	it, err := s.store.Get(ctx, id)
	if err != nil {
		return storage.Item{}, err
	}
	s.mu.Lock()
	s.current = &it
	s.mu.Unlock()
	return it, nil
}

// History lists the session history, newest first.
func (s *Session) History(ctx context.Context) ([]storage.Item, error) { return s.store.List(ctx) }

// ClearHistory keeps only the original.
func (s *Session) ClearHistory(ctx context.Context) error { return s.store.ClearGenerated(ctx) }

// Rescue writes the input image, mask and current view into dir. It
// implements crash.Rescuer.
func (s *Session) Rescue(dir string) (string, error) {
	s.mu.Lock()
	parts := map[string]*imageio.Part{"input": s.original, "mask": s.mask}
	if s.current != nil {
		parts["view"] = &s.current.Image
	}
	s.mu.Unlock()

	base := filepath.Join(dir, "session-"+s.id)
	var errs []error
	for name, p := range parts {
		if p == nil || p.Empty() {
			continue
		}
		if _, err := export.WriteArtifact(filepath.Join(base, name), *p); err != nil {
			errs = append(errs, err)
		}
	}
	return base, errors.Join(errs...)
}

// UserMessage renders err for display in lang. Known failures get the
// translated text; anything else is shown as is.
func UserMessage(lang i18n.Language, err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoOriginal), errors.Is(err, generate.ErrNoInput):
		return i18n.T(lang, i18n.KeyErrorUploadFirst)
	case errors.Is(err, generate.ErrMaskPromptRequired):
		return i18n.T(lang, i18n.KeyErrorMaskPrompt)
	case errors.Is(err, generate.ErrNoImage):
		return i18n.T(lang, i18n.KeyErrorNoImage) + "\n" + err.Error()
	case errors.Is(err, imageio.ErrUnsupportedType), errors.Is(err, imageio.ErrDecode):
		return i18n.T(lang, i18n.KeyErrorInvalidFile)
	}
	return err.Error()
}
