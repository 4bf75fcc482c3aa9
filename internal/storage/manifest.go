/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"viewpointgen/internal/imageio"
)

// ErrInvalidManifest wraps schema violations and malformed JSON on import.
var ErrInvalidManifest = errors.New("invalid history manifest")

const manifestVersion = 1

//go:embed history.schema.json
var manifestSchema []byte

// Manifest is the portable JSON form of a session history.
type Manifest struct {
	Version    int             `json:"version"`
	ExportedAt time.Time       `json:"exported_at"`
	Items      []ManifestEntry `json:"items"`
}

type ManifestEntry struct {
	ID         string    `json:"id"`
	MIMEType   string    `json:"mime_type"`
	Data       string    `json:"data"`
	Prompt     string    `json:"prompt,omitempty"`
	IsOriginal bool      `json:"is_original,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ExportManifest writes every item of s as indented JSON, oldest first.
func ExportManifest(ctx context.Context, s Store, w io.Writer) (int, error) {
	items, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	slices.Reverse(items)
	m := Manifest{Version: manifestVersion, ExportedAt: time.Now().UTC(), Items: make([]ManifestEntry, 0, len(items))}
	for _, it := range items {
		m.Items = append(m.Items, ManifestEntry{
			ID:         it.ID,
			MIMEType:   it.Image.MIMEType,
			Data:       it.Image.Base64(),
			Prompt:     it.Prompt,
			IsOriginal: it.IsOriginal,
			CreatedAt:  it.CreatedAt,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return 0, fmt.Errorf("write manifest: %w", err)
	}
	return len(m.Items), nil
}

// ValidateManifest checks data against the embedded schema.
func ValidateManifest(data []byte) error {
	res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(manifestSchema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidManifest, strings.Join(msgs, "; "))
	}
	return nil
}

// ImportManifest validates r and loads it into s. A manifest with an
// original item resets the store around that item; one without is appended
// to the existing history. Only the first original is kept as original.
func ImportManifest(ctx context.Context, s Store, r io.Reader) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("read manifest: %w", err)
	}
	if err := ValidateManifest(data); err != nil {
		return 0, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	items := make([]Item, 0, len(m.Items))
	for i, e := range m.Items {
		p, err := imageio.PartFromBase64(e.Data, e.MIMEType)
		if err != nil {
			return 0, fmt.Errorf("%w: item %d: %v", ErrInvalidManifest, i, err)
		}
		items = append(items, Item{ID: e.ID, Image: p, Prompt: e.Prompt, IsOriginal: e.IsOriginal, CreatedAt: e.CreatedAt})
	}
	if i := slices.IndexFunc(items, func(it Item) bool { return it.IsOriginal }); i >= 0 {
		if _, err := s.Reset(ctx, items[i]); err != nil {
			return 0, err
		}
		items = slices.Delete(items, i, i+1)
	}
	for _, it := range items {
		it.IsOriginal = false
		if _, err := s.Add(ctx, it); err != nil {
			return 0, err
		}
	}
	return len(m.Items), nil
}
