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
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"viewpointgen/internal/imageio"
)

func part(s string) imageio.Part { return imageio.Part{Data: []byte(s), MIMEType: imageio.MIMEPNG} }

// exerciseStore runs the behaviour every Store must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	orig, err := s.Reset(ctx, Item{Image: part("orig"), CreatedAt: base})
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if !orig.IsOriginal || orig.Prompt != OriginalPrompt || orig.ID == "" {
		t.Fatalf("original = %+v", orig)
	}
	for i, p := range []string{"first", "second"} {
		if _, err := s.Add(ctx, Item{Image: part(p), Prompt: p, CreatedAt: base.Add(time.Duration(i+1) * time.Minute)}); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	items, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 3 || items[0].Prompt != "second" || items[1].Prompt != "first" || !items[2].IsOriginal {
		t.Fatalf("List order = %v", prompts(items))
	}
	if !items[0].CreatedAt.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("CreatedAt = %v", items[0].CreatedAt)
	}

	got, err := s.Get(ctx, orig.ID)
	if err != nil || string(got.Image.Data) != "orig" || got.Image.MIMEType != imageio.MIMEPNG {
		t.Fatalf("Get = %+v, %v", got, err)
	}
	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing err = %v", err)
	}

	if err := s.ClearGenerated(ctx); err != nil {
		t.Fatalf("ClearGenerated: %v", err)
	}
	items, _ = s.List(ctx)
	if len(items) != 1 || items[0].ID != orig.ID {
		t.Fatalf("after ClearGenerated = %v", prompts(items))
	}

	if _, err := s.Add(ctx, Item{Image: part("x")}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	next, _ := s.Reset(ctx, Item{Image: part("new upload")})
	items, _ = s.List(ctx)
	if len(items) != 1 || items[0].ID != next.ID {
		t.Fatalf("Reset left stale items: %v", prompts(items))
	}
}

func prompts(items []Item) []string {
	var out []string
	for _, it := range items {
		out = append(out, it.Prompt)
	}
	return out
}

func TestMemoryStore(t *testing.T) { exerciseStore(t, NewMemoryStore()) }

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "h", "history.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestSQLiteStorePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.sqlite")
	s, err := Open(ctx, "SQLite", path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	it, _ := s.Add(ctx, Item{Image: part("kept"), Prompt: "p"})
	_ = s.Close()

	s, err = Open(ctx, DriverSQLite, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, err := s.Get(ctx, it.ID)
	if err != nil || string(got.Image.Data) != "kept" {
		t.Fatalf("Get after reopen = %+v, %v", got, err)
	}
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("AVG_PG_DSN")
	if dsn == "" {
		t.Skip("AVG_PG_DSN not set")
	}
	s, err := OpenPostgres(context.Background(), dsn)
	if err != nil {
		t.Fatalf("OpenPostgres: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()
	if s, err := Open(ctx, "", ""); err != nil {
		t.Fatalf("Open memory: %v", err)
	} else if _, ok := s.(*MemoryStore); !ok {
		t.Fatalf("empty driver gave %T", s)
	}
	if _, err := Open(ctx, "mongo", ""); err == nil {
		t.Fatalf("expected unknown driver error")
	}
	if _, err := Open(ctx, DriverSQLite, " "); err == nil {
		t.Fatalf("expected error for empty sqlite path")
	}
	if _, err := Open(ctx, DriverPostgres, ""); err == nil {
		t.Fatalf("expected error for empty postgres dsn")
	}
}

func TestDialectBind(t *testing.T) {
	q := "INSERT INTO t VALUES (?, ?, ?)"
	if got := postgresDialect.bind(q); got != "INSERT INTO t VALUES ($1, $2, $3)" {
		t.Fatalf("postgres bind = %q", got)
	}
	if got := sqliteDialect.bind(q); got != q {
		t.Fatalf("sqlite bind = %q", got)
	}
}

func TestNewIDIsSortable(t *testing.T) {
	a, b := NewID(), NewID()
	if len(a) != 26 || !(a < b) {
		t.Fatalf("ids %q, %q not increasing", a, b)
	}
}

func TestManifestRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := NewMemoryStore()
	_, _ = src.Reset(ctx, Item{Image: part("orig")})
	_, _ = src.Add(ctx, Item{Image: imageio.Part{Data: []byte("jpg"), MIMEType: imageio.MIMEJPEG}, Prompt: "winter", CreatedAt: time.Now().Add(time.Second)})

	var buf bytes.Buffer
	n, err := ExportManifest(ctx, src, &buf)
	if err != nil || n != 2 {
		t.Fatalf("ExportManifest = %d, %v", n, err)
	}
	if err := ValidateManifest(buf.Bytes()); err != nil {
		t.Fatalf("exported manifest does not validate: %v", err)
	}

	dst := NewMemoryStore()
	_, _ = dst.Add(ctx, Item{Image: part("stale")})
	if n, err := ImportManifest(ctx, dst, &buf); err != nil || n != 2 {
		t.Fatalf("ImportManifest = %d, %v", n, err)
	}
	want, _ := src.List(ctx)
	got, _ := dst.List(ctx)
	if len(got) != len(want) {
		t.Fatalf("imported %v, want %v", prompts(got), prompts(want))
	}
	for i := range want {
		if got[i].ID != want[i].ID || !bytes.Equal(got[i].Image.Data, want[i].Image.Data) || got[i].IsOriginal != want[i].IsOriginal {
			t.Fatalf("item %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestImportRejectsInvalidManifests(t *testing.T) {
	cases := map[string]string{
		"not json":      "{",
		"wrong version": `{"version": 2, "items": []}`,
		"missing data":  `{"version": 1, "items": [{"id": "a", "mime_type": "image/png", "created_at": "2025-01-01T00:00:00Z"}]}`,
		"bad mime":      `{"version": 1, "items": [{"id": "a", "mime_type": "text/plain", "data": "eA==", "created_at": "2025-01-01T00:00:00Z"}]}`,
		"extra field":   `{"version": 1, "items": [], "owner": "me"}`,
		"bad base64":    `{"version": 1, "items": [{"id": "a", "mime_type": "image/png", "data": "***", "created_at": "2025-01-01T00:00:00Z"}]}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			s := NewMemoryStore()
			_, err := ImportManifest(context.Background(), s, strings.NewReader(doc))
			if !errors.Is(err, ErrInvalidManifest) {
				t.Fatalf("err = %v, want ErrInvalidManifest", err)
			}
			if items, _ := s.List(context.Background()); len(items) != 0 {
				t.Fatalf("invalid manifest touched the store")
			}
		})
	}
}
