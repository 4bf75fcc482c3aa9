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
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"viewpointgen/internal/imageio"
)

// ErrNotFound is returned by Get for unknown IDs.
var ErrNotFound = errors.New("history item not found")

// OriginalPrompt labels the uploaded image in the history list.
const OriginalPrompt = "Original Image"

// Item is one entry of the session history: the uploaded original or a
// generated view together with the prompt that produced it.
type Item struct {
	ID         string
	Image      imageio.Part
	Prompt     string
	IsOriginal bool
	CreatedAt  time.Time
}

// Store keeps the history of one session.
type Store interface {
	// Add stores it, assigning an ID and timestamp when missing.
	Add(ctx context.Context, it Item) (Item, error)
	// List returns all items, newest first.
	List(ctx context.Context) ([]Item, error)
	Get(ctx context.Context, id string) (Item, error)
	// Reset drops everything and records original as the only item.
	Reset(ctx context.Context, original Item) (Item, error)
	// ClearGenerated drops every item except the original.
	ClearGenerated(ctx context.Context) error
	Close() error
}

// NewID returns a lexically sortable unique ID.
func NewID() string { return ulid.Make().String() }

func prepare(it Item) Item {
	if it.ID == "" {
		it.ID = NewID()
	}
	if it.CreatedAt.IsZero() {
		it.CreatedAt = time.Now()
	}
	it.CreatedAt = it.CreatedAt.UTC()
	if it.IsOriginal && it.Prompt == "" {
		it.Prompt = OriginalPrompt
	}
	return it
}

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open selects a store by driver name. An empty driver means memory.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite:
		return OpenSQLite(ctx, dsn)
	case DriverPostgres, "pgx":
		return OpenPostgres(ctx, dsn)
	}
	return nil, fmt.Errorf("unknown history driver %q", driver)
}
