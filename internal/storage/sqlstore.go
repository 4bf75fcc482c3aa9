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
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	applog "viewpointgen/internal/log"
)

// dialect carries the few differences between the SQL backends.
type dialect struct {
	name     string
	blobType string
	// placeholder renders the n-th (1-based) bind parameter.
	placeholder func(n int) string
}

var (
	sqliteDialect   = dialect{name: DriverSQLite, blobType: "BLOB", placeholder: func(int) string { return "?" }}
	postgresDialect = dialect{name: DriverPostgres, blobType: "BYTEA", placeholder: func(n int) string { return fmt.Sprintf("$%d", n) }}
)

// bind rewrites ? placeholders for the dialect.
func (d dialect) bind(q string) string {
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString(d.placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SQLStore persists history in SQLite or Postgres.
type SQLStore struct {
	db  *sql.DB
	d   dialect
	log *slog.Logger
}

// OpenSQLite opens (creating if needed) a history database file.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite history: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite history: create dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	return newSQLStore(ctx, db, sqliteDialect)
}

// OpenPostgres connects through the pgx stdlib driver.
func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres history: dsn is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return newSQLStore(ctx, db, postgresDialect)
}

func newSQLStore(ctx context.Context, db *sql.DB, d dialect) (*SQLStore, error) {
	s := &SQLStore{db: db, d: d, log: applog.WithComponent("storage").With(slog.String("driver", d.name))}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	s.log.Debug("history store ready")
	return s, nil
}

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS history_items (
			id          TEXT PRIMARY KEY,
			mime_type   TEXT NOT NULL,
			data        ` + s.d.blobType + ` NOT NULL,
			prompt      TEXT NOT NULL DEFAULT '',
			is_original INTEGER NOT NULL DEFAULT 0,
			created_at  BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_created ON history_items(created_at)`,
	}
	for _, q := range ddl {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create history schema: %w", err)
		}
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLStore) insert(ctx context.Context, x execer, it Item) error {
	_, err := x.ExecContext(ctx, s.d.bind(`INSERT INTO history_items (id, mime_type, data, prompt, is_original, created_at) VALUES (?, ?, ?, ?, ?, ?)`),
		it.ID, it.Image.MIMEType, it.Image.Data, it.Prompt, boolInt(it.IsOriginal), it.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert history item: %w", err)
	}
	return nil
}

func (s *SQLStore) Add(ctx context.Context, it Item) (Item, error) {
	it = prepare(it)
	if err := s.insert(ctx, s.db, it); err != nil {
		return Item{}, err
	}
	return it, nil
}

func (s *SQLStore) List(ctx context.Context) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, mime_type, data, prompt, is_original, created_at FROM history_items ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()
	var out []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *SQLStore) Get(ctx context.Context, id string) (Item, error) {
	row := s.db.QueryRowContext(ctx, s.d.bind(`SELECT id, mime_type, data, prompt, is_original, created_at FROM history_items WHERE id = ?`), id)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	return it, err
}

func (s *SQLStore) Reset(ctx context.Context, original Item) (Item, error) {
	original.IsOriginal = true
	original = prepare(original)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Item{}, fmt.Errorf("begin reset: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM history_items`); err != nil {
		return Item{}, fmt.Errorf("reset history: %w", err)
	}
	if err := s.insert(ctx, tx, original); err != nil {
		return Item{}, err
	}
	if err := tx.Commit(); err != nil {
		return Item{}, fmt.Errorf("commit reset: %w", err)
	}
	return original, nil
}

func (s *SQLStore) ClearGenerated(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM history_items WHERE is_original = 0`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

func (s *SQLStore) Close() error { return s.db.Close() }

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(sc scanner) (Item, error) {
	var (
		it   Item
		orig int64
		ts   int64
	)
	if err := sc.Scan(&it.ID, &it.Image.MIMEType, &it.Image.Data, &it.Prompt, &orig, &ts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Item{}, err
		}
		return Item{}, fmt.Errorf("scan history item: %w", err)
	}
	it.IsOriginal = orig != 0
	it.CreatedAt = time.Unix(0, ts).UTC()
	return it, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
