/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package log is the structured logging front end of the viewpoint generator.
// It configures log/slog once per process with a one-line console format (or
// JSON), an optional rotating JSON file, and tags every record with the
// editing session carried by its context.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	lj "gopkg.in/natefinch/lumberjack.v2"

	"viewpointgen/internal/config"
	"viewpointgen/internal/version"
)

// Environment variables read by FromEnv. They match the overrides config.Load
// applies, so FromEnv and FromConfig agree when no config file exists.
const (
	EnvLevel  = "AVG_LOG_LEVEL"
	EnvFormat = "AVG_LOG_FORMAT"
	EnvSource = "AVG_LOG_SOURCE"
	EnvFile   = "AVG_LOG_FILE"
)

// Options controls logger initialization.
// Defaults: INFO level, console format on stderr, no source, no file.
type Options struct {
	Level     string // debug|info|warn|error
	Format    string // console|json
	AddSource bool
	// File enables a rotated JSON log next to the console output.
	File    string
	Rotate  Rotation
	Console io.Writer // nil means os.Stderr
}

// Rotation bounds the log file. Zero fields take the lumberjack-style defaults
// below.
type Rotation struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

var defaultRotation = Rotation{MaxSizeMB: 10, MaxBackups: 3, MaxAgeDays: 28}

func (r Rotation) orDefault() Rotation {
	if r.MaxSizeMB <= 0 {
		r.MaxSizeMB = defaultRotation.MaxSizeMB
	}
	if r.MaxBackups <= 0 {
		r.MaxBackups = defaultRotation.MaxBackups
	}
	if r.MaxAgeDays <= 0 {
		r.MaxAgeDays = defaultRotation.MaxAgeDays
	}
	return r
}

var (
	mu      sync.RWMutex
	current *slog.Logger
	file    *lj.Logger
)

// L returns the process logger, initializing it from the environment on
// first use.
func L() *slog.Logger {
	mu.RLock()
	l := current
	mu.RUnlock()
	if l != nil {
		return l
	}
	Init(FromEnv())
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Init (re)configures the process logger and installs it as slog.Default.
// A previously opened log file is closed.
func Init(opts Options) {
	lvl := parseLevel(opts.Level)
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	var out slog.Handler
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		out = slog.NewJSONHandler(console, &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource})
	} else {
		out = newConsoleHandler(console, lvl, opts.AddSource)
	}

	var lf *lj.Logger
	if path := strings.TrimSpace(opts.File); path != "" {
		rot := opts.Rotate.orDefault()
		lf = &lj.Logger{Filename: path, MaxSize: rot.MaxSizeMB, MaxBackups: rot.MaxBackups, MaxAge: rot.MaxAgeDays, Compress: true}
		out = fanout{out, slog.NewJSONHandler(lf, &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource})}
	}

	logger := slog.New(sessionHandler{next: out}).With(
		slog.String("app", "viewpointgen"),
		slog.String("ver", version.Version),
	)

	mu.Lock()
	old := file
	current, file = logger, lf
	mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	slog.SetDefault(logger)
}

// FromEnv builds Options from the AVG_LOG_* variables alone. It is used
// before the config file has been read.
func FromEnv() Options {
	return Options{
		Level:     getenv(EnvLevel, "info"),
		Format:    getenv(EnvFormat, "console"),
		AddSource: parseBool(os.Getenv(EnvSource)),
		File:      os.Getenv(EnvFile),
	}
}

// FromConfig converts the logging section of a loaded config. config.Load
// has already applied the environment overrides.
func FromConfig(c config.LoggingConfig) Options {
	o := Options{Level: c.Level, Format: c.Format, AddSource: c.Source, File: c.File}
	if o.Level == "" {
		o.Level = "info"
	}
	if o.Format == "" {
		o.Format = "console"
	}
	return o
}

// WithComponent returns a logger for one package or subsystem.
func WithComponent(name string) *slog.Logger { return L().With(slog.String(componentKey, name)) }

// WithOperation annotates l with an operation name.
func WithOperation(l *slog.Logger, op string) *slog.Logger { return l.With(slog.String("op", op)) }

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
