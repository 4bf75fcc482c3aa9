/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal.

type GeneralConfig struct {
	TelemetryOptIn bool   `yaml:"telemetry_opt_in"`
	Language       string `yaml:"language"` // "en" | "es"; empty means system
}

// MaskConfig tunes the free-hand mask editor.
type MaskConfig struct {
	BrushMin       float64 `yaml:"brush_min"`
	BrushMax       float64 `yaml:"brush_max"`
	BrushDefault   float64 `yaml:"brush_default"`
	OverlayColor   string  `yaml:"overlay_color"` // #RRGGBB
	OverlayOpacity float64 `yaml:"overlay_opacity"`
}

type GeneratorConfig struct {
	Model     string `yaml:"model"`
	TimeoutMs int    `yaml:"timeout_ms"`
	// The API key is not stored on disk; it lives in the OS keychain.
}

type HistoryConfig struct {
	Driver string `yaml:"driver"` // memory | sqlite | postgres
	DSN    string `yaml:"dsn"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int             `yaml:"config_version"`
	General       GeneralConfig   `yaml:"general"`
	Mask          MaskConfig      `yaml:"mask"`
	Generator     GeneratorConfig `yaml:"generator"`
	History       HistoryConfig   `yaml:"history"`
	Logging       LoggingConfig   `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{TelemetryOptIn: false, Language: ""},
		Mask: MaskConfig{
			BrushMin:       1,
			BrushMax:       100,
			BrushDefault:   20,
			OverlayColor:   "#00B4FF",
			OverlayOpacity: 0.5,
		},
		Generator: GeneratorConfig{Model: "gemini-2.5-flash-image-preview", TimeoutMs: 120000},
		History:   HistoryConfig{Driver: "memory"},
		Logging:   LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvAPIKey           = "AVG_API_KEY"
	EnvModel            = "AVG_MODEL"
	EnvGeneratorTimeout = "AVG_GENERATOR_TIMEOUT_MS"
	EnvHistoryDriver    = "AVG_HISTORY_DRIVER"
	EnvHistoryDSN       = "AVG_HISTORY_DSN"
	EnvTelemetryOptIn   = "AVG_TELEMETRY_OPT_IN"
	EnvLanguage         = "AVG_LANG"
	EnvBrushDefault     = "AVG_BRUSH_DEFAULT"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "AVG_LOG_LEVEL"
	EnvLogFormat = "AVG_LOG_FORMAT"
	EnvLogSource = "AVG_LOG_SOURCE"
	EnvLogFile   = "AVG_LOG_FILE"
)

// Service/keys for OS keyring.
const (
	keyringService = "ViewpointGenerator"
	keyringAPIKey  = "generator_api_key"
)

// tokenStore abstracts keyring, so we can stub in tests.
var tokenStore TokenStore = &osKeyring{}

type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// osKeyring implements TokenStore through the build-specific keyringGet/Set/Delete hooks.
type osKeyring struct{}

func (k *osKeyring) Get(service, key string) (string, error) { return keyringGet(service, key) }
func (k *osKeyring) Set(service, key, value string) error    { return keyringSet(service, key, value) }
func (k *osKeyring) Delete(service, key string) error        { return keyringDelete(service, key) }

// The following vars are defined in keyring_stub.go or keyring_real.go depending on build tags.
var (
	keyringGet    func(service, key string) (string, error)
	keyringSet    func(service, key, value string) error
	keyringDelete func(service, key string) error
)

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "ViewpointGenerator")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "ViewpointGenerator")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, "viewpointgen")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "viewpointgen")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
// The generator API key is returned separately: env first, then the OS keyring.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	cfg.Mask = cfg.Mask.normalized()
	if v := strings.TrimSpace(os.Getenv(EnvAPIKey)); v != "" {
		return cfg, v, nil
	}
	key, _ := tokenStore.Get(keyringService, keyringAPIKey)
	return cfg, key, nil
}

// Save writes the user config YAML and persists the API key into the OS keyring (if non-empty).
func Save(cfg AppConfig, apiKey string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if apiKey != "" {
		if err := tokenStore.Set(keyringService, keyringAPIKey, apiKey); err != nil {
			return err
		}
	}
	return nil
}

// ForgetAPIKey removes the stored API key from the OS keyring.
func ForgetAPIKey() error { return tokenStore.Delete(keyringService, keyringAPIKey) }

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	if v := strings.ToLower(strings.TrimSpace(src.General.Language)); v != "" {
		dst.General.Language = v
	}
	// mask: zero means "keep default"
	if src.Mask.BrushMin > 0 {
		dst.Mask.BrushMin = src.Mask.BrushMin
	}
	if src.Mask.BrushMax > 0 {
		dst.Mask.BrushMax = src.Mask.BrushMax
	}
	if src.Mask.BrushDefault > 0 {
		dst.Mask.BrushDefault = src.Mask.BrushDefault
	}
	if v := strings.TrimSpace(src.Mask.OverlayColor); v != "" {
		dst.Mask.OverlayColor = v
	}
	if src.Mask.OverlayOpacity > 0 {
		dst.Mask.OverlayOpacity = src.Mask.OverlayOpacity
	}
	if v := strings.TrimSpace(src.Generator.Model); v != "" {
		dst.Generator.Model = v
	}
	if src.Generator.TimeoutMs != 0 {
		dst.Generator.TimeoutMs = src.Generator.TimeoutMs
	}
	if v := strings.ToLower(strings.TrimSpace(src.History.Driver)); v != "" {
		dst.History.Driver = v
	}
	if v := strings.TrimSpace(src.History.DSN); v != "" {
		dst.History.DSN = v
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func parseBool(v string) bool {
	lv := strings.ToLower(strings.TrimSpace(v))
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvModel)); v != "" {
		cfg.Generator.Model = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvGeneratorTimeout)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Generator.TimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvHistoryDriver)); v != "" {
		cfg.History.Driver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvHistoryDSN)); v != "" {
		cfg.History.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		cfg.General.TelemetryOptIn = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLanguage)); v != "" {
		cfg.General.Language = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvBrushDefault)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Mask.BrushDefault = f
		}
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	var env string
	switch key {
	case "generator.api_key":
		env = EnvAPIKey
	case "generator.model":
		env = EnvModel
	case "generator.timeout_ms":
		env = EnvGeneratorTimeout
	case "history.driver":
		env = EnvHistoryDriver
	case "history.dsn":
		env = EnvHistoryDSN
	case "general.telemetry_opt_in":
		env = EnvTelemetryOptIn
	case "general.language":
		env = EnvLanguage
	case "mask.brush_default":
		env = EnvBrushDefault
	case "logging.level":
		env = EnvLogLevel
	case "logging.format":
		env = EnvLogFormat
	case "logging.source":
		env = EnvLogSource
	case "logging.file":
		env = EnvLogFile
	default:
		return "", false
	}
	if os.Getenv(env) != "" {
		return env, true
	}
	return "", false
}

// normalized repairs an inconsistent brush range so the editor can always clamp into it.
func (m MaskConfig) normalized() MaskConfig {
	d := Defaults().Mask
	if m.BrushMin <= 0 {
		m.BrushMin = d.BrushMin
	}
	if m.BrushMax < m.BrushMin {
		m.BrushMax = m.BrushMin
	}
	if m.BrushDefault < m.BrushMin {
		m.BrushDefault = m.BrushMin
	}
	if m.BrushDefault > m.BrushMax {
		m.BrushDefault = m.BrushMax
	}
	if m.OverlayOpacity <= 0 || m.OverlayOpacity > 1 {
		m.OverlayOpacity = d.OverlayOpacity
	}
	if strings.TrimSpace(m.OverlayColor) == "" {
		m.OverlayColor = d.OverlayColor
	}
	return m
}

// Timeout returns the generator request timeout, falling back to the default when unset.
func (g GeneratorConfig) Timeout() time.Duration {
	if g.TimeoutMs <= 0 {
		return time.Duration(Defaults().Generator.TimeoutMs) * time.Millisecond
	}
	return time.Duration(g.TimeoutMs) * time.Millisecond
}
