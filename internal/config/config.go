/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package config loads the user configuration: defaults, then the YAML file in the
// user config directory (validated against an embedded JSON schema), then PLE_*
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

type CanvasConfig struct {
	Width          float64 `yaml:"width"`
	Height         float64 `yaml:"height"`
	Unit           string  `yaml:"unit"` // px, mm, cm, in, pt, pc
	Resolution     float64 `yaml:"resolution"`
	ResolutionUnit string  `yaml:"resolution_unit"` // px/in, px/cm, px/mm, px/pt, px/pc
	Background     string  `yaml:"background"`      // #rrggbb or #rrggbbaa
}

type EditorConfig struct {
	UndoLimit  int     `yaml:"undo_limit"`
	GridX      float64 `yaml:"grid_x"`
	GridY      float64 `yaml:"grid_y"`
	ShowGrid   bool    `yaml:"show_grid"`
	MinScale   float64 `yaml:"min_scale"`
	MaxScale   float64 `yaml:"max_scale"`
	WheelNotch int     `yaml:"wheel_notch"`
}

type SavingConfig struct {
	ChunkSize         int  `yaml:"chunk_size"`
	EmbedImages       bool `yaml:"embed_images"`
	TemplatePreviewPx int  `yaml:"template_preview_px"`
}

type StorageConfig struct {
	IndexPath       string `yaml:"index_path"`
	RecentLimit     int    `yaml:"recent_limit"`
	PreviewMaxBytes int64  `yaml:"preview_max_bytes"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// AppConfig is the user-editable configuration.
// config_version: bump when the structure changes in a backward-incompatible way.
type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Canvas        CanvasConfig  `yaml:"canvas"`
	Editor        EditorConfig  `yaml:"editor"`
	Saving        SavingConfig  `yaml:"saving"`
	Storage       StorageConfig `yaml:"storage"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Canvas:        CanvasConfig{Width: 800, Height: 600, Unit: "px", Resolution: 72, ResolutionUnit: "px/in", Background: "#ffffff"},
		Editor:        EditorConfig{UndoLimit: 100, GridX: 25, GridY: 25, MinScale: 0.1, MaxScale: 10, WheelNotch: 120},
		Saving:        SavingConfig{ChunkSize: 64 * 1024, EmbedImages: true, TemplatePreviewPx: 200},
		Storage:       StorageConfig{RecentLimit: 10, PreviewMaxBytes: 64 * 1024 * 1024},
		Logging:       LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvUndoLimit   = "PLE_UNDO_LIMIT"
	EnvChunkSize   = "PLE_SAVE_CHUNK_SIZE"
	EnvEmbedImages = "PLE_EMBED_IMAGES"
	EnvIndexPath   = "PLE_INDEX_PATH"
	EnvLogLevel    = "PLE_LOG_LEVEL"
	EnvLogFormat   = "PLE_LOG_FORMAT"
	EnvLogSource   = "PLE_LOG_SOURCE"
	EnvLogFile     = "PLE_LOG_FILE"
	// EnvConfigFile points Load at an explicit file instead of the per-user path.
	EnvConfigFile = "PLE_CONFIG"
)

// ErrInvalidConfig wraps schema violations found in a config file.
var ErrInvalidConfig = errors.New("invalid config")

// ConfigPath returns the per-user config file path (PLE_CONFIG wins when set).
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigFile)); p != "" {
		return p, nil
	}
	dir, err := userDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DataDir returns the per-user directory holding the index database.
func DataDir() (string, error) { return userDir() }

func userDir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "PhotoLayouts")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "PhotoLayouts")
	default:
		base = filepath.Join(os.Getenv("HOME"), ".config", "photolayouts")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return base, nil
}

// Load reads the config file (if present), validates and merges it over the
// defaults and applies environment overrides. An invalid file is reported via
// the returned error while the defaults-plus-env config is still returned.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	var fileErr error
	if data, rerr := os.ReadFile(path); rerr == nil {
		if verr := Validate(data); verr != nil {
			fileErr = fmt.Errorf("%s: %w", path, verr)
		} else {
			var fileCfg AppConfig
			if uerr := yaml.Unmarshal(data, &fileCfg); uerr != nil {
				fileErr = fmt.Errorf("parse %s: %w", path, uerr)
			} else {
				mergeInto(&cfg, &fileCfg)
			}
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, fileErr
}

// Save writes cfg to the user config path.
func Save(cfg AppConfig) error {
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
	return os.WriteFile(path, data, 0o600)
}

// Validate checks a YAML document against the embedded schema.
func Validate(data []byte) error {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if doc == nil {
		return nil
	}
	res, err := gojsonschema.Validate(gojsonschema.NewStringLoader(schemaJSON), gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
	}
	return nil
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	c, s := &dst.Canvas, src.Canvas
	if s.Width > 0 {
		c.Width = s.Width
	}
	if s.Height > 0 {
		c.Height = s.Height
	}
	if s.Unit != "" {
		c.Unit = s.Unit
	}
	if s.Resolution > 0 {
		c.Resolution = s.Resolution
	}
	if s.ResolutionUnit != "" {
		c.ResolutionUnit = s.ResolutionUnit
	}
	if s.Background != "" {
		c.Background = s.Background
	}

	e, se := &dst.Editor, src.Editor
	if se.UndoLimit != 0 {
		e.UndoLimit = se.UndoLimit
	}
	if se.GridX > 0 {
		e.GridX = se.GridX
	}
	if se.GridY > 0 {
		e.GridY = se.GridY
	}
	e.ShowGrid = se.ShowGrid
	if se.MinScale > 0 {
		e.MinScale = se.MinScale
	}
	if se.MaxScale > 0 {
		e.MaxScale = se.MaxScale
	}
	if se.WheelNotch > 0 {
		e.WheelNotch = se.WheelNotch
	}

	if src.Saving.ChunkSize > 0 {
		dst.Saving.ChunkSize = src.Saving.ChunkSize
	}
	dst.Saving.EmbedImages = src.Saving.EmbedImages
	if src.Saving.TemplatePreviewPx > 0 {
		dst.Saving.TemplatePreviewPx = src.Saving.TemplatePreviewPx
	}

	if strings.TrimSpace(src.Storage.IndexPath) != "" {
		dst.Storage.IndexPath = strings.TrimSpace(src.Storage.IndexPath)
	}
	if src.Storage.RecentLimit > 0 {
		dst.Storage.RecentLimit = src.Storage.RecentLimit
	}
	if src.Storage.PreviewMaxBytes > 0 {
		dst.Storage.PreviewMaxBytes = src.Storage.PreviewMaxBytes
	}

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
	if v := strings.TrimSpace(os.Getenv(EnvUndoLimit)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Editor.UndoLimit = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvChunkSize)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Saving.ChunkSize = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvEmbedImages)); v != "" {
		cfg.Saving.EmbedImages = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvIndexPath)); v != "" {
		cfg.Storage.IndexPath = v
	}
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

// EnvOverrideFor reports which env var overrides a config key, if any.
func EnvOverrideFor(key string) (string, bool) {
	vars := map[string]string{
		"editor.undo_limit":   EnvUndoLimit,
		"saving.chunk_size":   EnvChunkSize,
		"saving.embed_images": EnvEmbedImages,
		"storage.index_path":  EnvIndexPath,
		"logging.level":       EnvLogLevel,
		"logging.format":      EnvLogFormat,
		"logging.source":      EnvLogSource,
		"logging.file":        EnvLogFile,
	}
	if name, ok := vars[key]; ok && os.Getenv(name) != "" {
		return name, true
	}
	return "", false
}
