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
	"testing"
)

func writeConfig(t *testing.T, body string) {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(EnvConfigFile, p)
}

func TestLoadMergesFile(t *testing.T) {
	writeConfig(t, "canvas:\n  width: 1024\n  unit: mm\neditor:\n  grid_x: 10\n  show_grid: true\n")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Canvas.Width != 1024 || cfg.Canvas.Height != 600 || cfg.Canvas.Unit != "mm" {
		t.Fatalf("canvas not merged: %+v", cfg.Canvas)
	}
	if cfg.Editor.GridX != 10 || cfg.Editor.GridY != 25 || !cfg.Editor.ShowGrid {
		t.Fatalf("editor not merged: %+v", cfg.Editor)
	}
	if cfg.Editor.WheelNotch != 120 {
		t.Fatalf("wheel notch default lost: %d", cfg.Editor.WheelNotch)
	}
}

func TestLoadRejectsSchemaViolation(t *testing.T) {
	writeConfig(t, "canvas:\n  unit: furlong\n")
	cfg, err := Load()
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if cfg.Canvas.Unit != "px" {
		t.Fatalf("invalid file must not be merged, unit=%q", cfg.Canvas.Unit)
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	writeConfig(t, "saving:\n  chunk_size: 100\nlogging:\n  level: info\n")
	t.Setenv(EnvChunkSize, "4096")
	t.Setenv(EnvLogLevel, "ERROR")
	t.Setenv(EnvLogSource, "yes")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Saving.ChunkSize != 4096 {
		t.Fatalf("chunk size = %d, want 4096", cfg.Saving.ChunkSize)
	}
	if cfg.Logging.Level != "error" || !cfg.Logging.Source {
		t.Fatalf("logging overrides not applied: %+v", cfg.Logging)
	}
	if name, ok := EnvOverrideFor("saving.chunk_size"); !ok || name != EnvChunkSize {
		t.Fatalf("EnvOverrideFor = %q,%v", name, ok)
	}
}

func TestSaveThenLoad(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", "config.yaml")
	t.Setenv(EnvConfigFile, p)
	cfg := Defaults()
	cfg.Editor.UndoLimit = 7
	cfg.Canvas.Background = "#102030"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Editor.UndoLimit != 7 || got.Canvas.Background != "#102030" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := Validate([]byte("config_version: 1\nsaving:\n  embed_images: false\n")); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
