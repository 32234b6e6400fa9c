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

	applog "photolayouts/internal/log"
	"photolayouts/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	IndexFileName = "index.sqlite"

	// schemaVersion tracks the local SQLite schema for the index.
	// Bump this when you perform breaking schema changes and add migrations.
	schemaVersion = 2

	DefaultRecentLimit = 10
)

// IndexOptions tunes an Index. Zero values fall back to defaults.
type IndexOptions struct {
	RecentLimit     int
	PreviewMaxBytes int64
}

// Index is the per-user SQLite database holding the recently opened canvases
// and the template preview cache. It is derived data: a damaged file is moved
// aside and recreated.
type Index struct {
	db      *sql.DB
	path    string
	opt     IndexOptions
	rebuilt bool
}

// RecentFile is one row of the recent files list.
type RecentFile struct {
	Path     string
	Template bool
	OpenedAt time.Time
}

// DefaultIndexPath returns the index location inside dir.
func DefaultIndexPath(dir string) string { return filepath.Join(dir, IndexFileName) }

// OpenIndex opens or creates the index at path, enables WAL mode and brings
// the schema up to date. When the file exists but is not a usable database it
// is backed up and recreated; Rebuilt reports that.
func OpenIndex(path string, opt IndexOptions) (*Index, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_open").With(
		slog.String("path", path),
	)
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("index path is required")
	}
	if opt.RecentLimit <= 0 {
		opt.RecentLimit = DefaultRecentLimit
	}
	if opt.PreviewMaxBytes <= 0 {
		opt.PreviewMaxBytes = MaxPreviewsBytesFromEnv()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		l.Error("create index dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	db, err := openDB(path)
	rebuilt := false
	if err != nil {
		l.Warn("index unusable, rebuilding", slog.Any("err", err))
		backupIndexFile(path)
		_ = os.Remove(path)
		_ = os.Remove(path + "-wal")
		_ = os.Remove(path + "-shm")
		db, err = openDB(path)
		if err != nil {
			l.Error("rebuild index failed", slog.Any("err", err))
			return nil, err
		}
		rebuilt = true
	}
	l.Info("index ready", slog.Bool("rebuilt", rebuilt))
	return &Index{db: db, path: path, opt: opt, rebuilt: rebuilt}, nil
}

func openDB(path string) (*sql.DB, error) {
	// Use a URI and set busy timeout. Convert to forward slashes for SQLite URI.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	var chk string
	if err := db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk); err != nil || !strings.EqualFold(strings.TrimSpace(chk), "ok") {
		_ = db.Close()
		if err == nil {
			err = fmt.Errorf("quick_check: %s", chk)
		}
		return nil, err
	}
	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Path returns the database file location.
func (x *Index) Path() string { return x.path }

// Rebuilt reports whether OpenIndex had to recreate a damaged database.
func (x *Index) Rebuilt() bool { return x.rebuilt }

func (x *Index) Close() error { return x.db.Close() }

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		// Update app and timestamp only; keep existing schema for migrations
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			// Template rows and the recency ordering got their own indexes.
			stmts = []string{
				`CREATE INDEX IF NOT EXISTS idx_files_opened ON files(opened_at);`,
				`CREATE INDEX IF NOT EXISTS idx_files_template ON files(template, opened_at);`,
			}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

// ensureIndexSchema creates the index tables if they do not exist.
func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS files (
			path       TEXT    PRIMARY KEY,
			template   INTEGER NOT NULL DEFAULT 0,
			opened_at  INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS previews (
			path         TEXT    PRIMARY KEY,
			w            INTEGER NOT NULL DEFAULT 0,
			h            INTEGER NOT NULL DEFAULT 0,
			png          BLOB    NOT NULL,
			size         INTEGER NOT NULL DEFAULT 0,
			updated_at   TEXT    NOT NULL,
			last_access  INTEGER NOT NULL DEFAULT 0
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure index schema: %w", err)
		}
	}
	return nil
}

// backupIndexFile copies the current index file into a timestamped backup next to it.
func backupIndexFile(indexPath string) {
	bdir := filepath.Join(filepath.Dir(indexPath), BackupsDirName)
	_ = os.MkdirAll(bdir, 0o755)
	stamp := time.Now().Format("20060102-150405")
	bak := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(indexPath), stamp))
	if data, err := os.ReadFile(indexPath); err == nil {
		_ = os.WriteFile(bak, data, 0o644)
	}
}

func cleanPath(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", errors.New("path is required")
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return abs, nil
}

// RecordOpened moves path to the top of the recent files list and trims the
// list to the configured limit.
func (x *Index) RecordOpened(ctx context.Context, path string, template bool) error {
	p, err := cleanPath(path)
	if err != nil {
		return err
	}
	tpl := 0
	if template {
		tpl = 1
	}
	if _, err := x.db.ExecContext(ctx, `INSERT INTO files(path, template, opened_at) VALUES(?,?,?)
		ON CONFLICT(path) DO UPDATE SET template=excluded.template, opened_at=excluded.opened_at`,
		p, tpl, time.Now().UnixNano()); err != nil {
		return fmt.Errorf("record opened: %w", err)
	}
	if _, err := x.db.ExecContext(ctx, `DELETE FROM files WHERE template=0 AND path NOT IN (
		SELECT path FROM files WHERE template=0 ORDER BY opened_at DESC LIMIT ?)`, x.opt.RecentLimit); err != nil {
		return fmt.Errorf("trim recent: %w", err)
	}
	return nil
}

// Forget drops path from the recent list and the preview cache.
func (x *Index) Forget(ctx context.Context, path string) error {
	p, err := cleanPath(path)
	if err != nil {
		return err
	}
	if _, err := x.db.ExecContext(ctx, `DELETE FROM files WHERE path=?`, p); err != nil {
		return fmt.Errorf("forget file: %w", err)
	}
	if _, err := x.db.ExecContext(ctx, `DELETE FROM previews WHERE path=?`, p); err != nil {
		return fmt.Errorf("forget preview: %w", err)
	}
	return nil
}

// Recent returns the recently opened canvases, newest first.
func (x *Index) Recent(ctx context.Context) ([]RecentFile, error) {
	return x.list(ctx, `SELECT path, template, opened_at FROM files WHERE template=0 ORDER BY opened_at DESC LIMIT ?`, x.opt.RecentLimit)
}

// Templates returns every template the index knows about, newest first.
func (x *Index) Templates(ctx context.Context) ([]RecentFile, error) {
	return x.list(ctx, `SELECT path, template, opened_at FROM files WHERE template=1 ORDER BY opened_at DESC LIMIT ?`, -1)
}

func (x *Index) list(ctx context.Context, q string, limit int) ([]RecentFile, error) {
	rows, err := x.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()
	var out []RecentFile
	for rows.Next() {
		var rf RecentFile
		var tpl int
		var ts int64
		if err := rows.Scan(&rf.Path, &tpl, &ts); err != nil {
			return nil, err
		}
		rf.Template = tpl != 0
		rf.OpenedAt = time.Unix(0, ts)
		out = append(out, rf)
	}
	return out, rows.Err()
}
