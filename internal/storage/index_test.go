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
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func openTestIndex(t *testing.T, opt IndexOptions) *Index {
	t.Helper()
	x, err := OpenIndex(DefaultIndexPath(t.TempDir()), opt)
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	t.Cleanup(func() { _ = x.Close() })
	return x
}

func TestRecentNewestFirstAndTrimmed(t *testing.T) {
	x := openTestIndex(t, IndexOptions{RecentLimit: 2})
	ctx := context.Background()
	dir := t.TempDir()
	for _, n := range []string{"a.ple", "b.ple", "c.ple"} {
		if err := x.RecordOpened(ctx, filepath.Join(dir, n), false); err != nil {
			t.Fatalf("record %s: %v", n, err)
		}
	}
	// Reopening moves a file back to the top.
	if err := x.RecordOpened(ctx, filepath.Join(dir, "b.ple"), false); err != nil {
		t.Fatalf("record again: %v", err)
	}
	got, err := x.Recent(ctx)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 recent files, got %d", len(got))
	}
	if filepath.Base(got[0].Path) != "b.ple" || filepath.Base(got[1].Path) != "c.ple" {
		t.Fatalf("unexpected order: %s, %s", got[0].Path, got[1].Path)
	}
	if !filepath.IsAbs(got[0].Path) {
		t.Fatalf("paths should be stored absolute: %s", got[0].Path)
	}
}

func TestTemplatesKeptApartFromRecent(t *testing.T) {
	x := openTestIndex(t, IndexOptions{RecentLimit: 1})
	ctx := context.Background()
	dir := t.TempDir()
	_ = x.RecordOpened(ctx, filepath.Join(dir, "t1.plet"), true)
	_ = x.RecordOpened(ctx, filepath.Join(dir, "t2.plet"), true)
	_ = x.RecordOpened(ctx, filepath.Join(dir, "doc.ple"), false)
	tpl, err := x.Templates(ctx)
	if err != nil {
		t.Fatalf("Templates: %v", err)
	}
	if len(tpl) != 2 || !tpl[0].Template {
		t.Fatalf("templates should not be trimmed by the recent limit: %+v", tpl)
	}
	rec, _ := x.Recent(ctx)
	if len(rec) != 1 || rec[0].Template {
		t.Fatalf("recent should only hold canvases: %+v", rec)
	}
	if err := x.Forget(ctx, filepath.Join(dir, "t1.plet")); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	tpl, _ = x.Templates(ctx)
	if len(tpl) != 1 || filepath.Base(tpl[0].Path) != "t2.plet" {
		t.Fatalf("forget did not drop the template: %+v", tpl)
	}
}

func TestRecordOpenedRejectsEmptyPath(t *testing.T) {
	x := openTestIndex(t, IndexOptions{})
	if err := x.RecordOpened(context.Background(), "  ", false); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestOpenIndexRebuildsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := DefaultIndexPath(dir)
	if err := os.WriteFile(path, []byte("THIS IS NOT SQLITE"), 0o644); err != nil {
		t.Fatalf("write corrupt: %v", err)
	}
	x, err := OpenIndex(path, IndexOptions{})
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	defer x.Close()
	if !x.Rebuilt() {
		t.Fatalf("expected rebuild to occur")
	}
	if err := x.RecordOpened(context.Background(), filepath.Join(dir, "a.ple"), false); err != nil {
		t.Fatalf("rebuilt index unusable: %v", err)
	}
	entries, _ := os.ReadDir(filepath.Join(dir, BackupsDirName))
	if len(entries) == 0 {
		t.Fatalf("expected backup of the damaged index")
	}
}

func TestMigrationsUpgradeV1ToV2(t *testing.T) {
	path := DefaultIndexPath(t.TempDir())
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE version (id INTEGER PRIMARY KEY CHECK(id=1), schema INTEGER NOT NULL, app TEXT, created_at TEXT NOT NULL, updated_at TEXT NOT NULL);`,
		`INSERT INTO version(id, schema, app, created_at, updated_at) VALUES(1, 1, 'test', '2020-01-01T00:00:00Z', '2020-01-01T00:00:00Z');`,
		`CREATE TABLE files (path TEXT PRIMARY KEY, template INTEGER NOT NULL DEFAULT 0, opened_at INTEGER NOT NULL);`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			t.Fatalf("seed v1 schema: %v (q=%s)", err, q)
		}
	}
	_ = db.Close()

	x, err := OpenIndex(path, IndexOptions{})
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	defer x.Close()
	var schema int
	if err := x.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&schema); err != nil {
		t.Fatalf("read schema: %v", err)
	}
	if schema != schemaVersion {
		t.Fatalf("expected schema %d, got %d", schemaVersion, schema)
	}
	var name string
	if err := x.db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type='index' AND name='idx_files_opened'`).Scan(&name); err != nil {
		t.Fatalf("migration index missing: %v", err)
	}
}
