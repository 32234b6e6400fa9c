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
	"os"
	"strconv"
	"strings"
	"time"
)

// Preview is a cached template thumbnail.
type Preview struct {
	Width, Height int
	PNG           []byte
}

// Preview returns the cached preview for path and marks it recently used.
// The boolean is false when nothing is cached.
func (x *Index) Preview(ctx context.Context, path string) (Preview, bool, error) {
	p, err := cleanPath(path)
	if err != nil {
		return Preview{}, false, err
	}
	var pv Preview
	err = x.db.QueryRowContext(ctx, `SELECT w, h, png FROM previews WHERE path=?`, p).Scan(&pv.Width, &pv.Height, &pv.PNG)
	if errors.Is(err, sql.ErrNoRows) {
		return Preview{}, false, nil
	}
	if err != nil {
		return Preview{}, false, fmt.Errorf("query preview: %w", err)
	}
	_, _ = x.db.ExecContext(ctx, `UPDATE previews SET last_access=? WHERE path=?`, time.Now().UnixNano(), p)
	return pv, true, nil
}

// PutPreview upserts the preview for path and enforces the cache size cap via
// LRU eviction.
func (x *Index) PutPreview(ctx context.Context, path string, pv Preview) error {
	p, err := cleanPath(path)
	if err != nil {
		return err
	}
	if len(pv.PNG) == 0 {
		return errors.New("empty preview")
	}
	now := time.Now()
	_, err = x.db.ExecContext(ctx, `INSERT INTO previews(path,w,h,png,size,updated_at,last_access)
		VALUES(?,?,?,?,?,?,?)
		ON CONFLICT(path) DO UPDATE SET w=excluded.w, h=excluded.h, png=excluded.png, size=excluded.size, updated_at=excluded.updated_at, last_access=excluded.last_access`,
		p, pv.Width, pv.Height, pv.PNG, len(pv.PNG), now.UTC().Format(time.RFC3339), now.UnixNano())
	if err != nil {
		return fmt.Errorf("upsert preview: %w", err)
	}
	return evictPreviewsToFit(ctx, x.db, x.opt.PreviewMaxBytes)
}

// PreviewOrCreate fetches a preview or generates and stores it using gen.
func (x *Index) PreviewOrCreate(ctx context.Context, path string, gen func(context.Context) (Preview, error)) (Preview, error) {
	if pv, ok, err := x.Preview(ctx, path); err != nil {
		return Preview{}, err
	} else if ok {
		return pv, nil
	}
	pv, err := gen(ctx)
	if err != nil {
		return Preview{}, err
	}
	if err := x.PutPreview(ctx, path, pv); err != nil {
		return Preview{}, err
	}
	return pv, nil
}

// TotalPreviewBytes returns total bytes tracked by previews.size.
func (x *Index) TotalPreviewBytes(ctx context.Context) (int64, error) {
	var total int64
	if err := x.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size),0) FROM previews`).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// evictPreviewsToFit deletes least-recently-used rows until total size <= capBytes.
func evictPreviewsToFit(ctx context.Context, db *sql.DB, capBytes int64) error {
	if capBytes <= 0 {
		return nil
	}
	var total int64
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size),0) FROM previews`).Scan(&total); err != nil {
		return fmt.Errorf("sum previews size: %w", err)
	}
	if total <= capBytes {
		return nil
	}
	rows, err := db.QueryContext(ctx, `SELECT path, size FROM previews ORDER BY last_access ASC`)
	if err != nil {
		return fmt.Errorf("select victims: %w", err)
	}
	var victims []any
	cur := total
	for rows.Next() {
		var p string
		var sz int64
		if err := rows.Scan(&p, &sz); err != nil {
			_ = rows.Close()
			return err
		}
		victims = append(victims, p)
		cur -= sz
		if cur <= capBytes {
			break
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	// Close the cursor before writing; the pool holds a single connection.
	if err := rows.Close(); err != nil {
		return err
	}
	if len(victims) == 0 {
		return nil
	}
	q := `DELETE FROM previews WHERE path IN (` + strings.TrimSuffix(strings.Repeat("?,", len(victims)), ",") + `)`
	if _, err := db.ExecContext(ctx, q, victims...); err != nil {
		return fmt.Errorf("evict delete: %w", err)
	}
	return nil
}

// MaxPreviewsBytesFromEnv reads PLE_PREVIEWS_MAX_BYTES, defaulting to 64MB if unset.
func MaxPreviewsBytesFromEnv() int64 {
	const def = 64 * 1024 * 1024
	v := os.Getenv("PLE_PREVIEWS_MAX_BYTES")
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
