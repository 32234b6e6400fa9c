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
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// BackupsDirName holds timestamped copies of replaced documents, next to them.
const BackupsDirName = ".backups"

// MaxBackups is how many backups per document are kept.
const MaxBackups = 5

// AtomicFile writes to a temp file in the destination directory; Commit
// replaces the destination, Abort leaves it untouched.
type AtomicFile struct {
	f      *os.File
	path   string
	backup bool
	done   bool
}

// CreateAtomic starts an atomic write of path. With backup set, an existing
// file is copied into BackupsDirName before it is replaced.
func CreateAtomic(path string, backup bool) (*AtomicFile, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("path is required")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create dir: %w", err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("create temp: %w", err)
	}
	return &AtomicFile{f: f, path: path, backup: backup}, nil
}

func (a *AtomicFile) Write(p []byte) (int, error) { return a.f.Write(p) }

// Path is the final destination.
func (a *AtomicFile) Path() string { return a.path }

// Commit flushes the temp file and renames it over the destination.
func (a *AtomicFile) Commit() error {
	if a.done {
		return errors.New("atomic file already finished")
	}
	a.done = true
	temp := a.f.Name()
	if err := a.f.Sync(); err != nil {
		_ = a.f.Close()
		_ = os.Remove(temp)
		return fmt.Errorf("sync: %w", err)
	}
	if err := a.f.Close(); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("close: %w", err)
	}
	if a.backup {
		if err := backupExisting(a.path); err != nil {
			_ = os.Remove(temp)
			return fmt.Errorf("backup: %w", err)
		}
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(a.path); err == nil {
		_ = os.Remove(a.path)
	}
	if err := os.Rename(temp, a.path); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace %s: %w", a.path, err)
	}
	return nil
}

// Abort discards the temp file. It is a no-op after Commit.
func (a *AtomicFile) Abort() {
	if a.done {
		return
	}
	a.done = true
	_ = a.f.Close()
	_ = os.Remove(a.f.Name())
}

// WriteFileAtomic writes data to path through a temp file and rename.
func WriteFileAtomic(path string, data []byte) error {
	a, err := CreateAtomic(path, false)
	if err != nil {
		return err
	}
	if _, err := a.Write(data); err != nil {
		a.Abort()
		return err
	}
	return a.Commit()
}

func backupPrefix(path string) string { return filepath.Base(path) + "." }

// backupExisting copies path to a timestamped backup and prunes old ones.
func backupExisting(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	bdir := filepath.Join(filepath.Dir(path), BackupsDirName)
	stamp := time.Now().Format("20060102-150405.000")
	dst := filepath.Join(bdir, backupPrefix(path)+stamp+".bak")
	if err := copyFile(path, dst); err != nil {
		return err
	}
	list, err := Backups(path)
	if err != nil {
		return err
	}
	for len(list) > MaxBackups {
		_ = os.Remove(list[0])
		list = list[1:]
	}
	return nil
}

// Backups lists the backups of path, oldest first.
func Backups(path string) ([]string, error) {
	bdir := filepath.Join(filepath.Dir(path), BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	var out []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, backupPrefix(path)) && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(bdir, name))
		}
	}
	sort.Strings(out) // timestamp in name yields lexicographic order
	return out, nil
}

// LatestBackup returns the newest backup of path.
func LatestBackup(path string) (string, error) {
	list, err := Backups(path)
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "", errors.New("no backups found")
	}
	return list[len(list)-1], nil
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
