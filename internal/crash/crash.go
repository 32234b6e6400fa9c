/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic in the entrypoint into a crash report and a
// recovery copy of the open canvas.
package crash

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	applog "photolayouts/internal/log"
	"photolayouts/internal/storage"
	"photolayouts/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// Autosaver is the open document. *canvas.Canvas implements it.
type Autosaver interface {
	Path() string
	Autosave() (string, error)
}

// Recover captures a panic, logs an error with stacktrace,
// writes an error report file, and attempts a crash-safe autosave
// of the open canvas (if provided).
//
// Usage: defer crash.Recover(ref)
func Recover(doc Autosaver) {
	if r := recover(); r != nil {
		l := applog.WithComponent("crash")
		stack := debug.Stack()
		l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

		reportPath, _ := writeReport(doc, r, stack)
		if doc != nil {
			if path, err := doc.Autosave(); errors.Is(err, ErrNoDocument) {
				l.Debug("nothing to autosave")
			} else if err != nil {
				l.Error("autosave failed", slog.Any("err", err))
			} else {
				l.Info("autosave written", slog.String("path", path))
				_, _ = fmt.Fprintf(os.Stderr, "Unsaved changes were written to: %s\n", path)
			}
		}

		if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
			l.Error("failed to write crash message to stderr", slog.Any("err", err))
		}
		if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
			l.Error("failed to write version info to stderr", slog.Any("err", err))
		}
		// Exit with a non-zero code to indicate failure in CLI context.
		exitFn(2)
	}
}

// reportDir is the backups directory next to the document, or the temp dir.
func reportDir(doc Autosaver) string {
	if doc != nil && doc.Path() != "" {
		dir := filepath.Join(filepath.Dir(doc.Path()), storage.BackupsDirName)
		if err := os.MkdirAll(dir, 0o755); err == nil {
			return dir
		}
	}
	return os.TempDir()
}

func writeReport(doc Autosaver, panicVal any, stack []byte) (string, error) {
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(reportDir(doc), fmt.Sprintf("crash-%s.log", stamp))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "Photo Layouts Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if doc != nil && doc.Path() != "" {
		_, _ = fmt.Fprintf(&buf, "Document: %s\n", doc.Path())
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if err := storage.WriteFileAtomic(path, buf.Bytes()); err != nil {
		applog.WithComponent("crash").Error("failed to write crash report", slog.Any("err", err), slog.String("path", path))
		return path, err
	}
	return path, nil
}

// ErrNoDocument is returned by an empty Ref.
var ErrNoDocument = errors.New("crash: no open document")

// Ref is an Autosaver that forwards to the document set last, so Recover can
// be deferred before any document is open.
type Ref struct {
	mu  sync.Mutex
	doc Autosaver
}

func (r *Ref) Set(doc Autosaver) {
	r.mu.Lock()
	r.doc = doc
	r.mu.Unlock()
}

func (r *Ref) get() Autosaver {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doc
}

func (r *Ref) Path() string {
	if d := r.get(); d != nil {
		return d.Path()
	}
	return ""
}

func (r *Ref) Autosave() (string, error) {
	if d := r.get(); d != nil {
		return d.Autosave()
	}
	return "", ErrNoDocument
}
