//go:build !fyne

package ui

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunStub_ReturnsHelpfulError(t *testing.T) {
	a := newTestApp(t)
	err := Run(a, nil)
	if !errors.Is(err, ErrNoUI) {
		t.Fatalf("expected ErrNoUI from Run() without files, got %v", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "UI not built") || !strings.Contains(msg, "-tags fyne") {
		t.Fatalf("unexpected error message: %q", msg)
	}
}

func TestRunStub_LoadsFilesHeadlessly(t *testing.T) {
	a := newTestApp(t)
	path := filepath.Join(t.TempDir(), "doc.ple")
	saveDoc(t, a, path, 1)
	if err := Run(a, []string{path}); err != nil {
		t.Fatalf("Run: %v", err)
	}
}
