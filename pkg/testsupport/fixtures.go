package testsupport

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// Fixture widget names shipped in testdata/widgets.
const (
	FlightTracker = "Flight Tracker"
	CreateEvent   = "Create Event"
	Broken        = "Broken"
)

//go:embed testdata/widgets/*
var widgetFiles embed.FS

// WidgetFS exposes the bundled fixture definitions and their sample argument
// files ("<name>.args.json").
func WidgetFS() fs.FS {
	sub, err := fs.Sub(widgetFiles, "testdata/widgets")
	if err != nil {
		panic(err)
	}
	return sub
}

// WidgetsDir copies the named fixture widgets into a fresh temporary
// directory and returns it. With no names every fixture is copied, including
// the broken one.
func WidgetsDir(t *testing.T, names ...string) string {
	t.Helper()

	dir := t.TempDir()
	if err := CopyWidgets(dir, names...); err != nil {
		t.Fatalf("copy widgets: %v", err)
	}
	return dir
}

// CopyWidgets writes fixture definition files into dir.
func CopyWidgets(dir string, names ...string) error {
	if dir == "" {
		return errors.New("testsupport: widgets dir is required")
	}
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}

	entries, err := fs.ReadDir(WidgetFS(), ".")
	if err != nil {
		return fmt.Errorf("testsupport: read fixtures: %w", err)
	}
	for _, entry := range entries {
		file := entry.Name()
		if strings.HasSuffix(file, ".args.json") {
			continue
		}
		if len(wanted) > 0 && !wanted[fixtureName(file)] {
			continue
		}
		data, err := fs.ReadFile(WidgetFS(), file)
		if err != nil {
			return fmt.Errorf("testsupport: read %s: %w", file, err)
		}
		if err := os.WriteFile(filepath.Join(dir, file), data, 0o644); err != nil {
			return fmt.Errorf("testsupport: write %s: %w", file, err)
		}
	}
	return nil
}

func fixtureName(file string) string {
	for _, ext := range []string{".widget.yaml", ".widget.yml", ".widget.json", ".widget"} {
		if strings.HasSuffix(file, ext) {
			return strings.TrimSuffix(file, ext)
		}
	}
	return strings.TrimSuffix(file, path.Ext(file))
}

// MustLoadArgs returns the sample arguments that reproduce a fixture's
// output preview.
func MustLoadArgs(t *testing.T, name string) map[string]any {
	t.Helper()

	data, err := fs.ReadFile(WidgetFS(), name+".args.json")
	if err != nil {
		t.Fatalf("read args for %s: %v", name, err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal args for %s: %v", name, err)
	}
	return out
}

// WriteDefinition marshals record as JSON into dir/file and returns the path.
func WriteDefinition(t *testing.T, dir, file string, record map[string]any) string {
	t.Helper()

	payload, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		t.Fatalf("marshal definition: %v", err)
	}
	target := filepath.Join(dir, file)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(target, payload, 0o644); err != nil {
		t.Fatalf("write definition: %v", err)
	}
	return target
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// CaptureTemplateOutput executes a render function that writes to an io.Writer,
// returning both the string result and the writer contents.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}

	return out, buf.String()
}
