package loader_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-widgetmcp/internal/widget/loader"
	"github.com/goliatone/go-widgetmcp/pkg/widget"
)

const flightTracker = `{
  "name": "Flight Tracker",
  "version": "1.0",
  "jsonSchema": {
    "type": "object",
    "properties": {"flight_number": {"type": "string"}},
    "required": ["flight_number"]
  },
  "template": "{\"type\": \"Card\", \"children\": [{\"type\": \"Text\", \"value\": \"{{ flight_number }}\"}]}",
  "outputJsonPreview": {"type": "Card"}
}`

const createEventYAML = `name: Create Event
jsonSchema:
  type: object
  properties:
    title:
      type: string
    attendees:
      type: integer
      minimum: 1
template: '{"type": "Card"}'
`

func quietOptions(opts ...widget.LoaderOption) widget.LoaderOptions {
	base := []widget.LoaderOption{widget.WithLoaderLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}
	return widget.NewLoaderOptions(append(base, opts...)...)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func names(defs []*widget.Definition) []string {
	out := make([]string, 0, len(defs))
	for _, def := range defs {
		out = append(out, def.Name())
	}
	return out
}

func TestLoader_LoadsJSONAndYAMLSortedByName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "nested", "flight.widget"), flightTracker)
	writeFile(t, filepath.Join(dir, "event.widget.yaml"), createEventYAML)
	writeFile(t, filepath.Join(dir, "README.md"), "not a widget")

	defs, err := loader.New(quietOptions()).Load(context.Background(), dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if diff := cmp.Diff([]string{"Create Event", "Flight Tracker"}, names(defs)); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	event := defs[0]
	props := event.Schema()["properties"].(map[string]any)
	attendees := props["attendees"].(map[string]any)
	if got := attendees["minimum"]; got != float64(1) {
		t.Fatalf("yaml integers should normalise to float64, got %T(%v)", got, got)
	}

	flight := defs[1]
	if flight.Version() != "1.0" {
		t.Fatalf("version = %q", flight.Version())
	}
	if diff := cmp.Diff(map[string]any{"type": "Card"}, flight.OutputPreview()); diff != "" {
		t.Fatalf("preview mismatch (-want +got):\n%s", diff)
	}
	if !strings.HasSuffix(flight.SourcePath(), filepath.Join("nested", "flight.widget")) {
		t.Fatalf("unexpected source path %q", flight.SourcePath())
	}
}

func TestLoader_SkipsBrokenFilesAndContinues(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a_ok.widget"), flightTracker)
	writeFile(t, filepath.Join(dir, "b_malformed.widget"), `{"name": "Broken",`)
	writeFile(t, filepath.Join(dir, "c_no_template.widget"), `{"name": "No Template", "jsonSchema": {"type": "object"}}`)
	writeFile(t, filepath.Join(dir, "d_bad_schema.widget"), `{"name": "Bad", "jsonSchema": [], "template": "{}"}`)
	writeFile(t, filepath.Join(dir, "e_empty.widget"), "   ")
	writeFile(t, filepath.Join(dir, "f_bad_preview.widget"), `{"name": "P", "jsonSchema": {}, "template": "{}", "outputJsonPreview": "x"}`)

	var skipped []string
	opts := quietOptions(widget.WithSkipHandler(func(e *widget.LoadError) {
		skipped = append(skipped, filepath.Base(e.Path))
	}))

	defs, err := loader.New(opts).Load(context.Background(), dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{"Flight Tracker"}, names(defs)); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	want := []string{"b_malformed.widget", "c_no_template.widget", "d_bad_schema.widget", "e_empty.widget", "f_bad_preview.widget"}
	if diff := cmp.Diff(want, skipped); diff != "" {
		t.Fatalf("skipped mismatch (-want +got):\n%s", diff)
	}
}

type rejectChecker struct{}

func (rejectChecker) Check(src string) error {
	if strings.Contains(src, "{% if") {
		return errors.New("unclosed tag")
	}
	return nil
}

func TestLoader_TemplateCheckerRejectsUnparsableTemplates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ok.widget"), flightTracker)
	writeFile(t, filepath.Join(dir, "bad.widget"), `{"name": "Bad", "jsonSchema": {"type": "object"}, "template": "{% if x %}"}`)

	var reasons []string
	opts := quietOptions(
		widget.WithTemplateChecker(rejectChecker{}),
		widget.WithSkipHandler(func(e *widget.LoadError) { reasons = append(reasons, e.Reason) }),
	)
	defs, err := loader.New(opts).Load(context.Background(), dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("expected 1 definition, got %d", len(defs))
	}
	if diff := cmp.Diff([]string{"template does not parse"}, reasons); diff != "" {
		t.Fatalf("reasons mismatch (-want +got):\n%s", diff)
	}
}

func TestLoader_SymlinksOutsideRootAreSkippedAndDuplicatesLoadedOnce(t *testing.T) {
	outside := t.TempDir()
	writeFile(t, filepath.Join(outside, "escape.widget"), flightTracker)

	dir := t.TempDir()
	target := filepath.Join(dir, "flight.widget")
	writeFile(t, target, flightTracker)

	if err := os.Symlink(filepath.Join(outside, "escape.widget"), filepath.Join(dir, "escape.widget")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if err := os.Symlink(target, filepath.Join(dir, "alias.widget")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	var reasons []string
	opts := quietOptions(widget.WithSkipHandler(func(e *widget.LoadError) { reasons = append(reasons, e.Reason) }))
	defs, err := loader.New(opts).Load(context.Background(), dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("expected the aliased file once, got %d definitions", len(defs))
	}
	if diff := cmp.Diff([]string{"resolves outside the widgets directory"}, reasons); diff != "" {
		t.Fatalf("reasons mismatch (-want +got):\n%s", diff)
	}
}

func TestLoader_EmptyDirectory(t *testing.T) {
	dir := t.TempDir()

	defs, err := loader.New(quietOptions()).Load(context.Background(), dir)
	if err != nil {
		t.Fatalf("empty directory should only warn: %v", err)
	}
	if len(defs) != 0 {
		t.Fatalf("expected no definitions, got %d", len(defs))
	}

	_, err = loader.New(quietOptions(widget.WithRequireDefinitions(true))).Load(context.Background(), dir)
	var cfgErr *widget.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if !errors.Is(err, widget.ErrNoDefinitions) {
		t.Fatalf("expected ErrNoDefinitions in chain, got %v", err)
	}
}

func TestLoader_MissingDirectory(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	_, err := loader.New(quietOptions()).Load(context.Background(), missing)

	var cfgErr *widget.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if !strings.Contains(err.Error(), missing) {
		t.Fatalf("error should name the directory: %v", err)
	}
}

func TestLoader_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "flight.widget"), flightTracker)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := loader.New(quietOptions()).Load(ctx, dir); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestLoader_WithExtensions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "flight.wdg"), flightTracker)
	writeFile(t, filepath.Join(dir, "event.widget.yaml"), createEventYAML)

	defs, err := loader.New(quietOptions(widget.WithExtensions(".WDG"))).Load(context.Background(), dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{"Flight Tracker"}, names(defs)); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	defs, err = loader.New(quietOptions(widget.WithExtensions())).Load(context.Background(), dir)
	if err != nil {
		t.Fatalf("load with default extensions: %v", err)
	}
	if diff := cmp.Diff([]string{"Create Event"}, names(defs)); diff != "" {
		t.Fatalf("default extensions mismatch (-want +got):\n%s", diff)
	}
}
