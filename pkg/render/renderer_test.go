package render_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/goliatone/go-widgetmcp/internal/widget/loader"
	"github.com/goliatone/go-widgetmcp/pkg/render"
	"github.com/goliatone/go-widgetmcp/pkg/render/template/gotemplate"
	"github.com/goliatone/go-widgetmcp/pkg/testsupport"
	"github.com/goliatone/go-widgetmcp/pkg/uitree"
	"github.com/goliatone/go-widgetmcp/pkg/widget"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func flightTracker(t *testing.T, template string) *widget.Definition {
	t.Helper()
	def, err := widget.NewDefinition(widget.DefinitionParams{
		Name: "Flight Tracker",
		Schema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"number": map[string]any{"type": "string"}, "size": map[string]any{"type": "string"}},
			"required":   []any{"number"},
		},
		Template:   template,
		SourcePath: "/widgets/Flight Tracker.widget",
	})
	if err != nil {
		t.Fatalf("NewDefinition: %v", err)
	}
	return def
}

func newRenderer(t *testing.T, opts ...render.Option) *render.Renderer {
	t.Helper()
	r, err := render.New(append([]render.Option{render.WithLogger(quiet)}, opts...)...)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	return r
}

func TestRender_FlightTrackerExample(t *testing.T) {
	def := flightTracker(t, `{"type":"Card","children":[{"type":"Text","value":"{{number}}"}]}`)

	tree, err := newRenderer(t).Render(context.Background(), def, map[string]any{"number": "PA 845"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	want := map[string]any{
		"type":     "Card",
		"children": []any{map[string]any{"type": "Text", "value": "PA 845"}},
	}
	if diff := cmp.Diff(want, tree.Map()); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_FixturesMatchPreview(t *testing.T) {
	dir := testsupport.WidgetsDir(t, testsupport.FlightTracker, testsupport.CreateEvent)
	defs, err := loader.New(widget.NewLoaderOptions(widget.WithLoaderLogger(quiet))).Load(context.Background(), dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("expected 2 fixtures, got %d", len(defs))
	}

	r := newRenderer(t)
	for _, def := range defs {
		t.Run(def.Name(), func(t *testing.T) {
			tree, err := r.Render(context.Background(), def, testsupport.MustLoadArgs(t, def.Name()))
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			if err := uitree.MatchPreview(tree, def.OutputPreview()); err != nil {
				t.Fatalf("preview mismatch: %v", err)
			}
		})
	}
}

type countingTemplates struct {
	calls int
	err   error
}

func (c *countingTemplates) RenderString(string, any, ...io.Writer) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return `{"type":"Card"}`, nil
}

func TestRender_ValidationErrorSkipsTemplate(t *testing.T) {
	templates := &countingTemplates{}
	r := newRenderer(t, render.WithTemplateRenderer(templates))
	def := flightTracker(t, `{"type":"Card"}`)

	_, err := r.Render(context.Background(), def, map[string]any{"size": 3, "extra": true})
	var validationErr *widget.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if diff := cmp.Diff([]string{"number", "size", "extra"}, validationErr.Fields()); diff != "" {
		t.Fatalf("issue fields mismatch (-want +got):\n%s", diff)
	}
	if templates.calls != 0 {
		t.Fatalf("template rendered %d time(s) despite invalid input", templates.calls)
	}
}

func TestRender_StageErrors(t *testing.T) {
	cause := errors.New("boom")
	cases := []struct {
		name     string
		template string
		opts     []render.Option
		stage    widget.RenderStage
	}{
		{"template", `{"type":"Card"}`, []render.Option{render.WithTemplateRenderer(&countingTemplates{err: cause})}, widget.StageTemplate},
		{"parse", `not json {{ number }}`, nil, widget.StageParse},
		{"trailing data", `{"type":"Card"} {"type":"Card"}`, nil, widget.StageParse},
		{"trailing brace", `{"type":"Card"}}`, nil, widget.StageParse},
		{"trailing bracket", `{"type":"Card"}]`, nil, widget.StageParse},
		{"empty output", `{% if size %}{"type":"Card"}{% endif %}`, nil, widget.StageParse},
		{"build", `{"type":"Text","value":"{{ number }}"}`, nil, widget.StageBuild},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			def := flightTracker(t, tc.template)
			_, err := newRenderer(t, tc.opts...).Render(context.Background(), def, map[string]any{"number": "PA 845"})

			var renderErr *widget.RenderError
			if !errors.As(err, &renderErr) {
				t.Fatalf("expected RenderError, got %v", err)
			}
			if renderErr.Stage != tc.stage {
				t.Fatalf("stage = %q, want %q", renderErr.Stage, tc.stage)
			}
			if renderErr.Widget != "Flight Tracker" || renderErr.Source != "/widgets/Flight Tracker.widget" {
				t.Fatalf("error lacks definition context: %+v", renderErr)
			}
			if renderErr.Err == nil {
				t.Fatal("error lacks cause")
			}
		})
	}
}

func TestRender_SchemaError(t *testing.T) {
	def := widget.MustNewDefinition(widget.DefinitionParams{
		Name:     "Odd",
		Schema:   map[string]any{"type": "object", "properties": map[string]any{"x": map[string]any{"type": "tuple"}}},
		Template: `{"type":"Card"}`,
	})

	_, err := newRenderer(t).Render(context.Background(), def, nil)
	var schemaErr *widget.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
}

func TestRender_UndefinedBinding(t *testing.T) {
	def := flightTracker(t, `{"type":"Card","size":{% if size == undefined %}"md"{% else %}"{{ size }}"{% endif %}}`)
	r := newRenderer(t)

	for want, args := range map[string]map[string]any{
		"md": {"number": "PA 845"},
		"lg": {"number": "PA 845", "size": "lg"},
	} {
		tree, err := r.Render(context.Background(), def, args)
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		if got := tree.Root.Props["size"]; got != want {
			t.Fatalf("size = %v, want %s", got, want)
		}
	}
}

func TestRender_UndefinedReferenceIsTemplateError(t *testing.T) {
	def := flightTracker(t, `{"type":"Card","children":[{"type":"Text","value":"{{ nosuchvar }}"}]}`)

	_, err := newRenderer(t).Render(context.Background(), def, map[string]any{"number": "PA 845"})

	var renderErr *widget.RenderError
	if !errors.As(err, &renderErr) {
		t.Fatalf("expected RenderError, got %v", err)
	}
	if renderErr.Stage != widget.StageTemplate {
		t.Fatalf("stage = %q, want %q", renderErr.Stage, widget.StageTemplate)
	}
	var undefined *gotemplate.UndefinedVariableError
	if !errors.As(err, &undefined) {
		t.Fatalf("expected UndefinedVariableError cause, got %v", renderErr.Err)
	}
	if diff := cmp.Diff([]string{"nosuchvar"}, undefined.Names); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_StripMarkup(t *testing.T) {
	def := flightTracker(t, `{"type":"Card","children":[{"type":"Text","value":"{{ number }}"}]}`)
	r := newRenderer(t, render.WithSanitizer(render.StripMarkup()))

	tree, err := r.Render(context.Background(), def, map[string]any{"number": `<script>alert(1)</script><b>PA</b> 845 & co`})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := tree.Root.Children[0].Props["value"]; got != "PA 845 & co" {
		t.Fatalf("value = %q", got)
	}
}

func TestRender_Telemetry(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	r := newRenderer(t, render.WithTracerProvider(tp), render.WithMeterProvider(mp))
	def := flightTracker(t, `{"type":"Card"}`)

	if _, err := r.Render(context.Background(), def, map[string]any{"number": "PA 845"}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if _, err := r.Render(context.Background(), def, map[string]any{}); err == nil {
		t.Fatal("expected validation failure")
	}

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name != "widget.render" || spans[0].Status.Code != otelcodes.Ok {
		t.Fatalf("unexpected first span %q status %v", spans[0].Name, spans[0].Status.Code)
	}
	if spans[1].Status.Code != otelcodes.Error {
		t.Fatalf("expected failed span, got %v", spans[1].Status.Code)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	calls := sumOf(t, rm, "widget.render.calls")
	if len(calls.DataPoints) != 1 || calls.DataPoints[0].Value != 2 {
		t.Fatalf("unexpected calls data %+v", calls.DataPoints)
	}
	failures := sumOf(t, rm, "widget.render.failures")
	if len(failures.DataPoints) != 1 || failures.DataPoints[0].Value != 1 {
		t.Fatalf("unexpected failure data %+v", failures.DataPoints)
	}
	stage, ok := failures.DataPoints[0].Attributes.Value(attribute.Key("stage"))
	if !ok || stage.AsString() != "validation" {
		t.Fatalf("failure stage attribute = %v", stage)
	}
}

func sumOf(t *testing.T, rm metricdata.ResourceMetrics, name string) metricdata.Sum[int64] {
	t.Helper()
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("%s: expected Sum[int64], got %T", name, m.Data)
			}
			return sum
		}
	}
	t.Fatalf("metric %s not found", name)
	return metricdata.Sum[int64]{}
}

func TestRender_Concurrent(t *testing.T) {
	def := flightTracker(t, `{"type":"Card","children":[{"type":"Text","value":"{{ number }}"}]}`)
	r := newRenderer(t)

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tree, err := r.Render(context.Background(), def, map[string]any{"number": "PA 845"})
			if err != nil {
				errs <- err
				return
			}
			tree.Root.Children[0].Props["value"] = "mutated"
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Render: %v", err)
	}
	if r.Models().Len() != 1 {
		t.Fatalf("expected one cached model, got %d", r.Models().Len())
	}
}
