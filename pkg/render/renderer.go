package render

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-widgetmcp/pkg/model"
	"github.com/goliatone/go-widgetmcp/pkg/render/template"
	"github.com/goliatone/go-widgetmcp/pkg/render/template/gotemplate"
	"github.com/goliatone/go-widgetmcp/pkg/uitree"
	"github.com/goliatone/go-widgetmcp/pkg/widget"
)

// UndefinedBinding is always present in the template context and bound to
// nil, so templates can compare optional values against it.
const UndefinedBinding = "undefined"

// Renderer turns a definition plus caller arguments into a widget tree:
// validate, render the template, parse the output, build the tree.
type Renderer struct {
	templates template.TextRenderer
	builder   uitree.Builder
	models    *model.Cache
	sanitizer Sanitizer
	logger    *slog.Logger
	telemetry *telemetry
}

// New constructs a Renderer. Without WithTemplateRenderer the pongo2 engine
// is used; without WithBuilder a strict uitree builder is used.
func New(options ...Option) (*Renderer, error) {
	cfg := config{}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	if cfg.templates == nil {
		engine, err := gotemplate.New()
		if err != nil {
			return nil, fmt.Errorf("render: template engine: %w", err)
		}
		cfg.templates = engine
	}
	if cfg.builder == nil {
		cfg.builder = uitree.NewBuilder()
	}
	if cfg.models == nil {
		cfg.models = model.NewCache()
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	tel, err := newTelemetry(cfg.tracerProvider, cfg.meterProvider)
	if err != nil {
		return nil, fmt.Errorf("render: telemetry: %w", err)
	}

	return &Renderer{
		templates: cfg.templates,
		builder:   cfg.builder,
		models:    cfg.models,
		sanitizer: cfg.sanitizer,
		logger:    cfg.logger,
		telemetry: tel,
	}, nil
}

// Models exposes the compiled model cache shared with the tool exposer.
func (r *Renderer) Models() *model.Cache {
	return r.models
}

// Render validates args against the definition's model and renders it.
// Errors are *widget.SchemaError, *widget.ValidationError or
// *widget.RenderError. The returned tree belongs to the caller.
func (r *Renderer) Render(ctx context.Context, def *widget.Definition, args map[string]any) (uitree.Tree, error) {
	if def == nil {
		return uitree.Tree{}, errors.New("render: definition is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	started := time.Now()
	ctx, span := r.telemetry.tracer.Start(ctx, "widget.render",
		trace.WithAttributes(
			attribute.String("widget.name", def.Name()),
			attribute.String("widget.source", def.SourcePath()),
		),
	)
	defer span.End()

	tree, stage, err := r.render(def, args)
	r.telemetry.record(ctx, def.Name(), stage, time.Since(started))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("widget.failure_stage", stage))
		r.logger.Debug("widget render failed", "widget", def.Name(), "stage", stage, "error", err)
		return uitree.Tree{}, err
	}
	span.SetStatus(codes.Ok, "")
	return tree, nil
}

// failure stages reported on spans and metrics
const (
	stageNone       = ""
	stageSchema     = "schema"
	stageValidation = "validation"
)

func (r *Renderer) render(def *widget.Definition, args map[string]any) (uitree.Tree, string, error) {
	compiled, err := r.models.Get(def)
	if err != nil {
		return uitree.Tree{}, stageSchema, err
	}

	input, err := compiled.Validate(args)
	if err != nil {
		return uitree.Tree{}, stageValidation, err
	}

	bindings := make(map[string]any, len(input)+1)
	for key, value := range input {
		bindings[key] = sanitizeValue(r.sanitizer, value)
	}
	bindings[UndefinedBinding] = nil

	text, err := r.templates.RenderString(def.Template(), bindings)
	if err != nil {
		return uitree.Tree{}, string(widget.StageTemplate), stageError(def, widget.StageTemplate, err)
	}

	decoder := json.NewDecoder(strings.NewReader(text))
	var payload any
	if err := decoder.Decode(&payload); err != nil {
		return uitree.Tree{}, string(widget.StageParse), stageError(def, widget.StageParse, err)
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return uitree.Tree{}, string(widget.StageParse), stageError(def, widget.StageParse, errors.New("trailing data after JSON value"))
	}

	tree, err := r.builder.Build(payload)
	if err != nil {
		return uitree.Tree{}, string(widget.StageBuild), stageError(def, widget.StageBuild, err)
	}
	return tree, stageNone, nil
}

func stageError(def *widget.Definition, stage widget.RenderStage, err error) error {
	return &widget.RenderError{
		Widget: def.Name(),
		Source: def.SourcePath(),
		Stage:  stage,
		Err:    err,
	}
}
