package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-widgetmcp/internal/widget/loader"
	"github.com/goliatone/go-widgetmcp/pkg/model"
	"github.com/goliatone/go-widgetmcp/pkg/render"
	"github.com/goliatone/go-widgetmcp/pkg/render/template"
	"github.com/goliatone/go-widgetmcp/pkg/render/template/gotemplate"
	"github.com/goliatone/go-widgetmcp/pkg/tools"
	"github.com/goliatone/go-widgetmcp/pkg/uitree"
	"github.com/goliatone/go-widgetmcp/pkg/widget"
)

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithLoader injects a custom definition loader. Skipped files are then only
// reported through the loader's own skip handler.
func WithLoader(l widget.Loader) Option {
	return func(o *Orchestrator) {
		o.loader = l
	}
}

// WithLoaderOptions forwards options to the built-in loader.
func WithLoaderOptions(options ...widget.LoaderOption) Option {
	return func(o *Orchestrator) {
		o.loaderOptions = append(o.loaderOptions, options...)
	}
}

// WithTemplateEngine injects the template engine used for load-time syntax
// checks and rendering.
func WithTemplateEngine(engine template.TemplateRenderer) Option {
	return func(o *Orchestrator) {
		o.templates = engine
	}
}

// WithTemplateOptions forwards options to the built-in pongo2 engine, for
// example gotemplate.WithGlobalData to expose values every widget template
// can read, or gotemplate.WithTemplateFunc to add filters and functions.
// Ignored when WithTemplateEngine supplies an engine.
func WithTemplateOptions(options ...gotemplate.Option) Option {
	return func(o *Orchestrator) {
		o.templateOptions = append(o.templateOptions, options...)
	}
}

// WithTreeBuilder injects the widget tree builder.
func WithTreeBuilder(builder uitree.Builder) Option {
	return func(o *Orchestrator) {
		o.builder = builder
	}
}

// WithModelCache injects the compiled model cache.
func WithModelCache(cache *model.Cache) Option {
	return func(o *Orchestrator) {
		o.models = cache
	}
}

// WithRequireDefinitions makes Load fail when no definition loads.
func WithRequireDefinitions(required bool) Option {
	return func(o *Orchestrator) {
		o.requireDefinitions = required
	}
}

// WithStripMarkup strips HTML from caller strings before rendering.
func WithStripMarkup(strip bool) Option {
	return func(o *Orchestrator) {
		o.stripMarkup = strip
	}
}

// WithFailOnSchemaError makes an uncompilable schema fatal at startup instead
// of skipping that definition.
func WithFailOnSchemaError(fail bool) Option {
	return func(o *Orchestrator) {
		o.failOnSchemaError = fail
	}
}

// WithLogger sets the logger shared by every pipeline stage.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithTelemetry routes render spans and metrics to the given providers.
func WithTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) Option {
	return func(o *Orchestrator) {
		o.tracerProvider = tp
		o.meterProvider = mp
	}
}

// Orchestrator coordinates discovery, compilation, tool registration and
// rendering. Missing dependencies are initialised with the built-in
// implementations so callers can start with a single constructor call.
type Orchestrator struct {
	loader             widget.Loader
	loaderOptions      []widget.LoaderOption
	templates          template.TemplateRenderer
	templateOptions    []gotemplate.Option
	builder            uitree.Builder
	models             *model.Cache
	renderer           *render.Renderer
	logger             *slog.Logger
	tracerProvider     trace.TracerProvider
	meterProvider      metric.MeterProvider
	requireDefinitions bool
	stripMarkup        bool
	failOnSchemaError  bool
	initialiseErr      error
}

// New constructs an Orchestrator applying any provided options. Construction
// problems surface from the first Load, Register or Render call.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// CompileFailure pairs a definition with the schema error that kept it from
// becoming a tool.
type CompileFailure struct {
	Definition *widget.Definition
	Err        error
}

// Catalog is the result of loading and eagerly compiling a widgets directory.
type Catalog struct {
	Dir         string
	Definitions []*widget.Definition
	Skipped     []*widget.LoadError
	Failed      []CompileFailure
}

// Usable returns the definitions whose schema compiled.
func (c *Catalog) Usable() []*widget.Definition {
	if c == nil {
		return nil
	}
	failed := make(map[*widget.Definition]bool, len(c.Failed))
	for _, failure := range c.Failed {
		failed[failure.Definition] = true
	}
	out := make([]*widget.Definition, 0, len(c.Definitions))
	for _, def := range c.Definitions {
		if !failed[def] {
			out = append(out, def)
		}
	}
	return out
}

// Load guards dir, discovers every definition beneath it and compiles each
// schema once. Files that fail to load are reported in Skipped; schemas that
// fail to compile are reported in Failed, or returned as the error when
// WithFailOnSchemaError is set.
func (o *Orchestrator) Load(ctx context.Context, dir string) (*Catalog, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	if err := o.initialiseErr; err != nil {
		return nil, err
	}

	catalog := &Catalog{}
	l := o.loader
	if l == nil {
		options := append([]widget.LoaderOption{
			widget.WithTemplateChecker(o.templates),
			widget.WithRequireDefinitions(o.requireDefinitions),
			widget.WithLoaderLogger(o.logger),
		}, o.loaderOptions...)
		cfg := widget.NewLoaderOptions(options...)
		onSkip := cfg.OnSkip
		cfg.OnSkip = func(loadErr *widget.LoadError) {
			catalog.Skipped = append(catalog.Skipped, loadErr)
			if onSkip != nil {
				onSkip(loadErr)
			}
		}
		l = loader.New(cfg)
	}

	guarded, err := widget.GuardDir(dir)
	if err != nil {
		return nil, err
	}
	catalog.Dir = guarded

	defs, err := l.Load(ctx, guarded)
	if err != nil {
		return nil, err
	}
	catalog.Definitions = defs

	for _, def := range defs {
		if _, err := o.models.Get(def); err != nil {
			if o.failOnSchemaError {
				return nil, err
			}
			o.logger.Warn("widget schema does not compile", "widget", def.Name(), "path", def.SourcePath(), "error", err)
			catalog.Failed = append(catalog.Failed, CompileFailure{Definition: def, Err: err})
		}
	}

	o.logger.Info("widget definitions loaded",
		"dir", guarded,
		"loaded", len(defs),
		"skipped", len(catalog.Skipped),
		"failed", len(catalog.Failed),
	)
	return catalog, nil
}

// Register exposes every catalog definition as a tool on reg. Definitions
// whose schema failed are skipped by the exposer.
func (o *Orchestrator) Register(ctx context.Context, reg tools.Registrar, catalog *Catalog) ([]tools.Registration, error) {
	if err := o.initialiseErr; err != nil {
		return nil, err
	}
	if catalog == nil {
		return nil, errors.New("orchestrator: catalog is required")
	}
	return tools.Expose(ctx, reg, catalog.Definitions,
		tools.WithRenderer(o.renderer),
		tools.WithModelCache(o.models),
		tools.WithLogger(o.logger),
		tools.WithFailOnSchemaError(o.failOnSchemaError),
	)
}

// Render validates args and renders a single definition.
func (o *Orchestrator) Render(ctx context.Context, def *widget.Definition, args map[string]any) (uitree.Tree, error) {
	if err := o.initialiseErr; err != nil {
		return uitree.Tree{}, err
	}
	return o.renderer.Render(ctx, def, args)
}

// Models returns the shared compiled model cache.
func (o *Orchestrator) Models() *model.Cache {
	return o.models
}

func (o *Orchestrator) applyDefaults() {
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.models == nil {
		o.models = model.NewCache()
	}
	if o.builder == nil {
		o.builder = uitree.NewBuilder()
	}
	if o.templates == nil {
		engine, err := gotemplate.New(o.templateOptions...)
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: template engine: %w", err)
			return
		}
		o.templates = engine
	}

	renderOptions := []render.Option{
		render.WithTemplateRenderer(o.templates),
		render.WithBuilder(o.builder),
		render.WithModelCache(o.models),
		render.WithLogger(o.logger),
		render.WithTracerProvider(o.tracerProvider),
		render.WithMeterProvider(o.meterProvider),
	}
	if o.stripMarkup {
		renderOptions = append(renderOptions, render.WithSanitizer(render.StripMarkup()))
	}
	renderer, err := render.New(renderOptions...)
	if err != nil {
		o.initialiseErr = fmt.Errorf("orchestrator: renderer: %w", err)
		return
	}
	o.renderer = renderer
}
