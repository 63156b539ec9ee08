package render

import (
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-widgetmcp/pkg/model"
	"github.com/goliatone/go-widgetmcp/pkg/render/template"
	"github.com/goliatone/go-widgetmcp/pkg/uitree"
)

// Option configures a Renderer.
type Option func(*config)

type config struct {
	templates      template.TextRenderer
	builder        uitree.Builder
	models         *model.Cache
	sanitizer      Sanitizer
	logger         *slog.Logger
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// WithTemplateRenderer swaps the text template collaborator.
func WithTemplateRenderer(renderer template.TextRenderer) Option {
	return func(cfg *config) {
		cfg.templates = renderer
	}
}

// WithBuilder swaps the tree builder collaborator.
func WithBuilder(builder uitree.Builder) Option {
	return func(cfg *config) {
		cfg.builder = builder
	}
}

// WithModelCache shares a compiled model cache, typically the one the startup
// pipeline filled eagerly.
func WithModelCache(cache *model.Cache) Option {
	return func(cfg *config) {
		cfg.models = cache
	}
}

// WithSanitizer cleans every bound string before rendering.
func WithSanitizer(sanitizer Sanitizer) Option {
	return func(cfg *config) {
		cfg.sanitizer = sanitizer
	}
}

// WithLogger sets the logger for render diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithTracerProvider sets where render spans go. Defaults to the global provider.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(cfg *config) {
		cfg.tracerProvider = provider
	}
}

// WithMeterProvider sets where render metrics go. Defaults to the global provider.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(cfg *config) {
		cfg.meterProvider = provider
	}
}
