package widget

import (
	"context"
	"log/slog"
)

// Loader discovers widget definitions beneath a guarded directory.
// Implementations live under internal/widget but satisfy this contract.
type Loader interface {
	Load(ctx context.Context, dir string) ([]*Definition, error)
}

// TemplateChecker verifies that a template parses before a definition is
// accepted. The render template engines implement it.
type TemplateChecker interface {
	Check(templateContent string) error
}

// DefaultExtensions lists the file suffixes recognised as definition files.
var DefaultExtensions = []string{".widget", ".widget.json", ".widget.yaml", ".widget.yml"}

// LoaderOptions configures discovery.
type LoaderOptions struct {
	// Extensions overrides DefaultExtensions. Matching is case-insensitive.
	Extensions []string

	// TemplateChecker, when set, rejects definitions whose template does not
	// parse. Without it only the presence of the template is enforced.
	TemplateChecker TemplateChecker

	// RequireDefinitions turns an empty result into a ConfigurationError.
	RequireDefinitions bool

	// OnSkip is invoked for every file excluded from the result.
	OnSkip func(*LoadError)

	// Logger receives skip warnings. Defaults to slog.Default().
	Logger *slog.Logger
}

// LoaderOption mutates LoaderOptions prior to construction.
type LoaderOption func(*LoaderOptions)

// WithExtensions overrides the recognised definition file suffixes.
func WithExtensions(exts ...string) LoaderOption {
	return func(opts *LoaderOptions) {
		if len(exts) == 0 {
			return
		}
		opts.Extensions = append([]string(nil), exts...)
	}
}

// WithTemplateChecker validates template syntax during load.
func WithTemplateChecker(checker TemplateChecker) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.TemplateChecker = checker
	}
}

// WithRequireDefinitions escalates an empty discovery result to a fatal
// ConfigurationError.
func WithRequireDefinitions(required bool) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.RequireDefinitions = required
	}
}

// WithSkipHandler registers a callback for files excluded from the result.
func WithSkipHandler(fn func(*LoadError)) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.OnSkip = fn
	}
}

// WithLoaderLogger sets the logger used for skip warnings.
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.Logger = logger
	}
}

// NewLoaderOptions applies a set of LoaderOption values and returns the
// resulting configuration.
func NewLoaderOptions(options ...LoaderOption) LoaderOptions {
	cfg := LoaderOptions{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = append([]string(nil), DefaultExtensions...)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return cfg
}

// Construction helpers live in the top-level widgetmcp package to prevent import cycles.
