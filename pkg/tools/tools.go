package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/goliatone/go-widgetmcp/pkg/model"
	"github.com/goliatone/go-widgetmcp/pkg/render"
	"github.com/goliatone/go-widgetmcp/pkg/uitree"
	"github.com/goliatone/go-widgetmcp/pkg/widget"
)

// Registrar receives tool registrations. *mcp.Server satisfies it.
type Registrar interface {
	AddTool(tool *mcp.Tool, handler mcp.ToolHandler)
}

var _ Registrar = (*mcp.Server)(nil)

// Renderer produces the tree a tool call returns.
type Renderer interface {
	Render(ctx context.Context, def *widget.Definition, args map[string]any) (uitree.Tree, error)
}

// Registration reports what Expose did with one definition. Err is set, and
// Tool is nil, when the definition's schema could not be compiled.
type Registration struct {
	Name       string
	Definition *widget.Definition
	Tool       *mcp.Tool
	Err        error
}

// Option configures Expose.
type Option func(*config)

type config struct {
	renderer    Renderer
	models      *model.Cache
	logger      *slog.Logger
	failOnError bool
}

// WithRenderer sets the renderer tool handlers delegate to. It should share
// the model cache passed with WithModelCache.
func WithRenderer(renderer Renderer) Option {
	return func(cfg *config) {
		cfg.renderer = renderer
	}
}

// WithModelCache sets the cache used to compile each definition's model.
func WithModelCache(cache *model.Cache) Option {
	return func(cfg *config) {
		cfg.models = cache
	}
}

// WithLogger sets the logger for registration and call diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithFailOnSchemaError makes a definition whose schema cannot be compiled
// abort Expose instead of being skipped.
func WithFailOnSchemaError(fail bool) Option {
	return func(cfg *config) {
		cfg.failOnError = fail
	}
}

// Expose registers one tool per definition. Identifiers are derived and
// checked for collisions before anything is registered, so a collision
// leaves reg untouched. Registrations come back in definition order.
func Expose(ctx context.Context, reg Registrar, defs []*widget.Definition, options ...Option) ([]Registration, error) {
	if reg == nil {
		return nil, errors.New("tools: registrar is nil")
	}
	cfg := config{}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.models == nil {
		cfg.models = model.NewCache()
	}
	if cfg.renderer == nil {
		renderer, err := render.New(render.WithModelCache(cfg.models), render.WithLogger(cfg.logger))
		if err != nil {
			return nil, fmt.Errorf("tools: renderer: %w", err)
		}
		cfg.renderer = renderer
	}

	names, err := Names(defs)
	if err != nil {
		return nil, err
	}

	registrations := make([]Registration, 0, len(defs))
	for idx, def := range defs {
		if err := ctx.Err(); err != nil {
			return registrations, err
		}
		name := names[idx]
		compiled, err := cfg.models.Get(def)
		if err != nil {
			if cfg.failOnError {
				return registrations, err
			}
			cfg.logger.Warn("skipping widget tool", "tool", name, "path", def.SourcePath(), "error", err)
			registrations = append(registrations, Registration{Name: name, Definition: def, Err: err})
			continue
		}

		tool := &mcp.Tool{
			Name:        name,
			Title:       def.Name(),
			Description: Description(def),
			InputSchema: InputSchema(compiled, widget.ArgumentsTitle(def.Name())),
			Annotations: &mcp.ToolAnnotations{
				Title:          def.Name(),
				ReadOnlyHint:   true,
				IdempotentHint: true,
			},
		}
		reg.AddTool(tool, newHandler(name, def, cfg.renderer, cfg.logger))
		cfg.logger.Debug("registered widget tool", "tool", name, "widget", def.Name())
		registrations = append(registrations, Registration{Name: name, Definition: def, Tool: tool})
	}
	return registrations, nil
}

// Names derives the tool identifier for every definition, in order. An empty
// identifier or two definitions sharing one is a *widget.ConfigurationError.
func Names(defs []*widget.Definition) ([]string, error) {
	names := make([]string, len(defs))
	owners := make(map[string][]*widget.Definition, len(defs))
	for idx, def := range defs {
		if def == nil {
			return nil, &widget.ConfigurationError{Message: fmt.Sprintf("definition %d is nil", idx)}
		}
		name := widget.ToolName(def.Name())
		if name == "" {
			return nil, &widget.ConfigurationError{
				Path:    def.SourcePath(),
				Message: fmt.Sprintf("widget %q does not yield a tool name", def.Name()),
			}
		}
		names[idx] = name
		owners[name] = append(owners[name], def)
	}

	var conflicts []string
	for name, group := range owners {
		if len(group) < 2 {
			continue
		}
		labels := make([]string, 0, len(group))
		for _, def := range group {
			label := fmt.Sprintf("%q", def.Name())
			if def.SourcePath() != "" {
				label += " (" + def.SourcePath() + ")"
			}
			labels = append(labels, label)
		}
		conflicts = append(conflicts, fmt.Sprintf("%s <- %s", name, strings.Join(labels, ", ")))
	}
	if len(conflicts) > 0 {
		sort.Strings(conflicts)
		return nil, &widget.ConfigurationError{
			Message: "tool name collision: " + strings.Join(conflicts, "; "),
		}
	}
	return names, nil
}

// Description is the tool description advertised for a definition.
func Description(def *widget.Definition) string {
	return fmt.Sprintf("Generate a %s widget.\n\n"+
		"This tool creates a %s widget with the provided data.\n"+
		"The input must conform to the widget's JSON schema.", def.Name(), def.Name())
}
