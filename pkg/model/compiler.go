package model

import (
	"errors"

	"github.com/goliatone/go-widgetmcp/internal/jsonschema/parser"
	internalmodel "github.com/goliatone/go-widgetmcp/internal/model"
	"github.com/goliatone/go-widgetmcp/pkg/widget"
)

// DefaultMaxDepth caps object/array nesting in compiled schemas.
const DefaultMaxDepth = parser.DefaultMaxDepth

// CompilerOption configures the compiler behaviour.
type CompilerOption func(*compilerOptions)

type compilerOptions struct {
	labeler     func(string) string
	maxDepth    int
	maxRefDepth int
}

// WithLabeler overrides the default label generation function.
func WithLabeler(labeler func(string) string) CompilerOption {
	return func(opts *compilerOptions) {
		opts.labeler = labeler
	}
}

// WithMaxDepth caps object/array nesting. Values <= 0 keep the default.
func WithMaxDepth(depth int) CompilerOption {
	return func(opts *compilerOptions) {
		opts.maxDepth = depth
	}
}

// WithMaxRefDepth caps $ref resolution chains. Values <= 0 keep the default.
func WithMaxRefDepth(depth int) CompilerOption {
	return func(opts *compilerOptions) {
		opts.maxRefDepth = depth
	}
}

// Compiler turns raw JSON schemas into Models. Compile is deterministic and
// has no side effects, so a Compiler is safe for concurrent use.
type Compiler struct {
	parser  *parser.Parser
	builder *internalmodel.Builder
}

// NewCompiler returns a Compiler backed by the internal parser and builder.
func NewCompiler(options ...CompilerOption) *Compiler {
	cfg := compilerOptions{maxDepth: DefaultMaxDepth}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.maxDepth <= 0 {
		cfg.maxDepth = DefaultMaxDepth
	}

	return &Compiler{
		parser: parser.New(parser.Options{MaxDepth: cfg.maxDepth, MaxRefDepth: cfg.maxRefDepth}),
		builder: internalmodel.New(internalmodel.Options{
			Labeler:  cfg.labeler,
			MaxDepth: cfg.maxDepth,
		}),
	}
}

// Compile builds a Model named name from schema. Any problem with the schema
// is reported as *widget.SchemaError naming the offending field path.
func (c *Compiler) Compile(schema map[string]any, name string) (*Model, error) {
	ir, err := c.parser.Parse(schema)
	if err != nil {
		return nil, schemaError(name, err)
	}
	compiled, err := c.builder.Build(name, ir)
	if err != nil {
		return nil, schemaError(name, err)
	}
	validator, err := internalmodel.NewValidator(compiled)
	if err != nil {
		return nil, schemaError(name, err)
	}
	return &Model{compiled: compiled, validator: validator}, nil
}

func schemaError(name string, err error) error {
	var perr *parser.Error
	if errors.As(err, &perr) {
		return &widget.SchemaError{Model: name, Field: perr.Path, Reason: perr.Reason, Err: perr.Err}
	}
	var berr *internalmodel.Error
	if errors.As(err, &berr) {
		return &widget.SchemaError{Model: name, Field: berr.Path, Reason: berr.Reason, Err: berr.Err}
	}
	return &widget.SchemaError{Model: name, Reason: "cannot compile schema", Err: err}
}
