package widget

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoDefinitions reports that discovery produced zero usable definitions.
var ErrNoDefinitions = errors.New("widget: no widget definitions loaded")

// ConfigurationError covers fatal startup problems: a missing or invalid
// widgets directory, or tool identifiers that collide.
type ConfigurationError struct {
	Path    string
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("widget configuration: ")
	b.WriteString(e.Message)
	if e.Path != "" {
		b.WriteString(": ")
		b.WriteString(e.Path)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// LoadError describes a single definition file that could not be loaded.
// Loaders log and skip these; they never abort discovery on their own.
type LoadError struct {
	Path   string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	msg := fmt.Sprintf("widget load %s: %s", e.Path, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error { return e.Err }

// SchemaError reports a definition schema the compiler cannot turn into a
// validation model. Field is the dotted path of the offending property, empty
// for root-level problems.
type SchemaError struct {
	Model  string
	Field  string
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("widget schema")
	if e.Model != "" {
		b.WriteString(" ")
		b.WriteString(e.Model)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " field %q", e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *SchemaError) Unwrap() error { return e.Err }

// FieldIssue is one problem found while validating caller input.
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates every input problem found in one pass so callers
// can correct all of them in a single round trip.
type ValidationError struct {
	Model  string       `json:"model,omitempty"`
	Issues []FieldIssue `json:"issues"`
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("widget validation")
	if e.Model != "" {
		b.WriteString(" ")
		b.WriteString(e.Model)
	}
	fmt.Fprintf(&b, ": %d invalid field(s)", len(e.Issues))
	for _, issue := range e.Issues {
		b.WriteString("\n  - ")
		if issue.Field != "" {
			b.WriteString(issue.Field)
			b.WriteString(": ")
		}
		b.WriteString(issue.Message)
	}
	return b.String()
}

// Fields returns the offending field paths in report order.
func (e *ValidationError) Fields() []string {
	out := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		out = append(out, issue.Field)
	}
	return out
}

// RenderStage identifies which render step failed.
type RenderStage string

const (
	StageTemplate RenderStage = "template"
	StageParse    RenderStage = "parse"
	StageBuild    RenderStage = "build"
)

// RenderError reports a failure after input validation succeeded. A parse or
// build stage failure means the definition itself is broken, not the input.
type RenderError struct {
	Widget string
	Source string
	Stage  RenderStage
	Err    error
}

func (e *RenderError) Error() string {
	var reason string
	switch e.Stage {
	case StageTemplate:
		reason = "template evaluation failed"
	case StageParse:
		reason = "template produced invalid structured output"
	case StageBuild:
		reason = "rendered output is not a valid widget tree"
	default:
		reason = "render failed"
	}
	msg := fmt.Sprintf("widget render %q: %s", e.Widget, reason)
	if e.Source != "" {
		msg += " (" + e.Source + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RenderError) Unwrap() error { return e.Err }
