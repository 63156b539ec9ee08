package model

import (
	internalmodel "github.com/goliatone/go-widgetmcp/internal/model"
	"github.com/goliatone/go-widgetmcp/pkg/widget"
)

// Model validates caller arguments against a compiled schema. It is
// immutable and safe for concurrent use.
type Model struct {
	compiled  internalmodel.Model
	validator *internalmodel.Validator
}

// Name returns the model name, e.g. "FlightTrackerModel".
func (m *Model) Name() string { return m.compiled.Name }

// Title returns the schema title, if any.
func (m *Model) Title() string { return m.compiled.Title }

// Description returns the schema description, if any.
func (m *Model) Description() string { return m.compiled.Description }

// AllowsExtra reports whether undeclared top-level keys are accepted.
func (m *Model) AllowsExtra() bool { return m.compiled.AllowExtra }

// Extra describes the values accepted under undeclared top-level keys, or nil
// when they pass through unchecked.
func (m *Model) Extra() *Field {
	if m.compiled.Extra == nil {
		return nil
	}
	extra := cloneField(*m.compiled.Extra)
	return &extra
}

// Fields returns a copy of the ordered field descriptors.
func (m *Model) Fields() []Field {
	return cloneFields(m.compiled.Fields)
}

// Validate checks args and returns the coerced input. Every problem found is
// reported in a single *widget.ValidationError.
func (m *Model) Validate(args map[string]any) (Input, error) {
	out, issues := m.validator.Validate(args)
	if len(issues) > 0 {
		verr := &widget.ValidationError{Model: m.compiled.Name, Issues: make([]widget.FieldIssue, 0, len(issues))}
		for _, issue := range issues {
			verr.Issues = append(verr.Issues, widget.FieldIssue{Field: issue.Path, Message: issue.Message})
		}
		return nil, verr
	}
	return Input(out), nil
}

func cloneFields(fields []Field) []Field {
	if fields == nil {
		return nil
	}
	out := make([]Field, len(fields))
	for i, field := range fields {
		out[i] = cloneField(field)
	}
	return out
}

func cloneField(field Field) Field {
	out := field
	out.Enum = append([]any(nil), field.Enum...)
	out.Nested = cloneFields(field.Nested)
	if field.Items != nil {
		items := cloneField(*field.Items)
		out.Items = &items
	}
	if field.Extra != nil {
		extra := cloneField(*field.Extra)
		out.Extra = &extra
	}
	if field.Validations != nil {
		out.Validations = make([]ValidationRule, len(field.Validations))
		for i, rule := range field.Validations {
			params := make(map[string]string, len(rule.Params))
			for k, v := range rule.Params {
				params[k] = v
			}
			out.Validations[i] = ValidationRule{Kind: rule.Kind, Params: params}
		}
	}
	return out
}
