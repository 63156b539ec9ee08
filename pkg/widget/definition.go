package widget

import (
	"encoding/json"
	"errors"
	"strings"
)

// Definition is one curated widget: a parameter schema, the template that
// turns validated parameters into a widget tree, and descriptive metadata.
// Definitions are immutable; accessors hand out copies of mutable state.
type Definition struct {
	name          string
	version       string
	schema        map[string]any
	template      string
	outputPreview map[string]any
	encodedWidget string
	sourcePath    string
}

// DefinitionParams carries the raw values used to build a Definition.
type DefinitionParams struct {
	Name          string
	Version       string
	Schema        map[string]any
	Template      string
	OutputPreview map[string]any
	EncodedWidget string
	SourcePath    string
}

// NewDefinition validates the supplied parameters and returns a Definition
// holding private copies of them.
func NewDefinition(params DefinitionParams) (*Definition, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, errors.New("widget: name is required")
	}
	if params.Schema == nil {
		return nil, errors.New("widget: schema is required")
	}
	if strings.TrimSpace(params.Template) == "" {
		return nil, errors.New("widget: template is required")
	}

	return &Definition{
		name:          name,
		version:       params.Version,
		schema:        cloneMap(params.Schema),
		template:      params.Template,
		outputPreview: cloneMap(params.OutputPreview),
		encodedWidget: params.EncodedWidget,
		sourcePath:    params.SourcePath,
	}, nil
}

// MustNewDefinition panics if the definition cannot be created. Useful for tests.
func MustNewDefinition(params DefinitionParams) *Definition {
	def, err := NewDefinition(params)
	if err != nil {
		panic(err)
	}
	return def
}

// Name returns the display name.
func (d *Definition) Name() string { return d.name }

// Version returns the informational format version.
func (d *Definition) Version() string { return d.version }

// Schema returns a deep copy of the JSON schema describing the parameters.
func (d *Definition) Schema() map[string]any { return cloneMap(d.schema) }

// Template returns the template source.
func (d *Definition) Template() string { return d.template }

// OutputPreview returns a deep copy of the reference output, or nil.
func (d *Definition) OutputPreview() map[string]any { return cloneMap(d.outputPreview) }

// EncodedWidget returns the opaque encoded payload shipped with the file.
func (d *Definition) EncodedWidget() string { return d.encodedWidget }

// SourcePath returns the file the definition was loaded from.
func (d *Definition) SourcePath() string { return d.sourcePath }

// MarshalJSON emits the definition in the on-disk field layout.
func (d *Definition) MarshalJSON() ([]byte, error) {
	payload := map[string]any{
		"name":       d.name,
		"jsonSchema": d.schema,
		"template":   d.template,
	}
	if d.version != "" {
		payload["version"] = d.version
	}
	if d.outputPreview != nil {
		payload["outputJsonPreview"] = d.outputPreview
	}
	if d.encodedWidget != "" {
		payload["encodedWidget"] = d.encodedWidget
	}
	return json.Marshal(payload)
}

// FindByName returns the first definition whose display name matches.
func FindByName(defs []*Definition, name string) (*Definition, bool) {
	for _, def := range defs {
		if def != nil && def.name == name {
			return def, true
		}
	}
	return nil, false
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = cloneValue(value)
	}
	return out
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return cloneMap(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
