package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-widgetmcp/pkg/widget"
)

func (l *Loader) loadFile(path string) (*widget.Definition, *widget.LoadError) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &widget.LoadError{Path: path, Reason: "cannot read file", Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &widget.LoadError{Path: path, Reason: "file is empty"}
	}

	record, err := decodeRecord(path, data)
	if err != nil {
		return nil, &widget.LoadError{Path: path, Reason: "malformed definition", Err: err}
	}

	params, reason := recordParams(record)
	if reason != "" {
		return nil, &widget.LoadError{Path: path, Reason: reason}
	}
	params.SourcePath = path

	if l.checker != nil {
		if err := l.checker.Check(params.Template); err != nil {
			return nil, &widget.LoadError{Path: path, Reason: "template does not parse", Err: err}
		}
	}

	def, err := widget.NewDefinition(params)
	if err != nil {
		return nil, &widget.LoadError{Path: path, Reason: "invalid definition", Err: err}
	}
	return def, nil
}

func decodeRecord(path string, data []byte) (map[string]any, error) {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") {
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		record, ok := normalizeYAML(raw).(map[string]any)
		if !ok {
			return nil, fmt.Errorf("top-level value must be a mapping")
		}
		return record, nil
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	record, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("top-level value must be an object")
	}
	return record, nil
}

// recordParams checks field presence and types. A non-empty reason means the
// record is rejected.
func recordParams(record map[string]any) (widget.DefinitionParams, string) {
	var params widget.DefinitionParams

	name, ok := record["name"].(string)
	if !ok || strings.TrimSpace(name) == "" {
		return params, `missing or invalid "name": expected a non-empty string`
	}
	schema, ok := record["jsonSchema"].(map[string]any)
	if !ok {
		return params, `missing or invalid "jsonSchema": expected an object`
	}
	tmpl, ok := record["template"].(string)
	if !ok || strings.TrimSpace(tmpl) == "" {
		return params, `missing or invalid "template": expected a non-empty string`
	}
	params.Name = name
	params.Schema = schema
	params.Template = tmpl

	if raw, present := record["version"]; present && raw != nil {
		switch v := raw.(type) {
		case string:
			params.Version = v
		case float64:
			params.Version = fmt.Sprint(v)
		default:
			return params, `invalid "version": expected a string`
		}
	}
	if raw, present := record["outputJsonPreview"]; present && raw != nil {
		preview, ok := raw.(map[string]any)
		if !ok {
			return params, `invalid "outputJsonPreview": expected an object`
		}
		params.OutputPreview = preview
	}
	if raw, present := record["encodedWidget"]; present && raw != nil {
		encoded, ok := raw.(string)
		if !ok {
			return params, `invalid "encodedWidget": expected a string`
		}
		params.EncodedWidget = encoded
	}
	return params, ""
}

// normalizeYAML converts yaml.v3 generic values into the shapes encoding/json
// produces so downstream code sees one representation.
func normalizeYAML(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = normalizeYAML(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[fmt.Sprint(key)] = normalizeYAML(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalizeYAML(item)
		}
		return out
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case uint64:
		return float64(v)
	default:
		return v
	}
}
