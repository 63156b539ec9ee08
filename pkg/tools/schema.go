package tools

import (
	"encoding/json"
	"strconv"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/goliatone/go-widgetmcp/pkg/model"
)

// InputSchema synthesizes the schema advertised to tool callers from a
// compiled model. It mirrors what Validate enforces: property types,
// requiredness, nullability, enums, bounds, defaults and whether undeclared
// keys are accepted.
func InputSchema(m *model.Model, title string) *jsonschema.Schema {
	root := &jsonschema.Schema{
		Type:        "object",
		Title:       title,
		Description: m.Description(),
	}
	root.Properties, root.Required = objectProperties(m.Fields())
	root.AdditionalProperties = additional(m.AllowsExtra(), m.Extra())
	return root
}

func objectProperties(fields []model.Field) (map[string]*jsonschema.Schema, []string) {
	props := make(map[string]*jsonschema.Schema, len(fields))
	var required []string
	for _, field := range fields {
		props[field.Name] = fieldSchema(field)
		if field.Required {
			required = append(required, field.Name)
		}
	}
	return props, required
}

func fieldSchema(field model.Field) *jsonschema.Schema {
	s := &jsonschema.Schema{
		Title:       field.Label,
		Description: field.Description,
		Format:      field.Format,
	}
	if field.Nullable {
		s.Types = []string{string(field.Type), "null"}
	} else {
		s.Type = string(field.Type)
	}

	if len(field.Enum) > 0 {
		s.Enum = append([]any(nil), field.Enum...)
		if field.Nullable {
			s.Enum = append(s.Enum, nil)
		}
	}
	if field.HasDefault {
		if raw, err := json.Marshal(field.Default); err == nil {
			s.Default = raw
		}
	}
	applyRules(s, field.Validations)

	switch field.Type {
	case model.FieldTypeObject:
		s.Properties, s.Required = objectProperties(field.Nested)
		s.AdditionalProperties = additional(field.AllowExtra, field.Extra)
	case model.FieldTypeArray:
		if field.Items != nil {
			s.Items = fieldSchema(*field.Items)
		}
	}
	return s
}

// additional returns nil (anything goes), a value schema, or the false schema.
func additional(allow bool, extra *model.Field) *jsonschema.Schema {
	if !allow {
		return &jsonschema.Schema{Not: &jsonschema.Schema{}}
	}
	if extra != nil {
		return fieldSchema(*extra)
	}
	return nil
}

func applyRules(s *jsonschema.Schema, rules []model.ValidationRule) {
	for _, rule := range rules {
		switch rule.Kind {
		case model.ValidationRuleMin, model.ValidationRuleMax:
			value, err := strconv.ParseFloat(rule.Params["value"], 64)
			if err != nil {
				continue
			}
			exclusive := rule.Params["exclusive"] == "true"
			switch {
			case rule.Kind == model.ValidationRuleMin && exclusive:
				s.ExclusiveMinimum = &value
			case rule.Kind == model.ValidationRuleMin:
				s.Minimum = &value
			case exclusive:
				s.ExclusiveMaximum = &value
			default:
				s.Maximum = &value
			}
		case model.ValidationRuleMinLength:
			s.MinLength = intParam(rule)
		case model.ValidationRuleMaxLength:
			s.MaxLength = intParam(rule)
		case model.ValidationRuleMinItems:
			s.MinItems = intParam(rule)
		case model.ValidationRuleMaxItems:
			s.MaxItems = intParam(rule)
		case model.ValidationRulePattern:
			s.Pattern = rule.Params["pattern"]
		case model.ValidationRuleMultipleOf:
			if value, err := strconv.ParseFloat(rule.Params["value"], 64); err == nil {
				s.MultipleOf = &value
			}
		case model.ValidationRuleUniqueItems:
			s.UniqueItems = true
		}
	}
}

func intParam(rule model.ValidationRule) *int {
	value, err := strconv.Atoi(rule.Params["value"])
	if err != nil {
		return nil
	}
	return &value
}
