package model

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/goliatone/go-widgetmcp/pkg/schema"
)

// Builder converts schema IR into field descriptors.
type Builder struct {
	opts Options
}

// New creates a Builder with the supplied options.
func New(options Options) *Builder {
	opts := defaultOptions()
	if options.Labeler != nil {
		opts.Labeler = options.Labeler
	}
	if options.MaxDepth > 0 {
		opts.MaxDepth = options.MaxDepth
	}
	return &Builder{opts: opts}
}

// Build compiles root into a Model named name. Fields are ordered by name so
// identical schemas always produce identical models.
func (b *Builder) Build(name string, root schema.Schema) (Model, error) {
	if err := validateSchema(root, "", 0, b.opts.MaxDepth); err != nil {
		return Model{}, err
	}

	fields, err := b.fieldsFromObject(root, "")
	if err != nil {
		return Model{}, err
	}

	model := Model{
		Name:        name,
		Title:       root.Title,
		Description: root.Description,
		Fields:      fields,
	}
	if root.AdditionalProperties != nil && root.AdditionalProperties.Allowed {
		model.AllowExtra = true
		if root.AdditionalProperties.Schema != nil {
			extra, err := b.field("*", *root.AdditionalProperties.Schema, false, "*")
			if err != nil {
				return Model{}, err
			}
			model.Extra = &extra
		}
	}
	return model, nil
}

func (b *Builder) fieldsFromObject(object schema.Schema, path string) ([]Field, error) {
	names := object.PropertyNames()
	fields := make([]Field, 0, len(names))
	for _, name := range names {
		field, err := b.field(name, object.Properties[name], object.IsRequired(name), joinPath(path, name))
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}
	return fields, nil
}

func (b *Builder) field(name string, s schema.Schema, required bool, path string) (Field, error) {
	field := Field{
		Name:        name,
		Type:        mapType(s.Type),
		Format:      s.Format,
		Required:    required,
		Nullable:    s.Nullable,
		Label:       s.Title,
		Description: s.Description,
		Default:     s.Default,
		HasDefault:  s.HasDefault,
	}
	if field.Label == "" {
		field.Label = b.opts.Labeler(name)
	}
	if len(s.Enum) > 0 {
		field.Enum = append([]any(nil), s.Enum...)
	}

	switch field.Type {
	case FieldTypeObject:
		nested, err := b.fieldsFromObject(s, path)
		if err != nil {
			return Field{}, err
		}
		field.Nested = nested
		if s.AdditionalProperties != nil && s.AdditionalProperties.Allowed {
			field.AllowExtra = true
			if s.AdditionalProperties.Schema != nil {
				extra, err := b.field("*", *s.AdditionalProperties.Schema, false, path+".*")
				if err != nil {
					return Field{}, err
				}
				field.Extra = &extra
			}
		}
	case FieldTypeArray:
		item, err := b.field("", *s.Items, true, path+"[]")
		if err != nil {
			return Field{}, err
		}
		field.Items = &item
	}

	rules, err := applyValidations(s, path)
	if err != nil {
		return Field{}, err
	}
	field.Validations = rules
	return field, nil
}

func mapType(typ string) FieldType {
	switch typ {
	case schema.TypeString:
		return FieldTypeString
	case schema.TypeInteger:
		return FieldTypeInteger
	case schema.TypeNumber:
		return FieldTypeNumber
	case schema.TypeBoolean:
		return FieldTypeBoolean
	case schema.TypeArray:
		return FieldTypeArray
	case schema.TypeObject:
		return FieldTypeObject
	default:
		return ""
	}
}

func applyValidations(s schema.Schema, path string) ([]ValidationRule, error) {
	var rules []ValidationRule

	if s.Minimum != nil {
		rules = append(rules, boundRule(ValidationRuleMin, *s.Minimum, s.ExclusiveMinimum))
	}
	if s.Maximum != nil {
		rules = append(rules, boundRule(ValidationRuleMax, *s.Maximum, s.ExclusiveMaximum))
	}
	if s.Minimum != nil && s.Maximum != nil && *s.Minimum > *s.Maximum {
		return nil, &Error{Path: path, Reason: "minimum is greater than maximum"}
	}
	if s.MinLength != nil {
		rules = append(rules, countRule(ValidationRuleMinLength, *s.MinLength))
	}
	if s.MaxLength != nil {
		rules = append(rules, countRule(ValidationRuleMaxLength, *s.MaxLength))
	}
	if s.MinLength != nil && s.MaxLength != nil && *s.MinLength > *s.MaxLength {
		return nil, &Error{Path: path, Reason: "minLength is greater than maxLength"}
	}
	if s.Pattern != "" {
		if _, err := regexp.Compile(s.Pattern); err != nil {
			return nil, &Error{Path: path, Reason: "invalid pattern", Err: err}
		}
		rules = append(rules, ValidationRule{Kind: ValidationRulePattern, Params: map[string]string{"pattern": s.Pattern}})
	}
	if s.MinItems != nil {
		rules = append(rules, countRule(ValidationRuleMinItems, *s.MinItems))
	}
	if s.MaxItems != nil {
		rules = append(rules, countRule(ValidationRuleMaxItems, *s.MaxItems))
	}
	if s.MultipleOf != nil {
		if *s.MultipleOf <= 0 {
			return nil, &Error{Path: path, Reason: "multipleOf must be greater than 0"}
		}
		rules = append(rules, ValidationRule{
			Kind:   ValidationRuleMultipleOf,
			Params: map[string]string{"value": strconv.FormatFloat(*s.MultipleOf, 'f', -1, 64)},
		})
	}
	if s.UniqueItems {
		rules = append(rules, ValidationRule{Kind: ValidationRuleUniqueItems})
	}
	return rules, nil
}

func boundRule(kind string, value float64, exclusive bool) ValidationRule {
	params := map[string]string{"value": strconv.FormatFloat(value, 'f', -1, 64)}
	if exclusive {
		params["exclusive"] = "true"
	}
	return ValidationRule{Kind: kind, Params: params}
}

func countRule(kind string, value int) ValidationRule {
	return ValidationRule{Kind: kind, Params: map[string]string{"value": strconv.Itoa(value)}}
}

func joinPath(base, name string) string {
	if base == "" {
		return name
	}
	return base + "." + name
}

// Error reports a schema the builder cannot compile, at a dotted path.
type Error struct {
	Path   string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	msg := "model builder: "
	if e.Path != "" {
		msg += e.Path + ": "
	}
	msg += e.Reason
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }
