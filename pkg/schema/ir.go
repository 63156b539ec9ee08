package schema

import "sort"

// Schema represents the canonical schema IR consumed by the model compiler.
// It is produced from a definition's raw JSON schema after local references
// have been resolved and composition shortcuts flattened.
type Schema struct {
	Type                 string
	Nullable             bool
	Format               string
	Title                string
	Description          string
	Default              any
	HasDefault           bool
	Enum                 []any
	Required             []string
	Properties           map[string]Schema
	Items                *Schema
	AdditionalProperties *Additional
	Minimum              *float64
	Maximum              *float64
	ExclusiveMinimum     bool
	ExclusiveMaximum     bool
	MinLength            *int
	MaxLength            *int
	Pattern              string
	MinItems             *int
	MaxItems             *int
	MultipleOf           *float64
	UniqueItems          bool
	Extensions           map[string]any `json:"Extensions,omitempty"`
}

// Additional captures the additionalProperties keyword. Allowed without a
// Schema means arbitrary extra keys pass through unchecked.
type Additional struct {
	Allowed bool
	Schema  *Schema
}

// JSON Schema primitive type names understood by the compiler.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
	TypeObject  = "object"
	TypeArray   = "array"
	TypeNull    = "null"
)

// PropertyNames returns the property keys in lexical order.
func (s Schema) PropertyNames() []string {
	if len(s.Properties) == 0 {
		return nil
	}
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRequired reports whether name appears in the required list.
func (s Schema) IsRequired(name string) bool {
	for _, candidate := range s.Required {
		if candidate == name {
			return true
		}
	}
	return false
}
