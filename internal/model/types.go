package model

// FieldType is the runtime kind a schema property compiles to.
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeInteger FieldType = "integer"
	FieldTypeNumber  FieldType = "number"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeArray   FieldType = "array"
	FieldTypeObject  FieldType = "object"
)

const (
	ValidationRuleMin         = "min"
	ValidationRuleMax         = "max"
	ValidationRuleMinLength   = "minLength"
	ValidationRuleMaxLength   = "maxLength"
	ValidationRulePattern     = "pattern"
	ValidationRuleMinItems    = "minItems"
	ValidationRuleMaxItems    = "maxItems"
	ValidationRuleMultipleOf  = "multipleOf"
	ValidationRuleUniqueItems = "uniqueItems"
)

// ValidationRule represents a single constraint applied to a field. Numeric
// bounds and length/item limits encode their threshold in Params["value"];
// exclusivity is Params["exclusive"] = "true". Pattern rules keep the
// expression in Params["pattern"].
type ValidationRule struct {
	Kind   string            `json:"kind"`
	Params map[string]string `json:"params,omitempty"`
}

// Field describes one declared input. Nested holds object properties sorted
// by name; Items describes array elements; Extra describes values allowed
// under undeclared keys when AllowExtra is set.
type Field struct {
	Name        string           `json:"name"`
	Type        FieldType        `json:"type"`
	Format      string           `json:"format,omitempty"`
	Required    bool             `json:"required"`
	Nullable    bool             `json:"nullable,omitempty"`
	Label       string           `json:"label,omitempty"`
	Description string           `json:"description,omitempty"`
	Default     any              `json:"default,omitempty"`
	HasDefault  bool             `json:"hasDefault,omitempty"`
	Enum        []any            `json:"enum,omitempty"`
	Nested      []Field          `json:"nested,omitempty"`
	Items       *Field           `json:"items,omitempty"`
	AllowExtra  bool             `json:"allowExtra,omitempty"`
	Extra       *Field           `json:"extra,omitempty"`
	Validations []ValidationRule `json:"validations,omitempty"`
}

// Model is the compiled form of a definition's parameter schema.
type Model struct {
	Name        string  `json:"name"`
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Fields      []Field `json:"fields"`
	AllowExtra  bool    `json:"allowExtra,omitempty"`
	Extra       *Field  `json:"extra,omitempty"`
}

// Issue is one validation failure at a dotted path.
type Issue struct {
	Path    string
	Message string
}
