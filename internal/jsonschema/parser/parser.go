package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-widgetmcp/pkg/schema"
)

const (
	// DefaultMaxDepth caps object/array nesting.
	DefaultMaxDepth = 32
	// DefaultMaxRefDepth caps $ref resolution chains.
	DefaultMaxRefDepth = 64
)

// Options configures the parser.
type Options struct {
	MaxDepth    int
	MaxRefDepth int
}

// Parser converts raw JSON schema objects into the canonical schema IR. Each
// node is decoded through kin-openapi so keyword typing follows one decoder.
type Parser struct {
	maxDepth    int
	maxRefDepth int
}

// Error reports a schema problem at a dotted property path ("" for the root).
type Error struct {
	Path   string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Reason
	if e.Path != "" {
		msg = e.Path + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return "jsonschema parser: " + msg
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs a Parser from options.
func New(opts Options) *Parser {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.MaxRefDepth <= 0 {
		opts.MaxRefDepth = DefaultMaxRefDepth
	}
	return &Parser{maxDepth: opts.MaxDepth, maxRefDepth: opts.MaxRefDepth}
}

// Parse resolves local references in raw and converts it into the IR. The
// root must describe an object.
func (p *Parser) Parse(raw map[string]any) (schema.Schema, error) {
	if raw == nil {
		return schema.Schema{}, &Error{Reason: "schema is nil"}
	}
	resolved, err := resolveRefs(raw, p.maxRefDepth)
	if err != nil {
		return schema.Schema{}, err
	}

	root, err := p.convert(resolved, "", 0)
	if err != nil {
		return schema.Schema{}, err
	}
	if root.Type != schema.TypeObject {
		return schema.Schema{}, &Error{Reason: fmt.Sprintf("root schema must be of type object, got %q", root.Type)}
	}
	return root, nil
}

// structural keywords are walked here; everything else is decoded by openapi3.
var structuralKeys = map[string]struct{}{
	"properties":           {},
	"items":                {},
	"additionalProperties": {},
	"anyOf":                {},
	"oneOf":                {},
	"allOf":                {},
	"not":                  {},
	"$defs":                {},
	"definitions":          {},
	"$schema":              {},
	"$id":                  {},
	"$comment":             {},
	"examples":             {},
	"const":                {},
}

func (p *Parser) convert(node map[string]any, path string, depth int) (schema.Schema, error) {
	if depth > p.maxDepth {
		return schema.Schema{}, &Error{Path: path, Reason: fmt.Sprintf("nesting exceeds maximum depth %d", p.maxDepth)}
	}

	node, err := flattenComposition(node, path)
	if err != nil {
		return schema.Schema{}, err
	}

	src, err := decodeKeywords(node)
	if err != nil {
		return schema.Schema{}, &Error{Path: path, Reason: "invalid schema keywords", Err: err}
	}

	typ, nullable, err := schemaType(src.Type, node)
	if err != nil {
		return schema.Schema{}, &Error{Path: path, Reason: err.Error()}
	}
	if flag, ok := node["nullable"].(bool); ok && flag {
		nullable = true
	}
	if flag, ok := node[nullableMarker].(bool); ok && flag {
		nullable = true
	}

	out := schema.Schema{
		Type:             typ,
		Nullable:         nullable,
		Format:           src.Format,
		Title:            src.Title,
		Description:      src.Description,
		Pattern:          src.Pattern,
		ExclusiveMinimum: src.ExclusiveMin,
		ExclusiveMaximum: src.ExclusiveMax,
	}
	if value, ok := node["default"]; ok {
		out.Default = value
		out.HasDefault = true
	}
	if len(src.Enum) > 0 {
		out.Enum = append([]any(nil), src.Enum...)
	}
	if value, ok := node["const"]; ok {
		if len(out.Enum) > 0 && !containsValue(out.Enum, value) {
			return schema.Schema{}, &Error{Path: path, Reason: "const is not one of the enum values"}
		}
		out.Enum = []any{value}
	}
	if src.MultipleOf != nil {
		if *src.MultipleOf <= 0 {
			return schema.Schema{}, &Error{Path: path, Reason: "multipleOf must be greater than 0"}
		}
		value := *src.MultipleOf
		out.MultipleOf = &value
	}
	out.UniqueItems = src.UniqueItems
	if len(src.Required) > 0 {
		out.Required = append([]string(nil), src.Required...)
	}
	if src.Min != nil {
		value := *src.Min
		out.Minimum = &value
	}
	if src.Max != nil {
		value := *src.Max
		out.Maximum = &value
	}
	if src.MinLength != 0 {
		value := int(src.MinLength)
		out.MinLength = &value
	}
	if src.MaxLength != nil {
		value := int(*src.MaxLength)
		out.MaxLength = &value
	}
	if src.MinItems != 0 {
		value := int(src.MinItems)
		out.MinItems = &value
	}
	if src.MaxItems != nil {
		value := int(*src.MaxItems)
		out.MaxItems = &value
	}
	out.Extensions = extractExtensions(src.Extensions)

	switch typ {
	case schema.TypeObject:
		if err := p.convertObject(node, &out, path, depth); err != nil {
			return schema.Schema{}, err
		}
	case schema.TypeArray:
		rawItems, ok := node["items"].(map[string]any)
		if !ok {
			return schema.Schema{}, &Error{Path: path, Reason: "array schema must declare an items object"}
		}
		items, err := p.convert(rawItems, itemPath(path, "items"), depth+1)
		if err != nil {
			return schema.Schema{}, err
		}
		out.Items = &items
	}
	return out, nil
}

func (p *Parser) convertObject(node map[string]any, out *schema.Schema, path string, depth int) error {
	if raw, ok := node["properties"]; ok {
		props, ok := raw.(map[string]any)
		if !ok {
			return &Error{Path: path, Reason: "properties must be an object"}
		}
		out.Properties = make(map[string]schema.Schema, len(props))
		for name, rawProp := range props {
			childPath := joinPath(path, name)
			prop, ok := rawProp.(map[string]any)
			if !ok {
				return &Error{Path: childPath, Reason: "property schema must be an object"}
			}
			child, err := p.convert(prop, childPath, depth+1)
			if err != nil {
				return err
			}
			out.Properties[name] = child
		}
	}
	for _, name := range out.Required {
		if _, ok := out.Properties[name]; !ok {
			return &Error{Path: joinPath(path, name), Reason: "required property is not declared"}
		}
	}

	switch additional := node["additionalProperties"].(type) {
	case nil:
	case bool:
		out.AdditionalProperties = &schema.Additional{Allowed: additional}
	case map[string]any:
		if len(additional) == 0 {
			out.AdditionalProperties = &schema.Additional{Allowed: true}
			break
		}
		child, err := p.convert(additional, itemPath(path, "additionalProperties"), depth+1)
		if err != nil {
			return err
		}
		out.AdditionalProperties = &schema.Additional{Allowed: true, Schema: &child}
	default:
		return &Error{Path: path, Reason: "additionalProperties must be a boolean or a schema"}
	}

	// A nested object that declares neither properties nor
	// additionalProperties is a free-form map. The root stays closed.
	if depth > 0 && len(out.Properties) == 0 && out.AdditionalProperties == nil {
		if _, declared := node["properties"]; !declared {
			out.AdditionalProperties = &schema.Additional{Allowed: true}
		}
	}
	return nil
}

// decodeKeywords runs the non-structural keywords of node through
// openapi3.Schema. JSON Schema 2020 numeric exclusive bounds are rewritten
// into the OpenAPI boolean form first.
func decodeKeywords(node map[string]any) (*openapi3.Schema, error) {
	flat := make(map[string]any, len(node))
	for key, value := range node {
		if _, skip := structuralKeys[key]; skip {
			continue
		}
		if key == nullableMarker {
			continue
		}
		flat[key] = value
	}
	if err := normalizeExclusive(flat, "exclusiveMinimum", "minimum"); err != nil {
		return nil, err
	}
	if err := normalizeExclusive(flat, "exclusiveMaximum", "maximum"); err != nil {
		return nil, err
	}

	data, err := json.Marshal(flat)
	if err != nil {
		return nil, err
	}
	var out openapi3.Schema
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func normalizeExclusive(node map[string]any, exclusiveKey, boundKey string) error {
	raw, ok := node[exclusiveKey]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case bool:
		return nil
	case float64:
		if _, exists := node[boundKey]; exists {
			return fmt.Errorf("%s and %s cannot both be numeric", exclusiveKey, boundKey)
		}
		node[boundKey] = v
		node[exclusiveKey] = true
		return nil
	default:
		return fmt.Errorf("%s must be a number or boolean", exclusiveKey)
	}
}

var knownTypes = map[string]struct{}{
	schema.TypeString:  {},
	schema.TypeNumber:  {},
	schema.TypeInteger: {},
	schema.TypeBoolean: {},
	schema.TypeObject:  {},
	schema.TypeArray:   {},
}

// schemaType picks the single concrete type of a node. "null" in a type list
// marks the node nullable. A node without a type but with properties is an
// object.
func schemaType(types *openapi3.Types, node map[string]any) (string, bool, error) {
	var (
		concrete []string
		nullable bool
	)
	for _, candidate := range types.Slice() {
		candidate = strings.TrimSpace(candidate)
		if candidate == schema.TypeNull {
			nullable = true
			continue
		}
		concrete = append(concrete, candidate)
	}

	switch len(concrete) {
	case 0:
		if _, ok := node["properties"]; ok {
			return schema.TypeObject, nullable, nil
		}
		return "", false, errors.New("missing type")
	case 1:
		if _, ok := knownTypes[concrete[0]]; !ok {
			return "", false, fmt.Errorf("unsupported type %q", concrete[0])
		}
		return concrete[0], nullable, nil
	default:
		return "", false, fmt.Errorf("multiple types %v are not supported", concrete)
	}
}

func extractExtensions(raw map[string]any) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]any)
	for key, value := range raw {
		if strings.HasPrefix(key, "x-") {
			out[key] = value
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// containsValue compares numbers by value so 2 and 2.0 match.
func containsValue(values []any, target any) bool {
	tf, targetNumeric := toFloat(target)
	for _, candidate := range values {
		if cf, ok := toFloat(candidate); ok && targetNumeric {
			if cf == tf {
				return true
			}
			continue
		}
		if reflect.DeepEqual(candidate, target) {
			return true
		}
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
