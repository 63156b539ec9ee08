package parser_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-widgetmcp/internal/jsonschema/parser"
	"github.com/goliatone/go-widgetmcp/pkg/schema"
)

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return out
}

func ptr[T any](v T) *T { return &v }

func TestParser_ConvertsKeywords(t *testing.T) {
	raw := decode(t, `{
		"type": "object",
		"title": "Flight",
		"required": ["flight_number"],
		"properties": {
			"flight_number": {"type": "string", "minLength": 2, "maxLength": 8, "pattern": "^[A-Z0-9]+$"},
			"seats": {"type": "integer", "minimum": 1, "exclusiveMaximum": 500, "default": 1},
			"status": {"type": ["string", "null"], "enum": ["on_time", "delayed"]},
			"tags": {"type": "array", "items": {"type": "string"}, "maxItems": 3},
			"meta": {"type": "object", "additionalProperties": true}
		}
	}`)

	got, err := parser.New(parser.Options{}).Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	want := schema.Schema{
		Type:     schema.TypeObject,
		Title:    "Flight",
		Required: []string{"flight_number"},
		Properties: map[string]schema.Schema{
			"flight_number": {Type: schema.TypeString, MinLength: ptr(2), MaxLength: ptr(8), Pattern: "^[A-Z0-9]+$"},
			"seats":         {Type: schema.TypeInteger, Minimum: ptr(1.0), Maximum: ptr(500.0), ExclusiveMaximum: true, Default: float64(1), HasDefault: true},
			"status":        {Type: schema.TypeString, Nullable: true, Enum: []any{"on_time", "delayed"}},
			"tags":          {Type: schema.TypeArray, Items: &schema.Schema{Type: schema.TypeString}, MaxItems: ptr(3)},
			"meta":          {Type: schema.TypeObject, AdditionalProperties: &schema.Additional{Allowed: true}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("schema mismatch (-want +got):\n%s", diff)
	}
}

func TestParser_ResolvesLocalRefsAndNullableUnions(t *testing.T) {
	raw := decode(t, `{
		"type": "object",
		"$defs": {
			"airport": {"type": "object", "properties": {"code": {"type": "string"}}, "required": ["code"]}
		},
		"properties": {
			"origin": {"$ref": "#/$defs/airport", "description": "departure"},
			"destination": {"anyOf": [{"$ref": "#/$defs/airport"}, {"type": "null"}]}
		}
	}`)

	got, err := parser.New(parser.Options{}).Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	airport := schema.Schema{
		Type:       schema.TypeObject,
		Required:   []string{"code"},
		Properties: map[string]schema.Schema{"code": {Type: schema.TypeString}},
	}
	origin := airport
	origin.Description = "departure"
	destination := airport
	destination.Nullable = true

	if diff := cmp.Diff(origin, got.Properties["origin"]); diff != "" {
		t.Fatalf("origin mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(destination, got.Properties["destination"]); diff != "" {
		t.Fatalf("destination mismatch (-want +got):\n%s", diff)
	}
}

func TestParser_Errors(t *testing.T) {
	cases := []struct {
		name   string
		raw    string
		path   string
		reason string
	}{
		{"root not object", `{"type": "array", "items": {"type": "string"}}`, "", "root schema must be of type object"},
		{"missing type", `{"type": "object", "properties": {"a": {"description": "x"}}}`, "a", "missing type"},
		{"unknown type", `{"type": "object", "properties": {"a": {"type": "date"}}}`, "a", `unsupported type "date"`},
		{"multi type", `{"type": "object", "properties": {"a": {"type": ["string", "integer"]}}}`, "a", "multiple types"},
		{"nested path", `{"type": "object", "properties": {"a": {"type": "object", "properties": {"b": {"type": "tuple"}}}}}`, "a.b", "unsupported type"},
		{"array without items", `{"type": "object", "properties": {"a": {"type": "array"}}}`, "a", "items"},
		{"union", `{"type": "object", "properties": {"a": {"oneOf": [{"type": "string"}, {"type": "integer"}]}}}`, "a", "more than one non-null branch"},
		{"ref cycle", `{"type": "object", "$defs": {"n": {"type": "object", "properties": {"next": {"$ref": "#/$defs/n"}}}}, "properties": {"root": {"$ref": "#/$defs/n"}}}`, "root.next", "cycle"},
		{"remote ref", `{"type": "object", "properties": {"a": {"$ref": "https://example.com/s.json"}}}`, "a", "only local references"},
		{"missing ref", `{"type": "object", "properties": {"a": {"$ref": "#/$defs/nope"}}}`, "a", "not found"},
		{"undeclared required", `{"type": "object", "required": ["a"], "properties": {}}`, "a", "required property is not declared"},
		{"const outside enum", `{"type": "object", "properties": {"a": {"type": "string", "enum": ["x"], "const": "y"}}}`, "a", "const is not one of the enum values"},
		{"zero multipleOf", `{"type": "object", "properties": {"a": {"type": "number", "multipleOf": 0}}}`, "a", "multipleOf must be greater than 0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parser.New(parser.Options{}).Parse(decode(t, tc.raw))
			var perr *parser.Error
			if !errors.As(err, &perr) {
				t.Fatalf("expected *parser.Error, got %v", err)
			}
			if perr.Path != tc.path {
				t.Fatalf("path = %q, want %q (%v)", perr.Path, tc.path, err)
			}
			if !strings.Contains(perr.Error(), tc.reason) {
				t.Fatalf("error %q does not mention %q", perr.Error(), tc.reason)
			}
		})
	}
}

func TestParser_MaxDepth(t *testing.T) {
	nested := map[string]any{"type": "string"}
	for i := 0; i < 5; i++ {
		nested = map[string]any{"type": "object", "properties": map[string]any{"n": nested}}
	}

	if _, err := parser.New(parser.Options{MaxDepth: 10}).Parse(nested); err != nil {
		t.Fatalf("depth within limit should parse: %v", err)
	}
	_, err := parser.New(parser.Options{MaxDepth: 3}).Parse(nested)
	var perr *parser.Error
	if !errors.As(err, &perr) || !strings.Contains(perr.Reason, "maximum depth") {
		t.Fatalf("expected depth error, got %v", err)
	}
}

func TestParser_UntypedRootWithProperties(t *testing.T) {
	got, err := parser.New(parser.Options{}).Parse(decode(t, `{"properties": {"a": {"type": "boolean"}}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Type != schema.TypeObject {
		t.Fatalf("root type = %q", got.Type)
	}
}

func TestParser_ConstMultipleOfUniqueItems(t *testing.T) {
	got, err := parser.New(parser.Options{}).Parse(decode(t, `{
		"type": "object",
		"properties": {
			"kind": {"type": "string", "const": "flight"},
			"step": {"type": "number", "multipleOf": 0.5},
			"codes": {"type": "array", "items": {"type": "string"}, "uniqueItems": true}
		}
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	want := map[string]schema.Schema{
		"kind":  {Type: schema.TypeString, Enum: []any{"flight"}},
		"step":  {Type: schema.TypeNumber, MultipleOf: ptr(0.5)},
		"codes": {Type: schema.TypeArray, Items: &schema.Schema{Type: schema.TypeString}, UniqueItems: true},
	}
	if diff := cmp.Diff(want, got.Properties); diff != "" {
		t.Fatalf("properties mismatch (-want +got):\n%s", diff)
	}
}

func TestParser_BareNestedObjectIsFreeForm(t *testing.T) {
	got, err := parser.New(parser.Options{}).Parse(decode(t, `{
		"type": "object",
		"properties": {
			"meta": {"type": "object"},
			"closed": {"type": "object", "properties": {}},
			"sealed": {"type": "object", "additionalProperties": false}
		}
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if diff := cmp.Diff(&schema.Additional{Allowed: true}, got.Properties["meta"].AdditionalProperties); diff != "" {
		t.Fatalf("meta additionalProperties mismatch (-want +got):\n%s", diff)
	}
	if got.Properties["closed"].AdditionalProperties != nil {
		t.Fatalf("explicit empty properties should stay closed")
	}
	if diff := cmp.Diff(&schema.Additional{Allowed: false}, got.Properties["sealed"].AdditionalProperties); diff != "" {
		t.Fatalf("sealed additionalProperties mismatch (-want +got):\n%s", diff)
	}
	if got.AdditionalProperties != nil {
		t.Fatalf("root object must stay closed, got %+v", got.AdditionalProperties)
	}
}
