package model_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-widgetmcp/internal/model"
	"github.com/goliatone/go-widgetmcp/pkg/schema"
)

func ptr[T any](v T) *T { return &v }

func TestBuilder_BuildsOrderedDescriptors(t *testing.T) {
	root := schema.Schema{
		Type:     schema.TypeObject,
		Title:    "Flight",
		Required: []string{"number"},
		Properties: map[string]schema.Schema{
			"number":     {Type: schema.TypeString, Pattern: "^[A-Z]{2} ?[0-9]+$", MaxLength: ptr(8)},
			"passengers": {Type: schema.TypeInteger, Minimum: ptr(1.0), Maximum: ptr(9.0), ExclusiveMaximum: true},
			"legs": {
				Type:     schema.TypeArray,
				MinItems: ptr(1),
				Items:    &schema.Schema{Type: schema.TypeObject, Properties: map[string]schema.Schema{"code": {Type: schema.TypeString, Title: "Airport"}}},
			},
		},
	}

	got, err := model.New(model.Options{}).Build("FlightModel", root)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	want := model.Model{
		Name:  "FlightModel",
		Title: "Flight",
		Fields: []model.Field{
			{
				Name:  "legs",
				Type:  model.FieldTypeArray,
				Label: "Legs",
				Items: &model.Field{
					Type:     model.FieldTypeObject,
					Required: true,
					Nested:   []model.Field{{Name: "code", Type: model.FieldTypeString, Label: "Airport"}},
				},
				Validations: []model.ValidationRule{{Kind: model.ValidationRuleMinItems, Params: map[string]string{"value": "1"}}},
			},
			{
				Name:     "number",
				Type:     model.FieldTypeString,
				Required: true,
				Label:    "Number",
				Validations: []model.ValidationRule{
					{Kind: model.ValidationRuleMaxLength, Params: map[string]string{"value": "8"}},
					{Kind: model.ValidationRulePattern, Params: map[string]string{"pattern": "^[A-Z]{2} ?[0-9]+$"}},
				},
			},
			{
				Name:  "passengers",
				Type:  model.FieldTypeInteger,
				Label: "Passengers",
				Validations: []model.ValidationRule{
					{Kind: model.ValidationRuleMin, Params: map[string]string{"value": "1"}},
					{Kind: model.ValidationRuleMax, Params: map[string]string{"value": "9", "exclusive": "true"}},
				},
			},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("model mismatch (-want +got):\n%s", diff)
	}
}

func TestBuilder_RejectsInvalidIR(t *testing.T) {
	cases := map[string]struct {
		root schema.Schema
		path string
	}{
		"array without items": {schema.Schema{Type: schema.TypeObject, Properties: map[string]schema.Schema{"a": {Type: schema.TypeArray}}}, "a"},
		"unknown type":        {schema.Schema{Type: schema.TypeObject, Properties: map[string]schema.Schema{"a": {Type: "tuple"}}}, "a"},
		"root not object":     {schema.Schema{Type: schema.TypeString}, ""},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := model.New(model.Options{}).Build("M", tc.root)
			var berr *model.Error
			if !errors.As(err, &berr) {
				t.Fatalf("expected *model.Error, got %v", err)
			}
			if berr.Path != tc.path {
				t.Fatalf("path = %q, want %q", berr.Path, tc.path)
			}
		})
	}
}

func TestDefaultLabeler(t *testing.T) {
	cases := map[string]string{
		"flight_number": "Flight number",
		"departureTime": "Departure time",
		"gate-id":       "Gate id",
		"PNR_code":      "PNR code",
		"":              "",
	}
	for in, want := range cases {
		if got := model.DefaultLabeler(in); got != want {
			t.Fatalf("DefaultLabeler(%q) = %q, want %q", in, got, want)
		}
	}
}
