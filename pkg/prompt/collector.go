package prompt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goliatone/go-widgetmcp/pkg/model"
)

const skipOption = "(skip)"

// Collector walks a compiled model and asks the driver for every field. The
// result is raw arguments ready for Model.Validate; it is not validated here.
type Collector struct {
	driver Driver
}

// Option configures a Collector.
type Option func(*Collector)

// WithDriver overrides the prompt driver. Defaults to NewSurveyDriver().
func WithDriver(driver Driver) Option {
	return func(c *Collector) {
		if driver != nil {
			c.driver = driver
		}
	}
}

// New constructs a Collector.
func New(options ...Option) *Collector {
	c := &Collector{}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	if c.driver == nil {
		c.driver = NewSurveyDriver()
	}
	return c
}

// Collect prompts for each field of m in declaration order.
func (c *Collector) Collect(ctx context.Context, m *model.Model) (map[string]any, error) {
	if m == nil {
		return nil, fmt.Errorf("prompt: model is nil")
	}
	title := m.Title()
	if title == "" {
		title = m.Name()
	}
	if err := c.driver.Info(ctx, fmt.Sprintf("Arguments for %s", title)); err != nil {
		return nil, err
	}
	return c.collectFields(ctx, "", m.Fields())
}

func (c *Collector) collectFields(ctx context.Context, prefix string, fields []model.Field) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for _, field := range fields {
		path := joinPath(prefix, field.Name)
		value, ok, err := c.collectField(ctx, path, field)
		if err != nil {
			return nil, err
		}
		if ok {
			out[field.Name] = value
		}
	}
	return out, nil
}

// collectField returns ok=false when an optional field was left blank so
// defaults apply during validation.
func (c *Collector) collectField(ctx context.Context, path string, field model.Field) (any, bool, error) {
	if len(field.Enum) > 0 {
		return c.collectEnum(ctx, path, field)
	}

	switch field.Type {
	case model.FieldTypeBoolean:
		def, _ := field.Default.(bool)
		value, err := c.driver.Confirm(ctx, ConfirmConfig{
			Message: message(path, field),
			Default: def,
			Help:    field.Description,
		})
		return value, err == nil, err
	case model.FieldTypeObject:
		if len(field.Nested) > 0 {
			if !field.Required {
				provide, err := c.driver.Confirm(ctx, ConfirmConfig{
					Message: fmt.Sprintf("Provide %s?", message(path, field)),
					Help:    field.Description,
				})
				if err != nil || !provide {
					return nil, false, err
				}
			}
			nested, err := c.collectFields(ctx, path, field.Nested)
			return nested, err == nil, err
		}
		return c.collectJSON(ctx, path, field)
	case model.FieldTypeArray:
		return c.collectJSON(ctx, path, field)
	default:
		return c.collectScalar(ctx, path, field)
	}
}

func (c *Collector) collectScalar(ctx context.Context, path string, field model.Field) (any, bool, error) {
	raw, err := c.driver.Input(ctx, InputConfig{
		Message:   message(path, field),
		Default:   defaultText(field),
		Help:      field.Description,
		Validator: scalarValidator(field),
	})
	if err != nil {
		return nil, false, err
	}
	if raw == "" && !field.Required {
		return nil, false, nil
	}
	switch field.Type {
	case model.FieldTypeInteger, model.FieldTypeNumber:
		return json.Number(strings.TrimSpace(raw)), true, nil
	default:
		return raw, true, nil
	}
}

func (c *Collector) collectEnum(ctx context.Context, path string, field model.Field) (any, bool, error) {
	options := make([]string, 0, len(field.Enum)+1)
	defaultIndex := -1
	for idx, value := range field.Enum {
		options = append(options, fmt.Sprint(value))
		if field.HasDefault && fmt.Sprint(field.Default) == fmt.Sprint(value) {
			defaultIndex = idx
		}
	}
	if !field.Required {
		options = append(options, skipOption)
	}
	idx, err := c.driver.Select(ctx, SelectConfig{
		Message:      message(path, field),
		Options:      options,
		DefaultIndex: defaultIndex,
		Help:         field.Description,
	})
	if err != nil {
		return nil, false, err
	}
	if idx < 0 || idx >= len(field.Enum) {
		return nil, false, nil
	}
	return field.Enum[idx], true, nil
}

// collectJSON accepts a JSON document for arrays and free-form objects.
func (c *Collector) collectJSON(ctx context.Context, path string, field model.Field) (any, bool, error) {
	var def string
	if field.HasDefault {
		if encoded, err := json.Marshal(field.Default); err == nil {
			def = string(encoded)
		}
	}
	for {
		raw, err := c.driver.TextArea(ctx, TextAreaConfig{
			Message: fmt.Sprintf("%s (JSON %s)", message(path, field), field.Type),
			Default: def,
			Help:    field.Description,
		})
		if err != nil {
			return nil, false, err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" && !field.Required {
			return nil, false, nil
		}
		value, err := decodeJSON(raw)
		if err == nil {
			return value, true, nil
		}
		if err := c.driver.Info(ctx, fmt.Sprintf("%s: %v", path, err)); err != nil {
			return nil, false, err
		}
	}
}

func decodeJSON(raw string) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader([]byte(raw)))
	decoder.UseNumber()
	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if decoder.More() {
		return nil, fmt.Errorf("invalid JSON: trailing data")
	}
	return value, nil
}

func scalarValidator(field model.Field) func(string) error {
	var pattern *regexp.Regexp
	for _, rule := range field.Validations {
		if rule.Kind == model.ValidationRulePattern {
			pattern, _ = regexp.Compile(rule.Params["pattern"])
		}
	}
	return func(value string) error {
		if value == "" {
			if field.Required && !field.HasDefault {
				return fmt.Errorf("%s is required", field.Name)
			}
			return nil
		}
		switch field.Type {
		case model.FieldTypeInteger:
			if _, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err != nil {
				return fmt.Errorf("expected an integer")
			}
		case model.FieldTypeNumber:
			if _, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err != nil {
				return fmt.Errorf("expected a number")
			}
		case model.FieldTypeString:
			if pattern != nil && !pattern.MatchString(value) {
				return fmt.Errorf("must match %s", pattern.String())
			}
		}
		return nil
	}
}

func message(path string, field model.Field) string {
	label := field.Label
	if label == "" {
		label = field.Name
	}
	if path != field.Name {
		label = fmt.Sprintf("%s (%s)", label, path)
	}
	if field.Required {
		return label + " *"
	}
	return label
}

func defaultText(field model.Field) string {
	if !field.HasDefault || field.Default == nil {
		return ""
	}
	return fmt.Sprint(field.Default)
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
