package model

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Validator applies a Model to caller arguments, coercing values into their
// canonical Go types and collecting every issue in a single pass.
type Validator struct {
	model    Model
	patterns map[string]*regexp.Regexp
}

// NewValidator prepares a validator for m, compiling its pattern rules once.
func NewValidator(m Model) (*Validator, error) {
	v := &Validator{model: m, patterns: make(map[string]*regexp.Regexp)}
	if err := v.compilePatterns(m.Fields); err != nil {
		return nil, err
	}
	if m.Extra != nil {
		if err := v.compilePatterns([]Field{*m.Extra}); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (v *Validator) compilePatterns(fields []Field) error {
	for _, field := range fields {
		for _, rule := range field.Validations {
			if rule.Kind != ValidationRulePattern {
				continue
			}
			expr := rule.Params["pattern"]
			if _, ok := v.patterns[expr]; ok {
				continue
			}
			re, err := regexp.Compile(expr)
			if err != nil {
				return &Error{Path: field.Name, Reason: "invalid pattern", Err: err}
			}
			v.patterns[expr] = re
		}
		if err := v.compilePatterns(field.Nested); err != nil {
			return err
		}
		if field.Items != nil {
			if err := v.compilePatterns([]Field{*field.Items}); err != nil {
				return err
			}
		}
		if field.Extra != nil {
			if err := v.compilePatterns([]Field{*field.Extra}); err != nil {
				return err
			}
		}
	}
	return nil
}

// Validate returns the normalized input with every declared field present.
// Optional fields the caller omitted hold nil. When issues is non-empty the
// returned map must not be used.
func (v *Validator) Validate(args map[string]any) (map[string]any, []Issue) {
	var issues []Issue
	if args == nil {
		args = map[string]any{}
	}
	out := v.validateObject(v.model.Fields, v.model.AllowExtra, v.model.Extra, args, "", &issues)
	return out, issues
}

func (v *Validator) validateObject(fields []Field, allowExtra bool, extra *Field, input map[string]any, path string, issues *[]Issue) map[string]any {
	out := make(map[string]any, len(fields))
	known := make(map[string]struct{}, len(fields))

	for _, field := range fields {
		known[field.Name] = struct{}{}
		fieldPath := joinPath(path, field.Name)
		raw, present := input[field.Name]

		if raw == nil {
			switch {
			case present && field.Nullable:
				out[field.Name] = nil
			case field.Required && present:
				addIssue(issues, fieldPath, "value must not be null")
			case field.Required:
				addIssue(issues, fieldPath, "field required")
			default:
				out[field.Name] = nil
			}
			continue
		}

		if value, ok := v.coerce(field, raw, fieldPath, issues); ok {
			out[field.Name] = value
		}
	}

	var unknown []string
	for key := range input {
		if _, ok := known[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		keyPath := joinPath(path, key)
		switch {
		case !allowExtra:
			addIssue(issues, keyPath, "unexpected field")
		case extra != nil:
			raw := input[key]
			if raw == nil {
				if extra.Nullable {
					out[key] = nil
				} else {
					addIssue(issues, keyPath, "value must not be null")
				}
				continue
			}
			if value, ok := v.coerce(*extra, raw, keyPath, issues); ok {
				out[key] = value
			}
		default:
			out[key] = input[key]
		}
	}
	return out
}

func (v *Validator) coerce(field Field, raw any, path string, issues *[]Issue) (any, bool) {
	before := len(*issues)

	var value any
	switch field.Type {
	case FieldTypeString:
		s, ok := raw.(string)
		if !ok {
			addIssue(issues, path, "expected string, got "+describe(raw))
			return nil, false
		}
		value = s
	case FieldTypeInteger:
		n, ok := toInt(raw)
		if !ok {
			addIssue(issues, path, "expected integer, got "+describe(raw))
			return nil, false
		}
		value = n
	case FieldTypeNumber:
		f, ok := toFloat(raw)
		if !ok {
			addIssue(issues, path, "expected number, got "+describe(raw))
			return nil, false
		}
		value = f
	case FieldTypeBoolean:
		b, ok := toBool(raw)
		if !ok {
			addIssue(issues, path, "expected boolean, got "+describe(raw))
			return nil, false
		}
		value = b
	case FieldTypeObject:
		m, ok := toMap(raw)
		if !ok {
			addIssue(issues, path, "expected object, got "+describe(raw))
			return nil, false
		}
		value = v.validateObject(field.Nested, field.AllowExtra, field.Extra, m, path, issues)
	case FieldTypeArray:
		list, ok := toSlice(raw)
		if !ok {
			addIssue(issues, path, "expected array, got "+describe(raw))
			return nil, false
		}
		out := make([]any, 0, len(list))
		for idx, item := range list {
			itemPath := fmt.Sprintf("%s[%d]", path, idx)
			if item == nil {
				if !field.Items.Nullable {
					addIssue(issues, itemPath, "value must not be null")
				}
				out = append(out, nil)
				continue
			}
			// Failed items keep their slot so item-count rules see the caller's list.
			coerced, _ := v.coerce(*field.Items, item, itemPath, issues)
			out = append(out, coerced)
		}
		value = out
	default:
		addIssue(issues, path, fmt.Sprintf("unsupported field type %q", field.Type))
		return nil, false
	}

	if len(field.Enum) > 0 && !enumContains(field.Enum, value) {
		addIssue(issues, path, "must be one of "+formatEnum(field.Enum))
	}
	v.applyRules(field, value, path, issues)
	return value, len(*issues) == before
}

func (v *Validator) applyRules(field Field, value any, path string, issues *[]Issue) {
	for _, rule := range field.Validations {
		switch rule.Kind {
		case ValidationRuleMin, ValidationRuleMax:
			n, ok := toFloat(value)
			if !ok {
				continue
			}
			bound, _ := strconv.ParseFloat(rule.Params["value"], 64)
			exclusive := rule.Params["exclusive"] == "true"
			if msg, failed := checkBound(rule.Kind, n, bound, exclusive); failed {
				addIssue(issues, path, msg)
			}
		case ValidationRuleMinLength, ValidationRuleMaxLength:
			s, ok := value.(string)
			if !ok {
				continue
			}
			limit, _ := strconv.Atoi(rule.Params["value"])
			length := utf8.RuneCountInString(s)
			if rule.Kind == ValidationRuleMinLength && length < limit {
				addIssue(issues, path, fmt.Sprintf("length must be at least %d", limit))
			}
			if rule.Kind == ValidationRuleMaxLength && length > limit {
				addIssue(issues, path, fmt.Sprintf("length must be at most %d", limit))
			}
		case ValidationRulePattern:
			s, ok := value.(string)
			if !ok {
				continue
			}
			expr := rule.Params["pattern"]
			if re := v.patterns[expr]; re != nil && !re.MatchString(s) {
				addIssue(issues, path, fmt.Sprintf("must match pattern %q", expr))
			}
		case ValidationRuleMinItems, ValidationRuleMaxItems:
			list, ok := value.([]any)
			if !ok {
				continue
			}
			limit, _ := strconv.Atoi(rule.Params["value"])
			if rule.Kind == ValidationRuleMinItems && len(list) < limit {
				addIssue(issues, path, fmt.Sprintf("must contain at least %d item(s)", limit))
			}
			if rule.Kind == ValidationRuleMaxItems && len(list) > limit {
				addIssue(issues, path, fmt.Sprintf("must contain at most %d item(s)", limit))
			}
		case ValidationRuleMultipleOf:
			n, ok := toFloat(value)
			if !ok {
				continue
			}
			divisor, _ := strconv.ParseFloat(rule.Params["value"], 64)
			if divisor > 0 && !isMultiple(n, divisor) {
				addIssue(issues, path, "must be a multiple of "+rule.Params["value"])
			}
		case ValidationRuleUniqueItems:
			list, ok := value.([]any)
			if !ok {
				continue
			}
			if i, j, dup := firstDuplicate(list); dup {
				addIssue(issues, path, fmt.Sprintf("items %d and %d are equal", i, j))
			}
		}
	}
}

func checkBound(kind string, value, bound float64, exclusive bool) (string, bool) {
	limit := strconv.FormatFloat(bound, 'f', -1, 64)
	switch {
	case kind == ValidationRuleMin && exclusive && value <= bound:
		return "must be greater than " + limit, true
	case kind == ValidationRuleMin && !exclusive && value < bound:
		return "must be greater than or equal to " + limit, true
	case kind == ValidationRuleMax && exclusive && value >= bound:
		return "must be less than " + limit, true
	case kind == ValidationRuleMax && !exclusive && value > bound:
		return "must be less than or equal to " + limit, true
	}
	return "", false
}

func addIssue(issues *[]Issue, path, message string) {
	*issues = append(*issues, Issue{Path: path, Message: message})
}

func toInt(raw any) (int64, bool) {
	switch v := raw.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return uintToInt(uint64(v))
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return uintToInt(v)
	case float32:
		return floatToInt(float64(v))
	case float64:
		return floatToInt(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, true
		}
		if f, err := v.Float64(); err == nil {
			return floatToInt(f)
		}
		return 0, false
	case string:
		s := strings.TrimSpace(v)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return floatToInt(f)
		}
		return 0, false
	default:
		return 0, false
	}
}

func uintToInt(v uint64) (int64, bool) {
	if v > math.MaxInt64 {
		return 0, false
	}
	return int64(v), true
}

func floatToInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func toFloat(raw any) (float64, bool) {
	var f float64
	switch v := raw.(type) {
	case int:
		f = float64(v)
	case int8:
		f = float64(v)
	case int16:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint8:
		f = float64(v)
	case uint16:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case float32:
		f = float64(v)
	case float64:
		f = v
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toBool(raw any) (bool, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}

func toMap(raw any) (map[string]any, bool) {
	if m, ok := raw.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

func toSlice(raw any) ([]any, bool) {
	if list, ok := raw.([]any); ok {
		return list, true
	}
	if _, isString := raw.(string); isString {
		return nil, false
	}
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func enumContains(enum []any, value any) bool {
	for _, candidate := range enum {
		if cf, ok := numeric(candidate); ok {
			if vf, ok := numeric(value); ok && cf == vf {
				return true
			}
			continue
		}
		if reflect.DeepEqual(candidate, value) {
			return true
		}
	}
	return false
}

// numeric reports the float value of actual numbers only; numeric strings
// stay strings for enum comparison.
func numeric(v any) (float64, bool) {
	switch v.(type) {
	case string, bool, nil:
		return 0, false
	}
	return toFloat(v)
}

func formatEnum(enum []any) string {
	data, err := json.Marshal(enum)
	if err != nil {
		return fmt.Sprint(enum)
	}
	return string(data)
}

func describe(raw any) string {
	switch raw.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return "number"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	}
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Map:
		return "object"
	case reflect.Slice, reflect.Array:
		return "array"
	}
	return fmt.Sprintf("%T", raw)
}

// isMultiple tolerates float rounding in the quotient.
func isMultiple(value, divisor float64) bool {
	quotient := value / divisor
	return math.Abs(quotient-math.Round(quotient)) < 1e-9
}

func firstDuplicate(list []any) (int, int, bool) {
	for i := range list {
		for j := i + 1; j < len(list); j++ {
			if reflect.DeepEqual(list[i], list[j]) {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}
