package render

import (
	"html"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans a caller supplied string before it reaches a template.
type Sanitizer interface {
	Sanitize(value string) string
}

// SanitizerFunc adapts a function to Sanitizer.
type SanitizerFunc func(string) string

// Sanitize implements Sanitizer.
func (fn SanitizerFunc) Sanitize(value string) string { return fn(value) }

var (
	stripPolicyOnce sync.Once
	stripPolicy     *bluemonday.Policy
)

// StripMarkup removes every HTML element from bound strings and keeps their
// text. Entities produced by the policy are decoded again so plain text such
// as "A & B" survives unchanged.
func StripMarkup() Sanitizer {
	stripPolicyOnce.Do(func() {
		stripPolicy = bluemonday.StrictPolicy()
	})
	return SanitizerFunc(func(value string) string {
		return html.UnescapeString(stripPolicy.Sanitize(value))
	})
}

func sanitizeValue(sanitizer Sanitizer, value any) any {
	if sanitizer == nil {
		return value
	}
	switch typed := value.(type) {
	case string:
		return sanitizer.Sanitize(typed)
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[key] = sanitizeValue(sanitizer, item)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for idx, item := range typed {
			out[idx] = sanitizeValue(sanitizer, item)
		}
		return out
	default:
		return value
	}
}
