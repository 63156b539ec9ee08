package template

import (
	"io"
)

// TextRenderer renders a template source against a data context. It is the
// only capability the widget renderer needs.
type TextRenderer interface {
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
}

// Checker reports whether a template source parses. Loaders call it so broken
// templates are rejected at startup instead of on first call.
type Checker interface {
	Check(templateContent string) error
}

// TemplateRenderer is the full engine contract: rendering, syntax checks,
// custom filters and global data.
type TemplateRenderer interface {
	TextRenderer
	Checker
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	GlobalContext(data any) error
}
