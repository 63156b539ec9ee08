package uitree

import (
	"fmt"
	"strings"
)

// Builder turns decoded template output into a normalized tree.
type Builder interface {
	Build(data any) (Tree, error)
}

// Option customises a TreeBuilder.
type Option func(*TreeBuilder)

// WithRegistry replaces the component catalog used for validation.
func WithRegistry(reg *Registry) Option {
	return func(b *TreeBuilder) {
		if reg != nil {
			b.registry = reg
		}
	}
}

// WithStrict toggles catalog enforcement. A lax builder accepts unknown
// component types and any root type but still requires a well formed tree.
func WithStrict(strict bool) Option {
	return func(b *TreeBuilder) {
		b.strict = strict
	}
}

// TreeBuilder validates decoded JSON against the component catalog.
type TreeBuilder struct {
	registry *Registry
	strict   bool
}

var _ Builder = (*TreeBuilder)(nil)

// NewBuilder returns a strict builder backed by the built-in catalog.
func NewBuilder(options ...Option) *TreeBuilder {
	b := &TreeBuilder{strict: true}
	for _, opt := range options {
		if opt != nil {
			opt(b)
		}
	}
	if b.registry == nil {
		b.registry = NewRegistry()
	}
	return b
}

// BuildError reports the node that could not be converted.
type BuildError struct {
	Path   string
	Reason string
}

func (e *BuildError) Error() string {
	if e.Path == "" {
		return "uitree: " + e.Reason
	}
	return fmt.Sprintf("uitree: %s: %s", e.Path, e.Reason)
}

// Build converts a decoded JSON object into a Tree. The input is never
// retained; props are deep copied.
func (b *TreeBuilder) Build(data any) (Tree, error) {
	if b == nil {
		b = NewBuilder()
	}
	root, err := b.node(data, "root", true)
	if err != nil {
		return Tree{}, err
	}
	return Tree{Root: root}, nil
}

func (b *TreeBuilder) node(data any, path string, isRoot bool) (*Node, error) {
	raw, ok := data.(map[string]any)
	if !ok {
		return nil, &BuildError{Path: path, Reason: fmt.Sprintf("expected component object, got %s", describe(data))}
	}
	typ, ok := raw["type"].(string)
	if !ok || strings.TrimSpace(typ) == "" {
		return nil, &BuildError{Path: path, Reason: "component type is required"}
	}

	component, known := b.registry.Lookup(typ)
	if b.strict {
		if !known {
			return nil, &BuildError{Path: path, Reason: fmt.Sprintf("unknown component type %q", typ)}
		}
		if isRoot && !component.Root {
			return nil, &BuildError{Path: path, Reason: fmt.Sprintf("component %q cannot be a widget root", typ)}
		}
	}

	node := &Node{Type: typ, Props: make(map[string]any, len(raw))}
	for key, value := range raw {
		if key == "type" || key == "children" || value == nil {
			continue
		}
		node.Props[key] = cloneValue(value)
	}

	if b.strict {
		for _, prop := range component.Required {
			if _, ok := node.Props[prop]; !ok {
				return nil, &BuildError{Path: path, Reason: fmt.Sprintf("%s requires %q", typ, prop)}
			}
		}
	}

	rawChildren, present := raw["children"]
	if !present || rawChildren == nil {
		return node, nil
	}
	list, ok := rawChildren.([]any)
	if !ok {
		return nil, &BuildError{Path: path + ".children", Reason: fmt.Sprintf("expected list, got %s", describe(rawChildren))}
	}
	if b.strict && known && !component.Container && len(list) > 0 {
		return nil, &BuildError{Path: path, Reason: fmt.Sprintf("%s does not accept children", typ)}
	}

	node.Children = make([]*Node, 0, len(list))
	for idx, item := range list {
		childPath := fmt.Sprintf("%s.children[%d]", path, idx)
		child, err := b.node(item, childPath, false)
		if err != nil {
			return nil, err
		}
		if b.strict && len(component.Children) > 0 && !contains(component.Children, child.Type) {
			return nil, &BuildError{
				Path:   childPath,
				Reason: fmt.Sprintf("%s children must be %s, got %q", typ, strings.Join(component.Children, " or "), child.Type),
			}
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}

func cloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[key] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for idx, item := range typed {
			out[idx] = cloneValue(item)
		}
		return out
	default:
		return value
	}
}

func contains(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}

func describe(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "list"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64:
		return "number"
	default:
		return fmt.Sprintf("%T", value)
	}
}
