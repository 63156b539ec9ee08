package model

import (
	"fmt"

	"github.com/goliatone/go-widgetmcp/pkg/schema"
)

// validateSchema checks the structural invariants the builder relies on. The
// parser enforces the same rules for decoded schemas; this guards IR built by
// hand.
func validateSchema(s schema.Schema, path string, depth, maxDepth int) error {
	if depth > maxDepth {
		return &Error{Path: path, Reason: fmt.Sprintf("nesting exceeds maximum depth %d", maxDepth)}
	}
	if depth == 0 && s.Type != schema.TypeObject {
		return &Error{Reason: fmt.Sprintf("root schema must be of type object, got %q", s.Type)}
	}
	if mapType(s.Type) == "" {
		return &Error{Path: path, Reason: fmt.Sprintf("unsupported type %q", s.Type)}
	}
	switch s.Type {
	case schema.TypeArray:
		if s.Items == nil {
			return &Error{Path: path, Reason: "array schema requires items"}
		}
		return validateSchema(*s.Items, path+"[]", depth+1, maxDepth)
	case schema.TypeObject:
		for _, name := range s.PropertyNames() {
			if err := validateSchema(s.Properties[name], joinPath(path, name), depth+1, maxDepth); err != nil {
				return err
			}
		}
		if s.AdditionalProperties != nil && s.AdditionalProperties.Schema != nil {
			return validateSchema(*s.AdditionalProperties.Schema, path+".*", depth+1, maxDepth)
		}
	}
	return nil
}
