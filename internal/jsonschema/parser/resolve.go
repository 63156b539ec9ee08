package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// resolveRefs expands local "$ref" pointers ("#/$defs/x", "#/definitions/x")
// in place of the referencing node. Sibling keywords next to a $ref override
// the values of the target. Cycles and chains longer than maxDepth fail.
func resolveRefs(root map[string]any, maxDepth int) (map[string]any, error) {
	state := &resolveState{inStack: make(map[string]struct{})}
	resolved, err := resolveNode(root, root, "", state, maxDepth)
	if err != nil {
		return nil, err
	}
	out, ok := resolved.(map[string]any)
	if !ok {
		return nil, &Error{Reason: "resolved root is not an object"}
	}
	return out, nil
}

func resolveNode(root map[string]any, node any, path string, state *resolveState, maxDepth int) (any, error) {
	typed, ok := node.(map[string]any)
	if !ok {
		return node, nil
	}

	if raw, present := typed["$ref"]; present {
		ref, ok := raw.(string)
		ref = strings.TrimSpace(ref)
		if !ok || ref == "" {
			return nil, &Error{Path: path, Reason: "$ref must be a non-empty string"}
		}
		if !strings.HasPrefix(ref, "#") {
			return nil, &Error{Path: path, Reason: fmt.Sprintf("only local references are supported, got %q", ref)}
		}
		if len(state.stack) >= maxDepth {
			return nil, &Error{Path: path, Reason: fmt.Sprintf("$ref depth exceeds %d", maxDepth)}
		}
		if state.contains(ref) {
			return nil, &Error{Path: path, Reason: fmt.Sprintf("$ref cycle detected at %s", ref)}
		}
		target, err := resolvePointer(root, strings.TrimPrefix(ref, "#"))
		if err != nil {
			return nil, &Error{Path: path, Reason: err.Error()}
		}
		merged := mergeRefTarget(target, typed)
		state.push(ref)
		out, err := resolveNode(root, merged, path, state, maxDepth)
		state.pop(ref)
		return out, err
	}

	resolved := make(map[string]any, len(typed))
	for key, value := range typed {
		switch key {
		case "$defs", "definitions":
			// Only reachable through $ref; resolved at the point of use.
			continue
		case "properties":
			items, ok := value.(map[string]any)
			if !ok {
				resolved[key] = value
				continue
			}
			child := make(map[string]any, len(items))
			for name, childValue := range items {
				out, err := resolveNode(root, childValue, joinPath(path, name), state, maxDepth)
				if err != nil {
					return nil, err
				}
				child[name] = out
			}
			resolved[key] = child
		case "items", "additionalProperties":
			out, err := resolveNode(root, value, itemPath(path, key), state, maxDepth)
			if err != nil {
				return nil, err
			}
			resolved[key] = out
		case "oneOf", "anyOf", "allOf":
			list, ok := value.([]any)
			if !ok {
				resolved[key] = value
				continue
			}
			out := make([]any, len(list))
			for idx, entry := range list {
				child, err := resolveNode(root, entry, path, state, maxDepth)
				if err != nil {
					return nil, err
				}
				out[idx] = child
			}
			resolved[key] = out
		default:
			resolved[key] = value
		}
	}
	return resolved, nil
}

func resolvePointer(root any, pointer string) (any, error) {
	if pointer == "" {
		return nil, fmt.Errorf("$ref to the document root is not supported")
	}
	if !strings.HasPrefix(pointer, "/") {
		return nil, fmt.Errorf("invalid json pointer %q", pointer)
	}

	current := root
	for _, part := range strings.Split(pointer, "/")[1:] {
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")

		switch typed := current.(type) {
		case map[string]any:
			value, ok := typed[part]
			if !ok {
				return nil, fmt.Errorf("$ref target %q not found", pointer)
			}
			current = value
		case []any:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(typed) {
				return nil, fmt.Errorf("$ref target %q out of range", pointer)
			}
			current = typed[idx]
		default:
			return nil, fmt.Errorf("$ref target %q invalid", pointer)
		}
	}
	return current, nil
}

func mergeRefTarget(target any, refObj map[string]any) any {
	targetMap, ok := target.(map[string]any)
	if !ok {
		return target
	}
	merged := make(map[string]any, len(targetMap)+len(refObj))
	for key, value := range targetMap {
		merged[key] = value
	}
	for key, value := range refObj {
		if key == "$ref" {
			continue
		}
		merged[key] = value
	}
	return merged
}

type resolveState struct {
	stack   []string
	inStack map[string]struct{}
}

func (s *resolveState) push(ref string) {
	s.stack = append(s.stack, ref)
	s.inStack[ref] = struct{}{}
}

func (s *resolveState) pop(ref string) {
	if len(s.stack) == 0 {
		return
	}
	s.stack = s.stack[:len(s.stack)-1]
	delete(s.inStack, ref)
}

func (s *resolveState) contains(ref string) bool {
	_, ok := s.inStack[ref]
	return ok
}

func joinPath(base, name string) string {
	if base == "" {
		return name
	}
	return base + "." + name
}

func itemPath(base, key string) string {
	suffix := "[]"
	if key == "additionalProperties" {
		suffix = ".*"
	}
	if base == "" {
		return strings.TrimPrefix(suffix, ".")
	}
	return base + suffix
}
