package parser

import (
	"fmt"
)

// nullableMarker is set on a flattened node when a composition contained a
// null branch. It never reaches the decoded schema.
const nullableMarker = "\x00nullable"

// flattenComposition rewrites the composition shapes the compiler supports
// into a plain node:
//
//	anyOf/oneOf: [{...}, {"type": "null"}]  -> {...} marked nullable
//	anyOf/oneOf: [{...}]                    -> {...}
//	allOf:       [{...}, {...}]             -> keywords merged, outer node wins
//
// Any other union is rejected because a single field kind cannot express it.
func flattenComposition(node map[string]any, path string) (map[string]any, error) {
	if _, ok := node["not"]; ok {
		return nil, &Error{Path: path, Reason: `"not" is not supported`}
	}

	out := node
	for _, key := range []string{"anyOf", "oneOf"} {
		raw, ok := out[key]
		if !ok {
			continue
		}
		branches, ok := raw.([]any)
		if !ok || len(branches) == 0 {
			return nil, &Error{Path: path, Reason: fmt.Sprintf("%s must be a non-empty array", key)}
		}

		var (
			chosen   map[string]any
			nullable bool
		)
		for _, entry := range branches {
			branch, ok := entry.(map[string]any)
			if !ok {
				return nil, &Error{Path: path, Reason: fmt.Sprintf("%s entries must be objects", key)}
			}
			if isNullBranch(branch) {
				nullable = true
				continue
			}
			if chosen != nil {
				return nil, &Error{Path: path, Reason: fmt.Sprintf("%s with more than one non-null branch is not supported", key)}
			}
			chosen = branch
		}
		if chosen == nil {
			return nil, &Error{Path: path, Reason: fmt.Sprintf("%s has no non-null branch", key)}
		}

		merged := mergeUnder(chosen, out, key)
		if nullable {
			merged[nullableMarker] = true
		}
		out = merged
	}

	if raw, ok := out["allOf"]; ok {
		parts, ok := raw.([]any)
		if !ok || len(parts) == 0 {
			return nil, &Error{Path: path, Reason: "allOf must be a non-empty array"}
		}
		base := make(map[string]any)
		for _, entry := range parts {
			part, ok := entry.(map[string]any)
			if !ok {
				return nil, &Error{Path: path, Reason: "allOf entries must be objects"}
			}
			base = mergeAllOfPart(base, part)
		}
		out = mergeUnder(base, out, "allOf")
	}
	return out, nil
}

func isNullBranch(branch map[string]any) bool {
	switch typ := branch["type"].(type) {
	case string:
		return typ == "null"
	case []any:
		return len(typ) == 1 && typ[0] == "null"
	}
	return false
}

// mergeUnder overlays outer on top of base, dropping the composition key.
func mergeUnder(base, outer map[string]any, drop string) map[string]any {
	merged := make(map[string]any, len(base)+len(outer))
	for key, value := range base {
		merged[key] = value
	}
	for key, value := range outer {
		if key == drop {
			continue
		}
		merged[key] = value
	}
	return merged
}

// mergeAllOfPart merges properties and required lists; scalar keywords from
// later parts replace earlier ones.
func mergeAllOfPart(base, part map[string]any) map[string]any {
	for key, value := range part {
		switch key {
		case "properties":
			props, _ := base["properties"].(map[string]any)
			if props == nil {
				props = make(map[string]any)
			}
			if incoming, ok := value.(map[string]any); ok {
				for name, prop := range incoming {
					props[name] = prop
				}
			}
			base["properties"] = props
		case "required":
			existing, _ := base["required"].([]any)
			if incoming, ok := value.([]any); ok {
				existing = append(existing, incoming...)
			}
			base["required"] = existing
		default:
			base[key] = value
		}
	}
	return base
}
