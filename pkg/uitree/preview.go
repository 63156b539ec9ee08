package uitree

import (
	"fmt"
	"math"
	"sort"
)

const previewTolerance = 1e-10

// PreviewMismatch describes the first difference found by MatchPreview.
type PreviewMismatch struct {
	Path   string
	Reason string
}

func (m *PreviewMismatch) Error() string {
	return fmt.Sprintf("uitree: preview mismatch at %s: %s", m.Path, m.Reason)
}

// MatchPreview reports whether the rendered tree reproduces a reference
// preview payload. Every key present in the preview must exist in the tree
// with a matching value; extra keys in the tree are ignored. Lists must have
// the same length and numbers match within 1e-10. The returned error is nil
// on a match and a *PreviewMismatch otherwise.
func MatchPreview(tree Tree, preview map[string]any) error {
	if preview == nil {
		return nil
	}
	return matchValue(tree.Map(), preview, "root")
}

func matchValue(got, want any, path string) error {
	if want == nil {
		if got == nil {
			return nil
		}
		return &PreviewMismatch{Path: path, Reason: fmt.Sprintf("expected null, got %s", describe(got))}
	}
	if got == nil {
		return &PreviewMismatch{Path: path, Reason: fmt.Sprintf("expected %s, got null", describe(want))}
	}

	if wantNum, ok := toNumber(want); ok {
		gotNum, ok := toNumber(got)
		if !ok {
			return &PreviewMismatch{Path: path, Reason: fmt.Sprintf("expected number, got %s", describe(got))}
		}
		if math.Abs(gotNum-wantNum) >= previewTolerance {
			return &PreviewMismatch{Path: path, Reason: fmt.Sprintf("expected %v, got %v", wantNum, gotNum)}
		}
		return nil
	}

	switch wantTyped := want.(type) {
	case map[string]any:
		gotMap, ok := got.(map[string]any)
		if !ok {
			return &PreviewMismatch{Path: path, Reason: fmt.Sprintf("expected object, got %s", describe(got))}
		}
		keys := make([]string, 0, len(wantTyped))
		for key := range wantTyped {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			value, ok := gotMap[key]
			if !ok {
				return &PreviewMismatch{Path: path + "." + key, Reason: "missing"}
			}
			if err := matchValue(value, wantTyped[key], path+"."+key); err != nil {
				return err
			}
		}
		return nil
	case []any:
		gotList, ok := got.([]any)
		if !ok {
			return &PreviewMismatch{Path: path, Reason: fmt.Sprintf("expected list, got %s", describe(got))}
		}
		if len(gotList) != len(wantTyped) {
			return &PreviewMismatch{Path: path, Reason: fmt.Sprintf("expected %d item(s), got %d", len(wantTyped), len(gotList))}
		}
		for idx := range wantTyped {
			if err := matchValue(gotList[idx], wantTyped[idx], fmt.Sprintf("%s[%d]", path, idx)); err != nil {
				return err
			}
		}
		return nil
	case string:
		gotStr, ok := got.(string)
		if !ok || gotStr != wantTyped {
			return &PreviewMismatch{Path: path, Reason: fmt.Sprintf("expected %q, got %v", wantTyped, got)}
		}
		return nil
	case bool:
		gotBool, ok := got.(bool)
		if !ok || gotBool != wantTyped {
			return &PreviewMismatch{Path: path, Reason: fmt.Sprintf("expected %v, got %v", wantTyped, got)}
		}
		return nil
	default:
		if got != want {
			return &PreviewMismatch{Path: path, Reason: fmt.Sprintf("expected %v, got %v", want, got)}
		}
		return nil
	}
}

func toNumber(value any) (float64, bool) {
	switch typed := value.(type) {
	case float64:
		return typed, true
	case float32:
		return float64(typed), true
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	default:
		return 0, false
	}
}
