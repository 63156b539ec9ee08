package loader

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-widgetmcp/pkg/widget"
)

// discover walks root and returns the resolved paths of every recognised
// definition file. Directory symlinks are not followed; file symlinks are
// resolved and kept only when their target stays under root. Each resolved
// path appears once.
func (l *Loader) discover(ctx context.Context, root string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			l.skip(&widget.LoadError{Path: path, Reason: "cannot read entry", Err: walkErr})
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if entry.IsDir() || !l.matches(entry.Name()) {
			return nil
		}

		resolved, err := filepath.EvalSymlinks(path)
		if err != nil {
			l.skip(&widget.LoadError{Path: path, Reason: "cannot resolve path", Err: err})
			return nil
		}
		if !within(root, resolved) {
			l.skip(&widget.LoadError{Path: path, Reason: "resolves outside the widgets directory"})
			return nil
		}
		if entry.Type()&fs.ModeSymlink != 0 {
			info, err := os.Stat(resolved)
			if err != nil {
				l.skip(&widget.LoadError{Path: path, Reason: "cannot stat symlink target", Err: err})
				return nil
			}
			if !info.Mode().IsRegular() {
				return nil
			}
		}
		if _, dup := seen[resolved]; dup {
			return nil
		}
		seen[resolved] = struct{}{}
		out = append(out, resolved)
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &widget.ConfigurationError{Path: root, Message: "widgets directory cannot be read", Err: err}
	}

	sort.Strings(out)
	return out, nil
}

func (l *Loader) matches(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range l.extensions {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
