package widget

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// GuardDir validates the directory definitions may be read from and returns
// its absolute, symlink-free form. There is deliberately no fallback location.
func GuardDir(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", &ConfigurationError{Message: "widgets directory is required"}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", &ConfigurationError{Path: path, Message: "widgets directory cannot be resolved", Err: err}
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &ConfigurationError{Path: abs, Message: "widgets directory does not exist"}
		}
		return "", &ConfigurationError{Path: abs, Message: "widgets directory is not accessible", Err: err}
	}
	if !info.IsDir() {
		return "", &ConfigurationError{Path: abs, Message: "widgets directory is not a directory"}
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", &ConfigurationError{Path: abs, Message: "widgets directory cannot be resolved", Err: err}
	}
	return resolved, nil
}
