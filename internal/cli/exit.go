package cli

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-widgetmcp/pkg/widget"
)

// Process exit codes.
const (
	exitSuccess    = 0
	exitFailure    = 1
	exitConfig     = 2
	exitValidation = 3
	exitRender     = 4
	exitPreview    = 5
)

// ExitError is an error that carries a specific process exit code.
// Cobra's RunE returns this to signal the desired exit code to main.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

func exitError(code int, format string, args ...any) *ExitError {
	return &ExitError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// classify maps pipeline errors onto exit codes.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	var cfgErr *widget.ConfigurationError
	if errors.As(err, &cfgErr) {
		return exitError(exitConfig, "%v", err)
	}
	var validationErr *widget.ValidationError
	if errors.As(err, &validationErr) {
		return exitError(exitValidation, "%v", err)
	}
	var renderErr *widget.RenderError
	if errors.As(err, &renderErr) {
		return exitError(exitRender, "%v", err)
	}
	var schemaErr *widget.SchemaError
	if errors.As(err, &schemaErr) {
		return exitError(exitRender, "%v", err)
	}
	return exitError(exitFailure, "%v", err)
}
