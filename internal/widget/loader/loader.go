package loader

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/goliatone/go-widgetmcp/pkg/widget"
)

// Loader implements widget.Loader over the local filesystem.
type Loader struct {
	extensions []string
	checker    widget.TemplateChecker
	require    bool
	onSkip     func(*widget.LoadError)
	logger     *slog.Logger
}

// Ensure the implementation satisfies the public interface.
var _ widget.Loader = (*Loader)(nil)

// New constructs a Loader from pre-resolved options.
func New(options widget.LoaderOptions) *Loader {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	exts := options.Extensions
	if len(exts) == 0 {
		exts = widget.DefaultExtensions
	}
	return &Loader{
		extensions: append([]string(nil), exts...),
		checker:    options.TemplateChecker,
		require:    options.RequireDefinitions,
		onSkip:     options.OnSkip,
		logger:     logger,
	}
}

// Load guards dir, discovers every definition file beneath it and returns the
// definitions that parsed, sorted by name and then by source path. Files that
// fail are logged and skipped.
func (l *Loader) Load(ctx context.Context, dir string) ([]*widget.Definition, error) {
	if ctx == nil {
		return nil, errors.New("widget loader: context is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root, err := widget.GuardDir(dir)
	if err != nil {
		return nil, err
	}

	candidates, err := l.discover(ctx, root)
	if err != nil {
		return nil, err
	}

	defs := make([]*widget.Definition, 0, len(candidates))
	for _, path := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		def, loadErr := l.loadFile(path)
		if loadErr != nil {
			l.skip(loadErr)
			continue
		}
		defs = append(defs, def)
	}

	sort.SliceStable(defs, func(i, j int) bool {
		if defs[i].Name() != defs[j].Name() {
			return defs[i].Name() < defs[j].Name()
		}
		return defs[i].SourcePath() < defs[j].SourcePath()
	})

	if len(defs) == 0 {
		if l.require {
			return nil, &widget.ConfigurationError{
				Path:    root,
				Message: "no widget definitions loaded",
				Err:     widget.ErrNoDefinitions,
			}
		}
		l.logger.Warn("no widget definitions loaded", slog.String("dir", root))
		return defs, nil
	}

	l.logger.Debug("widget definitions loaded", slog.String("dir", root), slog.Int("count", len(defs)))
	return defs, nil
}

func (l *Loader) skip(loadErr *widget.LoadError) {
	attrs := []any{slog.String("path", loadErr.Path), slog.String("reason", loadErr.Reason)}
	if loadErr.Err != nil {
		attrs = append(attrs, slog.String("error", loadErr.Err.Error()))
	}
	l.logger.Warn("skipping widget definition", attrs...)
	if l.onSkip != nil {
		l.onSkip(loadErr)
	}
}
