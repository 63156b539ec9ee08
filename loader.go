package widgetmcp

import (
	internalLoader "github.com/goliatone/go-widgetmcp/internal/widget/loader"
	"github.com/goliatone/go-widgetmcp/pkg/render/template/gotemplate"
	"github.com/goliatone/go-widgetmcp/pkg/widget"
)

// NewLoader constructs a loader using the internal implementation while keeping
// the concrete type hidden from consumers.
func NewLoader(options ...widget.LoaderOption) widget.Loader {
	cfg := widget.NewLoaderOptions(options...)
	return internalLoader.New(cfg)
}

// NewTemplateEngine constructs the pongo2 engine used to check and render
// widget templates.
func NewTemplateEngine(options ...gotemplate.Option) (*gotemplate.Engine, error) {
	return gotemplate.New(options...)
}
