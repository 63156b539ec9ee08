// Package template defines the narrow text-template seam the widget renderer
// depends on. The pongo2-backed implementation lives in the gotemplate
// subpackage; tests and embedders may supply their own TextRenderer.
package template
