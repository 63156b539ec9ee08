// Package model compiles widget parameter schemas into runtime validators.
//
// A Compiler resolves local references, decodes the schema into the canonical
// IR and builds ordered field descriptors. The resulting Model validates and
// coerces caller arguments, reporting every problem in one
// *widget.ValidationError. Kinds map one to one onto JSON Schema types:
// integer values come back as int64, numbers as float64, nested objects as
// map[string]any and arrays as []any. Optional fields the caller omitted are
// present with a nil value; schema defaults are never injected.
//
// Cache memoizes compiled models per *widget.Definition for the lifetime of
// the process.
package model
