// Package render validates caller arguments against a widget definition's
// compiled model, renders its template and normalizes the output into a
// uitree.Tree.
package render
