package gotemplate

import (
	"encoding/json"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/flosch/pongo2/v6"
)

var (
	filtersOnce sync.Once
	filtersErr  error
)

// registerDefaultFilters installs the widget filters and swaps pongo2's HTML
// autoescape for JSON string escaping. Filters are global in pongo2, so this
// runs once per process.
func registerDefaultFilters() error {
	filtersOnce.Do(func() {
		if err := pongo2.ReplaceFilter("escape", filterJSONEscape); err != nil {
			filtersErr = err
			return
		}
		for name, fn := range map[string]pongo2.FilterFunction{
			"tojson":     filterToJSON,
			"jsonescape": filterJSONEscape,
			"trim":       filterTrim,
			"lowerfirst": filterLowerFirst,
		} {
			if pongo2.FilterExists(name) {
				continue
			}
			if err := pongo2.RegisterFilter(name, fn); err != nil {
				filtersErr = err
				return
			}
		}
	})
	return filtersErr
}

// EscapeJSONString returns s escaped for use between double quotes in a JSON
// document, without the surrounding quotes.
func EscapeJSONString(s string) string {
	encoded, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return string(encoded[1 : len(encoded)-1])
}

func filterJSONEscape(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsSafeValue(EscapeJSONString(in.String())), nil
}

// filterToJSON emits a complete JSON literal: strings come out quoted, nil as
// null, booleans as true/false.
func filterToJSON(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	encoded, err := json.Marshal(in.Interface())
	if err != nil {
		return nil, &pongo2.Error{Sender: "filter:tojson", OrigError: err}
	}
	return pongo2.AsSafeValue(string(encoded)), nil
}

func filterTrim(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.Len() <= 0 {
		return pongo2.AsValue(""), nil
	}
	return pongo2.AsValue(strings.TrimSpace(in.String())), nil
}

func filterLowerFirst(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.Len() <= 0 {
		return pongo2.AsValue(""), nil
	}
	t := in.String()

	for i, r := range t {
		if strings.ContainsRune(" \t\n\r", r) {
			continue
		}
		size := utf8.RuneLen(r)
		return pongo2.AsValue(t[:i] + strings.ToLower(string(r)) + t[i+size:]), nil
	}
	return pongo2.AsValue(t), nil
}
