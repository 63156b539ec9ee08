package template_test

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/flosch/pongo2/v6"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-widgetmcp/pkg/render/template/gotemplate"
	"github.com/goliatone/go-widgetmcp/pkg/testsupport"
)

//go:embed testdata/templates/*.tpl
var embeddedTemplates embed.FS

func TestGoTemplateEngine_RenderStringWithInclude(t *testing.T) {
	engine := newEngine(t)
	source := `{"type":"Card","children":[{"type":"Title","value":"{{ title }}"},{% include "badge.tpl" %}]}`

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderString(source, map[string]any{"title": "PA 845", "label": "On time"}, w)
	})

	want := testsupport.MustReadGoldenString(t, filepath.Join("testdata", "card.golden"))
	if result != want {
		t.Fatalf("render mismatch result\nwant: %q\n got: %q", want, result)
	}
	if written != want {
		t.Fatalf("render mismatch writer\nwant: %q\n got: %q", want, written)
	}
}

func TestGoTemplateEngine_EscapesJSONStrings(t *testing.T) {
	engine := newEngine(t)
	hostile := `x", "type": "Evil` + "\n\\"

	got, err := engine.RenderString(`{"type":"Text","value":"{{ value }}"}`, map[string]any{"value": hostile})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(got), &decoded); err != nil {
		t.Fatalf("rendered output is not JSON: %v\n%s", err, got)
	}
	if decoded["type"] != "Text" || decoded["value"] != hostile {
		t.Fatalf("escaping failed, decoded %#v", decoded)
	}
}

func TestGoTemplateEngine_Filters(t *testing.T) {
	engine := newEngine(t)
	data := map[string]any{
		"flag":    true,
		"count":   int64(3),
		"quoted":  `a"b`,
		"padded":  "  Hello  ",
		"nothing": nil,
	}

	cases := map[string]string{
		`{{ flag|tojson }}`:            `true`,
		`{{ count|tojson }}`:           `3`,
		`{{ quoted|tojson }}`:          `"a\"b"`,
		`{{ nothing|tojson }}`:         `null`,
		`{{ padded|trim }}`:            `Hello`,
		`{{ padded|trim|lowerfirst }}`: `hello`,
		`{{ quoted|jsonescape }}`:      `a\"b`,
		`[{{ nothing }}]`:              `[]`,
	}
	for source, want := range cases {
		got, err := engine.RenderString(source, data)
		if err != nil {
			t.Fatalf("render %s: %v", source, err)
		}
		if got != want {
			t.Errorf("render %s = %q, want %q", source, got, want)
		}
	}
}

func TestGoTemplateEngine_UndefinedVariables(t *testing.T) {
	engine := newEngine(t)
	data := map[string]any{"items": []any{"a", "b"}, "title": "PA 845", "nothing": nil}

	cases := map[string][]string{
		`{{ nosuchvar }}`:                                                   {"nosuchvar"},
		`{{ title }}{% if flag %}x{% endif %}`:                              {"flag"},
		`{{ title|default:fallback }}{{ a.b }}`:                             {"a", "fallback"},
		`{{ nothing.deeper }}`:                                              nil,
		`{% for item in items %}{{ item }}{% endfor %}{{ forloop }}`:        nil,
		`{% for k, v in items %}{{ k }}{{ v }}{% endfor %}`:                 nil,
		`{% set total = 3 %}{{ total }}`:                                    nil,
		`{% with label=title %}{{ label }}{% endwith %}`:                    nil,
		`{# {{ hidden }} #}{% comment %}{{ gone }}{% endcomment %}ok`:       nil,
		`{% if title == "x" and not nothing %}{{ "lit"|upper }}{% endif %}`: nil,
	}
	for source, want := range cases {
		_, err := engine.RenderString(source, data)
		if want == nil {
			if err != nil {
				t.Errorf("render %s: %v", source, err)
			}
			continue
		}
		var undefined *gotemplate.UndefinedVariableError
		if !errors.As(err, &undefined) {
			t.Errorf("render %s: expected UndefinedVariableError, got %v", source, err)
			continue
		}
		if diff := cmp.Diff(want, undefined.Names); diff != "" {
			t.Errorf("render %s names mismatch (-want +got):\n%s", source, diff)
		}
	}
}

func TestGoTemplateEngine_TemplateFuncsAndGlobalData(t *testing.T) {
	engine, err := gotemplate.New(
		gotemplate.WithGlobalData(map[string]any{"airline": "Pan Am"}),
		gotemplate.WithTemplateFunc(map[string]any{
			"initials": func(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
				return pongo2.AsValue(strings.ToUpper(in.String()[:1])), nil
			},
			"gate": func(n int) string { return fmt.Sprintf("G%d", n) },
		}),
	)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	got, err := engine.RenderString(`{{ airline|initials }}-{{ gate(12) }}`, nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "P-G12" {
		t.Fatalf("render = %q", got)
	}

	if _, err := gotemplate.New(gotemplate.WithTemplateFunc(map[string]any{"bad": 42})); err == nil {
		t.Fatal("expected a non-callable template func to be rejected")
	}
}

func TestGoTemplateEngine_GlobalContext(t *testing.T) {
	engine := newEngine(t)
	if err := engine.GlobalContext(map[string]any{
		"settings": map[string]any{"env": "staging"},
	}); err != nil {
		t.Fatalf("global context: %v", err)
	}

	got, err := engine.RenderString(`{"env":"{{ settings.env }}"}`, nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != `{"env":"staging"}` {
		t.Fatalf("global context not applied: %q", got)
	}
}

func TestGoTemplateEngine_RegisterFilter(t *testing.T) {
	engine := newEngine(t)
	err := engine.RegisterFilter("shout", func(input any, _ any) (any, error) {
		if input == nil {
			return "", nil
		}
		return fmt.Sprintf("%s!", strings.ToUpper(fmt.Sprint(input))), nil
	})
	if err != nil {
		t.Fatalf("register filter: %v", err)
	}
	if err := engine.RegisterFilter("shout", func(input any, _ any) (any, error) { return input, nil }); err == nil {
		t.Fatal("expected duplicate filter registration to fail")
	}

	got, err := engine.RenderString(`{{ name|shout }}`, map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "ADA!" {
		t.Fatalf("filter output = %q", got)
	}
}

func TestGoTemplateEngine_Check(t *testing.T) {
	engine := newEngine(t)

	if err := engine.Check(`{"type":"Card"{% if x %},"size":"md"{% endif %}}`); err != nil {
		t.Fatalf("valid template rejected: %v", err)
	}
	if err := engine.Check(`{"type":"Card"{% if x %}}`); err == nil {
		t.Fatal("expected unterminated block to fail")
	}
	if err := engine.Check(`{{ value|nosuchfilter }}`); err == nil {
		t.Fatal("expected unknown filter to fail")
	}
}

func newEngine(t *testing.T) *gotemplate.Engine {
	t.Helper()

	templatesFS, err := fs.Sub(embeddedTemplates, "testdata/templates")
	if err != nil {
		t.Fatalf("sub fs: %v", err)
	}

	engine, err := gotemplate.New(gotemplate.WithFS(templatesFS))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}
