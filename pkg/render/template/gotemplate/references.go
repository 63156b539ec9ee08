package gotemplate

import (
	"sort"
	"strings"
)

// UndefinedVariableError reports template references that resolve to neither
// a bound value nor a global.
type UndefinedVariableError struct {
	Names []string
}

func (e *UndefinedVariableError) Error() string {
	if len(e.Names) == 1 {
		return "gotemplate: undefined variable " + quote(e.Names[0])
	}
	quoted := make([]string, len(e.Names))
	for i, name := range e.Names {
		quoted[i] = quote(name)
	}
	return "gotemplate: undefined variables " + strings.Join(quoted, ", ")
}

func quote(name string) string { return `"` + name + `"` }

// reservedWords never name a context lookup: operators, literals, loop
// modifiers, tag flags and the names pongo2 binds itself.
var reservedWords = map[string]struct{}{
	"in": {}, "and": {}, "or": {}, "not": {}, "as": {}, "export": {},
	"true": {}, "false": {}, "nil": {},
	"reversed": {}, "sorted": {}, "silent": {}, "fake": {},
	"only": {}, "if_exists": {}, "parsed": {},
	"forloop": {}, "pongo2": {}, "block": {},
}

// opaqueTags take arguments that are names or literals, never expressions.
var opaqueTags = map[string]struct{}{
	"autoescape": {}, "block": {}, "endblock": {}, "filter": {}, "endfilter": {},
	"templatetag": {}, "lorem": {}, "now": {}, "ssi": {}, "extends": {},
}

// declaringTags bind every identifier they mention.
var declaringTags = map[string]struct{}{
	"macro": {}, "import": {},
}

// rootReferences lists the top-level names a template looks up in its
// context, minus the names the template declares itself (loop variables,
// set/with bindings, macro names and arguments, "as" aliases). The scan is
// lexical and scope-free; included or extended files are not followed.
func rootReferences(source string) []string {
	refs := map[string]struct{}{}
	declared := map[string]struct{}{}

	for _, tag := range templateTags(source) {
		scanTag(tag, refs, declared)
	}

	out := make([]string, 0, len(refs))
	for name := range refs {
		if _, ok := declared[name]; ok {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

type templateTag struct {
	block bool
	body  string
}

// templateTags splits source into {{ }} and {% %} bodies, dropping {# #}
// comments plus comment and verbatim blocks.
func templateTags(source string) []templateTag {
	var tags []templateTag
	skipUntil := ""
	for pos := 0; pos < len(source); {
		open := strings.IndexByte(source[pos:], '{')
		if open < 0 || pos+open+1 >= len(source) {
			break
		}
		start := pos + open
		var closer string
		switch source[start+1] {
		case '{':
			closer = "}}"
		case '%':
			closer = "%}"
		case '#':
			closer = "#}"
		default:
			pos = start + 1
			continue
		}
		end := strings.Index(source[start+2:], closer)
		if end < 0 {
			break
		}
		body := source[start+2 : start+2+end]
		pos = start + 2 + end + len(closer)

		if closer == "#}" {
			continue
		}
		body = strings.TrimSpace(strings.Trim(body, "-"))
		block := closer == "%}"
		if skipUntil != "" {
			if block && firstWord(body) == skipUntil {
				skipUntil = ""
			}
			continue
		}
		if block {
			switch firstWord(body) {
			case "comment":
				skipUntil = "endcomment"
				continue
			case "verbatim":
				skipUntil = "endverbatim"
				continue
			}
		}
		tags = append(tags, templateTag{block: block, body: body})
	}
	return tags
}

func firstWord(body string) string {
	i := 0
	for i < len(body) && isIdentChar(body[i]) {
		i++
	}
	return body[:i]
}

func scanTag(tag templateTag, refs, declared map[string]struct{}) {
	tokens := tokenize(tag.body)
	if tag.block {
		if len(tokens) == 0 || tokens[0].kind != tokenIdent {
			return
		}
		name := tokens[0].text
		if _, ok := opaqueTags[name]; ok {
			return
		}
		if _, ok := declaringTags[name]; ok {
			for _, tok := range tokens[1:] {
				if tok.kind == tokenIdent {
					declared[tok.text] = struct{}{}
				}
			}
			return
		}
		tokens = tokens[1:]
		if name == "for" {
			for i, tok := range tokens {
				if tok.kind == tokenIdent && tok.text == "in" {
					for _, loopVar := range tokens[:i] {
						if loopVar.kind == tokenIdent {
							declared[loopVar.text] = struct{}{}
						}
					}
					tokens = tokens[i+1:]
					break
				}
			}
		}
		if name == "include" {
			var filtered []token
			for _, tok := range tokens {
				if tok.kind == tokenIdent && tok.text == "with" {
					continue
				}
				filtered = append(filtered, tok)
			}
			tokens = filtered
		}
	}

	for i, tok := range tokens {
		if tok.kind != tokenIdent {
			continue
		}
		if _, ok := reservedWords[tok.text]; ok {
			continue
		}
		if i > 0 && tokens[i-1].kind == tokenSymbol && (tokens[i-1].text == "." || tokens[i-1].text == "|") {
			continue
		}
		if i > 0 && tokens[i-1].kind == tokenIdent && tokens[i-1].text == "as" {
			declared[tok.text] = struct{}{}
			continue
		}
		if i+1 < len(tokens) && tokens[i+1].kind == tokenSymbol && tokens[i+1].text == "=" {
			declared[tok.text] = struct{}{}
			continue
		}
		refs[tok.text] = struct{}{}
	}
}

type tokenKind int

const (
	tokenIdent tokenKind = iota
	tokenSymbol
	tokenLiteral
)

type token struct {
	kind tokenKind
	text string
}

var multiCharSymbols = []string{"==", "!=", "<=", ">=", "&&", "||", "<>"}

func tokenize(body string) []token {
	var tokens []token
	for i := 0; i < len(body); {
		c := body[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			i++
		case c == '"' || c == '\'':
			j := i + 1
			for j < len(body) && body[j] != c {
				if body[j] == '\\' {
					j++
				}
				j++
			}
			tokens = append(tokens, token{kind: tokenLiteral})
			i = j + 1
		case c >= '0' && c <= '9':
			j := i
			for j < len(body) && isIdentChar(body[j]) {
				j++
			}
			tokens = append(tokens, token{kind: tokenLiteral, text: body[i:j]})
			i = j
		case isIdentChar(c):
			j := i
			for j < len(body) && isIdentChar(body[j]) {
				j++
			}
			tokens = append(tokens, token{kind: tokenIdent, text: body[i:j]})
			i = j
		default:
			sym := string(c)
			for _, candidate := range multiCharSymbols {
				if strings.HasPrefix(body[i:], candidate) {
					sym = candidate
					break
				}
			}
			tokens = append(tokens, token{kind: tokenSymbol, text: sym})
			i += len(sym)
		}
	}
	return tokens
}

func isIdentChar(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c >= 0x80
}
