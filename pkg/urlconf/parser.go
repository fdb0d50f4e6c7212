package urlconf

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/muremwa/djurls/pkg/brackets"
)

// rootIncludeMarker appears in declarations that include the root URLconf.
const rootIncludeMarker = "_ROOT"

var (
	// app_name = "blog"
	namespaceRe = regexp.MustCompile(`(?m)^app_name.*?['"](.*?)['"]`)

	// name="post-detail"
	nameRe = regexp.MustCompile(`\bname\s*=\s*['"](.*?)['"]`)

	// 'pattern/', views.detail,
	viewRe = regexp.MustCompile(`['"],\s*(.+?),`)

	// 'pattern/', views.detail)
	viewTailRe = regexp.MustCompile(`['"],\s*([^,]+?)\s*\)\s*$`)

	// first string literal
	patternRe = regexp.MustCompile(`^\(\s*[rbu]*['"](.*?)['"]`)

	// <int:pk>
	argRe = regexp.MustCompile(`<(.*?)>`)
)

// ParseFile isolates the route declarations of a URLconf.
//
// Every call found inside a top-level list literal counts as a declaration.
// An unbalanced bracket anywhere in the file is returned as a
// *brackets.UnmatchedError carrying path.
func ParseFile(text, path string) (*File, error) {
	f := &File{
		Path:      path,
		Namespace: FileNamespace(path),
	}

	if m := namespaceRe.FindStringSubmatch(text); len(m) > 1 {
		f.Namespace = m[1]
	}

	lists, err := brackets.Extract(StripComments(text), brackets.Square)
	if err != nil {
		return nil, brackets.WithFile(err, path)
	}

	for _, list := range lists {
		calls, err := brackets.Extract(list, brackets.Round)
		if err != nil {
			return nil, brackets.WithFile(err, path)
		}
		f.Declarations = append(f.Declarations, calls...)
	}

	return f, nil
}

// ParseDeclaration extracts a Route from one declaration.
// It returns false when the declaration is not reversible: it has no name=
// keyword or it includes the root URLconf.
func ParseDeclaration(decl, namespace string) (Route, bool) {
	if strings.Contains(decl, rootIncludeMarker) {
		return Route{}, false
	}

	m := nameRe.FindStringSubmatch(decl)
	if m == nil {
		return Route{}, false
	}
	name := removeSpace(m[1])

	route := Route{
		Name:      name,
		Pattern:   extractPattern(decl),
		ViewName:  extractView(decl),
		Arguments: extractArgs(decl),
	}
	route.HasArgs = len(route.Arguments) > 0

	if IsFileNamespace(namespace) {
		route.ReverseName = name
	} else {
		route.ReverseName = namespace + ":" + name
	}

	return route, true
}

// ParseRoutes parses a URLconf and keeps its reversible routes.
func ParseRoutes(text, path string) (*FileRoutes, error) {
	f, err := ParseFile(text, path)
	if err != nil {
		return nil, err
	}

	out := &FileRoutes{
		Path:      path,
		Namespace: f.Namespace,
		Routes:    make([]Route, 0, len(f.Declarations)),
	}
	for _, decl := range f.Declarations {
		if r, ok := ParseDeclaration(decl, f.Namespace); ok {
			out.Routes = append(out.Routes, r)
		}
	}
	return out, nil
}

// ParseParam types one captured <...> body.
func ParseParam(raw string) Param {
	parts := strings.Split(raw, ":")
	switch len(parts) {
	case 1:
		return Param{Name: parts[0], Type: ArgUndeclared}
	case 2:
		t, ok := converters[parts[0]]
		if !ok {
			t = ArgUndeclared
		}
		return Param{Name: parts[1], Type: t}
	default:
		return Param{Type: ArgUndeclared}
	}
}

// StripComments removes Python line comments. A '#' inside a string
// literal, triple-quoted ones included, is kept.
func StripComments(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	quote := "" // delimiter of the open literal
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case quote != "":
			if c == '\\' && i+1 < len(text) {
				b.WriteByte(c)
				i++
				b.WriteByte(text[i])
				continue
			}
			if strings.HasPrefix(text[i:], quote) {
				b.WriteString(quote)
				i += len(quote) - 1
				quote = ""
				continue
			}
			if c == '\n' && len(quote) == 1 {
				// unterminated single-line literal
				quote = ""
			}
			b.WriteByte(c)
		case c == '\'' || c == '"':
			quote = string(c)
			if triple := strings.Repeat(quote, 3); strings.HasPrefix(text[i:], triple) {
				quote = triple
			}
			b.WriteString(quote)
			i += len(quote) - 1
		case c == '#':
			for i+1 < len(text) && text[i+1] != '\n' {
				i++
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func extractArgs(decl string) []Param {
	matches := argRe.FindAllStringSubmatch(decl, -1)
	params := make([]Param, 0, len(matches))
	for _, m := range matches {
		params = append(params, ParseParam(m[1]))
	}
	return params
}

func extractView(decl string) string {
	if m := viewRe.FindStringSubmatch(decl); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := viewTailRe.FindStringSubmatch(decl); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func extractPattern(decl string) string {
	if m := patternRe.FindStringSubmatch(decl); m != nil {
		return m[1]
	}
	return ""
}

func removeSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
