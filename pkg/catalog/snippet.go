package catalog

import (
	"fmt"
	"strings"

	"github.com/muremwa/djurls/pkg/urlconf"
)

// SnippetKind selects the code generated for a route.
type SnippetKind string

const (
	SnippetReverse  SnippetKind = "reverse"
	SnippetTemplate SnippetKind = "template"
	SnippetRedirect SnippetKind = "redirect"
)

// SnippetKinds lists every supported kind.
var SnippetKinds = []SnippetKind{SnippetReverse, SnippetTemplate, SnippetRedirect}

// Snippet renders route as Python or template code of the given kind.
func Snippet(route urlconf.Route, kind SnippetKind) (string, error) {
	switch kind {
	case SnippetReverse:
		return ReverseSnippet(route), nil
	case SnippetTemplate:
		return TemplateSnippet(route), nil
	case SnippetRedirect:
		return RedirectSnippet(route), nil
	default:
		return "", fmt.Errorf("unknown snippet kind %q", kind)
	}
}

// ReverseSnippet returns a reverse() call, e.g. reverse('blog:detail', args=[pk]).
func ReverseSnippet(route urlconf.Route) string {
	if !route.HasArgs {
		return fmt.Sprintf("reverse('%s')", route.ReverseName)
	}
	return fmt.Sprintf("reverse('%s', args=[%s])", route.ReverseName, strings.Join(argNames(route), ", "))
}

// TemplateSnippet returns a {% url %} tag, e.g. {% url 'blog:detail' pk %}.
func TemplateSnippet(route urlconf.Route) string {
	if !route.HasArgs {
		return fmt.Sprintf("{%% url '%s' %%}", route.ReverseName)
	}
	return fmt.Sprintf("{%% url '%s' %s %%}", route.ReverseName, strings.Join(argNames(route), " "))
}

// RedirectSnippet returns a redirect() call with keyword arguments.
func RedirectSnippet(route urlconf.Route) string {
	if !route.HasArgs {
		return fmt.Sprintf("redirect('%s')", route.ReverseName)
	}
	kwargs := make([]string, 0, len(route.Arguments))
	for _, name := range argNames(route) {
		kwargs = append(kwargs, name+"="+name)
	}
	return fmt.Sprintf("redirect('%s', %s)", route.ReverseName, strings.Join(kwargs, ", "))
}

func argNames(route urlconf.Route) []string {
	names := make([]string, 0, len(route.Arguments))
	for i, a := range route.Arguments {
		name := a.Name
		if name == "" {
			name = fmt.Sprintf("arg%d", i)
		}
		names = append(names, name)
	}
	return names
}

// RouteDetail is a route with its group and every snippet.
type RouteDetail struct {
	Namespace string            `json:"namespace"`
	File      string            `json:"file,omitempty"`
	Route     urlconf.Route     `json:"route"`
	Snippets  map[string]string `json:"snippets"`
}

// Detail builds the detail of route within group.
func Detail(route urlconf.Route, group Group) RouteDetail {
	snippets := make(map[string]string, len(SnippetKinds))
	for _, kind := range SnippetKinds {
		snippet, _ := Snippet(route, kind)
		snippets[string(kind)] = snippet
	}
	return RouteDetail{
		Namespace: group.Namespace,
		File:      group.File,
		Route:     route,
		Snippets:  snippets,
	}
}
