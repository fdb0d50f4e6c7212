package urlconf

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	pathParamRe  = regexp.MustCompile(`<([^<>]*)>`)
	namedGroupRe = regexp.MustCompile(`\(\?P<(\w+)>[^)]*\)`)
)

// OpenAPIPath rewrites a route pattern as an OpenAPI path template:
// "item/<int:id>/" becomes "/item/{id}/". Named groups of re_path patterns
// are rewritten the same way and the ^ and $ anchors dropped. Parameters
// without a usable name become {argN}.
func OpenAPIPath(pattern string) string {
	p := namedGroupRe.ReplaceAllString(pattern, "{${1}}")
	p = strings.TrimSuffix(strings.TrimPrefix(p, "^"), "$")

	i := 0
	p = pathParamRe.ReplaceAllStringFunc(p, func(m string) string {
		name := ParseParam(m[1 : len(m)-1]).Name
		if name == "" {
			name = fmt.Sprintf("arg%d", i)
		}
		i++
		return "{" + name + "}"
	})

	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
