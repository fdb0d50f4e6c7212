// Package urlconf extracts named routes from Django URLconf source text.
//
// The parser works on text only. It isolates each call inside the file's list
// literals with the brackets package and then picks fields out of every call
// with regular expressions. This is an approximation of the Python grammar:
// string escapes, conditional registration and computed patterns are not
// understood.
package urlconf

import (
	"encoding/json"
	"strings"
)

// ArgType is the declared type of a path parameter.
type ArgType string

const (
	ArgSlug    ArgType = "slug"
	ArgInteger ArgType = "integer"
	ArgString  ArgType = "string"
	ArgUUID    ArgType = "UUID"
	ArgPath    ArgType = "path"

	// ArgUndeclared marks a parameter with no converter, or one this package
	// does not recognize.
	ArgUndeclared ArgType = "no-type-declared"
)

// converters maps Django path converters to argument types.
var converters = map[string]ArgType{
	"slug": ArgSlug,
	"int":  ArgInteger,
	"str":  ArgString,
	"uuid": ArgUUID,
	"path": ArgPath,
}

// FileNamespacePrefix starts every namespace derived from a file path
// rather than declared with app_name.
const FileNamespacePrefix = "FILE-DERIVED:"

// IsFileNamespace reports whether ns was derived from a file path.
func IsFileNamespace(ns string) bool {
	return strings.HasPrefix(ns, FileNamespacePrefix)
}

// FileNamespace returns the namespace used for a file with no app_name.
func FileNamespace(path string) string {
	return FileNamespacePrefix + path
}

// NamespaceFile returns the file path carried by a file-derived namespace.
func NamespaceFile(ns string) (string, bool) {
	if !IsFileNamespace(ns) {
		return "", false
	}
	return strings.TrimPrefix(ns, FileNamespacePrefix), true
}

// Param is one path parameter captured from <converter:name> or <name>.
type Param struct {
	// Name is the parameter name. Empty when the capture had more than one ':'.
	Name string `json:"name"`
	// Type is the converter's argument type or ArgUndeclared.
	Type ArgType `json:"argType"`
}

// Route is one reversible route declaration.
type Route struct {
	// ReverseName is "namespace:name", or the bare name for file-derived namespaces.
	ReverseName string `json:"reverseName"`
	// Name is the value of the name= keyword.
	Name string `json:"name"`
	// Pattern is the first string literal of the declaration.
	Pattern string `json:"pattern,omitempty"`
	// Arguments are the path parameters in order of appearance.
	Arguments []Param `json:"arguments"`
	// ViewName is the positional view expression, if one was found. It is
	// encoded as null when empty.
	ViewName string `json:"viewName"`
	// HasArgs mirrors len(Arguments) > 0.
	HasArgs bool `json:"hasArgs"`
}

// MarshalJSON encodes r with a null viewName when no view was found.
func (r Route) MarshalJSON() ([]byte, error) {
	type plain Route
	out := struct {
		plain
		ViewName *string `json:"viewName"`
	}{plain: plain(r)}
	if r.ViewName != "" {
		out.ViewName = &r.ViewName
	}
	return json.Marshal(out)
}

// File is the unparsed content of one URLconf.
type File struct {
	Path         string
	Namespace    string
	Declarations []string
}

// FileRoutes is the parsed content of one URLconf.
type FileRoutes struct {
	Path      string  `json:"path"`
	Namespace string  `json:"namespace"`
	Routes    []Route `json:"routes"`
}
