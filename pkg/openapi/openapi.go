// Package openapi exports a route catalogue as an OpenAPI document.
//
// Include prefixes are not resolved, so every path is relative to the
// URLconf that declares it.
package openapi

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/muremwa/djurls/pkg/catalog"
	"github.com/muremwa/djurls/pkg/urlconf"
)

// Config configures document generation.
type Config struct {
	// Title is the API title (default: "Django URLs").
	Title string

	// Version is the API version (default: "1.0.0").
	Version string

	// Description is the API description.
	Description string

	// Servers are the server URLs.
	Servers []Server

	// OpenAPIVersion is the OpenAPI version ("3.1.0" or "3.0.3", default: "3.1.0").
	OpenAPIVersion string
}

// Server represents a server URL.
type Server struct {
	URL         string
	Description string
}

// Skipped is a route left out of the document.
type Skipped struct {
	ReverseName string `json:"reverseName"`
	Reason      string `json:"reason"`
}

// Generator builds OpenAPI documents from a catalogue.
type Generator struct {
	cat     *catalog.Catalog
	config  Config
	skipped []Skipped
}

// NewGenerator creates a generator for cat.
func NewGenerator(cat *catalog.Catalog, config Config) *Generator {
	if config.Version == "" {
		config.Version = "1.0.0"
	}
	if config.OpenAPIVersion == "" {
		config.OpenAPIVersion = "3.1.0"
	}
	if config.Title == "" {
		config.Title = "Django URLs"
	}

	return &Generator{cat: cat, config: config}
}

// Generate creates the document. Each route becomes a GET operation whose
// operationId is the reverse name. Routes that come from catalogue files
// have no pattern and are skipped.
func (g *Generator) Generate() (*openapi3.T, error) {
	g.skipped = nil

	doc := &openapi3.T{
		OpenAPI: g.config.OpenAPIVersion,
		Info: &openapi3.Info{
			Title:       g.config.Title,
			Version:     g.config.Version,
			Description: g.config.Description,
		},
		Paths: openapi3.NewPaths(),
	}

	if len(g.config.Servers) > 0 {
		doc.Servers = make(openapi3.Servers, 0, len(g.config.Servers))
		for _, srv := range g.config.Servers {
			doc.Servers = append(doc.Servers, &openapi3.Server{
				URL:         srv.URL,
				Description: srv.Description,
			})
		}
	}

	seenTags := map[string]bool{}
	for _, group := range g.cat.Groups {
		tag := deriveTag(group)

		for _, route := range group.Routes {
			if !strings.HasSuffix(group.File, ".py") {
				g.skip(route, "not declared in a URLconf")
				continue
			}

			path := urlconf.OpenAPIPath(route.Pattern)
			if doc.Paths.Value(path) != nil {
				// same relative pattern in another URLconf
				path = "/" + tag + path
			}
			if doc.Paths.Value(path) != nil {
				g.skip(route, "duplicate path "+path)
				continue
			}

			doc.Paths.Set(path, &openapi3.PathItem{Get: buildOperation(route, tag)})
			if !seenTags[tag] {
				seenTags[tag] = true
				doc.Tags = append(doc.Tags, &openapi3.Tag{
					Name:        tag,
					Description: group.DisplayName(),
				})
			}
		}
	}

	return doc, nil
}

// Skipped returns the routes left out by the last Generate call.
func (g *Generator) Skipped() []Skipped {
	return g.skipped
}

func (g *Generator) skip(route urlconf.Route, reason string) {
	g.skipped = append(g.skipped, Skipped{ReverseName: route.ReverseName, Reason: reason})
}

// GenerateJSON returns the document as JSON bytes.
func (g *Generator) GenerateJSON() ([]byte, error) {
	doc, err := g.Generate()
	if err != nil {
		return nil, err
	}

	return json.MarshalIndent(doc, "", "  ")
}

// GenerateYAML returns the document as YAML bytes.
func (g *Generator) GenerateYAML() ([]byte, error) {
	doc, err := g.Generate()
	if err != nil {
		return nil, err
	}

	return yaml.Marshal(doc)
}

// Render returns the document in format, "json" or "yaml".
func (g *Generator) Render(format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		return g.GenerateYAML()
	case "json":
		return g.GenerateJSON()
	default:
		return nil, fmt.Errorf("unsupported format: %s (use json or yaml)", format)
	}
}

// WriteToFile writes the document to path.
func (g *Generator) WriteToFile(path, format string) error {
	data, err := g.Render(format)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// deriveTag names a group for tagging: the declared namespace, or the
// directory holding a file-derived URLconf.
// Example: FILE-DERIVED:/proj/core/urls.py -> "core"
func deriveTag(group catalog.Group) string {
	file, ok := urlconf.NamespaceFile(group.Namespace)
	if !ok {
		return group.Namespace
	}
	dir := filepath.Base(filepath.Dir(file))
	if dir == "." || dir == string(filepath.Separator) {
		return "default"
	}
	return dir
}

func buildOperation(route urlconf.Route, tag string) *openapi3.Operation {
	op := &openapi3.Operation{
		OperationID: route.ReverseName,
		Summary:     route.ReverseName,
		Tags:        []string{tag},
		Responses:   openapi3.NewResponses(),
	}
	if route.ViewName != "" {
		op.Description = "View: " + route.ViewName
		op.Extensions = map[string]any{"x-django-view": route.ViewName}
	}

	params := buildParameters(route)
	if len(params) > 0 {
		op.Parameters = params
	}

	op.Responses.Set("200", &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: openapi3.Ptr("Success"),
		},
	})
	if len(params) > 0 {
		op.Responses.Set("404", &openapi3.ResponseRef{
			Value: &openapi3.Response{
				Description: openapi3.Ptr("Not Found"),
			},
		})
	}

	return op
}

// buildParameters declares one path parameter per argument, named the same
// way OpenAPIPath names it in the template.
func buildParameters(route urlconf.Route) openapi3.Parameters {
	var params openapi3.Parameters
	seen := map[string]bool{}

	for i, arg := range route.Arguments {
		name := arg.Name
		if name == "" {
			name = fmt.Sprintf("arg%d", i)
		}
		if seen[name] {
			continue
		}
		seen[name] = true

		params = append(params, &openapi3.ParameterRef{Value: &openapi3.Parameter{
			Name:        name,
			In:          openapi3.ParameterInPath,
			Required:    true,
			Description: fmt.Sprintf("%s parameter", name),
			Schema:      &openapi3.SchemaRef{Value: schemaFor(arg.Type)},
		}})
	}

	return params
}

// schemaFor maps a converter type to a parameter schema.
func schemaFor(t urlconf.ArgType) *openapi3.Schema {
	switch t {
	case urlconf.ArgInteger:
		return &openapi3.Schema{Type: &openapi3.Types{"integer"}, Min: openapi3.Ptr(0.0)}
	case urlconf.ArgUUID:
		return &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "uuid"}
	case urlconf.ArgSlug:
		return &openapi3.Schema{Type: &openapi3.Types{"string"}, Pattern: `^[-a-zA-Z0-9_]+$`}
	case urlconf.ArgString:
		return &openapi3.Schema{Type: &openapi3.Types{"string"}, Pattern: `^[^/]+$`}
	default:
		return &openapi3.Schema{Type: &openapi3.Types{"string"}}
	}
}
