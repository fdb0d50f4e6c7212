// Package catalog aggregates parsed URLconfs into a namespace-ordered route catalogue.
package catalog

import (
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/muremwa/djurls/pkg/urlconf"
)

// Source is one URLconf to parse: its path and full text.
type Source struct {
	Path string
	Text string
}

// Group is the routes of one namespace.
type Group struct {
	// Namespace is the app_name or a file-derived namespace.
	Namespace string `json:"namespace"`
	// File is the URLconf the routes came from. Empty for supplementary groups.
	File string `json:"file,omitempty"`
	// Routes are the reversible routes in declaration order.
	Routes []urlconf.Route `json:"routes"`
}

// IsFileDerived reports whether the group has no declared app_name.
func (g Group) IsFileDerived() bool {
	return urlconf.IsFileNamespace(g.Namespace)
}

// DisplayName is the label shown for the group. Declared namespaces are shown
// as-is; file-derived ones as the file's last two path elements.
func (g Group) DisplayName() string {
	path, ok := urlconf.NamespaceFile(g.Namespace)
	if !ok {
		return strings.ToUpper(g.Namespace)
	}

	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) > 2 {
		parts = parts[len(parts)-2:]
	}
	return strings.ToUpper(strings.Join(parts, "/"))
}

// Catalog is an ordered namespace -> routes mapping.
// The zero value is an empty catalogue ready to use.
type Catalog struct {
	Groups []Group `json:"groups"`
	index  map[string]int
}

// New returns an empty catalogue.
func New() *Catalog {
	return &Catalog{}
}

// Set stores routes under namespace. A namespace that already exists is
// replaced in place, keeping its original position.
func (c *Catalog) Set(g Group) {
	c.ensureIndex()
	if i, ok := c.index[g.Namespace]; ok {
		c.Groups[i] = g
		return
	}
	c.index[g.Namespace] = len(c.Groups)
	c.Groups = append(c.Groups, g)
}

// Merge appends routes to namespace, creating the group if needed. The
// existing routes slice is copied, never extended in place, since it may be
// shared with the parse cache or an earlier catalogue.
func (c *Catalog) Merge(namespace string, routes []urlconf.Route) {
	c.ensureIndex()
	if i, ok := c.index[namespace]; ok {
		c.Groups[i].Routes = slices.Concat(c.Groups[i].Routes, routes)
		return
	}
	c.Set(Group{Namespace: namespace, Routes: routes})
}

// Lookup returns the group stored under namespace.
func (c *Catalog) Lookup(namespace string) (Group, bool) {
	c.ensureIndex()
	i, ok := c.index[namespace]
	if !ok {
		return Group{}, false
	}
	return c.Groups[i], true
}

// Namespaces returns the namespaces in catalogue order.
func (c *Catalog) Namespaces() []string {
	out := make([]string, 0, len(c.Groups))
	for _, g := range c.Groups {
		out = append(out, g.Namespace)
	}
	return out
}

// Map returns the catalogue as a plain namespace -> routes map.
func (c *Catalog) Map() map[string][]urlconf.Route {
	out := make(map[string][]urlconf.Route, len(c.Groups))
	for _, g := range c.Groups {
		out[g.Namespace] = g.Routes
	}
	return out
}

// Summary counts the routes of one group.
type Summary struct {
	Namespace   string `json:"namespace"`
	DisplayName string `json:"displayName"`
	File        string `json:"file,omitempty"`
	Routes      int    `json:"routes"`
}

// Summaries returns one Summary per group in catalogue order.
func (c *Catalog) Summaries() []Summary {
	out := make([]Summary, 0, len(c.Groups))
	for _, g := range c.Groups {
		out = append(out, Summary{
			Namespace:   g.Namespace,
			DisplayName: g.DisplayName(),
			File:        g.File,
			Routes:      len(g.Routes),
		})
	}
	return out
}

// Len returns the total number of routes.
func (c *Catalog) Len() int {
	n := 0
	for _, g := range c.Groups {
		n += len(g.Routes)
	}
	return n
}

// Find returns the first route with the given reverse name.
func (c *Catalog) Find(reverseName string) (urlconf.Route, Group, bool) {
	for _, g := range c.Groups {
		for _, r := range g.Routes {
			if r.ReverseName == reverseName {
				return r, g, true
			}
		}
	}
	return urlconf.Route{}, Group{}, false
}

// Filter returns a catalogue holding only routes whose reverse name, view or
// pattern contains query (case-insensitive). Empty groups are dropped.
func (c *Catalog) Filter(query string) *Catalog {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return c
	}

	out := New()
	for _, g := range c.Groups {
		var kept []urlconf.Route
		for _, r := range g.Routes {
			if matches(r, query) {
				kept = append(kept, r)
			}
		}
		if len(kept) > 0 {
			out.Set(Group{Namespace: g.Namespace, File: g.File, Routes: kept})
		}
	}
	return out
}

func matches(r urlconf.Route, query string) bool {
	return strings.Contains(strings.ToLower(r.ReverseName), query) ||
		strings.Contains(strings.ToLower(r.ViewName), query) ||
		strings.Contains(strings.ToLower(r.Pattern), query)
}

// Sorted returns a copy with groups ordered by display name.
func (c *Catalog) Sorted() *Catalog {
	groups := make([]Group, len(c.Groups))
	copy(groups, c.Groups)
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].DisplayName() < groups[j].DisplayName()
	})

	out := New()
	for _, g := range groups {
		out.Set(g)
	}
	return out
}

func (c *Catalog) ensureIndex() {
	if c.index != nil && len(c.index) == len(c.Groups) {
		return
	}
	c.index = make(map[string]int, len(c.Groups))
	for i, g := range c.Groups {
		c.index[g.Namespace] = i
	}
}
