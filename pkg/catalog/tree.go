package catalog

import (
	"fmt"

	"github.com/muremwa/djurls/pkg/urlconf"
)

// NodeKind tags a tree node.
type NodeKind string

const (
	KindProject  NodeKind = "project"
	KindApp      NodeKind = "app"
	KindURL      NodeKind = "url"
	KindArgument NodeKind = "argument"
)

// Node is one entry of the catalogue tree. Renderers switch on Kind.
type Node struct {
	Kind     NodeKind `json:"kind"`
	Label    string   `json:"label"`
	Tooltip  string   `json:"tooltip,omitempty"`
	Children []*Node  `json:"children,omitempty"`

	// Route is set on url and argument nodes.
	Route *urlconf.Route `json:"-"`
	// Group is set on app, url and argument nodes.
	Group *Group `json:"-"`
}

// Tree projects the catalogue into project -> app -> url -> argument nodes.
func Tree(c *Catalog, projectName string) *Node {
	root := &Node{
		Kind:    KindProject,
		Label:   projectName,
		Tooltip: fmt.Sprintf("%d routes in %d apps", c.Len(), len(c.Groups)),
	}

	for i := range c.Groups {
		g := &c.Groups[i]
		app := &Node{
			Kind:    KindApp,
			Label:   g.DisplayName(),
			Tooltip: appTooltip(g),
			Group:   g,
		}

		for j := range g.Routes {
			r := &g.Routes[j]
			url := &Node{
				Kind:    KindURL,
				Label:   r.Name,
				Tooltip: "url named " + r.ReverseName,
				Route:   r,
				Group:   g,
			}
			for _, arg := range r.Arguments {
				url.Children = append(url.Children, &Node{
					Kind:    KindArgument,
					Label:   fmt.Sprintf("%s <%s>", arg.Name, arg.Type),
					Tooltip: argTooltip(arg),
					Route:   r,
					Group:   g,
				})
			}
			app.Children = append(app.Children, url)
		}

		root.Children = append(root.Children, app)
	}

	return root
}

func appTooltip(g *Group) string {
	if path, ok := urlconf.NamespaceFile(g.Namespace); ok {
		return "App found in " + path
	}
	return "App called " + g.Namespace
}

func argTooltip(p urlconf.Param) string {
	if p.Type == urlconf.ArgUndeclared {
		return "Url argument of undeclared type"
	}
	return fmt.Sprintf("Url argument of %s type", p.Type)
}

// Walk calls fn for n and every descendant, depth first.
// Returning false from fn skips the node's children.
func Walk(n *Node, depth int, fn func(n *Node, depth int) bool) {
	if !fn(n, depth) {
		return
	}
	for _, child := range n.Children {
		Walk(child, depth+1, fn)
	}
}
