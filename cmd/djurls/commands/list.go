package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/muremwa/djurls/pkg/catalog"
	"github.com/muremwa/djurls/pkg/config"
)

var listCmd = &cobra.Command{
	Use:   "list [path]",
	Short: "List the reversible routes of a project",
	Long: `Scan the Django project under path (default: the current directory) and
print its routes grouped by app.

Examples:
  djurls list
  djurls list ~/code/mysite --query detail
  djurls list --namespace blog --snippets
  djurls list --json`,
	Args: cobra.MaximumNArgs(1),
	Run:  runList,
}

var (
	listQuery     string
	listNamespace string
	listSnippets  bool
	listSorted    bool
)

func init() {
	listCmd.Flags().StringVarP(&listQuery, "query", "q", "", "Only routes whose name, view or pattern contains this text")
	listCmd.Flags().StringVarP(&listNamespace, "namespace", "n", "", "Only routes of this namespace")
	listCmd.Flags().BoolVarP(&listSnippets, "snippets", "s", false, "Show the reverse() snippet of each route")
	listCmd.Flags().BoolVar(&listSorted, "sort", false, "Order apps by name instead of discovery order")
}

func runList(cmd *cobra.Command, args []string) {
	ws, res := scanProject(cmd.Context(), projectDir(args, 0))

	cat := res.Catalog
	if listNamespace != "" {
		group, ok := cat.Lookup(listNamespace)
		if !ok {
			exitWithError("Unknown namespace", fmt.Errorf("%q not found", listNamespace))
		}
		cat = catalog.New()
		cat.Set(group)
	}
	cat = cat.Filter(listQuery)
	if listSorted {
		cat = cat.Sorted()
	}

	if jsonOutput {
		groups := cat.Groups
		if groups == nil {
			groups = []catalog.Group{}
		}
		printSuccess(ListOutput{
			Project: ws.Name(),
			Root:    res.Root,
			Summary: res.Summary(),
			Groups:  groups,
			Faults:  res.Faults,
		})
		return
	}

	fmt.Println()
	renderTree(os.Stdout, catalog.Tree(cat, ws.Name()), ws.Settings.ExpandApps, listSnippets)
	printFaults(res.Faults)
	fmt.Println()
}

// renderTree prints the catalogue tree. Collapsed mode shows only app
// headings, normal mode adds routes and expanded mode adds their arguments.
func renderTree(w io.Writer, root *catalog.Node, expandApps string, snippets bool) {
	bold := color.New(color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	catalog.Walk(root, 0, func(n *catalog.Node, depth int) bool {
		indent := strings.Repeat("  ", depth+1)
		switch n.Kind {
		case catalog.KindProject:
			fmt.Fprintf(w, "%s%s  %s\n", indent, bold(n.Label), dim(n.Tooltip))
		case catalog.KindApp:
			fmt.Fprintf(w, "%s%s %s\n", indent, cyan(n.Label), dim(fmt.Sprintf("(%d)", len(n.Children))))
			return expandApps != config.ExpandCollapsed
		case catalog.KindURL:
			line := fmt.Sprintf("%s%s  %s", indent, green(n.Route.ReverseName), dim(n.Route.ViewName))
			if snippets {
				line += "  " + catalog.ReverseSnippet(*n.Route)
			}
			fmt.Fprintln(w, strings.TrimRight(line, " "))
			return expandApps == config.ExpandExpanded
		case catalog.KindArgument:
			fmt.Fprintf(w, "%s%s\n", indent, yellow(n.Label))
		}
		return true
	})
}
