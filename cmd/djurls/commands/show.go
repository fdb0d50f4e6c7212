package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/muremwa/djurls/pkg/catalog"
)

var showCmd = &cobra.Command{
	Use:   "show <reverse-name> [path]",
	Short: "Show one route with its arguments and snippets",
	Long: `Look up a route by its reverse name and print its pattern, view,
arguments and the code that reverses it.

Examples:
  djurls show blog:post-detail
  djurls show blog:post-detail --kind template
  djurls show admin:index ~/code/mysite --json`,
	Args: cobra.RangeArgs(1, 2),
	Run:  runShow,
}

var showKind string

func init() {
	showCmd.Flags().StringVarP(&showKind, "kind", "k", "", "Print only this snippet (reverse|template|redirect)")
}

func runShow(cmd *cobra.Command, args []string) {
	name := args[0]
	_, res := scanProject(cmd.Context(), projectDir(args, 1))

	route, group, ok := res.Catalog.Find(name)
	if !ok {
		exitWithError("Unknown route", fmt.Errorf("%q not found", name))
	}

	if showKind != "" {
		snippet, err := catalog.Snippet(route, catalog.SnippetKind(showKind))
		if err != nil {
			exitWithError("Invalid --kind", err)
		}
		if jsonOutput {
			printSuccess(map[string]string{"name": name, "kind": showKind, "snippet": snippet})
			return
		}
		fmt.Println(snippet)
		return
	}

	detail := catalog.Detail(route, group)
	if jsonOutput {
		printSuccess(detail)
		return
	}

	cyan := color.New(color.FgCyan).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	fmt.Printf("\n  %s\n\n", green(route.ReverseName))
	fmt.Printf("  App:      %s\n", cyan(group.DisplayName()))
	if group.File != "" {
		fmt.Printf("  File:     %s\n", dim(group.File))
	}
	if route.Pattern != "" {
		fmt.Printf("  Pattern:  %s\n", route.Pattern)
	}
	if route.ViewName != "" {
		fmt.Printf("  View:     %s\n", route.ViewName)
	}
	if route.HasArgs {
		fmt.Printf("  Args:\n")
		for _, arg := range route.Arguments {
			fmt.Printf("    %s %s\n", arg.Name, yellow("<"+string(arg.Type)+">"))
		}
	}
	fmt.Println()
	for _, kind := range catalog.SnippetKinds {
		fmt.Printf("  %-9s %s\n", string(kind)+":", detail.Snippets[string(kind)])
	}
	fmt.Println()
}
