package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/muremwa/djurls/pkg/catalog"
)

var pickCmd = &cobra.Command{
	Use:   "pick [path]",
	Short: "Pick a route interactively and print a snippet",
	Long: `Choose a route from a filterable list, then a snippet kind, and print
the snippet to stdout so it can be piped to a clipboard tool.

Examples:
  djurls pick
  djurls pick | pbcopy
  djurls pick --kind template`,
	Args: cobra.MaximumNArgs(1),
	Run:  runPick,
}

var pickKind string

func init() {
	pickCmd.Flags().StringVarP(&pickKind, "kind", "k", "", "Snippet kind; asked for when empty")
}

// errNotInteractive is returned when pick runs without a terminal.
var errNotInteractive = errors.New("pick needs an interactive terminal, use 'djurls show' instead")

func runPick(cmd *cobra.Command, args []string) {
	if jsonOutput || !interactive() {
		exitWithError("Cannot pick", errNotInteractive)
	}

	_, res := scanProject(cmd.Context(), projectDir(args, 0))
	if res.Catalog.Len() == 0 {
		exitWithError("Cannot pick", errors.New("the project has no named routes"))
	}

	var name string
	kind := catalog.SnippetKind(pickKind)

	fields := []huh.Field{
		huh.NewSelect[string]().
			Title("Route").
			Options(routeOptions(res.Catalog)...).
			Filtering(true).
			Height(15).
			Value(&name),
	}
	if pickKind == "" {
		kind = catalog.SnippetReverse
		fields = append(fields, huh.NewSelect[catalog.SnippetKind]().
			Title("Snippet").
			Options(
				huh.NewOption("reverse()", catalog.SnippetReverse),
				huh.NewOption("{% url %}", catalog.SnippetTemplate),
				huh.NewOption("redirect()", catalog.SnippetRedirect),
			).
			Value(&kind))
	}

	// the form draws on stderr so stdout carries only the snippet
	form := huh.NewForm(huh.NewGroup(fields...)).WithOutput(os.Stderr)
	if err := form.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "  Cancelled")
		return
	}

	route, _, _ := res.Catalog.Find(name)
	snippet, err := catalog.Snippet(route, kind)
	if err != nil {
		exitWithError("Invalid --kind", err)
	}
	fmt.Println(snippet)
}

// routeOptions lists every route as a select option keyed by reverse name.
func routeOptions(cat *catalog.Catalog) []huh.Option[string] {
	options := make([]huh.Option[string], 0, cat.Len())
	for _, g := range cat.Groups {
		for _, r := range g.Routes {
			label := r.ReverseName
			if r.Pattern != "" {
				label += "  " + r.Pattern
			}
			options = append(options, huh.NewOption(label, r.ReverseName))
		}
	}
	return options
}

func interactive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) &&
		(isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()))
}
