package commands

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/muremwa/djurls/pkg/openapi"
)

var openapiCmd = &cobra.Command{
	Use:   "openapi [path]",
	Short: "Export the routes as an OpenAPI document",
	Long: `Generate an OpenAPI document with one GET operation per route declared in
a URLconf. Paths are relative to the URLconf that declares them, since
include() prefixes are not resolved.

Examples:
  djurls openapi
  djurls openapi -o openapi.yaml -f yaml
  djurls openapi --title "My Site" --server http://localhost:8000`,
	Args: cobra.MaximumNArgs(1),
	Run:  runOpenAPI,
}

// Flags
var (
	openapiOutput    string
	openapiFormat    string
	openapiTitle     string
	openapiVersion   string
	openapiDesc      string
	openapiServerURL string
	openapiOpenAPI30 bool
)

func init() {
	rootCmd.AddCommand(openapiCmd)

	openapiCmd.Flags().StringVarP(&openapiOutput, "output", "o", "", "Output file path (default: stdout)")
	openapiCmd.Flags().StringVarP(&openapiFormat, "format", "f", "json", "Output format (json|yaml)")
	openapiCmd.Flags().StringVar(&openapiTitle, "title", "", "API title (defaults to project name)")
	openapiCmd.Flags().StringVar(&openapiVersion, "version", "1.0.0", "API version")
	openapiCmd.Flags().StringVar(&openapiDesc, "description", "", "API description")
	openapiCmd.Flags().StringVar(&openapiServerURL, "server", "", "Server URL (e.g., http://localhost:8000)")
	openapiCmd.Flags().BoolVar(&openapiOpenAPI30, "openapi30", false, "Use OpenAPI 3.0.3 instead of 3.1.0")
}

func runOpenAPI(cmd *cobra.Command, args []string) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	ws, res := scanProject(cmd.Context(), projectDir(args, 0))

	title := openapiTitle
	if title == "" {
		title = ws.Name()
	}

	config := openapi.Config{
		Title:       title,
		Version:     openapiVersion,
		Description: openapiDesc,
	}
	if openapiOpenAPI30 {
		config.OpenAPIVersion = "3.0.3"
	}
	if openapiServerURL != "" {
		config.Servers = []openapi.Server{{URL: openapiServerURL}}
	}

	gen := openapi.NewGenerator(res.Catalog, config)

	// without -o the document itself is the output
	if openapiOutput == "" {
		data, err := gen.Render(openapiFormat)
		if err != nil {
			exitWithError("Failed to generate spec", err)
		}
		_, _ = os.Stdout.Write(data)
		return
	}

	doc, err := gen.Generate()
	if err != nil {
		exitWithError("Failed to generate spec", err)
	}
	if err := gen.WriteToFile(openapiOutput, openapiFormat); err != nil {
		exitWithError("Failed to write spec", err)
	}

	skipped := gen.Skipped()
	if jsonOutput {
		printSuccess(OpenAPIOutput{
			File:    openapiOutput,
			Format:  openapiFormat,
			Version: doc.OpenAPI,
			Paths:   doc.Paths.Len(),
			Skipped: len(skipped),
		})
		return
	}

	fmt.Printf("\n  %s Spec generated\n\n", green("✓"))
	fmt.Printf("  Output:  %s\n", green(openapiOutput))
	fmt.Printf("  Format:  OpenAPI %s (%s)\n", doc.OpenAPI, openapiFormat)
	fmt.Printf("  Paths:   %d\n", doc.Paths.Len())
	if len(skipped) > 0 {
		fmt.Printf("  Skipped: %s\n", yellow(len(skipped)))
		if verbose {
			for _, s := range skipped {
				fmt.Printf("    %s %s\n", s.ReverseName, dim(s.Reason))
			}
		}
	}
	fmt.Println()
}
