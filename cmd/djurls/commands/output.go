package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/muremwa/djurls/pkg/catalog"
	"github.com/muremwa/djurls/pkg/workspace"
)

// jsonOutput is the global flag for JSON output mode
var jsonOutput bool

// JSONResponse is the standard response wrapper for JSON output
type JSONResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ListOutput represents the JSON output for the list command
type ListOutput struct {
	Project string            `json:"project"`
	Root    string            `json:"root"`
	Summary workspace.Summary `json:"summary"`
	Groups  []catalog.Group   `json:"groups"`
	Faults  []catalog.Fault   `json:"faults,omitempty"`
}

// OpenAPIOutput represents the JSON output for the openapi command
type OpenAPIOutput struct {
	File    string `json:"file"`
	Format  string `json:"format"`
	Version string `json:"version"`
	Paths   int    `json:"paths"`
	Skipped int    `json:"skipped"`
}

// ServeOutput represents the JSON output for the serve command
type ServeOutput struct {
	Status string `json:"status"`
	URL    string `json:"url"`
	Routes int    `json:"routes"`
}

// printJSON outputs data as formatted JSON to stdout
func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
	}
}

// printSuccess outputs a successful JSON response
func printSuccess(data any) {
	printJSON(JSONResponse{Success: true, Data: data})
}

// printJSONError outputs an error as JSON
func printJSONError(err error) {
	printJSON(JSONResponse{Success: false, Error: err.Error()})
}

// exitWithError reports err in the active output mode and exits.
func exitWithError(prefix string, err error) {
	if jsonOutput {
		printJSONError(err)
	} else {
		red := color.New(color.FgRed).SprintFunc()
		fmt.Printf("  %s %s: %v\n\n", red("Error:"), prefix, err)
	}
	os.Exit(1)
}

// scanProject opens and scans the project under dir, exiting on failure.
func scanProject(ctx context.Context, dir string, opts ...workspace.Option) (*workspace.Workspace, *workspace.Result) {
	ws, err := openWorkspace(dir, opts...)
	if err != nil {
		exitWithError("Failed to open project", err)
	}
	res, err := ws.Scan(ctx)
	if err != nil {
		exitWithError("Failed to scan project", err)
	}
	return ws, res
}

// printFaults lists skipped files as warnings.
func printFaults(faults []catalog.Fault) {
	if len(faults) == 0 {
		return
	}
	yellow := color.New(color.FgYellow).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	fmt.Printf("\n  %s %d file(s) skipped\n", yellow("Warning:"), len(faults))
	for _, f := range faults {
		fmt.Printf("    %s %s\n", f.File, dim(f.Err))
	}
}
