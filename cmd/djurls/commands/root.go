// Package commands provides the CLI commands for djurls.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/muremwa/djurls/internal/version"
	"github.com/muremwa/djurls/pkg/workspace"
)

var rootCmd = &cobra.Command{
	Use:   "djurls",
	Short: "djurls - browse the named URLs of a Django project",
	Long: `djurls scans a Django project's urls.py files without running them and
lists every route you can reverse, with its arguments and ready-made
reverse(), {% url %} and redirect() snippets.

Quick Start:
  djurls list          Show the route tree of the project in this directory
  djurls show NAME     Show one route and its snippets
  djurls pick          Pick a route interactively and print a snippet
  djurls serve         Browse the routes in a web page
  djurls openapi       Export the routes as an OpenAPI document
  djurls mcp           Serve the routes to AI assistants over MCP`,
	Version: version.GetVersion(),
}

var (
	verbose    bool
	configFile string
)

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (for automation and LLM agents)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log diagnostics to stderr")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default: djurls.yaml in the project root or .djurls/)")

	// Commands
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(pickCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
}

// newLogger returns the diagnostic logger selected by --verbose.
func newLogger() *slog.Logger {
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// projectDir returns the directory argument at index i, or ".".
func projectDir(args []string, i int) string {
	if len(args) > i && args[i] != "" {
		return args[i]
	}
	return "."
}

// openWorkspace locates the project under dir and loads its settings.
func openWorkspace(dir string, opts ...workspace.Option) (*workspace.Workspace, error) {
	opts = append([]workspace.Option{workspace.WithLogger(newLogger())}, opts...)
	return workspace.Open(dir, configFile, opts...)
}
