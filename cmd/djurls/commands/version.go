package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/muremwa/djurls/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the djurls version",
	Run: func(cmd *cobra.Command, args []string) {
		if jsonOutput {
			printSuccess(map[string]any{
				"version": version.GetVersion(),
				"go":      runtime.Version(),
				"os":      runtime.GOOS,
				"arch":    runtime.GOARCH,
			})
			return
		}
		fmt.Printf("djurls %s (%s %s/%s)\n", version.GetVersion(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}
