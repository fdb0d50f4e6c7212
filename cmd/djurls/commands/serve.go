package commands

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/muremwa/djurls/pkg/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve [path]",
	Short: "Browse the routes in a web page",
	Long: `Start a local web server with a searchable page of every route and a JSON
API under /api. With --watch (the default) the page reloads itself when a
URLconf changes.

Examples:
  djurls serve
  djurls serve --port 9000 --open
  djurls serve --watch=false`,
	Args: cobra.MaximumNArgs(1),
	Run:  runServe,
}

var (
	servePort  string
	serveHost  string
	serveOpen  bool
	serveWatch bool
	serveQuiet bool
)

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "8800", "Port to serve on")
	serveCmd.Flags().StringVarP(&serveHost, "host", "H", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().BoolVar(&serveOpen, "open", false, "Open the page in the default browser")
	serveCmd.Flags().BoolVarP(&serveWatch, "watch", "w", true, "Rescan when project files change")
	serveCmd.Flags().BoolVarP(&serveQuiet, "quiet", "q", false, "Do not log requests")
}

func runServe(cmd *cobra.Command, args []string) {
	cyan := color.New(color.FgCyan).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ws, err := openWorkspace(projectDir(args, 0))
	if err != nil {
		exitWithError("Failed to open project", err)
	}

	opts := []web.Option{
		web.WithProject(ws.Name()),
		web.WithExpandApps(ws.Settings.ExpandApps),
		web.WithLogger(ws.Logger()),
	}
	if !serveQuiet && !jsonOutput {
		opts = append(opts, web.WithAccessLog(os.Stdout))
	}
	srv := web.New(ws, opts...)

	res, err := srv.Refresh(ctx)
	if err != nil {
		exitWithError("Failed to scan project", err)
	}

	addr := net.JoinHostPort(serveHost, servePort)
	url := "http://" + addr

	if jsonOutput {
		printSuccess(ServeOutput{Status: "listening", URL: url, Routes: res.Catalog.Len()})
	} else {
		fmt.Printf("\n  %s %s\n\n", cyan("djurls"), ws.Root)
		fmt.Printf("  %s %d routes in %d apps\n", green("✓"), res.Catalog.Len(), len(res.Catalog.Groups))
		if len(res.Faults) > 0 {
			fmt.Printf("  %s %d file(s) skipped, see %s\n", yellow("!"), len(res.Faults), dim(url+"/api/faults"))
		}
		fmt.Printf("\n  ➜ Local:   %s\n\n", cyan(url))
	}

	if serveWatch {
		go func() {
			err := watchProject(ctx, ws.Root, func(changed []string) {
				for _, path := range changed {
					ws.Forget(path)
				}
				if res, err := srv.Refresh(ctx); err == nil && !jsonOutput {
					fmt.Printf("  [%s] %s rescanned, %d routes\n", time.Now().Format("15:04:05"), green("✓"), res.Catalog.Len())
				}
			})
			if err != nil && !jsonOutput {
				fmt.Printf("  %s %v\n", yellow("Warning:"), err)
			}
		}()
	}

	if serveOpen {
		time.AfterFunc(250*time.Millisecond, func() {
			if err := browser.OpenURL(url); err != nil && !jsonOutput {
				fmt.Printf("  %s Could not open browser. Please visit:\n", yellow("!"))
				fmt.Printf("  %s\n\n", cyan(url))
			}
		})
	}

	if err := srv.ListenAndServe(ctx, addr); err != nil {
		exitWithError("Server stopped", err)
	}
	if !jsonOutput {
		fmt.Println("\n  Shutting down...")
	}
}
