package commands

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/muremwa/djurls/pkg/catalog"
	"github.com/muremwa/djurls/pkg/extras"
	"github.com/muremwa/djurls/pkg/project"
	"github.com/muremwa/djurls/pkg/workspace"
)

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Rescan the project whenever a URLconf changes",
	Long: `Watch the project for changes to urls.py, admin registrations and route
catalogues, and print a summary after every rescan. Unchanged files are
served from the parse cache.

Examples:
  djurls watch
  djurls watch --json`,
	Args: cobra.MaximumNArgs(1),
	Run:  runWatch,
}

// faultPrinter writes each skipped file as a scan reaches it.
func faultPrinter(w io.Writer) catalog.FaultHandler {
	yellow := color.New(color.FgYellow).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	return func(f catalog.Fault) {
		fmt.Fprintf(w, "  %s skipped %s %s\n", yellow("!"), f.File, dim(f.Err))
	}
}

// debounceDuration coalesces bursts of file events into one rescan.
const debounceDuration = 100 * time.Millisecond

func runWatch(cmd *cobra.Command, args []string) {
	cyan := color.New(color.FgCyan).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts []workspace.Option
	if !jsonOutput {
		opts = append(opts, workspace.WithFaultHandler(faultPrinter(os.Stdout)))
	}
	ws, res := scanProject(ctx, projectDir(args, 0), opts...)
	report := func(res *workspace.Result) {
		if jsonOutput {
			printSuccess(res.Summary())
			return
		}
		s := res.Summary()
		fmt.Printf("  [%s] %s %d routes in %d apps (%d files, %d skipped, %s)\n",
			time.Now().Format("15:04:05"), green("✓"), s.Routes, s.Apps, s.Files, s.Faults, s.Duration)
	}

	if !jsonOutput {
		fmt.Printf("\n  %s Watching %s\n\n", cyan("djurls"), ws.Root)
	}
	report(res)

	err := watchProject(ctx, ws.Root, func(changed []string) {
		for _, path := range changed {
			ws.Forget(path)
		}
		res, err := ws.Scan(ctx)
		if err != nil {
			if jsonOutput {
				printJSONError(err)
			} else {
				fmt.Printf("  [%s] %s rescan failed: %v\n", time.Now().Format("15:04:05"), red("✗"), err)
			}
			return
		}
		report(res)
	})
	if err != nil {
		exitWithError("Failed to watch project", err)
	}
	if !jsonOutput {
		fmt.Println("\n  Stopped")
	}
}

// watchProject calls onChange with the changed paths after every burst of
// relevant file events under root, until ctx is done. onChange never runs
// concurrently with itself.
func watchProject(ctx context.Context, root string, onChange func(changed []string)) error {
	yellow := color.New(color.FgYellow).SprintFunc()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	addTree(watcher, root)

	var (
		mu            sync.Mutex
		pending       = map[string]bool{}
		debounceTimer *time.Timer
		running       sync.Mutex
	)
	flush := func() {
		mu.Lock()
		changed := make([]string, 0, len(pending))
		for path := range pending {
			changed = append(changed, path)
		}
		pending = map[string]bool{}
		mu.Unlock()

		if len(changed) == 0 || ctx.Err() != nil {
			return
		}
		sort.Strings(changed)
		running.Lock()
		defer running.Unlock()
		onChange(changed)
	}

	for {
		select {
		case <-ctx.Done():
			mu.Lock()
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			mu.Unlock()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					addTree(watcher, event.Name)
					continue
				}
			}
			if !relevantChange(event.Name) {
				continue
			}

			mu.Lock()
			pending[event.Name] = true
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDuration, flush)
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if !jsonOutput {
				fmt.Printf("  %s Watcher error: %v\n", yellow("Warning:"), err)
			}
		}
	}
}

// addTree watches dir and every directory below it that discovery would
// descend into.
func addTree(watcher *fsnotify.Watcher, dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != dir && skipWatchDir(d.Name()) {
			return filepath.SkipDir
		}
		_ = watcher.Add(path)
		return nil
	})
}

func skipWatchDir(name string) bool {
	if name == extras.UserDir {
		return false
	}
	return project.SkippedDirs[name] || strings.HasPrefix(name, ".")
}

// relevantChange reports whether a change to path can alter the catalogue.
func relevantChange(path string) bool {
	base := filepath.Base(path)
	switch {
	case project.IsURLConf(path):
		return true
	case strings.HasSuffix(base, extras.CatalogueSuffix), base == extras.ModelsFile:
		return true
	case base == "admin.py", base == "settings.py":
		return true
	case filepath.Base(filepath.Dir(path)) == "admin" && filepath.Ext(path) == ".py":
		return true
	}
	return false
}
