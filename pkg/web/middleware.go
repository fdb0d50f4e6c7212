package web

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"runtime/debug"
	"time"

	"github.com/fatih/color"
	"github.com/go-chi/chi/v5/middleware"
)

// LoggerConfig holds configuration for the logger middleware.
type LoggerConfig struct {
	// SkipPaths is a list of paths to skip logging for.
	SkipPaths []string

	// Output receives log lines. Default is os.Stderr.
	Output io.Writer
}

// Logger returns a middleware that logs one colourised line per request.
func Logger(config LoggerConfig) func(http.Handler) http.Handler {
	skipPaths := make(map[string]bool)
	for _, path := range config.SkipPaths {
		skipPaths[path] = true
	}
	out := config.Output
	if out == nil {
		out = os.Stderr
	}
	logger := log.New(out, "", log.LstdFlags)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			latency := time.Since(start)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			logger.Printf("%s %s %s %s",
				statusColor(status)(fmt.Sprintf("%d", status)),
				methodColor(r.Method)(fmt.Sprintf("%-7s", r.Method)),
				r.URL.Path,
				color.New(color.Faint).Sprint(latency.Round(time.Microsecond)),
			)
		})
	}
}

func statusColor(status int) func(a ...interface{}) string {
	switch {
	case status >= 500:
		return color.New(color.FgRed).SprintFunc()
	case status >= 400:
		return color.New(color.FgYellow).SprintFunc()
	case status >= 300:
		return color.New(color.FgCyan).SprintFunc()
	default:
		return color.New(color.FgGreen).SprintFunc()
	}
}

func methodColor(method string) func(a ...interface{}) string {
	switch method {
	case http.MethodGet:
		return color.New(color.FgBlue).SprintFunc()
	case http.MethodPost:
		return color.New(color.FgGreen).SprintFunc()
	case http.MethodDelete:
		return color.New(color.FgRed).SprintFunc()
	default:
		return color.New(color.FgWhite).SprintFunc()
	}
}

// RecoverConfig holds configuration for the recover middleware.
type RecoverConfig struct {
	// LogStackTrace logs the stack trace of a recovered panic.
	LogStackTrace bool
}

// Recover returns a middleware that turns a handler panic into a 500.
func Recover(config RecoverConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					if config.LogStackTrace {
						log.Printf("[PANIC] %v\n%s", rec, debug.Stack())
					}
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
