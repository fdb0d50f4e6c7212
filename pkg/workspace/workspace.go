// Package workspace ties discovery, parsing and supplementary catalogues
// together for one Django project.
package workspace

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/muremwa/djurls/pkg/catalog"
	"github.com/muremwa/djurls/pkg/config"
	"github.com/muremwa/djurls/pkg/extras"
	"github.com/muremwa/djurls/pkg/project"
)

// Result is the outcome of one scan.
type Result struct {
	Root     string           `json:"root"`
	Catalog  *catalog.Catalog `json:"catalog"`
	Faults   []catalog.Fault  `json:"faults"`
	Files    int              `json:"files"`
	Duration time.Duration    `json:"duration"`
}

// Summary reduces a Result to counts.
type Summary struct {
	Files    int    `json:"files"`
	Apps     int    `json:"apps"`
	Routes   int    `json:"routes"`
	Faults   int    `json:"faults"`
	Duration string `json:"duration"`
}

// Summary returns the counts of r.
func (r *Result) Summary() Summary {
	return Summary{
		Files:    r.Files,
		Apps:     len(r.Catalog.Groups),
		Routes:   r.Catalog.Len(),
		Faults:   len(r.Faults),
		Duration: r.Duration.Round(time.Millisecond).String(),
	}
}

// Scanner produces a fresh Result on demand.
type Scanner interface {
	Scan(ctx context.Context) (*Result, error)
}

// Workspace scans one project. Scans are serialised and share a parse cache,
// so rescanning an unchanged tree only re-reads files.
type Workspace struct {
	Root     string
	Settings config.Settings

	builder *catalog.Builder
	logger  *slog.Logger
	onFault catalog.FaultHandler
	mu      sync.Mutex
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Workspace) {
		w.logger = l
	}
}

// WithFaultHandler registers h to receive each fault as a scan collects it,
// before Scan returns. h runs on the scanning goroutine.
func WithFaultHandler(h catalog.FaultHandler) Option {
	return func(w *Workspace) {
		w.onFault = h
	}
}

// WithSettings replaces the settings loaded from the project's config file.
func WithSettings(s config.Settings) Option {
	return func(w *Workspace) {
		w.Settings = s
	}
}

// Open finds the project under start and loads its settings. configFile,
// when set, names the config file explicitly.
func Open(start, configFile string, opts ...Option) (*Workspace, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return nil, err
	}
	root, err := project.FindRoot(abs)
	if err != nil {
		return nil, err
	}
	settings, err := config.Load(root, configFile)
	if err != nil {
		return nil, err
	}
	return New(root, settings, opts...)
}

// New returns a Workspace for a known project root.
func New(root string, settings config.Settings, opts ...Option) (*Workspace, error) {
	w := &Workspace{
		Root:     root,
		Settings: settings,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(w)
	}
	if err := w.Settings.Validate(); err != nil {
		return nil, err
	}

	cache, err := catalog.NewCache(catalog.DefaultCacheSize)
	if err != nil {
		return nil, err
	}
	w.logger = w.logger.With("root", root)
	w.builder = &catalog.Builder{
		Workers: w.Settings.Workers,
		Cache:   cache,
		Logger:  w.logger,
		OnFault: w.onFault,
	}
	return w, nil
}

// Name is the project directory name.
func (w *Workspace) Name() string {
	return filepath.Base(w.Root)
}

// Logger returns the workspace's diagnostic logger.
func (w *Workspace) Logger() *slog.Logger {
	return w.logger
}

// Scan discovers, parses and supplements the project's routes. Unreadable
// files and malformed URLconfs become faults; the error is reserved for
// failures that stop the whole scan.
func (w *Workspace) Scan(ctx context.Context) (*Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	start := time.Now()
	var faults []catalog.Fault
	readFault := func(path string, err error) {
		f := catalog.Fault{Kind: catalog.FaultRead, File: path, Err: err}
		faults = append(faults, f)
		if w.onFault != nil {
			w.onFault(f)
		}
	}

	discovery := w.Settings.Discovery()
	discovery.OnError = readFault
	sources, err := project.Discover(w.Root, discovery)
	if err != nil {
		return nil, err
	}

	cat, buildFaults, err := w.builder.Build(ctx, sources)
	if err != nil {
		return nil, err
	}
	faults = append(faults, buildFaults...)

	opts := w.Settings.Extras()
	opts.Logger = w.logger
	opts.OnError = readFault
	cats, err := extras.Load(w.Root, opts)
	if err != nil {
		return nil, err
	}
	extras.Apply(cat, cats)

	res := &Result{
		Root:     w.Root,
		Catalog:  cat,
		Faults:   faults,
		Files:    len(sources),
		Duration: time.Since(start),
	}
	w.logger.Debug("scan complete",
		"files", res.Files,
		"apps", len(cat.Groups),
		"routes", cat.Len(),
		"faults", len(faults),
		"duration", res.Duration,
	)
	return res, nil
}

// Forget drops a file from the parse cache.
func (w *Workspace) Forget(path string) {
	w.builder.Cache.Remove(path)
}
