package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/muremwa/djurls/pkg/brackets"
	"github.com/muremwa/djurls/pkg/urlconf"
)

// FaultKind classifies a per-file problem.
type FaultKind string

const (
	// FaultUnmatched is a delimiter that never closes in a file.
	FaultUnmatched FaultKind = "unmatched-delimiter"
	// FaultNotProject is a scan root that is not a Django project.
	FaultNotProject FaultKind = "not-a-project"
	// FaultRead is a file that could not be read or decoded.
	FaultRead FaultKind = "read"
)

// Fault is a problem with one file. A fault never stops the build.
type Fault struct {
	Kind   FaultKind `json:"kind"`
	File   string    `json:"file,omitempty"`
	Opener string    `json:"opener,omitempty"`
	Err    error     `json:"-"`
}

// Error implements the error interface.
func (f Fault) Error() string {
	if f.Err != nil {
		return f.Err.Error()
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.File)
}

// Unwrap returns the underlying error.
func (f Fault) Unwrap() error {
	return f.Err
}

// MarshalJSON includes the error message.
func (f Fault) MarshalJSON() ([]byte, error) {
	type plain Fault
	return json.Marshal(struct {
		plain
		Error string `json:"error"`
	}{plain(f), f.Error()})
}

// NewFault classifies err for file.
func NewFault(file string, err error) Fault {
	var u *brackets.UnmatchedError
	if errors.As(err, &u) {
		return Fault{Kind: FaultUnmatched, File: file, Opener: u.Opener.String(), Err: err}
	}
	return Fault{Kind: FaultRead, File: file, Err: err}
}

// FaultHandler receives faults as they are collected.
type FaultHandler func(Fault)

// Builder parses sources into a Catalog.
type Builder struct {
	// Workers bounds parallel parsing. Zero means runtime.NumCPU().
	Workers int
	// Cache, when set, is consulted before parsing a source.
	Cache *Cache
	// Logger receives debug output. Nil discards it.
	Logger *slog.Logger
	// OnFault is called for each fault in source order.
	OnFault FaultHandler
}

// NewBuilder returns a Builder with default settings.
func NewBuilder() *Builder {
	return &Builder{}
}

type parsed struct {
	routes *urlconf.FileRoutes
	err    error
}

// Build parses every source and aggregates the results in source order.
// Files with unbalanced delimiters are reported as faults and skipped.
// The error is non-nil only when ctx is cancelled.
func (b *Builder) Build(ctx context.Context, sources []Source) (*Catalog, []Fault, error) {
	logger := b.logger()
	results := make([]parsed, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers())

	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			routes, err := b.parse(src)
			results[i] = parsed{routes: routes, err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	cat := New()
	var faults []Fault
	for i, res := range results {
		path := sources[i].Path
		if res.err != nil {
			fault := NewFault(path, res.err)
			logger.Debug("skipping file", "file", path, "kind", fault.Kind, "error", res.err)
			faults = append(faults, fault)
			if b.OnFault != nil {
				b.OnFault(fault)
			}
			continue
		}
		if len(res.routes.Routes) == 0 {
			logger.Debug("no reversible routes", "file", path)
			continue
		}
		logger.Debug("parsed file", "file", path, "namespace", res.routes.Namespace, "routes", len(res.routes.Routes))
		cat.Set(Group{
			Namespace: res.routes.Namespace,
			File:      path,
			Routes:    res.routes.Routes,
		})
	}

	return cat, faults, nil
}

func (b *Builder) parse(src Source) (*urlconf.FileRoutes, error) {
	if b.Cache != nil {
		if routes, ok := b.Cache.Get(src); ok {
			return routes, nil
		}
	}

	routes, err := urlconf.ParseRoutes(src.Text, src.Path)
	if err != nil {
		return nil, err
	}

	if b.Cache != nil {
		b.Cache.Add(src, routes)
	}
	return routes, nil
}

func (b *Builder) workers() int {
	if b.Workers > 0 {
		return b.Workers
	}
	return runtime.NumCPU()
}

func (b *Builder) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
