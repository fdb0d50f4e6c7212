// Package project locates a Django project and its URLconf files.
package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/gobwas/glob"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/muremwa/djurls/pkg/catalog"
)

// ErrNotProject is returned when no manage.py is found under the start directory.
var ErrNotProject = errors.New("not a django project")

const (
	// ManageFile marks a project root.
	ManageFile = "manage.py"
	// URLConfFile is the conventional URLconf file name.
	URLConfFile = "urls.py"
)

// SkippedDirs are directory names never descended into.
var SkippedDirs = map[string]bool{
	".idea":        true,
	".vscode":      true,
	".git":         true,
	"__pycache__":  true,
	"templates":    true,
	"tests":        true,
	"media":        true,
	"static":       true,
	"migrations":   true,
	"node_modules": true,
	"venv":         true,
	".venv":        true,
}

// Options controls discovery.
type Options struct {
	// Exclude are glob patterns matched against slash-separated paths
	// relative to the project root.
	Exclude []string
	// RespectGitignore skips paths matched by the root .gitignore.
	RespectGitignore bool
	// OnError receives files that could not be read. They are skipped.
	OnError func(path string, err error)
}

// FindRoot returns the first directory under start, in walk order, that
// contains manage.py.
func FindRoot(start string) (string, error) {
	info, err := os.Stat(start)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", start)
	}

	var root string
	err = filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable entries are skipped, not fatal
			if d != nil && d.IsDir() && path != start {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != start && SkippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == ManageFile {
			root = filepath.Dir(path)
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if root == "" {
		return "", fmt.Errorf("%w: no %s under %s", ErrNotProject, ManageFile, start)
	}
	return root, nil
}

// Discover returns every URLconf under root, sorted by path.
func Discover(root string, opts Options) ([]catalog.Source, error) {
	excludes, err := compileGlobs(opts.Exclude)
	if err != nil {
		return nil, err
	}

	var gitignore *ignore.GitIgnore
	if opts.RespectGitignore {
		gitignore = LoadGitignore(root)
	}

	var sources []catalog.Source
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path == root {
				return nil
			}
			if SkippedDirs[d.Name()] || excluded(rel, excludes) || (gitignore != nil && gitignore.MatchesPath(rel)) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Name() != URLConfFile {
			return nil
		}
		if excluded(rel, excludes) || (gitignore != nil && gitignore.MatchesPath(rel)) {
			return nil
		}

		src, err := ReadSource(path)
		if err != nil {
			if opts.OnError != nil {
				opts.OnError(path, err)
			}
			return nil
		}
		sources = append(sources, src)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(sources, func(i, j int) bool {
		return sources[i].Path < sources[j].Path
	})
	return sources, nil
}

// ReadSource reads path as UTF-8 text.
func ReadSource(path string) (catalog.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return catalog.Source{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		data = []byte(strings.ToValidUTF8(string(data), "�"))
	}
	return catalog.Source{Path: path, Text: string(data)}, nil
}

// LoadGitignore loads .gitignore from root if it exists.
func LoadGitignore(root string) *ignore.GitIgnore {
	gitignorePath := filepath.Join(root, ".gitignore")

	if _, err := os.Stat(gitignorePath); err == nil {
		if gitignore, err := ignore.CompileIgnoreFile(gitignorePath); err == nil {
			return gitignore
		}
	}

	return nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	matchers := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		matcher, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		matchers = append(matchers, matcher)
	}
	return matchers, nil
}

func excluded(rel string, matchers []glob.Glob) bool {
	for _, m := range matchers {
		if m.Match(rel) {
			return true
		}
	}
	return false
}

// IsURLConf reports whether path names a URLconf file.
func IsURLConf(path string) bool {
	return filepath.Base(path) == URLConfFile
}
