// Package extras supplies routes that are not declared in the project's own
// URLconf files: user catalogues, the built-in admin and auth catalogues, and
// admin changelist routes for registered models.
package extras

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/muremwa/djurls/pkg/urlconf"
)

//go:embed builtin/*.conf.json
var builtinFS embed.FS

const (
	// UserDir holds per-project djurls files, relative to the project root.
	UserDir = ".djurls"
	// CatalogueDir holds user catalogues, relative to UserDir.
	CatalogueDir = "urls"
	// CatalogueSuffix marks a catalogue file.
	CatalogueSuffix = ".conf.json"

	AdminCatalogue = "admin.conf.json"
	AuthCatalogue  = "auth.conf.json"
)

// Catalogue is one app's worth of routes loaded from a catalogue file.
type Catalogue struct {
	AppName string
	File    string
	URLs    []urlconf.Route
}

type rawCatalogue struct {
	AppName *string            `json:"appName"`
	URLs    *[]json.RawMessage `json:"urls"`
}

type rawRoute struct {
	ReverseName *string            `json:"reverseName"`
	Arguments   *[]json.RawMessage `json:"arguments"`
	ViewName    *string            `json:"viewName"`
	HasArgs     *bool              `json:"hasArgs"`
	Pattern     string             `json:"pattern"`
}

// ErrorHandler receives files that could not be read or decoded.
type ErrorHandler func(file string, err error)

// LoadCatalogues reads every catalogue file in files. Files without the
// catalogue suffix are ignored. An entry missing any required field is
// dropped without error; unreadable or undecodable files go to onError.
func LoadCatalogues(files []string, onError ErrorHandler) []Catalogue {
	var out []Catalogue
	for _, file := range files {
		if !strings.HasSuffix(file, CatalogueSuffix) {
			continue
		}
		data, err := os.ReadFile(file)
		if err != nil {
			report(onError, file, err)
			continue
		}
		cats, err := DecodeCatalogues(data)
		if err != nil {
			report(onError, file, err)
			continue
		}
		for i := range cats {
			cats[i].File = file
		}
		out = append(out, cats...)
	}
	return out
}

// DecodeCatalogues decodes a catalogue file body: a JSON array of
// {appName, urls} objects. A body that is valid JSON but not an array
// yields no catalogues.
func DecodeCatalogues(data []byte) ([]Catalogue, error) {
	var top any
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("invalid catalogue: %w", err)
	}
	if _, ok := top.([]any); !ok {
		return nil, nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("invalid catalogue: %w", err)
	}

	var out []Catalogue
	for _, entry := range entries {
		if cat, ok := decodeCatalogue(entry); ok {
			out = append(out, cat)
		}
	}
	return out, nil
}

func decodeCatalogue(entry json.RawMessage) (Catalogue, bool) {
	var raw rawCatalogue
	if err := json.Unmarshal(entry, &raw); err != nil {
		return Catalogue{}, false
	}
	if raw.AppName == nil || raw.URLs == nil {
		return Catalogue{}, false
	}

	routes := make([]urlconf.Route, 0, len(*raw.URLs))
	for _, u := range *raw.URLs {
		route, ok := decodeRoute(u)
		if !ok {
			// one bad route rejects the whole entry
			return Catalogue{}, false
		}
		routes = append(routes, route)
	}
	return Catalogue{AppName: *raw.AppName, URLs: routes}, true
}

func decodeRoute(u json.RawMessage) (urlconf.Route, bool) {
	var raw rawRoute
	if err := json.Unmarshal(u, &raw); err != nil {
		return urlconf.Route{}, false
	}
	if raw.ReverseName == nil || raw.Arguments == nil || raw.ViewName == nil || raw.HasArgs == nil {
		return urlconf.Route{}, false
	}

	args := make([]urlconf.Param, 0, len(*raw.Arguments))
	for _, a := range *raw.Arguments {
		p, ok := decodeParam(a)
		if !ok {
			return urlconf.Route{}, false
		}
		args = append(args, p)
	}

	name := *raw.ReverseName
	if i := strings.LastIndex(name, ":"); i >= 0 {
		name = name[i+1:]
	}
	return urlconf.Route{
		ReverseName: *raw.ReverseName,
		Name:        name,
		Pattern:     raw.Pattern,
		Arguments:   args,
		ViewName:    *raw.ViewName,
		HasArgs:     *raw.HasArgs,
	}, true
}

// decodeParam accepts {"name": string|null, "argType": string|null}.
func decodeParam(a json.RawMessage) (urlconf.Param, bool) {
	var fields map[string]*string
	if err := json.Unmarshal(a, &fields); err != nil {
		return urlconf.Param{}, false
	}
	name, hasName := fields["name"]
	argType, hasType := fields["argType"]
	if !hasName || !hasType {
		return urlconf.Param{}, false
	}

	p := urlconf.Param{Type: urlconf.ArgUndeclared}
	if name != nil {
		p.Name = *name
	}
	if argType != nil && *argType != "" {
		p.Type = urlconf.ArgType(*argType)
	}
	return p, true
}

// UserCatalogueFiles lists the catalogue files under root's user directory.
// A missing directory yields no files.
func UserCatalogueFiles(root string) ([]string, error) {
	dir := filepath.Join(root, UserDir, CatalogueDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), CatalogueSuffix) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// Builtin returns the embedded catalogues, leaving out the admin catalogue
// unless admin is set and the auth catalogue unless auth is set.
func Builtin(admin, auth bool) ([]Catalogue, error) {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return nil, err
	}

	var out []Catalogue
	for _, e := range entries {
		switch e.Name() {
		case AdminCatalogue:
			if !admin {
				continue
			}
		case AuthCatalogue:
			if !auth {
				continue
			}
		}
		data, err := builtinFS.ReadFile(path.Join("builtin", e.Name()))
		if err != nil {
			return nil, err
		}
		cats, err := DecodeCatalogues(data)
		if err != nil {
			return nil, fmt.Errorf("builtin %s: %w", e.Name(), err)
		}
		for i := range cats {
			cats[i].File = "builtin:" + e.Name()
		}
		out = append(out, cats...)
	}
	return out, nil
}

func report(onError ErrorHandler, file string, err error) {
	if onError != nil {
		onError(file, err)
	}
}
