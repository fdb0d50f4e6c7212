package extras

import (
	"io"
	"log/slog"

	"github.com/muremwa/djurls/pkg/catalog"
)

// AdminNamespace receives the model admin routes.
const AdminNamespace = "admin"

// Options selects which supplementary routes Load returns.
type Options struct {
	AdminURLs          bool
	BuiltInAuth        bool
	AutoLoadModels     bool
	RegisteredAppsOnly bool

	OnError ErrorHandler
	Logger  *slog.Logger
}

// Load returns the user catalogues under root followed by the enabled
// built-in ones. A later catalogue for the same app replaces an earlier one.
// When an admin catalogue is present, routes for every registered model are
// appended to it.
func Load(root string, opts Options) ([]Catalogue, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	files, err := UserCatalogueFiles(root)
	if err != nil {
		return nil, err
	}
	cats := LoadCatalogues(files, opts.OnError)

	builtin, err := Builtin(opts.AdminURLs, opts.BuiltInAuth)
	if err != nil {
		return nil, err
	}
	cats = dedupe(append(cats, builtin...))

	for i := range cats {
		if cats[i].AppName != AdminNamespace {
			continue
		}
		models := Models{}
		if opts.AutoLoadModels {
			detected, err := DetectAdminModels(root, opts.RegisteredAppsOnly)
			if err != nil {
				report(opts.OnError, root, err)
			} else {
				models = detected
			}
		}
		fromFile, err := LoadModelsFile(root)
		if err != nil {
			report(opts.OnError, ModelsFile, err)
		}
		models.Fill(fromFile)

		routes := AdminModelRoutes(models)
		cats[i].URLs = append(cats[i].URLs, routes...)
		log.Debug("admin model routes", "apps", len(models), "routes", len(routes))
	}

	for _, c := range cats {
		log.Debug("catalogue loaded", "app", c.AppName, "file", c.File, "routes", len(c.URLs))
	}
	return cats, nil
}

// dedupe keeps the last catalogue per app at the position of the first.
func dedupe(cats []Catalogue) []Catalogue {
	index := map[string]int{}
	var out []Catalogue
	for _, c := range cats {
		if i, ok := index[c.AppName]; ok {
			out[i] = c
			continue
		}
		index[c.AppName] = len(out)
		out = append(out, c)
	}
	return out
}

// Apply merges catalogues into cat. Routes for a namespace the project
// already declares are appended to it.
func Apply(cat *catalog.Catalog, cats []Catalogue) {
	for _, c := range cats {
		if _, ok := cat.Lookup(c.AppName); ok {
			cat.Merge(c.AppName, c.URLs)
			continue
		}
		cat.Set(catalog.Group{Namespace: c.AppName, File: c.File, Routes: c.URLs})
	}
}
