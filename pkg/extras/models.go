package extras

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/muremwa/djurls/pkg/urlconf"
)

// ModelsFile is the user model list, relative to UserDir.
const ModelsFile = "models.json"

// Models maps an app label to the model class names registered with the admin.
type Models map[string][]string

var (
	docstringRe  = regexp.MustCompile(`(?s)""".*?"""`)
	hashRe       = regexp.MustCompile(`(?m)#.*$`)
	aliasRe      = regexp.MustCompile(`(?m)from django\.contrib\.admin\simport\sregister\sas\s(.*?)$`)
	importRe     = regexp.MustCompile(`(?m)^\s*from\s+(\S+)\s+import\s+(.*?)$`)
	settingsRe   = regexp.MustCompile(`,\s(.*?\.settings)`)
	installedRe  = regexp.MustCompile(`(?s)INSTALLED_APPS\s*=\s*\[(.*?)\]`)
	whitespaceRe = regexp.MustCompile(`\s`)
)

// adminActions are the per-model admin views and whether each takes object_id.
var adminActions = []struct {
	name     string
	objectID bool
}{
	{"changelist", false},
	{"add", false},
	{"history", true},
	{"delete", true},
	{"change", true},
}

func stripPython(text string) string {
	return hashRe.ReplaceAllString(docstringRe.ReplaceAllString(text, ""), "")
}

func unquote(s string) string {
	return strings.NewReplacer(`"`, "", `'`, "").Replace(s)
}

// RegisteredModels returns the model names passed to register() in an admin
// module, honouring `from django.contrib.admin import register as alias`.
func RegisteredModels(text string) []string {
	text = stripPython(text)

	registerName := "register"
	if m := aliasRe.FindStringSubmatch(text); m != nil && strings.TrimSpace(m[1]) != "" {
		registerName = strings.TrimSpace(m[1])
	}
	modelRe := regexp.MustCompile(`\b` + regexp.QuoteMeta(registerName) + `\((.*?)[),]`)

	seen := map[string]bool{}
	var models []string
	for _, m := range modelRe.FindAllStringSubmatch(text, -1) {
		model := whitespaceRe.ReplaceAllString(m[1], "")
		if model == "" || seen[model] {
			continue
		}
		seen[model] = true
		models = append(models, model)
	}
	return models
}

// adminSources returns the text of an app's admin module: admin.py, or the
// modules imported by admin/__init__.py.
func adminSources(appDir string) []string {
	if data, err := os.ReadFile(filepath.Join(appDir, "admin.py")); err == nil {
		return []string{string(data)}
	}

	pkg := filepath.Join(appDir, "admin")
	if info, err := os.Stat(pkg); err != nil || !info.IsDir() {
		return nil
	}

	var texts []string
	visited := map[string]bool{}
	var follow func(dir string)
	follow = func(dir string) {
		if visited[dir] {
			return
		}
		visited[dir] = true

		data, err := os.ReadFile(filepath.Join(dir, "__init__.py"))
		if err != nil {
			return
		}
		for _, m := range importRe.FindAllStringSubmatch(stripPython(string(data)), -1) {
			modDir := importDir(dir, m[1])
			if modDir == "" {
				continue
			}
			// from .module import Name
			if data, err := os.ReadFile(modDir + ".py"); err == nil {
				if !visited[modDir+".py"] {
					visited[modDir+".py"] = true
					texts = append(texts, string(data))
				}
				continue
			}
			// from . import module, package
			for _, name := range importNames(m[2]) {
				file := filepath.Join(modDir, name+".py")
				if data, err := os.ReadFile(file); err == nil {
					if !visited[file] {
						visited[file] = true
						texts = append(texts, string(data))
					}
					continue
				}
				follow(filepath.Join(modDir, name))
			}
		}
	}
	follow(pkg)
	return texts
}

// importDir resolves the module of a from-import relative to dir. Absolute
// imports are only followed when they go through an admin package.
func importDir(dir, module string) string {
	if !strings.HasPrefix(module, ".") {
		i := strings.Index(module, ".admin")
		if i < 0 {
			return ""
		}
		module = "." + strings.TrimPrefix(module[i+len(".admin"):], ".")
	}

	dots := len(module) - len(strings.TrimLeft(module, "."))
	base := dir
	for i := 1; i < dots; i++ {
		base = filepath.Dir(base)
	}
	rest := strings.TrimLeft(module, ".")
	if rest == "" {
		return base
	}
	return filepath.Join(append([]string{base}, strings.Split(rest, ".")...)...)
}

func importNames(list string) []string {
	list = strings.Trim(strings.TrimSpace(list), "()")
	var names []string
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if i := strings.Index(part, " as "); i >= 0 {
			part = strings.TrimSpace(part[:i])
		}
		if part != "" && part != "*" {
			names = append(names, part)
		}
	}
	return names
}

// DetectAdminModels finds the models registered with the admin in every app
// directory directly under root. With registeredOnly, only apps listed in
// INSTALLED_APPS are searched. The auth app is always present: Group and
// User, or just Group when the settings declare AUTH_USER_MODEL.
func DetectAdminModels(root string, registeredOnly bool) (Models, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	dirs := map[string]bool{}
	var dirNames []string
	for _, e := range entries {
		if e.IsDir() {
			dirs[e.Name()] = true
			dirNames = append(dirNames, e.Name())
		}
	}

	authModels := []string{"Group", "User"}
	var apps []string

	if registeredOnly {
		settings := readSettings(root)
		for _, app := range installedApps(settings) {
			if dirs[app] {
				apps = append(apps, app)
			}
		}
		if strings.Contains(settings, "AUTH_USER_MODEL") {
			authModels = []string{"Group"}
		}
	} else {
		for _, name := range dirNames {
			if exists(filepath.Join(root, name, "admin.py")) || exists(filepath.Join(root, name, "admin")) {
				apps = append(apps, name)
			}
		}
	}

	models := Models{"auth": authModels}
	for _, app := range apps {
		texts := adminSources(filepath.Join(root, app))
		if len(texts) == 0 {
			continue
		}
		var found []string
		for _, text := range texts {
			found = append(found, RegisteredModels(text)...)
		}
		models[app] = found
	}
	return models, nil
}

// readSettings returns the text of the settings module named in manage.py,
// trying <pkg>/settings.py then <pkg>/settings/base.py.
func readSettings(root string) string {
	manage, err := os.ReadFile(filepath.Join(root, "manage.py"))
	if err != nil {
		return ""
	}
	m := settingsRe.FindStringSubmatch(stripPython(string(manage)))
	if m == nil {
		return ""
	}
	pkg := strings.Split(strings.TrimSpace(unquote(m[1])), ".")[0]

	for _, candidate := range []string{
		filepath.Join(root, pkg, "settings.py"),
		filepath.Join(root, pkg, "settings", "base.py"),
	} {
		if data, err := os.ReadFile(candidate); err == nil {
			return string(data)
		}
	}
	return ""
}

// installedApps returns the local entries of INSTALLED_APPS as directory names.
func installedApps(settings string) []string {
	m := installedRe.FindStringSubmatch(stripPython(settings))
	if m == nil {
		return nil
	}
	var apps []string
	for _, entry := range strings.Split(m[1], ",") {
		if strings.Contains(entry, "django.") {
			continue
		}
		app := unquote(strings.TrimSpace(entry))
		if app == "" {
			continue
		}
		if strings.Contains(app, ".apps.") {
			app = strings.Split(app, ".")[0]
		}
		apps = append(apps, app)
	}
	return apps
}

// LoadModelsFile reads the user model list from root. A missing file yields
// nil models and no error. Apps whose value is not a list of strings are
// ignored.
func LoadModelsFile(root string) (Models, error) {
	file := filepath.Join(root, UserDir, ModelsFile)
	data, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ModelsFile, err)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return Models{}, nil
	}

	models := Models{}
	for app, v := range obj {
		list, ok := v.([]any)
		if !ok {
			continue
		}
		names := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				names = append(names, s)
			}
		}
		models[app] = names
	}
	return models, nil
}

// Fill adds the apps of other that m does not already have.
func (m Models) Fill(other Models) {
	for app, names := range other {
		if _, ok := m[app]; !ok {
			m[app] = names
		}
	}
}

// Apps returns the app labels in sorted order.
func (m Models) Apps() []string {
	apps := make([]string, 0, len(m))
	for app := range m {
		apps = append(apps, app)
	}
	sort.Strings(apps)
	return apps
}

// AdminModelRoutes returns the admin routes of every model, e.g.
// admin:blog_post_changelist and admin:blog_post_change(object_id).
func AdminModelRoutes(models Models) []urlconf.Route {
	var routes []urlconf.Route
	for _, app := range models.Apps() {
		for _, model := range models[app] {
			model = strings.ToLower(model)
			for _, action := range adminActions {
				name := fmt.Sprintf("%s_%s_%s", app, model, action.name)
				r := urlconf.Route{
					ReverseName: "admin:" + name,
					Name:        name,
					Arguments:   []urlconf.Param{},
				}
				if action.objectID {
					r.Arguments = []urlconf.Param{{Name: "object_id", Type: urlconf.ArgInteger}}
					r.HasArgs = true
				}
				routes = append(routes, r)
			}
		}
	}
	return routes
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
