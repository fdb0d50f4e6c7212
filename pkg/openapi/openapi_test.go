package openapi

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/muremwa/djurls/pkg/catalog"
	"github.com/muremwa/djurls/pkg/urlconf"
)

func buildCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	sources := []catalog.Source{
		{
			Path: "/proj/shop/urls.py",
			Text: `app_name = 'shop'
urlpatterns = [
    path('', views.index, name='index'),
    path('item/<int:id>/', views.item, name='item-detail'),
    path('order/<uuid:ref>/<slug:step>/', views.order, name='order-step'),
]`,
		},
		{
			Path: "/proj/core/urls.py",
			Text: `urlpatterns = [
    path('', views.home, name='home'),
    re_path(r'^archive/(?P<year>[0-9]{4})/$', views.archive, name='archive'),
]`,
		},
	}

	cat, faults, err := catalog.NewBuilder().Build(context.Background(), sources)
	if err != nil || len(faults) != 0 {
		t.Fatalf("Build() = %v, %v", faults, err)
	}
	cat.Merge("admin", []urlconf.Route{{ReverseName: "admin:index", Name: "index"}})
	return cat
}

func TestGenerator_Generate(t *testing.T) {
	gen := NewGenerator(buildCatalog(t), Config{Title: "Shop"})

	doc, err := gen.Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if doc.OpenAPI != "3.1.0" {
		t.Errorf("OpenAPI = %s, want 3.1.0", doc.OpenAPI)
	}
	if doc.Info.Title != "Shop" || doc.Info.Version != "1.0.0" {
		t.Errorf("Info = %+v", doc.Info)
	}

	item := doc.Paths.Find("/item/{id}/")
	if item == nil || item.Get == nil {
		t.Fatal("Expected GET /item/{id}/")
	}
	op := item.Get
	if op.OperationID != "shop:item-detail" {
		t.Errorf("OperationID = %q", op.OperationID)
	}
	if len(op.Tags) != 1 || op.Tags[0] != "shop" {
		t.Errorf("Tags = %v", op.Tags)
	}
	if len(op.Parameters) != 1 {
		t.Fatalf("got %d parameters, want 1", len(op.Parameters))
	}
	p := op.Parameters[0].Value
	if p.Name != "id" || p.In != "path" || !p.Required {
		t.Errorf("parameter = %+v", p)
	}
	if !p.Schema.Value.Type.Is("integer") {
		t.Errorf("id schema type = %v, want integer", p.Schema.Value.Type)
	}
	if op.Responses.Value("404") == nil {
		t.Error("operation with parameters should document 404")
	}

	order := doc.Paths.Find("/order/{ref}/{step}/")
	if order == nil {
		t.Fatal("Expected /order/{ref}/{step}/")
	}
	if f := order.Get.Parameters[0].Value.Schema.Value.Format; f != "uuid" {
		t.Errorf("ref format = %q, want uuid", f)
	}

	if doc.Paths.Find("/archive/{year}/") == nil {
		t.Error("Expected re_path route /archive/{year}/")
	}

	// both URLconfs declare '' so the second is prefixed with its tag
	if root := doc.Paths.Find("/"); root == nil || root.Get.OperationID != "shop:index" {
		t.Error("Expected / to belong to shop:index")
	}
	if home := doc.Paths.Find("/core/"); home == nil || home.Get.OperationID != "home" {
		t.Error("Expected /core/ to belong to home")
	}

	skipped := gen.Skipped()
	if len(skipped) != 1 || skipped[0].ReverseName != "admin:index" {
		t.Errorf("Skipped() = %+v", skipped)
	}

	if err := doc.Validate(context.Background()); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestGenerator_Tags(t *testing.T) {
	doc, err := NewGenerator(buildCatalog(t), Config{}).Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	var names []string
	for _, tag := range doc.Tags {
		names = append(names, tag.Name)
	}
	if strings.Join(names, ",") != "shop,core" {
		t.Errorf("tags = %v, want [shop core]", names)
	}
}

func TestGenerator_JSONOutput(t *testing.T) {
	data, err := NewGenerator(buildCatalog(t), Config{Version: "2.0.0"}).GenerateJSON()
	if err != nil {
		t.Fatalf("GenerateJSON() error = %v", err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}
	info := parsed["info"].(map[string]any)
	if info["version"] != "2.0.0" {
		t.Errorf("version = %v", info["version"])
	}
	paths := parsed["paths"].(map[string]any)
	if _, ok := paths["/item/{id}/"]; !ok {
		t.Error("JSON paths missing /item/{id}/")
	}
}

func TestGenerator_YAMLOutput(t *testing.T) {
	data, err := NewGenerator(buildCatalog(t), Config{}).GenerateYAML()
	if err != nil {
		t.Fatalf("GenerateYAML() error = %v", err)
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("Failed to parse YAML: %v", err)
	}
	if parsed["openapi"] != "3.1.0" {
		t.Errorf("openapi = %v", parsed["openapi"])
	}
}

func TestGenerator_WriteToFile(t *testing.T) {
	gen := NewGenerator(buildCatalog(t), Config{})
	dir := t.TempDir()

	for _, format := range []string{"json", "yaml"} {
		path := filepath.Join(dir, "openapi."+format)
		if err := gen.WriteToFile(path, format); err != nil {
			t.Fatalf("WriteToFile(%s) error = %v", format, err)
		}
		data, err := os.ReadFile(path)
		if err != nil || len(data) == 0 {
			t.Errorf("%s output empty: %v", format, err)
		}
	}

	if err := gen.WriteToFile(filepath.Join(dir, "x.txt"), "xml"); err == nil {
		t.Error("unsupported format should fail")
	}
}

func TestDeriveTag(t *testing.T) {
	tests := []struct {
		namespace string
		want      string
	}{
		{"blog", "blog"},
		{urlconf.FileNamespace("/proj/core/urls.py"), "core"},
		{urlconf.FileNamespace("urls.py"), "default"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := deriveTag(catalog.Group{Namespace: tt.namespace}); got != tt.want {
				t.Errorf("deriveTag(%q) = %q, want %q", tt.namespace, got, tt.want)
			}
		})
	}
}
