package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/muremwa/djurls/pkg/brackets"
	"github.com/muremwa/djurls/pkg/urlconf"
)

func sources() []Source {
	return []Source{
		{
			Path: "/proj/blog/urls.py",
			Text: `app_name = "blog"
urlpatterns = [
    path("", views.index, name="index"),
    path("post/<int:pk>/", views.detail, name="post-detail"),
]`,
		},
		{
			Path: "/proj/broken/urls.py",
			Text: "urlpatterns = [\n    path('a/', v, name='a'),\n",
		},
		{
			Path: "/proj/core/urls.py",
			Text: "urlpatterns = [path('health/', views.health, name='health'), path('x/', v)]",
		},
		{
			Path: "/proj/empty/urls.py",
			Text: "urlpatterns = [path('x/', v)]",
		},
	}
}

func TestBuild(t *testing.T) {
	var handled []Fault
	b := NewBuilder()
	b.Workers = 2
	b.OnFault = func(f Fault) { handled = append(handled, f) }

	cat, faults, err := b.Build(context.Background(), sources())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	wantNS := []string{"blog", urlconf.FileNamespace("/proj/core/urls.py")}
	gotNS := cat.Namespaces()
	if strings.Join(gotNS, ",") != strings.Join(wantNS, ",") {
		t.Errorf("Namespaces() = %v, want %v", gotNS, wantNS)
	}

	if cat.Len() != 3 {
		t.Errorf("Len() = %d, want 3", cat.Len())
	}

	if len(faults) != 1 {
		t.Fatalf("got %d faults, want 1", len(faults))
	}
	f := faults[0]
	if f.Kind != FaultUnmatched || f.File != "/proj/broken/urls.py" || f.Opener != "[" {
		t.Errorf("fault = %+v", f)
	}
	if !brackets.IsUnmatched(f) {
		t.Error("fault should unwrap to *brackets.UnmatchedError")
	}
	if len(handled) != 1 {
		t.Errorf("OnFault called %d times, want 1", len(handled))
	}
}

func TestBuild_DeterministicOrder(t *testing.T) {
	var srcs []Source
	for _, ns := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		srcs = append(srcs, Source{
			Path: "/p/" + ns + "/urls.py",
			Text: "app_name = '" + ns + "'\nurlpatterns = [path('x/', v, name='x')]",
		})
	}

	for i := 0; i < 5; i++ {
		cat, _, err := (&Builder{Workers: 4}).Build(context.Background(), srcs)
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if got := strings.Join(cat.Namespaces(), ""); got != "abcdefgh" {
			t.Fatalf("run %d: order = %q", i, got)
		}
	}
}

func TestBuild_DuplicateNamespaceLastWins(t *testing.T) {
	srcs := []Source{
		{Path: "/p/one/urls.py", Text: "app_name = 'dup'\nurlpatterns = [path('a/', v, name='first')]"},
		{Path: "/p/two/urls.py", Text: "app_name = 'dup'\nurlpatterns = [path('b/', v, name='second')]"},
	}

	cat, _, err := NewBuilder().Build(context.Background(), srcs)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	g, ok := cat.Lookup("dup")
	if !ok {
		t.Fatal("dup namespace missing")
	}
	if len(g.Routes) != 1 || g.Routes[0].ReverseName != "dup:second" {
		t.Errorf("routes = %+v, want dup:second only", g.Routes)
	}
	if g.File != "/p/two/urls.py" {
		t.Errorf("File = %q", g.File)
	}
}

func TestBuild_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewBuilder().Build(ctx, sources())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestBuild_UsesCache(t *testing.T) {
	cache, err := NewCache(8)
	if err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}
	b := &Builder{Cache: cache}

	srcs := sources()
	if _, _, err := b.Build(context.Background(), srcs); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	// broken file is not cached
	if cache.Len() != 3 {
		t.Errorf("cache.Len() = %d, want 3", cache.Len())
	}

	if _, ok := cache.Get(srcs[0]); !ok {
		t.Error("unchanged source should hit the cache")
	}
	changed := srcs[0]
	changed.Text += "\n# edited"
	if _, ok := cache.Get(changed); ok {
		t.Error("edited source should miss the cache")
	}
}

func TestCatalog_FindAndFilter(t *testing.T) {
	cat, _, err := NewBuilder().Build(context.Background(), sources())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	r, g, ok := cat.Find("blog:post-detail")
	if !ok {
		t.Fatal("blog:post-detail not found")
	}
	if g.Namespace != "blog" || !r.HasArgs {
		t.Errorf("Find() = %+v in %q", r, g.Namespace)
	}

	if _, _, ok := cat.Find("missing"); ok {
		t.Error("Find(missing) should fail")
	}

	filtered := cat.Filter("DETAIL")
	if filtered.Len() != 1 {
		t.Errorf("Filter(DETAIL).Len() = %d, want 1", filtered.Len())
	}
	if cat.Filter("  ") != cat {
		t.Error("blank filter should return the catalogue unchanged")
	}
}

func TestCatalog_Merge(t *testing.T) {
	cat := New()
	cat.Merge("admin", []urlconf.Route{{ReverseName: "admin:index", Name: "index"}})
	cat.Merge("admin", []urlconf.Route{{ReverseName: "admin:login", Name: "login"}})

	g, ok := cat.Lookup("admin")
	if !ok || len(g.Routes) != 2 {
		t.Fatalf("Lookup(admin) = %+v, %v", g, ok)
	}
	if m := cat.Map(); len(m["admin"]) != 2 {
		t.Errorf("Map()[admin] has %d routes", len(m["admin"]))
	}
}

func TestCatalog_MergeLeavesSharedRoutesAlone(t *testing.T) {
	// spare capacity, as ParseRoutes leaves when a declaration has no name
	shared := make([]urlconf.Route, 1, 4)
	shared[0] = urlconf.Route{ReverseName: "shop:a", Name: "a"}

	first := New()
	first.Set(Group{Namespace: "shop", Routes: shared})
	first.Merge("shop", []urlconf.Route{{ReverseName: "shop:first", Name: "first"}})

	second := New()
	second.Set(Group{Namespace: "shop", Routes: shared})
	second.Merge("shop", []urlconf.Route{{ReverseName: "shop:second", Name: "second"}})

	g, _ := first.Lookup("shop")
	if len(g.Routes) != 2 || g.Routes[1].ReverseName != "shop:first" {
		t.Errorf("first catalogue routes = %+v, want shop:a then shop:first", g.Routes)
	}
	if len(shared) != 1 || shared[:2][1].ReverseName != "" {
		t.Errorf("shared backing array was written: %+v", shared[:2])
	}
}

func TestGroup_DisplayName(t *testing.T) {
	tests := []struct {
		namespace string
		want      string
	}{
		{"blog", "BLOG"},
		{urlconf.FileNamespace("/home/me/proj/core/urls.py"), "CORE/URLS.PY"},
		{urlconf.FileNamespace("urls.py"), "URLS.PY"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := (Group{Namespace: tt.namespace}).DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCatalog_Sorted(t *testing.T) {
	cat := New()
	cat.Set(Group{Namespace: "zeta"})
	cat.Set(Group{Namespace: "alpha"})

	sorted := cat.Sorted()
	if got := strings.Join(sorted.Namespaces(), ","); got != "alpha,zeta" {
		t.Errorf("Sorted() = %q", got)
	}
	if got := strings.Join(cat.Namespaces(), ","); got != "zeta,alpha" {
		t.Errorf("original mutated: %q", got)
	}
}
