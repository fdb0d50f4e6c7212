package urlconf

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/muremwa/djurls/pkg/brackets"
)

const shopURLs = `from django.urls import path

from . import views

app_name = "shop"

urlpatterns = [
    path("item/<int:id>/", view, name="item-detail"),
    path("about/", views.about),
]
`

func TestParseParam(t *testing.T) {
	tests := []struct {
		raw  string
		want Param
	}{
		{"int:pk", Param{Name: "pk", Type: ArgInteger}},
		{"slug:slug_field", Param{Name: "slug_field", Type: ArgSlug}},
		{"str:title", Param{Name: "title", Type: ArgString}},
		{"uuid:token", Param{Name: "token", Type: ArgUUID}},
		{"path:rest", Param{Name: "rest", Type: ArgPath}},
		{"year", Param{Name: "year", Type: ArgUndeclared}},
		{"foo:year", Param{Name: "year", Type: ArgUndeclared}},
		{"a:b:c", Param{Type: ArgUndeclared}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := ParseParam(tt.raw)
			if got != tt.want {
				t.Errorf("ParseParam(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseDeclaration(t *testing.T) {
	tests := []struct {
		name      string
		decl      string
		namespace string
		want      Route
		wantOK    bool
	}{
		{
			name:      "namespaced",
			decl:      `('post/<int:pk>/', views.post_detail, name='post-detail')`,
			namespace: "blog",
			want: Route{
				ReverseName: "blog:post-detail",
				Name:        "post-detail",
				Pattern:     "post/<int:pk>/",
				Arguments:   []Param{{Name: "pk", Type: ArgInteger}},
				ViewName:    "views.post_detail",
				HasArgs:     true,
			},
			wantOK: true,
		},
		{
			name:      "file-derived namespace is not prefixed",
			decl:      `('post/', views.PostList.as_view(), name="post-detail")`,
			namespace: FileNamespace("/proj/blog/urls.py"),
			want: Route{
				ReverseName: "post-detail",
				Name:        "post-detail",
				Pattern:     "post/",
				Arguments:   []Param{},
				ViewName:    "views.PostList.as_view()",
				HasArgs:     false,
			},
			wantOK: true,
		},
		{
			name:      "whitespace removed from name",
			decl:      `('x/', v, name='a b')`,
			namespace: "ns",
			want: Route{
				ReverseName: "ns:ab",
				Name:        "ab",
				Pattern:     "x/",
				Arguments:   []Param{},
				ViewName:    "v",
			},
			wantOK: true,
		},
		{
			name:      "several arguments",
			decl:      `('archive/<int:year>/<slug:month>/<day>/', views.archive, name='archive')`,
			namespace: "news",
			want: Route{
				ReverseName: "news:archive",
				Name:        "archive",
				Pattern:     "archive/<int:year>/<slug:month>/<day>/",
				Arguments: []Param{
					{Name: "year", Type: ArgInteger},
					{Name: "month", Type: ArgSlug},
					{Name: "day", Type: ArgUndeclared},
				},
				ViewName: "views.archive",
				HasArgs:  true,
			},
			wantOK: true,
		},
		{
			name: "multi-line declaration",
			decl: `(
        "detail/<uuid:token>/",
        views.detail,
        name="detail",
    )`,
			namespace: "app",
			want: Route{
				ReverseName: "app:detail",
				Name:        "detail",
				Pattern:     "detail/<uuid:token>/",
				Arguments:   []Param{{Name: "token", Type: ArgUUID}},
				ViewName:    "views.detail",
				HasArgs:     true,
			},
			wantOK: true,
		},
		{
			name:      "no name is skipped",
			decl:      `('about/', views.about)`,
			namespace: "ns",
			wantOK:    false,
		},
		{
			name:      "root include is skipped",
			decl:      `('', include(URLS_ROOT), name='root')`,
			namespace: "ns",
			wantOK:    false,
		},
		{
			name:      "app_name keyword is not a route name",
			decl:      `('x/', include('a.urls'), app_name='a')`,
			namespace: "ns",
			wantOK:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDeclaration(tt.decl, tt.namespace)
			if ok != tt.wantOK {
				t.Fatalf("ParseDeclaration() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseDeclaration() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseFile(t *testing.T) {
	f, err := ParseFile(shopURLs, "/proj/shop/urls.py")
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}

	if f.Namespace != "shop" {
		t.Errorf("Namespace = %q, want shop", f.Namespace)
	}
	if len(f.Declarations) != 2 {
		t.Fatalf("got %d declarations, want 2: %q", len(f.Declarations), f.Declarations)
	}
}

func TestParseFile_FileNamespace(t *testing.T) {
	text := "urlpatterns = [path('a/', v, name='a')]"
	f, err := ParseFile(text, "/proj/core/urls.py")
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}

	if !IsFileNamespace(f.Namespace) {
		t.Fatalf("Namespace = %q, want file-derived", f.Namespace)
	}
	path, ok := NamespaceFile(f.Namespace)
	if !ok || path != "/proj/core/urls.py" {
		t.Errorf("NamespaceFile() = %q, %v", path, ok)
	}
}

func TestParseFile_IndentedAppNameIgnored(t *testing.T) {
	text := "def f():\n    app_name = 'inner'\nurlpatterns = []\n"
	f, err := ParseFile(text, "u.py")
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if f.Namespace != FileNamespace("u.py") {
		t.Errorf("Namespace = %q, want file-derived", f.Namespace)
	}
}

func TestParseFile_Unmatched(t *testing.T) {
	text := "urlpatterns = [\n    path('a/', v, name='a'),\n"
	_, err := ParseFile(text, "/proj/bad/urls.py")

	var u *brackets.UnmatchedError
	if !errors.As(err, &u) {
		t.Fatalf("error = %v, want *brackets.UnmatchedError", err)
	}
	if u.File != "/proj/bad/urls.py" {
		t.Errorf("File = %q, want the scanned path", u.File)
	}
	if u.Opener != brackets.Square {
		t.Errorf("Opener = %q, want '['", u.Opener)
	}
}

func TestParseFile_CommentedBracketIgnored(t *testing.T) {
	text := "urlpatterns = [\n    # path('old/(', v),\n    path('a/', v, name='a'),\n]\n"
	f, err := ParseFile(text, "u.py")
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if len(f.Declarations) != 1 {
		t.Errorf("got %d declarations, want 1", len(f.Declarations))
	}
}

func TestParseRoutes_HashInsideLiteral(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		pattern string
	}{
		{
			name:    "regex character class",
			text:    "urlpatterns = [\n    re_path(r'^tag/(?P<tag>[^#/]+)/$', views.tag, name='tag'),\n]\n",
			want:    "tag",
			pattern: "^tag/(?P<tag>[^#/]+)/$",
		},
		{
			name:    "route name",
			text:    "urlpatterns = [\n    path('a/', v, name='a#1'),  # trailing (\n]\n",
			want:    "a#1",
			pattern: "a/",
		},
		{
			name:    "double quotes",
			text:    "urlpatterns = [\n    path(\"x#y/\", v, name=\"xy\"),\n]\n",
			want:    "xy",
			pattern: "x#y/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRoutes(tt.text, "x/urls.py")
			if err != nil {
				t.Fatalf("ParseRoutes() error = %v", err)
			}
			if len(got.Routes) != 1 {
				t.Fatalf("got %d routes, want 1", len(got.Routes))
			}
			if got.Routes[0].Name != tt.want {
				t.Errorf("Name = %q, want %q", got.Routes[0].Name, tt.want)
			}
			if got.Routes[0].Pattern != tt.pattern {
				t.Errorf("Pattern = %q, want %q", got.Routes[0].Pattern, tt.pattern)
			}
		})
	}
}

func TestStripComments(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"line comment", "a = 1  # note (\nb", "a = 1  \nb"},
		{"hash in single quotes", "x = 'a#b'  # c", "x = 'a#b'  "},
		{"hash in double quotes", `x = "a#b"`, `x = "a#b"`},
		{"escaped quote", `x = 'it\'s #1' # c`, `x = 'it\'s #1' `},
		{"triple quoted", "\"\"\"doc\n# not a comment\n\"\"\"\n# gone", "\"\"\"doc\n# not a comment\n\"\"\"\n"},
		{"unterminated literal ends at newline", "x = 'a\n# gone\ny", "x = 'a\n\ny"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripComments(tt.in); got != tt.want {
				t.Errorf("StripComments(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseRoutes_EndToEnd(t *testing.T) {
	got, err := ParseRoutes(shopURLs, "/proj/shop/urls.py")
	if err != nil {
		t.Fatalf("ParseRoutes() error = %v", err)
	}

	want := []Route{{
		ReverseName: "shop:item-detail",
		Name:        "item-detail",
		Pattern:     "item/<int:id>/",
		Arguments:   []Param{{Name: "id", Type: ArgInteger}},
		ViewName:    "view",
		HasArgs:     true,
	}}

	if got.Namespace != "shop" {
		t.Errorf("Namespace = %q, want shop", got.Namespace)
	}
	if !reflect.DeepEqual(got.Routes, want) {
		t.Errorf("Routes = %+v, want %+v", got.Routes, want)
	}
}

func TestParseRoutes_NestedInclude(t *testing.T) {
	text := `app_name = 'api'
urlpatterns = [
    path('v1/', include([
        path('users/<int:pk>/', views.user, name='user'),
    ])),
    path('health/', views.health, name='health'),
]`
	got, err := ParseRoutes(text, "api/urls.py")
	if err != nil {
		t.Fatalf("ParseRoutes() error = %v", err)
	}

	// The include call is one declaration with an inner name, so the
	// outer declaration picks up the nested route's name.
	names := make([]string, 0, len(got.Routes))
	for _, r := range got.Routes {
		names = append(names, r.ReverseName)
	}
	want := []string{"api:user", "api:health"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("reverse names = %v, want %v", names, want)
	}
}

func TestRoute_MarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		route Route
		want  string
	}{
		{"no view", Route{ReverseName: "a", Name: "a", Arguments: []Param{}}, `"viewName":null`},
		{"view", Route{ReverseName: "a", Name: "a", Arguments: []Param{}, ViewName: "views.a"}, `"viewName":"views.a"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.route)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if !strings.Contains(string(data), tt.want) {
				t.Errorf("Marshal() = %s, want it to contain %s", data, tt.want)
			}
			if strings.Count(string(data), "viewName") != 1 {
				t.Errorf("Marshal() = %s, want one viewName key", data)
			}

			var back Route
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if back.ViewName != tt.route.ViewName {
				t.Errorf("ViewName = %q, want %q", back.ViewName, tt.route.ViewName)
			}
		})
	}
}
