package web

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/muremwa/djurls/pkg/catalog"
	"github.com/muremwa/djurls/pkg/config"
	"github.com/muremwa/djurls/pkg/urlconf"
)

// PageData is what the catalogue page renders.
type PageData struct {
	Project    string
	Root       *catalog.Node
	ExpandApps string
	Faults     []catalog.Fault
	Live       bool
}

const pageStyle = `body{font-family:system-ui,sans-serif;margin:2rem;color:#222}
h1{font-size:1.4rem}.meta{color:#666;font-size:.9rem}
details{margin:.4rem 0}summary{cursor:pointer;font-weight:600}
ul{list-style:none;padding-left:1.2rem}li{margin:.2rem 0}
code{background:#f3f3f3;padding:0 .3rem;border-radius:3px}
.arg{color:#7a4}.view{color:#888;font-size:.85rem}.fault{color:#b33}
input{padding:.3rem;width:20rem;margin-bottom:1rem}`

const pageScript = `const q=document.getElementById('q');
q.addEventListener('input',()=>{const v=q.value.toLowerCase();
document.querySelectorAll('li.url').forEach(li=>{li.hidden=v&&!li.dataset.search.includes(v)});});`

const liveScript = `new EventSource('/api/events').addEventListener('catalog',()=>location.reload());`

// Page renders the full catalogue page.
func Page(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.printf("<!DOCTYPE html><html lang=\"en\"><head><meta charset=\"utf-8\"><title>%s URLs</title><style>%s</style></head><body>",
			templ.EscapeString(data.Project), pageStyle)
		p.printf("<h1>%s</h1>", templ.EscapeString(data.Project))
		if data.Root != nil {
			p.printf("<p class=\"meta\">%s</p>", templ.EscapeString(data.Root.Tooltip))
		}
		p.printf("<input id=\"q\" type=\"search\" placeholder=\"Filter routes\" autofocus>")
		if p.err != nil {
			return p.err
		}

		if data.Root != nil {
			for _, app := range data.Root.Children {
				if err := AppSection(app, openApp(data.ExpandApps)).Render(ctx, w); err != nil {
					return err
				}
			}
		}

		if len(data.Faults) > 0 {
			p.printf("<h2>Skipped files</h2><ul>")
			for _, f := range data.Faults {
				p.printf("<li class=\"fault\"><code>%s</code> %s</li>", templ.EscapeString(f.File), templ.EscapeString(f.Error()))
			}
			p.printf("</ul>")
		}

		p.printf("<script>%s", pageScript)
		if data.Live {
			p.printf("%s", liveScript)
		}
		p.printf("</script></body></html>")
		return p.err
	})
}

// AppSection renders one app and its routes as a collapsible block.
func AppSection(app *catalog.Node, open bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		attr := ""
		if open {
			attr = " open"
		}
		p.printf("<details%s><summary title=\"%s\">%s <span class=\"meta\">(%d)</span></summary><ul>",
			attr, templ.EscapeString(app.Tooltip), templ.EscapeString(app.Label), len(app.Children))
		if p.err != nil {
			return p.err
		}
		for _, url := range app.Children {
			if err := RouteItem(url).Render(ctx, w); err != nil {
				return err
			}
		}
		p.printf("</ul></details>")
		return p.err
	})
}

// RouteItem renders one route with its arguments and reverse() snippet.
func RouteItem(url *catalog.Node) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		r := url.Route
		if r == nil {
			r = &urlconf.Route{ReverseName: url.Label}
		}
		search := strings.ToLower(r.ReverseName + " " + r.ViewName + " " + r.Pattern)

		p.printf("<li class=\"url\" data-search=\"%s\" title=\"%s\"><code>%s</code>",
			templ.EscapeString(search), templ.EscapeString(url.Tooltip), templ.EscapeString(r.ReverseName))
		for _, arg := range url.Children {
			p.printf(" <span class=\"arg\" title=\"%s\">%s</span>", templ.EscapeString(arg.Tooltip), templ.EscapeString(arg.Label))
		}
		if r.ViewName != "" {
			p.printf(" <span class=\"view\">%s</span>", templ.EscapeString(r.ViewName))
		}
		p.printf("<br><code>%s</code></li>", templ.EscapeString(catalog.ReverseSnippet(*r)))
		return p.err
	})
}

// openApp decides whether an app block starts expanded.
func openApp(mode string) bool {
	return mode != config.ExpandCollapsed
}

// printer keeps the first write error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
