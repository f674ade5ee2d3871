// pages.go -- Server-rendered pages.
package site

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/MGallo-Code/vitrine/internal/i18n"
	"github.com/MGallo-Code/vitrine/internal/route"
	"github.com/MGallo-Code/vitrine/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

// pageSections maps a route name to its template file and locale section.
var pageSections = map[string]string{
	route.Home:          "home",
	route.Contact:       "contact",
	route.Terms:         "terms",
	route.Resources:     "resources",
	route.ProtectedUnit: "protected",
}

var pages = parsePages()

func parsePages() map[string]*template.Template {
	out := make(map[string]*template.Template, len(pageSections))
	for name, section := range pageSections {
		out[name] = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+section+".html"))
	}
	return out
}

// pageData is what every page template sees. Templates call .T for text
// and .URL for links.
type pageData struct {
	Lang      string
	Languages []string
	Route     string
	Section   string
	AppName   string
	Canonical string
	Year      int
	Form      *contactForm

	locale i18n.Locale
	routes *route.Table
}

// T translates key with app_name available.
func (p pageData) T(key string) string {
	return p.locale.Translate(key, map[string]string{"app_name": p.AppName})
}

// URL resolves a named route, "#" when unknown.
func (p pageData) URL(name string) string {
	u, err := p.routes.Get(name, nil)
	if err != nil {
		return "#"
	}
	return u
}

// Title is the page's meta title.
func (p pageData) Title() string {
	return p.T(p.Section + ".meta.title")
}

func (h *Handler) newPageData(r *http.Request, name string) pageData {
	loc := h.locale(r)
	return pageData{
		Lang:      loc.Lang(),
		Languages: h.I18n.Languages(),
		Route:     name,
		Section:   pageSections[name],
		AppName:   h.AppName,
		Canonical: h.AppURL + h.Routes.MustGet(name, nil),
		Year:      time.Now().Year(),
		locale:    loc,
		routes:    h.Routes,
	}
}

func render(name string, data pageData) (string, error) {
	t, ok := pages[name]
	if !ok {
		return "", fmt.Errorf("no template for page %q", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", fmt.Errorf("rendering page %q: %w", name, err)
	}
	return buf.String(), nil
}

// Page returns the handler for a static page. Output is cached per
// language under page:<lang>:<route>.
func (h *Handler) Page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := h.newPageData(r, name)
		key := store.BuildKey("page", data.Lang, name)

		body, err := h.Cache.Remember(r.Context(), key, h.CacheTTL, func(context.Context) (string, error) {
			logDebug(r, "rendering page", "key", key)
			return render(name, data)
		})
		if err != nil {
			InternalServerError(w, r, err)
			return
		}
		writeHTML(w, http.StatusOK, body)
	}
}
