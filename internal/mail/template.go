// template.go
//
// Email templates with {{ var }} placeholders and an optional HTML layout.
package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"html/template"

	"github.com/MGallo-Code/vitrine/internal/i18n"
)

//go:embed layouts/*.html
var layoutFS embed.FS

var layouts = template.Must(template.ParseFS(layoutFS, "layouts/*.html"))

// Template is the unrendered content of an email.
type Template struct {
	Subject string
	Text    string
	HTML    string
	// Layout names a file under layouts/ (without extension). Empty sends
	// the HTML fragment as-is.
	Layout string
}

// Content is a rendered template.
type Content struct {
	Subject string
	Text    string
	HTML    string
}

// Render substitutes vars into t. Values are HTML-escaped in the HTML part
// only; unknown placeholders are left in place.
func Render(lang string, t Template, vars map[string]string) (Content, error) {
	escaped := make(map[string]string, len(vars))
	for k, v := range vars {
		escaped[k] = html.EscapeString(v)
	}

	c := Content{
		Subject: i18n.ReplaceVars(t.Subject, vars),
		Text:    i18n.ReplaceVars(t.Text, vars),
	}
	fragment := i18n.ReplaceVars(t.HTML, escaped)
	if t.Layout == "" || fragment == "" {
		c.HTML = fragment
		return c, nil
	}

	var buf bytes.Buffer
	err := layouts.ExecuteTemplate(&buf, t.Layout+".html", struct {
		Lang    string
		Subject string
		Content template.HTML
	}{lang, c.Subject, template.HTML(fragment)})
	if err != nil {
		return Content{}, fmt.Errorf("rendering layout %q: %w", t.Layout, err)
	}
	c.HTML = buf.String()
	return c, nil
}
