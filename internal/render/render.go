// Package render executes the public site's HTML templates. Every page is
// parsed together with the shared base layout from the embedded filesystem.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"strings"
	"time"

	"skybound/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

const baseTemplate = "base.html"

// Page names accepted by Render.
const (
	PageHome          = "index"
	PageProduct       = "product_detail"
	PageAbout         = "about"
	PagePrograms      = "programs"
	PagePricing       = "pricing"
	PageContact       = "contact"
	PageSpecialOffers = "special_offers"
	PageNotFound      = "not_found"
)

// PageData holds everything a template can see.
type PageData struct {
	Title       string // <title>; the brand name is used when empty
	Description string // meta description
	Keywords    string
	Canonical   string // absolute URL of the page
	Brand       string
	Path        string // request path, used to mark the active nav item
	Data        any    // page-specific payload
}

// Renderer holds one parsed template set per page.
type Renderer struct {
	templates map[string]*template.Template
	brand     string
	baseURL   string
}

// New parses every embedded page template with the base layout.
func New(brand, baseURL string) (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template),
		brand:     brand,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
	}

	funcs := template.FuncMap{
		"year": func() int { return time.Now().Year() },
		"activeClass": func(current, target string) string {
			if current == target {
				return "nav-link active"
			}
			return "nav-link"
		},
		"difficulty": func(d domain.Difficulty) string { return d.Label() },
	}

	entries, err := fs.ReadDir(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("read embedded templates: %w", err)
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == baseTemplate || !strings.HasSuffix(name, ".html") {
			continue
		}

		tmpl, err := template.New(baseTemplate).Funcs(funcs).ParseFS(
			templateFS, "templates/"+baseTemplate, "templates/"+name,
		)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}

		r.templates[strings.TrimSuffix(name, ".html")] = tmpl
	}

	return r, nil
}

// Render executes page into a buffer so callers can cache the result and
// choose the status code after rendering succeeded.
func (r *Renderer) Render(page string, data *PageData) ([]byte, error) {
	tmpl, ok := r.templates[page]
	if !ok {
		return nil, fmt.Errorf("template %q not found", page)
	}

	if data.Brand == "" {
		data.Brand = r.brand
	}
	if data.Canonical == "" && data.Path != "" {
		data.Canonical = r.baseURL + data.Path
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, baseTemplate, data); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", page, err)
	}
	return buf.Bytes(), nil
}

// Pages lists the names of the parsed page templates.
func (r *Renderer) Pages() []string {
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	return names
}
