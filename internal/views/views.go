// Package views renders the portal's HTML pages. Each page template is parsed
// together with the shared layout and looked up by its page name, for example
// "home" or "registration/login".
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/anonto42/regional-voices/backend/internal/models"
	"github.com/anonto42/regional-voices/backend/pkg/media"
	"github.com/labstack/echo/v4"
)

//go:embed templates
var files embed.FS

const layoutFile = "templates/layout.html"

// Renderer implements echo.Renderer
type Renderer struct {
	templates map[string]*template.Template
}

// New parses every page under templates/. Media URLs are resolved through store.
func New(store media.Store) (*Renderer, error) {
	funcs := template.FuncMap{
		"mediaURL": func(ref *string) string {
			if ref == nil || *ref == "" {
				return ""
			}
			return store.URL(*ref)
		},
		"categoryLabel": func(c models.Category) string { return c.Label() },
		"categories":    func() []models.Category { return models.Categories },
		"date": func(t time.Time) string {
			return t.Format("Jan 2, 2006, 3:04 p.m.")
		},
		"hasCategory": func(p *models.Profile, c models.Category) bool {
			return p != nil && p.FollowsCategory(c)
		},
		"card": func(item interface{}, csrf interface{}) map[string]interface{} {
			return map[string]interface{}{"Item": item, "CSRF": csrf}
		},
	}

	r := &Renderer{templates: make(map[string]*template.Template)}
	err := fs.WalkDir(files, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || path == layoutFile || !strings.HasSuffix(path, ".html") {
			return err
		}
		name := strings.TrimSuffix(strings.TrimPrefix(path, "templates/"), ".html")
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(files, layoutFile, path)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		r.templates[name] = tmpl
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Has reports whether a page exists
func (r *Renderer) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}

// Render executes the named page. echo.Map data gets the CSRF token and the
// current user added for the layout.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	if m, ok := data.(echo.Map); ok && c != nil {
		if _, set := m["csrf"]; !set {
			m["csrf"] = c.Get("csrf")
		}
		if _, set := m["current_user"]; !set {
			if u, ok := c.Get("user").(*models.User); ok {
				m["current_user"] = u
			}
		}
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}
