// Package views renders the server-side HTML pages. Templates are embedded in
// the binary and every page is executed through the shared "layout" template.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	layoutFile    = "templates/layout.html"
	defaultLayout = "layout"
)

var _ fiber.Views = (*Engine)(nil)

// Engine implements fiber.Views over html/template.
type Engine struct {
	mu     sync.RWMutex
	files  fs.FS
	funcs  template.FuncMap
	pages  map[string]*template.Template
	loaded bool
}

// New returns an engine over the embedded templates.
func New() *Engine {
	return &Engine{files: templateFS, funcs: Funcs()}
}

// Load parses every page together with the layout.
func (e *Engine) Load() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	matches, err := fs.Glob(e.files, "templates/*.html")
	if err != nil {
		return err
	}

	pages := make(map[string]*template.Template, len(matches))
	for _, file := range matches {
		if file == layoutFile {
			continue
		}
		name := strings.TrimSuffix(path.Base(file), path.Ext(file))
		tmpl, err := template.New(name).Funcs(e.funcs).ParseFS(e.files, layoutFile, file)
		if err != nil {
			return fmt.Errorf("parse %s: %w", file, err)
		}
		pages[name] = tmpl
	}
	e.pages = pages
	e.loaded = true
	return nil
}

// Render executes page name inside layout (default "layout").
func (e *Engine) Render(w io.Writer, name string, binding interface{}, layout ...string) error {
	e.mu.RLock()
	loaded := e.loaded
	e.mu.RUnlock()
	if !loaded {
		if err := e.Load(); err != nil {
			return err
		}
	}

	e.mu.RLock()
	tmpl, ok := e.pages[name]
	e.mu.RUnlock()
	if !ok {
		return fmt.Errorf("views: unknown template %q", name)
	}

	entry := defaultLayout
	if len(layout) > 0 && layout[0] != "" {
		entry = layout[0]
	}
	return tmpl.ExecuteTemplate(w, entry, binding)
}
