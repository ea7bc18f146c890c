// Package views renders the HTML pages. Every page template is parsed
// together with the shared layout at startup; Render executes into a buffer
// first so a template error never leaks a half-written page.
package views

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strings"

	"bookstore/sessions"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = map[string]*template.Template{}

func init() {
	entries, err := fs.ReadDir(templateFS, "templates")
	if err != nil {
		panic(err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if name == "layout.html" {
			continue
		}
		pages[strings.TrimSuffix(name, ".html")] = template.Must(
			template.ParseFS(templateFS, "templates/layout.html", "templates/"+name))
	}
}

// Page carries the layout chrome plus the page-specific Data.
type Page struct {
	Title     string
	LoggedIn  bool
	IsAdmin   bool
	UserName  string
	CartCount int
	Flashes   []sessions.Flash
	Data      any
}

// Render writes the named page with the given status code.
func Render(w http.ResponseWriter, status int, name string, p Page) {
	tmpl, ok := pages[name]
	if !ok {
		log.Printf("views: no template %q", name)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", p); err != nil {
		log.Printf("views: render %q: %v", name, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
