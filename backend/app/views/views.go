// Package views renders the server-side HTML pages.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"blog-system/backend/app/dto"
)

//go:embed templates/*.html
var files embed.FS

const (
	PageList    = "list"
	PageDetails = "details"
	PageCreate  = "create"
	PageEdit    = "edit"
	PageDelete  = "delete"
	PageLogin   = "login"
	PageError   = "error"
)

var pages = []string{PageList, PageDetails, PageCreate, PageEdit, PageDelete, PageLogin, PageError}

// Page is the envelope every template receives. Data holds the page model.
type Page struct {
	Title   string
	User    string
	IsAdmin bool
	Data    any
}

type ListView struct {
	Heading  string
	Articles []dto.ArticleResponse
}

type FormView struct {
	Form   dto.ArticleForm
	Errors map[string]string
}

type LoginView struct {
	Username  string
	ReturnURL string
	Error     string
}

type ErrorView struct {
	Status  int
	Message string
}

type Renderer struct {
	templates map[string]*template.Template
}

var funcs = template.FuncMap{
	"formatDate": func(t time.Time) string { return t.Local().Format("2006-01-02 15:04") },
}

func New() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template, len(pages))}
	for _, p := range pages {
		t, err := template.New("layout").Funcs(funcs).ParseFS(files, "templates/layout.html", "templates/"+p+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", p, err)
		}
		r.templates[p] = t
	}
	return r, nil
}

// Render executes into a buffer first so a template error never leaves a
// half-written page behind.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data Page) error {
	t, ok := r.templates[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
