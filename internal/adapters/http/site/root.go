// Package site serves the upload form page.
package site

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
)

// Error constants
var (
	ErrRender = errors.New("site render failed")
)

//go:embed static
var staticFiles embed.FS

// PageData configures the form page.
type PageData struct {
	Title           string
	DeliveryEnabled bool
}

// Register attaches the form page and its static assets to r.
func Register(_ context.Context, r chi.Router, data PageData) {
	if r == nil {
		panic("router is nil")
	}

	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(sub))))
	r.Get("/", NewRootHandler(data).HandleRoot)
}

// RootHandler renders the upload form.
type RootHandler struct {
	page templ.Component
}

// NewRootHandler creates a new root handler.
func NewRootHandler(data PageData) *RootHandler {
	return &RootHandler{page: Page(data)}
}

// HandleRoot handles GET / requests.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.page.Render(r.Context(), w); err != nil {
		http.Error(w, ErrRender.Error(), http.StatusInternalServerError)
	}
}

func (d PageData) title() string {
	if d.Title == "" {
		return "TOPSIS"
	}
	return d.Title
}
