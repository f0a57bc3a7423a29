// Package site serves the browser search and upload pages.
package site

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/okian/gwrank/internal/domain/model"
	"github.com/okian/gwrank/pkg/logger"
)

// ErrRender wraps template execution failures.
var ErrRender = errors.New("site render failed")

//go:embed static templates
var siteFS embed.FS

var pages = template.Must(template.ParseFS(siteFS, "templates/*.html"))

// RangeProvider reports the stored event range for the search form.
type RangeProvider interface {
	GetEventRange(ctx context.Context) (model.EventRange, error)
}

// FS returns an http.FileSystem for the embedded static assets.
func FS() http.FileSystem {
	sub, err := fs.Sub(siteFS, "static")
	if err != nil {
		return http.FS(siteFS)
	}
	return http.FS(sub)
}

// Register attaches the site routes to r.
func Register(_ context.Context, r *mux.Router, ranges RangeProvider) {
	if r == nil {
		panic("router is nil")
	}

	h := &RootHandler{ranges: ranges, logger: logger.Get().Named("site")}
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(FS()))).Methods(http.MethodGet)
	r.HandleFunc("/upload", h.HandleUpload).Methods(http.MethodGet)
	r.HandleFunc("/", h.HandleRoot).Methods(http.MethodGet)
}

// RootHandler renders the HTML pages.
type RootHandler struct {
	ranges RangeProvider
	logger logger.Logger
}

type indexData struct {
	HasData bool
	Min     int
	Max     int
}

// HandleRoot handles GET / requests with the search page.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	var data indexData
	if h.ranges != nil {
		rng, err := h.ranges.GetEventRange(r.Context())
		if err == nil {
			data = indexData{HasData: true, Min: rng.Min, Max: rng.Max}
		}
	}
	h.render(w, r, "index.html", data)
}

// HandleUpload handles GET /upload requests with the upload form.
func (h *RootHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "upload.html", nil)
}

func (h *RootHandler) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error(r.Context(), "render page",
			logger.String("page", name),
			logger.Error(errors.Join(ErrRender, err)))
	}
}
