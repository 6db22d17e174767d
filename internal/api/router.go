package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/OSAS/mw2md/internal/catalog"
)

// NewRouter creates a chi router with all catalog API routes mounted.
// An empty token disables Bearer token auth.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *catalog.Service, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(token != "", token))

	r.Get("/pages", h.ListPages)
	r.Get("/pages/*", h.GetPage)
	r.Get("/resolve/*", h.Resolve)
	r.Get("/redirects", h.ListRedirects)
	r.Get("/errors", h.ListErrors)
	r.Get("/runs/latest", h.LatestRun)
	r.Get("/search", h.Search)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}

// MountWikiRedirects adds the legacy wiki URL routes to r: /wiki/{title} and
// /index.php?title={title} answer with a permanent redirect to the page's
// new document URL.
func MountWikiRedirects(r chi.Router, svc *catalog.Service) {
	h := NewHandler(svc)
	r.Get("/wiki/*", h.WikiRedirect)
	r.Get("/index.php", h.IndexPHPRedirect)
}
