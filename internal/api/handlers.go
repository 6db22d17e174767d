package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/OSAS/mw2md/internal/apperr"
	"github.com/OSAS/mw2md/internal/catalog"
)

// Handler holds API route handlers.
type Handler struct {
	svc *catalog.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *catalog.Service) *Handler {
	return &Handler{svc: svc}
}

// wildcardTitle extracts a wiki title from the route wildcard. Titles may
// contain slashes and arrive percent-encoded.
func wildcardTitle(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListPages handles GET /api/pages.
//
//	@Summary		List converted pages with their output paths
//	@Tags			pages
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			prefix	query		string	false	"Title prefix"
//	@Success		200		{object}	PageListResponse
//	@Router			/pages [get]
func (h *Handler) ListPages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	pages, total, err := h.svc.ListPages(r.Context(), limit, offset, q.Get("prefix"))
	if err != nil {
		slog.Error("list pages failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, PageListResponse{Pages: pages, Total: total})
}

// GetPage handles GET /api/pages/*: the title's resolution and, when the
// document exists, its front-matter and body.
//
//	@Summary		Get a page by wiki title
//	@Tags			pages
//	@Produce		json
//	@Param			title	path		string	true	"Wiki title"
//	@Success		200		{object}	PageResponse
//	@Failure		404		{object}	errResponse
//	@Router			/pages/{title} [get]
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	title := wildcardTitle(r)
	if title == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("title is required"))
		return
	}
	res, err := h.svc.Resolve(r.Context(), title)
	if err != nil {
		writeLookupError(w, "resolve page", title, err)
		return
	}
	doc, err := h.svc.ReadDocument(r.Context(), res.Path)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		writeLookupError(w, "read document", title, err)
		return
	}
	writeJSON(w, http.StatusOK, PageResponse{Resolution: res, Document: doc})
}

// Resolve handles GET /api/resolve/*.
//
//	@Summary		Resolve a wiki title through redirects to its document URL
//	@Tags			pages
//	@Produce		json
//	@Param			title	path		string	true	"Wiki title"
//	@Success		200		{object}	catalog.Resolution
//	@Failure		404		{object}	errResponse
//	@Failure		508		{object}	errResponse
//	@Router			/resolve/{title} [get]
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	title := wildcardTitle(r)
	if title == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("title is required"))
		return
	}
	res, err := h.svc.Resolve(r.Context(), title)
	if err != nil {
		writeLookupError(w, "resolve", title, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ListRedirects handles GET /api/redirects.
func (h *Handler) ListRedirects(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.ListRedirects(r.Context())
	if err != nil {
		slog.Error("list redirects failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, RedirectListResponse{Redirects: rows})
}

// ListErrors handles GET /api/errors.
//
//	@Summary		List revisions that failed both conversion attempts
//	@Tags			runs
//	@Produce		json
//	@Success		200	{object}	ErrorListResponse
//	@Router			/errors [get]
func (h *Handler) ListErrors(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.ListErrors(r.Context())
	if err != nil {
		slog.Error("list errors failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, ErrorListResponse{Errors: rows})
}

// LatestRun handles GET /api/runs/latest.
func (h *Handler) LatestRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.svc.LatestRun(r.Context())
	if err != nil {
		writeLookupError(w, "latest run", "", err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across generated documents
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// WikiRedirect handles GET /wiki/*.
func (h *Handler) WikiRedirect(w http.ResponseWriter, r *http.Request) {
	h.redirect(w, r, wildcardTitle(r))
}

// IndexPHPRedirect handles GET /index.php?title=….
func (h *Handler) IndexPHPRedirect(w http.ResponseWriter, r *http.Request) {
	h.redirect(w, r, r.URL.Query().Get("title"))
}

func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, title string) {
	if strings.TrimSpace(title) == "" {
		http.Redirect(w, r, h.svc.URL("index"), http.StatusMovedPermanently)
		return
	}
	res, err := h.svc.Resolve(r.Context(), title)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		writeLookupError(w, "wiki redirect", title, err)
		return
	}
	http.Redirect(w, r, res.URL, http.StatusMovedPermanently)
}
