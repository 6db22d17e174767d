package api

import (
	"github.com/OSAS/mw2md/internal/catalog"
	"github.com/OSAS/mw2md/internal/index"
)

// PageListResponse wraps paginated page listings.
type PageListResponse struct {
	Pages []index.PageRow `json:"pages" validate:"required"`
	Total int             `json:"total" example:"42"`
}

// PageResponse is a resolved page together with its document.
type PageResponse struct {
	Resolution *catalog.Resolution `json:"resolution" validate:"required"`
	Document   *catalog.Document   `json:"document,omitempty"`
}

// RedirectListResponse wraps the redirect listing.
type RedirectListResponse struct {
	Redirects []index.RedirectRow `json:"redirects" validate:"required"`
}

// ErrorListResponse wraps the failed conversion listing.
type ErrorListResponse struct {
	Errors []index.ErrorRow `json:"errors" validate:"required"`
}

// SearchResponse wraps full-text search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}
