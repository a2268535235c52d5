package models

import "strings"

// MaxRetry is the upper bound on the caller-supplied retry budget.
const MaxRetry = 3

// SearchRequest is the request body for POST /api/v1/search.
// The GET form carries the same fields as query parameters.
type SearchRequest struct {
	// Keyword is the search term. Required, non-empty.
	Keyword string `json:"keyword" form:"keyword"`

	// Retry is the rendering-backend retry budget (0-3).
	Retry int `json:"retry" form:"retry"`

	// MaxAgeMs enables the result cache: a cached response younger than
	// this many milliseconds is returned without invoking the backends.
	// Zero or negative disables cache lookup.
	MaxAgeMs int `json:"max_age_ms" form:"max_age_ms"`
}

// Defaults clamps the retry budget into its valid range and trims the keyword.
func (r *SearchRequest) Defaults() {
	r.Keyword = strings.TrimSpace(r.Keyword)
	if r.Retry < 0 {
		r.Retry = 0
	}
	if r.Retry > MaxRetry {
		r.Retry = MaxRetry
	}
}

// Validate returns a ScrapeError describing the first invalid field, or nil.
func (r *SearchRequest) Validate() *ScrapeError {
	if r.Keyword == "" {
		return NewScrapeError(ErrCodeInvalidInput, "keyword is required", nil)
	}
	return nil
}
