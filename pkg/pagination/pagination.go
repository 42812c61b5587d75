// Package pagination provides page/limit paging helpers for the sandbox
// patient service. Pages are 1-based, matching the remote contract.
package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultPage  = 1
	DefaultLimit = 5
	MaxLimit     = 100
)

// Params holds paging parameters extracted from a request.
type Params struct {
	Page  int
	Limit int
}

// FromContext extracts paging parameters from the echo context, applying
// defaults and the limit cap.
func FromContext(c echo.Context) Params {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page <= 0 {
		page = DefaultPage
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Params{Page: page, Limit: limit}
}

// Bounds returns the half-open [start, end) slice bounds for this page
// of a collection with the given total size.
func (p Params) Bounds(total int) (start, end int) {
	start = (p.Page - 1) * p.Limit
	if start > total {
		start = total
	}
	end = start + p.Limit
	if end > total {
		end = total
	}
	return start, end
}

// HasNext reports whether another page follows this one.
func (p Params) HasNext(total int) bool {
	return p.Page*p.Limit < total
}

// Info is the pagination block included in page responses.
type Info struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	HasNext bool `json:"hasNext"`
}

// NewInfo builds the pagination block for a page over a collection of
// the given total size.
func NewInfo(p Params, total int) Info {
	return Info{
		Page:    p.Page,
		Limit:   p.Limit,
		Total:   total,
		HasNext: p.HasNext(total),
	}
}
