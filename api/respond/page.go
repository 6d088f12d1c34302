package respond

import (
	"net/http"
	"strconv"
)

// Page is the envelope for paginated list responses.
type Page struct {
	Items    any `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

const maxPageSize = 200

// Paging reads page/page_size query parameters with the original
// defaults: page 1, size 50, capped at 200.
func Paging(r *http.Request) (page, size int) {
	page, size = 1, 50
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil && v > 0 {
		size = v
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

// Slice cuts items to the requested page window.
func Slice[T any](items []T, page, size int) []T {
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
