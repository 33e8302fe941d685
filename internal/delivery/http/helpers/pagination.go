package helpers

import (
	"net/http"
	"strconv"

	"guestgate/internal/domain"
)

// Pagination query parameter defaults and limits.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

func queryInt(r *http.Request, key, fallback string) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		s = fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}

// ParsePagination reads page and page_size from the query string and
// clamps them: page >= 1, page_size in [1, MaxPageSize]. Anything
// unparsable falls back to the defaults.
func ParsePagination(r *http.Request) domain.PaginationParams {
	page := queryInt(r, "page", strconv.Itoa(DefaultPage))
	if page < 1 {
		page = DefaultPage
	}
	size := queryInt(r, "page_size", strconv.Itoa(DefaultPageSize))
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return domain.PaginationParams{Page: page, PageSize: size}
}

// PaginationMeta is the pagination block of paginated list responses.
// swagger:model PaginationMeta
type PaginationMeta struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPaginationMeta builds PaginationMeta for the given page and total
// row count. TotalPages rounds up; a zero page size yields zero pages.
func NewPaginationMeta(page, pageSize, total int) PaginationMeta {
	meta := PaginationMeta{Page: page, PageSize: pageSize, Total: total}
	if pageSize > 0 {
		meta.TotalPages = (total + pageSize - 1) / pageSize
	}
	return meta
}
