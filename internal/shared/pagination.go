package shared

import "math"

const defaultPerPage = 50

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPagination computes pagination metadata.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// LimitOffset converts the pagination request into SQL limit/offset values.
func (p Pagination) LimitOffset() (int, int) {
	perPage := p.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	page := p.Page
	if page <= 0 {
		page = 1
	}
	return perPage, (page - 1) * perPage
}
