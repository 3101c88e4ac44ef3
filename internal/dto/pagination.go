package dto

import "github.com/gin-gonic/gin"

const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 100
)

// Pagination carries the page/page_size query parameters of list endpoints.
type Pagination struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

// ParsePagination binds page/page_size from the query string with sane bounds.
func ParsePagination(c *gin.Context) Pagination {
	p := Pagination{Page: defaultPage, PageSize: defaultPageSize}
	_ = c.ShouldBindQuery(&p)
	if p.Page < 1 {
		p.Page = defaultPage
	}
	if p.PageSize < 1 {
		p.PageSize = defaultPageSize
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
	return p
}

// Paginated is the common envelope of list responses.
type Paginated[T any] struct {
	Data       []T   `json:"data"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

// NewPaginated wraps data in the list envelope.
func NewPaginated[T any](data []T, total int64, p Pagination) *Paginated[T] {
	totalPages := total / int64(p.PageSize)
	if total%int64(p.PageSize) != 0 {
		totalPages++
	}
	if data == nil {
		data = []T{}
	}
	return &Paginated[T]{
		Data:       data,
		Page:       p.Page,
		PageSize:   p.PageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}
