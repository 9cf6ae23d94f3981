package model

// Paging limits applied to list endpoints.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPage bounds the page number so Offset cannot overflow.
	MaxPage = 1_000_000
)

// PageRequest selects one page of a filtered listing. Query is matched as a
// case-insensitive substring; an empty Query matches everything.
type PageRequest struct {
	Page     int
	PageSize int
	Query    string
}

// Offset returns the number of rows to skip.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Page is one page of results together with the unpaged total.
type Page[T any] struct {
	Items    []T
	Page     int
	PageSize int
	Total    int
}

// TotalPages returns the number of pages needed to hold Total items.
func (p Page[T]) TotalPages() int {
	if p.PageSize <= 0 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}
