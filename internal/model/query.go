package model

import "time"

// Pagination defaults.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// BookQuery holds the caller-supplied list filters. Zero values mean "not set".
type BookQuery struct {
	Status string
	Tag    string
	Search string
	Page   int
	Limit  int
}

// BookFilter is the normalized, owner-scoped predicate passed to the store.
type BookFilter struct {
	UserID string
	Status BookStatus
	Tag    string
	Search string
}

// Page is a normalized page window.
type Page struct {
	Page  int
	Limit int
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// NormalizePage applies defaults and clamps: page >= 1, 1 <= limit <= MaxLimit.
// Zero means "not provided" and takes the default.
func NormalizePage(page, limit int) Page {
	if page == 0 {
		page = DefaultPage
	}
	if page < 1 {
		page = 1
	}

	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Page{Page: page, Limit: limit}
}

// PaginationMeta describes a page of results.
type PaginationMeta struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

// NewPaginationMeta computes pages = ceil(total/limit).
func NewPaginationMeta(total int, p Page) PaginationMeta {
	pages := 0
	if p.Limit > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return PaginationMeta{Total: total, Page: p.Page, Limit: p.Limit, Pages: pages}
}

// BookList is one page of books plus its pagination metadata.
type BookList struct {
	Books      []BookResponse
	Pagination PaginationMeta
}

// NameCount is a frequency entry for tags or authors.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// StatusCounts holds book counts per reading status.
type StatusCounts struct {
	WantToRead int `json:"wantToRead"`
	Reading    int `json:"reading"`
	Completed  int `json:"completed"`
}

// StatusCountsWithTotal adds the sum of all statuses.
type StatusCountsWithTotal struct {
	StatusCounts
	Total int `json:"total"`
}

// RecentBook is the projection used by the dashboard.
type RecentBook struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Author    string     `json:"author"`
	Status    BookStatus `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
}

// DashboardStats is the aggregated summary of a user's collection.
type DashboardStats struct {
	TotalBooks   int          `json:"totalBooks"`
	StatusCounts StatusCounts `json:"statusCounts"`
	Tags         []NameCount  `json:"tags"`
	RecentBooks  []RecentBook `json:"recentBooks"`
	TopAuthors   []NameCount  `json:"topAuthors"`
}
