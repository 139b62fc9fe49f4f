package types

// Pagination defaults
const (
	DefaultPerPage = 10
	MaxPerPage     = 100
	// MaxPage keeps Offset far from int overflow
	MaxPage        = 1_000_000
)

// PageRequest selects one page of a listing (1-based)
type PageRequest struct {
	Page    int
	PerPage int
}

// Normalize applies defaults and clamps out-of-range values
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.PerPage < 1 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	return p
}

// Offset returns the number of rows to skip
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Page is one page of results plus the metadata needed to navigate
type Page[T any] struct {
	Items       []T
	CurrentPage int
	PerPage     int
	Total       int
	LastPage    int
}

// NewPage builds a page and derives LastPage from total.
// LastPage is at least 1 so an empty listing still has a first page.
func NewPage[T any](items []T, req PageRequest, total int) Page[T] {
	last := 1
	if req.PerPage > 0 && total > 0 {
		last = (total + req.PerPage - 1) / req.PerPage
	}
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:       items,
		CurrentPage: req.Page,
		PerPage:     req.PerPage,
		Total:       total,
		LastPage:    last,
	}
}
