package device

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Pagination is a normalized page request. Build it with NewPagination;
// out of range input is clamped, never rejected.
type Pagination struct {
	Page int
	Size int
}

// NewPagination clamps page to >= 1 and size to 1..MaxPageSize. A size
// below 1 means "not provided" and resolves to DefaultPageSize.
func NewPagination(page, size int) Pagination {
	if page < 1 {
		page = DefaultPage
	}
	switch {
	case size < 1:
		size = DefaultPageSize
	case size > MaxPageSize:
		size = MaxPageSize
	}
	return Pagination{Page: page, Size: size}
}

// Normalize re-applies the clamping rules, for values built by hand.
func (p Pagination) Normalize() Pagination {
	return NewPagination(p.Page, p.Size)
}

// Skip is the number of rows before the page.
func (p Pagination) Skip() int {
	return (p.Page - 1) * p.Size
}

// ClampPage returns requested clamped to [1, ceil(total/size)], or 1 when
// there is nothing to page through.
func ClampPage(requested, size, total int) int {
	if total <= 0 || size <= 0 {
		return 1
	}
	maxPage := totalPages(total, size)
	if requested > maxPage {
		return maxPage
	}
	if requested < 1 {
		return 1
	}
	return requested
}

// Page is one page of a listing together with the pagination actually used.
type Page[T any] struct {
	Items      []T `json:"items"`
	PageNumber int `json:"pageNumber"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
	TotalPages int `json:"totalPages"`
}

// NewPage assembles a page and derives TotalPages.
func NewPage[T any](items []T, page, size, total int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:      items,
		PageNumber: page,
		PageSize:   size,
		TotalCount: total,
		TotalPages: totalPages(total, size),
	}
}

// EmptyPage is the result of a listing with no matches.
func EmptyPage[T any](p Pagination) Page[T] {
	return NewPage[T](nil, 1, p.Size, 0)
}

func (p Page[T]) HasPrevious() bool { return p.PageNumber > 1 }

func (p Page[T]) HasNext() bool { return p.PageNumber < p.TotalPages }

// MapPage converts the items of a page, keeping its pagination fields.
func MapPage[T, U any](p Page[T], fn func(T) U) Page[U] {
	items := make([]U, len(p.Items))
	for i, item := range p.Items {
		items[i] = fn(item)
	}
	return Page[U]{
		Items:      items,
		PageNumber: p.PageNumber,
		PageSize:   p.PageSize,
		TotalCount: p.TotalCount,
		TotalPages: p.TotalPages,
	}
}

func totalPages(total, size int) int {
	if size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}
