// Package history is the generic paginated read path shared by the
// transaction, board and game history surfaces.
package history

import (
	"context"
	"fmt"

	"github.com/pickclub/platform/internal/domain"
)

// DefaultPageSize is used when the caller omits pageSize.
const DefaultPageSize = 20

// allowedPageSizes mirrors the page-size widget of the portal UI.
var allowedPageSizes = map[int]bool{10: true, 25: true, 50: true, 100: true}

// Source is one paginatable dataset. Implementations fix the filter and the
// sort-field whitelist; Page must order by the requested field with the row
// id as tiebreak so ties never reshuffle between requests.
type Source[T any] interface {
	Count(ctx context.Context) (int64, error)
	Page(ctx context.Context, sortField string, desc bool, limit, offset int) ([]T, error)
}

// Request is the caller's paging input. Zero SortField means the source's
// default ordering.
type Request struct {
	Page      int
	PageSize  int
	SortField string
	SortOrder domain.SortOrder
}

// Page is one page of results with the totals the pagination widget needs.
type Page[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"total_count"`
	PageCount  int   `json:"page_count"`
}

// Normalize validates the request and fills defaults. Page defaults to 1,
// PageSize to DefaultPageSize; any other size must be one of the allowed
// steps.
func (r Request) Normalize() (Request, error) {
	if r.Page == 0 {
		r.Page = 1
	}
	if r.Page < 1 {
		return r, domain.ErrValidation(fmt.Sprintf("page must be >= 1, got %d", r.Page))
	}
	if r.PageSize == 0 {
		r.PageSize = DefaultPageSize
	} else if !allowedPageSizes[r.PageSize] {
		return r, domain.ErrValidation(fmt.Sprintf("page size %d not allowed (10, 25, 50 or 100)", r.PageSize))
	}
	if r.SortOrder == "" {
		r.SortOrder = domain.SortDesc
	}
	return r, nil
}

// PageCountFor is ceil(total / size).
func PageCountFor(total int64, size int) int {
	if total <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}

// Query runs one paginated read. A page beyond the last returns empty items
// with the correct totals, never an error.
func Query[T any](ctx context.Context, src Source[T], req Request) (*Page[T], error) {
	req, err := req.Normalize()
	if err != nil {
		return nil, err
	}

	total, err := src.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count: %w", err)
	}

	out := &Page[T]{
		Items:      []T{},
		TotalCount: total,
		PageCount:  PageCountFor(total, req.PageSize),
	}
	if req.Page > out.PageCount {
		return out, nil
	}

	offset := (req.Page - 1) * req.PageSize
	items, err := src.Page(ctx, req.SortField, req.SortOrder == domain.SortDesc, req.PageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("page: %w", err)
	}
	out.Items = items
	return out, nil
}
