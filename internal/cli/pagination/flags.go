package pagination

import (
	"errors"
	"fmt"
	"strings"
)

// Limits and defaults for the dump flags.
const (
	DefaultMaxPages  = 10
	MaxMaxPages      = 1000
	DefaultLimit     = 0
	MaxLimit         = 100000
	DefaultOffset    = 0
	DefaultSortField = ""
	DefaultSortOrder = "asc"
	SortOrderAsc     = "asc"
	SortOrderDesc    = "desc"
)

// Validation errors.
var (
	ErrInvalidMaxPages   = errors.New("max-pages must be between 1 and 1000")
	ErrInvalidLimit      = errors.New("limit must be between 0 and 100000")
	ErrInvalidOffset     = errors.New("offset must be non-negative")
	ErrInvalidSortOrder  = errors.New("sort order must be 'asc' or 'desc'")
	ErrInvalidSortFormat = errors.New("invalid sort format: use 'field' or 'field:order' (e.g., 'text:desc')")
	ErrEmptySortField    = errors.New("sort field cannot be empty")
	ErrInvalidSortField  = errors.New("invalid sort field")
)

// Params holds the dump limits. A Limit of 0 means no item limit; MaxPages
// always bounds the number of fetched pages.
type Params struct {
	// MaxPages is the number of pages fetched at most, the first page included.
	MaxPages int

	// Limit is the maximum number of items returned.
	Limit int

	// Offset is the number of items skipped before Limit applies.
	Offset int

	// SortField is the field name to sort by; empty keeps document order.
	SortField string

	// SortOrder is the sort direction: "asc" or "desc".
	SortOrder string
}

// NewParams creates Params with default values.
func NewParams() *Params {
	return &Params{
		MaxPages:  DefaultMaxPages,
		Limit:     DefaultLimit,
		Offset:    DefaultOffset,
		SortField: DefaultSortField,
		SortOrder: DefaultSortOrder,
	}
}

// Validate checks the bounds of every field.
func (p Params) Validate() error {
	if p.MaxPages < 1 || p.MaxPages > MaxMaxPages {
		return fmt.Errorf("%w: got %d", ErrInvalidMaxPages, p.MaxPages)
	}
	if p.Limit < 0 || p.Limit > MaxLimit {
		return fmt.Errorf("%w: got %d", ErrInvalidLimit, p.Limit)
	}
	if p.Offset < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidOffset, p.Offset)
	}
	if p.SortOrder != SortOrderAsc && p.SortOrder != SortOrderDesc {
		return fmt.Errorf("%w: got %q", ErrInvalidSortOrder, p.SortOrder)
	}
	return nil
}

// sortPartsMax is the maximum number of parts in a sort string (field:order).
const sortPartsMax = 2

// ParseSort parses a sort string in the format "field" or "field:order".
// Examples: "text", "title:desc".
//
//nolint:nonamedreturns // Named returns improve readability for this multi-value function.
func ParseSort(sortStr string) (field, order string, err error) {
	if sortStr == "" {
		return DefaultSortField, DefaultSortOrder, nil
	}

	parts := strings.Split(sortStr, ":")
	switch len(parts) {
	case 1:
		field = strings.TrimSpace(parts[0])
		order = DefaultSortOrder
	case sortPartsMax:
		field = strings.TrimSpace(parts[0])
		order = strings.ToLower(strings.TrimSpace(parts[1]))
	default:
		return "", "", fmt.Errorf("%w: %q", ErrInvalidSortFormat, sortStr)
	}

	if field == "" {
		return "", "", ErrEmptySortField
	}
	if order != SortOrderAsc && order != SortOrderDesc {
		return "", "", fmt.Errorf("%w: got %q", ErrInvalidSortOrder, order)
	}
	return field, order, nil
}

// Wanted is the number of items after which no further page is needed,
// or 0 when every page up to MaxPages must be read.
// Sorting needs the whole set, so a sort field disables the early stop.
func (p Params) Wanted() int {
	if p.Limit == 0 || p.SortField != "" {
		return 0
	}
	return p.Offset + p.Limit
}

// StopReason explains why the dump stopped following next-page links.
type StopReason string

// Stop reasons.
const (
	StopExhausted StopReason = "exhausted"
	StopMaxPages  StopReason = "max-pages"
	StopLimit     StopReason = "limit"
	StopCycle     StopReason = "cycle"
)

// ShouldStop reports whether another page should be fetched after pages
// pages yielding items items, and if not, why. hasNext is whether the last
// page carried a next-page link.
func (p Params) ShouldStop(pages, items int, hasNext bool) (bool, StopReason) {
	switch {
	case !hasNext:
		return true, StopExhausted
	case p.Wanted() > 0 && items >= p.Wanted():
		return true, StopLimit
	case pages >= p.MaxPages:
		return true, StopMaxPages
	}
	return false, ""
}

// Apply returns the Offset/Limit window of items. The input is not modified.
func Apply[T any](p Params, items []T) []T {
	if p.Offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if p.Limit > 0 && p.Offset+p.Limit < end {
		end = p.Offset + p.Limit
	}
	out := make([]T, end-p.Offset)
	copy(out, items[p.Offset:end])
	return out
}
