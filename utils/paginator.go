package utils

import (
	"strconv"
	"strings"
)

// PageSize is the number of items shown on every paginated listing.
const PageSize = 10

// Page is one slice of an ordered listing plus what templates need to render
// the paginator.
type Page[T any] struct {
	Items   []T
	Number  int
	PerPage int
	Total   int64
}

// NewPage builds a page view model for 1-indexed page number n.
func NewPage[T any](items []T, n int, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Number: n, PerPage: PageSize, Total: total}
}

// Len is the number of items on this page.
func (p Page[T]) Len() int { return len(p.Items) }

// NumPages is the page count, at least 1 so an empty listing still has a first page.
func (p Page[T]) NumPages() int {
	per := int64(p.PerPage)
	if per <= 0 {
		per = PageSize
	}
	n := int((p.Total + per - 1) / per)
	if n < 1 {
		return 1
	}
	return n
}

func (p Page[T]) HasNext() bool     { return p.Number < p.NumPages() }
func (p Page[T]) HasPrevious() bool { return p.Number > 1 }
func (p Page[T]) NextNumber() int   { return p.Number + 1 }
func (p Page[T]) PreviousNumber() int {
	if p.Number <= 1 {
		return 1
	}
	return p.Number - 1
}

// ParsePage reads a ?page= value. Anything that is not a positive integer means page 1.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Offset returns the index of the first item on page n.
func Offset(n int) int {
	if n < 1 {
		n = 1
	}
	return (n - 1) * PageSize
}

// SlicePage returns items [(n-1)*PageSize, n*PageSize) of an ordered sequence,
// empty when n is past the end.
func SlicePage[T any](items []T, n int) []T {
	start := Offset(n)
	if start >= len(items) {
		return []T{}
	}
	end := start + PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
