// Package search is the generic filter/count/page engine shared by every
// catalog listing. It operates on already materialized entities so filters
// can inspect related records (a book search matches author fields, the
// availability filter reads borrowing state at query time).
package search

import (
	"strings"

	"github.com/avolkov/libris/internal/apperr"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 25
	// MinTermLength is the shortest accepted free-text search term.
	MinTermLength = 3
)

// Params is a validated page request. Term is already lower-cased and empty
// when no free-text search was requested.
type Params struct {
	Page     int
	PageSize int
	Term     string
}

// Normalize validates raw paging input and applies defaults. A nil page or
// pageSize means the caller did not specify one.
func Normalize(page, pageSize *int, term string) (Params, error) {
	p := Params{Page: DefaultPage, PageSize: DefaultPageSize}
	if page != nil {
		if *page < 1 {
			return Params{}, apperr.Argument("page must be a positive integer, got %d", *page)
		}
		p.Page = *page
	}
	if pageSize != nil {
		if *pageSize < 1 {
			return Params{}, apperr.Argument("pageSize must be a positive integer, got %d", *pageSize)
		}
		p.PageSize = *pageSize
	}
	if term != "" {
		if len([]rune(term)) < MinTermLength {
			return Params{}, apperr.Argument(
				"searchTerm must be at least %d characters, got %q", MinTermLength, term)
		}
		p.Term = strings.ToLower(term)
	}
	return p, nil
}

// Page is one slice of a filtered result set.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// Filter keeps the items matching every predicate. Predicates are
// conjunctive; order does not change the result.
func Filter[T any](items []T, preds ...func(T) bool) []T {
	if len(preds) == 0 {
		return items
	}
	matched := make([]T, 0, len(items))
outer:
	for _, item := range items {
		for _, pred := range preds {
			if !pred(item) {
				continue outer
			}
		}
		matched = append(matched, item)
	}
	return matched
}

// Paginate counts the filtered set and slices out the requested page.
// Page 1 of an empty set is valid; any page beyond the last one fails.
func Paginate[T any](items []T, p Params) (Page[T], error) {
	total := len(items)
	totalPages := (total + p.PageSize - 1) / p.PageSize

	if total > 0 && p.Page > totalPages {
		return Page[T]{}, apperr.Conflict(
			"page %d is out of range: %d result(s) fit in %d page(s) of size %d",
			p.Page, total, totalPages, p.PageSize)
	}

	start := (p.Page - 1) * p.PageSize
	end := start + p.PageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Page[T]{
		Items:      items[start:end],
		Total:      total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: totalPages,
	}, nil
}

// MatchesTerm reports whether any field contains the lower-cased term.
func MatchesTerm(term string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}
