// Package pagination turns a page index, page size and sort directive into
// the skip/take window and navigation metadata for a listing over an ordered
// collection. The store owns ordering and slicing; this package only
// normalizes inputs and computes the surrounding metadata.
package pagination

import (
	"errors"
	"fmt"
	"strings"
)

const (
	DefaultPage    = 1
	DefaultPerPage = 10
)

// ErrUnknownSortField is returned by ParseSort for directives naming a field
// outside the sortable set. Raw directives never reach the query layer.
var ErrUnknownSortField = errors.New("unknown sort field")

// Field names a directory attribute the collection can be ordered by.
type Field string

const (
	FieldName    Field = "name"
	FieldEmail   Field = "email"
	FieldAge     Field = "age"
	FieldCreated Field = "created"
)

var sortable = map[Field]bool{
	FieldName:    true,
	FieldEmail:   true,
	FieldAge:     true,
	FieldCreated: true,
}

// Sort is a parsed sort directive.
type Sort struct {
	Field      Field
	Descending bool
}

// Normalize replaces non-positive page and perPage values with the defaults
// (1 and 10). No upper bound is enforced on perPage; callers such as export
// may legitimately request everything in one page. Idempotent.
func Normalize(page, perPage int) (int, int) {
	if page <= 0 {
		page = DefaultPage
	}
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	return page, perPage
}

// ParseSort parses a compact sort directive: a leading '-' selects descending
// order, the remainder names the field. An empty directive sorts ascending by
// name. Unknown fields are rejected.
func ParseSort(directive string) (Sort, error) {
	if directive == "" {
		return Sort{Field: FieldName}, nil
	}
	s := Sort{}
	name := directive
	if strings.HasPrefix(directive, "-") {
		s.Descending = true
		name = directive[1:]
	}
	f := Field(name)
	if !sortable[f] {
		return Sort{}, fmt.Errorf("%w: %q", ErrUnknownSortField, name)
	}
	s.Field = f
	return s, nil
}

// Offset converts a normalized (page, perPage) pair into the number of items
// the store should skip.
func Offset(page, perPage int) int {
	return (page - 1) * perPage
}

// Result is one page of an ordered collection plus navigation metadata.
// Prev and Next are nil when there is no previous or next page.
type Result[T any] struct {
	First int  `json:"first"`
	Prev  *int `json:"prev"`
	Next  *int `json:"next"`
	Last  int  `json:"last"`
	Pages int  `json:"pages"`
	Items int  `json:"items"`
	Data  []T  `json:"data"`
}

// NewResult computes navigation metadata for the given window.
//
// pages = ceil(totalItems/perPage); zero items means zero pages. Requesting a
// page beyond the last is not an error: data is simply empty and prev still
// points into range, mirroring skip/take semantics.
func NewResult[T any](page, perPage, totalItems int, data []T) Result[T] {
	page, perPage = Normalize(page, perPage)
	pages := 0
	if totalItems > 0 {
		pages = (totalItems + perPage - 1) / perPage
	}
	r := Result[T]{
		First: DefaultPage,
		Last:  pages,
		Pages: pages,
		Items: totalItems,
		Data:  data,
	}
	if page > 1 {
		prev := page - 1
		r.Prev = &prev
	}
	if page < pages {
		next := page + 1
		r.Next = &next
	}
	if r.Data == nil {
		r.Data = []T{}
	}
	return r
}
