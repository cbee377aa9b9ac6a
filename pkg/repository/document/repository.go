// Package document provides the document-store contract used by the service layer
// and its MongoDB and in-memory implementations.
package document

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when no document matches an id.
var ErrNotFound = errors.New("document not found")

// DuplicateKeyError reports a unique index violation. Fields names the conflicting keys.
type DuplicateKeyError struct {
	Fields []string
	Cause  error
}

func (e *DuplicateKeyError) Error() string {
	if len(e.Fields) == 0 {
		return "duplicate key"
	}
	return fmt.Sprintf("duplicate key on %s", strings.Join(e.Fields, ","))
}

// Unwrap exposes the driver error.
func (e *DuplicateKeyError) Unwrap() error {
	return e.Cause
}

// Filter represents field-based filtering criteria for document stores.
// Values are passed to the store verbatim.
type Filter map[string]interface{}

// Sort specifies field and direction for sorting results.
type Sort struct {
	Field string
	Order SortOrder
}

// SortOrder defines the direction of sorting.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Pagination specifies page-based pagination. A zero Limit means no limit.
type Pagination struct {
	Page  int
	Limit int
}

// Skip returns the number of documents to skip.
func (p Pagination) Skip() int {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// QueryOptions encapsulates filtering, sorting, and pagination options for document queries.
type QueryOptions struct {
	Filter     Filter
	Sort       Sort
	Pagination Pagination
}

// Reader provides read operations for document entities.
type Reader[T any] interface {
	Find(ctx context.Context, opts QueryOptions) ([]T, error)
	FindByID(ctx context.Context, id string) (*T, error)
}

// Writer provides write operations for document entities.
// Write methods return the stored representation of the affected document.
type Writer[T any] interface {
	Insert(ctx context.Context, doc *T) (*T, error)
	UpdateByID(ctx context.Context, id string, updates map[string]interface{}) (*T, error)
	DeleteByID(ctx context.Context, id string) (*T, error)
}

// Collection is one named document collection.
type Collection[T any] interface {
	Reader[T]
	Writer[T]
	Name() string
}

// IsDuplicateKey reports whether err is a unique index violation and returns it.
func IsDuplicateKey(err error) (*DuplicateKeyError, bool) {
	var dup *DuplicateKeyError
	if errors.As(err, &dup) {
		return dup, true
	}
	return nil, false
}
