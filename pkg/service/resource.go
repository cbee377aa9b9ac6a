// Package service implements the storefront resource services on top of the
// document store.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nimburion/storefront/pkg/apperror"
	"github.com/nimburion/storefront/pkg/observability/logger"
	"github.com/nimburion/storefront/pkg/repository/document"
)

// CRUD is the capability every resource service offers to the HTTP layer.
type CRUD[T any] interface {
	Add(ctx context.Context, doc *T) (*T, error)
	Get(ctx context.Context, query document.QueryOptions) ([]T, error)
	GetByID(ctx context.Context, id string) (*T, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) (*T, error)
	Delete(ctx context.Context, id string) (*T, error)
}

// Resource implements CRUD over exactly one collection. Specialized services
// embed it and override what differs.
type Resource[T any] struct {
	coll document.Collection[T]
	log  logger.Logger
}

// NewResource binds a service to coll.
func NewResource[T any](coll document.Collection[T], log logger.Logger) *Resource[T] {
	return &Resource[T]{coll: coll, log: log.With("collection", coll.Name())}
}

// Add persists doc and returns the stored record with its assigned id.
func (r *Resource[T]) Add(ctx context.Context, doc *T) (*T, error) {
	stored, err := r.coll.Insert(ctx, doc)
	if err != nil {
		return nil, r.translate(ctx, "create", err, "Failed to run query to create object", nil)
	}
	return stored, nil
}

// Get returns every record matching query. No match is a NotFound error.
func (r *Resource[T]) Get(ctx context.Context, query document.QueryOptions) ([]T, error) {
	return r.find(ctx, query, "Nothing was found having this data")
}

func (r *Resource[T]) find(ctx context.Context, query document.QueryOptions, notFound string) ([]T, error) {
	found, err := r.coll.Find(ctx, query)
	if err != nil {
		return nil, r.translate(ctx, "find", err, "Failed to run query to find objects", nil)
	}
	if len(found) == 0 {
		return nil, apperror.NotFound(notFound, filterContext(query.Filter))
	}
	return found, nil
}

// GetByID returns one record or NotFound.
func (r *Resource[T]) GetByID(ctx context.Context, id string) (*T, error) {
	found, err := r.coll.FindByID(ctx, id)
	if err != nil {
		return nil, r.translate(ctx, "find", err, "Failed to run query to find object", map[string]interface{}{"id": id})
	}
	return found, nil
}

// Update applies updates to an existing record and returns it as updated.
func (r *Resource[T]) Update(ctx context.Context, id string, updates map[string]interface{}) (*T, error) {
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	updated, err := r.coll.UpdateByID(ctx, id, updates)
	if err != nil {
		return nil, r.translate(ctx, "update", err, "Failed to run query to update object", map[string]interface{}{"id": id})
	}
	return updated, nil
}

// Delete removes an existing record and returns what was removed.
func (r *Resource[T]) Delete(ctx context.Context, id string) (*T, error) {
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return r.remove(ctx, id)
}

func (r *Resource[T]) remove(ctx context.Context, id string) (*T, error) {
	removed, err := r.coll.DeleteByID(ctx, id)
	if err != nil {
		return nil, r.translate(ctx, "delete", err, "Failed to run query to delete object", map[string]interface{}{"id": id})
	}
	return removed, nil
}

// translate maps a store error onto the error taxonomy. Already classified
// errors pass through unchanged.
func (r *Resource[T]) translate(ctx context.Context, op string, err error, message string, lookup map[string]interface{}) error {
	if _, ok := apperror.As(err); ok {
		return err
	}
	if errors.Is(err, document.ErrNotFound) {
		return apperror.NotFound("Nothing was found with this id.", lookup)
	}
	if dup, ok := document.IsDuplicateKey(err); ok {
		return apperror.InvalidDuplicateEntry(duplicateMessage(dup.Fields))
	}
	r.log.WithContext(ctx).Error("store operation failed", "operation", op, "error", err)
	return apperror.InternalServerError(message, err)
}

func duplicateMessage(fields []string) string {
	if len(fields) == 0 {
		return "entry already exists"
	}
	return fmt.Sprintf("%s already exists", strings.Join(fields, ","))
}

func filterContext(filter document.Filter) map[string]interface{} {
	if len(filter) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(filter))
	for k, v := range filter {
		out[k] = v
	}
	return out
}
