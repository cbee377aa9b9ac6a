package service

import (
	"context"
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/nimburion/storefront/pkg/apperror"
	"github.com/nimburion/storefront/pkg/model"
	"github.com/nimburion/storefront/pkg/observability/logger"
	"github.com/nimburion/storefront/pkg/repository/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// brokenCollection fails every call with err.
type brokenCollection[T any] struct {
	err error
}

func (b brokenCollection[T]) Name() string { return "broken" }
func (b brokenCollection[T]) Find(context.Context, document.QueryOptions) ([]T, error) {
	return nil, b.err
}
func (b brokenCollection[T]) FindByID(context.Context, string) (*T, error) { return nil, b.err }
func (b brokenCollection[T]) Insert(context.Context, *T) (*T, error)      { return nil, b.err }
func (b brokenCollection[T]) UpdateByID(context.Context, string, map[string]interface{}) (*T, error) {
	return nil, b.err
}
func (b brokenCollection[T]) DeleteByID(context.Context, string) (*T, error) { return nil, b.err }

func newCategories() (*Resource[model.Category], *document.MemoryCollection[model.Category]) {
	coll := document.NewMemoryCollection[model.Category](model.CollectionCategories, []string{"name"})
	return NewResource[model.Category](coll, logger.Nop()), coll
}

func TestResource_AddReturnsStoredRecord(t *testing.T) {
	svc, _ := newCategories()

	stored, err := svc.Add(context.Background(), &model.Category{Name: "tools"})
	require.NoError(t, err)
	assert.False(t, stored.ID.IsZero())
	assert.Equal(t, "tools", stored.Name)
}

func TestResource_AddDuplicateNamesField(t *testing.T) {
	svc, _ := newCategories()
	ctx := context.Background()
	_, err := svc.Add(ctx, &model.Category{Name: "tools"})
	require.NoError(t, err)

	_, err = svc.Add(ctx, &model.Category{Name: "tools"})
	appErr, ok := apperror.As(err)
	require.True(t, ok, "expected *apperror.Error, got %v", err)
	assert.Equal(t, apperror.KindInvalidDuplicateEntry, appErr.Kind)
	assert.Equal(t, "name already exists", appErr.Message)

	all, err := svc.Get(ctx, document.QueryOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 1, "a rejected add must not leave a record")
}

func TestResource_GetEmptyIsNotFound(t *testing.T) {
	svc, _ := newCategories()

	_, err := svc.Get(context.Background(), document.QueryOptions{Filter: document.Filter{"name": "none"}})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindNotFound, appErr.Kind)
	assert.Equal(t, map[string]interface{}{"name": "none"}, appErr.Context)
}

func TestResource_UpdateAndDeleteRequireExisting(t *testing.T) {
	svc, _ := newCategories()
	ctx := context.Background()
	missing := primitive.NewObjectID().Hex()

	_, err := svc.Update(ctx, missing, map[string]interface{}{"name": "x"})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	_, err = svc.Delete(ctx, missing)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	_, err = svc.GetByID(ctx, "malformed")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestResource_DeleteReturnsRemovedRecord(t *testing.T) {
	svc, _ := newCategories()
	ctx := context.Background()
	stored, err := svc.Add(ctx, &model.Category{Name: "garden"})
	require.NoError(t, err)

	removed, err := svc.Delete(ctx, stored.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, *stored, *removed)

	_, err = svc.GetByID(ctx, stored.ID.Hex())
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestResource_StoreFailuresCollapseToInternal(t *testing.T) {
	cause := errors.New("socket closed")
	svc := NewResource[model.Category](brokenCollection[model.Category]{err: cause}, logger.Nop())
	ctx := context.Background()

	_, err := svc.Add(ctx, &model.Category{Name: "x"})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindInternalServerError, appErr.Kind)
	assert.ErrorIs(t, err, cause)

	_, err = svc.Get(ctx, document.QueryOptions{})
	assert.True(t, apperror.Is(err, apperror.KindInternalServerError))
	_, err = svc.GetByID(ctx, primitive.NewObjectID().Hex())
	assert.True(t, apperror.Is(err, apperror.KindInternalServerError))
}

func TestResource_UpdateDuplicateIsConflict(t *testing.T) {
	svc, _ := newCategories()
	ctx := context.Background()
	_, err := svc.Add(ctx, &model.Category{Name: "a"})
	require.NoError(t, err)
	b, err := svc.Add(ctx, &model.Category{Name: "b"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, b.ID.Hex(), map[string]interface{}{"name": "a"})
	assert.True(t, apperror.Is(err, apperror.KindInvalidDuplicateEntry))
}

func TestProperty_ResourceSemantics(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)
	ctx := context.Background()

	properties.Property("get by id is idempotent", prop.ForAll(
		func(name string) bool {
			svc, _ := newCategories()
			stored, err := svc.Add(ctx, &model.Category{Name: name})
			if err != nil {
				return false
			}
			first, err1 := svc.GetByID(ctx, stored.ID.Hex())
			second, err2 := svc.GetByID(ctx, stored.ID.Hex())
			return err1 == nil && err2 == nil && *first == *second
		},
		gen.AlphaString(),
	))

	properties.Property("update is visible to get by id", prop.ForAll(
		func(before, after string) bool {
			svc, _ := newCategories()
			stored, err := svc.Add(ctx, &model.Category{Name: "x" + before})
			if err != nil {
				return false
			}
			if _, err := svc.Update(ctx, stored.ID.Hex(), map[string]interface{}{"name": "y" + after}); err != nil {
				return false
			}
			got, err := svc.GetByID(ctx, stored.ID.Hex())
			return err == nil && got.Name == "y"+after && got.ID == stored.ID
		},
		gen.AlphaString(), gen.AlphaString(),
	))

	properties.Property("delete then get by id is not found", prop.ForAll(
		func(name string) bool {
			svc, _ := newCategories()
			stored, err := svc.Add(ctx, &model.Category{Name: name})
			if err != nil {
				return false
			}
			if _, err := svc.Delete(ctx, stored.ID.Hex()); err != nil {
				return false
			}
			_, err = svc.GetByID(ctx, stored.ID.Hex())
			return apperror.Is(err, apperror.KindNotFound)
		},
		gen.AlphaString(),
	))

	properties.Property("get returns exactly the matching records", prop.ForAll(
		func(owners []bool) bool {
			coll := document.NewMemoryCollection[model.Order](model.CollectionOrders)
			svc := NewResource[model.Order](coll, logger.Nop())
			want := 0
			for _, mine := range owners {
				owner := "other"
				if mine {
					owner = "me"
					want++
				}
				if _, err := svc.Add(ctx, &model.Order{UserID: owner}); err != nil {
					return false
				}
			}
			got, err := svc.Get(ctx, document.QueryOptions{Filter: document.Filter{"userId": "me"}})
			if want == 0 {
				return apperror.Is(err, apperror.KindNotFound)
			}
			if err != nil || len(got) != want {
				return false
			}
			for _, order := range got {
				if order.UserID != "me" {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Bool()),
	))

	properties.TestingRun(t)
}
