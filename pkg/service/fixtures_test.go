package service

import (
	"context"
	"sync"
	"testing"

	"github.com/nimburion/storefront/pkg/access"
	"github.com/nimburion/storefront/pkg/model"
	"github.com/nimburion/storefront/pkg/observability/logger"
	"github.com/nimburion/storefront/pkg/repository/document"
	"github.com/nimburion/storefront/pkg/repository/orders"
	"github.com/stretchr/testify/require"
)

// countingReader counts FindByID calls on the wrapped reader.
type countingReader[T any] struct {
	document.Reader[T]
	mu    sync.Mutex
	calls int
}

func (c *countingReader[T]) FindByID(ctx context.Context, id string) (*T, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.Reader.FindByID(ctx, id)
}

type shop struct {
	categories *document.MemoryCollection[model.Category]
	products   *document.MemoryCollection[model.Product]
	orders     *document.MemoryCollection[model.Order]

	productSvc *ProductService
	orderSvc   *OrderService
}

func newShop(t *testing.T) *shop {
	t.Helper()
	s := &shop{
		categories: document.NewMemoryCollection[model.Category](model.CollectionCategories),
		products:   document.NewMemoryCollection[model.Product](model.CollectionProducts),
		orders:     document.NewMemoryCollection[model.Order](model.CollectionOrders),
	}
	s.productSvc = NewProductService(s.products, s.categories, logger.Nop())
	s.orderSvc = NewOrderService(s.orders, s.productSvc, orders.NewCollectionRanker(s.orders), access.NewGate(access.DefaultPolicy()), logger.Nop())
	return s
}

func (s *shop) category(t *testing.T, name string) *model.Category {
	t.Helper()
	c, err := s.categories.Insert(context.Background(), &model.Category{Name: name})
	require.NoError(t, err)
	return c
}

func (s *shop) product(t *testing.T, p model.Product) *model.Product {
	t.Helper()
	stored, err := s.products.Insert(context.Background(), &p)
	require.NoError(t, err)
	return stored
}

func (s *shop) order(t *testing.T, userID string, products ...*model.Product) *model.Order {
	t.Helper()
	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID.Hex())
	}
	o, err := s.orderSvc.Add(context.Background(), model.NewOrder{UserID: userID, Products: ids})
	require.NoError(t, err)
	return o
}
