package service

import (
	"context"
	"time"

	"github.com/nimburion/storefront/pkg/access"
	"github.com/nimburion/storefront/pkg/apperror"
	"github.com/nimburion/storefront/pkg/model"
	"github.com/nimburion/storefront/pkg/observability/logger"
	"github.com/nimburion/storefront/pkg/observability/metrics"
	"github.com/nimburion/storefront/pkg/repository/document"
	"github.com/nimburion/storefront/pkg/repository/orders"
	"golang.org/x/sync/errgroup"
)

// ProductLookup resolves a product id to the stored product.
type ProductLookup interface {
	GetByID(ctx context.Context, id string) (*model.Product, error)
}

// OrderService places, deletes and ranks orders.
type OrderService struct {
	*Resource[model.Order]
	products ProductLookup
	ranker   orders.Ranker
	gate     *access.Gate
	now      func() time.Time
}

// NewOrderService resolves products through products and ranks them with ranker.
func NewOrderService(coll document.Collection[model.Order], products ProductLookup, ranker orders.Ranker, gate *access.Gate, log logger.Logger) *OrderService {
	return &OrderService{
		Resource: NewResource[model.Order](coll, log),
		products: products,
		ranker:   ranker,
		gate:     gate,
		now:      time.Now,
	}
}

// Add resolves every referenced product and stores the order with the
// resolved snapshots. Any unknown product rejects the whole order before
// anything is written.
func (s *OrderService) Add(ctx context.Context, in model.NewOrder) (*model.Order, error) {
	resolved := make([]model.Product, len(in.Products))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range in.Products {
		g.Go(func() error {
			product, err := s.products.GetByID(gctx, id)
			if err != nil {
				return err
			}
			product.Category = nil
			resolved[i] = *product
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	orderedAt := in.OrderedAt
	if orderedAt.IsZero() {
		orderedAt = s.now().UTC()
	}
	order := &model.Order{
		UserID:    in.UserID,
		OrderedAt: orderedAt,
		Products:  resolved,
	}
	stored, err := s.Resource.Add(ctx, order)
	if err != nil {
		return nil, err
	}
	metrics.IncOrdersPlaced()
	s.log.WithContext(ctx).Info("order placed", "order_id", stored.ID.Hex(), "user_id", stored.UserID, "products", len(stored.Products))
	return stored, nil
}

// DeleteOwnOrder removes the order only when requestingUserID owns it.
func (s *OrderService) DeleteOwnOrder(ctx context.Context, orderID, requestingUserID string) (*model.Order, error) {
	order, err := s.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireOwner(order.UserID, requestingUserID, access.OpDelete, access.ResourceOrders); err != nil {
		return nil, err
	}
	return s.remove(ctx, orderID)
}

// DeleteAs removes the order when subject may delete it: any order with a
// delete:any grant, only their own with delete:own.
func (s *OrderService) DeleteAs(ctx context.Context, orderID string, subject access.Subject) (*model.Order, error) {
	order, err := s.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.AuthorizeOwned(subject, access.DeleteOwn, access.ResourceOrders, order.UserID); err != nil {
		return nil, err
	}
	return s.remove(ctx, orderID)
}

// MostOrderedProduct returns the product appearing most often across all
// orders with its count. Ties go to the lowest product id.
func (s *OrderService) MostOrderedProduct(ctx context.Context) (*model.RankedProduct, error) {
	ranked, err := s.ranker.RankProducts(ctx, 1)
	if err != nil {
		s.log.WithContext(ctx).Error("order ranking failed", "error", err)
		return nil, apperror.InternalServerError("Failed to run query to rank products", err)
	}
	if len(ranked) == 0 {
		return nil, apperror.NotFound("No orders have been placed yet.", nil).WithMessageKey(apperror.MessageOrdersEmpty)
	}

	top := ranked[0]
	product, err := s.products.GetByID(ctx, top.ProductID.Hex())
	if err != nil {
		return nil, err
	}
	return &model.RankedProduct{Product: *product, TimesOrdered: top.Count}, nil
}
