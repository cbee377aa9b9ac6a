package service

import (
	"context"
	"errors"

	"github.com/nimburion/storefront/pkg/apperror"
	"github.com/nimburion/storefront/pkg/model"
	"github.com/nimburion/storefront/pkg/observability/logger"
	"github.com/nimburion/storefront/pkg/repository/document"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductService reads products with their category resolved.
type ProductService struct {
	*Resource[model.Product]
	categories document.Reader[model.Category]
}

// NewProductService populates categories from the categories reader.
func NewProductService(products document.Collection[model.Product], categories document.Reader[model.Category], log logger.Logger) *ProductService {
	return &ProductService{
		Resource:   NewResource[model.Product](products, log),
		categories: categories,
	}
}

// Get returns the matching products, each with its Category populated.
func (s *ProductService) Get(ctx context.Context, query document.QueryOptions) ([]model.Product, error) {
	products, err := s.find(ctx, query, "No product was found having these parameters")
	if err != nil {
		return nil, err
	}
	if err := s.populate(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetByID returns one product with its Category populated.
func (s *ProductService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	product, err := s.Resource.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	batch := []model.Product{*product}
	if err := s.populate(ctx, batch); err != nil {
		return nil, err
	}
	return &batch[0], nil
}

// populate looks each distinct category up once. A dangling reference leaves
// Category nil.
func (s *ProductService) populate(ctx context.Context, products []model.Product) error {
	resolved := map[primitive.ObjectID]*model.Category{}
	for i := range products {
		id := products[i].CategoryID
		if id.IsZero() {
			continue
		}
		category, seen := resolved[id]
		if !seen {
			found, err := s.categories.FindByID(ctx, id.Hex())
			switch {
			case errors.Is(err, document.ErrNotFound):
				found = nil
			case err != nil:
				s.log.WithContext(ctx).Error("category lookup failed", "category", id.Hex(), "error", err)
				return apperror.InternalServerError("Failed to run query to populate category", err)
			}
			resolved[id] = found
			category = found
		}
		products[i].Category = category
	}
	return nil
}
