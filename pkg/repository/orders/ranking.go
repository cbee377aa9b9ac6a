// Package orders holds order queries that go beyond plain CRUD.
package orders

import (
	"context"
	"sort"
	"time"

	"github.com/nimburion/storefront/pkg/model"
	"github.com/nimburion/storefront/pkg/observability/metrics"
	"github.com/nimburion/storefront/pkg/observability/tracing"
	"github.com/nimburion/storefront/pkg/repository/document"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Ranker counts how often each product appears across all orders.
// Results are ordered by count descending, then by product id ascending.
type Ranker interface {
	RankProducts(ctx context.Context, limit int) ([]model.ProductCount, error)
}

// Aggregator runs an aggregation pipeline against a collection.
type Aggregator interface {
	Aggregate(ctx context.Context, collection string, pipeline interface{}, results interface{}) error
}

// MongoRanker ranks products with a server-side aggregation.
type MongoRanker struct {
	agg Aggregator
}

// NewMongoRanker runs the ranking pipeline through agg.
func NewMongoRanker(agg Aggregator) *MongoRanker {
	return &MongoRanker{agg: agg}
}

// Pipeline returns the aggregation used by RankProducts. A limit <= 0 means no limit.
func Pipeline(limit int) bson.A {
	pipeline := bson.A{
		bson.M{"$unwind": "$products"},
		bson.M{"$group": bson.M{"_id": "$products._id", "count": bson.M{"$sum": 1}}},
		bson.M{"$sort": bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}},
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.M{"$limit": limit})
	}
	return pipeline
}

// RankProducts runs Pipeline against the orders collection.
func (r *MongoRanker) RankProducts(ctx context.Context, limit int) ([]model.ProductCount, error) {
	ctx, span := tracing.StartDatabaseSpan(ctx, tracing.SpanOperationDBAggregate,
		tracing.WithDBSystem("mongodb"),
		tracing.WithDBCollection(model.CollectionOrders),
	)
	start := time.Now()

	results := []model.ProductCount{}
	err := r.agg.Aggregate(ctx, model.CollectionOrders, Pipeline(limit), &results)
	tracing.End(span, err)

	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeError
	}
	metrics.ObserveStoreOperation(model.CollectionOrders, string(tracing.SpanOperationDBAggregate), outcome, time.Since(start))
	if err != nil {
		return nil, err
	}
	return results, nil
}

// CollectionRanker ranks products by scanning every order in the collection.
type CollectionRanker struct {
	orders document.Reader[model.Order]
}

// NewCollectionRanker ranks the orders readable from orders.
func NewCollectionRanker(orders document.Reader[model.Order]) *CollectionRanker {
	return &CollectionRanker{orders: orders}
}

// RankProducts counts products in memory with the same ordering as Pipeline.
func (r *CollectionRanker) RankProducts(ctx context.Context, limit int) ([]model.ProductCount, error) {
	all, err := r.orders.Find(ctx, document.QueryOptions{})
	if err != nil {
		return nil, err
	}

	counts := map[primitive.ObjectID]int64{}
	for _, order := range all {
		for _, product := range order.Products {
			counts[product.ID]++
		}
	}

	ranked := make([]model.ProductCount, 0, len(counts))
	for id, count := range counts {
		ranked = append(ranked, model.ProductCount{ProductID: id, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].ProductID.Hex() < ranked[j].ProductID.Hex()
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}
