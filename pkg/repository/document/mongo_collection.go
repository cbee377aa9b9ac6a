package document

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"time"

	"github.com/nimburion/storefront/pkg/observability/metrics"
	"github.com/nimburion/storefront/pkg/observability/tracing"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoExecutor is the subset of the MongoDB adapter a collection needs.
type MongoExecutor interface {
	InsertOne(ctx context.Context, collection string, doc interface{}) (*mongo.InsertOneResult, error)
	FindOne(ctx context.Context, collection string, filter, result interface{}) error
	Find(ctx context.Context, collection string, filter interface{}, results interface{}, opts ...*options.FindOptions) error
	FindOneAndUpdate(ctx context.Context, collection string, filter, update, result interface{}) error
	FindOneAndDelete(ctx context.Context, collection string, filter, result interface{}) error
}

// MongoCollection stores T in one MongoDB collection.
type MongoCollection[T any] struct {
	exec          MongoExecutor
	name          string
	refitFields   map[string]struct{}
	numericFields map[string]struct{}
}

// MongoOption configures a MongoCollection.
type MongoOption func(*mongoOptions)

type mongoOptions struct {
	objectIDFields []string
	numericFields  []string
}

// WithObjectIDFields names fields holding ObjectIDs. Hex string filter values on
// them are converted before querying. "_id" is always converted.
func WithObjectIDFields(fields ...string) MongoOption {
	return func(o *mongoOptions) {
		o.objectIDFields = append(o.objectIDFields, fields...)
	}
}

// WithNumericFields names fields holding numbers. Numeric string filter values on
// them are converted to float64 before querying; other strings are kept and match nothing.
func WithNumericFields(fields ...string) MongoOption {
	return func(o *mongoOptions) {
		o.numericFields = append(o.numericFields, fields...)
	}
}

// NewMongoCollection binds T to the named collection.
func NewMongoCollection[T any](exec MongoExecutor, name string, opts ...MongoOption) *MongoCollection[T] {
	o := &mongoOptions{}
	for _, opt := range opts {
		opt(o)
	}
	fields := map[string]struct{}{"_id": {}}
	for _, f := range o.objectIDFields {
		fields[f] = struct{}{}
	}
	numeric := make(map[string]struct{}, len(o.numericFields))
	for _, f := range o.numericFields {
		numeric[f] = struct{}{}
	}
	return &MongoCollection[T]{exec: exec, name: name, refitFields: fields, numericFields: numeric}
}

func (c *MongoCollection[T]) Name() string {
	return c.name
}

func (c *MongoCollection[T]) Find(ctx context.Context, opts QueryOptions) ([]T, error) {
	findOpts := options.Find()
	if opts.Sort.Field != "" {
		direction := 1
		if opts.Sort.Order == SortDesc {
			direction = -1
		}
		findOpts.SetSort(bson.D{{Key: opts.Sort.Field, Value: direction}})
	}
	if opts.Pagination.Limit > 0 {
		findOpts.SetLimit(int64(opts.Pagination.Limit))
		findOpts.SetSkip(int64(opts.Pagination.Skip()))
	}

	results := []T{}
	err := c.observe(ctx, tracing.SpanOperationDBFind, func(ctx context.Context) error {
		return c.exec.Find(ctx, c.name, c.filter(opts.Filter), &results, findOpts)
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (c *MongoCollection[T]) FindByID(ctx context.Context, id string) (*T, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var out T
	err = c.observe(ctx, tracing.SpanOperationDBFind, func(ctx context.Context) error {
		return c.exec.FindOne(ctx, c.name, bson.M{"_id": oid}, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Insert stores doc and returns it as re-read from the collection.
func (c *MongoCollection[T]) Insert(ctx context.Context, doc *T) (*T, error) {
	var inserted interface{}
	err := c.observe(ctx, tracing.SpanOperationDBInsert, func(ctx context.Context) error {
		res, err := c.exec.InsertOne(ctx, c.name, doc)
		if err != nil {
			return err
		}
		inserted = res.InsertedID
		return nil
	})
	if err != nil {
		return nil, err
	}

	var out T
	err = c.observe(ctx, tracing.SpanOperationDBFind, func(ctx context.Context) error {
		return c.exec.FindOne(ctx, c.name, bson.M{"_id": inserted}, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateByID applies updates with $set and returns the document after the update.
func (c *MongoCollection[T]) UpdateByID(ctx context.Context, id string, updates map[string]interface{}) (*T, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	set := bson.M{}
	for k, v := range updates {
		if k == "_id" {
			continue
		}
		set[k] = c.refit(k, v)
	}
	if len(set) == 0 {
		return c.FindByID(ctx, id)
	}

	var out T
	err = c.observe(ctx, tracing.SpanOperationDBUpdate, func(ctx context.Context) error {
		return c.exec.FindOneAndUpdate(ctx, c.name, bson.M{"_id": oid}, bson.M{"$set": set}, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteByID removes the document and returns it.
func (c *MongoCollection[T]) DeleteByID(ctx context.Context, id string) (*T, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var out T
	err = c.observe(ctx, tracing.SpanOperationDBDelete, func(ctx context.Context) error {
		return c.exec.FindOneAndDelete(ctx, c.name, bson.M{"_id": oid}, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *MongoCollection[T]) filter(f Filter) bson.M {
	out := bson.M{}
	for k, v := range f {
		out[k] = c.refit(k, v)
	}
	return out
}

func (c *MongoCollection[T]) refit(field string, v interface{}) interface{} {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if _, ok := c.refitFields[field]; ok {
		if oid, err := primitive.ObjectIDFromHex(s); err == nil {
			return oid
		}
	}
	if _, ok := c.numericFields[field]; ok {
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return n
		}
	}
	return v
}

// observe wraps one driver call with a span and a duration metric, and maps
// driver errors onto ErrNotFound and DuplicateKeyError.
func (c *MongoCollection[T]) observe(ctx context.Context, op tracing.SpanOperation, call func(context.Context) error) error {
	ctx, span := tracing.StartDatabaseSpan(ctx, op,
		tracing.WithDBSystem("mongodb"),
		tracing.WithDBCollection(c.name),
	)
	start := time.Now()

	err := translateMongoError(call(ctx))

	outcome := metrics.OutcomeOK
	switch {
	case errors.Is(err, ErrNotFound):
		outcome = metrics.OutcomeNotFound
		tracing.End(span, nil)
	case err != nil:
		outcome = metrics.OutcomeError
		if _, ok := IsDuplicateKey(err); ok {
			outcome = metrics.OutcomeDuplicate
		}
		tracing.End(span, err)
	default:
		tracing.End(span, nil)
	}
	metrics.ObserveStoreOperation(c.name, string(op), outcome, time.Since(start))
	return err
}

func translateMongoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return &DuplicateKeyError{Fields: duplicateFields(err), Cause: err}
	}
	return err
}

var dupKeyPattern = regexp.MustCompile(`dup key: \{ ?"?([A-Za-z0-9_.]+)"?\s*:`)

// duplicateFields reads the violated index keys from the server reply, falling
// back to the "dup key" section of the message.
func duplicateFields(err error) []string {
	var fields []string

	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, writeErr := range we.WriteErrors {
			fields = append(fields, keyPatternFields(writeErr.Raw)...)
		}
	}
	var ce mongo.CommandError
	if len(fields) == 0 && errors.As(err, &ce) {
		fields = append(fields, keyPatternFields(ce.Raw)...)
	}
	if len(fields) == 0 {
		if m := dupKeyPattern.FindStringSubmatch(err.Error()); m != nil {
			fields = append(fields, m[1])
		}
	}
	return fields
}

func keyPatternFields(raw bson.Raw) []string {
	if len(raw) == 0 {
		return nil
	}
	val, err := raw.LookupErr("keyPattern")
	if err != nil {
		return nil
	}
	doc, ok := val.DocumentOK()
	if !ok {
		return nil
	}
	elems, err := doc.Elements()
	if err != nil {
		return nil
	}
	fields := make([]string, 0, len(elems))
	for _, e := range elems {
		fields = append(fields, e.Key())
	}
	return fields
}
