package document

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/nimburion/storefront/pkg/observability/metrics"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryCollection keeps T in process memory using the same BSON encoding as
// MongoCollection. It backs tests and the "memory" database type.
type MemoryCollection[T any] struct {
	name   string
	unique [][]string

	mu    sync.RWMutex
	docs  map[primitive.ObjectID]bson.M
	order []primitive.ObjectID
}

// NewMemoryCollection creates an empty collection. Each unique entry lists the
// fields of one unique index.
func NewMemoryCollection[T any](name string, unique ...[]string) *MemoryCollection[T] {
	return &MemoryCollection[T]{
		name:   name,
		unique: unique,
		docs:   map[primitive.ObjectID]bson.M{},
	}
}

func (c *MemoryCollection[T]) Name() string {
	return c.name
}

func (c *MemoryCollection[T]) Find(_ context.Context, opts QueryOptions) ([]T, error) {
	defer c.observe("find", time.Now())

	c.mu.RLock()
	matched := make([]bson.M, 0, len(c.order))
	for _, id := range c.order {
		doc := c.docs[id]
		if matches(doc, opts.Filter) {
			matched = append(matched, doc)
		}
	}
	c.mu.RUnlock()

	if opts.Sort.Field != "" {
		field, desc := opts.Sort.Field, opts.Sort.Order == SortDesc
		sort.SliceStable(matched, func(i, j int) bool {
			cmp := compareValues(matched[i][field], matched[j][field])
			if desc {
				return cmp > 0
			}
			return cmp < 0
		})
	}

	if limit := opts.Pagination.Limit; limit > 0 {
		skip := opts.Pagination.Skip()
		if skip >= len(matched) {
			matched = nil
		} else {
			end := skip + limit
			if end > len(matched) {
				end = len(matched)
			}
			matched = matched[skip:end]
		}
	}

	out := make([]T, 0, len(matched))
	for _, doc := range matched {
		v, err := decode[T](doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

func (c *MemoryCollection[T]) FindByID(_ context.Context, id string) (*T, error) {
	defer c.observe("find", time.Now())

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	c.mu.RLock()
	doc, ok := c.docs[oid]
	c.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decode[T](doc)
}

func (c *MemoryCollection[T]) Insert(_ context.Context, in *T) (*T, error) {
	defer c.observe("insert", time.Now())

	doc, err := encode(in)
	if err != nil {
		return nil, err
	}
	oid, ok := doc["_id"].(primitive.ObjectID)
	if !ok || oid.IsZero() {
		oid = primitive.NewObjectID()
		doc["_id"] = oid
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.docs[oid]; exists {
		return nil, &DuplicateKeyError{Fields: []string{"_id"}}
	}
	if err := c.checkUnique(doc, oid); err != nil {
		return nil, err
	}
	c.docs[oid] = doc
	c.order = append(c.order, oid)
	return decode[T](doc)
}

func (c *MemoryCollection[T]) UpdateByID(_ context.Context, id string, updates map[string]interface{}) (*T, error) {
	defer c.observe("update", time.Now())

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	current, ok := c.docs[oid]
	if !ok {
		return nil, ErrNotFound
	}
	next := bson.M{}
	for k, v := range current {
		next[k] = v
	}
	for k, v := range updates {
		if k == "_id" {
			continue
		}
		next[k] = v
	}
	// Round-trip so stored values carry BSON types, as they would in MongoDB.
	next, err = normalize(next)
	if err != nil {
		return nil, err
	}
	out, err := decode[T](next)
	if err != nil {
		return nil, err
	}
	if err := c.checkUnique(next, oid); err != nil {
		return nil, err
	}
	c.docs[oid] = next
	return out, nil
}

func (c *MemoryCollection[T]) DeleteByID(_ context.Context, id string) (*T, error) {
	defer c.observe("delete", time.Now())

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	doc, ok := c.docs[oid]
	if !ok {
		return nil, ErrNotFound
	}
	delete(c.docs, oid)
	for i, existing := range c.order {
		if existing == oid {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return decode[T](doc)
}

// checkUnique must be called with the write lock held.
func (c *MemoryCollection[T]) checkUnique(doc bson.M, self primitive.ObjectID) error {
	for _, fields := range c.unique {
		for id, other := range c.docs {
			if id == self {
				continue
			}
			same := true
			for _, f := range fields {
				if compareValues(doc[f], other[f]) != 0 {
					same = false
					break
				}
			}
			if same {
				return &DuplicateKeyError{Fields: append([]string(nil), fields...)}
			}
		}
	}
	return nil
}

func (c *MemoryCollection[T]) observe(op string, start time.Time) {
	metrics.ObserveStoreOperation(c.name, op, metrics.OutcomeOK, time.Since(start))
}

func encode(v interface{}) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	doc := bson.M{}
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return doc, nil
}

func normalize(doc bson.M) (bson.M, error) {
	return encode(doc)
}

func decode[T any](doc bson.M) (*T, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	var out T
	if err := bson.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &out, nil
}

func matches(doc bson.M, filter Filter) bool {
	for k, want := range filter {
		if !valueMatches(doc[k], want) {
			return false
		}
	}
	return true
}

// valueMatches compares a stored value with a filter value. Numbers compare by
// value, ObjectIDs against hex, and anything else by text form.
func valueMatches(stored, want interface{}) bool {
	if reflect.DeepEqual(stored, want) {
		return true
	}
	switch s := stored.(type) {
	case primitive.ObjectID:
		switch w := want.(type) {
		case string:
			return s.Hex() == w
		case primitive.ObjectID:
			return s == w
		}
	case primitive.A:
		for _, item := range s {
			if valueMatches(item, want) {
				return true
			}
		}
		return false
	case nil:
		return want == nil
	}
	if sf, ok := toFloat(stored); ok {
		return numberMatches(sf, want)
	}
	return fmt.Sprint(stored) == fmt.Sprint(want)
}

// numberMatches compares a stored number by value. Strings that do not parse
// as numbers never match.
func numberMatches(stored float64, want interface{}) bool {
	if w, ok := toFloat(want); ok {
		return stored == w
	}
	if w, ok := want.(string); ok {
		n, err := strconv.ParseFloat(w, 64)
		return err == nil && stored == n
	}
	return false
}

// compareValues orders values of the same kind. Missing values sort first.
func compareValues(a, b interface{}) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}
	switch av := a.(type) {
	case primitive.DateTime:
		if bv, ok := b.(primitive.DateTime); ok {
			return compareInt64(int64(av), int64(bv))
		}
	case primitive.ObjectID:
		if bv, ok := b.(primitive.ObjectID); ok {
			return compareStrings(av.Hex(), bv.Hex())
		}
	case string:
		if bv, ok := b.(string); ok {
			return compareStrings(av, bv)
		}
	}
	return compareStrings(fmt.Sprint(a), fmt.Sprint(b))
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
