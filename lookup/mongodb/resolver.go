// Package mongodb resolves lookup keys with one $in query per batch.
package mongodb

import (
	"context"
	"fmt"

	"github.com/elphick/df-eval/lookup"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Resolver resolves keys with a single $in query on a collection
type Resolver struct {
	collection *mongo.Collection
	keyField   string
	valueField string
}

// New creates a resolver over collection
func New(collection *mongo.Collection, keyField, valueField string) *Resolver {
	return &Resolver{collection: collection, keyField: keyField, valueField: valueField}
}

// Resolve finds documents whose key field is one of keys. The first
// document returned for a key wins.
func (r *Resolver) Resolve(ctx context.Context, keys []any) ([]any, error) {
	filter := bson.M{r.keyField: bson.M{"$in": keys}}
	projection := options.Find().SetProjection(bson.M{r.keyField: 1, r.valueField: 1, "_id": 0})

	cursor, err := r.collection.Find(ctx, filter, projection)
	if err != nil {
		return nil, fmt.Errorf("mongodb: failed to query %s: %w", r.collection.Name(), err)
	}
	defer cursor.Close(ctx)

	found := make(map[string]any, len(keys))
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongodb: failed to decode document: %w", err)
		}
		id := lookup.KeyID(fromBSON(doc[r.keyField]))
		if _, ok := found[id]; !ok {
			found[id] = fromBSON(doc[r.valueField])
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("mongodb: cursor error: %w", err)
	}

	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = found[lookup.KeyID(k)]
	}
	return out, nil
}

// fromBSON converts decoded BSON values to table values
func fromBSON(v any) any {
	switch x := v.(type) {
	case int32:
		return int64(x)
	case primitive.Decimal128:
		if d, err := decimal.NewFromString(x.String()); err == nil {
			return d
		}
		return x.String()
	case primitive.DateTime:
		return x.Time()
	case primitive.ObjectID:
		return x.Hex()
	}
	return v
}
