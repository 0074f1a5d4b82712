package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Increment adds one to the key's counter in a single FindOneAndUpdate.
// The pipeline update restarts an absent or elapsed window with count 1
// and the given ttl; a live window keeps the expiry from its start. The
// TTL index removes elapsed documents eventually, so the pipeline also
// handles the upsert case where the document is brand new.
func (s *Store) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	t := now()

	// True when the document was just upserted (no expires_at yet) or its
	// window has elapsed.
	windowOver := bson.M{"$or": bson.A{
		bson.M{"$eq": bson.A{bson.M{"$type": "$expires_at"}, "missing"}},
		bson.M{"$lte": bson.A{"$expires_at", t}},
	}}

	update := mongod.Pipeline{
		bson.D{{Key: "$set", Value: bson.M{
			"count": bson.M{"$cond": bson.A{
				windowOver,
				int64(1),
				bson.M{"$add": bson.A{"$count", 1}},
			}},
			"expires_at": bson.M{"$cond": bson.A{
				windowOver,
				t.Add(ttl),
				"$expires_at",
			}},
		}}},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var m counterModel
	err := s.col().FindOneAndUpdate(ctx, bson.M{"_id": key}, update, opts).Decode(&m)
	if err != nil {
		return 0, fmt.Errorf("pacer/mongo: increment: %w", err)
	}
	return m.Count, nil
}

// Count returns the current counter value, or 0 when the key is absent or
// its window has elapsed.
func (s *Store) Count(ctx context.Context, key string) (int64, error) {
	var m counterModel
	err := s.col().FindOne(ctx, bson.M{
		"_id":        key,
		"expires_at": bson.M{"$gt": now()},
	}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("pacer/mongo: count: %w", err)
	}
	return m.Count, nil
}

// TTL returns the time remaining in the key's window, or 0 when the key
// is absent or elapsed.
func (s *Store) TTL(ctx context.Context, key string) (time.Duration, error) {
	t := now()

	var m counterModel
	err := s.col().FindOne(ctx, bson.M{
		"_id":        key,
		"expires_at": bson.M{"$gt": t},
	}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("pacer/mongo: ttl: %w", err)
	}

	remaining := m.ExpiresAt.Sub(t)
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// Reset deletes the key's counter.
func (s *Store) Reset(ctx context.Context, key string) error {
	_, err := s.col().DeleteOne(ctx, bson.M{"_id": key})
	if err != nil {
		return fmt.Errorf("pacer/mongo: reset: %w", err)
	}
	return nil
}
