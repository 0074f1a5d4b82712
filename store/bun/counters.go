package bunstore

import (
	"context"
	"fmt"
	"time"
)

// Increment adds one to the key's counter in a single upsert. An absent or
// elapsed key restarts the window with count 1 and the given ttl; a live
// key keeps the expiry from its window start. Clock comparisons use the
// database clock so scheduler instances with skewed local clocks agree.
func (s *Store) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	var count int64
	_, err := s.db.NewRaw(`
		INSERT INTO pacer_counters (key, count, expires_at)
		VALUES (?0, 1, NOW() + make_interval(secs => ?1))
		ON CONFLICT (key) DO UPDATE SET
			count = CASE
				WHEN pacer_counters.expires_at <= NOW() THEN 1
				ELSE pacer_counters.count + 1
			END,
			expires_at = CASE
				WHEN pacer_counters.expires_at <= NOW() THEN EXCLUDED.expires_at
				ELSE pacer_counters.expires_at
			END
		RETURNING count`,
		key, ttl.Seconds(),
	).Exec(ctx, &count)
	if err != nil {
		return 0, fmt.Errorf("pacer/bun: increment: %w", err)
	}
	return count, nil
}

// Count returns the current counter value, or 0 when the key is absent or
// its window has elapsed.
func (s *Store) Count(ctx context.Context, key string) (int64, error) {
	m := new(counterModel)
	err := s.db.NewSelect().Model(m).
		Column("count").
		Where("key = ?", key).
		Where("expires_at > NOW()").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("pacer/bun: count: %w", err)
	}
	return m.Count, nil
}

// TTL returns the time remaining in the key's window, or 0 when the key
// is absent or elapsed.
func (s *Store) TTL(ctx context.Context, key string) (time.Duration, error) {
	var seconds float64
	_, err := s.db.NewRaw(`
		SELECT GREATEST(EXTRACT(EPOCH FROM (expires_at - NOW())), 0)::float8
		FROM pacer_counters WHERE key = ?0`,
		key,
	).Exec(ctx, &seconds)
	if err != nil {
		if isNoRows(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("pacer/bun: ttl: %w", err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// Reset deletes the key's counter.
func (s *Store) Reset(ctx context.Context, key string) error {
	_, err := s.db.NewDelete().
		Model((*counterModel)(nil)).
		Where("key = ?", key).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("pacer/bun: reset: %w", err)
	}
	return nil
}

// PurgeExpired removes counters whose window has elapsed and returns how
// many rows were deleted.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.NewDelete().
		Model((*counterModel)(nil)).
		Where("expires_at <= NOW()").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("pacer/bun: purge expired: %w", err)
	}
	rows, _ := res.RowsAffected() //nolint:errcheck // driver always returns nil
	return rows, nil
}
