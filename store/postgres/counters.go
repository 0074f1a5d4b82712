package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Increment adds one to the key's counter in a single upsert. An absent or
// elapsed key restarts the window with count 1 and the given ttl; a live
// key keeps the expiry from its window start. All clock comparisons use
// the database clock, so instances with skewed local clocks still agree.
func (s *Store) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO pacer_counters (key, count, expires_at)
		VALUES ($1, 1, NOW() + make_interval(secs => $2))
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
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("pacer/postgres: increment: %w", err)
	}
	return count, nil
}

// Count returns the current counter value, or 0 when the key is absent or
// its window has elapsed.
func (s *Store) Count(ctx context.Context, key string) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		`SELECT count FROM pacer_counters WHERE key = $1 AND expires_at > NOW()`,
		key,
	).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("pacer/postgres: count: %w", err)
	}
	return count, nil
}

// TTL returns the time remaining in the key's window, or 0 when the key
// is absent or elapsed.
func (s *Store) TTL(ctx context.Context, key string) (time.Duration, error) {
	var seconds float64
	err := s.pool.QueryRow(ctx, `
		SELECT GREATEST(EXTRACT(EPOCH FROM (expires_at - NOW())), 0)::float8
		FROM pacer_counters WHERE key = $1`,
		key,
	).Scan(&seconds)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("pacer/postgres: ttl: %w", err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// Reset deletes the key's counter.
func (s *Store) Reset(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM pacer_counters WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("pacer/postgres: reset: %w", err)
	}
	return nil
}

// PurgeExpired removes counters whose window has elapsed and returns how
// many rows were deleted. Elapsed rows are invisible to reads either way;
// call this periodically to keep the table from growing.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM pacer_counters WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("pacer/postgres: purge expired: %w", err)
	}
	return tag.RowsAffected(), nil
}
