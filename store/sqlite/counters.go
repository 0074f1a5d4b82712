package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Increment atomically bumps the counter for key. An absent or elapsed key
// starts a fresh window with count 1 and the given ttl; a live key keeps
// the expiry from its creation. The upsert is a single statement, so
// concurrent increments never lose updates.
func (s *Store) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	now := nowMillis()
	expires := now + ttl.Milliseconds()

	var count int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO pacer_counters (key, count, expires_at)
		VALUES (?1, 1, ?2)
		ON CONFLICT(key) DO UPDATE SET
			count      = CASE WHEN expires_at <= ?3 THEN 1 ELSE count + 1 END,
			expires_at = CASE WHEN expires_at <= ?3 THEN excluded.expires_at ELSE expires_at END
		RETURNING count
	`, key, expires, now).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("pacer/sqlite: increment: %w", err)
	}
	return count, nil
}

// Count returns the current count for key, or 0 when the key is absent or
// its window has elapsed.
func (s *Store) Count(ctx context.Context, key string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `
		SELECT count FROM pacer_counters
		WHERE key = ?1 AND expires_at > ?2
	`, key, nowMillis()).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("pacer/sqlite: count: %w", err)
	}
	return count, nil
}

// TTL returns the remaining window duration for key, or 0 when the key is
// absent or elapsed.
func (s *Store) TTL(ctx context.Context, key string) (time.Duration, error) {
	now := nowMillis()

	var expires int64
	err := s.db.QueryRowContext(ctx, `
		SELECT expires_at FROM pacer_counters
		WHERE key = ?1 AND expires_at > ?2
	`, key, now).Scan(&expires)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("pacer/sqlite: ttl: %w", err)
	}
	return time.Duration(expires-now) * time.Millisecond, nil
}

// Reset removes the counter for key.
func (s *Store) Reset(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM pacer_counters WHERE key = ?1`, key)
	if err != nil {
		return fmt.Errorf("pacer/sqlite: reset: %w", err)
	}
	return nil
}

// PurgeExpired deletes counters whose window has elapsed and returns how
// many rows were removed. Reads already ignore elapsed rows; this is
// housekeeping for long-lived databases.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM pacer_counters WHERE expires_at <= ?1
	`, nowMillis())
	if err != nil {
		return 0, fmt.Errorf("pacer/sqlite: purge expired: %w", err)
	}
	rows, _ := res.RowsAffected() //nolint:errcheck // driver always returns nil
	return rows, nil
}
