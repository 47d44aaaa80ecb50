package store

import (
	"context"
	"fmt"
)

// SQLKeyRepository handles database operations for discovered API keys
type SQLKeyRepository struct {
	db *DB
}

var _ KeyRepository = (*SQLKeyRepository)(nil)

// NewKeyRepository creates a new discovered key repository
func NewKeyRepository(db *DB) *SQLKeyRepository {
	return &SQLKeyRepository{db: db}
}

// LoadAll returns every tracked key
func (r *SQLKeyRepository) LoadAll(ctx context.Context) ([]DiscoveredKey, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT key, found_by, location, found_at, rate_limit
		FROM discovered_keys
		ORDER BY found_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load keys: %w", err)
	}
	defer rows.Close()

	var keys []DiscoveredKey
	for rows.Next() {
		var key DiscoveredKey
		if err := rows.Scan(&key.Key, &key.FoundBy, &key.Location, &key.FoundAt, &key.RateLimit); err != nil {
			return nil, fmt.Errorf("failed to scan key row: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating key rows: %w", err)
	}

	return keys, nil
}

// Save upserts a discovered key record
func (r *SQLKeyRepository) Save(ctx context.Context, key DiscoveredKey) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO discovered_keys (key, found_by, location, found_at, rate_limit)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			found_by = EXCLUDED.found_by,
			location = EXCLUDED.location,
			found_at = EXCLUDED.found_at,
			rate_limit = EXCLUDED.rate_limit
	`, key.Key, key.FoundBy, key.Location, key.FoundAt, key.RateLimit)

	if err != nil {
		return fmt.Errorf("failed to save key: %w", err)
	}

	return nil
}

// UpdateRateLimit updates only the rate-limit descriptor of a tracked key
func (r *SQLKeyRepository) UpdateRateLimit(ctx context.Context, key, rateLimit string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE discovered_keys SET rate_limit = ? WHERE key = ?
	`, rateLimit, key)

	if err != nil {
		return fmt.Errorf("failed to update rate limit: %w", err)
	}

	return nil
}

// Delete removes a key that is no longer active
func (r *SQLKeyRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM discovered_keys WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}

	return nil
}
