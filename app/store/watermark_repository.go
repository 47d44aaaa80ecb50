package store

import (
	"context"
	"fmt"
)

// SQLWatermarkRepository handles database operations for watermarks
type SQLWatermarkRepository struct {
	db *DB
}

var _ WatermarkRepository = (*SQLWatermarkRepository)(nil)

// NewWatermarkRepository creates a new watermark repository
func NewWatermarkRepository(db *DB) *SQLWatermarkRepository {
	return &SQLWatermarkRepository{db: db}
}

// Load returns all persisted watermarks keyed by activity type
func (r *SQLWatermarkRepository) Load(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT activity_type, value FROM watermarks`)
	if err != nil {
		return nil, fmt.Errorf("failed to load watermarks: %w", err)
	}
	defer rows.Close()

	watermarks := make(map[string]int64)
	for rows.Next() {
		var activityType string
		var value int64
		if err := rows.Scan(&activityType, &value); err != nil {
			return nil, fmt.Errorf("failed to scan watermark row: %w", err)
		}
		watermarks[activityType] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating watermark rows: %w", err)
	}

	return watermarks, nil
}

// Set upserts the watermark for an activity type
func (r *SQLWatermarkRepository) Set(ctx context.Context, activityType string, value int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO watermarks (activity_type, value)
		VALUES (?, ?)
		ON CONFLICT (activity_type) DO UPDATE SET value = EXCLUDED.value
	`, activityType, value)

	if err != nil {
		return fmt.Errorf("failed to set watermark: %w", err)
	}

	return nil
}
