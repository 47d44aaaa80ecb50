package store

import "context"

// WatermarkRepository persists the per-activity-type ingestion cursor.
// Set must be durable before it returns: a crash immediately after a call
// must not lose the written value.
type WatermarkRepository interface {
	Load(ctx context.Context) (map[string]int64, error)
	Set(ctx context.Context, activityType string, value int64) error
}

// KeyRepository persists discovered API keys. Writes share the durability
// contract of WatermarkRepository.
type KeyRepository interface {
	LoadAll(ctx context.Context) ([]DiscoveredKey, error)
	Save(ctx context.Context, key DiscoveredKey) error
	UpdateRateLimit(ctx context.Context, key, rateLimit string) error
	Delete(ctx context.Context, key string) error
}
