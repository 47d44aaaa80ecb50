package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"forum-sentinel/app/pipeline"
	"forum-sentinel/app/store"
)

// PipelineStats exposes the ingestion pipeline's state snapshot.
type PipelineStats interface {
	Stats() pipeline.Stats
}

// KeyTracker exposes the scanner's currently tracked keys.
type KeyTracker interface {
	TrackedKeys() []store.DiscoveredKey
}

type Handler struct {
	reader    PipelineStats
	finder    KeyTracker
	version   string
	startedAt time.Time
}

func NewHandler(reader PipelineStats, finder KeyTracker, version string) *Handler {
	return &Handler{
		reader:    reader,
		finder:    finder,
		version:   version,
		startedAt: time.Now(),
	}
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := h.reader.Stats()

	c.JSON(http.StatusOK, gin.H{
		"version":          h.version,
		"uptime":           time.Since(h.startedAt).String(),
		"watermarks":       stats.Watermarks,
		"pending_retries":  stats.PendingRetries,
		"cached_questions": stats.CachedQuestions,
		"tracked_keys":     len(h.finder.TrackedKeys()),
	})
}

func (h *Handler) ListKeys(c *gin.Context) {
	keys := h.finder.TrackedKeys()

	type keyInfo struct {
		Key       string `json:"key"`
		FoundBy   string `json:"found_by"`
		Location  string `json:"location"`
		FoundAt   string `json:"found_at"`
		RateLimit string `json:"rate_limit"`
	}

	list := make([]keyInfo, 0, len(keys))
	for _, key := range keys {
		list = append(list, keyInfo{
			Key:       key.Key,
			FoundBy:   key.FoundBy,
			Location:  key.Location,
			FoundAt:   time.UnixMilli(key.FoundAt).UTC().Format(time.RFC3339),
			RateLimit: key.RateLimit,
		})
	}

	c.JSON(http.StatusOK, gin.H{"keys": list})
}
