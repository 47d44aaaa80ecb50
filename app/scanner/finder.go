package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"forum-sentinel/app/store"
)

// Notifier delivers a plain message to a chat channel.
type Notifier interface {
	SendMessage(ctx context.Context, channel, content string) error
}

// Finder watches free text for credential-shaped substrings, validates
// candidates against the probe and tracks the ones that turn out to be live.
// FindKey is called from Discord event handlers and from the ingestion
// pipeline concurrently; the tracked map is guarded by a mutex.
type Finder struct {
	mu       sync.Mutex
	keys     map[string]store.DiscoveredKey
	patterns []*regexp.Regexp
	prober   Prober
	notifier Notifier
	repo     store.KeyRepository
	channel  string
	interval time.Duration
}

func NewFinder(patterns []*regexp.Regexp, prober Prober, notifier Notifier,
	repo store.KeyRepository, channel string, interval time.Duration) *Finder {
	return &Finder{
		keys:     make(map[string]store.DiscoveredKey),
		patterns: patterns,
		prober:   prober,
		notifier: notifier,
		repo:     repo,
		channel:  channel,
		interval: interval,
	}
}

// LoadKeys restores the tracked key set from storage. Called once at startup.
func (f *Finder) LoadKeys(ctx context.Context) error {
	keys, err := f.repo.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load tracked keys: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		f.keys[key.Key] = key
	}

	slog.Info("Tracked keys loaded", "count", len(keys))
	return nil
}

// FindKey scans text for candidate keys. Already-tracked keys are logged and
// skipped; inactive candidates are logged and dropped; the first candidate
// that validates as active is stored and announced, and scanning stops there.
// Returns true when any match was active, tracked duplicates included.
func (f *Finder) FindKey(ctx context.Context, reportedBy, text, location string, postedAt time.Time) bool {
	found := false

	for _, candidate := range f.extract(text) {
		if f.tracked(candidate) {
			slog.Info("Ignoring already tracked key", "key", candidate, "location", location)
			found = true
			continue
		}

		result, err := f.prober.Probe(ctx, candidate)
		if err != nil {
			slog.Error("Key validation probe failed", "key", candidate, "error", err)
			continue
		}

		switch result.Status {
		case ProbeInactive:
			slog.Info("Found inactive key", "key", candidate, "location", location)

		case ProbeAmbiguous:
			slog.Warn("Probe gave an ambiguous verdict, not treating key as active", "key", candidate, "location", location)

		case ProbeActive:
			key := store.DiscoveredKey{
				Key:       candidate,
				FoundBy:   reportedBy,
				Location:  location,
				FoundAt:   postedAt.UnixMilli(),
				RateLimit: result.RateLimit,
			}

			f.mu.Lock()
			f.keys[candidate] = key
			f.mu.Unlock()

			if err := f.repo.Save(ctx, key); err != nil {
				slog.Error("Failed to persist discovered key", "key", candidate, "error", err)
			}

			f.announceDiscovery(ctx, key)

			// TODO: keep scanning the remaining matches instead of returning;
			// a second new key in the same text is currently missed.
			return true
		}
	}

	return found
}

// Run revalidates every tracked key on a fixed interval until the context is
// canceled. Keys the probe now rejects are removed and announced.
func (f *Finder) Run(ctx context.Context) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.revalidate(ctx)
		}
	}
}

// TrackedKeys returns a snapshot of the currently tracked keys.
func (f *Finder) TrackedKeys() []store.DiscoveredKey {
	f.mu.Lock()
	defer f.mu.Unlock()

	keys := make([]store.DiscoveredKey, 0, len(f.keys))
	for _, key := range f.keys {
		keys = append(keys, key)
	}
	return keys
}

func (f *Finder) revalidate(ctx context.Context) {
	for _, key := range f.TrackedKeys() {
		result, err := f.prober.Probe(ctx, key.Key)
		if err != nil {
			slog.Error("Key revalidation probe failed", "key", key.Key, "error", err)
			continue
		}

		switch result.Status {
		case ProbeInactive:
			f.mu.Lock()
			delete(f.keys, key.Key)
			f.mu.Unlock()

			if err := f.repo.Delete(ctx, key.Key); err != nil {
				slog.Error("Failed to delete revoked key", "key", key.Key, "error", err)
			}

			f.announceRevocation(ctx, key)

		case ProbeActive:
			if result.RateLimit == key.RateLimit {
				continue
			}
			key.RateLimit = result.RateLimit

			f.mu.Lock()
			f.keys[key.Key] = key
			f.mu.Unlock()

			if err := f.repo.UpdateRateLimit(ctx, key.Key, result.RateLimit); err != nil {
				slog.Error("Failed to update key rate limit", "key", key.Key, "error", err)
			}

		case ProbeAmbiguous:
			slog.Warn("Revalidation gave an ambiguous verdict, keeping key", "key", key.Key)
		}
	}
}

func (f *Finder) extract(text string) []string {
	var candidates []string
	for _, pattern := range f.patterns {
		for _, match := range pattern.FindAllString(text, -1) {
			candidates = append(candidates, strings.ToLower(match))
		}
	}
	return candidates
}

func (f *Finder) tracked(candidate string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.keys[candidate]
	return ok
}

func (f *Finder) announceDiscovery(ctx context.Context, key store.DiscoveredKey) {
	content := fmt.Sprintf("@here %s posted a working API key on %s: `%s` (rate limit %s)",
		key.FoundBy, key.Location, key.Key, key.RateLimit)
	if err := f.notifier.SendMessage(ctx, f.channel, content); err != nil {
		slog.Error("Failed to announce discovered key", "key", key.Key, "error", err)
	}
}

func (f *Finder) announceRevocation(ctx context.Context, key store.DiscoveredKey) {
	content := fmt.Sprintf("The API key `%s` posted by %s is no longer active, removing it.",
		key.Key, key.FoundBy)
	if err := f.notifier.SendMessage(ctx, f.channel, content); err != nil {
		slog.Error("Failed to announce revoked key", "key", key.Key, "error", err)
	}
}
