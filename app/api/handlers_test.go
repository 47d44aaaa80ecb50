package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"forum-sentinel/app/pipeline"
	"forum-sentinel/app/store"
)

type fakeReader struct {
	stats pipeline.Stats
}

func (r *fakeReader) Stats() pipeline.Stats {
	return r.stats
}

type fakeFinder struct {
	keys []store.DiscoveredKey
}

func (f *fakeFinder) TrackedKeys() []store.DiscoveredKey {
	return f.keys
}

func newTestServer(reader *fakeReader, finder *fakeFinder, apiAccessKey string) http.Handler {
	return NewServer(NewHandler(reader, finder, "1.2.3"), apiAccessKey)
}

func TestHealthCheck(t *testing.T) {
	server := newTestServer(&fakeReader{}, &fakeFinder{}, "")

	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got: %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected status 'ok', got: %s", body["status"])
	}
}

func TestGetStats(t *testing.T) {
	reader := &fakeReader{stats: pipeline.Stats{
		Watermarks:      map[string]int64{"question": 1000, "answer": 2000},
		PendingRetries:  1,
		CachedQuestions: 3,
	}}
	finder := &fakeFinder{keys: []store.DiscoveredKey{
		{Key: "rgapi-11111111-1111-1111-1111-111111111111"},
	}}
	server := newTestServer(reader, finder, "")

	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got: %d", w.Code)
	}

	var body struct {
		Version         string           `json:"version"`
		Watermarks      map[string]int64 `json:"watermarks"`
		PendingRetries  int              `json:"pending_retries"`
		CachedQuestions int              `json:"cached_questions"`
		TrackedKeys     int              `json:"tracked_keys"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if body.Version != "1.2.3" {
		t.Errorf("Expected version '1.2.3', got: %s", body.Version)
	}
	if body.Watermarks["question"] != 1000 || body.Watermarks["answer"] != 2000 {
		t.Errorf("Unexpected watermarks: %v", body.Watermarks)
	}
	if body.PendingRetries != 1 {
		t.Errorf("Expected 1 pending retry, got: %d", body.PendingRetries)
	}
	if body.CachedQuestions != 3 {
		t.Errorf("Expected 3 cached questions, got: %d", body.CachedQuestions)
	}
	if body.TrackedKeys != 1 {
		t.Errorf("Expected 1 tracked key, got: %d", body.TrackedKeys)
	}
}

func TestListKeysRequiresAPIKey(t *testing.T) {
	server := newTestServer(&fakeReader{}, &fakeFinder{}, "secret")

	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/keys", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 without key, got: %d", w.Code)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/keys", nil)
	req.Header.Set("X-API-Key", "wrong")
	server.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 with wrong key, got: %d", w.Code)
	}
}

func TestListKeys(t *testing.T) {
	finder := &fakeFinder{keys: []store.DiscoveredKey{
		{
			Key:       "rgapi-11111111-1111-1111-1111-111111111111",
			FoundBy:   "Foo",
			Location:  "the forum, at https://example.com/questions/1/q.html",
			FoundAt:   1709294400000,
			RateLimit: "20:1,100:120",
		},
	}}
	server := newTestServer(&fakeReader{}, finder, "secret")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/keys", nil)
	req.Header.Set("X-API-Key", "secret")
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got: %d", w.Code)
	}

	var body struct {
		Keys []struct {
			Key       string `json:"key"`
			FoundBy   string `json:"found_by"`
			FoundAt   string `json:"found_at"`
			RateLimit string `json:"rate_limit"`
		} `json:"keys"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if len(body.Keys) != 1 {
		t.Fatalf("Expected 1 key, got: %d", len(body.Keys))
	}
	if body.Keys[0].FoundBy != "Foo" {
		t.Errorf("Unexpected reporter: %s", body.Keys[0].FoundBy)
	}
	if body.Keys[0].FoundAt != "2024-03-01T12:00:00Z" {
		t.Errorf("Unexpected found_at: %s", body.Keys[0].FoundAt)
	}
	if body.Keys[0].RateLimit != "20:1,100:120" {
		t.Errorf("Unexpected rate limit: %s", body.Keys[0].RateLimit)
	}
}

func TestListKeysDisabledWithoutAccessKey(t *testing.T) {
	server := newTestServer(&fakeReader{}, &fakeFinder{}, "")

	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/keys", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 when the route is disabled, got: %d", w.Code)
	}
}
