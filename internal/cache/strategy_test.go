package cache

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"
)

type memPartition struct {
	mu sync.Mutex
	m  map[string]*Entry
}

func newMemPartition() *memPartition {
	return &memPartition{m: make(map[string]*Entry)}
}

func (p *memPartition) Name() string { return "test" }

func (p *memPartition) Get(ctx context.Context, key string) (*Entry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.m[key], nil
}

func (p *memPartition) Put(ctx context.Context, key string, e *Entry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.m[key] = e
	return nil
}

func (p *memPartition) Clear(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.m = make(map[string]*Entry)
	return nil
}

type scriptedFetcher struct {
	mu    sync.Mutex
	fail  bool
	body  string
}

func (f *scriptedFetcher) Fetch(ctx context.Context, path string) (*Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.New("network down")
	}
	return &Entry{
		Status:   http.StatusOK,
		Header:   http.Header{"Content-Type": []string{"text/plain"}},
		Body:     []byte(f.body),
		StoredAt: time.Now(),
	}, nil
}


func entry(body string) *Entry {
	return &Entry{Status: http.StatusOK, Body: []byte(body), StoredAt: time.Now()}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal("condition never met")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}

func TestCacheFirstServesCachedAndRefreshesInBackground(t *testing.T) {
	p := newMemPartition()
	p.Put(context.Background(), "/app.css", entry("old"))
	f := &scriptedFetcher{body: "new"}

	got, err := CacheFirst(context.Background(), p, f, "/app.css", "")
	if err != nil {
		t.Fatalf("cache first: %v", err)
	}
	if string(got.Body) != "old" {
		t.Fatalf("hit must serve cached body, got %q", got.Body)
	}

	// The background refresh lands without blocking the response.
	waitFor(t, func() bool {
		e, _ := p.Get(context.Background(), "/app.css")
		return string(e.Body) == "new"
	})
}

func TestCacheFirstMissFetchesAndCaches(t *testing.T) {
	p := newMemPartition()
	f := &scriptedFetcher{body: "fresh"}

	got, err := CacheFirst(context.Background(), p, f, "/app.js", "")
	if err != nil {
		t.Fatalf("cache first: %v", err)
	}
	if string(got.Body) != "fresh" {
		t.Fatalf("miss must serve network body, got %q", got.Body)
	}
	if e, _ := p.Get(context.Background(), "/app.js"); e == nil {
		t.Fatal("fetched entry not cached")
	}
}

func TestCacheFirstOfflineNavigationFallsBackToRoot(t *testing.T) {
	p := newMemPartition()
	p.Put(context.Background(), "/", entry("shell"))
	f := &scriptedFetcher{fail: true}

	got, err := CacheFirst(context.Background(), p, f, "/chats/42", "text/html")
	if err != nil {
		t.Fatalf("cache first: %v", err)
	}
	if string(got.Body) != "shell" {
		t.Fatalf("offline navigation should serve the app shell, got %q", got.Body)
	}

	// Without an HTML accept there is no shell fallback.
	if _, err := CacheFirst(context.Background(), p, f, "/missing.css", ""); err == nil {
		t.Fatal("non-HTML total miss must error")
	}
}

func TestNetworkFirstPrefersNetworkAndCaches(t *testing.T) {
	p := newMemPartition()
	p.Put(context.Background(), "/api/chats", entry("stale"))
	f := &scriptedFetcher{body: "live"}

	got, err := NetworkFirst(context.Background(), p, f, "/api/chats")
	if err != nil {
		t.Fatalf("network first: %v", err)
	}
	if string(got.Body) != "live" {
		t.Fatalf("network success must win, got %q", got.Body)
	}
	if e, _ := p.Get(context.Background(), "/api/chats"); string(e.Body) != "live" {
		t.Fatal("network response not cached")
	}
}

func TestNetworkFirstFallsBackToCache(t *testing.T) {
	p := newMemPartition()
	p.Put(context.Background(), "/api/chats", entry("stale"))
	f := &scriptedFetcher{fail: true}

	got, err := NetworkFirst(context.Background(), p, f, "/api/chats")
	if err != nil {
		t.Fatalf("network first: %v", err)
	}
	if string(got.Body) != "stale" {
		t.Fatalf("network failure should serve cache, got %q", got.Body)
	}
}

func TestNetworkFirstSynthesizesOfflineJSON(t *testing.T) {
	p := newMemPartition()
	f := &scriptedFetcher{fail: true}

	got, err := NetworkFirst(context.Background(), p, f, "/api/chats")
	if err != nil {
		t.Fatalf("offline path must not error: %v", err)
	}
	if got.Status != http.StatusOK {
		t.Fatalf("offline entry status = %d", got.Status)
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(got.Body, &payload); err != nil {
		t.Fatalf("offline body not JSON: %v", err)
	}
	if payload["error"] != "You are offline" || payload["cached"] != true {
		t.Fatalf("unexpected offline payload: %v", payload)
	}
	if _, ok := payload["timestamp"]; !ok {
		t.Fatal("offline payload missing timestamp")
	}
}

func TestStaleWhileRevalidate(t *testing.T) {
	p := newMemPartition()
	p.Put(context.Background(), "/media/a.mp3", entry("v1"))
	f := &scriptedFetcher{body: "v2"}

	got, err := StaleWhileRevalidate(context.Background(), p, f, "/media/a.mp3")
	if err != nil {
		t.Fatalf("swr: %v", err)
	}
	if string(got.Body) != "v1" {
		t.Fatalf("hit must serve cached body, got %q", got.Body)
	}
	waitFor(t, func() bool {
		e, _ := p.Get(context.Background(), "/media/a.mp3")
		return string(e.Body) == "v2"
	})

	// Miss: the in-flight fetch becomes the response.
	got, err = StaleWhileRevalidate(context.Background(), p, f, "/media/b.mp3")
	if err != nil {
		t.Fatalf("swr miss: %v", err)
	}
	if string(got.Body) != "v2" {
		t.Fatalf("miss must serve network body, got %q", got.Body)
	}

	// Miss with the network down is a hard failure.
	f.mu.Lock()
	f.fail = true
	f.mu.Unlock()
	if _, err := StaleWhileRevalidate(context.Background(), p, f, "/media/c.mp3"); err == nil {
		t.Fatal("swr total miss must error")
	}
}
