package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Fetcher retrieves a resource from the upstream origin.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Entry, error)
}

// OriginFetcher fetches from the configured origin over HTTP.
type OriginFetcher struct {
	BaseURL string
	Client  *http.Client
}

func NewOriginFetcher(baseURL string) *OriginFetcher {
	return &OriginFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (f *OriginFetcher) Fetch(ctx context.Context, url string) (*Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("origin returned %d for %s", resp.StatusCode, url)
	}
	return &Entry{
		Status:   resp.StatusCode,
		Header:   resp.Header.Clone(),
		Body:     body,
		StoredAt: time.Now(),
	}, nil
}

// CacheFirst serves from cache immediately and refreshes the entry in the
// background unconditionally. On miss, the network response is cached; if
// both cache and network fail for an HTML request, the cached root document
// is served instead.
func CacheFirst(ctx context.Context, p Partition, fetch Fetcher, url, accept string) (*Entry, error) {
	cached, err := p.Get(ctx, url)
	if err != nil {
		log.Printf("[Cache] read %s from %s: %v", url, p.Name(), err)
	}
	if cached != nil {
		go func() {
			// Background refresh is detached from the request lifetime.
			bgCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			fresh, err := fetch.Fetch(bgCtx, url)
			if err != nil {
				return
			}
			if err := p.Put(bgCtx, url, fresh); err != nil {
				log.Printf("[Cache] refresh %s in %s: %v", url, p.Name(), err)
			}
		}()
		return cached, nil
	}
	fresh, err := fetch.Fetch(ctx, url)
	if err == nil {
		if putErr := p.Put(ctx, url, fresh); putErr != nil {
			log.Printf("[Cache] store %s in %s: %v", url, p.Name(), putErr)
		}
		return fresh, nil
	}
	if strings.Contains(accept, "text/html") {
		if root, rootErr := p.Get(ctx, "/"); rootErr == nil && root != nil {
			return root, nil
		}
	}
	return nil, err
}

// NetworkFirst tries the network, caching successes; on failure it falls back
// to the cache, and when neither succeeds it synthesizes an offline JSON
// payload rather than surfacing an error.
func NetworkFirst(ctx context.Context, p Partition, fetch Fetcher, url string) (*Entry, error) {
	fresh, err := fetch.Fetch(ctx, url)
	if err == nil {
		if putErr := p.Put(ctx, url, fresh); putErr != nil {
			log.Printf("[Cache] store %s in %s: %v", url, p.Name(), putErr)
		}
		return fresh, nil
	}
	cached, cacheErr := p.Get(ctx, url)
	if cacheErr == nil && cached != nil {
		return cached, nil
	}
	return offlineEntry(), nil
}

// StaleWhileRevalidate returns the cached entry immediately while refreshing
// it concurrently; on miss the in-flight fetch becomes the response.
func StaleWhileRevalidate(ctx context.Context, p Partition, fetch Fetcher, url string) (*Entry, error) {
	cached, err := p.Get(ctx, url)
	if err != nil {
		log.Printf("[Cache] read %s from %s: %v", url, p.Name(), err)
	}
	if cached != nil {
		go func() {
			bgCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			fresh, err := fetch.Fetch(bgCtx, url)
			if err != nil {
				return
			}
			if err := p.Put(bgCtx, url, fresh); err != nil {
				log.Printf("[Cache] revalidate %s in %s: %v", url, p.Name(), err)
			}
		}()
		return cached, nil
	}
	fresh, err := fetch.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if putErr := p.Put(ctx, url, fresh); putErr != nil {
		log.Printf("[Cache] store %s in %s: %v", url, p.Name(), putErr)
	}
	return fresh, nil
}

func offlineEntry() *Entry {
	body, _ := json.Marshal(map[string]interface{}{
		"error":     "You are offline",
		"cached":    true,
		"timestamp": time.Now().UnixMilli(),
	})
	return &Entry{
		Status:   http.StatusOK,
		Header:   http.Header{"Content-Type": []string{"application/json"}},
		Body:     body,
		StoredAt: time.Now(),
	}
}
