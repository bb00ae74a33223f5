package worker

import (
	"log"
	"net/http"

	"chatlobby/internal/cache"
	"chatlobby/internal/domain"

	"github.com/gin-gonic/gin"
)

// Gateway returns the fetch handler: every request is classified once and
// served by exactly one strategy. Non-GET and foreign requests bypass the
// partitions untouched.
func (w *Worker) Gateway() gin.HandlerFunc {
	return func(c *gin.Context) {
		req := c.Request
		strategy := w.classifier.Classify(req.Method, req.URL, req.Header.Get("Accept"))

		if strategy == cache.StrategyBypass {
			// Bypassed requests (non-GET, foreign origin) pass through
			// untouched; their errors propagate as-is.
			if w.proxy == nil {
				c.Status(http.StatusBadGateway)
				return
			}
			w.proxy.ServeHTTP(c.Writer, req)
			return
		}

		var (
			entry *cache.Entry
			err   error
		)
		ctx := req.Context()
		accept := req.Header.Get("Accept")
		// Path plus query: /api/items?page=2 and /api/items are distinct
		// resources and must not share a cache entry.
		reqURL := req.URL.RequestURI()
		switch strategy {
		case cache.StrategyStatic:
			entry, err = cache.CacheFirst(ctx, w.caches.Partition(domain.PartitionStatic), w.fetcher, reqURL, accept)
		case cache.StrategyAPI:
			entry, err = cache.NetworkFirst(ctx, w.caches.Partition(domain.PartitionAPI), w.fetcher, reqURL)
		case cache.StrategyMedia:
			entry, err = cache.StaleWhileRevalidate(ctx, w.caches.Partition(domain.PartitionMedia), w.fetcher, reqURL)
		}
		if err != nil || entry == nil {
			log.Printf("[Worker] %s %s: %v", strategy, reqURL, err)
			c.Status(http.StatusBadGateway)
			return
		}
		writeEntry(c, entry)
	}
}

func writeEntry(c *gin.Context, e *cache.Entry) {
	header := c.Writer.Header()
	for k, vals := range e.Header {
		for _, v := range vals {
			header.Add(k, v)
		}
	}
	c.Status(e.Status)
	if _, err := c.Writer.Write(e.Body); err != nil {
		log.Printf("[Worker] write response: %v", err)
	}
}
