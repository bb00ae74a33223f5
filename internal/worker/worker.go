package worker

import (
	"context"
	"log"
	"net/http/httputil"
	"net/url"
	"sync"
	"sync/atomic"

	"chatlobby/internal/cache"
	"chatlobby/internal/domain"
	"chatlobby/internal/notify"
	"chatlobby/internal/push"
	"chatlobby/internal/ws"
)

// TokenSource resolves a user's push token.
type TokenSource interface {
	FCMToken(userID uint) (string, error)
}

// PushSender delivers platform pushes. *push.FCMService implements it.
type PushSender interface {
	Send(ctx context.Context, token, title, body string, silent bool, data map[string]string) error
	SendDataOnly(ctx context.Context, token string, data map[string]string) error
}

// CacheStore is the versioned partition set the worker serves from.
// *cache.Caches implements it.
type CacheStore interface {
	Partition(class string) cache.Partition
	DeleteStale(ctx context.Context) (int, error)
	ClearAll(ctx context.Context) error
	EntryCount(ctx context.Context) (int, error)
	VersionedName() string
}

// BackgroundOps are the lightweight operations the worker-side click handler
// runs without opening a window.
type BackgroundOps interface {
	MarkRead(ctx context.Context, userID uint, chatID, messageID string) error
	OpenChatForReply(ctx context.Context, userID uint, chatID string) error
}

// Worker is the gateway worker: it owns the versioned cache partitions,
// displays notifications through FCM even when no page is open, and speaks
// the typed cross-context protocol with connected pages.
type Worker struct {
	caches     CacheStore
	classifier cache.Classifier
	fetcher    cache.Fetcher
	hub        *ws.Hub
	fcm        PushSender
	tokens     TokenSource
	ops        BackgroundOps

	version  string
	precache []string
	proxy    *httputil.ReverseProxy
	ready    atomic.Bool

	mu       sync.Mutex
	settings map[uint]*notify.Settings
	badges   map[uint]int
}

func New(caches CacheStore, classifier cache.Classifier, fetcher cache.Fetcher, hub *ws.Hub, fcm PushSender, tokens TokenSource, originBaseURL, version string, precache []string) *Worker {
	var proxy *httputil.ReverseProxy
	if origin, err := url.Parse(originBaseURL); err == nil && origin.Host != "" {
		proxy = httputil.NewSingleHostReverseProxy(origin)
	}
	return &Worker{
		caches:     caches,
		classifier: classifier,
		fetcher:    fetcher,
		hub:        hub,
		fcm:        fcm,
		tokens:     tokens,
		version:    version,
		precache:   precache,
		proxy:      proxy,
		settings:   make(map[uint]*notify.Settings),
		badges:     make(map[uint]int),
	}
}

// SetBackgroundOps wires the operations behind worker-side click actions.
func (w *Worker) SetBackgroundOps(ops BackgroundOps) {
	w.ops = ops
}

// Install pre-populates the static partition with the asset manifest and
// marks the worker ready immediately (no waiting phase). Individual prefetch
// failures are logged and skipped.
func (w *Worker) Install(ctx context.Context) error {
	static := w.caches.Partition(domain.PartitionStatic)
	for _, asset := range w.precache {
		entry, err := w.fetcher.Fetch(ctx, asset)
		if err != nil {
			log.Printf("[Worker] precache %s: %v", asset, err)
			continue
		}
		if err := static.Put(ctx, asset, entry); err != nil {
			log.Printf("[Worker] precache store %s: %v", asset, err)
		}
	}
	w.ready.Store(true)
	log.Printf("[Worker] Installed version %s", w.version)
	return nil
}

// Activate deletes every cache generation other than the current one, then
// announces the new worker to all connected pages.
func (w *Worker) Activate(ctx context.Context) error {
	deleted, err := w.caches.DeleteStale(ctx)
	if err != nil {
		log.Printf("[Worker] stale cache cleanup: %v", err)
	}
	if deleted > 0 {
		log.Printf("[Worker] Deleted %d stale cache entries", deleted)
	}
	w.hub.BroadcastAll(map[string]interface{}{
		"type":    domain.MsgSWUpdate,
		"version": w.version,
	})
	w.hub.BroadcastAll(map[string]interface{}{
		"type":    domain.MsgSWReady,
		"version": w.version,
	})
	log.Printf("[Worker] Activated version %s", w.version)
	return nil
}

// Ready reports whether the worker can display notifications.
func (w *Worker) Ready() bool {
	return w.ready.Load()
}

// Display is the platform show-notification primitive: it pushes through FCM
// so delivery works with no page open. The manager treats an error here as a
// transient failure and re-queues. Calls go out data-only so the client's
// background handler can render native call UI instead of a plain banner.
func (w *Worker) Display(ctx context.Context, req *notify.Request, opts *notify.Options) error {
	if w.fcm == nil {
		return nil
	}
	token, err := w.tokens.FCMToken(req.UserID)
	if err != nil {
		return err
	}
	data := make(map[string]string, len(opts.Data)+4)
	for k, v := range opts.Data {
		data[k] = v
	}
	data["tag"] = opts.Tag
	if opts.Image != "" {
		data["image"] = opts.Image
	}
	if req.Kind == domain.KindCall {
		data["title"] = req.Title
		data["body"] = opts.Body
		return w.fcm.SendDataOnly(ctx, token, data)
	}
	return w.fcm.Send(ctx, token, req.Title, opts.Body, opts.Silent, data)
}

// DisplayPush surfaces a raw push payload; this path fires even when the
// notification manager never saw the event.
func (w *Worker) DisplayPush(ctx context.Context, userID uint, p *push.Payload) error {
	if w.fcm == nil {
		return nil
	}
	opts := p.Options()
	token, err := w.tokens.FCMToken(userID)
	if err != nil {
		return err
	}
	data := make(map[string]string, len(opts.Data)+1)
	for k, v := range opts.Data {
		data[k] = v
	}
	data["tag"] = opts.Tag
	if opts.Image != "" {
		data["image"] = opts.Image
	}
	return w.fcm.Send(ctx, token, p.Title, opts.Body, false, data)
}

// UpdateSettings stores the page's settings copy for worker-side decisions.
func (w *Worker) UpdateSettings(userID uint, s *notify.Settings) {
	w.mu.Lock()
	defer w.mu.Unlock()
	copied := *s
	w.settings[userID] = &copied
}

// UpdateBadge mirrors the page's badge count into the worker context.
func (w *Worker) UpdateBadge(userID uint, count int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.badges[userID] = count
}

// Badge returns the worker's view of a user's badge count.
func (w *Worker) Badge(userID uint) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.badges[userID]
}

// CacheStatus summarizes the current cache generation.
type CacheStatus struct {
	Type      string `json:"type"`
	CacheName string `json:"cache_name"`
	Version   string `json:"version"`
	Online    bool   `json:"online"`
	Entries   int    `json:"entries"`
}

func (w *Worker) Status(ctx context.Context) CacheStatus {
	entries, err := w.caches.EntryCount(ctx)
	if err != nil {
		log.Printf("[Worker] cache status: %v", err)
	}
	return CacheStatus{
		Type:      "CACHE_STATUS",
		CacheName: w.caches.VersionedName(),
		Version:   w.version,
		Online:    true,
		Entries:   entries,
	}
}

// ClearCache drops the current generation's partitions.
func (w *Worker) ClearCache(ctx context.Context) error {
	return w.caches.ClearAll(ctx)
}

// Prefetch warms the static partition with the given paths.
func (w *Worker) Prefetch(ctx context.Context, paths []string) {
	static := w.caches.Partition(domain.PartitionStatic)
	for _, p := range paths {
		entry, err := w.fetcher.Fetch(ctx, p)
		if err != nil {
			log.Printf("[Worker] prefetch %s: %v", p, err)
			continue
		}
		if err := static.Put(ctx, p, entry); err != nil {
			log.Printf("[Worker] prefetch store %s: %v", p, err)
		}
	}
}

// HandleFrame dispatches a typed page-to-worker bridge message. Replies go
// back on the same client.
func (w *Worker) HandleFrame(client *ws.Client, frame ws.Frame) {
	ctx := context.Background()
	switch frame.Type {
	case domain.MsgGetCacheStatus:
		client.Reply(w.Status(ctx))
	case domain.MsgClearCache:
		if err := w.ClearCache(ctx); err != nil {
			client.Reply(map[string]interface{}{"type": domain.MsgCacheCleared, "success": false, "error": err.Error()})
			return
		}
		client.Reply(map[string]interface{}{"type": domain.MsgCacheCleared, "success": true})
	case domain.MsgPrefetchResources:
		go w.Prefetch(ctx, frame.URLs)
	case domain.MsgNotificationSettings, domain.MsgNotificationSettingsUpdate:
		w.applySettingsFrame(client.UserID, frame)
	case domain.MsgBadgeUpdate:
		w.UpdateBadge(client.UserID, frame.Count)
	default:
		log.Printf("[Worker] unknown frame type %q from user %d", frame.Type, client.UserID)
	}
}

func (w *Worker) applySettingsFrame(userID uint, frame ws.Frame) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, ok := w.settings[userID]
	if !ok {
		s = notify.DefaultSettings()
		w.settings[userID] = s
	}
	if frame.Settings != nil {
		for k, v := range frame.Settings {
			s.Apply(k, v)
		}
	}
}
