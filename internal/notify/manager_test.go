package notify

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"chatlobby/internal/domain"
)

type memStore struct {
	mu sync.Mutex
	m  map[string]string
}

func newMemStore() *memStore {
	return &memStore{m: make(map[string]string)}
}

func (s *memStore) key(userID uint, key string) string {
	return fmt.Sprintf("%d:%s", userID, key)
}

func (s *memStore) Get(userID uint, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[s.key(userID, key)], nil
}

func (s *memStore) Set(userID uint, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[s.key(userID, key)] = value
	return nil
}

func (s *memStore) Delete(userID uint, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, s.key(userID, key))
	return nil
}

type fakeWorker struct {
	mu       sync.Mutex
	ready    bool
	fail     bool
	displays []*Request
	badges   map[uint]int
}

func (w *fakeWorker) Ready() bool { return w.ready }

func (w *fakeWorker) Display(ctx context.Context, req *Request, opts *Options) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail {
		return fmt.Errorf("display unavailable")
	}
	w.displays = append(w.displays, req)
	return nil
}

func (w *fakeWorker) UpdateSettings(userID uint, s *Settings) {}

func (w *fakeWorker) UpdateBadge(userID uint, count int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.badges == nil {
		w.badges = make(map[uint]int)
	}
	w.badges[userID] = count
}

func (w *fakeWorker) displayed() []*Request {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]*Request, len(w.displays))
	copy(out, w.displays)
	return out
}

type fakeBridge struct {
	mu     sync.Mutex
	online map[uint]bool
	frames []interface{}
}

func (b *fakeBridge) IsOnline(userID uint) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.online[userID]
}

func (b *fakeBridge) SendToUser(userID uint, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames = append(b.frames, payload)
}

func (b *fakeBridge) banners() []bannerFrame {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []bannerFrame
	for _, f := range b.frames {
		if bf, ok := f.(bannerFrame); ok {
			out = append(out, bf)
		}
	}
	return out
}

type fakePerms struct{ denied map[uint]bool }

func (p *fakePerms) Permission(userID uint) string {
	if p.denied[userID] {
		return domain.PermissionDenied
	}
	return domain.PermissionGranted
}

type fakeChats struct {
	mu     sync.Mutex
	opened []string
}

func (c *fakeChats) OpenChat(userID uint, chatID string, replyTo string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opened = append(c.opened, chatID)
}

type testEnv struct {
	m      *Manager
	store  *memStore
	worker *fakeWorker
	bridge *fakeBridge
	perms  *fakePerms
	chats  *fakeChats
}

func newTestEnv() *testEnv {
	env := &testEnv{
		store:  newMemStore(),
		worker: &fakeWorker{ready: true},
		bridge: &fakeBridge{online: make(map[uint]bool)},
		perms:  &fakePerms{denied: make(map[uint]bool)},
		chats:  &fakeChats{},
	}
	env.m = NewManager(env.store, env.worker, nil, env.bridge, env.perms)
	env.m.sleep = func(time.Duration) {}
	env.m.SetCollaborators(env.chats, nil, nil)
	return env
}

func TestHandleMessageDisplaysThroughWorker(t *testing.T) {
	env := newTestEnv()
	err := env.m.HandleMessage(context.Background(), 1, MessageEvent{
		ID: "m1", ChatID: "c9", SenderName: "Ann", Text: "hi",
	})
	if err != nil {
		t.Fatalf("handle message: %v", err)
	}
	shown := env.worker.displayed()
	if len(shown) != 1 {
		t.Fatalf("expected 1 display, got %d", len(shown))
	}
	if shown[0].Tag != "chat-c9" {
		t.Fatalf("expected tag chat-c9, got %q", shown[0].Tag)
	}
	if env.m.ActiveCount(1) != 1 {
		t.Fatalf("expected 1 active, got %d", env.m.ActiveCount(1))
	}
	if env.m.Badge(1) != 1 {
		t.Fatalf("expected badge 1, got %d", env.m.Badge(1))
	}
}

func TestForegroundUserGetsBannerNotPlatformNotification(t *testing.T) {
	env := newTestEnv()
	env.bridge.online[1] = true

	if err := env.m.HandleMessage(context.Background(), 1, MessageEvent{
		ID: "m1", ChatID: "c1", SenderName: "Ann", Text: "hi",
	}); err != nil {
		t.Fatalf("handle message: %v", err)
	}
	if got := env.worker.displayed(); len(got) != 0 {
		t.Fatalf("worker display should be skipped, got %d", len(got))
	}
	banners := env.bridge.banners()
	if len(banners) != 1 {
		t.Fatalf("expected 1 banner, got %d", len(banners))
	}
	if banners[0].Type != domain.MsgBanner || banners[0].DurationMS != 5000 {
		t.Fatalf("unexpected banner frame: %+v", banners[0])
	}
	if env.m.Badge(1) != 0 {
		t.Fatalf("banner must not bump badge, got %d", env.m.Badge(1))
	}
}

func TestDeniedPermissionEnqueues(t *testing.T) {
	env := newTestEnv()
	env.perms.denied[1] = true

	if err := env.m.HandleMessage(context.Background(), 1, MessageEvent{
		ID: "m1", ChatID: "c1", Text: "hi",
	}); err != nil {
		t.Fatalf("handle message: %v", err)
	}
	if len(env.worker.displayed()) != 0 {
		t.Fatal("denied permission must not display")
	}
	if env.m.QueueLen(1) != 1 {
		t.Fatalf("expected 1 queued, got %d", env.m.QueueLen(1))
	}
	if raw, _ := env.store.Get(1, domain.KeyPendingNotifications); raw == "" {
		t.Fatal("queue snapshot not persisted")
	}
}

func TestDisplayFailureRequeues(t *testing.T) {
	env := newTestEnv()
	env.worker.fail = true

	if err := env.m.HandleMessage(context.Background(), 1, MessageEvent{
		ID: "m1", ChatID: "c1", Text: "hi",
	}); err != nil {
		t.Fatalf("handle message: %v", err)
	}
	if env.m.QueueLen(1) != 1 {
		t.Fatalf("failed display must re-queue, got %d queued", env.m.QueueLen(1))
	}
	if env.m.ActiveCount(1) != 0 {
		t.Fatal("failed display must not count as active")
	}
}

func TestClickDefaultOpensChatAndDropsBadge(t *testing.T) {
	env := newTestEnv()
	if err := env.m.HandleMessage(context.Background(), 1, MessageEvent{
		ID: "m1", ChatID: "c7", Text: "hi",
	}); err != nil {
		t.Fatalf("handle message: %v", err)
	}
	shown := env.worker.displayed()
	if len(shown) != 1 {
		t.Fatalf("expected 1 display, got %d", len(shown))
	}

	env.m.HandleClick(context.Background(), 1, shown[0].ID, "")
	if env.m.ActiveCount(1) != 0 {
		t.Fatal("click must remove the active record")
	}
	if env.m.Badge(1) != 0 {
		t.Fatalf("click must decrement badge, got %d", env.m.Badge(1))
	}
	env.chats.mu.Lock()
	defer env.chats.mu.Unlock()
	if len(env.chats.opened) != 1 || env.chats.opened[0] != "c7" {
		t.Fatalf("default click should open chat c7, got %v", env.chats.opened)
	}
}

func TestClickUnknownIDIsNoop(t *testing.T) {
	env := newTestEnv()
	env.m.HandleClick(context.Background(), 1, "nope", "")
	if env.m.Badge(1) != 0 {
		t.Fatal("unknown click must not touch the badge")
	}
}

func TestUpdateSettingUnknownKeyRejected(t *testing.T) {
	env := newTestEnv()
	if env.m.UpdateSetting(1, "noSuchKey", true) {
		t.Fatal("unknown key must be rejected")
	}
	if !env.m.UpdateSetting(1, "sound", false) {
		t.Fatal("known key must apply")
	}
	if env.m.Settings(1).Sound {
		t.Fatal("sound should be off after update")
	}
	if raw, _ := env.store.Get(1, domain.KeyNotificationSettings); raw == "" {
		t.Fatal("settings snapshot not persisted")
	}
}

func TestSettingsSurviveReload(t *testing.T) {
	env := newTestEnv()
	env.m.UpdateSetting(1, "mutedChats", []string{"c1", "c2"})

	fresh := NewManager(env.store, env.worker, nil, env.bridge, env.perms)
	got := fresh.Settings(1)
	if len(got.MutedChats) != 2 || got.MutedChats[0] != "c1" {
		t.Fatalf("muted chats not reloaded: %v", got.MutedChats)
	}
}

func TestCorruptPersistedSettingsFallBackToDefaults(t *testing.T) {
	env := newTestEnv()
	env.store.Set(1, domain.KeyNotificationSettings, "{not json")
	got := env.m.Settings(1)
	if !got.Enabled || got.Priority != "high" {
		t.Fatalf("corrupt settings should yield defaults, got %+v", got)
	}
}

func TestAppForegroundClearsStateAndStopsReminder(t *testing.T) {
	env := newTestEnv()
	env.m.UpdateSetting(1, "reminder", true)
	if err := env.m.HandleMessage(context.Background(), 1, MessageEvent{
		ID: "m1", ChatID: "c1", Text: "hi",
	}); err != nil {
		t.Fatalf("handle message: %v", err)
	}

	env.m.AppBackground(context.Background(), 1)
	env.m.mu.Lock()
	started := env.m.users[1].reminderCancel != nil
	env.m.mu.Unlock()
	if !started {
		t.Fatal("background with reminders on should start the loop")
	}

	env.m.AppForeground(1)
	if env.m.ActiveCount(1) != 0 || env.m.Badge(1) != 0 {
		t.Fatal("foreground must clear active set and badge")
	}
	env.m.mu.Lock()
	stopped := env.m.users[1].reminderCancel == nil
	env.m.mu.Unlock()
	if !stopped {
		t.Fatal("foreground must stop the reminder loop")
	}
}

func TestHistoryCappedNewestFirst(t *testing.T) {
	env := newTestEnv()
	for i := 0; i < historyCap+10; i++ {
		if err := env.m.HandleMessage(context.Background(), 1, MessageEvent{
			ID: fmt.Sprintf("m%d", i), ChatID: fmt.Sprintf("c%d", i), Text: "hi",
		}); err != nil {
			t.Fatalf("handle message %d: %v", i, err)
		}
	}
	hist := env.m.History(1)
	if len(hist) != historyCap {
		t.Fatalf("expected history capped at %d, got %d", historyCap, len(hist))
	}
	if hist[0].Tag != fmt.Sprintf("chat-c%d", historyCap+9) {
		t.Fatalf("history should be newest first, got %q", hist[0].Tag)
	}
}

func TestSetPermissionGrantedSendsWelcome(t *testing.T) {
	env := newTestEnv()
	env.m.SetPermission(context.Background(), 1, domain.PermissionGranted)
	shown := env.worker.displayed()
	if len(shown) == 0 || shown[0].Kind != domain.KindSystem {
		t.Fatalf("grant should show welcome notification, got %v", shown)
	}

	env.worker.mu.Lock()
	env.worker.displays = nil
	env.worker.mu.Unlock()
	env.m.SetPermission(context.Background(), 1, domain.PermissionDenied)
	if len(env.worker.displayed()) != 0 {
		t.Fatal("denial must not show anything")
	}
}

func TestRecomputeBadgeMatchesActiveSet(t *testing.T) {
	env := newTestEnv()
	for i := 0; i < 3; i++ {
		if err := env.m.HandleMessage(context.Background(), 1, MessageEvent{
			ID: fmt.Sprintf("m%d", i), ChatID: fmt.Sprintf("c%d", i), Text: "hi",
		}); err != nil {
			t.Fatalf("handle message: %v", err)
		}
	}
	env.m.ClearBadge(1)
	if env.m.Badge(1) != 0 {
		t.Fatal("clear should zero the badge")
	}
	env.m.RecomputeBadge(1)
	if env.m.Badge(1) != 3 {
		t.Fatalf("recompute should restore badge from active set, got %d", env.m.Badge(1))
	}
}
