package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"chatlobby/internal/domain"
)

func queueMessages(t *testing.T, env *testEnv, userID uint, ids ...string) {
	t.Helper()
	env.perms.denied[userID] = true
	for _, id := range ids {
		if err := env.m.HandleMessage(context.Background(), userID, MessageEvent{
			ID: id, ChatID: "c-" + id, Text: "hi",
		}); err != nil {
			t.Fatalf("queue message %s: %v", id, err)
		}
	}
	env.perms.denied[userID] = false
}

func TestDrainQueueDeliversFIFO(t *testing.T) {
	env := newTestEnv()
	queueMessages(t, env, 1, "a", "b", "c")
	if env.m.QueueLen(1) != 3 {
		t.Fatalf("expected 3 queued, got %d", env.m.QueueLen(1))
	}

	env.m.DrainQueue(context.Background())

	shown := env.worker.displayed()
	if len(shown) != 3 {
		t.Fatalf("expected 3 deliveries, got %d", len(shown))
	}
	for i, want := range []string{"chat-c-a", "chat-c-b", "chat-c-c"} {
		if shown[i].Tag != want {
			t.Fatalf("delivery %d: got tag %q, want %q", i, shown[i].Tag, want)
		}
	}
	if env.m.QueueLen(1) != 0 {
		t.Fatalf("queue should be empty, got %d", env.m.QueueLen(1))
	}
	if raw, _ := env.store.Get(1, domain.KeyPendingNotifications); raw != "" {
		t.Fatalf("drained queue snapshot should be deleted, got %q", raw)
	}
}

func TestDrainQueueSkipsStaleEntries(t *testing.T) {
	env := newTestEnv()
	queueMessages(t, env, 1, "old", "new")

	// Age only the first entry past the staleness window.
	env.m.mu.Lock()
	env.m.users[1].queue[0].QueuedAt = time.Now().Add(-2 * time.Hour)
	env.m.mu.Unlock()

	env.m.DrainQueue(context.Background())

	shown := env.worker.displayed()
	if len(shown) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(shown))
	}
	if shown[0].Tag != "chat-c-new" {
		t.Fatalf("stale entry delivered instead of skipped: %q", shown[0].Tag)
	}
}

func TestDrainQueueStillBlockedEntriesWaitForNextDrain(t *testing.T) {
	env := newTestEnv()
	queueMessages(t, env, 1, "a")

	// Permission is denied again at drain time: the entry is re-parked once,
	// not spun on forever.
	env.perms.denied[1] = true
	env.m.DrainQueue(context.Background())

	if len(env.worker.displayed()) != 0 {
		t.Fatal("blocked entry must not be displayed")
	}
	if env.m.QueueLen(1) != 1 {
		t.Fatalf("blocked entry should be re-parked, got %d queued", env.m.QueueLen(1))
	}
}

func TestDrainQueueSingleFlight(t *testing.T) {
	env := newTestEnv()
	queueMessages(t, env, 1, "a", "b")

	release := make(chan struct{})
	started := make(chan struct{}, 2)
	env.m.sleep = func(time.Duration) {
		started <- struct{}{}
		<-release
	}

	go env.m.DrainQueue(context.Background())
	<-started

	// Second drain while the first is paused must return immediately.
	done := make(chan struct{})
	go func() {
		env.m.DrainQueue(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("concurrent drain did not return immediately")
	}

	close(release)
	deadline := time.After(time.Second)
	for len(env.worker.displayed()) < 2 {
		select {
		case <-deadline:
			t.Fatal("first drain never finished")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}

func TestDrainQueueRequeuesOnCancellation(t *testing.T) {
	env := newTestEnv()
	queueMessages(t, env, 1, "a", "b", "c")

	ctx, cancel := context.WithCancel(context.Background())
	env.m.sleep = func(time.Duration) { cancel() }

	env.m.DrainQueue(ctx)

	if len(env.worker.displayed()) != 1 {
		t.Fatalf("expected 1 delivery before cancellation, got %d", len(env.worker.displayed()))
	}
	if env.m.QueueLen(1) != 2 {
		t.Fatalf("remaining entries should be re-parked, got %d", env.m.QueueLen(1))
	}
}

func TestPersistedQueueSurvivesRestart(t *testing.T) {
	env := newTestEnv()
	queueMessages(t, env, 1, "a")

	raw, _ := env.store.Get(1, domain.KeyPendingNotifications)
	var entries []QueueEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		t.Fatalf("snapshot not valid JSON: %v", err)
	}
	if len(entries) != 1 || entries[0].Request.Tag != "chat-c-a" {
		t.Fatalf("unexpected snapshot: %+v", entries)
	}

	fresh := NewManager(env.store, env.worker, nil, env.bridge, env.perms)
	fresh.sleep = func(time.Duration) {}
	fresh.LoadPending(context.Background(), 1)

	shown := env.worker.displayed()
	if len(shown) != 1 || shown[0].Tag != "chat-c-a" {
		t.Fatalf("persisted entry not delivered after restart: %v", shown)
	}
}
