package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"chatlobby/internal/domain"
)

// QueueEntry is a blocked request plus the moment it was parked. Entries
// older than the staleness window at drain time are discarded, not delivered.
type QueueEntry struct {
	Request  *Request  `json:"request"`
	QueuedAt time.Time `json:"queued_at"`
}

// enqueue parks a request for a later drain and persists the user's queue
// snapshot so it survives a restart.
func (m *Manager) enqueue(req *Request, now time.Time) {
	m.mu.Lock()
	st := m.stateFor(req.UserID)
	st.queue = append(st.queue, QueueEntry{Request: req, QueuedAt: now})
	m.persistQueue(req.UserID, st)
	m.mu.Unlock()
}

// persistQueue writes the pending snapshot. Caller must hold m.mu. Storage
// failures are logged; the in-memory queue keeps operating.
func (m *Manager) persistQueue(userID uint, st *userState) {
	if m.store == nil {
		return
	}
	if len(st.queue) == 0 {
		if err := m.store.Delete(userID, domain.KeyPendingNotifications); err != nil {
			log.Printf("[Queue] clear pending for user %d: %v", userID, err)
		}
		return
	}
	b, err := json.Marshal(st.queue)
	if err != nil {
		return
	}
	if err := m.store.Set(userID, domain.KeyPendingNotifications, string(b)); err != nil {
		log.Printf("[Queue] save pending for user %d: %v", userID, err)
	}
}

// QueueLen reports how many requests are parked for the user.
func (m *Manager) QueueLen(userID uint) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stateFor(userID).queue)
}

// DrainQueue delivers parked requests FIFO. Single-flight: a second drain
// started while one is running returns immediately. Each entry present at the
// start of the drain is attempted at most once; entries that a delivery
// branch parks again stay for the next drain. Stale entries are skipped. A
// fixed delay between deliveries avoids notification storms.
func (m *Manager) DrainQueue(ctx context.Context) {
	m.mu.Lock()
	if m.draining {
		m.mu.Unlock()
		return
	}
	m.draining = true

	type batch struct {
		userID  uint
		entries []QueueEntry
	}
	var batches []batch
	for id, st := range m.users {
		if len(st.queue) == 0 {
			continue
		}
		entries := st.queue
		st.queue = nil
		m.persistQueue(id, st)
		batches = append(batches, batch{userID: id, entries: entries})
	}
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.draining = false
		m.mu.Unlock()
	}()

	for _, b := range batches {
		for i, entry := range b.entries {
			if ctx.Err() != nil {
				// Put the rest back so nothing is lost on shutdown.
				m.requeue(b.userID, b.entries[i:])
				return
			}
			if m.now().Sub(entry.QueuedAt) >= m.staleAfter {
				log.Printf("[Queue] dropping stale notification %s for user %d", entry.Request.ID, b.userID)
				continue
			}
			if err := m.Deliver(ctx, entry.Request); err != nil {
				log.Printf("[Queue] deliver %s for user %d: %v", entry.Request.ID, b.userID, err)
			}
			m.sleep(m.drainDelay)
		}
	}
}

func (m *Manager) requeue(userID uint, entries []QueueEntry) {
	m.mu.Lock()
	st := m.stateFor(userID)
	st.queue = append(st.queue, entries...)
	m.persistQueue(userID, st)
	m.mu.Unlock()
}

// LoadPending warms a user's state so a persisted queue from a previous run
// is picked up, then drains it.
func (m *Manager) LoadPending(ctx context.Context, userID uint) {
	m.mu.Lock()
	m.stateFor(userID)
	m.mu.Unlock()
	m.DrainQueue(ctx)
}
