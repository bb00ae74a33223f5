package notify

import (
	"context"
	"log"
	"time"
)

// AppBackground starts the reminder loop for the user when reminders are
// enabled. The loop fires a silent unread-count notification every interval
// while the badge is non-zero, and stops deterministically when its context
// is cancelled by AppForeground or shutdown.
func (m *Manager) AppBackground(ctx context.Context, userID uint) {
	m.mu.Lock()
	st := m.stateFor(userID)
	if !st.settings.Reminder || st.reminderCancel != nil {
		m.mu.Unlock()
		return
	}
	interval := time.Duration(st.settings.ReminderIntervalMin) * time.Minute
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	loopCtx, cancel := context.WithCancel(ctx)
	st.reminderCancel = cancel
	m.mu.Unlock()

	go m.reminderLoop(loopCtx, userID, interval)
}

func (m *Manager) reminderLoop(ctx context.Context, userID uint, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			badge := m.Badge(userID)
			if badge == 0 {
				continue
			}
			req := NewReminderRequest(userID, badge)
			if err := m.Deliver(ctx, req); err != nil {
				log.Printf("[Notify] reminder for user %d: %v", userID, err)
			}
		}
	}
}
