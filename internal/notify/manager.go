package notify

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"chatlobby/internal/domain"
)

// Store persists per-user JSON snapshots (settings, pending queue, history).
type Store interface {
	Get(userID uint, key string) (string, error)
	Set(userID uint, key, value string) error
	Delete(userID uint, key string) error
}

// Worker is the gateway worker as seen from the page context: the preferred
// display primitive plus the cross-context side channels.
type Worker interface {
	Ready() bool
	Display(ctx context.Context, req *Request, opts *Options) error
	UpdateSettings(userID uint, s *Settings)
	UpdateBadge(userID uint, count int)
}

// Displayer is the in-page fallback used when the worker is not ready.
type Displayer interface {
	Display(ctx context.Context, req *Request, opts *Options) error
}

// Bridge is the live channel to a user's open pages. IsOnline doubles as the
// "document is visible" signal.
type Bridge interface {
	IsOnline(userID uint) bool
	SendToUser(userID uint, payload interface{})
}

// PermissionSource reports a user's notification permission state.
type PermissionSource interface {
	Permission(userID uint) string
}

// Collaborators are the opaque capability interfaces the click router calls
// back into.
type ChatOpener interface {
	OpenChat(userID uint, chatID string, replyTo string)
}

type CallController interface {
	AnswerCall(userID uint, callID string)
	DeclineCall(userID uint, callID string)
}

type MessageReader interface {
	MarkMessageRead(userID uint, chatID, messageID string)
}

// ActiveRecord tracks one notification currently visible to the user. Used
// only for badge accounting; the platform owns delivered state.
type ActiveRecord struct {
	Request *Request  `json:"request"`
	ShownAt time.Time `json:"shown_at"`
}

// HistoryEntry is one line of the capped notification history.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Tag       string    `json:"tag"`
	TargetID  string    `json:"target_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

const historyCap = 100

type userState struct {
	settings       *Settings
	queue          []QueueEntry
	active         map[string]*ActiveRecord
	badge          int
	history        []HistoryEntry
	reminderCancel context.CancelFunc
}

// Manager gates, formats and dispatches notifications: settings, queue,
// badge, history and click routing for every user.
type Manager struct {
	store    Store
	worker   Worker
	fallback Displayer
	bridge   Bridge
	perms    PermissionSource

	chats  ChatOpener
	calls  CallController
	reader MessageReader

	now        func() time.Time
	sleep      func(time.Duration)
	drainDelay time.Duration
	staleAfter time.Duration

	mu       sync.Mutex
	users    map[uint]*userState
	draining bool
}

func NewManager(store Store, worker Worker, fallback Displayer, bridge Bridge, perms PermissionSource) *Manager {
	return &Manager{
		store:      store,
		worker:     worker,
		fallback:   fallback,
		bridge:     bridge,
		perms:      perms,
		now:        time.Now,
		sleep:      time.Sleep,
		drainDelay: time.Second,
		staleAfter: time.Hour,
		users:      make(map[uint]*userState),
	}
}

// SetCollaborators wires the chat/call/read capability objects. Each may be
// nil; the corresponding click actions then degrade to no-ops.
func (m *Manager) SetCollaborators(chats ChatOpener, calls CallController, reader MessageReader) {
	m.chats = chats
	m.calls = calls
	m.reader = reader
}

// stateFor lazily loads a user's persisted settings and pending queue.
// Caller must hold m.mu.
func (m *Manager) stateFor(userID uint) *userState {
	if st, ok := m.users[userID]; ok {
		return st
	}
	st := &userState{
		settings: DefaultSettings(),
		active:   make(map[string]*ActiveRecord),
	}
	if m.store != nil {
		if raw, err := m.store.Get(userID, domain.KeyNotificationSettings); err != nil {
			log.Printf("[Notify] load settings for user %d: %v", userID, err)
		} else if raw != "" {
			if err := json.Unmarshal([]byte(raw), st.settings); err != nil {
				log.Printf("[Notify] corrupt settings for user %d: %v", userID, err)
				st.settings = DefaultSettings()
			}
		}
		if raw, err := m.store.Get(userID, domain.KeyPendingNotifications); err != nil {
			log.Printf("[Notify] load pending queue for user %d: %v", userID, err)
		} else if raw != "" {
			if err := json.Unmarshal([]byte(raw), &st.queue); err != nil {
				log.Printf("[Notify] corrupt pending queue for user %d: %v", userID, err)
				st.queue = nil
			}
		}
		if raw, err := m.store.Get(userID, domain.KeyNotificationHistory); err == nil && raw != "" {
			_ = json.Unmarshal([]byte(raw), &st.history)
		}
	}
	m.users[userID] = st
	return st
}

// Settings returns a copy of the user's current settings.
func (m *Manager) Settings(userID uint) Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.stateFor(userID).settings
}

// UpdateSetting mutates one settings field by key, persists the snapshot and
// pushes the change to the worker. Returns false for unknown keys.
func (m *Manager) UpdateSetting(userID uint, key string, value interface{}) bool {
	m.mu.Lock()
	st := m.stateFor(userID)
	if !st.settings.Apply(key, value) {
		m.mu.Unlock()
		return false
	}
	snapshot := *st.settings
	m.persistSettings(userID, st)
	m.mu.Unlock()

	if m.worker != nil {
		m.worker.UpdateSettings(userID, &snapshot)
	}
	return true
}

func (m *Manager) persistSettings(userID uint, st *userState) {
	if m.store == nil {
		return
	}
	b, err := json.Marshal(st.settings)
	if err != nil {
		return
	}
	if err := m.store.Set(userID, domain.KeyNotificationSettings, string(b)); err != nil {
		log.Printf("[Notify] save settings for user %d: %v", userID, err)
	}
}

// HandleMessage runs the policy gate and, when it passes, pushes the message
// through the delivery pipeline.
func (m *Manager) HandleMessage(ctx context.Context, userID uint, msg MessageEvent) error {
	now := m.now()
	m.mu.Lock()
	st := m.stateFor(userID)
	settings := *st.settings
	m.mu.Unlock()

	if !settings.ShouldNotifyForMessage(msg, now) {
		return nil
	}
	req, err := NewMessageRequest(userID, msg, &settings, now)
	if err != nil {
		return err
	}
	m.addHistory(userID, req)
	return m.Deliver(ctx, req)
}

// HandleCall surfaces an incoming call. Calls bypass most gating: they are
// max priority and ride through quiet hours.
func (m *Manager) HandleCall(ctx context.Context, userID uint, call CallEvent) error {
	m.mu.Lock()
	enabled := m.stateFor(userID).settings.CallNotifications
	m.mu.Unlock()
	if !enabled {
		return nil
	}
	req, err := NewCallRequest(userID, call)
	if err != nil {
		return err
	}
	return m.Deliver(ctx, req)
}

// HandleStatus surfaces a contact's status update.
func (m *Manager) HandleStatus(ctx context.Context, userID uint, st StatusEvent) error {
	now := m.now()
	m.mu.Lock()
	state := m.stateFor(userID)
	enabled := state.settings.StatusNotifications
	settings := *state.settings
	m.mu.Unlock()
	if !enabled {
		return nil
	}
	req, err := NewStatusRequest(userID, st, &settings, now)
	if err != nil {
		return err
	}
	return m.Deliver(ctx, req)
}

// Deliver is the delivery decision tree. Each branch is terminal for this
// attempt: blocked requests go to the queue, foreground users get a banner,
// everything else is displayed through the worker or the fallback. A display
// failure re-enqueues instead of dropping.
func (m *Manager) Deliver(ctx context.Context, req *Request) error {
	now := m.now()
	m.mu.Lock()
	st := m.stateFor(req.UserID)
	settings := *st.settings
	m.mu.Unlock()

	if !settings.Enabled {
		m.enqueue(req, now)
		return nil
	}
	if m.perms != nil && m.perms.Permission(req.UserID) != domain.PermissionGranted {
		m.enqueue(req, now)
		return nil
	}
	if settings.QuietHoursActive(now) && req.Priority != domain.PriorityMax {
		m.enqueue(req, now)
		return nil
	}
	if m.bridge != nil && m.bridge.IsOnline(req.UserID) && settings.InAppNotifications {
		m.showBanner(req)
		return nil
	}

	opts := BuildOptions(req, &settings)
	var err error
	if m.worker != nil && m.worker.Ready() {
		err = m.worker.Display(ctx, req, opts)
	} else if m.fallback != nil {
		err = m.fallback.Display(ctx, req, opts)
	}
	if err != nil {
		log.Printf("[Notify] display %s failed, re-queueing: %v", req.ID, err)
		m.enqueue(req, now)
		return nil
	}

	m.mu.Lock()
	st.active[req.ID] = &ActiveRecord{Request: req, ShownAt: now}
	if settings.Badge && (req.Kind == domain.KindMessage || req.Kind == domain.KindCall) {
		st.badge++
	}
	badge := st.badge
	m.mu.Unlock()
	m.pushBadge(req.UserID, badge)
	return nil
}

// bannerFrame is the in-page banner pushed over the bridge when the user is
// foregrounded. The client auto-dismisses it after DurationMS.
type bannerFrame struct {
	Type       string `json:"type"`
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	Icon       string `json:"icon"`
	Tag        string `json:"tag"`
	TargetID   string `json:"target_id,omitempty"`
	DurationMS int    `json:"duration_ms"`
}

func (m *Manager) showBanner(req *Request) {
	m.bridge.SendToUser(req.UserID, bannerFrame{
		Type:       domain.MsgBanner,
		ID:         req.ID,
		Kind:       req.Kind,
		Title:      req.Title,
		Body:       req.Body,
		Icon:       req.Icon,
		Tag:        req.Tag,
		TargetID:   req.TargetID(),
		DurationMS: 5000,
	})
}

// HandleClick routes a notification click. The record is removed from the
// active set and the badge decremented regardless of the action taken.
func (m *Manager) HandleClick(ctx context.Context, userID uint, requestID, action string) {
	m.mu.Lock()
	st := m.stateFor(userID)
	rec, ok := st.active[requestID]
	if ok {
		delete(st.active, requestID)
		if st.badge > 0 {
			st.badge--
		}
	}
	badge := st.badge
	m.mu.Unlock()
	if !ok {
		return
	}
	req := rec.Request

	switch action {
	case domain.ActionReply:
		if m.chats != nil {
			m.chats.OpenChat(userID, req.ChatID, req.MessageID)
		}
	case domain.ActionMarkRead:
		if m.reader != nil {
			m.reader.MarkMessageRead(userID, req.ChatID, req.MessageID)
		}
	case domain.ActionAnswer:
		if m.calls != nil {
			m.calls.AnswerCall(userID, req.CallID)
		}
	case domain.ActionDecline:
		if m.calls != nil {
			m.calls.DeclineCall(userID, req.CallID)
		}
	case domain.ActionMessage:
		if m.chats != nil && req.CallerID != "" {
			m.chats.OpenChat(userID, req.CallerID, "")
		}
	default:
		m.openTarget(userID, req)
	}
	m.pushBadge(userID, badge)
}

// openTarget is the default click path, keyed by whichever identifier the
// request carries.
func (m *Manager) openTarget(userID uint, req *Request) {
	switch {
	case req.ChatID != "":
		if m.chats != nil {
			m.chats.OpenChat(userID, req.ChatID, "")
		}
	case req.CallID != "":
		if m.calls != nil {
			m.calls.AnswerCall(userID, req.CallID)
		}
	case req.StatusID != "":
		if m.chats != nil {
			m.chats.OpenChat(userID, req.PosterID, "")
		}
	}
}

// HandleClose records an explicit close: the active record goes away and the
// badge drops by one.
func (m *Manager) HandleClose(userID uint, requestID string) {
	m.mu.Lock()
	st := m.stateFor(userID)
	rec, ok := st.active[requestID]
	if ok {
		delete(st.active, requestID)
		if st.badge > 0 {
			st.badge--
		}
	}
	badge := st.badge
	m.mu.Unlock()
	if !ok {
		return
	}
	m.addHistory(userID, rec.Request)
	m.pushBadge(userID, badge)
}

// Badge returns the user's current badge count.
func (m *Manager) Badge(userID uint) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateFor(userID).badge
}

// ClearBadge zeroes the badge and mirrors it out.
func (m *Manager) ClearBadge(userID uint) {
	m.mu.Lock()
	st := m.stateFor(userID)
	st.badge = 0
	m.mu.Unlock()
	m.pushBadge(userID, 0)
}

// RecomputeBadge resets the badge to the size of the active set. Ran
// periodically to correct drift from missed close events.
func (m *Manager) RecomputeBadge(userID uint) {
	m.mu.Lock()
	st := m.stateFor(userID)
	st.badge = len(st.active)
	badge := st.badge
	m.mu.Unlock()
	m.pushBadge(userID, badge)
}

func (m *Manager) pushBadge(userID uint, count int) {
	if m.bridge != nil {
		m.bridge.SendToUser(userID, map[string]interface{}{
			"type":  domain.MsgBadgeUpdate,
			"count": count,
		})
	}
	if m.worker != nil {
		m.worker.UpdateBadge(userID, count)
	}
}

// SetPermission records a permission transition. Granting fires the one-time
// welcome notification and drains anything queued while blocked.
func (m *Manager) SetPermission(ctx context.Context, userID uint, permission string) {
	if permission != domain.PermissionGranted {
		return
	}
	welcome := NewSystemRequest(userID, "welcome", "WhatsApp",
		"Notifications are now enabled! You'll be notified about new messages and calls.")
	if err := m.Deliver(ctx, welcome); err != nil {
		log.Printf("[Notify] welcome notification: %v", err)
	}
	go m.DrainQueue(ctx)
}

// AppForeground clears visible notifications, resets the badge and stops the
// reminder loop.
func (m *Manager) AppForeground(userID uint) {
	m.mu.Lock()
	st := m.stateFor(userID)
	st.active = make(map[string]*ActiveRecord)
	st.badge = 0
	cancel := st.reminderCancel
	st.reminderCancel = nil
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	m.pushBadge(userID, 0)
}

// AppOnline re-drains the queue once connectivity returns.
func (m *Manager) AppOnline(ctx context.Context) {
	go m.DrainQueue(ctx)
}

// ActiveCount returns how many notifications are currently visible.
func (m *Manager) ActiveCount(userID uint) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stateFor(userID).active)
}

func (m *Manager) addHistory(userID uint, req *Request) {
	m.mu.Lock()
	st := m.stateFor(userID)
	st.history = append([]HistoryEntry{{
		ID:        req.ID,
		Kind:      req.Kind,
		Tag:       req.Tag,
		TargetID:  req.TargetID(),
		Timestamp: req.Timestamp,
	}}, st.history...)
	if len(st.history) > historyCap {
		st.history = st.history[:historyCap]
	}
	snapshot := make([]HistoryEntry, len(st.history))
	copy(snapshot, st.history)
	m.mu.Unlock()

	if m.store != nil {
		if b, err := json.Marshal(snapshot); err == nil {
			if err := m.store.Set(userID, domain.KeyNotificationHistory, string(b)); err != nil {
				log.Printf("[Notify] save history for user %d: %v", userID, err)
			}
		}
	}
}

// History returns the most recent history entries, newest first.
func (m *Manager) History(userID uint) []HistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.stateFor(userID)
	out := make([]HistoryEntry, len(st.history))
	copy(out, st.history)
	return out
}

// Run drives the periodic full badge recompute until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.mu.Lock()
			ids := make([]uint, 0, len(m.users))
			for id := range m.users {
				ids = append(ids, id)
			}
			m.mu.Unlock()
			for _, id := range ids {
				m.RecomputeBadge(id)
			}
		}
	}
}
