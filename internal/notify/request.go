package notify

import (
	"errors"
	"fmt"
	"time"

	"chatlobby/internal/domain"

	"github.com/google/uuid"
)

// Action is one button attached to a notification. At most two are ever
// attached to the displayed notification.
type Action struct {
	Action string `json:"action"`
	Title  string `json:"title"`
	Icon   string `json:"icon"`
}

// Request is one candidate notification. Built only through the per-kind
// constructors below so each kind carries exactly the fields valid for it;
// never mutated after creation.
type Request struct {
	ID        string    `json:"id"`
	UserID    uint      `json:"user_id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Icon      string    `json:"icon"`
	Image     string    `json:"image,omitempty"`
	Tag       string    `json:"tag"`
	Timestamp time.Time `json:"timestamp"`

	// Exactly one of ChatID / CallID / StatusID is set, per kind.
	ChatID    string `json:"chat_id,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	SenderID  string `json:"sender_id,omitempty"`
	CallID    string `json:"call_id,omitempty"`
	CallerID  string `json:"caller_id,omitempty"`
	StatusID  string `json:"status_id,omitempty"`
	PosterID  string `json:"poster_id,omitempty"`

	IsGroup   bool `json:"is_group,omitempty"`
	IsMention bool `json:"is_mention,omitempty"`
	IsVideo   bool `json:"is_video,omitempty"`

	Priority string   `json:"priority"`
	Actions  []Action `json:"actions,omitempty"`

	RequireInteraction bool   `json:"require_interaction"`
	Renotify           bool   `json:"renotify"`
	Silent             bool   `json:"silent"`
	Vibration          []int  `json:"vibration,omitempty"`
	Sound              string `json:"sound,omitempty"`
}

const defaultIcon = "/icons/icon-192.png"

// MessageEvent is the raw new-message emission from the chat module.
type MessageEvent struct {
	ID           string    `json:"id"`
	ChatID       string    `json:"chat_id"`
	SenderID     string    `json:"sender_id"`
	SenderName   string    `json:"sender_name"`
	SenderAvatar string    `json:"sender_avatar"`
	Text         string    `json:"text"`
	MediaURL     string    `json:"media_url"`
	MediaType    string    `json:"media_type"`
	HasMedia     bool      `json:"has_media"`
	IsGroup      bool      `json:"is_group"`
	IsMention    bool      `json:"is_mention"`
	Timestamp    time.Time `json:"timestamp"`
}

// CallEvent is the raw incoming-call emission from the call module.
type CallEvent struct {
	ID           string `json:"id"`
	CallerID     string `json:"caller_id"`
	CallerName   string `json:"caller_name"`
	CallerAvatar string `json:"caller_avatar"`
	IsVideo      bool   `json:"is_video"`
	IsGroupCall  bool   `json:"is_group_call"`
}

// StatusEvent is the raw status-update emission from the status module.
type StatusEvent struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	UserName   string    `json:"user_name"`
	UserAvatar string    `json:"user_avatar"`
	PreviewURL string    `json:"preview_url"`
	Kind       string    `json:"kind"`
	Timestamp  time.Time `json:"timestamp"`
}

var errMissingID = errors.New("event is missing its identifier")

// NewMessageRequest builds a message-kind request. The tag groups
// notifications per chat so the platform replaces rather than stacks them.
func NewMessageRequest(userID uint, m MessageEvent, s *Settings, now time.Time) (*Request, error) {
	if m.ID == "" || m.ChatID == "" {
		return nil, errMissingID
	}
	ts := m.Timestamp
	if ts.IsZero() {
		ts = now
	}
	icon := m.SenderAvatar
	if icon == "" {
		icon = defaultIcon
	}
	title := m.SenderName
	if title == "" {
		title = "New message"
	}
	return &Request{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      domain.KindMessage,
		Title:     title,
		Body:      messagePreview(m, s),
		Icon:      icon,
		Image:     m.MediaURL,
		Tag:       "chat-" + m.ChatID,
		Timestamp: ts,
		ChatID:    m.ChatID,
		MessageID: m.ID,
		SenderID:  m.SenderID,
		IsGroup:   m.IsGroup,
		IsMention: m.IsMention,
		Priority:  messagePriority(m, s),
		Actions: []Action{
			{Action: domain.ActionReply, Title: "Reply", Icon: "/icons/reply.png"},
			{Action: domain.ActionMarkRead, Title: "Mark as read", Icon: "/icons/check.png"},
		},
		RequireInteraction: m.IsMention,
		Renotify:           true,
		Silent:             s.QuietHoursActive(now),
		Vibration:          vibrationPattern(domain.KindMessage, s),
		Sound:              soundName(domain.KindMessage, s),
	}, nil
}

// NewCallRequest builds a call-kind request. Calls are always max priority
// and require interaction until answered or declined.
func NewCallRequest(userID uint, call CallEvent) (*Request, error) {
	if call.ID == "" {
		return nil, errMissingID
	}
	title := "Incoming call"
	if call.IsVideo {
		title = "Incoming video call"
	}
	icon := call.CallerAvatar
	if icon == "" {
		icon = defaultIcon
	}
	return &Request{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      domain.KindCall,
		Title:     title,
		Body:      call.CallerName + " is calling",
		Icon:      icon,
		Tag:       "call-" + call.ID,
		Timestamp: time.Now(),
		CallID:    call.ID,
		CallerID:  call.CallerID,
		IsVideo:   call.IsVideo,
		IsGroup:   call.IsGroupCall,
		Priority:  domain.PriorityMax,
		Actions: []Action{
			{Action: domain.ActionAnswer, Title: "Answer", Icon: "/icons/answer.png"},
			{Action: domain.ActionDecline, Title: "Decline", Icon: "/icons/decline.png"},
			{Action: domain.ActionMessage, Title: "Message", Icon: "/icons/message.png"},
		},
		RequireInteraction: true,
		Renotify:           true,
		Silent:             false,
		Vibration:          []int{1000, 1000, 1000, 1000, 1000},
		Sound:              "call",
	}, nil
}

// NewStatusRequest builds a status-kind request (low priority, no actions).
func NewStatusRequest(userID uint, st StatusEvent, s *Settings, now time.Time) (*Request, error) {
	if st.ID == "" || st.UserID == "" {
		return nil, errMissingID
	}
	ts := st.Timestamp
	if ts.IsZero() {
		ts = now
	}
	icon := st.UserAvatar
	if icon == "" {
		icon = defaultIcon
	}
	return &Request{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      domain.KindStatus,
		Title:     "Status update",
		Body:      st.UserName + " posted a new status",
		Icon:      icon,
		Image:     st.PreviewURL,
		Tag:       "status-" + st.UserID,
		Timestamp: ts,
		StatusID:  st.ID,
		PosterID:  st.UserID,
		Priority:  domain.PriorityLow,
		Silent:    s.QuietHoursActive(now),
		Vibration: vibrationPattern(domain.KindStatus, s),
		Sound:     soundName(domain.KindStatus, s),
	}, nil
}

// NewSystemRequest builds a system-kind request (welcome message and the
// like). Always silent and low priority.
func NewSystemRequest(userID uint, tag, title, body string) *Request {
	return &Request{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      domain.KindSystem,
		Title:     title,
		Body:      body,
		Icon:      defaultIcon,
		Tag:       tag,
		Timestamp: time.Now(),
		Priority:  domain.PriorityLow,
		Silent:    true,
	}
}

// NewReminderRequest builds the recurring unread-count reminder.
func NewReminderRequest(userID uint, unread int) *Request {
	plural := "s"
	if unread == 1 {
		plural = ""
	}
	return &Request{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      domain.KindReminder,
		Title:     "WhatsApp",
		Body:      fmt.Sprintf("You have %d unread message%s", unread, plural),
		Icon:      defaultIcon,
		Tag:       "reminder",
		Timestamp: time.Now(),
		Priority:  domain.PriorityLow,
		Silent:    true,
	}
}

// TargetID returns whichever of the three identifiers is present.
func (r *Request) TargetID() string {
	switch {
	case r.ChatID != "":
		return r.ChatID
	case r.CallID != "":
		return r.CallID
	default:
		return r.StatusID
	}
}
