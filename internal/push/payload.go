package push

import (
	"encoding/json"
	"errors"
	"time"

	"chatlobby/internal/domain"
	"chatlobby/internal/notify"
)

// Payload is the push-server contract: the JSON body a push event carries.
type Payload struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	URL       string `json:"url"`
	ChatID    string `json:"chatId"`
	Sender    string `json:"sender"`
	MessageID string `json:"messageId"`
	Type      string `json:"type"`
	Image     string `json:"image,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

var defaultActions = []notify.Action{
	{Action: domain.ActionReply, Title: "Reply", Icon: "/icons/reply.png"},
	{Action: domain.ActionMarkRead, Title: "Mark as read", Icon: "/icons/check.png"},
}

var errEmptyPayload = errors.New("empty push payload")

// Generic is the fallback shown when a push arrives with no readable
// payload. The user still sees something rather than a silently eaten push.
func Generic() *Payload {
	return &Payload{
		Title: "WhatsApp",
		Body:  "New message",
		URL:   "/",
		Type:  domain.KindMessage,
	}
}

// Parse decodes a push payload, applying the contract's defaults.
func Parse(raw []byte) (*Payload, error) {
	if len(raw) == 0 {
		return nil, errEmptyPayload
	}
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	if p.Title == "" {
		p.Title = "WhatsApp"
	}
	if p.Body == "" {
		p.Body = "New message"
	}
	if p.URL == "" {
		p.URL = "/"
	}
	if p.Type == "" {
		p.Type = domain.KindMessage
	}
	return &p, nil
}

// Options builds display options from the payload: default icon, badge and
// vibration, a chat-derived de-duplication tag, and action buttons only for
// message-type pushes.
func (p *Payload) Options() *notify.Options {
	ts := p.Timestamp
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}
	opts := &notify.Options{
		Body:      p.Body,
		Icon:      "/icons/icon-192.png",
		Badge:     "/icons/icon-72.png",
		Timestamp: ts,
		Renotify:  true,
		Vibration: []int{200, 100, 200},
		Data: map[string]string{
			"url":  p.URL,
			"kind": p.Type,
		},
	}
	if p.ChatID != "" {
		opts.Tag = "chat-" + p.ChatID
		opts.Data["chat_id"] = p.ChatID
	}
	if p.Sender != "" {
		opts.Data["sender"] = p.Sender
	}
	if p.MessageID != "" {
		opts.Data["message_id"] = p.MessageID
	}
	if p.Image != "" {
		opts.Image = p.Image
	}
	if p.Type == domain.KindMessage {
		opts.Actions = defaultActions
	}
	return opts
}
