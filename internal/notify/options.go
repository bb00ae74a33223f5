package notify

import (
	"chatlobby/internal/domain"
)

const badgeIcon = "/icons/badge-72.png"

// Options is the platform-facing notification payload handed to the display
// primitive (the gateway worker, or the in-page fallback).
type Options struct {
	Body               string            `json:"body"`
	Icon               string            `json:"icon"`
	Badge              string            `json:"badge"`
	Image              string            `json:"image,omitempty"`
	Tag                string            `json:"tag"`
	Timestamp          int64             `json:"timestamp"`
	RequireInteraction bool              `json:"require_interaction"`
	Renotify           bool              `json:"renotify"`
	Silent             bool              `json:"silent"`
	Vibration          []int             `json:"vibration,omitempty"`
	Sound              string            `json:"sound,omitempty"`
	LEDColor           string            `json:"led_color,omitempty"`
	Actions            []Action          `json:"actions,omitempty"`
	Data               map[string]string `json:"data"`
}

// BuildOptions converts a request into display options, honoring preview
// visibility and attaching at most two actions. The LED hint rides along only
// for high-priority requests.
func BuildOptions(req *Request, s *Settings) *Options {
	body := req.Body
	if !s.ShowPreview {
		body = "New message"
	}
	opts := &Options{
		Body:               body,
		Icon:               req.Icon,
		Badge:              badgeIcon,
		Tag:                req.Tag,
		Timestamp:          req.Timestamp.UnixMilli(),
		RequireInteraction: req.RequireInteraction,
		Renotify:           req.Renotify,
		Silent:             req.Silent,
		Vibration:          req.Vibration,
		Sound:              req.Sound,
		Data: map[string]string{
			"id":       req.ID,
			"kind":     req.Kind,
			"priority": req.Priority,
		},
	}
	if req.Image != "" && s.ShowPreview {
		opts.Image = req.Image
	}
	if len(req.Actions) > 0 {
		n := len(req.Actions)
		if n > 2 {
			n = 2
		}
		opts.Actions = req.Actions[:n]
	}
	if s.LED && (req.Priority == domain.PriorityHigh || req.Priority == domain.PriorityMax) {
		opts.LEDColor = s.NotificationLightColor
	}
	if req.ChatID != "" {
		opts.Data["chat_id"] = req.ChatID
		opts.Data["message_id"] = req.MessageID
		opts.Data["sender_id"] = req.SenderID
	}
	if req.CallID != "" {
		opts.Data["call_id"] = req.CallID
		opts.Data["caller_id"] = req.CallerID
	}
	if req.StatusID != "" {
		opts.Data["status_id"] = req.StatusID
		opts.Data["poster_id"] = req.PosterID
	}
	return opts
}
