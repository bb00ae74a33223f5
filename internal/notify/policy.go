package notify

import (
	"time"

	"chatlobby/internal/domain"
)

// ShouldNotifyForMessage is the deterministic gate for message events,
// checked in precedence order: enabled flag, block list, mute list
// (mentioned-only chats still surface mentions), low-priority groups,
// quiet hours.
func (s *Settings) ShouldNotifyForMessage(m MessageEvent, now time.Time) bool {
	if !s.Enabled {
		return false
	}
	if containsStr(s.BlockedChats, m.ChatID) {
		return false
	}
	if containsStr(s.MutedChats, m.ChatID) {
		if containsStr(s.MentionedOnly, m.ChatID) {
			return m.IsMention
		}
		return false
	}
	if m.IsGroup && containsStr(s.LowPriorityGroups, m.ChatID) {
		return m.IsMention
	}
	if s.QuietHoursActive(now) {
		return m.IsMention || messagePriority(m, s) == domain.PriorityHigh
	}
	return true
}

// messagePreview formats the notification body, honoring the preview setting.
func messagePreview(m MessageEvent, s *Settings) string {
	if !s.ShowPreview {
		return "New message"
	}
	if m.HasMedia {
		switch m.MediaType {
		case "image":
			return "Photo"
		case "video":
			return "Video"
		case "audio":
			return "Voice message"
		case "document":
			return "Document"
		default:
			return "Media"
		}
	}
	if m.IsMention {
		return "@" + m.SenderName + ": " + m.Text
	}
	if len(m.Text) > 100 {
		return m.Text[:100] + "..."
	}
	if m.Text == "" {
		return "New message"
	}
	return m.Text
}

func messagePriority(m MessageEvent, s *Settings) string {
	if m.IsMention {
		return domain.PriorityHigh
	}
	if m.IsGroup && containsStr(s.LowPriorityGroups, m.ChatID) {
		return domain.PriorityLow
	}
	return domain.PriorityNormal
}

// vibrationPatterns maps pattern names to millisecond on/off sequences.
var vibrationPatterns = map[string][]int{
	"default":   {200, 100, 200},
	"short":     {100},
	"long":      {500},
	"pulse":     {100, 100, 100, 100, 100},
	"heartbeat": {100, 100, 300, 100, 100},
}

func vibrationPattern(kind string, s *Settings) []int {
	if !s.Vibrate {
		return nil
	}
	name := s.VibrationPattern
	if kind == domain.KindCall {
		name = "default"
	}
	if p, ok := vibrationPatterns[name]; ok {
		return p
	}
	return vibrationPatterns["default"]
}

func soundName(kind string, s *Settings) string {
	if !s.Sound {
		return ""
	}
	if kind == domain.KindCall {
		return "call"
	}
	if s.Ringtone != "" {
		return s.Ringtone
	}
	return "default"
}
