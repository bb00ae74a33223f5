package notify

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// QuietHours is a daily suppression window. Start/End are "HH:MM" at minute
// resolution; Days holds applicable weekdays (0 = Sunday). Overnight windows
// where start > end wrap past midnight.
type QuietHours struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Days    []int  `json:"days"`
}

// Settings is the user-configurable notification policy. Mutated only via
// Manager.UpdateSetting; persisted as one JSON snapshot.
type Settings struct {
	Enabled               bool           `json:"enabled"`
	ShowPreview           bool           `json:"showPreview"`
	Sound                 bool           `json:"sound"`
	Vibrate               bool           `json:"vibrate"`
	LED                   bool           `json:"led"`
	Priority              string         `json:"priority"`
	Ringtone              string         `json:"ringtone"`
	VibrationPattern      string         `json:"vibrationPattern"`
	NotificationLightColor string        `json:"notificationLightColor"`
	GroupNotifications    bool           `json:"groupNotifications"`
	InAppNotifications    bool           `json:"inAppNotifications"`
	Badge                 bool           `json:"badge"`
	Reminder              bool           `json:"reminder"`
	ReminderIntervalMin   int            `json:"reminderInterval"`
	QuietHours            QuietHours     `json:"quietHours"`
	BlockedChats          []string       `json:"blockedChats"`
	MutedChats            []string       `json:"mutedChats"`
	MentionedOnly         []string       `json:"mentionedOnly"`
	LowPriorityGroups     []string       `json:"lowPriorityGroups"`
	MediaNotifications    bool           `json:"mediaNotifications"`
	CallNotifications     bool           `json:"callNotifications"`
	StatusNotifications   bool           `json:"statusNotifications"`
}

func DefaultSettings() *Settings {
	return &Settings{
		Enabled:                true,
		ShowPreview:            true,
		Sound:                  true,
		Vibrate:                true,
		LED:                    true,
		Priority:               "high",
		Ringtone:               "default",
		VibrationPattern:       "default",
		NotificationLightColor: "#25D366",
		GroupNotifications:     true,
		InAppNotifications:     true,
		Badge:                  true,
		Reminder:               false,
		ReminderIntervalMin:    15,
		QuietHours: QuietHours{
			Enabled: false,
			Start:   "22:00",
			End:     "08:00",
			Days:    []int{0, 1, 2, 3, 4, 5, 6},
		},
		BlockedChats:        []string{},
		MutedChats:          []string{},
		MentionedOnly:       []string{},
		LowPriorityGroups:   []string{},
		MediaNotifications:  true,
		CallNotifications:   true,
		StatusNotifications: true,
	}
}

// QuietHoursActive reports whether at falls inside the quiet-hours window.
func (s *Settings) QuietHoursActive(at time.Time) bool {
	if !s.QuietHours.Enabled {
		return false
	}
	day := int(at.Weekday())
	if !containsInt(s.QuietHours.Days, day) {
		return false
	}
	start, err := parseClock(s.QuietHours.Start)
	if err != nil {
		return false
	}
	end, err := parseClock(s.QuietHours.End)
	if err != nil {
		return false
	}
	now := at.Hour()*60 + at.Minute()
	if start < end {
		return now >= start && now < end
	}
	// Overnight window wraps past midnight.
	return now >= start || now < end
}

// parseClock converts "HH:MM" to minutes since midnight.
func parseClock(v string) (int, error) {
	parts := strings.SplitN(v, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("bad clock value %q", v)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("bad clock value %q", v)
	}
	return h*60 + m, nil
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func containsStr(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// Apply sets a single settings field by its JSON key. Unknown keys are
// rejected so a typo in an update request can never silently drop policy.
func (s *Settings) Apply(key string, value interface{}) bool {
	switch key {
	case "enabled":
		return setBool(&s.Enabled, value)
	case "showPreview":
		return setBool(&s.ShowPreview, value)
	case "sound":
		return setBool(&s.Sound, value)
	case "vibrate":
		return setBool(&s.Vibrate, value)
	case "led":
		return setBool(&s.LED, value)
	case "priority":
		return setString(&s.Priority, value)
	case "ringtone":
		return setString(&s.Ringtone, value)
	case "vibrationPattern":
		return setString(&s.VibrationPattern, value)
	case "notificationLightColor":
		return setString(&s.NotificationLightColor, value)
	case "groupNotifications":
		return setBool(&s.GroupNotifications, value)
	case "inAppNotifications":
		return setBool(&s.InAppNotifications, value)
	case "badge":
		return setBool(&s.Badge, value)
	case "reminder":
		return setBool(&s.Reminder, value)
	case "reminderInterval":
		return setInt(&s.ReminderIntervalMin, value)
	case "quietHours":
		return setQuietHours(&s.QuietHours, value)
	case "blockedChats":
		return setStrings(&s.BlockedChats, value)
	case "mutedChats":
		return setStrings(&s.MutedChats, value)
	case "mentionedOnly":
		return setStrings(&s.MentionedOnly, value)
	case "lowPriorityGroups":
		return setStrings(&s.LowPriorityGroups, value)
	case "mediaNotifications":
		return setBool(&s.MediaNotifications, value)
	case "callNotifications":
		return setBool(&s.CallNotifications, value)
	case "statusNotifications":
		return setBool(&s.StatusNotifications, value)
	}
	return false
}

func setBool(dst *bool, v interface{}) bool {
	b, ok := v.(bool)
	if !ok {
		return false
	}
	*dst = b
	return true
}

func setString(dst *string, v interface{}) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	*dst = s
	return true
}

func setInt(dst *int, v interface{}) bool {
	switch n := v.(type) {
	case int:
		*dst = n
	case float64: // JSON numbers decode as float64
		*dst = int(n)
	default:
		return false
	}
	return true
}

func setStrings(dst *[]string, v interface{}) bool {
	switch list := v.(type) {
	case []string:
		*dst = list
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return false
			}
			out = append(out, s)
		}
		*dst = out
	default:
		return false
	}
	return true
}

func setQuietHours(dst *QuietHours, v interface{}) bool {
	switch q := v.(type) {
	case QuietHours:
		*dst = q
	case map[string]interface{}:
		out := *dst
		if b, ok := q["enabled"].(bool); ok {
			out.Enabled = b
		}
		if s, ok := q["start"].(string); ok {
			out.Start = s
		}
		if s, ok := q["end"].(string); ok {
			out.End = s
		}
		if days, ok := q["days"].([]interface{}); ok {
			out.Days = out.Days[:0]
			for _, d := range days {
				if n, ok := d.(float64); ok {
					out.Days = append(out.Days, int(n))
				}
			}
		}
		*dst = out
	default:
		return false
	}
	return true
}
