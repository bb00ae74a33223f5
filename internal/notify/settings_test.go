package notify

import "testing"

func TestApplyCoercesJSONDecodedValues(t *testing.T) {
	s := DefaultSettings()

	// JSON numbers arrive as float64.
	if !s.Apply("reminderInterval", float64(30)) {
		t.Fatal("float64 interval rejected")
	}
	if s.ReminderIntervalMin != 30 {
		t.Fatalf("interval = %d, want 30", s.ReminderIntervalMin)
	}

	// JSON arrays arrive as []interface{}.
	if !s.Apply("blockedChats", []interface{}{"c1", "c2"}) {
		t.Fatal("interface slice rejected")
	}
	if len(s.BlockedChats) != 2 || s.BlockedChats[1] != "c2" {
		t.Fatalf("blocked chats = %v", s.BlockedChats)
	}

	// Mixed-type arrays are rejected wholesale.
	if s.Apply("mutedChats", []interface{}{"c1", 2}) {
		t.Fatal("mixed-type slice must be rejected")
	}

	if !s.Apply("quietHours", map[string]interface{}{
		"enabled": true,
		"start":   "21:00",
		"days":    []interface{}{float64(5), float64(6)},
	}) {
		t.Fatal("quiet hours map rejected")
	}
	if !s.QuietHours.Enabled || s.QuietHours.Start != "21:00" {
		t.Fatalf("quiet hours = %+v", s.QuietHours)
	}
	if len(s.QuietHours.Days) != 2 || s.QuietHours.Days[0] != 5 {
		t.Fatalf("quiet days = %v", s.QuietHours.Days)
	}
	// End untouched by a partial update.
	if s.QuietHours.End != "08:00" {
		t.Fatalf("end should keep its default, got %q", s.QuietHours.End)
	}

	if s.Apply("enabled", "yes") {
		t.Fatal("wrong value type must be rejected")
	}
	if s.Apply("bogus", true) {
		t.Fatal("unknown key must be rejected")
	}
}
