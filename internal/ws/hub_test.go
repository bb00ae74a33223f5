package ws

import (
	"encoding/json"
	"testing"
)

func client(userID uint) *Client {
	return &Client{UserID: userID, Send: make(chan []byte, 4)}
}

func TestHubPresence(t *testing.T) {
	h := NewHub()
	if h.IsOnline(1) {
		t.Fatal("user with no clients must be offline")
	}

	c1 := client(1)
	c2 := client(1)
	h.Register(c1)
	h.Register(c2)
	if !h.IsOnline(1) {
		t.Fatal("registered user must be online")
	}
	if h.ClientCount() != 2 {
		t.Fatalf("client count = %d", h.ClientCount())
	}

	c1.Close()
	if !h.IsOnline(1) {
		t.Fatal("one page closing must not mark the user offline")
	}
	c2.Close()
	if h.IsOnline(1) {
		t.Fatal("last page closing must mark the user offline")
	}
}

func TestSendToUserReachesAllPages(t *testing.T) {
	h := NewHub()
	c1 := client(1)
	c2 := client(1)
	other := client(2)
	h.Register(c1)
	h.Register(c2)
	h.Register(other)

	h.SendToUser(1, map[string]string{"type": "PING"})

	for _, c := range []*Client{c1, c2} {
		select {
		case raw := <-c.Send:
			var got map[string]string
			if err := json.Unmarshal(raw, &got); err != nil || got["type"] != "PING" {
				t.Fatalf("bad frame %s: %v", raw, err)
			}
		default:
			t.Fatal("page did not receive the frame")
		}
	}
	select {
	case <-other.Send:
		t.Fatal("frame leaked to another user")
	default:
	}
}

func TestSendToUserDropsWhenBufferFull(t *testing.T) {
	h := NewHub()
	c := &Client{UserID: 1, Send: make(chan []byte)}
	h.Register(c)
	// Unbuffered channel with no reader: the send must not block.
	h.SendToUser(1, map[string]string{"type": "PING"})
}

func TestFirstClient(t *testing.T) {
	h := NewHub()
	if h.FirstClient(1) != nil {
		t.Fatal("no clients means nil")
	}
	c := client(1)
	h.Register(c)
	if h.FirstClient(1) != c {
		t.Fatal("expected the registered client")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	h := NewHub()
	c := client(1)
	h.Register(c)
	c.Close()
	c.Close()
	if h.ClientCount() != 0 {
		t.Fatalf("client count = %d", h.ClientCount())
	}
}

func TestSendAfterCloseDoesNotPanic(t *testing.T) {
	h := NewHub()
	c := client(1)
	h.Register(c)

	// The click handler keeps a *Client around for a delayed send; Close can
	// land in between. Sending afterwards must be a silent drop.
	retained := h.FirstClient(1)
	c.Close()

	retained.Reply(map[string]string{"type": "PING"})
	retained.trySend([]byte(`{"type":"PING"}`))
	h.SendToUser(1, map[string]string{"type": "PING"})
}
