package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"chatlobby/internal/domain"
	"chatlobby/internal/models"
	"chatlobby/internal/ws"
)

type fakeEnqueuer struct {
	receipts []models.PendingReadReceipt
}

func (f *fakeEnqueuer) EnqueueReadReceipt(r *models.PendingReadReceipt) error {
	f.receipts = append(f.receipts, *r)
	return nil
}

type fakeTrigger struct {
	tags chan string
}

func (f *fakeTrigger) Dispatch(ctx context.Context, tag string) error {
	f.tags <- tag
	return nil
}

func bridgeClient(hub *ws.Hub, userID uint) *ws.Client {
	c := &ws.Client{UserID: userID, Send: make(chan []byte, 4)}
	hub.Register(c)
	return c
}

func lastFrame(t *testing.T, c *ws.Client) map[string]interface{} {
	t.Helper()
	select {
	case raw := <-c.Send:
		var out map[string]interface{}
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("bad frame: %v", err)
		}
		return out
	default:
		t.Fatal("no frame received")
		return nil
	}
}

func TestOpenChatSendsBridgeFrame(t *testing.T) {
	hub := ws.NewHub()
	c := bridgeClient(hub, 1)
	svc := NewClientActionService(hub, &fakeEnqueuer{}, nil)

	svc.OpenChat(1, "c9", "m3")

	frame := lastFrame(t, c)
	if frame["type"] != domain.MsgOpenChat || frame["chat_id"] != "c9" || frame["reply_to"] != "m3" {
		t.Fatalf("unexpected frame: %v", frame)
	}
}

func TestMarkReadEnqueuesReceiptAndTriggersDrain(t *testing.T) {
	hub := ws.NewHub()
	outbox := &fakeEnqueuer{}
	trigger := &fakeTrigger{tags: make(chan string, 1)}
	svc := NewClientActionService(hub, outbox, trigger)

	if err := svc.MarkRead(context.Background(), 1, "c1", "m1"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if len(outbox.receipts) != 1 {
		t.Fatalf("expected 1 receipt, got %d", len(outbox.receipts))
	}
	r := outbox.receipts[0]
	if r.UserID != 1 || r.ChatID != "c1" || r.MessageID != "m1" {
		t.Fatalf("receipt = %+v", r)
	}
	select {
	case tag := <-trigger.tags:
		if tag != domain.SyncReadReceipts {
			t.Fatalf("drain tag = %q", tag)
		}
	case <-time.After(time.Second):
		t.Fatal("drain never triggered")
	}
}

func TestCallControlFrames(t *testing.T) {
	hub := ws.NewHub()
	c := bridgeClient(hub, 1)
	svc := NewClientActionService(hub, &fakeEnqueuer{}, nil)

	svc.AnswerCall(1, "call1")
	if frame := lastFrame(t, c); frame["type"] != domain.MsgAnswerCall || frame["call_id"] != "call1" {
		t.Fatalf("answer frame: %v", frame)
	}
	svc.DeclineCall(1, "call2")
	if frame := lastFrame(t, c); frame["type"] != domain.MsgDeclineCall || frame["call_id"] != "call2" {
		t.Fatalf("decline frame: %v", frame)
	}
}
