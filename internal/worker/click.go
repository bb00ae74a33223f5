package worker

import (
	"context"
	"log"
	"time"

	"chatlobby/internal/domain"
)

// openWindowDelay gives a freshly opened page time to finish loading before
// the follow-up OPEN_CHAT lands.
const openWindowDelay = time.Second

// HandleNotificationClick is the worker-context click path. The reply and
// mark-read actions run background operations without touching any window;
// everything else focuses an open page and hands it an OPEN_CHAT
// instruction, deferring delivery when a new window has to be opened first.
func (w *Worker) HandleNotificationClick(ctx context.Context, userID uint, action string, data map[string]string) {
	chatID := data["chat_id"]

	switch action {
	case domain.ActionReply:
		if w.ops != nil && chatID != "" {
			if err := w.ops.OpenChatForReply(ctx, userID, chatID); err != nil {
				log.Printf("[Worker] reply action for user %d: %v", userID, err)
			}
		}
		return
	case domain.ActionMarkRead:
		if w.ops != nil {
			if err := w.ops.MarkRead(ctx, userID, chatID, data["message_id"]); err != nil {
				log.Printf("[Worker] mark-read action for user %d: %v", userID, err)
			}
		}
		return
	}

	openChat := map[string]interface{}{
		"type":    domain.MsgOpenChat,
		"chat_id": chatID,
		"url":     data["url"],
	}
	if client := w.hub.FirstClient(userID); client != nil {
		client.Reply(openChat)
		return
	}
	// No open page: the push layer tells the platform to open one, then the
	// instruction follows once the page has had a moment to load.
	log.Printf("[Worker] opening new window for user %d", userID)
	time.AfterFunc(openWindowDelay, func() {
		w.hub.SendToUser(userID, openChat)
	})
}
