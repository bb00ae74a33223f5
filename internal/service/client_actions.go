package service

import (
	"context"
	"log"

	"chatlobby/internal/domain"
	"chatlobby/internal/models"
	"chatlobby/internal/ws"
)

// ClientActionService forwards notification actions into the app. In-page
// actions become bridge frames to the user's open pages; mark-read also
// lands in the read-receipt outbox so it survives the user being offline.
type ClientActionService struct {
	hub    *ws.Hub
	outbox ReceiptEnqueuer
	syncer SyncTrigger
}

// ReceiptEnqueuer writes read receipts into the sync outbox.
type ReceiptEnqueuer interface {
	EnqueueReadReceipt(r *models.PendingReadReceipt) error
}

// SyncTrigger kicks a named sync drain after new outbox rows are written.
type SyncTrigger interface {
	Dispatch(ctx context.Context, tag string) error
}

func NewClientActionService(hub *ws.Hub, outbox ReceiptEnqueuer, syncer SyncTrigger) *ClientActionService {
	return &ClientActionService{hub: hub, outbox: outbox, syncer: syncer}
}

// OpenChat tells the user's pages to navigate to a chat, optionally focusing
// the composer on a message being replied to.
func (s *ClientActionService) OpenChat(userID uint, chatID string, replyTo string) {
	s.hub.SendToUser(userID, map[string]interface{}{
		"type":     domain.MsgOpenChat,
		"chat_id":  chatID,
		"reply_to": replyTo,
	})
}

func (s *ClientActionService) AnswerCall(userID uint, callID string) {
	s.hub.SendToUser(userID, map[string]interface{}{
		"type":    domain.MsgAnswerCall,
		"call_id": callID,
	})
}

func (s *ClientActionService) DeclineCall(userID uint, callID string) {
	s.hub.SendToUser(userID, map[string]interface{}{
		"type":    domain.MsgDeclineCall,
		"call_id": callID,
	})
}

func (s *ClientActionService) MarkMessageRead(userID uint, chatID, messageID string) {
	if err := s.MarkRead(context.Background(), userID, chatID, messageID); err != nil {
		log.Printf("[Actions] mark read for user %d: %v", userID, err)
	}
}

// MarkRead enqueues a read receipt and nudges the receipt drain.
func (s *ClientActionService) MarkRead(ctx context.Context, userID uint, chatID, messageID string) error {
	err := s.outbox.EnqueueReadReceipt(&models.PendingReadReceipt{
		UserID:    userID,
		ChatID:    chatID,
		MessageID: messageID,
	})
	if err != nil {
		return err
	}
	if s.syncer != nil {
		go func() {
			if err := s.syncer.Dispatch(context.Background(), domain.SyncReadReceipts); err != nil {
				log.Printf("[Actions] receipt drain: %v", err)
			}
		}()
	}
	return nil
}

// OpenChatForReply opens the chat with the composer focused. No message is
// quoted; the reply action just needs the user typing in the right place.
func (s *ClientActionService) OpenChatForReply(ctx context.Context, userID uint, chatID string) error {
	s.hub.SendToUser(userID, map[string]interface{}{
		"type":     domain.MsgOpenChat,
		"chat_id":  chatID,
		"compose":  true,
		"reply_to": "",
	})
	return nil
}
