package syncer

import (
	"context"
	"fmt"
	"log"
	"time"

	"chatlobby/internal/domain"
	"chatlobby/internal/models"
)

// Outbox is the pending-item store the drains walk.
type Outbox interface {
	PendingMessages(limit int) ([]models.PendingMessage, error)
	MarkMessageSent(id uint) error
	EnqueueReadReceipt(r *models.PendingReadReceipt) error
	PendingReadReceipts(limit int) ([]models.PendingReadReceipt, error)
	MarkReceiptSynced(id uint) error
	PendingStatusUploads(limit int) ([]models.PendingStatusUpload, error)
	MarkStatusSynced(id uint) error
}

// Remote is the upstream the drains deliver to.
type Remote interface {
	SendMessage(ctx context.Context, m models.PendingMessage) error
	SendReadReceipt(ctx context.Context, r models.PendingReadReceipt) error
	UploadStatus(ctx context.Context, s models.PendingStatusUpload) error
	UpdatePresence(ctx context.Context, at time.Time) error
}

// Syncer dispatches tagged sync drains. Every item is attempted and marked
// individually; one failure never blocks the rest of the batch.
type Syncer struct {
	outbox           Outbox
	remote           Remote
	batchSize        int
	presenceInterval time.Duration
}

func New(outbox Outbox, remote Remote, batchSize int, presenceInterval time.Duration) *Syncer {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Syncer{
		outbox:           outbox,
		remote:           remote,
		batchSize:        batchSize,
		presenceInterval: presenceInterval,
	}
}

// Dispatch runs the drain registered for the given sync tag.
func (s *Syncer) Dispatch(ctx context.Context, tag string) error {
	switch tag {
	case domain.SyncMessages:
		return s.drainMessages(ctx)
	case domain.SyncReadReceipts:
		return s.drainReadReceipts(ctx)
	case domain.SyncStatus:
		return s.drainStatusUploads(ctx)
	case domain.SyncPresence:
		return s.remote.UpdatePresence(ctx, time.Now())
	}
	return fmt.Errorf("unknown sync tag %q", tag)
}

func (s *Syncer) drainMessages(ctx context.Context) error {
	pending, err := s.outbox.PendingMessages(s.batchSize)
	if err != nil {
		return err
	}
	for _, m := range pending {
		if err := s.remote.SendMessage(ctx, m); err != nil {
			log.Printf("[Sync] send message %d: %v", m.ID, err)
			continue
		}
		if err := s.outbox.MarkMessageSent(m.ID); err != nil {
			log.Printf("[Sync] mark message %d sent: %v", m.ID, err)
		}
	}
	return nil
}

func (s *Syncer) drainReadReceipts(ctx context.Context) error {
	pending, err := s.outbox.PendingReadReceipts(s.batchSize)
	if err != nil {
		return err
	}
	for _, r := range pending {
		if err := s.remote.SendReadReceipt(ctx, r); err != nil {
			log.Printf("[Sync] send read receipt %d: %v", r.ID, err)
			continue
		}
		if err := s.outbox.MarkReceiptSynced(r.ID); err != nil {
			log.Printf("[Sync] mark receipt %d synced: %v", r.ID, err)
		}
	}
	return nil
}

func (s *Syncer) drainStatusUploads(ctx context.Context) error {
	pending, err := s.outbox.PendingStatusUploads(s.batchSize)
	if err != nil {
		return err
	}
	for _, u := range pending {
		if err := s.remote.UploadStatus(ctx, u); err != nil {
			log.Printf("[Sync] upload status %d: %v", u.ID, err)
			continue
		}
		if err := s.outbox.MarkStatusSynced(u.ID); err != nil {
			log.Printf("[Sync] mark status %d synced: %v", u.ID, err)
		}
	}
	return nil
}

// Run drives the periodic presence update until ctx is cancelled. Presence
// is best-effort: failures are logged and the next tick tries again.
func (s *Syncer) Run(ctx context.Context) {
	if s.presenceInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.presenceInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.remote.UpdatePresence(ctx, time.Now()); err != nil {
				log.Printf("[Sync] presence update: %v", err)
			}
		}
	}
}
