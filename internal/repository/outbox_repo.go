package repository

import (
	"time"

	"chatlobby/internal/models"

	"gorm.io/gorm"
)

// OutboxRepository holds the pending items drained by background sync.
type OutboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

func (r *OutboxRepository) PendingMessages(limit int) ([]models.PendingMessage, error) {
	var list []models.PendingMessage
	err := r.db.Where("sent_at IS NULL").Order("created_at ASC").Limit(limit).Find(&list).Error
	return list, err
}

func (r *OutboxRepository) MarkMessageSent(id uint) error {
	now := time.Now()
	return r.db.Model(&models.PendingMessage{}).Where("id = ?", id).Update("sent_at", &now).Error
}

func (r *OutboxRepository) EnqueueMessage(m *models.PendingMessage) error {
	return r.db.Create(m).Error
}

func (r *OutboxRepository) PendingReadReceipts(limit int) ([]models.PendingReadReceipt, error) {
	var list []models.PendingReadReceipt
	err := r.db.Where("synced_at IS NULL").Order("created_at ASC").Limit(limit).Find(&list).Error
	return list, err
}

func (r *OutboxRepository) MarkReceiptSynced(id uint) error {
	now := time.Now()
	return r.db.Model(&models.PendingReadReceipt{}).Where("id = ?", id).Update("synced_at", &now).Error
}

func (r *OutboxRepository) EnqueueReadReceipt(rr *models.PendingReadReceipt) error {
	return r.db.Create(rr).Error
}

func (r *OutboxRepository) PendingStatusUploads(limit int) ([]models.PendingStatusUpload, error) {
	var list []models.PendingStatusUpload
	err := r.db.Where("synced_at IS NULL").Order("created_at ASC").Limit(limit).Find(&list).Error
	return list, err
}

func (r *OutboxRepository) MarkStatusSynced(id uint) error {
	now := time.Now()
	return r.db.Model(&models.PendingStatusUpload{}).Where("id = ?", id).Update("synced_at", &now).Error
}
