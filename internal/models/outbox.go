package models

import (
	"time"

	"gorm.io/gorm"
)

// Outbox rows back the background sync drains. Each row is attempted and
// marked individually so one failure never blocks siblings.

type PendingMessage struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	ChatID    string         `gorm:"size:64;not null;index" json:"chat_id"`
	Body      string         `gorm:"type:text" json:"body"`
	SentAt    *time.Time     `json:"sent_at"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (PendingMessage) TableName() string {
	return "pending_messages"
}

type PendingReadReceipt struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	ChatID    string     `gorm:"size:64;not null" json:"chat_id"`
	MessageID string     `gorm:"size:64;not null" json:"message_id"`
	SyncedAt  *time.Time `json:"synced_at"`
	CreatedAt time.Time  `json:"created_at"`
}

func (PendingReadReceipt) TableName() string {
	return "pending_read_receipts"
}

type PendingStatusUpload struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	MediaURL  string     `gorm:"size:512" json:"media_url"`
	Caption   string     `gorm:"size:255" json:"caption"`
	SyncedAt  *time.Time `json:"synced_at"`
	CreatedAt time.Time  `json:"created_at"`
}

func (PendingStatusUpload) TableName() string {
	return "pending_status_uploads"
}
