package models

import "time"

// LocalStoreEntry is a per-user key-value row holding a JSON snapshot
// (settings, pending queue, history). One row per (user, key).
type LocalStoreEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_local_store_user_key" json:"user_id"`
	Key       string    `gorm:"size:128;not null;uniqueIndex:idx_local_store_user_key" json:"key"`
	Value     string    `gorm:"type:longtext" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (LocalStoreEntry) TableName() string {
	return "local_store"
}
