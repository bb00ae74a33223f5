package repository

import (
	"chatlobby/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LocalStoreRepository is the per-user key-value store backing the
// notification manager's persisted snapshots (settings, pending queue,
// history).
type LocalStoreRepository struct {
	db *gorm.DB
}

func NewLocalStoreRepository(db *gorm.DB) *LocalStoreRepository {
	return &LocalStoreRepository{db: db}
}

func (r *LocalStoreRepository) Get(userID uint, key string) (string, error) {
	var e models.LocalStoreEntry
	err := r.db.Where("user_id = ? AND `key` = ?", userID, key).First(&e).Error
	if err == gorm.ErrRecordNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return e.Value, nil
}

func (r *LocalStoreRepository) Set(userID uint, key, value string) error {
	e := models.LocalStoreEntry{UserID: userID, Key: key, Value: value}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
}

func (r *LocalStoreRepository) Delete(userID uint, key string) error {
	return r.db.Where("user_id = ? AND `key` = ?", userID, key).Delete(&models.LocalStoreEntry{}).Error
}
