package repos

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/petuhovskiy/powerpick/internal/models"
)

type SettingRepo struct {
	db *gorm.DB
}

func NewSettingRepo(db *gorm.DB) *SettingRepo {
	return &SettingRepo{
		db: db,
	}
}

// Get returns the value of the key, and false if there is no such row.
func (r *SettingRepo) Get(ctx context.Context, key string) (string, bool, error) {
	var settings []models.Setting
	err := r.db.
		WithContext(ctx).
		Where(&models.Setting{Key: key}).
		Limit(1).
		Find(&settings).
		Error
	if err != nil {
		return "", false, fmt.Errorf("find setting: %w", err)
	}
	if len(settings) == 0 {
		return "", false, nil
	}
	return settings[0].Value, true, nil
}

// Set inserts the key or overwrites its value.
func (r *SettingRepo) Set(ctx context.Context, key string, value string) error {
	setting := models.Setting{
		Key:   key,
		Value: value,
	}
	err := r.db.
		WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&setting).
		Error
	if err != nil {
		return fmt.Errorf("upsert setting: %w", err)
	}
	return nil
}
