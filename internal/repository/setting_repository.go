package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"classsite/internal/model"
)

// SettingRepository is the key/value site configuration store.
type SettingRepository interface {
	// Get returns the values of keys; missing keys are absent from the map.
	Get(ctx context.Context, keys ...string) (map[string]*string, error)
	// Set upserts every entry. A nil value is stored as NULL.
	Set(ctx context.Context, values map[string]*string) error
}

type settingRepository struct {
	db *gorm.DB
}

// NewSettingRepository builds a GORM-backed repository.
func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db}
}

func (r *settingRepository) Get(ctx context.Context, keys ...string) (map[string]*string, error) {
	var rows []model.Setting
	if err := r.db.WithContext(ctx).Where("`key` IN ?", keys).Find(&rows).Error; err != nil {
		return nil, translate("get settings", err)
	}

	out := make(map[string]*string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

func (r *settingRepository) Set(ctx context.Context, values map[string]*string) error {
	if len(values) == 0 {
		return nil
	}
	rows := make([]model.Setting, 0, len(values))
	for k, v := range values {
		rows = append(rows, model.Setting{Key: k, Value: v})
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&rows).Error
	return translate("set settings", err)
}
