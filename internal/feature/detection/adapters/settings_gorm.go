package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"phish_backend/internal/feature/detection/domain/entity"
	"phish_backend/internal/feature/detection/usecase"
)

// SettingsModel stores the detection settings of one identity as JSON.
type SettingsModel struct {
	Identity  string `gorm:"primaryKey;size:128"`
	Payload   string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (SettingsModel) TableName() string {
	return "detection_settings"
}

type settingsGorm struct {
	db *gorm.DB
}

var _ usecase.SettingsRepository = (*settingsGorm)(nil)

// NewSettingsRepository creates the gorm-backed SettingsRepository.
func NewSettingsRepository(db *gorm.DB) usecase.SettingsRepository {
	return &settingsGorm{db: db}
}

func (r *settingsGorm) Get(ctx context.Context, identity string) (*entity.DetectionSettings, error) {
	var m SettingsModel
	if err := r.db.WithContext(ctx).Where("identity = ?", identity).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrSettingsNotFound
		}
		return nil, err
	}
	var s entity.DetectionSettings
	if err := json.Unmarshal([]byte(m.Payload), &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	return &s, nil
}

func (r *settingsGorm) Save(ctx context.Context, identity string, settings entity.DetectionSettings) error {
	payload, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	m := SettingsModel{Identity: identity, Payload: string(payload)}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "identity"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&m).Error
}
