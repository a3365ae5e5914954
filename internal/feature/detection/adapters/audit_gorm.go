package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"phish_backend/internal/feature/detection/domain/entity"
	"phish_backend/internal/feature/detection/usecase"
)

// AuditModel is one archived verdict. Settings and Results are stored as JSON.
type AuditModel struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Identity  string    `gorm:"size:128;not null;index:audit_identity_hash,priority:1"`
	URLHash   string    `gorm:"size:64;not null;index:audit_identity_hash,priority:2"`
	URL       string    `gorm:"type:text;not null"`
	Verdict   string    `gorm:"size:16;not null"`
	Settings  string    `gorm:"type:text"`
	Results   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"not null;index"`
}

func (AuditModel) TableName() string {
	return "detection_audits"
}

func toAuditModel(rec entity.AuditRecord) (AuditModel, error) {
	settings, err := json.Marshal(rec.Settings)
	if err != nil {
		return AuditModel{}, fmt.Errorf("failed to marshal settings: %w", err)
	}
	results, err := json.Marshal(rec.Results)
	if err != nil {
		return AuditModel{}, fmt.Errorf("failed to marshal results: %w", err)
	}
	return AuditModel{
		ID:        rec.ID,
		Identity:  rec.Identity,
		URLHash:   rec.URLHash,
		URL:       rec.URL,
		Verdict:   string(rec.Verdict),
		Settings:  string(settings),
		Results:   string(results),
		CreatedAt: rec.CreatedAt,
	}, nil
}

func (m AuditModel) toEntity() (entity.AuditRecord, error) {
	rec := entity.AuditRecord{
		ID:        m.ID,
		Identity:  m.Identity,
		URL:       m.URL,
		URLHash:   m.URLHash,
		Verdict:   entity.Verdict(m.Verdict),
		CreatedAt: m.CreatedAt,
	}
	if m.Settings != "" {
		if err := json.Unmarshal([]byte(m.Settings), &rec.Settings); err != nil {
			return rec, fmt.Errorf("failed to unmarshal settings: %w", err)
		}
	}
	if m.Results != "" {
		if err := json.Unmarshal([]byte(m.Results), &rec.Results); err != nil {
			return rec, fmt.Errorf("failed to unmarshal results: %w", err)
		}
	}
	return rec, nil
}

// AuditRepository is the gorm-backed Archive. It also answers history queries.
type AuditRepository struct {
	db *gorm.DB
}

var _ usecase.Archive = (*AuditRepository)(nil)

// NewAuditRepository creates the gorm-backed Archive.
func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, rec entity.AuditRecord) error {
	m, err := toAuditModel(rec)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&m).Error
}

// History returns the archived verdicts of identity for a URL hash, newest first.
func (r *AuditRepository) History(ctx context.Context, identity, urlHash string, limit int) ([]entity.AuditRecord, error) {
	var rows []AuditModel
	q := r.db.WithContext(ctx).
		Where("identity = ? AND url_hash = ?", identity, urlHash).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entity.AuditRecord, 0, len(rows))
	for _, m := range rows {
		rec, err := m.toEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
