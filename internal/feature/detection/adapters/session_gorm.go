package adapters

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"phish_backend/internal/feature/detection/domain/entity"
	"phish_backend/internal/feature/detection/usecase"
)

// SessionModel is a persisted session state. Rows past ExpiresAt count as absent.
type SessionModel struct {
	SessionKey string    `gorm:"primaryKey;size:200"`
	Phase      string    `gorm:"size:16;not null"`
	Stage      string    `gorm:"size:64"`
	Verdict    string    `gorm:"size:16;not null"`
	StateAt    time.Time `gorm:"not null"`
	ExpiresAt  time.Time `gorm:"not null;index"`
}

func (SessionModel) TableName() string {
	return "detection_sessions"
}

func (m SessionModel) toEntity() *entity.SessionState {
	return &entity.SessionState{
		Phase:     entity.Phase(m.Phase),
		Stage:     m.Stage,
		Verdict:   entity.Verdict(m.Verdict),
		UpdatedAt: m.StateAt,
	}
}

// sessionGorm is the SessionStore used when no Redis server is configured.
type sessionGorm struct {
	db            *gorm.DB
	processingTTL time.Duration
	doneTTL       time.Duration
	now           func() time.Time
}

var _ usecase.SessionStore = (*sessionGorm)(nil)

// NewSessionRepository creates a gorm-backed SessionStore. PROCESSING rows
// expire after processingTTL, DONE rows after doneTTL.
func NewSessionRepository(db *gorm.DB, processingTTL, doneTTL time.Duration) usecase.SessionStore {
	return newSessionGorm(db, processingTTL, doneTTL, time.Now)
}

func newSessionGorm(db *gorm.DB, processingTTL, doneTTL time.Duration, now func() time.Time) *sessionGorm {
	return &sessionGorm{db: db, processingTTL: processingTTL, doneTTL: doneTTL, now: now}
}

func (r *sessionGorm) toModel(key string, st entity.SessionState) SessionModel {
	ttl := r.processingTTL
	if st.IsDone() {
		ttl = r.doneTTL
	}
	return SessionModel{
		SessionKey: key,
		Phase:      string(st.Phase),
		Stage:      st.Stage,
		Verdict:    string(st.Verdict),
		StateAt:    st.UpdatedAt,
		ExpiresAt:  r.now().Add(ttl),
	}
}

func (r *sessionGorm) Load(ctx context.Context, key string) (*entity.SessionState, error) {
	var m SessionModel
	err := r.db.WithContext(ctx).
		Where("session_key = ? AND expires_at > ?", key, r.now()).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrSessionNotFound
		}
		return nil, err
	}
	return m.toEntity(), nil
}

// Claim inserts the row unless one exists. An expired row is removed first
// so that an abandoned claim can be taken over.
func (r *sessionGorm) Claim(ctx context.Context, key string, st entity.SessionState) (bool, error) {
	db := r.db.WithContext(ctx)
	if err := db.Where("session_key = ? AND expires_at <= ?", key, r.now()).Delete(&SessionModel{}).Error; err != nil {
		return false, err
	}
	m := r.toModel(key, st)
	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&m)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *sessionGorm) Save(ctx context.Context, key string, st entity.SessionState) error {
	m := r.toModel(key, st)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"phase", "stage", "verdict", "state_at", "expires_at"}),
	}).Create(&m).Error
}
