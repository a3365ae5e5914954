package di

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	detectionadapters "phish_backend/internal/feature/detection/adapters"
	"phish_backend/internal/feature/detection/usecase"
	"phish_backend/internal/platform/config"
	"phish_backend/internal/platform/session"
)

// NewSessionStore creates a SessionStore implementation.
// If Redis is available, it returns a Redis-backed implementation.
// Otherwise, it falls back to the SQL database.
func NewSessionStore(rdb *redis.Client, db *gorm.DB, cfg config.SessionConfig) usecase.SessionStore {
	if rdb != nil {
		return session.NewSessionRedis(rdb, "session", cfg.ProcessingTTL, cfg.DoneTTL)
	}
	return detectionadapters.NewSessionRepository(db, cfg.ProcessingTTL, cfg.DoneTTL)
}

// NewWaitPolicy applies the configured wait budget to the default backoff.
func NewWaitPolicy(cfg config.SessionConfig) usecase.WaitPolicy {
	p := usecase.DefaultWaitPolicy()
	if cfg.MaxWait > 0 {
		p.MaxWait = cfg.MaxWait
	}
	return p
}
