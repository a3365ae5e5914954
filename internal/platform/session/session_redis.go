// Package session stores detection session states in Redis.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"phish_backend/internal/feature/detection/domain/entity"
	"phish_backend/internal/feature/detection/usecase"
)

const (
	DefaultProcessingTTL = 10 * time.Minute
	DefaultDoneTTL       = 24 * time.Hour
)

// SessionRedis implements usecase.SessionStore using Redis. PROCESSING
// entries expire after processingTTL so a crashed worker's claim is released.
type SessionRedis struct {
	client        *redis.Client
	prefix        string
	processingTTL time.Duration
	doneTTL       time.Duration
}

var _ usecase.SessionStore = (*SessionRedis)(nil)

// NewSessionRedis creates a new SessionRedis. Non-positive TTLs take the defaults.
func NewSessionRedis(client *redis.Client, prefix string, processingTTL, doneTTL time.Duration) *SessionRedis {
	if processingTTL <= 0 {
		processingTTL = DefaultProcessingTTL
	}
	if doneTTL <= 0 {
		doneTTL = DefaultDoneTTL
	}
	return &SessionRedis{
		client:        client,
		prefix:        prefix,
		processingTTL: processingTTL,
		doneTTL:       doneTTL,
	}
}

// sessionKey returns the Redis key for a fingerprint key.
func (r *SessionRedis) sessionKey(key string) string {
	return fmt.Sprintf("%s:%s", r.prefix, key)
}

func (r *SessionRedis) ttl(st entity.SessionState) time.Duration {
	if st.IsDone() {
		return r.doneTTL
	}
	return r.processingTTL
}

// Load retrieves the state stored under key.
func (r *SessionRedis) Load(ctx context.Context, key string) (*entity.SessionState, error) {
	data, err := r.client.Get(ctx, r.sessionKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, usecase.ErrSessionNotFound
		}
		return nil, err
	}

	var st entity.SessionState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session state: %w", err)
	}
	return &st, nil
}

// Claim stores st with SETNX and reports whether this call created the entry.
func (r *SessionRedis) Claim(ctx context.Context, key string, st entity.SessionState) (bool, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return false, fmt.Errorf("failed to marshal session state: %w", err)
	}
	return r.client.SetNX(ctx, r.sessionKey(key), data, r.ttl(st)).Result()
}

// Save overwrites the state stored under key.
func (r *SessionRedis) Save(ctx context.Context, key string, st entity.SessionState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal session state: %w", err)
	}
	return r.client.Set(ctx, r.sessionKey(key), data, r.ttl(st)).Err()
}
