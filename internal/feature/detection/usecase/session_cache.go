package usecase

import (
	"context"
	"errors"
	"time"

	"phish_backend/internal/feature/detection/domain/entity"
)

// WaitPolicy bounds how long a caller waits on a session another caller is computing.
type WaitPolicy struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxWait      time.Duration
}

// DefaultWaitPolicy polls after 100ms, doubling up to 2s, for at most one minute.
func DefaultWaitPolicy() WaitPolicy {
	return WaitPolicy{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		MaxWait:      time.Minute,
	}
}

func (p WaitPolicy) withDefaults() WaitPolicy {
	d := DefaultWaitPolicy()
	if p.InitialDelay <= 0 {
		p.InitialDelay = d.InitialDelay
	}
	if p.MaxDelay < p.InitialDelay {
		p.MaxDelay = max(d.MaxDelay, p.InitialDelay)
	}
	if p.MaxWait <= 0 {
		p.MaxWait = d.MaxWait
	}
	return p
}

// SessionCache hands out session handles backed by a SessionStore.
type SessionCache struct {
	store SessionStore
	wait  WaitPolicy
	now   func() time.Time
}

// NewSessionCache creates a SessionCache. Zero fields of wait take default values.
func NewSessionCache(store SessionStore, wait WaitPolicy) *SessionCache {
	return &SessionCache{store: store, wait: wait.withDefaults(), now: time.Now}
}

// Session returns the handle for fp. Handles are cheap; state lives in the store.
func (c *SessionCache) Session(fp entity.Fingerprint) *Session {
	return &Session{cache: c, fp: fp}
}

// Session is a handle on the cached state of one fingerprint.
type Session struct {
	cache *SessionCache
	fp    entity.Fingerprint
}

// Fingerprint returns the fingerprint the handle is bound to.
func (s *Session) Fingerprint() entity.Fingerprint {
	return s.fp
}

// State returns the current state, or nil when the session is in PhaseNone.
func (s *Session) State(ctx context.Context) (*entity.SessionState, error) {
	st, err := s.cache.store.Load(ctx, s.fp.Key())
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return st, nil
}

// SetState records a PROCESSING stage when verdict is VerdictProcessing,
// otherwise the terminal DONE state carrying verdict.
func (s *Session) SetState(ctx context.Context, verdict entity.Verdict, stage string) error {
	var st entity.SessionState
	if verdict == entity.VerdictProcessing {
		st = entity.ProcessingState(stage, s.cache.now())
	} else {
		st = entity.DoneState(verdict, s.cache.now())
	}
	return s.cache.store.Save(ctx, s.fp.Key(), st)
}

// Claim moves the session from NONE to PROCESSING(stage) atomically.
// It returns false when another caller already holds a state for the fingerprint.
func (s *Session) Claim(ctx context.Context, stage string) (bool, error) {
	return s.cache.store.Claim(ctx, s.fp.Key(), entity.ProcessingState(stage, s.cache.now()))
}

// Await polls until the session is DONE, backing off exponentially.
// It returns ErrWaitTimeout once the wait budget is spent, and ctx.Err() on cancellation.
// A session that disappears while waiting (evicted claim) is reported as ErrSessionNotFound.
func (s *Session) Await(ctx context.Context) (*entity.SessionState, error) {
	p := s.cache.wait
	deadline := time.NewTimer(p.MaxWait)
	defer deadline.Stop()

	delay := p.InitialDelay
	for {
		st, err := s.State(ctx)
		if err != nil {
			return nil, err
		}
		if st == nil {
			return nil, ErrSessionNotFound
		}
		if st.IsDone() {
			return st, nil
		}

		tick := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			tick.Stop()
			return nil, ctx.Err()
		case <-deadline.C:
			tick.Stop()
			return nil, ErrWaitTimeout
		case <-tick.C:
		}
		delay = min(delay*2, p.MaxDelay)
	}
}
