// Package usecase implements the detection orchestration: session caching,
// method dispatch, verdict aggregation and auditing.
package usecase

import (
	"context"

	"phish_backend/internal/feature/detection/domain/entity"
)

// SessionStore persists session states keyed by fingerprint key.
type SessionStore interface {
	// Load returns ErrSessionNotFound when key has no state.
	Load(ctx context.Context, key string) (*entity.SessionState, error)
	// Claim stores st only if key has no state and reports whether it did.
	Claim(ctx context.Context, key string, st entity.SessionState) (bool, error)
	// Save stores st unconditionally.
	Save(ctx context.Context, key string, st entity.SessionState) error
}

// Archive is the append-only audit log of verdicts.
type Archive interface {
	Append(ctx context.Context, rec entity.AuditRecord) error
}

// SettingsRepository stores detection settings per identity.
type SettingsRepository interface {
	// Get returns ErrSettingsNotFound when identity has no stored settings.
	Get(ctx context.Context, identity string) (*entity.DetectionSettings, error)
	Save(ctx context.Context, identity string, settings entity.DetectionSettings) error
}

// ProgressFunc records the stage label a running method has reached.
type ProgressFunc func(ctx context.Context, stage string)

// MethodInput is everything a detection method receives for one run.
type MethodInput struct {
	Request  entity.DetectionRequest
	Settings entity.DetectionSettings
	Config   entity.MethodConfig
	Progress ProgressFunc
}

// Report forwards stage to Progress when set.
func (in MethodInput) Report(ctx context.Context, stage string) {
	if in.Progress != nil {
		in.Progress(ctx, stage)
	}
}

// DetectionMethod produces a raw verdict for a request.
type DetectionMethod interface {
	Name() string
	Run(ctx context.Context, in MethodInput) (entity.RawResult, error)
}

// DecisionStrategy folds raw results into a single verdict.
type DecisionStrategy interface {
	Name() string
	Decide(results []entity.RawResult) entity.Verdict
}
