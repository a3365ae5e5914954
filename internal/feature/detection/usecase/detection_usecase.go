package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"phish_backend/internal/feature/detection/domain/entity"
)

// Option configures a DetectionUsecase.
type Option func(*DetectionUsecase)

// WithURLOverride allows requests to replace the fingerprinted URL.
func WithURLOverride(allow bool) Option {
	return func(u *DetectionUsecase) { u.allowOverride = allow }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(u *DetectionUsecase) {
		if l != nil {
			u.logger = l
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(u *DetectionUsecase) { u.now = now }
}

// DetectionUsecase orchestrates detection checks.
type DetectionUsecase struct {
	sessions      *SessionCache
	methods       *MethodRegistry
	strategies    *StrategyRegistry
	archive       Archive
	allowOverride bool
	logger        *slog.Logger
	now           func() time.Time
}

// NewDetectionUsecase wires the orchestrator from its collaborators.
func NewDetectionUsecase(sessions *SessionCache, methods *MethodRegistry, strategies *StrategyRegistry, archive Archive, opts ...Option) *DetectionUsecase {
	u := &DetectionUsecase{
		sessions:   sessions,
		methods:    methods,
		strategies: strategies,
		archive:    archive,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// targetURL is the URL that gets fingerprinted.
func (u *DetectionUsecase) targetURL(req entity.DetectionRequest) string {
	if req.OverrideURL == "" {
		return req.URL
	}
	if !u.allowOverride {
		u.logger.Warn("ignoring URL override, overrides are disabled", "url", req.URL, "override", req.OverrideURL)
		return req.URL
	}
	return req.OverrideURL
}

// Check returns the verdict for req, computing it at most once per fingerprint
// unless settings.BypassCache is set.
//
// Unknown method or strategy names fail with an ErrConfiguration error and
// leave the session in PROCESSING.
func (u *DetectionUsecase) Check(ctx context.Context, identity string, req entity.DetectionRequest, settings entity.DetectionSettings) (*entity.DetectionResult, error) {
	settings = settings.Normalize()
	target := u.targetURL(req)
	fp := entity.NewFingerprint(identity, target)
	session := u.sessions.Session(fp)
	log := u.logger.With("identity", identity, "url", target, "fingerprint", fp.URLHash)

	if settings.BypassCache {
		if err := session.SetState(ctx, entity.VerdictProcessing, entity.StageStarted); err != nil {
			return nil, fmt.Errorf("failed to mark session processing: %w", err)
		}
	} else {
		res, err := u.claimOrAwait(ctx, session, target, log)
		if res != nil || err != nil {
			return res, err
		}
	}

	strategy, err := u.strategies.Lookup(settings.DecisionStrategy)
	if err != nil {
		return nil, err
	}

	results := make([]entity.RawResult, 0, len(settings.DetectionMethods))
	for _, name := range settings.DetectionMethods {
		method, err := u.methods.Lookup(name)
		if err != nil {
			return nil, err
		}
		in := MethodInput{
			Request:  req,
			Settings: settings,
			Config:   settings.ConfigFor(name),
			Progress: func(ctx context.Context, stage string) {
				if err := session.SetState(ctx, entity.VerdictProcessing, stage); err != nil {
					log.Warn("failed to record stage", "method", name, "stage", stage, "error", err)
				}
			},
		}
		raw, err := method.Run(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("detection method %q failed: %w", name, err)
		}
		if raw.Method == "" {
			raw.Method = name
		}
		log.Info("detection method finished", "method", name, "verdict", raw.Verdict)
		results = append(results, raw)
	}

	verdict := strategy.Decide(results)
	if err := session.SetState(ctx, verdict, entity.StageDone); err != nil {
		return nil, fmt.Errorf("failed to store verdict: %w", err)
	}
	log.Info("detection finished", "verdict", verdict, "strategy", strategy.Name())

	rec := entity.AuditRecord{
		ID:        uuid.NewString(),
		Identity:  identity,
		URL:       target,
		URLHash:   fp.URLHash,
		Settings:  settings,
		Verdict:   verdict,
		Results:   results,
		CreatedAt: u.now(),
	}
	if err := u.archive.Append(ctx, rec); err != nil {
		log.Error("failed to archive verdict", "error", err)
	}

	return &entity.DetectionResult{URL: target, URLHash: fp.URLHash, State: entity.StateDone, Verdict: verdict}, nil
}

// claimOrAwait returns a cached or awaited result, or (nil, nil) when the
// caller now holds the claim and must compute.
func (u *DetectionUsecase) claimOrAwait(ctx context.Context, session *Session, target string, log *slog.Logger) (*entity.DetectionResult, error) {
	st, err := session.State(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	switch {
	case st != nil && st.IsDone():
		log.Info("returning cached verdict", "verdict", st.Verdict)
		return u.result(target, session.Fingerprint(), st), nil
	case st != nil:
		log.Info("session is processing elsewhere, waiting", "stage", st.Stage)
	default:
		claimed, err := session.Claim(ctx, entity.StageStarted)
		if err != nil {
			return nil, fmt.Errorf("failed to claim session: %w", err)
		}
		if claimed {
			return nil, nil
		}
		log.Info("lost session claim, waiting")
	}
	return u.await(ctx, session, target, log)
}

// await waits for another caller's verdict. When that caller's claim expires
// without a verdict, the session is claimed once more; only a second loss
// ends in TIMEOUT.
func (u *DetectionUsecase) await(ctx context.Context, session *Session, target string, log *slog.Logger) (*entity.DetectionResult, error) {
	fp := session.Fingerprint()
	st, err := session.Await(ctx)
	switch {
	case err == nil:
		return u.result(target, fp, st), nil
	case errors.Is(err, ErrSessionNotFound):
		claimed, cerr := session.Claim(ctx, entity.StageStarted)
		if cerr != nil {
			return nil, fmt.Errorf("failed to claim session: %w", cerr)
		}
		if claimed {
			log.Warn("detection session was abandoned, taking it over")
			return nil, nil
		}
	case !errors.Is(err, ErrWaitTimeout):
		return nil, err
	}
	log.Warn("gave up waiting for detection session", "error", err)
	return &entity.DetectionResult{
		URL:     target,
		URLHash: fp.URLHash,
		State:   entity.StateTimeout,
		Verdict: entity.VerdictInconclusive,
	}, nil
}

func (u *DetectionUsecase) result(target string, fp entity.Fingerprint, st *entity.SessionState) *entity.DetectionResult {
	return &entity.DetectionResult{URL: target, URLHash: fp.URLHash, State: entity.StateDone, Verdict: st.Verdict}
}

// State returns the session state of url for identity; PhaseNone when unknown.
func (u *DetectionUsecase) State(ctx context.Context, identity, url string) (entity.SessionState, error) {
	st, err := u.sessions.Session(entity.NewFingerprint(identity, url)).State(ctx)
	if err != nil {
		return entity.SessionState{}, err
	}
	if st == nil {
		return entity.NoneState(), nil
	}
	return *st, nil
}

// Capabilities lists the registered method and strategy names.
func (u *DetectionUsecase) Capabilities() entity.Capabilities {
	return entity.Capabilities{
		DetectionMethods:   u.methods.Names(),
		DecisionStrategies: u.strategies.Names(),
	}
}
