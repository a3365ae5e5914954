package entity

import "time"

// Phase is the lifecycle position of a detection session.
type Phase string

const (
	// PhaseNone is never persisted; an absent session is in this phase.
	PhaseNone       Phase = "NONE"
	PhaseProcessing Phase = "PROCESSING"
	PhaseDone       Phase = "DONE"
)

// Stage labels recorded while a session is processing.
const (
	StageStarted = "STARTED"
	StageDone    = "DONE"
)

// SessionState is the cached state of one fingerprint.
type SessionState struct {
	Phase     Phase     `json:"phase"`
	Stage     string    `json:"stage"`
	Verdict   Verdict   `json:"verdict"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoneState returns the state reported for fingerprints that were never seen.
func NoneState() SessionState {
	return SessionState{Phase: PhaseNone, Verdict: VerdictInconclusive}
}

// ProcessingState builds a PROCESSING state for the given stage label.
func ProcessingState(stage string, at time.Time) SessionState {
	return SessionState{Phase: PhaseProcessing, Stage: stage, Verdict: VerdictProcessing, UpdatedAt: at}
}

// DoneState builds the terminal state carrying verdict.
func DoneState(verdict Verdict, at time.Time) SessionState {
	return SessionState{Phase: PhaseDone, Stage: StageDone, Verdict: verdict, UpdatedAt: at}
}

// IsDone reports whether the session holds a final verdict.
func (s SessionState) IsDone() bool {
	return s.Phase == PhaseDone
}
