package entity

import "time"

// Result states reported to callers.
const (
	StateDone       = "DONE"
	StateProcessing = "PROCESSING"
	// StateTimeout is returned when waiting on another computation exceeded its budget.
	StateTimeout = "TIMEOUT"
)

// DetectionResult is the answer to a check request.
type DetectionResult struct {
	URL     string
	URLHash string
	State   string
	Verdict Verdict
}

// Capabilities lists the registered detection methods and decision strategies.
type Capabilities struct {
	DetectionMethods   []string
	DecisionStrategies []string
}

// AuditRecord is one archived verdict.
type AuditRecord struct {
	ID        string
	Identity  string
	URL       string
	URLHash   string
	Settings  DetectionSettings
	Verdict   Verdict
	Results   []RawResult
	CreatedAt time.Time
}
