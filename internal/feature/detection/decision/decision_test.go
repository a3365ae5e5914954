package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"phish_backend/internal/feature/detection/domain/entity"
)

func results(verdicts ...entity.Verdict) []entity.RawResult {
	out := make([]entity.RawResult, len(verdicts))
	for i, v := range verdicts {
		out[i] = entity.RawResult{Method: "m", Verdict: v}
	}
	return out
}

const (
	P = entity.VerdictPhishing
	N = entity.VerdictNotPhishing
	I = entity.VerdictInconclusive
	X = entity.VerdictProcessing
)

func TestMajority_Decide(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []entity.RawResult
		want  entity.Verdict
	}{
		{"empty", nil, I},
		{"single phishing", results(P), P},
		{"clear majority", results(P, N, P), P},
		{"two-way tie", results(P, N), I},
		{"three-way tie", results(P, N, I), I},
		{"processing ignored", results(N, X, X), N},
		{"only processing", results(X, X), I},
		{"inconclusive majority", results(I, I, P), I},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Majority{}.Decide(tt.input))
		})
	}
}

func TestStrict_Decide(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []entity.RawResult
		want  entity.Verdict
	}{
		{"empty", nil, I},
		{"any phishing wins", results(N, N, P), P},
		{"all clean", results(N, N), N},
		{"clean with inconclusive", results(N, I), I},
		{"processing ignored", results(N, X), N},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Strict{}.Decide(tt.input))
		})
	}
}

func TestUnanimous_Decide(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []entity.RawResult
		want  entity.Verdict
	}{
		{"empty", nil, I},
		{"all phishing", results(P, P), P},
		{"disagreement", results(P, N), I},
		{"processing ignored", results(N, X, N), N},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Unanimous{}.Decide(tt.input))
		})
	}
}

func TestAll_UniqueNames(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for _, s := range All() {
		assert.False(t, seen[s.Name()], "duplicate strategy %q", s.Name())
		seen[s.Name()] = true
	}
	assert.True(t, seen[entity.StrategyMajority])
}
