// Package decision provides the built-in decision strategies.
package decision

import (
	"phish_backend/internal/feature/detection/domain/entity"
	"phish_backend/internal/feature/detection/usecase"
)

var (
	_ usecase.DecisionStrategy = Majority{}
	_ usecase.DecisionStrategy = Strict{}
	_ usecase.DecisionStrategy = Unanimous{}
)

// All returns every built-in strategy.
func All() []usecase.DecisionStrategy {
	return []usecase.DecisionStrategy{Majority{}, Strict{}, Unanimous{}}
}

// finalVerdicts drops results that are still processing.
func finalVerdicts(results []entity.RawResult) []entity.Verdict {
	out := make([]entity.Verdict, 0, len(results))
	for _, r := range results {
		if r.Verdict.IsFinal() {
			out = append(out, r.Verdict)
		}
	}
	return out
}

// Majority picks the most frequent verdict. A tie for first place is INCONCLUSIVE.
type Majority struct{}

func (Majority) Name() string { return entity.StrategyMajority }

func (Majority) Decide(results []entity.RawResult) entity.Verdict {
	counts := make(map[entity.Verdict]int, 3)
	for _, v := range finalVerdicts(results) {
		counts[v]++
	}

	best, bestCount, tied := entity.VerdictInconclusive, 0, false
	for v, n := range counts {
		switch {
		case n > bestCount:
			best, bestCount, tied = v, n, false
		case n == bestCount:
			tied = true
		}
	}
	if bestCount == 0 || tied {
		return entity.VerdictInconclusive
	}
	return best
}

// Strict flags PHISHING as soon as one method does, and clears a page only
// when every method cleared it.
type Strict struct{}

func (Strict) Name() string { return entity.StrategyStrict }

func (Strict) Decide(results []entity.RawResult) entity.Verdict {
	verdicts := finalVerdicts(results)
	if len(verdicts) == 0 {
		return entity.VerdictInconclusive
	}
	clean := true
	for _, v := range verdicts {
		if v == entity.VerdictPhishing {
			return entity.VerdictPhishing
		}
		if v != entity.VerdictNotPhishing {
			clean = false
		}
	}
	if clean {
		return entity.VerdictNotPhishing
	}
	return entity.VerdictInconclusive
}

// Unanimous returns the shared verdict when all methods agree.
type Unanimous struct{}

func (Unanimous) Name() string { return entity.StrategyUnanimous }

func (Unanimous) Decide(results []entity.RawResult) entity.Verdict {
	verdicts := finalVerdicts(results)
	if len(verdicts) == 0 {
		return entity.VerdictInconclusive
	}
	for _, v := range verdicts[1:] {
		if v != verdicts[0] {
			return entity.VerdictInconclusive
		}
	}
	return verdicts[0]
}
