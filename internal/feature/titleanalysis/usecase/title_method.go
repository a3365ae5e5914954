// Package usecase implements the title_analysis detection method, which asks
// a language model whether a page title fits the URL serving it.
package usecase

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	detentity "phish_backend/internal/feature/detection/domain/entity"
	detusecase "phish_backend/internal/feature/detection/usecase"
)

const (
	// MaxTitleLength caps the title forwarded to the analyzer, in runes.
	MaxTitleLength = 200
	// StageAnalyzing is reported while the analyzer runs.
	StageAnalyzing = "analyzing"

	PromptTemplate = `You are a phishing analyst. A web page is served from the URL %q and its title is %q.
Decide whether the page impersonates a brand or service that the URL's domain does not belong to.
Answer with exactly one word: PHISHING, NOT_PHISHING or INCONCLUSIVE.`
)

// Analyzer generates a text completion for a prompt.
type Analyzer interface {
	Analyze(ctx context.Context, prompt string) (string, error)
}

// TitleMethod implements detusecase.DetectionMethod.
type TitleMethod struct {
	analyzer Analyzer
}

var _ detusecase.DetectionMethod = (*TitleMethod)(nil)

func NewTitleMethod(a Analyzer) *TitleMethod {
	return &TitleMethod{analyzer: a}
}

func (m *TitleMethod) Name() string {
	return detentity.MethodTitleAnalysis
}

// Run asks the analyzer about the request's title. Requests without a title
// are INCONCLUSIVE without a call.
func (m *TitleMethod) Run(ctx context.Context, in detusecase.MethodInput) (detentity.RawResult, error) {
	title := strings.TrimSpace(in.Request.PageTitle)
	if title == "" {
		return m.result(detentity.VerdictInconclusive, "page has no title"), nil
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		title = string([]rune(title)[:MaxTitleLength])
	}

	in.Report(ctx, StageAnalyzing)
	answer, err := m.analyzer.Analyze(ctx, fmt.Sprintf(PromptTemplate, displayURL(in.Request.URL), title))
	if err != nil {
		return detentity.RawResult{}, fmt.Errorf("title analyzer failed: %w", err)
	}

	v := ParseAnswer(answer)
	return m.result(v, fmt.Sprintf("analyzer answered %q for title %q", strings.TrimSpace(answer), title)), nil
}

func (m *TitleMethod) result(v detentity.Verdict, evidence string) detentity.RawResult {
	return detentity.RawResult{Method: m.Name(), Verdict: v, Evidence: evidence}
}

// ParseAnswer extracts the verdict word from a model answer. Anything else
// is INCONCLUSIVE.
func ParseAnswer(answer string) detentity.Verdict {
	a := strings.ToUpper(answer)
	a = strings.NewReplacer("-", "_", " ", "_").Replace(a)
	switch {
	case strings.Contains(a, string(detentity.VerdictNotPhishing)):
		return detentity.VerdictNotPhishing
	case strings.Contains(a, string(detentity.VerdictInconclusive)):
		return detentity.VerdictInconclusive
	case strings.Contains(a, string(detentity.VerdictPhishing)):
		return detentity.VerdictPhishing
	default:
		return detentity.VerdictInconclusive
	}
}

// displayURL drops query and fragment so tokens in them do not reach the prompt.
func displayURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return raw
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.User = nil
	return u.String()
}
