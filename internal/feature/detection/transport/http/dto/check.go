// Package dto defines the request and response bodies of the detection API.
package dto

import "phish_backend/internal/feature/detection/domain/entity"

// CheckRequest is the body of POST /v2/check.
type CheckRequest struct {
	UUID          string `json:"uuid"`
	URL           string `json:"url"`
	LegacyURL     string `json:"URL"` // deprecated spelling of url
	PageTitle     string `json:"pagetitle"`
	ScreenshotURL string `json:"screenshot_url"`
	PhishURL      string `json:"phishURL"`
}

// TargetURL returns url, falling back to the deprecated URL key.
func (r CheckRequest) TargetURL() string {
	if r.URL != "" {
		return r.URL
	}
	return r.LegacyURL
}

// CheckResponse is the body returned by POST /v2/check.
type CheckResponse struct {
	URL    string         `json:"url"`
	Status string         `json:"status"`
	Result entity.Verdict `json:"result"`
	SHA256 string         `json:"sha256"`
}

// FromResult converts a usecase result into its wire form.
func FromResult(r *entity.DetectionResult) CheckResponse {
	return CheckResponse{URL: r.URL, Status: r.State, Result: r.Verdict, SHA256: r.URLHash}
}
