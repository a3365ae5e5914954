package entity

// DetectionRequest describes one page submitted for classification.
type DetectionRequest struct {
	URL           string
	ScreenshotURL string
	PageTitle     string
	Identity      string
	// OverrideURL replaces URL for fingerprinting when overrides are enabled.
	OverrideURL string
}

// RawResult is the output of a single detection method.
type RawResult struct {
	Method   string  `json:"method"`
	Verdict  Verdict `json:"verdict"`
	Evidence string  `json:"evidence,omitempty"`
}
