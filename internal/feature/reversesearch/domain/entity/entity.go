// Package entity defines the domain models of the reverse-search feature.
package entity

// Funnel stage labels, in execution order.
const (
	StageTextSearch   = "textsearch"
	StageImageSearch  = "imagesearch"
	StageImageCompare = "imagecompare"
)

// DomainInfo is what a candidate URL resolves to.
type DomainInfo struct {
	Hostname string `json:"hostname"`
	// RegisteredDomain is the eTLD+1 of Hostname.
	RegisteredDomain string `json:"registered_domain"`
	// SANs are the DNS names of the leaf certificate served for Hostname.
	SANs []string `json:"sans,omitempty"`
}

// Metrics are the similarity measures between two screenshots.
type Metrics struct {
	// EMD is the earth mover's distance between the normalized luminance
	// histograms, in [0, 1]. Lower is more similar.
	EMD float64
	// SSIM is the mean structural similarity, in [-1, 1]. Higher is more similar.
	SSIM float64
}

// IsMatch reports whether two screenshots are considered the same page.
func (m Metrics) IsMatch() bool {
	return (m.EMD < 0.001 && m.SSIM > 0.70) || (m.EMD < 0.002 && m.SSIM > 0.80)
}
