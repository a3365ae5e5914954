// Package entity defines the domain models of the logo-detection feature.
package entity

import "image"

// FeatureCount is the length of a region feature vector.
const FeatureCount = 14

// RegionCandidate is a sub-image of a screenshot that may contain a logo.
type RegionCandidate struct {
	Index int
	// Box is the region in screenshot coordinates.
	Box      image.Rectangle
	Features []float64
	// Crop is the PNG-encoded region.
	Crop []byte
	// LogoProbability is set by the oracle; unscored candidates hold zero.
	LogoProbability float64
}

// Scored returns a copy of r carrying probability p.
func (r RegionCandidate) Scored(p float64) RegionCandidate {
	r.LogoProbability = p
	return r
}

// SearchLimits bounds a region search.
type SearchLimits struct {
	// RegionLimit is the number of highest-scoring regions that are searched.
	RegionLimit int
	// ResultsPerRegion caps the total number of URLs yielded.
	ResultsPerRegion int
}
