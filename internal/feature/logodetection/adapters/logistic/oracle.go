// Package logistic scores logo regions with a logistic-regression model over
// the region feature vector.
package logistic

import (
	"context"
	"fmt"
	"math"

	"phish_backend/internal/feature/logodetection/domain/entity"
	"phish_backend/internal/feature/logodetection/usecase"
)

// Model holds the regression parameters.
type Model struct {
	Intercept    float64   `yaml:"intercept"`
	Coefficients []float64 `yaml:"coefficients"`
}

// DefaultModel favours small, compact, high-contrast regions near the top of the page.
func DefaultModel() Model {
	return Model{
		Intercept: -1.2,
		Coefficients: []float64{
			-3.0, // width
			-4.0, // height
			0.2,  // center x
			-2.5, // center y
			-1.5, // color diversity
			0.8,  // dominant color share
			0.0,  // mean luminance
			3.0,  // luminance std
			0.0,  // skewness
			-0.1, // kurtosis
			1.2,  // entropy
			0.0,  // otsu threshold
			-0.5, // energy
			0.5,  // occupied bins
		},
	}
}

// Validate checks that the model matches the feature vector length.
func (m Model) Validate() error {
	if len(m.Coefficients) != entity.FeatureCount {
		return fmt.Errorf("logo model needs %d coefficients, got %d", entity.FeatureCount, len(m.Coefficients))
	}
	return nil
}

// Oracle implements usecase.LogoOracle.
type Oracle struct {
	model Model
}

var _ usecase.LogoOracle = (*Oracle)(nil)

// NewOracle creates an Oracle from a validated model.
func NewOracle(m Model) (*Oracle, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &Oracle{model: m}, nil
}

// Score returns sigmoid(intercept + w·features).
func (o *Oracle) Score(_ context.Context, r entity.RegionCandidate) (float64, error) {
	if len(r.Features) != len(o.model.Coefficients) {
		return 0, fmt.Errorf("region %d has %d features, want %d", r.Index, len(r.Features), len(o.model.Coefficients))
	}
	z := o.model.Intercept
	for i, x := range r.Features {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, fmt.Errorf("region %d feature %d is not finite", r.Index, i)
		}
		z += o.model.Coefficients[i] * x
	}
	return 1 / (1 + math.Exp(-z)), nil
}
