// Package vision scores logo regions with the Google Cloud Vision logo detector.
package vision

import (
	"context"
	"fmt"

	gvision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"

	"phish_backend/internal/feature/logodetection/domain/entity"
	"phish_backend/internal/feature/logodetection/usecase"
)

// VisionLogoOracle uses the highest Vision logo annotation score of a region
// as its logo probability.
type VisionLogoOracle struct {
	client *gvision.ImageAnnotatorClient
}

var _ usecase.LogoOracle = (*VisionLogoOracle)(nil)

// NewVisionLogoOracle creates the oracle with Application Default Credentials.
func NewVisionLogoOracle(ctx context.Context) (*VisionLogoOracle, error) {
	client, err := gvision.NewImageAnnotatorClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}
	return &VisionLogoOracle{client: client}, nil
}

// Close releases the Vision client.
func (v *VisionLogoOracle) Close() error {
	return v.client.Close()
}

// Score sends the region crop to LOGO_DETECTION. Regions without any
// annotation score zero.
func (v *VisionLogoOracle) Score(ctx context.Context, r entity.RegionCandidate) (float64, error) {
	if len(r.Crop) == 0 {
		return 0, fmt.Errorf("region %d has no image data", r.Index)
	}
	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: r.Crop},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_LOGO_DETECTION, MaxResults: 5},
				},
			},
		},
	}

	resp, err := v.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("vision API request failed: %w", err)
	}
	return bestLogoScore(resp)
}

func bestLogoScore(resp *visionpb.BatchAnnotateImagesResponse) (float64, error) {
	if resp == nil || len(resp.Responses) == 0 {
		return 0, nil
	}
	if resp.Responses[0].Error != nil {
		return 0, fmt.Errorf("vision API error: %s", resp.Responses[0].Error.Message)
	}
	var best float32
	for _, logo := range resp.Responses[0].LogoAnnotations {
		best = max(best, logo.Score)
	}
	return float64(best), nil
}
