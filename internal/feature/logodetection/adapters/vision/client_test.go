package vision

import (
	"testing"

	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	statuspb "google.golang.org/genproto/googleapis/rpc/status"
)

func TestBestLogoScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		resp    *visionpb.BatchAnnotateImagesResponse
		want    float64
		wantErr bool
	}{
		{name: "nil response", resp: nil, want: 0},
		{name: "no responses", resp: &visionpb.BatchAnnotateImagesResponse{}, want: 0},
		{
			name: "highest annotation wins",
			resp: &visionpb.BatchAnnotateImagesResponse{Responses: []*visionpb.AnnotateImageResponse{{
				LogoAnnotations: []*visionpb.EntityAnnotation{
					{Description: "Example Bank", Score: 0.5},
					{Description: "Example Pay", Score: 0.75},
				},
			}}},
			want: 0.75,
		},
		{
			name: "api error",
			resp: &visionpb.BatchAnnotateImagesResponse{Responses: []*visionpb.AnnotateImageResponse{{
				Error: &statuspb.Status{Message: "quota exceeded"},
			}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := bestLogoScore(tt.resp)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "quota exceeded")
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-6)
		})
	}
}
