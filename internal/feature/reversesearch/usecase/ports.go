// Package usecase implements the reverse-image-search detection method: a
// funnel of text search, image search and screenshot comparison that stops at
// the first conclusive stage.
package usecase

import (
	"context"
	"image"
	"iter"

	logoentity "phish_backend/internal/feature/logodetection/domain/entity"
	"phish_backend/internal/feature/reversesearch/domain/entity"
)

// TextSearchEngine returns result page URLs for a text query.
type TextSearchEngine interface {
	Name() string
	SearchText(ctx context.Context, query string) ([]string, error)
}

// ImageSearcher streams result page URLs for a screenshot.
type ImageSearcher interface {
	Find(ctx context.Context, img image.Image, limits logoentity.SearchLimits) iter.Seq[string]
}

// DomainResolver maps URLs and hostnames to their registered domains.
type DomainResolver interface {
	Resolve(ctx context.Context, rawURL string) (*entity.DomainInfo, error)
	RegisteredDomain(host string) (string, error)
}

// Renderer loads a page and returns a PNG screenshot of it.
type Renderer interface {
	Render(ctx context.Context, url string) ([]byte, error)
}

// Comparator measures the similarity of two screenshots.
type Comparator interface {
	Compare(a, b image.Image) (entity.Metrics, error)
}

// ScreenshotSource resolves a screenshot reference to an image.
type ScreenshotSource interface {
	Load(ctx context.Context, ref string) (image.Image, error)
}
