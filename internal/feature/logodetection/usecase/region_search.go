// Package usecase implements reverse image search over the logo-like regions of a screenshot.
package usecase

import (
	"context"
	"image"
	"iter"
	"log/slog"
	"sort"

	"phish_backend/internal/feature/logodetection/domain/entity"
	"phish_backend/internal/platform/workerpool"
)

// RegionDetector extracts candidate regions from a screenshot.
type RegionDetector interface {
	Detect(ctx context.Context, img image.Image) ([]entity.RegionCandidate, error)
}

// LogoOracle estimates the probability that a region shows a logo.
type LogoOracle interface {
	Score(ctx context.Context, region entity.RegionCandidate) (float64, error)
}

// ReverseImageEngine finds pages that contain an image.
type ReverseImageEngine interface {
	Name() string
	SearchImage(ctx context.Context, image []byte) ([]string, error)
}

// RegionSearch runs reverse image searches for the most logo-like regions of a screenshot.
type RegionSearch struct {
	detector RegionDetector
	oracle   LogoOracle
	engines  []ReverseImageEngine
	pool     *workerpool.Pool
	logger   *slog.Logger
}

// NewRegionSearch creates a RegionSearch whose engine queries run on pool.
func NewRegionSearch(detector RegionDetector, oracle LogoOracle, engines []ReverseImageEngine, pool *workerpool.Pool, logger *slog.Logger) *RegionSearch {
	if logger == nil {
		logger = slog.Default()
	}
	return &RegionSearch{detector: detector, oracle: oracle, engines: engines, pool: pool, logger: logger}
}

// Rank scores every region and returns the top limit ordered by descending
// probability. Regions with equal scores keep their detection order and
// regions the oracle fails on are dropped.
func (s *RegionSearch) Rank(ctx context.Context, regions []entity.RegionCandidate, limit int) []entity.RegionCandidate {
	scored := make([]entity.RegionCandidate, 0, len(regions))
	for _, r := range regions {
		p, err := s.oracle.Score(ctx, r)
		if err != nil {
			s.logger.Warn("logo oracle failed, skipping region", "region", r.Index, "error", err)
			continue
		}
		scored = append(scored, r.Scored(p))
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].LogoProbability > scored[j].LogoProbability
	})
	if limit >= 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// Find returns a single-use sequence of result URLs. Every kept region is
// queried on every engine concurrently; URLs are yielded as queries complete
// and the sequence ends after limits.ResultsPerRegion URLs. Failed queries
// are logged and skipped.
func (s *RegionSearch) Find(ctx context.Context, img image.Image, limits entity.SearchLimits) iter.Seq[string] {
	return func(yield func(string) bool) {
		if limits.ResultsPerRegion <= 0 || limits.RegionLimit <= 0 || len(s.engines) == 0 {
			return
		}
		regions, err := s.detector.Detect(ctx, img)
		if err != nil {
			s.logger.Warn("region detection failed", "error", err)
			return
		}
		ranked := s.Rank(ctx, regions, limits.RegionLimit)
		s.logger.Debug("searching logo regions", "detected", len(regions), "searched", len(ranked))

		group := workerpool.NewGroup[[]string](ctx, s.pool)
		for _, region := range ranked {
			for _, engine := range s.engines {
				group.Schedule(func(ctx context.Context) ([]string, error) {
					urls, err := engine.SearchImage(ctx, region.Crop)
					if err != nil {
						s.logger.Warn("reverse image search failed",
							"engine", engine.Name(),
							"region", region.Index,
							"error", err,
						)
					}
					return urls, err
				})
			}
		}

		emitted := 0
		for urls, err := range group.Collect(ctx) {
			if err != nil {
				continue
			}
			for _, u := range urls {
				if !yield(u) {
					return
				}
				emitted++
				if emitted >= limits.ResultsPerRegion {
					return
				}
			}
		}
	}
}
