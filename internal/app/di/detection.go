package di

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"phish_backend/internal/feature/detection/usecase"
	"phish_backend/internal/feature/logodetection/adapters/logistic"
	"phish_backend/internal/feature/logodetection/adapters/regions"
	"phish_backend/internal/feature/logodetection/adapters/vision"
	logousecase "phish_backend/internal/feature/logodetection/usecase"
	"phish_backend/internal/feature/reversesearch/adapters/compare"
	"phish_backend/internal/feature/reversesearch/adapters/domain"
	"phish_backend/internal/feature/reversesearch/adapters/render"
	rsusecase "phish_backend/internal/feature/reversesearch/usecase"
	"phish_backend/internal/feature/titleanalysis/adapters/gemini"
	titleusecase "phish_backend/internal/feature/titleanalysis/usecase"
	"phish_backend/internal/platform/cache"
	"phish_backend/internal/platform/config"
	"phish_backend/internal/platform/workerpool"
)

// NewLogoOracle returns the Cloud Vision oracle when enabled, otherwise the
// logistic model, with the configured coefficients if any.
func NewLogoOracle(ctx context.Context, cfg *config.Config) (logousecase.LogoOracle, func() error, error) {
	if cfg.Vision.Enabled {
		v, err := vision.NewVisionLogoOracle(ctx)
		if err != nil {
			return nil, nil, err
		}
		return v, v.Close, nil
	}
	model := logistic.DefaultModel()
	if len(cfg.LogoModel.Coefficients) > 0 {
		model = logistic.Model{Intercept: cfg.LogoModel.Intercept, Coefficients: cfg.LogoModel.Coefficients}
	}
	o, err := logistic.NewOracle(model)
	if err != nil {
		return nil, nil, err
	}
	return o, nil, nil
}

// NewDomainResolver wraps the TLS-aware resolver in a Redis cache when rdb is set.
func NewDomainResolver(rdb *redis.Client, cfg config.SearchConfig, logger *slog.Logger) rsusecase.DomainResolver {
	resolver := domain.NewResolver(domain.Config{}, logger)
	if rdb == nil {
		return resolver
	}
	return cache.NewCachingDomainResolver(rdb, cfg.DomainTTL, resolver, "domains")
}

// methodSet is the set of detection methods plus what must be released on shutdown.
type methodSet struct {
	methods []usecase.DetectionMethod
	closers []func() error
}

// newDetectionMethods builds the reverse image search funnel and, when Gemini
// is enabled, the title analysis method.
func newDetectionMethods(ctx context.Context, cfg *config.Config, rdb *redis.Client, pool *workerpool.Pool, logger *slog.Logger) (*methodSet, error) {
	set := &methodSet{}

	oracle, closeOracle, err := NewLogoOracle(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("logo oracle: %w", err)
	}
	if closeOracle != nil {
		set.closers = append(set.closers, closeOracle)
	}

	imageEngines, err := NewImageEngines(cfg.Search)
	if err != nil {
		return nil, err
	}
	regionSearch := logousecase.NewRegionSearch(regions.NewDetector(regions.DefaultConfig()), oracle, imageEngines, pool, logger)

	renderer := render.NewChromeRenderer(render.Config{Timeout: cfg.Render.Timeout, ExecPath: cfg.Render.ExecPath})
	set.closers = append(set.closers, func() error {
		renderer.Close()
		return nil
	})

	funnel := rsusecase.NewFunnel(rsusecase.Deps{
		TextEngines: NewTextEngines(cfg.Search),
		Images:      regionSearch,
		Resolver:    NewDomainResolver(rdb, cfg.Search, logger),
		Renderer:    renderer,
		Comparator:  compare.Comparator{},
		Screenshots: render.NewScreenshotLoader(renderer, cfg.Render.ScreenshotDir),
		Logger:      logger,
	})
	set.methods = append(set.methods, funnel)

	if cfg.Gemini.Enabled {
		analyzer, err := gemini.NewGeminiAnalyzer(ctx, cfg.Gemini.Model)
		if err != nil {
			return nil, fmt.Errorf("title analysis: %w", err)
		}
		set.methods = append(set.methods, titleusecase.NewTitleMethod(analyzer))
	}
	return set, nil
}
