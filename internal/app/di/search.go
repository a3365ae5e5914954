// Package di provides dependency injection factories for creating application components.
package di

import (
	"fmt"
	"time"

	logousecase "phish_backend/internal/feature/logodetection/usecase"
	"phish_backend/internal/feature/reversesearch/adapters/imagesearch"
	"phish_backend/internal/feature/reversesearch/adapters/textsearch"
	rsusecase "phish_backend/internal/feature/reversesearch/usecase"
	"phish_backend/internal/platform/config"
	infrahttp "phish_backend/internal/platform/http"
	"phish_backend/internal/shared/ratelimiter"
)

func newLimiter(e config.EngineConfig) *ratelimiter.RateLimiter {
	return ratelimiter.NewRateLimiter(e.Name, e.RatePerMinute, time.Minute)
}

// NewTextEngines creates one rate-limited HTML search engine per configured text engine.
func NewTextEngines(cfg config.SearchConfig) []rsusecase.TextSearchEngine {
	client := infrahttp.NewHTTPClient(cfg.HTTPTimeout)
	engines := make([]rsusecase.TextSearchEngine, 0, len(cfg.TextEngines))
	for _, e := range cfg.TextEngines {
		engines = append(engines, textsearch.NewHTMLEngine(textsearch.Config{
			Name:       e.Name,
			SearchURL:  e.URL,
			MaxResults: e.MaxResults,
		}, client, newLimiter(e)))
	}
	return engines
}

// NewImageEngines creates one rate-limited reverse image search client per configured image engine.
func NewImageEngines(cfg config.SearchConfig) ([]logousecase.ReverseImageEngine, error) {
	client := infrahttp.NewHTTPClient(cfg.HTTPTimeout)
	engines := make([]logousecase.ReverseImageEngine, 0, len(cfg.ImageEngines))
	for _, e := range cfg.ImageEngines {
		engine, err := imagesearch.NewJSONEngine(imagesearch.Config{
			Name:       e.Name,
			URL:        e.URL,
			APIKey:     e.APIKey,
			MaxResults: e.MaxResults,
		}, client, newLimiter(e))
		if err != nil {
			return nil, fmt.Errorf("image engine %q: %w", e.Name, err)
		}
		engines = append(engines, engine)
	}
	return engines, nil
}
