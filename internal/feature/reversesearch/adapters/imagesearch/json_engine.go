// Package imagesearch talks to reverse-image-search services that accept an
// uploaded image and answer with a JSON list of pages containing it.
package imagesearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	logousecase "phish_backend/internal/feature/logodetection/usecase"
	"phish_backend/internal/shared/ratelimiter"
)

// Config describes one reverse image search service.
type Config struct {
	Name   string
	URL    string
	APIKey string
	// FieldName is the multipart field holding the image. Defaults to "image".
	FieldName  string
	MaxResults int
}

type searchResponse struct {
	Results []struct {
		URL string `json:"url"`
	} `json:"results"`
	Error string `json:"error,omitempty"`
}

// JSONEngine implements logousecase.ReverseImageEngine.
type JSONEngine struct {
	cfg     Config
	client  *http.Client
	limiter ratelimiter.RateLimiterInterface
}

var _ logousecase.ReverseImageEngine = (*JSONEngine)(nil)

// NewJSONEngine creates a JSONEngine.
func NewJSONEngine(cfg Config, client *http.Client, limiter ratelimiter.RateLimiterInterface) (*JSONEngine, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("image search engine %q: url is required", cfg.Name)
	}
	if cfg.Name == "" {
		cfg.Name = "imagesearch"
	}
	if cfg.FieldName == "" {
		cfg.FieldName = "image"
	}
	return &JSONEngine{cfg: cfg, client: client, limiter: limiter}, nil
}

// Name implements ReverseImageEngine.
func (e *JSONEngine) Name() string {
	return e.cfg.Name
}

// SearchImage uploads image and returns the result URLs in service order.
func (e *JSONEngine) SearchImage(ctx context.Context, image []byte) ([]string, error) {
	if e.limiter != nil {
		if err := e.limiter.WaitIfNeeded(ctx); err != nil {
			return nil, err
		}
	}

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile(e.cfg.FieldName, "region.png")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(image); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.URL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	if e.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
	}

	res, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 256))
		return nil, fmt.Errorf("%s returned status %d: %s", e.cfg.Name, res.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var decoded searchResponse
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", e.cfg.Name, err)
	}
	if decoded.Error != "" {
		return nil, fmt.Errorf("%s: %s", e.cfg.Name, decoded.Error)
	}

	urls := make([]string, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		if r.URL == "" {
			continue
		}
		urls = append(urls, r.URL)
		if e.cfg.MaxResults > 0 && len(urls) == e.cfg.MaxResults {
			break
		}
	}
	return urls, nil
}
