package usecase

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	detentity "phish_backend/internal/feature/detection/domain/entity"
	detusecase "phish_backend/internal/feature/detection/usecase"
	logoentity "phish_backend/internal/feature/logodetection/domain/entity"
	"phish_backend/internal/feature/reversesearch/domain/entity"
)

// Funnel is the reverse-image-search detection method.
type Funnel struct {
	textEngines []TextSearchEngine
	images      ImageSearcher
	resolver    DomainResolver
	renderer    Renderer
	comparator  Comparator
	screenshots ScreenshotSource
	logger      *slog.Logger
}

var _ detusecase.DetectionMethod = (*Funnel)(nil)

// Deps are the collaborators of a Funnel.
type Deps struct {
	TextEngines []TextSearchEngine
	Images      ImageSearcher
	Resolver    DomainResolver
	Renderer    Renderer
	Comparator  Comparator
	Screenshots ScreenshotSource
	Logger      *slog.Logger
}

// NewFunnel creates the method.
func NewFunnel(d Deps) *Funnel {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Funnel{
		textEngines: d.TextEngines,
		images:      d.Images,
		resolver:    d.Resolver,
		renderer:    d.Renderer,
		comparator:  d.Comparator,
		screenshots: d.Screenshots,
		logger:      d.Logger,
	}
}

// Name implements DetectionMethod.
func (f *Funnel) Name() string {
	return detentity.MethodReverseImageSearch
}

// candidates keeps distinct URLs in first-seen order.
type candidates struct {
	seen  map[string]struct{}
	order []string
}

func (c *candidates) add(u string) bool {
	if c.seen == nil {
		c.seen = map[string]struct{}{}
	}
	if _, ok := c.seen[u]; ok {
		return false
	}
	c.seen[u] = struct{}{}
	c.order = append(c.order, u)
	return true
}

// Run walks the funnel. Search results hosted on the request's own
// registered domain clear the page; a rendered result that looks like the
// screenshot flags it. Method config key "max_compare" caps the number of
// pages rendered in the comparison stage.
func (f *Funnel) Run(ctx context.Context, in detusecase.MethodInput) (detentity.RawResult, error) {
	req := in.Request
	log := f.logger.With("method", f.Name(), "url", req.URL)

	ref := req.ScreenshotURL
	if ref == "" {
		ref = req.URL
	}
	// Loading may render the page, so it waits until a stage needs the image.
	screenshot := sync.OnceValues(func() (image.Image, error) {
		return f.screenshots.Load(ctx, ref)
	})

	host := hostname(req.URL)
	domain, err := f.resolver.RegisteredDomain(host)
	if err != nil {
		log.Warn("cannot determine registered domain, domain checks will not match", "host", host, "error", err)
		domain = ""
	}

	var seen candidates

	in.Report(ctx, entity.StageTextSearch)
	query := strings.TrimSpace(req.PageTitle)
	if query == "" {
		query = host
	}
	for _, engine := range f.textEngines {
		urls, err := engine.SearchText(ctx, query)
		if err != nil {
			log.Warn("text search failed", "engine", engine.Name(), "error", err)
			continue
		}
		for _, u := range urls {
			if seen.add(u) && f.sameSite(ctx, u, domain) {
				return f.verdict(detentity.VerdictNotPhishing, "%s: %s is hosted on %s", entity.StageTextSearch, u, domain), nil
			}
		}
	}

	in.Report(ctx, entity.StageImageSearch)
	shot, err := screenshot()
	if err != nil {
		log.Warn("cannot load screenshot, skipping image stages", "ref", ref, "error", err)
		return f.verdict(detentity.VerdictInconclusive, "screenshot %s unavailable after %d text candidates", ref, len(seen.order)), nil
	}
	if f.images != nil {
		limits := logoentity.SearchLimits{RegionLimit: in.Settings.RegionLimit, ResultsPerRegion: in.Settings.ResultsPerRegion}
		for u := range f.images.Find(ctx, shot, limits) {
			if seen.add(u) && f.sameSite(ctx, u, domain) {
				return f.verdict(detentity.VerdictNotPhishing, "%s: %s is hosted on %s", entity.StageImageSearch, u, domain), nil
			}
		}
	}

	in.Report(ctx, entity.StageImageCompare)
	pages := seen.order
	if n := in.Config.Int("max_compare", 0); n > 0 && len(pages) > n {
		pages = pages[:n]
	}
	for _, u := range pages {
		m, err := f.compare(ctx, shot, u)
		if err != nil {
			log.Warn("screenshot comparison failed", "candidate", u, "error", err)
			continue
		}
		log.Debug("compared screenshot", "candidate", u, "emd", m.EMD, "ssim", m.SSIM)
		if m.IsMatch() {
			return f.verdict(detentity.VerdictPhishing, "%s: page looks like %s (emd=%.5f ssim=%.3f)", entity.StageImageCompare, u, m.EMD, m.SSIM), nil
		}
	}

	return f.verdict(detentity.VerdictInconclusive, "no stage was conclusive over %d candidates", len(seen.order)), nil
}

func (f *Funnel) verdict(v detentity.Verdict, format string, args ...any) detentity.RawResult {
	return detentity.RawResult{Method: f.Name(), Verdict: v, Evidence: fmt.Sprintf(format, args...)}
}

// sameSite reports whether candidate belongs to domain by registered domain
// or by one of its certificate names.
func (f *Funnel) sameSite(ctx context.Context, candidate, domain string) bool {
	if domain == "" {
		return false
	}
	info, err := f.resolver.Resolve(ctx, candidate)
	if err != nil {
		f.logger.Debug("cannot resolve candidate", "candidate", candidate, "error", err)
		return false
	}
	if strings.EqualFold(info.RegisteredDomain, domain) {
		return true
	}
	for _, san := range info.SANs {
		d, err := f.resolver.RegisteredDomain(strings.TrimPrefix(san, "*."))
		if err == nil && strings.EqualFold(d, domain) {
			return true
		}
	}
	return false
}

func (f *Funnel) compare(ctx context.Context, shot image.Image, candidate string) (entity.Metrics, error) {
	data, err := f.renderer.Render(ctx, candidate)
	if err != nil {
		return entity.Metrics{}, fmt.Errorf("render: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return entity.Metrics{}, fmt.Errorf("decode: %w", err)
	}
	return f.comparator.Compare(shot, img)
}

func hostname(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return strings.TrimSpace(raw)
	}
	return u.Hostname()
}
