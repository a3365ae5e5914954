package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"phish_backend/internal/feature/reversesearch/usecase"
)

// ScreenshotLoader implements usecase.ScreenshotSource. References are local
// paths, file:// URLs, or http(s) pages that get rendered.
type ScreenshotLoader struct {
	renderer usecase.Renderer
	// root, when set, confines local references to this directory.
	root string
}

var _ usecase.ScreenshotSource = (*ScreenshotLoader)(nil)

// NewScreenshotLoader creates a ScreenshotLoader. An empty root allows any path.
func NewScreenshotLoader(renderer usecase.Renderer, root string) *ScreenshotLoader {
	return &ScreenshotLoader{renderer: renderer, root: root}
}

// Load resolves ref to a decoded image.
func (l *ScreenshotLoader) Load(ctx context.Context, ref string) (image.Image, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("empty screenshot reference")
	}

	var (
		data []byte
		err  error
	)
	u, perr := url.Parse(ref)
	switch {
	case perr == nil && (u.Scheme == "http" || u.Scheme == "https"):
		data, err = l.renderer.Render(ctx, ref)
	case perr == nil && u.Scheme == "file":
		data, err = l.readFile(u.Path)
	case perr == nil && u.Scheme != "" && len(u.Scheme) > 1:
		return nil, fmt.Errorf("unsupported screenshot scheme %q", u.Scheme)
	default:
		data, err = l.readFile(ref)
	}
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot %s: %w", ref, err)
	}
	return img, nil
}

func (l *ScreenshotLoader) readFile(path string) ([]byte, error) {
	clean := filepath.Clean(path)
	if l.root != "" {
		root, err := filepath.Abs(l.root)
		if err != nil {
			return nil, err
		}
		abs, err := filepath.Abs(clean)
		if err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil, fmt.Errorf("screenshot %s is outside %s", path, l.root)
		}
	}
	data, err := os.ReadFile(clean)
	if err != nil {
		return nil, fmt.Errorf("read screenshot: %w", err)
	}
	return data, nil
}
