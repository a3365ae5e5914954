// Package regions finds logo-like regions in screenshots by binarising the
// image and grouping foreground pixels into connected components.
package regions

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"sort"

	xdraw "golang.org/x/image/draw"

	"phish_backend/internal/feature/logodetection/domain/entity"
	"phish_backend/internal/feature/logodetection/usecase"
)

// Config tunes the detector.
type Config struct {
	// WorkWidth is the width screenshots are downscaled to before segmentation.
	WorkWidth int
	// MergeRadius dilates the foreground so glyphs of one logo join up.
	MergeRadius int
	// MinSide is the smallest accepted region side in work pixels.
	MinSide int
	// MaxAreaRatio rejects regions covering more than this share of the image.
	MaxAreaRatio float64
	// MaxRegions caps the number of returned regions.
	MaxRegions int
	// Padding is added around each region when cropping, in screenshot pixels.
	Padding int
}

// DefaultConfig returns settings suited to desktop-sized screenshots.
func DefaultConfig() Config {
	return Config{
		WorkWidth:    480,
		MergeRadius:  2,
		MinSide:      6,
		MaxAreaRatio: 0.2,
		MaxRegions:   40,
		Padding:      4,
	}
}

// Detector implements usecase.RegionDetector.
type Detector struct {
	cfg Config
}

var _ usecase.RegionDetector = (*Detector)(nil)

// NewDetector creates a Detector. Zero fields of cfg take default values;
// a negative MergeRadius or Padding disables that step.
func NewDetector(cfg Config) *Detector {
	d := DefaultConfig()
	if cfg.WorkWidth <= 0 {
		cfg.WorkWidth = d.WorkWidth
	}
	switch {
	case cfg.MergeRadius == 0:
		cfg.MergeRadius = d.MergeRadius
	case cfg.MergeRadius < 0:
		cfg.MergeRadius = 0
	}
	if cfg.MinSide <= 0 {
		cfg.MinSide = d.MinSide
	}
	if cfg.MaxAreaRatio <= 0 {
		cfg.MaxAreaRatio = d.MaxAreaRatio
	}
	if cfg.MaxRegions <= 0 {
		cfg.MaxRegions = d.MaxRegions
	}
	switch {
	case cfg.Padding == 0:
		cfg.Padding = d.Padding
	case cfg.Padding < 0:
		cfg.Padding = 0
	}
	return &Detector{cfg: cfg}
}

// Detect returns candidate regions ordered top-to-bottom, left-to-right.
func (d *Detector) Detect(ctx context.Context, img image.Image) ([]entity.RegionCandidate, error) {
	src := img.Bounds()
	if src.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	work := d.downscale(img)
	wb := work.Bounds()
	mask := foreground(work)
	if d.cfg.MergeRadius > 0 {
		mask = dilate(mask, wb.Dx(), wb.Dy(), d.cfg.MergeRadius)
	}
	boxes := components(mask, wb.Dx(), wb.Dy())

	maxArea := d.cfg.MaxAreaRatio * float64(wb.Dx()*wb.Dy())
	kept := boxes[:0]
	for _, b := range boxes {
		if b.Dx() < d.cfg.MinSide || b.Dy() < d.cfg.MinSide {
			continue
		}
		if float64(b.Dx()*b.Dy()) > maxArea {
			continue
		}
		ratio := float64(b.Dx()) / float64(b.Dy())
		if ratio > 12 || ratio < 1.0/12 {
			continue
		}
		kept = append(kept, b)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Min.Y != kept[j].Min.Y {
			return kept[i].Min.Y < kept[j].Min.Y
		}
		return kept[i].Min.X < kept[j].Min.X
	})
	if len(kept) > d.cfg.MaxRegions {
		kept = kept[:d.cfg.MaxRegions]
	}

	sx := float64(src.Dx()) / float64(wb.Dx())
	sy := float64(src.Dy()) / float64(wb.Dy())
	out := make([]entity.RegionCandidate, 0, len(kept))
	for i, b := range kept {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		box := image.Rect(
			src.Min.X+int(float64(b.Min.X)*sx)-d.cfg.Padding,
			src.Min.Y+int(float64(b.Min.Y)*sy)-d.cfg.Padding,
			src.Min.X+int(float64(b.Max.X)*sx+0.5)+d.cfg.Padding,
			src.Min.Y+int(float64(b.Max.Y)*sy+0.5)+d.cfg.Padding,
		).Intersect(src)

		crop, err := encodeCrop(img, box)
		if err != nil {
			return nil, fmt.Errorf("failed to encode region %d: %w", i, err)
		}
		out = append(out, entity.RegionCandidate{
			Index:    i,
			Box:      box,
			Features: regionFeatures(img, box),
			Crop:     crop,
		})
	}
	return out, nil
}

func (d *Detector) downscale(img image.Image) *image.RGBA {
	b := img.Bounds()
	if b.Dx() <= d.cfg.WorkWidth {
		dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst
	}
	h := max(1, b.Dy()*d.cfg.WorkWidth/b.Dx())
	dst := image.NewRGBA(image.Rect(0, 0, d.cfg.WorkWidth, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// foreground marks pixels on the minority side of the Otsu threshold.
func foreground(img *image.RGBA) []bool {
	b := img.Bounds()
	hist := grayHistogram(img, b)
	t := otsu(hist)

	below := 0
	for i := 0; i <= t; i++ {
		below += hist[i]
	}
	darkIsForeground := below*2 < b.Dx()*b.Dy()

	mask := make([]bool, b.Dx()*b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dark := int(luma(img, x+b.Min.X, y+b.Min.Y)) <= t
			mask[y*b.Dx()+x] = dark == darkIsForeground
		}
	}
	return mask
}

// dilate grows the mask by r pixels in every direction using separable passes.
func dilate(mask []bool, w, h, r int) []bool {
	tmp := make([]bool, len(mask))
	for y := range h {
		for x := range w {
			if !mask[y*w+x] {
				continue
			}
			for dx := max(0, x-r); dx <= min(w-1, x+r); dx++ {
				tmp[y*w+dx] = true
			}
		}
	}
	out := make([]bool, len(mask))
	for y := range h {
		for x := range w {
			if !tmp[y*w+x] {
				continue
			}
			for dy := max(0, y-r); dy <= min(h-1, y+r); dy++ {
				out[dy*w+x] = true
			}
		}
	}
	return out
}

// components returns the bounding boxes of the 4-connected foreground components.
func components(mask []bool, w, h int) []image.Rectangle {
	seen := make([]bool, len(mask))
	var boxes []image.Rectangle
	stack := make([]int, 0, 64)
	for start := range mask {
		if !mask[start] || seen[start] {
			continue
		}
		seen[start] = true
		stack = append(stack[:0], start)
		box := image.Rect(start%w, start/w, start%w+1, start/w+1)
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := p%w, p/w
			box = box.Union(image.Rect(x, y, x+1, y+1))
			for _, q := range [4][2]int{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}} {
				if q[0] < 0 || q[1] < 0 || q[0] >= w || q[1] >= h {
					continue
				}
				i := q[1]*w + q[0]
				if mask[i] && !seen[i] {
					seen[i] = true
					stack = append(stack, i)
				}
			}
		}
		boxes = append(boxes, box)
	}
	return boxes
}

func encodeCrop(img image.Image, box image.Rectangle) ([]byte, error) {
	dst := image.NewRGBA(image.Rect(0, 0, box.Dx(), box.Dy()))
	draw.Draw(dst, dst.Bounds(), img, box.Min, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
