// Package compare scores the visual similarity of two screenshots.
package compare

import (
	"errors"
	"image"
	"math"

	"golang.org/x/image/draw"

	"phish_backend/internal/feature/reversesearch/domain/entity"
	"phish_backend/internal/feature/reversesearch/usecase"
)

const (
	// Side is the edge length both images are resampled to.
	Side = 256
	// Window is the SSIM window edge length.
	Window = 8

	c1 = (0.01 * 255) * (0.01 * 255)
	c2 = (0.03 * 255) * (0.03 * 255)
)

// ErrEmptyImage is returned when either image has no pixels.
var ErrEmptyImage = errors.New("empty image")

// Comparator implements usecase.Comparator over grayscale resamples.
type Comparator struct{}

var _ usecase.Comparator = Comparator{}

// Compare resamples a and b to Side×Side grayscale and returns the earth
// mover's distance of their luminance histograms and their mean SSIM over
// non-overlapping Window×Window blocks.
func (Comparator) Compare(a, b image.Image) (entity.Metrics, error) {
	if a == nil || b == nil || a.Bounds().Empty() || b.Bounds().Empty() {
		return entity.Metrics{}, ErrEmptyImage
	}
	ga, gb := grayscale(a), grayscale(b)
	return entity.Metrics{EMD: EMD(ga, gb), SSIM: SSIM(ga, gb)}, nil
}

func grayscale(src image.Image) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, Side, Side))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

func histogram(g *image.Gray) [256]float64 {
	var h [256]float64
	for _, p := range g.Pix {
		h[p]++
	}
	n := float64(len(g.Pix))
	for i := range h {
		h[i] /= n
	}
	return h
}

// EMD is the one-dimensional earth mover's distance between the normalized
// histograms of a and b, scaled to [0, 1].
func EMD(a, b *image.Gray) float64 {
	ha, hb := histogram(a), histogram(b)
	var cdfA, cdfB, total float64
	for i := range 256 {
		cdfA += ha[i]
		cdfB += hb[i]
		total += math.Abs(cdfA - cdfB)
	}
	return total / 255
}

// SSIM is the mean structural similarity of a and b over Window×Window blocks.
// Both images must share dimensions.
func SSIM(a, b *image.Gray) float64 {
	w, h := a.Rect.Dx(), a.Rect.Dy()
	var sum float64
	var count int
	for y := 0; y+Window <= h; y += Window {
		for x := 0; x+Window <= w; x += Window {
			sum += blockSSIM(a, b, x, y)
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func blockSSIM(a, b *image.Gray, x0, y0 int) float64 {
	const n = Window * Window
	var sa, sb float64
	for y := y0; y < y0+Window; y++ {
		for x := x0; x < x0+Window; x++ {
			sa += float64(a.Pix[a.PixOffset(x, y)])
			sb += float64(b.Pix[b.PixOffset(x, y)])
		}
	}
	ma, mb := sa/n, sb/n

	var va, vb, cov float64
	for y := y0; y < y0+Window; y++ {
		for x := x0; x < x0+Window; x++ {
			da := float64(a.Pix[a.PixOffset(x, y)]) - ma
			db := float64(b.Pix[b.PixOffset(x, y)]) - mb
			va += da * da
			vb += db * db
			cov += da * db
		}
	}
	va /= n - 1
	vb /= n - 1
	cov /= n - 1

	return ((2*ma*mb + c1) * (2*cov + c2)) / ((ma*ma + mb*mb + c1) * (va + vb + c2))
}
