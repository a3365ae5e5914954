package regions

import (
	"image"
	"math"
)

// grayHistogram returns the 256-bin luminance histogram of img over r.
func grayHistogram(img image.Image, r image.Rectangle) [256]int {
	var h [256]int
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			h[luma(img, x, y)]++
		}
	}
	return h
}

func luma(img image.Image, x, y int) uint8 {
	r, g, b, _ := img.At(x, y).RGBA()
	// ITU-R BT.601 on 16-bit channels
	return uint8((19595*r + 38470*g + 7471*b + 1<<15) >> 24)
}

// otsu returns the threshold maximising between-class variance.
func otsu(h [256]int) int {
	total := 0
	sum := 0.0
	for i, n := range h {
		total += n
		sum += float64(i * n)
	}
	if total == 0 {
		return 127
	}

	var sumB, best float64
	wB, threshold := 0, 127
	for t := range 256 {
		wB += h[t]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t * h[t])
		mB := sumB / float64(wB)
		mF := (sum - sumB) / float64(wF)
		between := float64(wB) * float64(wF) * (mB - mF) * (mB - mF)
		if between > best {
			best, threshold = between, t
		}
	}
	return threshold
}

// regionFeatures computes the 14-value feature vector of box within img:
// relative width, height, center x, center y, color diversity, dominant
// color share, luminance mean, std, skewness, kurtosis, entropy, Otsu
// threshold, histogram energy and occupied histogram bins.
func regionFeatures(img image.Image, box image.Rectangle) []float64 {
	bounds := img.Bounds()
	w, h := float64(bounds.Dx()), float64(bounds.Dy())

	hist := grayHistogram(img, box)
	n := float64(box.Dx() * box.Dy())
	if n == 0 {
		return make([]float64, 14)
	}

	colors := map[uint32]int{}
	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			colors[(r>>12)<<8|(g>>12)<<4|b>>12]++
		}
	}
	dominant := 0
	for _, c := range colors {
		dominant = max(dominant, c)
	}

	var mean float64
	for i, c := range hist {
		mean += float64(i) * float64(c)
	}
	mean /= n

	var m2, m3, m4, entropy, energy float64
	occupied := 0
	for i, c := range hist {
		if c == 0 {
			continue
		}
		occupied++
		p := float64(c) / n
		d := float64(i) - mean
		m2 += p * d * d
		m3 += p * d * d * d
		m4 += p * d * d * d * d
		entropy -= p * math.Log2(p)
		energy += p * p
	}
	std := math.Sqrt(m2)
	var skew, kurt float64
	if std > 0 {
		skew = m3 / (std * std * std)
		kurt = m4/(m2*m2) - 3
	}

	return []float64{
		float64(box.Dx()) / w,
		float64(box.Dy()) / h,
		(float64(box.Min.X-bounds.Min.X) + float64(box.Dx())/2) / w,
		(float64(box.Min.Y-bounds.Min.Y) + float64(box.Dy())/2) / h,
		float64(len(colors)) / 4096,
		float64(dominant) / n,
		mean / 255,
		std / 255,
		skew,
		kurt,
		entropy / 8,
		float64(otsu(hist)) / 255,
		energy,
		float64(occupied) / 256,
	}
}
