package track

import (
	"math"
	"sort"
)

// PositionAt resolves the cursor position at time t: the first sample with
// Time >= t, or the last sample if t is past the end of the track. This is
// a nearest-following-sample lookup, not interpolation.
func PositionAt(samples []CursorSample, t float64) (x, y float64, ok bool) {
	if len(samples) == 0 {
		return 0, 0, false
	}
	i := sort.Search(len(samples), func(i int) bool {
		return samples[i].Time >= t
	})
	if i == len(samples) {
		i = len(samples) - 1
	}
	return samples[i].X, samples[i].Y, true
}

// SmoothTrajectory applies a symmetric Gaussian filter to the X/Y series of
// the whole trajectory. Sample count, timestamps and ordering are preserved.
// Tracks too short to smooth are returned unchanged.
func SmoothTrajectory(samples []CursorSample, sigma float64) []CursorSample {
	if len(samples) < 3 || sigma <= 0 {
		return samples
	}

	kernel := gaussianKernel(sigma)
	radius := len(kernel) / 2
	n := len(samples)

	out := make([]CursorSample, n)
	for i := range samples {
		var sx, sy float64
		for k, w := range kernel {
			j := reflect(i+k-radius, n)
			sx += samples[j].X * w
			sy += samples[j].Y * w
		}
		out[i] = CursorSample{Time: samples[i].Time, X: sx, Y: sy}
	}
	return out
}

func gaussianKernel(sigma float64) []float64 {
	radius := int(math.Ceil(3 * sigma))
	kernel := make([]float64, 2*radius+1)
	sum := 0.0
	for i := range kernel {
		d := float64(i - radius)
		kernel[i] = math.Exp(-d * d / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// reflect mirrors an out-of-range index back into [0, n).
func reflect(i, n int) int {
	for i < 0 || i >= n {
		if i < 0 {
			i = -i - 1
		}
		if i >= n {
			i = 2*n - i - 1
		}
	}
	return i
}
