package engine

import "math"

// spectrumMagnitudes computes normalized frequency-domain magnitudes for a
// PCM window whose length must be a power of two. A Hann window is applied
// before the transform to tame spectral leakage.
func spectrumMagnitudes(samples []float64) []float64 {
	n := len(samples)
	if n == 0 || n&(n-1) != 0 {
		return nil
	}

	buf := make([]complex128, n)
	for i, s := range samples {
		w := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
		buf[i] = complex(s*w, 0)
	}
	fft(buf)

	// Only the first half carries unique information for real input.
	mags := make([]float64, n/2)
	scale := 2 / float64(n)
	for i := range mags {
		mags[i] = cmplxAbs(buf[i]) * scale
	}
	return mags
}

// fft is an in-place iterative radix-2 Cooley-Tukey transform.
func fft(buf []complex128) {
	n := len(buf)

	// Bit-reversal permutation.
	for i, j := 1, 0; i < n; i++ {
		bit := n >> 1
		for ; j&bit != 0; bit >>= 1 {
			j ^= bit
		}
		j |= bit
		if i < j {
			buf[i], buf[j] = buf[j], buf[i]
		}
	}

	for length := 2; length <= n; length <<= 1 {
		angle := -2 * math.Pi / float64(length)
		wl := complex(math.Cos(angle), math.Sin(angle))
		for start := 0; start < n; start += length {
			w := complex(1, 0)
			half := length / 2
			for k := 0; k < half; k++ {
				even := buf[start+k]
				odd := buf[start+k+half] * w
				buf[start+k] = even + odd
				buf[start+k+half] = even - odd
				w *= wl
			}
		}
	}
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}

// bucketize downsamples magnitudes into count buckets by contiguous
// averaging and clamps each bucket to [0, 1].
func bucketize(mags []float64, count int) []float64 {
	if count <= 0 || len(mags) == 0 {
		return []float64{}
	}
	buckets := make([]float64, count)
	per := len(mags) / count
	if per < 1 {
		per = 1
	}
	for i := 0; i < count; i++ {
		start := i * per
		if start >= len(mags) {
			break
		}
		end := start + per
		if end > len(mags) {
			end = len(mags)
		}
		sum := 0.0
		for _, m := range mags[start:end] {
			sum += m
		}
		level := sum / float64(end-start)
		if level > 1 {
			level = 1
		}
		if level < 0 {
			level = 0
		}
		buckets[i] = level
	}
	return buckets
}
