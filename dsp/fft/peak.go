// Package fft implements the FFT peak interpolator (FPI): given a window of
// complex baseband samples, it locates the dominant spectral line and
// refines its bin index by sinc interpolation far below the FFT's native
// resolution. This is what turns a 1024-point DFT into a sub-Hz frequency
// estimator for the FCCH scanner in dsp/fcch.
package fft

import (
	"math"

	"github.com/runningwild/go-fftw/fftw32"
)

// Size is the fixed transform length used for FCCH frequency detection.
const Size = 1024

// interpWindow neighbors are summed on either side of a candidate bin when
// sinc-interpolating a fractional peak location (half-width 10, so 21 taps
// total).
const interpWindow = 21

const bisectFloor = 1.0 / 1024.0

// Context owns the FFTW plan and input/output arrays for repeated 1024-point
// forward transforms, avoiding a new plan per call.
type Context struct {
	arr *fftw32.Array
}

// NewContext allocates the fixed-size FFT working arrays.
func NewContext() *Context {
	return &Context{arr: fftw32.NewArray(Size)}
}

func norm(c complex64) float32 {
	re, im := real(c), imag(c)
	return re*re + im*im
}

func sinc(x float32) float32 {
	if x <= -0.0001 || 0.0001 <= x {
		return float32(math.Sin(float64(x))) / x
	}
	return 1.0
}

// interpolate estimates the (possibly fractional) sample value at index x by
// a windowed sinc reconstruction, clipped to the bounds of s.
func interpolate(s []complex64, x float32) complex64 {
	const half = (interpWindow - 1) / 2
	center := int(math.Floor(float64(x)))
	start, end := center-half, center+half
	if start < 0 {
		start = 0
	}
	if end > len(s)-1 {
		end = len(s) - 1
	}
	var point complex64
	for i := start; i <= end; i++ {
		w := sinc(float32(math.Pi) * (float32(i) - x))
		point += complex64(complex(real(s[i])*w, imag(s[i])*w))
	}
	return point
}

// PeakDetect finds the dominant bin in s and refines its fractional index by
// bisection: starting at step 0.5 and halving down to 1/1024, it nudges the
// index toward whichever of two sinc-interpolated neighbors (two bins apart)
// carries more power, converging on the true peak location between bins.
//
// It returns the refined index, the interpolated complex value at the peak,
// and the average power of the remaining (non-peak) bins.
func PeakDetect(s []complex64) (maxIdx float64, peak complex64, avgPower float64) {
	max := float32(-1)
	maxI := 0
	var sumPower float32
	for i, v := range s {
		p := norm(v)
		sumPower += p
		if p > max {
			max, maxI = p, i
		}
	}

	// interpolate clips its window to s, so early/late may sit one bin
	// outside the array when the peak is at either edge.
	earlyI := float32(maxI - 1)
	lateI := earlyI + 2.0

	for incr := float32(0.5); incr > bisectFloor; incr /= 2 {
		earlyP := interpolate(s, earlyI)
		lateP := interpolate(s, lateI)
		switch {
		case norm(earlyP) < norm(lateP):
			earlyI += incr
		case norm(earlyP) > norm(lateP):
			earlyI -= incr
		default:
			incr = bisectFloor // terminate: equal, no direction to move
		}
		lateI = earlyI + 2.0
	}

	maxIdxF := earlyI + 1.0
	cmax := interpolate(s, maxIdxF)
	return float64(maxIdxF), cmax, float64(sumPower-norm(cmax)) / float64(len(s)-1)
}

// FreqDetect zero-pads or truncates s to Size, runs a forward DFT, and
// returns the frequency (relative to DC, assuming the positive alias — this
// is where GSM's FCCH tone sits, near +sampleRate/4) of the dominant line
// together with its peak-to-mean power ratio.
func (c *Context) FreqDetect(s []complex64, sampleRate float64) (freqHz, peakToMean float64) {
	n := len(s)
	if n > Size {
		n = Size
	}
	copy(c.arr.Elems[:n], s[:n])
	for i := n; i < Size; i++ {
		c.arr.Elems[i] = 0
	}

	out := fftw32.FFT(c.arr).Elems

	maxIdx, peak, avgPower := PeakDetect(out)
	freqHz = maxIdx * sampleRate / float64(Size)
	peakToMean = float64(norm(peak)) / avgPower
	return freqHz, peakToMean
}
