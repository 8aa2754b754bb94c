// Package aef implements the adaptive error filter (AEF): a sample-by-sample
// normalized-LMS predictor that tracks a pure tone and collapses its
// prediction error when one is present. This is the Varma/Sahu/Charan burst
// detector's numerical core; dsp/fcch layers region detection on top of its
// output.
package aef

import (
	"math/cmplx"

	"github.com/chzchzchz/kalgo/ring"
)

// FilterDelay is the half-length of the tap vector (m_filter_delay in the
// reference implementation).
const FilterDelay = 8

// TapCount is the number of complex taps, 2*FilterDelay+1.
const TapCount = 2*FilterDelay + 1

// Delay is the default reference-sample lookahead D.
const Delay = 8

// Smoothing is the default error-smoothing coefficient p.
const Smoothing = 1.0 / 32.0

// InitialGain is the default adaptation gain G.
const InitialGain = 1.0 / 12.5

// NeedsMoreSamples is returned by Step when X does not yet hold w_len+D
// items; the int is how many more are required before the next call could
// succeed.
type NeedsMoreSamples int

func (n NeedsMoreSamples) Error() string { return "aef: needs more samples" }

// Filter holds the owned, non-shared state of one adaptive error filter
// instance: its tap vector, gain, and smoothed error power. A Filter must not
// be used from more than one goroutine concurrently.
type Filter struct {
	d int
	p float64
	g float64

	w       [TapCount]complex128
	eSmooth float64

	x *ring.ComplexRing
	y *ring.ComplexRing
}

// New constructs a filter reading from x and recording filtered samples into
// y, with the default delay, smoothing, and gain constants.
func New(x, y *ring.ComplexRing) *Filter {
	return &Filter{
		d: Delay,
		p: Smoothing,
		g: InitialGain,
		x: x,
		y: y,
	}
}

// GetDelay returns the number of samples of lag between an input sample and
// the error value it eventually produces: w_len - 1 + D.
func (f *Filter) GetDelay() int { return TapCount - 1 + f.d }

// FilterLen returns the tap count, w_len.
func (f *Filter) FilterLen() int { return TapCount }

func vectorNorm2(x []complex64) float64 {
	var e float64
	for _, v := range x {
		e += float64(real(v))*float64(real(v)) + float64(imag(v))*float64(imag(v))
	}
	return e
}

// Step computes one normalized prediction-error sample from the oldest
// unprocessed items in X. It requires at least w_len+D items buffered; if
// fewer are available it returns NeedsMoreSamples(k), the number of
// additional samples the caller must push into X before retrying, and
// performs no state mutation.
//
// On success it returns the normalized error e_smooth/(E/w_len), advances X
// by purging the oldest sample, and records the delayed input sample into Y.
func (f *Filter) Step() (float64, error) {
	n := TapCount - 1

	x := f.x.Peek()
	if n+f.d >= len(x) {
		return 0, NeedsMoreSamples(n + f.d - len(x) + 1)
	}

	e2 := vectorNorm2(x[:TapCount])
	if e2 == 0 {
		// Undefined in the reference algorithm (division by zero); skip the
		// adaptation step rather than propagate a NaN gain.
		f.x.Purge(1)
		return f.eSmooth, nil
	}
	if f.g >= 2.0/e2 {
		f.g = 1.0 / e2
	}

	var y complex128
	for i := 0; i < TapCount; i++ {
		y += cmplx.Conj(complex128(f.w[i])) * complex128(x[n-i])
	}

	if f.y != nil {
		delayed := x[n+f.d]
		f.y.Write([]complex64{delayed})
	}

	e := complex128(x[n+f.d]) - y

	for i := 0; i < TapCount; i++ {
		f.w[i] += complex(f.g, 0) * cmplx.Conj(e) * complex128(x[n-i])
	}

	eNorm := e2 / float64(TapCount)
	eAbs2 := real(e)*real(e) + imag(e)*imag(e)
	f.eSmooth = (1.0-f.p)*f.eSmooth + f.p*eAbs2

	f.x.Purge(1)

	return f.eSmooth / eNorm, nil
}
