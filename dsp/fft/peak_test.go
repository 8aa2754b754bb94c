package fft

import (
	"math"
	"math/cmplx"
	"testing"
)

func bin(n, k int) []complex64 {
	s := make([]complex64, n)
	for i := range s {
		s[i] = complex64(cmplx.Exp(complex(0, 2*math.Pi*float64(k)*float64(i)/float64(n))))
	}
	return s
}

// P5: peak_detect on the spectrum of a complex exponential at integer bin k
// returns a refined index within 1/1024 of k.
func TestPeakDetectIntegerBin(t *testing.T) {
	const n = 64
	for _, k := range []int{0, 1, 17, 31} {
		// The n-point DFT of bin(n, k) is n at bin k and zero elsewhere.
		s := make([]complex64, n)
		s[k] = complex(float32(n), 0)
		idx, _, _ := PeakDetect(s)
		if math.Abs(idx-float64(k)) > 1.0/1024.0 {
			t.Fatalf("bin %d: refined index %v, want within 1/1024", k, idx)
		}
	}
}

func TestSincZeroIsOne(t *testing.T) {
	if v := sinc(0); v != 1.0 {
		t.Fatalf("sinc(0) = %v, want 1", v)
	}
}

func TestFreqDetectDominantLine(t *testing.T) {
	c := NewContext()
	const sampleRate = 1000000.0
	targetBin := 200
	s := bin(Size, targetBin)

	freq, pm := c.FreqDetect(s, sampleRate)

	want := float64(targetBin) * sampleRate / Size
	if math.Abs(freq-want) > sampleRate/Size {
		t.Fatalf("freq = %v, want near %v", freq, want)
	}
	if pm < 50 {
		t.Fatalf("peak-to-mean = %v, want a large ratio for a pure tone", pm)
	}
}
