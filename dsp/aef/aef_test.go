package aef

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/chzchzchz/kalgo/ring"
)

func newRings(t *testing.T, cap int) (*ring.ComplexRing, *ring.ComplexRing) {
	t.Helper()
	x, err := ring.NewComplexRing(cap, false)
	if err != nil {
		t.Fatal(err)
	}
	y, err := ring.NewComplexRing(cap, true)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { x.Close(); y.Close() })
	return x, y
}

func tone(n int, freq float64) []complex64 {
	s := make([]complex64, n)
	for k := range s {
		s[k] = complex64(cmplx.Exp(complex(0, 2*math.Pi*freq*float64(k))))
	}
	return s
}

// Step must report NeedsMoreSamples until the ring holds w_len+D items.
func TestStepNeedsMoreSamples(t *testing.T) {
	x, y := newRings(t, 8192)
	f := New(x, y)

	x.Write(tone(TapCount+Delay-1, 0.1))
	if _, err := f.Step(); err == nil {
		t.Fatal("expected NeedsMoreSamples with one sample short")
	}

	x.Write(tone(1, 0.1))
	if _, err := f.Step(); err != nil {
		t.Fatalf("expected success once enough samples buffered, got %v", err)
	}
}

// A pure tone should make the smoothed normalized error converge to a small
// value (at most 1.0) within 3000 filter steps.
func TestConvergesOnPureTone(t *testing.T) {
	x, y := newRings(t, 8192)
	f := New(x, y)

	samples := tone(4000, 0.13)
	x.Write(samples)

	var last float64
	for i := 0; i < 3000; i++ {
		e, err := f.Step()
		if err != nil {
			break
		}
		last = e
	}
	if last > 1.0 {
		t.Fatalf("normalized error did not converge on pure tone: %v", last)
	}
}

// S6: a sudden 100x amplitude jump must not blow up the filter state, and
// the smoothed error must recover within a bounded number of samples.
func TestGainClampBoundedOnAmplitudeJump(t *testing.T) {
	x, y := newRings(t, 1 << 20)
	f := New(x, y)

	lead := tone(2000, 0.11)
	x.Write(lead)
	for i := 0; i < len(lead)-TapCount-Delay; i++ {
		if _, err := f.Step(); err != nil {
			break
		}
	}

	jump := make([]complex64, 4000)
	for i, v := range tone(4000, 0.11) {
		jump[i] = v * 100
	}
	x.Write(jump)

	recovered := false
	for i := 0; i < TapCount*10; i++ {
		e, err := f.Step()
		if err != nil {
			break
		}
		if math.IsNaN(e) || math.IsInf(e, 0) {
			t.Fatalf("filter output diverged at step %d: %v", i, e)
		}
		if e < 50 {
			recovered = true
		}
	}
	if !recovered {
		t.Fatal("normalized error did not recover after amplitude jump")
	}
}
