package fcch

import (
	"math"
	"math/cmplx"
	"math/rand"
	"testing"
)

func toneAt(n int, freqHz, sampleRate float64) []complex64 {
	s := make([]complex64, n)
	for k := range s {
		phase := 2 * math.Pi * freqHz * float64(k) / sampleRate
		s[k] = complex64(cmplx.Exp(complex(0, phase)))
	}
	return s
}

func noise(n int, rng *rand.Rand) []complex64 {
	s := make([]complex64, n)
	for i := range s {
		s[i] = complex64(complex(rng.NormFloat64(), rng.NormFloat64()))
	}
	return s
}

// S3: a clean FCCH tone at GSM_RATE/4 must be found within 50 Hz.
func TestScanPureTone(t *testing.T) {
	const sampleRate = 270833.002
	sc, err := New(sampleRate)
	if err != nil {
		t.Fatal(err)
	}
	defer sc.Close()

	samples := toneAt(50000, GSMRate/4, sampleRate)
	found, offset, consumed := sc.Scan(samples)
	if !found {
		t.Fatal("expected a burst to be found")
	}
	if consumed != len(samples) {
		t.Fatalf("consumed = %d, want %d", consumed, len(samples))
	}
	if math.Abs(offset-GSMRate/4) > 50 {
		t.Fatalf("offset = %v, want within 50 Hz of %v", offset, GSMRate/4)
	}
}

// S4: pure noise should essentially never be accepted as a burst.
func TestScanNoiseOnly(t *testing.T) {
	const sampleRate = 270833.002
	sc, err := New(sampleRate)
	if err != nil {
		t.Fatal(err)
	}
	defer sc.Close()

	rng := rand.New(rand.NewSource(1))
	samples := noise(50000, rng)
	found, _, _ := sc.Scan(samples)
	if found {
		t.Fatal("noise-only buffer should not be reported as a burst")
	}
}

// S5: a tone embedded after a noisy lead-in, offset from GSM_RATE/4, must
// still be found with the expected offset window.
func TestScanToneAfterNoise(t *testing.T) {
	const sampleRate = 270833.002
	sc, err := New(sampleRate)
	if err != nil {
		t.Fatal(err)
	}
	defer sc.Close()

	rng := rand.New(rand.NewSource(2))
	lead := noise(20000, rng)
	burst := toneAt(150000, GSMRate/4+137, sampleRate)
	samples := append(lead, burst...)

	found, offset, _ := sc.Scan(samples)
	if !found {
		t.Fatal("expected the embedded burst to be found")
	}
	delta := offset - GSMRate/4
	if delta < 77 || delta > 197 {
		t.Fatalf("offset - GSMRate/4 = %v, want in [77, 197]", delta)
	}
}
