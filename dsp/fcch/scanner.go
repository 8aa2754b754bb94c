// Package fcch implements the FCCH scanner (SCN): it drives the adaptive
// error filter over a sample buffer, finds sustained low-error runs with a
// LOW/HIGH region detector, and validates each candidate run against the FFT
// peak interpolator before accepting it as a GSM Frequency Correction Channel
// burst.
package fcch

import (
	"math"

	"github.com/chzchzchz/kalgo/dsp/aef"
	"github.com/chzchzchz/kalgo/dsp/fft"
	"github.com/chzchzchz/kalgo/ring"
)

// GSMRate is the GSM symbol rate in Hz.
const GSMRate = 1625000.0 / 6.0

// MinPeakToMean is the minimum FFT peak-to-mean ratio required to accept a
// candidate burst.
const MinPeakToMean = 50.0

// errorThresholdFactor scales the mean error to produce the LOW/HIGH
// decision limit.
const errorThresholdFactor = 0.7

const (
	xCapacity = 8192
	yCapacity = 8192
	eCapacity = 1 << 20 // spec calls for "capacity ≈ 1M"
)

// region is a LOW/HIGH run-length detector over the error stream. Unlike the
// static g_count/g_block_s globals it is modeled on, a region is an owned
// value constructed fresh for each Scan call, so concurrent or repeated
// scans never share state.
type region struct {
	low   bool
	count int
}

// step folds one error sample against limit and returns the length of the
// just-closed LOW run, or 0 if none closed on this sample.
func (r *region) step(e, limit float64) int {
	closed := 0
	if e > limit {
		if r.low {
			closed = r.count
			r.low = false
			r.count = 0
		}
	} else {
		if !r.low {
			r.low = true
			r.count = 0
		}
	}
	r.count++
	return closed
}

// Scanner holds the rings, adaptive filter, and FFT context needed to scan a
// complex baseband stream for FCCH bursts at a fixed sample rate.
type Scanner struct {
	sampleRate   float64
	fcchBurstLen int
	minFBLen     int

	x      *ring.ComplexRing
	y      *ring.ComplexRing
	e      *ring.FloatRing
	filter *aef.Filter
	fft    *fft.Context
}

// New constructs a Scanner for the given sample rate (Hz).
func New(sampleRate float64) (*Scanner, error) {
	if sampleRate <= 0 {
		return nil, ring.ErrInvalidParameter
	}

	x, err := ring.NewComplexRing(xCapacity, false)
	if err != nil {
		return nil, err
	}
	y, err := ring.NewComplexRing(yCapacity, true)
	if err != nil {
		x.Close()
		return nil, err
	}
	e, err := ring.NewFloatRing(eCapacity, false)
	if err != nil {
		x.Close()
		y.Close()
		return nil, err
	}

	sps := sampleRate / GSMRate
	return &Scanner{
		sampleRate:   sampleRate,
		fcchBurstLen: int(math.Round(148.0 * sps)),
		minFBLen:     int(math.Round(100.0 * sps)),
		x:            x,
		y:            y,
		e:            e,
		filter:       aef.New(x, y),
		fft:          fft.NewContext(),
	}, nil
}

// Close releases the scanner's ring buffers.
func (s *Scanner) Close() {
	s.x.Close()
	s.y.Close()
	s.e.Close()
}

// Scan feeds samples through the adaptive filter, scans the resulting error
// stream for a sustained low-error region, and validates the first
// sufficiently long candidate by FFT peak-to-mean. It always fully drains
// its rings before returning (consumed is always len(samples)), so the
// caller may feed the next buffer unconditionally.
func (s *Scanner) Scan(samples []complex64) (found bool, offset float64, consumed int) {
	// Flush E at entry as well as exit: the candidate window offset below is
	// computed by treating the error stream's index as aligned with the
	// sample stream's index, which only holds when both begin at the same
	// point.
	s.e.Flush()
	defer func() {
		s.x.Flush()
		s.y.Flush()
		s.e.Flush()
	}()

	var sum float64
	var errCount int
	for consumed < len(samples) {
		n := s.x.Write(samples[consumed : consumed+1])
		if n == 0 {
			break
		}
		consumed += n

		for {
			e, err := s.filter.Step()
			if err != nil {
				break
			}
			s.e.Write([]float32{float32(e)})
			sum += e
			errCount++
		}
	}

	if errCount == 0 {
		return false, 0, consumed
	}

	avg := sum / float64(errCount)
	limit := errorThresholdFactor * avg

	errs := s.e.Peek()
	var r region
	r.low = false // initial state HIGH

	for i := 0; i <= len(errs); i++ {
		var runLen int
		if i < len(errs) {
			runLen = r.step(float64(errs[i]), limit)
		} else if r.low {
			// The stream ended inside a LOW run: close it here so a burst
			// lasting to the end of the buffer is still examined.
			runLen = r.count
		}
		if runLen < s.minFBLen {
			continue
		}

		yLen := runLen
		if s.fcchBurstLen < yLen {
			yLen = s.fcchBurstLen
		}
		yOffset := i - runLen
		if yOffset < 0 || yOffset+yLen > len(samples) {
			continue
		}

		loff, pm := s.fft.FreqDetect(samples[yOffset:yOffset+yLen], s.sampleRate)
		if pm > MinPeakToMean {
			return true, loff, consumed
		}
		// This run failed peak-to-mean; keep scanning for a later run that
		// clears both bars. Once Scan returns, any remaining runs in this
		// buffer are never examined.
	}

	return false, 0, consumed
}
