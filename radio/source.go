package radio

import (
	"context"
	"errors"

	"github.com/chzchzchz/kalgo/dsp"
	"github.com/chzchzchz/kalgo/ring"
)

// ErrSourceClosed is returned by Fill once the underlying sample stream has
// ended.
var ErrSourceClosed = errors.New("radio: sample source closed")

const sourceBatchSize = 4096

// Source adapts an SDR device into the sample-source contract the FCCH
// scanner expects: a tunable stream of complex baseband samples exposed
// through a contiguous ring buffer, with explicit start/stop/flush
// lifecycle. The scanner never talks to the SDR directly; it only ever
// touches the ring returned by GetBuffer.
type Source struct {
	sdr        SDR
	sampleRate float64

	buf    *ring.ComplexRing
	cancel context.CancelFunc
	sigc   <-chan []complex64
}

// NewSource wraps sdr as a sample source sampling at sampleRate Hz, backed
// by a ring of the given capacity (in complex samples). The ring runs in
// overwrite mode: a slow consumer loses the oldest samples rather than
// stalling the producer, and those drops are reported by Fill as overruns.
func NewSource(sdr SDR, sampleRate float64, ringCapacity int) (*Source, error) {
	buf, err := ring.NewComplexRing(ringCapacity, true)
	if err != nil {
		return nil, err
	}
	return &Source{sdr: sdr, sampleRate: sampleRate, buf: buf}, nil
}

// SampleRate returns the source's fixed sample rate in Hz.
func (s *Source) SampleRate() float64 { return s.sampleRate }

// Tune retunes the underlying SDR to freqHz, keeping the configured sample
// rate.
func (s *Source) Tune(freqHz float64) error {
	return s.sdr.SetBand(HzBand{Center: uint64(freqHz), Width: uint64(s.sampleRate)})
}

// Start begins streaming samples from the SDR into the ring. It must be
// called before Fill.
//
// The raw stream is routed through a DC blocker first: RTL-SDR-class
// dongles carry a local-oscillator leakage spike at DC, which for a C0
// carrier tuned to put FCCH near +GSM_RATE/4 sits well clear of the tone but
// would otherwise bias the adaptive filter and FFT noise floor when a
// channel's true carrier lands near the tuned center. This is the "xlate
// filter to avoid DC bias" the device-proxy layer flagged but never wired.
func (s *Source) Start(ctx context.Context) {
	var streamCtx context.Context
	streamCtx, s.cancel = context.WithCancel(ctx)
	raw := s.sdr.Reader().BatchStream64(streamCtx, sourceBatchSize, 0)
	s.sigc = dsp.DCBlockerCtx(streamCtx, raw)
}

// Stop ends the streaming goroutine started by Start.
func (s *Source) Stop() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Fill blocks, pulling batches from the stream, until the ring holds at
// least minSamples items. *overruns is incremented by the number of samples
// the ring's overwrite policy discarded while filling.
func (s *Source) Fill(minSamples int, overruns *uint64) error {
	for uint64(minSamples) > s.buf.DataAvailable() {
		batch, ok := <-s.sigc
		if !ok {
			return ErrSourceClosed
		}
		before := s.buf.DataAvailable()
		s.buf.Write(batch)
		after := s.buf.DataAvailable()
		grew := after - before
		if uint64(len(batch)) > grew && overruns != nil {
			*overruns += uint64(len(batch)) - grew
		}
	}
	return nil
}

// GetBuffer exposes the ring samples are delivered into.
func (s *Source) GetBuffer() *ring.ComplexRing { return s.buf }

// Flush drops count items (or everything buffered, if count exceeds
// occupancy) without reading them.
func (s *Source) Flush(count int) { s.buf.Purge(count) }
