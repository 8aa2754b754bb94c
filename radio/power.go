package radio

import (
	"io"
	"math"
	"math/cmplx"

	"github.com/runningwild/go-fftw/fftw32"
)

// SpectralPower averages ffts forward transforms of bins-wide windows over
// band, used by FindPPM to locate the strongest NOAA weather-radio carrier
// for receiver clock calibration.
type SpectralPower struct {
	avg     []float64
	fftBins *fftw32.Array
	ffts    int
	band    FreqBand
}

func NewSpectralPower(band FreqBand, bins, ffts int) *SpectralPower {
	return &SpectralPower{
		fftBins: fftw32.NewArray(bins),
		ffts:    ffts,
		band:    band,
	}
}

func (sp *SpectralPower) Average() []float64 { return sp.avg }

func (sp *SpectralPower) Measure(ch <-chan []complex64) error {
	sp.avg = make([]float64, len(sp.fftBins.Elems))
	arr := &fftw32.Array{}
	for n := 0; n < sp.ffts; n++ {
		samps, ok := <-ch
		if !ok {
			return io.EOF
		}
		arr.Elems = samps
		sp.fftBins = fftw32.FFT(arr)
		for i, v := range sp.fftBins.Elems {
			idx := i + len(sp.fftBins.Elems)/2
			if i >= len(sp.fftBins.Elems)/2 {
				idx = i - len(sp.fftBins.Elems)/2
			}
			db := 20 * math.Log10(cmplx.Abs(complex128(v)))
			sp.avg[idx] += db / float64(sp.ffts)
		}
	}
	return nil
}
