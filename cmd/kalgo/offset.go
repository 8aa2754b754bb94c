package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/chzchzchz/kalgo/dsp/fcch"
	"github.com/chzchzchz/kalgo/radio"
	"github.com/chzchzchz/kalgo/radio/wav"
)

// avgCount is how many accepted FCCH offset measurements are collected
// before reporting statistics; avgThreshold samples are trimmed from each
// end of the sorted set to resist outliers.
const (
	avgCount     = 100
	avgThreshold = avgCount / 10
	offsetMax    = 40e3
)

var (
	offsetSerial   string
	offsetCenter   float64
	offsetCorr     float64
	offsetHzAdjust float64
	offsetDumpWav  string
)

var offsetCmd = &cobra.Command{
	Use:   "offset",
	Short: "Measure receiver clock offset in ppm from an FCCH burst",
	Run:   func(cmd *cobra.Command, args []string) { runOffset() },
}

func init() {
	offsetCmd.Flags().StringVarP(&offsetSerial, "serial", "d", "0", "SDR device serial number or index")
	offsetCmd.Flags().Float64VarP(&offsetCenter, "freq", "f", 0, "center frequency of a known C0 carrier, Hz")
	offsetCmd.Flags().Float64VarP(&offsetCorr, "correction", "c", 0, "tuner frequency correction already applied, ppm")
	offsetCmd.Flags().Float64VarP(&offsetHzAdjust, "hz-adjust", "", 0, "known Hz adjustment to apply before computing ppm")
	offsetCmd.Flags().StringVar(&offsetDumpWav, "dump-wav", "", "capture the raw 8-bit I/Q stream to this WAV file for offline analysis")
}

func runOffset() {
	if offsetCenter <= 0 {
		log.Fatal("offset: --freq is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sdr, err := radio.NewSDRWithSerial(ctx, offsetSerial)
	if err != nil {
		log.Fatal(err)
	}
	defer sdr.Close()

	sampleRate := float64(sdr.Info().SampleRate)
	if sampleRate == 0 {
		sampleRate = 1e6
	}
	sps := sampleRate / fcch.GSMRate
	sLen := int(math.Ceil((12*8*156.25 + 156.25) * sps))

	src, err := radio.NewSource(sdr, sampleRate, sLen*4)
	if err != nil {
		log.Fatal(err)
	}
	if err := src.Tune(offsetCenter); err != nil {
		log.Fatal(err)
	}
	src.Start(ctx)
	defer src.Stop()

	sc, err := fcch.New(sampleRate)
	if err != nil {
		log.Fatal(err)
	}
	defer sc.Close()

	var dumpWriter *radio.IQWriter
	if offsetDumpWav != "" {
		f, err := os.Create(offsetDumpWav)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		ww, err := wav.NewWriter(f, int(sampleRate), 8, 2)
		if err != nil {
			log.Fatal(err)
		}
		defer ww.Close()
		dumpWriter = radio.NewIQWriter(ww)
	}

	var overruns, totalOverruns uint64
	var notFound int
	offsets := make([]float64, 0, avgCount)

	for len(offsets) < avgCount {
		for {
			overruns = 0
			if err := src.Fill(sLen, &overruns); err != nil {
				log.Fatal(err)
			}
			totalOverruns += overruns
			if overruns == 0 {
				break
			}
			src.Flush(sLen)
		}

		samples := src.GetBuffer().Peek()
		if dumpWriter != nil {
			if err := dumpWriter.Write64(samples); err != nil {
				log.Fatal(err)
			}
		}
		found, offHz, consumed := sc.Scan(samples)
		if found {
			off := offHz - fcch.GSMRate/4 - offsetHzAdjust
			if math.Abs(off) < offsetMax {
				offsets = append(offsets, off)
				log.Printf("\toffset %3d: %.2f", len(offsets), off)
			}
		} else {
			notFound++
		}
		src.Flush(consumed)
	}

	sort.Float64s(offsets)
	trimmed := offsets[avgThreshold : avgCount-avgThreshold]
	avg := mean(trimmed)
	stddev := stddevOf(trimmed, avg)
	min, max := offsets[avgThreshold], offsets[avgCount-avgThreshold-1]

	fmt.Println("average\t\t[min, max]\t(range, stddev)")
	fmt.Printf("%+.1fHz\t\t[%d, %d]\t(%d, %f)\n", avg, int(math.Round(min)), int(math.Round(max)), int(math.Round(max-min)), stddev)
	fmt.Printf("overruns: %d\n", totalOverruns)
	fmt.Printf("not found: %d\n", notFound)

	totalPPM := offsetCorr - ((avg + offsetHzAdjust) / offsetCenter * 1e6)
	fmt.Printf("average absolute error: %.3f ppm\n", totalPPM)
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddevOf(xs []float64, mean float64) float64 {
	var sum float64
	for _, x := range xs {
		d := x - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}
