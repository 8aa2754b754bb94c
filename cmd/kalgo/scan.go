package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"

	"github.com/spf13/cobra"

	"github.com/chzchzchz/kalgo/dsp/fcch"
	"github.com/chzchzchz/kalgo/gsmband"
	"github.com/chzchzchz/kalgo/radio"
)

// errorDetectOffsetMax bounds how far an accepted burst's offset may sit
// from the nominal FCCH tone before it is dismissed as a false match.
const errorDetectOffsetMax = 40e3

// notFoundMax is how many consecutive scan misses on a channel are
// tolerated before moving on to the next one.
const notFoundMax = 10

var (
	scanBand   string
	scanSerial string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Sweep a GSM band for base stations by FCCH detection",
	Run:   func(cmd *cobra.Command, args []string) { runScan() },
}

func init() {
	scanCmd.Flags().StringVarP(&scanBand, "band", "b", "GSM900", "GSM band to scan")
	scanCmd.Flags().StringVarP(&scanSerial, "serial", "d", "0", "SDR device serial number or index")
}

func channelPower(samples []complex64) float64 {
	var e float64
	for _, v := range samples {
		e += float64(real(v))*float64(real(v)) + float64(imag(v))*float64(imag(v))
	}
	return math.Sqrt(e)
}

func runScan() {
	bi, err := gsmband.ParseBand(scanBand)
	if err != nil {
		log.Fatal(err)
	}
	chans, err := gsmband.Channels(bi)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sdr, err := radio.NewSDRWithSerial(ctx, scanSerial)
	if err != nil {
		log.Fatal(err)
	}
	defer sdr.Close()

	sampleRate := float64(sdr.Info().SampleRate)
	if sampleRate == 0 {
		sampleRate = 1e6
	}
	sps := sampleRate / fcch.GSMRate
	framesLen := int(math.Ceil((12*8*156.25 + 156.25) * sps))

	src, err := radio.NewSource(sdr, sampleRate, framesLen*4)
	if err != nil {
		log.Fatal(err)
	}
	src.Start(ctx)
	defer src.Stop()

	sc, err := fcch.New(sampleRate)
	if err != nil {
		log.Fatal(err)
	}
	defer sc.Close()

	power := make(map[int]float64, len(chans))
	log.Println("calculating power in each channel:")
	for _, ch := range chans {
		freq, err := gsmband.ARFCNToFreq(ch, bi)
		if err != nil {
			log.Fatal(err)
		}
		if err := src.Tune(freq); err != nil {
			log.Fatal(err)
		}

		var overruns uint64
		for {
			src.Flush(framesLen)
			overruns = 0
			if err := src.Fill(framesLen, &overruns); err != nil {
				log.Fatal(err)
			}
			if overruns == 0 {
				break
			}
		}

		samples := src.GetBuffer().Peek()
		n := framesLen
		if len(samples) < n {
			n = len(samples)
		}
		power[ch] = channelPower(samples[:n])
	}

	sorted := make([]float64, 0, len(chans))
	for _, ch := range chans {
		sorted = append(sorted, power[ch])
	}
	sort.Float64s(sorted)
	// Average the lowest 60%: the noisiest channels (e.g. CDMA bleed-over
	// into GSM-850) would otherwise drag the detection threshold too high.
	keep := len(sorted) - 4*len(sorted)/10
	if keep < 1 {
		keep = 1
	}
	var sum float64
	for _, v := range sorted[:keep] {
		sum += v
	}
	threshold := sum / float64(keep)
	log.Printf("channel detect threshold: %f", threshold)

	// A channel whose power clears the threshold is retried in place — same
	// ARFCN, fresh capture — until either a burst is found or notFoundMax
	// consecutive misses accumulate; only then does the sweep move on to the
	// next channel. Mirrors the do-while(i >= 0) retry loop in
	// original_source/src/c0_detect.cc, where i only advances on a skip, a
	// find, or hitting NOTFOUND_MAX.
	fmt.Printf("%s:\n", bi)
	notFound := 0
	for i := 0; i < len(chans); {
		ch := chans[i]
		if power[ch] <= threshold {
			i++
			continue
		}

		freq, err := gsmband.ARFCNToFreq(ch, bi)
		if err != nil {
			log.Fatal(err)
		}
		if err := src.Tune(freq); err != nil {
			log.Fatal(err)
		}

		var overruns uint64
		for {
			src.Flush(framesLen)
			overruns = 0
			if err := src.Fill(framesLen, &overruns); err != nil {
				log.Fatal(err)
			}
			if overruns == 0 {
				break
			}
		}

		samples := src.GetBuffer().Peek()
		found, offset, _ := sc.Scan(samples)
		delta := offset - fcch.GSMRate/4
		if found && math.Abs(delta) < errorDetectOffsetMax {
			fmt.Printf("\tchan: %d (%.1fMHz %+.0fHz)\tpower: %6.2f\n", ch, freq/1e6, delta, power[ch])
			notFound = 0
			i++
			continue
		}
		notFound++
		if notFound >= notFoundMax {
			notFound = 0
			i++
		}
	}
}
