// Command stoneinfo prints the static behaviour of the pedal's filters.
//
// Usage:
//
//	stoneinfo [flags]
//
// For every requested sample rate it measures each all-pass stage with an
// FFT of its impulse response and prints where the phaser notches sit at
// both ends of the LFO sweep.
//
// Examples:
//
//	stoneinfo
//	stoneinfo -rates 44100,96000 -depth 0.08
//	stoneinfo -params
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/stonemistress/dsp/effects/modulation"
	"github.com/cwbudde/stonemistress/dsp/filter/allpass"
	"github.com/cwbudde/stonemistress/dsp/pedal"
	"github.com/cwbudde/stonemistress/measure/response"
)

const (
	irLength = 1 << 15
	fftSize  = 1 << 16
)

type stageRow struct {
	index     int
	breakHz   float64
	crossHz   float64
	crossOK   bool
	maxDevDB  float64
	closedDeg float64
}

type chainRow struct {
	label   string
	offset  float64
	notches []float64
}

type report struct {
	sampleRate float64
	modLo      float64
	modHi      float64
	stages     []stageRow
	chain      []chainRow
}

func main() {
	log.SetFlags(log.Lshortfile)

	rates := flag.String("rates", "44100,48000,96000", "comma-separated sample rates in Hz")
	depth := flag.Float64("depth", pedal.PhaserDepthParam.Default, "phaser depth used for the sweep table")
	color := flag.Bool("color", false, "include the color feedback path in the chain table")
	params := flag.Bool("params", false, "list the pedal controls and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: stoneinfo [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Prints measured all-pass stage responses and phaser notch positions.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  stoneinfo -rates 44100,96000\n")
		fmt.Fprintf(os.Stderr, "  stoneinfo -depth 0.08 -color\n")
		fmt.Fprintf(os.Stderr, "  stoneinfo -params\n")
	}
	flag.Parse()

	if *params {
		printParams(os.Stdout)
		return
	}

	if err := pedal.PhaserDepthParam.Validate(*depth); err != nil {
		log.Fatal(err)
	}

	sampleRates, err := parseRates(*rates)
	if err != nil {
		log.Fatal(err)
	}

	reports := make([]report, len(sampleRates))

	var g errgroup.Group
	for i, sr := range sampleRates {
		g.Go(func() error {
			r, err := analyse(sr, *depth, *color)
			if err != nil {
				return fmt.Errorf("%.0f Hz: %w", sr, err)
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}

	for _, r := range reports {
		if err := printReport(os.Stdout, r); err != nil {
			log.Fatal(err)
		}
	}
}

func parseRates(s string) ([]float64, error) {
	var out []float64
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil || v <= 0 || math.IsInf(v, 0) {
			return nil, fmt.Errorf("invalid sample rate %q", field)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no sample rates given")
	}
	return out, nil
}

func analyse(sampleRate, depth float64, color bool) (report, error) {
	r := report{sampleRate: sampleRate}

	phaser, err := modulation.NewPhaser(modulation.WithPhaserColor(color))
	if err != nil {
		return r, err
	}
	if err := phaser.Prepare(sampleRate); err != nil {
		return r, err
	}
	r.modLo, r.modHi = phaser.ModulationRange()

	for i, f0 := range phaser.Stages() {
		row, err := measureStage(i, f0, sampleRate)
		if err != nil {
			return r, err
		}
		r.stages = append(r.stages, row)
	}

	mod, err := modulation.NewDepthModulator(modulation.WithInitialDepths(depth, 0))
	if err != nil {
		return r, err
	}
	lo, hi := mod.PhaserSpanHz()

	for _, c := range []struct {
		label  string
		offset float64
	}{
		{"sweep low", lo},
		{"unmodulated", 0},
		{"sweep high", hi},
	} {
		offset := math.Max(r.modLo, math.Min(r.modHi, c.offset))
		r.chain = append(r.chain, chainRow{
			label:   c.label,
			offset:  offset,
			notches: mixNotches(phaser, sampleRate, offset),
		})
	}

	return r, nil
}

func measureStage(index int, breakHz, sampleRate float64) (stageRow, error) {
	row := stageRow{index: index, breakHz: breakHz}

	stage, err := allpass.New(breakHz)
	if err != nil {
		return row, err
	}
	if err := stage.SetSamplePeriod(1 / sampleRate); err != nil {
		return row, err
	}

	resp, err := response.Measure(func(x float64) float64 {
		return stage.ProcessSample(x, 0, 0)
	}, sampleRate, irLength, response.WithFFTSize(fftSize))
	if err != nil {
		return row, err
	}

	row.crossHz, row.crossOK = resp.PhaseCrossing(-math.Pi / 2)

	for k := 1; k < resp.FFTSize/2; k++ {
		dev := math.Abs(resp.MagnitudeDBAt(resp.BinFrequency(k)))
		row.maxDevDB = math.Max(row.maxDevDB, dev)
	}

	h := stage.FrequencyResponse(breakHz, 0)
	row.closedDeg = math.Atan2(imag(h), real(h)) * 180 / math.Pi

	return row, nil
}

// mixNotches scans the equal dry/wet mix of the phaser chain for local
// minima of |1+H| below -20 dB.
func mixNotches(p *modulation.Phaser, sampleRate, offset float64) []float64 {
	const stepHz = 1.0

	mag := func(f float64) float64 {
		h := p.FrequencyResponse(f, offset)
		return math.Hypot(1+real(h), imag(h)) / 2
	}

	var out []float64
	prev, cur := mag(stepHz), mag(2*stepHz)
	for f := 3 * stepHz; f < 0.5*sampleRate; f += stepHz {
		next := mag(f)
		if cur < prev && cur <= next && cur < 0.1 {
			out = append(out, f-stepHz)
		}
		prev, cur = cur, next
	}
	return out
}

func printParams(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tName\tMin\tMax\tStep\tDefault\tUnit\n")
	fmt.Fprintf(tw, "--\t----\t---\t---\t----\t-------\t----\n")
	for _, p := range pedal.Params() {
		fmt.Fprintf(tw, "%s\t%s\t%g\t%g\t%g\t%g\t%s\n", p.ID, p.Name, p.Min, p.Max, p.Step, p.Default, p.Unit)
	}
	if err := tw.Flush(); err != nil {
		log.Printf("failed to flush output: %v", err)
	}
}

func printReport(w io.Writer, r report) error {
	if _, err := fmt.Fprintf(w, "\n== %.0f Hz (modulation range %.1f .. %.1f Hz) ==\n\n",
		r.sampleRate, r.modLo, r.modHi); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Stage\tf0 [Hz]\t-90 deg at [Hz]\tError [Hz]\tmax ||H|-1| [dB]\tClosed-form phase [deg]\n")
	fmt.Fprintf(tw, "-----\t-------\t--------------\t----------\t----------------\t-----------------------\n")
	for _, s := range r.stages {
		cross, errHz := "n/a", "n/a"
		if s.crossOK {
			cross = fmt.Sprintf("%.2f", s.crossHz)
			errHz = fmt.Sprintf("%+.3f", s.crossHz-s.breakHz)
		}
		fmt.Fprintf(tw, "%d\t%.1f\t%s\t%s\t%.2e\t%.3f\n", s.index, s.breakHz, cross, errHz, s.maxDevDB, s.closedDeg)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}

	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Sweep\tOffset [Hz]\tMix notches [Hz]\n")
	fmt.Fprintf(tw, "-----\t-----------\t----------------\n")
	for _, c := range r.chain {
		notches := make([]string, len(c.notches))
		for i, f := range c.notches {
			notches[i] = strconv.FormatFloat(f, 'f', 0, 64)
		}
		fmt.Fprintf(tw, "%s\t%+.1f\t%s\n", c.label, c.offset, strings.Join(notches, ", "))
	}
	return tw.Flush()
}
