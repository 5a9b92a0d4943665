package pedal

import (
	"math"
	"testing"

	"github.com/cwbudde/stonemistress/internal/testutil"
	"github.com/cwbudde/stonemistress/measure/envelope"
)

// TestSineThroughDefaultPedal drives 2 s of a 1 kHz tone through the pedal
// at its default controls and checks that the output envelope pulses at
// the LFO rate.
func TestSineThroughDefaultPedal(t *testing.T) {
	const (
		sampleRate = 48000.0
		blockSize  = 512
		seconds    = 2
		window     = 48 // one 1 kHz period, 1 ms
		envRate    = sampleRate / window
		settle     = int(0.1 * sampleRate)
	)

	for _, routing := range []Routing{Serial, Parallel} {
		t.Run(routing.String(), func(t *testing.T) {
			e := newPrepared(t, sampleRate, blockSize, WithRouting(routing))

			total := seconds * int(sampleRate)
			tone := testutil.DeterministicSine(1000, sampleRate, 0.5, total)
			buf := testutil.Stereo(tone, tone)

			for start := 0; start < total; start += blockSize {
				n := min(blockSize, total-start)
				if err := e.ProcessBlock64(testutil.SubBlock(buf, start, start+n), n); err != nil {
					t.Fatalf("ProcessBlock64() error = %v", err)
				}
			}

			for ch := range buf {
				testutil.RequireBounded(t, buf[ch], 2)
			}
			testutil.RequireBlockIdentical(t, buf[1:], buf[:1])

			env, err := envelope.RMS(buf[0][settle:], window)
			if err != nil {
				t.Fatalf("RMS() error = %v", err)
			}

			if d := envelope.Depth(env); d < 0.3 {
				t.Fatalf("envelope depth = %.3f, want >= 0.3", d)
			}

			period := envRate / RateParam.Default
			p, err := envelope.Periodicity(env, period)
			if err != nil {
				t.Fatalf("Periodicity() error = %v", err)
			}
			if p < 0.85 {
				t.Fatalf("periodicity at %.2f windows = %.3f, want >= 0.85", period, p)
			}

			f, err := envelope.DominantFrequency(env, envRate, 5, 100)
			if err != nil {
				t.Fatalf("DominantFrequency() error = %v", err)
			}
			k := math.Round(f / RateParam.Default)
			if k < 1 || math.Abs(f-k*RateParam.Default) > 1 {
				t.Fatalf("dominant envelope frequency %.2f Hz is not a multiple of %g Hz", f, RateParam.Default)
			}

			h, err := envelope.HarmonicFraction(env, envRate, RateParam.Default, 5)
			if err != nil {
				t.Fatalf("HarmonicFraction() error = %v", err)
			}
			if h < 0.9 {
				t.Fatalf("share of envelope energy at LFO harmonics = %.3f, want >= 0.9", h)
			}
		})
	}
}
