package modulation

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/stonemistress/dsp/core"
	"github.com/cwbudde/stonemistress/internal/testutil"
)

func newPreparedModulator(t *testing.T, sampleRate float64, opts ...DepthModulatorOption) *DepthModulator {
	t.Helper()

	m, err := NewDepthModulator(opts...)
	if err != nil {
		t.Fatalf("NewDepthModulator() error = %v", err)
	}
	if err := m.Prepare(sampleRate); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	return m
}

func TestDepthModulatorMapsBipolarToPhysical(t *testing.T) {
	m := newPreparedModulator(t, 48000)

	mod := [][]float64{{-1, 0, 1}, {-1, 0, 1}}
	m.Process(mod, 3)

	testutil.RequireSliceNearlyEqual(t, mod[PhaserChannel], []float64{-800, 700, 2200}, 1e-9)
	testutil.RequireSliceNearlyEqual(t, mod[ChorusChannel], []float64{0.0001, 0.00025, 0.0004}, 1e-15)

	lo, hi := m.PhaserSpanHz()
	if math.Abs(lo+800) > 1e-12 || math.Abs(hi-2200) > 1e-9 {
		t.Fatalf("PhaserSpanHz() = [%g, %g], want [-800, 2200]", lo, hi)
	}

	lo, hi = m.ChorusSpanSeconds()
	if math.Abs(lo-0.0001) > 1e-15 || math.Abs(hi-0.0004) > 1e-15 {
		t.Fatalf("ChorusSpanSeconds() = [%g, %g], want [0.0001, 0.0004]", lo, hi)
	}
}

func TestDepthModulatorZeroDepthIsConstant(t *testing.T) {
	m := newPreparedModulator(t, 48000, WithInitialDepths(0, 0))

	mod := testutil.Stereo(
		testutil.DeterministicNoise(1, 1, 256),
		testutil.DeterministicNoise(2, 1, 256),
	)
	m.Process(mod, 256)

	for i := range mod[0] {
		if mod[PhaserChannel][i] != defaultPhaserCenterHz {
			t.Fatalf("phaser[%d] = %g, want %g", i, mod[PhaserChannel][i], defaultPhaserCenterHz)
		}
		if mod[ChorusChannel][i] != defaultChorusCenterSeconds {
			t.Fatalf("chorus[%d] = %g, want %g", i, mod[ChorusChannel][i], defaultChorusCenterSeconds)
		}
	}
}

func TestDepthModulatorSmoothsDepthChange(t *testing.T) {
	// Unit scale and zero center make the phaser row equal the depth itself.
	m := newPreparedModulator(t, 1000,
		WithPhaserCenterHz(0),
		WithPhaserDepthScaleHz(1),
		WithModulatorSmoothingSeconds(0.01),
		WithInitialDepths(0, 0),
	)

	if err := m.SetPhaserDepth(1); err != nil {
		t.Fatalf("SetPhaserDepth() error = %v", err)
	}
	if got := m.PhaserDepth(); got != 1 {
		t.Fatalf("PhaserDepth() = %g, want 1", got)
	}

	mod := testutil.Rows(2, 20, 1)
	m.Process(mod, 20)
	row := mod[PhaserChannel]

	if math.Abs(row[0]-0.1) > 1e-12 {
		t.Fatalf("first ramp value = %g, want 0.1", row[0])
	}
	for i := 1; i < len(row); i++ {
		if row[i] < row[i-1] {
			t.Fatalf("ramp not monotonic at %d: %g < %g", i, row[i], row[i-1])
		}
	}
	if row[9] != 1 || row[19] != 1 {
		t.Fatalf("ramp did not land on target: row[9]=%g row[19]=%g", row[9], row[19])
	}
}

func TestDepthModulatorBlockSplitIsBitIdentical(t *testing.T) {
	const n = 600

	lfoRows := testutil.Stereo(
		testutil.DeterministicSine(11, 48000, 1, n),
		testutil.DeterministicSine(7, 48000, 1, n),
	)

	run := func(splits ...int) [][]float64 {
		m := newPreparedModulator(t, 48000)
		if err := m.SetPhaserDepth(0.08); err != nil {
			t.Fatalf("SetPhaserDepth() error = %v", err)
		}
		if err := m.SetChorusDepth(1); err != nil {
			t.Fatalf("SetChorusDepth() error = %v", err)
		}

		mod := testutil.CloneBlock(lfoRows)
		from := 0
		for _, to := range append(splits, n) {
			m.Process(testutil.SubBlock(mod, from, to), to-from)
			from = to
		}
		return mod
	}

	want := run()
	testutil.RequireBlockIdentical(t, run(100), want)
	testutil.RequireBlockIdentical(t, run(1, 517, 599), want)
}

func TestDepthModulatorValidation(t *testing.T) {
	m := newPreparedModulator(t, 48000)

	for _, v := range []float64{-0.01, math.NaN(), math.Inf(1)} {
		if err := m.SetPhaserDepth(v); !errors.Is(err, core.ErrInvalidParameter) {
			t.Fatalf("SetPhaserDepth(%g) error = %v, want ErrInvalidParameter", v, err)
		}
		if err := m.SetChorusDepth(v); !errors.Is(err, core.ErrInvalidParameter) {
			t.Fatalf("SetChorusDepth(%g) error = %v, want ErrInvalidParameter", v, err)
		}
	}
	if m.PhaserDepth() != defaultPhaserDepth || m.ChorusDepth() != defaultChorusDepth {
		t.Fatalf("rejected values changed targets: %g %g", m.PhaserDepth(), m.ChorusDepth())
	}

	if err := m.Prepare(0); !errors.Is(err, core.ErrInvalidParameter) {
		t.Fatalf("Prepare(0) error = %v, want ErrInvalidParameter", err)
	}

	bad := []DepthModulatorOption{
		WithPhaserCenterHz(math.NaN()),
		WithPhaserDepthScaleHz(0),
		WithChorusCenterSeconds(-1),
		WithChorusDepthScaleSeconds(math.Inf(1)),
		WithModulatorSmoothingSeconds(-0.1),
		WithInitialDepths(-1, 0),
		WithInitialDepths(0, -1),
	}
	for i, opt := range bad {
		if _, err := NewDepthModulator(opt); !errors.Is(err, core.ErrInvalidParameter) {
			t.Fatalf("option %d: error = %v, want ErrInvalidParameter", i, err)
		}
	}

	if _, err := NewDepthModulator(nil); err != nil {
		t.Fatalf("NewDepthModulator(nil) error = %v", err)
	}
}

func TestClampRow(t *testing.T) {
	row := []float64{-2, -0.5, 0, 0.7, 3}
	ClampRow(row, -1, 1)
	testutil.RequireSliceNearlyEqual(t, row, []float64{-1, -0.5, 0, 0.7, 1}, 0)
}
