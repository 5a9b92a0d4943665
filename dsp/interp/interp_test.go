package interp

import (
	"math"
	"testing"
)

func TestLinear2(t *testing.T) {
	for _, tc := range []struct {
		frac, want float64
	}{
		{0, 2},
		{0.25, 2.5},
		{0.5, 3},
		{1, 4},
	} {
		if got := Linear2(tc.frac, 2, 4); math.Abs(got-tc.want) > 1e-15 {
			t.Fatalf("Linear2(%v) = %v, want %v", tc.frac, got, tc.want)
		}
	}
}

func TestAllpassCoefficient(t *testing.T) {
	if got := AllpassCoefficient(0); got != 0 {
		t.Fatalf("AllpassCoefficient(0) = %v, want 0", got)
	}
	if got := AllpassCoefficient(0.5); math.Abs(got-1.0/3) > 1e-15 {
		t.Fatalf("AllpassCoefficient(0.5) = %v, want 1/3", got)
	}
	prev := -1.0
	for frac := 0.0; frac < 1; frac += 0.01 {
		a := AllpassCoefficient(frac)
		if a < 0 || a >= 1 || a < prev {
			t.Fatalf("AllpassCoefficient(%v) = %v, want monotonic in [0,1)", frac, a)
		}
		prev = a
	}
}

func TestAllpassTickIntegerIsExact(t *testing.T) {
	for _, prev := range []float64{-3, 0, 7.5} {
		if got := AllpassTick(0, 1.25, 9, prev); got != 1.25 {
			t.Fatalf("AllpassTick(0, prev=%v) = %v, want 1.25", prev, got)
		}
	}
}

func TestAllpassTickConvergesOnDC(t *testing.T) {
	// A constant input is reproduced after the tap state settles.
	y := 0.0
	for i := 0; i < 200; i++ {
		y = AllpassTick(0.7, 0.5, 0.5, y)
	}
	if math.Abs(y-0.5) > 1e-12 {
		t.Fatalf("settled output = %v, want 0.5", y)
	}
}

func TestModeTick(t *testing.T) {
	if got := Linear.Tick(0.5, 2, 4, 100); got != 3 {
		t.Fatalf("Linear.Tick() = %v, want 3", got)
	}
	if got, want := Allpass.Tick(0.5, 2, 4, 1), AllpassTick(0.5, 2, 4, 1); got != want {
		t.Fatalf("Allpass.Tick() = %v, want %v", got, want)
	}
}

func TestModeString(t *testing.T) {
	if Allpass.String() != "allpass" || Linear.String() != "linear" {
		t.Fatalf("unexpected names %q %q", Allpass, Linear)
	}
	if Mode(9).String() != "Mode(9)" || Mode(9).Valid() {
		t.Fatalf("unknown mode handling wrong: %q", Mode(9))
	}
	if !Allpass.Valid() || !Linear.Valid() {
		t.Fatal("known modes reported invalid")
	}
}
