package pedal

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/stonemistress/dsp/core"
)

func TestParamsOrder(t *testing.T) {
	want := []string{"RT", "PD", "CD", "CLR"}

	got := Params()
	if len(got) != len(want) {
		t.Fatalf("len(Params()) = %d, want %d", len(got), len(want))
	}
	for i, p := range got {
		if p.ID != want[i] {
			t.Errorf("Params()[%d].ID = %q, want %q", i, p.ID, want[i])
		}
		if err := p.Validate(p.Default); err != nil {
			t.Errorf("%s default %g rejected: %v", p.ID, p.Default, err)
		}
	}
}

func TestParamValidate(t *testing.T) {
	if err := RateParam.Validate(0.01); !errors.Is(err, core.ErrInvalidParameter) {
		t.Fatalf("Validate(0.01) error = %v, want ErrInvalidParameter", err)
	}
	if err := PhaserDepthParam.Validate(0.2); !errors.Is(err, core.ErrInvalidParameter) {
		t.Fatalf("Validate(0.2) error = %v, want ErrInvalidParameter", err)
	}
	if err := ChorusDepthParam.Validate(math.NaN()); !errors.Is(err, core.ErrInvalidParameter) {
		t.Fatalf("Validate(NaN) error = %v, want ErrInvalidParameter", err)
	}
	if err := ChorusDepthParam.Validate(15); err != nil {
		t.Fatalf("Validate(max) error = %v", err)
	}
}

func TestParamSnap(t *testing.T) {
	tests := []struct {
		spec ParamSpec
		in   float64
		want float64
	}{
		{ChorusDepthParam, 3.4, 3},
		{ChorusDepthParam, 3.6, 4},
		{ChorusDepthParam, -2, 0},
		{ChorusDepthParam, 99, 15},
		{PhaserDepthParam, 0.0312, 0.031},
		{RateParam, 11.0004, 11},
		{RateParam, 100, 20},
		{ColorParam, 0.7, 1},
	}

	for _, tt := range tests {
		if got := tt.spec.Snap(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s.Snap(%g) = %g, want %g", tt.spec.ID, tt.in, got, tt.want)
		}
	}
}

func TestParamNormalized(t *testing.T) {
	for _, p := range Params() {
		if got := p.FromNormalized(0); got != p.Min {
			t.Errorf("%s.FromNormalized(0) = %g, want %g", p.ID, got, p.Min)
		}
		if got := p.FromNormalized(1); math.Abs(got-p.Max) > 1e-9 {
			t.Errorf("%s.FromNormalized(1) = %g, want %g", p.ID, got, p.Max)
		}
		if got := p.ToNormalized(p.Max); got != 1 {
			t.Errorf("%s.ToNormalized(max) = %g, want 1", p.ID, got)
		}
		if got := p.ToNormalized(p.Min - 1); got != 0 {
			t.Errorf("%s.ToNormalized(below min) = %g, want 0", p.ID, got)
		}
	}

	if got := ChorusDepthParam.FromNormalized(0.5); got != 8 {
		t.Errorf("ChorusDepth.FromNormalized(0.5) = %g, want 8", got)
	}
	if got := ColorParam.FromNormalized(0.4); got != 0 {
		t.Errorf("Color.FromNormalized(0.4) = %g, want 0", got)
	}
	if got := ChorusDepthParam.ToNormalized(3); math.Abs(got-0.2) > 1e-12 {
		t.Errorf("ChorusDepth.ToNormalized(3) = %g, want 0.2", got)
	}
}
