package window

import (
	"math"
	"testing"
)

func TestGenerateShapes(t *testing.T) {
	for _, typ := range []Type{TypeRectangular, TypeHann, TypeHamming, TypeBlackman} {
		w, err := Generate(typ, 65)
		if err != nil {
			t.Fatalf("Generate(%v) error = %v", typ, err)
		}

		if math.Abs(w[32]-1) > 1e-12 {
			t.Fatalf("%v: center = %g, want 1", typ, w[32])
		}

		for i := range w {
			if math.Abs(w[i]-w[len(w)-1-i]) > 1e-12 {
				t.Fatalf("%v: not symmetric at %d", typ, i)
			}
		}
	}
}

func TestHannEdges(t *testing.T) {
	w, err := Generate(TypeHann, 16)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if math.Abs(w[0]) > 1e-15 || math.Abs(w[15]) > 1e-15 {
		t.Fatalf("symmetric Hann edges = %g, %g, want 0", w[0], w[15])
	}

	p, err := Generate(TypeHann, 16, WithPeriodic())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if math.Abs(p[0]) > 1e-15 || p[15] < 0.03 {
		t.Fatalf("periodic Hann edges = %g, %g", p[0], p[15])
	}
	if g := CoherentGain(p); math.Abs(g-0.5) > 1e-12 {
		t.Fatalf("CoherentGain(periodic Hann) = %g, want 0.5", g)
	}
}

func TestApply(t *testing.T) {
	buf := []float64{2, 2, 2, 2, 2}
	if err := Apply(TypeHann, buf); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	want := []float64{0, 1, 2, 1, 0}
	for i := range buf {
		if math.Abs(buf[i]-want[i]) > 1e-12 {
			t.Fatalf("buf[%d] = %g, want %g", i, buf[i], want[i])
		}
	}

	if err := Apply(TypeHann, nil); err != nil {
		t.Fatalf("Apply(nil) error = %v", err)
	}
}

func TestGenerateErrors(t *testing.T) {
	if _, err := Generate(TypeHann, 0); err == nil {
		t.Fatal("Generate(size 0) error = nil")
	}
	if _, err := Generate(Type(99), 8); err == nil {
		t.Fatal("Generate(unknown) error = nil")
	}
	if got := Type(99).String(); got != "Type(99)" {
		t.Fatalf("String() = %q", got)
	}
}
