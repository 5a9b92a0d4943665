package smooth

import (
	"math"
	"sync/atomic"

	"github.com/cwbudde/stonemistress/dsp/core"
)

// DefaultRampSeconds is the glide time used when Reset is never called.
const DefaultRampSeconds = 0.02

type ramp struct {
	multiplicative bool

	// target is written by any goroutine; everything below is owned by
	// the consuming audio goroutine.
	target atomic.Uint64

	rampLength int
	current    float64
	active     float64
	step       float64
	countdown  int
}

func (r *ramp) init(initial float64, multiplicative bool) {
	r.multiplicative = multiplicative
	r.rampLength = int(math.Round(DefaultRampSeconds * 44100))
	r.setCurrentAndTarget(initial)
}

func (r *ramp) accepts(v float64) bool {
	if !core.IsFinite(v) {
		return false
	}
	return !r.multiplicative || v > 0
}

// Reset sets the ramp length from sampleRate and rampSeconds and snaps the
// current value onto the latest target. Call it from Prepare, never
// concurrently with Next.
func (r *ramp) Reset(sampleRate, rampSeconds float64) {
	steps := 0
	if sampleRate > 0 && rampSeconds > 0 {
		steps = int(math.Round(sampleRate * rampSeconds))
	}
	r.rampLength = steps
	r.setCurrentAndTarget(r.Target())
}

// SetCurrentAndTarget jumps to v without a ramp. Like Reset it belongs to
// the audio goroutine or to set-up code that runs before processing.
func (r *ramp) SetCurrentAndTarget(v float64) {
	if !r.accepts(v) {
		return
	}
	r.setCurrentAndTarget(v)
}

func (r *ramp) setCurrentAndTarget(v float64) {
	r.target.Store(math.Float64bits(v))
	r.current = v
	r.active = v
	r.step = 0
	r.countdown = 0
}

// SetTarget publishes a new target. It is safe to call from any goroutine.
// Values the ramp cannot represent (NaN, Inf, and non-positive values for a
// multiplicative ramp) are ignored; callers validate at their own boundary.
func (r *ramp) SetTarget(v float64) {
	if !r.accepts(v) {
		return
	}
	r.target.Store(math.Float64bits(v))
}

// Target returns the most recently published target.
func (r *ramp) Target() float64 {
	return math.Float64frombits(r.target.Load())
}

// Current returns the value last produced by Next or Skip.
func (r *ramp) Current() float64 { return r.current }

// IsSmoothing reports whether the value is still gliding or a new target
// has been published but not yet picked up.
func (r *ramp) IsSmoothing() bool {
	return r.countdown > 0 || r.Target() != r.active
}

// Next advances the ramp by one sample and returns the new value.
func (r *ramp) Next() float64 {
	r.poll()
	if r.countdown == 0 {
		return r.current
	}

	r.countdown--
	if r.countdown == 0 {
		r.current = r.active
	} else if r.multiplicative {
		r.current *= r.step
	} else {
		r.current += r.step
	}

	return r.current
}

// Skip advances the ramp by n samples at once and returns the value reached.
func (r *ramp) Skip(n int) float64 {
	r.poll()
	if n <= 0 || r.countdown == 0 {
		return r.current
	}

	if n >= r.countdown {
		r.current = r.active
		r.countdown = 0
		return r.current
	}

	r.countdown -= n
	if r.multiplicative {
		r.current *= expFn(logFn(r.step) * float64(n))
	} else {
		r.current += r.step * float64(n)
	}

	return r.current
}

func (r *ramp) poll() {
	t := r.Target()
	if t == r.active {
		return
	}

	r.active = t
	if r.rampLength <= 0 {
		r.current = t
		r.countdown = 0
		return
	}

	r.countdown = r.rampLength
	if r.multiplicative {
		r.step = expFn((logFn(t) - logFn(r.current)) / float64(r.rampLength))
	} else {
		r.step = (t - r.current) / float64(r.rampLength)
	}
}

// Linear glides to its target in equal additive steps. Use it for depths and
// gains.
type Linear struct {
	ramp
}

// NewLinear returns a Linear value resting at initial.
func NewLinear(initial float64) *Linear {
	s := &Linear{}
	s.init(initial, false)
	return s
}

// Multiplicative glides to its target in equal ratio steps, which sounds
// even for frequencies and rates. Values must stay strictly positive.
type Multiplicative struct {
	ramp
}

// NewMultiplicative returns a Multiplicative value resting at initial.
// A non-positive initial value is replaced by 1.
func NewMultiplicative(initial float64) *Multiplicative {
	if !(initial > 0) || !core.IsFinite(initial) {
		initial = 1
	}
	s := &Multiplicative{}
	s.init(initial, true)
	return s
}
