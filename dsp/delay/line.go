package delay

import (
	"fmt"
	"math"

	"github.com/cwbudde/stonemistress/dsp/core"
	"github.com/cwbudde/stonemistress/dsp/interp"
)

// Line is a circular delay line with a single write cursor.
//
// The cursor only moves through Advance, so a sample can be stored at the
// cursor, read back through taps, and then accumulated into before the cursor
// moves on.
type Line struct {
	buffer   []float64
	writePos int
}

// New returns a delay line of fixed size.
func New(size int) (*Line, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: delay size must be > 0: %d", core.ErrBufferSize, size)
	}
	return &Line{buffer: make([]float64, size)}, nil
}

// Len returns internal buffer size.
func (d *Line) Len() int {
	return len(d.buffer)
}

// WritePos returns the current write cursor in [0, Len()).
func (d *Line) WritePos() int {
	return d.writePos
}

// Store overwrites the sample at the write cursor.
func (d *Line) Store(sample float64) {
	d.buffer[d.writePos] = sample
}

// Accumulate adds sample to the value at the write cursor.
func (d *Line) Accumulate(sample float64) {
	d.buffer[d.writePos] += sample
}

// Advance moves the write cursor forward by one, wrapping at Len().
func (d *Line) Advance() {
	d.writePos++
	if d.writePos >= len(d.buffer) {
		d.writePos = 0
	}
}

// Reset clears line state.
func (d *Line) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}
	d.writePos = 0
}

func (d *Line) wrap(i int) int {
	n := len(d.buffer)
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// Tap is a fractional read head. All-pass taps carry their previous output,
// so one Tap must be dedicated to one read stream.
type Tap struct {
	mode interp.Mode
	prev float64
}

// NewTap returns a tap using the given interpolation mode.
func NewTap(mode interp.Mode) (*Tap, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: unknown interpolation mode %v", core.ErrInvalidParameter, mode)
	}
	return &Tap{mode: mode}, nil
}

// Mode returns the interpolation mode.
func (t *Tap) Mode() interp.Mode { return t.mode }

// ReadAt reads d at the absolute fractional position pos. The position is
// split with floor, so the fraction is always in [0,1) and points between
// index floor(pos) and the next sample towards the write cursor.
func (t *Tap) ReadAt(d *Line, pos float64) float64 {
	base := math.Floor(pos)
	frac := pos - base

	i := d.wrap(int(base))
	j := i + 1
	if j == len(d.buffer) {
		j = 0
	}

	y := t.mode.Tick(frac, d.buffer[i], d.buffer[j], t.prev)
	t.prev = y
	return y
}

// Reset clears the interpolator state.
func (t *Tap) Reset() {
	t.prev = 0
}
