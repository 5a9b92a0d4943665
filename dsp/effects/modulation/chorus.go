package modulation

import (
	"fmt"
	"math"

	"github.com/cwbudde/stonemistress/dsp/core"
	"github.com/cwbudde/stonemistress/dsp/delay"
	"github.com/cwbudde/stonemistress/dsp/interp"
)

const (
	defaultChorusMaxDelaySeconds = 0.0016
	defaultChorusFeedback        = 0.5
	maxChorusFeedback            = 1.0
	maxChorusMaxDelaySeconds     = 1.0
)

// ChorusOption mutates chorus construction parameters.
type ChorusOption func(*chorusConfig) error

type chorusConfig struct {
	maxDelaySeconds float64
	feedback        float64
	mode            interp.Mode
	modChannel      int
}

func defaultChorusConfig() chorusConfig {
	return chorusConfig{
		maxDelaySeconds: defaultChorusMaxDelaySeconds,
		feedback:        defaultChorusFeedback,
		mode:            interp.Allpass,
		modChannel:      ChorusChannel,
	}
}

// WithChorusMaxDelaySeconds sets the longest delay the line can hold.
func WithChorusMaxDelaySeconds(seconds float64) ChorusOption {
	return func(cfg *chorusConfig) error {
		if seconds <= 0 || seconds > maxChorusMaxDelaySeconds || math.IsNaN(seconds) {
			return fmt.Errorf("%w: chorus max delay must be in (0, %g] s: %f",
				core.ErrInvalidParameter, maxChorusMaxDelaySeconds, seconds)
		}

		cfg.maxDelaySeconds = seconds

		return nil
	}
}

// WithChorusFeedback sets the regeneration gain in [0, 1]: the share of
// each output sample written back into the line. At 1 the output is added
// back unscaled, so an impulse recirculates at unit level every delay
// period and sustained DC grows without bound. The default of 0.5 keeps
// the loop gain below one.
func WithChorusFeedback(feedback float64) ChorusOption {
	return func(cfg *chorusConfig) error {
		if feedback < 0 || feedback > maxChorusFeedback || math.IsNaN(feedback) {
			return fmt.Errorf("%w: chorus feedback must be in [0, %g]: %f",
				core.ErrInvalidParameter, maxChorusFeedback, feedback)
		}

		cfg.feedback = feedback

		return nil
	}
}

// WithChorusInterpolation selects the fractional read algorithm.
func WithChorusInterpolation(mode interp.Mode) ChorusOption {
	return func(cfg *chorusConfig) error {
		if !mode.Valid() {
			return fmt.Errorf("%w: unknown chorus interpolation: %v", core.ErrInvalidParameter, mode)
		}

		cfg.mode = mode

		return nil
	}
}

// WithChorusModChannel selects the modulation row holding delay times.
func WithChorusModChannel(ch int) ChorusOption {
	return func(cfg *chorusConfig) error {
		if ch < 0 || ch >= core.MaxChannels {
			return fmt.Errorf("%w: chorus modulation row must be in [0, %d): %d",
				core.ErrInvalidParameter, core.MaxChannels, ch)
		}

		cfg.modChannel = ch

		return nil
	}
}

// Chorus is a stereo modulated delay. Per sample and channel it stores the
// input at the write cursor, reads the line modulation-seconds behind the
// cursor through a fractional tap, outputs that value and adds
// feedback*output back at the cursor. Both channels share one delay time.
type Chorus struct {
	maxDelaySeconds float64
	feedback        float64
	mode            interp.Mode
	modChannel      int

	sampleRate float64
	lines      [core.MaxChannels]*delay.Line
	taps       [core.MaxChannels]*delay.Tap
}

// NewChorus creates a chorus with the pedal's 1.6 ms delay range.
func NewChorus(opts ...ChorusOption) (*Chorus, error) {
	cfg := defaultChorusConfig()

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	c := &Chorus{
		maxDelaySeconds: cfg.maxDelaySeconds,
		feedback:        cfg.feedback,
		mode:            cfg.mode,
		modChannel:      cfg.modChannel,
	}

	for ch := range c.taps {
		tap, err := delay.NewTap(cfg.mode)
		if err != nil {
			return nil, err
		}
		c.taps[ch] = tap
	}

	return c, nil
}

// Prepare allocates ceil(maxDelay*sampleRate)+maxBlockSize samples per
// channel and clears all state.
func (c *Chorus) Prepare(sampleRate float64, maxBlockSize int) error {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return fmt.Errorf("%w: chorus sample rate must be > 0 and finite: %f", core.ErrInvalidParameter, sampleRate)
	}

	if maxBlockSize <= 0 {
		return fmt.Errorf("%w: chorus max block size must be > 0: %d", core.ErrBufferSize, maxBlockSize)
	}

	size := int(math.Ceil(c.maxDelaySeconds*sampleRate)) + maxBlockSize
	for ch := range c.lines {
		line, err := delay.New(size)
		if err != nil {
			return err
		}
		c.lines[ch] = line
		c.taps[ch].Reset()
	}

	c.sampleRate = sampleRate

	return nil
}

// Release drops the delay lines. ProcessBlock becomes a no-op until the next
// Prepare. Calling it more than once is safe.
func (c *Chorus) Release() {
	c.lines = [core.MaxChannels]*delay.Line{}
}

// Reset clears the delay lines and tap state without reallocating.
func (c *Chorus) Reset() {
	for ch, line := range c.lines {
		if line != nil {
			line.Reset()
		}
		c.taps[ch].Reset()
	}
}

// MaxDelaySeconds returns the longest supported delay. Clamp the chorus
// modulation row to [0, MaxDelaySeconds()] before ProcessBlock.
func (c *Chorus) MaxDelaySeconds() float64 { return c.maxDelaySeconds }

// Feedback returns the regeneration gain.
func (c *Chorus) Feedback() float64 { return c.feedback }

// Interpolation returns the fractional read algorithm.
func (c *Chorus) Interpolation() interp.Mode { return c.mode }

// ModChannel returns the modulation row holding delay times.
func (c *Chorus) ModChannel() int { return c.modChannel }

// Len returns the per-channel delay line length, or 0 when unprepared.
func (c *Chorus) Len() int {
	if c.lines[0] == nil {
		return 0
	}
	return c.lines[0].Len()
}

// ProcessBlock runs buf[ch][:n] through the delay in place for up to two
// channels. mod[ModChannel()][:n] holds the delay time in seconds.
func (c *Chorus) ProcessBlock(buf, mod [][]float64, n int) {
	if c.lines[0] == nil {
		return
	}

	channels := min(len(buf), core.MaxChannels)
	row := mod[c.modChannel][:n]

	for i, dt := range row {
		offset := dt * c.sampleRate
		for ch := 0; ch < channels; ch++ {
			line := c.lines[ch]
			pos := float64(line.WritePos()) - offset

			line.Store(buf[ch][i])
			y := c.taps[ch].ReadAt(line, pos)
			line.Accumulate(c.feedback * y)
			line.Advance()

			buf[ch][i] = y
		}
	}
}
