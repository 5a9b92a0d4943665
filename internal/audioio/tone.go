package audioio

import (
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
)

// Tone is a sine source with the same signal on every channel.
type Tone struct {
	freqHz     float64
	amplitude  float64
	sampleRate int
	channels   int
	frames     int // 0 means endless
	pos        int
}

// NewTone returns a sine at freqHz. frames bounds the stream length; 0
// makes it endless.
func NewTone(freqHz, amplitude float64, sampleRate, channels, frames int) (*Tone, error) {
	if sampleRate <= 0 || channels < 1 || frames < 0 {
		return nil, fmt.Errorf("%w: rate=%d channels=%d frames=%d", ErrInvalidFormat, sampleRate, channels, frames)
	}
	if freqHz < 0 || freqHz >= float64(sampleRate)/2 || math.IsNaN(freqHz) {
		return nil, fmt.Errorf("%w: tone frequency %g Hz at %d Hz", ErrInvalidFormat, freqHz, sampleRate)
	}

	return &Tone{
		freqHz:     freqHz,
		amplitude:  amplitude,
		sampleRate: sampleRate,
		channels:   channels,
		frames:     frames,
	}, nil
}

func (t *Tone) SampleRate() int { return t.sampleRate }
func (t *Tone) Channels() int   { return t.channels }
func (t *Tone) Close() error    { return nil }

// Read implements Source.
func (t *Tone) Read(buf *audio.FloatBuffer) (int, error) {
	frames := len(buf.Data) / t.channels
	if t.frames > 0 {
		if t.pos >= t.frames {
			return 0, io.EOF
		}
		frames = min(frames, t.frames-t.pos)
	}

	w := 2 * math.Pi * t.freqHz / float64(t.sampleRate)
	for i := range frames {
		v := t.amplitude * math.Sin(w*float64(t.pos+i))
		for ch := range t.channels {
			buf.Data[i*t.channels+ch] = v
		}
	}
	t.pos += frames
	buf.Format = format(t.sampleRate, t.channels)

	return frames * t.channels, nil
}
