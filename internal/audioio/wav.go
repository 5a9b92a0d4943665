package audioio

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

type wavSource struct {
	f   *os.File
	dec *wav.Decoder

	sampleRate int
	channels   int
	scale      float64
	offset     int
	ints       *audio.IntBuffer
}

func newWAV(f *os.File) (*wavSource, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a WAV file: %s", ErrInvalidFormat, f.Name())
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("audioio: seek to PCM data: %w", err)
	}

	depth := int(dec.BitDepth)
	if depth != 8 && depth != 16 && depth != 24 && depth != 32 {
		return nil, fmt.Errorf("%w: %d-bit WAV", ErrInvalidFormat, depth)
	}
	channels := int(dec.NumChans)
	if channels < 1 {
		return nil, fmt.Errorf("%w: %d channels", ErrInvalidFormat, channels)
	}

	s := &wavSource{
		f:          f,
		dec:        dec,
		sampleRate: int(dec.SampleRate),
		channels:   channels,
		scale:      1 / float64(audio.IntMaxSignedValue(depth)+1),
		ints:       &audio.IntBuffer{},
	}
	// 8-bit WAV is unsigned
	if depth == 8 {
		s.offset = 128
	}

	return s, nil
}

func (s *wavSource) SampleRate() int { return s.sampleRate }
func (s *wavSource) Channels() int   { return s.channels }
func (s *wavSource) Close() error    { return s.f.Close() }

func (s *wavSource) Read(buf *audio.FloatBuffer) (int, error) {
	want := wholeFrames(len(buf.Data), s.channels)
	if want == 0 {
		return 0, nil
	}

	if cap(s.ints.Data) < want {
		s.ints.Data = make([]int, want)
	}
	s.ints.Data = s.ints.Data[:want]

	n, err := s.dec.PCMBuffer(s.ints)
	if err != nil {
		return 0, fmt.Errorf("audioio: decode WAV: %w", err)
	}
	n = wholeFrames(n, s.channels)
	if n == 0 {
		return 0, io.EOF
	}

	for i, v := range s.ints.Data[:n] {
		buf.Data[i] = float64(v-s.offset) * s.scale
	}
	buf.Format = format(s.sampleRate, s.channels)

	return n, nil
}
