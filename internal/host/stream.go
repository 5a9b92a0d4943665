package host

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/go-audio/audio"

	"github.com/cwbudde/stonemistress/dsp/pedal"
	"github.com/cwbudde/stonemistress/internal/audioio"
)

// BytesPerSample is the size of one PCM sample produced by Streamer.
const BytesPerSample = 2

// ErrFormatMismatch is returned when a source does not match the engine.
var ErrFormatMismatch = errors.New("host: source format does not match engine")

// Streamer pulls blocks from a source, runs them through the engine and
// serves the result as interleaved 16-bit little-endian PCM.
type Streamer struct {
	engine *pedal.Engine
	src    audioio.Source

	block   *audio.FloatBuffer
	pcm     []byte
	pending []byte
	tap     func([]float64) error
	err     error
}

// NewStreamer checks that src fits the prepared engine. blockFrames sets
// how many frames are pulled from src at a time.
func NewStreamer(e *pedal.Engine, src audioio.Source, blockFrames int) (*Streamer, error) {
	if err := checkFormat(e, src); err != nil {
		return nil, err
	}
	if blockFrames <= 0 {
		return nil, fmt.Errorf("host: block size must be > 0: %d", blockFrames)
	}

	n := blockFrames * src.Channels()

	return &Streamer{
		engine: e,
		src:    src,
		block:  &audio.FloatBuffer{Data: make([]float64, n)},
		pcm:    make([]byte, n*BytesPerSample),
	}, nil
}

// Channels returns the interleaved channel count of the PCM stream.
func (s *Streamer) Channels() int { return s.src.Channels() }

// SampleRate returns the PCM sample rate.
func (s *Streamer) SampleRate() int { return s.src.SampleRate() }

// SetTap installs a function that receives every processed block before it
// is converted to PCM. The slice is reused between calls. An error from tap
// ends the stream with that error. Call it before the first Read.
func (s *Streamer) SetTap(tap func([]float64) error) { s.tap = tap }

// Read implements io.Reader.
func (s *Streamer) Read(p []byte) (int, error) {
	for len(s.pending) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		s.fill()
	}

	n := copy(p, s.pending)
	s.pending = s.pending[n:]

	return n, nil
}

func (s *Streamer) fill() {
	data, err := pull(s.engine, s.src, s.block)
	if err != nil {
		s.err = err
		return
	}

	if s.tap != nil {
		if err := s.tap(data); err != nil {
			s.err = err
			return
		}
	}

	out := s.pcm[:len(data)*BytesPerSample]
	for i, v := range data {
		binary.LittleEndian.PutUint16(out[BytesPerSample*i:], uint16(toInt16(v)))
	}
	s.pending = out
}

// pull reads one block from src and processes it in place.
func pull(e *pedal.Engine, src audioio.Source, block *audio.FloatBuffer) ([]float64, error) {
	block.Data = block.Data[:cap(block.Data)]

	n, err := src.Read(block)
	if err != nil {
		return nil, err
	}

	chunk := &audio.FloatBuffer{Format: block.Format, Data: block.Data[:n]}
	if err := e.ProcessFloatBuffer(chunk); err != nil {
		return nil, err
	}

	return chunk.Data, nil
}

func checkFormat(e *pedal.Engine, src audioio.Source) error {
	if float64(src.SampleRate()) != e.SampleRate() {
		return fmt.Errorf("%w: source %d Hz, engine %.0f Hz", ErrFormatMismatch, src.SampleRate(), e.SampleRate())
	}
	if src.Channels() < 1 || src.Channels() > 2 {
		return fmt.Errorf("%w: %d channels", ErrFormatMismatch, src.Channels())
	}
	return nil
}

func toInt16(v float64) int16 {
	return int16(math.Round(math.Max(-1, math.Min(1, v)) * math.MaxInt16))
}
