package audioio

import (
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavBitDepth  = 16
	wavFormatPCM = 1
)

// WAVWriter encodes interleaved float frames as 16-bit PCM WAV.
type WAVWriter struct {
	enc  *wav.Encoder
	ints *audio.IntBuffer
}

// NewWAVWriter starts a 16-bit PCM WAV stream on w. Close finalises the
// header; it does not close w.
func NewWAVWriter(w io.WriteSeeker, sampleRate, channels int) (*WAVWriter, error) {
	if sampleRate <= 0 || channels < 1 {
		return nil, fmt.Errorf("%w: rate=%d channels=%d", ErrInvalidFormat, sampleRate, channels)
	}

	return &WAVWriter{
		enc: wav.NewEncoder(w, sampleRate, wavBitDepth, channels, wavFormatPCM),
		ints: &audio.IntBuffer{
			Format:         format(sampleRate, channels),
			SourceBitDepth: wavBitDepth,
		},
	}, nil
}

// Write clips samples to [-1, 1] and appends them.
func (w *WAVWriter) Write(samples []float64) error {
	if cap(w.ints.Data) < len(samples) {
		w.ints.Data = make([]int, len(samples))
	}
	w.ints.Data = w.ints.Data[:len(samples)]

	for i, v := range samples {
		w.ints.Data[i] = int(math.Round(math.Max(-1, math.Min(1, v)) * math.MaxInt16))
	}

	if err := w.enc.Write(w.ints); err != nil {
		return fmt.Errorf("audioio: encode WAV: %w", err)
	}
	return nil
}

// Close writes the final chunk sizes.
func (w *WAVWriter) Close() error {
	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("audioio: finalise WAV: %w", err)
	}
	return nil
}
