package audioio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
)

// Errors returned by sources.
var (
	ErrUnsupportedFormat = errors.New("audioio: unsupported file format")
	ErrInvalidFormat     = errors.New("audioio: invalid stream format")
)

// Source yields interleaved float64 frames.
type Source interface {
	SampleRate() int
	Channels() int
	// Read fills buf.Data with whole frames, sets buf.Format and returns the
	// number of samples written. It returns 0, io.EOF at the end of the
	// stream.
	Read(buf *audio.FloatBuffer) (int, error)
	Close() error
}

// Open picks a decoder from the file extension.
func Open(path string) (Source, error) {
	var open func(*os.File) (Source, error)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav", ".wave":
		open = func(f *os.File) (Source, error) { return newWAV(f) }
	case ".mp3":
		open = func(f *os.File) (Source, error) { return newMP3(f) }
	case ".ogg", ".oga":
		open = func(f *os.File) (Source, error) { return newOgg(f) }
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audioio: open %s: %w", path, err)
	}

	src, err := open(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	return src, nil
}

// wholeFrames trims n samples down to a multiple of channels.
func wholeFrames(n, channels int) int {
	return n - n%channels
}

func format(sampleRate, channels int) *audio.Format {
	return &audio.Format{NumChannels: channels, SampleRate: sampleRate}
}
