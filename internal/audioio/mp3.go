package audioio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	gomp3 "github.com/hajimehoshi/go-mp3"
)

// go-mp3 always decodes to interleaved 16-bit little-endian stereo.
const mp3Channels = 2

// mp3Decoder is the subset of *gomp3.Decoder the source uses.
type mp3Decoder interface {
	Read([]byte) (int, error)
	SampleRate() int
}

type mp3Source struct {
	closer io.Closer
	dec    mp3Decoder
	raw    []byte
}

func newMP3(f io.ReadCloser) (*mp3Source, error) {
	dec, err := gomp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("audioio: decode MP3: %w", err)
	}
	return &mp3Source{closer: f, dec: dec}, nil
}

func (s *mp3Source) SampleRate() int { return s.dec.SampleRate() }
func (s *mp3Source) Channels() int   { return mp3Channels }

func (s *mp3Source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func (s *mp3Source) Read(buf *audio.FloatBuffer) (int, error) {
	want := wholeFrames(len(buf.Data), mp3Channels)
	if want == 0 {
		return 0, nil
	}

	if cap(s.raw) < 2*want {
		s.raw = make([]byte, 2*want)
	}
	s.raw = s.raw[:2*want]

	n, err := io.ReadFull(s.dec, s.raw)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("audioio: decode MP3: %w", err)
	}

	samples := wholeFrames(n/2, mp3Channels)
	if samples == 0 {
		return 0, io.EOF
	}

	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(s.raw[2*i:]))
		buf.Data[i] = float64(v) / 32768
	}
	buf.Format = format(s.dec.SampleRate(), mp3Channels)

	return samples, nil
}
