package audioio

import (
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/jfreymuth/oggvorbis"
)

// oggDecoder is the subset of *oggvorbis.Reader the source uses.
type oggDecoder interface {
	SampleRate() int
	Channels() int
	Read([]float32) (int, error)
}

type oggSource struct {
	closer io.Closer
	dec    oggDecoder
	pcm    []float32
}

func newOgg(f io.ReadCloser) (*oggSource, error) {
	dec, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("audioio: decode Ogg Vorbis: %w", err)
	}
	if dec.Channels() < 1 {
		return nil, fmt.Errorf("%w: %d channels", ErrInvalidFormat, dec.Channels())
	}
	return &oggSource{closer: f, dec: dec}, nil
}

func (s *oggSource) SampleRate() int { return s.dec.SampleRate() }
func (s *oggSource) Channels() int   { return s.dec.Channels() }

func (s *oggSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func (s *oggSource) Read(buf *audio.FloatBuffer) (int, error) {
	channels := s.dec.Channels()
	want := wholeFrames(len(buf.Data), channels)
	if want == 0 {
		return 0, nil
	}

	if cap(s.pcm) < want {
		s.pcm = make([]float32, want)
	}
	s.pcm = s.pcm[:want]

	// the decoder returns at most one packet per call
	total := 0
	for total < want {
		n, err := s.dec.Read(s.pcm[total:])
		total += n
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("audioio: decode Ogg Vorbis: %w", err)
		}
		if n == 0 {
			break
		}
	}

	if total == 0 {
		return 0, io.EOF
	}

	for i, v := range s.pcm[:total] {
		buf.Data[i] = float64(v)
	}
	buf.Format = format(s.dec.SampleRate(), channels)

	return total, nil
}
