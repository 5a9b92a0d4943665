package host

import (
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/cwbudde/stonemistress/dsp/pedal"
	"github.com/cwbudde/stonemistress/internal/audioio"
)

func preparedEngine(t *testing.T, sampleRate float64, maxBlock int) *pedal.Engine {
	t.Helper()

	e, err := pedal.New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := e.Prepare(sampleRate, maxBlock); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	return e
}

func TestStreamerProducesPCM(t *testing.T) {
	const frames = 1000

	e := preparedEngine(t, 48000, 256)
	tone, err := audioio.NewTone(1000, 0.5, 48000, 2, frames)
	if err != nil {
		t.Fatalf("NewTone() error = %v", err)
	}

	s, err := NewStreamer(e, tone, 256)
	if err != nil {
		t.Fatalf("NewStreamer() error = %v", err)
	}
	if s.Channels() != 2 || s.SampleRate() != 48000 {
		t.Fatalf("stream format = %d Hz / %d ch", s.SampleRate(), s.Channels())
	}

	// odd-sized reads must not lose bytes
	var pcm []byte
	buf := make([]byte, 333)
	for {
		n, err := s.Read(buf)
		pcm = append(pcm, buf[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
	}

	if want := frames * 2 * BytesPerSample; len(pcm) != want {
		t.Fatalf("read %d bytes, want %d", len(pcm), want)
	}

	nonZero := 0
	for i := 0; i < len(pcm); i += BytesPerSample {
		if int16(binary.LittleEndian.Uint16(pcm[i:])) != 0 {
			nonZero++
		}
	}
	if nonZero < frames {
		t.Fatalf("only %d non-zero samples in processed tone", nonZero)
	}
}

func TestStreamerTapSeesProcessedBlocks(t *testing.T) {
	const frames = 700

	tone, _ := audioio.NewTone(330, 0.4, 44100, 1, frames)
	s, err := NewStreamer(preparedEngine(t, 44100, 128), tone, 100)
	if err != nil {
		t.Fatalf("NewStreamer() error = %v", err)
	}

	var tapped []float64
	s.SetTap(func(block []float64) error {
		tapped = append(tapped, block...)
		return nil
	})

	pcm, err := io.ReadAll(s)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}

	if len(tapped) != frames || len(pcm) != frames*BytesPerSample {
		t.Fatalf("tapped %d samples, streamed %d bytes", len(tapped), len(pcm))
	}
	for i, v := range tapped {
		if got, want := int16(binary.LittleEndian.Uint16(pcm[2*i:])), toInt16(v); got != want {
			t.Fatalf("sample %d = %d, want %d", i, got, want)
		}
	}
}

func TestStreamerTapErrorEndsStream(t *testing.T) {
	endless, _ := audioio.NewTone(100, 0.1, 48000, 1, 0)
	s, err := NewStreamer(preparedEngine(t, 48000, 64), endless, 64)
	if err != nil {
		t.Fatalf("NewStreamer() error = %v", err)
	}

	tapErr := errors.New("disk full")
	blocks := 0
	s.SetTap(func([]float64) error {
		blocks++
		if blocks == 3 {
			return tapErr
		}
		return nil
	})

	_, err = io.ReadAll(s)
	if !errors.Is(err, tapErr) {
		t.Fatalf("ReadAll() error = %v, want tap error", err)
	}
	if _, err := s.Read(make([]byte, 16)); !errors.Is(err, tapErr) {
		t.Fatalf("Read() after failure error = %v, want tap error", err)
	}
}

func TestFormatMismatch(t *testing.T) {
	e := preparedEngine(t, 48000, 64)

	tone, _ := audioio.NewTone(100, 0.1, 44100, 1, 10)
	if _, err := NewStreamer(e, tone, 64); !errors.Is(err, ErrFormatMismatch) {
		t.Fatalf("NewStreamer() error = %v, want ErrFormatMismatch", err)
	}

	wide, _ := audioio.NewTone(100, 0.1, 48000, 4, 10)
	if _, err := NewStreamer(e, wide, 64); !errors.Is(err, ErrFormatMismatch) {
		t.Fatalf("NewStreamer(4 channels) error = %v, want ErrFormatMismatch", err)
	}

	ok, _ := audioio.NewTone(100, 0.1, 48000, 1, 10)
	if _, err := NewStreamer(e, ok, 0); err == nil {
		t.Fatal("NewStreamer(block 0) succeeded")
	}
}

func TestToInt16Clips(t *testing.T) {
	tests := []struct {
		in   float64
		want int16
	}{
		{0, 0},
		{1, 32767},
		{-1, -32767},
		{3, 32767},
		{-3, -32767},
		{0.5, 16384},
	}
	for _, tt := range tests {
		if got := toInt16(tt.in); got != tt.want {
			t.Errorf("toInt16(%g) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
