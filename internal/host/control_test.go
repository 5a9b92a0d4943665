package host

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/cwbudde/stonemistress/dsp/core"
	"github.com/cwbudde/stonemistress/dsp/pedal"
)

type fakeControls struct {
	mu          sync.Mutex
	rate        float64
	phaserDepth float64
	chorusDepth float64
	color       bool
	toggles     int
}

func (f *fakeControls) SetRate(hz float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rate = hz
	return nil
}

func (f *fakeControls) SetPhaserDepth(v float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.phaserDepth = v
	return nil
}

func (f *fakeControls) SetChorusDepth(v float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chorusDepth = v
	return nil
}

func (f *fakeControls) SetColor() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.color = !f.color
	f.toggles++
}

func (f *fakeControls) Color() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.color
}

func TestControlMapApply(t *testing.T) {
	m := DefaultControlMap()
	c := &fakeControls{}

	tests := []struct {
		name string
		msg  []byte
		used bool
	}{
		{"rate max", []byte{0xB0, 1, 127}, true},
		{"phaser depth zero", []byte{0xB3, 2, 0}, true},
		{"chorus depth max", []byte{0xBF, 3, 127}, true},
		{"color on", []byte{0xB0, 4, 100}, true},
		{"color on again", []byte{0xB0, 4, 127}, true},
		{"unmapped controller", []byte{0xB0, 7, 64}, false},
		{"note on", []byte{0x90, 60, 100}, false},
		{"truncated", []byte{0xB0, 1}, false},
	}

	for _, tt := range tests {
		used, err := m.Apply(c, tt.msg)
		if err != nil {
			t.Fatalf("%s: Apply() error = %v", tt.name, err)
		}
		if used != tt.used {
			t.Fatalf("%s: Apply() used = %v, want %v", tt.name, used, tt.used)
		}
	}

	if math.Abs(c.rate-pedal.RateParam.Max) > 1e-12 {
		t.Errorf("rate = %g, want %g", c.rate, pedal.RateParam.Max)
	}
	if c.phaserDepth != 0 {
		t.Errorf("phaser depth = %g, want 0", c.phaserDepth)
	}
	if math.Abs(c.chorusDepth-pedal.ChorusDepthParam.Max) > 1e-12 {
		t.Errorf("chorus depth = %g, want %g", c.chorusDepth, pedal.ChorusDepthParam.Max)
	}
	if !c.color || c.toggles != 1 {
		t.Errorf("color = %v after %d toggles, want on after 1", c.color, c.toggles)
	}

	if _, err := m.Apply(c, []byte{0xB0, 4, 10}); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if c.color || c.toggles != 2 {
		t.Errorf("color = %v after %d toggles, want off after 2", c.color, c.toggles)
	}
}

func TestControlMapChannelFilter(t *testing.T) {
	m := DefaultControlMap()
	m.Channel = 2
	c := &fakeControls{}

	if used, _ := m.Apply(c, []byte{0xB0, 1, 64}); used {
		t.Fatal("message on channel 0 used by a channel-2 map")
	}
	if used, _ := m.Apply(c, []byte{0xB2, 1, 64}); !used {
		t.Fatal("message on channel 2 ignored")
	}
}

func TestControlMapDrivesEngine(t *testing.T) {
	e, err := pedal.New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	m := DefaultControlMap()
	if _, err := m.Apply(e, []byte{0xB0, 3, 127}); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if math.Abs(e.ChorusDepth()-pedal.ChorusDepthParam.Max) > 1e-12 {
		t.Fatalf("ChorusDepth() = %g, want %g", e.ChorusDepth(), pedal.ChorusDepthParam.Max)
	}

	if _, err := m.Apply(e, []byte{0xB0, 4, 127}); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if !e.Color() {
		t.Fatal("Color() = false after CC 4 = 127")
	}
}

type rejectingControls struct{ fakeControls }

func (r *rejectingControls) SetRate(float64) error { return core.ErrInvalidParameter }

func TestControlMapReportsRejectedValues(t *testing.T) {
	used, err := DefaultControlMap().Apply(&rejectingControls{}, []byte{0xB0, 1, 5})
	if !used || !errors.Is(err, core.ErrInvalidParameter) {
		t.Fatalf("Apply() = %v, %v; want true, ErrInvalidParameter", used, err)
	}
}

type fakeIn struct {
	mu       sync.Mutex
	opened   bool
	closed   bool
	stopped  bool
	listener func([]byte, int64)
	ready    chan struct{}
}

func (f *fakeIn) Open() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = true
	return nil
}

func (f *fakeIn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeIn) String() string { return "fake" }

func (f *fakeIn) SetListener(fn func(data []byte, deltaMicroseconds int64)) error {
	f.mu.Lock()
	f.listener = fn
	f.mu.Unlock()
	close(f.ready)
	return nil
}

func (f *fakeIn) StopListening() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	return nil
}

func TestListenMIDI(t *testing.T) {
	in := &fakeIn{ready: make(chan struct{})}
	c := &rejectingControls{}

	var (
		mu     sync.Mutex
		failed []error
	)
	onError := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ListenMIDI(ctx, in, DefaultControlMap(), c, onError)
	}()

	select {
	case <-in.ready:
	case <-time.After(5 * time.Second):
		t.Fatal("listener never installed")
	}

	in.mu.Lock()
	listener := in.listener
	in.mu.Unlock()

	listener([]byte{0xB0, 2, 127}, 0)
	listener([]byte{0xB0, 1, 1}, 0)

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("ListenMIDI() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ListenMIDI() did not return after cancel")
	}

	if math.Abs(c.phaserDepth-pedal.PhaserDepthParam.Max) > 1e-12 {
		t.Errorf("phaser depth = %g, want %g", c.phaserDepth, pedal.PhaserDepthParam.Max)
	}
	if len(failed) != 1 {
		t.Errorf("onError called %d times, want 1", len(failed))
	}
	if !in.opened || !in.stopped || !in.closed {
		t.Errorf("port lifecycle opened=%v stopped=%v closed=%v", in.opened, in.stopped, in.closed)
	}
}
