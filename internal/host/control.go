package host

import (
	"context"
	"fmt"

	"gitlab.com/gomidi/midi"

	"github.com/cwbudde/stonemistress/dsp/pedal"
)

const (
	statusControlChange = 0xB0
	colorOnThreshold    = 64
	maxControllerValue  = 127
)

// Controls is the part of the engine a controller drives. *pedal.Engine
// implements it.
type Controls interface {
	SetRate(hz float64) error
	SetPhaserDepth(v float64) error
	SetChorusDepth(v float64) error
	SetColor()
	Color() bool
}

// ControlMap assigns MIDI control-change numbers to the pedal's controls.
type ControlMap struct {
	Rate        uint8
	PhaserDepth uint8
	ChorusDepth uint8
	Color       uint8

	// Channel is the 0-based MIDI channel to listen on; -1 accepts all.
	Channel int
}

// DefaultControlMap listens on every channel for CC 1 to 4.
func DefaultControlMap() ControlMap {
	return ControlMap{Rate: 1, PhaserDepth: 2, ChorusDepth: 3, Color: 4, Channel: -1}
}

// Apply decodes one raw MIDI message and forwards a mapped control change to
// c. It reports whether the message was used. Controller values 0..127 are
// spread over each control's range; the color switch is on from 64 up.
func (m ControlMap) Apply(c Controls, msg []byte) (bool, error) {
	if len(msg) < 3 || msg[0]&0xF0 != statusControlChange {
		return false, nil
	}
	if m.Channel >= 0 && int(msg[0]&0x0F) != m.Channel {
		return false, nil
	}

	cc, value := msg[1], msg[2]
	x := float64(value) / maxControllerValue

	var err error
	switch cc {
	case m.Rate:
		err = c.SetRate(pedal.RateParam.FromNormalized(x))
	case m.PhaserDepth:
		err = c.SetPhaserDepth(pedal.PhaserDepthParam.FromNormalized(x))
	case m.ChorusDepth:
		err = c.SetChorusDepth(pedal.ChorusDepthParam.FromNormalized(x))
	case m.Color:
		if on := value >= colorOnThreshold; on != c.Color() {
			c.SetColor()
		}
	default:
		return false, nil
	}

	if err != nil {
		return true, fmt.Errorf("host: CC %d = %d: %w", cc, value, err)
	}
	return true, nil
}

// MIDIIn is the part of a MIDI input port ListenMIDI uses.
type MIDIIn interface {
	Open() error
	Close() error
	String() string
	SetListener(func(data []byte, deltaMicroseconds int64)) error
	StopListening() error
}

var _ MIDIIn = midi.In(nil)

// ListenMIDI opens in and applies every incoming message to c until ctx is
// done. Rejected values go to onError, which may be nil.
func ListenMIDI(ctx context.Context, in MIDIIn, m ControlMap, c Controls, onError func(error)) error {
	if err := in.Open(); err != nil {
		return fmt.Errorf("host: open MIDI input %s: %w", in.String(), err)
	}
	defer in.Close()

	err := in.SetListener(func(data []byte, _ int64) {
		if _, err := m.Apply(c, data); err != nil && onError != nil {
			onError(err)
		}
	})
	if err != nil {
		return fmt.Errorf("host: listen on %s: %w", in.String(), err)
	}

	<-ctx.Done()

	if err := in.StopListening(); err != nil {
		return fmt.Errorf("host: stop listening on %s: %w", in.String(), err)
	}
	return nil
}
