// Command stoneplay runs audio through the pedal.
//
// Usage:
//
//	stoneplay [flags]
//
// The source is a sine tone or a WAV, MP3 or Ogg Vorbis file. The result
// is played on the default output device and can be recorded to a WAV file
// at the same time with -record. During playback the controls can follow a
// MIDI input: CC1 rate, CC2 phaser depth, CC3 chorus depth and CC4 color
// (on from 64).
//
// Examples:
//
//	stoneplay -tone 220 -seconds 10
//	stoneplay -in guitar.wav -rate 0.5 -pd 0.06 -color
//	stoneplay -in loop.ogg -parallel -record loop-stone.wav
//	stoneplay -in riff.mp3 -midi 0
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hajimehoshi/oto"
	"gitlab.com/gomidi/rtmididrv"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/stonemistress/dsp/core"
	"github.com/cwbudde/stonemistress/dsp/pedal"
	"github.com/cwbudde/stonemistress/internal/audioio"
	"github.com/cwbudde/stonemistress/internal/host"
)

const (
	toneAmplitude     = 0.5
	toneChannels      = 2
	playerBufferBytes = 8192
)

type options struct {
	in          string
	toneHz      float64
	toneRate    int
	seconds     float64
	rate        float64
	phaserDepth float64
	chorusDepth float64
	regen       float64
	color       bool
	parallel    bool
	block       int
	record      string
	midiPort    int
}

func main() {
	log.SetFlags(log.Lshortfile)

	defaults := core.DefaultProcessorConfig()

	var opt options
	flag.StringVar(&opt.in, "in", "", "input file (.wav, .mp3, .ogg); empty plays a sine tone")
	flag.Float64Var(&opt.toneHz, "tone", 440, "sine tone frequency in Hz when no -in is given")
	flag.IntVar(&opt.toneRate, "sr", int(defaults.SampleRate), "sample rate of the sine tone")
	flag.Float64Var(&opt.seconds, "seconds", 5, "sine tone length in seconds; 0 plays until interrupted")
	flag.Float64Var(&opt.rate, "rate", pedal.RateParam.Default, "LFO rate in Hz")
	flag.Float64Var(&opt.phaserDepth, "pd", pedal.PhaserDepthParam.Default, "phaser depth")
	flag.Float64Var(&opt.chorusDepth, "cd", pedal.ChorusDepthParam.Default, "chorus depth")
	flag.Float64Var(&opt.regen, "regen", pedal.DefaultChorusFeedback, "chorus regeneration gain in [0, 1]; 1 feeds the output back unscaled")
	flag.BoolVar(&opt.color, "color", false, "engage the color feedback path")
	flag.BoolVar(&opt.parallel, "parallel", false, "run phaser and chorus side by side instead of in series")
	flag.IntVar(&opt.block, "block", defaults.MaxBlockSize, "processing block size in frames")
	flag.StringVar(&opt.record, "record", "", "also write the processed output to this WAV file")
	flag.IntVar(&opt.midiPort, "midi", -1, "MIDI input port index for live control; -1 disables")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: stoneplay [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Plays a tone or audio file through the phaser/chorus pedal.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  stoneplay -tone 220 -seconds 10\n")
		fmt.Fprintf(os.Stderr, "  stoneplay -in guitar.wav -rate 0.5 -pd 0.06 -color\n")
		fmt.Fprintf(os.Stderr, "  stoneplay -in loop.ogg -parallel -record loop-stone.wav\n")
	}
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opt); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}

func run(ctx context.Context, opt options) error {
	if err := validate(opt); err != nil {
		return err
	}

	src, err := openSource(opt)
	if err != nil {
		return err
	}
	defer src.Close()

	routing := pedal.Serial
	if opt.parallel {
		routing = pedal.Parallel
	}

	engine, err := pedal.New(
		pedal.WithRateHz(opt.rate),
		pedal.WithPhaserDepth(opt.phaserDepth),
		pedal.WithChorusDepth(opt.chorusDepth),
		pedal.WithChorusFeedback(opt.regen),
		pedal.WithColor(opt.color),
		pedal.WithRouting(routing),
	)
	if err != nil {
		return err
	}

	cfg := core.ApplyProcessorOptions(
		core.WithSampleRate(float64(src.SampleRate())),
		core.WithMaxBlockSize(opt.block),
	)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := engine.Prepare(cfg.SampleRate, cfg.MaxBlockSize); err != nil {
		return err
	}
	defer engine.Release()

	log.Printf("%d Hz, %d channel(s), %d-frame blocks, %s routing",
		src.SampleRate(), src.Channels(), cfg.MaxBlockSize, routing)

	return play(ctx, engine, src, cfg.MaxBlockSize, opt)
}

func validate(opt options) error {
	if err := pedal.RateParam.Validate(opt.rate); err != nil {
		return err
	}
	if err := pedal.PhaserDepthParam.Validate(opt.phaserDepth); err != nil {
		return err
	}
	if err := pedal.ChorusDepthParam.Validate(opt.chorusDepth); err != nil {
		return err
	}
	if opt.block <= 0 {
		return fmt.Errorf("block size must be > 0: %d", opt.block)
	}
	if opt.seconds < 0 {
		return fmt.Errorf("seconds must be >= 0: %g", opt.seconds)
	}
	return nil
}

func openSource(opt options) (audioio.Source, error) {
	if opt.in != "" {
		return audioio.Open(opt.in)
	}

	frames := int(opt.seconds * float64(opt.toneRate))
	return audioio.NewTone(opt.toneHz, toneAmplitude, opt.toneRate, toneChannels, frames)
}

func play(ctx context.Context, engine *pedal.Engine, src audioio.Source, block int, opt options) error {
	stream, err := host.NewStreamer(engine, src, block)
	if err != nil {
		return err
	}

	otoCtx, err := oto.NewContext(stream.SampleRate(), stream.Channels(), host.BytesPerSample, playerBufferBytes)
	if err != nil {
		return fmt.Errorf("failed to open audio output: %w", err)
	}
	defer otoCtx.Close()

	player := otoCtx.NewPlayer()
	defer player.Close()

	var rec *recorder
	if opt.record != "" {
		rec, err = newRecorder(opt.record, stream.SampleRate(), stream.Channels())
		if err != nil {
			return err
		}
		stream.SetTap(rec.w.Write)
	}

	g, ctx := errgroup.WithContext(ctx)
	playCtx, done := context.WithCancel(ctx)

	g.Go(func() error {
		defer done()
		buf := make([]byte, playerBufferBytes)
		_, err := io.CopyBuffer(player, ctxReader{ctx: playCtx, r: stream}, buf)
		return err
	})

	if opt.midiPort >= 0 {
		g.Go(func() error {
			return listen(playCtx, engine, opt.midiPort)
		})
	}

	err = g.Wait()
	done()

	if rec != nil {
		if cerr := rec.Close(); cerr != nil && err == nil {
			err = cerr
		}
		log.Printf("recorded %s (output peak %.3f)", opt.record, engine.OutputPeak())
	}

	return err
}

// recorder writes the processed stream to a WAV file next to playback.
type recorder struct {
	f *os.File
	w *audioio.WAVWriter
}

func newRecorder(path string, sampleRate, channels int) (*recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	w, err := audioio.NewWAVWriter(f, sampleRate, channels)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &recorder{f: f, w: w}, nil
}

func (r *recorder) Close() error {
	if err := r.w.Close(); err != nil {
		r.f.Close()
		return err
	}
	return r.f.Close()
}

func listen(ctx context.Context, engine *pedal.Engine, port int) error {
	drv, err := rtmididrv.New()
	if err != nil {
		return fmt.Errorf("failed to initialize MIDI driver: %w", err)
	}
	defer func() {
		if err := drv.Close(); err != nil {
			log.Printf("failed to close MIDI driver: %v", err)
		}
	}()

	ins, err := drv.Ins()
	if err != nil {
		return fmt.Errorf("failed to get MIDI inputs: %w", err)
	}
	if port >= len(ins) {
		return fmt.Errorf("MIDI input %d not found (%d available)", port, len(ins))
	}

	log.Printf("listening on MIDI input %s", ins[port])

	return host.ListenMIDI(ctx, ins[port], host.DefaultControlMap(), engine, func(err error) {
		log.Printf("MIDI: %v", err)
	})
}

// ctxReader stops a copy loop once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
