// ABOUTME: Soundboard player
// ABOUTME: Owns a decoder and output stream, applies gain, mute, routing and level metering
package soundboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Soundboard/soundboard-go/pkg/audio"
	"github.com/Soundboard/soundboard-go/pkg/audio/decode"
	"github.com/Soundboard/soundboard-go/pkg/audio/output"
)

const (
	// MaxGain is the largest accepted gain
	MaxGain = 2.0
	// DefaultGain is the gain of a new player
	DefaultGain = 1.0
)

// Player plays one file at a time. Control methods may be called from any
// goroutine; the feed runs on the backend's real-time goroutine and only
// touches atomics and the decoder.
type Player struct {
	id     PlayerID
	mixer  *Mixer
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	filename string
	dec      decode.Decoder
	stream   output.Stream
	params   audio.Parameters

	gain      atomic.Uint32 // float32 bits
	mute      atomic.Bool
	repeat    atomic.Bool
	level     atomic.Uint32 // float32 bits
	underruns atomic.Int64
	played    atomic.Int64
}

func newPlayer(id PlayerID, m *Mixer) *Player {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Player{
		id:     id,
		mixer:  m,
		ctx:    ctx,
		cancel: cancel,
		params: audio.UnknownParameters(),
	}
	p.gain.Store(math.Float32bits(DefaultGain))
	return p
}

// ID returns the player's registry id
func (p *Player) ID() PlayerID {
	return p.id
}

// Open closes any current file and opens path. On failure the player is
// left closed.
func (p *Player) Open(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.openLocked(path)
}

func (p *Player) openLocked(path string) error {
	if err := p.closeLocked(); err != nil {
		log.Printf("Player %d: error closing %s: %v", p.id, p.filename, err)
	}

	dec, err := p.mixer.newDecoder(path)
	if err != nil {
		return err
	}
	dec.SetAutoRewind(p.repeat.Load())

	if err := dec.Open(path); err != nil {
		dec.Close()
		return err
	}
	if err := dec.Start(); err != nil {
		dec.Close()
		return err
	}

	params := dec.Parameters()
	stream, err := p.openStream(dec, params.SampleRateHz, p.mixer.Device())
	if err != nil {
		dec.Close()
		return err
	}

	p.filename = path
	p.dec = dec
	p.stream = stream
	p.params = params
	p.underruns.Store(0)
	p.played.Store(0)
	log.Printf("Player %d: opened %s (%s)", p.id, path, params)
	return nil
}

func (p *Player) openStream(dec decode.Decoder, sampleRate int, device output.Device) (output.Stream, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", decode.ErrBadParameters, sampleRate)
	}
	cfg := output.StreamConfig{
		Device:          device,
		SampleRate:      sampleRate,
		FramesPerBuffer: p.mixer.framesPerBuffer,
		Latency:         p.mixer.latency,
	}
	stream, err := p.mixer.backend.OpenStream(cfg, p.feed(dec, sampleRate))
	if err != nil {
		return nil, fmt.Errorf("failed to open output on %s: %w", device.Name, err)
	}
	return stream, nil
}

// Play starts output. Playing an already playing player does nothing; a
// stream that finished but has not stopped yet is re-armed.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return ErrNotOpen
	}
	if err := p.stream.Start(); err != nil {
		return fmt.Errorf("failed to start output: %w", err)
	}
	return nil
}

// Stop pauses output and zeroes the level meter
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopLocked()
}

func (p *Player) stopLocked() error {
	if p.stream == nil || !p.stream.Active() {
		return nil
	}
	err := p.stream.Stop()
	p.level.Store(0)
	if err != nil {
		return fmt.Errorf("failed to stop output: %w", err)
	}
	return nil
}

// Reset stops and reopens the current file with a fresh decoder
func (p *Player) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.filename == "" {
		return ErrNotOpen
	}
	path := p.filename
	if err := p.stopLocked(); err != nil {
		return err
	}
	return p.openLocked(path)
}

// Close releases the output stream and decoder
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeLocked()
}

func (p *Player) closeLocked() error {
	var errs []error
	if p.stream != nil {
		if err := p.stream.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close output: %w", err))
		}
		p.stream = nil
	}
	if p.dec != nil {
		if err := p.dec.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close decoder: %w", err))
		}
		p.dec = nil
	}
	p.filename = ""
	p.params = audio.UnknownParameters()
	p.level.Store(0)
	return errors.Join(errs...)
}

// rebind stops the player and moves its output to device, keeping the
// decoder and its position
func (p *Player) rebind(device output.Device) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return nil
	}
	p.level.Store(0)
	if err := p.stream.Close(); err != nil {
		log.Printf("Player %d: error closing output: %v", p.id, err)
	}
	p.stream = nil

	stream, err := p.openStream(p.dec, p.params.SampleRateHz, device)
	if err != nil {
		// without an output the player cannot play; release the file too
		p.closeLocked()
		return fmt.Errorf("player %d: %w", p.id, err)
	}
	p.stream = stream
	return nil
}

// destroy closes the player and ends its context
func (p *Player) destroy() error {
	err := p.Close()
	p.cancel()
	return err
}

// SetGain clamps v to [0, MaxGain], stores it and returns the stored value
func (p *Player) SetGain(v float32) float32 {
	if math.IsNaN(float64(v)) {
		v = 0
	}
	v = audio.Clamp(v, 0, MaxGain)
	p.gain.Store(math.Float32bits(v))
	return v
}

// Gain returns the current gain
func (p *Player) Gain() float32 {
	return math.Float32frombits(p.gain.Load())
}

// SetMute silences output without touching the decoder
func (p *Player) SetMute(muted bool) {
	p.mute.Store(muted)
}

// Mute reports whether the player is muted
func (p *Player) Mute() bool {
	return p.mute.Load()
}

// SetRepeat turns looping on or off for the current and future files
func (p *Player) SetRepeat(repeat bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.repeat.Store(repeat)
	if p.dec != nil {
		p.dec.SetAutoRewind(repeat)
	}
}

// Repeat reports whether looping is on
func (p *Player) Repeat() bool {
	return p.repeat.Load()
}

// Level returns the peak level of the last rendered buffer
func (p *Player) Level() float32 {
	return math.Float32frombits(p.level.Load())
}

// Filename returns the open file, or "" when closed
func (p *Player) Filename() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filename
}

// State returns closed, stopped or playing
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.stream == nil:
		return StateClosed
	case p.stream.Active():
		return StatePlaying
	default:
		return StateStopped
	}
}

// IsPlaying reports whether output is running
func (p *Player) IsPlaying() bool {
	return p.State() == StatePlaying
}

// Parameters returns the decoded stream parameters
func (p *Player) Parameters() audio.Parameters {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.params
}

// Stats returns underrun and decoder counters
func (p *Player) Stats() Stats {
	p.mu.Lock()
	dec := p.dec
	p.mu.Unlock()

	s := Stats{Underruns: p.underruns.Load(), Played: p.played.Load()}
	if dec != nil {
		ds := dec.Stats()
		s.Queued = ds.Queued
		s.DecodeErrors = ds.DecodeErrors
	}
	return s
}

// popWait is how long the feed waits for n frames at sampleRate: half a
// buffer period, leaving the other half to deliver the padded buffer
func popWait(n, sampleRate int) time.Duration {
	if n <= 0 || sampleRate <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(sampleRate) / 2
}

// feed returns the real-time callback for dec. It waits at most half a
// buffer period for frames and pads a short buffer with silence.
func (p *Player) feed(dec decode.Decoder, sampleRate int) output.FeedFunc {
	return func(out []float32) output.Result {
		n := len(out) / output.Channels

		ctx, cancel := context.WithTimeout(p.ctx, popWait(n, sampleRate))
		frames, err := dec.PopFrames(ctx, n)
		cancel()

		switch {
		case err == nil && len(frames) == 0:
			clear(out)
			p.level.Store(0)
			return output.Complete
		case errors.Is(err, context.DeadlineExceeded):
			p.underruns.Add(1)
		case err != nil:
			clear(out)
			p.level.Store(0)
			return output.Abort
		}

		p.played.Add(int64(len(frames)))
		p.render(out, frames)
		return output.Continue
	}
}

// render writes frames with gain and routing applied, zero-fills the rest
// of out and updates the level meter
func (p *Player) render(out []float32, frames []audio.Frame) {
	gain := p.Gain()
	if p.mute.Load() {
		gain = 0
	}
	mode := p.mixer.Mode()

	var peakL, peakR float32
	for i, f := range frames {
		l := f.Left * gain
		r := f.Right * gain
		peakL = max(peakL, abs(l))
		peakR = max(peakR, abs(r))

		switch mode {
		case ModeLeft:
			l, r = (l+r)/2, 0
		case ModeRight:
			l, r = 0, (l+r)/2
		}
		out[2*i] = l
		out[2*i+1] = r
	}
	clear(out[2*len(frames):])

	p.level.Store(math.Float32bits((peakL + peakR) / 2))
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
