// ABOUTME: Oto-based output backend
// ABOUTME: Float32 stereo playback on the default device through oto
package output

import (
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// oto allows one context per process, fixed to the first sample rate
var otoShared struct {
	mu         sync.Mutex
	ctx        *oto.Context
	sampleRate int
}

// Oto plays through the oto library on the system default device
type Oto struct{}

// NewOto creates an oto backend. The context is created by the first stream.
func NewOto() *Oto {
	return &Oto{}
}

// Name returns "oto"
func (o *Oto) Name() string {
	return "oto"
}

// Devices returns the single default device oto can address
func (o *Oto) Devices() ([]Device, error) {
	return []Device{{Index: 0, Name: "default", OutputChannels: Channels, Default: true}}, nil
}

// DefaultDevice returns the default device
func (o *Oto) DefaultDevice() (Device, error) {
	devices, _ := o.Devices()
	return devices[0], nil
}

func otoContext(cfg StreamConfig) (*oto.Context, error) {
	otoShared.mu.Lock()
	defer otoShared.mu.Unlock()

	if otoShared.ctx != nil {
		// oto cannot be reinitialized and there is no resampling
		if otoShared.sampleRate != cfg.SampleRate {
			return nil, fmt.Errorf("oto context runs at %dHz, cannot open a %dHz stream",
				otoShared.sampleRate, cfg.SampleRate)
		}
		return otoShared.ctx, nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: Channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   cfg.Latency,
	}
	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	otoShared.ctx = ctx
	otoShared.sampleRate = cfg.SampleRate
	log.Printf("Oto context initialized: %dHz, %d channels", cfg.SampleRate, Channels)
	return ctx, nil
}

// OpenStream creates a paused player pulling from feed
func (o *Oto) OpenStream(cfg StreamConfig, feed FeedFunc) (Stream, error) {
	if cfg.Device.Index != 0 {
		return nil, fmt.Errorf("%w: index %d", ErrNoDevice, cfg.Device.Index)
	}
	ctx, err := otoContext(cfg)
	if err != nil {
		return nil, err
	}

	s := newStream(feed)
	d := &otoDriver{stream: s}
	d.player = ctx.NewPlayer(d)
	s.drv = d
	return s, nil
}

// Close is a no-op; the process-wide context stays alive
func (o *Oto) Close() error {
	return nil
}

type otoDriver struct {
	player *oto.Player
	stream *stream
	buf    []float32
}

// Read is called by the oto player to pull whole stereo frames
func (d *otoDriver) Read(p []byte) (int, error) {
	const frameBytes = 4 * Channels
	n := len(p) / frameBytes * Channels
	if n == 0 {
		return 0, nil
	}
	if cap(d.buf) < n {
		d.buf = make([]float32, n)
	}
	samples := d.buf[:n]
	d.stream.fill(samples)

	for i, v := range samples {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}
	return n * 4, nil
}

func (d *otoDriver) start() error {
	d.player.Play()
	return nil
}

func (d *otoDriver) stop() error {
	d.player.Pause()
	return nil
}

func (d *otoDriver) close() error {
	return d.player.Close()
}
