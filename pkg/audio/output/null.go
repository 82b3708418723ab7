// ABOUTME: Null output backend
// ABOUTME: Runs feeds in real time on a ticker and discards the audio
package output

import (
	"fmt"
	"sync"
	"time"
)

const nullFramesPerBuffer = 512

// Null consumes audio at the stream's sample rate without playing it.
// It is used for headless runs and tests.
type Null struct{}

// NewNull creates a null backend
func NewNull() *Null {
	return &Null{}
}

// Name returns "null"
func (n *Null) Name() string {
	return "null"
}

// Devices returns one virtual stereo device
func (n *Null) Devices() ([]Device, error) {
	return []Device{{Index: 0, Name: "null", OutputChannels: Channels, Default: true}}, nil
}

// DefaultDevice returns the virtual device
func (n *Null) DefaultDevice() (Device, error) {
	devices, _ := n.Devices()
	return devices[0], nil
}

// OpenStream creates a stopped stream paced by a ticker
func (n *Null) OpenStream(cfg StreamConfig, feed FeedFunc) (Stream, error) {
	if cfg.Device.Index != 0 {
		return nil, fmt.Errorf("%w: index %d", ErrNoDevice, cfg.Device.Index)
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", cfg.SampleRate)
	}
	frames := cfg.FramesPerBuffer
	if frames <= 0 {
		frames = nullFramesPerBuffer
	}

	s := newStream(feed)
	s.drv = &nullDriver{
		stream: s,
		buf:    make([]float32, frames*Channels),
		period: time.Duration(frames) * time.Second / time.Duration(cfg.SampleRate),
	}
	return s, nil
}

// Close is a no-op
func (n *Null) Close() error {
	return nil
}

type nullDriver struct {
	stream *stream
	buf    []float32
	period time.Duration

	quit chan struct{}
	wg   sync.WaitGroup
}

func (d *nullDriver) start() error {
	d.quit = make(chan struct{})
	d.wg.Add(1)
	go d.run(d.quit)
	return nil
}

func (d *nullDriver) run(quit chan struct{}) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.period)
	defer ticker.Stop()

	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			d.stream.fill(d.buf)
		}
	}
}

func (d *nullDriver) stop() error {
	if d.quit != nil {
		close(d.quit)
		d.quit = nil
	}
	d.wg.Wait()
	return nil
}

func (d *nullDriver) close() error {
	return nil
}
