// ABOUTME: Manually driven output backend
// ABOUTME: Streams render one buffer per Pump call, for offline rendering and tests
package output

import (
	"fmt"
	"sync"
)

// Manual is a backend whose streams only render when pumped by the caller
type Manual struct {
	mu      sync.Mutex
	devices []Device
	streams []*ManualStream
}

// NewManual creates a backend with the given devices, or one stereo default
// device when none are given
func NewManual(devices ...Device) *Manual {
	if len(devices) == 0 {
		devices = []Device{{Index: 0, Name: "manual", OutputChannels: Channels, Default: true}}
	}
	return &Manual{devices: append([]Device(nil), devices...)}
}

// Name returns "manual"
func (m *Manual) Name() string {
	return "manual"
}

// Devices returns the configured devices
func (m *Manual) Devices() ([]Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Device(nil), m.devices...), nil
}

// DefaultDevice returns the device flagged default, or the first one
func (m *Manual) DefaultDevice() (Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return defaultDevice(m.devices)
}

// OpenStream creates a stopped stream
func (m *Manual) OpenStream(cfg StreamConfig, feed FeedFunc) (Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := findDevice(m.devices, cfg.Device.Index); err != nil {
		return nil, err
	}
	if cfg.FramesPerBuffer <= 0 {
		return nil, fmt.Errorf("manual stream needs FramesPerBuffer, got %d", cfg.FramesPerBuffer)
	}

	s := &ManualStream{
		stream: newStream(feed),
		config: cfg,
		buf:    make([]float32, cfg.FramesPerBuffer*Channels),
	}
	s.drv = manualDriver{}
	s.inline = true
	m.streams = append(m.streams, s)
	return s, nil
}

// Streams returns every stream opened so far, closed ones included
func (m *Manual) Streams() []*ManualStream {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*ManualStream(nil), m.streams...)
}

// Close is a no-op
func (m *Manual) Close() error {
	return nil
}

// ManualStream renders on demand
type ManualStream struct {
	*stream
	config StreamConfig
	buf    []float32
}

// Config returns the configuration the stream was opened with
func (s *ManualStream) Config() StreamConfig {
	return s.config
}

// Pump runs the feed for one buffer if the stream is active and returns the
// rendered samples, or nil when stopped. The slice is reused by the next call.
func (s *ManualStream) Pump() []float32 {
	if !s.Active() {
		return nil
	}
	s.fill(s.buf)
	return s.buf
}

type manualDriver struct{}

func (manualDriver) start() error { return nil }
func (manualDriver) stop() error  { return nil }
func (manualDriver) close() error { return nil }
