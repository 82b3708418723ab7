// ABOUTME: Audio output binding definitions
// ABOUTME: Backend, Stream and device types shared by every playback library
package output

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Channels is the fixed output channel count; samples are interleaved L/R
const Channels = 2

var (
	// ErrUnknownBackend is returned by New for an unregistered name
	ErrUnknownBackend = errors.New("unknown output backend")
	// ErrNoDevice is returned when a requested device does not exist
	ErrNoDevice = errors.New("no such output device")
	// ErrUnavailable is returned for backends not compiled into the binary
	ErrUnavailable = errors.New("output backend not available")
	// ErrClosed is returned when starting a closed stream
	ErrClosed = errors.New("stream closed")
)

// Result is returned by a FeedFunc to tell the stream how to proceed
type Result int

const (
	// Continue keeps the stream running
	Continue Result = iota
	// Complete plays the buffer just written, then stops the stream
	Complete
	// Abort discards the buffer and stops the stream
	Abort
)

func (r Result) String() string {
	switch r {
	case Continue:
		return "continue"
	case Complete:
		return "complete"
	case Abort:
		return "abort"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}

// FeedFunc fills out with interleaved stereo float32 samples. It runs on the
// backend's real-time goroutine and must not block past the buffer period.
type FeedFunc func(out []float32) Result

// Device describes an output device
type Device struct {
	// Index is the device's position in the backend's device list
	Index          int
	Name           string
	OutputChannels int
	Default        bool
}

func (d Device) String() string {
	if d.Default {
		return fmt.Sprintf("%d: %s (%dch, default)", d.Index, d.Name, d.OutputChannels)
	}
	return fmt.Sprintf("%d: %s (%dch)", d.Index, d.Name, d.OutputChannels)
}

// StreamConfig configures an output stream
type StreamConfig struct {
	Device          Device
	SampleRate      int
	FramesPerBuffer int
	Latency         time.Duration
}

// Backend is a playback library binding
type Backend interface {
	Name() string
	Devices() ([]Device, error)
	DefaultDevice() (Device, error)
	OpenStream(cfg StreamConfig, feed FeedFunc) (Stream, error)
	Close() error
}

// Stream is one open playback stream. After its feed returns Complete or
// Abort the stream stops itself and Active turns false; Start re-arms it.
type Stream interface {
	Start() error
	Stop() error
	Close() error
	Active() bool
}

// StereoDevices keeps the devices with at least two output channels
func StereoDevices(devices []Device) []Device {
	var out []Device
	for _, d := range devices {
		if d.OutputChannels >= Channels {
			out = append(out, d)
		}
	}
	return out
}

var backends = map[string]func() (Backend, error){
	"malgo": func() (Backend, error) {
		m, err := NewMalgo()
		if err != nil {
			return nil, err
		}
		return m, nil
	},
	"portaudio": openPortAudio,
	"oto": func() (Backend, error) {
		return NewOto(), nil
	},
	"null": func() (Backend, error) {
		return NewNull(), nil
	},
}

// Names lists the backends New accepts
func Names() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New opens the backend with the given name
func New(name string) (Backend, error) {
	open, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (choose from %v)", ErrUnknownBackend, name, Names())
	}
	return open()
}

func findDevice(devices []Device, index int) (Device, error) {
	for _, d := range devices {
		if d.Index == index {
			return d, nil
		}
	}
	return Device{}, fmt.Errorf("%w: index %d", ErrNoDevice, index)
}

func defaultDevice(devices []Device) (Device, error) {
	for _, d := range devices {
		if d.Default {
			return d, nil
		}
	}
	if len(devices) > 0 {
		return devices[0], nil
	}
	return Device{}, ErrNoDevice
}
