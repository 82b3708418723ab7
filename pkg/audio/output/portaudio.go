//go:build portaudio

// ABOUTME: PortAudio output backend
// ABOUTME: Float32 stereo callback streams on any PortAudio host device
package output

import (
	"fmt"
	"log"

	"github.com/gordonklaus/portaudio"
)

// PortAudio plays through the PortAudio library
type PortAudio struct{}

// NewPortAudio initializes PortAudio
func NewPortAudio() (*PortAudio, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}
	return &PortAudio{}, nil
}

func openPortAudio() (Backend, error) {
	p, err := NewPortAudio()
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Name returns "portaudio"
func (p *PortAudio) Name() string {
	return "portaudio"
}

// Devices lists every PortAudio device, input-only ones included
func (p *PortAudio) Devices() ([]Device, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	def, err := portaudio.DefaultOutputDevice()
	if err != nil {
		def = nil
	}

	devices := make([]Device, 0, len(infos))
	for i, info := range infos {
		devices = append(devices, Device{
			Index:          i,
			Name:           info.Name,
			OutputChannels: info.MaxOutputChannels,
			Default:        def != nil && info.Name == def.Name && info.HostApi == def.HostApi,
		})
	}
	return devices, nil
}

// DefaultDevice returns the default output device
func (p *PortAudio) DefaultDevice() (Device, error) {
	devices, err := p.Devices()
	if err != nil {
		return Device{}, err
	}
	return defaultDevice(devices)
}

// OpenStream opens a stopped float32 stereo stream on the configured device
func (p *PortAudio) OpenStream(cfg StreamConfig, feed FeedFunc) (Stream, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	if cfg.Device.Index < 0 || cfg.Device.Index >= len(infos) {
		return nil, fmt.Errorf("%w: index %d", ErrNoDevice, cfg.Device.Index)
	}

	s := newStream(feed)
	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   infos[cfg.Device.Index],
			Channels: Channels,
			Latency:  cfg.Latency,
		},
		SampleRate:      float64(cfg.SampleRate),
		FramesPerBuffer: cfg.FramesPerBuffer,
	}

	paStream, err := portaudio.OpenStream(params, func(out []float32) {
		s.fill(out)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open stream on %q: %w", cfg.Device.Name, err)
	}
	s.drv = &portAudioDriver{stream: paStream}

	log.Printf("Output stream opened: %dHz, %d channels, float32 (portaudio/%s)",
		cfg.SampleRate, Channels, cfg.Device.Name)
	return s, nil
}

// Close terminates PortAudio
func (p *PortAudio) Close() error {
	return portaudio.Terminate()
}

type portAudioDriver struct {
	stream *portaudio.Stream
}

func (d *portAudioDriver) start() error {
	return d.stream.Start()
}

func (d *portAudioDriver) stop() error {
	return d.stream.Stop()
}

func (d *portAudioDriver) close() error {
	return d.stream.Close()
}
