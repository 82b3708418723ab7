// ABOUTME: Malgo-based output backend
// ABOUTME: Float32 stereo playback devices through miniaudio
package output

import (
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
)

// Malgo plays through miniaudio
type Malgo struct {
	mu       sync.Mutex
	malgoCtx *malgo.AllocatedContext
}

// NewMalgo initializes a miniaudio context
func NewMalgo() (*Malgo, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	return &Malgo{malgoCtx: ctx}, nil
}

// Name returns "malgo"
func (m *Malgo) Name() string {
	return "malgo"
}

// Devices lists playback devices. miniaudio reports 0 channels for devices
// that accept any count; those are listed as stereo.
func (m *Malgo) Devices() ([]Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	infos, err := m.playbackInfos()
	if err != nil {
		return nil, err
	}

	devices := make([]Device, 0, len(infos))
	for i := range infos {
		devices = append(devices, Device{
			Index:          i,
			Name:           infos[i].Name(),
			OutputChannels: m.maxChannels(infos[i]),
			Default:        infos[i].IsDefault != 0,
		})
	}
	return devices, nil
}

// DefaultDevice returns the system default playback device
func (m *Malgo) DefaultDevice() (Device, error) {
	devices, err := m.Devices()
	if err != nil {
		return Device{}, err
	}
	return defaultDevice(devices)
}

func (m *Malgo) playbackInfos() ([]malgo.DeviceInfo, error) {
	if m.malgoCtx == nil {
		return nil, ErrClosed
	}
	infos, err := m.malgoCtx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("failed to list playback devices: %w", err)
	}
	return infos, nil
}

func (m *Malgo) maxChannels(info malgo.DeviceInfo) int {
	full, err := m.malgoCtx.DeviceInfo(malgo.Playback, info.ID, malgo.Shared)
	if err != nil {
		return Channels
	}
	channels := 0
	for _, f := range full.Formats[:full.FormatCount] {
		if int(f.Channels) > channels {
			channels = int(f.Channels)
		}
	}
	if channels == 0 {
		return Channels
	}
	return channels
}

// OpenStream creates a stopped float32 stereo playback device
func (m *Malgo) OpenStream(cfg StreamConfig, feed FeedFunc) (Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	infos, err := m.playbackInfos()
	if err != nil {
		return nil, err
	}
	if cfg.Device.Index < 0 || cfg.Device.Index >= len(infos) {
		return nil, fmt.Errorf("%w: index %d", ErrNoDevice, cfg.Device.Index)
	}

	d := &malgoDriver{id: infos[cfg.Device.Index].ID}
	s := newStream(feed)
	s.drv = d
	d.stream = s

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = Channels
	deviceConfig.Playback.DeviceID = d.id.Pointer()
	deviceConfig.SampleRate = uint32(cfg.SampleRate)
	if cfg.FramesPerBuffer > 0 {
		deviceConfig.PeriodSizeInFrames = uint32(cfg.FramesPerBuffer)
	} else if cfg.Latency > 0 {
		deviceConfig.PeriodSizeInMilliseconds = uint32(cfg.Latency.Milliseconds())
	}
	deviceConfig.Alsa.NoMMap = 1

	callbacks := malgo.DeviceCallbacks{
		Data: d.data,
	}

	device, err := malgo.InitDevice(m.malgoCtx.Context, deviceConfig, callbacks)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize playback device %q: %w", cfg.Device.Name, err)
	}
	d.device = device

	log.Printf("Output stream opened: %dHz, %d channels, float32 (malgo/%s)",
		cfg.SampleRate, Channels, cfg.Device.Name)
	return s, nil
}

// Close releases the miniaudio context. Streams must be closed first.
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.malgoCtx == nil {
		return nil
	}
	if err := m.malgoCtx.Uninit(); err != nil {
		log.Printf("Warning: malgo context uninit error: %v", err)
	}
	m.malgoCtx.Free()
	m.malgoCtx = nil
	return nil
}

type malgoDriver struct {
	id     malgo.DeviceID
	device *malgo.Device
	stream *stream
	buf    []float32
}

// data is called by miniaudio to fill the playback buffer
func (d *malgoDriver) data(pOutput, _ []byte, frameCount uint32) {
	n := int(frameCount) * Channels
	if cap(d.buf) < n {
		d.buf = make([]float32, n)
	}
	samples := d.buf[:n]
	d.stream.fill(samples)

	for i, v := range samples {
		binary.LittleEndian.PutUint32(pOutput[i*4:], math.Float32bits(v))
	}
}

func (d *malgoDriver) start() error {
	if err := d.device.Start(); err != nil {
		return fmt.Errorf("failed to start device: %w", err)
	}
	return nil
}

func (d *malgoDriver) stop() error {
	if err := d.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop device: %w", err)
	}
	return nil
}

func (d *malgoDriver) close() error {
	d.device.Uninit()
	return nil
}
