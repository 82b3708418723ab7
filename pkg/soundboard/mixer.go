// ABOUTME: Soundboard mixer
// ABOUTME: Player registry with shared output device and routing mode selection
package soundboard

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Soundboard/soundboard-go/pkg/audio/decode"
	"github.com/Soundboard/soundboard-go/pkg/audio/output"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultFramesPerBuffer is used when Config leaves it zero
	DefaultFramesPerBuffer = 512
	// DefaultLatency is used when Config leaves it zero
	DefaultLatency = 100 * time.Millisecond
)

// Config configures a Mixer
type Config struct {
	Backend         output.Backend
	FramesPerBuffer int
	Latency         time.Duration
	Mode            Mode
}

// Mixer owns the players and the shared device and mode selection
type Mixer struct {
	backend         output.Backend
	framesPerBuffer int
	latency         time.Duration
	mode            atomic.Int32

	// newDecoder picks a decoder for a file; replaced in tests
	newDecoder func(path string) (decode.Decoder, error)

	mu      sync.Mutex
	players map[PlayerID]*Player
	lastID  PlayerID
	device  output.Device
}

// NewMixer creates a mixer on the backend's default stereo device
func NewMixer(cfg Config) (*Mixer, error) {
	if cfg.Backend == nil {
		return nil, errors.New("mixer needs an output backend")
	}
	if cfg.FramesPerBuffer <= 0 {
		cfg.FramesPerBuffer = DefaultFramesPerBuffer
	}
	if cfg.Latency <= 0 {
		cfg.Latency = DefaultLatency
	}

	m := &Mixer{
		backend:         cfg.Backend,
		framesPerBuffer: cfg.FramesPerBuffer,
		latency:         cfg.Latency,
		newDecoder:      decode.NewForPath,
		players:         make(map[PlayerID]*Player),
	}
	m.mode.Store(int32(cfg.Mode))

	device, err := m.defaultDevice()
	if err != nil {
		return nil, err
	}
	m.device = device
	log.Printf("Mixer using %s device %s", cfg.Backend.Name(), device)
	return m, nil
}

// defaultDevice returns the backend default, or the first stereo device
// when the default has fewer than two outputs
func (m *Mixer) defaultDevice() (output.Device, error) {
	devices, err := m.Devices()
	if err != nil {
		return output.Device{}, err
	}
	if len(devices) == 0 {
		return output.Device{}, fmt.Errorf("%w: no stereo output devices", ErrUnknownDevice)
	}
	def, err := m.backend.DefaultDevice()
	if err == nil {
		for _, d := range devices {
			if d.Index == def.Index {
				return d, nil
			}
		}
	}
	return devices[0], nil
}

// NewPlayer registers a closed player and returns its id
func (m *Mixer) NewPlayer() PlayerID {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastID++
	id := m.lastID
	m.players[id] = newPlayer(id, m)
	return id
}

// Player returns the player registered under id
func (m *Mixer) Player(id PlayerID) (*Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrPlayerNotFound, id)
	}
	return p, nil
}

// RemovePlayer closes the player and forgets its id
func (m *Mixer) RemovePlayer(id PlayerID) error {
	m.mu.Lock()
	p, ok := m.players[id]
	delete(m.players, id)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %d", ErrPlayerNotFound, id)
	}
	return p.destroy()
}

// Players returns the registered ids in ascending order
func (m *Mixer) Players() []PlayerID {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]PlayerID, 0, len(m.players))
	for id := range m.players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (m *Mixer) snapshot() []*Player {
	m.mu.Lock()
	defer m.mu.Unlock()

	players := make([]*Player, 0, len(m.players))
	for _, p := range m.players {
		players = append(players, p)
	}
	return players
}

// Devices lists output devices with at least two channels
func (m *Mixer) Devices() ([]output.Device, error) {
	devices, err := m.backend.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return output.StereoDevices(devices), nil
}

// Device returns the selected output device
func (m *Mixer) Device() output.Device {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.device
}

// DeviceName returns the selected device's name
func (m *Mixer) DeviceName() string {
	return m.Device().Name
}

// DeviceByName finds a stereo device by exact name
func (m *Mixer) DeviceByName(name string) (output.Device, error) {
	devices, err := m.Devices()
	if err != nil {
		return output.Device{}, err
	}
	for _, d := range devices {
		if d.Name == name {
			return d, nil
		}
	}
	return output.Device{}, fmt.Errorf("%w: %q", ErrUnknownDevice, name)
}

// SetDevice selects the device with the given index. Every player is
// stopped and its output moved to the new device; decoders keep their
// position, so Play resumes where the player was.
func (m *Mixer) SetDevice(index int) error {
	devices, err := m.Devices()
	if err != nil {
		return err
	}
	var device output.Device
	found := false
	for _, d := range devices {
		if d.Index == index {
			device, found = d, true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: index %d", ErrUnknownDevice, index)
	}

	m.mu.Lock()
	m.device = device
	m.mu.Unlock()
	log.Printf("Output device set to %s", device)

	var g errgroup.Group
	for _, p := range m.snapshot() {
		g.Go(func() error {
			return p.rebind(device)
		})
	}
	return g.Wait()
}

// SetDefaultDevice selects the backend's default device
func (m *Mixer) SetDefaultDevice() error {
	device, err := m.defaultDevice()
	if err != nil {
		return err
	}
	return m.SetDevice(device.Index)
}

// SetMode changes channel routing for every player, effective from the next
// buffer
func (m *Mixer) SetMode(mode Mode) {
	m.mode.Store(int32(mode))
}

// Mode returns the channel routing mode
func (m *Mixer) Mode() Mode {
	return Mode(m.mode.Load())
}

// Backend returns the output backend
func (m *Mixer) Backend() output.Backend {
	return m.backend
}

// Close removes every player and closes the backend
func (m *Mixer) Close() error {
	m.mu.Lock()
	players := m.players
	m.players = make(map[PlayerID]*Player)
	m.mu.Unlock()

	var g errgroup.Group
	for _, p := range players {
		g.Go(p.destroy)
	}
	err := g.Wait()
	if cerr := m.backend.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
