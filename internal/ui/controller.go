// ABOUTME: Controller interface between the TUI and the soundboard
// ABOUTME: MixerController adapts a soundboard.Mixer for the model
package ui

import (
	"github.com/Soundboard/soundboard-go/pkg/audio"
	"github.com/Soundboard/soundboard-go/pkg/soundboard"
)

// GainStep is the gain change per +/- key press
const GainStep = 0.1

// PlayerStatus is a snapshot of one player for display
type PlayerStatus struct {
	ID        soundboard.PlayerID
	Filename  string
	State     soundboard.State
	Gain      float32
	Muted     bool
	Repeat    bool
	Level     float32
	Underruns int64
	Params    audio.Parameters
}

// Controller is what the TUI needs from the soundboard
type Controller interface {
	Players() []PlayerStatus
	TogglePlay(id soundboard.PlayerID) error
	Reset(id soundboard.PlayerID) error
	ToggleMute(id soundboard.PlayerID) error
	ToggleRepeat(id soundboard.PlayerID) error
	AdjustGain(id soundboard.PlayerID, delta float32) (float32, error)
	NextDevice() (string, error)
	NextMode() soundboard.Mode
	DeviceName() string
	Mode() soundboard.Mode
}

// MixerController drives a soundboard.Mixer
type MixerController struct {
	mixer *soundboard.Mixer
}

// NewMixerController wraps m
func NewMixerController(m *soundboard.Mixer) *MixerController {
	return &MixerController{mixer: m}
}

// Players returns a status snapshot for every registered player
func (c *MixerController) Players() []PlayerStatus {
	ids := c.mixer.Players()
	out := make([]PlayerStatus, 0, len(ids))
	for _, id := range ids {
		p, err := c.mixer.Player(id)
		if err != nil {
			// removed since Players was read
			continue
		}
		out = append(out, PlayerStatus{
			ID:        id,
			Filename:  p.Filename(),
			State:     p.State(),
			Gain:      p.Gain(),
			Muted:     p.Mute(),
			Repeat:    p.Repeat(),
			Level:     p.Level(),
			Underruns: p.Stats().Underruns,
			Params:    p.Parameters(),
		})
	}
	return out
}

// TogglePlay stops a playing player. A stopped player is fired again from
// the start of its file, so a finished sample can be replayed.
func (c *MixerController) TogglePlay(id soundboard.PlayerID) error {
	p, err := c.mixer.Player(id)
	if err != nil {
		return err
	}
	if p.IsPlaying() {
		return p.Stop()
	}
	if err := p.Reset(); err != nil {
		return err
	}
	return p.Play()
}

// Reset rewinds the player to the start of its file
func (c *MixerController) Reset(id soundboard.PlayerID) error {
	p, err := c.mixer.Player(id)
	if err != nil {
		return err
	}
	return p.Reset()
}

func (c *MixerController) ToggleMute(id soundboard.PlayerID) error {
	p, err := c.mixer.Player(id)
	if err != nil {
		return err
	}
	p.SetMute(!p.Mute())
	return nil
}

func (c *MixerController) ToggleRepeat(id soundboard.PlayerID) error {
	p, err := c.mixer.Player(id)
	if err != nil {
		return err
	}
	p.SetRepeat(!p.Repeat())
	return nil
}

// AdjustGain adds delta to the gain and returns the clamped result
func (c *MixerController) AdjustGain(id soundboard.PlayerID, delta float32) (float32, error) {
	p, err := c.mixer.Player(id)
	if err != nil {
		return 0, err
	}
	return p.SetGain(p.Gain() + delta), nil
}

// NextDevice selects the stereo device after the current one, wrapping
// around, and returns its name
func (c *MixerController) NextDevice() (string, error) {
	devices, err := c.mixer.Devices()
	if err != nil {
		return "", err
	}
	if len(devices) == 0 {
		return "", soundboard.ErrUnknownDevice
	}

	current := c.mixer.Device().Index
	next := devices[0]
	for i, d := range devices {
		if d.Index == current {
			next = devices[(i+1)%len(devices)]
			break
		}
	}
	if err := c.mixer.SetDevice(next.Index); err != nil {
		return "", err
	}
	return next.Name, nil
}

// NextMode cycles the routing mode
func (c *MixerController) NextMode() soundboard.Mode {
	mode := c.mixer.Mode().Next()
	c.mixer.SetMode(mode)
	return mode
}

func (c *MixerController) DeviceName() string {
	return c.mixer.DeviceName()
}

func (c *MixerController) Mode() soundboard.Mode {
	return c.mixer.Mode()
}
