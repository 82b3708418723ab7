// ABOUTME: Soundboard value types and errors
// ABOUTME: Player ids, routing modes, player states and sentinel errors
package soundboard

import (
	"errors"
	"fmt"
)

var (
	// ErrPlayerNotFound is returned for ids that are not registered
	ErrPlayerNotFound = errors.New("player not found")
	// ErrUnknownDevice is returned when selecting a device that does not exist
	ErrUnknownDevice = errors.New("unknown output device")
	// ErrNotOpen is returned when a player has no file open
	ErrNotOpen = errors.New("player not open")
	// ErrUnknownMode is returned by ParseMode
	ErrUnknownMode = errors.New("unknown routing mode")
)

// PlayerID identifies a player in a Mixer. Ids start at 1 and are never
// reused.
type PlayerID int

// Mode selects how players are routed to the two output channels
type Mode int32

const (
	// ModeStereo plays left and right as decoded
	ModeStereo Mode = iota
	// ModeLeft mixes both channels down to the left output
	ModeLeft
	// ModeRight mixes both channels down to the right output
	ModeRight
)

var modeNames = [...]string{
	ModeStereo: "stereo",
	ModeLeft:   "left",
	ModeRight:  "right",
}

func (m Mode) String() string {
	if m >= 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Next cycles stereo, left, right
func (m Mode) Next() Mode {
	return (m + 1) % Mode(len(modeNames))
}

// ParseMode accepts "stereo", "left" or "right"
func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if s == name {
			return Mode(i), nil
		}
	}
	return ModeStereo, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// State is a player's lifecycle state
type State int

const (
	StateClosed State = iota
	StateStopped
	StatePlaying
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Stats holds a player's playback counters
type Stats struct {
	// Underruns counts buffers the decoder could not fill in time
	Underruns int64
	// Played counts decoded frames rendered since Open, padding excluded
	Played int64
	// Queued is the number of decoded frames waiting
	Queued int
	// DecodeErrors counts skipped corrupt frames
	DecodeErrors int64
}
