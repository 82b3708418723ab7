// ABOUTME: Decoder interface definition
// ABOUTME: Common lifecycle for all file decoders and extension-based selection
package decode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Soundboard/soundboard-go/pkg/audio"
)

var (
	// ErrUnsupportedFormat is returned for file extensions with no decoder
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrNotOpen is returned when an operation needs an open file
	ErrNotOpen = errors.New("decoder not open")
	// ErrAlreadyOpen is returned when Open is called twice
	ErrAlreadyOpen = errors.New("decoder already open")
	// ErrNotStarted is returned by PopFrames before Start
	ErrNotStarted = errors.New("decoder not started")
	// ErrNoAudio is returned by Start when the file ends before any audio
	ErrNoAudio = errors.New("no audio frames in file")
	// ErrBadParameters is returned by Open when the file header describes
	// an unplayable stream
	ErrBadParameters = errors.New("invalid stream parameters")
)

// Decoder decodes an audio file to stereo frames.
//
// Lifecycle: Open, Start, any number of PopFrames, then Exit/Join or Close.
// A Decoder is owned by one player; a new file needs a new Decoder.
type Decoder interface {
	// Open opens the file and prepares decoding. On failure nothing is kept.
	Open(path string) error

	// Start begins decoding and returns once Parameters are known
	Start() error

	// PopFrames returns at most n frames. An empty result with a nil error
	// means end of stream. If ctx ends first, the frames collected so far
	// are returned with ctx.Err().
	PopFrames(ctx context.Context, n int) ([]audio.Frame, error)

	// Rewind moves the read position back to the start of the file
	Rewind() error

	// SetAutoRewind makes end of file restart from the beginning
	SetAutoRewind(enabled bool)

	// Exit asks background decoding to stop. Safe without Start.
	Exit()

	// Join waits for background decoding to stop. Safe without Start.
	Join()

	// Parameters returns the stream parameters; Channels is always 2 once known
	Parameters() audio.Parameters

	// Stats returns decoding counters
	Stats() Stats

	// Close stops decoding and releases the file
	Close() error

	decoder()
}

// Stats holds decoder counters
type Stats struct {
	// Queued is the number of decoded frames waiting to be popped
	Queued int
	// DecodeErrors counts corrupt or undecodable frames that were skipped
	DecodeErrors int64
}

// Kind selects a Decoder variant
type Kind int

const (
	// KindStreaming decodes compressed audio on a background goroutine
	KindStreaming Kind = iota
	// KindPull reads uncompressed audio on the caller's goroutine
	KindPull
)

func (k Kind) String() string {
	switch k {
	case KindStreaming:
		return "streaming"
	case KindPull:
		return "pull"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// KindForPath picks the variant from the text after the last '.' in path.
// Matching is case-sensitive.
func KindForPath(path string) (Kind, error) {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return 0, fmt.Errorf("%w: %s has no extension", ErrUnsupportedFormat, path)
	}
	switch ext := path[i+1:]; ext {
	case "mp3":
		return KindStreaming, nil
	case "wav":
		return KindPull, nil
	default:
		return 0, fmt.Errorf("%w: .%s", ErrUnsupportedFormat, ext)
	}
}

// New creates an unopened decoder of the given kind
func New(kind Kind) Decoder {
	if kind == KindPull {
		return NewPull()
	}
	return NewStreaming()
}

// NewForPath creates an unopened decoder suited to path
func NewForPath(path string) (Decoder, error) {
	kind, err := KindForPath(path)
	if err != nil {
		return nil, err
	}
	return New(kind), nil
}
