// ABOUTME: Pull decoder for uncompressed audio
// ABOUTME: Reads WAV frames on the calling goroutine with optional looping
package decode

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/Soundboard/soundboard-go/pkg/audio"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
)

const pullChunkFrames = 512

// Pull decodes WAV files synchronously inside PopFrames
type Pull struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	stream  beep.StreamSeekCloser
	format  beep.Format
	params  audio.Parameters
	scratch [][2]float64

	autoRewind atomic.Bool
}

// NewPull creates an unopened pull decoder
func NewPull() *Pull {
	return &Pull{params: audio.UnknownParameters()}
}

func (p *Pull) decoder() {}

// Open reads the WAV header to learn the channel count and sample rate
func (p *Pull) Open(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file != nil {
		return ErrAlreadyOpen
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	stream, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to decode wav header of %s: %w", path, err)
	}
	if format.SampleRate <= 0 || format.NumChannels <= 0 {
		f.Close()
		return fmt.Errorf("%s: %w: %dHz %dch", path, ErrBadParameters, format.SampleRate, format.NumChannels)
	}

	p.path = path
	p.file = f
	p.stream = stream
	p.format = format
	p.scratch = make([][2]float64, pullChunkFrames)
	p.params = audio.Parameters{
		Channels:     2,
		BitrateHz:    0,
		SampleRateHz: int(format.SampleRate),
	}
	return nil
}

// Start has nothing to launch; parameters are known after Open
func (p *Pull) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream == nil {
		return ErrNotOpen
	}
	return nil
}

// PopFrames reads up to n frames from the file. With auto-rewind enabled it
// wraps to the start until n frames are read, unless the file has none.
func (p *Pull) PopFrames(ctx context.Context, n int) ([]audio.Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return nil, ErrNotOpen
	}
	if n <= 0 {
		return nil, nil
	}

	out := make([]audio.Frame, 0, n)
	rewound := false
	for len(out) < n {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		want := min(n-len(out), len(p.scratch))
		got, _ := p.stream.Stream(p.scratch[:want])
		for _, s := range p.scratch[:got] {
			out = append(out, audio.Frame{Left: float32(s[0]), Right: float32(s[1])})
		}
		if got > 0 {
			rewound = false
			continue
		}

		if err := p.stream.Err(); err != nil {
			return out, fmt.Errorf("failed to read %s: %w", p.path, err)
		}
		if !p.autoRewind.Load() || rewound {
			break
		}
		if err := p.stream.Seek(0); err != nil {
			return out, fmt.Errorf("failed to rewind %s: %w", p.path, err)
		}
		rewound = true
	}
	return out, nil
}

// Rewind seeks back to the first frame
func (p *Pull) Rewind() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream == nil {
		return ErrNotOpen
	}
	return p.stream.Seek(0)
}

// SetAutoRewind enables looping at end of file
func (p *Pull) SetAutoRewind(enabled bool) {
	p.autoRewind.Store(enabled)
}

// Exit is a no-op; there is no background goroutine
func (p *Pull) Exit() {}

// Join is a no-op; there is no background goroutine
func (p *Pull) Join() {}

// Parameters returns the stream parameters
func (p *Pull) Parameters() audio.Parameters {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.params
}

// SourceChannels returns the channel count stored in the file
func (p *Pull) SourceChannels() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.format.NumChannels
}

// Len returns the file length in frames
func (p *Pull) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream == nil {
		return 0
	}
	return p.stream.Len()
}

// Stats returns zero counters; nothing is queued or skipped
func (p *Pull) Stats() Stats {
	return Stats{}
}

// Close releases the file
func (p *Pull) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.file == nil {
		return nil
	}
	err := p.file.Close()
	p.file = nil
	p.stream = nil
	return err
}
