// ABOUTME: Streaming decoder for compressed audio
// ABOUTME: Runs the MPEG codec on a goroutine and queues frames for the player
package decode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"sync/atomic"

	"github.com/Soundboard/soundboard-go/pkg/audio"
	"github.com/Soundboard/soundboard-go/pkg/audio/mpeg"
	"github.com/Soundboard/soundboard-go/pkg/audio/queue"
)

const (
	// ReadBufferSize is the size of the read-ahead buffer fed to the codec
	ReadBufferSize = 4096
	// QueueFrames is the capacity of the decoded frame queue
	QueueFrames = 1024
)

// Streaming decodes MP3 files on a background goroutine
type Streaming struct {
	path   string
	file   *os.File
	buf    []byte
	frames *queue.Bounded[audio.Frame]

	paramsMu  sync.Mutex
	params    audio.Parameters
	ready     chan struct{}
	readyOnce sync.Once

	done    chan struct{}
	started bool

	quit       atomic.Bool
	eof        atomic.Bool
	autoRewind atomic.Bool
	rewind     atomic.Bool
	decodeErrs atomic.Int64

	// run drives the codec; replaced in tests
	run func(h mpeg.Handler)
}

// NewStreaming creates an unopened streaming decoder
func NewStreaming() *Streaming {
	return &Streaming{
		params: audio.UnknownParameters(),
		ready:  make(chan struct{}),
		run: func(h mpeg.Handler) {
			mpeg.New(h).Run()
		},
	}
}

func (d *Streaming) decoder() {}

// Open opens the file for decoding
func (d *Streaming) Open(path string) error {
	if d.file != nil {
		return ErrAlreadyOpen
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	d.path = path
	d.file = f
	d.buf = make([]byte, ReadBufferSize)
	d.frames = queue.New[audio.Frame](QueueFrames)
	return nil
}

// Start launches the decode goroutine and waits for the first frame's
// parameters
func (d *Streaming) Start() error {
	if d.file == nil {
		return ErrNotOpen
	}
	if d.started {
		return nil
	}
	d.started = true
	d.done = make(chan struct{})

	go d.decode()

	select {
	case <-d.ready:
		return nil
	case <-d.done:
		select {
		case <-d.ready:
			return nil
		default:
			return fmt.Errorf("%s: %w", d.path, ErrNoAudio)
		}
	}
}

func (d *Streaming) decode() {
	defer close(d.done)
	defer d.frames.Close()
	defer d.eof.Store(true)

	d.run(&streamHandler{d: d})
}

// PopFrames takes up to n frames from the queue
func (d *Streaming) PopFrames(ctx context.Context, n int) ([]audio.Frame, error) {
	if d.file == nil {
		return nil, ErrNotOpen
	}
	if !d.started {
		return nil, ErrNotStarted
	}
	return d.frames.Pop(ctx, n)
}

// Rewind makes the decode goroutine continue from the start of the file at
// its next read
func (d *Streaming) Rewind() error {
	if d.file == nil {
		return ErrNotOpen
	}
	d.rewind.Store(true)
	return nil
}

// SetAutoRewind enables looping at end of file
func (d *Streaming) SetAutoRewind(enabled bool) {
	d.autoRewind.Store(enabled)
}

// Exit asks the decode goroutine to stop and releases it if it is waiting
// for queue space
func (d *Streaming) Exit() {
	d.quit.Store(true)
	if d.frames != nil {
		d.frames.Cancel()
	}
}

// Join waits for the decode goroutine to finish
func (d *Streaming) Join() {
	if d.done != nil {
		<-d.done
	}
}

// Parameters returns the parameters of the most recent frame
func (d *Streaming) Parameters() audio.Parameters {
	d.paramsMu.Lock()
	defer d.paramsMu.Unlock()
	return d.params
}

// EOF reports whether the decode goroutine has finished
func (d *Streaming) EOF() bool {
	return d.eof.Load()
}

// Stats returns queue depth and skipped frame count
func (d *Streaming) Stats() Stats {
	s := Stats{DecodeErrors: d.decodeErrs.Load()}
	if d.frames != nil {
		s.Queued = d.frames.Len()
	}
	return s
}

// Close stops decoding and closes the file
func (d *Streaming) Close() error {
	d.Exit()
	d.Join()
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

func (d *Streaming) setParameters(p audio.Parameters) {
	d.paramsMu.Lock()
	d.params = p
	d.paramsMu.Unlock()
	d.readyOnce.Do(func() {
		close(d.ready)
	})
}

// streamHandler connects the codec callbacks to the decoder state
type streamHandler struct {
	d       *Streaming
	scratch []audio.Frame
}

func (h *streamHandler) Input(s *mpeg.Stream) mpeg.Flow {
	d := h.d
	if d.quit.Load() {
		return mpeg.FlowStop
	}

	keep := 0
	if d.rewind.Swap(false) {
		// a partial frame from the old position is useless after a seek
		if _, err := d.file.Seek(0, io.SeekStart); err != nil {
			log.Printf("Error rewinding %s: %v", d.path, err)
			return mpeg.FlowStop
		}
	} else if next := s.NextFrame(); next >= 0 {
		keep = copy(d.buf, s.Buffer()[next:])
	}

	rewound := false
	for {
		n, err := d.file.Read(d.buf[keep:])
		if n > 0 {
			s.SetBuffer(d.buf[:keep+n])
			return mpeg.FlowContinue
		}
		if err != nil && !errors.Is(err, io.EOF) {
			log.Printf("Error reading %s: %v", d.path, err)
			return mpeg.FlowStop
		}
		if !d.autoRewind.Load() || rewound || d.quit.Load() {
			return mpeg.FlowStop
		}
		if _, err := d.file.Seek(0, io.SeekStart); err != nil {
			log.Printf("Error rewinding %s: %v", d.path, err)
			return mpeg.FlowStop
		}
		// the truncated tail of the last frame does not continue at the start
		keep = 0
		rewound = true
	}
}

func (h *streamHandler) Header(mpeg.Header) mpeg.Flow {
	if h.d.quit.Load() {
		return mpeg.FlowStop
	}
	return mpeg.FlowContinue
}

func (h *streamHandler) Output(hdr mpeg.Header, pcm *mpeg.PCM) mpeg.Flow {
	d := h.d
	if d.quit.Load() {
		return mpeg.FlowStop
	}

	d.setParameters(audio.Parameters{
		Channels:     2,
		BitrateHz:    hdr.Bitrate,
		SampleRateHz: pcm.SampleRate,
	})

	if cap(h.scratch) < pcm.Length {
		h.scratch = make([]audio.Frame, pcm.Length)
	}
	frames := h.scratch[:pcm.Length]
	for i := range frames {
		left := audio.FixedToFloat(pcm.Samples[0][i], pcm.FracBits)
		right := left
		if pcm.Channels > 1 {
			right = audio.FixedToFloat(pcm.Samples[1][i], pcm.FracBits)
		}
		frames[i] = audio.Frame{Left: left, Right: right}
	}

	if _, ok := d.frames.Push(frames); !ok {
		return mpeg.FlowStop
	}
	return mpeg.FlowContinue
}

func (h *streamHandler) Error(_ *mpeg.Stream, err error) mpeg.Flow {
	d := h.d
	d.decodeErrs.Add(1)
	log.Printf("Decode error in %s: %v", d.path, err)
	if d.quit.Load() {
		return mpeg.FlowStop
	}
	return mpeg.FlowContinue
}
