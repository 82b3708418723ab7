// ABOUTME: Callback-driven MPEG audio codec
// ABOUTME: Locates frames in caller-supplied buffers and decodes them through a Handler
package mpeg

import (
	"encoding/binary"
	"fmt"
)

// Flow tells the codec how to proceed after a callback
type Flow int

const (
	// FlowContinue proceeds normally
	FlowContinue Flow = iota
	// FlowStop ends Run
	FlowStop
	// FlowIgnore skips the current frame (Header) or is treated as FlowContinue
	FlowIgnore
)

// FracBits is the number of fractional bits of PCM samples
const FracBits = 15

const (
	id3v2HeaderSize = 10
	id3v1Size       = 128
)

// Handler receives the codec callbacks. All callbacks run on the goroutine
// that called Run.
type Handler interface {
	// Input must refill the stream with SetBuffer, keeping the bytes from
	// NextFrame onward when it is not -1. It returns FlowStop when no more
	// data can be supplied.
	Input(s *Stream) Flow
	Header(h Header) Flow
	Output(h Header, pcm *PCM) Flow
	Error(s *Stream, err error) Flow
}

// PCM is the decoded output of one frame. The sample slices are reused
// between frames.
type PCM struct {
	SampleRate int
	Channels   int
	Length     int
	FracBits   uint
	Samples    [2][]int32
}

// Stream is the byte window the codec is working on
type Stream struct {
	buf  []byte
	pos  int
	next int

	skip   int  // tag bytes still to be skipped
	synced bool // the last frame was found where expected
	lost   bool // lost sync has been reported for the current garbage run

	// Offset counts bytes consumed since Run started
	Offset int64
}

// SetBuffer hands the codec a new window of input
func (s *Stream) SetBuffer(b []byte) {
	s.buf = b
	s.pos = 0
	s.next = -1
}

// Buffer returns the current window
func (s *Stream) Buffer() []byte {
	return s.buf
}

// NextFrame returns the offset in Buffer of bytes not yet consumed, or -1
// when the whole window was used
func (s *Stream) NextFrame() int {
	return s.next
}

func (s *Stream) avail() int {
	return len(s.buf) - s.pos
}

func (s *Stream) advance(n int) {
	s.pos += n
	s.Offset += int64(n)
}

// Codec decodes the frames found in the stream fed by its Handler
type Codec struct {
	handler Handler
	stream  Stream
	frames  frameDecoder
	pcm     PCM
}

// New creates a codec driven by h
func New(h Handler) *Codec {
	return &Codec{
		handler: h,
		pcm:     PCM{FracBits: FracBits},
	}
}

// Run decodes until Input, Header, Output or Error answers FlowStop
func (c *Codec) Run() {
	s := &c.stream
	for {
		h, frame, res := c.sync()
		if res == syncStop {
			return
		}
		if res == syncNeedInput {
			if s.pos < len(s.buf) {
				s.next = s.pos
			} else {
				s.next = -1
			}
			if c.handler.Input(s) == FlowStop {
				return
			}
			continue
		}

		s.synced = true
		s.lost = false
		s.advance(len(frame))

		switch c.handler.Header(h) {
		case FlowStop:
			return
		case FlowIgnore:
			continue
		}

		if h.Layer != LayerIII {
			err := fmt.Errorf("%w: %s", ErrUnsupportedLayer, h)
			if c.handler.Error(s, err) == FlowStop {
				return
			}
			continue
		}

		if err := c.decode(h, frame); err != nil {
			if c.handler.Error(s, err) == FlowStop {
				return
			}
			continue
		}

		if c.handler.Output(h, &c.pcm) == FlowStop {
			return
		}
	}
}

type syncResult int

const (
	syncFrame syncResult = iota
	syncNeedInput
	syncStop
)

// sync positions the stream on the next complete frame and returns it
func (c *Codec) sync() (Header, []byte, syncResult) {
	s := &c.stream
	for {
		if s.skip > 0 {
			n := min(s.skip, s.avail())
			s.advance(n)
			s.skip -= n
			if s.skip > 0 {
				return Header{}, nil, syncNeedInput
			}
		}

		if s.avail() < HeaderSize {
			return Header{}, nil, syncNeedInput
		}
		b := s.buf[s.pos:]

		if tag, ok := tagSize(b); ok {
			if tag < 0 {
				// ID3v2 header not complete yet
				return Header{}, nil, syncNeedInput
			}
			s.skip = tag
			continue
		}

		h, err := ParseHeader(b)
		if err == nil {
			size := h.FrameSize()
			if len(b) < size {
				return Header{}, nil, syncNeedInput
			}
			if s.synced || c.confirm(h, b[size:]) {
				return h, b[:size], syncFrame
			}
		}

		s.synced = false
		if !s.lost {
			s.lost = true
			if c.handler.Error(s, fmt.Errorf("%w at byte %d", ErrLostSync, s.Offset)) == FlowStop {
				return Header{}, nil, syncStop
			}
		}
		s.advance(1)
	}
}

// confirm checks that a candidate frame is followed by another frame of the
// same stream or by a tag. A candidate at the end of the window is accepted.
func (c *Codec) confirm(h Header, rest []byte) bool {
	if len(rest) < HeaderSize {
		return true
	}
	if _, ok := tagSize(rest); ok {
		return true
	}
	next, err := ParseHeader(rest)
	return err == nil && h.SameStream(next)
}

// tagSize reports whether b starts with an ID3 tag and how many bytes it
// spans. A size of -1 means the ID3v2 header is not fully buffered.
func tagSize(b []byte) (int, bool) {
	if len(b) >= 3 && b[0] == 'T' && b[1] == 'A' && b[2] == 'G' {
		return id3v1Size, true
	}
	if len(b) < 3 || b[0] != 'I' || b[1] != 'D' || b[2] != '3' {
		return 0, false
	}
	if len(b) < id3v2HeaderSize {
		return -1, true
	}
	if b[3] == 0xFF || b[4] == 0xFF {
		return 0, false
	}
	size := 0
	for _, v := range b[6:10] {
		if v&0x80 != 0 {
			return 0, false
		}
		size = size<<7 | int(v)
	}
	size += id3v2HeaderSize
	if b[5]&0x10 != 0 {
		// footer present
		size += id3v2HeaderSize
	}
	return size, true
}

func (c *Codec) decode(h Header, frame []byte) error {
	raw, err := c.frames.decode(frame, h.SamplesPerFrame())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFrameDecode, err)
	}

	n := h.SamplesPerFrame()
	c.pcm.SampleRate = h.SampleRate
	c.pcm.Channels = h.Channels()
	c.pcm.Length = n
	for ch := range c.pcm.Samples {
		if cap(c.pcm.Samples[ch]) < n {
			c.pcm.Samples[ch] = make([]int32, n)
		}
		c.pcm.Samples[ch] = c.pcm.Samples[ch][:n]
	}

	// go-mp3 always emits interleaved stereo int16
	for i := 0; i < n; i++ {
		c.pcm.Samples[0][i] = int32(int16(binary.LittleEndian.Uint16(raw[i*4:])))
		c.pcm.Samples[1][i] = int32(int16(binary.LittleEndian.Uint16(raw[i*4+2:])))
	}
	return nil
}
