// ABOUTME: MPEG audio frame header parsing
// ABOUTME: Bitrate and sample rate tables, frame size and samples per frame
package mpeg

import (
	"errors"
	"fmt"
)

// HeaderSize is the size of an MPEG audio frame header in bytes
const HeaderSize = 4

var (
	// ErrBadHeader is returned for bytes that are not a usable frame header
	ErrBadHeader = errors.New("mpeg: bad frame header")
	// ErrLostSync is reported when bytes between frames are not a frame
	ErrLostSync = errors.New("mpeg: lost synchronization")
	// ErrUnsupportedLayer is reported for Layer I and II frames
	ErrUnsupportedLayer = errors.New("mpeg: unsupported layer")
	// ErrFrameDecode is reported when a located frame fails to decode
	ErrFrameDecode = errors.New("mpeg: frame decode failed")
)

// Version is the MPEG audio version
type Version int

const (
	Version1 Version = iota
	Version2
	Version25
)

func (v Version) String() string {
	switch v {
	case Version1:
		return "MPEG-1"
	case Version2:
		return "MPEG-2"
	case Version25:
		return "MPEG-2.5"
	default:
		return "unknown"
	}
}

// Layer is the MPEG audio layer
type Layer int

const (
	LayerI   Layer = 1
	LayerII  Layer = 2
	LayerIII Layer = 3
)

// ChannelMode is the channel mode field of the header
type ChannelMode int

const (
	ModeStereo ChannelMode = iota
	ModeJointStereo
	ModeDualChannel
	ModeMono
)

// Header is a decoded frame header
type Header struct {
	Version    Version
	Layer      Layer
	Protected  bool // a 16-bit CRC follows the header
	Bitrate    int  // bits per second
	SampleRate int
	Padding    bool
	Mode       ChannelMode
	Emphasis   int
}

// kbps, index 0 (free format) and 15 are never looked up
var bitrates = [2][3][15]int{
	// MPEG-1
	{
		{0, 32, 64, 96, 128, 160, 192, 224, 256, 288, 320, 352, 384, 416, 448},
		{0, 32, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 384},
		{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320},
	},
	// MPEG-2 and 2.5
	{
		{0, 32, 48, 56, 64, 80, 96, 112, 128, 144, 160, 176, 192, 224, 256},
		{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160},
		{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160},
	},
}

var sampleRates = [3][3]int{
	Version1:  {44100, 48000, 32000},
	Version2:  {22050, 24000, 16000},
	Version25: {11025, 12000, 8000},
}

// IsSync reports whether b starts with the 11-bit frame sync
func IsSync(b []byte) bool {
	return len(b) >= 2 && b[0] == 0xFF && b[1]&0xE0 == 0xE0
}

// ParseHeader decodes the 4-byte frame header at the start of b.
// Free-format streams are rejected since their frame size is not encoded.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: need %d bytes, have %d", ErrBadHeader, HeaderSize, len(b))
	}
	if !IsSync(b) {
		return Header{}, fmt.Errorf("%w: no sync", ErrBadHeader)
	}

	var h Header
	switch (b[1] >> 3) & 0x03 {
	case 0:
		h.Version = Version25
	case 2:
		h.Version = Version2
	case 3:
		h.Version = Version1
	default:
		return Header{}, fmt.Errorf("%w: reserved version", ErrBadHeader)
	}

	switch (b[1] >> 1) & 0x03 {
	case 1:
		h.Layer = LayerIII
	case 2:
		h.Layer = LayerII
	case 3:
		h.Layer = LayerI
	default:
		return Header{}, fmt.Errorf("%w: reserved layer", ErrBadHeader)
	}
	h.Protected = b[1]&0x01 == 0

	bitrateIndex := int(b[2] >> 4)
	if bitrateIndex == 0 {
		return Header{}, fmt.Errorf("%w: free format", ErrBadHeader)
	}
	if bitrateIndex == 15 {
		return Header{}, fmt.Errorf("%w: bad bitrate", ErrBadHeader)
	}
	rateIndex := int(b[2]>>2) & 0x03
	if rateIndex == 3 {
		return Header{}, fmt.Errorf("%w: bad sample rate", ErrBadHeader)
	}

	table := 0
	if h.Version != Version1 {
		table = 1
	}
	h.Bitrate = bitrates[table][h.Layer-1][bitrateIndex] * 1000
	h.SampleRate = sampleRates[h.Version][rateIndex]
	h.Padding = (b[2]>>1)&0x01 == 1
	h.Mode = ChannelMode(b[3] >> 6)
	h.Emphasis = int(b[3] & 0x03)
	if h.Emphasis == 2 {
		return Header{}, fmt.Errorf("%w: reserved emphasis", ErrBadHeader)
	}

	return h, nil
}

// Channels returns 1 for mono frames and 2 otherwise
func (h Header) Channels() int {
	if h.Mode == ModeMono {
		return 1
	}
	return 2
}

// SamplesPerFrame returns the number of samples per channel in one frame
func (h Header) SamplesPerFrame() int {
	switch h.Layer {
	case LayerI:
		return 384
	case LayerIII:
		if h.Version != Version1 {
			return 576
		}
	}
	return 1152
}

// FrameSize returns the size of the whole frame in bytes, header included
func (h Header) FrameSize() int {
	pad := 0
	if h.Padding {
		pad = 1
	}
	switch h.Layer {
	case LayerI:
		return (12*h.Bitrate/h.SampleRate + pad) * 4
	case LayerIII:
		if h.Version != Version1 {
			return 72*h.Bitrate/h.SampleRate + pad
		}
	}
	return 144*h.Bitrate/h.SampleRate + pad
}

// SameStream reports whether o can follow h in one stream
func (h Header) SameStream(o Header) bool {
	return h.Version == o.Version && h.Layer == o.Layer && h.SampleRate == o.SampleRate
}

func (h Header) String() string {
	return fmt.Sprintf("%s layer %d %dHz %dbps %dch", h.Version, h.Layer, h.SampleRate, h.Bitrate, h.Channels())
}
