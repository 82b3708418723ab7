// ABOUTME: Layer III frame decoding through go-mp3
// ABOUTME: Feeds located frames to a persistent decoder so the bit reservoir survives
package mpeg

import (
	"bytes"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
)

// go-mp3 emits 2 channels of 16-bit samples
const bytesPerSample = 4

// frameDecoder owns one go-mp3 decoder reading from an in-memory feed.
// Only whole frames are written to the feed, so each decode reads exactly
// one frame of output and go-mp3 never sees a short read.
type frameDecoder struct {
	feed bytes.Buffer
	dec  *mp3.Decoder
	out  []byte
}

func (d *frameDecoder) decode(frame []byte, samples int) ([]byte, error) {
	d.feed.Write(frame)

	if d.dec == nil {
		// NewDecoder consumes and decodes the first frame
		dec, err := mp3.NewDecoder(&d.feed)
		if err != nil {
			d.reset()
			return nil, fmt.Errorf("failed to create mp3 decoder: %w", err)
		}
		d.dec = dec
	}

	need := samples * bytesPerSample
	if cap(d.out) < need {
		d.out = make([]byte, need)
	}
	out := d.out[:need]
	if _, err := io.ReadFull(d.dec, out); err != nil {
		d.reset()
		return nil, fmt.Errorf("mp3 decode error: %w", err)
	}
	return out, nil
}

// reset drops the decoder; the next frame starts a fresh one
func (d *frameDecoder) reset() {
	d.dec = nil
	d.feed.Reset()
}
