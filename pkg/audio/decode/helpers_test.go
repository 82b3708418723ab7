// ABOUTME: Shared test fixtures for decoder tests
// ABOUTME: Writes WAV and MP3 files and provides a byte-per-sample fake codec
package decode

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Soundboard/soundboard-go/pkg/audio"
	"github.com/Soundboard/soundboard-go/pkg/audio/mpeg"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
)

func writeWAV(t *testing.T, channels, rate int, frames [][2]float64) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create wav: %v", err)
	}
	defer f.Close()

	pos := 0
	src := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= len(frames) {
			return 0, false
		}
		n := copy(samples, frames[pos:])
		pos += n
		return n, true
	})

	format := beep.Format{
		SampleRate:  beep.SampleRate(rate),
		NumChannels: channels,
		Precision:   2,
	}
	if err := wav.Encode(f, src, format); err != nil {
		t.Fatalf("failed to encode wav: %v", err)
	}
	return path
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// silentMP3 returns n MPEG-1 Layer III frames at 128kbps 44.1kHz whose side
// info and main data are all zero
func silentMP3(n int) []byte {
	header := []byte{0xFF, 0xFB, 0x90, 0x00}
	h, err := mpeg.ParseHeader(header)
	if err != nil {
		panic(err)
	}
	var b bytes.Buffer
	for i := 0; i < n; i++ {
		frame := make([]byte, h.FrameSize())
		copy(frame, header)
		b.Write(frame)
	}
	return b.Bytes()
}

func ramp(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 256)
	}
	return b
}

// byteCodec turns every input byte into one mono sample of value b/256
func byteCodec(h mpeg.Handler) {
	var s mpeg.Stream
	hdr := mpeg.Header{
		Version:    mpeg.Version1,
		Layer:      mpeg.LayerIII,
		Bitrate:    64000,
		SampleRate: 8000,
		Mode:       mpeg.ModeMono,
	}
	pcm := &mpeg.PCM{SampleRate: 8000, Channels: 1, FracBits: 8}

	for h.Input(&s) == mpeg.FlowContinue {
		if h.Header(hdr) == mpeg.FlowStop {
			return
		}
		b := s.Buffer()
		pcm.Length = len(b)
		pcm.Samples[0] = pcm.Samples[0][:0]
		for _, v := range b {
			pcm.Samples[0] = append(pcm.Samples[0], int32(v))
		}
		if h.Output(hdr, pcm) == mpeg.FlowStop {
			return
		}
	}
}

func openFake(t *testing.T, content []byte) *Streaming {
	t.Helper()
	d := NewStreaming()
	d.run = byteCodec
	if err := d.Open(writeFile(t, "fake.mp3", content)); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

// drain pops until end of stream
func drain(t *testing.T, d Decoder, chunk int) []audio.Frame {
	t.Helper()
	var all []audio.Frame
	for {
		frames, err := d.PopFrames(context.Background(), chunk)
		if err != nil {
			t.Fatalf("pop failed: %v", err)
		}
		if len(frames) > chunk {
			t.Fatalf("asked for %d frames, got %d", chunk, len(frames))
		}
		if len(frames) == 0 {
			return all
		}
		all = append(all, frames...)
	}
}
