// ABOUTME: Tests for the callback-driven codec
// ABOUTME: Tests decoding, chunked input, resync after garbage and tag skipping
package mpeg

import (
	"bytes"
	"errors"
	"testing"
)

// silentFrame builds a Layer III frame with zeroed side info and main data
func silentFrame(header []byte) []byte {
	h, err := ParseHeader(header)
	if err != nil {
		panic(err)
	}
	frame := make([]byte, h.FrameSize())
	copy(frame, header)
	return frame
}

var stereo128k = []byte{0xFF, 0xFB, 0x90, 0x00}

func silentFrames(n int) []byte {
	var b bytes.Buffer
	for i := 0; i < n; i++ {
		b.Write(silentFrame(stereo128k))
	}
	return b.Bytes()
}

type recorder struct {
	data  []byte
	chunk int
	buf   []byte

	headers   int
	outputs   []PCM
	errs      []error
	stopAfter int
	ignore    bool
}

func newRecorder(data []byte, chunk int) *recorder {
	return &recorder{data: data, chunk: chunk, buf: make([]byte, 4096)}
}

func (r *recorder) Input(s *Stream) Flow {
	if len(r.data) == 0 {
		return FlowStop
	}
	keep := 0
	if next := s.NextFrame(); next >= 0 {
		keep = copy(r.buf, s.Buffer()[next:])
	}
	end := min(keep+r.chunk, len(r.buf))
	n := copy(r.buf[keep:end], r.data)
	r.data = r.data[n:]
	s.SetBuffer(r.buf[:keep+n])
	return FlowContinue
}

func (r *recorder) Header(h Header) Flow {
	r.headers++
	if r.ignore {
		return FlowIgnore
	}
	return FlowContinue
}

func (r *recorder) Output(h Header, pcm *PCM) Flow {
	cp := *pcm
	cp.Samples = [2][]int32{
		append([]int32(nil), pcm.Samples[0]...),
		append([]int32(nil), pcm.Samples[1]...),
	}
	r.outputs = append(r.outputs, cp)
	if r.stopAfter > 0 && len(r.outputs) >= r.stopAfter {
		return FlowStop
	}
	return FlowContinue
}

func (r *recorder) Error(s *Stream, err error) Flow {
	r.errs = append(r.errs, err)
	return FlowContinue
}

func (r *recorder) count(target error) int {
	n := 0
	for _, err := range r.errs {
		if errors.Is(err, target) {
			n++
		}
	}
	return n
}

func TestCodecDecodesSilence(t *testing.T) {
	tests := []struct {
		name  string
		chunk int
	}{
		{"whole buffer", 4096},
		{"frames split across reads", 100},
		{"tiny reads", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRecorder(silentFrames(3), tt.chunk)
			New(r).Run()

			if len(r.errs) != 0 {
				t.Fatalf("unexpected errors: %v", r.errs)
			}
			if len(r.outputs) != 3 {
				t.Fatalf("expected 3 frames, got %d", len(r.outputs))
			}
			for i, pcm := range r.outputs {
				if pcm.Length != 1152 {
					t.Errorf("frame %d: expected 1152 samples, got %d", i, pcm.Length)
				}
				if pcm.SampleRate != 44100 {
					t.Errorf("frame %d: expected 44100Hz, got %d", i, pcm.SampleRate)
				}
				if pcm.Channels != 2 {
					t.Errorf("frame %d: expected 2 channels, got %d", i, pcm.Channels)
				}
				if pcm.FracBits != FracBits {
					t.Errorf("frame %d: expected %d fractional bits, got %d", i, FracBits, pcm.FracBits)
				}
				for ch := 0; ch < 2; ch++ {
					for j, v := range pcm.Samples[ch] {
						if v != 0 {
							t.Fatalf("frame %d channel %d sample %d: expected silence, got %d", i, ch, j, v)
						}
					}
				}
			}
		})
	}
}

func TestCodecResyncsAfterGarbage(t *testing.T) {
	var data bytes.Buffer
	data.Write(silentFrames(2))
	data.Write(bytes.Repeat([]byte{0x55}, 100))
	data.Write(silentFrames(2))

	r := newRecorder(data.Bytes(), 4096)
	New(r).Run()

	if len(r.outputs) != 4 {
		t.Errorf("expected 4 decoded frames, got %d", len(r.outputs))
	}
	if got := r.count(ErrLostSync); got != 1 {
		t.Errorf("expected one lost sync report, got %d (%v)", got, r.errs)
	}
}

func TestCodecLeadingGarbage(t *testing.T) {
	var data bytes.Buffer
	// a lone sync-looking pair must not be taken for a frame
	data.Write([]byte{0x00, 0xFF, 0xFB, 0x12, 0x34})
	data.Write(silentFrames(2))

	r := newRecorder(data.Bytes(), 4096)
	New(r).Run()

	if len(r.outputs) != 2 {
		t.Errorf("expected 2 decoded frames, got %d", len(r.outputs))
	}
	if got := r.count(ErrLostSync); got != 1 {
		t.Errorf("expected one lost sync report, got %d", got)
	}
}

func TestCodecSkipsID3v2(t *testing.T) {
	const tagBody = 5000

	var data bytes.Buffer
	// syncsafe 5000 = 39<<7 | 8
	data.Write([]byte{'I', 'D', '3', 0x03, 0x00, 0x00, 0x00, 0x00, 39, 8})
	// body full of sync bytes that would be mistaken for frames
	data.Write(bytes.Repeat([]byte{0xFF}, tagBody))
	data.Write(silentFrames(2))

	r := newRecorder(data.Bytes(), 4096)
	New(r).Run()

	if len(r.errs) != 0 {
		t.Errorf("unexpected errors: %v", r.errs)
	}
	if len(r.outputs) != 2 {
		t.Errorf("expected 2 decoded frames, got %d", len(r.outputs))
	}
}

func TestCodecSkipsID3v1(t *testing.T) {
	var data bytes.Buffer
	data.Write(silentFrames(2))
	tag := make([]byte, 128)
	copy(tag, "TAG")
	data.Write(tag)

	r := newRecorder(data.Bytes(), 4096)
	New(r).Run()

	if len(r.errs) != 0 {
		t.Errorf("unexpected errors: %v", r.errs)
	}
	if len(r.outputs) != 2 {
		t.Errorf("expected 2 decoded frames, got %d", len(r.outputs))
	}
}

func TestCodecReportsUnsupportedLayer(t *testing.T) {
	layer2 := []byte{0xFF, 0xFD, 0x90, 0x00}
	var data bytes.Buffer
	data.Write(silentFrame(layer2))
	data.Write(silentFrame(layer2))

	r := newRecorder(data.Bytes(), 4096)
	New(r).Run()

	if len(r.outputs) != 0 {
		t.Errorf("expected no output, got %d frames", len(r.outputs))
	}
	if got := r.count(ErrUnsupportedLayer); got != 2 {
		t.Errorf("expected 2 unsupported layer reports, got %d (%v)", got, r.errs)
	}
}

func TestCodecOutputStop(t *testing.T) {
	r := newRecorder(silentFrames(5), 4096)
	r.stopAfter = 2
	New(r).Run()

	if len(r.outputs) != 2 {
		t.Errorf("expected run to stop after 2 frames, got %d", len(r.outputs))
	}
}

func TestCodecHeaderIgnore(t *testing.T) {
	r := newRecorder(silentFrames(3), 4096)
	r.ignore = true
	New(r).Run()

	if r.headers != 3 {
		t.Errorf("expected 3 headers, got %d", r.headers)
	}
	if len(r.outputs) != 0 {
		t.Errorf("expected ignored frames to produce no output, got %d", len(r.outputs))
	}
}

func TestTagSize(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		size int
		ok   bool
	}{
		{"id3v1", []byte("TAGxyz"), 128, true},
		{"id3v2", []byte{'I', 'D', '3', 4, 0, 0, 0, 0, 1, 0}, 138, true},
		{"id3v2 footer", []byte{'I', 'D', '3', 4, 0, 0x10, 0, 0, 0, 5}, 25, true},
		{"id3v2 partial", []byte{'I', 'D', '3', 4}, -1, true},
		{"id3v2 bad size", []byte{'I', 'D', '3', 4, 0, 0, 0x80, 0, 0, 0}, 0, false},
		{"frame", []byte{0xFF, 0xFB, 0x90, 0x00}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			size, ok := tagSize(tt.data)
			if ok != tt.ok || size != tt.size {
				t.Errorf("expected (%d, %v), got (%d, %v)", tt.size, tt.ok, size, ok)
			}
		})
	}
}
