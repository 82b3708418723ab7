// ABOUTME: Shared fixtures for soundboard tests
// ABOUTME: WAV writers, a manual-backend mixer and stream helpers
package soundboard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Soundboard/soundboard-go/pkg/audio/output"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
)

// fixtures run at 100Hz so a 4-frame buffer has a 40ms deadline
const (
	testRate   = 100
	testFrames = 4
)

func writeWAV(t *testing.T, name string, frames [][2]float64) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
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
	format := beep.Format{SampleRate: testRate, NumChannels: 2, Precision: 2}
	if err := wav.Encode(f, src, format); err != nil {
		t.Fatalf("failed to encode wav: %v", err)
	}
	return path
}

func constant(n int, left, right float64) [][2]float64 {
	frames := make([][2]float64, n)
	for i := range frames {
		frames[i] = [2]float64{left, right}
	}
	return frames
}

// steps returns frames whose left value is (i+1)/64 and right is the negation
func steps(n int) [][2]float64 {
	frames := make([][2]float64, n)
	for i := range frames {
		v := float64(i+1) / 64
		frames[i] = [2]float64{v, -v}
	}
	return frames
}

func newTestMixer(t *testing.T, devices ...output.Device) (*Mixer, *output.Manual) {
	t.Helper()
	backend := output.NewManual(devices...)
	m, err := NewMixer(Config{Backend: backend, FramesPerBuffer: testFrames})
	if err != nil {
		t.Fatalf("failed to create mixer: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m, backend
}

func openPlayer(t *testing.T, m *Mixer, path string) *Player {
	t.Helper()
	p, err := m.Player(m.NewPlayer())
	if err != nil {
		t.Fatalf("player lookup failed: %v", err)
	}
	if err := p.Open(path); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	return p
}

func lastStream(t *testing.T, backend *output.Manual) *output.ManualStream {
	t.Helper()
	streams := backend.Streams()
	if len(streams) == 0 {
		t.Fatal("no stream opened")
	}
	return streams[len(streams)-1]
}

func approx(a, b float32) bool {
	d := a - b
	return d < 1e-3 && d > -1e-3
}
