// ABOUTME: Tests for the pull decoder
// ABOUTME: Tests WAV parameters, mono duplication, looping and exhaustion
package decode

import (
	"context"
	"errors"
	"math"
	"os"
	"testing"

	"github.com/Soundboard/soundboard-go/pkg/audio"
)

func sine(n int, freq, rate float64) [][2]float64 {
	frames := make([][2]float64, n)
	for i := range frames {
		v := 0.5 * math.Sin(2*math.Pi*freq*float64(i)/rate)
		frames[i] = [2]float64{v, v}
	}
	return frames
}

func steps(n int) [][2]float64 {
	frames := make([][2]float64, n)
	for i := range frames {
		v := float64(i+1) / 16
		frames[i] = [2]float64{v, -v}
	}
	return frames
}

func openPull(t *testing.T, path string) *Pull {
	t.Helper()
	p := NewPull()
	if err := p.Open(path); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	if err := p.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	return p
}

func TestPullMonoSecond(t *testing.T) {
	p := openPull(t, writeWAV(t, 1, 44100, sine(44100, 440, 44100)))

	want := audio.Parameters{Channels: 2, BitrateHz: 0, SampleRateHz: 44100}
	if got := p.Parameters(); got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
	if p.SourceChannels() != 1 {
		t.Errorf("expected 1 source channel, got %d", p.SourceChannels())
	}

	frames, err := p.PopFrames(context.Background(), 44100)
	if err != nil {
		t.Fatalf("pop failed: %v", err)
	}
	if len(frames) != 44100 {
		t.Fatalf("expected 44100 frames, got %d", len(frames))
	}
	nonZero := false
	for i, f := range frames {
		if f.Left != f.Right {
			t.Fatalf("frame %d: left %v != right %v", i, f.Left, f.Right)
		}
		if f.Left != 0 {
			nonZero = true
		}
	}
	if !nonZero {
		t.Error("expected a non-silent signal")
	}
}

func TestPullExhaustion(t *testing.T) {
	p := openPull(t, writeWAV(t, 2, 8000, steps(10)))

	var total int
	for _, want := range []int{3, 3, 3, 1} {
		frames, err := p.PopFrames(context.Background(), 3)
		if err != nil {
			t.Fatalf("pop failed: %v", err)
		}
		if len(frames) != want {
			t.Fatalf("expected %d frames, got %d", want, len(frames))
		}
		total += len(frames)
	}
	if total != 10 {
		t.Errorf("expected 10 frames total, got %d", total)
	}

	for i := 0; i < 3; i++ {
		frames, err := p.PopFrames(context.Background(), 3)
		if err != nil || len(frames) != 0 {
			t.Fatalf("expected empty pop after end, got %d frames (err=%v)", len(frames), err)
		}
	}
}

func TestPullRepeatWraps(t *testing.T) {
	p := openPull(t, writeWAV(t, 2, 8000, steps(10)))
	p.SetAutoRewind(true)

	frames, err := p.PopFrames(context.Background(), 15)
	if err != nil {
		t.Fatalf("pop failed: %v", err)
	}
	if len(frames) != 15 {
		t.Fatalf("expected 15 frames, got %d", len(frames))
	}
	if frames[0] == frames[1] {
		t.Fatal("fixture frames should differ")
	}
	for i := 10; i < 15; i++ {
		if frames[i] != frames[i-10] {
			t.Errorf("frame %d: expected %+v, got %+v", i, frames[i-10], frames[i])
		}
	}

	// keeps producing indefinitely
	for i := 0; i < 5; i++ {
		frames, err := p.PopFrames(context.Background(), 7)
		if err != nil || len(frames) != 7 {
			t.Fatalf("expected 7 looped frames, got %d (err=%v)", len(frames), err)
		}
	}
}

func TestPullRewind(t *testing.T) {
	p := openPull(t, writeWAV(t, 2, 8000, steps(10)))

	first, err := p.PopFrames(context.Background(), 4)
	if err != nil {
		t.Fatalf("pop failed: %v", err)
	}
	if err := p.Rewind(); err != nil {
		t.Fatalf("rewind failed: %v", err)
	}
	again, err := p.PopFrames(context.Background(), 4)
	if err != nil {
		t.Fatalf("pop failed: %v", err)
	}
	for i := range first {
		if first[i] != again[i] {
			t.Errorf("frame %d: expected %+v after rewind, got %+v", i, first[i], again[i])
		}
	}
}

func TestPullStereoChannels(t *testing.T) {
	p := openPull(t, writeWAV(t, 2, 8000, steps(10)))

	frames, err := p.PopFrames(context.Background(), 1)
	if err != nil {
		t.Fatalf("pop failed: %v", err)
	}
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}
	if frames[0].Left <= 0 || frames[0].Right >= 0 {
		t.Errorf("expected positive left and negative right, got %+v", frames[0])
	}
}

func TestPullCancelledContext(t *testing.T) {
	p := openPull(t, writeWAV(t, 2, 8000, steps(10)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.PopFrames(ctx, 5); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestPullRejectsNonWAV(t *testing.T) {
	p := NewPull()
	if err := p.Open(writeFile(t, "bogus.wav", []byte("not a riff file at all"))); err == nil {
		t.Error("expected error for invalid wav")
	}
	if _, err := p.PopFrames(context.Background(), 1); !errors.Is(err, ErrNotOpen) {
		t.Errorf("expected ErrNotOpen, got %v", err)
	}
}

func TestPullRejectsZeroSampleRate(t *testing.T) {
	path := writeWAV(t, 2, 44100, steps(10))
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read wav: %v", err)
	}
	// fmt chunk sample rate field
	copy(data[24:28], []byte{0, 0, 0, 0})
	bad := writeFile(t, "zero-rate.wav", data)

	p := NewPull()
	defer p.Close()
	if err := p.Open(bad); !errors.Is(err, ErrBadParameters) {
		t.Fatalf("expected ErrBadParameters, got %v", err)
	}
	if err := p.Start(); !errors.Is(err, ErrNotOpen) {
		t.Errorf("rejected open should keep nothing, Start returned %v", err)
	}
	if err := p.Open(path); err != nil {
		t.Errorf("open after rejection failed: %v", err)
	}
}
