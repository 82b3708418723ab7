// ABOUTME: Tests for the mixer-backed controller
// ABOUTME: Drives a real Mixer on the manual output backend
package ui

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Soundboard/soundboard-go/pkg/audio/output"
	"github.com/Soundboard/soundboard-go/pkg/soundboard"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
)

func newController(t *testing.T) (*MixerController, *soundboard.Mixer) {
	t.Helper()
	ctrl, m, _ := newControllerWithBackend(t)
	return ctrl, m
}

func newControllerWithBackend(t *testing.T) (*MixerController, *soundboard.Mixer, *output.Manual) {
	t.Helper()
	backend := output.NewManual(
		output.Device{Index: 0, Name: "speakers", OutputChannels: 2, Default: true},
		output.Device{Index: 1, Name: "mic", OutputChannels: 0},
		output.Device{Index: 2, Name: "hdmi", OutputChannels: 2},
	)
	m, err := soundboard.NewMixer(soundboard.Config{Backend: backend, FramesPerBuffer: 4})
	if err != nil {
		t.Fatalf("failed to create mixer: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return NewMixerController(m), m, backend
}

func writeTone(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create wav: %v", err)
	}
	defer f.Close()

	src := beep.Take(50, beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			samples[i] = [2]float64{0.5, 0.5}
		}
		return len(samples), true
	}))
	if err := wav.Encode(f, src, beep.Format{SampleRate: 100, NumChannels: 2, Precision: 2}); err != nil {
		t.Fatalf("failed to encode wav: %v", err)
	}
	return path
}

func TestControllerPlayers(t *testing.T) {
	ctrl, m := newController(t)
	id := m.NewPlayer()
	p, _ := m.Player(id)
	path := writeTone(t)
	if err := p.Open(path); err != nil {
		t.Fatalf("open failed: %v", err)
	}

	players := ctrl.Players()
	if len(players) != 1 {
		t.Fatalf("expected 1 player, got %d", len(players))
	}
	got := players[0]
	if got.ID != id || got.Filename != path || got.State != soundboard.StateStopped {
		t.Errorf("unexpected status %+v", got)
	}
	if got.Params.SampleRateHz != 100 {
		t.Errorf("expected 100Hz, got %d", got.Params.SampleRateHz)
	}

	if err := ctrl.TogglePlay(id); err != nil {
		t.Fatalf("toggle play failed: %v", err)
	}
	if !p.IsPlaying() {
		t.Error("expected player to be playing")
	}
	if err := ctrl.TogglePlay(id); err != nil {
		t.Fatalf("toggle stop failed: %v", err)
	}
	if p.IsPlaying() {
		t.Error("expected player to be stopped")
	}
	if err := ctrl.Reset(id); err != nil {
		t.Errorf("reset failed: %v", err)
	}
}

func TestControllerToggles(t *testing.T) {
	ctrl, m := newController(t)
	id := m.NewPlayer()
	p, _ := m.Player(id)

	ctrl.ToggleMute(id)
	ctrl.ToggleRepeat(id)
	if !p.Mute() || !p.Repeat() {
		t.Error("expected mute and repeat on")
	}
	ctrl.ToggleMute(id)
	if p.Mute() {
		t.Error("expected mute off")
	}

	gain, _ := ctrl.AdjustGain(id, 5)
	if gain != soundboard.MaxGain {
		t.Errorf("expected gain clamped to %v, got %v", soundboard.MaxGain, gain)
	}
	gain, _ = ctrl.AdjustGain(id, -5)
	if gain != 0 {
		t.Errorf("expected gain clamped to 0, got %v", gain)
	}
}

func TestControllerUnknownPlayer(t *testing.T) {
	ctrl, _ := newController(t)

	checks := map[string]error{
		"play":   ctrl.TogglePlay(9),
		"reset":  ctrl.Reset(9),
		"mute":   ctrl.ToggleMute(9),
		"repeat": ctrl.ToggleRepeat(9),
	}
	_, checks["gain"] = ctrl.AdjustGain(9, 1)

	for name, err := range checks {
		if !errors.Is(err, soundboard.ErrPlayerNotFound) {
			t.Errorf("%s: expected ErrPlayerNotFound, got %v", name, err)
		}
	}
}

func TestControllerClosedPlayer(t *testing.T) {
	ctrl, m := newController(t)
	id := m.NewPlayer()
	if err := ctrl.TogglePlay(id); !errors.Is(err, soundboard.ErrNotOpen) {
		t.Errorf("expected ErrNotOpen, got %v", err)
	}
}

func TestControllerNextDevice(t *testing.T) {
	ctrl, _ := newController(t)

	want := []string{"hdmi", "speakers", "hdmi"}
	for i, w := range want {
		name, err := ctrl.NextDevice()
		if err != nil {
			t.Fatalf("step %d: next device failed: %v", i, err)
		}
		if name != w || ctrl.DeviceName() != w {
			t.Errorf("step %d: expected %s, got %s (%s)", i, w, name, ctrl.DeviceName())
		}
	}
}

func TestControllerNextMode(t *testing.T) {
	ctrl, _ := newController(t)

	if mode := ctrl.NextMode(); mode != soundboard.ModeLeft || ctrl.Mode() != soundboard.ModeLeft {
		t.Errorf("expected left, got %v", mode)
	}
	ctrl.NextMode()
	if mode := ctrl.NextMode(); mode != soundboard.ModeStereo {
		t.Errorf("expected wrap to stereo, got %v", mode)
	}
}

func lastStream(t *testing.T, backend *output.Manual) *output.ManualStream {
	t.Helper()
	streams := backend.Streams()
	if len(streams) == 0 {
		t.Fatal("no stream opened")
	}
	return streams[len(streams)-1]
}

func TestControllerReplaysFinishedSample(t *testing.T) {
	ctrl, m, backend := newControllerWithBackend(t)
	id := m.NewPlayer()
	p, _ := m.Player(id)
	if err := p.Open(writeTone(t)); err != nil {
		t.Fatalf("open failed: %v", err)
	}

	for round := 0; round < 2; round++ {
		if err := ctrl.TogglePlay(id); err != nil {
			t.Fatalf("round %d: play failed: %v", round, err)
		}
		s := lastStream(t, backend)

		// 50 frames in buffers of 4, then the completing buffer
		buffers := 0
		for buf := s.Pump(); buf != nil; buf = s.Pump() {
			if buffers == 0 && buf[0] == 0 {
				t.Fatalf("round %d: expected audio from the start of the file", round)
			}
			buffers++
		}
		if buffers != 14 {
			t.Errorf("round %d: expected 14 buffers, got %d", round, buffers)
		}
		if p.IsPlaying() {
			t.Fatalf("round %d: expected player stopped after the sample finished", round)
		}
	}
}
