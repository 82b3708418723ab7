// ABOUTME: Soundboard playback package
// ABOUTME: Players with gain, mute and loop controls registered in a device-aware Mixer
// Package soundboard plays audio files through an output backend.
//
// A Mixer owns the output device selection, the channel routing mode and a
// registry of Players keyed by PlayerID. Each Player owns one decoder and
// one output stream and exposes a peak level meter for polling UIs.
//
// Example:
//
//	backend, _ := output.New("malgo")
//	mixer, err := soundboard.NewMixer(soundboard.Config{Backend: backend})
//	id := mixer.NewPlayer()
//	p, _ := mixer.Player(id)
//	if err := p.Open("airhorn.wav"); err != nil {
//	    return err
//	}
//	p.SetGain(0.8)
//	p.Play()
//	level := p.Level()
package soundboard
