// ABOUTME: Audio output package for real-time playback bindings
// ABOUTME: Provides Backend implementations for malgo, PortAudio, oto and a null sink
// Package output binds real-time playback libraries to a pull-style feed.
//
// Available backends:
//   - Malgo: miniaudio via gen2brain/malgo, with device enumeration (default)
//   - PortAudio: gordonklaus/portaudio, requires building with -tags portaudio
//   - Oto: ebitengine/oto, system default device only
//   - Null: paced by a ticker, discards audio
//   - Manual: renders one buffer per Pump call
//
// Every stream is 2-channel interleaved float32. The FeedFunc runs on the
// library's real-time goroutine; returning Complete or Abort stops the stream
// without blocking that goroutine.
//
// Example:
//
//	backend, err := output.New("malgo")
//	dev, err := backend.DefaultDevice()
//	stream, err := backend.OpenStream(output.StreamConfig{
//	    Device:          dev,
//	    SampleRate:      44100,
//	    FramesPerBuffer: 512,
//	}, func(out []float32) output.Result {
//	    return output.Continue
//	})
//	stream.Start()
package output
