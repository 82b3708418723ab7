// ABOUTME: Audio file decoder package
// ABOUTME: Provides the Decoder interface with streaming MP3 and pull WAV variants
// Package decode turns audio files into a stream of stereo float frames.
//
// Two variants implement the Decoder interface:
//   - Streaming (.mp3): decodes on its own goroutine into a bounded queue
//   - Pull (.wav): reads the file on whichever goroutine calls PopFrames
//
// Callers must not assume either variant blocks or not; PopFrames takes a
// context so the real-time path can bound its wait.
//
// Example:
//
//	dec, err := decode.NewForPath("intro.mp3")
//	if err := dec.Open("intro.mp3"); err != nil {
//	    return err
//	}
//	defer dec.Close()
//	if err := dec.Start(); err != nil {
//	    return err
//	}
//	frames, err := dec.PopFrames(ctx, 512)
package decode
