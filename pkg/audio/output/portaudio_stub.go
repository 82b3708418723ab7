//go:build !portaudio

// ABOUTME: PortAudio stub when library not available
// ABOUTME: Reports the backend as unavailable unless built with the portaudio tag
package output

import "fmt"

func openPortAudio() (Backend, error) {
	return nil, fmt.Errorf("%w: portaudio (build with -tags portaudio)", ErrUnavailable)
}
