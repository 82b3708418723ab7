// ABOUTME: Audio type definitions
// ABOUTME: Defines decoded frames, stream parameters and sample scaling
package audio

import "fmt"

// Unknown marks a Parameters field that decoding has not determined yet
const Unknown = -1

// Frame is one stereo sample pair
type Frame struct {
	Left  float32
	Right float32
}

// Parameters describes a decoded stream
type Parameters struct {
	Channels     int
	BitrateHz    int
	SampleRateHz int
}

// UnknownParameters returns Parameters with every field set to Unknown
func UnknownParameters() Parameters {
	return Parameters{
		Channels:     Unknown,
		BitrateHz:    Unknown,
		SampleRateHz: Unknown,
	}
}

// Known reports whether channels and sample rate have been determined
func (p Parameters) Known() bool {
	return p.Channels > 0 && p.SampleRateHz > 0
}

func (p Parameters) String() string {
	return fmt.Sprintf("%dHz %dch %dbps", p.SampleRateHz, p.Channels, p.BitrateHz)
}

// FixedToFloat converts a fixed-point sample with fracBits fractional bits
// to a float clamped to [-1, 1]
func FixedToFloat(sample int32, fracBits uint) float32 {
	f := float32(sample) / float32(int64(1)<<fracBits)
	return Clamp(f, -1, 1)
}

// Clamp limits v to [lo, hi]
func Clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
