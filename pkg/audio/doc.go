// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Frame, Parameters types and fixed-point sample conversion
// Package audio provides the value types shared by every decoder and player.
//
// This package defines:
//   - Frame: one left/right sample pair in the [-1, 1] float range
//   - Parameters: channels, bitrate and sample rate of a decoded stream
//
// It also provides FixedToFloat for converting codec-native fixed-point
// samples to floats.
//
// Example:
//
//	params := audio.UnknownParameters()
//	if !params.Known() {
//	    // decoding has not produced its first frame yet
//	}
//
//	// 16-bit codec output has 15 fractional bits
//	f := audio.FixedToFloat(int32(sample16), 15)
package audio
