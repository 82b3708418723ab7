// ABOUTME: MPEG audio stream package
// ABOUTME: Frame sync, header parsing and callback-driven Layer III decoding
// Package mpeg decodes MPEG-1/2/2.5 Layer III audio from a byte stream that
// the caller supplies piece by piece.
//
// The Codec is driven by a Handler with four callbacks:
//   - Input refills the Stream buffer, keeping any partial frame
//   - Header sees every frame header before it is decoded
//   - Output receives the PCM of each decoded frame
//   - Error is told about lost sync, bad frames and decode failures
//
// The codec locates frames itself (skipping ID3 tags and garbage) and hands
// complete Layer III frames to go-mp3, whose 16-bit output is delivered as
// fixed-point samples with FracBits fractional bits.
//
// Example:
//
//	codec := mpeg.New(handler)
//	codec.Run() // returns when Input or Output answers FlowStop
package mpeg
