// ABOUTME: Audio decoder package for frames received over the network
// ABOUTME: Provides Decoder interface and implementations for PCM and Opus
// Package decode provides audio decoders for remotely submitted buffers.
//
// Supports: PCM (16-bit and 24-bit), Opus
//
// All decoders implement the Decoder interface and output int32 samples
// in 24-bit range.
//
// Example:
//
//	decoder, err := decode.New(format)
//	samples, err := decoder.Decode(frame)
package decode
