// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format and sample conversion functions
// Package audio provides the sample types shared by the playback HAL.
//
// Samples travel between sources, decoders and outputs as int32 values in
// 24-bit range. The board codec plays 16-bit signed little-endian frames, so
// the output path packs them with Int32ToS16LE before submission.
//
// Example:
//
//	format := audio.Format{
//	    Codec:      "pcm",
//	    SampleRate: 44100,
//	    Channels:   2,
//	    BitDepth:   16,
//	}
//
//	buf := audio.Int32ToS16LE(samples)
package audio
