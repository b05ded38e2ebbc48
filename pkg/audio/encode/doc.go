// ABOUTME: Audio encoder package for remote buffer submission
// ABOUTME: Provides Encoder interface and implementations for PCM, Opus
// Package encode provides audio encoders used by the remote client.
//
// Supports: PCM (16-bit and 24-bit), Opus (20ms packets)
//
// All encoders accept int32 samples in 24-bit range and return wire
// packets. Opus buffers input until a full packet is available.
//
// Example:
//
//	encoder, err := encode.New(format)
//	packets, err := encoder.Encode(samples)
package encode
