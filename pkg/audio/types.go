// ABOUTME: Audio type definitions
// ABOUTME: Defines stream formats and PCM sample conversions
package audio

import "encoding/binary"

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// Format describes an audio stream format
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

// SampleToInt16 converts int32 sample to int16 (for 16-bit playback)
func SampleToInt16(sample int32) int16 {
	// Right-shift to convert 24-bit (or 16-bit) to 16-bit range
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	return int32(sample) << 8
}

// SampleTo24Bit converts int32 to 24-bit packed bytes (little-endian)
func SampleTo24Bit(sample int32) [3]byte {
	return [3]byte{
		byte(sample),
		byte(sample >> 8),
		byte(sample >> 16),
	}
}

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian)
func SampleFrom24Bit(b [3]byte) int32 {
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign extend from 24-bit to 32-bit
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF
	}
	return val
}

// Int32ToS16LE packs 24-bit range samples into S16_LE bytes, the format the
// board's PCM node plays
func Int32ToS16LE(samples []int32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(SampleToInt16(s)))
	}
	return out
}

// S16LEToInt32 unpacks S16_LE bytes into 24-bit range samples. A trailing
// odd byte is ignored.
func S16LEToInt32(data []byte) []int32 {
	samples := make([]int32, len(data)/2)
	for i := range samples {
		samples[i] = SampleFromInt16(int16(binary.LittleEndian.Uint16(data[i*2:])))
	}
	return samples
}
