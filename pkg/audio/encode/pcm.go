// ABOUTME: PCM audio encoder
// ABOUTME: Encodes int32 samples to 16-bit or 24-bit little-endian PCM
package encode

import (
	"fmt"

	"github.com/mini210/hal/pkg/audio"
)

// PCMEncoder encodes PCM audio, one packet per call
type PCMEncoder struct {
	bitDepth int
}

// NewPCM creates a new PCM encoder
func NewPCM(format audio.Format) (Encoder, error) {
	if format.Codec != "pcm" {
		return nil, fmt.Errorf("invalid codec for PCM encoder: %s", format.Codec)
	}

	if format.BitDepth != 16 && format.BitDepth != 24 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", format.BitDepth)
	}

	return &PCMEncoder{
		bitDepth: format.BitDepth,
	}, nil
}

// Encode converts int32 samples to one PCM packet
func (e *PCMEncoder) Encode(samples []int32) ([][]byte, error) {
	if len(samples) == 0 {
		return nil, nil
	}
	if e.bitDepth == 16 {
		return [][]byte{audio.Int32ToS16LE(samples)}, nil
	}

	out := make([]byte, len(samples)*3)
	for i, sample := range samples {
		b := audio.SampleTo24Bit(sample)
		copy(out[i*3:], b[:])
	}
	return [][]byte{out}, nil
}

// Close releases resources
func (e *PCMEncoder) Close() error {
	return nil
}
