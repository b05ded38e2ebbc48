// ABOUTME: PCM audio decoder
// ABOUTME: Decodes 16-bit and 24-bit PCM frames, carrying split samples across buffers
package decode

import (
	"fmt"

	"github.com/mini210/hal/pkg/audio"
)

// PCMDecoder decodes little-endian PCM. A buffer that ends inside a sample
// keeps the partial bytes for the next call.
type PCMDecoder struct {
	bitDepth int
	pending  []byte
}

// NewPCM creates a new PCM decoder
func NewPCM(format audio.Format) (Decoder, error) {
	if format.Codec != "pcm" {
		return nil, fmt.Errorf("invalid codec for PCM decoder: %s", format.Codec)
	}

	if format.BitDepth != 16 && format.BitDepth != 24 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", format.BitDepth)
	}

	return &PCMDecoder{
		bitDepth: format.BitDepth,
	}, nil
}

// Decode converts PCM bytes to int32 samples
func (d *PCMDecoder) Decode(data []byte) ([]int32, error) {
	if len(d.pending) > 0 {
		data = append(d.pending, data...)
		d.pending = nil
	}

	width := d.bitDepth / 8
	whole := len(data) - len(data)%width
	if whole < len(data) {
		d.pending = append([]byte(nil), data[whole:]...)
	}
	data = data[:whole]

	if width == 2 {
		return audio.S16LEToInt32(data), nil
	}

	samples := make([]int32, whole/3)
	for i := range samples {
		samples[i] = audio.SampleFrom24Bit([3]byte{data[i*3], data[i*3+1], data[i*3+2]})
	}
	return samples, nil
}

// Close releases resources
func (d *PCMDecoder) Close() error {
	d.pending = nil
	return nil
}
