// ABOUTME: Encoder interface definition
// ABOUTME: Turns PCM int32 samples into wire packets for remote submission
package encode

import (
	"fmt"

	"github.com/mini210/hal/pkg/audio"
)

// Encoder encodes PCM int32 samples into packets. An encoder with a fixed
// packet duration buffers samples until a full packet is available.
type Encoder interface {
	// Encode converts PCM samples to zero or more encoded packets
	Encode(samples []int32) ([][]byte, error)

	// Close releases encoder resources
	Close() error
}

// New creates the encoder for format.Codec
func New(format audio.Format) (Encoder, error) {
	switch format.Codec {
	case "pcm":
		return NewPCM(format)
	case "opus":
		return NewOpus(format)
	default:
		return nil, fmt.Errorf("unsupported codec: %s", format.Codec)
	}
}
