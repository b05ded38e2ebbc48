// ABOUTME: Decoder interface definition
// ABOUTME: Common interface for network frame decoders and codec dispatch
package decode

import (
	"fmt"

	"github.com/mini210/hal/pkg/audio"
)

// Decoder decodes audio in various formats to PCM int32 samples
type Decoder interface {
	// Decode converts encoded audio data to PCM samples
	Decode(data []byte) ([]int32, error)

	// Close releases decoder resources
	Close() error
}

// New creates the decoder for format.Codec
func New(format audio.Format) (Decoder, error) {
	switch format.Codec {
	case "pcm":
		return NewPCM(format)
	case "opus":
		return NewOpus(format)
	default:
		return nil, fmt.Errorf("unsupported codec: %s", format.Codec)
	}
}
