// ABOUTME: Opus audio encoder
// ABOUTME: Packs int32 samples into 20ms Opus packets
package encode

import (
	"fmt"

	"github.com/mini210/hal/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

// maxOpusPacket bounds one encoded packet
const maxOpusPacket = 4000

// OpusEncoder encodes Opus audio in 20ms packets
type OpusEncoder struct {
	encoder   *opus.Encoder
	channels  int
	frameSize int // samples per channel in one packet
	pending   []int16
}

// NewOpus creates a new Opus encoder
func NewOpus(format audio.Format) (Encoder, error) {
	if format.Codec != "opus" {
		return nil, fmt.Errorf("invalid codec for Opus encoder: %s", format.Codec)
	}

	encoder, err := opus.NewEncoder(format.SampleRate, format.Channels, opus.AppAudio)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus encoder: %w", err)
	}

	return &OpusEncoder{
		encoder:   encoder,
		channels:  format.Channels,
		frameSize: format.SampleRate / 50,
	}, nil
}

// FrameSize returns the samples per channel in one packet
func (e *OpusEncoder) FrameSize() int {
	return e.frameSize
}

// Encode buffers samples and returns every complete packet
func (e *OpusEncoder) Encode(samples []int32) ([][]byte, error) {
	for _, s := range samples {
		e.pending = append(e.pending, audio.SampleToInt16(s))
	}

	step := e.frameSize * e.channels
	var packets [][]byte
	for len(e.pending) >= step {
		data := make([]byte, maxOpusPacket)
		n, err := e.encoder.Encode(e.pending[:step], data)
		if err != nil {
			return packets, fmt.Errorf("opus encode error: %w", err)
		}
		packets = append(packets, data[:n])
		e.pending = e.pending[step:]
	}

	// Keep the remainder in a fresh slice so the backing array does not grow
	if len(e.pending) > 0 {
		e.pending = append([]int16(nil), e.pending...)
	} else {
		e.pending = nil
	}
	return packets, nil
}

// Close drops any partial packet
func (e *OpusEncoder) Close() error {
	e.pending = nil
	return nil
}
