// ABOUTME: Output backend that feeds decoded samples into a paced Stream
// ABOUTME: Resamples to the board rate and upmixes mono before writing S16_LE frames
package output

import (
	"fmt"

	"github.com/mini210/hal/pkg/audio"
	"github.com/mini210/hal/pkg/audio/resample"
	"github.com/rs/zerolog"
)

// Paced adapts a Stream to the Output interface
type Paced struct {
	stream *Stream
	log    zerolog.Logger

	sampleRate int
	channels   int
	resampler  *resample.Resampler
	ready      bool
}

// NewPaced creates an Output writing to s
func NewPaced(s *Stream, log zerolog.Logger) *Paced {
	return &Paced{
		stream: s,
		log:    log,
	}
}

// Open prepares conversion from the source format to the stream format
func (p *Paced) Open(sampleRate, channels int) error {
	if channels < 1 || channels > p.stream.Channels() {
		return fmt.Errorf("unsupported channel count %d: %w", channels, ErrInvalid)
	}
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d: %w", sampleRate, ErrInvalid)
	}

	p.sampleRate = sampleRate
	p.channels = channels
	p.resampler = nil
	if sampleRate != p.stream.SampleRate() {
		p.resampler = resample.New(sampleRate, p.stream.SampleRate(), channels)
	}
	p.ready = true

	p.log.Info().
		Int("sample_rate", sampleRate).
		Int("channels", channels).
		Bool("resampling", p.resampler != nil).
		Msg("paced output opened")
	return nil
}

// Write converts samples and submits them in stream-sized chunks
func (p *Paced) Write(samples []int32) error {
	_, err := p.WriteBytes(samples)
	return err
}

// WriteBytes is Write returning the S16_LE bytes the stream accepted,
// counted after resampling and upmixing
func (p *Paced) WriteBytes(samples []int32) (int, error) {
	if !p.ready {
		return 0, fmt.Errorf("output not initialized")
	}

	if p.resampler != nil {
		out := make([]int32, p.resampler.OutputCapacity(len(samples)))
		n := p.resampler.Resample(samples, out)
		samples = out[:n]
	}
	if p.channels == 1 {
		samples = upmix(samples)
	}

	data := audio.Int32ToS16LE(samples)
	chunk := p.stream.BufferSize()
	written := 0
	for len(data) > 0 {
		end := chunk
		if end > len(data) {
			end = len(data)
		}
		n, err := p.stream.Write(data[:end])
		written += n
		if err != nil {
			return written, err
		}
		data = data[end:]
	}
	return written, nil
}

// Close puts the stream in standby. The stream stays owned by its Device.
func (p *Paced) Close() error {
	p.ready = false
	if p.resampler != nil {
		p.resampler.Reset()
	}
	return p.stream.Standby()
}

// upmix duplicates each mono sample into a stereo frame
func upmix(mono []int32) []int32 {
	stereo := make([]int32, len(mono)*2)
	for i, s := range mono {
		stereo[i*2] = s
		stereo[i*2+1] = s
	}
	return stereo
}
