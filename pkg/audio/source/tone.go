// ABOUTME: Sine wave test tone generator
// ABOUTME: Produces an endless 440Hz tone in 24-bit range
package source

import (
	"math"
	"sync"

	"github.com/mini210/hal/pkg/audio"
)

const (
	// DefaultToneRate matches the board codec so no resampling is needed
	DefaultToneRate = 44100

	// DefaultToneChannels is stereo
	DefaultToneChannels = 2
)

// Tone generates a 440Hz test tone
type Tone struct {
	mu          sync.Mutex
	sampleIndex uint64
	frequency   float64
	sampleRate  int
	channels    int
}

// NewTone creates a tone generator. Zero values select the defaults.
func NewTone(sampleRate, channels int) *Tone {
	if sampleRate == 0 {
		sampleRate = DefaultToneRate
	}
	if channels == 0 {
		channels = DefaultToneChannels
	}

	return &Tone{
		frequency:  440.0, // A4 note
		sampleRate: sampleRate,
		channels:   channels,
	}
}

func (s *Tone) Read(samples []int32) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	frames := len(samples) / s.channels

	for i := 0; i < frames; i++ {
		t := float64(s.sampleIndex+uint64(i)) / float64(s.sampleRate)
		v := math.Sin(2 * math.Pi * s.frequency * t)

		// Half scale to leave headroom
		pcmValue := int32(v * audio.Max24Bit * 0.5)

		for ch := 0; ch < s.channels; ch++ {
			samples[i*s.channels+ch] = pcmValue
		}
	}

	s.sampleIndex += uint64(frames)

	return frames * s.channels, nil
}

func (s *Tone) SampleRate() int { return s.sampleRate }
func (s *Tone) Channels() int   { return s.channels }
func (s *Tone) Metadata() (string, string, string) {
	return "Test Tone", "mini210", "Test Signal"
}
func (s *Tone) Close() error { return nil }
