// ABOUTME: Hardware PCM ring buffer abstraction
// ABOUTME: Defines the ring buffer contract the output stream drives
package pcm

import (
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultSampleRate is the only rate the board codec is driven at
	DefaultSampleRate = 44100

	// DefaultPeriodSize is 24*80 frames, 43.5ms at 44.1kHz
	DefaultPeriodSize = 24 * 80

	// DefaultPeriodCount is the number of periods in the playback ring
	DefaultPeriodCount = 4
)

// ErrUnsupported is returned by openers that have no hardware backend on
// the current platform
var ErrUnsupported = errors.New("pcm: hardware backend not supported on this platform")

// Format is a PCM sample format
type Format int

const (
	FormatS16LE Format = iota
	FormatS24LE
	FormatS32LE
	FormatS8
)

// Bits returns the container width of one sample
func (f Format) Bits() uint32 {
	switch f {
	case FormatS8:
		return 8
	case FormatS16LE:
		return 16
	case FormatS24LE, FormatS32LE:
		return 32
	default:
		return 0
	}
}

func (f Format) String() string {
	switch f {
	case FormatS8:
		return "S8"
	case FormatS16LE:
		return "S16_LE"
	case FormatS24LE:
		return "S24_LE"
	case FormatS32LE:
		return "S32_LE"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Config carries the hardware and software parameters of a playback ring
type Config struct {
	Channels    uint32
	Rate        uint32
	Format      Format
	PeriodSize  uint32
	PeriodCount uint32

	// StartThreshold is the fill level in frames at which the hardware
	// starts playing
	StartThreshold uint32

	// AvailMin is the number of free frames that wakes a blocked writer
	AvailMin uint32
}

// DefaultConfig returns the fixed playback configuration of the board:
// stereo, 44.1kHz, S16_LE, 4 periods of 1920 frames
func DefaultConfig() Config {
	return Config{
		Channels:    2,
		Rate:        DefaultSampleRate,
		Format:      FormatS16LE,
		PeriodSize:  DefaultPeriodSize,
		PeriodCount: DefaultPeriodCount,
	}
}

// FrameSize returns the size of one frame in bytes
func (c Config) FrameSize() uint32 {
	return c.Channels * (c.Format.Bits() / 8)
}

// BufferFrames returns the requested ring size in frames
func (c Config) BufferFrames() uint32 {
	return c.PeriodSize * c.PeriodCount
}

// FramesToBytes converts a frame count to bytes
func (c Config) FramesToBytes(frames uint32) uint32 {
	return frames * c.FrameSize()
}

// BytesToFrames converts a byte count to whole frames
func (c Config) BytesToFrames(bytes uint32) uint32 {
	fs := c.FrameSize()
	if fs == 0 {
		return 0
	}
	return bytes / fs
}

// Ring is an open memory-mapped playback ring buffer maintained by the
// kernel driver
type Ring interface {
	// Timestamp reports how many frames the hardware has consumed and can
	// be refilled, and when that measurement was taken
	Timestamp() (avail uint32, ts time.Time, err error)

	// BufferSize returns the ring capacity in frames
	BufferSize() uint32

	// MmapWrite copies data into the ring and returns the bytes accepted
	MmapWrite(data []byte) (int, error)

	// Close releases the ring
	Close() error
}

// Opener opens playback rings
type Opener interface {
	Open(config Config) (Ring, error)
}

// OpenerFunc adapts a function to the Opener interface
type OpenerFunc func(config Config) (Ring, error)

// Open calls f(config)
func (f OpenerFunc) Open(config Config) (Ring, error) {
	return f(config)
}
