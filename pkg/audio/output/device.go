// ABOUTME: Primary audio device owning the board's single playback path
// ABOUTME: Opens and closes output streams and answers device queries
package output

import (
	"fmt"
	"sync"

	"github.com/mini210/hal/pkg/audio/pcm"
	"github.com/rs/zerolog"
)

// Devices is a bitmask of routable audio endpoints
type Devices uint32

const (
	DeviceOutSpeaker        Devices = 0x2
	DeviceOutWiredHeadphone Devices = 0x8
	DeviceOutDefault        Devices = 0x40000000
	DeviceBitIn             Devices = 0x80000000
	DeviceInBuiltinMic      Devices = DeviceBitIn | 0x4
	DeviceInWiredHeadset    Devices = DeviceBitIn | 0x10
	DeviceInDefault         Devices = DeviceBitIn | DeviceOutDefault
)

// Mode is the telephony mode of the device
type Mode int

const (
	ModeNormal Mode = iota
	ModeRingtone
	ModeInCall
	ModeInCommunication
)

// StreamConfig is the format a caller asks for when opening a stream
type StreamConfig struct {
	SampleRate int
	Channels   int
	Format     pcm.Format
}

// Device is the primary audio device of the board. It owns at most one
// output stream since the codec has one playback PCM.
type Device struct {
	mu sync.Mutex

	opener pcm.Opener
	opts   []Option
	log    zerolog.Logger

	out     *Stream
	mode    Mode
	micMute bool
}

// NewDevice creates the audio device. opts are applied to every output
// stream it opens.
func NewDevice(opener pcm.Opener, log zerolog.Logger, opts ...Option) *Device {
	return &Device{
		opener: opener,
		opts:   append([]Option{WithLogger(log)}, opts...),
		log:    log,
	}
}

// InitCheck reports whether the device initialized correctly
func (d *Device) InitCheck() error {
	return nil
}

// SupportedDevices returns the endpoints the codec can route
func (d *Device) SupportedDevices() Devices {
	return DeviceOutSpeaker |
		DeviceOutWiredHeadphone |
		DeviceOutDefault |
		DeviceInBuiltinMic |
		DeviceInWiredHeadset |
		DeviceInDefault
}

// OpenOutputStream opens the playback stream in standby. The requested
// format is ignored: the stream always runs stereo S16_LE at 44.1kHz, and
// the format actually used is returned.
func (d *Device) OpenOutputStream(req StreamConfig) (*Stream, StreamConfig, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.log.Debug().
		Int("sample_rate", req.SampleRate).
		Int("channels", req.Channels).
		Str("format", req.Format.String()).
		Msg("open output stream")

	if d.out != nil {
		return nil, StreamConfig{}, ErrBusy
	}

	s := NewStream(d.opener, d.opts...)
	d.out = s

	return s, StreamConfig{
		SampleRate: s.SampleRate(),
		Channels:   s.Channels(),
		Format:     s.Format(),
	}, nil
}

// CloseOutputStream closes s and releases the playback path
func (d *Device) CloseOutputStream(s *Stream) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if s == nil || s != d.out {
		return fmt.Errorf("close output stream: %w", ErrInvalid)
	}
	d.out = nil
	return s.Close()
}

// ActiveOutput returns the open output stream, or nil
func (d *Device) ActiveOutput() *Stream {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.out
}

// InputBufferSize returns 0; capture streams are not provided
func (d *Device) InputBufferSize(config StreamConfig) int {
	return 0
}

// OpenInputStream is not supported
func (d *Device) OpenInputStream(config StreamConfig) error {
	return ErrNotSupported
}

// SetMode records the telephony mode
func (d *Device) SetMode(mode Mode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mode = mode
	return nil
}

// SetVoiceVolume is accepted and ignored
func (d *Device) SetVoiceVolume(volume float32) error {
	return nil
}

// SetMicMute records the microphone mute state
func (d *Device) SetMicMute(muted bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.micMute = muted
	return nil
}

// MicMute returns the recorded microphone mute state
func (d *Device) MicMute() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.micMute
}

// Parameters returns no values for any keys
func (d *Device) Parameters(keys string) string {
	return ""
}

// SetParameters accepts and ignores key/value pairs
func (d *Device) SetParameters(kvpairs string) error {
	return nil
}

// Close closes the open output stream, if any
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.out == nil {
		return nil
	}
	err := d.out.Close()
	d.out = nil
	return err
}
