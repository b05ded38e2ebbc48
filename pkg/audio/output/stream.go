// ABOUTME: Playback stream that paces writes into the hardware ring buffer
// ABOUTME: Activates the PCM on first write and keeps queued frames under the write threshold
package output

import (
	"fmt"
	"sync"
	"time"

	"github.com/mini210/hal/pkg/audio/pcm"
	"github.com/rs/zerolog"
)

// MinWriteSleep is the shortest pacing sleep
const MinWriteSleep = 5000 * time.Microsecond

// State is the lifecycle state of a stream
type State int

const (
	StateStandby State = iota
	StateActive
)

func (s State) String() string {
	switch s {
	case StateStandby:
		return "standby"
	case StateActive:
		return "active"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Stats is a snapshot of stream counters
type Stats struct {
	State              State
	WriteThreshold     uint32
	Writes             int64
	Bytes              int64
	Sleeps             int64
	Slept              time.Duration
	QueryFailures      int64
	Activations        int64
	ActivationFailures int64
	LastResident       int64
}

// Stream is one open playback endpoint. All submissions to a stream are
// serialized by its lock.
type Stream struct {
	mu sync.Mutex

	config pcm.Config
	opener pcm.Opener
	ring   pcm.Ring // nil while in standby

	standby        bool
	closed         bool
	writeThreshold uint32

	sleep         func(time.Duration)
	maxPacingWait time.Duration
	observer      Observer
	log           zerolog.Logger

	// statsMu guards stats and is never held across hardware calls or sleeps
	statsMu sync.Mutex
	stats   Stats
}

// NewStream creates a stream in standby using the board's fixed
// configuration. The ring is opened on the first Write.
func NewStream(opener pcm.Opener, opts ...Option) *Stream {
	s := &Stream{
		config:   pcm.DefaultConfig(),
		opener:   opener,
		standby:  true,
		sleep:    time.Sleep,
		observer: nopObserver{},
		log:      zerolog.Nop(),
		stats:    Stats{State: StateStandby},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Write submits buf, a run of S16_LE stereo frames, to the hardware. A
// stream in standby is activated first. Before transferring, Write sleeps
// until the frames resident in the ring drop to the write threshold.
func (s *Stream) Write(buf []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}

	if s.standby {
		if err := s.start(); err != nil {
			s.record(func(st *Stats) { st.ActivationFailures++ })
			s.observer.ActivationFailed()
			s.log.Error().Err(err).Msg("output stream activation failed")
			return 0, err
		}
		s.standby = false
		s.record(func(st *Stats) {
			st.Activations++
			st.State = StateActive
			st.WriteThreshold = s.writeThreshold
		})
		s.log.Debug().
			Uint32("threshold", s.writeThreshold).
			Uint32("buffer", s.ring.BufferSize()).
			Msg("output stream active")
	}

	s.pace()

	n, err := s.ring.MmapWrite(buf)
	if err != nil {
		return n, fmt.Errorf("%w: %w", ErrTransfer, err)
	}

	s.record(func(st *Stats) {
		st.Writes++
		st.Bytes += int64(n)
	})
	s.observer.Written(n)
	return n, nil
}

// start opens the ring with mmap access (must hold s.mu)
func (s *Stream) start() error {
	cfg := s.config
	s.writeThreshold = cfg.PeriodCount * cfg.PeriodSize
	cfg.StartThreshold = cfg.PeriodSize * 2
	cfg.AvailMin = cfg.PeriodSize

	ring, err := s.opener.Open(cfg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrActivation, err)
	}

	s.config = cfg
	s.ring = ring
	return nil
}

// pace sleeps until the resident frame count is at or below the write
// threshold. A failed hardware query ends pacing early (must hold s.mu).
func (s *Stream) pace() {
	var waited time.Duration

	for {
		avail, _, err := s.ring.Timestamp()
		if err != nil {
			s.record(func(st *Stats) { st.QueryFailures++ })
			s.observer.QueryFailed()
			s.log.Trace().Err(err).Msg("pcm timestamp unavailable, writing unpaced")
			return
		}

		resident := int64(s.ring.BufferSize()) - int64(avail)
		s.record(func(st *Stats) { st.LastResident = resident })

		d := pacingDelay(resident, int64(s.writeThreshold), s.config.Rate)
		if d == 0 {
			return
		}

		if s.maxPacingWait > 0 && waited >= s.maxPacingWait {
			s.log.Warn().
				Int64("resident", resident).
				Dur("waited", waited).
				Msg("hardware stopped consuming frames, giving up pacing")
			return
		}

		s.sleep(d)
		waited += d
		s.record(func(st *Stats) {
			st.Sleeps++
			st.Slept += d
		})
		s.observer.Slept(d)
	}
}

// pacingDelay returns how long to sleep for the given fill level, or 0 when
// no wait is needed
func pacingDelay(resident, threshold int64, rate uint32) time.Duration {
	if resident <= threshold {
		return 0
	}
	if rate == 0 {
		return MinWriteSleep
	}

	us := (resident - threshold) * 1000000 / int64(rate)
	d := time.Duration(us) * time.Microsecond
	if d < MinWriteSleep {
		d = MinWriteSleep
	}
	return d
}

// Standby closes the ring and returns the stream to standby. The next Write
// reactivates it.
func (s *Stream) Standby() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.standbyLocked()
}

func (s *Stream) standbyLocked() error {
	if s.standby {
		return nil
	}

	err := s.ring.Close()
	s.ring = nil
	s.standby = true
	s.record(func(st *Stats) { st.State = StateStandby })
	s.log.Debug().Msg("output stream standby")

	if err != nil {
		return fmt.Errorf("failed to close pcm: %w", err)
	}
	return nil
}

// Close puts the stream in standby and rejects further writes
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	err := s.standbyLocked()
	s.closed = true
	return err
}

// State returns the current lifecycle state
func (s *Stream) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.standby {
		return StateStandby
	}
	return StateActive
}

// Stats returns a snapshot of the stream counters. It does not wait for a
// write in progress.
func (s *Stream) Stats() Stats {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.stats
}

func (s *Stream) record(update func(*Stats)) {
	s.statsMu.Lock()
	update(&s.stats)
	s.statsMu.Unlock()
}

// Config returns the stream's PCM configuration
func (s *Stream) Config() pcm.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// WriteThreshold returns the maximum number of frames allowed in the ring
// before writes wait. It is zero until the first activation.
func (s *Stream) WriteThreshold() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeThreshold
}

// SampleRate returns the fixed output rate
func (s *Stream) SampleRate() int {
	return pcm.DefaultSampleRate
}

// SetSampleRate is accepted and ignored; the rate is fixed
func (s *Stream) SetSampleRate(rate int) error {
	return nil
}

// Channels returns the output channel count (stereo)
func (s *Stream) Channels() int {
	return 2
}

// Format returns the output sample format
func (s *Stream) Format() pcm.Format {
	return pcm.FormatS16LE
}

// SetFormat is accepted and ignored; the format is fixed
func (s *Stream) SetFormat(format pcm.Format) error {
	return nil
}

// BufferSize returns the preferred submission size in bytes: one period,
// rounded up to a multiple of 16 frames
func (s *Stream) BufferSize() int {
	s.mu.Lock()
	cfg := s.config
	s.mu.Unlock()

	size := (pcm.DefaultPeriodSize * pcm.DefaultSampleRate) / int(cfg.Rate)
	size = ((size + 15) / 16) * 16
	return size * int(cfg.FrameSize())
}

// Latency returns the duration of audio the full ring holds
func (s *Stream) Latency() time.Duration {
	s.mu.Lock()
	cfg := s.config
	s.mu.Unlock()

	ms := (cfg.PeriodSize * cfg.PeriodCount * 1000) / cfg.Rate
	return time.Duration(ms) * time.Millisecond
}

// SetVolume is not supported by the stream; volume is owned by the mixer
func (s *Stream) SetVolume(left, right float32) error {
	return ErrNotSupported
}

// RenderPosition is not available from this hardware
func (s *Stream) RenderPosition() (uint32, error) {
	return 0, ErrInvalid
}

// Parameters returns no values for any keys
func (s *Stream) Parameters(keys string) string {
	return ""
}

// SetParameters accepts and ignores key/value pairs
func (s *Stream) SetParameters(kvpairs string) error {
	return nil
}
