// ABOUTME: Functional options for output streams and devices
// ABOUTME: Configures sleeping, logging, pacing caps and metric observers
package output

import (
	"time"

	"github.com/rs/zerolog"
)

// Option configures a Stream
type Option func(*Stream)

// WithSleeper replaces time.Sleep in the pacing loop
func WithSleeper(sleep func(time.Duration)) Option {
	return func(s *Stream) {
		if sleep != nil {
			s.sleep = sleep
		}
	}
}

// WithMaxPacingWait bounds the total time one Write may spend pacing. Once
// exceeded the buffer is written unpaced. Zero means no bound.
func WithMaxPacingWait(d time.Duration) Option {
	return func(s *Stream) {
		s.maxPacingWait = d
	}
}

// WithLogger sets the stream logger
func WithLogger(log zerolog.Logger) Option {
	return func(s *Stream) {
		s.log = log
	}
}

// WithObserver reports stream events to o
func WithObserver(o Observer) Option {
	return func(s *Stream) {
		if o != nil {
			s.observer = o
		}
	}
}

// Observer receives stream events, typically to export metrics
type Observer interface {
	Written(bytes int)
	Slept(d time.Duration)
	QueryFailed()
	ActivationFailed()
}

type nopObserver struct{}

func (nopObserver) Written(int)         {}
func (nopObserver) Slept(time.Duration) {}
func (nopObserver) QueryFailed()        {}
func (nopObserver) ActivationFailed()   {}
