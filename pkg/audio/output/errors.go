// ABOUTME: Output error values and errno mapping
// ABOUTME: Maps stream errors to the negative codes callers expect
package output

import (
	"errors"
	"syscall"
)

var (
	// ErrActivation means the hardware ring could not be opened. The stream
	// stays in standby and the next Write retries.
	ErrActivation = errors.New("cannot open pcm_out driver")

	// ErrTransfer means the mapped write into the ring failed
	ErrTransfer = errors.New("pcm mmap write failed")

	ErrClosed       = errors.New("output stream closed")
	ErrBusy         = errors.New("output stream already open")
	ErrNotSupported = errors.New("operation not supported")
	ErrInvalid      = errors.New("invalid operation")
)

// Linux errno values used by the caller contract
const (
	errnoEIO    = 5
	errnoENOMEM = 12
	errnoEBUSY  = 16
	errnoEINVAL = 22
	errnoENOSYS = 38
	errnoEPIPE  = 32
)

// Errno maps an output error to a negative errno, the return convention of
// the audio framework. A nil error maps to 0.
func Errno(err error) int {
	if err == nil {
		return 0
	}

	switch {
	case errors.Is(err, ErrActivation):
		return -errnoENOMEM
	case errors.Is(err, ErrTransfer):
		var errno syscall.Errno
		if errors.As(err, &errno) && errno != 0 {
			return -int(errno)
		}
		return -errnoEIO
	case errors.Is(err, ErrClosed):
		return -errnoEPIPE
	case errors.Is(err, ErrBusy):
		return -errnoEBUSY
	case errors.Is(err, ErrNotSupported):
		return -errnoENOSYS
	case errors.Is(err, ErrInvalid):
		return -errnoEINVAL
	default:
		return -errnoEIO
	}
}
