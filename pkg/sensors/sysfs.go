// ABOUTME: Accelerometer read from the MMA7660 driver's sysfs node
// ABOUTME: Parses "x, y, z" readings in driver counts
package sensors

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultSysfsPath is the all-axis node of the board's MMA7660 driver
	DefaultSysfsPath = "/sys/bus/i2c/drivers/mma7660/0-004c/all_axis_g"

	// DefaultDelay is the sampling delay between polls
	DefaultDelay = 10 * time.Millisecond

	// AccelerometerHandle is the handle of the board accelerometer
	AccelerometerHandle = 1

	sysfsReadSize = 30
)

// SysfsAccelerometer reads the accelerometer through sysfs
type SysfsAccelerometer struct {
	mu    sync.Mutex
	path  string
	file  *os.File
	delay time.Duration
	now   func() time.Time
	log   zerolog.Logger
}

// NewSysfsAccelerometer creates an accelerometer reading path. An empty
// path selects DefaultSysfsPath.
func NewSysfsAccelerometer(path string, log zerolog.Logger) *SysfsAccelerometer {
	if path == "" {
		path = DefaultSysfsPath
	}
	return &SysfsAccelerometer{
		path:  path,
		delay: DefaultDelay,
		now:   time.Now,
		log:   log,
	}
}

func (a *SysfsAccelerometer) Info() Info {
	return Info{
		Name:       "mma7660",
		Vendor:     "freescale",
		Version:    1,
		Handle:     AccelerometerHandle,
		Type:       TypeAccelerometer,
		MaxRange:   30,
		Resolution: 1,
		Power:      0,
		MinDelay:   DefaultDelay,
	}
}

// Init opens the sysfs node
func (a *SysfsAccelerometer) Init() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file != nil {
		return nil
	}
	f, err := os.Open(a.path)
	if err != nil {
		return fmt.Errorf("failed to open accelerometer: %w", err)
	}
	a.file = f
	return nil
}

// Close releases the sysfs node
func (a *SysfsAccelerometer) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	return err
}

// Activate is accepted; the driver samples continuously
func (a *SysfsAccelerometer) Activate(enabled bool) error {
	return nil
}

// SetDelay changes the wait before each read
func (a *SysfsAccelerometer) SetDelay(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("invalid delay %v", d)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.delay = d
	return nil
}

// HasData always reports true; the node can be read at any time
func (a *SysfsAccelerometer) HasData() bool {
	return true
}

// Poll waits the sampling delay, then reads one reading. Values are the
// driver's counts halved. A failed or malformed read yields no event.
func (a *SysfsAccelerometer) Poll(ctx context.Context, events []Event) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	a.mu.Lock()
	delay := a.delay
	a.mu.Unlock()

	if err := wait(ctx, delay); err != nil {
		return 0, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file == nil {
		return 0, ErrNotOpen
	}

	buf := make([]byte, sysfsReadSize)
	n, err := a.file.ReadAt(buf, 0)
	if n <= 0 {
		if err != nil && err != io.EOF {
			a.log.Debug().Err(err).Msg("accelerometer read failed")
		}
		return 0, nil
	}

	var x, y, z int
	if _, err := fmt.Sscanf(string(buf[:n]), "%d, %d, %d", &x, &y, &z); err != nil {
		a.log.Debug().Err(err).Str("data", string(buf[:n])).Msg("malformed accelerometer reading")
		return 0, nil
	}

	events[0] = Event{
		Version:   EventVersion,
		Sensor:    AccelerometerHandle,
		Type:      TypeAccelerometer,
		Timestamp: a.now().UnixNano(),
		Acceleration: Vector{
			X:      float32(x / 2),
			Y:      float32(y / 2),
			Z:      float32(z / 2),
			Status: StatusMedium,
		},
	}

	a.log.Trace().Int("x", x).Int("y", y).Int("z", z).Msg("accelerometer reading")
	return 1, nil
}
