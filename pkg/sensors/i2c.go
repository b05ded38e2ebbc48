// ABOUTME: Accelerometer driven directly over I2C with periph
// ABOUTME: Talks to the MMA7660 registers when the kernel driver is absent
package sensors

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// MMA7660 registers and constants
const (
	mma7660Addr = 0x4c

	regXOut = 0x00
	regMode = 0x07
	regSR   = 0x08

	modeStandby = 0x00
	modeActive  = 0x01

	// 120 samples per second in active mode
	rateAM120 = 0x01

	alertBit   = 0x40
	maxRetries = 4

	// counts per g at the fixed +/-1.5g range
	countsPerG = 21.33
	standardG  = 9.80665
)

var errAlert = errors.New("mma7660: register read during update")

// I2CAccelerometer reads the MMA7660 over an I2C bus
type I2CAccelerometer struct {
	mu      sync.Mutex
	busName string
	open    func(name string) (i2c.BusCloser, error)
	bus     i2c.BusCloser
	dev     *i2c.Dev
	delay   time.Duration
	active  bool
	now     func() time.Time
	log     zerolog.Logger
}

// I2COption configures an I2CAccelerometer
type I2COption func(*I2CAccelerometer)

// WithBusOpener replaces the periph bus registry lookup
func WithBusOpener(open func(name string) (i2c.BusCloser, error)) I2COption {
	return func(a *I2CAccelerometer) {
		a.open = open
	}
}

// NewI2CAccelerometer creates an accelerometer on the named bus. An empty
// name selects the first bus periph finds.
func NewI2CAccelerometer(busName string, log zerolog.Logger, opts ...I2COption) *I2CAccelerometer {
	a := &I2CAccelerometer{
		busName: busName,
		open:    openBus,
		delay:   DefaultDelay,
		now:     time.Now,
		log:     log,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func openBus(name string) (i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}
	return i2creg.Open(name)
}

func (a *I2CAccelerometer) Info() Info {
	return Info{
		Name:       "mma7660",
		Vendor:     "freescale",
		Version:    1,
		Handle:     AccelerometerHandle,
		Type:       TypeAccelerometer,
		MaxRange:   1.5 * standardG,
		Resolution: standardG / countsPerG,
		Power:      0.047,
		MinDelay:   DefaultDelay,
	}
}

// Init opens the bus and leaves the chip in standby
func (a *I2CAccelerometer) Init() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.bus != nil {
		return nil
	}

	bus, err := a.open(a.busName)
	if err != nil {
		return fmt.Errorf("failed to open i2c bus %q: %w", a.busName, err)
	}
	dev := &i2c.Dev{Addr: mma7660Addr, Bus: bus}

	if err := dev.Tx([]byte{regMode, modeStandby}, nil); err != nil {
		bus.Close()
		return fmt.Errorf("failed to reset mma7660: %w", err)
	}
	if err := dev.Tx([]byte{regSR, rateAM120}, nil); err != nil {
		bus.Close()
		return fmt.Errorf("failed to set mma7660 rate: %w", err)
	}

	a.bus = bus
	a.dev = dev
	a.active = false
	a.log.Debug().Str("bus", bus.String()).Msg("mma7660 initialized")
	return nil
}

// Close puts the chip in standby and releases the bus
func (a *I2CAccelerometer) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.bus == nil {
		return nil
	}
	err := a.dev.Tx([]byte{regMode, modeStandby}, nil)
	if cerr := a.bus.Close(); err == nil {
		err = cerr
	}
	a.bus = nil
	a.dev = nil
	a.active = false
	return err
}

// Activate switches between active and standby mode
func (a *I2CAccelerometer) Activate(enabled bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.dev == nil {
		return ErrNotOpen
	}

	mode := byte(modeStandby)
	if enabled {
		mode = modeActive
	}
	if err := a.dev.Tx([]byte{regMode, mode}, nil); err != nil {
		return fmt.Errorf("failed to set mma7660 mode: %w", err)
	}
	a.active = enabled
	return nil
}

// SetDelay changes the wait before each read
func (a *I2CAccelerometer) SetDelay(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("invalid delay %v", d)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.delay = d
	return nil
}

// HasData reports whether the chip is sampling
func (a *I2CAccelerometer) HasData() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

// Poll waits the sampling delay, then reads all three axes in m/s^2
func (a *I2CAccelerometer) Poll(ctx context.Context, events []Event) (int, error) {
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

	if a.dev == nil {
		return 0, ErrNotOpen
	}

	var axes [3]int
	var err error
	for try := 0; try < maxRetries; try++ {
		axes, err = a.readAxes()
		if !errors.Is(err, errAlert) {
			break
		}
	}
	if err != nil {
		a.log.Debug().Err(err).Msg("mma7660 read failed")
		return 0, nil
	}

	events[0] = Event{
		Version:   EventVersion,
		Sensor:    AccelerometerHandle,
		Type:      TypeAccelerometer,
		Timestamp: a.now().UnixNano(),
		Acceleration: Vector{
			X:      toMS2(axes[0]),
			Y:      toMS2(axes[1]),
			Z:      toMS2(axes[2]),
			Status: StatusMedium,
		},
	}
	return 1, nil
}

// readAxes reads XOUT, YOUT and ZOUT in one transaction
func (a *I2CAccelerometer) readAxes() ([3]int, error) {
	var raw [3]byte
	if err := a.dev.Tx([]byte{regXOut}, raw[:]); err != nil {
		return [3]int{}, err
	}

	var axes [3]int
	for i, b := range raw {
		if b&alertBit != 0 {
			return [3]int{}, errAlert
		}
		axes[i] = signExtend6(b)
	}
	return axes, nil
}

// signExtend6 decodes a 6-bit two's complement register value
func signExtend6(b byte) int {
	v := int(b & 0x3f)
	if v&0x20 != 0 {
		v -= 0x40
	}
	return v
}

func toMS2(counts int) float32 {
	return float32(float64(counts) / countsPerG * standardG)
}
