// ABOUTME: Sensor poll device
// ABOUTME: Owns the registered sensors and routes calls by validated handle
package sensors

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Observer receives every event the device returns from Poll
type Observer interface {
	SensorEvent(e Event)
}

// DeviceOption configures a Device
type DeviceOption func(*Device)

// WithLogger sets the device logger
func WithLogger(log zerolog.Logger) DeviceOption {
	return func(d *Device) {
		d.log = log
	}
}

// WithObserver reports polled events to o
func WithObserver(o Observer) DeviceOption {
	return func(d *Device) {
		d.observer = o
	}
}

// Device is the sensor poll device. Sensors are looked up by handle; a
// handle that was never registered yields ErrUnknownHandle.
type Device struct {
	mu       sync.Mutex
	sensors  map[int]Sensor
	handles  []int
	open     bool
	log      zerolog.Logger
	observer Observer
}

// NewDevice registers sensors under their Info().Handle
func NewDevice(sensors []Sensor, opts ...DeviceOption) (*Device, error) {
	d := &Device{
		sensors: make(map[int]Sensor, len(sensors)),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}

	for _, s := range sensors {
		h := s.Info().Handle
		if _, dup := d.sensors[h]; dup {
			return nil, fmt.Errorf("duplicate sensor handle %d", h)
		}
		d.sensors[h] = s
		d.handles = append(d.handles, h)
	}
	sort.Ints(d.handles)
	return d, nil
}

// Open initializes every sensor in handle order. If one fails, the sensors
// already initialized are closed again.
func (d *Device) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.open {
		return nil
	}

	for i, h := range d.handles {
		if err := d.sensors[h].Init(); err != nil {
			for j := i - 1; j >= 0; j-- {
				if cerr := d.sensors[d.handles[j]].Close(); cerr != nil {
					d.log.Warn().Err(cerr).Int("handle", d.handles[j]).Msg("sensor rollback close failed")
				}
			}
			return fmt.Errorf("sensor %d init: %w", h, err)
		}
	}

	d.open = true
	d.log.Info().Int("sensors", len(d.handles)).Msg("sensor device open")
	return nil
}

func (d *Device) lookup(handle int) (Sensor, error) {
	s, ok := d.sensors[handle]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownHandle, handle)
	}
	return s, nil
}

// Activate enables or disables the sensor with the given handle
func (d *Device) Activate(handle int, enabled bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, err := d.lookup(handle)
	if err != nil {
		return err
	}
	return s.Activate(enabled)
}

// SetDelay sets the sampling delay of the sensor with the given handle
func (d *Device) SetDelay(handle int, delay time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, err := d.lookup(handle)
	if err != nil {
		return err
	}
	return s.SetDelay(delay)
}

// Poll fills events from every sensor that has data, in handle order, and
// returns the number of events written
func (d *Device) Poll(ctx context.Context, events []Event) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.open {
		return 0, ErrNotOpen
	}

	n := 0
	for _, h := range d.handles {
		if n >= len(events) {
			break
		}
		s := d.sensors[h]
		if !s.HasData() {
			continue
		}
		k, err := s.Poll(ctx, events[n:])
		if err != nil {
			return n, err
		}
		if d.observer != nil {
			for _, e := range events[n : n+k] {
				d.observer.SensorEvent(e)
			}
		}
		n += k
	}
	return n, nil
}

// List returns the registered sensors sorted by handle
func (d *Device) List() []Info {
	d.mu.Lock()
	defer d.mu.Unlock()

	infos := make([]Info, 0, len(d.handles))
	for _, h := range d.handles {
		infos = append(infos, d.sensors[h].Info())
	}
	return infos
}

// Close releases every sensor
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.open {
		return nil
	}
	d.open = false

	var errs []error
	for i := len(d.handles) - 1; i >= 0; i-- {
		if err := d.sensors[d.handles[i]].Close(); err != nil {
			errs = append(errs, fmt.Errorf("sensor %d close: %w", d.handles[i], err))
		}
	}
	return errors.Join(errs...)
}
