// ABOUTME: Sensor types shared by the poll device and its sensor variants
// ABOUTME: Defines sensor descriptions, events and the Sensor interface
package sensors

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnknownHandle is returned for a handle no sensor is registered under
	ErrUnknownHandle = errors.New("unknown sensor handle")

	// ErrNotOpen is returned when polling a device before Open
	ErrNotOpen = errors.New("sensor device not open")
)

// Type identifies the kind of measurement a sensor produces
type Type int

const (
	TypeAccelerometer Type = 1
)

func (t Type) String() string {
	if t == TypeAccelerometer {
		return "accelerometer"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Status is the accuracy of a reading
type Status int

const (
	StatusUnreliable Status = iota
	StatusLow
	StatusMedium
	StatusHigh
)

// Info describes a sensor
type Info struct {
	Name       string
	Vendor     string
	Version    int
	Handle     int
	Type       Type
	MaxRange   float32
	Resolution float32
	Power      float32 // mA
	MinDelay   time.Duration
}

// Vector is a three axis reading
type Vector struct {
	X, Y, Z float32
	Status  Status
}

// Event is one sensor reading
type Event struct {
	Version      int
	Sensor       int
	Type         Type
	Timestamp    int64 // wall clock, nanoseconds
	Acceleration Vector
}

// EventVersion is the version stamped on every event
const EventVersion = 1

// Sensor is one physical sensor. Each sensor owns its hardware handle from
// Init until Close.
type Sensor interface {
	Info() Info
	Init() error
	Close() error
	Activate(enabled bool) error
	SetDelay(d time.Duration) error

	// Poll waits for the sensor's sampling delay and fills events with
	// at most len(events) readings. Polling may return zero events.
	Poll(ctx context.Context, events []Event) (int, error)

	HasData() bool
}

// wait sleeps for d or until ctx is done
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
