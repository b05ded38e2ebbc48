// ABOUTME: Tests for the sysfs accelerometer
// ABOUTME: Uses temp files in place of the driver's sysfs node
package sensors

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func writeNode(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "all_axis_g")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	return path
}

func newTestSysfs(t *testing.T, content string) *SysfsAccelerometer {
	t.Helper()
	a := NewSysfsAccelerometer(writeNode(t, content), zerolog.Nop())
	a.SetDelay(0)
	a.now = func() time.Time { return time.Unix(10, 5) }
	if err := a.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestSysfsPollParsesReading(t *testing.T) {
	tests := []struct {
		name    string
		content string
		x, y, z float32
	}{
		{"board sample", "-1, 0, 22\n", 0, 0, 11},
		{"negative", "-9, -4, -30", -4, -2, -15},
		{"odd values", "3, 5, 7", 1, 2, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestSysfs(t, tt.content)

			events := make([]Event, 4)
			n, err := a.Poll(context.Background(), events)
			if err != nil {
				t.Fatalf("poll failed: %v", err)
			}
			if n != 1 {
				t.Fatalf("expected 1 event, got %d", n)
			}

			e := events[0]
			if e.Acceleration.X != tt.x || e.Acceleration.Y != tt.y || e.Acceleration.Z != tt.z {
				t.Errorf("expected (%v, %v, %v), got (%v, %v, %v)",
					tt.x, tt.y, tt.z, e.Acceleration.X, e.Acceleration.Y, e.Acceleration.Z)
			}
			if e.Acceleration.Status != StatusMedium {
				t.Errorf("expected medium status, got %d", e.Acceleration.Status)
			}
			if e.Sensor != AccelerometerHandle {
				t.Errorf("expected handle %d, got %d", AccelerometerHandle, e.Sensor)
			}
			if e.Type != TypeAccelerometer {
				t.Errorf("expected accelerometer type, got %v", e.Type)
			}
			if e.Timestamp != 10*int64(time.Second)+5 {
				t.Errorf("unexpected timestamp %d", e.Timestamp)
			}
		})
	}
}

func TestSysfsPollRereadsFromStart(t *testing.T) {
	path := writeNode(t, "2, 4, 6")
	a := NewSysfsAccelerometer(path, zerolog.Nop())
	a.SetDelay(0)
	if err := a.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	defer a.Close()

	events := make([]Event, 1)
	if _, err := a.Poll(context.Background(), events); err != nil {
		t.Fatalf("poll failed: %v", err)
	}

	if err := os.WriteFile(path, []byte("8, 10, 12"), 0o644); err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}
	n, err := a.Poll(context.Background(), events)
	if err != nil || n != 1 {
		t.Fatalf("second poll: n=%d err=%v", n, err)
	}
	if events[0].Acceleration.X != 4 {
		t.Errorf("expected fresh reading x=4, got %v", events[0].Acceleration.X)
	}
}

func TestSysfsPollBadData(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"garbage", "not a reading"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestSysfs(t, tt.content)

			n, err := a.Poll(context.Background(), make([]Event, 1))
			if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
			if n != 0 {
				t.Errorf("expected 0 events, got %d", n)
			}
		})
	}
}

func TestSysfsPollHonorsContext(t *testing.T) {
	a := newTestSysfs(t, "1, 2, 3")
	a.SetDelay(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Poll(ctx, make([]Event, 1))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSysfsPollBeforeInit(t *testing.T) {
	a := NewSysfsAccelerometer(writeNode(t, "1, 2, 3"), zerolog.Nop())
	a.SetDelay(0)

	if _, err := a.Poll(context.Background(), make([]Event, 1)); !errors.Is(err, ErrNotOpen) {
		t.Errorf("expected ErrNotOpen, got %v", err)
	}
}

func TestSysfsInitMissingNode(t *testing.T) {
	a := NewSysfsAccelerometer(filepath.Join(t.TempDir(), "missing"), zerolog.Nop())

	if err := a.Init(); err == nil {
		t.Error("expected init to fail for missing node")
	}
}

func TestSysfsInfo(t *testing.T) {
	a := NewSysfsAccelerometer("", zerolog.Nop())

	if a.path != DefaultSysfsPath {
		t.Errorf("expected default path, got %s", a.path)
	}
	info := a.Info()
	if info.Name != "mma7660" || info.Vendor != "freescale" {
		t.Errorf("unexpected info %+v", info)
	}
	if info.Handle != 1 {
		t.Errorf("expected handle 1, got %d", info.Handle)
	}
	if info.MaxRange != 30 {
		t.Errorf("expected max range 30, got %v", info.MaxRange)
	}
	if info.MinDelay != 10*time.Millisecond {
		t.Errorf("expected 10ms min delay, got %v", info.MinDelay)
	}
	if err := a.SetDelay(-time.Second); err == nil {
		t.Error("expected negative delay to be rejected")
	}
}
