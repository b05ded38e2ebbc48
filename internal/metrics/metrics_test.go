// ABOUTME: Tests for HAL metrics
// ABOUTME: Checks observer counters and the HTTP exposition
package metrics

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/mini210/hal/pkg/audio/output"
	"github.com/mini210/hal/pkg/sensors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

var (
	_ output.Observer  = (*Metrics)(nil)
	_ sensors.Observer = (*Metrics)(nil)
)

func TestObserverCounters(t *testing.T) {
	m := New()

	m.Written(7680)
	m.Written(320)
	m.Slept(100 * time.Millisecond)
	m.QueryFailed()
	m.ActivationFailed()
	m.ActivationFailed()
	m.SensorEvent(sensors.Event{Sensor: 1})

	if got := testutil.ToFloat64(m.bytesWritten); got != 8000 {
		t.Errorf("expected 8000 bytes, got %v", got)
	}
	if got := testutil.ToFloat64(m.writes); got != 2 {
		t.Errorf("expected 2 writes, got %v", got)
	}
	if got := testutil.ToFloat64(m.queryFailures); got != 1 {
		t.Errorf("expected 1 query failure, got %v", got)
	}
	if got := testutil.ToFloat64(m.activationFailures); got != 2 {
		t.Errorf("expected 2 activation failures, got %v", got)
	}
	if got := testutil.ToFloat64(m.sensorEvents.WithLabelValues("1")); got != 1 {
		t.Errorf("expected 1 sensor event, got %v", got)
	}
	if got := testutil.CollectAndCount(m.pacingSleep); got != 1 {
		t.Errorf("expected pacing histogram to be collected, got %d", got)
	}
}

func TestServer(t *testing.T) {
	m := New()
	m.Written(42)

	srv, err := NewServer("127.0.0.1:0", m, zerolog.Nop())
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	go srv.Run()
	defer srv.Shutdown(context.Background())

	resp, err := http.Get("http://" + srv.Addr() + "/metrics")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "mini210_audio_bytes_written_total 42") {
		t.Errorf("expected bytes counter in exposition, got:\n%s", body)
	}
}
