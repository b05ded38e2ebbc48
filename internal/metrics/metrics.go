// ABOUTME: Prometheus metrics for the output stream and the sensor device
// ABOUTME: Implements the stream and sensor observers and serves /metrics
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/mini210/hal/pkg/sensors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const namespace = "mini210"

// Metrics collects HAL counters on its own registry
type Metrics struct {
	registry *prometheus.Registry

	bytesWritten       prometheus.Counter
	writes             prometheus.Counter
	pacingSleep        prometheus.Histogram
	queryFailures      prometheus.Counter
	activationFailures prometheus.Counter
	sensorEvents       *prometheus.CounterVec
}

// New creates and registers all collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		bytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "audio",
			Name:      "bytes_written_total",
			Help:      "Bytes transferred into the PCM ring buffer.",
		}),
		writes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "audio",
			Name:      "writes_total",
			Help:      "Completed buffer transfers.",
		}),
		pacingSleep: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "audio",
			Name:      "pacing_sleep_seconds",
			Help:      "Sleeps taken by the pacing loop before a transfer.",
			Buckets:   []float64{0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1},
		}),
		queryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "audio",
			Name:      "timestamp_failures_total",
			Help:      "Ring buffer queries that failed and ended pacing early.",
		}),
		activationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "audio",
			Name:      "activation_failures_total",
			Help:      "Failed attempts to open the PCM device.",
		}),
		sensorEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sensors",
			Name:      "events_total",
			Help:      "Sensor events returned by polling.",
		}, []string{"sensor"}),
	}

	m.registry.MustRegister(
		m.bytesWritten,
		m.writes,
		m.pacingSleep,
		m.queryFailures,
		m.activationFailures,
		m.sensorEvents,
	)
	return m
}

func (m *Metrics) Written(bytes int) {
	m.writes.Inc()
	m.bytesWritten.Add(float64(bytes))
}

func (m *Metrics) Slept(d time.Duration) { m.pacingSleep.Observe(d.Seconds()) }
func (m *Metrics) QueryFailed()          { m.queryFailures.Inc() }
func (m *Metrics) ActivationFailed()     { m.activationFailures.Inc() }

func (m *Metrics) SensorEvent(e sensors.Event) {
	m.sensorEvents.WithLabelValues(strconv.Itoa(e.Sensor)).Inc()
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Server exposes /metrics over HTTP
type Server struct {
	log    zerolog.Logger
	server *http.Server
	ln     net.Listener
}

// NewServer listens on addr. Serving starts with Run.
func NewServer(addr string, m *Metrics, log zerolog.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	return &Server{
		log:    log,
		server: &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		ln:     ln,
	}, nil
}

// Addr returns the bound address
func (s *Server) Addr() string { return s.ln.Addr().String() }

// Run serves until Shutdown
func (s *Server) Run() {
	s.log.Info().Str("addr", s.Addr()).Msg("prometheus metrics enabled at /metrics")
	if err := s.server.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.log.Error().Err(err).Msg("metrics server stopped")
	}
}

// Shutdown stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Debug().Msg("shutting down metrics server")
	return s.server.Shutdown(ctx)
}
