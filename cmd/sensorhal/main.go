// ABOUTME: Entry point for the mini210 sensor daemon
// ABOUTME: Opens the sensor poll device and reports accelerometer events
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/mini210/hal/internal/config"
	"github.com/mini210/hal/internal/logger"
	"github.com/mini210/hal/internal/metrics"
	"github.com/mini210/hal/internal/ui"
	"github.com/mini210/hal/internal/version"
	"github.com/mini210/hal/pkg/sensors"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "sensorhal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := pflag.NewFlagSet("sensorhal", pflag.ExitOnError)
	config.AddFlags(fs)
	fs.Parse(os.Args[1:])

	cfg, err := config.Load(viper.New(), fs)
	if err != nil {
		return err
	}

	logFile := cfg.LogFile
	if cfg.TUI && logFile == "" {
		logFile = "sensorhal.log"
	}
	log, closer, err := logger.New(cfg.LogLevel, logFile, "sensors")
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", version.Version).Str("backend", cfg.Sensors.Backend).Msg("starting sensor daemon")

	opts := []sensors.DeviceOption{sensors.WithLogger(log)}
	if cfg.Metrics != "" {
		m := metrics.New()
		srv, err := metrics.NewServer(cfg.Metrics, m, log)
		if err != nil {
			return err
		}
		go srv.Run()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
		opts = append(opts, sensors.WithObserver(m))
	}

	var accel sensors.Sensor
	switch cfg.Sensors.Backend {
	case "i2c":
		accel = sensors.NewI2CAccelerometer(cfg.Sensors.Bus, log)
	default:
		accel = sensors.NewSysfsAccelerometer(cfg.Sensors.Path, log)
	}

	dev, err := sensors.NewDevice([]sensors.Sensor{accel}, opts...)
	if err != nil {
		return err
	}
	if err := dev.Open(); err != nil {
		return err
	}
	defer dev.Close()

	for _, info := range dev.List() {
		log.Info().
			Int("handle", info.Handle).
			Str("name", info.Name).
			Str("vendor", info.Vendor).
			Str("type", info.Type.String()).
			Msg("sensor available")
	}

	handle := accel.Info().Handle
	if err := dev.SetDelay(handle, cfg.Sensors.Delay); err != nil {
		return err
	}
	if err := dev.Activate(handle, true); err != nil {
		return err
	}

	var latest atomic.Pointer[sensors.Event]
	if cfg.TUI {
		go func() {
			err := ui.Run(ctx, func() ui.StatusMsg {
				return ui.StatusMsg{Mode: "sensors", Accel: latest.Load()}
			})
			if err != nil {
				log.Warn().Err(err).Msg("monitor failed")
			}
			stop()
		}()
	}

	err = poll(ctx, dev, &latest, !cfg.TUI, log)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	log.Info().Msg("sensor daemon stopped")
	return err
}

// poll reads events until ctx is done, printing them to stdout when echo
// is set
func poll(ctx context.Context, dev *sensors.Device, latest *atomic.Pointer[sensors.Event], echo bool, log zerolog.Logger) error {
	events := make([]sensors.Event, 16)
	for {
		n, err := dev.Poll(ctx, events)
		if err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			ev := events[i]
			latest.Store(&ev)
			if echo {
				fmt.Printf("%d accel x=%.2f y=%.2f z=%.2f\n", ev.Timestamp, ev.Acceleration.X, ev.Acceleration.Y, ev.Acceleration.Z)
			}
			log.Trace().
				Int("sensor", ev.Sensor).
				Int("status", int(ev.Acceleration.Status)).
				Msg("event")
		}
	}
}
