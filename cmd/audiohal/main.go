// ABOUTME: Entry point for the mini210 audio daemon
// ABOUTME: Plays a source into the paced PCM stream, serves remote submission or forwards to a remote daemon
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mini210/hal/internal/config"
	"github.com/mini210/hal/internal/discovery"
	"github.com/mini210/hal/internal/ingest"
	"github.com/mini210/hal/internal/logger"
	"github.com/mini210/hal/internal/metrics"
	"github.com/mini210/hal/internal/player"
	"github.com/mini210/hal/internal/ui"
	"github.com/mini210/hal/internal/version"
	"github.com/mini210/hal/pkg/audio/output"
	"github.com/mini210/hal/pkg/audio/pcm"
	"github.com/mini210/hal/pkg/audio/source"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "audiohal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := pflag.NewFlagSet("audiohal", pflag.ExitOnError)
	config.AddFlags(fs)
	codec := fs.String("codec", "pcm", "codec for -remote: pcm or opus")
	name := fs.String("name", "", "friendly name (default: hostname-mini210)")
	fs.Parse(os.Args[1:])

	cfg, err := config.Load(viper.New(), fs)
	if err != nil {
		return err
	}

	// The monitor owns the terminal
	logFile := cfg.LogFile
	if cfg.TUI && logFile == "" {
		logFile = "audiohal.log"
	}
	log, closer, err := logger.New(cfg.LogLevel, logFile, "audio")
	if err != nil {
		return err
	}
	defer closer.Close()

	if *name == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		*name = hostname + "-mini210"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", version.Version).Str("name", *name).Msg("starting audio daemon")

	var obs *metrics.Metrics
	if cfg.Metrics != "" {
		obs = metrics.New()
		srv, err := metrics.NewServer(cfg.Metrics, obs, log)
		if err != nil {
			return err
		}
		go srv.Run()
		defer shutdown(srv.Shutdown)
	}

	d := &daemon{cfg: cfg, name: *name, codec: *codec, log: log, metrics: obs}
	return d.run(ctx)
}

type daemon struct {
	cfg     config.Config
	name    string
	codec   string
	log     zerolog.Logger
	metrics *metrics.Metrics

	device *output.Device
	stream *output.Stream
	player *player.Player
	ingest *ingest.Server
}

func (d *daemon) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	mode := "playback"

	var out output.Output
	var err error
	switch {
	case d.cfg.Remote != "":
		mode = "remote"
		var closeRemote func()
		out, closeRemote, err = d.openRemote(ctx)
		if err != nil {
			return err
		}
		defer closeRemote()
	default:
		out, err = d.openLocal()
		if err != nil {
			return err
		}
		defer d.closeLocal()
	}

	if d.cfg.Listen != "" && d.cfg.Remote == "" {
		mode = "ingest"
		ln, err := d.newIngest(out)
		if err != nil {
			return err
		}
		go func() { errCh <- d.serve(ctx, ln) }()
	} else {
		src, err := source.Open(d.cfg.Source)
		if err != nil {
			return err
		}
		defer src.Close()
		d.player = player.New(src, out, d.log)
		go func() { errCh <- d.player.Run(ctx) }()
	}

	if d.cfg.TUI {
		go func() {
			if err := ui.Run(ctx, d.status(mode)); err != nil {
				d.log.Warn().Err(err).Msg("monitor failed")
			}
			cancel()
		}()
	}

	err = <-errCh
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	d.log.Info().Msg("audio daemon stopped")
	return err
}

// openLocal opens the board's playback stream, or an oto output off-board
func (d *daemon) openLocal() (output.Output, error) {
	if d.cfg.PCM.Backend == "oto" {
		return output.NewOto(d.log), nil
	}

	opts := []output.Option{output.WithMaxPacingWait(d.cfg.Pacing.MaxWait)}
	if d.metrics != nil {
		opts = append(opts, output.WithObserver(d.metrics))
	}

	alsa := pcm.NewALSA(d.cfg.PCM.Card, d.cfg.PCM.Device)
	d.device = output.NewDevice(alsa, d.log, opts...)
	if err := d.device.InitCheck(); err != nil {
		return nil, err
	}

	stream, actual, err := d.device.OpenOutputStream(output.StreamConfig{
		SampleRate: pcm.DefaultSampleRate,
		Channels:   2,
		Format:     pcm.FormatS16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open output stream: %w", err)
	}
	d.stream = stream

	d.log.Info().
		Str("pcm", alsa.String()).
		Int("sample_rate", actual.SampleRate).
		Int("channels", actual.Channels).
		Int("buffer_size", stream.BufferSize()).
		Dur("latency", stream.Latency()).
		Msg("output stream opened")

	return output.NewPaced(stream, d.log), nil
}

func (d *daemon) closeLocal() {
	if d.device == nil {
		return
	}
	if err := d.device.Close(); err != nil {
		d.log.Warn().Err(err).Msg("device close failed")
	}
}

// openRemote connects to a remote daemon, found over mDNS when asked
func (d *daemon) openRemote(ctx context.Context) (output.Output, func(), error) {
	url := d.cfg.Remote
	if url == "mdns" {
		mgr := discovery.NewManager(discovery.Config{}, d.log)
		findCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		server, err := mgr.Discover(findCtx)
		cancel()
		mgr.Stop()
		if err != nil {
			return nil, nil, err
		}
		url = server.URL()
	}

	client, err := ingest.Dial(ctx, url, d.name)
	if err != nil {
		return nil, nil, err
	}
	d.log.Info().Str("url", url).Str("session", client.SessionID()).Msg("connected to remote daemon")

	return ingest.NewRemoteOutput(client, d.codec, d.log), func() { client.Close() }, nil
}

// newIngest listens on the configured address and creates the server
func (d *daemon) newIngest(out output.Output) (net.Listener, error) {
	ln, err := net.Listen("tcp", d.cfg.Listen)
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	cfg := ingest.Config{Name: d.name, SampleRate: pcm.DefaultSampleRate, Channels: 2}
	if d.stream != nil {
		cfg.BufferSize = d.stream.BufferSize()
	}
	d.ingest = ingest.NewServer(cfg, out, d.log)
	return ln, nil
}

// serve accepts remote submissions until ctx is done
func (d *daemon) serve(ctx context.Context, ln net.Listener) error {
	if d.cfg.MDNS {
		_, portStr, _ := net.SplitHostPort(ln.Addr().String())
		port, _ := strconv.Atoi(portStr)
		mgr := discovery.NewManager(discovery.Config{ServiceName: d.name, Port: port, Path: ingest.Path}, d.log)
		if err := mgr.Advertise(); err != nil {
			d.log.Warn().Err(err).Msg("mdns advertisement failed")
		}
		defer mgr.Stop()
	}

	return d.ingest.Serve(ctx, ln)
}

// status returns the monitor poll function
func (d *daemon) status(mode string) func() ui.StatusMsg {
	return func() ui.StatusMsg {
		msg := ui.StatusMsg{Mode: mode, Source: d.cfg.Source}
		if msg.Source == "" && mode != "ingest" {
			msg.Source = "test tone"
		}
		if d.stream != nil {
			st := d.stream.Stats()
			msg.Stream = &st
		}
		if d.player != nil {
			msg.Frames = d.player.Stats().Frames
		}
		if d.ingest != nil {
			n := len(d.ingest.Sessions())
			msg.Sessions = &n
		}
		return msg
	}
}

func shutdown(fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	fn(ctx)
}
