// ABOUTME: Daemon configuration loaded with viper from defaults, file, env and flags
// ABOUTME: Flags are bound to dotted keys so every source shares one namespace
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. MINI210_PCM_CARD
const EnvPrefix = "MINI210"

// Config is the combined audio and sensor daemon configuration
type Config struct {
	LogLevel string `mapstructure:"loglevel"`
	LogFile  string `mapstructure:"logfile"`

	PCM struct {
		Card    uint   `mapstructure:"card"`
		Device  uint   `mapstructure:"device"`
		Backend string `mapstructure:"backend"`
	} `mapstructure:"pcm"`

	Source  string `mapstructure:"source"`
	Listen  string `mapstructure:"listen"`
	Remote  string `mapstructure:"remote"`
	MDNS    bool   `mapstructure:"mdns"`
	Metrics string `mapstructure:"metrics"`
	TUI     bool   `mapstructure:"tui"`

	Pacing struct {
		MaxWait time.Duration `mapstructure:"maxwait"`
	} `mapstructure:"pacing"`

	Sensors struct {
		Backend string        `mapstructure:"backend"`
		Path    string        `mapstructure:"path"`
		Bus     string        `mapstructure:"bus"`
		Delay   time.Duration `mapstructure:"delay"`
	} `mapstructure:"sensors"`
}

// SetDefaults registers the default value of every key
func SetDefaults(v *viper.Viper) {
	v.SetDefault("loglevel", "info")
	v.SetDefault("logfile", "")
	v.SetDefault("pcm.card", 0)
	v.SetDefault("pcm.device", 0)
	v.SetDefault("pcm.backend", "alsa")
	v.SetDefault("source", "")
	v.SetDefault("listen", "")
	v.SetDefault("remote", "")
	v.SetDefault("mdns", false)
	v.SetDefault("metrics", "")
	v.SetDefault("tui", false)
	v.SetDefault("pacing.maxwait", time.Duration(0))
	v.SetDefault("sensors.backend", "sysfs")
	v.SetDefault("sensors.path", "/sys/bus/i2c/drivers/mma7660/0-004c/all_axis_g")
	v.SetDefault("sensors.bus", "")
	v.SetDefault("sensors.delay", 10*time.Millisecond)
}

// AddFlags defines the command line flags on fs
func AddFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (yaml, toml or json)")
	fs.String("loglevel", "info", "log level: none, trace, debug, info, warn, error")
	fs.String("logfile", "", "write JSON logs to this file instead of stderr")
	fs.Uint("card", 0, "PCM card number")
	fs.Uint("device", 0, "PCM device number")
	fs.String("backend", "alsa", "playback backend: alsa or oto")
	fs.String("source", "", "audio file to play (.mp3, .wav); empty plays a test tone")
	fs.String("listen", "", "serve remote buffer submission on this address")
	fs.String("remote", "", "send the source to a remote daemon (ws://host:port/pcm, or mdns)")
	fs.Bool("mdns", false, "advertise the listen address over mDNS")
	fs.String("metrics", "", "serve Prometheus metrics on this address")
	fs.Bool("tui", false, "show the terminal monitor")
	fs.Duration("max-pacing-wait", 0, "bound on time one write may spend pacing (0 = unbounded)")
	fs.String("sensors-backend", "sysfs", "accelerometer backend: sysfs or i2c")
	fs.String("sensors-path", "/sys/bus/i2c/drivers/mma7660/0-004c/all_axis_g", "accelerometer sysfs node")
	fs.String("sensors-bus", "", "I2C bus name for the i2c backend")
	fs.Duration("sensors-delay", 10*time.Millisecond, "accelerometer sampling delay")
}

// flagKeys maps flag names to their config keys
var flagKeys = map[string]string{
	"loglevel":        "loglevel",
	"logfile":         "logfile",
	"card":            "pcm.card",
	"device":          "pcm.device",
	"backend":         "pcm.backend",
	"source":          "source",
	"listen":          "listen",
	"remote":          "remote",
	"mdns":            "mdns",
	"metrics":         "metrics",
	"tui":             "tui",
	"max-pacing-wait": "pacing.maxwait",
	"sensors-backend": "sensors.backend",
	"sensors-path":    "sensors.path",
	"sensors-bus":     "sensors.bus",
	"sensors-delay":   "sensors.delay",
}

// Load resolves the configuration from defaults, the optional config
// file, MINI210_* environment variables and fs, in increasing precedence.
// fs must already be parsed.
func Load(v *viper.Viper, fs *pflag.FlagSet) (Config, error) {
	SetDefaults(v)

	for name, key := range flagKeys {
		if f := fs.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return Config{}, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if f := fs.Lookup("config"); f != nil && f.Value.String() != "" {
		v.SetConfigFile(f.Value.String())
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated values
func (c Config) Validate() error {
	switch c.PCM.Backend {
	case "alsa", "oto":
	default:
		return fmt.Errorf("unknown pcm backend %q", c.PCM.Backend)
	}
	switch c.Sensors.Backend {
	case "sysfs", "i2c":
	default:
		return fmt.Errorf("unknown sensors backend %q", c.Sensors.Backend)
	}
	if c.Pacing.MaxWait < 0 {
		return fmt.Errorf("negative pacing wait %v", c.Pacing.MaxWait)
	}
	if c.MDNS && c.Listen == "" {
		return errors.New("mdns requires a listen address")
	}
	return nil
}
