// ABOUTME: Tests for PCM configuration helpers
// ABOUTME: Tests default board configuration and frame/byte conversion
package pcm

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Channels != 2 {
		t.Errorf("expected 2 channels, got %d", cfg.Channels)
	}
	if cfg.Rate != 44100 {
		t.Errorf("expected rate 44100, got %d", cfg.Rate)
	}
	if cfg.Format != FormatS16LE {
		t.Errorf("expected S16_LE, got %v", cfg.Format)
	}
	if cfg.PeriodSize != 1920 {
		t.Errorf("expected period size 1920, got %d", cfg.PeriodSize)
	}
	if cfg.PeriodCount != 4 {
		t.Errorf("expected period count 4, got %d", cfg.PeriodCount)
	}
	if cfg.BufferFrames() != 7680 {
		t.Errorf("expected 7680 buffer frames, got %d", cfg.BufferFrames())
	}
}

func TestFrameConversion(t *testing.T) {
	tests := []struct {
		name      string
		config    Config
		frameSize uint32
	}{
		{"stereo s16", Config{Channels: 2, Format: FormatS16LE}, 4},
		{"mono s16", Config{Channels: 1, Format: FormatS16LE}, 2},
		{"stereo s24", Config{Channels: 2, Format: FormatS24LE}, 8},
		{"stereo s8", Config{Channels: 2, Format: FormatS8}, 2},
		{"invalid format", Config{Channels: 2, Format: Format(99)}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.config.FrameSize(); got != tt.frameSize {
				t.Errorf("expected frame size %d, got %d", tt.frameSize, got)
			}
			if got := tt.config.FramesToBytes(10); got != 10*tt.frameSize {
				t.Errorf("expected %d bytes, got %d", 10*tt.frameSize, got)
			}
			if tt.frameSize == 0 {
				if got := tt.config.BytesToFrames(100); got != 0 {
					t.Errorf("expected 0 frames for zero frame size, got %d", got)
				}
				return
			}
			if got := tt.config.BytesToFrames(10*tt.frameSize + 1); got != 10 {
				t.Errorf("expected 10 frames, got %d", got)
			}
		})
	}
}

func TestFormatString(t *testing.T) {
	if FormatS16LE.String() != "S16_LE" {
		t.Errorf("expected S16_LE, got %s", FormatS16LE.String())
	}
	if Format(42).String() != "Format(42)" {
		t.Errorf("unexpected string for unknown format: %s", Format(42).String())
	}
}

type nopRing struct{}

func (nopRing) Timestamp() (uint32, time.Time, error) { return 0, time.Time{}, nil }
func (nopRing) BufferSize() uint32                    { return 0 }
func (nopRing) MmapWrite(data []byte) (int, error)    { return len(data), nil }
func (nopRing) Close() error                          { return nil }

func TestOpenerFunc(t *testing.T) {
	var got Config
	opener := OpenerFunc(func(cfg Config) (Ring, error) {
		got = cfg
		return nopRing{}, nil
	})

	ring, err := opener.Open(DefaultConfig())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if ring == nil {
		t.Fatal("expected ring")
	}
	if got.Rate != DefaultSampleRate {
		t.Errorf("expected config to be passed through, got rate %d", got.Rate)
	}

	failing := OpenerFunc(func(Config) (Ring, error) { return nil, ErrUnsupported })
	if _, err := failing.Open(DefaultConfig()); !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}
