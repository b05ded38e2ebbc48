// ABOUTME: Unit tests for Opus encoder
// ABOUTME: Tests packetization into 20ms Opus frames
package encode

import (
	"strings"
	"testing"

	"github.com/mini210/hal/pkg/audio"
)

func TestNewOpus(t *testing.T) {
	tests := []struct {
		name        string
		format      audio.Format
		wantErr     bool
		errContains string
	}{
		{
			name:   "valid Opus 48kHz stereo",
			format: audio.Format{Codec: "opus", SampleRate: 48000, Channels: 2, BitDepth: 16},
		},
		{
			name:   "valid Opus 48kHz mono",
			format: audio.Format{Codec: "opus", SampleRate: 48000, Channels: 1, BitDepth: 16},
		},
		{
			name:        "invalid codec",
			format:      audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 16},
			wantErr:     true,
			errContains: "invalid codec",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoder, err := NewOpus(tt.format)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NewOpus() expected error, got nil")
				} else if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("NewOpus() error = %v, want error containing %v", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewOpus() unexpected error = %v", err)
			}
			if encoder == nil {
				t.Fatal("NewOpus() returned nil encoder")
			}
			encoder.Close()
		})
	}
}

func TestOpusEncoder_Packetizes(t *testing.T) {
	encoder, err := NewOpus(audio.Format{Codec: "opus", SampleRate: 48000, Channels: 2, BitDepth: 16})
	if err != nil {
		t.Fatalf("NewOpus() failed: %v", err)
	}
	defer encoder.Close()

	if fs := encoder.(*OpusEncoder).FrameSize(); fs != 960 {
		t.Fatalf("FrameSize() = %d, want 960", fs)
	}

	// Half a packet: nothing yet
	half := make([]int32, 480*2)
	packets, err := encoder.Encode(half)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if len(packets) != 0 {
		t.Errorf("Encode() returned %d packets for half a frame", len(packets))
	}

	// Another two and a half: the buffered half completes the first packet
	samples := make([]int32, 2400*2)
	for i := range samples {
		samples[i] = int32((i % 1000) * 8388)
	}
	packets, err = encoder.Encode(samples)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if len(packets) != 3 {
		t.Fatalf("Encode() returned %d packets, want 3", len(packets))
	}
	for i, p := range packets {
		if len(p) == 0 || len(p) > maxOpusPacket {
			t.Errorf("packet %d: size %d out of range", i, len(p))
		}
	}
}

func TestOpusEncoder_Close(t *testing.T) {
	encoder, err := NewOpus(audio.Format{Codec: "opus", SampleRate: 48000, Channels: 2, BitDepth: 16})
	if err != nil {
		t.Fatalf("NewOpus() failed: %v", err)
	}

	if err := encoder.Close(); err != nil {
		t.Errorf("Close() unexpected error = %v", err)
	}
}
