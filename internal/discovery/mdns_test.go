// ABOUTME: Tests for mDNS discovery
// ABOUTME: Tests manager configuration and service entry conversion
package discovery

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/hashicorp/mdns"
	"github.com/rs/zerolog"
)

func TestNewManager(t *testing.T) {
	mgr := NewManager(Config{ServiceName: "mini210", Port: 8927}, zerolog.Nop())
	if mgr == nil {
		t.Fatal("expected manager to be created")
	}
	if mgr.config.Path != DefaultPath {
		t.Errorf("expected default path %s, got %s", DefaultPath, mgr.config.Path)
	}

	mgr = NewManager(Config{ServiceName: "mini210", Port: 8927, Path: "/other"}, zerolog.Nop())
	if mgr.config.Path != "/other" {
		t.Errorf("expected path /other, got %s", mgr.config.Path)
	}
}

func TestServerFromEntry(t *testing.T) {
	tests := []struct {
		name    string
		entry   *mdns.ServiceEntry
		wantNil bool
		wantURL string
	}{
		{
			name:    "nil entry",
			wantNil: true,
		},
		{
			name:    "no ipv4 address",
			entry:   &mdns.ServiceEntry{Name: "x", Port: 8927},
			wantNil: true,
		},
		{
			name:    "default path",
			entry:   &mdns.ServiceEntry{Name: "x", AddrV4: net.IPv4(192, 168, 1, 5), Port: 8927},
			wantURL: "ws://192.168.1.5:8927/pcm",
		},
		{
			name: "path from txt record",
			entry: &mdns.ServiceEntry{
				Name:       "x",
				AddrV4:     net.IPv4(10, 0, 0, 2),
				Port:       9000,
				InfoFields: []string{"other=1", "path=/audio"},
			},
			wantURL: "ws://10.0.0.2:9000/audio",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := serverFromEntry(tt.entry)
			if tt.wantNil {
				if info != nil {
					t.Errorf("expected nil, got %+v", info)
				}
				return
			}
			if info == nil {
				t.Fatal("expected server info")
			}
			if got := info.URL(); got != tt.wantURL {
				t.Errorf("expected URL %s, got %s", tt.wantURL, got)
			}
		})
	}
}

func TestDiscoverHonorsContext(t *testing.T) {
	mgr := NewManager(Config{ServiceName: "mini210", Port: 8927}, zerolog.Nop())
	defer mgr.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, err := mgr.Discover(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("expected Discover to return promptly")
	}
}
