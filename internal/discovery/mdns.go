// ABOUTME: mDNS service discovery for the buffer submission endpoint
// ABOUTME: Advertises the audio daemon and browses for it from remote clients
package discovery

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
	"github.com/rs/zerolog"
)

const (
	// ServiceType is the advertised DNS-SD service
	ServiceType = "_mini210-pcm._tcp"

	// DefaultPath is advertised when the caller gives none
	DefaultPath = "/pcm"
)

// Config holds discovery configuration
type Config struct {
	ServiceName string
	Port        int
	Path        string
}

// Manager handles mDNS operations
type Manager struct {
	config  Config
	log     zerolog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	servers chan *ServerInfo
}

// ServerInfo describes a discovered audio daemon
type ServerInfo struct {
	Name string
	Host string
	Port int
	Path string
}

// URL returns the WebSocket URL of the endpoint
func (s *ServerInfo) URL() string {
	return "ws://" + net.JoinHostPort(s.Host, strconv.Itoa(s.Port)) + s.Path
}

// NewManager creates a discovery manager
func NewManager(config Config, log zerolog.Logger) *Manager {
	if config.Path == "" {
		config.Path = DefaultPath
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		config:  config,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
		servers: make(chan *ServerInfo, 10),
	}
}

// Advertise advertises the endpoint via mDNS until Stop
func (m *Manager) Advertise() error {
	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(
		m.config.ServiceName,
		ServiceType,
		"",
		"",
		m.config.Port,
		ips,
		[]string{"path=" + m.config.Path},
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	m.log.Info().
		Str("name", m.config.ServiceName).
		Int("port", m.config.Port).
		Str("type", ServiceType).
		Msg("advertising mdns service")

	go func() {
		<-m.ctx.Done()
		server.Shutdown()
	}()

	return nil
}

// Browse searches for audio daemons until Stop. Results arrive on Servers.
func (m *Manager) Browse() error {
	go m.browseLoop()
	return nil
}

// browseLoop continuously browses for servers
func (m *Manager) browseLoop() {
	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		entries := make(chan *mdns.ServiceEntry, 10)

		go func() {
			for entry := range entries {
				server := serverFromEntry(entry)
				if server == nil {
					continue
				}

				m.log.Debug().
					Str("name", server.Name).
					Str("url", server.URL()).
					Msg("discovered server")

				select {
				case m.servers <- server:
				case <-m.ctx.Done():
					return
				}
			}
		}()

		params := &mdns.QueryParam{
			Service:             ServiceType,
			Domain:              "local",
			Timeout:             3 * time.Second,
			Entries:             entries,
			WantUnicastResponse: false,
		}

		if err := mdns.Query(params); err != nil {
			m.log.Debug().Err(err).Msg("mdns query failed")
		}
		close(entries)
	}
}

// serverFromEntry converts an mDNS entry, or returns nil if it has no IPv4
// address
func serverFromEntry(entry *mdns.ServiceEntry) *ServerInfo {
	if entry == nil || entry.AddrV4 == nil {
		return nil
	}

	info := &ServerInfo{
		Name: entry.Name,
		Host: entry.AddrV4.String(),
		Port: entry.Port,
		Path: DefaultPath,
	}
	for _, field := range entry.InfoFields {
		if path, ok := strings.CutPrefix(field, "path="); ok && path != "" {
			info.Path = path
		}
	}
	return info
}

// Servers returns the channel of discovered servers
func (m *Manager) Servers() <-chan *ServerInfo {
	return m.servers
}

// Discover browses until the first server is found or ctx is done
func (m *Manager) Discover(ctx context.Context) (*ServerInfo, error) {
	if err := m.Browse(); err != nil {
		return nil, err
	}
	select {
	case server := <-m.servers:
		return server, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("no %s service found: %w", ServiceType, ctx.Err())
	}
}

// Stop stops the discovery manager
func (m *Manager) Stop() {
	m.cancel()
}

// getLocalIPs returns local IP addresses
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
