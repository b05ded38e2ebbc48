// ABOUTME: Build and product identification
// ABOUTME: Reported in handshakes, mDNS names and the monitor header
package version

const (
	Version      = "0.1.0"
	Product      = "mini210 HAL"
	Manufacturer = "FriendlyARM"
)
