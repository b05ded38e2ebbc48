//go:build !linux

// ABOUTME: ALSA stub when the kernel PCM interface is not available
// ABOUTME: Provides a compile-time placeholder on non-linux hosts
package pcm

import "fmt"

// ALSA opener (stub)
type ALSA struct {
	card   uint
	device uint
}

// NewALSA creates an opener for the given card and device
func NewALSA(card, device uint) *ALSA {
	return &ALSA{card: card, device: device}
}

// Open always fails on this platform
func (a *ALSA) Open(config Config) (Ring, error) {
	return nil, fmt.Errorf("open hw:%d,%d: %w", a.card, a.device, ErrUnsupported)
}

func (a *ALSA) String() string {
	return fmt.Sprintf("hw:%d,%d", a.card, a.device)
}
