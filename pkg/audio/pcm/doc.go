// ABOUTME: PCM hardware package for the playback ring buffer
// ABOUTME: Provides Ring and Opener interfaces and the ALSA implementation
// Package pcm describes the kernel playback ring buffer the output stream
// writes into.
//
// A Ring is borrowed by a stream between activation and standby. It reports
// the consumed frame count (Timestamp), its capacity (BufferSize) and accepts
// memory-mapped writes (MmapWrite). On linux, ALSA opens a direct hardware
// device through github.com/gen2brain/alsa:
//
//	opener := pcm.NewALSA(0, 0)
//	ring, err := opener.Open(pcm.DefaultConfig())
package pcm
