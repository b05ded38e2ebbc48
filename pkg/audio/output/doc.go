// ABOUTME: Audio output package for the board's playback path
// ABOUTME: Provides the paced hardware stream, the audio device and Output backends
// Package output provides audio playback.
//
// Stream is the low level playback endpoint. It opens the hardware ring on
// the first write and sleeps before each write so the ring never holds more
// than the write threshold. Device owns the single Stream the codec allows.
//
// Output is the sample-level interface used by players. Paced adapts a
// Stream to Output, converting and resampling as needed. Oto plays through
// the desktop audio system for development hosts.
//
// Example:
//
//	dev := output.NewDevice(pcm.NewALSA(0, 0), log)
//	s, _, err := dev.OpenOutputStream(output.StreamConfig{})
//	n, err := s.Write(frames)
package output
