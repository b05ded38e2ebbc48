// ABOUTME: Audio source abstraction for playing files or generating test tones
// ABOUTME: Dispatches on file extension to the MP3 and WAV decoders
package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for files no source can decode
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Source provides PCM audio samples
type Source interface {
	// Read reads interleaved samples (24-bit range in int32) into the
	// buffer. Returns number of samples read or error.
	Read(samples []int32) (int, error)

	// SampleRate returns the sample rate of the audio
	SampleRate() int

	// Channels returns the number of channels
	Channels() int

	// Metadata returns title, artist, album
	Metadata() (title, artist, album string)

	// Close closes the audio source
	Close() error
}

// Open creates a source for path. An empty path yields a test tone at the
// board rate. File sources loop at end of stream.
func Open(path string) (Source, error) {
	if path == "" {
		return NewTone(0, 0), nil
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("audio file not found: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		return NewMP3(path)
	case ".wav":
		return NewWAV(path)
	default:
		return nil, fmt.Errorf("%w: %s (supported: .mp3, .wav)", ErrUnsupportedFormat, ext)
	}
}

// titleFromPath uses the file name without extension as the title
func titleFromPath(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
