// ABOUTME: WAV file source
// ABOUTME: Streams 16-bit and 24-bit WAV with go-audio/wav and loops at end of file
package source

import (
	"errors"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAV reads from a WAV file
type WAV struct {
	file    *os.File
	decoder *wav.Decoder
	buf     *goaudio.IntBuffer
	shift   uint
	title   string
}

// NewWAV opens a WAV file. Only integer PCM at 16 or 24 bits is accepted.
func NewWAV(path string) (*WAV, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAV file: %w", err)
	}

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		f.Close()
		return nil, errors.New("failed to decode WAV: invalid file")
	}

	var shift uint
	switch decoder.BitDepth {
	case 16:
		shift = 8
	case 24:
		shift = 0
	default:
		f.Close()
		return nil, fmt.Errorf("%w: %d-bit WAV", ErrUnsupportedFormat, decoder.BitDepth)
	}

	if err := decoder.FwdToPCM(); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to find WAV data: %w", err)
	}

	return &WAV{
		file:    f,
		decoder: decoder,
		buf: &goaudio.IntBuffer{
			Format: &goaudio.Format{
				NumChannels: int(decoder.NumChans),
				SampleRate:  int(decoder.SampleRate),
			},
			SourceBitDepth: int(decoder.BitDepth),
		},
		shift: shift,
		title: titleFromPath(path),
	}, nil
}

func (s *WAV) Read(samples []int32) (int, error) {
	if cap(s.buf.Data) < len(samples) {
		s.buf.Data = make([]int, len(samples))
	}
	s.buf.Data = s.buf.Data[:len(samples)]

	n, err := s.decoder.PCMBuffer(s.buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("wav read failed: %w", err)
	}

	for i := 0; i < n; i++ {
		samples[i] = int32(s.buf.Data[i]) << s.shift
	}

	if n < len(samples) {
		if err := s.rewind(); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (s *WAV) rewind() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to start: %w", err)
	}
	decoder := wav.NewDecoder(s.file)
	if err := decoder.FwdToPCM(); err != nil {
		return fmt.Errorf("failed to find WAV data: %w", err)
	}
	s.decoder = decoder
	return nil
}

func (s *WAV) SampleRate() int { return int(s.decoder.SampleRate) }
func (s *WAV) Channels() int   { return int(s.decoder.NumChans) }
func (s *WAV) Metadata() (string, string, string) {
	return s.title, "Unknown Artist", "Unknown Album"
}
func (s *WAV) Close() error {
	return s.file.Close()
}
