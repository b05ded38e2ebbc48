// ABOUTME: MP3 file source
// ABOUTME: Decodes MP3 with go-mp3 and loops at end of file
package source

import (
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"
	"github.com/mini210/hal/pkg/audio"
)

// MP3 reads from an MP3 file
type MP3 struct {
	file    *os.File
	decoder *mp3.Decoder
	buf     []byte
	title   string
}

// NewMP3 opens an MP3 file
func NewMP3(path string) (*MP3, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 file: %w", err)
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	return &MP3{
		file:    f,
		decoder: decoder,
		title:   titleFromPath(path),
	}, nil
}

func (s *MP3) Read(samples []int32) (int, error) {
	// go-mp3 always outputs 16-bit stereo
	need := len(samples) * 2
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	buf := s.buf[:need]

	n, err := io.ReadFull(s.decoder, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return 0, err
	}

	decoded := audio.S16LEToInt32(buf[:n])
	copy(samples, decoded)

	if err != nil {
		if err := s.rewind(); err != nil {
			return len(decoded), err
		}
	}

	return len(decoded), nil
}

func (s *MP3) rewind() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to start: %w", err)
	}
	decoder, err := mp3.NewDecoder(s.file)
	if err != nil {
		return fmt.Errorf("failed to create new decoder: %w", err)
	}
	s.decoder = decoder
	return nil
}

func (s *MP3) SampleRate() int { return s.decoder.SampleRate() }
func (s *MP3) Channels() int   { return 2 }
func (s *MP3) Metadata() (string, string, string) {
	return s.title, "Unknown Artist", "Unknown Album"
}
func (s *MP3) Close() error {
	return s.file.Close()
}
