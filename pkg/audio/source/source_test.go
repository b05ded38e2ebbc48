// ABOUTME: Tests for audio sources
// ABOUTME: Tests tone generation, extension dispatch and WAV streaming
package source

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func TestToneDefaults(t *testing.T) {
	tone := NewTone(0, 0)

	if tone.SampleRate() != 44100 {
		t.Errorf("expected 44100, got %d", tone.SampleRate())
	}
	if tone.Channels() != 2 {
		t.Errorf("expected 2 channels, got %d", tone.Channels())
	}
	title, _, _ := tone.Metadata()
	if title != "Test Tone" {
		t.Errorf("unexpected title %q", title)
	}
}

func TestToneRead(t *testing.T) {
	tone := NewTone(44100, 2)

	samples := make([]int32, 200)
	n, err := tone.Read(samples)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if n != 200 {
		t.Errorf("expected 200 samples, got %d", n)
	}

	if samples[0] != 0 {
		t.Errorf("expected tone to start at zero, got %d", samples[0])
	}
	for i := 0; i < n/2; i++ {
		if samples[i*2] != samples[i*2+1] {
			t.Fatalf("frame %d: channels differ", i)
		}
		if abs(samples[i*2]) > 8388607/2 {
			t.Fatalf("frame %d: sample %d exceeds half scale", i, samples[i*2])
		}
	}

	// Second read continues the phase
	next := make([]int32, 2)
	tone.Read(next)
	want := int32(math.Sin(2*math.Pi*440*100/44100.0) * 8388607 * 0.5)
	if d := next[0] - want; d > 1 || d < -1 {
		t.Errorf("expected continued phase %d, got %d", want, next[0])
	}
}

func abs(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

func TestOpenEmptyPathIsTone(t *testing.T) {
	src, err := Open("")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if _, ok := src.(*Tone); !ok {
		t.Errorf("expected *Tone, got %T", src)
	}
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()

	txt := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(txt, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	bogus := filepath.Join(dir, "bogus.mp3")
	if err := os.WriteFile(bogus, []byte("not an mp3"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	badWav := filepath.Join(dir, "bad.wav")
	if err := os.WriteFile(badWav, []byte("RIFF"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if _, err := Open(filepath.Join(dir, "missing.wav")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Open(txt); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := Open(bogus); err == nil {
		t.Error("expected error for invalid mp3")
	}
	if _, err := Open(badWav); err == nil {
		t.Error("expected error for invalid wav")
	}
}

// writeWAV writes a 16-bit WAV with the given samples
func writeWAV(t *testing.T, path string, rate, channels int, data []int) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{SampleRate: rate, NumChannels: channels},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("encoder close failed: %v", err)
	}
}

func TestWAVRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	writeWAV(t, path, 22050, 2, []int{100, -100, 200, -200})

	src, err := Open(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer src.Close()

	if src.SampleRate() != 22050 {
		t.Errorf("expected 22050, got %d", src.SampleRate())
	}
	if src.Channels() != 2 {
		t.Errorf("expected 2 channels, got %d", src.Channels())
	}
	if title, _, _ := src.Metadata(); title != "clip" {
		t.Errorf("expected title clip, got %q", title)
	}

	samples := make([]int32, 4)
	n, err := src.Read(samples)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4 samples, got %d", n)
	}
	expected := []int32{100 << 8, -100 << 8, 200 << 8, -200 << 8}
	for i, want := range expected {
		if samples[i] != want {
			t.Errorf("sample %d: expected %d, got %d", i, want, samples[i])
		}
	}
}

func TestWAVLoops(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loop.wav")
	writeWAV(t, path, 44100, 1, []int{1, 2, 3})

	src, err := NewWAV(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer src.Close()

	// Reading past the end returns the tail and rewinds
	samples := make([]int32, 8)
	n, err := src.Read(samples)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 samples before end of file, got %d", n)
	}

	n, err = src.Read(samples[:2])
	if err != nil {
		t.Fatalf("read after rewind failed: %v", err)
	}
	if n != 2 || samples[0] != 1<<8 || samples[1] != 2<<8 {
		t.Errorf("expected file to restart, got %v", samples[:n])
	}
}
