// ABOUTME: Tests for the playback pump
// ABOUTME: Uses scripted sources and a recording output
package player

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/mini210/hal/pkg/audio/source"
	"github.com/rs/zerolog"
)

type scriptSource struct {
	reads   int
	limit   int // reads before EOF, 0 for endless
	err     error
	cancel  context.CancelFunc
	cancelN int
}

func (s *scriptSource) Read(samples []int32) (int, error) {
	s.reads++
	if s.err != nil {
		return 0, s.err
	}
	if s.cancel != nil && s.reads == s.cancelN {
		s.cancel()
	}
	if s.limit > 0 && s.reads > s.limit {
		return 0, io.EOF
	}
	for i := range samples {
		samples[i] = int32(s.reads)
	}
	return len(samples), nil
}

func (s *scriptSource) SampleRate() int                    { return 48000 }
func (s *scriptSource) Channels() int                      { return 2 }
func (s *scriptSource) Metadata() (string, string, string) { return "script", "", "" }
func (s *scriptSource) Close() error                       { return nil }

type recordOutput struct {
	openErr  error
	writeErr error
	rate     int
	channels int
	writes   int
	samples  int
	closed   bool
}

func (o *recordOutput) Open(sampleRate, channels int) error {
	o.rate, o.channels = sampleRate, channels
	return o.openErr
}

func (o *recordOutput) Write(samples []int32) error {
	if o.writeErr != nil {
		return o.writeErr
	}
	o.writes++
	o.samples += len(samples)
	return nil
}

func (o *recordOutput) Close() error {
	o.closed = true
	return nil
}

var _ source.Source = (*scriptSource)(nil)

func TestRunUntilEOF(t *testing.T) {
	src := &scriptSource{limit: 3}
	out := &recordOutput{}
	p := New(src, out, zerolog.Nop())

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if out.rate != 48000 || out.channels != 2 {
		t.Errorf("expected output opened at 48000/2, got %d/%d", out.rate, out.channels)
	}
	if out.writes != 3 {
		t.Errorf("expected 3 writes, got %d", out.writes)
	}
	// 20ms at 48kHz
	if out.samples != 3*960*2 {
		t.Errorf("expected %d samples, got %d", 3*960*2, out.samples)
	}
	if !out.closed {
		t.Error("expected output to be closed")
	}

	st := p.Stats()
	if st.Chunks != 3 || st.Frames != 3*960 {
		t.Errorf("unexpected stats: %+v", st)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &scriptSource{cancel: cancel, cancelN: 5}
	out := &recordOutput{}

	if err := New(src, out, zerolog.Nop()).Run(ctx); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if out.writes != 5 {
		t.Errorf("expected 5 writes before stopping, got %d", out.writes)
	}
	if !out.closed {
		t.Error("expected output to be closed")
	}
}

func TestRunErrors(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name string
		src  *scriptSource
		out  *recordOutput
	}{
		{"open", &scriptSource{}, &recordOutput{openErr: boom}},
		{"write", &scriptSource{}, &recordOutput{writeErr: boom}},
		{"read", &scriptSource{err: boom}, &recordOutput{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.src, tt.out, zerolog.Nop()).Run(context.Background())
			if !errors.Is(err, boom) {
				t.Errorf("expected wrapped boom, got %v", err)
			}
		})
	}
}

func TestChunkSamples(t *testing.T) {
	if got := chunkSamples(44100, 2); got != 882*2 {
		t.Errorf("expected %d, got %d", 882*2, got)
	}
	if got := chunkSamples(10, 1); got != 1 {
		t.Errorf("expected 1, got %d", got)
	}
}
