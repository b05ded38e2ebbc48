// ABOUTME: Playback pump moving samples from a Source into an Output
// ABOUTME: Reads fixed-duration chunks until the source ends or ctx is cancelled
package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/mini210/hal/pkg/audio/output"
	"github.com/mini210/hal/pkg/audio/source"
	"github.com/rs/zerolog"
)

// DefaultChunksPerSecond gives 20ms chunks
const DefaultChunksPerSecond = 50

// Stats tracks pump counters
type Stats struct {
	Chunks int64
	Frames int64
}

// Player pumps one source into one output
type Player struct {
	src source.Source
	out output.Output
	log zerolog.Logger

	chunks atomic.Int64
	frames atomic.Int64
}

// New creates a player
func New(src source.Source, out output.Output, log zerolog.Logger) *Player {
	return &Player{
		src: src,
		out: out,
		log: log,
	}
}

// Run opens the output in the source format and pumps until ctx is done or
// the source is exhausted. The output is closed on return.
func (p *Player) Run(ctx context.Context) error {
	rate, channels := p.src.SampleRate(), p.src.Channels()
	if err := p.out.Open(rate, channels); err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}
	defer func() {
		if err := p.out.Close(); err != nil {
			p.log.Warn().Err(err).Msg("output close failed")
		}
	}()

	title, artist, _ := p.src.Metadata()
	p.log.Info().
		Str("title", title).
		Str("artist", artist).
		Int("sample_rate", rate).
		Int("channels", channels).
		Msg("playback started")

	buf := make([]int32, chunkSamples(rate, channels))
	for {
		select {
		case <-ctx.Done():
			p.log.Info().Int64("frames", p.frames.Load()).Msg("playback stopped")
			return nil
		default:
		}

		n, err := p.src.Read(buf)
		if n > 0 {
			if werr := p.out.Write(buf[:n]); werr != nil {
				return fmt.Errorf("output write failed: %w", werr)
			}
			p.chunks.Add(1)
			p.frames.Add(int64(n / channels))
		}
		if errors.Is(err, io.EOF) {
			p.log.Info().Int64("frames", p.frames.Load()).Msg("source exhausted")
			return nil
		}
		if err != nil {
			return fmt.Errorf("source read failed: %w", err)
		}
	}
}

// Stats returns a snapshot of the pump counters
func (p *Player) Stats() Stats {
	return Stats{
		Chunks: p.chunks.Load(),
		Frames: p.frames.Load(),
	}
}

// chunkSamples returns the interleaved sample count of one chunk
func chunkSamples(rate, channels int) int {
	frames := rate / DefaultChunksPerSecond
	if frames < 1 {
		frames = 1
	}
	return frames * channels
}
