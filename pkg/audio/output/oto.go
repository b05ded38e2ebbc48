// ABOUTME: Oto-based audio output implementation
// ABOUTME: Plays through the host audio system when no board codec is present
package output

import (
	"fmt"
	"io"

	"github.com/ebitengine/oto/v3"
	"github.com/mini210/hal/pkg/audio"
	"github.com/rs/zerolog"
)

// Oto output implementation using oto library
type Oto struct {
	log        zerolog.Logger
	otoCtx     *oto.Context
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
	sampleRate int
	channels   int
	ready      bool
}

// NewOto creates a new Oto output
func NewOto(log zerolog.Logger) *Oto {
	return &Oto{log: log}
}

// Open initializes the output device
func (o *Oto) Open(sampleRate, channels int) error {
	// If already initialized with same format, reuse the existing context
	if o.otoCtx != nil && o.sampleRate == sampleRate && o.channels == channels {
		o.log.Debug().Msg("audio output already initialized with same format, reusing context")
		return o.startPlayer()
	}

	// oto only allows one context per process
	if o.otoCtx != nil {
		o.log.Warn().
			Int("old_rate", o.sampleRate).
			Int("old_channels", o.channels).
			Int("new_rate", sampleRate).
			Int("new_channels", channels).
			Msg("format change detected but oto doesn't support reinitialization, continuing with existing context")
		return o.startPlayer()
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}

	<-readyChan

	o.otoCtx = ctx
	o.sampleRate = sampleRate
	o.channels = channels

	o.log.Info().
		Int("sample_rate", sampleRate).
		Int("channels", channels).
		Msg("audio output initialized")

	return o.startPlayer()
}

// startPlayer creates a persistent player that reads from a pipe
func (o *Oto) startPlayer() error {
	if o.ready {
		return nil
	}
	if err := o.otoCtx.Resume(); err != nil {
		return fmt.Errorf("failed to resume oto context: %w", err)
	}

	o.pipeReader, o.pipeWriter = io.Pipe()
	o.player = o.otoCtx.NewPlayer(o.pipeReader)
	o.player.Play()
	o.ready = true
	return nil
}

// Write outputs audio samples (blocks until written)
func (o *Oto) Write(samples []int32) error {
	if !o.ready {
		return fmt.Errorf("output not initialized")
	}

	// This blocks until the player drains the pipe
	if _, err := o.pipeWriter.Write(audio.Int32ToS16LE(samples)); err != nil {
		return fmt.Errorf("pipe write failed: %w", err)
	}

	return nil
}

// Close releases output resources. The oto context is suspended, not
// destroyed, so a later Open can reuse it.
func (o *Oto) Close() error {
	if o.pipeWriter != nil {
		o.pipeWriter.Close()
		o.pipeWriter = nil
	}
	if o.player != nil {
		o.player.Close()
		o.player = nil
	}
	if o.pipeReader != nil {
		o.pipeReader.Close()
		o.pipeReader = nil
	}
	if o.otoCtx != nil {
		o.ready = false
		return o.otoCtx.Suspend()
	}
	return nil
}
