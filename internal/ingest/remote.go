// ABOUTME: Output backend that forwards samples to a remote ingest server
// ABOUTME: Encodes with the chosen codec and sends one buffer per packet
package ingest

import (
	"fmt"

	"github.com/mini210/hal/pkg/audio"
	"github.com/mini210/hal/pkg/audio/encode"
	"github.com/rs/zerolog"
)

// RemoteOutput implements output.Output over a Client
type RemoteOutput struct {
	client *Client
	codec  string
	log    zerolog.Logger

	encoder encode.Encoder
}

// NewRemoteOutput creates an output sending codec (pcm or opus) buffers
func NewRemoteOutput(client *Client, codec string, log zerolog.Logger) *RemoteOutput {
	return &RemoteOutput{
		client: client,
		codec:  codec,
		log:    log,
	}
}

// Open starts a remote stream in the source format
func (r *RemoteOutput) Open(sampleRate, channels int) error {
	format := audio.Format{
		Codec:      r.codec,
		SampleRate: sampleRate,
		Channels:   channels,
		BitDepth:   16,
	}

	encoder, err := encode.New(format)
	if err != nil {
		return err
	}
	if err := r.client.Start(format); err != nil {
		encoder.Close()
		return fmt.Errorf("failed to start remote stream: %w", err)
	}

	if r.encoder != nil {
		r.encoder.Close()
	}
	r.encoder = encoder

	r.log.Info().
		Str("session", r.client.SessionID()).
		Str("codec", r.codec).
		Int("sample_rate", sampleRate).
		Int("channels", channels).
		Msg("remote output opened")
	return nil
}

// Write encodes samples and sends every complete packet
func (r *RemoteOutput) Write(samples []int32) error {
	if r.encoder == nil {
		return fmt.Errorf("output not initialized")
	}

	packets, err := r.encoder.Encode(samples)
	if err != nil {
		return err
	}
	for _, p := range packets {
		if _, err := r.client.Send(p); err != nil {
			return err
		}
	}
	return nil
}

// Close puts the remote stream in standby
func (r *RemoteOutput) Close() error {
	if r.encoder == nil {
		return nil
	}
	r.encoder.Close()
	r.encoder = nil
	return r.client.Standby()
}
