// ABOUTME: Message definitions for the buffer submission protocol
// ABOUTME: JSON control messages wrap a typed payload; binary messages carry one buffer
package ingest

import (
	"encoding/json"
	"fmt"
)

const (
	// ProtocolVersion is the only version the server accepts
	ProtocolVersion = 1

	// Path is the WebSocket endpoint
	Path = "/pcm"
)

// Message types
const (
	TypeClientHello   = "client/hello"
	TypeServerHello   = "server/hello"
	TypeServerError   = "server/error"
	TypeStreamStart   = "stream/start"
	TypeStreamStandby = "stream/standby"
	TypeStreamAck     = "stream/ack"
)

// Message is the top-level wrapper for all control messages
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// envelope is a received Message with its payload left undecoded
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ClientHello opens a session
type ClientHello struct {
	Name    string `json:"name"`
	Version int    `json:"version"`
}

// ServerHello answers client/hello with the session id and the format of
// the stream behind the endpoint
type ServerHello struct {
	SessionID  string `json:"session_id"`
	Name       string `json:"name"`
	Version    int    `json:"version"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	BufferSize int    `json:"buffer_size"`
}

// ServerError rejects a handshake
type ServerError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// StreamStart claims the output and fixes the format of following buffers
type StreamStart struct {
	Codec      string `json:"codec"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	BitDepth   int    `json:"bit_depth"`
}

// StreamAck reports the result of one submission. Seq 0 acknowledges a
// control message; buffers are numbered from 1. Bytes is what the output
// device accepted, or the buffer size for outputs that do not count bytes.
// Errno is 0 on success or a negative errno.
type StreamAck struct {
	Seq   uint64 `json:"seq"`
	Bytes int    `json:"bytes"`
	Errno int    `json:"errno"`
}

// decodeMessage parses a control message, decoding its payload into v when
// v is not nil
func decodeMessage(data []byte, want string, v interface{}) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("failed to parse message: %w", err)
	}
	if env.Type != want {
		return fmt.Errorf("expected %s, got %s", want, env.Type)
	}
	if v == nil || len(env.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return fmt.Errorf("failed to parse %s payload: %w", want, err)
	}
	return nil
}
