// ABOUTME: WebSocket client for the buffer submission endpoint
// ABOUTME: Performs the handshake and sends buffers, waiting for each ack
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mini210/hal/pkg/audio"
)

// RemoteError is a negative errno returned by the remote stream
type RemoteError struct {
	Errno int
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote stream error: errno %d", e.Errno)
}

// Client is one session with an ingest server. Calls are serialized; each
// blocks until the server acknowledges it, so a paced remote stream paces
// the caller too.
type Client struct {
	mu    sync.Mutex
	conn  *websocket.Conn
	hello ServerHello
	seq   uint64
}

// Dial connects to url (ws://host:port/pcm) and performs the handshake
func Dial(ctx context.Context, url, name string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	c := &Client{conn: conn}
	if err := c.handshake(name); err != nil {
		conn.Close()
		return nil, fmt.Errorf("handshake failed: %w", err)
	}
	return c, nil
}

func (c *Client) handshake(name string) error {
	if err := c.sendJSON(TypeClientHello, ClientHello{Name: name, Version: ProtocolVersion}); err != nil {
		return fmt.Errorf("failed to send client/hello: %w", err)
	}

	c.conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read server/hello: %w", err)
	}
	c.conn.SetReadDeadline(time.Time{})

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("failed to parse server/hello: %w", err)
	}
	if env.Type == TypeServerError {
		var serr ServerError
		json.Unmarshal(env.Payload, &serr)
		return fmt.Errorf("rejected: %s: %s", serr.Error, serr.Message)
	}
	return decodeMessage(data, TypeServerHello, &c.hello)
}

// SessionID returns the id the server assigned
func (c *Client) SessionID() string {
	return c.hello.SessionID
}

// Server returns the server hello
func (c *Client) Server() ServerHello {
	return c.hello
}

// Start claims the remote output for buffers in format
func (c *Client) Start(format audio.Format) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq = 0
	err := c.sendJSON(TypeStreamStart, StreamStart{
		Codec:      format.Codec,
		SampleRate: format.SampleRate,
		Channels:   format.Channels,
		BitDepth:   format.BitDepth,
	})
	if err != nil {
		return err
	}
	_, err = c.waitAck(0)
	return err
}

// Send submits one buffer and returns the bytes the server consumed
func (c *Client) Send(buf []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	if err := c.conn.WriteMessage(websocket.BinaryMessage, buf); err != nil {
		return 0, fmt.Errorf("send failed: %w", err)
	}
	return c.waitAck(c.seq)
}

// Standby releases the remote output
func (c *Client) Standby() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.sendJSON(TypeStreamStandby, nil); err != nil {
		return err
	}
	_, err := c.waitAck(0)
	return err
}

// Close ends the session
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.conn.Close()
}

// waitAck reads the ack for seq (must hold c.mu)
func (c *Client) waitAck(seq uint64) (int, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return 0, fmt.Errorf("failed to read ack: %w", err)
	}

	var ack StreamAck
	if err := decodeMessage(data, TypeStreamAck, &ack); err != nil {
		return 0, err
	}
	if ack.Seq != seq {
		return 0, fmt.Errorf("ack for seq %d, want %d", ack.Seq, seq)
	}
	if ack.Errno != 0 {
		return ack.Bytes, &RemoteError{Errno: ack.Errno}
	}
	return ack.Bytes, nil
}

func (c *Client) sendJSON(msgType string, payload interface{}) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	return c.conn.WriteJSON(Message{Type: msgType, Payload: payload})
}
