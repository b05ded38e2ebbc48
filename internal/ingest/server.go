// ABOUTME: WebSocket endpoint where a remote audio framework submits buffers
// ABOUTME: Decodes each buffer, writes it to the shared output and acks the result
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mini210/hal/pkg/audio"
	"github.com/mini210/hal/pkg/audio/decode"
	"github.com/mini210/hal/pkg/audio/output"
	"github.com/rs/zerolog"
)

const (
	handshakeTimeout = 5 * time.Second
	writeDeadline    = 10 * time.Second
)

// Config holds server configuration
type Config struct {
	Name       string
	SampleRate int
	Channels   int
	BufferSize int // preferred submission size in bytes
}

// SessionInfo describes one connected session
type SessionInfo struct {
	ID        string
	Name      string
	Remote    string
	Codec     string
	Streaming bool
	Buffers   uint64
}

// Server accepts sessions on Path. All sessions share one Output; the
// session that sent stream/start owns it until standby or disconnect.
type Server struct {
	config   Config
	out      output.Output
	log      zerolog.Logger
	upgrader websocket.Upgrader

	// outMu serializes every call into out
	outMu sync.Mutex
	owner *session

	mu       sync.RWMutex
	sessions map[string]*session
}

type session struct {
	id     string
	name   string
	remote string
	conn   *websocket.Conn

	// Owned by the connection goroutine
	decoder decode.Decoder
	format  audio.Format
	seq     uint64
}

// NewServer creates a server writing to out
func NewServer(config Config, out output.Output, log zerolog.Logger) *Server {
	return &Server{
		config: config,
		out:    out,
		log:    log,
		upgrader: websocket.Upgrader{
			// Remote frameworks are not browsers; accept any origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		sessions: make(map[string]*session),
	}
}

// Handler returns the HTTP handler serving Path
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(Path, s.handleWebSocket)
	return mux
}

// Serve accepts connections on ln until ctx is cancelled
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.Handler()}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	s.log.Info().Str("addr", ln.Addr().String()).Str("path", Path).Msg("ingest server listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)

	// Hijacked connections are not closed by Shutdown
	s.mu.RLock()
	for _, sess := range s.sessions {
		sess.conn.Close()
	}
	s.mu.RUnlock()

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Sessions returns the connected sessions ordered by id
func (s *Server) Sessions() []SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]SessionInfo, 0, len(s.sessions))
	for _, sess := range s.sessions {
		infos = append(infos, SessionInfo{
			ID:     sess.id,
			Name:   sess.name,
			Remote: sess.remote,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })

	s.outMu.Lock()
	for i := range infos {
		if sess := s.sessions[infos[i].ID]; sess == s.owner {
			infos[i].Codec = sess.format.Codec
			infos[i].Streaming = true
			infos[i].Buffers = sess.seq
		}
	}
	s.outMu.Unlock()
	return infos
}

// handleWebSocket upgrades and serves one session
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	sess, err := s.handshake(conn, r.RemoteAddr)
	if err != nil {
		s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("handshake failed")
		return
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	err = s.send(conn, TypeServerHello, ServerHello{
		SessionID:  sess.id,
		Name:       s.config.Name,
		Version:    ProtocolVersion,
		SampleRate: s.config.SampleRate,
		Channels:   s.config.Channels,
		BufferSize: s.config.BufferSize,
	})

	log := s.log.With().Str("session", sess.id).Str("name", sess.name).Logger()
	log.Info().Str("remote", sess.remote).Msg("session opened")

	defer func() {
		s.release(sess)
		s.mu.Lock()
		delete(s.sessions, sess.id)
		s.mu.Unlock()
		log.Info().Msg("session closed")
	}()

	if err != nil {
		log.Warn().Err(err).Msg("failed to send server hello")
		return
	}

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Msg("read failed")
			}
			return
		}

		var ack StreamAck
		switch mt {
		case websocket.BinaryMessage:
			ack = s.submit(sess, data, log)
		case websocket.TextMessage:
			ack = s.control(sess, data, log)
		default:
			continue
		}

		if err := s.send(sess.conn, TypeStreamAck, ack); err != nil {
			log.Debug().Err(err).Msg("ack failed")
			return
		}
	}
}

// handshake reads and validates client/hello
func (s *Server) handshake(conn *websocket.Conn, remote string) (*session, error) {
	conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("failed to read hello: %w", err)
	}
	conn.SetReadDeadline(time.Time{})

	var hello ClientHello
	if err := decodeMessage(data, TypeClientHello, &hello); err != nil {
		s.reject(conn, "bad_hello", err.Error())
		return nil, err
	}
	if hello.Name == "" {
		s.reject(conn, "bad_hello", "name required")
		return nil, errors.New("client hello missing name")
	}
	if hello.Version != ProtocolVersion {
		msg := fmt.Sprintf("unsupported version %d", hello.Version)
		s.reject(conn, "bad_version", msg)
		return nil, errors.New(msg)
	}

	return &session{
		id:     uuid.New().String(),
		name:   hello.Name,
		remote: remote,
		conn:   conn,
	}, nil
}

func (s *Server) reject(conn *websocket.Conn, code, message string) {
	s.send(conn, TypeServerError, ServerError{Error: code, Message: message})
}

// control handles a JSON message after the handshake
func (s *Server) control(sess *session, data []byte, log zerolog.Logger) StreamAck {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Msg("bad control message")
		return StreamAck{Errno: output.Errno(output.ErrInvalid)}
	}

	switch env.Type {
	case TypeStreamStart:
		var start StreamStart
		if err := json.Unmarshal(env.Payload, &start); err != nil {
			return StreamAck{Errno: output.Errno(output.ErrInvalid)}
		}
		return StreamAck{Errno: output.Errno(s.start(sess, start, log))}
	case TypeStreamStandby:
		return StreamAck{Errno: output.Errno(s.release(sess))}
	default:
		log.Warn().Str("type", env.Type).Msg("unknown message type")
		return StreamAck{Errno: output.Errno(output.ErrNotSupported)}
	}
}

// start claims the output for sess and opens it in the requested format
func (s *Server) start(sess *session, start StreamStart, log zerolog.Logger) error {
	if start.BitDepth == 0 {
		start.BitDepth = 16
	}
	format := audio.Format{
		Codec:      start.Codec,
		SampleRate: start.SampleRate,
		Channels:   start.Channels,
		BitDepth:   start.BitDepth,
	}

	s.outMu.Lock()
	defer s.outMu.Unlock()

	if s.owner != nil && s.owner != sess {
		log.Warn().Str("owner", s.owner.id).Msg("output busy")
		return output.ErrBusy
	}

	decoder, err := decode.New(format)
	if err != nil {
		log.Warn().Err(err).Msg("unsupported stream format")
		return fmt.Errorf("%w: %w", output.ErrInvalid, err)
	}
	if err := s.out.Open(format.SampleRate, format.Channels); err != nil {
		decoder.Close()
		log.Warn().Err(err).Msg("output open failed")
		return err
	}

	if sess.decoder != nil {
		sess.decoder.Close()
	}
	sess.decoder = decoder
	sess.format = format
	sess.seq = 0
	s.owner = sess

	log.Info().
		Str("codec", format.Codec).
		Int("sample_rate", format.SampleRate).
		Int("channels", format.Channels).
		Msg("stream started")
	return nil
}

// submit decodes one buffer and writes it to the output
func (s *Server) submit(sess *session, data []byte, log zerolog.Logger) StreamAck {
	s.outMu.Lock()
	defer s.outMu.Unlock()

	if s.owner != sess {
		return StreamAck{Errno: output.Errno(output.ErrInvalid)}
	}

	sess.seq++
	ack := StreamAck{Seq: sess.seq}

	samples, err := sess.decoder.Decode(data)
	if err != nil {
		log.Warn().Err(err).Uint64("seq", sess.seq).Msg("decode failed")
		ack.Errno = output.Errno(output.ErrInvalid)
		return ack
	}
	n, err := s.write(samples, len(data))
	if err != nil {
		log.Warn().Err(err).Uint64("seq", sess.seq).Msg("output write failed")
		ack.Errno = output.Errno(err)
		return ack
	}

	ack.Bytes = n
	return ack
}

// write returns the bytes the device accepted when the output reports them,
// otherwise the size of the submitted buffer
func (s *Server) write(samples []int32, submitted int) (int, error) {
	if bw, ok := s.out.(output.ByteWriter); ok {
		return bw.WriteBytes(samples)
	}
	if err := s.out.Write(samples); err != nil {
		return 0, err
	}
	return submitted, nil
}

// release puts the output in standby if sess owns it
func (s *Server) release(sess *session) error {
	s.outMu.Lock()
	defer s.outMu.Unlock()

	if sess.decoder != nil {
		sess.decoder.Close()
		sess.decoder = nil
	}
	if s.owner != sess {
		return nil
	}
	s.owner = nil
	return s.out.Close()
}

func (s *Server) send(conn *websocket.Conn, msgType string, payload interface{}) error {
	data, err := json.Marshal(Message{Type: msgType, Payload: payload})
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	return conn.WriteMessage(websocket.TextMessage, data)
}
