package web

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/Gaurav-Gosain/livepane/internal/sandbox"
	"github.com/coder/websocket"
	"github.com/quic-go/webtransport-go"
)

// Message types for WebSocket/WebTransport communication. The first byte of
// every message is its type.
const (
	MsgDocument = '1' // Composed document (server -> client)
	MsgPing     = '3' // Ping (client -> server)
	MsgPong     = '4' // Pong (server -> client)
	MsgHello    = '6' // Session options (server -> client)
	MsgClose    = '7' // Server shutting down (server -> client)
)

// maxClientMessage bounds what a browser may send; clients only ping.
const maxClientMessage = 1024

// HelloMessage is the first message of every session.
type HelloMessage struct {
	Session string `json:"session"`
	Sandbox string `json:"sandbox"`
}

// transport abstracts the two live channels so one writer loop serves both.
type transport interface {
	send(ctx context.Context, msg []byte) error
}

type wsTransport struct{ conn *websocket.Conn }

func (t wsTransport) send(ctx context.Context, msg []byte) error {
	return t.conn.Write(ctx, websocket.MessageBinary, msg)
}

type wtTransport struct {
	mu     sync.Mutex
	stream *webtransport.Stream
}

func (t *wtTransport) send(_ context.Context, msg []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return writeFramed(t.stream, msg)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.checkConnectionLimit() {
		http.Error(w, "Maximum connections reached", http.StatusServiceUnavailable)
		return
	}
	defer s.releaseConnection()

	opts := &websocket.AcceptOptions{
		OriginPatterns: s.config.AllowOrigins,
	}
	if len(s.config.AllowOrigins) == 0 {
		opts.OriginPatterns = []string{"*"}
	}

	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		logger.Error("WebSocket accept failed", "err", err, "remote", r.RemoteAddr)
		return
	}
	defer func() { _ = conn.CloseNow() }()
	conn.SetReadLimit(maxClientMessage)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sub := s.hub.Subscribe(r.RemoteAddr)
	defer s.endSession(sub, "WebSocket")

	logger.Info("WebSocket session started", "session", sub.ID, "remote", r.RemoteAddr)

	t := wsTransport{conn: conn}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		defer cancel()
		s.pushDocuments(ctx, t, sub)
	}()

	go func() {
		defer wg.Done()
		defer cancel()
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			s.processClientMessage(ctx, t, data, sub)
		}
	}()

	wg.Wait()
}

func (s *Server) handleWebTransport(w http.ResponseWriter, r *http.Request) {
	if !s.checkConnectionLimit() {
		http.Error(w, "Maximum connections reached", http.StatusServiceUnavailable)
		return
	}
	defer s.releaseConnection()

	wtSession, err := s.wtServer.Upgrade(w, r)
	if err != nil {
		logger.Error("WebTransport upgrade failed", "err", err, "remote", r.RemoteAddr)
		return
	}
	defer func() { _ = wtSession.CloseWithError(0, "session closed") }()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	stream, err := wtSession.AcceptStream(ctx)
	if err != nil {
		logger.Error("stream accept failed", "err", err, "remote", r.RemoteAddr)
		return
	}
	defer func() { _ = stream.Close() }()

	sub := s.hub.Subscribe(r.RemoteAddr)
	defer s.endSession(sub, "WebTransport")

	logger.Info("WebTransport session started", "session", sub.ID, "remote", r.RemoteAddr)

	t := &wtTransport{stream: stream}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		defer cancel()
		s.pushDocuments(ctx, t, sub)
	}()

	go func() {
		defer wg.Done()
		defer cancel()
		for {
			msg, err := readFramed(stream, maxClientMessage)
			if err != nil {
				return
			}
			s.processClientMessage(ctx, t, msg, sub)
		}
	}()

	wg.Wait()
}

func (s *Server) endSession(sub *Subscriber, proto string) {
	s.hub.Unsubscribe(sub)
	logger.Info(proto+" session ended",
		"session", sub.ID,
		"remote", sub.Remote,
		"duration", time.Since(sub.Connected).Round(time.Second),
	)
}

// pushDocuments sends the hello message, then every document that lands in
// the subscriber's mailbox, until ctx ends.
func (s *Server) pushDocuments(ctx context.Context, t transport, sub *Subscriber) {
	hello, _ := json.Marshal(HelloMessage{Session: sub.ID, Sandbox: sandbox.IframePolicy})
	if err := t.send(ctx, append([]byte{MsgHello}, hello...)); err != nil {
		return
	}

	var sent int
	for {
		select {
		case <-ctx.Done():
			logger.Debug("push stopped", "session", sub.ID, "documents", sent)
			closeCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			_ = t.send(closeCtx, []byte{MsgClose})
			cancel()
			return
		case doc := <-sub.Updates():
			msg := make([]byte, 1+len(doc))
			msg[0] = MsgDocument
			copy(msg[1:], doc)
			if err := t.send(ctx, msg); err != nil {
				logger.Debug("push failed", "session", sub.ID, "err", err)
				return
			}
			sent++
		}
	}
}

func (s *Server) processClientMessage(ctx context.Context, t transport, data []byte, sub *Subscriber) {
	if len(data) == 0 {
		return
	}

	switch data[0] {
	case MsgPing:
		_ = t.send(ctx, []byte{MsgPong})
	default:
		logger.Debug("unknown message type", "session", sub.ID, "type", fmt.Sprintf("%q", data[0]))
	}
}

// writeFramed writes a message with a 4-byte big-endian length prefix.
func writeFramed(w io.Writer, msg []byte) error {
	frame := make([]byte, 4+len(msg))
	binary.BigEndian.PutUint32(frame[0:4], uint32(len(msg)))
	copy(frame[4:], msg)
	_, err := w.Write(frame)
	return err
}

// readFramed reads one length-prefixed message of at most limit bytes.
func readFramed(r io.Reader, limit uint32) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(lenBuf[:])
	if length > limit {
		return nil, fmt.Errorf("message too large: %d bytes", length)
	}
	msg := make([]byte, length)
	if _, err := io.ReadFull(r, msg); err != nil {
		return nil, err
	}
	return msg, nil
}
