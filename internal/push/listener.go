// Package push consumes the server's websocket notification channel.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dvdlevanon/my-collection-sub000/internal/collection"
	"github.com/dvdlevanon/my-collection-sub000/internal/logging"
)

// MessageType identifies a push payload.
type MessageType int

// TypeQueueMetadata carries a collection.QueueMetadata payload.
const TypeQueueMetadata MessageType = 1

const handshakeTimeout = 10 * time.Second

// Message is the envelope the server writes for every notification.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// QueueSink receives queue metadata pushed by the server.
type QueueSink func(collection.QueueMetadata)

// Listener reads notifications from a single websocket connection.
type Listener struct {
	URL       string
	Sink      QueueSink
	Logger    *slog.Logger
	Dialer    *websocket.Dialer
	UserAgent string
}

// Run connects and dispatches messages until the connection drops or ctx
// ends. A cancelled context returns ctx.Err().
func (l *Listener) Run(ctx context.Context) error {
	if l == nil || l.URL == "" {
		return errors.New("push url required")
	}
	logger := l.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	dialer := l.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{HandshakeTimeout: handshakeTimeout, Proxy: http.ProxyFromEnvironment}
	}
	header := http.Header{}
	if l.UserAgent != "" {
		header.Set("User-Agent", l.UserAgent)
	}

	conn, resp, err := dialer.DialContext(ctx, l.URL, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("dial push channel: %w", err)
	}
	defer conn.Close()
	logger.Debug("push channel connected", logging.String("url", l.URL))

	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	})
	defer stop()

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				logger.Warn("push message malformed", logging.Error(err))
				continue
			}
			return fmt.Errorf("read push message: %w", err)
		}
		l.dispatch(msg, logger)
	}
}

func (l *Listener) dispatch(msg Message, logger *slog.Logger) {
	switch msg.Type {
	case TypeQueueMetadata:
		var meta collection.QueueMetadata
		if err := json.Unmarshal(msg.Payload, &meta); err != nil {
			logger.Warn("queue metadata payload invalid", logging.Error(err))
			return
		}
		if l.Sink != nil {
			l.Sink(meta)
		}
	default:
		logger.Debug("push message ignored", logging.Int("type", int(msg.Type)))
	}
}
