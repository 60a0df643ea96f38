package push

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvdlevanon/my-collection-sub000/internal/collection"
)

func pushServer(t *testing.T, handle func(conn *websocket.Conn)) string {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/ws" {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handle(conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
}

func closeNormally(conn *websocket.Conn) {
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	_, _, _ = conn.ReadMessage()
}

func TestRunDeliversQueueMetadataOnly(t *testing.T) {
	url := pushServer(t, func(conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":2,"payload":{"size":99}}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":1,"payload":{"size":4,"paused":true}}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":1,"payload":"bad"}`))
		closeNormally(conn)
	})

	var got []collection.QueueMetadata
	l := &Listener{URL: url, Sink: func(m collection.QueueMetadata) { got = append(got, m) }}
	err := l.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []collection.QueueMetadata{{Size: 4, Paused: true}}, got)
}

func TestRunReturnsOnCancel(t *testing.T) {
	url := pushServer(t, func(conn *websocket.Conn) {
		_, _, _ = conn.ReadMessage()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- (&Listener{URL: url}).Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop")
	}
}

func TestRunDialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	l := &Listener{URL: "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"}
	err := l.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dial push channel")

	assert.Error(t, (&Listener{}).Run(context.Background()))
}
