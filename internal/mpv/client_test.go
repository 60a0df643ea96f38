package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeServer struct {
	ln       net.Listener
	mu       sync.Mutex
	commands [][]any
	conn     net.Conn
	props    map[string]any
	ready    chan struct{}
}

func newFakeServer(t *testing.T) (*fakeServer, string) {
	t.Helper()
	socket := filepath.Join(t.TempDir(), "mpv.sock")
	ln, err := net.Listen("unix", socket)
	require.NoError(t, err)
	s := &fakeServer{
		ln:    ln,
		props: map[string]any{PropTimePos: 12.5},
		ready: make(chan struct{}),
	}
	go s.serve()
	t.Cleanup(func() {
		_ = ln.Close()
		s.mu.Lock()
		if s.conn != nil {
			_ = s.conn.Close()
		}
		s.mu.Unlock()
	})
	return s, socket
}

func (s *fakeServer) serve() {
	conn, err := s.ln.Accept()
	if err != nil {
		return
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	close(s.ready)

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var req struct {
			Command   []any `json:"command"`
			RequestID int64 `json:"request_id"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			continue
		}
		s.mu.Lock()
		s.commands = append(s.commands, req.Command)
		resp := map[string]any{"request_id": req.RequestID, "error": "success"}
		if len(req.Command) > 0 {
			switch req.Command[0] {
			case "get_property":
				if v, ok := s.props[req.Command[1].(string)]; ok {
					resp["data"] = v
				} else {
					resp["error"] = "property unavailable"
				}
			case "set_property":
				s.props[req.Command[1].(string)] = req.Command[2]
			case "fail":
				resp["error"] = "invalid parameter"
			}
		}
		s.mu.Unlock()
		s.write(resp)
	}
}

func (s *fakeServer) write(v any) {
	data, _ := json.Marshal(v)
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	_, _ = conn.Write(append(data, '\n'))
}

func (s *fakeServer) Commands() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]any, len(s.commands))
	copy(out, s.commands)
	return out
}

func dialFake(t *testing.T) (*Client, *fakeServer) {
	t.Helper()
	server, socket := newFakeServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	client, err := Dial(ctx, socket, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	<-server.ready
	return client, server
}

func TestControllerCommands(t *testing.T) {
	client, server := dialFake(t)

	require.NoError(t, client.Play())
	require.NoError(t, client.Pause())
	require.NoError(t, client.Seek(42.5))
	require.NoError(t, client.SetVolume(0.25))
	require.NoError(t, client.EnterFullScreen())
	require.NoError(t, client.ExitFullScreen())

	assert.Equal(t, [][]any{
		{"set_property", "pause", false},
		{"set_property", "pause", true},
		{"seek", 42.5, "absolute"},
		{"set_property", "volume", 25.0},
		{"set_property", "fullscreen", true},
		{"set_property", "fullscreen", false},
	}, server.Commands())
}

func TestCurrentTime(t *testing.T) {
	client, _ := dialFake(t)
	got, err := client.CurrentTime()
	require.NoError(t, err)
	assert.Equal(t, 12.5, got)
}

func TestCommandErrorReply(t *testing.T) {
	client, _ := dialFake(t)

	_, err := client.Command(context.Background(), "fail")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid parameter")

	var v float64
	err = client.GetProperty(context.Background(), "missing", &v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "property unavailable")
}

func TestObserveSubscribesProperties(t *testing.T) {
	client, server := dialFake(t)
	require.NoError(t, client.Observe(context.Background()))

	cmds := server.Commands()
	require.Len(t, cmds, 4)
	assert.Equal(t, []any{"observe_property", 1.0, "time-pos"}, cmds[0])
	assert.Equal(t, []any{"observe_property", 4.0, "eof-reached"}, cmds[3])
}

func TestEventsAreDecoded(t *testing.T) {
	client, server := dialFake(t)

	server.write(map[string]any{"event": "property-change", "id": 1, "name": "time-pos", "data": 3.25})
	server.write(map[string]any{"event": "property-change", "id": 1, "name": "time-pos", "data": nil})
	server.write(map[string]any{"event": "property-change", "id": 3, "name": "pause", "data": true})
	server.write(map[string]any{"event": "property-change", "id": 4, "name": "eof-reached", "data": false})
	server.write(map[string]any{"event": "property-change", "id": 4, "name": "eof-reached", "data": true})
	server.write(map[string]any{"event": "end-file", "reason": "eof"})
	server.write(map[string]any{"event": "seek"})

	var got []Event
	timeout := time.After(time.Second)
	for len(got) < 4 {
		select {
		case evt := <-client.Events():
			got = append(got, evt)
		case <-timeout:
			t.Fatalf("timed out after %d events", len(got))
		}
	}
	assert.Equal(t, []Event{
		{Kind: EventTimePos, Seconds: 3.25},
		{Kind: EventPause, Paused: true},
		{Kind: EventEOF},
		{Kind: EventEndFile, Reason: "eof"},
	}, got)
}

func TestCloseFailsLaterCommands(t *testing.T) {
	client, _ := dialFake(t)
	require.NoError(t, client.Close())

	_, err := client.Command(context.Background(), "get_property", "time-pos")
	assert.ErrorIs(t, err, ErrClosed)

	_, open := <-client.Events()
	assert.False(t, open)
	assert.NoError(t, client.Close())
}

func TestDialHonoursContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := Dial(ctx, filepath.Join(t.TempDir(), "absent.sock"), nil)
	require.Error(t, err)

	_, err = Dial(context.Background(), " ", nil)
	require.Error(t, err)
}

func TestLaunchArgs(t *testing.T) {
	opts := LaunchOptions{
		SocketPath: "/tmp/mc.sock",
		URL:        "http://host/api/file/a.mp4",
		Title:      "Movie",
		Start:      12,
		Volume:     0.5,
		Args:       []string{"--mute=yes"},
	}
	assert.Equal(t, []string{
		"--input-ipc-server=/tmp/mc.sock",
		"--keep-open=yes",
		"--force-window=yes",
		"--volume=50",
		"--start=12.000",
		"--title=Movie",
		"--mute=yes",
		"http://host/api/file/a.mp4",
	}, opts.args())

	_, err := Launch(context.Background(), LaunchOptions{SocketPath: "/tmp/x.sock"}, nil)
	require.Error(t, err)
}
