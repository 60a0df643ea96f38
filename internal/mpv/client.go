package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dvdlevanon/my-collection-sub000/internal/logging"
	"github.com/dvdlevanon/my-collection-sub000/internal/player"
)

const (
	requestTimeout = 2 * time.Second
	dialTimeout    = 5 * time.Second
	dialRetry      = 50 * time.Millisecond
	eventBuffer    = 64
)

// Observed property ids.
const (
	observeTimePos = iota + 1
	observeDuration
	observePause
	observeEOF
)

// ErrClosed is returned by requests issued after the connection ended.
var ErrClosed = errors.New("mpv connection closed")

// Ensure Client implements player.MediaController at compile time.
var _ player.MediaController = (*Client)(nil)

// Client speaks the mpv JSON IPC protocol over a unix socket.
type Client struct {
	conn   net.Conn
	logger *slog.Logger
	proc   *exec.Cmd

	writeMu sync.Mutex
	nextID  atomic.Int64

	mu      sync.Mutex
	pending map[int64]chan reply
	closed  bool

	events    chan Event
	readDone  chan struct{}
	closeOnce sync.Once
}

type request struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

type reply struct {
	data json.RawMessage
	err  error
}

type message struct {
	RequestID *int64          `json:"request_id,omitempty"`
	Error     string          `json:"error,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Event     string          `json:"event,omitempty"`
	ID        int64           `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Reason    string          `json:"reason,omitempty"`
}

// Dial connects to an mpv IPC socket, retrying until the socket accepts
// connections or ctx ends.
func Dial(ctx context.Context, socket string, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(socket) == "" {
		return nil, fmt.Errorf("mpv socket path required")
	}
	var dialer net.Dialer
	for {
		conn, err := dialer.DialContext(ctx, "unix", socket)
		if err == nil {
			return newClient(conn, logger), nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("dial mpv %s: %w", socket, err)
		case <-time.After(dialRetry):
		}
	}
}

func newClient(conn net.Conn, logger *slog.Logger) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	c := &Client{
		conn:     conn,
		logger:   logger,
		pending:  make(map[int64]chan reply),
		events:   make(chan Event, eventBuffer),
		readDone: make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// Events delivers player events until the connection ends, then closes.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Observe subscribes to the properties the player store consumes.
func (c *Client) Observe(ctx context.Context) error {
	props := []struct {
		id   int
		name string
	}{
		{observeTimePos, PropTimePos},
		{observeDuration, PropDuration},
		{observePause, PropPause},
		{observeEOF, PropEOFReached},
	}
	for _, p := range props {
		if _, err := c.Command(ctx, "observe_property", p.id, p.name); err != nil {
			return fmt.Errorf("observe %s: %w", p.name, err)
		}
	}
	return nil
}

// Command sends one IPC command and waits for its reply.
func (c *Client) Command(ctx context.Context, args ...any) (json.RawMessage, error) {
	if c == nil {
		return nil, ErrClosed
	}
	id := c.nextID.Add(1)
	ch := make(chan reply, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.pending[id] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	payload, err := json.Marshal(request{Command: args, RequestID: id})
	if err != nil {
		return nil, fmt.Errorf("encode command: %w", err)
	}
	c.writeMu.Lock()
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(deadline)
	}
	_, err = c.conn.Write(append(payload, '\n'))
	_ = c.conn.SetWriteDeadline(time.Time{})
	c.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("write command: %w", err)
	}

	select {
	case r := <-ch:
		return r.data, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// GetProperty reads a property into dest.
func (c *Client) GetProperty(ctx context.Context, name string, dest any) error {
	data, err := c.Command(ctx, "get_property", name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// SetProperty writes a property.
func (c *Client) SetProperty(ctx context.Context, name string, value any) error {
	_, err := c.Command(ctx, "set_property", name, value)
	return err
}

func (c *Client) do(fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	return fn(ctx)
}

func (c *Client) Play() error {
	return c.do(func(ctx context.Context) error { return c.SetProperty(ctx, PropPause, false) })
}

func (c *Client) Pause() error {
	return c.do(func(ctx context.Context) error { return c.SetProperty(ctx, PropPause, true) })
}

func (c *Client) Seek(seconds float64) error {
	return c.do(func(ctx context.Context) error {
		_, err := c.Command(ctx, "seek", seconds, "absolute")
		return err
	})
}

func (c *Client) CurrentTime() (float64, error) {
	var t float64
	err := c.do(func(ctx context.Context) error { return c.GetProperty(ctx, PropTimePos, &t) })
	return t, err
}

// SetVolume maps [0, 1] to mpv's percent scale.
func (c *Client) SetVolume(volume float64) error {
	return c.do(func(ctx context.Context) error { return c.SetProperty(ctx, PropVolume, volume*100) })
}

func (c *Client) EnterFullScreen() error {
	return c.do(func(ctx context.Context) error { return c.SetProperty(ctx, PropFullscreen, true) })
}

func (c *Client) ExitFullScreen() error {
	return c.do(func(ctx context.Context) error { return c.SetProperty(ctx, PropFullscreen, false) })
}

// ShowText displays an on-screen message, used for subtitles and status.
func (c *Client) ShowText(text string, d time.Duration) error {
	return c.do(func(ctx context.Context) error {
		_, err := c.Command(ctx, "show-text", text, d.Milliseconds())
		return err
	})
}

// Close asks a launched player to quit, closes the connection and waits for
// the process. Attached players are left running.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	var err error
	c.closeOnce.Do(func() {
		if c.proc != nil {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			if _, qerr := c.Command(ctx, "quit"); qerr != nil && !errors.Is(qerr, ErrClosed) {
				c.logger.Debug("mpv quit failed", logging.Error(qerr))
			}
			cancel()
		}
		err = c.conn.Close()
		<-c.readDone
		if c.proc != nil {
			waitErr := c.proc.Wait()
			var exitErr *exec.ExitError
			if waitErr != nil && !errors.As(waitErr, &exitErr) {
				c.logger.Debug("mpv wait failed", logging.Error(waitErr))
			}
		}
		if errors.Is(err, net.ErrClosed) {
			err = nil
		}
	})
	return err
}

func (c *Client) readLoop() {
	defer close(c.readDone)
	defer c.shutdown()

	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var msg message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			c.logger.Debug("mpv sent malformed line", logging.Error(err))
			continue
		}
		if msg.Event != "" {
			c.dispatchEvent(msg)
			continue
		}
		if msg.RequestID != nil {
			c.deliver(*msg.RequestID, msg)
		}
	}
}

func (c *Client) deliver(id int64, msg message) {
	c.mu.Lock()
	ch, ok := c.pending[id]
	c.mu.Unlock()
	if !ok {
		return
	}
	r := reply{data: msg.Data}
	if msg.Error != "" && msg.Error != "success" {
		r.err = fmt.Errorf("mpv: %s", msg.Error)
	}
	select {
	case ch <- r:
	default:
	}
}

func (c *Client) dispatchEvent(msg message) {
	evt, ok := parseEvent(msg)
	if !ok {
		return
	}
	select {
	case c.events <- evt:
	default:
		c.logger.Debug("mpv event dropped", logging.String("event", msg.Event))
	}
}

func (c *Client) shutdown() {
	c.mu.Lock()
	c.closed = true
	pending := c.pending
	c.pending = make(map[int64]chan reply)
	c.mu.Unlock()

	for _, ch := range pending {
		select {
		case ch <- reply{err: ErrClosed}:
		default:
		}
	}
	close(c.events)
}
