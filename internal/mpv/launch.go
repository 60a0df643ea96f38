package mpv

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// LaunchOptions describes an mpv process started for one item.
type LaunchOptions struct {
	Binary     string
	SocketPath string
	URL        string
	Title      string
	// Start is the initial position in seconds.
	Start float64
	// Volume is in [0, 1].
	Volume float64
	Args   []string
}

func (o LaunchOptions) args() []string {
	args := []string{
		"--input-ipc-server=" + o.SocketPath,
		"--keep-open=yes",
		"--force-window=yes",
		"--volume=" + strconv.FormatFloat(o.Volume*100, 'f', 0, 64),
	}
	if o.Start > 0 {
		args = append(args, "--start="+strconv.FormatFloat(o.Start, 'f', 3, 64))
	}
	if title := strings.TrimSpace(o.Title); title != "" {
		args = append(args, "--title="+title)
	}
	args = append(args, o.Args...)
	return append(args, o.URL)
}

// Launch starts mpv for opts.URL, connects to its IPC socket and subscribes
// to the playback properties.
func Launch(ctx context.Context, opts LaunchOptions, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(opts.URL) == "" {
		return nil, fmt.Errorf("media url required")
	}
	if strings.TrimSpace(opts.SocketPath) == "" {
		return nil, fmt.Errorf("mpv socket path required")
	}
	binary := strings.TrimSpace(opts.Binary)
	if binary == "" {
		binary = "mpv"
	}
	if err := os.MkdirAll(filepath.Dir(opts.SocketPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure socket dir: %w", err)
	}
	if err := os.Remove(opts.SocketPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("remove stale socket: %w", err)
	}

	cmd := exec.Command(binary, opts.args()...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start mpv: %w", err)
	}

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	client, err := Dial(dialCtx, opts.SocketPath, logger)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, err
	}
	client.proc = cmd

	if err := client.Observe(dialCtx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
