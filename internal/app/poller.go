package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/dvdlevanon/my-collection-sub000/internal/logging"
	"github.com/dvdlevanon/my-collection-sub000/internal/push"
)

const (
	defaultPollInterval = 5 * time.Second
	maxBackoff          = 30 * time.Second
	pushRetryBase       = time.Second
)

// QueueRefresher reloads the queue data shown by the tasks view.
type QueueRefresher interface {
	RefreshQueue(ctx context.Context) error
}

// calculateBackoff doubles base for every consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures < 0 {
		failures = 0
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

// StartPoller launches a background goroutine that refreshes the queue at a
// fixed cadence, backing off while the server is unreachable. It returns
// immediately.
func StartPoller(ctx context.Context, r QueueRefresher, interval time.Duration, logger *slog.Logger) {
	go runPoller(ctx, r, interval, logger)
}

func runPoller(ctx context.Context, r QueueRefresher, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	failures := 0
	for {
		if err := r.RefreshQueue(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			failures++
			logger.Warn("queue poll failed",
				logging.Error(err),
				logging.Int(logging.FieldAttempt, failures),
			)
		} else {
			failures = 0
		}

		timer := time.NewTimer(calculateBackoff(failures, interval))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// StartPushListener keeps a push connection open until ctx ends, reconnecting
// with backoff after failures. It returns immediately.
func StartPushListener(ctx context.Context, l *push.Listener, logger *slog.Logger) {
	go runPushListener(ctx, l, pushRetryBase, logger)
}

func runPushListener(ctx context.Context, l *push.Listener, base time.Duration, logger *slog.Logger) {
	if logger == nil {
		logger = logging.NewNop()
	}
	failures := 0
	for {
		err := l.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			failures++
			logger.Debug("push channel unavailable",
				logging.Error(err),
				logging.Int(logging.FieldAttempt, failures),
			)
		} else {
			failures = 0
		}

		timer := time.NewTimer(calculateBackoff(failures, base))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
