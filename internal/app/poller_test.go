package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second}, // Would be 32s, capped to 30s
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, calculateBackoff(tt.failures, baseInterval))
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	// Verify that backoff never exceeds maxBackoff regardless of input
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 20; failures++ {
		assert.LessOrEqual(t, calculateBackoff(failures, baseInterval), maxBackoff, "failures=%d", failures)
	}
}

type flakyRefresher struct {
	mu       sync.Mutex
	calls    int
	failFor  int
	stopAt   int
	cancel   context.CancelFunc
	attempts []time.Time
}

func (f *flakyRefresher) RefreshQueue(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.attempts = append(f.attempts, time.Now())
	if f.calls >= f.stopAt {
		f.cancel()
	}
	if f.calls <= f.failFor {
		return errors.New("server unreachable")
	}
	return nil
}

func TestRunPoller_RetriesUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := &flakyRefresher{failFor: 2, stopAt: 4, cancel: cancel}

	done := make(chan struct{})
	go func() {
		runPoller(ctx, r, 5*time.Millisecond, nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop after cancellation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	require.Equal(t, 4, r.calls)
	// Second failure waits base*4, first success waits base.
	assert.GreaterOrEqual(t, r.attempts[2].Sub(r.attempts[1]), 20*time.Millisecond)
}
