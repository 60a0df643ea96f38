package player

import (
	"errors"
	"sort"
	"sync"
	"time"
)

type fakeController struct {
	mu         sync.Mutex
	calls      []string
	seeks      []float64
	volume     float64
	playErr    error
	fullScreen bool
}

func (f *fakeController) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeController) Play() error {
	f.record("play")
	return f.playErr
}

func (f *fakeController) Pause() error {
	f.record("pause")
	return nil
}

func (f *fakeController) Seek(seconds float64) error {
	f.record("seek")
	f.mu.Lock()
	f.seeks = append(f.seeks, seconds)
	f.mu.Unlock()
	return nil
}

func (f *fakeController) CurrentTime() (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.seeks) == 0 {
		return 0, nil
	}
	return f.seeks[len(f.seeks)-1], nil
}

func (f *fakeController) SetVolume(v float64) error {
	f.record("volume")
	f.mu.Lock()
	f.volume = v
	f.mu.Unlock()
	return nil
}

func (f *fakeController) EnterFullScreen() error {
	f.record("enter-fullscreen")
	f.fullScreen = true
	return nil
}

func (f *fakeController) ExitFullScreen() error {
	f.record("exit-fullscreen")
	f.fullScreen = false
	return nil
}

func (f *fakeController) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeController) Seeks() []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]float64(nil), f.seeks...)
}

var errBroken = errors.New("media element gone")

// fakeClock fires timers synchronously from Advance.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	wasPending := !t.stopped && !t.fired
	t.stopped = true
	return wasPending
}

// Advance moves time forward, firing due timers in order.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var due []*fakeTimer
		for _, t := range c.timers {
			if !t.stopped && !t.fired && !t.at.After(target) {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			c.now = target
			c.mu.Unlock()
			return
		}
		sort.Slice(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
		next := due[0]
		next.fired = true
		c.now = next.at
		c.mu.Unlock()
		next.f()
	}
}

// Pending returns the number of timers that have not fired or been stopped.
func (c *fakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type fakePersister struct {
	volume       float64
	autoPlayNext bool
	saves        int
}

func (p *fakePersister) SavePlayer(volume float64, autoPlayNext bool) error {
	p.volume = volume
	p.autoPlayNext = autoPlayNext
	p.saves++
	return nil
}
