package player

import (
	"sync"
	"time"
)

const (
	repeatInitialDelay = 300 * time.Millisecond
	repeatMinDelay     = 40 * time.Millisecond
	repeatRampDuration = 3 * time.Second
)

// RepeatSeeker repeatedly applies an offset seek while a seek control is
// held. The delay between seeks shrinks the longer the control is held.
type RepeatSeeker struct {
	store *Store
	clock Clock

	mu      sync.Mutex
	timer   Timer
	gen     int
	active  bool
	started time.Time
	offset  float64
}

// NewRepeatSeeker builds a seeker driving store with the store's clock.
func NewRepeatSeeker(store *Store) *RepeatSeeker {
	return &RepeatSeeker{store: store, clock: store.clock}
}

// Start seeks by offset immediately and keeps seeking until Stop. Starting
// again restarts the ramp with the new offset.
func (r *RepeatSeeker) Start(offset float64) {
	r.mu.Lock()
	r.stopLocked()
	r.active = true
	r.offset = offset
	r.started = r.clock.Now()
	gen := r.gen
	r.mu.Unlock()

	r.store.OffsetSeek(offset)
	r.schedule(gen)
}

// Stop ends the repetition.
func (r *RepeatSeeker) Stop() {
	r.mu.Lock()
	r.stopLocked()
	r.mu.Unlock()
}

// Active reports whether the seeker is running.
func (r *RepeatSeeker) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

func (r *RepeatSeeker) stopLocked() {
	r.gen++
	r.active = false
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *RepeatSeeker) schedule(gen int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen || !r.active {
		return
	}
	delay := repeatDelay(r.clock.Now().Sub(r.started))
	r.timer = r.clock.AfterFunc(delay, func() { r.tick(gen) })
}

func (r *RepeatSeeker) tick(gen int) {
	r.mu.Lock()
	if gen != r.gen || !r.active {
		r.mu.Unlock()
		return
	}
	offset := r.offset
	r.mu.Unlock()

	r.store.OffsetSeek(offset)
	r.store.notifyChange()
	r.schedule(gen)
}

// repeatDelay shrinks linearly from 300 ms to 40 ms over a 3 s hold.
func repeatDelay(held time.Duration) time.Duration {
	if held <= 0 {
		return repeatInitialDelay
	}
	if held >= repeatRampDuration {
		return repeatMinDelay
	}
	span := repeatInitialDelay - repeatMinDelay
	return repeatInitialDelay - time.Duration(float64(span)*float64(held)/float64(repeatRampDuration))
}
