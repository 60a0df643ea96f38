package cache

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Entry is a copy of one cached query result plus its fetch bookkeeping.
type Entry struct {
	Value               any
	HasValue            bool
	Stale               bool
	UpdatedAt           time.Time
	LastError           error
	ConsecutiveFailures int
}

// IsOffline returns true when the query has failed on several consecutive fetches.
func (e Entry) IsOffline() bool {
	return e.ConsecutiveFailures >= 2
}

// Cache stores query results by semantic key and deduplicates in-flight fetches.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	group   singleflight.Group
	now     func() time.Time

	subMu   sync.Mutex
	subs    map[int]chan string
	nextSub int
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]*Entry),
		subs:    make(map[int]chan string),
		now:     time.Now,
	}
}

// Query returns the cached value for key when it is present and not
// invalidated. Otherwise it runs fetch, once per key across concurrent
// callers, and stores the result. On failure the previous value (if any) is
// returned together with the error.
func Query[T any](ctx context.Context, c *Cache, key string, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	if c == nil {
		return fetch(ctx)
	}
	if v, ok := fresh[T](c, key); ok {
		return v, nil
	}

	res, err, _ := c.group.Do(key, func() (any, error) {
		v, err := fetch(ctx)
		if err != nil {
			c.recordFailure(key, err)
			return nil, err
		}
		c.Set(key, v)
		return v, nil
	})
	if err != nil {
		if prev, ok := Get[T](c, key); ok {
			return prev, err
		}
		return zero, err
	}
	v, ok := res.(T)
	if !ok {
		return zero, fmt.Errorf("cache %s: unexpected value type %T", key, res)
	}
	return cloneValue(v), nil
}

// Get returns the cached value for key regardless of staleness.
func Get[T any](c *Cache, key string) (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || !e.HasValue {
		return zero, false
	}
	v, ok := e.Value.(T)
	if !ok {
		return zero, false
	}
	return cloneValue(v), true
}

func fresh[T any](c *Cache, key string) (T, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	stale := ok && e.Stale
	c.mu.RUnlock()
	if !ok || stale {
		var zero T
		return zero, false
	}
	return Get[T](c, key)
}

// Set overwrites the value stored under key and clears its error state.
func (c *Cache) Set(key string, value any) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries[key] = &Entry{
		Value:     cloneValue(value),
		HasValue:  true,
		UpdatedAt: c.now(),
	}
	c.mu.Unlock()
	c.notify(key)
}

// Patch applies fn to the cached value under key in place. It returns false
// when the key is absent or holds a value of another type.
func Patch[T any](c *Cache, key string, fn func(T) T) bool {
	if c == nil || fn == nil {
		return false
	}
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || !e.HasValue {
		c.mu.Unlock()
		return false
	}
	current, ok := e.Value.(T)
	if !ok {
		c.mu.Unlock()
		return false
	}
	e.Value = cloneValue(fn(cloneValue(current)))
	e.UpdatedAt = c.now()
	c.mu.Unlock()
	c.notify(key)
	return true
}

// Invalidate marks the given keys stale so the next Query refetches them.
// Cached values stay readable through Get until replaced.
func (c *Cache) Invalidate(keys ...string) {
	if c == nil {
		return
	}
	var touched []string
	c.mu.Lock()
	for _, key := range keys {
		if e, ok := c.entries[key]; ok {
			e.Stale = true
			touched = append(touched, key)
		}
	}
	c.mu.Unlock()
	for _, key := range touched {
		c.notify(key)
	}
}

// InvalidatePrefix marks prefix and every key below it (prefix + "/...") stale.
func (c *Cache) InvalidatePrefix(prefix string) {
	if c == nil {
		return
	}
	prefix = strings.TrimSuffix(prefix, "/")
	c.Invalidate(c.keysUnder(prefix)...)
}

// Remove drops keys entirely.
func (c *Cache) Remove(keys ...string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	for _, key := range keys {
		delete(c.entries, key)
	}
	c.mu.Unlock()
	for _, key := range keys {
		c.notify(key)
	}
}

// Snapshot returns a copy of the entry stored under key.
func (c *Cache) Snapshot(key string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return Entry{}, false
	}
	snap := *e
	snap.Value = cloneValue(e.Value)
	if e.LastError != nil {
		snap.LastError = fmt.Errorf("%w", e.LastError)
	}
	return snap, true
}

// Keys returns the cached keys in sorted order.
func (c *Cache) Keys() []string {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	c.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Subscribe returns a channel receiving keys whose entries changed and a
// function that unsubscribes. Slow subscribers miss notifications rather than
// blocking writers.
func (c *Cache) Subscribe() (<-chan string, func()) {
	ch := make(chan string, 32)
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, id)
			c.subMu.Unlock()
			close(ch)
		})
	}
}

func (c *Cache) notify(key string) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- key:
		default:
		}
	}
}

func (c *Cache) recordFailure(key string, err error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &Entry{}
		c.entries[key] = e
	}
	e.LastError = err
	e.UpdatedAt = c.now()
	e.ConsecutiveFailures++
	c.mu.Unlock()
	c.notify(key)
}

func (c *Cache) keysUnder(prefix string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var keys []string
	for key := range c.entries {
		if key == prefix || strings.HasPrefix(key, prefix+"/") {
			keys = append(keys, key)
		}
	}
	return keys
}

// cloneValue copies top-level slices so callers cannot mutate cached data.
func cloneValue[T any](v T) T {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Slice || rv.IsNil() {
		return v
	}
	dup := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
	reflect.Copy(dup, rv)
	out, ok := dup.Interface().(T)
	if !ok {
		return v
	}
	return out
}
