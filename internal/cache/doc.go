// Package cache is the client-side query cache shared by the UI, the poller
// and the push listener.
//
// Results are stored under semantic keys (see keys.go). Query returns a fresh
// value when one exists and otherwise fetches it, collapsing concurrent
// fetches for the same key into one request. Invalidate marks entries stale
// without dropping them, so screens keep showing the last value while the
// refetch runs. Failures are counted per key; two in a row mark the entry
// offline for the header indicator.
//
// Subscribe delivers the key of every changed entry. Notifications never
// block: a slow subscriber misses keys rather than stalling writers.
package cache
