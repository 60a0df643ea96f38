// Package app wires configuration, logging, the collection client and the
// terminal UI together.
//
// Run is the composition root. It loads config.toml, opens the rotating log
// file and the preferences store, builds a library.Service over a fresh
// query cache, and then starts two background goroutines before handing
// control to the UI:
//
//   - the queue poller refreshes queue metadata every PollInterval and backs
//     off (doubling, capped at 30s) while the server is unreachable
//   - the push listener keeps the websocket notification channel open and
//     feeds pushed queue metadata straight into the cache
//
// Both goroutines stop when the context passed to Run is cancelled. Fetch
// failures are logged and retried; only configuration, logging and client
// construction errors are returned from Run.
package app
