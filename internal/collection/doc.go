// Package collection provides an HTTP client for the my-collection server API.
//
// # Overview
//
// The package mirrors the server's JSON records (tags, items, directories,
// tasks, subtitles) and wraps every endpoint the terminal client needs in a
// method on *Client. Each call issues exactly one request; there are no
// retries or batching. Callers bound requests with a context, and the client
// carries a fixed per-request timeout on top of that.
//
// # Architecture
//
//   - client.go: Client construction, endpoints and request plumbing
//   - types.go: records and small derived helpers (task status, staleness,
//     playback range, tag labels)
//
// # Usage
//
//	client, err := collection.NewClient("127.0.0.1:8080")
//	if err != nil {
//		return err
//	}
//	tags, err := client.FetchTags(ctx)
//
// # Errors
//
// Non-2xx answers are returned as *StatusError so callers can branch on the
// code with errors.As; IsNotFound covers the common 404 case. Transport and
// decode failures are wrapped with fmt.Errorf and %w.
//
// Every request carries an X-Request-ID header so server logs can be matched
// with the client log file.
package collection
