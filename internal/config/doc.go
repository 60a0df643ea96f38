// Package config loads the client's TOML configuration.
//
// # Configuration Discovery
//
// Load resolves the file in this order:
//
//  1. An explicitly provided path
//  2. ~/.config/mycollection/config.toml
//  3. Built-in defaults when the file does not exist
//
// Fields that are missing or blank fall back to their defaults individually.
//
// # Default Values
//
//   - server: 127.0.0.1:8080 (host:port or a full http(s) URL)
//   - log_dir: ~/.local/share/mycollection/logs
//   - log_level: info
//   - log_format: text
//   - mpv_path: mpv
//   - mpv_socket: <log_dir>/mpv.sock
//   - poll_seconds: 5
//
// # TOML Format
//
//	server = "media.lan:8080"
//	log_dir = "~/.cache/mycollection"
//	log_level = "debug"
//	mpv_path = "/usr/bin/mpv"
//	poll_seconds = 10
//
// Tilde expansion applies to log_dir and mpv_socket.
//
// # Error Handling
//
// Load fails when the home directory cannot be resolved, the file cannot be
// read, or it is not valid TOML ("parse config"). A missing file is not an
// error.
package config
