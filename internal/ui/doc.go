// Package ui implements the interactive terminal interface.
//
// The program is a single Bubble Tea model with one screen per concern:
// the gallery (items filtered by selected tags), the tag browser, the item
// view with its mpv-backed player, source directories, the processing queue
// and the local log file. Data comes from the library service; screens are
// refreshed from cache change notifications so optimistic updates and push
// messages show up without polling.
package ui
