package mpv

import "encoding/json"

// Property names used by the client.
const (
	PropTimePos    = "time-pos"
	PropDuration   = "duration"
	PropPause      = "pause"
	PropEOFReached = "eof-reached"
	PropVolume     = "volume"
	PropFullscreen = "fullscreen"
)

// EventKind classifies player events.
type EventKind int

const (
	EventTimePos EventKind = iota + 1
	EventDuration
	EventPause
	EventEOF
	EventEndFile
	EventFileLoaded
)

// Event is a decoded mpv notification.
type Event struct {
	Kind    EventKind
	Seconds float64
	Paused  bool
	Reason  string
}

func parseEvent(msg message) (Event, bool) {
	switch msg.Event {
	case "property-change":
		return parsePropertyChange(msg)
	case "end-file":
		return Event{Kind: EventEndFile, Reason: msg.Reason}, true
	case "file-loaded":
		return Event{Kind: EventFileLoaded}, true
	default:
		return Event{}, false
	}
}

func parsePropertyChange(msg message) (Event, bool) {
	if len(msg.Data) == 0 || string(msg.Data) == "null" {
		return Event{}, false
	}
	switch msg.Name {
	case PropTimePos, PropDuration:
		var v float64
		if err := json.Unmarshal(msg.Data, &v); err != nil {
			return Event{}, false
		}
		kind := EventTimePos
		if msg.Name == PropDuration {
			kind = EventDuration
		}
		return Event{Kind: kind, Seconds: v}, true
	case PropPause:
		var paused bool
		if err := json.Unmarshal(msg.Data, &paused); err != nil {
			return Event{}, false
		}
		return Event{Kind: EventPause, Paused: paused}, true
	case PropEOFReached:
		var eof bool
		if err := json.Unmarshal(msg.Data, &eof); err != nil || !eof {
			return Event{}, false
		}
		return Event{Kind: EventEOF}, true
	default:
		return Event{}, false
	}
}
