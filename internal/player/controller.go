package player

import "time"

// MediaController drives the underlying media element. Times are in seconds,
// volume is in [0, 1].
type MediaController interface {
	Play() error
	Pause() error
	Seek(seconds float64) error
	CurrentTime() (float64, error)
	SetVolume(volume float64) error
	EnterFullScreen() error
	ExitFullScreen() error
}

// Navigator opens another item, used when auto-play-next picks a suggestion.
type Navigator interface {
	NavigateToItem(id int64)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(id int64)

func (f NavigatorFunc) NavigateToItem(id int64) { f(id) }

// Persister stores the sticky player preferences.
type Persister interface {
	SavePlayer(volume float64, autoPlayNext bool) error
}

// Timer is a pending callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. Tests substitute a manual clock.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }
