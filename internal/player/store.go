package player

import (
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/dvdlevanon/my-collection-sub000/internal/logging"
)

// ControlsHideDelay is how long controls stay visible while playing.
const ControlsHideDelay = 2000 * time.Millisecond

// State is the transport state of one player session. Times are seconds; an
// EndTime of zero means the item plays to the end of the file.
type State struct {
	Playing         bool
	CurrentTime     float64
	StartTime       float64
	EndTime         float64
	Duration        float64
	Volume          float64
	ControlsVisible bool
	ShowSuggestions bool
	FullScreen      bool
	AutoPlayNext    bool
}

// Options configures a Store. Zero values fall back to the system clock, a
// uniform random source and a no-op logger.
type Options struct {
	Controller   MediaController
	Navigator    Navigator
	Clock        Clock
	Random       func(n int) int
	Persister    Persister
	Logger       *slog.Logger
	Volume       float64
	AutoPlayNext bool
	// OnChange is called from timer goroutines when state changes outside a
	// direct method call, e.g. when the controls auto-hide.
	OnChange func(State)
}

// Store holds the playback state of one session and mediates between user
// controls and the MediaController. Control calls without an attached
// controller are no-ops and controller errors are logged, never returned.
type Store struct {
	mu          sync.Mutex
	state       State
	ctrl        MediaController
	nav         Navigator
	clock       Clock
	random      func(n int) int
	persist     Persister
	logger      *slog.Logger
	onChange    func(State)
	suggestions []int64

	metadataLoaded bool
	hideTimer      Timer
	hideGen        int
}

// New builds a Store.
func New(opts Options) *Store {
	s := &Store{
		ctrl:     opts.Controller,
		nav:      opts.Navigator,
		clock:    opts.Clock,
		random:   opts.Random,
		persist:  opts.Persister,
		logger:   opts.Logger,
		onChange: opts.OnChange,
	}
	if s.clock == nil {
		s.clock = SystemClock()
	}
	if s.random == nil {
		s.random = rand.IntN
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	s.state.Volume = clampVolume(opts.Volume)
	s.state.AutoPlayNext = opts.AutoPlayNext
	return s
}

// Load prepares the store for a new item playing the [start, end] range.
func (s *Store) Load(start, end float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopHideTimerLocked()
	s.metadataLoaded = false
	s.suggestions = nil
	s.state.Playing = false
	s.state.ShowSuggestions = false
	s.state.ControlsVisible = true
	s.state.StartTime = start
	s.state.EndTime = end
	s.state.CurrentTime = start
	s.state.Duration = 0
	if end > 0 {
		s.state.Duration = end - start
	}
}

// Attach connects a controller. Passing nil detaches.
func (s *Store) Attach(ctrl MediaController) {
	s.mu.Lock()
	s.ctrl = ctrl
	s.mu.Unlock()
}

// Detach disconnects the controller; later control calls become no-ops.
func (s *Store) Detach() {
	s.Attach(nil)
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Suggestions returns the item ids offered after playback ends.
func (s *Store) Suggestions() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.suggestions...)
}

// SetSuggestions replaces the suggestion list used by auto-play-next.
func (s *Store) SetSuggestions(ids []int64) {
	s.mu.Lock()
	s.suggestions = append([]int64(nil), ids...)
	s.mu.Unlock()
}

// TogglePlay pauses a playing session or resumes a paused one. Playing also
// closes the suggestion overlay.
func (s *Store) TogglePlay() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctrl == nil {
		return
	}
	if s.state.Playing {
		if s.call("pause", s.ctrl.Pause()) {
			s.state.Playing = false
		}
		return
	}
	if s.call("play", s.ctrl.Play()) {
		s.state.Playing = true
		s.state.ShowSuggestions = false
	}
}

// HideSuggestions closes the suggestion overlay.
func (s *Store) HideSuggestions() {
	s.mu.Lock()
	s.state.ShowSuggestions = false
	s.mu.Unlock()
}

// MediaPlaying records a play state reported by the media element itself.
func (s *Store) MediaPlaying(playing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Playing = playing
	if playing {
		s.state.ShowSuggestions = false
	}
}

// VideoLoadedMetadata handles the first metadata event of the media: it
// seeks to the start of the range and, without an explicit end, adopts the
// file duration as the end.
func (s *Store) VideoLoadedMetadata(duration float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.metadataLoaded {
		return
	}
	s.metadataLoaded = true

	if s.ctrl != nil {
		s.call("seek", s.ctrl.Seek(s.state.StartTime))
	}
	s.state.CurrentTime = s.state.StartTime
	if s.state.EndTime == 0 {
		s.state.EndTime = duration
		s.state.Duration = duration
	}
}

// VideoTimeUpdate records the playback position. Reaching the end of the
// range loops back to the start, pauses and finishes the session.
func (s *Store) VideoTimeUpdate(t float64) {
	s.mu.Lock()
	s.state.CurrentTime = t
	if s.state.EndTime <= 0 || t < s.state.EndTime {
		s.mu.Unlock()
		return
	}

	if s.ctrl != nil {
		s.call("seek", s.ctrl.Seek(s.state.StartTime))
		s.call("pause", s.ctrl.Pause())
	}
	s.state.CurrentTime = s.state.StartTime
	next, ok := s.finishLocked()
	nav := s.nav
	s.mu.Unlock()

	if ok && nav != nil {
		nav.NavigateToItem(next)
	}
}

// VideoFinished ends playback: with auto-play-next and suggestions it
// navigates to a random suggestion, otherwise it shows the suggestion overlay.
func (s *Store) VideoFinished() {
	s.mu.Lock()
	next, ok := s.finishLocked()
	nav := s.nav
	s.mu.Unlock()

	if ok && nav != nil {
		nav.NavigateToItem(next)
	}
}

func (s *Store) finishLocked() (int64, bool) {
	s.state.Playing = false
	s.stopHideTimerLocked()
	s.state.ControlsVisible = true
	if s.state.AutoPlayNext && len(s.suggestions) > 0 {
		return s.suggestions[s.pickLocked(len(s.suggestions))], true
	}
	s.state.ShowSuggestions = true
	return 0, false
}

// PickRandom returns an index in [0, n-1], or -1 when n is not positive.
func (s *Store) PickRandom(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pickLocked(n)
}

func (s *Store) pickLocked(n int) int {
	if n <= 0 {
		return -1
	}
	idx := s.random(n)
	if idx < 0 || idx >= n {
		idx = ((idx % n) + n) % n
	}
	return idx
}

// OffsetSeek seeks relative to the current position, clamped to the range.
func (s *Store) OffsetSeek(offset float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seekLocked(s.state.CurrentTime + offset)
}

// Seek seeks to t, clamped to the range.
func (s *Store) Seek(t float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seekLocked(t)
}

func (s *Store) seekLocked(target float64) {
	if s.ctrl == nil {
		return
	}
	target = s.clampLocked(target)
	if s.call("seek", s.ctrl.Seek(target)) {
		s.state.CurrentTime = target
	}
}

func (s *Store) clampLocked(t float64) float64 {
	upper := s.state.EndTime
	if upper <= 0 {
		upper = s.state.Duration
	}
	if upper > 0 && t > upper {
		t = upper
	}
	if t < s.state.StartTime {
		t = s.state.StartTime
	}
	return t
}

// ShowControls shows the controls, cancelling a pending hide. With autoHide
// and while playing they hide again after ControlsHideDelay.
func (s *Store) ShowControls(autoHide bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopHideTimerLocked()
	s.state.ControlsVisible = true
	if !autoHide || !s.state.Playing {
		return
	}
	gen := s.hideGen
	s.hideTimer = s.clock.AfterFunc(ControlsHideDelay, func() { s.hideControls(gen) })
}

func (s *Store) hideControls(gen int) {
	s.mu.Lock()
	if gen != s.hideGen {
		s.mu.Unlock()
		return
	}
	s.hideTimer = nil
	s.state.ControlsVisible = false
	snap := s.state
	onChange := s.onChange
	s.mu.Unlock()

	if onChange != nil {
		onChange(snap)
	}
}

func (s *Store) notifyChange() {
	s.mu.Lock()
	snap := s.state
	onChange := s.onChange
	s.mu.Unlock()
	if onChange != nil {
		onChange(snap)
	}
}

func (s *Store) stopHideTimerLocked() {
	s.hideGen++
	if s.hideTimer != nil {
		s.hideTimer.Stop()
		s.hideTimer = nil
	}
}

// SetVolume sets and persists the volume, clamped to [0, 1].
func (s *Store) SetVolume(volume float64) {
	s.mu.Lock()
	volume = clampVolume(volume)
	if s.ctrl != nil {
		s.call("set volume", s.ctrl.SetVolume(volume))
	}
	s.state.Volume = volume
	s.mu.Unlock()
	s.save()
}

// AdjustVolume shifts the volume by delta.
func (s *Store) AdjustVolume(delta float64) {
	s.SetVolume(s.Snapshot().Volume + delta)
}

// SetAutoPlayNext sets and persists the auto-play-next flag.
func (s *Store) SetAutoPlayNext(enabled bool) {
	s.mu.Lock()
	s.state.AutoPlayNext = enabled
	s.mu.Unlock()
	s.save()
}

// ToggleFullScreen enters or exits full screen.
func (s *Store) ToggleFullScreen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctrl == nil {
		return
	}
	if s.state.FullScreen {
		if s.call("exit fullscreen", s.ctrl.ExitFullScreen()) {
			s.state.FullScreen = false
		}
		return
	}
	if s.call("enter fullscreen", s.ctrl.EnterFullScreen()) {
		s.state.FullScreen = true
	}
}

// Close cancels pending timers.
func (s *Store) Close() {
	s.mu.Lock()
	s.stopHideTimerLocked()
	s.mu.Unlock()
}

func (s *Store) save() {
	if s.persist == nil {
		return
	}
	snap := s.Snapshot()
	if err := s.persist.SavePlayer(snap.Volume, snap.AutoPlayNext); err != nil {
		s.logger.Warn("save player preferences failed", logging.Error(err))
	}
}

// call logs a controller error and reports whether the call succeeded.
func (s *Store) call(op string, err error) bool {
	if err != nil {
		s.logger.Warn("media controller call failed", logging.String("op", op), logging.Error(err))
		return false
	}
	return true
}

func clampVolume(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
