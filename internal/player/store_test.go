package player

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *fakeController, *fakeClock) {
	t.Helper()
	ctrl := &fakeController{}
	clock := newFakeClock()
	s := New(Options{Controller: ctrl, Clock: clock, Volume: 0.5})
	return s, ctrl, clock
}

func TestOffsetSeekClampsToRange(t *testing.T) {
	s, ctrl, _ := newTestStore(t)
	s.Load(10, 100)
	s.VideoTimeUpdate(95)

	s.OffsetSeek(20)
	assert.Equal(t, []float64{100}, ctrl.Seeks())
	assert.Equal(t, 100.0, s.Snapshot().CurrentTime)

	s.OffsetSeek(-500)
	assert.Equal(t, 10.0, ctrl.Seeks()[1])

	s.Seek(42)
	assert.Equal(t, 42.0, s.Snapshot().CurrentTime)
}

func TestOffsetSeekUsesDurationWithoutEnd(t *testing.T) {
	s, ctrl, _ := newTestStore(t)
	s.Load(0, 0)
	s.VideoLoadedMetadata(60)
	s.Seek(90)
	assert.Equal(t, 60.0, ctrl.Seeks()[len(ctrl.Seeks())-1])
}

func TestVideoTimeUpdateLoopsBackAtEnd(t *testing.T) {
	s, ctrl, _ := newTestStore(t)
	s.Load(5, 50)
	s.TogglePlay()
	require.True(t, s.Snapshot().Playing)

	s.VideoTimeUpdate(51)

	snap := s.Snapshot()
	assert.False(t, snap.Playing)
	assert.Equal(t, 5.0, snap.CurrentTime)
	assert.Equal(t, []float64{5}, ctrl.Seeks())
	assert.Equal(t, []string{"play", "seek", "pause"}, ctrl.Calls())
	assert.True(t, snap.ShowSuggestions, "without auto-play the overlay opens")
}

func TestVideoTimeUpdateBeforeEnd(t *testing.T) {
	s, ctrl, _ := newTestStore(t)
	s.Load(0, 50)
	s.VideoTimeUpdate(49.9)
	assert.Equal(t, 49.9, s.Snapshot().CurrentTime)
	assert.Empty(t, ctrl.Calls())
}

func TestVideoLoadedMetadataOnlyOnce(t *testing.T) {
	s, ctrl, _ := newTestStore(t)
	s.Load(12, 0)

	s.VideoLoadedMetadata(300)
	snap := s.Snapshot()
	assert.Equal(t, 300.0, snap.EndTime)
	assert.Equal(t, 300.0, snap.Duration)
	assert.Equal(t, []float64{12}, ctrl.Seeks())

	s.VideoLoadedMetadata(999)
	assert.Equal(t, 300.0, s.Snapshot().EndTime)
	assert.Len(t, ctrl.Seeks(), 1)
}

func TestVideoLoadedMetadataKeepsExplicitEnd(t *testing.T) {
	s, _, _ := newTestStore(t)
	s.Load(10, 40)
	assert.Equal(t, 30.0, s.Snapshot().Duration)

	s.VideoLoadedMetadata(300)
	snap := s.Snapshot()
	assert.Equal(t, 40.0, snap.EndTime)
	assert.Equal(t, 30.0, snap.Duration)
}

func TestTogglePlayClosesSuggestions(t *testing.T) {
	s, ctrl, _ := newTestStore(t)
	s.Load(0, 10)
	s.VideoFinished()
	require.True(t, s.Snapshot().ShowSuggestions)

	s.TogglePlay()
	snap := s.Snapshot()
	assert.True(t, snap.Playing)
	assert.False(t, snap.ShowSuggestions)

	s.TogglePlay()
	assert.False(t, s.Snapshot().Playing)
	assert.Equal(t, []string{"play", "pause"}, ctrl.Calls())
}

func TestHideSuggestionsKeepsPlayState(t *testing.T) {
	s, ctrl, _ := newTestStore(t)
	s.Load(0, 10)
	s.VideoFinished()
	require.True(t, s.Snapshot().ShowSuggestions)

	s.HideSuggestions()
	snap := s.Snapshot()
	assert.False(t, snap.ShowSuggestions)
	assert.False(t, snap.Playing)
	assert.Empty(t, ctrl.Calls())
}

func TestTogglePlayControllerErrorKeepsState(t *testing.T) {
	s, ctrl, _ := newTestStore(t)
	ctrl.playErr = errBroken
	s.TogglePlay()
	assert.False(t, s.Snapshot().Playing)
}

func TestControlsWithoutControllerAreNoops(t *testing.T) {
	s := New(Options{Clock: newFakeClock()})
	s.Load(0, 100)
	s.TogglePlay()
	s.OffsetSeek(10)
	s.ToggleFullScreen()
	s.SetVolume(0.3)

	snap := s.Snapshot()
	assert.False(t, snap.Playing)
	assert.False(t, snap.FullScreen)
	assert.Equal(t, 0.0, snap.CurrentTime)
	assert.Equal(t, 0.3, snap.Volume)

	ctrl := &fakeController{}
	s.Attach(ctrl)
	s.TogglePlay()
	assert.True(t, s.Snapshot().Playing)
	s.Detach()
	s.TogglePlay()
	assert.True(t, s.Snapshot().Playing)
	assert.Equal(t, []string{"play"}, ctrl.Calls())
}

func TestVideoFinishedAutoPlayNavigates(t *testing.T) {
	var navigated []int64
	s := New(Options{
		Controller:   &fakeController{},
		Clock:        newFakeClock(),
		AutoPlayNext: true,
		Random:       func(n int) int { return n - 1 },
		Navigator:    NavigatorFunc(func(id int64) { navigated = append(navigated, id) }),
	})
	s.Load(0, 10)
	s.SetSuggestions([]int64{7, 8, 9})
	s.MediaPlaying(true)

	s.VideoFinished()

	assert.Equal(t, []int64{9}, navigated)
	snap := s.Snapshot()
	assert.False(t, snap.Playing)
	assert.False(t, snap.ShowSuggestions)
}

func TestVideoFinishedAutoPlayWithoutSuggestionsShowsOverlay(t *testing.T) {
	navigated := false
	s := New(Options{
		AutoPlayNext: true,
		Clock:        newFakeClock(),
		Navigator:    NavigatorFunc(func(int64) { navigated = true }),
	})
	s.Load(0, 10)
	s.VideoFinished()
	assert.False(t, navigated)
	assert.True(t, s.Snapshot().ShowSuggestions)
}

func TestPickRandomBounds(t *testing.T) {
	s := New(Options{Random: rand.New(rand.NewPCG(9, 9)).IntN})
	for n := 1; n <= 20; n++ {
		for i := 0; i < 200; i++ {
			idx := s.PickRandom(n)
			require.GreaterOrEqual(t, idx, 0)
			require.Less(t, idx, n)
		}
	}
	assert.Equal(t, -1, s.PickRandom(0))

	broken := New(Options{Random: func(n int) int { return n + 3 }})
	assert.Equal(t, 3, broken.PickRandom(5))
}

func TestShowControlsAutoHide(t *testing.T) {
	var changes []State
	ctrl := &fakeController{}
	clock := newFakeClock()
	s := New(Options{Controller: ctrl, Clock: clock, OnChange: func(st State) { changes = append(changes, st) }})
	s.Load(0, 100)
	s.TogglePlay()

	s.ShowControls(true)
	clock.Advance(1500 * time.Millisecond)
	assert.True(t, s.Snapshot().ControlsVisible)

	s.ShowControls(true)
	clock.Advance(1500 * time.Millisecond)
	assert.True(t, s.Snapshot().ControlsVisible, "re-showing restarts the hide timer")

	clock.Advance(600 * time.Millisecond)
	assert.False(t, s.Snapshot().ControlsVisible)
	require.Len(t, changes, 1)
	assert.False(t, changes[0].ControlsVisible)
}

func TestShowControlsNoAutoHideWhilePaused(t *testing.T) {
	s, _, clock := newTestStore(t)
	s.Load(0, 100)
	s.ShowControls(true)
	assert.Zero(t, clock.Pending())
	clock.Advance(5 * time.Second)
	assert.True(t, s.Snapshot().ControlsVisible)

	s.TogglePlay()
	s.ShowControls(false)
	assert.Zero(t, clock.Pending())
}

func TestVolumeAndAutoPlayPersist(t *testing.T) {
	ctrl := &fakeController{}
	persist := &fakePersister{}
	s := New(Options{Controller: ctrl, Clock: newFakeClock(), Persister: persist, Volume: 0.5})

	s.AdjustVolume(0.7)
	assert.Equal(t, 1.0, s.Snapshot().Volume)
	assert.Equal(t, 1.0, ctrl.volume)
	assert.Equal(t, 1.0, persist.volume)

	s.SetAutoPlayNext(true)
	assert.True(t, persist.autoPlayNext)
	assert.Equal(t, 2, persist.saves)

	s.SetVolume(-1)
	assert.Equal(t, 0.0, s.Snapshot().Volume)
}

func TestToggleFullScreen(t *testing.T) {
	s, ctrl, _ := newTestStore(t)
	s.ToggleFullScreen()
	assert.True(t, s.Snapshot().FullScreen)
	s.ToggleFullScreen()
	assert.False(t, s.Snapshot().FullScreen)
	assert.Equal(t, []string{"enter-fullscreen", "exit-fullscreen"}, ctrl.Calls())
}

func TestLoadResetsSession(t *testing.T) {
	s, _, _ := newTestStore(t)
	s.Load(0, 10)
	s.SetSuggestions([]int64{1})
	s.MediaPlaying(true)
	s.VideoFinished()

	s.Load(3, 0)
	snap := s.Snapshot()
	assert.False(t, snap.ShowSuggestions)
	assert.Equal(t, 3.0, snap.StartTime)
	assert.Equal(t, 3.0, snap.CurrentTime)
	assert.Zero(t, snap.Duration)
	assert.Empty(t, s.Suggestions())
	assert.Equal(t, 0.5, snap.Volume)
}
