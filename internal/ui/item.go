package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/browser"

	"github.com/dvdlevanon/my-collection-sub000/internal/collection"
	"github.com/dvdlevanon/my-collection-sub000/internal/library"
	"github.com/dvdlevanon/my-collection-sub000/internal/logging"
	"github.com/dvdlevanon/my-collection-sub000/internal/mpv"
	"github.com/dvdlevanon/my-collection-sub000/internal/player"
	"github.com/dvdlevanon/my-collection-sub000/internal/prefs"
	"github.com/dvdlevanon/my-collection-sub000/internal/subtitles"
)

const (
	seekStep         = 5.0
	volumeStep       = 0.05
	subtitleStepMs   = 250
	captionOSDLength = 4 * time.Second
)

// itemSession is one open item together with its player state.
type itemSession struct {
	gen         int
	item        collection.Item
	loaded      bool
	err         error
	suggestions []collection.Item

	store   *player.Store
	repeat  *player.RepeatSeeker
	client  *mpv.Client
	track   *subtitles.Track
	caption string

	starting       bool
	autoStart      bool
	tagCursor      int
	suggestCursor  int
	showSuggestion bool
	markStart      float64
	marking        bool

	// next is the item auto-play-next picked while handling a player event.
	next    int64
	hasNext bool
}

func (s *itemSession) clampTagCursor() {
	s.tagCursor = clampIndex(s.tagCursor, len(s.item.Tags))
}

// takeNext returns a command delivering the pending auto-play-next
// navigation, or nil.
func (s *itemSession) takeNext() tea.Cmd {
	if !s.hasNext {
		return nil
	}
	s.hasNext = false
	msg := navigateMsg{gen: s.gen, id: s.next}
	return func() tea.Msg { return msg }
}

// Session messages carry the generation of the session they belong to so
// late replies from a closed session are dropped.

type itemLoadedMsg struct {
	gen         int
	item        collection.Item
	suggestions []collection.Item
	subtitle    []collection.SubtitleEntry
	err         error
}

type playerStartedMsg struct {
	gen    int
	client *mpv.Client
	err    error
}

type mpvEventMsg struct {
	gen   int
	event mpv.Event
}

type mpvClosedMsg struct{ gen int }

type playerChangedMsg struct{ gen int }

type navigateMsg struct {
	gen int
	id  int64
}

// openItem closes any running session and starts a new one for id.
func (m Model) openItem(id int64) (tea.Model, tea.Cmd) {
	closeCmd := m.closeSession()

	m.nextGen++
	gen := m.nextGen
	p := m.prefs.Get()
	events := m.events

	s := &itemSession{gen: gen, item: collection.Item{ID: id}}
	s.track = subtitles.NewTrack(nil)
	s.track.SetOffset(p.Subtitles.OffsetMillis)
	s.store = player.New(player.Options{
		// The store navigates from inside VideoTimeUpdate and VideoFinished,
		// which only run on the Update goroutine.
		Navigator: player.NavigatorFunc(func(next int64) {
			s.next, s.hasNext = next, true
		}),
		Clock:        m.clock,
		Persister:    m.prefs,
		Logger:       logging.NewComponentLogger(m.logger, "player"),
		Volume:       p.Player.Volume,
		AutoPlayNext: p.Player.AutoPlayNext,
		OnChange: func(player.State) {
			post(events, playerChangedMsg{gen: gen})
		},
	})
	s.repeat = player.NewRepeatSeeker(s.store)
	if item, ok := m.cachedItem(id); ok {
		s.item = item
		s.store.Load(item.PlaybackRange())
	}

	if m.currentView != ViewItem {
		m.previousView = m.currentView
	}
	m.currentView = ViewItem
	m.session = s
	return m, tea.Batch(closeCmd, m.loadSessionItem(s))
}

func (m Model) cachedItem(id int64) (collection.Item, bool) {
	for _, item := range m.items {
		if item.ID == id {
			return item, true
		}
	}
	return collection.Item{}, false
}

// closeSession stops timers synchronously and returns a command that shuts
// down the player process.
func (m Model) closeSession() tea.Cmd {
	s := m.session
	if s == nil {
		return nil
	}
	s.repeat.Stop()
	s.store.Close()
	s.store.Detach()
	client := s.client
	s.client = nil
	if client == nil {
		return nil
	}
	logger := m.logger
	return func() tea.Msg {
		if err := client.Close(); err != nil {
			logger.Debug("close player", logging.Error(err))
		}
		return nil
	}
}

// loadSessionItem fetches the item, its suggestions and the first available
// subtitle track.
func (m Model) loadSessionItem(s *itemSession) tea.Cmd {
	lib := m.lib
	gen, id := s.gen, s.item.ID
	logger := m.logger
	return m.fetch(func(ctx context.Context) tea.Msg {
		item, err := lib.Item(ctx, id)
		if err != nil {
			return itemLoadedMsg{gen: gen, err: err}
		}
		suggestions, err := lib.Suggestions(ctx, id)
		if err != nil {
			logger.Debug("suggestions unavailable", logging.Int64("item_id", id), logging.Error(err))
		}
		return itemLoadedMsg{
			gen:         gen,
			item:        item,
			suggestions: suggestions,
			subtitle:    firstSubtitle(ctx, lib, id, logger),
		}
	})
}

func firstSubtitle(ctx context.Context, lib *library.Service, id int64, logger *slog.Logger) []collection.SubtitleEntry {
	client := lib.Client()
	if client == nil {
		return nil
	}
	langs, err := client.FetchAvailableSubtitleLanguages(ctx, id)
	if err != nil || len(langs) == 0 {
		return nil
	}
	names, err := client.FetchAvailableSubtitleNames(ctx, id, langs[0])
	if err != nil || len(names) == 0 {
		return nil
	}
	sub, err := lib.Subtitle(ctx, id, names[0])
	if err != nil {
		logger.Debug("subtitle unavailable",
			logging.Int64("item_id", id),
			logging.String("name", names[0]),
			logging.Error(err),
		)
		return nil
	}
	return sub.Items
}

// updateSession handles messages that belong to the item session. The
// boolean reports whether msg was one of them.
func (m Model) updateSession(msg tea.Msg) (tea.Model, tea.Cmd, bool) {
	s := m.session
	switch msg := msg.(type) {
	case itemLoadedMsg:
		if s == nil || msg.gen != s.gen {
			return m, nil, true
		}
		s.err = msg.err
		if msg.err != nil {
			return m, nil, true
		}
		first := !s.loaded
		s.loaded = true
		s.item = msg.item
		s.suggestions = msg.suggestions
		ids := make([]int64, 0, len(msg.suggestions))
		for _, it := range msg.suggestions {
			ids = append(ids, it.ID)
		}
		s.store.SetSuggestions(ids)
		s.clampTagCursor()
		if !first {
			return m, nil, true
		}
		if s.client == nil && !s.starting {
			s.store.Load(s.item.PlaybackRange())
		}
		s.track.Reset(msg.subtitle)
		if s.autoStart {
			return m, m.startPlayer(), true
		}
		return m, nil, true

	case playerStartedMsg:
		if s == nil || msg.gen != s.gen {
			if msg.client != nil {
				go msg.client.Close()
			}
			return m, nil, true
		}
		s.starting = false
		if msg.err != nil {
			m.setError(fmt.Errorf("start player: %w", msg.err))
			return m, nil, true
		}
		s.client = msg.client
		s.store.Attach(msg.client)
		return m, waitPlayer(s.gen, msg.client.Events()), true

	case mpvEventMsg:
		if s == nil || msg.gen != s.gen || s.client == nil {
			return m, nil, true
		}
		cmd := m.applyPlayerEvent(s, msg.event)
		return m, tea.Batch(cmd, waitPlayer(s.gen, s.client.Events())), true

	case mpvClosedMsg:
		if s != nil && msg.gen == s.gen {
			s.store.Detach()
			s.repeat.Stop()
			s.client = nil
			s.store.MediaPlaying(false)
		}
		return m, nil, true

	case playerChangedMsg:
		return m, nil, true

	case navigateMsg:
		if s == nil || msg.gen != s.gen {
			return m, nil, true
		}
		next, cmd := m.openItem(msg.id)
		nm := next.(Model)
		nm.session.autoStart = true
		return nm, tea.Batch(cmd, nm.startPlayer()), true
	}
	return m, nil, false
}

func waitPlayer(gen int, events <-chan mpv.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return mpvClosedMsg{gen: gen}
		}
		return mpvEventMsg{gen: gen, event: ev}
	}
}

// applyPlayerEvent feeds a media event into the player store and keeps the
// caption in sync with the playback position. The returned command carries
// an auto-play-next navigation.
func (m *Model) applyPlayerEvent(s *itemSession, ev mpv.Event) tea.Cmd {
	switch ev.Kind {
	case mpv.EventTimePos:
		s.store.VideoTimeUpdate(ev.Seconds)
		m.updateCaption(s, ev.Seconds)
	case mpv.EventDuration:
		s.store.VideoLoadedMetadata(ev.Seconds)
	case mpv.EventPause:
		s.store.MediaPlaying(!ev.Paused)
		s.store.ShowControls(true)
	case mpv.EventEOF:
		s.store.VideoFinished()
	case mpv.EventEndFile:
		if ev.Reason == "eof" {
			s.store.VideoFinished()
		}
	}
	return s.takeNext()
}

func (m *Model) updateCaption(s *itemSession, seconds float64) {
	text := s.track.TextAt(seconds)
	if text == s.caption {
		return
	}
	s.caption = text
	if s.client != nil && text != "" {
		if err := s.client.ShowText(text, captionOSDLength); err != nil {
			m.logger.Debug("show caption", logging.Error(err))
		}
	}
}

// startPlayer launches mpv for the session item.
func (m Model) startPlayer() tea.Cmd {
	s := m.session
	if s == nil || s.client != nil || s.starting || s.item.URL == "" || m.lib == nil || m.lib.Client() == nil {
		return nil
	}
	s.starting = true
	start, _ := s.item.PlaybackRange()
	opts := mpv.LaunchOptions{
		Binary:     m.cfg.MPVPath,
		SocketPath: m.cfg.MPVSocket,
		URL:        m.lib.Client().FileURL(s.item.URL, 0),
		Title:      s.item.Title,
		Start:      start,
		Volume:     s.store.Snapshot().Volume,
	}
	parent, gen, logger := m.ctx, s.gen, m.logger
	return func() tea.Msg {
		client, err := mpv.Launch(parent, opts, logger)
		return playerStartedMsg{gen: gen, client: client, err: err}
	}
}

// handleItemKey handles a key in the item view. Any key that leaves the
// session open brings the transport controls back.
func (m Model) handleItemKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.session
	if s == nil {
		return m.back()
	}
	next, cmd := m.handleSessionKey(s, msg)
	if nm, ok := next.(Model); ok && nm.session == s {
		s.store.ShowControls(true)
	}
	return next, cmd
}

func (m Model) handleSessionKey(s *itemSession, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	state := s.store.Snapshot()

	if s.showSuggestion || state.ShowSuggestions {
		if next, cmd, ok := m.handleSuggestionKey(msg); ok {
			return next, cmd
		}
	}

	switch {
	case key.Matches(msg, m.keys.Escape):
		return m.back()
	case key.Matches(msg, m.keys.Play):
		if s.client == nil {
			return m, m.startPlayer()
		}
		s.store.TogglePlay()
	case key.Matches(msg, m.keys.TogglePause):
		s.store.TogglePlay()
	case key.Matches(msg, m.keys.SeekBack):
		s.store.OffsetSeek(-seekStep)
	case key.Matches(msg, m.keys.SeekForward):
		s.store.OffsetSeek(seekStep)
	case key.Matches(msg, m.keys.ScanBack):
		s.repeat.Start(-seekStep)
	case key.Matches(msg, m.keys.ScanForward):
		s.repeat.Start(seekStep)
	case key.Matches(msg, m.keys.VolumeUp):
		s.store.AdjustVolume(volumeStep)
	case key.Matches(msg, m.keys.VolumeDown):
		s.store.AdjustVolume(-volumeStep)
	case key.Matches(msg, m.keys.FullScreen):
		s.store.ToggleFullScreen()
	case key.Matches(msg, m.keys.AutoPlay):
		s.store.SetAutoPlayNext(!state.AutoPlayNext)
	case key.Matches(msg, m.keys.Suggestions):
		s.showSuggestion = !s.showSuggestion
		s.suggestCursor = 0
	case key.Matches(msg, m.keys.SubtitleEarly):
		return m, m.adjustSubtitleOffset(-subtitleStepMs)
	case key.Matches(msg, m.keys.SubtitleLate):
		return m, m.adjustSubtitleOffset(subtitleStepMs)
	case key.Matches(msg, m.keys.Up):
		s.tagCursor = clampIndex(s.tagCursor-1, len(s.item.Tags))
	case key.Matches(msg, m.keys.Down):
		s.tagCursor = clampIndex(s.tagCursor+1, len(s.item.Tags))
	case key.Matches(msg, m.keys.AddTag):
		cmd := m.startInput(inputItemTag, "Tag title", "")
		return m, cmd
	case key.Matches(msg, m.keys.Remove):
		return m, m.removeSessionTag()
	case key.Matches(msg, m.keys.Split):
		return m, m.itemAction("Split", func(ctx context.Context, id int64, at float64) error {
			return m.lib.SplitItem(ctx, id, at)
		})
	case key.Matches(msg, m.keys.MainCover):
		return m, m.itemAction("Cover set", func(ctx context.Context, id int64, at float64) error {
			return m.lib.SetMainCover(ctx, id, at)
		})
	case key.Matches(msg, m.keys.Highlight):
		return m, m.markHighlight()
	case key.Matches(msg, m.keys.OpenBrowser):
		return m, m.openInBrowser()
	case key.Matches(msg, m.keys.Rename):
		cmd := m.startInput(inputRenameItem, "New title", s.item.Title)
		return m, cmd
	case key.Matches(msg, m.keys.Crop):
		cmd := m.startInput(inputCrop, "Crop x,y,width,height at "+formatClock(state.CurrentTime), "")
		return m, cmd
	case key.Matches(msg, m.keys.Location):
		return m, m.showLocation()
	}
	return m, nil
}

func (m Model) handleSuggestionKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	s := m.session
	switch {
	case key.Matches(msg, m.keys.Up):
		s.suggestCursor = clampIndex(s.suggestCursor-1, len(s.suggestions))
	case key.Matches(msg, m.keys.Down):
		s.suggestCursor = clampIndex(s.suggestCursor+1, len(s.suggestions))
	case key.Matches(msg, m.keys.Confirm):
		if len(s.suggestions) == 0 {
			return m, nil, true
		}
		next, cmd := m.openItem(s.suggestions[s.suggestCursor].ID)
		return next, cmd, true
	case key.Matches(msg, m.keys.Escape, m.keys.Suggestions):
		s.showSuggestion = false
		s.store.HideSuggestions()
		return m, nil, true
	default:
		return m, nil, false
	}
	return m, nil, true
}

func (m Model) adjustSubtitleOffset(delta int64) tea.Cmd {
	s := m.session
	offset := s.track.AdjustOffset(delta)
	s.caption = s.track.TextAt(s.store.Snapshot().CurrentTime)
	store := m.prefs
	return func() tea.Msg {
		err := store.Update(func(p prefs.Prefs) prefs.Prefs {
			p.Subtitles.OffsetMillis = offset
			return p
		})
		if err != nil {
			return actionDoneMsg{err: fmt.Errorf("save caption offset: %w", err)}
		}
		return actionDoneMsg{label: fmt.Sprintf("Caption offset %+dms", offset)}
	}
}

// itemAction runs fn for the session item at the current playback position.
func (m Model) itemAction(label string, fn func(ctx context.Context, id int64, at float64) error) tea.Cmd {
	s := m.session
	id := s.item.ID
	at := s.store.Snapshot().CurrentTime
	return m.action(func(ctx context.Context) (string, error) {
		if err := fn(ctx, id, at); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s at %s", label, formatClock(at)), nil
	})
}

// markHighlight records the highlight start on the first press and creates
// the highlight on the second.
func (m Model) markHighlight() tea.Cmd {
	s := m.session
	now := s.store.Snapshot().CurrentTime
	if !s.marking {
		s.marking = true
		s.markStart = now
		return func() tea.Msg {
			return actionDoneMsg{label: "Highlight starts at " + formatClock(now) + ", press m again to finish"}
		}
	}
	s.marking = false
	start := s.markStart
	if now <= start {
		return func() tea.Msg {
			return actionDoneMsg{err: errors.New("highlight must end after it starts")}
		}
	}
	id := s.item.ID
	highlightTag := m.specialTags.HighlightsTagID
	lib := m.lib
	return m.action(func(ctx context.Context) (string, error) {
		if err := lib.MakeHighlight(ctx, id, start, now, highlightTag); err != nil {
			return "", err
		}
		return fmt.Sprintf("Highlight %s-%s created", formatClock(start), formatClock(now)), nil
	})
}

// addTagToSessionItem attaches the tag whose title matches value.
func (m Model) addTagToSessionItem(value string) tea.Cmd {
	s := m.session
	if s == nil || value == "" {
		return nil
	}
	tag, ok := m.tagByTitle(value)
	if !ok {
		return statusError(fmt.Errorf("no tag named %q", value))
	}
	id := s.item.ID
	lib := m.lib
	return m.action(func(ctx context.Context) (string, error) {
		if err := lib.AddTagToItem(ctx, id, tag); err != nil {
			return "", err
		}
		return "Tagged " + tag.Title, nil
	})
}

// tagByTitle finds a non-category tag by title, ignoring case.
func (m Model) tagByTitle(title string) (collection.Tag, bool) {
	for _, t := range m.tags {
		if !t.IsCategory() && strings.EqualFold(t.Title, title) {
			return t, true
		}
	}
	return collection.Tag{}, false
}

func (m Model) renameSessionItem(title string) tea.Cmd {
	s := m.session
	if s == nil || title == "" || title == s.item.Title {
		return nil
	}
	item := s.item
	item.Title = title
	s.item.Title = title
	lib := m.lib
	return m.action(func(ctx context.Context) (string, error) {
		if err := lib.UpdateItem(ctx, item); err != nil {
			return "", err
		}
		return "Renamed to " + title, nil
	})
}

// cropSessionFrame crops the frame at the current position to the
// "x,y,width,height" rectangle in value.
func (m Model) cropSessionFrame(value string) tea.Cmd {
	s := m.session
	if s == nil || value == "" {
		return nil
	}
	rect, err := parseRect(value)
	if err != nil {
		return statusError(err)
	}
	lib := m.lib
	return m.itemAction("Cropped frame", func(ctx context.Context, id int64, at float64) error {
		return lib.CropFrame(ctx, id, at, rect)
	})
}

func parseRect(value string) (collection.Rect, error) {
	fields := strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == ' ' || r == 'x' })
	if len(fields) != 4 {
		return collection.Rect{}, fmt.Errorf("crop %q: want x,y,width,height", value)
	}
	var v [4]int
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return collection.Rect{}, fmt.Errorf("crop %q: %q is not a pixel count", value, f)
		}
		v[i] = n
	}
	rect := collection.Rect{X: v[0], Y: v[1], Width: v[2], Height: v[3]}
	if rect.Empty() {
		return collection.Rect{}, fmt.Errorf("crop %q: empty rectangle", value)
	}
	return rect, nil
}

// showLocation reports the item's path on the server.
func (m Model) showLocation() tea.Cmd {
	s := m.session
	if s == nil {
		return nil
	}
	id := s.item.ID
	lib := m.lib
	return m.action(func(ctx context.Context) (string, error) {
		return lib.ItemLocation(ctx, id)
	})
}

func (m Model) removeSessionTag() tea.Cmd {
	s := m.session
	if s == nil || len(s.item.Tags) == 0 {
		return nil
	}
	tag := s.item.Tags[s.tagCursor]
	id := s.item.ID
	lib := m.lib
	return m.action(func(ctx context.Context) (string, error) {
		if err := lib.RemoveTagFromItem(ctx, id, tag.ID); err != nil {
			return "", err
		}
		return "Removed tag " + tag.Title, nil
	})
}

func (m Model) openInBrowser() tea.Cmd {
	s := m.session
	if s == nil || s.item.URL == "" || m.lib.Client() == nil {
		return nil
	}
	url := m.lib.Client().FileURL(s.item.URL, 0)
	return func() tea.Msg {
		if err := browser.OpenURL(url); err != nil {
			return actionDoneMsg{err: fmt.Errorf("open browser: %w", err)}
		}
		return actionDoneMsg{label: "Opened in browser"}
	}
}

func (m Model) renderItem(height int) string {
	styles := m.theme.Styles()
	s := m.session
	if s == nil {
		return ""
	}
	if !s.loaded {
		if s.err != nil {
			return styles.DangerText.Render("Item unavailable: " + truncate(s.err.Error(), m.width-20))
		}
		if s.item.Title == "" {
			return styles.MutedText.Render("Loading item...")
		}
	}

	item := s.item
	state := s.store.Snapshot()
	var b strings.Builder

	b.WriteString(styles.Text.Bold(true).Render(truncate(item.Title, m.width-2)))
	b.WriteString("\n")
	b.WriteString(m.renderItemMeta(item))
	b.WriteString("\n\n")
	b.WriteString(m.renderTransport(s, state))
	b.WriteString("\n")
	b.WriteString(m.renderCaption(s))
	b.WriteString("\n\n")

	if s.showSuggestion || state.ShowSuggestions {
		b.WriteString(m.renderSuggestions(s, height-8))
		return b.String()
	}

	left := m.renderItemTags(s, height-8)
	right := m.renderRelated(item, height-8)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(m.width/2).Render(left),
		right,
	))
	return b.String()
}

func (m Model) renderItemMeta(item collection.Item) string {
	styles := m.theme.Styles()
	var parts []string
	if d := item.Duration(); d > 0 {
		parts = append(parts, formatClock(d.Seconds()))
	}
	if item.Width > 0 && item.Height > 0 {
		parts = append(parts, fmt.Sprintf("%dx%d", item.Width, item.Height))
	}
	if codec := strings.TrimSpace(item.VideoCodecName + " " + item.AudioCodecName); codec != "" {
		parts = append(parts, codec)
	}
	if size := formatBytes(item.FileSize); size != "" {
		parts = append(parts, size)
	}
	if item.LastModified > 0 {
		parts = append(parts, "modified "+relativeTime(item.LastModified))
	}
	if item.Origin != "" {
		parts = append(parts, truncateMiddle(item.Origin, 40))
	}
	return styles.MutedText.Render(strings.Join(parts, "  •  "))
}

func (m Model) renderTransport(s *itemSession, state player.State) string {
	styles := m.theme.Styles()

	status := styles.MutedText.Render("■ stopped (p to play)")
	switch {
	case s.starting:
		status = styles.WarningText.Render("… starting player")
	case s.client != nil && state.Playing:
		status = styles.SuccessText.Render("▶ playing")
	case s.client != nil:
		status = styles.WarningText.Render("❚❚ paused")
	}

	elapsed := state.CurrentTime - state.StartTime
	total := state.Duration
	if !state.ControlsVisible {
		return styles.FaintText.Render(fmt.Sprintf("%s / %s", formatClock(elapsed), formatClock(total)))
	}

	barWidth := m.width - 60
	if barWidth < 10 {
		barWidth = 10
	}
	filled := 0
	if total > 0 {
		filled = int(float64(barWidth) * elapsed / total)
	}
	filled = max(0, min(filled, barWidth))
	bar := styles.AccentText.Render(strings.Repeat("━", filled)) +
		styles.FaintText.Render(strings.Repeat("─", barWidth-filled))

	extras := []string{
		fmt.Sprintf("vol %d%%", int(state.Volume*100+0.5)),
	}
	if state.AutoPlayNext {
		extras = append(extras, "auto-next")
	}
	if state.FullScreen {
		extras = append(extras, "fullscreen")
	}
	if s.repeat.Active() {
		extras = append(extras, "scanning")
	}
	if s.marking {
		extras = append(extras, "highlight from "+formatClock(s.markStart))
	}

	return fmt.Sprintf("%s  %s %s %s  %s",
		status,
		styles.Text.Render(formatClock(elapsed)),
		bar,
		styles.MutedText.Render(formatClock(total)),
		styles.MutedText.Render(strings.Join(extras, "  ")),
	)
}

func (m Model) renderCaption(s *itemSession) string {
	styles := m.theme.Styles()
	if s.track.Len() == 0 {
		return styles.FaintText.Render("no captions")
	}
	if s.caption == "" {
		return styles.FaintText.Render(fmt.Sprintf("captions %+dms", s.track.Offset()))
	}
	appearance := m.prefs.Get().Subtitles.Appearance.Normalize()
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(appearance.Color)).
		Bold(appearance.Bold)
	if appearance.Background != "" {
		style = style.Background(lipgloss.Color(appearance.Background))
	}
	text := strings.ReplaceAll(s.caption, "\n", " ")
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Center, style.Render(truncate(text, m.width-4)))
}

func (m Model) renderItemTags(s *itemSession, rows int) string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render("Tags"))
	b.WriteString("\n")
	if len(s.item.Tags) == 0 {
		b.WriteString(styles.MutedText.Render("none (t to add)"))
		return b.String()
	}
	start, end := visibleWindow(s.tagCursor, len(s.item.Tags), rows-1)
	for i := start; i < end; i++ {
		label := truncate(m.tagLabel(s.item.Tags[i]), m.width/2-4)
		if i == s.tagCursor {
			b.WriteString(styles.Selected.Render(" " + label + " "))
		} else {
			b.WriteString(styles.Text.Render(" " + label))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// tagLabel renders a tag as "Category / Title" when its parent is known.
func (m Model) tagLabel(tag collection.Tag) string {
	parent := tag.Parent()
	if parent == 0 {
		return tag.Label()
	}
	for _, t := range m.tags {
		if t.ID == parent {
			return t.Label() + " / " + tag.Label()
		}
	}
	return tag.Label()
}

func (m Model) renderRelated(item collection.Item, rows int) string {
	styles := m.theme.Styles()
	var lines []string
	add := func(title string, items []collection.Item) {
		if len(items) == 0 {
			return
		}
		lines = append(lines, styles.AccentText.Bold(true).Render(title))
		for _, it := range items {
			start, end := it.PlaybackRange()
			lines = append(lines, styles.Text.Render(fmt.Sprintf(" %s  %s-%s",
				truncate(it.Title, m.width/2-20), formatClock(start), formatClock(end))))
		}
	}
	add("Parts", item.SubItems)
	add("Highlights", item.Highlights)
	if len(lines) > rows {
		lines = lines[:max(rows, 0)]
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderSuggestions(s *itemSession, rows int) string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render("Up next"))
	b.WriteString("\n")
	if len(s.suggestions) == 0 {
		b.WriteString(styles.MutedText.Render("No suggestions"))
		return b.String()
	}
	start, end := visibleWindow(s.suggestCursor, len(s.suggestions), rows-1)
	for i := start; i < end; i++ {
		b.WriteString(m.renderItemRow(s.suggestions[i], i == s.suggestCursor))
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
