package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dvdlevanon/my-collection-sub000/internal/cache"
	"github.com/dvdlevanon/my-collection-sub000/internal/collection"
	"github.com/dvdlevanon/my-collection-sub000/internal/config"
	"github.com/dvdlevanon/my-collection-sub000/internal/library"
	"github.com/dvdlevanon/my-collection-sub000/internal/logging"
	"github.com/dvdlevanon/my-collection-sub000/internal/player"
	"github.com/dvdlevanon/my-collection-sub000/internal/prefs"
)

const (
	fetchTimeout   = 10 * time.Second
	actionTimeout  = 15 * time.Second
	tickInterval   = time.Second
	statusLifetime = 6 * time.Second
	eventBuffer    = 32
	logTailLines   = 500
)

// View identifies a screen.
type View int

const (
	ViewGallery View = iota
	ViewTags
	ViewDirectories
	ViewTasks
	ViewLogs
	ViewItem
)

var viewOrder = []View{ViewGallery, ViewTags, ViewDirectories, ViewTasks, ViewLogs}

func (v View) String() string {
	switch v {
	case ViewGallery:
		return "Gallery"
	case ViewTags:
		return "Tags"
	case ViewDirectories:
		return "Directories"
	case ViewTasks:
		return "Tasks"
	case ViewLogs:
		return "Logs"
	case ViewItem:
		return "Item"
	default:
		return "Unknown"
	}
}

// inputMode names what the shared text input is collecting.
type inputMode int

const (
	inputNone inputMode = iota
	inputGallerySearch
	inputTagSearch
	inputNewTag
	inputItemTag
	inputDirectory
	inputRenameTag
	inputAnnotation
	inputTagImage
	inputDirectoryTag
	inputDirectoryUntag
	inputRenameItem
	inputCrop
)

// Options configures the terminal UI.
type Options struct {
	Context context.Context
	Library *library.Service
	Prefs   *prefs.Store
	Config  config.Config
	Logger  *slog.Logger
	// Clock drives player timers; nil means the wall clock.
	Clock player.Clock
}

// Model is the root Bubble Tea model.
type Model struct {
	ctx    context.Context
	lib    *library.Service
	prefs  *prefs.Store
	cfg    config.Config
	logger *slog.Logger
	clock  player.Clock
	keys   keyMap
	theme  Theme

	width  int
	height int

	currentView  View
	previousView View
	showHelp     bool

	// events carries messages produced outside the Update loop, such as
	// player callbacks fired from timer goroutines.
	events       chan tea.Msg
	cacheUpdates <-chan string
	unsubscribe  func()

	input     textinput.Model
	inputMode inputMode

	status    string
	statusErr bool
	statusAt  time.Time
	now       time.Time

	tags           []collection.Tag
	tagsErr        error
	items          []collection.Item
	itemsErr       error
	directories    []collection.Directory
	directoriesErr error
	queue          collection.QueueMetadata
	queueErr       error
	taskPage       collection.TaskPage
	tasksErr       error
	specialTags    collection.SpecialTags
	imageTypes     []collection.TagImageType
	lastUpdated    time.Time

	gallery  galleryState
	tagsView tagsState
	dirs     directoriesState
	tasks    tasksState
	logs     logsState
	session  *itemSession
	nextGen  int
}

// Messages

type tagsLoadedMsg struct {
	tags []collection.Tag
	err  error
}

type itemsLoadedMsg struct {
	items []collection.Item
	err   error
}

type directoriesLoadedMsg struct {
	dirs []collection.Directory
	err  error
}

type queueLoadedMsg struct {
	meta collection.QueueMetadata
	err  error
}

type tasksLoadedMsg struct {
	page collection.TaskPage
	err  error
}

type metaLoadedMsg struct {
	special    collection.SpecialTags
	imageTypes []collection.TagImageType
	err        error
}

type actionDoneMsg struct {
	label string
	err   error
}

type cacheChangedMsg struct{ key string }

type cacheClosedMsg struct{}

type asyncMsg struct{ msg tea.Msg }

type tickMsg time.Time

// New builds the root model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	store := opts.Prefs
	if store == nil {
		store = prefs.Open(prefs.DefaultPath())
	}
	p := store.Get()

	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 256

	m := Model{
		ctx:         ctx,
		lib:         opts.Library,
		prefs:       store,
		cfg:         opts.Config,
		logger:      logging.NewComponentLogger(logger, "ui"),
		clock:       opts.Clock,
		keys:        DefaultKeyMap(),
		theme:       GetTheme(p.Theme),
		currentView: ViewGallery,
		events:      make(chan tea.Msg, eventBuffer),
		input:       input,
		now:         time.Now(),
		gallery:     newGalleryState(p.View(galleryPrefsKey)),
		tagsView:    newTagsState(p.View(tagsPrefsKey), p.LastTagImageType),
		tasks:       tasksState{page: 1},
		logs:        logsState{viewport: viewport.New(0, 0), follow: true},
	}
	if m.lib != nil && m.lib.Cache() != nil {
		m.cacheUpdates, m.unsubscribe = m.lib.Cache().Subscribe()
	}
	return m
}

// Run starts the terminal UI and blocks until it exits or ctx is cancelled.
func Run(opts Options) error {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	m := New(opts)
	defer m.close()

	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(opts.Context))
	final, err := program.Run()
	if fm, ok := final.(Model); ok {
		if cmd := fm.closeSession(); cmd != nil {
			cmd()
		}
	}
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && opts.Context.Err() != nil {
			return nil
		}
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

func (m Model) close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadTags(),
		m.loadItems(),
		m.loadQueue(),
		m.loadMeta(),
		m.waitEvent(),
		m.waitCache(),
		tick(),
	)
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// waitEvent delivers the next message posted to the events channel.
func (m Model) waitEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		return asyncMsg{msg: <-events}
	}
}

// post queues msg for the Update loop without blocking the caller. A full
// queue drops msg, so only redraw hints go through here.
func post(events chan<- tea.Msg, msg tea.Msg) {
	select {
	case events <- msg:
	default:
	}
}

func (m Model) waitCache() tea.Cmd {
	updates := m.cacheUpdates
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		key, ok := <-updates
		if !ok {
			return cacheClosedMsg{}
		}
		return cacheChangedMsg{key: key}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeLogs()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		m.now = time.Time(msg)
		if m.status != "" && m.now.Sub(m.statusAt) > statusLifetime {
			m.status = ""
		}
		cmds := []tea.Cmd{tick()}
		if m.currentView == ViewLogs && m.logs.follow {
			cmds = append(cmds, m.loadLogs())
		}
		return m, tea.Batch(cmds...)

	case asyncMsg:
		next, cmd := m.Update(msg.msg)
		return next, tea.Batch(cmd, m.waitEvent())

	case cacheChangedMsg:
		cmd := m.handleCacheChange(msg.key)
		return m, tea.Batch(cmd, m.waitCache())

	case cacheClosedMsg:
		return m, nil

	case tagsLoadedMsg:
		m.tagsErr = msg.err
		if msg.tags != nil || msg.err == nil {
			m.tags = msg.tags
			m.lastUpdated = time.Now()
		}
		m.clampCursors()
		return m, nil

	case itemsLoadedMsg:
		m.itemsErr = msg.err
		if msg.items != nil || msg.err == nil {
			m.items = msg.items
			m.lastUpdated = time.Now()
		}
		m.clampCursors()
		return m, nil

	case directoriesLoadedMsg:
		m.directoriesErr = msg.err
		if msg.dirs != nil || msg.err == nil {
			m.directories = msg.dirs
		}
		m.clampCursors()
		return m, nil

	case queueLoadedMsg:
		m.queueErr = msg.err
		if msg.err == nil {
			m.queue = msg.meta
		}
		return m, nil

	case tasksLoadedMsg:
		m.tasksErr = msg.err
		if msg.err == nil {
			m.taskPage = msg.page
		}
		m.clampCursors()
		return m, nil

	case metaLoadedMsg:
		if msg.err == nil {
			m.specialTags = msg.special
			m.imageTypes = msg.imageTypes
		}
		return m, nil

	case logsLoadedMsg:
		m.applyLogs(msg)
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			m.setError(msg.err)
		} else if msg.label != "" {
			m.setStatus(msg.label)
		}
		return m, m.reloadVisible()
	}

	if next, cmd, ok := m.updateSession(msg); ok {
		return next, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.inputMode != inputNone {
		return m.handleInputKey(msg)
	}

	if m.showHelp {
		switch {
		case key.Matches(msg, m.keys.Help), key.Matches(msg, m.keys.Escape):
			m.showHelp = false
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		}
		return m, nil
	}

	// Holding < or > arrives as repeated key presses; any other key ends the
	// scan.
	if m.session != nil && m.session.repeat != nil && !key.Matches(msg, m.keys.ScanBack, m.keys.ScanForward) {
		m.session.repeat.Stop()
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		return m, m.saveTheme(m.theme.Name)
	case key.Matches(msg, m.keys.Refresh):
		m.lib.Refresh()
		m.setStatus("Refreshing")
		return m, m.reloadAll()
	case key.Matches(msg, m.keys.ViewGallery):
		return m.switchView(ViewGallery)
	case key.Matches(msg, m.keys.ViewTags):
		return m.switchView(ViewTags)
	case key.Matches(msg, m.keys.ViewDirectories):
		return m.switchView(ViewDirectories)
	case key.Matches(msg, m.keys.ViewTasks):
		return m.switchView(ViewTasks)
	case key.Matches(msg, m.keys.ViewLogs):
		return m.switchView(ViewLogs)
	case key.Matches(msg, m.keys.Tab):
		return m.switchView(m.cycleView(1))
	case key.Matches(msg, m.keys.ShiftTab):
		return m.switchView(m.cycleView(-1))
	}

	switch m.currentView {
	case ViewGallery:
		return m.handleGalleryKey(msg)
	case ViewTags:
		return m.handleTagsKey(msg)
	case ViewDirectories:
		return m.handleDirectoriesKey(msg)
	case ViewTasks:
		return m.handleTasksKey(msg)
	case ViewLogs:
		return m.handleLogsKey(msg)
	case ViewItem:
		return m.handleItemKey(msg)
	}
	return m, nil
}

func (m Model) cycleView(delta int) View {
	current := m.currentView
	if current == ViewItem {
		current = m.previousView
	}
	idx := 0
	for i, v := range viewOrder {
		if v == current {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(viewOrder)) % len(viewOrder)
	return viewOrder[idx]
}

func (m Model) switchView(v View) (tea.Model, tea.Cmd) {
	if m.currentView == v {
		return m, nil
	}
	if m.currentView != ViewItem {
		m.previousView = m.currentView
	}
	m.currentView = v
	switch v {
	case ViewDirectories:
		return m, m.loadDirectories()
	case ViewTasks:
		return m, tea.Batch(m.loadQueue(), m.loadTasks(m.tasks.page))
	case ViewLogs:
		m.resizeLogs()
		return m, m.loadLogs()
	}
	return m, nil
}

// back leaves the current view for the previous one.
func (m Model) back() (tea.Model, tea.Cmd) {
	target := m.previousView
	if target == ViewItem || target == m.currentView {
		target = ViewGallery
	}
	var cmd tea.Cmd
	if m.currentView == ViewItem {
		cmd = m.closeSession()
		m.session = nil
	}
	m.currentView = target
	return m, cmd
}

func (m Model) saveTheme(name string) tea.Cmd {
	store := m.prefs
	return func() tea.Msg {
		err := store.Update(func(p prefs.Prefs) prefs.Prefs {
			p.Theme = name
			return p
		})
		if err != nil {
			return actionDoneMsg{err: fmt.Errorf("save theme: %w", err)}
		}
		return actionDoneMsg{label: "Theme " + name}
	}
}

// Status line

func (m *Model) setStatus(text string) {
	m.status = text
	m.statusErr = false
	m.statusAt = time.Now()
}

func (m *Model) setError(err error) {
	m.status = err.Error()
	m.statusErr = true
	m.statusAt = time.Now()
	m.logger.Warn("ui action failed", logging.Error(err))
}

// Text input

func (m *Model) startInput(mode inputMode, placeholder, value string) tea.Cmd {
	m.inputMode = mode
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *Model) stopInput() {
	m.inputMode = inputNone
	m.input.Blur()
	m.input.SetValue("")
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		mode := m.inputMode
		m.stopInput()
		// Escaping a search clears it.
		switch mode {
		case inputGallerySearch:
			m.gallery.search = ""
			m.clampCursors()
		case inputTagSearch:
			m.tagsView.search = ""
			m.clampCursors()
		}
		return m, nil
	case tea.KeyEnter:
		mode := m.inputMode
		value := strings.TrimSpace(m.input.Value())
		m.stopInput()
		return m.submitInput(mode, value)
	case tea.KeyCtrlC:
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	switch m.inputMode {
	case inputGallerySearch:
		m.gallery.search = m.input.Value()
		m.gallery.cursor = 0
	case inputTagSearch:
		m.tagsView.search = m.input.Value()
		m.tagsView.tagCursor = 0
	}
	return m, cmd
}

func (m Model) submitInput(mode inputMode, value string) (tea.Model, tea.Cmd) {
	switch mode {
	case inputGallerySearch:
		m.gallery.search = value
		m.clampCursors()
	case inputTagSearch:
		m.tagsView.search = value
		m.clampCursors()
	case inputNewTag:
		return m, m.createTag(value)
	case inputItemTag:
		return m, m.addTagToSessionItem(value)
	case inputDirectory:
		return m, m.addDirectory(value)
	case inputRenameTag:
		return m, m.renameTag(value)
	case inputAnnotation:
		return m, m.annotateTag(value)
	case inputTagImage:
		return m, m.uploadTagImage(value)
	case inputDirectoryTag:
		return m, m.tagDirectory(value)
	case inputDirectoryUntag:
		return m, m.untagDirectory(value)
	case inputRenameItem:
		return m, m.renameSessionItem(value)
	case inputCrop:
		return m, m.cropSessionFrame(value)
	}
	return m, nil
}

// Data loading

// fetch runs fn with a bounded context derived from the program context.
func (m Model) fetch(fn func(ctx context.Context) tea.Msg) tea.Cmd {
	parent := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, fetchTimeout)
		defer cancel()
		return fn(ctx)
	}
}

func (m Model) loadTags() tea.Cmd {
	lib := m.lib
	return m.fetch(func(ctx context.Context) tea.Msg {
		tags, err := lib.Tags(ctx)
		return tagsLoadedMsg{tags: tags, err: err}
	})
}

func (m Model) loadItems() tea.Cmd {
	lib := m.lib
	return m.fetch(func(ctx context.Context) tea.Msg {
		items, err := lib.Items(ctx)
		return itemsLoadedMsg{items: items, err: err}
	})
}

func (m Model) loadDirectories() tea.Cmd {
	lib := m.lib
	return m.fetch(func(ctx context.Context) tea.Msg {
		dirs, err := lib.Directories(ctx)
		return directoriesLoadedMsg{dirs: dirs, err: err}
	})
}

func (m Model) loadQueue() tea.Cmd {
	lib := m.lib
	return m.fetch(func(ctx context.Context) tea.Msg {
		meta, err := lib.QueueMetadata(ctx)
		return queueLoadedMsg{meta: meta, err: err}
	})
}

func (m Model) loadTasks(page int) tea.Cmd {
	lib := m.lib
	return m.fetch(func(ctx context.Context) tea.Msg {
		p, err := lib.Tasks(ctx, page)
		return tasksLoadedMsg{page: p, err: err}
	})
}

func (m Model) loadMeta() tea.Cmd {
	lib := m.lib
	return m.fetch(func(ctx context.Context) tea.Msg {
		special, err := lib.SpecialTags(ctx)
		if err != nil {
			return metaLoadedMsg{err: err}
		}
		types, err := lib.TagImageTypes(ctx)
		return metaLoadedMsg{special: special, imageTypes: types, err: err}
	})
}

func (m Model) reloadAll() tea.Cmd {
	cmds := []tea.Cmd{m.loadTags(), m.loadItems(), m.loadQueue(), m.loadMeta()}
	if m.currentView == ViewDirectories {
		cmds = append(cmds, m.loadDirectories())
	}
	if m.currentView == ViewTasks {
		cmds = append(cmds, m.loadTasks(m.tasks.page))
	}
	if m.session != nil {
		cmds = append(cmds, m.loadSessionItem(m.session))
	}
	return tea.Batch(cmds...)
}

// reloadVisible refetches whatever the current screen shows. Entries that
// were not invalidated come straight from the cache.
func (m Model) reloadVisible() tea.Cmd {
	switch m.currentView {
	case ViewDirectories:
		return m.loadDirectories()
	case ViewTasks:
		return tea.Batch(m.loadQueue(), m.loadTasks(m.tasks.page))
	case ViewItem:
		if m.session != nil {
			return tea.Batch(m.loadSessionItem(m.session), m.loadTags())
		}
	}
	return tea.Batch(m.loadTags(), m.loadItems())
}

// handleCacheChange mirrors a changed cache entry into the model. Entries
// that were invalidated and have not failed since are refetched; anything
// else is read back from the cache without touching the network.
func (m *Model) handleCacheChange(key string) tea.Cmd {
	c := m.lib.Cache()
	entry, ok := c.Snapshot(key)
	refetch := ok && entry.Stale && entry.ConsecutiveFailures == 0

	switch {
	case key == cache.TagsKey:
		if refetch {
			return m.loadTags()
		}
		if tags, ok := cache.Get[[]collection.Tag](c, key); ok {
			m.tags = tags
			m.tagsErr = entry.LastError
			m.clampCursors()
		}
	case key == cache.ItemsKey:
		if refetch {
			return m.loadItems()
		}
		if items, ok := cache.Get[[]collection.Item](c, key); ok {
			m.items = items
			m.itemsErr = entry.LastError
			m.clampCursors()
		}
	case key == cache.DirectoriesKey:
		if refetch && m.currentView == ViewDirectories {
			return m.loadDirectories()
		}
		if dirs, ok := cache.Get[[]collection.Directory](c, key); ok {
			m.directories = dirs
			m.clampCursors()
		}
	case key == cache.QueueMetadataKey:
		if refetch {
			return m.loadQueue()
		}
		if meta, ok := cache.Get[collection.QueueMetadata](c, key); ok {
			m.queue = meta
			m.queueErr = entry.LastError
		}
	case key == cache.TasksKey(m.tasks.page):
		if refetch && m.currentView == ViewTasks {
			return m.loadTasks(m.tasks.page)
		}
		if p, ok := cache.Get[collection.TaskPage](c, key); ok {
			m.taskPage = p
			m.clampCursors()
		}
	case m.session != nil && key == cache.ItemKey(m.session.item.ID):
		if refetch {
			return m.loadSessionItem(m.session)
		}
		if item, ok := cache.Get[collection.Item](c, key); ok {
			m.session.item = item
			m.session.clampTagCursor()
		}
	}
	return nil
}

// clampCursors keeps every list cursor inside its list after data changes.
func (m *Model) clampCursors() {
	m.gallery.cursor = clampIndex(m.gallery.cursor, len(m.galleryItems()))
	m.gallery.chipCursor = clampIndex(m.gallery.chipCursor, len(m.gallery.selection.SelectedTags(m.tags)))
	cats := m.categories()
	m.tagsView.categoryCursor = clampIndex(m.tagsView.categoryCursor, len(cats))
	m.tagsView.tagCursor = clampIndex(m.tagsView.tagCursor, len(m.visibleTags()))
	m.dirs.cursor = clampIndex(m.dirs.cursor, len(m.directories))
	m.tasks.cursor = clampIndex(m.tasks.cursor, len(m.taskPage.Tasks))
	if m.session != nil {
		m.session.clampTagCursor()
	}
}

func clampIndex(idx, n int) int {
	if n <= 0 || idx < 0 {
		return 0
	}
	if idx >= n {
		return n - 1
	}
	return idx
}

// moveCursor applies navigation keys to a list cursor.
func (m Model) moveCursor(msg tea.KeyMsg, cursor, n int) (int, bool) {
	page := m.listHeight()
	switch {
	case key.Matches(msg, m.keys.Up):
		cursor--
	case key.Matches(msg, m.keys.Down):
		cursor++
	case key.Matches(msg, m.keys.Top):
		cursor = 0
	case key.Matches(msg, m.keys.Bottom):
		cursor = n - 1
	case key.Matches(msg, m.keys.PageUp):
		cursor -= page
	case key.Matches(msg, m.keys.PageDown):
		cursor += page
	default:
		return cursor, false
	}
	return clampIndex(cursor, n), true
}

// listHeight is the number of rows available to a list body.
func (m Model) listHeight() int {
	h := m.height - 6
	if h < 3 {
		return 3
	}
	return h
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	header := m.renderHeader()
	footer := m.renderCommandBar()
	bodyHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if bodyHeight < 1 {
		bodyHeight = 1
	}

	var body string
	switch m.currentView {
	case ViewGallery:
		body = m.renderGallery(bodyHeight)
	case ViewTags:
		body = m.renderTags(bodyHeight)
	case ViewDirectories:
		body = m.renderDirectories(bodyHeight)
	case ViewTasks:
		body = m.renderTasks(bodyHeight)
	case ViewLogs:
		body = m.renderLogs(bodyHeight)
	case ViewItem:
		body = m.renderItem(bodyHeight)
	}
	if m.inputMode != inputNone {
		body = m.withInputLine(body, bodyHeight)
	}

	body = lipgloss.NewStyle().
		Width(m.width).
		Height(bodyHeight).
		MaxHeight(bodyHeight).
		Render(body)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

// withInputLine replaces the last body line with the active text input.
func (m Model) withInputLine(body string, height int) string {
	lines := strings.Split(body, "\n")
	for len(lines) < height {
		lines = append(lines, "")
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	styles := m.theme.Styles()
	lines[len(lines)-1] = styles.AccentText.Render(m.input.View())
	return strings.Join(lines, "\n")
}

// renderTitledBox draws content inside a rounded border with a title.
func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	border := lipgloss.Color(m.theme.Border)
	if focused {
		border = lipgloss.Color(m.theme.BorderFocus)
	}
	styles := m.theme.Styles()
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(max(width-2, 1)).
		Height(max(height-3, 1))
	heading := styles.AccentText.Bold(true).Render(" " + title + " ")
	return lipgloss.JoinVertical(lipgloss.Left, heading, box.Render(content))
}
