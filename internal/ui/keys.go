package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Tab        key.Binding
	ShiftTab   key.Binding
	Escape     key.Binding
	Refresh    key.Binding

	// View switching
	ViewGallery     key.Binding
	ViewTags        key.Binding
	ViewDirectories key.Binding
	ViewTasks       key.Binding
	ViewLogs        key.Binding

	// Navigation
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Top      key.Binding
	Bottom   key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Confirm  key.Binding

	// Listing
	Search          key.Binding
	CycleSort       key.Binding
	ToggleCondition key.Binding
	ToggleChip      key.Binding
	RemoveChip      key.Binding
	ClearChips      key.Binding
	CycleAnnotation key.Binding
	CycleImageType  key.Binding
	New             key.Binding
	Remove          key.Binding
	Rename          key.Binding
	Annotate        key.Binding
	DropAnnotation  key.Binding
	UploadImage     key.Binding
	RemoveImage     key.Binding
	Untag           key.Binding

	// Player
	Play          key.Binding
	TogglePause   key.Binding
	SeekBack      key.Binding
	SeekForward   key.Binding
	ScanBack      key.Binding
	ScanForward   key.Binding
	VolumeUp      key.Binding
	VolumeDown    key.Binding
	FullScreen    key.Binding
	AutoPlay      key.Binding
	Suggestions   key.Binding
	SubtitleEarly key.Binding
	SubtitleLate  key.Binding
	Split         key.Binding
	MainCover     key.Binding
	Highlight     key.Binding
	AddTag        key.Binding
	OpenBrowser   key.Binding
	Crop          key.Binding
	Location      key.Binding

	// Tasks
	PrevPage      key.Binding
	NextPage      key.Binding
	PauseQueue    key.Binding
	ClearFinished key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "e"),
			key.WithHelp("e", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Cycle views"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Cycle views (reverse)"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Back"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "Refresh"),
		),

		ViewGallery:     key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "Gallery")),
		ViewTags:        key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "Tags")),
		ViewDirectories: key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "Directories")),
		ViewTasks:       key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "Tasks")),
		ViewLogs:        key.NewBinding(key.WithKeys("5"), key.WithHelp("5", "Logs")),

		Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "Up")),
		Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "Down")),
		Left:     key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "Left")),
		Right:    key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "Right")),
		Top:      key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "Top")),
		Bottom:   key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "Bottom")),
		PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("ctrl+u", "Page up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("ctrl+d", "Page down")),
		Confirm:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "Open")),

		Search:          key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "Search")),
		CycleSort:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "Sort")),
		ToggleCondition: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "AND/OR")),
		ToggleChip:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "Toggle tag")),
		RemoveChip:      key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "Remove")),
		ClearChips:      key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "Clear tags")),
		CycleAnnotation: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "Annotation filter")),
		CycleImageType:  key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "Image type")),
		New:             key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "New")),
		Remove:          key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "Remove")),
		Rename:          key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "Rename")),
		Annotate:        key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "Add annotation")),
		DropAnnotation:  key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "Drop last annotation")),
		UploadImage:     key.NewBinding(key.WithKeys("U"), key.WithHelp("U", "Upload image")),
		RemoveImage:     key.NewBinding(key.WithKeys("I"), key.WithHelp("I", "Remove image")),
		Untag:           key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "Untag")),

		Play:          key.NewBinding(key.WithKeys("p", "enter"), key.WithHelp("p", "Play")),
		TogglePause:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "Play/pause")),
		SeekBack:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "-5s")),
		SeekForward:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "+5s")),
		ScanBack:      key.NewBinding(key.WithKeys("<"), key.WithHelp("<", "Scan back")),
		ScanForward:   key.NewBinding(key.WithKeys(">"), key.WithHelp(">", "Scan forward")),
		VolumeUp:      key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "Volume up")),
		VolumeDown:    key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "Volume down")),
		FullScreen:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "Fullscreen")),
		AutoPlay:      key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "Auto-play next")),
		Suggestions:   key.NewBinding(key.WithKeys("N"), key.WithHelp("N", "Suggestions")),
		SubtitleEarly: key.NewBinding(key.WithKeys("{"), key.WithHelp("{", "Captions earlier")),
		SubtitleLate:  key.NewBinding(key.WithKeys("}"), key.WithHelp("}", "Captions later")),
		Split:         key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "Split here")),
		MainCover:     key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "Cover from frame")),
		Highlight:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "Mark highlight")),
		AddTag:        key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "Add tag")),
		OpenBrowser:   key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "Open in browser")),
		Crop:          key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "Crop frame")),
		Location:      key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "Server path")),

		PrevPage:      key.NewBinding(key.WithKeys("["), key.WithHelp("[", "Prev page")),
		NextPage:      key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "Next page")),
		PauseQueue:    key.NewBinding(key.WithKeys("P"), key.WithHelp("P", "Pause/continue")),
		ClearFinished: key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "Clear finished")),
	}
}
