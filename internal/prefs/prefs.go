// Package prefs handles user preference persistence.
// Preferences are stored in ~/.config/mycollection/prefs.toml.
package prefs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/dvdlevanon/my-collection-sub000/internal/subtitles"
)

// Prefs holds user preferences.
type Prefs struct {
	Theme            string          `toml:"theme"`
	Player           Player          `toml:"player"`
	Subtitles        Subtitles       `toml:"subtitles"`
	LastTagImageType int64           `toml:"last_tag_image_type,omitempty"`
	Views            map[string]View `toml:"views,omitempty"`
}

// Player holds playback preferences.
type Player struct {
	Volume       float64 `toml:"volume"`
	AutoPlayNext bool    `toml:"auto_play_next"`
}

// Subtitles holds caption preferences.
type Subtitles struct {
	Appearance subtitles.Appearance `toml:"appearance"`
	// OffsetMillis is the last caption offset used.
	OffsetMillis int64 `toml:"offset_ms,omitempty"`
}

// View holds per-view listing settings.
type View struct {
	Sort        string   `toml:"sort,omitempty"`
	Condition   string   `toml:"condition,omitempty"`
	Annotations []string `toml:"annotations,omitempty"`
}

const (
	defaultPrefsPath = "~/.config/mycollection/prefs.toml"
	defaultTheme     = "Dracula"
	defaultVolume    = 1.0
	lockTimeout      = 2 * time.Second
	lockRetry        = 25 * time.Millisecond
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Defaults returns the preferences used when no file exists.
func Defaults() Prefs {
	return Prefs{
		Theme:     defaultTheme,
		Player:    Player{Volume: defaultVolume},
		Subtitles: Subtitles{Appearance: subtitles.DefaultAppearance()},
	}
}

// View returns the settings stored for name, or zero settings.
func (p Prefs) View(name string) View {
	return p.Views[name]
}

// WithView returns a copy of p with the settings for name replaced.
func (p Prefs) WithView(name string, v View) Prefs {
	views := make(map[string]View, len(p.Views)+1)
	for k, existing := range p.Views {
		views[k] = existing
	}
	views[name] = v
	p.Views = views
	return p
}

func (p Prefs) normalize() Prefs {
	if strings.TrimSpace(p.Theme) == "" {
		p.Theme = defaultTheme
	}
	if p.Player.Volume < 0 || p.Player.Volume > 1 {
		p.Player.Volume = defaultVolume
	}
	p.Subtitles.Appearance = p.Subtitles.Appearance.Normalize()
	return p
}

// Load reads preferences from the given path, falling back to defaults if missing.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Defaults(), nil
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Defaults(), nil
		}
		return Defaults(), nil // Graceful degradation
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Defaults(), nil // Graceful degradation
	}

	prefs := Defaults()
	if err := toml.Unmarshal(bytes, &prefs); err != nil {
		return Defaults(), nil // Graceful degradation
	}
	return prefs.normalize(), nil
}

// Save writes preferences to the given path, creating directories as needed.
// Writers are serialized through a lock file next to the preferences file.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	lock := flock.New(resolved + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()
	locked, err := lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		return fmt.Errorf("acquire prefs lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("acquire prefs lock: timed out")
	}
	defer func() { _ = lock.Unlock() }()

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	tmp := resolved + ".tmp"
	if err := os.WriteFile(tmp, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp, resolved); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write prefs: %w", err)
	}

	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
