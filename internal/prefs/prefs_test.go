package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePrefs(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	p, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, defaultTheme, p.Theme)
}

func TestLoad_ReadsExistingFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	writePrefs(t, filepath.Join(home, ".config", "mycollection", "prefs.toml"), "theme = \"Slate\"\n")

	p, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "Slate", p.Theme)
}

func TestLoad_ExplicitPath(t *testing.T) {
	prefsFile := filepath.Join(t.TempDir(), "custom.toml")
	writePrefs(t, prefsFile, "theme = \"Slate\"\n")

	p, err := Load(prefsFile)
	require.NoError(t, err)
	assert.Equal(t, "Slate", p.Theme)
}

func TestSave_CreatesFileAndDirs(t *testing.T) {
	prefsFile := filepath.Join(t.TempDir(), "subdir", "prefs.toml")

	require.NoError(t, Save(prefsFile, Prefs{Theme: "Slate"}))

	loaded, err := Load(prefsFile)
	require.NoError(t, err)
	assert.Equal(t, "Slate", loaded.Theme)
}

func TestLoad_FallsBackToDefaultTheme(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "empty theme", content: "theme = \"\"\n"},
		{name: "invalid toml", content: "not valid toml {{{\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			prefsFile := filepath.Join(t.TempDir(), "prefs.toml")
			writePrefs(t, prefsFile, tc.content)

			p, err := Load(prefsFile)
			require.NoError(t, err)
			assert.Equal(t, defaultTheme, p.Theme)
		})
	}
}

func TestLoad_ReadsNestedSections(t *testing.T) {
	prefsFile := filepath.Join(t.TempDir(), "prefs.toml")
	writePrefs(t, prefsFile, `theme = "Slate"
last_tag_image_type = 3

[player]
volume = 0.25
auto_play_next = true

[subtitles]
offset_ms = -500

[subtitles.appearance]
color = "#FFFF00"
bold = true

[views.gallery]
sort = "title-desc"
condition = "and"
`)

	p, err := Load(prefsFile)
	require.NoError(t, err)
	assert.Equal(t, 0.25, p.Player.Volume)
	assert.True(t, p.Player.AutoPlayNext)
	assert.Equal(t, int64(-500), p.Subtitles.OffsetMillis)
	assert.Equal(t, "#FFFF00", p.Subtitles.Appearance.Color)
	assert.True(t, p.Subtitles.Appearance.Bold)
	assert.EqualValues(t, 3, p.LastTagImageType)

	v := p.View("gallery")
	assert.Equal(t, "title-desc", v.Sort)
	assert.Equal(t, "and", v.Condition)
}

func TestLoad_OutOfRangeVolumeUsesDefault(t *testing.T) {
	prefsFile := filepath.Join(t.TempDir(), "prefs.toml")
	writePrefs(t, prefsFile, "[player]\nvolume = 7.0\n")

	p, err := Load(prefsFile)
	require.NoError(t, err)
	assert.Equal(t, defaultVolume, p.Player.Volume)
	assert.Equal(t, "#FFFFFF", p.Subtitles.Appearance.Color)
}

func TestWithView_DoesNotShareMap(t *testing.T) {
	base := Defaults().WithView("tags", View{Sort: "id"})
	next := base.WithView("tags", View{Sort: "random"})
	assert.Equal(t, "id", base.View("tags").Sort, "base view mutated")
	assert.Equal(t, "random", next.View("tags").Sort)
}

func TestStore_SavePlayerRoundTrip(t *testing.T) {
	prefsFile := filepath.Join(t.TempDir(), "prefs.toml")
	store := Open(prefsFile)

	require.NoError(t, store.SavePlayer(0.4, true))
	require.NoError(t, store.Update(func(p Prefs) Prefs {
		p.Theme = "Nord"
		return p
	}))

	reopened := Open(prefsFile).Get()
	assert.Equal(t, 0.4, reopened.Player.Volume)
	assert.True(t, reopened.Player.AutoPlayNext)
	assert.Equal(t, "Nord", reopened.Theme)
	assert.FileExists(t, prefsFile+".lock")
}
