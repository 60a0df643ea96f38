package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the client settings read from config.toml.
type Config struct {
	Server       string
	LogDir       string
	LogLevel     string
	LogFormat    string
	MPVPath      string
	MPVSocket    string
	PollInterval time.Duration
}

const (
	defaultConfigPath   = "~/.config/mycollection/config.toml"
	defaultLogDir       = "~/.local/share/mycollection/logs"
	defaultServer       = "127.0.0.1:8080"
	defaultLogLevel     = "info"
	defaultMPVPath      = "mpv"
	defaultSocketName   = "mpv.sock"
	defaultPollInterval = 5 * time.Second
)

// Default returns the configuration used when no file exists.
func Default() Config {
	logDir := mustExpand(defaultLogDir)
	return Config{
		Server:       defaultServer,
		LogDir:       logDir,
		LogLevel:     defaultLogLevel,
		MPVPath:      defaultMPVPath,
		MPVSocket:    filepath.Join(logDir, defaultSocketName),
		PollInterval: defaultPollInterval,
	}
}

// Load locates and parses the config file, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		Server      string `toml:"server"`
		LogDir      string `toml:"log_dir"`
		LogLevel    string `toml:"log_level"`
		LogFormat   string `toml:"log_format"`
		MPVPath     string `toml:"mpv_path"`
		MPVSocket   string `toml:"mpv_socket"`
		PollSeconds int    `toml:"poll_seconds"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg := Config{
		Server:    orDefault(raw.Server, defaultServer),
		LogDir:    mustExpand(orDefault(raw.LogDir, defaultLogDir)),
		LogLevel:  strings.ToLower(orDefault(raw.LogLevel, defaultLogLevel)),
		LogFormat: strings.ToLower(strings.TrimSpace(raw.LogFormat)),
		MPVPath:   orDefault(raw.MPVPath, defaultMPVPath),
	}
	if socket := strings.TrimSpace(raw.MPVSocket); socket != "" {
		cfg.MPVSocket = mustExpand(socket)
	} else {
		cfg.MPVSocket = filepath.Join(cfg.LogDir, defaultSocketName)
	}
	cfg.PollInterval = defaultPollInterval
	if raw.PollSeconds > 0 {
		cfg.PollInterval = time.Duration(raw.PollSeconds) * time.Second
	}
	return cfg, nil
}

// LogPath returns the client's log file.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.LogDir) == "" {
		return mustExpand(defaultLogDir + "/mycollection.log")
	}
	return filepath.Join(c.LogDir, "mycollection.log")
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
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
