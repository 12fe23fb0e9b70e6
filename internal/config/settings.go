package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Theme names for the terminal UI
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Settings keys as stored in settings.json
const (
	KeyDownloadPath  = "download_path"
	KeyFFmpegPath    = "ffmpeg_path"
	KeyTheme         = "theme"
	KeyMaxConcurrent = "max_concurrent"
)

// Default values
const (
	DefaultDownloadPath  = "./downloads"
	DefaultFFmpegPath    = ""
	DefaultTheme         = ThemeLight
	DefaultMaxConcurrent = 1
	MinConcurrent        = 1
	MaxConcurrent        = 10
)

// SettingsFileName is the on-disk name of the settings file.
const SettingsFileName = "settings.json"

// Settings manages application configuration backed by a JSON file. A corrupt
// or unreadable file falls back to defaults instead of failing startup.
type Settings struct {
	v    *viper.Viper
	path string
}

// NewSettings loads settings from dir/settings.json, creating dir if needed.
func NewSettings(dir string) (*Settings, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(dir, SettingsFileName)
	v := newViper(path)

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		// Unparseable file: start over from defaults.
		v = newViper(path)
	}

	return &Settings{v: v, path: path}, nil
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetDefault(KeyDownloadPath, DefaultDownloadPath)
	v.SetDefault(KeyFFmpegPath, DefaultFFmpegPath)
	v.SetDefault(KeyTheme, string(DefaultTheme))
	v.SetDefault(KeyMaxConcurrent, DefaultMaxConcurrent)
	return v
}

// FilePath returns the full path of the settings file.
func (s *Settings) FilePath() string {
	return s.path
}

// GetDownloadPath returns the configured download directory
func (s *Settings) GetDownloadPath() string {
	path := s.v.GetString(KeyDownloadPath)
	if path == "" {
		return DefaultDownloadPath
	}
	return path
}

// SetDownloadPath sets the download directory
func (s *Settings) SetDownloadPath(path string) error {
	if path == "" {
		path = DefaultDownloadPath
	}
	s.v.Set(KeyDownloadPath, path)
	return s.save()
}

// GetFFmpegPath returns the explicitly configured ffmpeg path, empty when
// discovery should be used instead.
func (s *Settings) GetFFmpegPath() string {
	return s.v.GetString(KeyFFmpegPath)
}

// SetFFmpegPath sets the explicit ffmpeg path. Empty reverts to discovery.
func (s *Settings) SetFFmpegPath(path string) error {
	s.v.Set(KeyFFmpegPath, path)
	return s.save()
}

// GetTheme returns the configured UI theme
func (s *Settings) GetTheme() Theme {
	switch Theme(s.v.GetString(KeyTheme)) {
	case ThemeDark:
		return ThemeDark
	default:
		return ThemeLight
	}
}

// SetTheme sets the UI theme
func (s *Settings) SetTheme(theme Theme) error {
	if theme != ThemeLight && theme != ThemeDark {
		return fmt.Errorf("unknown theme %q (valid: %s, %s)", theme, ThemeLight, ThemeDark)
	}
	s.v.Set(KeyTheme, string(theme))
	return s.save()
}

// GetMaxConcurrent returns the maximum number of parallel downloads
func (s *Settings) GetMaxConcurrent() int {
	value := s.v.GetInt(KeyMaxConcurrent)
	if value < MinConcurrent {
		return DefaultMaxConcurrent
	}
	if value > MaxConcurrent {
		return MaxConcurrent
	}
	return value
}

// SetMaxConcurrent sets the maximum number of parallel downloads
func (s *Settings) SetMaxConcurrent(count int) error {
	if count < MinConcurrent {
		count = MinConcurrent
	}
	if count > MaxConcurrent {
		count = MaxConcurrent
	}
	s.v.Set(KeyMaxConcurrent, count)
	return s.save()
}

// save writes the complete settings set to disk.
func (s *Settings) save() error {
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}
