// Package config loads and saves the livepane user configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Gaurav-Gosain/livepane/internal/window"
	"github.com/Gaurav-Gosain/livepane/internal/workspace"
	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"
)

// AppName is used for the XDG config and state directories.
const AppName = "livepane"

// NormalFPS caps the terminal UI frame rate.
const NormalFPS = 60

// Config is the on-disk configuration.
type Config struct {
	Appearance  AppearanceConfig    `toml:"appearance"`
	Preview     PreviewConfig       `toml:"preview"`
	Workspace   workspace.Files     `toml:"workspace"`
	Layout      LayoutConfig        `toml:"layout"`
	Keybindings map[string][]string `toml:"keybindings"`
}

// AppearanceConfig controls colors and borders.
type AppearanceConfig struct {
	Theme       string `toml:"theme"`
	DarkMode    bool   `toml:"dark_mode"`
	BorderStyle string `toml:"border_style"`
	ASCIIOnly   bool   `toml:"ascii_only"`
}

// PreviewConfig controls the browser preview server.
type PreviewConfig struct {
	Enabled        bool     `toml:"enabled"`
	Host           string   `toml:"host"`
	Port           string   `toml:"port"`
	MaxConnections int      `toml:"max_connections"`
	AllowOrigins   []string `toml:"allow_origins"`
}

// LayoutConfig holds the detach offsets, as fractions of the viewport.
type LayoutConfig struct {
	PreviewDetachX float64 `toml:"preview_detach_x"`
	PreviewDetachY float64 `toml:"preview_detach_y"`
	EditorDetachX  float64 `toml:"editor_detach_x"`
	EditorDetachY  float64 `toml:"editor_detach_y"`
}

// Offsets returns the layout as window offsets.
func (l LayoutConfig) Offsets() map[window.Kind]window.Offset {
	return map[window.Kind]window.Offset{
		window.Preview: {X: l.PreviewDetachX, Y: l.PreviewDetachY},
		window.Editor:  {X: l.EditorDetachX, Y: l.EditorDetachY},
	}
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Appearance: AppearanceConfig{
			BorderStyle: "rounded",
		},
		Preview: PreviewConfig{
			Enabled: true,
			Host:    "localhost",
			Port:    "7690",
		},
		Workspace: workspace.DefaultFiles(),
		Layout: LayoutConfig{
			PreviewDetachX: window.DefaultOffsets[window.Preview].X,
			PreviewDetachY: window.DefaultOffsets[window.Preview].Y,
			EditorDetachX:  window.DefaultOffsets[window.Editor].X,
			EditorDetachY:  window.DefaultOffsets[window.Editor].Y,
		},
		Keybindings: DefaultKeybindings(),
	}
}

// GetConfigPath returns the path of the user config file, creating its
// parent directory if needed.
func GetConfigPath() (string, error) {
	path, err := xdg.ConfigFile(filepath.Join(AppName, "config.toml"))
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return path, nil
}

// GetLogPath returns the path the terminal UI logs to.
func GetLogPath() (string, error) {
	path, err := xdg.StateFile(filepath.Join(AppName, AppName+".log"))
	if err != nil {
		return "", fmt.Errorf("resolve log path: %w", err)
	}
	return path, nil
}

// LoadUserConfig reads the user config. A missing file yields defaults.
func LoadUserConfig() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads a config file, merging it over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := Decode(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses TOML into cfg. Keys missing from data keep their current
// values; keybindings given in data replace the defaults per action.
func Decode(data []byte, cfg *Config) error {
	defaults := cfg.Keybindings
	cfg.Keybindings = nil

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	merged := make(map[string][]string, len(defaults))
	for action, keys := range defaults {
		merged[action] = keys
	}
	for action, keys := range cfg.Keybindings {
		merged[action] = keys
	}
	cfg.Keybindings = merged
	return nil
}

// Encode renders cfg as TOML.
func Encode(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveConfig writes cfg to path.
func SaveConfig(cfg *Config, path string) error {
	data, err := Encode(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
