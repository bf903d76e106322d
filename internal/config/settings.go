// Package config persists viewer preferences as JSON under the user's
// home directory.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// TileSource is a user-configurable XYZ tile endpoint
type TileSource struct {
	Name       string   `json:"name"`
	URL        string   `json:"url"` // {s}/{z}/{x}/{y} template
	Subdomains []string `json:"subdomains,omitempty"`
	MinZoom    int      `json:"minZoom,omitempty"`
	MaxZoom    int      `json:"maxZoom,omitempty"`
}

// ViewerSettings represents persistent viewer preferences
type ViewerSettings struct {
	// Tile sources; the first one is used at startup
	Sources []TileSource `json:"sources"`

	// Tile cache capacity, in tiles
	CacheTiles int `json:"cacheTiles"`

	// On-disk tile cache size; zero disables the disk cache
	CacheDiskMB int `json:"cacheDiskMB"`

	// Default view when no session position is stored
	DefaultCenterLat float64 `json:"defaultCenterLat"`
	DefaultCenterLon float64 `json:"defaultCenterLon"`
	DefaultZoom      float64 `json:"defaultZoom"`

	// Last session position, written on shutdown
	LastCenterLat float64 `json:"lastCenterLat"`
	LastCenterLon float64 `json:"lastCenterLon"`
	LastZoom      float64 `json:"lastZoom"`
	HasLastView   bool    `json:"hasLastView"`

	// UI preferences
	ShowOverlays    bool `json:"showOverlays"`
	ShowCoordinates bool `json:"showCoordinates"`
}

// DefaultSettings returns default viewer settings
func DefaultSettings() *ViewerSettings {
	return &ViewerSettings{
		Sources: []TileSource{
			{
				Name:       "OpenStreetMap",
				URL:        "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
				Subdomains: []string{"a", "b", "c"},
				MaxZoom:    19,
			},
		},
		CacheTiles:       512,
		CacheDiskMB:      250,
		DefaultCenterLat: 51.505,
		DefaultCenterLon: -0.09,
		DefaultZoom:      13,
		ShowCoordinates:  true,
	}
}

// SettingsPath returns the settings file path, creating its directory
func SettingsPath() string {
	return filepath.Join(baseDir(), "settings.json")
}

// TileCachePath returns the on-disk tile cache directory
func TileCachePath() string {
	return filepath.Join(baseDir(), "tiles")
}

func baseDir() string {
	homeDir, _ := os.UserHomeDir()
	dir := filepath.Join(homeDir, ".slippymap", "mapviewer")
	os.MkdirAll(dir, 0755)
	return dir
}

// Load reads settings from disk, falling back to defaults for a missing
// file or missing fields
func Load() (*ViewerSettings, error) {
	path := SettingsPath()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultSettings(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var settings ViewerSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}

	defaults := DefaultSettings()
	if len(settings.Sources) == 0 {
		settings.Sources = defaults.Sources
	}
	if settings.CacheTiles <= 0 {
		settings.CacheTiles = defaults.CacheTiles
	}
	if settings.DefaultZoom == 0 {
		settings.DefaultCenterLat = defaults.DefaultCenterLat
		settings.DefaultCenterLon = defaults.DefaultCenterLon
		settings.DefaultZoom = defaults.DefaultZoom
	}

	return &settings, nil
}

// Save writes settings to disk
func Save(settings *ViewerSettings) error {
	path := SettingsPath()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	return nil
}

// Validate checks a tile source configuration
func (s *TileSource) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("source name is required")
	}
	if s.URL == "" {
		return fmt.Errorf("source URL is required")
	}
	if s.MinZoom < 0 || (s.MaxZoom != 0 && s.MaxZoom < s.MinZoom) {
		return fmt.Errorf("source %q has an invalid zoom range", s.Name)
	}
	return nil
}
