package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Load reads configuration from standard locations with environment overrides.
// Search order: ~/.skyplayrc, $XDG_CONFIG_HOME/skyplay/config.toml, ~/.config/skyplay/config.toml
func Load() (*Config, error) {
	cfg := &Config{}

	path := findConfigFile()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)

	return cfg, nil
}

// LoadFrom reads configuration from a specific file path.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)
	return cfg, nil
}

// DefaultPath returns the path `config init` writes to.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".skyplayrc"
	}
	return filepath.Join(home, ".skyplayrc")
}

func findConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	paths := []string{
		filepath.Join(home, ".skyplayrc"),
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	paths = append(paths, filepath.Join(xdgConfig, "skyplay", "config.toml"))

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

func applyEnvOverrides(cfg *Config) {
	// Spotify
	if v := os.Getenv("SKYPLAY_SPOTIFY_CLIENT_ID"); v != "" {
		cfg.Spotify.ClientID = v
	}
	if v := os.Getenv("SKYPLAY_SPOTIFY_CLIENT_SECRET"); v != "" {
		cfg.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SKYPLAY_SPOTIFY_REDIRECT_URI"); v != "" {
		cfg.Spotify.RedirectURI = v
	}
	if v := os.Getenv("SKYPLAY_SPOTIFY_SCOPES"); v != "" {
		cfg.Spotify.Scopes = strings.Fields(v)
	}
	if v := os.Getenv("SKYPLAY_SPOTIFY_TOKEN_PATH"); v != "" {
		cfg.Spotify.TokenPath = v
	}

	// Weather
	if v := os.Getenv("SKYPLAY_WEATHER_FORECAST"); v != "" {
		cfg.Weather.Forecast = v
	}
	if v := os.Getenv("SKYPLAY_WEATHER_TIMEOUT"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Weather.Timeout = i
		}
	}

	// Log
	if v := os.Getenv("SKYPLAY_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SKYPLAY_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv("SKYPLAY_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}
