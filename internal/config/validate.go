package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Spotify.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("spotify: %w", err))
	}
	if err := c.Weather.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("weather: %w", err))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}

	return errors.Join(errs...)
}

// Validate checks SpotifyConfig for errors.
func (c *SpotifyConfig) Validate() error {
	if c.RedirectURI != "" {
		u, err := url.Parse(c.RedirectURI)
		if err != nil {
			return fmt.Errorf("invalid redirect_uri: %w", err)
		}
		if u.Scheme != "http" || u.Port() == "" {
			return fmt.Errorf("redirect_uri must be a local http URL with a port, got %q", c.RedirectURI)
		}
	}
	return nil
}

// Validate checks WeatherConfig for errors.
func (c *WeatherConfig) Validate() error {
	switch c.Forecast {
	case "", ForecastDaily, ForecastThreeDay:
		// valid
	default:
		return fmt.Errorf("invalid forecast: %s (must be daily or three_day)", c.Forecast)
	}
	for name, raw := range map[string]string{"geocode_url": c.GeocodeURL, "forecast_url": c.ForecastURL} {
		if raw == "" {
			continue
		}
		if _, err := url.ParseRequestURI(raw); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	if c.Timeout < 0 {
		return errors.New("timeout must be non-negative")
	}
	if c.Count < 0 || c.Count > 100 {
		return errors.New("count must be between 0 and 100")
	}
	return nil
}

// Validate checks LogConfig for errors.
func (c *LogConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Level)
	}
	switch c.Format {
	case "", "json", "console":
		// valid
	default:
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Format)
	}
	return nil
}
