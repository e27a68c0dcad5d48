package config

// DefaultScopes are the Spotify scopes the playback tools need.
var DefaultScopes = []string{
	"user-read-playback-state",
	"user-modify-playback-state",
	"user-read-currently-playing",
	"user-read-recently-played",
	"streaming",
	"playlist-read-private",
	"playlist-read-collaborative",
	"playlist-modify-public",
	"playlist-modify-private",
	"user-library-modify",
	"user-library-read",
}

const (
	ForecastDaily    = "daily"
	ForecastThreeDay = "three_day"
)

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Spotify: SpotifyConfig{
			RedirectURI: "http://127.0.0.1:3000",
			Scopes:      append([]string(nil), DefaultScopes...),
		},
		Weather: WeatherConfig{
			GeocodeURL:  "https://geocoding-api.open-meteo.com",
			ForecastURL: "https://api.open-meteo.com",
			Forecast:    ForecastDaily,
			Language:    "en",
			Count:       10,
			Timeout:     30,
		},
		Server: ServerConfig{
			Name:         "skyplay",
			Instructions: "Use get_weather for forecasts. For music, call get_devices_available before playing on a specific device.",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	d := Default()

	// Spotify
	if c.Spotify.RedirectURI == "" {
		c.Spotify.RedirectURI = d.Spotify.RedirectURI
	}
	if len(c.Spotify.Scopes) == 0 {
		c.Spotify.Scopes = d.Spotify.Scopes
	}

	// Weather
	if c.Weather.GeocodeURL == "" {
		c.Weather.GeocodeURL = d.Weather.GeocodeURL
	}
	if c.Weather.ForecastURL == "" {
		c.Weather.ForecastURL = d.Weather.ForecastURL
	}
	if c.Weather.Forecast == "" {
		c.Weather.Forecast = d.Weather.Forecast
	}
	if c.Weather.Language == "" {
		c.Weather.Language = d.Weather.Language
	}
	if c.Weather.Count == 0 {
		c.Weather.Count = d.Weather.Count
	}
	if c.Weather.Timeout == 0 {
		c.Weather.Timeout = d.Weather.Timeout
	}

	// Server
	if c.Server.Name == "" {
		c.Server.Name = d.Server.Name
	}
	if c.Server.Instructions == "" {
		c.Server.Instructions = d.Server.Instructions
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}
