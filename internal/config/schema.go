package config

// Config is the root configuration structure.
type Config struct {
	Spotify SpotifyConfig `toml:"spotify" json:"spotify"`
	Weather WeatherConfig `toml:"weather" json:"weather"`
	Server  ServerConfig  `toml:"server" json:"server"`
	Log     LogConfig     `toml:"log" json:"log"`
}

// SpotifyConfig holds Spotify API settings.
type SpotifyConfig struct {
	ClientID     string   `toml:"client_id" json:"client_id"`
	ClientSecret string   `toml:"client_secret" json:"client_secret,omitempty"`
	RedirectURI  string   `toml:"redirect_uri" json:"redirect_uri"`
	Scopes       []string `toml:"scopes" json:"scopes"`
	TokenPath    string   `toml:"token_path" json:"token_path"`
	Market       string   `toml:"market" json:"market"`

	// ValidateDeviceIDs rejects caller-supplied device ids that are not in
	// the freshly fetched device list.
	ValidateDeviceIDs bool `toml:"validate_device_ids" json:"validate_device_ids"`
}

// WeatherConfig holds Open-Meteo settings.
type WeatherConfig struct {
	GeocodeURL  string `toml:"geocode_url" json:"geocode_url"`
	ForecastURL string `toml:"forecast_url" json:"forecast_url"`
	Forecast    string `toml:"forecast" json:"forecast"` // daily, three_day
	Language    string `toml:"language" json:"language"`
	Count       int    `toml:"count" json:"count"`
	Timeout     int    `toml:"timeout" json:"timeout"` // seconds, per request
}

// ServerConfig holds MCP server settings.
type ServerConfig struct {
	Name         string `toml:"name" json:"name"`
	Instructions string `toml:"instructions" json:"instructions"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level" json:"level"`
	File   string `toml:"file" json:"file"`
	Format string `toml:"format" json:"format"` // json, console
}
