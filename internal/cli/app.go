package cli

import (
	"fmt"

	"github.com/tessro/skyplay/internal/config"
	apperr "github.com/tessro/skyplay/internal/errors"
	"github.com/tessro/skyplay/internal/spotify/auth"
	"github.com/tessro/skyplay/internal/spotify/client"
	"github.com/tessro/skyplay/internal/spotify/player"
	"github.com/tessro/skyplay/internal/tools"
	"github.com/tessro/skyplay/internal/weather"
)

func authConfig(c *config.Config) *auth.Config {
	return &auth.Config{
		ClientID:     c.Spotify.ClientID,
		ClientSecret: c.Spotify.ClientSecret,
		RedirectURI:  c.Spotify.RedirectURI,
		Scopes:       c.Spotify.Scopes,
	}
}

// newSpotifyClient builds a client with any cached token loaded. A missing
// token is not an error here; requests fail with an auth error instead.
func newSpotifyClient(c *config.Config) (*client.Client, *auth.TokenStorage, error) {
	storage, err := auth.NewTokenStorage(c.Spotify.TokenPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize token storage: %w", err)
	}

	spotifyClient := client.New(authConfig(c).Credentials(), storage)
	spotifyClient.SetLogger(logger)
	if err := spotifyClient.LoadToken(); err != nil {
		return nil, nil, fmt.Errorf("failed to load token: %w", err)
	}
	return spotifyClient, storage, nil
}

// newController returns a playback controller for interactive commands,
// which need a token up front.
func newController(c *config.Config) (*player.Controller, error) {
	if c.Spotify.ClientID == "" {
		return nil, apperr.WithSuggestion(apperr.ErrInvalidConfig,
			"Set spotify.client_id with 'skyplay config set spotify.client_id <id>' or SKYPLAY_SPOTIFY_CLIENT_ID")
	}

	spotifyClient, _, err := newSpotifyClient(c)
	if err != nil {
		return nil, err
	}
	if !spotifyClient.HasToken() {
		return nil, apperr.E(apperr.KindAuth, "load token", apperr.ErrNotAuthenticated)
	}
	return player.New(spotifyClient, playerOptions(c)), nil
}

func playerOptions(c *config.Config) player.Options {
	return player.Options{
		ValidateDeviceIDs: c.Spotify.ValidateDeviceIDs,
		Market:            c.Spotify.Market,
	}
}

// newRegistry wires the weather and playback tools. The playback tools are
// registered even without credentials so clients see the full tool list;
// calls then report an authentication error.
func newRegistry(c *config.Config) (*tools.Registry, error) {
	registry := tools.NewRegistry(logger)

	resolver := weather.New(c.Weather)
	resolver.SetLogger(logger)
	tools.RegisterWeather(registry, resolver)

	if c.Spotify.ClientID == "" {
		logger.Warn().Msg("spotify_not_configured")
	}
	spotifyClient, _, err := newSpotifyClient(c)
	if err != nil {
		return nil, err
	}
	if !spotifyClient.HasToken() {
		logger.Warn().Msg("spotify_not_authenticated")
	}
	tools.RegisterSpotify(registry, player.New(spotifyClient, playerOptions(c)))

	return registry, nil
}
