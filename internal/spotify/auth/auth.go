// Package auth implements the Spotify authorization-code flow used by
// `skyplay auth login`, plus on-disk token caching.
package auth

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

const (
	// SpotifyAuthURL is the Spotify authorization endpoint.
	SpotifyAuthURL = "https://accounts.spotify.com/authorize"

	// SpotifyTokenURL is the Spotify token endpoint.
	SpotifyTokenURL = "https://accounts.spotify.com/api/token"
)

// Config holds the OAuth client settings.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
}

// Credentials returns the client credentials used at the token endpoint.
func (c *Config) Credentials() Credentials {
	return Credentials{ClientID: c.ClientID, ClientSecret: c.ClientSecret}
}

// AuthURL constructs the authorization URL. The PKCE challenge is always
// sent; Spotify ignores it for confidential clients that present a secret.
func (c *Config) AuthURL(pkce *PKCE) string {
	u, _ := url.Parse(SpotifyAuthURL)

	q := u.Query()
	q.Set("client_id", c.ClientID)
	q.Set("response_type", "code")
	q.Set("redirect_uri", c.RedirectURI)
	q.Set("code_challenge_method", "S256")
	q.Set("code_challenge", pkce.Challenge)
	q.Set("state", pkce.State)
	if len(c.Scopes) > 0 {
		q.Set("scope", strings.Join(c.Scopes, " "))
	}

	u.RawQuery = q.Encode()
	return u.String()
}

// CallbackAddr splits the redirect URI into the listen address and the
// path the local callback server must serve.
func (c *Config) CallbackAddr() (addr, path string, err error) {
	u, err := url.Parse(c.RedirectURI)
	if err != nil {
		return "", "", fmt.Errorf("invalid redirect uri: %w", err)
	}
	if u.Port() == "" {
		return "", "", fmt.Errorf("redirect uri %q has no port", c.RedirectURI)
	}
	path = u.Path
	if path == "" {
		path = "/"
	}
	return net.JoinHostPort(u.Hostname(), u.Port()), path, nil
}
