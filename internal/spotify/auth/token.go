package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
)

// Token represents Spotify OAuth tokens.
type Token struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	Scope        string    `json:"scope"`
	ExpiresIn    int       `json:"expires_in"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// IsExpired returns true if the token has expired or will within a minute.
func (t *Token) IsExpired() bool {
	return time.Now().Add(60 * time.Second).After(t.ExpiresAt)
}

// Credentials identify the OAuth client at the token endpoint. A client
// without a secret is treated as a public PKCE client.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// TokenEndpoint exchanges authorization codes and refresh tokens.
type TokenEndpoint struct {
	URL        string
	HTTPClient *http.Client
	Creds      Credentials
}

// NewTokenEndpoint returns an endpoint pointed at Spotify.
func NewTokenEndpoint(creds Credentials) *TokenEndpoint {
	httpClient := cleanhttp.DefaultClient()
	httpClient.Timeout = 30 * time.Second
	return &TokenEndpoint{
		URL:        SpotifyTokenURL,
		HTTPClient: httpClient,
		Creds:      creds,
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Error        string `json:"error"`
	ErrorDesc    string `json:"error_description"`
}

// Exchange trades an authorization code for tokens.
func (e *TokenEndpoint) Exchange(ctx context.Context, code, redirectURI, codeVerifier string) (*Token, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", redirectURI)
	if codeVerifier != "" {
		data.Set("code_verifier", codeVerifier)
	}
	return e.request(ctx, data)
}

// Refresh uses a refresh token to get a new access token. The returned
// token keeps the old refresh token when Spotify does not rotate it.
func (e *TokenEndpoint) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)

	token, err := e.request(ctx, data)
	if err != nil {
		return nil, err
	}
	if token.RefreshToken == "" {
		token.RefreshToken = refreshToken
	}
	return token, nil
}

func (e *TokenEndpoint) request(ctx context.Context, data url.Values) (*Token, error) {
	if e.Creds.ClientSecret == "" {
		data.Set("client_id", e.Creds.ClientID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.URL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if e.Creds.ClientSecret != "" {
		req.SetBasicAuth(e.Creds.ClientID, e.Creds.ClientSecret)
	}

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if tokenResp.Error != "" {
		return nil, fmt.Errorf("token error: %s - %s", tokenResp.Error, tokenResp.ErrorDesc)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return &Token{
		AccessToken:  tokenResp.AccessToken,
		TokenType:    tokenResp.TokenType,
		Scope:        tokenResp.Scope,
		ExpiresIn:    tokenResp.ExpiresIn,
		RefreshToken: tokenResp.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second),
	}, nil
}
