package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/rs/zerolog"

	apperr "github.com/tessro/skyplay/internal/errors"
	"github.com/tessro/skyplay/internal/spotify/auth"
)

// BaseURL is the Spotify Web API base URL.
const BaseURL = "https://api.spotify.com/v1"

// Client is a Spotify Web API client. Every request is attempted exactly
// once; failures surface to the caller as categorized errors.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     *auth.TokenEndpoint
	storage    *auth.TokenStorage
	token      *auth.Token
	mu         sync.RWMutex
	logger     zerolog.Logger
}

// New creates a new Spotify client. The HTTP client has no overall timeout;
// callers bound requests through their context.
func New(creds auth.Credentials, storage *auth.TokenStorage) *Client {
	return &Client{
		httpClient: cleanhttp.DefaultPooledClient(),
		baseURL:    BaseURL,
		tokens:     auth.NewTokenEndpoint(creds),
		storage:    storage,
		logger:     zerolog.Nop(),
	}
}

// SetLogger sets the logger used for request tracing.
func (c *Client) SetLogger(logger zerolog.Logger) {
	c.logger = logger.With().Str("component", "spotify").Logger()
}

// SetBaseURL points the client at a different API root.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// SetTokenURL points token refreshes at a different endpoint.
func (c *Client) SetTokenURL(u string) {
	c.tokens.URL = u
}

// LoadToken loads the token from storage.
func (c *Client) LoadToken() error {
	token, err := c.storage.Load()
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	return nil
}

// SetToken sets the current token and persists it.
func (c *Client) SetToken(token *auth.Token) error {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	return c.storage.Save(token)
}

// HasToken returns true if there's any token (even if expired).
func (c *Client) HasToken() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token != nil
}

// RefreshToken refreshes the access token if it is expired.
func (c *Client) RefreshToken(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == nil {
		return apperr.E(apperr.KindAuth, "refresh token", apperr.ErrNotAuthenticated)
	}
	if !c.token.IsExpired() {
		return nil
	}

	newToken, err := c.tokens.Refresh(ctx, c.token.RefreshToken)
	if err != nil {
		return apperr.E(apperr.KindAuth, "refresh token", err)
	}

	c.token = newToken
	c.logger.Debug().Time("expires_at", newToken.ExpiresAt).Msg("token_refreshed")
	return c.storage.Save(newToken)
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	if err := c.RefreshToken(ctx); err != nil {
		return "", err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token.AccessToken, nil
}

// Get performs a GET request to the Spotify API.
func (c *Client) Get(ctx context.Context, path string, result any) error {
	return c.request(ctx, http.MethodGet, path, nil, result)
}

// Post performs a POST request to the Spotify API.
func (c *Client) Post(ctx context.Context, path string, body any, result any) error {
	return c.request(ctx, http.MethodPost, path, body, result)
}

// Put performs a PUT request to the Spotify API.
func (c *Client) Put(ctx context.Context, path string, body any, result any) error {
	return c.request(ctx, http.MethodPut, path, body, result)
}

func (c *Client) request(ctx context.Context, method, path string, body any, result any) error {
	op := method + " " + stripQuery(path)

	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
		c.logger.Debug().Str("method", method).Str("path", path).RawJSON("body", jsonBody).Msg("request")
	} else {
		c.logger.Debug().Str("method", method).Str("path", path).Msg("request")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("path", path).Msg("network_error")
		return apperr.E(apperr.KindTransport, op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.E(apperr.KindTransport, op, fmt.Errorf("failed to read response: %w", err))
	}

	c.logger.Debug().Int("status", resp.StatusCode).Str("path", path).Msg("response")

	if resp.StatusCode >= 400 {
		return apperr.E(classify(resp.StatusCode, respBody), op, parseAPIError(resp.StatusCode, respBody))
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return apperr.E(apperr.KindUnknown, op, fmt.Errorf("failed to parse response: %w", err))
		}
	}

	return nil
}

// APIError represents a Spotify API error response.
type APIError struct {
	ErrorInfo struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
		Reason  string `json:"reason,omitempty"`
	} `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Spotify API error %d: %s", e.ErrorInfo.Status, e.ErrorInfo.Message)
}

func parseAPIError(status int, body []byte) error {
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.ErrorInfo.Message != "" {
		if apiErr.ErrorInfo.Status == 0 {
			apiErr.ErrorInfo.Status = status
		}
		return &apiErr
	}
	return fmt.Errorf("API error: status %d, body: %s", status, string(body))
}

// classify maps an HTTP failure onto an error kind. Spotify reports a
// missing active device as 404 with reason NO_ACTIVE_DEVICE, which is a
// player state problem rather than a missing resource.
func classify(status int, body []byte) apperr.Kind {
	var apiErr APIError
	_ = json.Unmarshal(body, &apiErr)

	switch {
	case status == http.StatusUnauthorized:
		return apperr.KindAuth
	case status == http.StatusTooManyRequests:
		return apperr.KindRateLimited
	case apiErr.ErrorInfo.Reason == "NO_ACTIVE_DEVICE":
		return apperr.KindInvalidState
	case status == http.StatusForbidden:
		return apperr.KindInvalidState
	case status == http.StatusNotFound:
		return apperr.KindNotFound
	case status == http.StatusBadRequest:
		return apperr.KindValidation
	case status >= 500:
		return apperr.KindTransport
	default:
		return apperr.KindUnknown
	}
}

// BuildURL builds a URL with query parameters.
func BuildURL(path string, params map[string]string) string {
	if len(params) == 0 {
		return path
	}

	u, _ := url.Parse(path)
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func stripQuery(path string) string {
	if u, err := url.Parse(path); err == nil {
		return u.Path
	}
	return path
}
