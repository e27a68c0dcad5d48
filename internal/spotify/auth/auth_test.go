package auth

import (
	"net/url"
	"testing"
)

func TestAuthURL(t *testing.T) {
	pkce := &PKCE{
		Verifier:  "test_verifier",
		Challenge: "test_challenge",
		State:     "test_state",
	}

	cfg := &Config{
		ClientID:    "test_client_id",
		RedirectURI: "http://127.0.0.1:3000",
		Scopes:      []string{"user-read-playback-state", "user-library-modify"},
	}

	u, err := url.Parse(cfg.AuthURL(pkce))
	if err != nil {
		t.Fatalf("AuthURL() produced invalid URL: %v", err)
	}

	if u.Scheme != "https" || u.Host != "accounts.spotify.com" || u.Path != "/authorize" {
		t.Errorf("AuthURL() base URL = %s://%s%s", u.Scheme, u.Host, u.Path)
	}

	q := u.Query()
	tests := []struct {
		param string
		want  string
	}{
		{"client_id", "test_client_id"},
		{"response_type", "code"},
		{"redirect_uri", "http://127.0.0.1:3000"},
		{"code_challenge_method", "S256"},
		{"code_challenge", "test_challenge"},
		{"state", "test_state"},
		{"scope", "user-read-playback-state user-library-modify"},
	}

	for _, tt := range tests {
		if got := q.Get(tt.param); got != tt.want {
			t.Errorf("AuthURL() %s = %q, want %q", tt.param, got, tt.want)
		}
	}
}

func TestAuthURLNoScopes(t *testing.T) {
	cfg := &Config{ClientID: "c", RedirectURI: "http://127.0.0.1:3000"}
	u, _ := url.Parse(cfg.AuthURL(&PKCE{State: "s"}))
	if _, ok := u.Query()["scope"]; ok {
		t.Error("AuthURL() with no scopes should omit scope")
	}
}

func TestCallbackAddr(t *testing.T) {
	tests := []struct {
		redirect string
		addr     string
		path     string
		wantErr  bool
	}{
		{"http://127.0.0.1:3000", "127.0.0.1:3000", "/", false},
		{"http://localhost:8888/callback", "localhost:8888", "/callback", false},
		{"http://localhost/callback", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.redirect, func(t *testing.T) {
			cfg := &Config{RedirectURI: tt.redirect}
			addr, path, err := cfg.CallbackAddr()
			if (err != nil) != tt.wantErr {
				t.Fatalf("CallbackAddr() error = %v", err)
			}
			if addr != tt.addr || path != tt.path {
				t.Errorf("CallbackAddr() = %q, %q; want %q, %q", addr, path, tt.addr, tt.path)
			}
		})
	}
}
