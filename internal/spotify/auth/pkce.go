package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

const (
	// CodeVerifierLength is the length of the PKCE code verifier (43-128 allowed).
	CodeVerifierLength = 64

	// StateLength is the length of the state parameter.
	StateLength = 32
)

// PKCE holds the code verifier, its S256 challenge, and the CSRF state.
type PKCE struct {
	Verifier  string
	Challenge string
	State     string
}

// NewPKCE generates a fresh verifier, challenge, and state.
func NewPKCE() (*PKCE, error) {
	verifier, err := randomToken(CodeVerifierLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate code verifier: %w", err)
	}
	state, err := randomToken(StateLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate state: %w", err)
	}

	sum := sha256.Sum256([]byte(verifier))
	return &PKCE{
		Verifier:  verifier,
		Challenge: base64.RawURLEncoding.EncodeToString(sum[:]),
		State:     state,
	}, nil
}

// randomToken returns n URL-safe characters.
func randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf)[:n], nil
}
