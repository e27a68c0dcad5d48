package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for common failure scenarios.
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNoActiveDevice   = errors.New("no active device")
	ErrNoDevices        = errors.New("no devices available")
	ErrDeviceNotFound   = errors.New("device not found")
	ErrTrackNotFound    = errors.New("track not found")
	ErrNoResults        = errors.New("no results")
	ErrPremiumRequired  = errors.New("spotify premium required")
	ErrRateLimited      = errors.New("rate limited")
	ErrNetworkError     = errors.New("network error")
	ErrTimeout          = errors.New("request timeout")
	ErrConfigNotFound   = errors.New("config file not found")
	ErrInvalidConfig    = errors.New("invalid configuration")
)

// Kind classifies a failure so callers can branch on the category
// without parsing message text.
type Kind int

const (
	KindUnknown Kind = iota
	KindAuth
	KindRateLimited
	KindInvalidState
	KindTransport
	KindNotFound
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindRateLimited:
		return "rate_limited"
	case KindInvalidState:
		return "invalid_state"
	case KindTransport:
		return "transport"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Error is a categorized failure raised by a remote call or a validation step.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E builds a categorized error. A nil err yields nil.
func E(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Ef is E with a formatted message.
func Ef(kind Kind, op string, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost categorized error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Cause returns the message tool results show to the calling agent. Only
// the operation prefix of an outermost categorized error is dropped; context
// added around it with %w is kept.
func Cause(err error) string {
	if err == nil {
		return ""
	}
	if e, ok := err.(*Error); ok {
		return e.Err.Error()
	}
	return err.Error()
}

// SkyplayError wraps an error with a user-friendly suggestion.
type SkyplayError struct {
	Err        error
	Suggestion string
}

func (e *SkyplayError) Error() string {
	return e.Err.Error()
}

func (e *SkyplayError) Unwrap() error {
	return e.Err
}

// WithSuggestion wraps an error with a helpful suggestion.
func WithSuggestion(err error, suggestion string) error {
	return &SkyplayError{
		Err:        err,
		Suggestion: suggestion,
	}
}

// GetSuggestion returns a suggestion for the given error.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	var sErr *SkyplayError
	if errors.As(err, &sErr) && sErr.Suggestion != "" {
		return sErr.Suggestion
	}

	switch KindOf(err) {
	case KindAuth:
		return "Run 'skyplay auth login' to authenticate with Spotify"
	case KindRateLimited:
		return "Too many requests. Wait a moment and try again"
	case KindTransport:
		return "Check your internet connection and try again"
	case KindInvalidState:
		if errors.Is(err, ErrPremiumRequired) {
			return "This feature requires Spotify Premium"
		}
		return "Open Spotify on a device and start playing, or pass a device id"
	case KindNotFound:
		if errors.Is(err, ErrDeviceNotFound) {
			return "Run 'skyplay devices' to see available devices"
		}
	}

	errStr := strings.ToLower(err.Error())

	if errors.Is(err, ErrNotAuthenticated) || strings.Contains(errStr, "not authenticated") ||
		strings.Contains(errStr, "invalid access token") || strings.Contains(errStr, "token expired") {
		return "Run 'skyplay auth login' to authenticate with Spotify"
	}

	if errors.Is(err, ErrNoActiveDevice) || errors.Is(err, ErrNoDevices) ||
		strings.Contains(errStr, "no active device") {
		return "Open Spotify on a device and start playing, or pass a device id"
	}

	if errors.Is(err, ErrConfigNotFound) || errors.Is(err, ErrInvalidConfig) {
		return "Run 'skyplay config init' to set up your configuration"
	}

	if strings.Contains(errStr, "500") || strings.Contains(errStr, "server error") {
		return "Spotify is having issues. Try again in a moment"
	}

	return ""
}

// Format returns a formatted error message with suggestion if available.
func Format(err error) string {
	if err == nil {
		return ""
	}

	suggestion := GetSuggestion(err)
	if suggestion != "" {
		return fmt.Sprintf("Error: %s\n\nSuggestion: %s", err.Error(), suggestion)
	}

	return fmt.Sprintf("Error: %s", err.Error())
}
