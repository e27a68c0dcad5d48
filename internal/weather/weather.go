// Package weather resolves a place name to coordinates with the Open-Meteo
// geocoding API and fetches its forecast.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/rs/zerolog"

	"github.com/tessro/skyplay/internal/config"
	"github.com/tessro/skyplay/internal/core"
	apperr "github.com/tessro/skyplay/internal/errors"
)

// ErrCityNotFound is returned when geocoding yields no match.
var ErrCityNotFound = errors.New("no results found for the given city")

// Resolver chains a geocode lookup into a forecast request. It holds no
// state between calls.
type Resolver struct {
	httpClient  *http.Client
	geocodeURL  string
	forecastURL string
	variant     string
	language    string
	count       int
	timeout     time.Duration
	logger      zerolog.Logger
}

// New creates a resolver from weather settings.
func New(cfg config.WeatherConfig) *Resolver {
	return &Resolver{
		httpClient:  cleanhttp.DefaultPooledClient(),
		geocodeURL:  cfg.GeocodeURL,
		forecastURL: cfg.ForecastURL,
		variant:     cfg.Forecast,
		language:    cfg.Language,
		count:       cfg.Count,
		timeout:     time.Duration(cfg.Timeout) * time.Second,
		logger:      zerolog.Nop(),
	}
}

// SetLogger sets the logger used for request tracing.
func (r *Resolver) SetLogger(logger zerolog.Logger) {
	r.logger = logger.With().Str("component", "weather").Logger()
}

// ResolveAndForecast geocodes city and returns the forecast body for the
// first match unmodified. When geocoding finds nothing the forecast
// endpoint is not called.
func (r *Resolver) ResolveAndForecast(ctx context.Context, city core.LocationQuery) (json.RawMessage, error) {
	coords, err := r.Geocode(ctx, city)
	if err != nil {
		return nil, err
	}
	return r.Forecast(ctx, coords)
}

// get performs one GET under its own timeout and returns the body.
func (r *Resolver) get(ctx context.Context, op, rawURL string) ([]byte, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, apperr.E(apperr.KindValidation, op, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.logger.Debug().Err(err).Str("op", op).Msg("network_error")
		return nil, apperr.E(apperr.KindTransport, op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.E(apperr.KindTransport, op, fmt.Errorf("failed to read response: %w", err))
	}

	r.logger.Debug().
		Str("op", op).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("response")

	if resp.StatusCode >= 400 {
		return nil, apperr.E(statusKind(resp.StatusCode), op,
			fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body)))
	}
	return body, nil
}

func statusKind(status int) apperr.Kind {
	switch status {
	case http.StatusTooManyRequests:
		return apperr.KindRateLimited
	case http.StatusNotFound:
		return apperr.KindNotFound
	default:
		return apperr.KindTransport
	}
}

func endpoint(base, path string, params url.Values) string {
	return base + path + "?" + params.Encode()
}
