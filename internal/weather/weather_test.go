package weather

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tessro/skyplay/internal/config"
	apperr "github.com/tessro/skyplay/internal/errors"
)

type fakeOpenMeteo struct {
	geocodeStatus int
	geocodeBody    string
	forecastStatus int
	forecastBody   string

	geocodeCalls  atomic.Int32
	forecastCalls atomic.Int32
	lastForecast  atomic.Value // url.Values
}

func (f *fakeOpenMeteo) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/v1/search":
		f.geocodeCalls.Add(1)
		if f.geocodeStatus != 0 {
			w.WriteHeader(f.geocodeStatus)
		}
		_, _ = io.WriteString(w, f.geocodeBody)
	case "/v1/forecast":
		f.forecastCalls.Add(1)
		f.lastForecast.Store(r.URL.Query())
		if f.forecastStatus != 0 {
			w.WriteHeader(f.forecastStatus)
		}
		_, _ = io.WriteString(w, f.forecastBody)
	default:
		http.NotFound(w, r)
	}
}

func newTestResolver(t *testing.T, fake *fakeOpenMeteo, variant string) *Resolver {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	cfg := config.Default().Weather
	cfg.GeocodeURL = server.URL
	cfg.ForecastURL = server.URL
	cfg.Forecast = variant
	return New(cfg)
}

func TestResolveAndForecastNoResults(t *testing.T) {
	for _, body := range []string{`{"results":[]}`, `{"generationtime_ms":0.5}`} {
		fake := &fakeOpenMeteo{geocodeBody: body}
		r := newTestResolver(t, fake, config.ForecastDaily)

		_, err := r.ResolveAndForecast(context.Background(), "Zzxyq")
		if !errors.Is(err, ErrCityNotFound) {
			t.Fatalf("body %s: expected ErrCityNotFound, got %v", body, err)
		}
		if !apperr.Is(err, apperr.KindNotFound) {
			t.Errorf("kind = %v, want not_found", apperr.KindOf(err))
		}
		if got := fake.forecastCalls.Load(); got != 0 {
			t.Errorf("forecast called %d times, want 0", got)
		}
	}
}

func TestResolveAndForecastUsesFirstMatch(t *testing.T) {
	fake := &fakeOpenMeteo{
		geocodeBody: `{"results":[
			{"name":"Paris","latitude":48.85341,"longitude":2.3488},
			{"name":"Paris","latitude":33.66094,"longitude":-95.55551}
		]}`,
		forecastBody: `{"latitude":48.86,"current":{"temperature_2m":12.3}}`,
	}
	r := newTestResolver(t, fake, config.ForecastDaily)

	got, err := r.ResolveAndForecast(context.Background(), "  Paris ")
	if err != nil {
		t.Fatalf("ResolveAndForecast() error = %v", err)
	}
	if string(got) != fake.forecastBody {
		t.Errorf("body = %s, want verbatim provider body", got)
	}

	q := fake.lastForecast.Load().(url.Values)
	if q.Get("latitude") != "48.85341" || q.Get("longitude") != "2.3488" {
		t.Errorf("forecast coords = %s,%s", q.Get("latitude"), q.Get("longitude"))
	}
	if q.Get("current") != CurrentFields {
		t.Errorf("current = %q", q.Get("current"))
	}
	if fake.geocodeCalls.Load() != 1 || fake.forecastCalls.Load() != 1 {
		t.Errorf("calls = %d/%d, want 1/1", fake.geocodeCalls.Load(), fake.forecastCalls.Load())
	}
}

func TestForecastVariants(t *testing.T) {
	tests := []struct {
		variant   string
		wantDaily string
		wantDays  string
	}{
		{config.ForecastDaily, "temperature_2m_max,temperature_2m_min", ""},
		{config.ForecastThreeDay, "", "3"},
	}

	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			fake := &fakeOpenMeteo{
				geocodeBody:  `{"results":[{"latitude":1.5,"longitude":-2}]}`,
				forecastBody: `{}`,
			}
			r := newTestResolver(t, fake, tt.variant)

			if _, err := r.ResolveAndForecast(context.Background(), "x"); err != nil {
				t.Fatalf("ResolveAndForecast() error = %v", err)
			}
			q := fake.lastForecast.Load().(url.Values)
			if q.Get("daily") != tt.wantDaily {
				t.Errorf("daily = %q, want %q", q.Get("daily"), tt.wantDaily)
			}
			if q.Get("forecast_days") != tt.wantDays {
				t.Errorf("forecast_days = %q, want %q", q.Get("forecast_days"), tt.wantDays)
			}
		})
	}
}

func TestGeocodeHTTPErrors(t *testing.T) {
	tests := []struct {
		status int
		want   apperr.Kind
	}{
		{http.StatusTooManyRequests, apperr.KindRateLimited},
		{http.StatusInternalServerError, apperr.KindTransport},
		{http.StatusBadRequest, apperr.KindTransport},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			fake := &fakeOpenMeteo{geocodeStatus: tt.status, geocodeBody: `{"reason":"nope"}`}
			r := newTestResolver(t, fake, config.ForecastDaily)

			_, err := r.ResolveAndForecast(context.Background(), "Paris")
			if got := apperr.KindOf(err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v (err: %v)", got, tt.want, err)
			}
			if fake.forecastCalls.Load() != 0 {
				t.Error("forecast should not be called after a geocode failure")
			}
		})
	}
}

func TestForecastHTTPErrors(t *testing.T) {
	tests := []struct {
		status int
		want   apperr.Kind
	}{
		{http.StatusTooManyRequests, apperr.KindRateLimited},
		{http.StatusInternalServerError, apperr.KindTransport},
		{http.StatusNotFound, apperr.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			fake := &fakeOpenMeteo{
				geocodeBody:    `{"results":[{"latitude":38.72,"longitude":-9.13}]}`,
				forecastStatus: tt.status,
				forecastBody:   "upstream unavailable",
			}
			r := newTestResolver(t, fake, config.ForecastDaily)

			body, err := r.ResolveAndForecast(context.Background(), "Lisbon")
			if body != nil {
				t.Errorf("body = %s, want nil", body)
			}
			if got := apperr.KindOf(err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v (err: %v)", got, tt.want, err)
			}
			if want := fmt.Sprintf("HTTP %d: upstream unavailable", tt.status); apperr.Cause(err) != want {
				t.Errorf("Cause() = %q, want %q", apperr.Cause(err), want)
			}
			if fake.forecastCalls.Load() != 1 {
				t.Errorf("forecast called %d times, want 1", fake.forecastCalls.Load())
			}
		})
	}
}

func TestGeocodeValidation(t *testing.T) {
	fake := &fakeOpenMeteo{}
	r := newTestResolver(t, fake, config.ForecastDaily)

	if _, err := r.Geocode(context.Background(), "   "); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	if fake.geocodeCalls.Load() != 0 {
		t.Error("empty city should not hit the network")
	}

	fake.geocodeBody = `{"results":[{"name":"Nowhere"}]}`
	if _, err := r.Geocode(context.Background(), "Nowhere"); err == nil {
		t.Error("expected error for result without coordinates")
	}
}

func TestPerCallTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	cfg := config.Default().Weather
	cfg.GeocodeURL = server.URL
	r := New(cfg)
	r.timeout = 50 * time.Millisecond

	_, err := r.Geocode(context.Background(), "Slowville")
	if !apperr.Is(err, apperr.KindTransport) {
		t.Errorf("expected transport error on timeout, got %v", err)
	}
}
