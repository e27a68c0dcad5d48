package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tessro/skyplay/internal/core"
	apperr "github.com/tessro/skyplay/internal/errors"
	"github.com/tessro/skyplay/internal/weather"
)

// Forecaster resolves a place name to its forecast.
type Forecaster interface {
	ResolveAndForecast(ctx context.Context, city core.LocationQuery) (json.RawMessage, error)
}

const cityNotFoundText = "No results found for the given city."

// RegisterWeather adds get_weather.
func RegisterWeather(r *Registry, f Forecaster) {
	r.Register(Tool{
		Name:        "get_weather",
		Description: "Get the current weather for a given city. Returns the forecast for the first place matching the name.",
		InputSchema: objectSchema(map[string]any{
			"city": stringProp("The English name of the city to get the weather for."),
		}, "city"),
		Handler: func(ctx context.Context, args map[string]any) Result {
			var in struct {
				City string `mapstructure:"city"`
			}
			if err := decodeArgs(args, &in); err != nil {
				return invalidArgs(err)
			}
			if err := requireArg("city", in.City); err != nil {
				return invalidArgs(err)
			}

			forecast, err := f.ResolveAndForecast(ctx, core.LocationQuery(in.City))
			if err != nil {
				return weatherError(err)
			}
			return Result{Text: string(forecast), Structured: forecast}
		},
	})
}

func weatherError(err error) Result {
	msg := fmt.Sprintf("An error occurred while requesting the weather: %s", apperr.Cause(err))
	if errors.Is(err, weather.ErrCityNotFound) {
		msg = cityNotFoundText
	}

	body := map[string]string{"error": msg}
	encoded, _ := json.Marshal(body)
	return Result{Text: string(encoded), Structured: body, IsError: true}
}
