package weather

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/tessro/skyplay/internal/config"
	"github.com/tessro/skyplay/internal/core"
	apperr "github.com/tessro/skyplay/internal/errors"
)

// CurrentFields are the current-conditions variables requested in every forecast.
const CurrentFields = "temperature_2m,relative_humidity_2m,is_day,precipitation,rain"

// Forecast fetches the forecast for coords. The body is returned as sent by
// the provider.
func (r *Resolver) Forecast(ctx context.Context, coords core.Coordinates) (json.RawMessage, error) {
	const op = "forecast"

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(coords.Latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(coords.Longitude, 'f', -1, 64))
	params.Set("current", CurrentFields)

	switch r.variant {
	case config.ForecastThreeDay:
		params.Set("forecast_days", "3")
	default:
		params.Set("daily", "temperature_2m_max,temperature_2m_min")
	}

	body, err := r.get(ctx, op, endpoint(r.forecastURL, "/v1/forecast", params))
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, apperr.Ef(apperr.KindUnknown, op, "malformed response")
	}
	return json.RawMessage(body), nil
}
