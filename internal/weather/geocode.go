package weather

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/tessro/skyplay/internal/core"
	apperr "github.com/tessro/skyplay/internal/errors"
)

// Geocode returns the coordinates of the first match for city. Any further
// matches are ignored.
func (r *Resolver) Geocode(ctx context.Context, city core.LocationQuery) (core.Coordinates, error) {
	const op = "geocode"

	name := city.Normalize()
	if name == "" {
		return core.Coordinates{}, apperr.Ef(apperr.KindValidation, op, "city is required")
	}

	params := url.Values{}
	params.Set("name", string(name))
	params.Set("count", strconv.Itoa(r.count))
	params.Set("language", r.language)
	params.Set("format", "json")

	body, err := r.get(ctx, op, endpoint(r.geocodeURL, "/v1/search", params))
	if err != nil {
		return core.Coordinates{}, err
	}
	if !gjson.ValidBytes(body) {
		return core.Coordinates{}, apperr.Ef(apperr.KindUnknown, op, "malformed response")
	}

	// Open-Meteo omits "results" entirely when nothing matches
	first := gjson.GetBytes(body, "results.0")
	if !first.Exists() {
		return core.Coordinates{}, apperr.E(apperr.KindNotFound, op, ErrCityNotFound)
	}

	lat, lon := first.Get("latitude"), first.Get("longitude")
	if lat.Type != gjson.Number || lon.Type != gjson.Number {
		return core.Coordinates{}, apperr.E(apperr.KindUnknown, op,
			fmt.Errorf("result has no coordinates: %s", first.Raw))
	}

	coords := core.Coordinates{Latitude: lat.Float(), Longitude: lon.Float()}
	r.logger.Debug().
		Str("city", string(name)).
		Str("match", first.Get("name").String()).
		Float64("latitude", coords.Latitude).
		Float64("longitude", coords.Longitude).
		Msg("geocoded")
	return coords, nil
}
