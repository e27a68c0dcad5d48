package core

import "strings"

// LocationQuery is a free-text place name supplied by the caller.
type LocationQuery string

// Normalize trims surrounding whitespace.
func (q LocationQuery) Normalize() LocationQuery {
	return LocationQuery(strings.TrimSpace(string(q)))
}

// Coordinates is a resolved geocode.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
