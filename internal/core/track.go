package core

import "strings"

// Track represents a playable audio track.
type Track struct {
	ID         string   `json:"id"`
	URI        string   `json:"uri"`
	Title      string   `json:"title"`
	Artists    []string `json:"artists"`
	Album      string   `json:"album"`
	DurationMS int      `json:"duration_ms"`
}

// TrackSummary is the flat projection of a track handed to tool callers.
// Artist holds all artist names joined with ", ".
type TrackSummary struct {
	Name       string `json:"name"`
	ID         string `json:"id"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	URI        string `json:"uri,omitempty"`
	DurationMS int    `json:"duration_ms,omitempty"`
	ProgressMS *int   `json:"progress_ms,omitempty"`
}

// Summary projects the track into a TrackSummary.
func (t *Track) Summary() TrackSummary {
	return TrackSummary{
		Name:       t.Title,
		ID:         t.ID,
		Artist:     strings.Join(t.Artists, ", "),
		Album:      t.Album,
		URI:        t.URI,
		DurationMS: t.DurationMS,
	}
}
