package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// GetCurrentUser returns the current user's profile.
func (c *Client) GetCurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.Get(ctx, "/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetDevices returns the user's available playback devices in the order
// Spotify reports them.
func (c *Client) GetDevices(ctx context.Context) ([]Device, error) {
	var resp DevicesResponse
	if err := c.Get(ctx, "/me/player/devices", &resp); err != nil {
		return nil, err
	}
	return resp.Devices, nil
}

// GetPlaybackState returns the current playback state. Spotify answers 204
// when nothing is playing, which yields a zero state.
func (c *Client) GetPlaybackState(ctx context.Context) (*PlaybackState, error) {
	var state PlaybackState
	if err := c.Get(ctx, "/me/player", &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// SearchType represents a type of Spotify content to search.
type SearchType string

const (
	SearchTypeTrack  SearchType = "track"
	SearchTypeArtist SearchType = "artist"
)

// SearchOptions configures a search query.
type SearchOptions struct {
	Query  string
	Types  []SearchType
	Limit  int
	Market string
}

// Search performs a search query.
func (c *Client) Search(ctx context.Context, opts SearchOptions) (*SearchResponse, error) {
	if opts.Query == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}

	types := make([]string, len(opts.Types))
	for i, t := range opts.Types {
		types[i] = string(t)
	}
	if len(types) == 0 {
		types = []string{string(SearchTypeTrack)}
	}

	params := map[string]string{
		"q":    opts.Query,
		"type": strings.Join(types, ","),
	}
	if opts.Limit > 0 {
		params["limit"] = strconv.Itoa(opts.Limit)
	}
	if opts.Market != "" {
		params["market"] = opts.Market
	}

	var resp SearchResponse
	if err := c.Get(ctx, BuildURL("/search", params), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetArtistTopTracks returns an artist's top tracks. An empty market means
// the market of the authenticated user.
func (c *Client) GetArtistTopTracks(ctx context.Context, artistID, market string) ([]Track, error) {
	if market == "" {
		market = "from_token"
	}
	path := BuildURL("/artists/"+url.PathEscape(artistID)+"/top-tracks", map[string]string{"market": market})

	var resp TopTracksResponse
	if err := c.Get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Tracks, nil
}

// GetSavedTracks returns one page of the user's saved tracks.
func (c *Client) GetSavedTracks(ctx context.Context, limit, offset int) (*SavedTracksResponse, error) {
	params := make(map[string]string)
	if limit > 0 {
		params["limit"] = strconv.Itoa(limit)
	}
	if offset > 0 {
		params["offset"] = strconv.Itoa(offset)
	}

	var resp SavedTracksResponse
	if err := c.Get(ctx, BuildURL("/me/tracks", params), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SaveTracks adds tracks to the user's library.
func (c *Client) SaveTracks(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return fmt.Errorf("no track ids given")
	}
	return c.Put(ctx, "/me/tracks", map[string][]string{"ids": ids}, nil)
}
