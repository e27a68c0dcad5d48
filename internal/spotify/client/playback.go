package client

import (
	"context"
	"strconv"
)

// PlayOptions configures a play request.
type PlayOptions struct {
	ContextURI string   `json:"context_uri,omitempty"`
	URIs       []string `json:"uris,omitempty"`
}

// Play starts or resumes playback. A nil opts resumes the current context.
// An empty deviceID targets the currently active device; a non-empty one
// moves playback to that device.
func (c *Client) Play(ctx context.Context, deviceID string, opts *PlayOptions) error {
	// Spotify requires a JSON body even for resume
	body := opts
	if body == nil {
		body = &PlayOptions{}
	}
	return c.Put(ctx, withDevice("/me/player/play", deviceID, nil), body, nil)
}

// Pause pauses playback.
func (c *Client) Pause(ctx context.Context, deviceID string) error {
	return c.Put(ctx, withDevice("/me/player/pause", deviceID, nil), nil, nil)
}

// Next skips to the next track.
func (c *Client) Next(ctx context.Context, deviceID string) error {
	return c.Post(ctx, withDevice("/me/player/next", deviceID, nil), nil, nil)
}

// Previous skips to the previous track.
func (c *Client) Previous(ctx context.Context, deviceID string) error {
	return c.Post(ctx, withDevice("/me/player/previous", deviceID, nil), nil, nil)
}

// SetVolume sets the playback volume (0-100).
func (c *Client) SetVolume(ctx context.Context, percent int, deviceID string) error {
	return c.Put(ctx, withDevice("/me/player/volume", deviceID, map[string]string{
		"volume_percent": strconv.Itoa(percent),
	}), nil, nil)
}

// SetShuffle sets the shuffle mode.
func (c *Client) SetShuffle(ctx context.Context, state bool, deviceID string) error {
	return c.Put(ctx, withDevice("/me/player/shuffle", deviceID, map[string]string{
		"state": strconv.FormatBool(state),
	}), nil, nil)
}

func withDevice(path, deviceID string, params map[string]string) string {
	if deviceID != "" {
		if params == nil {
			params = make(map[string]string, 1)
		}
		params["device_id"] = deviceID
	}
	return BuildURL(path, params)
}
