// Package player turns tool-level playback requests into Spotify Web API
// calls.
//
// Spotify has no push channel for device state, so every action that needs
// a device re-fetches the device list and treats it as a snapshot. A device
// reported active may go idle before the follow-up call lands; that window
// is the round trip between the two requests, and the follow-up call fails
// with an InvalidState error when it is hit.
package player

import (
	"context"
	"errors"

	"github.com/tessro/skyplay/internal/core"
	apperr "github.com/tessro/skyplay/internal/errors"
	"github.com/tessro/skyplay/internal/spotify/client"
)

const (
	// SearchLimit is the number of results requested for track and artist searches.
	SearchLimit = 3
	// LibraryLimit is the number of saved tracks fetched for library playback.
	LibraryLimit = 50
)

// Informational outcomes. They are wrapped as NotFound or Validation errors.
var (
	ErrVolumeRange  = errors.New("volume must be between 0 and 100")
	ErrNoArtist     = errors.New("no artist found")
	ErrNoTopTracks  = errors.New("no top tracks found")
	ErrEmptyLibrary = errors.New("no tracks in library")
)

// API is the subset of the Spotify client used by the controller.
type API interface {
	GetDevices(ctx context.Context) ([]client.Device, error)
	GetPlaybackState(ctx context.Context) (*client.PlaybackState, error)
	Play(ctx context.Context, deviceID string, opts *client.PlayOptions) error
	Pause(ctx context.Context, deviceID string) error
	Next(ctx context.Context, deviceID string) error
	Previous(ctx context.Context, deviceID string) error
	SetVolume(ctx context.Context, percent int, deviceID string) error
	SetShuffle(ctx context.Context, state bool, deviceID string) error
	Search(ctx context.Context, opts client.SearchOptions) (*client.SearchResponse, error)
	GetArtistTopTracks(ctx context.Context, artistID, market string) ([]client.Track, error)
	GetSavedTracks(ctx context.Context, limit, offset int) (*client.SavedTracksResponse, error)
	SaveTracks(ctx context.Context, ids []string) error
}

var _ API = (*client.Client)(nil)

// Options tunes controller behavior.
type Options struct {
	// ValidateDeviceIDs rejects caller-supplied device ids that are not in
	// the freshly fetched device list. Off by default: ids pass through.
	ValidateDeviceIDs bool
	// Market for artist top tracks. Empty uses the account's market.
	Market string
}

// Controller issues playback actions against Spotify.
type Controller struct {
	api  API
	opts Options
}

// New creates a controller.
func New(api API, opts Options) *Controller {
	return &Controller{api: api, opts: opts}
}

// Target is the outcome of device selection.
type Target struct {
	// DeviceID is passed to the play call. Empty means "let Spotify route
	// to the active device".
	DeviceID string
	// MustSwitch is set when playback is directed at a specific device.
	MustSwitch bool
	// Device is the snapshot entry for the target, when known.
	Device *core.Device
	// NoDevices is set when the device list was empty. No playback call
	// is made in that case.
	NoDevices bool
}

// Name returns the display name of the target device, falling back to its id.
func (t Target) Name() string {
	if t.Device != nil && t.Device.Name != "" {
		return t.Device.Name
	}
	return t.DeviceID
}

// Devices returns the current device snapshot in Spotify's order.
func (c *Controller) Devices(ctx context.Context) ([]core.Device, error) {
	devices, err := c.api.GetDevices(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]core.Device, len(devices))
	for i := range devices {
		result[i] = *convertDevice(&devices[i])
	}
	return result, nil
}

// SelectTarget picks the device a playback call should go to.
//
// The list is fetched first, so an empty list wins over an explicit id.
// An explicit id is then used as given. Without one, the first device is
// used: if it is already active no id is sent, otherwise its id is sent so
// Spotify moves playback there.
func (c *Controller) SelectTarget(ctx context.Context, explicitID string) (Target, error) {
	devices, err := c.Devices(ctx)
	if err != nil {
		return Target{}, err
	}
	if len(devices) == 0 {
		return Target{NoDevices: true}, nil
	}

	if explicitID != "" {
		device := core.FindDevice(devices, explicitID)
		if device == nil && c.opts.ValidateDeviceIDs {
			return Target{}, apperr.Ef(apperr.KindNotFound, "select device", "%w: %s", apperr.ErrDeviceNotFound, explicitID)
		}
		return Target{DeviceID: explicitID, MustSwitch: true, Device: device}, nil
	}

	first := devices[0]
	if first.IsActive {
		return Target{Device: &first}, nil
	}
	return Target{DeviceID: first.ID, MustSwitch: true, Device: &first}, nil
}

func (c *Controller) play(ctx context.Context, intent core.PlaybackIntent) error {
	if intent.Shuffle != nil {
		if err := c.api.SetShuffle(ctx, *intent.Shuffle, intent.DeviceID); err != nil {
			return err
		}
	}

	var opts *client.PlayOptions
	if intent.HasURIs() {
		opts = &client.PlayOptions{URIs: intent.URIs}
	}
	return c.api.Play(ctx, intent.DeviceID, opts)
}

// Start resumes playback on the selected device.
func (c *Controller) Start(ctx context.Context) (Target, error) {
	target, err := c.SelectTarget(ctx, "")
	if err != nil || target.NoDevices {
		return target, err
	}
	return target, c.play(ctx, core.PlaybackIntent{DeviceID: target.DeviceID})
}

// PlayTrack plays a single track URI on the given device, or on the
// selected device when deviceID is empty.
func (c *Controller) PlayTrack(ctx context.Context, uri, deviceID string) (Target, error) {
	target, err := c.SelectTarget(ctx, deviceID)
	if err != nil || target.NoDevices {
		return target, err
	}
	return target, c.play(ctx, core.PlaybackIntent{URIs: []string{uri}, DeviceID: target.DeviceID})
}

// Pause pauses playback on the active device.
func (c *Controller) Pause(ctx context.Context) error {
	return c.api.Pause(ctx, "")
}

// Next skips to the next track.
func (c *Controller) Next(ctx context.Context) error {
	return c.api.Next(ctx, "")
}

// Previous goes back to the previous track.
func (c *Controller) Previous(ctx context.Context) error {
	return c.api.Previous(ctx, "")
}

// SetVolume sets the volume of the active device. Values outside 0-100 are
// rejected without calling Spotify.
func (c *Controller) SetVolume(ctx context.Context, percent int) error {
	if percent < 0 || percent > 100 {
		return apperr.E(apperr.KindValidation, "set volume", ErrVolumeRange)
	}
	return c.api.SetVolume(ctx, percent, "")
}

// CurrentTrack returns the track that is playing right now.
func (c *Controller) CurrentTrack(ctx context.Context) (core.TrackSummary, bool, error) {
	state, err := c.api.GetPlaybackState(ctx)
	if err != nil {
		return core.TrackSummary{}, false, err
	}
	summary, ok := convertState(state).NowPlaying()
	return summary, ok, nil
}

// AddToLibrary saves a track to the user's library.
func (c *Controller) AddToLibrary(ctx context.Context, trackID string) error {
	if trackID == "" {
		return apperr.Ef(apperr.KindValidation, "add to library", "track id is required")
	}
	return c.api.SaveTracks(ctx, []string{trackID})
}

// SearchTracks returns up to SearchLimit tracks matching query. No matches
// yields an empty slice.
func (c *Controller) SearchTracks(ctx context.Context, query string) ([]core.TrackSummary, error) {
	resp, err := c.api.Search(ctx, client.SearchOptions{
		Query: query,
		Types: []client.SearchType{client.SearchTypeTrack},
		Limit: SearchLimit,
	})
	if err != nil {
		return nil, err
	}
	if resp.Tracks == nil {
		return []core.TrackSummary{}, nil
	}

	results := make([]core.TrackSummary, 0, len(resp.Tracks.Items))
	for i := range resp.Tracks.Items {
		results = append(results, convertTrack(&resp.Tracks.Items[i]).Summary())
	}
	return results, nil
}

// PlayArtist plays the top tracks of the best artist match for query.
func (c *Controller) PlayArtist(ctx context.Context, query, deviceID string) (Target, error) {
	resp, err := c.api.Search(ctx, client.SearchOptions{
		Query: query,
		Types: []client.SearchType{client.SearchTypeArtist},
		Limit: SearchLimit,
	})
	if err != nil {
		return Target{}, err
	}
	if resp.Artists == nil || len(resp.Artists.Items) == 0 {
		return Target{}, apperr.E(apperr.KindNotFound, "search artist", ErrNoArtist)
	}

	tracks, err := c.api.GetArtistTopTracks(ctx, resp.Artists.Items[0].ID, c.opts.Market)
	if err != nil {
		return Target{}, err
	}
	if len(tracks) == 0 {
		return Target{}, apperr.E(apperr.KindNotFound, "artist top tracks", ErrNoTopTracks)
	}

	uris := make([]string, len(tracks))
	for i, t := range tracks {
		uris[i] = t.URI
	}

	target, err := c.SelectTarget(ctx, deviceID)
	if err != nil || target.NoDevices {
		return target, err
	}
	return target, c.play(ctx, core.PlaybackIntent{URIs: uris, DeviceID: target.DeviceID})
}

// PlayLibrary plays the first LibraryLimit saved tracks, setting the
// shuffle mode first.
func (c *Controller) PlayLibrary(ctx context.Context, deviceID string, shuffle bool) (Target, error) {
	page, err := c.api.GetSavedTracks(ctx, LibraryLimit, 0)
	if err != nil {
		return Target{}, err
	}
	if len(page.Items) == 0 {
		return Target{}, apperr.E(apperr.KindNotFound, "saved tracks", ErrEmptyLibrary)
	}

	uris := make([]string, len(page.Items))
	for i, item := range page.Items {
		uris[i] = item.Track.URI
	}

	target, err := c.SelectTarget(ctx, deviceID)
	if err != nil || target.NoDevices {
		return target, err
	}
	return target, c.play(ctx, core.PlaybackIntent{URIs: uris, DeviceID: target.DeviceID, Shuffle: &shuffle})
}

// PlaybackState returns the full playback state.
func (c *Controller) PlaybackState(ctx context.Context) (*core.PlaybackState, error) {
	state, err := c.api.GetPlaybackState(ctx)
	if err != nil {
		return nil, err
	}
	return convertState(state), nil
}

func convertState(state *client.PlaybackState) *core.PlaybackState {
	if state == nil {
		return &core.PlaybackState{}
	}

	result := &core.PlaybackState{
		IsPlaying:  state.IsPlaying,
		ProgressMS: state.ProgressMS,
		Shuffle:    state.ShuffleState,
	}
	if state.Device.ID != "" {
		result.Device = convertDevice(&state.Device)
	}
	if state.Item != nil {
		result.Track = convertTrack(state.Item)
	}
	return result
}

// convertTrack converts a Spotify track to a core track.
func convertTrack(t *client.Track) *core.Track {
	if t == nil {
		return nil
	}

	artists := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = a.Name
	}

	return &core.Track{
		ID:         t.ID,
		URI:        t.URI,
		Title:      t.Name,
		Artists:    artists,
		Album:      t.Album.Name,
		DurationMS: t.DurationMS,
	}
}

// convertDevice converts a Spotify device to a core device.
func convertDevice(d *client.Device) *core.Device {
	if d == nil {
		return nil
	}

	deviceType := core.DeviceTypeUnknown
	switch d.Type {
	case "Computer":
		deviceType = core.DeviceTypeComputer
	case "Smartphone":
		deviceType = core.DeviceTypePhone
	case "Speaker":
		deviceType = core.DeviceTypeSpeaker
	case "TV":
		deviceType = core.DeviceTypeTV
	}

	return &core.Device{
		ID:         d.ID,
		Name:       d.Name,
		Type:       deviceType,
		IsActive:   d.IsActive,
		Restricted: d.IsRestricted,
		Volume:     d.VolumePercent,
	}
}
