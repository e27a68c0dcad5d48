package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tessro/skyplay/internal/core"
	apperr "github.com/tessro/skyplay/internal/errors"
	"github.com/tessro/skyplay/internal/spotify/player"
)

// Player is the playback surface the music tools drive.
type Player interface {
	Devices(ctx context.Context) ([]core.Device, error)
	Start(ctx context.Context) (player.Target, error)
	Pause(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	CurrentTrack(ctx context.Context) (core.TrackSummary, bool, error)
	SetVolume(ctx context.Context, percent int) error
	AddToLibrary(ctx context.Context, trackID string) error
	PlayTrack(ctx context.Context, uri, deviceID string) (player.Target, error)
	SearchTracks(ctx context.Context, query string) ([]core.TrackSummary, error)
	PlayArtist(ctx context.Context, query, deviceID string) (player.Target, error)
	PlayLibrary(ctx context.Context, deviceID string, shuffle bool) (player.Target, error)
}

var _ Player = (*player.Controller)(nil)

const (
	noDevicesText      = "No devices found. Please open the Spotify app."
	noDevicesTrackText = "No devices found to play the track. Please open the Spotify app."
	volumeRangeText    = "Volume must be between 0 and 100."
)

func text(format string, args ...any) Result {
	return Result{Text: fmt.Sprintf(format, args...)}
}

// failure formats a playback error as "Error <doing>: <cause>".
func failure(doing string, err error) Result {
	return Result{
		Text:       fmt.Sprintf("Error %s: %s", doing, apperr.Cause(err)),
		Structured: map[string]string{"error": apperr.Cause(err), "kind": apperr.KindOf(err).String()},
		IsError:    true,
	}
}

func jsonResult(v any, structured any) Result {
	encoded, err := json.Marshal(v)
	if err != nil {
		return Result{Text: fmt.Sprintf("Error encoding result: %v", err), IsError: true}
	}
	return Result{Text: string(encoded), Structured: structured}
}

func noArgs(handler func(ctx context.Context) Result) Handler {
	return func(ctx context.Context, args map[string]any) Result {
		if err := decodeArgs(args, &struct{}{}); err != nil {
			return invalidArgs(err)
		}
		return handler(ctx)
	}
}

// RegisterSpotify adds the playback tools.
func RegisterSpotify(r *Registry, p Player) {
	r.Register(Tool{
		Name:        "get_devices_available",
		Description: "Get the device ID of the first available Spotify device. Needed to play a track or start playback on a specific device.",
		InputSchema: objectSchema(nil),
		Handler: noArgs(func(ctx context.Context) Result {
			devices, err := p.Devices(ctx)
			if err != nil {
				return failure("retrieving devices", err)
			}
			if len(devices) == 0 {
				return Result{Text: noDevicesText}
			}
			return Result{Text: devices[0].ID, Structured: map[string]any{"devices": devices}}
		}),
	})

	r.Register(Tool{
		Name:        "start_playback",
		Description: "Start or resume playing music on Spotify.",
		InputSchema: objectSchema(nil),
		Handler: noArgs(func(ctx context.Context) Result {
			target, err := p.Start(ctx)
			switch {
			case err != nil:
				return failure("starting playback", err)
			case target.NoDevices:
				return Result{Text: noDevicesText}
			case target.MustSwitch:
				return text("Playback started on device: %s.", target.Name())
			default:
				return text("Playback started.")
			}
		}),
	})

	r.Register(Tool{
		Name:        "pause_playback",
		Description: "Pause the current playback on Spotify.",
		InputSchema: objectSchema(nil),
		Handler: noArgs(func(ctx context.Context) Result {
			if err := p.Pause(ctx); err != nil {
				return failure("pausing playback", err)
			}
			return text("Playback paused.")
		}),
	})

	r.Register(Tool{
		Name:        "next_track",
		Description: "Skip to the next track in the current playlist.",
		InputSchema: objectSchema(nil),
		Handler: noArgs(func(ctx context.Context) Result {
			if err := p.Next(ctx); err != nil {
				return failure("skipping track", err)
			}
			return text("Skipped to the next track.")
		}),
	})

	r.Register(Tool{
		Name:        "previous_track",
		Description: "Go back to the previous track in the current playlist.",
		InputSchema: objectSchema(nil),
		Handler: noArgs(func(ctx context.Context) Result {
			if err := p.Previous(ctx); err != nil {
				return failure("going back to previous track", err)
			}
			return text("Went back to the previous track.")
		}),
	})

	r.Register(Tool{
		Name:        "get_current_track",
		Description: "Get the currently playing track.",
		InputSchema: objectSchema(nil),
		Handler: noArgs(func(ctx context.Context) Result {
			summary, ok, err := p.CurrentTrack(ctx)
			if err != nil {
				return failure("retrieving current track", err)
			}
			if !ok {
				return text("No track is currently playing.")
			}
			return jsonResult(summary, summary)
		}),
	})

	r.Register(Tool{
		Name:        "set_volume",
		Description: "Set the volume level (0-100). Values outside that range are rejected, not clamped.",
		InputSchema: objectSchema(map[string]any{
			"volume": map[string]any{
				"type":        "integer",
				"minimum":     0,
				"maximum":     100,
				"description": "Volume level to set, from 0 to 100.",
			},
		}, "volume"),
		Handler: func(ctx context.Context, args map[string]any) Result {
			var in struct {
				Volume any `mapstructure:"volume"`
			}
			if err := decodeArgs(args, &in); err != nil {
				return invalidArgs(err)
			}
			if in.Volume == nil {
				return invalidArgs(errors.New(`"volume" is required`))
			}
			volume, err := intArg("volume", in.Volume)
			if err != nil {
				return invalidArgs(err)
			}

			if err := p.SetVolume(ctx, volume); err != nil {
				if errors.Is(err, player.ErrVolumeRange) {
					return Result{Text: volumeRangeText, IsError: true}
				}
				return failure("setting volume", err)
			}
			return text("Volume set to %d%%.", volume)
		},
	})

	r.Register(Tool{
		Name:        "add_to_library",
		Description: "Add a track to the user's library. The current track's id can be obtained with get_current_track.",
		InputSchema: objectSchema(map[string]any{
			"id": stringProp("Spotify ID of the track to add."),
		}, "id"),
		Handler: func(ctx context.Context, args map[string]any) Result {
			var in struct {
				ID string `mapstructure:"id"`
			}
			if err := decodeArgs(args, &in); err != nil {
				return invalidArgs(err)
			}
			if err := requireArg("id", in.ID); err != nil {
				return invalidArgs(err)
			}

			if err := p.AddToLibrary(ctx, in.ID); err != nil {
				return failure("adding track to library", err)
			}
			return text("Track %s added to your library.", in.ID)
		},
	})

	r.Register(Tool{
		Name:        "reproduce_a_specific_track",
		Description: "Play a specific track by its Spotify URI. Search for the track first to get its URI. Without a device_id the first available device is used.",
		InputSchema: objectSchema(map[string]any{
			"uri":       stringProp("Spotify URI of the track to play."),
			"device_id": stringProp("Optional Spotify device ID to play the track on."),
		}, "uri"),
		Handler: func(ctx context.Context, args map[string]any) Result {
			var in struct {
				URI      string `mapstructure:"uri"`
				DeviceID string `mapstructure:"device_id"`
			}
			if err := decodeArgs(args, &in); err != nil {
				return invalidArgs(err)
			}
			if err := requireArg("uri", in.URI); err != nil {
				return invalidArgs(err)
			}

			target, err := p.PlayTrack(ctx, in.URI, in.DeviceID)
			switch {
			case err != nil:
				return failure("playing track", err)
			case target.NoDevices:
				return Result{Text: noDevicesTrackText}
			case in.DeviceID != "":
				return text("Playing track with URI: %s on device: %s.", in.URI, in.DeviceID)
			case target.MustSwitch:
				return text("Playing track with URI: %s on device: %s.", in.URI, target.Name())
			default:
				return text("Playing track with URI: %s.", in.URI)
			}
		},
	})

	r.Register(Tool{
		Name:        "search_track",
		Description: "Search for tracks. Returns up to three matches with their URIs, which can be passed to reproduce_a_specific_track.",
		InputSchema: objectSchema(map[string]any{
			"query": stringProp("Search query: a song name, optionally with the artist."),
		}, "query"),
		Handler: func(ctx context.Context, args map[string]any) Result {
			var in struct {
				Query string `mapstructure:"query"`
			}
			if err := decodeArgs(args, &in); err != nil {
				return invalidArgs(err)
			}
			if err := requireArg("query", in.Query); err != nil {
				return invalidArgs(err)
			}

			tracks, err := p.SearchTracks(ctx, in.Query)
			if err != nil {
				return failure("searching for track", err)
			}
			if len(tracks) == 0 {
				return text("No tracks found for the given query.")
			}
			return jsonResult(tracks, map[string]any{"tracks": tracks})
		},
	})

	r.Register(Tool{
		Name:        "search_artist",
		Description: "Search for an artist and play their top tracks.",
		InputSchema: objectSchema(map[string]any{
			"query":     stringProp("Search query for the artist."),
			"device_id": stringProp("Spotify device ID to play on."),
		}, "query", "device_id"),
		Handler: func(ctx context.Context, args map[string]any) Result {
			var in struct {
				Query    string `mapstructure:"query"`
				DeviceID string `mapstructure:"device_id"`
			}
			if err := decodeArgs(args, &in); err != nil {
				return invalidArgs(err)
			}
			if err := requireArg("query", in.Query); err != nil {
				return invalidArgs(err)
			}

			target, err := p.PlayArtist(ctx, in.Query, in.DeviceID)
			switch {
			case errors.Is(err, player.ErrNoArtist):
				return text("No artist found for the given query.")
			case errors.Is(err, player.ErrNoTopTracks):
				return text("No top tracks found for the given artist.")
			case err != nil:
				return failure("searching for artist", err)
			case target.NoDevices:
				return Result{Text: noDevicesText}
			default:
				return text("Playing top tracks of %s.", in.Query)
			}
		},
	})

	r.Register(Tool{
		Name:        "reproduce_library",
		Description: "Play the user's saved tracks, optionally shuffled.",
		InputSchema: objectSchema(map[string]any{
			"device_id": stringProp("Spotify device ID to play the library on."),
			"shuffle": map[string]any{
				"type":        "boolean",
				"default":     false,
				"description": "Shuffle the library.",
			},
		}, "device_id"),
		Handler: func(ctx context.Context, args map[string]any) Result {
			var in struct {
				DeviceID string `mapstructure:"device_id"`
				Shuffle  bool   `mapstructure:"shuffle"`
			}
			if err := decodeArgs(args, &in); err != nil {
				return invalidArgs(err)
			}

			target, err := p.PlayLibrary(ctx, in.DeviceID, in.Shuffle)
			switch {
			case errors.Is(err, player.ErrEmptyLibrary):
				return text("No tracks found in your library.")
			case err != nil:
				return failure("playing library", err)
			case target.NoDevices:
				return Result{Text: noDevicesText}
			default:
				return text("Playing your library on your device.")
			}
		},
	})
}
