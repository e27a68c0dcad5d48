package player

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/tessro/skyplay/internal/core"
	apperr "github.com/tessro/skyplay/internal/errors"
	"github.com/tessro/skyplay/internal/spotify/client"
)

// fakeAPI records every call as a short string.
type fakeAPI struct {
	devices    []client.Device
	devicesErr error
	state      *client.PlaybackState
	search     *client.SearchResponse
	topTracks  []client.Track
	saved      *client.SavedTracksResponse
	playErr    error

	calls []string
}

func (f *fakeAPI) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeAPI) GetDevices(ctx context.Context) ([]client.Device, error) {
	f.record("devices")
	return f.devices, f.devicesErr
}

func (f *fakeAPI) GetPlaybackState(ctx context.Context) (*client.PlaybackState, error) {
	f.record("state")
	return f.state, nil
}

func (f *fakeAPI) Play(ctx context.Context, deviceID string, opts *client.PlayOptions) error {
	var uris []string
	if opts != nil {
		uris = opts.URIs
	}
	f.record("play device=%s uris=%s", deviceID, strings.Join(uris, ","))
	return f.playErr
}

func (f *fakeAPI) Pause(ctx context.Context, deviceID string) error {
	f.record("pause")
	return nil
}

func (f *fakeAPI) Next(ctx context.Context, deviceID string) error {
	f.record("next")
	return nil
}

func (f *fakeAPI) Previous(ctx context.Context, deviceID string) error {
	f.record("previous")
	return nil
}

func (f *fakeAPI) SetVolume(ctx context.Context, percent int, deviceID string) error {
	f.record("volume %d", percent)
	return nil
}

func (f *fakeAPI) SetShuffle(ctx context.Context, state bool, deviceID string) error {
	f.record("shuffle %t device=%s", state, deviceID)
	return nil
}

func (f *fakeAPI) Search(ctx context.Context, opts client.SearchOptions) (*client.SearchResponse, error) {
	f.record("search %s limit=%d", opts.Types[0], opts.Limit)
	if f.search == nil {
		return &client.SearchResponse{}, nil
	}
	return f.search, nil
}

func (f *fakeAPI) GetArtistTopTracks(ctx context.Context, artistID, market string) ([]client.Track, error) {
	f.record("top-tracks %s", artistID)
	return f.topTracks, nil
}

func (f *fakeAPI) GetSavedTracks(ctx context.Context, limit, offset int) (*client.SavedTracksResponse, error) {
	f.record("saved limit=%d", limit)
	if f.saved == nil {
		return &client.SavedTracksResponse{}, nil
	}
	return f.saved, nil
}

func (f *fakeAPI) SaveTracks(ctx context.Context, ids []string) error {
	f.record("save %s", strings.Join(ids, ","))
	return nil
}

func (f *fakeAPI) playCalls() []string {
	var out []string
	for _, c := range f.calls {
		if strings.HasPrefix(c, "play ") {
			out = append(out, c)
		}
	}
	return out
}

func TestSelectTarget(t *testing.T) {
	phone := client.Device{ID: "A", Name: "Phone", Type: "Smartphone"}
	laptop := client.Device{ID: "B", Name: "Laptop", Type: "Computer", IsActive: true}
	activePhone := phone
	activePhone.IsActive = true

	tests := []struct {
		name       string
		devices    []client.Device
		explicit   string
		validate   bool
		want       Target
		wantName   string
		wantErr    apperr.Kind
		wantErrSet bool
	}{
		{
			name:    "empty list",
			devices: nil,
			want:    Target{NoDevices: true},
		},
		{
			name:     "empty list beats explicit id",
			devices:  nil,
			explicit: "X",
			want:     Target{NoDevices: true},
		},
		{
			name:     "first active",
			devices:  []client.Device{activePhone, laptop},
			want:     Target{DeviceID: ""},
			wantName: "Phone",
		},
		{
			name:     "first inactive",
			devices:  []client.Device{phone, laptop},
			want:     Target{DeviceID: "A", MustSwitch: true},
			wantName: "Phone",
		},
		{
			name:     "explicit known id",
			devices:  []client.Device{phone, laptop},
			explicit: "B",
			want:     Target{DeviceID: "B", MustSwitch: true},
			wantName: "Laptop",
		},
		{
			name:     "explicit unknown id passes through",
			devices:  []client.Device{phone},
			explicit: "Z",
			want:     Target{DeviceID: "Z", MustSwitch: true},
			wantName: "Z",
		},
		{
			name:       "explicit unknown id validated",
			devices:    []client.Device{phone},
			explicit:   "Z",
			validate:   true,
			wantErr:    apperr.KindNotFound,
			wantErrSet: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{devices: tt.devices}
			c := New(api, Options{ValidateDeviceIDs: tt.validate})

			got, err := c.SelectTarget(context.Background(), tt.explicit)
			if tt.wantErrSet {
				if apperr.KindOf(err) != tt.wantErr {
					t.Fatalf("error kind = %v, want %v (err: %v)", apperr.KindOf(err), tt.wantErr, err)
				}
				if !errors.Is(err, apperr.ErrDeviceNotFound) {
					t.Errorf("expected ErrDeviceNotFound, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("SelectTarget() error = %v", err)
			}
			if got.DeviceID != tt.want.DeviceID || got.MustSwitch != tt.want.MustSwitch || got.NoDevices != tt.want.NoDevices {
				t.Errorf("SelectTarget() = %+v, want %+v", got, tt.want)
			}
			if tt.wantName != "" && got.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", got.Name(), tt.wantName)
			}
			if len(api.playCalls()) != 0 {
				t.Errorf("SelectTarget must not play, calls: %v", api.calls)
			}
		})
	}
}

func TestSelectTargetDeviceError(t *testing.T) {
	api := &fakeAPI{devicesErr: apperr.E(apperr.KindAuth, "GET /me/player/devices", errors.New("expired"))}
	c := New(api, Options{})

	if _, err := c.SelectTarget(context.Background(), ""); !apperr.Is(err, apperr.KindAuth) {
		t.Errorf("expected auth error, got %v", err)
	}
}

func TestStart(t *testing.T) {
	tests := []struct {
		name     string
		devices  []client.Device
		wantPlay []string
		wantName string
	}{
		{
			name:     "inactive first device switches",
			devices:  []client.Device{{ID: "A", Name: "Phone"}},
			wantPlay: []string{"play device=A uris="},
			wantName: "Phone",
		},
		{
			name:     "active first device routes implicitly",
			devices:  []client.Device{{ID: "A", Name: "Phone", IsActive: true}},
			wantPlay: []string{"play device= uris="},
		},
		{
			name:    "no devices never plays",
			devices: []client.Device{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{devices: tt.devices}
			target, err := New(api, Options{}).Start(context.Background())
			if err != nil {
				t.Fatalf("Start() error = %v", err)
			}
			if strings.Join(api.playCalls(), ";") != strings.Join(tt.wantPlay, ";") {
				t.Errorf("play calls = %v, want %v", api.playCalls(), tt.wantPlay)
			}
			if tt.wantName != "" && target.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", target.Name(), tt.wantName)
			}
			if len(tt.devices) == 0 && !target.NoDevices {
				t.Error("expected NoDevices")
			}
		})
	}
}

func TestPlayTrack(t *testing.T) {
	tests := []struct {
		name     string
		devices  []client.Device
		deviceID string
		wantPlay string
	}{
		{"explicit device", []client.Device{{ID: "A"}}, "B", "play device=B uris=spotify:track:1"},
		{"active first", []client.Device{{ID: "A", IsActive: true}}, "", "play device= uris=spotify:track:1"},
		{"inactive first keeps uris", []client.Device{{ID: "A"}}, "", "play device=A uris=spotify:track:1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{devices: tt.devices}
			if _, err := New(api, Options{}).PlayTrack(context.Background(), "spotify:track:1", tt.deviceID); err != nil {
				t.Fatalf("PlayTrack() error = %v", err)
			}
			plays := api.playCalls()
			if len(plays) != 1 || plays[0] != tt.wantPlay {
				t.Errorf("play calls = %v, want [%s]", plays, tt.wantPlay)
			}
		})
	}
}

func TestSetVolume(t *testing.T) {
	tests := []struct {
		volume    int
		wantCalls []string
		wantErr   bool
	}{
		{0, []string{"volume 0"}, false},
		{55, []string{"volume 55"}, false},
		{100, []string{"volume 100"}, false},
		{-1, nil, true},
		{101, nil, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.volume), func(t *testing.T) {
			api := &fakeAPI{}
			err := New(api, Options{}).SetVolume(context.Background(), tt.volume)
			if tt.wantErr {
				if !apperr.Is(err, apperr.KindValidation) || !errors.Is(err, ErrVolumeRange) {
					t.Errorf("expected validation error, got %v", err)
				}
			} else if err != nil {
				t.Errorf("SetVolume() error = %v", err)
			}
			if strings.Join(api.calls, ";") != strings.Join(tt.wantCalls, ";") {
				t.Errorf("calls = %v, want %v", api.calls, tt.wantCalls)
			}
		})
	}
}

func TestCurrentTrack(t *testing.T) {
	api := &fakeAPI{state: &client.PlaybackState{
		IsPlaying:  true,
		ProgressMS: 1234,
		Item: &client.Track{
			ID:         "t1",
			Name:       "One More Time",
			DurationMS: 320000,
			Artists:    []client.Artist{{Name: "Daft Punk"}, {Name: "Romanthony"}},
			Album:      client.Album{Name: "Discovery"},
		},
	}}

	summary, ok, err := New(api, Options{}).CurrentTrack(context.Background())
	if err != nil || !ok {
		t.Fatalf("CurrentTrack() = %v, %v", ok, err)
	}
	if summary.Artist != "Daft Punk, Romanthony" || summary.Album != "Discovery" {
		t.Errorf("summary = %+v", summary)
	}
	if summary.ProgressMS == nil || *summary.ProgressMS != 1234 {
		t.Errorf("ProgressMS = %v", summary.ProgressMS)
	}

	api.state = &client.PlaybackState{}
	if _, ok, _ := New(api, Options{}).CurrentTrack(context.Background()); ok {
		t.Error("expected nothing playing")
	}
}

func TestSearchTracks(t *testing.T) {
	api := &fakeAPI{search: &client.SearchResponse{Tracks: &client.Page[client.Track]{
		Items: []client.Track{{ID: "t1", Name: "Song", URI: "spotify:track:t1", Artists: []client.Artist{{Name: "A"}}}},
	}}}

	results, err := New(api, Options{}).SearchTracks(context.Background(), "song")
	if err != nil {
		t.Fatalf("SearchTracks() error = %v", err)
	}
	if len(results) != 1 || results[0].URI != "spotify:track:t1" || results[0].Name != "Song" {
		t.Errorf("results = %+v", results)
	}
	if api.calls[0] != "search track limit=3" {
		t.Errorf("search call = %q", api.calls[0])
	}

	empty, err := New(&fakeAPI{}, Options{}).SearchTracks(context.Background(), "zzz")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("empty search = %v, %v", empty, err)
	}
}

func TestPlayArtist(t *testing.T) {
	api := &fakeAPI{
		devices: []client.Device{{ID: "A", IsActive: true}},
		search: &client.SearchResponse{Artists: &client.Page[client.Artist]{
			Items: []client.Artist{{ID: "art1", Name: "Daft Punk"}, {ID: "art2"}},
		}},
		topTracks: []client.Track{{URI: "spotify:track:1"}, {URI: "spotify:track:2"}},
	}

	if _, err := New(api, Options{}).PlayArtist(context.Background(), "daft punk", "dev9"); err != nil {
		t.Fatalf("PlayArtist() error = %v", err)
	}
	want := []string{
		"search artist limit=3",
		"top-tracks art1",
		"devices",
		"play device=dev9 uris=spotify:track:1,spotify:track:2",
	}
	if strings.Join(api.calls, ";") != strings.Join(want, ";") {
		t.Errorf("calls = %v, want %v", api.calls, want)
	}
}

func TestPlayArtistNotFound(t *testing.T) {
	_, err := New(&fakeAPI{}, Options{}).PlayArtist(context.Background(), "nobody", "")
	if !errors.Is(err, ErrNoArtist) || !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected ErrNoArtist, got %v", err)
	}

	api := &fakeAPI{search: &client.SearchResponse{Artists: &client.Page[client.Artist]{
		Items: []client.Artist{{ID: "art1"}},
	}}}
	_, err = New(api, Options{}).PlayArtist(context.Background(), "quiet", "")
	if !errors.Is(err, ErrNoTopTracks) {
		t.Errorf("expected ErrNoTopTracks, got %v", err)
	}
	if len(api.playCalls()) != 0 {
		t.Errorf("unexpected play: %v", api.calls)
	}
}

func TestPlayLibrary(t *testing.T) {
	api := &fakeAPI{
		devices: []client.Device{{ID: "A", IsActive: true}},
		saved: &client.SavedTracksResponse{Items: []client.SavedTrack{
			{Track: client.Track{URI: "spotify:track:1"}},
			{Track: client.Track{URI: "spotify:track:2"}},
		}},
	}

	if _, err := New(api, Options{}).PlayLibrary(context.Background(), "dev1", true); err != nil {
		t.Fatalf("PlayLibrary() error = %v", err)
	}
	want := []string{
		"saved limit=50",
		"devices",
		"shuffle true device=dev1",
		"play device=dev1 uris=spotify:track:1,spotify:track:2",
	}
	if strings.Join(api.calls, ";") != strings.Join(want, ";") {
		t.Errorf("calls = %v, want %v", api.calls, want)
	}

	_, err := New(&fakeAPI{}, Options{}).PlayLibrary(context.Background(), "dev1", false)
	if !errors.Is(err, ErrEmptyLibrary) {
		t.Errorf("expected ErrEmptyLibrary, got %v", err)
	}
}

func TestConvertDevice(t *testing.T) {
	volume := 30
	d := convertDevice(&client.Device{
		ID:            "device123",
		Name:          "My Speaker",
		Type:          "Speaker",
		IsActive:      true,
		VolumePercent: &volume,
	})

	if d.ID != "device123" || d.Name != "My Speaker" || !d.IsActive {
		t.Errorf("device = %+v", d)
	}
	if d.Type != core.DeviceTypeSpeaker {
		t.Errorf("Type = %q, want %q", d.Type, core.DeviceTypeSpeaker)
	}
	if d.Volume == nil || *d.Volume != 30 {
		t.Errorf("Volume = %v", d.Volume)
	}
	if got := convertDevice(&client.Device{Type: "GameConsole"}).Type; got != core.DeviceTypeUnknown {
		t.Errorf("unmapped type = %q", got)
	}
	if convertDevice(nil) != nil {
		t.Error("expected nil for nil input")
	}
}

func TestConvertTrack(t *testing.T) {
	track := convertTrack(&client.Track{
		ID:         "track123",
		URI:        "spotify:track:track123",
		Name:       "Test Song",
		DurationMS: 180000,
		Artists:    []client.Artist{{Name: "Artist One"}, {Name: "Artist Two"}},
		Album:      client.Album{Name: "Test Album"},
	})

	if track.Title != "Test Song" || track.Album != "Test Album" || track.DurationMS != 180000 {
		t.Errorf("track = %+v", track)
	}
	if len(track.Artists) != 2 {
		t.Errorf("Artists count = %d, want 2", len(track.Artists))
	}
	if convertTrack(nil) != nil {
		t.Error("expected nil for nil input")
	}
}
