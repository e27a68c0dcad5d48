package core

// PlaybackState represents the current playback state.
type PlaybackState struct {
	Track      *Track  `json:"track"`
	Device     *Device `json:"device"`
	IsPlaying  bool    `json:"is_playing"`
	ProgressMS int     `json:"progress_ms"`
	Shuffle    bool    `json:"shuffle"`
}

// HasTrack returns true if there is an active track.
func (s *PlaybackState) HasTrack() bool {
	return s != nil && s.Track != nil
}

// NowPlaying returns the playing track with its progress, or false when
// nothing is playing.
func (s *PlaybackState) NowPlaying() (TrackSummary, bool) {
	if !s.HasTrack() || !s.IsPlaying {
		return TrackSummary{}, false
	}
	summary := s.Track.Summary()
	summary.URI = ""
	progress := s.ProgressMS
	summary.ProgressMS = &progress
	return summary, true
}
