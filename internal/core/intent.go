package core

// PlaybackIntent is the desired action derived from tool arguments.
type PlaybackIntent struct {
	URIs     []string
	DeviceID string
	Shuffle  *bool
}

// HasURIs reports whether the intent names content to start.
func (i PlaybackIntent) HasURIs() bool {
	return len(i.URIs) > 0
}
