package domain

import "regexp"

// PlaybackState is the latest playback snapshot for a room. It is
// overwritten wholesale on load and mutated only by host transport
// commands; no history is kept.
type PlaybackState struct {
	VideoID  string  `json:"videoId"`
	Title    string  `json:"title"`
	Position float64 `json:"currentTime"`
	Playing  bool    `json:"isPlaying"`
}

// Accepted reference shapes; the id is exactly 11 URL-safe characters
// in all of them.
var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`[?&]v=([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`/embed/([A-Za-z0-9_-]{11})`),
}

// ExtractVideoID pulls the 11-character video id out of a short-link,
// watch-page or embed url.
func ExtractVideoID(url string) (string, error) {
	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(url); m != nil {
			return m[1], nil
		}
	}
	return "", ErrInvalidReference
}

// NewPlaybackState builds the snapshot for a freshly loaded video:
// position zero, paused.
func NewPlaybackState(url string) (*PlaybackState, error) {
	id, err := ExtractVideoID(url)
	if err != nil {
		return nil, err
	}
	return &PlaybackState{
		VideoID: id,
		Title:   "Video " + id,
	}, nil
}
