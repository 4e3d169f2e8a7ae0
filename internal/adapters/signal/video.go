package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"watchparty/internal/core"
	"watchparty/internal/domain"
)

func (ctl *Controller) handleLoadVideo(sid domain.ConnID, conn core.SignalConnection, data []byte) {
	var p struct {
		Type     string `json:"type"`
		RoomCode string `json:"roomCode"`
		VideoURL string `json:"videoUrl"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad load-video payload")
		ctl.sendError(conn, "bad payload")
		return
	}

	ps, room, err := ctl.Coord.LoadVideo(sid, p.RoomCode, p.VideoURL)
	if err != nil {
		ctl.sendError(conn, err.Error())
		return
	}

	// The whole room, host included: nobody has the new video yet.
	ctl.broadcastRoom(room, struct {
		Type    string `json:"type"`
		VideoID string `json:"videoId"`
		Title   string `json:"title"`
	}{"video-loaded", ps.VideoID, ps.Title})
}

// Transport events relay to everyone but the sender, who already
// advanced the local player optimistically. Stale or non-host commands
// fall through without a sound.

func (ctl *Controller) handleVideoPlay(sid domain.ConnID, data []byte) {
	var p struct {
		Type        string  `json:"type"`
		RoomCode    string  `json:"roomCode"`
		CurrentTime float64 `json:"currentTime"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	if room, ok := ctl.Coord.Play(sid, p.RoomCode, p.CurrentTime); ok {
		ctl.broadcastFrom(room, sid, struct {
			Type        string  `json:"type"`
			CurrentTime float64 `json:"currentTime"`
		}{"video-play", p.CurrentTime})
	}
}

func (ctl *Controller) handleVideoPause(sid domain.ConnID, data []byte) {
	var p struct {
		Type        string  `json:"type"`
		RoomCode    string  `json:"roomCode"`
		CurrentTime float64 `json:"currentTime"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	if room, ok := ctl.Coord.Pause(sid, p.RoomCode, p.CurrentTime); ok {
		ctl.broadcastFrom(room, sid, struct {
			Type        string  `json:"type"`
			CurrentTime float64 `json:"currentTime"`
		}{"video-pause", p.CurrentTime})
	}
}

func (ctl *Controller) handleVideoSeek(sid domain.ConnID, data []byte) {
	var p struct {
		Type     string  `json:"type"`
		RoomCode string  `json:"roomCode"`
		SeekTime float64 `json:"seekTime"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	if room, ok := ctl.Coord.Seek(sid, p.RoomCode, p.SeekTime); ok {
		ctl.broadcastFrom(room, sid, struct {
			Type     string  `json:"type"`
			SeekTime float64 `json:"seekTime"`
		}{"video-seek", p.SeekTime})
	}
}
