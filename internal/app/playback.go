package app

import (
	"github.com/rs/zerolog/log"

	"watchparty/internal/core"
	"watchparty/internal/domain"
)

// LoadVideo replaces the room's playback snapshot (host-only). Unlike
// the transport commands this one errors: a rejected load is user
// feedback, not a handoff race.
func (c *Coordinator) LoadVideo(sid domain.ConnID, rawCode, videoURL string) (*domain.PlaybackState, *core.Room, error) {
	room, ok := c.Rooms.GetRoom(rawCode)
	if !ok {
		return nil, nil, domain.ErrRoomNotFound
	}
	ps, err := domain.NewPlaybackState(videoURL)
	if err != nil {
		return nil, nil, err
	}
	if !room.SetPlaybackIfHost(sid, ps) {
		return nil, nil, domain.ErrNotHost
	}
	log.Info().Str("module", "app.playback").Str("room", string(room.Code())).Str("video", ps.VideoID).Msg("video loaded")
	return ps, room, nil
}

// Play, Pause and Seek are deliberately silent no-ops when the room is
// gone or the sender is no longer host: these commands race naturally
// with host handoff and membership changes, and the stale sender should
// not see an error for losing that race.

func (c *Coordinator) Play(sid domain.ConnID, rawCode string, position float64) (*core.Room, bool) {
	return c.transport(sid, rawCode, boolPtr(true), position)
}

func (c *Coordinator) Pause(sid domain.ConnID, rawCode string, position float64) (*core.Room, bool) {
	return c.transport(sid, rawCode, boolPtr(false), position)
}

func (c *Coordinator) Seek(sid domain.ConnID, rawCode string, position float64) (*core.Room, bool) {
	return c.transport(sid, rawCode, nil, position)
}

func (c *Coordinator) transport(sid domain.ConnID, rawCode string, playing *bool, position float64) (*core.Room, bool) {
	room, ok := c.Rooms.GetRoom(rawCode)
	if !ok {
		return nil, false
	}
	if !room.UpdateTransportIfHost(sid, playing, position) {
		return nil, false
	}
	return room, true
}

func boolPtr(b bool) *bool { return &b }
