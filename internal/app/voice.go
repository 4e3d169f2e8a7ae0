package app

import (
	"watchparty/internal/core"
	"watchparty/internal/domain"
)

// VoiceChange reports a voice-set mutation: Others is who must be
// notified pairwise, Participants the refreshed set for the room-wide
// broadcast.
type VoiceChange struct {
	Room         *core.Room
	Member       domain.Member
	Others       []domain.ConnID
	Participants []domain.ConnID
}

// JoinVoice adds the connection to the room's voice-participant set.
// Every existing participant initiates a one-to-one handshake toward
// the newcomer, so they are the ones handed the arrival notice.
func (c *Coordinator) JoinVoice(sid domain.ConnID, rawCode string) (*VoiceChange, error) {
	room, ok := c.Rooms.GetRoom(rawCode)
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	sess, ok := room.SessionOf(sid)
	if !ok {
		return nil, domain.ErrNotAMember
	}
	others, err := room.JoinVoice(sid)
	if err != nil {
		return nil, err
	}
	return &VoiceChange{
		Room:         room,
		Member:       *sess.Meta(),
		Others:       others,
		Participants: room.VoiceParticipants(),
	}, nil
}

// LeaveVoice removes the connection from the voice set. Nil result when
// it was not in voice; leaving voice twice is not an error.
func (c *Coordinator) LeaveVoice(sid domain.ConnID, rawCode string) (*VoiceChange, error) {
	room, ok := c.Rooms.GetRoom(rawCode)
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	sess, ok := room.SessionOf(sid)
	if !ok {
		return nil, domain.ErrNotAMember
	}
	remaining, ok := room.LeaveVoice(sid)
	if !ok {
		return nil, nil
	}
	return &VoiceChange{
		Room:         room,
		Member:       *sess.Meta(),
		Others:       remaining,
		Participants: remaining,
	}, nil
}

// Relay resolves the room a handshake envelope travels through. The
// payload itself is never inspected. deliver is false when the target
// has disconnected (the handshake times out client-side); a live target
// in a different room is a membership error.
func (c *Coordinator) Relay(sid, target domain.ConnID) (room *core.Room, deliver bool, err error) {
	code, ok := c.Registry.RoomOf(sid)
	if !ok {
		return nil, false, domain.ErrNotAMember
	}
	room, ok = c.Rooms.GetRoom(string(code))
	if !ok {
		return nil, false, domain.ErrNotAMember
	}
	if !room.IsMember(target) {
		if _, live := c.Registry.GetSession(target); live {
			return nil, false, domain.ErrNotAMember
		}
		return nil, false, nil
	}
	return room, true, nil
}
