package app

import (
	"github.com/rs/zerolog/log"

	"watchparty/internal/accounts"
	"watchparty/internal/core"
	"watchparty/internal/domain"
)

// Coordinator drives every room mutation: membership and the host role
// here, playback/chat/voice in their own files. Adapters call in,
// get results back, and do the broadcasting themselves.
type Coordinator struct {
	Registry *Registry
	Rooms    *RoomManager
	Accounts accounts.Client
}

// JoinResult is the snapshot behind the joined-room ack.
type JoinResult struct {
	Room     *core.Room
	Member   domain.Member
	IsHost   bool
	Playback *domain.PlaybackState
	Messages []domain.ChatMessage
	Members  []domain.Member

	// Departure from the previously joined room, if the join was an
	// implicit room switch. LeftRoom is nil when that room emptied and
	// was reaped.
	Left     *core.Departure
	LeftRoom *core.Room
}

// LeaveResult reports a leave or disconnect so the adapter can notify
// the remaining members. Room is nil when the room was reaped.
type LeaveResult struct {
	Code domain.RoomCode
	Room *core.Room
	core.Departure
}

// JoinRoom attaches the connection to a live room, implicitly leaving
// any prior one. The first member of an empty room becomes host. On
// error the result may still be non-nil: it then carries the implicit
// departure, which the caller still has to broadcast.
func (c *Coordinator) JoinRoom(sid domain.ConnID, rawCode, username, avatarURL string) (*JoinResult, error) {
	sess, ok := c.Registry.GetSession(sid)
	if !ok {
		return nil, domain.ErrNotAMember
	}
	if _, err := domain.NewMember(sid, username, avatarURL); err != nil {
		return nil, err
	}

	res := &JoinResult{}

	if prior, joined := c.Registry.RoomOf(sid); joined {
		if prior == domain.NormalizeCode(rawCode) {
			room, ok := c.Rooms.GetRoom(rawCode)
			if !ok {
				return nil, domain.ErrRoomNotFound
			}
			// Re-join of the same room is an idempotent snapshot refresh.
			member, ok := room.SetIdentity(sid, username, avatarURL)
			if !ok {
				return nil, domain.ErrNotAMember
			}
			res.Room = room
			res.Member = member
			res.IsHost = room.IsHost(sid)
			res.Playback = room.Playback()
			res.Messages = room.Messages()
			res.Members = room.MembersSnapshot()
			return res, nil
		}
		if left := c.Leave(sid); left != nil {
			res.Left = &left.Departure
			res.LeftRoom = left.Room
		}
	}

	// The session belongs to no room at this point, so its meta has no
	// concurrent readers until AddMember publishes it under the room
	// lock.
	meta := sess.Meta()
	meta.Username = username
	if avatarURL != "" {
		meta.AvatarURL = avatarURL
	}

	for {
		room, ok := c.Rooms.GetRoom(rawCode)
		if !ok {
			return res, domain.ErrRoomNotFound
		}
		becameHost, ok := room.AddMember(sid, sess)
		if !ok {
			// Lost a race with the reaper: the room closed between the
			// lookup and the add. The code is gone from the manager.
			continue
		}
		res.Room = room
		res.IsHost = becameHost
		break
	}
	c.Registry.UpdateRoom(sid, res.Room.Code())

	res.Member = *meta
	res.Playback = res.Room.Playback()
	res.Messages = res.Room.Messages()
	res.Members = res.Room.MembersSnapshot()
	log.Info().Str("module", "app.coordinator").Str("sid", string(sid)).Str("room", string(res.Room.Code())).Bool("host", res.IsHost).Msg("joined room")
	return res, nil
}

// Leave detaches the connection from its room, reassigning host if
// needed, and reaps the room immediately when it empties. Nil when the
// connection had no room.
func (c *Coordinator) Leave(sid domain.ConnID) *LeaveResult {
	code, ok := c.Registry.RoomOf(sid)
	if !ok {
		return nil
	}
	room, ok := c.Rooms.GetRoom(string(code))
	if !ok {
		c.Registry.ClearRoom(sid)
		return nil
	}
	dep, ok := room.RemoveMember(sid)
	c.Registry.ClearRoom(sid)
	if !ok {
		return nil
	}
	res := &LeaveResult{Code: code, Room: room, Departure: dep}
	if dep.Empty {
		c.Rooms.RemoveIfEmpty(code)
		res.Room = nil
	}
	return res
}

// OnDisconnect is the only cancellation signal there is: immediate
// state cleanup, then the connection entry goes away.
func (c *Coordinator) OnDisconnect(sid domain.ConnID) *LeaveResult {
	res := c.Leave(sid)
	c.Registry.Unbind(sid)
	return res
}
