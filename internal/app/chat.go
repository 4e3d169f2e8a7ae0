package app

import (
	"watchparty/internal/core"
	"watchparty/internal/domain"
)

// PostMessage appends a chat message to the room's bounded history.
// Senders that are not current members get an explicit ErrNotAMember;
// membership is re-checked on every post, never cached.
func (c *Coordinator) PostMessage(sid domain.ConnID, rawCode, body string) (domain.ChatMessage, *core.Room, error) {
	room, ok := c.Rooms.GetRoom(rawCode)
	if !ok {
		return domain.ChatMessage{}, nil, domain.ErrRoomNotFound
	}
	msg, err := room.AppendMessage(sid, body)
	if err != nil {
		return domain.ChatMessage{}, nil, err
	}
	return msg, room, nil
}
