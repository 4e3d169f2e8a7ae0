package core

import (
	"time"

	"watchparty/internal/domain"
)

// chatLog is a FIFO capped at cap entries. Once full, the oldest entry
// is evicted on insert; never an error.
type chatLog struct {
	cap    int
	msgs   []domain.ChatMessage
	lastID int64
}

func newChatLog(capacity int) *chatLog {
	return &chatLog{cap: capacity}
}

func (l *chatLog) Append(username, body string) domain.ChatMessage {
	now := time.Now().UnixMilli()
	id := now
	if id <= l.lastID {
		id = l.lastID + 1
	}
	l.lastID = id

	msg := domain.ChatMessage{
		ID:        id,
		Username:  username,
		Body:      body,
		Timestamp: now,
	}
	l.msgs = append(l.msgs, msg)
	if over := len(l.msgs) - l.cap; over > 0 {
		l.msgs = append(l.msgs[:0], l.msgs[over:]...)
	}
	return msg
}

func (l *chatLog) Snapshot() []domain.ChatMessage {
	out := make([]domain.ChatMessage, len(l.msgs))
	copy(out, l.msgs)
	return out
}
