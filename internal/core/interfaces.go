package core

import "watchparty/internal/domain"

// Frame is a marshaled outbound event.
type Frame []byte

// SignalConnection abstracts the event transport of one client.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// MemberSession binds a domain.Member and its transport endpoint.
// This is what a room stores and fans out to.
type MemberSession interface {
	Meta() *domain.Member
	Signal() SignalConnection
}

type memberSession struct {
	meta *domain.Member
	conn SignalConnection
}

func NewMemberSession(meta *domain.Member, conn SignalConnection) MemberSession {
	return &memberSession{meta: meta, conn: conn}
}

func (m *memberSession) Meta() *domain.Member     { return m.meta }
func (m *memberSession) Signal() SignalConnection { return m.conn }

// PublishResult reports delivery stats for a fan-out. Dropped frames
// are per-member only; a slow consumer never stalls the room.
type PublishResult struct {
	SentTo  int
	Dropped int
}
