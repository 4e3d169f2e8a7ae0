package core

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"watchparty/internal/domain"
)

// Room is thread-safe in-memory session state: ordered membership, the
// host role, the latest playback snapshot, bounded chat history and the
// voice-participant set. Every command mutates one room under one lock
// acquisition, so no two commands for the same room interleave
// mid-mutation. It never closes adapter-owned connections.
type Room struct {
	code      domain.RoomCode
	createdAt time.Time

	mu       sync.RWMutex
	closed   bool
	members  []memberEntry // join order
	host     domain.ConnID
	playback *domain.PlaybackState
	chat     *chatLog
	voice    map[domain.ConnID]struct{}
}

type memberEntry struct {
	sid     domain.ConnID
	session MemberSession
}

// Departure reports everything the adapter needs to broadcast after a
// member is removed.
type Departure struct {
	Member         domain.Member
	NewHost        *domain.Member
	WasInVoice     bool
	VoiceRemaining []domain.ConnID
	MemberCount    int
	Empty          bool
}

func NewRoom(code domain.RoomCode, chatHistory int) *Room {
	return &Room{
		code:      code,
		createdAt: time.Now(),
		chat:      newChatLog(chatHistory),
		voice:     make(map[domain.ConnID]struct{}),
	}
}

func (r *Room) Code() domain.RoomCode { return r.code }
func (r *Room) CreatedAt() time.Time  { return r.createdAt }

func (r *Room) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

func (r *Room) IsMember(sid domain.ConnID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.indexOf(sid) >= 0
}

func (r *Room) Host() domain.ConnID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.host
}

func (r *Room) IsHost(sid domain.ConnID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.host != "" && r.host == sid
}

// AddMember appends the session in join order. The first member of an
// empty room becomes host; joining a non-empty room never changes the
// existing host. ok is false when the room has been closed, meaning the
// manager already dropped the code and the caller holds a stale pointer.
func (r *Room) AddMember(sid domain.ConnID, ms MemberSession) (becameHost, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false, false
	}
	becameHost = len(r.members) == 0
	if becameHost {
		r.host = sid
	}
	r.members = append(r.members, memberEntry{sid: sid, session: ms})
	log.Info().Str("module", "core.room").Str("room", string(r.code)).Str("sid", string(sid)).Bool("host", becameHost).Msg("member added")
	return becameHost, true
}

// CloseIfEmpty marks a memberless room closed so that no joiner can
// land in it once the manager forgets the code. The manager calls this
// and deletes the map entry under its own lock, together.
func (r *Room) CloseIfEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.members) > 0 {
		return false
	}
	r.closed = true
	return true
}

// RemoveMember drops the member, reassigns host to the longest-standing
// remaining member if the host left, and clears voice participation.
func (r *Room) RemoveMember(sid domain.ConnID) (Departure, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(sid)
	if i < 0 {
		return Departure{}, false
	}
	dep := Departure{Member: *r.members[i].session.Meta()}
	r.members = append(r.members[:i], r.members[i+1:]...)

	if _, ok := r.voice[sid]; ok {
		dep.WasInVoice = true
		delete(r.voice, sid)
		dep.VoiceRemaining = r.voiceLocked()
	}

	if r.host == sid {
		if len(r.members) > 0 {
			r.host = r.members[0].sid
			meta := *r.members[0].session.Meta()
			dep.NewHost = &meta
		} else {
			r.host = ""
		}
	}

	dep.MemberCount = len(r.members)
	dep.Empty = len(r.members) == 0
	log.Info().Str("module", "core.room").Str("room", string(r.code)).Str("sid", string(sid)).Int("remaining", dep.MemberCount).Msg("member removed")
	return dep, true
}

func (r *Room) SessionOf(sid domain.ConnID) (MemberSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.indexOf(sid); i >= 0 {
		return r.members[i].session, true
	}
	return nil, false
}

// MembersSnapshot returns value copies in join order, safe to marshal.
func (r *Room) MembersSnapshot() []domain.Member {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Member, 0, len(r.members))
	for _, e := range r.members {
		out = append(out, *e.session.Meta())
	}
	return out
}

// SetIdentity renames a current member. Member meta is only ever
// written under the room lock while the member belongs to a room;
// empty avatarURL keeps the existing one.
func (r *Room) SetIdentity(sid domain.ConnID, username, avatarURL string) (domain.Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(sid)
	if i < 0 {
		return domain.Member{}, false
	}
	meta := r.members[i].session.Meta()
	meta.Username = username
	if avatarURL != "" {
		meta.AvatarURL = avatarURL
	}
	return *meta, true
}

// SetAvatar patches a member's avatar reference once the external
// profile lookup resolves.
func (r *Room) SetAvatar(sid domain.ConnID, url string) (domain.Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(sid)
	if i < 0 {
		return domain.Member{}, false
	}
	meta := r.members[i].session.Meta()
	meta.AvatarURL = url
	return *meta, true
}

// Playback returns a copy of the current snapshot, nil until a video is
// loaded.
func (r *Room) Playback() *domain.PlaybackState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.playback == nil {
		return nil
	}
	ps := *r.playback
	return &ps
}

// SetPlaybackIfHost overwrites the snapshot wholesale. The host gate is
// re-evaluated inside the lock; host can change between commands.
func (r *Room) SetPlaybackIfHost(sid domain.ConnID, ps *domain.PlaybackState) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.host != sid {
		return false
	}
	r.playback = ps
	return true
}

// UpdateTransportIfHost applies a play/pause/seek from the host.
// playing is nil for seek. Reports false when the sender is not host or
// nothing is loaded; callers treat that as a silent no-op.
func (r *Room) UpdateTransportIfHost(sid domain.ConnID, playing *bool, position float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.host != sid || r.playback == nil {
		return false
	}
	if position < 0 {
		position = 0
	}
	r.playback.Position = position
	if playing != nil {
		r.playback.Playing = *playing
	}
	return true
}

// AppendMessage trims, bounds and appends a chat message from a current
// member.
func (r *Room) AppendMessage(sid domain.ConnID, body string) (domain.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(sid)
	if i < 0 {
		return domain.ChatMessage{}, domain.ErrNotAMember
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return domain.ChatMessage{}, domain.ErrEmptyMessage
	}
	if runes := []rune(body); len(runes) > maxMessageLen {
		body = string(runes[:maxMessageLen])
	}
	return r.chat.Append(r.members[i].session.Meta().Username, body), nil
}

const maxMessageLen = 500

func (r *Room) Messages() []domain.ChatMessage {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.chat.Snapshot()
}

// JoinVoice adds the member to the voice set and returns the other
// participants, each of whom initiates a handshake toward the newcomer.
func (r *Room) JoinVoice(sid domain.ConnID) ([]domain.ConnID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexOf(sid) < 0 {
		return nil, domain.ErrNotAMember
	}
	delete(r.voice, sid)
	others := r.voiceLocked()
	r.voice[sid] = struct{}{}
	return others, nil
}

// LeaveVoice removes the member from the voice set and returns the
// remaining participants so they can tear down their peer connections.
func (r *Room) LeaveVoice(sid domain.ConnID) ([]domain.ConnID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.voice[sid]; !ok {
		return nil, false
	}
	delete(r.voice, sid)
	return r.voiceLocked(), true
}

// VoiceParticipants lists the voice set in member join order.
func (r *Room) VoiceParticipants() []domain.ConnID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.voiceLocked()
}

// Broadcast fans a frame out to every member, excluding from when it is
// non-empty (the sender already applied the change locally). Delivery
// is non-blocking; a full buffer drops that frame for that member only.
func (r *Room) Broadcast(from domain.ConnID, f Frame) PublishResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := PublishResult{}
	for _, e := range r.members {
		if from != "" && e.sid == from {
			continue
		}
		if err := e.session.Signal().TrySend(f); err != nil {
			res.Dropped++
			continue
		}
		res.SentTo++
	}
	if res.Dropped > 0 {
		log.Warn().Str("module", "core.room").Str("room", string(r.code)).Int("dropped", res.Dropped).Msg("broadcast dropped frames")
	}
	return res
}

// Send delivers a frame to one member; false when the target is not a
// current member.
func (r *Room) Send(to domain.ConnID, f Frame) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := r.indexOf(to)
	if i < 0 {
		return false
	}
	return r.members[i].session.Signal().TrySend(f) == nil
}

func (r *Room) indexOf(sid domain.ConnID) int {
	for i, e := range r.members {
		if e.sid == sid {
			return i
		}
	}
	return -1
}

// voiceLocked lists voice participants in join order; callers hold r.mu.
func (r *Room) voiceLocked() []domain.ConnID {
	out := make([]domain.ConnID, 0, len(r.voice))
	for _, e := range r.members {
		if _, ok := r.voice[e.sid]; ok {
			out = append(out, e.sid)
		}
	}
	return out
}
