package app

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"watchparty/internal/core"
	"watchparty/internal/domain"
)

// RoomManager owns the code-to-room map, the only global mutable
// structure. Codes are unique among currently live rooms only; a code
// may be reused after its room is destroyed.
type RoomManager struct {
	chatHistory int

	mu    sync.RWMutex
	rooms map[domain.RoomCode]*core.Room
}

func NewRoomManager(chatHistory int) *RoomManager {
	return &RoomManager{
		chatHistory: chatHistory,
		rooms:       make(map[domain.RoomCode]*core.Room),
	}
}

// CreateRoom inserts an empty room under a fresh code: no host, no
// members, no playback, empty chat.
func (m *RoomManager) CreateRoom() *core.Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	var code domain.RoomCode
	for {
		code = generateCode()
		if _, taken := m.rooms[code]; !taken {
			break
		}
	}
	room := core.NewRoom(code, m.chatHistory)
	m.rooms[code] = room
	log.Info().Str("module", "app.rooms").Str("room", string(code)).Msg("room created")
	return room
}

// GetRoom is a case-insensitive lookup; metadata reads never require
// joining.
func (m *RoomManager) GetRoom(raw string) (*core.Room, bool) {
	code := domain.NormalizeCode(raw)
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[code]
	return room, ok
}

func (m *RoomManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// RemoveIfEmpty is the immediate sweep, invoked after every leave or
// disconnect. The room is closed and its code dropped in one step, so
// a joiner racing the sweep either finds the code gone or gets refused
// by the closed room and looks the code up again.
func (m *RoomManager) RemoveIfEmpty(code domain.RoomCode) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[code]
	if !ok || !room.CloseIfEmpty() {
		return false
	}
	delete(m.rooms, code)
	log.Info().Str("module", "app.rooms").Str("room", string(code)).Msg("empty room removed")
	return true
}

// Sweep deletes rooms that have no members and were created before the
// retention window. Safety net for any path that missed the immediate
// sweep; returns how many rooms were reaped.
func (m *RoomManager) Sweep(now time.Time, retention time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	reaped := 0
	for code, room := range m.rooms {
		if now.Sub(room.CreatedAt()) > retention && room.CloseIfEmpty() {
			delete(m.rooms, code)
			reaped++
		}
	}
	return reaped
}

func generateCode() domain.RoomCode {
	buf := make([]byte, domain.CodeLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	for i, b := range buf {
		buf[i] = domain.CodeAlphabet[int(b)%len(domain.CodeAlphabet)]
	}
	return domain.RoomCode(buf)
}
