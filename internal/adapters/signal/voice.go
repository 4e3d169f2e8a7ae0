package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"watchparty/internal/core"
	"watchparty/internal/domain"
)

func (ctl *Controller) handleJoinVoice(sid domain.ConnID, conn core.SignalConnection, data []byte) {
	var p struct {
		Type     string `json:"type"`
		RoomCode string `json:"roomCode"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad join-voice payload")
		ctl.sendError(conn, "bad payload")
		return
	}

	vc, err := ctl.Coord.JoinVoice(sid, p.RoomCode)
	if err != nil {
		ctl.sendError(conn, err.Error())
		return
	}

	ctl.broadcastRoom(vc.Room, struct {
		Type  string          `json:"type"`
		Users []domain.ConnID `json:"users"`
	}{"voice-chat-users", vc.Participants})

	// Each existing participant initiates a handshake toward the
	// newcomer, so each gets a pairwise arrival notice.
	for _, peer := range vc.Others {
		ctl.sendTo(vc.Room, peer, struct {
			Type     string        `json:"type"`
			ID       domain.ConnID `json:"id"`
			Username string        `json:"username"`
		}{"user-joined-voice", vc.Member.ID, vc.Member.Username})
	}
}

func (ctl *Controller) handleLeaveVoice(sid domain.ConnID, conn core.SignalConnection, data []byte) {
	var p struct {
		Type     string `json:"type"`
		RoomCode string `json:"roomCode"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad leave-voice payload")
		ctl.sendError(conn, "bad payload")
		return
	}

	vc, err := ctl.Coord.LeaveVoice(sid, p.RoomCode)
	if err != nil {
		ctl.sendError(conn, err.Error())
		return
	}
	if vc == nil {
		return
	}

	for _, peer := range vc.Others {
		ctl.sendTo(vc.Room, peer, struct {
			Type string        `json:"type"`
			ID   domain.ConnID `json:"id"`
		}{"user-left-voice", vc.Member.ID})
	}
	ctl.broadcastRoom(vc.Room, struct {
		Type  string          `json:"type"`
		Users []domain.ConnID `json:"users"`
	}{"voice-chat-users", vc.Participants})
}

// The relay never parses a handshake payload; it travels as raw JSON
// from one connection to another and is gone.

func (ctl *Controller) handleSendingSignal(sid domain.ConnID, conn core.SignalConnection, data []byte) {
	var p struct {
		Type       string          `json:"type"`
		UserToCall domain.ConnID   `json:"userToCall"`
		Signal     json.RawMessage `json:"signal"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(conn, "bad payload")
		return
	}

	room, deliver, err := ctl.Coord.Relay(sid, p.UserToCall)
	if err != nil {
		ctl.sendError(conn, err.Error())
		return
	}
	if !deliver {
		return
	}
	ctl.sendTo(room, p.UserToCall, struct {
		Type     string          `json:"type"`
		Signal   json.RawMessage `json:"signal"`
		CallerID domain.ConnID   `json:"callerID"`
	}{"receiving-signal", p.Signal, sid})
}

func (ctl *Controller) handleReturningSignal(sid domain.ConnID, conn core.SignalConnection, data []byte) {
	var p struct {
		Type     string          `json:"type"`
		CallerID domain.ConnID   `json:"callerID"`
		Signal   json.RawMessage `json:"signal"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(conn, "bad payload")
		return
	}

	room, deliver, err := ctl.Coord.Relay(sid, p.CallerID)
	if err != nil {
		ctl.sendError(conn, err.Error())
		return
	}
	if !deliver {
		return
	}
	ctl.sendTo(room, p.CallerID, struct {
		Type   string          `json:"type"`
		Signal json.RawMessage `json:"signal"`
		ID     domain.ConnID   `json:"id"`
	}{"receiving-returned-signal", p.Signal, sid})
}
