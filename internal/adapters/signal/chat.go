package signal

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"watchparty/internal/core"
	"watchparty/internal/domain"
)

func (ctl *Controller) handleSendMessage(sid domain.ConnID, conn core.SignalConnection, data []byte) {
	var p struct {
		Type     string `json:"type"`
		RoomCode string `json:"roomCode"`
		Message  string `json:"message"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad send-message payload")
		ctl.sendError(conn, "bad payload")
		return
	}

	if !ctl.chat.Allow(sid) {
		ctl.sendError(conn, "sending messages too fast")
		return
	}

	msg, room, err := ctl.Coord.PostMessage(sid, p.RoomCode, p.Message)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyMessage) {
			return
		}
		ctl.sendError(conn, err.Error())
		return
	}

	// Everyone including the sender; the sender does not render
	// optimistically.
	ctl.broadcastRoom(room, struct {
		Type string `json:"type"`
		domain.ChatMessage
	}{Type: "new-message", ChatMessage: msg})
}
