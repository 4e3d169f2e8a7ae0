package signal

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"watchparty/internal/app"
	"watchparty/internal/core"
	"watchparty/internal/domain"
)

func (ctl *Controller) handleJoinRoom(sid domain.ConnID, conn core.SignalConnection, data []byte) {
	var p struct {
		Type     string `json:"type"`
		RoomCode string `json:"roomCode"`
		Username string `json:"username"`
		Avatar   string `json:"avatar,omitempty"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendError(conn, "bad payload")
		return
	}

	res, err := ctl.Coord.JoinRoom(sid, p.RoomCode, p.Username, p.Avatar)

	// The implicit leave of a prior room broadcasts there first, even
	// when the join itself failed afterwards.
	if res != nil && res.Left != nil && res.LeftRoom != nil {
		ctl.emitDeparture(&app.LeaveResult{
			Code:      res.LeftRoom.Code(),
			Room:      res.LeftRoom,
			Departure: *res.Left,
		})
	}
	if err != nil {
		ctl.sendError(conn, err.Error())
		return
	}

	ctl.sendJSON(conn, struct {
		Type         string                `json:"type"`
		RoomCode     domain.RoomCode       `json:"roomCode"`
		IsHost       bool                  `json:"isHost"`
		CurrentVideo *domain.PlaybackState `json:"currentVideo"`
		Messages     []domain.ChatMessage  `json:"messages"`
		Users        []domain.Member       `json:"users"`
	}{"joined-room", res.Room.Code(), res.IsHost, res.Playback, res.Messages, res.Members})

	ctl.broadcastFrom(res.Room, sid, struct {
		Type      string        `json:"type"`
		User      domain.Member `json:"user"`
		UserCount int           `json:"userCount"`
	}{"user-joined", res.Member, res.Room.MemberCount()})

	if res.Member.AvatarURL == "" && ctl.Coord.Accounts != nil {
		go ctl.backfillAvatar(sid, res.Room, res.Member.Username)
	}
}

func (ctl *Controller) handleLeaveRoom(sid domain.ConnID, conn core.SignalConnection) {
	res := ctl.Coord.Leave(sid)
	if res == nil {
		ctl.sendError(conn, domain.ErrNotAMember.Error())
		return
	}
	ctl.sendJSON(conn, struct {
		Type     string          `json:"type"`
		RoomCode domain.RoomCode `json:"roomCode"`
	}{"left-room", res.Code})
	ctl.emitDeparture(res)
}

// emitDeparture notifies whoever remains after a leave or disconnect:
// the member broadcast, the host handoff, and the voice teardown. A
// reaped room has nobody left to tell.
func (ctl *Controller) emitDeparture(res *app.LeaveResult) {
	if res.Room == nil {
		return
	}

	userLeft := struct {
		Type      string         `json:"type"`
		User      domain.Member  `json:"user"`
		UserCount int            `json:"userCount"`
		NewHost   *domain.Member `json:"newHost,omitempty"`
	}{"user-left", res.Member, res.MemberCount, res.NewHost}
	ctl.broadcastRoom(res.Room, userLeft)

	if res.NewHost != nil {
		ctl.broadcastRoom(res.Room, struct {
			Type    string        `json:"type"`
			NewHost domain.Member `json:"newHost"`
		}{"new-host", *res.NewHost})
	}

	if res.WasInVoice {
		for _, peer := range res.VoiceRemaining {
			ctl.sendTo(res.Room, peer, struct {
				Type string        `json:"type"`
				ID   domain.ConnID `json:"id"`
			}{"user-left-voice", res.Member.ID})
		}
		ctl.broadcastRoom(res.Room, struct {
			Type  string          `json:"type"`
			Users []domain.ConnID `json:"users"`
		}{"voice-chat-users", res.VoiceRemaining})
	}
}

// backfillAvatar resolves the member's profile off the mutation path
// and announces the avatar once it lands. Lookup failures are routine:
// the account service is optional and the member may be gone already.
func (ctl *Controller) backfillAvatar(sid domain.ConnID, room *core.Room, username string) {
	ctx, cancel := context.WithTimeout(context.Background(), ctl.Cfg.AccountsTimeout)
	defer cancel()
	profile, err := ctl.Coord.Accounts.LookupProfile(ctx, username)
	if err != nil {
		if !errors.Is(err, context.DeadlineExceeded) {
			log.Debug().Err(err).Str("module", "signal").Str("username", username).Msg("profile lookup failed")
		}
		return
	}
	if profile.AvatarURL == "" {
		return
	}
	member, ok := room.SetAvatar(sid, profile.AvatarURL)
	if !ok {
		return
	}
	ctl.broadcastRoom(room, struct {
		Type string        `json:"type"`
		User domain.Member `json:"user"`
	}{"user-updated", member})
}
