package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"watchparty/internal/core"
	"watchparty/internal/domain"
)

func (ctl *Controller) writePump(ctx context.Context, c *WsConn) {
	ticker := time.NewTicker(ctl.Cfg.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.Cfg.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.Cfg.WriteWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, sid domain.ConnID, c *WsConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		ctl.onDisconnect(sid)
		ctl.chat.Forget(sid)
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
				return
			}
			ctl.dispatch(sid, c, data)
		}
	}
}

// dispatch routes one inbound event. A panic inside a handler is
// contained here, so a single malformed message can never take the
// coordinator down for other connections.
func (ctl *Controller) dispatch(sid domain.ConnID, c core.SignalConnection, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("module", "signal").Str("sid", string(sid)).Any("panic", r).Msg("handler panic")
		}
	}()

	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad json")
		ctl.sendError(c, "bad payload")
		return
	}

	switch env.Type {
	case "join-room":
		ctl.handleJoinRoom(sid, c, data)
	case "leave-room":
		ctl.handleLeaveRoom(sid, c)
	case "load-video":
		ctl.handleLoadVideo(sid, c, data)
	case "video-play":
		ctl.handleVideoPlay(sid, data)
	case "video-pause":
		ctl.handleVideoPause(sid, data)
	case "video-seek":
		ctl.handleVideoSeek(sid, data)
	case "send-message":
		ctl.handleSendMessage(sid, c, data)
	case "join-voice-chat":
		ctl.handleJoinVoice(sid, c, data)
	case "leave-voice-chat":
		ctl.handleLeaveVoice(sid, c, data)
	case "sending-signal":
		ctl.handleSendingSignal(sid, c, data)
	case "returning-signal":
		ctl.handleReturningSignal(sid, c, data)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown event")
	}
}

func (ctl *Controller) onDisconnect(sid domain.ConnID) {
	if res := ctl.Coord.OnDisconnect(sid); res != nil {
		ctl.emitDeparture(res)
	}
}
