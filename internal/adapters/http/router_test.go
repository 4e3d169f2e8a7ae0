package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watchparty/internal/accounts"
	"watchparty/internal/app"
	"watchparty/internal/config"
	"watchparty/internal/core"
	"watchparty/internal/domain"
)

func testRouter() (*gin.Engine, *app.Coordinator) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Mode:           "release",
		StaticPath:     "./testdata",
		Secret:         "test",
		ReadLimit:      32768,
		PingPeriod:     time.Minute,
		WriteWait:      time.Second,
		SendBuffer:     8,
		ChatRateLimit:  10,
		ChatRateWindow: time.Second,
	}
	coord := &app.Coordinator{
		Registry: app.NewRegistry(),
		Rooms:    app.NewRoomManager(50),
		Accounts: accounts.Noop{},
	}
	return SetupRouter(context.Background(), cfg, coord), coord
}

func TestCreateRoomEndpoint(t *testing.T) {
	r, coord := testRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/create-room", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var body struct {
		RoomCode string `json:"roomCode"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.RoomCode, domain.CodeLength)
	_, ok := coord.Rooms.GetRoom(body.RoomCode)
	assert.True(t, ok)
}

func TestRoomLookupEndpoint(t *testing.T) {
	r, coord := testRouter()
	room := coord.Rooms.CreateRoom()
	room.AddMember("x", core.NewMemberSession(&domain.Member{ID: "x", Username: "x"}, noopConn{}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/room/"+string(room.Code()), nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		RoomCode  string `json:"roomCode"`
		UserCount int    `json:"userCount"`
		Exists    bool   `json:"exists"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, string(room.Code()), body.RoomCode)
	assert.Equal(t, 1, body.UserCount)
	assert.True(t, body.Exists)
}

func TestRoomLookupNotFound(t *testing.T) {
	r, _ := testRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/room/NOROOM", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestDeletedRoomIsNotFound(t *testing.T) {
	r, coord := testRouter()
	room := coord.Rooms.CreateRoom()
	room.AddMember("x", core.NewMemberSession(&domain.Member{ID: "x", Username: "x"}, noopConn{}))
	room.RemoveMember("x")
	coord.Rooms.RemoveIfEmpty(room.Code())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/room/"+string(room.Code()), nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthEndpoint(t *testing.T) {
	r, coord := testRouter()
	coord.Rooms.CreateRoom()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Status string `json:"status"`
		Rooms  int    `json:"rooms"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 1, body.Rooms)
}

// Two tabs of one browser share the client-token cookie but each
// socket is its own member.
func TestEachSocketIsItsOwnMember(t *testing.T) {
	r, coord := testRouter()
	srv := httptest.NewServer(r)
	defer srv.Close()
	room := coord.Rooms.CreateRoom()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	header := http.Header{"Cookie": {"ct=same-browser"}}

	first := dialAndJoin(t, wsURL, header, room.Code(), "alice")
	defer first.Close()
	second := dialAndJoin(t, wsURL, header, room.Code(), "bob")
	defer second.Close()

	assert.Equal(t, 2, room.MemberCount())
	users := room.MembersSnapshot()
	require.Len(t, users, 2)
	assert.NotEqual(t, users[0].ID, users[1].ID)
}

func dialAndJoin(t *testing.T, url string, header http.Header, code domain.RoomCode, username string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}

	join := fmt.Sprintf(`{"type":"join-room","roomCode":%q,"username":%q}`, code, username)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(join)))

	deadline := time.Now().Add(2 * time.Second)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)
		var env struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(msg, &env))
		if env.Type == "joined-room" {
			return conn
		}
	}
}

type noopConn struct{}

func (noopConn) TrySend(core.Frame) error { return nil }
func (noopConn) Close()                   {}
