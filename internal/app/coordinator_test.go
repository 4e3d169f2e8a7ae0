package app

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watchparty/internal/accounts"
	"watchparty/internal/core"
	"watchparty/internal/domain"
)

func newCoordinator() *Coordinator {
	return &Coordinator{
		Registry: NewRegistry(),
		Rooms:    NewRoomManager(50),
		Accounts: accounts.Noop{},
	}
}

func connect(c *Coordinator, sid domain.ConnID) {
	meta := &domain.Member{ID: sid}
	c.Registry.Bind(sid, core.NewMemberSession(meta, &dummyConn{}), nil)
}

func TestJoinUnknownRoom(t *testing.T) {
	c := newCoordinator()
	connect(c, "x")
	_, err := c.JoinRoom("x", "NOROOM", "alice", "")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestJoinRejectsEmptyUsername(t *testing.T) {
	c := newCoordinator()
	connect(c, "x")
	room := c.Rooms.CreateRoom()
	_, err := c.JoinRoom("x", string(room.Code()), "", "")
	assert.ErrorIs(t, err, domain.ErrUsernameEmpty)
}

// The end-to-end session: X creates and hosts, Y follows, X loads a
// video, X disconnects, Y inherits the host role and may control
// playback.
func TestHostHandoffScenario(t *testing.T) {
	c := newCoordinator()
	room := c.Rooms.CreateRoom()
	code := string(room.Code())

	connect(c, "x")
	resX, err := c.JoinRoom("x", code, "xavier", "")
	require.NoError(t, err)
	assert.True(t, resX.IsHost)
	assert.Nil(t, resX.Playback)

	connect(c, "y")
	resY, err := c.JoinRoom("y", code, "yvonne", "")
	require.NoError(t, err)
	assert.False(t, resY.IsHost)
	require.Len(t, resY.Members, 2)
	assert.Equal(t, "xavier", resY.Members[0].Username)

	// Non-host load is an error, not a silent no-op.
	_, _, err = c.LoadVideo("y", code, "https://youtu.be/dQw4w9WgXcQ")
	assert.ErrorIs(t, err, domain.ErrNotHost)

	ps, _, err := c.LoadVideo("x", code, "https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "dQw4w9WgXcQ", ps.VideoID)

	// Stale transport from the non-host: silent no-op.
	_, ok := c.Play("y", code, 1.0)
	assert.False(t, ok)

	left := c.OnDisconnect("x")
	require.NotNil(t, left)
	require.NotNil(t, left.NewHost)
	assert.Equal(t, domain.ConnID("y"), left.NewHost.ID)
	assert.Equal(t, 1, left.MemberCount)

	room2, ok := c.Play("y", code, 2.5)
	require.True(t, ok)
	ps2 := room2.Playback()
	assert.True(t, ps2.Playing)
	assert.Equal(t, 2.5, ps2.Position)
}

func TestImplicitLeaveOnRoomSwitch(t *testing.T) {
	c := newCoordinator()
	roomA := c.Rooms.CreateRoom()
	roomB := c.Rooms.CreateRoom()

	connect(c, "x")
	connect(c, "y")
	_, err := c.JoinRoom("x", string(roomA.Code()), "xavier", "")
	require.NoError(t, err)
	_, err = c.JoinRoom("y", string(roomA.Code()), "yvonne", "")
	require.NoError(t, err)

	res, err := c.JoinRoom("x", string(roomB.Code()), "xavier", "")
	require.NoError(t, err)
	require.NotNil(t, res.Left, "switching rooms implies leaving the first")
	require.NotNil(t, res.LeftRoom)
	assert.Equal(t, roomA.Code(), res.LeftRoom.Code())
	require.NotNil(t, res.Left.NewHost)
	assert.Equal(t, domain.ConnID("y"), res.Left.NewHost.ID)
	assert.True(t, res.IsHost, "first into room B")

	assert.Equal(t, 1, roomA.MemberCount())
	assert.False(t, roomA.IsMember("x"))
}

func TestRoomSwitchReapsEmptiedRoom(t *testing.T) {
	c := newCoordinator()
	roomA := c.Rooms.CreateRoom()
	roomB := c.Rooms.CreateRoom()

	connect(c, "x")
	_, err := c.JoinRoom("x", string(roomA.Code()), "xavier", "")
	require.NoError(t, err)

	res, err := c.JoinRoom("x", string(roomB.Code()), "xavier", "")
	require.NoError(t, err)
	assert.Nil(t, res.LeftRoom, "emptied room is gone, nobody to notify")

	_, ok := c.Rooms.GetRoom(string(roomA.Code()))
	assert.False(t, ok, "immediate sweep on the triggering leave")
}

func TestRejoinSameRoomIsIdempotent(t *testing.T) {
	c := newCoordinator()
	room := c.Rooms.CreateRoom()
	connect(c, "x")
	_, err := c.JoinRoom("x", string(room.Code()), "xavier", "")
	require.NoError(t, err)

	res, err := c.JoinRoom("x", string(room.Code()), "xavier", "")
	require.NoError(t, err)
	assert.True(t, res.IsHost, "rejoin must not forfeit the host role")
	assert.Nil(t, res.Left)
	assert.Equal(t, 1, room.MemberCount())
}

func TestLeaveWithoutRoom(t *testing.T) {
	c := newCoordinator()
	connect(c, "x")
	assert.Nil(t, c.Leave("x"))
}

func TestChatHistoryBoundForNewJoiner(t *testing.T) {
	c := newCoordinator()
	room := c.Rooms.CreateRoom()
	code := string(room.Code())

	connect(c, "x")
	_, err := c.JoinRoom("x", code, "xavier", "")
	require.NoError(t, err)

	for i := 0; i < 60; i++ {
		_, _, err := c.PostMessage("x", code, fmt.Sprintf("msg-%d", i))
		require.NoError(t, err)
	}

	connect(c, "z")
	res, err := c.JoinRoom("z", code, "zoe", "")
	require.NoError(t, err)
	require.Len(t, res.Messages, 50)
	assert.Equal(t, "msg-10", res.Messages[0].Body)
	assert.Equal(t, "msg-59", res.Messages[49].Body)
}

func TestPostMessageFromOutsider(t *testing.T) {
	c := newCoordinator()
	room := c.Rooms.CreateRoom()
	connect(c, "x")

	_, _, err := c.PostMessage("x", string(room.Code()), "hi")
	assert.ErrorIs(t, err, domain.ErrNotAMember)

	_, _, err = c.PostMessage("x", "NOROOM", "hi")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestRelayScoping(t *testing.T) {
	c := newCoordinator()
	roomA := c.Rooms.CreateRoom()
	roomB := c.Rooms.CreateRoom()

	for _, sid := range []domain.ConnID{"x", "y", "z"} {
		connect(c, sid)
	}
	_, err := c.JoinRoom("x", string(roomA.Code()), "xavier", "")
	require.NoError(t, err)
	_, err = c.JoinRoom("y", string(roomA.Code()), "yvonne", "")
	require.NoError(t, err)
	_, err = c.JoinRoom("z", string(roomB.Code()), "zoe", "")
	require.NoError(t, err)

	room, deliver, err := c.Relay("x", "y")
	require.NoError(t, err)
	assert.True(t, deliver)
	assert.Equal(t, roomA.Code(), room.Code())

	// Live target in another room: membership error.
	_, _, err = c.Relay("x", "z")
	assert.ErrorIs(t, err, domain.ErrNotAMember)

	// Disconnected target: silent drop, the handshake times out
	// client-side.
	c.OnDisconnect("y")
	_, deliver, err = c.Relay("x", "y")
	require.NoError(t, err)
	assert.False(t, deliver)

	// Sender without a room cannot relay at all.
	connect(c, "w")
	_, _, err = c.Relay("w", "x")
	assert.ErrorIs(t, err, domain.ErrNotAMember)
}

func TestVoiceLifecycleThroughCoordinator(t *testing.T) {
	c := newCoordinator()
	room := c.Rooms.CreateRoom()
	code := string(room.Code())

	connect(c, "x")
	connect(c, "y")
	_, err := c.JoinRoom("x", code, "xavier", "")
	require.NoError(t, err)
	_, err = c.JoinRoom("y", code, "yvonne", "")
	require.NoError(t, err)

	vc, err := c.JoinVoice("x", code)
	require.NoError(t, err)
	assert.Empty(t, vc.Others)
	assert.Equal(t, []domain.ConnID{"x"}, vc.Participants)

	vc, err = c.JoinVoice("y", code)
	require.NoError(t, err)
	assert.Equal(t, []domain.ConnID{"x"}, vc.Others)
	assert.Equal(t, []domain.ConnID{"x", "y"}, vc.Participants)

	vc, err = c.LeaveVoice("x", code)
	require.NoError(t, err)
	require.NotNil(t, vc)
	assert.Equal(t, []domain.ConnID{"y"}, vc.Participants)

	vc, err = c.LeaveVoice("x", code)
	require.NoError(t, err)
	assert.Nil(t, vc, "second leave is a no-op")

	connect(c, "w")
	_, err = c.JoinVoice("w", code)
	assert.ErrorIs(t, err, domain.ErrNotAMember)
}

func TestRejoinUpdatesUsername(t *testing.T) {
	c := newCoordinator()
	room := c.Rooms.CreateRoom()
	connect(c, "x")

	_, err := c.JoinRoom("x", string(room.Code()), "old-name", "")
	require.NoError(t, err)

	res, err := c.JoinRoom("x", string(room.Code()), "new-name", "")
	require.NoError(t, err)
	assert.Equal(t, "new-name", res.Member.Username)
	require.Len(t, res.Members, 1)
	assert.Equal(t, "new-name", res.Members[0].Username)
}

// Room switches rename the member while other goroutines read rosters;
// meaningful under the race detector.
func TestRoomSwitchDoesNotRaceRosterReads(t *testing.T) {
	c := newCoordinator()
	roomA := c.Rooms.CreateRoom()
	roomB := c.Rooms.CreateRoom()

	// Anchors keep both rooms alive across the switches.
	connect(c, "a")
	_, err := c.JoinRoom("a", string(roomA.Code()), "anchor-a", "")
	require.NoError(t, err)
	connect(c, "b")
	_, err = c.JoinRoom("b", string(roomB.Code()), "anchor-b", "")
	require.NoError(t, err)

	connect(c, "x")
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			roomA.MembersSnapshot()
			roomB.MembersSnapshot()
		}
	}()
	for i := 0; i < 200; i++ {
		_, err := c.JoinRoom("x", string(roomA.Code()), fmt.Sprintf("x%d", i), "")
		require.NoError(t, err)
		_, err = c.JoinRoom("x", string(roomB.Code()), fmt.Sprintf("x%d", i), "")
		require.NoError(t, err)
	}
	<-done
}
