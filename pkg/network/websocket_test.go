package network

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/boardwalk/gameserver/pkg/game"
	"github.com/boardwalk/gameserver/pkg/game/types"
	"github.com/boardwalk/gameserver/pkg/messages"
	"github.com/boardwalk/gameserver/pkg/queue"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startTestServer wires a full gateway + game loop against an httptest
// server and returns the websocket URL.
func startTestServer(t *testing.T) string {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	connectionManager := NewConnectionManager()
	eventQueue := queue.NewInMemoryQueue(1000)
	registry := game.NewRegistry()
	grace := game.NewGraceManager(game.NewGraceManagerOptions{
		GracePeriod: time.Hour,
		EventQueue:  eventQueue,
	})
	gameManager := game.NewGameManager(game.NewGameManagerOptions{
		Registry:     registry,
		GraceManager: grace,
		EventQueue:   eventQueue,
		Sender:       connectionManager,
		LoopInterval: 2 * time.Millisecond,
	})
	go gameManager.Start(ctx)

	wsServer := NewWSServer(NewWSServerOptions{
		ConnectionManager: connectionManager,
		EventQueue:        eventQueue,
	})
	server := httptest.NewServer(wsServer.Handler(ctx))
	t.Cleanup(server.Close)

	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func sendJoin(t *testing.T, conn *websocket.Conn, roomID, playerID, name string) {
	t.Helper()
	payload, err := json.Marshal(types.JoinRoomRequest{
		RoomID: roomID,
		Player: types.PlayerClaim{ID: playerID, Name: name, Money: 1500},
	})
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(&messages.Message{
		Type:    messages.EventJoinRoom,
		Payload: payload,
	}))
}

func readFrame(t *testing.T, conn *websocket.Conn) *messages.Message {
	t.Helper()
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	msg, err := messages.DeserializeMessage(data)
	require.NoError(t, err)
	return msg
}

func TestWSServer_JoinRoundTrip(t *testing.T) {
	url := startTestServer(t)

	alice := dial(t, url)
	sendJoin(t, alice, "ABC123", "1", "Alice")

	msg := readFrame(t, alice)
	require.Equal(t, messages.EventJoinedRoom, msg.Type)

	var state types.RoomState
	require.NoError(t, messages.DecodeStringPayload(msg.Payload, &state))
	require.Len(t, state.Players, 1)
	assert.Equal(t, "Alice", state.Players[0].Name)
	assert.Equal(t, "🐇", state.Players[0].Symbol)
	assert.Equal(t, [2]int{-1, -1}, state.Dice)
}

func TestWSServer_ChatFansOutToRoom(t *testing.T) {
	url := startTestServer(t)

	alice := dial(t, url)
	sendJoin(t, alice, "room", "1", "Alice")
	require.Equal(t, messages.EventJoinedRoom, readFrame(t, alice).Type)

	bob := dial(t, url)
	sendJoin(t, bob, "room", "2", "Bob")
	// Both peers receive the resynchronizing joined-room.
	require.Equal(t, messages.EventJoinedRoom, readFrame(t, alice).Type)
	require.Equal(t, messages.EventJoinedRoom, readFrame(t, bob).Type)

	require.NoError(t, bob.WriteJSON(&messages.Message{
		Type:    messages.EventChat,
		Payload: json.RawMessage(`"hi"`),
	}))

	for _, conn := range []*websocket.Conn{alice, bob} {
		msg := readFrame(t, conn)
		require.Equal(t, messages.EventChat, msg.Type)
		var chat []string
		require.NoError(t, messages.DecodeStringPayload(msg.Payload, &chat))
		assert.Equal(t, []string{"hi"}, chat)
	}
}

func TestWSServer_NameTakenGoesOnlyToRequester(t *testing.T) {
	url := startTestServer(t)

	alice := dial(t, url)
	sendJoin(t, alice, "room", "1", "Alice")
	require.Equal(t, messages.EventJoinedRoom, readFrame(t, alice).Type)

	impostor := dial(t, url)
	sendJoin(t, impostor, "room", "2", "Alice")

	msg := readFrame(t, impostor)
	require.Equal(t, messages.EventNameTaken, msg.Type)
	assert.JSONEq(t, "true", string(msg.Payload))
}

func TestWSServer_UndecodableFrameIsDropped(t *testing.T) {
	url := startTestServer(t)

	alice := dial(t, url)
	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte("{{{not json")))

	// The connection survives and keeps working.
	sendJoin(t, alice, "room", "1", "Alice")
	msg := readFrame(t, alice)
	assert.Equal(t, messages.EventJoinedRoom, msg.Type)
}
