package game

import (
	"sync"

	"github.com/boardwalk/gameserver/pkg/game/constants"
	"github.com/boardwalk/gameserver/pkg/game/types"
)

// Registry owns the room-id to room-state mapping and the connection
// subscription tables used for fan-out. Every state transition goes
// through a Registry method, so the read-only status API can snapshot
// rooms while the game loop mutates them.
type Registry struct {
	mu      sync.RWMutex
	rooms   map[string]*types.RoomState
	subs    map[string]string              // connection id -> room id
	members map[string]map[string]struct{} // room id -> connection ids
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:   make(map[string]*types.RoomState),
		subs:    make(map[string]string),
		members: make(map[string]map[string]struct{}),
	}
}

// getOrCreate returns the room for roomID, creating an empty one if it
// does not exist. Callers must hold the write lock.
func (r *Registry) getOrCreate(roomID string) *types.RoomState {
	if room, ok := r.rooms[roomID]; ok {
		return room
	}
	room := &types.RoomState{
		ID:   roomID,
		Dice: [2]int{constants.DiceUnrolled, constants.DiceUnrolled},
	}
	r.rooms[roomID] = room
	return room
}

// Has reports whether a room exists.
func (r *Registry) Has(roomID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[roomID]
	return ok
}

// subscribe adds a connection to a room's broadcast group. A connection
// is subscribed to at most one room; a new subscription replaces the old.
// Callers must hold the write lock.
func (r *Registry) subscribe(roomID, connectionID string) {
	if prev, ok := r.subs[connectionID]; ok {
		delete(r.members[prev], connectionID)
	}
	r.subs[connectionID] = roomID
	if r.members[roomID] == nil {
		r.members[roomID] = make(map[string]struct{})
	}
	r.members[roomID][connectionID] = struct{}{}
}

// Unsubscribe removes a connection from its room's broadcast group and
// returns the room it was subscribed to.
func (r *Registry) Unsubscribe(connectionID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unsubscribe(connectionID)
}

func (r *Registry) unsubscribe(connectionID string) (string, bool) {
	roomID, ok := r.subs[connectionID]
	if !ok {
		return "", false
	}
	delete(r.subs, connectionID)
	delete(r.members[roomID], connectionID)
	return roomID, true
}

// RoomByConnection returns the room a connection is subscribed to.
func (r *Registry) RoomByConnection(connectionID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	roomID, ok := r.subs[connectionID]
	return roomID, ok
}

// Subscribers returns the connection ids currently joined to a room.
func (r *Registry) Subscribers(roomID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conns := make([]string, 0, len(r.members[roomID]))
	for connectionID := range r.members[roomID] {
		conns = append(conns, connectionID)
	}
	return conns
}

// ReplacePlayers overwrites the room's player sequence wholesale.
// Concurrent writers get last-write-wins semantics on the entire sequence.
func (r *Registry) ReplacePlayers(roomID string, players []*types.Player) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	room.Players = players
	return true
}

// SetTurn stores the current turn pointer.
func (r *Registry) SetTurn(roomID string, turn int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	room.CurrentTurn = turn
	return true
}

// SetDice stores the latest dice pair.
func (r *Registry) SetDice(roomID string, dice [2]int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	room.Dice = dice
	return true
}

// SetStarted stores the started flag.
func (r *Registry) SetStarted(roomID string, started bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	room.Started = started
	return true
}

// AppendChat appends a message to the room's chat log, trims the log to
// the retained history limit, and returns the retained sequence.
func (r *Registry) AppendChat(roomID, message string) ([]string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return nil, false
	}
	room.Chat = append(room.Chat, message)
	if len(room.Chat) > constants.ChatHistoryLimit {
		room.Chat = room.Chat[len(room.Chat)-constants.ChatHistoryLimit:]
	}
	chat := make([]string, len(room.Chat))
	copy(chat, room.Chat)
	return chat, true
}

// MarkDisconnected flags the player on the given connection as
// disconnected and removes the connection from the broadcast group.
// It returns the room and a snapshot of the player that was flagged.
func (r *Registry) MarkDisconnected(connectionID string) (string, *types.Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	roomID, ok := r.unsubscribe(connectionID)
	if !ok {
		return "", nil, false
	}
	room, ok := r.rooms[roomID]
	if !ok {
		return "", nil, false
	}
	for _, player := range room.Players {
		if player.ConnectionID == connectionID {
			player.Disconnected = true
			snapshot := copyPlayer(player)
			return roomID, snapshot, true
		}
	}
	return "", nil, false
}

// RemovePlayerIfStale removes the player matching the connection id only
// if it is still marked disconnected at call time, guarding against a
// reconnect that landed after the eviction was scheduled. Deletes the
// room when its player sequence empties.
func (r *Registry) RemovePlayerIfStale(roomID, connectionID string) (*types.Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return nil, false
	}
	for i, player := range room.Players {
		if player.ConnectionID != connectionID {
			continue
		}
		if !player.Disconnected {
			return nil, false
		}
		room.Players = append(room.Players[:i], room.Players[i+1:]...)
		if len(room.Players) == 0 {
			r.deleteRoom(roomID)
		}
		return copyPlayer(player), true
	}
	return nil, false
}

// deleteRoom drops the room and any dangling subscriptions to it.
// Callers must hold the write lock.
func (r *Registry) deleteRoom(roomID string) {
	delete(r.rooms, roomID)
	for connectionID := range r.members[roomID] {
		delete(r.subs, connectionID)
	}
	delete(r.members, roomID)
}

// Snapshot returns a deep copy of a room's state, safe to serialize
// while the game loop keeps mutating the live room.
func (r *Registry) Snapshot(roomID string) (*types.RoomState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return nil, false
	}
	return copyRoom(room), true
}

// RoomSummary is the status API's view of a room.
type RoomSummary struct {
	ID          string `json:"id"`
	PlayerCount int    `json:"playerCount"`
	Started     bool   `json:"started"`
}

// Summaries returns a summary for every live room.
func (r *Registry) Summaries() []RoomSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	summaries := make([]RoomSummary, 0, len(r.rooms))
	for _, room := range r.rooms {
		summaries = append(summaries, RoomSummary{
			ID:          room.ID,
			PlayerCount: len(room.Players),
			Started:     room.Started,
		})
	}
	return summaries
}

func copyPlayer(player *types.Player) *types.Player {
	snapshot := *player
	if player.Properties != nil {
		snapshot.Properties = make([]types.Property, len(player.Properties))
		copy(snapshot.Properties, player.Properties)
	}
	return &snapshot
}

func copyRoom(room *types.RoomState) *types.RoomState {
	snapshot := &types.RoomState{
		ID:          room.ID,
		CurrentTurn: room.CurrentTurn,
		Dice:        room.Dice,
		Started:     room.Started,
		Players:     make([]*types.Player, len(room.Players)),
		Chat:        make([]string, len(room.Chat)),
	}
	for i, player := range room.Players {
		snapshot.Players[i] = copyPlayer(player)
	}
	copy(snapshot.Chat, room.Chat)
	return snapshot
}
