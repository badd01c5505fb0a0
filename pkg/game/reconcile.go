package game

import (
	"github.com/boardwalk/gameserver/pkg/game/constants"
	"github.com/boardwalk/gameserver/pkg/game/types"
)

// JoinOutcome is the result of reconciling a join request against a
// room's existing players.
type JoinOutcome int

const (
	// JoinAccepted means the player was appended or reconnected and the
	// room state should be broadcast.
	JoinAccepted JoinOutcome = iota
	// JoinRejectedNameTaken means a connected player with a different
	// stable id already claims the display name.
	JoinRejectedNameTaken
	// JoinRejectedSymbolsExhausted means the symbol alphabet has no free
	// entry left for a new player.
	JoinRejectedSymbolsExhausted
)

// JoinResult carries the outcome of a join and, when accepted, a snapshot
// of the room to broadcast.
type JoinResult struct {
	Outcome     JoinOutcome
	Reconnected bool
	Room        *types.RoomState
}

// ReconcileJoin resolves a join request against the room's player
// sequence by stable identifier. The room is created lazily on first
// join. On a stable-id match the stored record is kept authoritative and
// only its connection id and disconnected flag are refreshed, so a
// disconnect-then-reconnect round trip preserves gameplay history.
func (r *Registry) ReconcileJoin(roomID, connectionID string, claim types.PlayerClaim) JoinResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Validate against the existing room before touching the registry,
	// so a rejected join leaves no trace, not even a lazily created room.
	if room, ok := r.rooms[roomID]; ok {
		for _, player := range room.Players {
			if player.Name == claim.Name && player.ID != claim.ID && !player.Disconnected {
				return JoinResult{Outcome: JoinRejectedNameTaken}
			}
		}

		for _, player := range room.Players {
			if player.ID != claim.ID {
				continue
			}
			player.ConnectionID = connectionID
			player.Disconnected = false
			r.subscribe(roomID, connectionID)
			return JoinResult{Outcome: JoinAccepted, Reconnected: true, Room: copyRoom(room)}
		}

		if _, free := nextFreeSymbol(room.Players); !free {
			return JoinResult{Outcome: JoinRejectedSymbolsExhausted}
		}
	}

	room := r.getOrCreate(roomID)
	symbol, _ := nextFreeSymbol(room.Players)
	room.Players = append(room.Players, &types.Player{
		ID:           claim.ID,
		ConnectionID: connectionID,
		Name:         claim.Name,
		Symbol:       symbol,
		Position:     claim.Position,
		Money:        claim.Money,
		Properties:   claim.Properties,
		LastDelta:    claim.LastDelta,
		RoomID:       roomID,
	})
	r.subscribe(roomID, connectionID)
	return JoinResult{Outcome: JoinAccepted, Room: copyRoom(room)}
}

// nextFreeSymbol scans the fixed symbol alphabet in order and returns the
// first symbol no player in the room is using.
func nextFreeSymbol(players []*types.Player) (string, bool) {
	used := make(map[string]struct{}, len(players))
	for _, player := range players {
		used[player.Symbol] = struct{}{}
	}
	for _, symbol := range constants.PlayerSymbols {
		if _, taken := used[symbol]; !taken {
			return symbol, true
		}
	}
	return "", false
}
