package types

// PropertyCategory values form a closed set. Anything else fails the
// shape check and the carrying payload is dropped.
const (
	PropertyCategoryAttraction = "attraction"
	PropertyCategoryProperty   = "property"
	PropertyCategoryUtility    = "utility"
	PropertyCategorySpecial    = "special"
	PropertyCategoryTax        = "tax"
)

// Property is a gameplay payload owned by a player. The server validates
// its JSON shape only; rule legality is the clients' problem.
type Property struct {
	Name      string `json:"name"`
	Category  string `json:"category"`
	Price     int    `json:"price"`
	Houses    int    `json:"houses"`
	Mortgaged bool   `json:"mortgaged"`
	Hotel     bool   `json:"hotel"`
	Group     string `json:"group"`
	OwnerID   string `json:"ownerId"`
	Rents     []int  `json:"rents"`
}

// Player is one seat in a room. ID is the stable identifier the client
// supplies and keeps across reconnects; ConnectionID is the transient
// identifier of the current physical connection.
type Player struct {
	ID           string     `json:"id"`
	ConnectionID string     `json:"connectionId"`
	Name         string     `json:"name"`
	Symbol       string     `json:"symbol"`
	Position     int        `json:"position"`
	Money        int        `json:"money"`
	Properties   []Property `json:"properties"`
	LastDelta    int        `json:"lastDelta"`
	Disconnected bool       `json:"disconnected"`
	RoomID       string     `json:"roomId"`
}

// PlayerClaim is the identity and initial gameplay state a client submits
// with a join request.
type PlayerClaim struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Position   int        `json:"position"`
	Money      int        `json:"money"`
	Properties []Property `json:"properties"`
	LastDelta  int        `json:"lastDelta"`
}

// JoinRoomRequest is the payload of a join-room frame.
type JoinRoomRequest struct {
	RoomID string      `json:"roomId"`
	Player PlayerClaim `json:"player"`
}

// RoomState is the authoritative per-room state. Player order is join
// order and doubles as the turn index order.
type RoomState struct {
	ID          string    `json:"id"`
	Players     []*Player `json:"players"`
	CurrentTurn int       `json:"currentTurn"`
	Dice        [2]int    `json:"dice"`
	Started     bool      `json:"started"`
	Chat        []string  `json:"chat"`
}
