package types

// DisconnectEvent is enqueued by the gateway when a connection's read
// loop ends for any reason.
type DisconnectEvent struct {
	ConnectionID string
}

// EvictPlayerEvent is enqueued by the grace manager when a disconnect
// grace period elapses. The game loop re-checks the disconnected flag
// before removing anything.
type EvictPlayerEvent struct {
	RoomID       string
	ConnectionID string
}
