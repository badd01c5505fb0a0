package game

import (
	"sync"
	"time"

	"github.com/boardwalk/gameserver/pkg/game/types"
	"github.com/boardwalk/gameserver/pkg/log"
	"github.com/boardwalk/gameserver/pkg/queue"
)

// GraceManager owns one delayed eviction task per disconnected
// connection. A fired task re-enters the game loop through the event
// queue, where the registry re-checks the disconnected flag before
// removing anything; a reconnect that clears the flag renders the task a
// no-op, so no cancellation race exists.
type GraceManager struct {
	mu          sync.Mutex
	pending     map[string]*time.Timer // keyed by connection id
	gracePeriod time.Duration
	eventQueue  queue.Queue
}

type NewGraceManagerOptions struct {
	GracePeriod time.Duration
	EventQueue  queue.Queue
}

// NewGraceManager creates a new GraceManager.
func NewGraceManager(opts NewGraceManagerOptions) *GraceManager {
	return &GraceManager{
		pending:     make(map[string]*time.Timer),
		gracePeriod: opts.GracePeriod,
		eventQueue:  opts.EventQueue,
	}
}

// GracePeriod returns the configured grace window.
func (gm *GraceManager) GracePeriod() time.Duration {
	return gm.gracePeriod
}

// Schedule arms an eviction task for a disconnected connection. At most
// one task exists per connection id; a duplicate disconnect for a
// connection that never reconnected is ignored.
func (gm *GraceManager) Schedule(roomID, connectionID string) {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	if _, ok := gm.pending[connectionID]; ok {
		log.Warn("Eviction already pending for connection %s", connectionID)
		return
	}
	gm.pending[connectionID] = time.AfterFunc(gm.gracePeriod, func() {
		gm.mu.Lock()
		delete(gm.pending, connectionID)
		gm.mu.Unlock()
		if err := gm.eventQueue.Enqueue(&types.EvictPlayerEvent{
			RoomID:       roomID,
			ConnectionID: connectionID,
		}); err != nil {
			log.Error("Failed to enqueue evict player event: %v", err)
		}
	})
}

// Pending returns the number of outstanding eviction tasks.
func (gm *GraceManager) Pending() int {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	return len(gm.pending)
}
