package network

import (
	"fmt"
	"sync"

	"github.com/boardwalk/gameserver/pkg/messages"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Connection represents a connected client socket. The ID is transient
// and changes on every reconnect.
type Connection struct {
	ID        string
	wsConn    *websocket.Conn
	writeLock sync.Mutex
}

// WriteMessage writes a frame to the connection. Writes are serialized
// per connection; the websocket library allows one concurrent writer.
func (c *Connection) WriteMessage(msg *messages.Message) error {
	b, err := messages.SerializeMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to serialize message: %v", err)
	}

	c.writeLock.Lock()
	defer c.writeLock.Unlock()
	if err := c.wsConn.WriteMessage(websocket.TextMessage, b); err != nil {
		return fmt.Errorf("failed to write message to WebSocket connection: %v", err)
	}

	return nil
}

// ConnectionManager manages connected clients.
type ConnectionManager struct {
	connections     map[string]*Connection
	connectionsLock sync.RWMutex
}

// NewConnectionManager creates a new ConnectionManager.
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*Connection),
	}
}

// AddConnection registers a socket and assigns it a transient connection id.
func (cm *ConnectionManager) AddConnection(wsConn *websocket.Conn) *Connection {
	cm.connectionsLock.Lock()
	defer cm.connectionsLock.Unlock()
	conn := &Connection{
		ID:     uuid.NewString(),
		wsConn: wsConn,
	}
	cm.connections[conn.ID] = conn
	return conn
}

// RemoveConnection removes a connection from the manager.
func (cm *ConnectionManager) RemoveConnection(connectionID string) {
	cm.connectionsLock.Lock()
	defer cm.connectionsLock.Unlock()
	delete(cm.connections, connectionID)
}

// GetConnectionByID retrieves a connection by its ID.
func (cm *ConnectionManager) GetConnectionByID(connectionID string) (*Connection, bool) {
	cm.connectionsLock.RLock()
	defer cm.connectionsLock.RUnlock()
	conn, ok := cm.connections[connectionID]
	return conn, ok
}

// Count returns the number of live connections.
func (cm *ConnectionManager) Count() int {
	cm.connectionsLock.RLock()
	defer cm.connectionsLock.RUnlock()
	return len(cm.connections)
}

// Send delivers a frame to a single connection. Unknown connections are
// skipped silently; the peer may have dropped between lookup and write.
func (cm *ConnectionManager) Send(connectionID string, msg *messages.Message) error {
	conn, ok := cm.GetConnectionByID(connectionID)
	if !ok {
		return nil
	}
	return conn.WriteMessage(msg)
}
