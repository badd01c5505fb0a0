package network

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/boardwalk/gameserver/pkg/game/types"
	"github.com/boardwalk/gameserver/pkg/log"
	"github.com/boardwalk/gameserver/pkg/messages"
	"github.com/boardwalk/gameserver/pkg/queue"
	"github.com/gorilla/websocket"
)

// WSServer accepts client connections and feeds decoded frames into the
// event queue for the game loop.
type WSServer struct {
	port              int
	connectionManager *ConnectionManager
	eventQueue        queue.Queue
}

type NewWSServerOptions struct {
	Port              int
	ConnectionManager *ConnectionManager
	EventQueue        queue.Queue
}

// NewWSServer creates a new WebSocket server.
func NewWSServer(opts NewWSServerOptions) *WSServer {
	return &WSServer{
		port:              opts.Port,
		connectionManager: opts.ConnectionManager,
		eventQueue:        opts.EventQueue,
	}
}

// Cross-origin access is unrestricted.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler returns the upgrade handler, exposed separately so tests can
// mount it on an httptest server.
func (s *WSServer) Handler(ctx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wsConn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("Failed to upgrade to WebSocket: %v", err)
			return
		}
		log.Debug("New WebSocket connection from %s", wsConn.RemoteAddr().String())
		go s.handleWSConnection(ctx, wsConn)
	}
}

// Start starts the WebSocket server.
func (s *WSServer) Start(ctx context.Context) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.Handler(ctx))

	addr := fmt.Sprintf(":%d", s.port)
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		server.Shutdown(ctx)
	}()

	log.Info("WebSocket server listening on %s", addr)
	if err := server.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("WebSocket server closed")
			return
		}
		log.Error("WebSocket server error: %v", err)
	}
}

// handleWSConnection owns one connection's read loop. Frames are enqueued
// in arrival order; the loop ends on any read error, which is reported to
// the game loop as a disconnect event.
func (s *WSServer) handleWSConnection(ctx context.Context, wsConn *websocket.Conn) {
	conn := s.connectionManager.AddConnection(wsConn)
	wsConn.SetReadLimit(messages.MessageBufferSize)

	defer func() {
		s.connectionManager.RemoveConnection(conn.ID)
		wsConn.Close()
		if err := s.eventQueue.Enqueue(&types.DisconnectEvent{ConnectionID: conn.ID}); err != nil {
			log.Error("Failed to enqueue disconnect event for connection %s: %v", conn.ID, err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Error("Error reading WebSocket message from %s: %v", wsConn.RemoteAddr().String(), err)
			}
			log.Trace("Connection closed for %s", wsConn.RemoteAddr().String())
			return
		}

		msg, err := messages.DeserializeMessage(data)
		if err != nil {
			// Malformed frames are dropped without a reply.
			log.Debug("Dropping undecodable frame from connection %s: %v", conn.ID, err)
			continue
		}
		msg.ConnectionID = conn.ID

		if err := s.eventQueue.Enqueue(msg); err != nil {
			log.Error("Failed to enqueue message from connection %s: %v", conn.ID, err)
		}
	}
}
