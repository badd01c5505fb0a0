package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/boardwalk/gameserver/pkg/game"
	"github.com/boardwalk/gameserver/pkg/log"
	"github.com/gorilla/mux"
)

// APIServer serves the read-only room status endpoints.
type APIServer struct {
	server *http.Server
}

type NewAPIServerOptions struct {
	Port     int
	Registry *game.Registry
}

// NewAPIServer creates a new http.Server for handling API requests.
func NewAPIServer(opts NewAPIServerOptions) *APIServer {
	router := mux.NewRouter()
	router.HandleFunc("/api/rooms", handleListRooms(opts.Registry)).Methods(http.MethodGet)
	router.HandleFunc("/api/rooms/{roomID}", handleGetRoom(opts.Registry)).Methods(http.MethodGet)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}
	return &APIServer{
		server: server,
	}
}

// Router returns the server's handler, exposed for tests.
func (s *APIServer) Router() http.Handler {
	return s.server.Handler
}

// Start starts the APIServer.
func (s *APIServer) Start() {
	log.Info("API server listening on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("API server closed")
			return
		}
		log.Error("API server error: %v", err)
	}
}

// Stop stops the APIServer.
func (s *APIServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func handleListRooms(registry *game.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		if err := json.NewEncoder(w).Encode(registry.Summaries()); err != nil {
			log.Error("failed to encode room summaries: %v", err)
			http.Error(w, "Failed to encode room summaries", http.StatusInternalServerError)
			return
		}
	}
}

func handleGetRoom(registry *game.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := mux.Vars(r)["roomID"]
		snapshot, ok := registry.Snapshot(roomID)
		if !ok {
			http.Error(w, "Room not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		if err := json.NewEncoder(w).Encode(snapshot); err != nil {
			log.Error("failed to encode room %s: %v", roomID, err)
			http.Error(w, "Failed to encode room", http.StatusInternalServerError)
			return
		}
	}
}
