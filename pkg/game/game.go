package game

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/boardwalk/gameserver/pkg/game/constants"
	"github.com/boardwalk/gameserver/pkg/game/types"
	"github.com/boardwalk/gameserver/pkg/log"
	"github.com/boardwalk/gameserver/pkg/messages"
	"github.com/boardwalk/gameserver/pkg/queue"
)

// MessageSender delivers a protocol frame to a single connection.
type MessageSender interface {
	Send(connectionID string, msg *messages.Message) error
}

// GameManager drains the event queue on a single goroutine and applies
// every room mutation in arrival order, so no room state needs locking
// against other mutators.
type GameManager struct {
	registry     *Registry
	grace        *GraceManager
	eventQueue   queue.Queue
	sender       MessageSender
	loopInterval time.Duration
}

// NewGameManagerOptions contains options for creating a new GameManager.
type NewGameManagerOptions struct {
	Registry     *Registry
	GraceManager *GraceManager
	EventQueue   queue.Queue
	Sender       MessageSender
	LoopInterval time.Duration
}

func NewGameManager(opts NewGameManagerOptions) *GameManager {
	return &GameManager{
		registry:     opts.Registry,
		grace:        opts.GraceManager,
		eventQueue:   opts.EventQueue,
		sender:       opts.Sender,
		loopInterval: opts.LoopInterval,
	}
}

// Start runs the event loop until the context is cancelled.
func (gm *GameManager) Start(ctx context.Context) error {
	ticker := time.NewTicker(gm.loopInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			gm.processEvents()
		}
	}
}

// processEvents drains the queue and dispatches every pending item.
func (gm *GameManager) processEvents() {
	pending, err := gm.eventQueue.ReadAllMessages()
	if err != nil {
		log.Error("Failed to read pending events: %v", err)
		return
	}
	for _, item := range pending {
		switch event := item.(type) {
		case *messages.Message:
			gm.dispatchMessage(event)
		case *types.DisconnectEvent:
			gm.handleDisconnect(event)
		case *types.EvictPlayerEvent:
			gm.handleEvict(event)
		default:
			log.Error("Unhandled event type: %T", event)
		}
	}
}

// dispatchMessage routes a client frame to its handler. The event set is
// closed; anything else is dropped.
func (gm *GameManager) dispatchMessage(msg *messages.Message) {
	switch msg.Type {
	case messages.EventJoinRoom:
		gm.handleJoinRoom(msg)
	case messages.EventUpdatePlayers:
		gm.handleUpdatePlayers(msg)
	case messages.EventUpdateTurn:
		gm.handleUpdateTurn(msg)
	case messages.EventUpdateDice:
		gm.handleUpdateDice(msg)
	case messages.EventStartState:
		gm.handleStartState(msg)
	case messages.EventChat:
		gm.handleChat(msg)
	default:
		log.Warn("Unhandled message type %q from connection %s", msg.Type, msg.ConnectionID)
	}
}

func (gm *GameManager) handleJoinRoom(msg *messages.Message) {
	join := &types.JoinRoomRequest{}
	if err := json.Unmarshal(msg.Payload, join); err != nil {
		log.Debug("Dropping malformed join-room payload from %s: %v", msg.ConnectionID, err)
		return
	}
	if join.RoomID == "" || join.Player.ID == "" {
		log.Debug("Dropping join-room without room or player id from %s", msg.ConnectionID)
		return
	}

	result := gm.registry.ReconcileJoin(join.RoomID, msg.ConnectionID, join.Player)
	switch result.Outcome {
	case JoinRejectedNameTaken:
		reply := &messages.Message{
			Type:    messages.EventNameTaken,
			Payload: json.RawMessage("true"),
		}
		if err := gm.sender.Send(msg.ConnectionID, reply); err != nil {
			log.Error("Failed to send name-taken to connection %s: %v", msg.ConnectionID, err)
		}
	case JoinRejectedSymbolsExhausted:
		log.Warn("Rejecting join to room %s: symbol alphabet exhausted", join.RoomID)
	case JoinAccepted:
		if result.Reconnected {
			log.Info("Player %s reconnected to room %s as connection %s", join.Player.ID, join.RoomID, msg.ConnectionID)
		} else {
			log.Info("Player %s joined room %s", join.Player.ID, join.RoomID)
		}
		gm.broadcastEncoded(join.RoomID, messages.EventJoinedRoom, result.Room)
	}
}

func (gm *GameManager) handleUpdatePlayers(msg *messages.Message) {
	roomID, ok := gm.registry.RoomByConnection(msg.ConnectionID)
	if !ok {
		return
	}
	var players []*types.Player
	if err := messages.DecodeStringPayload(msg.Payload, &players); err != nil {
		log.Debug("Dropping malformed update-players payload from %s: %v", msg.ConnectionID, err)
		return
	}
	if players == nil {
		log.Debug("Dropping update-players without a sequence from %s", msg.ConnectionID)
		return
	}
	if !gm.registry.ReplacePlayers(roomID, players) {
		return
	}
	gm.broadcastEncoded(roomID, messages.EventUpdatePlayers, players)
}

// handleUpdateTurn forwards the raw payload unvalidated. The stored turn
// pointer is refreshed only when the payload happens to decode, purely so
// joined-room resyncs carry the latest value.
func (gm *GameManager) handleUpdateTurn(msg *messages.Message) {
	roomID, ok := gm.registry.RoomByConnection(msg.ConnectionID)
	if !ok || !gm.registry.Has(roomID) {
		return
	}
	var turn int
	if err := messages.DecodeStringPayload(msg.Payload, &turn); err == nil {
		gm.registry.SetTurn(roomID, turn)
	}
	gm.broadcast(roomID, messages.EventUpdateTurn, msg.Payload)
}

// handleUpdateDice has the same forward-raw contract as handleUpdateTurn.
func (gm *GameManager) handleUpdateDice(msg *messages.Message) {
	roomID, ok := gm.registry.RoomByConnection(msg.ConnectionID)
	if !ok || !gm.registry.Has(roomID) {
		return
	}
	var dice [2]int
	if err := messages.DecodeStringPayload(msg.Payload, &dice); err == nil {
		gm.registry.SetDice(roomID, dice)
	}
	gm.broadcast(roomID, messages.EventUpdateDice, msg.Payload)
}

func (gm *GameManager) handleStartState(msg *messages.Message) {
	roomID, ok := gm.registry.RoomByConnection(msg.ConnectionID)
	if !ok {
		return
	}
	var started bool
	if err := messages.DecodeStringPayload(msg.Payload, &started); err != nil {
		log.Debug("Dropping malformed start-state payload from %s: %v", msg.ConnectionID, err)
		return
	}
	if !gm.registry.SetStarted(roomID, started) {
		return
	}
	gm.broadcastEncoded(roomID, messages.EventStartState, started)
}

func (gm *GameManager) handleChat(msg *messages.Message) {
	roomID, ok := gm.registry.RoomByConnection(msg.ConnectionID)
	if !ok {
		return
	}
	var text string
	if err := json.Unmarshal(msg.Payload, &text); err != nil {
		log.Debug("Dropping malformed chat payload from %s: %v", msg.ConnectionID, err)
		return
	}
	if utf8.RuneCountInString(text) > constants.MaxChatMessageLength {
		log.Debug("Dropping oversized chat message from %s", msg.ConnectionID)
		return
	}
	chat, ok := gm.registry.AppendChat(roomID, text)
	if !ok {
		return
	}
	gm.broadcastEncoded(roomID, messages.EventChat, chat)
}

func (gm *GameManager) handleDisconnect(event *types.DisconnectEvent) {
	roomID, player, ok := gm.registry.MarkDisconnected(event.ConnectionID)
	if !ok {
		return
	}
	log.Info("Player %s disconnected from room %s, holding seat for %s", player.ID, roomID, gm.grace.GracePeriod())

	annotation := fmt.Sprintf("%s disconnected. Waiting %d seconds...", player.Name, int(gm.grace.GracePeriod().Seconds()))
	if chat, ok := gm.registry.AppendChat(roomID, annotation); ok {
		gm.broadcastEncoded(roomID, messages.EventChat, chat)
	}
	if snapshot, ok := gm.registry.Snapshot(roomID); ok {
		gm.broadcastEncoded(roomID, messages.EventUpdatePlayers, snapshot.Players)
	}

	gm.grace.Schedule(roomID, event.ConnectionID)
}

func (gm *GameManager) handleEvict(event *types.EvictPlayerEvent) {
	removed, ok := gm.registry.RemovePlayerIfStale(event.RoomID, event.ConnectionID)
	if !ok {
		return
	}
	log.Info("Evicted player %s from room %s after grace period", removed.ID, event.RoomID)

	// The room is gone when the evicted player was the last one.
	if !gm.registry.Has(event.RoomID) {
		log.Info("Room %s is empty and was removed", event.RoomID)
		return
	}

	if chat, ok := gm.registry.AppendChat(event.RoomID, fmt.Sprintf("%s disconnected.", removed.Name)); ok {
		gm.broadcastEncoded(event.RoomID, messages.EventChat, chat)
	}
	if snapshot, ok := gm.registry.Snapshot(event.RoomID); ok {
		gm.broadcastEncoded(event.RoomID, messages.EventUpdatePlayers, snapshot.Players)
	}
}

// broadcast fans a frame out to every connection subscribed to the room.
func (gm *GameManager) broadcast(roomID, eventType string, payload json.RawMessage) {
	for _, connectionID := range gm.registry.Subscribers(roomID) {
		msg := &messages.Message{
			Type:    eventType,
			Payload: payload,
		}
		if err := gm.sender.Send(connectionID, msg); err != nil {
			log.Error("Failed to write %s to connection %s: %v", eventType, connectionID, err)
		}
	}
}

// broadcastEncoded double-encodes v the way clients expect cross-event
// payloads and fans it out.
func (gm *GameManager) broadcastEncoded(roomID, eventType string, v interface{}) {
	payload, err := messages.EncodeStringPayload(v)
	if err != nil {
		log.Error("Failed to encode %s payload: %v", eventType, err)
		return
	}
	gm.broadcast(roomID, eventType, payload)
}
