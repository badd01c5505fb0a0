package messages

import "encoding/json"

const (
	// MessageBufferSize represents the maximum size of an inbound frame.
	MessageBufferSize = 65536
)

// Event types. Each frame on the wire carries exactly one of these.
const (
	EventJoinRoom      = "join-room"
	EventJoinedRoom    = "joined-room"
	EventNameTaken     = "name-taken"
	EventUpdatePlayers = "update-players"
	EventUpdateTurn    = "update-turn"
	EventUpdateDice    = "update-dice"
	EventStartState    = "start-state"
	EventChat          = "chat"
)

// Message represents a generic protocol frame for serialization/deserialization.
// The connection ID is assigned by the gateway and never read off the wire.
type Message struct {
	ConnectionID string          `json:"-"`
	Type         string          `json:"type"`
	Payload      json.RawMessage `json:"payload,omitempty"`
}

// SerializeMessage encodes a message as a JSON text frame.
func SerializeMessage(m *Message) ([]byte, error) {
	return json.Marshal(m)
}

// DeserializeMessage decodes a JSON text frame into a message.
func DeserializeMessage(data []byte) (*Message, error) {
	msg := &Message{}
	if err := json.Unmarshal(data, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// EncodeStringPayload marshals v to JSON and wraps the result in a JSON
// string. Cross-event payloads travel double-encoded, matching clients
// that stringify before emitting.
func EncodeStringPayload(v interface{}) (json.RawMessage, error) {
	inner, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	outer, err := json.Marshal(string(inner))
	if err != nil {
		return nil, err
	}
	return outer, nil
}

// DecodeStringPayload unwraps a double-encoded payload into v.
// Both decode steps must succeed; callers treat failure as a malformed
// payload and drop the message.
func DecodeStringPayload(payload json.RawMessage, v interface{}) error {
	var inner string
	if err := json.Unmarshal(payload, &inner); err != nil {
		return err
	}
	return json.Unmarshal([]byte(inner), v)
}
