package network

import (
	"encoding/json"
	"testing"

	"github.com/boardwalk/gameserver/pkg/messages"
	"github.com/stretchr/testify/assert"
)

func TestConnectionManager_SendToUnknownConnection(t *testing.T) {
	cm := NewConnectionManager()

	// The peer may drop between lookup and write; sending into the void
	// must not error.
	err := cm.Send("gone", &messages.Message{
		Type:    messages.EventChat,
		Payload: json.RawMessage(`"hi"`),
	})
	assert.NoError(t, err)
}

func TestConnectionManager_RemoveConnection(t *testing.T) {
	cm := NewConnectionManager()
	assert.Equal(t, 0, cm.Count())

	cm.RemoveConnection("not-there")
	assert.Equal(t, 0, cm.Count())
}
