package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/discord-modmail/modmail/internal/domain"
)

func TestPayload(t *testing.T) {
	ticket := &domain.Ticket{ID: "t-1"}

	created, err := Payload[ThreadCreated]([]any{ThreadCreated{Ticket: ticket}})
	require.NoError(t, err)
	assert.Same(t, ticket, created.Ticket)

	relayed, err := Payload[MessageRelayed]([]any{MessageRelayed{Ticket: ticket, Message: &domain.Message{ID: "msg-1"}}})
	require.NoError(t, err)
	assert.Equal(t, "msg-1", relayed.Message.ID)

	msg, err := Payload[*domain.InboundMessage]([]any{&domain.InboundMessage{ID: "m-1"}, "extra"})
	require.NoError(t, err)
	assert.Equal(t, "m-1", msg.ID)
}

func TestPayload_Mismatch(t *testing.T) {
	_, err := Payload[ThreadClosed](nil)
	assert.ErrorIs(t, err, ErrUnexpectedPayload)

	_, err = Payload[ThreadClosed]([]any{"not a payload"})
	assert.ErrorIs(t, err, ErrUnexpectedPayload)
	assert.Contains(t, err.Error(), "got string")
}

func TestNames_Unique(t *testing.T) {
	seen := map[string]bool{}
	for _, name := range Names() {
		assert.NotEmpty(t, name)
		assert.False(t, seen[name], name)
		seen[name] = true
	}
}
