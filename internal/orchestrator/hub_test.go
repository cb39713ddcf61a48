package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentmux/agentmux/internal/agent"
)

func TestHubLogKeepsPublishOrder(t *testing.T) {
	hub := NewMessageHub()
	defer hub.Close()

	require.NoError(t, hub.Publish(agent.Message{From: "a", Kind: agent.MessageFinding, Payload: "one"}))
	require.NoError(t, hub.Publish(agent.Message{From: "b", Kind: agent.MessageFinding, Payload: "two"}))

	log := hub.Log()
	require.Len(t, log, 2)
	assert.Equal(t, "one", log[0].Payload)
	assert.Equal(t, "two", log[1].Payload)
	assert.False(t, log[0].At.IsZero())
}

func TestHubSubscribeFiltersByRecipient(t *testing.T) {
	hub := NewMessageHub()
	defer hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch, err := hub.Subscribe(ctx, "review")
	require.NoError(t, err)

	require.NoError(t, hub.Publish(agent.Message{From: "audit", To: "review", Payload: "for you"}))
	require.NoError(t, hub.Publish(agent.Message{From: "audit", To: "other", Payload: "not for you"}))
	require.NoError(t, hub.Publish(agent.Message{From: "audit", Payload: "broadcast"}))

	got := make([]string, 0, 2)
	for len(got) < 2 {
		select {
		case msg := <-ch:
			got = append(got, msg.Payload)
		case <-ctx.Done():
			t.Fatal("timed out waiting for messages")
		}
	}
	assert.Equal(t, []string{"for you", "broadcast"}, got)
}

func TestHubPublishAfterCloseIsDropped(t *testing.T) {
	hub := NewMessageHub()
	require.NoError(t, hub.Close())

	assert.NoError(t, hub.Publish(agent.Message{From: "a", Payload: "late"}))
	assert.Empty(t, hub.Log())
}
