package orchestrator

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/oklog/ulid/v2"

	"github.com/agentmux/agentmux/internal/agent"
)

const messagesTopic = "agent.messages"

// MessageHub carries inter-agent messages during one collaborative run. It
// keeps an append-only log in publish order for synthesis, and fans messages
// out over watermill for live subscribers. The hub lives exactly as long as
// the run; messages are never persisted.
type MessageHub struct {
	mu     sync.Mutex
	pubsub *gochannel.GoChannel
	log    []agent.Message
	closed bool
}

// NewMessageHub creates a hub for one orchestration run.
func NewMessageHub() *MessageHub {
	return &MessageHub{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{
				OutputChannelBuffer: 100,
				Persistent:          false,
			},
			watermill.NopLogger{},
		),
	}
}

// Publish records the message and fans it out. An empty To means broadcast;
// targeted delivery is the subscriber's concern since every in-process
// subscriber sees the full stream.
func (h *MessageHub) Publish(msg agent.Message) error {
	if msg.At.IsZero() {
		msg.At = time.Now()
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.log = append(h.log, msg)
	h.mu.Unlock()

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return h.pubsub.Publish(messagesTopic, message.NewMessage(ulid.Make().String(), payload))
}

// Subscribe returns a channel of messages addressed to the given agent:
// broadcasts plus messages naming it directly. The channel closes when the
// context ends or the hub closes.
func (h *MessageHub) Subscribe(ctx context.Context, agentID string) (<-chan agent.Message, error) {
	raw, err := h.pubsub.Subscribe(ctx, messagesTopic)
	if err != nil {
		return nil, err
	}

	out := make(chan agent.Message, 16)
	go func() {
		defer close(out)
		for m := range raw {
			var msg agent.Message
			if err := json.Unmarshal(m.Payload, &msg); err != nil {
				m.Ack()
				continue
			}
			m.Ack()
			if msg.To != "" && msg.To != agentID {
				continue
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Log returns a copy of every message published so far, in publish order.
func (h *MessageHub) Log() []agent.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]agent.Message, len(h.log))
	copy(out, h.log)
	return out
}

// Close shuts the hub down. Further publishes are dropped.
func (h *MessageHub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()
	return h.pubsub.Close()
}
