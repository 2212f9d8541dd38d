// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package websocket

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/pedalbridge/internal/logging"
)

// MessageSource delivers bus messages for a topic.
type MessageSource interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
}

// Tap relays feedback events from the bus to the hub.
type Tap struct {
	hub    *Hub
	source MessageSource
	topic  string
}

// NewTap creates a Tap subscribed to topic, normally the feedback wildcard.
func NewTap(hub *Hub, source MessageSource, topic string) *Tap {
	return &Tap{hub: hub, source: source, topic: topic}
}

// String implements fmt.Stringer for suture logging.
func (t *Tap) String() string {
	return "websocket-tap"
}

// Serve implements suture.Service.
func (t *Tap) Serve(ctx context.Context) error {
	messages, err := t.source.Subscribe(ctx, t.topic)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", t.topic, err)
	}
	logging.Info().Str("topic", t.topic).Msg("Feedback tap started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("feedback subscription %s closed", t.topic)
			}
			t.hub.BroadcastRaw(msg.Payload)
			msg.Ack()
		}
	}
}
