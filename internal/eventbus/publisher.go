// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package eventbus

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/tomtom215/pedalbridge/internal/metrics"
	"github.com/tomtom215/pedalbridge/internal/protocol"
)

// PublisherConfig configures the feedback publisher.
type PublisherConfig struct {
	URL string
	// SubjectPrefix is prepended as "<prefix>.feedback.<type>".
	SubjectPrefix string
}

// Publisher publishes feedback events. The feedback reader and the plugin
// manager both publish through one Publisher; sends are serialized so events
// leave in the order Publish was entered.
type Publisher struct {
	publisher message.Publisher
	prefix    string
	logger    watermill.LoggerAdapter

	// sendMu is held for the whole publish so concurrent writers never interleave.
	sendMu sync.Mutex
	closed bool
}

// NewPublisher creates a Watermill publisher over core NATS.
func NewPublisher(cfg PublisherConfig, logger watermill.LoggerAdapter) (*Publisher, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	wmConfig := wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: ConnectOptions("pedalbridge-feedback", logger),
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled: true,
		},
	}

	pub, err := wmNats.NewPublisher(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	return newPublisher(pub, cfg.SubjectPrefix, logger), nil
}

func newPublisher(pub message.Publisher, prefix string, logger watermill.LoggerAdapter) *Publisher {
	return &Publisher{
		publisher: pub,
		prefix:    prefix,
		logger:    logger,
	}
}

// Subject returns the subject an event of the given type is published on.
func (p *Publisher) Subject(eventType string) string {
	return p.prefix + ".feedback." + eventType
}

// PublishEvent encodes ev as {"type","data"} and publishes it on its type's subject.
func (p *Publisher) PublishEvent(_ context.Context, ev protocol.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		metrics.RecordFeedbackPublishError()
		return fmt.Errorf("encode %s event: %w", ev.Type, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("type", ev.Type)

	p.sendMu.Lock()
	defer p.sendMu.Unlock()

	if p.closed {
		return fmt.Errorf("publisher is closed")
	}
	if err := p.publisher.Publish(p.Subject(ev.Type), msg); err != nil {
		metrics.RecordFeedbackPublishError()
		return fmt.Errorf("publish %s event: %w", ev.Type, err)
	}

	metrics.RecordFeedbackEvent(ev.Type)
	return nil
}

// Close flushes and closes the underlying publisher.
func (p *Publisher) Close() error {
	p.sendMu.Lock()
	defer p.sendMu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}
