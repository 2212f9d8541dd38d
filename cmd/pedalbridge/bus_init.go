// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package main

import (
	"time"

	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/pedalbridge/internal/config"
	"github.com/tomtom215/pedalbridge/internal/eventbus"
	"github.com/tomtom215/pedalbridge/internal/logging"
	"github.com/tomtom215/pedalbridge/internal/supervisor"
	"github.com/tomtom215/pedalbridge/internal/supervisor/services"
)

// busComponents holds the bus connection and the feedback publisher.
type busComponents struct {
	conn      *natsgo.Conn
	publisher *eventbus.Publisher
	url       string
}

// initBus starts the embedded server when configured and connects to the
// bus. Any failure here is fatal.
func initBus(cfg *config.Config, tree *supervisor.SupervisorTree) *busComponents {
	url := cfg.Bus.ClientURL()

	if cfg.Bus.Embedded {
		srv, err := eventbus.NewEmbeddedServer(eventbus.ServerConfig{
			Host: cfg.Bus.Host,
			Port: cfg.Bus.Port,
		})
		if err != nil {
			logging.Fatal().Err(err).Str("host", cfg.Bus.Host).Int("port", cfg.Bus.Port).Msg("Failed to start embedded NATS server")
		}
		if cfg.Bus.URL == "" {
			url = srv.ClientURL()
		}
		tree.AddBusService(services.NewEmbeddedBusService(srv, time.Second, 5*time.Second))
		logging.Info().Str("url", srv.ClientURL()).Msg("Embedded NATS server started")
	}

	conn, err := eventbus.Connect(url, "pedalbridge", logging.NewWatermillAdapter("bus"))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to NATS")
	}

	publisher, err := eventbus.NewPublisher(eventbus.PublisherConfig{
		URL:           url,
		SubjectPrefix: cfg.Bus.SubjectPrefix,
	}, logging.NewWatermillAdapter("feedback-publisher"))
	if err != nil {
		conn.Close()
		logging.Fatal().Err(err).Msg("Failed to create feedback publisher")
	}

	return &busComponents{conn: conn, publisher: publisher, url: url}
}

// Close drains the connection and closes the publisher.
func (b *busComponents) Close() {
	if err := b.publisher.Close(); err != nil {
		logging.Warn().Err(err).Msg("Error closing feedback publisher")
	}
	b.conn.Close()
}
