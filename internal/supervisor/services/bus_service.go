// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package services

import (
	"context"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/pedalbridge/internal/logging"
)

// BusServer matches the embedded NATS server lifecycle.
//
// Satisfied by *eventbus.EmbeddedServer.
type BusServer interface {
	IsRunning() bool
	Shutdown(ctx context.Context) error
}

// EmbeddedBusService owns an already started embedded bus server.
//
// It watches the server while the tree runs and shuts it down when the
// context is canceled. The server cannot be restarted in place, so if it
// stops on its own the whole tree is terminated and the process exits.
type EmbeddedBusService struct {
	server          BusServer
	checkInterval   time.Duration
	shutdownTimeout time.Duration
}

// NewEmbeddedBusService wraps server. A zero checkInterval means 1s.
func NewEmbeddedBusService(server BusServer, checkInterval, shutdownTimeout time.Duration) *EmbeddedBusService {
	if checkInterval <= 0 {
		checkInterval = time.Second
	}
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &EmbeddedBusService{
		server:          server,
		checkInterval:   checkInterval,
		shutdownTimeout: shutdownTimeout,
	}
}

// Serve implements suture.Service.
func (s *EmbeddedBusService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
			defer cancel()
			if err := s.server.Shutdown(shutdownCtx); err != nil {
				logging.Warn().Err(err).Msg("Embedded bus did not shut down cleanly")
			}
			return ctx.Err()

		case <-ticker.C:
			if !s.server.IsRunning() {
				logging.Error().Msg("Embedded bus stopped unexpectedly, terminating")
				return suture.ErrTerminateSupervisorTree
			}
		}
	}
}

// String implements fmt.Stringer for suture logging.
func (s *EmbeddedBusService) String() string {
	return "embedded-bus"
}
