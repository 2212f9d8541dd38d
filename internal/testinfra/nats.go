// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package testinfra

import (
	"context"
	"testing"
	"time"

	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/pedalbridge/internal/eventbus"
)

// StartNATS runs an embedded NATS server on a random port until the test ends.
func StartNATS(t *testing.T) *eventbus.EmbeddedServer {
	t.Helper()

	srv, err := eventbus.NewEmbeddedServer(eventbus.ServerConfig{Host: "127.0.0.1", Port: -1})
	if err != nil {
		t.Fatalf("start embedded NATS: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

// ConnectNATS opens a client connection that is closed when the test ends.
func ConnectNATS(t *testing.T, url string) *natsgo.Conn {
	t.Helper()

	nc, err := eventbus.Connect(url, t.Name(), nil)
	if err != nil {
		t.Fatalf("connect NATS: %v", err)
	}
	t.Cleanup(nc.Close)
	return nc
}
