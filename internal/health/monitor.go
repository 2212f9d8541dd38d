// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package health

import (
	"bytes"
	"context"
	"time"

	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/pedalbridge/internal/bridgeerr"
	"github.com/tomtom215/pedalbridge/internal/eventbus"
	"github.com/tomtom215/pedalbridge/internal/metrics"
)

// Monitor serves health queries on its own subject.
type Monitor struct {
	nc      *natsgo.Conn
	subject string
	poll    time.Duration
	state   *State
}

// NewMonitor creates a health endpoint bound to subject.
func NewMonitor(nc *natsgo.Conn, subject string, poll time.Duration, state *State) *Monitor {
	return &Monitor{nc: nc, subject: subject, poll: poll, state: state}
}

// Serve implements suture.Service.
func (m *Monitor) Serve(ctx context.Context) error {
	if err := eventbus.ServeEndpoint(ctx, m.nc, m.subject, m.poll, m.Handle); err != nil {
		return err
	}
	return ctx.Err()
}

// String implements fmt.Stringer for suture logging.
func (m *Monitor) String() string {
	return "health-monitor"
}

type healthRequest struct {
	Action string `json:"action"`
}

// Handle answers one health request. An empty body or {"action":"health"}
// is a query.
func (m *Monitor) Handle(_ context.Context, data []byte) []byte {
	start := time.Now()

	var reply interface{}
	err := decodeRequest(data)
	if err != nil {
		reply = bridgeerr.NewReply(err)
	} else {
		reply = m.state.Query()
	}
	metrics.RecordRequest("health", "health", time.Since(start), err)

	out, mErr := json.Marshal(reply)
	if mErr != nil {
		return []byte(`{"error":"failed to encode health reply","kind":"internal"}`)
	}
	return out
}

func decodeRequest(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	var req healthRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return bridgeerr.Protocolf("malformed health request: %v", err)
	}
	if req.Action != "" && req.Action != "health" {
		return bridgeerr.UnknownMethod("", req.Action)
	}
	return nil
}
