// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package health

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/pedalbridge/internal/bridgeerr"
	"github.com/tomtom215/pedalbridge/internal/eventbus"
	"github.com/tomtom215/pedalbridge/internal/logging"
)

func init() {
	logging.Init(logging.Config{Level: "disabled", Output: io.Discard})
}

func TestStatus_Table(t *testing.T) {
	t.Parallel()

	tests := []struct {
		command  bool
		feedback bool
		want     string
	}{
		{false, false, StatusUnhealthy},
		{false, true, StatusUnhealthy},
		{true, false, StatusDegraded},
		{true, true, StatusHealthy},
	}

	for _, tt := range tests {
		if got := Status(tt.command, tt.feedback); got != tt.want {
			t.Errorf("Status(%v, %v) = %q, want %q", tt.command, tt.feedback, got, tt.want)
		}
	}
}

func TestState_QueryLatchesStarting(t *testing.T) {
	t.Parallel()

	s := NewState()
	s.SetCommandConnected(true)
	s.SetFeedbackConnected(true)

	if got := s.Peek().Status; got != StatusStarting {
		t.Errorf("Peek() before first query = %q, want %q", got, StatusStarting)
	}

	first := s.Query()
	if first.Status != StatusStarting || first.Message != "bridge starting" {
		t.Errorf("first Query() = %+v, want starting", first)
	}
	if !first.CommandConnected || !first.FeedbackConnected {
		t.Errorf("first Query() should still carry the flags: %+v", first)
	}

	second := s.Query()
	if second.Status != StatusHealthy || second.Message != "bridge connected to audio host" {
		t.Errorf("second Query() = %+v, want healthy", second)
	}
}

func TestState_FlagsIndependent(t *testing.T) {
	t.Parallel()

	s := NewState()
	s.Query()

	s.SetCommandConnected(true)
	if got := s.Query(); got.Status != StatusDegraded || got.Message != "feedback stream disconnected" {
		t.Errorf("command only: %+v", got)
	}

	s.SetFeedbackConnected(true)
	s.SetCommandConnected(false)
	if got := s.Query(); got.Status != StatusUnhealthy || got.Message != "audio host command port unreachable" {
		t.Errorf("feedback only: %+v", got)
	}
}

func TestMonitor_Handle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		wantKind string
	}{
		{"empty body", "", ""},
		{"health action", `{"action":"health"}`, ""},
		{"no action", `{}`, ""},
		{"other action", `{"action":"reboot"}`, bridgeerr.KindUnknownMethod},
		{"malformed", `{"action":`, bridgeerr.KindProtocol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := NewMonitor(nil, "x.health", time.Second, NewState())

			var reply map[string]interface{}
			if err := json.Unmarshal(m.Handle(context.Background(), []byte(tt.body)), &reply); err != nil {
				t.Fatalf("reply is not JSON: %v", err)
			}

			if tt.wantKind == "" {
				if reply["status"] != StatusStarting {
					t.Errorf("status = %v, want starting", reply["status"])
				}
				return
			}
			if reply["kind"] != tt.wantKind {
				t.Errorf("kind = %v, want %s", reply["kind"], tt.wantKind)
			}
			if _, ok := reply["status"]; ok {
				t.Error("error reply must not carry a status")
			}
		})
	}
}

func TestMonitor_ServeOverBus(t *testing.T) {
	srv, err := eventbus.NewEmbeddedServer(eventbus.ServerConfig{Host: "127.0.0.1", Port: -1})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = srv.Shutdown(context.Background()) }()

	nc, err := eventbus.Connect(srv.ClientURL(), "health-test", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer nc.Close()

	state := NewState()
	state.SetCommandConnected(true)
	mon := NewMonitor(nc, "rig.health", 50*time.Millisecond, state)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mon.Serve(ctx) }()

	var statuses []string
	deadline := time.Now().Add(3 * time.Second)
	for len(statuses) < 2 && time.Now().Before(deadline) {
		msg, err := nc.Request("rig.health", []byte(`{"action":"health"}`), 500*time.Millisecond)
		if err != nil {
			time.Sleep(20 * time.Millisecond)
			continue
		}
		var r Report
		if err := json.Unmarshal(msg.Data, &r); err != nil {
			t.Fatal(err)
		}
		statuses = append(statuses, r.Status)
	}

	if len(statuses) != 2 || statuses[0] != StatusStarting || statuses[1] != StatusDegraded {
		t.Errorf("statuses = %v, want [starting degraded]", statuses)
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}
