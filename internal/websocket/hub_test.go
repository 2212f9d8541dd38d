// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package websocket

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/tomtom215/pedalbridge/internal/logging"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "disabled", Output: io.Discard})
}

// setupHub starts a hub that stops when the test ends.
func setupHub(t *testing.T) (*Hub, context.CancelFunc, chan error) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Serve(ctx) }()
	t.Cleanup(cancel)
	return hub, cancel, done
}

// createTestClient creates a client without a connection.
func createTestClient(hub *Hub, buffer int) *Client {
	return &Client{id: clientIDCounter.Add(1), hub: hub, send: make(chan Message, buffer)}
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.GetClientCount() == n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("client count = %d, want %d", hub.GetClientCount(), n)
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case msg := <-c.send:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}
	}
}

func TestHub_BroadcastsInOrder(t *testing.T) {
	t.Parallel()
	hub, _, _ := setupHub(t)

	a, b := createTestClient(hub, 16), createTestClient(hub, 16)
	if !hub.Attach(a) || !hub.Attach(b) {
		t.Fatal("Attach() = false on a running hub")
	}
	waitForClients(t, hub, 2)

	hub.BroadcastRaw([]byte(`{"type":"log","data":{"level":1,"message":"one"}}`))
	hub.BroadcastRaw([]byte(`{"type":"cpu_load","data":{"load":3}}`))

	for _, c := range []*Client{a, b} {
		if got := receive(t, c).Type; got != "log" {
			t.Errorf("first message type = %q", got)
		}
		if got := receive(t, c).Type; got != "cpu_load" {
			t.Errorf("second message type = %q", got)
		}
	}
}

func TestHub_DropsMalformedEvents(t *testing.T) {
	t.Parallel()
	hub, _, _ := setupHub(t)

	c := createTestClient(hub, 16)
	hub.Attach(c)
	waitForClients(t, hub, 1)

	hub.BroadcastRaw([]byte(`not json`))
	hub.BroadcastRaw([]byte(`{"data":{}}`))
	hub.BroadcastRaw([]byte(`{"type":"raw","data":{"line":"x"}}`))

	if got := receive(t, c).Type; got != "raw" {
		t.Errorf("message type = %q, want raw", got)
	}
}

func TestHub_Filter(t *testing.T) {
	t.Parallel()
	hub, _, _ := setupHub(t)

	c := createTestClient(hub, 16)
	c.SetFilter([]string{"transport"})
	hub.Attach(c)
	waitForClients(t, hub, 1)

	hub.BroadcastRaw([]byte(`{"type":"log","data":{}}`))
	hub.BroadcastRaw([]byte(`{"type":"transport","data":{}}`))

	if got := receive(t, c).Type; got != "transport" {
		t.Errorf("filtered client got %q", got)
	}

	c.SetFilter(nil)
	hub.BroadcastRaw([]byte(`{"type":"log","data":{}}`))
	if got := receive(t, c).Type; got != "log" {
		t.Errorf("cleared filter got %q", got)
	}
}

func TestHub_SlowClientDisconnected(t *testing.T) {
	t.Parallel()
	hub, _, _ := setupHub(t)

	slow := createTestClient(hub, 1)
	hub.Attach(slow)
	waitForClients(t, hub, 1)

	for i := 0; i < 3; i++ {
		hub.BroadcastRaw([]byte(`{"type":"audio_monitor","data":{}}`))
	}
	waitForClients(t, hub, 0)
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	t.Parallel()
	hub, cancel, done := setupHub(t)

	c := createTestClient(hub, 4)
	hub.Attach(c)
	waitForClients(t, hub, 1)

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve() did not return")
	}

	if _, ok := <-c.send; ok {
		t.Error("client channel should be closed after shutdown")
	}
	if hub.Attach(createTestClient(hub, 1)) {
		t.Error("Attach() on a stopped hub should report false")
	}
	// Must not block.
	hub.detach(c)
}

func TestGetShutdownReason(t *testing.T) {
	t.Parallel()

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	expired, cancel2 := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel2()

	if got := getShutdownReason(canceled); got != ShutdownReasonContextCanceled {
		t.Errorf("canceled = %q", got)
	}
	if got := getShutdownReason(expired); got != ShutdownReasonContextDeadline {
		t.Errorf("expired = %q", got)
	}
}
