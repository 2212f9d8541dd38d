// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package eventbus

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/pedalbridge/internal/logging"
	"github.com/tomtom215/pedalbridge/internal/protocol"
)

func init() {
	logging.Init(logging.Config{Level: "disabled", Output: io.Discard})
}

func startServer(t *testing.T) *EmbeddedServer {
	t.Helper()
	srv, err := NewEmbeddedServer(ServerConfig{Host: "127.0.0.1", Port: -1})
	if err != nil {
		t.Fatalf("NewEmbeddedServer() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

func connect(t *testing.T, url string) *natsgo.Conn {
	t.Helper()
	nc, err := Connect(url, t.Name(), watermill.NopLogger{})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(nc.Close)
	return nc
}

func TestEmbeddedServer_Lifecycle(t *testing.T) {
	srv := startServer(t)
	if !srv.IsRunning() {
		t.Fatal("server should be running after start")
	}
	if srv.ClientURL() == "" {
		t.Fatal("ClientURL() should not be empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if srv.IsRunning() {
		t.Error("server should not be running after shutdown")
	}
}

func TestServeEndpoint_SerializesRequests(t *testing.T) {
	srv := startServer(t)
	serverConn := connect(t, srv.ClientURL())
	clientConn := connect(t, srv.ClientURL())

	var inFlight, maxInFlight atomic.Int32
	handler := func(_ context.Context, data []byte) []byte {
		n := inFlight.Add(1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return append([]byte("echo:"), data...)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ServeEndpoint(ctx, serverConn, "test.command", 50*time.Millisecond, handler) }()

	// Wait for the subscription to be registered.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := clientConn.Request("test.command", []byte("ping"), 200*time.Millisecond); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("endpoint never answered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body := fmt.Sprintf("req-%d", i)
			msg, err := clientConn.Request("test.command", []byte(body), 5*time.Second)
			if err != nil {
				errs <- err
				return
			}
			if string(msg.Data) != "echo:"+body {
				errs <- fmt.Errorf("reply %q for %q", msg.Data, body)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	if got := maxInFlight.Load(); got != 1 {
		t.Errorf("max in-flight requests = %d, want 1", got)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ServeEndpoint() returned %v after cancel, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("ServeEndpoint() did not stop within one second of cancel")
	}
}

func TestPublisher_PreservesOrder(t *testing.T) {
	srv := startServer(t)
	subConn := connect(t, srv.ClientURL())

	sub, err := subConn.SubscribeSync("rig.feedback.>")
	if err != nil {
		t.Fatal(err)
	}
	if err := subConn.Flush(); err != nil {
		t.Fatal(err)
	}

	pub, err := NewPublisher(PublisherConfig{URL: srv.ClientURL(), SubjectPrefix: "rig"}, watermill.NopLogger{})
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}
	defer pub.Close()

	const n = 150
	for i := 0; i < n; i++ {
		ev := protocol.Event{Type: protocol.TypeAudioMonitor, Data: protocol.AudioMonitor{Index: i, Value: 0.5}}
		if i%3 == 0 {
			ev = protocol.Event{Type: protocol.TypeLog, Data: protocol.Log{Level: 1, Message: fmt.Sprint(i)}}
		}
		if err := pub.PublishEvent(context.Background(), ev); err != nil {
			t.Fatalf("PublishEvent(%d) error = %v", i, err)
		}
	}

	for i := 0; i < n; i++ {
		msg, err := sub.NextMsg(2 * time.Second)
		if err != nil {
			t.Fatalf("NextMsg(%d) error = %v", i, err)
		}
		var ev struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			t.Fatalf("decode event %d: %v", i, err)
		}

		switch ev.Type {
		case protocol.TypeLog:
			var l protocol.Log
			_ = json.Unmarshal(ev.Data, &l)
			if l.Message != fmt.Sprint(i) || msg.Subject != "rig.feedback.log" {
				t.Fatalf("event %d out of order: subject=%s data=%s", i, msg.Subject, ev.Data)
			}
		case protocol.TypeAudioMonitor:
			var a protocol.AudioMonitor
			_ = json.Unmarshal(ev.Data, &a)
			if a.Index != i {
				t.Fatalf("event %d out of order: got index %d", i, a.Index)
			}
		default:
			t.Fatalf("unexpected event type %q", ev.Type)
		}
	}
}

func TestPublisher_ClosedRejects(t *testing.T) {
	srv := startServer(t)
	pub, err := NewPublisher(PublisherConfig{URL: srv.ClientURL(), SubjectPrefix: "rig"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := pub.PublishEvent(context.Background(), protocol.Event{Type: protocol.TypeRaw}); err == nil {
		t.Error("PublishEvent() after Close should fail")
	}
}

func TestSubscriber_ReceivesWildcard(t *testing.T) {
	srv := startServer(t)

	sub, err := NewSubscriber(SubscriberConfig{URL: srv.ClientURL()}, nil)
	if err != nil {
		t.Fatalf("NewSubscriber() error = %v", err)
	}
	defer sub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	messages, err := sub.Subscribe(ctx, "rig.feedback.>")
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	pub, err := NewPublisher(PublisherConfig{URL: srv.ClientURL(), SubjectPrefix: "rig"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer pub.Close()

	// Core NATS has no replay: publish until the subscription is live.
	ev := protocol.Event{Type: protocol.TypeTransport, Data: protocol.Transport{Rolling: true, BeatsPerBar: 4, BeatsPerMinute: 120}}
	timeout := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case msg := <-messages:
			msg.Ack()
			if got := msg.Metadata.Get("type"); got != protocol.TypeTransport {
				t.Errorf("metadata type = %q, want %q", got, protocol.TypeTransport)
			}
			return
		case <-tick.C:
			if err := pub.PublishEvent(context.Background(), ev); err != nil {
				t.Fatal(err)
			}
		case <-timeout:
			t.Fatal("no message received")
		}
	}
}
