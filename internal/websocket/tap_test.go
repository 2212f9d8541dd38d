// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/pedalbridge/internal/eventbus"
	"github.com/tomtom215/pedalbridge/internal/protocol"
	"github.com/tomtom215/pedalbridge/internal/testinfra"
)

func dialTap(t *testing.T, srv *httptest.Server, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHandler_PingAndOrigin(t *testing.T) {
	t.Parallel()
	hub, _, _ := setupHub(t)
	srv := httptest.NewServer(NewHandler(hub, []string{"http://ops.local"}))
	defer srv.Close()

	conn := dialTap(t, srv, nil)
	if err := conn.WriteJSON(Message{Type: MessageTypePing}); err != nil {
		t.Fatal(err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var reply Message
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatal(err)
	}
	if reply.Type != MessageTypePong {
		t.Errorf("reply = %+v", reply)
	}

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"http://evil.example"}})
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err == nil {
		t.Fatal("dial from a foreign origin should fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("foreign origin response = %v", resp)
	}
}

func TestTap_RelaysFeedbackEvents(t *testing.T) {
	t.Parallel()

	nats := testinfra.StartNATS(t)
	sub, err := eventbus.NewSubscriber(eventbus.SubscriberConfig{URL: nats.ClientURL()}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()
	pub, err := eventbus.NewPublisher(eventbus.PublisherConfig{URL: nats.ClientURL(), SubjectPrefix: "rig"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer pub.Close()

	hub, _, _ := setupHub(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tapDone := make(chan error, 1)
	go func() { tapDone <- NewTap(hub, sub, "rig.feedback.>").Serve(ctx) }()

	srv := httptest.NewServer(NewHandler(hub, []string{"*"}))
	defer srv.Close()
	conn := dialTap(t, srv, http.Header{"Origin": []string{"http://anywhere"}})

	// Only log events, to prove the filter reaches the hub.
	if err := conn.WriteJSON(map[string]interface{}{"type": "filter", "data": []string{"log"}}); err != nil {
		t.Fatal(err)
	}

	received := make(chan Message, 1)
	go func() {
		for {
			var msg Message
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			if msg.Type == protocol.TypeLog {
				received <- msg
				return
			}
		}
	}()

	// The subscription and filter settle asynchronously; republish until seen.
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case msg := <-received:
			var data protocol.Log
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				t.Fatal(err)
			}
			if data.Message != "hello operators" {
				t.Errorf("relayed log = %+v", data)
			}
			cancel()
			select {
			case err := <-tapDone:
				if err != context.Canceled {
					t.Errorf("Tap.Serve() = %v", err)
				}
			case <-time.After(2 * time.Second):
				t.Error("Tap.Serve() did not return after cancel")
			}
			return
		case <-ticker.C:
			_ = pub.PublishEvent(ctx, protocol.Event{Type: protocol.TypeAudioMonitor, Data: protocol.AudioMonitor{Index: 1}})
			_ = pub.PublishEvent(ctx, protocol.Event{Type: protocol.TypeLog, Data: protocol.Log{Level: 1, Message: "hello operators"}})
		case <-timeout:
			t.Fatal("no feedback event relayed to the websocket client")
		}
	}
}
