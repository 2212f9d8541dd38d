// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package services

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/pedalbridge/internal/logging"
	"github.com/tomtom215/pedalbridge/internal/testinfra"
)

func init() {
	logging.Init(logging.Config{Level: "disabled", Output: io.Discard})
}

func TestHTTPServerService_ServesAndShutsDown(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}),
		ReadHeaderTimeout: time.Second,
	}
	svc := NewHTTPServerService(server, ln, time.Second)
	if svc.String() != "ops-http" {
		t.Errorf("String() = %q", svc.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return")
	}
}

type failingServer struct{}

func (failingServer) Serve(net.Listener) error { return errors.New("accept failed") }
func (failingServer) Shutdown(context.Context) error { return nil }

func TestHTTPServerService_ReportsServeFailure(t *testing.T) {
	t.Parallel()

	err := NewHTTPServerService(failingServer{}, nil, 0).Serve(context.Background())
	if err == nil || errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want failure", err)
	}
}

func TestEmbeddedBusService_ShutsDownOnCancel(t *testing.T) {
	t.Parallel()

	srv := testinfra.StartNATS(t)
	svc := NewEmbeddedBusService(srv, 20*time.Millisecond, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	time.Sleep(60 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return")
	}
	if srv.IsRunning() {
		t.Error("server still running after cancel")
	}
}

type stoppedServer struct {
	running atomic.Bool
}

func (s *stoppedServer) IsRunning() bool { return s.running.Load() }
func (s *stoppedServer) Shutdown(context.Context) error { return nil }

func TestEmbeddedBusService_TerminatesTreeWhenServerDies(t *testing.T) {
	t.Parallel()

	srv := &stoppedServer{}
	srv.running.Store(true)
	svc := NewEmbeddedBusService(srv, 10*time.Millisecond, time.Second)

	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(context.Background()) }()

	time.Sleep(30 * time.Millisecond)
	srv.running.Store(false)

	select {
	case err := <-errCh:
		if !errors.Is(err, suture.ErrTerminateSupervisorTree) {
			t.Errorf("Serve() = %v, want ErrTerminateSupervisorTree", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not notice the dead server")
	}
}
