// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package hostlink

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/pedalbridge/internal/bridgeerr"
	"github.com/tomtom215/pedalbridge/internal/config"
	"github.com/tomtom215/pedalbridge/internal/health"
	"github.com/tomtom215/pedalbridge/internal/logging"
	"github.com/tomtom215/pedalbridge/internal/testinfra"
)

func init() {
	logging.Init(logging.Config{Level: "disabled", Output: io.Discard})
}

func hostConfig(host string, port int) config.HostConfig {
	return config.HostConfig{
		Address:     host,
		CommandPort: port,
		Timeout:     300 * time.Millisecond,
		DialTimeout: 300 * time.Millisecond,
		Terminator:  config.TerminatorNUL,
	}
}

func noBreaker() config.BreakerConfig {
	return config.BreakerConfig{Enabled: false}
}

// closedPort returns a local port with nothing listening on it.
func closedPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()
	return port
}

func TestCall_RoundTrip(t *testing.T) {
	t.Parallel()

	host := testinfra.NewStubHost(t)
	state := health.NewState()
	c := New(hostConfig(host.Host(), host.Port()), noBreaker(), state)

	resp, err := c.Call(context.Background(), "add urn:test:gain 0")
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if resp.Code != 0 {
		t.Errorf("Code = %d, want 0", resp.Code)
	}
	if !state.CommandConnected() {
		t.Error("command link should be up after a complete reply")
	}

	got := host.Commands()
	if len(got) != 1 || got[0] != "add urn:test:gain 0" {
		t.Errorf("host received %q", got)
	}
}

func TestCall_NewlineTerminator(t *testing.T) {
	t.Parallel()

	host := testinfra.NewStubHost(t)
	cfg := hostConfig(host.Host(), host.Port())
	cfg.Terminator = config.TerminatorNewline
	c := New(cfg, noBreaker(), health.NewState())

	if _, err := c.Call(context.Background(), "bundle_add /tmp/x.lv2"); err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if got := host.Commands(); len(got) != 1 || got[0] != "bundle_add /tmp/x.lv2" {
		t.Errorf("host received %q", got)
	}
}

func TestCall_NonZeroCodeIsNotAnError(t *testing.T) {
	t.Parallel()

	host := testinfra.NewStubHost(t)
	host.SetHandler(func(string) string { return "resp -101 bad uri" })
	c := New(hostConfig(host.Host(), host.Port()), noBreaker(), health.NewState())

	resp, err := c.Call(context.Background(), "add nope 0")
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if resp.Code != -101 || resp.Payload != "bad uri" {
		t.Errorf("resp = %+v", resp)
	}

	_, err = c.Do(context.Background(), "add nope 0")
	var hostErr *bridgeerr.HostError
	if !errors.As(err, &hostErr) {
		t.Fatalf("Do() error = %v, want *HostError", err)
	}
	if hostErr.Code != -101 || hostErr.Payload != "bad uri" {
		t.Errorf("HostError = %+v", hostErr)
	}
}

func TestCall_MalformedReply(t *testing.T) {
	t.Parallel()

	host := testinfra.NewStubHost(t)
	host.SetHandler(func(string) string { return "garbage" })
	state := health.NewState()
	c := New(hostConfig(host.Host(), host.Port()), noBreaker(), state)

	_, err := c.Call(context.Background(), "remove 0")
	if !errors.Is(err, bridgeerr.ErrProtocol) {
		t.Fatalf("Call() error = %v, want ErrProtocol", err)
	}
	if !state.CommandConnected() {
		t.Error("a malformed reply still proves the host is reachable")
	}
}

func TestCall_UnreachableWithinTimeout(t *testing.T) {
	t.Parallel()

	state := health.NewState()
	state.SetCommandConnected(true)
	cfg := hostConfig("127.0.0.1", closedPort(t))
	c := New(cfg, noBreaker(), state)

	start := time.Now()
	_, err := c.Call(context.Background(), "remove 0")
	elapsed := time.Since(start)

	if !errors.Is(err, bridgeerr.ErrUpstreamUnavailable) {
		t.Fatalf("Call() error = %v, want ErrUpstreamUnavailable", err)
	}
	if limit := cfg.Timeout + cfg.DialTimeout + 200*time.Millisecond; elapsed > limit {
		t.Errorf("Call() took %v, want under %v", elapsed, limit)
	}
	if state.CommandConnected() {
		t.Error("command link should be down after a dial failure")
	}
}

func TestCall_SilentHostTimesOut(t *testing.T) {
	t.Parallel()

	host := testinfra.NewStubHost(t)
	host.SetSilent(true)
	state := health.NewState()
	cfg := hostConfig(host.Host(), host.Port())
	c := New(cfg, noBreaker(), state)

	start := time.Now()
	_, err := c.Call(context.Background(), "param_get 0 gain")
	elapsed := time.Since(start)

	if !errors.Is(err, bridgeerr.ErrUpstreamUnavailable) {
		t.Fatalf("Call() error = %v, want ErrUpstreamUnavailable", err)
	}
	if elapsed < cfg.Timeout || elapsed > cfg.Timeout+300*time.Millisecond {
		t.Errorf("Call() took %v, want about %v", elapsed, cfg.Timeout)
	}
	if state.CommandConnected() {
		t.Error("command link should be down after a reply timeout")
	}
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	cfg := hostConfig("127.0.0.1", closedPort(t))
	c := New(cfg, config.BreakerConfig{Enabled: true, MaxFailures: 2, Timeout: time.Minute}, health.NewState())

	for i := 0; i < 2; i++ {
		if _, err := c.Call(context.Background(), "remove 0"); !errors.Is(err, bridgeerr.ErrUpstreamUnavailable) {
			t.Fatalf("call %d error = %v", i, err)
		}
	}
	if got := c.BreakerState(); got != "open" {
		t.Fatalf("BreakerState() = %q, want open", got)
	}

	_, err := c.Call(context.Background(), "remove 0")
	if !errors.Is(err, bridgeerr.ErrUpstreamUnavailable) {
		t.Fatalf("rejected call error = %v, want ErrUpstreamUnavailable", err)
	}
	if !strings.Contains(err.Error(), "circuit breaker open") {
		t.Errorf("rejected call error = %v, want breaker rejection", err)
	}
}

func TestBreaker_HostErrorsDoNotTrip(t *testing.T) {
	t.Parallel()

	host := testinfra.NewStubHost(t)
	c := New(hostConfig(host.Host(), host.Port()),
		config.BreakerConfig{Enabled: true, MaxFailures: 1, Timeout: time.Minute}, health.NewState())

	for i := 0; i < 3; i++ {
		if _, err := c.Do(context.Background(), "remove 42"); err == nil {
			t.Fatal("remove of unknown instance should fail")
		}
	}
	if got := c.BreakerState(); got != "closed" {
		t.Errorf("BreakerState() = %q, want closed", got)
	}
}

func TestWaitReady(t *testing.T) {
	t.Parallel()

	t.Run("reachable", func(t *testing.T) {
		t.Parallel()
		host := testinfra.NewStubHost(t)
		state := health.NewState()
		c := New(hostConfig(host.Host(), host.Port()), noBreaker(), state)
		if !c.WaitReady(context.Background(), time.Second) {
			t.Fatal("WaitReady() = false")
		}
		if !state.CommandConnected() {
			t.Error("command link should be up")
		}
		if n := len(host.Commands()); n != 0 {
			t.Errorf("WaitReady sent %d commands, want 0", n)
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		t.Parallel()
		c := New(hostConfig("127.0.0.1", closedPort(t)), noBreaker(), health.NewState())
		start := time.Now()
		if c.WaitReady(context.Background(), 300*time.Millisecond) {
			t.Fatal("WaitReady() = true for closed port")
		}
		if elapsed := time.Since(start); elapsed > 2*time.Second {
			t.Errorf("WaitReady() took %v", elapsed)
		}
	})
}

func TestKeyword(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"add urn 0":             "add",
		"  remove 1":            "remove",
		"":                      "other",
		"bypass":                "bypass",
		"cpu_load":              "other",
		"x9f3k2 whatever 1 2 3": "other",
	}
	for in, want := range tests {
		if got := keyword(in); got != want {
			t.Errorf("keyword(%q) = %q, want %q", in, got, want)
		}
	}
}
