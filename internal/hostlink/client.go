// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package hostlink

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/tomtom215/pedalbridge/internal/bridgeerr"
	"github.com/tomtom215/pedalbridge/internal/config"
	"github.com/tomtom215/pedalbridge/internal/health"
	"github.com/tomtom215/pedalbridge/internal/logging"
	"github.com/tomtom215/pedalbridge/internal/metrics"
	"github.com/tomtom215/pedalbridge/internal/protocol"
)

// readyPollInterval is the dial retry interval while waiting for the host.
const readyPollInterval = 250 * time.Millisecond

// Client talks to the host command port.
type Client struct {
	addr        string
	timeout     time.Duration
	dialTimeout time.Duration
	terminator  byte
	state       *health.State
	breaker     *breaker
}

// New creates a host client. state receives command link updates and may be
// shared with the health monitor.
func New(host config.HostConfig, breakerCfg config.BreakerConfig, state *health.State) *Client {
	c := &Client{
		addr:        host.CommandAddr(),
		timeout:     host.Timeout,
		dialTimeout: host.DialTimeout,
		terminator:  host.TerminatorByte(),
		state:       state,
	}
	if breakerCfg.Enabled {
		c.breaker = newBreaker("audio-host", breakerCfg)
	}
	return c
}

// Addr returns the command port address.
func (c *Client) Addr() string {
	return c.addr
}

// Call sends one command line and returns the parsed reply, whatever its code.
func (c *Client) Call(ctx context.Context, line string) (protocol.Response, error) {
	start := time.Now()
	resp, err := c.call(ctx, line)
	metrics.RecordHostCommand(keyword(line), time.Since(start), err)
	return resp, err
}

// Do sends one command and returns a *bridgeerr.HostError if the host
// replied with a non-zero code.
func (c *Client) Do(ctx context.Context, line string) (protocol.Response, error) {
	resp, err := c.Call(ctx, line)
	if err != nil {
		return resp, err
	}
	if !resp.OK() {
		return resp, &bridgeerr.HostError{Command: line, Code: resp.Code, Payload: resp.Payload}
	}
	return resp, nil
}

// WaitReady dials the command port until it accepts a connection or wait
// elapses. It sends no command. Returns true once the port is reachable.
func (c *Client) WaitReady(ctx context.Context, wait time.Duration) bool {
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()

	for {
		d := net.Dialer{Timeout: c.dialTimeout}
		conn, err := d.DialContext(ctx, "tcp", c.addr)
		if err == nil {
			_ = conn.Close()
			c.state.SetCommandConnected(true)
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}

func (c *Client) call(ctx context.Context, line string) (protocol.Response, error) {
	if c.breaker == nil {
		return c.roundTrip(ctx, line)
	}
	resp, err := c.breaker.execute(func() (protocol.Response, error) {
		return c.roundTrip(ctx, line)
	})
	if errors.Is(err, errBreakerRejected) {
		return protocol.Response{}, bridgeerr.Unavailable(c.addr, err)
	}
	return resp, err
}

// roundTrip performs one transient connection exchange.
func (c *Client) roundTrip(ctx context.Context, line string) (protocol.Response, error) {
	log := logging.Ctx(ctx)

	d := net.Dialer{Timeout: c.dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		c.state.SetCommandConnected(false)
		return protocol.Response{}, bridgeerr.Unavailable(c.addr, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		c.state.SetCommandConnected(false)
		return protocol.Response{}, bridgeerr.Unavailable(c.addr, err)
	}

	out := make([]byte, 0, len(line)+1)
	out = append(out, line...)
	out = append(out, c.terminator)
	if _, err := conn.Write(out); err != nil {
		c.state.SetCommandConnected(false)
		return protocol.Response{}, bridgeerr.Unavailable(c.addr, fmt.Errorf("write: %w", err))
	}
	log.Debug().Str("command", line).Msg("Sent host command")

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), protocol.MaxLineLength)
	scanner.Split(protocol.ScanLines)
	if !scanner.Scan() {
		err := scanner.Err()
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		c.state.SetCommandConnected(false)
		return protocol.Response{}, bridgeerr.Unavailable(c.addr, fmt.Errorf("read reply: %w", err))
	}

	c.state.SetCommandConnected(true)
	reply := scanner.Text()
	log.Debug().Str("reply", reply).Msg("Received host reply")

	return protocol.ParseResponse(reply)
}

// keyword labels host command metrics. Pass-through traffic can carry any
// word, so only the bridge's own commands get a series of their own.
func keyword(line string) string {
	name, _, _ := strings.Cut(strings.TrimSpace(line), " ")
	if protocol.IsCommand(name) {
		return name
	}
	return "other"
}

// BreakerState reports the circuit breaker state, or "disabled".
func (c *Client) BreakerState() string {
	if c.breaker == nil {
		return "disabled"
	}
	return c.breaker.State()
}
