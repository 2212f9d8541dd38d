// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package feedback

import (
	"bufio"
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/pedalbridge/internal/health"
	"github.com/tomtom215/pedalbridge/internal/logging"
	"github.com/tomtom215/pedalbridge/internal/metrics"
	"github.com/tomtom215/pedalbridge/internal/protocol"
)

// State is the reader's connection state.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateStreaming
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	default:
		return "unknown"
	}
}

// EventPublisher publishes parsed events.
type EventPublisher interface {
	PublishEvent(ctx context.Context, ev protocol.Event) error
}

// ParamSink receives host-side parameter changes.
type ParamSink interface {
	ApplyFeedbackParam(hostInstance int, symbol string, value float64) bool
}

// StatsSink receives audio statistics.
type StatsSink interface {
	RecordCPULoad(protocol.CPULoad)
	RecordTransport(protocol.Transport)
}

// Config configures a Reader.
type Config struct {
	Addr         string
	DialTimeout  time.Duration
	RetryBackoff time.Duration

	// RawLogInterval is the minimum spacing of unrecognized-line warnings.
	RawLogInterval time.Duration
}

// Reader streams host feedback to the event bus.
type Reader struct {
	cfg       Config
	publisher EventPublisher
	health    *health.State
	params    ParamSink
	stats     StatsSink

	rawLimiter *rate.Limiter
	state      atomic.Int32
	logger     zerolog.Logger
}

// NewReader creates a Reader. params and stats may be nil.
func NewReader(cfg Config, publisher EventPublisher, state *health.State, params ParamSink, stats StatsSink) *Reader {
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 2 * time.Second
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = time.Second
	}
	if cfg.RawLogInterval <= 0 {
		cfg.RawLogInterval = 5 * time.Second
	}

	return &Reader{
		cfg:        cfg,
		publisher:  publisher,
		health:     state,
		params:     params,
		stats:      stats,
		rawLimiter: rate.NewLimiter(rate.Every(cfg.RawLogInterval), 1),
		logger:     logging.WithComponent("feedback").With().Str("addr", cfg.Addr).Logger(),
	}
}

// State returns the current connection state.
func (r *Reader) State() State {
	return State(r.state.Load())
}

func (r *Reader) setState(s State) {
	r.state.Store(int32(s))
}

// String implements fmt.Stringer for suture logging.
func (r *Reader) String() string {
	return "feedback-reader"
}

// Serve implements suture.Service. It returns only when ctx is done.
func (r *Reader) Serve(ctx context.Context) error {
	attempt := 0
	for {
		if ctx.Err() != nil {
			r.setState(StateDisconnected)
			return ctx.Err()
		}

		r.setState(StateConnecting)
		conn, err := r.dial(ctx)
		if err != nil {
			r.setState(StateDisconnected)
			if attempt == 0 {
				r.logger.Warn().Err(err).Msg("Feedback port unreachable, retrying")
			} else {
				r.logger.Debug().Err(err).Int("attempt", attempt).Msg("Feedback reconnect failed")
			}
			attempt++
		} else {
			if attempt > 0 {
				metrics.RecordFeedbackReconnect()
			}
			attempt = 0
			r.stream(ctx, conn)
			r.setState(StateDisconnected)
			attempt = 1
		}

		select {
		case <-ctx.Done():
			r.setState(StateDisconnected)
			return ctx.Err()
		case <-time.After(r.cfg.RetryBackoff):
		}
	}
}

func (r *Reader) dial(ctx context.Context) (net.Conn, error) {
	d := net.Dialer{Timeout: r.cfg.DialTimeout}
	return d.DialContext(ctx, "tcp", r.cfg.Addr)
}

// stream reads lines until the connection fails or ctx is done.
func (r *Reader) stream(ctx context.Context, conn net.Conn) {
	r.setState(StateStreaming)
	r.health.SetFeedbackConnected(true)
	r.logger.Info().Msg("Feedback stream connected")

	// Closing the connection is the only way to unblock the scanner.
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		_ = conn.Close()
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), protocol.MaxLineLength)
	scanner.Split(protocol.ScanLines)

	lines := 0
	for scanner.Scan() {
		r.handleLine(ctx, scanner.Text())
		lines++
	}
	close(done)

	r.health.SetFeedbackConnected(false)
	if ctx.Err() != nil {
		r.logger.Info().Int("lines", lines).Msg("Feedback stream closed for shutdown")
		return
	}
	r.logger.Warn().Err(scanner.Err()).Int("lines", lines).Msg("Feedback stream lost")
}

// handleLine parses, applies, and publishes one line.
func (r *Reader) handleLine(ctx context.Context, line string) {
	ev := protocol.ParseFeedback(line)

	switch data := ev.Data.(type) {
	case protocol.ParamSet:
		if r.params != nil && !r.params.ApplyFeedbackParam(data.HostInstance, data.Symbol, data.Value) {
			r.logger.Debug().Int("host_instance", data.HostInstance).Msg("param_set for unknown instance")
		}
	case protocol.CPULoad:
		if r.stats != nil {
			r.stats.RecordCPULoad(data)
		}
	case protocol.Transport:
		if r.stats != nil {
			r.stats.RecordTransport(data)
		}
	case protocol.Raw:
		if r.rawLimiter.Allow() {
			r.logger.Warn().Str("line", data.Line).Msg("Unrecognized feedback line")
		}
	}

	if err := r.publisher.PublishEvent(ctx, ev); err != nil {
		r.logger.Warn().Err(err).Str("type", ev.Type).Msg("Failed to publish feedback event")
	}
}
