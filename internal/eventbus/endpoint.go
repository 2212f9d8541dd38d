// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package eventbus

import (
	"context"
	"errors"
	"fmt"
	"time"

	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/pedalbridge/internal/logging"
)

// Handler turns one request body into one reply body.
type Handler func(ctx context.Context, data []byte) []byte

// ServeEndpoint binds subject with a single synchronous subscription and
// handles requests one at a time until ctx is done. Each wait for the next
// request is bounded by poll so cancellation is noticed promptly; an
// in-flight request is always finished and answered before returning.
//
// Returns nil on cancellation and an error if the subscription fails.
func ServeEndpoint(ctx context.Context, nc *natsgo.Conn, subject string, poll time.Duration, h Handler) error {
	sub, err := nc.SubscribeSync(subject)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	defer func() { _ = sub.Unsubscribe() }() //nolint:errcheck // best-effort on shutdown

	// Make the subscription visible to the server before serving.
	if err := nc.Flush(); err != nil {
		return fmt.Errorf("flush subscription %s: %w", subject, err)
	}

	log := logging.With().Str("component", "endpoint").Str("subject", subject).Logger()
	log.Info().Msg("Endpoint listening")

	for {
		if ctx.Err() != nil {
			log.Info().Msg("Endpoint stopping")
			return nil
		}

		msg, err := sub.NextMsg(poll)
		switch {
		case err == nil:
		case errors.Is(err, natsgo.ErrTimeout):
			continue
		case errors.Is(err, natsgo.ErrConnectionClosed), errors.Is(err, natsgo.ErrBadSubscription):
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("endpoint %s: %w", subject, err)
		default:
			// Slow consumer and similar conditions are recoverable.
			log.Warn().Err(err).Msg("Endpoint receive error")
			continue
		}

		reply := h(ctx, msg.Data)
		if msg.Reply == "" {
			continue
		}
		if err := msg.Respond(reply); err != nil {
			log.Warn().Err(err).Msg("Failed to send reply")
		}
	}
}
