// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

// Package eventbus owns the bridge's NATS plumbing.
//
// It provides:
//   - EmbeddedServer: an in-process NATS server for single-box deployments
//   - Connect: a client connection with reconnect handling and logging
//   - ServeEndpoint: a strictly serialized request/reply loop on one subject
//   - Publisher: a Watermill publisher for feedback events, safe for several writers
//   - Subscriber: a Watermill subscriber used by the operator event tap
//
// Feedback events go out over core NATS (JetStream disabled): subscribers that
// join late do not see earlier events.
package eventbus
