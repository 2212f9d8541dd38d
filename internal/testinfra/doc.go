// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

// Package testinfra provides in-process test doubles for the audio host and
// the message bus.
//
// # Stub Host
//
// StubHost listens on a random local port and speaks the host's command
// protocol: one line per command, "resp <code>[ <payload>]" per reply. The
// default handler keeps a small model of the host (loaded instances,
// parameter values, port connections) so scenario tests behave like a real
// rig:
//
//	host := testinfra.NewStubHost(t)
//	cfg := config.HostConfig{Address: host.Host(), CommandPort: host.Port()}
//
// Override replies per command with SetHandler, or make the host stop
// answering with SetSilent to exercise reply timeouts.
//
// # Feedback Host
//
// FeedbackHost accepts feedback connections and lets the test write event
// lines to the current one.
//
// # Message Bus
//
// StartNATS runs an embedded NATS server on a random port for the duration
// of a test.
package testinfra
