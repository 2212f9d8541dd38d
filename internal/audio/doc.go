// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

// Package audio exposes the audio server's port graph to bridge clients.
//
// Manager is the capability interface the dispatcher talks to. PortGraph is
// the concrete implementation:
//
//   - Read-only queries (buffer size, sample rate, ports, aliases,
//     connections, MIDI probes) go to a local Client. JackTools is the
//     default Client; it runs the JACK command-line tools.
//   - Graph mutations (connect, disconnect) are sent to the audio host as
//     text commands. The host owns the live graph and mutating it from a
//     second process would race its real-time thread.
//
// Queries fail closed: before Init, or when the client errors, they log a
// warning and return the zero value. Nothing panics past Manager.
//
// Live statistics (CPU load, xruns, transport) arrive on the host feedback
// stream and are recorded into a Monitor, which Snapshot reads.
package audio
