// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

// Package hostlink sends commands to the audio host's command port.
//
// Every command uses a transient TCP connection: dial, write one line plus
// the configured terminator, read one reply line under a deadline, close.
// The host only ever sees one short-lived connection at a time because the
// dispatcher serializes requests.
//
// Each round trip updates health.State: a complete reply marks the command
// link up, a dial, write, or read failure marks it down. A circuit breaker
// (sony/gobreaker) stops dialing a host that keeps failing, so a dead host
// answers in microseconds instead of a full dial timeout per request.
//
// # Errors
//
//   - bridgeerr.ErrUpstreamUnavailable: dial, write, or reply timeout, or an open breaker
//   - bridgeerr.ErrProtocol: the reply line did not parse
//   - *bridgeerr.HostError: Do only, the reply carried a failure code
package hostlink
