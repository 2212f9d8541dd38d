// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

/*
Package websocket provides the operator feedback tap on the ops HTTP port.

It is a diagnostic view, not the upstream gateway: operators connect to
/ws/feedback and see the same {"type","data"} events the bridge publishes on
"<prefix>.feedback.<type>".

Key Components:

  - Hub: manages operator connections and fans events out in client ID order
  - Client: one connection with a read goroutine and a write goroutine
  - Tap: suture service that subscribes to the feedback wildcard and feeds the hub
  - Handler: http.Handler that upgrades requests and attaches clients

Data flow:

	host feedback port -> feedback.Reader -> NATS -> Tap -> Hub -> Clients

Control messages from operators:

	{"type":"ping"}                               answered with {"type":"pong"}
	{"type":"filter","data":["cpu_load","log"]}   only deliver these types
	{"type":"filter"}                             deliver everything again

A client whose send buffer fills up is disconnected rather than slowing the
tap. Both Hub and Tap implement suture.Service and stop when their context
is canceled.
*/
package websocket
