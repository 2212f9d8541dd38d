// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

/*
Package services adapts components whose lifecycle is not a plain
Serve(ctx) loop to suture.Service.

Most bridge components (dispatcher, feedback reader, health monitor,
WebSocket hub and tap) already implement Serve(ctx) error and String()
and are added to the tree directly. The wrappers here cover the rest:

  - HTTPServerService: runs an *http.Server on a listener bound at startup
    and shuts it down gracefully on cancel.
  - EmbeddedBusService: owns the embedded NATS server, shuts it down on
    cancel, and terminates the tree if the server dies.

Both return ctx.Err() on graceful shutdown so suture does not count it as a
failure.
*/
package services
