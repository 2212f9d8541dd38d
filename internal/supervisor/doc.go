// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

/*
Package supervisor provides process supervision for the bridge using suture v4.

Every long-running loop runs as a suture.Service in a three-layer tree:

	RootSupervisor ("pedalbridge")
	├── BusSupervisor ("bus-layer")
	│   └── EmbeddedBusService (if BUS_EMBEDDED)
	├── BridgeSupervisor ("bridge-layer")
	│   ├── Dispatcher ("command-dispatcher")
	│   ├── feedback.Reader ("feedback-reader")
	│   └── health.Monitor ("health-monitor")
	└── OpsSupervisor ("ops-layer", if OPS_ENABLED)
	    ├── websocket.Hub ("websocket-hub")
	    ├── websocket.Tap ("websocket-tap")
	    └── HTTPServerService ("ops-http")

A crashed ops component restarts without touching command handling, and
a crashed bridge loop restarts without dropping the bus.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}
	tree.AddBridgeService(dispatcher)
	tree.AddBridgeService(reader)

	errCh := tree.ServeBackground(ctx)
	<-ctx.Done()
	<-errCh

# Configuration

	config := supervisor.TreeConfig{
	    FailureThreshold: 5.0,              // Failures before backoff
	    FailureDecay:     30.0,             // Seconds for failures to decay
	    FailureBackoff:   15 * time.Second, // Backoff duration
	    ShutdownTimeout:  10 * time.Second, // Per-service shutdown timeout
	}

Zero values fall back to suture's defaults.

# Service Contract

Services implement suture.Service and fmt.Stringer:
  - return ctx.Err() when the context is canceled
  - return an error to be restarted with backoff
  - return suture.ErrTerminateSupervisorTree to stop the process (the
    embedded bus does this if its server dies)

Host connectivity loss is not a failure: the feedback reader reconnects on
its own and command errors become replies.

# Debugging Shutdown Issues

	report, _ := tree.UnstoppedServiceReport()
	for _, svc := range report {
	    logging.Warn().Str("service", svc.Name).Msg("Service did not stop")
	}
*/
package supervisor
