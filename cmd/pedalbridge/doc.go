// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

/*
Package main is the entry point for the Pedalbridge bridge.

Pedalbridge translates between JSON requests on a NATS bus and the
line-oriented TCP protocol of an audio plugin host. It also relays the
host's feedback stream as typed events.

# Application Architecture

	RootSupervisor ("pedalbridge")
	├── BusSupervisor ("bus-layer")
	│   └── embedded-bus (BUS_EMBEDDED=true)
	├── BridgeSupervisor ("bridge-layer")
	│   ├── command-dispatcher   <prefix>.command
	│   ├── feedback-reader      host feedback port -> <prefix>.feedback.<type>
	│   └── health-monitor       <prefix>.health
	└── OpsSupervisor ("ops-layer", OPS_ENABLED=true)
	    ├── websocket-hub
	    ├── websocket-tap        <prefix>.feedback.> -> /ws/feedback
	    └── ops-http             /healthz /metrics /api/v1/instances

Startup order:

 1. Configuration: Koanf v2 (defaults, optional YAML, environment)
 2. Logging: zerolog
 3. Bus: embedded NATS server (optional), connection, feedback publisher
 4. Instance journal: BadgerDB (in-memory when STORE_PATH is empty)
 5. Plugin catalog and instance table restore
 6. Startup wait for the host command port (HOST_STARTUP_WAIT)
 7. Supervisor tree

Fatal at startup: invalid configuration, an unbindable bus or ops port,
an unreadable catalog, or a journal that cannot be opened. An unreachable
host is not fatal; commands fail with upstream_unavailable until it returns.

# Signal Handling

SIGINT and SIGTERM cancel the root context. Every loop notices at its next
poll point and the tree waits up to the shutdown timeout per service.

# Example Usage

	export HOST_ADDRESS=127.0.0.1
	export HOST_COMMAND_PORT=5555
	export HOST_FEEDBACK_PORT=5556
	export STORE_PATH=/var/lib/pedalbridge
	export CATALOG_PATH=/etc/pedalbridge/plugins.yaml
	./pedalbridge

	nats req pedalbridge.command '{"action":"plugin","method":"list_instances"}'
	nats sub 'pedalbridge.feedback.>'
*/
package main
