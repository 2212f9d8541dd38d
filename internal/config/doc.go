// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

/*
Package config loads and validates Pedalbridge configuration.

Values come from three Koanf layers: struct defaults, an optional YAML file
(CONFIG_PATH, then pedalbridge.yaml or /etc/pedalbridge/config.yaml), and
environment variables. Later layers win.

# Environment Variables

Audio host:
  - HOST_ADDRESS: audio host address (default: 127.0.0.1)
  - HOST_COMMAND_PORT: command port (default: 5555)
  - HOST_FEEDBACK_PORT: feedback port (default: 5556)
  - HOST_TIMEOUT: reply timeout per command (default: 1s)
  - HOST_DIAL_TIMEOUT: TCP connect timeout (default: 1s)
  - HOST_TERMINATOR: nul or newline (default: nul)
  - HOST_STARTUP_WAIT: wait for the host before serving (default: 30s)
  - FEEDBACK_RETRY_BACKOFF: feedback reconnect delay (default: 2s)

Message bus:
  - BUS_EMBEDDED: run an in-process NATS server (default: true)
  - BUS_HOST, BUS_PORT: embedded server bind address (default: 127.0.0.1:4222)
  - BUS_URL: external NATS URL (required when BUS_EMBEDDED=false)
  - BUS_SUBJECT_PREFIX: subject namespace (default: pedalbridge)
  - COMMAND_POLL_INTERVAL: endpoint shutdown poll interval (default: 500ms)

Operator surface:
  - OPS_ENABLED, OPS_ADDR, OPS_CORS_ORIGINS, OPS_RATE_LIMIT

Storage and resilience:
  - CATALOG_PATH: host-exported plugin index (YAML or JSON)
  - STORE_PATH: instance journal directory (empty = in-memory)
  - BREAKER_ENABLED, BREAKER_FAILURES, BREAKER_TIMEOUT

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

# Usage

	cfg, err := config.Load()
	if err != nil {
	    logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	addr := cfg.Host.CommandAddr()
*/
package config
