// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

// Package logging provides centralized zerolog-based structured logging for Pedalbridge.
//
// Every component logs through the global logger configured here. Libraries
// that expect a different logging interface get an adapter:
//   - slog adapter for the Suture v4 supervisor (via sutureslog)
//   - watermill.LoggerAdapter for the feedback publisher and subscriber
//
// # Quick Start
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Str("host", addr).Msg("Audio host reachable")
//	logging.Error().Err(err).Int("code", code).Msg("Host rejected command")
//
// # Configuration
//
// Environment Variables:
//
//	LOG_LEVEL   - Minimum log level: trace, debug, info, warn, error (default: info)
//	LOG_FORMAT  - Output format: json, console (default: json)
//	LOG_CALLER  - Include caller file:line: true, false (default: false)
//
// # Component Loggers
//
//	fbLog := logging.WithComponent("feedback")
//	fbLog.Warn().Str("line", line).Msg("Unrecognized feedback line")
//
// # Context-Aware Logging
//
// The command dispatcher attaches a correlation ID to each request context:
//
//	ctx = logging.ContextWithNewCorrelationID(ctx)
//	logging.Ctx(ctx).Debug().Str("method", method).Msg("Dispatching")
//
// # Output Formats
//
// JSON Format (Production):
//
//	{"level":"info","time":"2026-01-03T10:30:00Z","message":"Bridge ready","subject":"pedalbridge.command"}
//
// Console Format (Development):
//
//	10:30:00 INF Bridge ready subject=pedalbridge.command
//
// # Thread Safety
//
// All exported functions are safe for concurrent use. The global logger
// is protected by sync.RWMutex for configuration changes.
//
// # Testing
//
//	var buf bytes.Buffer
//	logger := logging.NewTestLogger(&buf)
//	logger.Info().Msg("test message")
package logging
