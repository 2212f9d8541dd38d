// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

// Package api serves the operator HTTP surface.
//
// This is not the upstream gateway; clients drive the bridge over the bus.
// The ops surface exists for orchestrators, scrapers and humans:
//
//	GET /healthz               health report, 503 unless healthy or degraded
//	GET /metrics               Prometheus exposition
//	GET /api/v1/instances      instance table snapshot
//	GET /api/v1/instances/{id} one instance with its catalog entry
//	GET /ws/feedback           WebSocket tap of the feedback stream
//
// # Middleware
//
// The router is chi with go-chi/cors and go-chi/httprate. Request IDs are
// reused as logging correlation IDs. The rate limit is per client IP per
// minute and is disabled when OPS_RATE_LIMIT is zero.
//
// /healthz peeks at health state and never consumes the "starting" latch
// that the bus health query uses.
package api
