// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

// Package middleware provides HTTP middleware for the ops surface.
//
//   - RequestID: X-Request-ID propagation, reused as the logging correlation ID
//   - PrometheusMetrics: request count, latency, and in-flight gauge labeled by
//     chi route pattern
//
// Both are plain func(http.Handler) http.Handler and compose with chi:
//
//	r := chi.NewRouter()
//	r.Use(middleware.RequestID)
//	r.Use(middleware.PrometheusMetrics)
//
// The metrics wrapper implements http.Hijacker so WebSocket upgrades on
// /ws/feedback pass through it.
package middleware
