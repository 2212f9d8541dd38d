// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/pedalbridge/internal/config"
	"github.com/tomtom215/pedalbridge/internal/health"
	"github.com/tomtom215/pedalbridge/internal/middleware"
	"github.com/tomtom215/pedalbridge/internal/plugins"
)

// HealthReporter reports bridge health without consuming the startup latch.
type HealthReporter interface {
	Peek() health.Report
}

// InstanceSource exposes the plugin instance table.
type InstanceSource interface {
	ListInstances() []plugins.Instance
	GetPluginInfo(id string) (plugins.InstanceInfo, error)
}

// Router builds the ops HTTP handler.
type Router struct {
	cfg       config.OpsConfig
	health    HealthReporter
	instances InstanceSource
	feedback  http.Handler
}

// NewRouter wires the ops endpoints. feedback serves /ws/feedback and may be
// nil, in which case the route is not registered.
func NewRouter(cfg config.OpsConfig, h HealthReporter, instances InstanceSource, feedback http.Handler) *Router {
	return &Router{
		cfg:       cfg,
		health:    h,
		instances: instances,
		feedback:  feedback,
	}
}

// Handler returns the chi router.
//
// Middleware order: request ID first so every log line and metric sample
// carries it, then metrics, panic recovery, security headers, CORS, and
// finally the per-IP rate limit.
func (rt *Router) Handler() http.Handler {
	chiMw := NewChiMiddleware(ChiMiddlewareConfigFromOps(rt.cfg))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(chimiddleware.Recoverer)
	r.Use(APISecurityHeaders())
	r.Use(chiMw.CORS())
	r.Use(chiMw.RateLimit())

	r.Get("/healthz", rt.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/instances", rt.handleListInstances)
		r.Get("/instances/{id}", rt.handleGetInstance)
	})

	if rt.feedback != nil {
		r.Method(http.MethodGet, "/ws/feedback", rt.feedback)
	}

	return r
}
