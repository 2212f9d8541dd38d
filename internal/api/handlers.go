// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/pedalbridge/internal/bridgeerr"
	"github.com/tomtom215/pedalbridge/internal/health"
	"github.com/tomtom215/pedalbridge/internal/logging"
)

// handleHealth answers with the health report. Orchestrators treat
// healthy and degraded as live; anything else is 503.
func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := rt.health.Peek()

	status := http.StatusServiceUnavailable
	if report.Status == health.StatusHealthy || report.Status == health.StatusDegraded {
		status = http.StatusOK
	}
	writeJSON(w, status, report)
}

func (rt *Router) handleListInstances(w http.ResponseWriter, r *http.Request) {
	list := rt.instances.ListInstances()
	count := len(list)
	NewResponseWriter(w, r).SuccessWithMeta(list, &APIMeta{Count: &count})
}

func (rt *Router) handleGetInstance(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	info, err := rt.instances.GetPluginInfo(chi.URLParam(r, "id"))
	switch {
	case err == nil:
		rw.Success(info)
	case errors.Is(err, bridgeerr.ErrInstanceNotFound):
		rw.NotFound(err.Error())
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg("Instance lookup failed")
		rw.InternalError("instance lookup failed")
	}
}
