// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package main

import (
	"net"
	"net/http"
	"time"

	"github.com/tomtom215/pedalbridge/internal/api"
	"github.com/tomtom215/pedalbridge/internal/config"
	"github.com/tomtom215/pedalbridge/internal/eventbus"
	"github.com/tomtom215/pedalbridge/internal/health"
	"github.com/tomtom215/pedalbridge/internal/logging"
	"github.com/tomtom215/pedalbridge/internal/plugins"
	"github.com/tomtom215/pedalbridge/internal/supervisor"
	"github.com/tomtom215/pedalbridge/internal/supervisor/services"
	ws "github.com/tomtom215/pedalbridge/internal/websocket"
)

// initOps binds the ops listener and adds the hub, tap and HTTP server to
// the ops layer. Failing to bind is fatal. The returned func releases the
// tap subscriber.
func initOps(cfg *config.Config, busURL string, tree *supervisor.SupervisorTree, state *health.State, pluginMgr *plugins.Manager) func() {
	ln, err := net.Listen("tcp", cfg.Ops.Addr)
	if err != nil {
		logging.Fatal().Err(err).Str("addr", cfg.Ops.Addr).Msg("Failed to bind ops listener")
	}

	subscriber, err := eventbus.NewSubscriber(eventbus.SubscriberConfig{
		URL: busURL,
	}, logging.NewWatermillAdapter("feedback-tap"))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create feedback tap subscriber")
	}

	hub := ws.NewHub()
	tap := ws.NewTap(hub, subscriber, cfg.Bus.FeedbackWildcard())

	router := api.NewRouter(cfg.Ops, state, pluginMgr, ws.NewHandler(hub, cfg.Ops.CORSOrigins))
	server := &http.Server{
		Handler:           router.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	tree.AddOpsService(hub)
	tree.AddOpsService(tap)
	tree.AddOpsService(services.NewHTTPServerService(server, ln, 5*time.Second))
	logging.Info().Str("addr", ln.Addr().String()).Msg("Ops HTTP server added")

	return func() {
		if err := subscriber.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing feedback tap subscriber")
		}
	}
}
