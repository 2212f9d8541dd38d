// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/pedalbridge/internal/audio"
	"github.com/tomtom215/pedalbridge/internal/config"
	"github.com/tomtom215/pedalbridge/internal/dispatcher"
	"github.com/tomtom215/pedalbridge/internal/feedback"
	"github.com/tomtom215/pedalbridge/internal/health"
	"github.com/tomtom215/pedalbridge/internal/hostlink"
	"github.com/tomtom215/pedalbridge/internal/logging"
	"github.com/tomtom215/pedalbridge/internal/plugins"
	"github.com/tomtom215/pedalbridge/internal/store"
	"github.com/tomtom215/pedalbridge/internal/supervisor"
)

//nolint:gocyclo // Sequential startup steps
func main() {
	cfg, err := config.Load()
	if err != nil {
		// Default logger; config is not available yet.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})

	logging.Info().
		Str("command_addr", cfg.Host.CommandAddr()).
		Str("feedback_addr", cfg.Host.FeedbackAddr()).
		Str("terminator", cfg.Host.Terminator).
		Bool("embedded_bus", cfg.Bus.Embedded).
		Bool("ops_enabled", cfg.Ops.Enabled).
		Msg("Starting Pedalbridge")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// === BUS ===

	bus := initBus(cfg, tree)
	defer bus.Close()

	// === STATE ===

	journal, err := store.Open(cfg.Store.Path)
	if err != nil {
		logging.Fatal().Err(err).Str("path", cfg.Store.Path).Msg("Failed to open instance journal")
	}
	defer func() {
		if err := journal.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing instance journal")
		}
	}()

	state := health.NewState()
	host := hostlink.New(cfg.Host, cfg.Breaker, state)

	pluginMgr, err := plugins.NewManager(plugins.Options{
		Host:        host,
		Events:      bus.publisher,
		Journal:     journal,
		CatalogPath: cfg.Catalog.Path,
	})
	if err != nil {
		logging.Fatal().Err(err).Str("path", cfg.Catalog.Path).Msg("Failed to load plugin catalog")
	}

	restored, err := pluginMgr.Restore(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to restore instance table, starting empty")
	} else if restored > 0 {
		logging.Info().Int("instances", restored).Bool("in_memory", journal.InMemory()).Msg("Instance table restored")
	}

	monitor := audio.NewMonitor()
	audioMgr := audio.NewPortGraph(audio.NewJackTools(0), host, monitor)

	// === HOST ===

	if cfg.Host.StartupWait > 0 {
		logging.Info().Dur("wait", cfg.Host.StartupWait).Msg("Waiting for audio host command port")
		if host.WaitReady(ctx, cfg.Host.StartupWait) {
			logging.Info().Str("addr", host.Addr()).Msg("Audio host reachable")
		} else {
			logging.Warn().Str("addr", host.Addr()).Msg("Audio host not reachable, serving anyway")
		}
	}

	// === BRIDGE LAYER ===

	reader := feedback.NewReader(feedback.Config{
		Addr:         cfg.Host.FeedbackAddr(),
		DialTimeout:  cfg.Host.DialTimeout,
		RetryBackoff: cfg.Host.FeedbackRetryBackoff,
	}, bus.publisher, state, pluginMgr, monitor)

	d := dispatcher.New(dispatcher.Options{
		Conn:    bus.conn,
		Subject: cfg.Bus.CommandSubject(),
		Poll:    cfg.Bus.CommandPollInterval,
		Host:    host,
		Plugins: pluginMgr,
		Audio:   audioMgr,
		Health:  state,
	})

	tree.AddBridgeService(d)
	tree.AddBridgeService(reader)
	tree.AddBridgeService(health.NewMonitor(bus.conn, cfg.Bus.HealthSubject(), cfg.Bus.CommandPollInterval, state))

	// === OPS LAYER ===

	if cfg.Ops.Enabled {
		closeOps := initOps(cfg, bus.url, tree, state, pluginMgr)
		defer closeOps()
	}

	// === START SUPERVISOR TREE ===

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().
		Str("command_subject", cfg.Bus.CommandSubject()).
		Str("health_subject", cfg.Bus.HealthSubject()).
		Str("feedback_subjects", cfg.Bus.FeedbackWildcard()).
		Msg("Bridge ready")

	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
		cancel()
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	if err := audioMgr.Close(); err != nil {
		logging.Warn().Err(err).Msg("Error closing audio client")
	}

	logging.Info().Msg("Pedalbridge stopped")
}
