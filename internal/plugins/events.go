// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package plugins

import (
	"context"

	"github.com/tomtom215/pedalbridge/internal/protocol"
)

// PluginLoaded is the data of a plugin_loaded event.
type PluginLoaded struct {
	InstanceID   string   `json:"instance_id"`
	HostInstance int      `json:"host_instance"`
	URI          string   `json:"uri"`
	Position     Position `json:"position"`
}

// PluginUnloaded is the data of a plugin_unloaded event.
type PluginUnloaded struct {
	InstanceID   string `json:"instance_id"`
	HostInstance int    `json:"host_instance"`
	URI          string `json:"uri"`
}

// ParameterChanged is the data of a parameter_changed event.
type ParameterChanged struct {
	InstanceID   string  `json:"instance_id"`
	HostInstance int     `json:"host_instance"`
	Symbol       string  `json:"symbol"`
	Value        float64 `json:"value"`
}

func (m *Manager) publish(ctx context.Context, eventType string, data interface{}) {
	if m.events == nil {
		return
	}
	if err := m.events.PublishEvent(ctx, protocol.Event{Type: eventType, Data: data}); err != nil {
		m.logger.Warn().Err(err).Str("type", eventType).Msg("Failed to publish instance event")
	}
}
