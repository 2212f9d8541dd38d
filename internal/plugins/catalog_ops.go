// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package plugins

import (
	"context"
	"sort"

	"github.com/tomtom215/pedalbridge/internal/bridgeerr"
	"github.com/tomtom215/pedalbridge/internal/metrics"
	"github.com/tomtom215/pedalbridge/internal/protocol"
)

func (m *Manager) currentCatalog() *Catalog {
	m.catMu.RLock()
	defer m.catMu.RUnlock()
	return m.catalog
}

// ReloadCatalog re-reads the plugin index. On failure the previous catalog
// stays in place.
func (m *Manager) ReloadCatalog() error {
	cat, err := LoadCatalog(m.catalogPath)
	if err != nil {
		return err
	}
	m.catMu.Lock()
	m.catalog = cat
	m.catMu.Unlock()

	metrics.SetCatalogPlugins(cat.Len())
	m.logger.Debug().Int("plugins", cat.Len()).Msg("Plugin catalog reloaded")
	return nil
}

func (m *Manager) plugin(uri string) (Plugin, error) {
	if err := validateStruct(&uriArgs{URI: uri}); err != nil {
		return Plugin{}, err
	}
	p, ok := m.currentCatalog().Plugin(uri)
	if !ok {
		return Plugin{}, bridgeerr.NotFound("plugin", uri)
	}
	return p, nil
}

// GetAvailablePlugins returns the whole catalog.
func (m *Manager) GetAvailablePlugins() []Plugin {
	return m.currentCatalog().Plugins()
}

// SearchPlugins filters the catalog.
func (m *Manager) SearchPlugins(f Filter) []Plugin {
	return m.currentCatalog().Search(f)
}

// GetPluginPresets lists a plugin's presets.
func (m *Manager) GetPluginPresets(uri string) ([]Preset, error) {
	p, err := m.plugin(uri)
	if err != nil {
		return nil, err
	}
	return presetsOf(p), nil
}

// ValidatePreset reports whether presetURI is a preset of plugin uri.
func (m *Manager) ValidatePreset(uri, presetURI string) (bool, error) {
	p, err := m.plugin(uri)
	if err != nil {
		return false, err
	}
	for _, pr := range p.Presets {
		if pr.URI == presetURI {
			return true, nil
		}
	}
	return false, nil
}

// RescanPresets reloads the catalog and returns the plugin's presets.
func (m *Manager) RescanPresets(uri string) ([]Preset, error) {
	if err := m.ReloadCatalog(); err != nil {
		return nil, err
	}
	return m.GetPluginPresets(uri)
}

// GetPluginGUI returns a plugin's GUI resources.
func (m *Manager) GetPluginGUI(uri string) (GUI, error) {
	p, err := m.plugin(uri)
	if err != nil {
		return GUI{}, err
	}
	if p.GUI == nil {
		return GUI{}, bridgeerr.NotFound("gui for", uri)
	}
	return *p.GUI, nil
}

// GetPluginGUIMini returns the reduced GUI resources.
func (m *Manager) GetPluginGUIMini(uri string) (GUIMini, error) {
	gui, err := m.GetPluginGUI(uri)
	if err != nil {
		return GUIMini{}, err
	}
	return gui.Mini(), nil
}

// AddBundle asks the host to load a bundle, then refreshes the catalog and
// returns the bundle's plugin URIs.
func (m *Manager) AddBundle(ctx context.Context, path string) ([]string, error) {
	if err := validateStruct(&bundleArgs{Path: path}); err != nil {
		return nil, err
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	if _, err := m.do(ctx, protocol.FormatCommand(protocol.CmdBundleAdd, path)); err != nil {
		return nil, err
	}
	if err := m.ReloadCatalog(); err != nil {
		m.logger.Warn().Err(err).Str("bundle", path).Msg("Bundle added but catalog reload failed")
	}
	return m.currentCatalog().BundlePlugins(path), nil
}

// RemoveBundle unloads every live instance of the bundle's plugins, then
// asks the host to drop the bundle. It stops at the first failure and
// reports the instances already removed.
func (m *Manager) RemoveBundle(ctx context.Context, path string) ([]string, error) {
	if err := validateStruct(&bundleArgs{Path: path}); err != nil {
		return nil, err
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	uris := make(map[string]bool)
	for _, uri := range m.currentCatalog().BundlePlugins(path) {
		uris[uri] = true
	}

	removed := make([]string, 0)
	for _, inst := range m.ListInstances() {
		if !uris[inst.URI] {
			continue
		}
		if _, err := m.unloadLocked(ctx, inst.InstanceID); err != nil {
			return removed, &bridgeerr.PartialFailure{Operation: "remove_bundle", Completed: removed, Cause: err}
		}
		removed = append(removed, inst.InstanceID)
	}

	if _, err := m.do(ctx, protocol.FormatCommand(protocol.CmdBundleRemove, path)); err != nil {
		if len(removed) > 0 {
			return removed, &bridgeerr.PartialFailure{Operation: "remove_bundle", Completed: removed, Cause: err}
		}
		return removed, err
	}

	if err := m.ReloadCatalog(); err != nil {
		m.logger.Warn().Err(err).Str("bundle", path).Msg("Bundle removed but catalog reload failed")
	}
	return removed, nil
}

// ListBundlePlugins returns the plugin URIs of a bundle.
func (m *Manager) ListBundlePlugins(path string) []string {
	return m.currentCatalog().BundlePlugins(path)
}

// IsBundleLoaded reports whether the catalog knows the bundle.
func (m *Manager) IsBundleLoaded(path string) bool {
	return m.currentCatalog().HasBundle(path)
}

func presetsOf(p Plugin) []Preset {
	out := make([]Preset, len(p.Presets))
	copy(out, p.Presets)
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}
