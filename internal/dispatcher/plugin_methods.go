// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package dispatcher

import (
	"context"

	"github.com/tomtom215/pedalbridge/internal/bridgeerr"
	"github.com/tomtom215/pedalbridge/internal/plugins"
)

// pluginParams is the union of fields plugin methods read.
type pluginParams struct {
	InstanceID string   `json:"instance_id"`
	URI        string   `json:"uri"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Symbol     string   `json:"symbol"`
	Value      *float64 `json:"value"`
	Bypassed   *bool    `json:"bypassed"`
	PresetURI  string   `json:"preset_uri"`
	Name       string   `json:"name"`
	Dir        string   `json:"dir"`
	File       string   `json:"file"`
	BundlePath string   `json:"bundle_path"`

	Query    string `json:"query"`
	Category string `json:"category"`
	Author   string `json:"author"`
	Brand    string `json:"brand"`
}

// Plugin method results that are not plain manager types.
type (
	instanceResult struct {
		InstanceID   string `json:"instance_id"`
		HostInstance int    `json:"host_instance"`
	}

	parameterResult struct {
		InstanceID string  `json:"instance_id"`
		Symbol     string  `json:"symbol"`
		Value      float64 `json:"value"`
	}

	bypassResult struct {
		InstanceID string `json:"instance_id"`
		Bypassed   bool   `json:"bypassed"`
	}

	instancesResult struct {
		Instances []plugins.Instance `json:"instances"`
		Count     int                `json:"count"`
	}

	removedResult struct {
		Removed []string `json:"removed"`
	}

	pluginsResult struct {
		Plugins []plugins.Plugin `json:"plugins"`
		Count   int              `json:"count"`
	}

	presetsResult struct {
		URI     string           `json:"uri"`
		Presets []plugins.Preset `json:"presets"`
	}

	validResult struct {
		Valid bool `json:"valid"`
	}

	bundleResult struct {
		BundlePath string   `json:"bundle_path"`
		Plugins    []string `json:"plugins"`
		Removed    []string `json:"removed,omitempty"`
	}

	loadedResult struct {
		BundlePath string `json:"bundle_path"`
		Loaded     bool   `json:"loaded"`
	}

	okResult struct {
		OK bool `json:"ok"`
	}
)

func (d *Dispatcher) pluginTable() map[string]methodFunc {
	return map[string]methodFunc{
		"load_plugin":           d.loadPlugin,
		"unload_plugin":         d.unloadPlugin,
		"set_parameter":         d.setParameter,
		"get_parameter":         d.getParameter,
		"get_plugin_info":       d.getPluginInfo,
		"list_instances":        d.listInstances,
		"clear_all":             d.clearAll,
		"set_bypass":            d.setBypass,
		"get_available_plugins": d.getAvailablePlugins,
		"search_plugins":        d.searchPlugins,
		"get_plugin_presets":    d.getPluginPresets,
		"load_preset":           d.loadPreset,
		"save_preset":           d.savePreset,
		"validate_preset":       d.validatePreset,
		"rescan_presets":        d.rescanPresets,
		"get_plugin_gui":        d.getPluginGUI,
		"get_plugin_gui_mini":   d.getPluginGUIMini,
		"add_bundle":            d.addBundle,
		"remove_bundle":         d.removeBundle,
		"list_bundle_plugins":   d.listBundlePlugins,
		"is_bundle_loaded":      d.isBundleLoaded,
	}
}

func pluginArgs(body []byte) (pluginParams, error) {
	var p pluginParams
	err := decodeParams(body, &p)
	return p, err
}

func (d *Dispatcher) loadPlugin(ctx context.Context, body []byte) (interface{}, error) {
	p, err := pluginArgs(body)
	if err != nil {
		return nil, err
	}
	inst, err := d.plugins.LoadPlugin(ctx, p.URI, p.X, p.Y)
	if err != nil {
		return nil, err
	}
	return instanceResult{InstanceID: inst.InstanceID, HostInstance: inst.HostInstance}, nil
}

func (d *Dispatcher) unloadPlugin(ctx context.Context, body []byte) (interface{}, error) {
	p, err := pluginArgs(body)
	if err != nil {
		return nil, err
	}
	inst, err := d.plugins.UnloadPlugin(ctx, p.InstanceID)
	if err != nil {
		return nil, err
	}
	return instanceResult{InstanceID: inst.InstanceID, HostInstance: inst.HostInstance}, nil
}

func (d *Dispatcher) setParameter(ctx context.Context, body []byte) (interface{}, error) {
	p, err := pluginArgs(body)
	if err != nil {
		return nil, err
	}
	if p.Value == nil {
		return nil, bridgeerr.Protocolf("value is required")
	}
	if err := d.plugins.SetParameter(ctx, p.InstanceID, p.Symbol, *p.Value); err != nil {
		return nil, err
	}
	return parameterResult{InstanceID: p.InstanceID, Symbol: p.Symbol, Value: *p.Value}, nil
}

func (d *Dispatcher) getParameter(ctx context.Context, body []byte) (interface{}, error) {
	p, err := pluginArgs(body)
	if err != nil {
		return nil, err
	}
	v, err := d.plugins.GetParameter(ctx, p.InstanceID, p.Symbol)
	if err != nil {
		return nil, err
	}
	return parameterResult{InstanceID: p.InstanceID, Symbol: p.Symbol, Value: v}, nil
}

func (d *Dispatcher) getPluginInfo(_ context.Context, body []byte) (interface{}, error) {
	p, err := pluginArgs(body)
	if err != nil {
		return nil, err
	}
	return d.plugins.GetPluginInfo(p.InstanceID)
}

func (d *Dispatcher) listInstances(_ context.Context, _ []byte) (interface{}, error) {
	list := d.plugins.ListInstances()
	return instancesResult{Instances: list, Count: len(list)}, nil
}

func (d *Dispatcher) clearAll(ctx context.Context, _ []byte) (interface{}, error) {
	removed, err := d.plugins.ClearAll(ctx)
	if err != nil {
		return nil, err
	}
	return removedResult{Removed: removed}, nil
}

func (d *Dispatcher) setBypass(ctx context.Context, body []byte) (interface{}, error) {
	p, err := pluginArgs(body)
	if err != nil {
		return nil, err
	}
	if p.Bypassed == nil {
		return nil, bridgeerr.Protocolf("bypassed is required")
	}
	if err := d.plugins.SetBypass(ctx, p.InstanceID, *p.Bypassed); err != nil {
		return nil, err
	}
	return bypassResult{InstanceID: p.InstanceID, Bypassed: *p.Bypassed}, nil
}

func (d *Dispatcher) getAvailablePlugins(_ context.Context, _ []byte) (interface{}, error) {
	list := d.plugins.GetAvailablePlugins()
	return pluginsResult{Plugins: list, Count: len(list)}, nil
}

func (d *Dispatcher) searchPlugins(_ context.Context, body []byte) (interface{}, error) {
	p, err := pluginArgs(body)
	if err != nil {
		return nil, err
	}
	list := d.plugins.SearchPlugins(plugins.Filter{
		Query:    p.Query,
		Category: p.Category,
		Author:   p.Author,
		Brand:    p.Brand,
	})
	return pluginsResult{Plugins: list, Count: len(list)}, nil
}

func (d *Dispatcher) getPluginPresets(_ context.Context, body []byte) (interface{}, error) {
	p, err := pluginArgs(body)
	if err != nil {
		return nil, err
	}
	presets, err := d.plugins.GetPluginPresets(p.URI)
	if err != nil {
		return nil, err
	}
	return presetsResult{URI: p.URI, Presets: presets}, nil
}

func (d *Dispatcher) loadPreset(ctx context.Context, body []byte) (interface{}, error) {
	p, err := pluginArgs(body)
	if err != nil {
		return nil, err
	}
	if err := d.plugins.LoadPreset(ctx, p.InstanceID, p.PresetURI); err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

func (d *Dispatcher) savePreset(ctx context.Context, body []byte) (interface{}, error) {
	p, err := pluginArgs(body)
	if err != nil {
		return nil, err
	}
	if err := d.plugins.SavePreset(ctx, p.InstanceID, p.Name, p.Dir, p.File); err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

func (d *Dispatcher) validatePreset(_ context.Context, body []byte) (interface{}, error) {
	p, err := pluginArgs(body)
	if err != nil {
		return nil, err
	}
	valid, err := d.plugins.ValidatePreset(p.URI, p.PresetURI)
	if err != nil {
		return nil, err
	}
	return validResult{Valid: valid}, nil
}

func (d *Dispatcher) rescanPresets(_ context.Context, body []byte) (interface{}, error) {
	p, err := pluginArgs(body)
	if err != nil {
		return nil, err
	}
	presets, err := d.plugins.RescanPresets(p.URI)
	if err != nil {
		return nil, err
	}
	return presetsResult{URI: p.URI, Presets: presets}, nil
}

func (d *Dispatcher) getPluginGUI(_ context.Context, body []byte) (interface{}, error) {
	p, err := pluginArgs(body)
	if err != nil {
		return nil, err
	}
	return d.plugins.GetPluginGUI(p.URI)
}

func (d *Dispatcher) getPluginGUIMini(_ context.Context, body []byte) (interface{}, error) {
	p, err := pluginArgs(body)
	if err != nil {
		return nil, err
	}
	return d.plugins.GetPluginGUIMini(p.URI)
}

func (d *Dispatcher) addBundle(ctx context.Context, body []byte) (interface{}, error) {
	p, err := pluginArgs(body)
	if err != nil {
		return nil, err
	}
	added, err := d.plugins.AddBundle(ctx, p.BundlePath)
	if err != nil {
		return nil, err
	}
	return bundleResult{BundlePath: p.BundlePath, Plugins: nonNil(added)}, nil
}

func (d *Dispatcher) removeBundle(ctx context.Context, body []byte) (interface{}, error) {
	p, err := pluginArgs(body)
	if err != nil {
		return nil, err
	}
	removed, err := d.plugins.RemoveBundle(ctx, p.BundlePath)
	if err != nil {
		return nil, err
	}
	return bundleResult{BundlePath: p.BundlePath, Plugins: []string{}, Removed: removed}, nil
}

func (d *Dispatcher) listBundlePlugins(_ context.Context, body []byte) (interface{}, error) {
	p, err := pluginArgs(body)
	if err != nil {
		return nil, err
	}
	if p.BundlePath == "" {
		return nil, bridgeerr.Protocolf("bundle_path is required")
	}
	return bundleResult{BundlePath: p.BundlePath, Plugins: nonNil(d.plugins.ListBundlePlugins(p.BundlePath))}, nil
}

func (d *Dispatcher) isBundleLoaded(_ context.Context, body []byte) (interface{}, error) {
	p, err := pluginArgs(body)
	if err != nil {
		return nil, err
	}
	if p.BundlePath == "" {
		return nil, bridgeerr.Protocolf("bundle_path is required")
	}
	return loadedResult{BundlePath: p.BundlePath, Loaded: d.plugins.IsBundleLoaded(p.BundlePath)}, nil
}

// nonNil keeps empty lists encoding as [] instead of null.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
