// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package plugins

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/pedalbridge/internal/bridgeerr"
	"github.com/tomtom215/pedalbridge/internal/logging"
	"github.com/tomtom215/pedalbridge/internal/metrics"
	"github.com/tomtom215/pedalbridge/internal/protocol"
	"github.com/tomtom215/pedalbridge/internal/store"
)

// Commander sends one command line to the audio host.
type Commander interface {
	Call(ctx context.Context, line string) (protocol.Response, error)
}

// EventPublisher publishes instance events to feedback subscribers.
type EventPublisher interface {
	PublishEvent(ctx context.Context, ev protocol.Event) error
}

// Journal persists instance records across restarts.
type Journal interface {
	Put(ctx context.Context, key string, v interface{}) error
	Delete(ctx context.Context, key string) error
	Entries(ctx context.Context) ([]store.Entry, error)
	Clear(ctx context.Context) error
}

// Options configures a Manager. Events and Journal are optional.
type Options struct {
	Host        Commander
	Events      EventPublisher
	Journal     Journal
	CatalogPath string
}

// Manager owns the plugin instance table.
//
// opMu serializes operations that talk to the host so slot allocation and
// the matching table update happen as one step. mu guards the table itself
// and is never held across a host round trip, so feedback updates and
// snapshot reads never wait on the network.
type Manager struct {
	host        Commander
	events      EventPublisher
	journal     Journal
	catalogPath string
	logger      zerolog.Logger

	opMu sync.Mutex

	mu    sync.RWMutex
	table *table

	catMu   sync.RWMutex
	catalog *Catalog

	now   func() time.Time
	newID func() string
}

// NewManager creates a Manager and loads the plugin catalog.
func NewManager(opts Options) (*Manager, error) {
	cat, err := LoadCatalog(opts.CatalogPath)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		host:        opts.Host,
		events:      opts.Events,
		journal:     opts.Journal,
		catalogPath: opts.CatalogPath,
		logger:      logging.WithComponent("plugins"),
		table:       newTable(),
		catalog:     cat,
		now:         time.Now,
		newID:       uuid.NewString,
	}
	metrics.SetCatalogPlugins(cat.Len())
	metrics.SetPluginInstances(0)
	return m, nil
}

// Restore rebuilds the table from the journal. Records that collide with
// an already restored id or slot are skipped.
func (m *Manager) Restore(ctx context.Context) (int, error) {
	if m.journal == nil {
		return 0, nil
	}
	entries, err := m.journal.Entries(ctx)
	if err != nil {
		return 0, fmt.Errorf("read instance journal: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	restored := 0
	for _, e := range entries {
		var inst Instance
		if err := json.Unmarshal(e.Data, &inst); err != nil {
			m.logger.Warn().Err(err).Str("key", e.Key).Msg("Skipping unreadable journal entry")
			continue
		}
		if inst.Parameters == nil {
			inst.Parameters = make(map[string]float64)
		}
		if !m.table.insert(&inst) {
			m.logger.Warn().Str("instance_id", inst.InstanceID).Int("host_instance", inst.HostInstance).
				Msg("Skipping conflicting journal entry")
			continue
		}
		restored++
	}
	metrics.SetPluginInstances(len(m.table.byID))
	return restored, nil
}

// Count returns the number of live instances.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.table.byID)
}

// lookup returns a copy of the instance with id.
func (m *Manager) lookup(id string) (Instance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inst, ok := m.table.byID[id]
	if !ok {
		return Instance{}, bridgeerr.InstanceNotFound(id)
	}
	return inst.clone(), nil
}

// do sends a command and fails on any non-zero reply code.
func (m *Manager) do(ctx context.Context, line string) (protocol.Response, error) {
	resp, err := m.host.Call(ctx, line)
	if err != nil {
		return resp, err
	}
	if !resp.OK() {
		return resp, &bridgeerr.HostError{Command: line, Code: resp.Code, Payload: resp.Payload}
	}
	return resp, nil
}

func (m *Manager) persist(ctx context.Context, inst Instance) {
	if m.journal == nil {
		return
	}
	if err := m.journal.Put(ctx, inst.InstanceID, inst); err != nil {
		m.logger.Warn().Err(err).Str("instance_id", inst.InstanceID).Msg("Failed to journal instance")
	}
}

func (m *Manager) forget(ctx context.Context, id string) {
	if m.journal == nil {
		return
	}
	if err := m.journal.Delete(ctx, id); err != nil {
		m.logger.Warn().Err(err).Str("instance_id", id).Msg("Failed to remove journaled instance")
	}
}

// LoadPlugin asks the host to instantiate uri in the lowest free slot.
// The host confirms with code 0 or with the slot number itself.
func (m *Manager) LoadPlugin(ctx context.Context, uri string, x, y float64) (Instance, error) {
	if err := validateStruct(&loadArgs{URI: uri}); err != nil {
		return Instance{}, err
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.RLock()
	slot := m.table.nextFree()
	m.mu.RUnlock()

	line := protocol.FormatCommand(protocol.CmdAdd, uri, protocol.FormatInt(slot))
	resp, err := m.host.Call(ctx, line)
	if err != nil {
		return Instance{}, err
	}
	if resp.Code != 0 && resp.Code != slot {
		return Instance{}, &bridgeerr.HostError{Command: line, Code: resp.Code, Payload: resp.Payload}
	}

	inst := &Instance{
		InstanceID:   m.newID(),
		HostInstance: slot,
		URI:          uri,
		Position:     Position{X: x, Y: y},
		Parameters:   make(map[string]float64),
		LoadedAt:     m.now().UTC(),
	}

	m.mu.Lock()
	m.table.insert(inst)
	snapshot := inst.clone()
	count := len(m.table.byID)
	m.mu.Unlock()

	metrics.SetPluginInstances(count)
	m.persist(ctx, snapshot)
	m.publish(ctx, protocol.TypePluginLoaded, PluginLoaded{
		InstanceID:   snapshot.InstanceID,
		HostInstance: snapshot.HostInstance,
		URI:          snapshot.URI,
		Position:     snapshot.Position,
	})

	logging.Ctx(ctx).Info().Str("instance_id", snapshot.InstanceID).Int("host_instance", slot).
		Str("uri", uri).Msg("Plugin loaded")
	return snapshot, nil
}

// UnloadPlugin removes an instance from the host, then from the table.
func (m *Manager) UnloadPlugin(ctx context.Context, id string) (Instance, error) {
	if err := validateStruct(&instanceArgs{InstanceID: id}); err != nil {
		return Instance{}, err
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()
	return m.unloadLocked(ctx, id)
}

// unloadLocked requires opMu.
func (m *Manager) unloadLocked(ctx context.Context, id string) (Instance, error) {
	inst, err := m.lookup(id)
	if err != nil {
		return Instance{}, err
	}

	if _, err := m.do(ctx, protocol.FormatCommand(protocol.CmdRemove, protocol.FormatInt(inst.HostInstance))); err != nil {
		return Instance{}, err
	}

	m.mu.Lock()
	m.table.remove(id)
	count := len(m.table.byID)
	m.mu.Unlock()

	metrics.SetPluginInstances(count)
	m.forget(ctx, id)
	m.publish(ctx, protocol.TypePluginUnloaded, PluginUnloaded{
		InstanceID:   inst.InstanceID,
		HostInstance: inst.HostInstance,
		URI:          inst.URI,
	})

	logging.Ctx(ctx).Info().Str("instance_id", id).Int("host_instance", inst.HostInstance).Msg("Plugin unloaded")
	return inst, nil
}

// SetParameter sets a control port value on the host and caches it.
func (m *Manager) SetParameter(ctx context.Context, id, symbol string, value float64) error {
	if err := validateStruct(&parameterArgs{InstanceID: id, Symbol: symbol}); err != nil {
		return err
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	inst, err := m.lookup(id)
	if err != nil {
		return err
	}

	line := protocol.FormatCommand(protocol.CmdParamSet,
		protocol.FormatInt(inst.HostInstance), symbol, protocol.FormatFloat(value))
	if _, err := m.do(ctx, line); err != nil {
		return err
	}

	snapshot, ok := m.storeParameter(id, symbol, value)
	if !ok {
		return bridgeerr.InstanceNotFound(id)
	}
	m.persist(ctx, snapshot)
	m.publish(ctx, protocol.TypeParameterChanged, ParameterChanged{
		InstanceID:   id,
		HostInstance: inst.HostInstance,
		Symbol:       symbol,
		Value:        value,
	})
	return nil
}

// GetParameter reads a control port value from the host. A reply without a
// value falls back to the cached one.
func (m *Manager) GetParameter(ctx context.Context, id, symbol string) (float64, error) {
	if err := validateStruct(&parameterArgs{InstanceID: id, Symbol: symbol}); err != nil {
		return 0, err
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	inst, err := m.lookup(id)
	if err != nil {
		return 0, err
	}

	line := protocol.FormatCommand(protocol.CmdParamGet, protocol.FormatInt(inst.HostInstance), symbol)
	resp, err := m.do(ctx, line)
	if err != nil {
		return 0, err
	}

	if value, ok := resp.PayloadFloat(); ok {
		m.storeParameter(id, symbol, value)
		return value, nil
	}
	if cached, ok := inst.Parameters[symbol]; ok {
		return cached, nil
	}
	return 0, bridgeerr.Protocolf("host returned no value for %s", symbol)
}

func (m *Manager) storeParameter(id, symbol string, value float64) (Instance, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst, ok := m.table.byID[id]
	if !ok {
		return Instance{}, false
	}
	inst.Parameters[symbol] = value
	return inst.clone(), true
}

// ApplyFeedbackParam records a param_set reported by the host. Returns false
// if no live instance owns the slot.
func (m *Manager) ApplyFeedbackParam(hostInstance int, symbol string, value float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst, ok := m.table.byHostInstance(hostInstance)
	if !ok {
		return false
	}
	inst.Parameters[symbol] = value
	return true
}

// InstanceInfo is an instance together with its catalog entry, if any.
type InstanceInfo struct {
	Instance
	Plugin *Plugin `json:"plugin,omitempty"`
}

// GetPluginInfo returns an instance snapshot with catalog metadata.
func (m *Manager) GetPluginInfo(id string) (InstanceInfo, error) {
	if err := validateStruct(&instanceArgs{InstanceID: id}); err != nil {
		return InstanceInfo{}, err
	}
	inst, err := m.lookup(id)
	if err != nil {
		return InstanceInfo{}, err
	}
	info := InstanceInfo{Instance: inst}
	if p, ok := m.currentCatalog().Plugin(inst.URI); ok {
		info.Plugin = &p
	}
	return info, nil
}

// ListInstances returns copies of every live instance ordered by host slot.
func (m *Manager) ListInstances() []Instance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sorted := m.table.sorted()
	out := make([]Instance, len(sorted))
	for i, inst := range sorted {
		out[i] = inst.clone()
	}
	return out
}

// ClearAll unloads every instance in host slot order. It stops at the first
// failure; instances already removed stay removed. A complete run also resets
// the journal, dropping entries Restore skipped as unreadable or conflicting.
func (m *Manager) ClearAll(ctx context.Context) ([]string, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	removed := make([]string, 0)
	for _, inst := range m.ListInstances() {
		if _, err := m.unloadLocked(ctx, inst.InstanceID); err != nil {
			return removed, &bridgeerr.PartialFailure{Operation: "clear_all", Completed: removed, Cause: err}
		}
		removed = append(removed, inst.InstanceID)
	}

	m.mu.Lock()
	m.table.clear()
	m.mu.Unlock()
	metrics.SetPluginInstances(0)

	if m.journal != nil {
		if err := m.journal.Clear(ctx); err != nil {
			m.logger.Warn().Err(err).Msg("Failed to reset instance journal")
		}
	}
	return removed, nil
}

// SetBypass toggles an instance's bypass.
func (m *Manager) SetBypass(ctx context.Context, id string, bypassed bool) error {
	if err := validateStruct(&instanceArgs{InstanceID: id}); err != nil {
		return err
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	inst, err := m.lookup(id)
	if err != nil {
		return err
	}
	line := protocol.FormatCommand(protocol.CmdBypass, protocol.FormatInt(inst.HostInstance), protocol.FormatBool(bypassed))
	if _, err := m.do(ctx, line); err != nil {
		return err
	}

	m.mu.Lock()
	var snapshot Instance
	if live, ok := m.table.byID[id]; ok {
		live.Bypassed = bypassed
		snapshot = live.clone()
	}
	m.mu.Unlock()

	if snapshot.InstanceID != "" {
		m.persist(ctx, snapshot)
	}
	return nil
}

// LoadPreset applies a preset to an instance.
func (m *Manager) LoadPreset(ctx context.Context, id, presetURI string) error {
	if err := validateStruct(&loadPresetArgs{InstanceID: id, PresetURI: presetURI}); err != nil {
		return err
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	inst, err := m.lookup(id)
	if err != nil {
		return err
	}
	_, err = m.do(ctx, protocol.FormatCommand(protocol.CmdPresetLoad, protocol.FormatInt(inst.HostInstance), presetURI))
	return err
}

// SavePreset asks the host to write an instance's current state as a preset.
func (m *Manager) SavePreset(ctx context.Context, id, name, dir, file string) error {
	if err := validateStruct(&savePresetArgs{InstanceID: id, Name: name, Dir: dir, File: file}); err != nil {
		return err
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	inst, err := m.lookup(id)
	if err != nil {
		return err
	}
	_, err = m.do(ctx, protocol.FormatCommand(protocol.CmdPresetSave,
		protocol.FormatInt(inst.HostInstance), name, dir, file))
	return err
}
