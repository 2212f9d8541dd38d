// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/pedalbridge/internal/bridgeerr"
	"github.com/tomtom215/pedalbridge/internal/logging"
	"github.com/tomtom215/pedalbridge/internal/protocol"
)

// Well-known ports probed by the MIDI capability queries.
const (
	PortMidiBeatClockSender  = "effect_9993:mclk"
	PortSerialMidiInput      = "ttymidi:MIDI_in"
	PortSerialMidiOutput     = "ttymidi:MIDI_out"
	PortMidiMergerOutput     = "mod-midi-merger:out"
	PortMidiBroadcasterInput = "mod-midi-broadcaster:in"
)

// Manager is the audio system capability used by the dispatcher.
type Manager interface {
	Init(ctx context.Context) error
	Close() error

	BufferSize(ctx context.Context) int
	SampleRate(ctx context.Context) float64
	HardwarePorts(ctx context.Context, isAudio, isOutput bool) []string
	PortAlias(ctx context.Context, port string) string
	PortConnections(ctx context.Context, port string) []string

	HasMidiBeatClockSenderPort(ctx context.Context) bool
	HasSerialMidiInputPort(ctx context.Context) bool
	HasSerialMidiOutputPort(ctx context.Context) bool
	HasMidiMergerOutputPort(ctx context.Context) bool
	HasMidiBroadcasterInputPort(ctx context.Context) bool

	ConnectPorts(ctx context.Context, a, b string) error
	DisconnectPorts(ctx context.Context, a, b string) error
	DisconnectAllPorts(ctx context.Context, port string) error

	ResetXruns()
	Snapshot() Snapshot
}

// Commander sends one command to the audio host and fails on a non-zero reply.
type Commander interface {
	Do(ctx context.Context, line string) (protocol.Response, error)
}

// PortGraph implements Manager over a local Client and the host command port.
type PortGraph struct {
	client  Client
	host    Commander
	monitor *Monitor
	logger  zerolog.Logger

	mu          sync.RWMutex
	initialized bool
}

var _ Manager = (*PortGraph)(nil)

// NewPortGraph creates a PortGraph. Init must be called before queries
// return data; mutations work immediately.
func NewPortGraph(client Client, host Commander, monitor *Monitor) *PortGraph {
	return &PortGraph{
		client:  client,
		host:    host,
		monitor: monitor,
		logger:  logging.WithComponent("audio"),
	}
}

// Init opens the local client. Calling it again is a no-op.
func (g *PortGraph) Init(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.initialized {
		return nil
	}
	if err := g.client.Open(ctx); err != nil {
		return fmt.Errorf("init audio client: %w", err)
	}
	g.initialized = true
	g.logger.Info().Msg("Audio client initialized")
	return nil
}

// Close releases the local client. Calling it again is a no-op.
func (g *PortGraph) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.initialized {
		return nil
	}
	g.initialized = false
	if err := g.client.Close(); err != nil {
		return fmt.Errorf("close audio client: %w", err)
	}
	g.logger.Info().Msg("Audio client closed")
	return nil
}

// Initialized reports whether Init has succeeded since the last Close.
func (g *PortGraph) Initialized() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.initialized
}

func (g *PortGraph) ready(op string) bool {
	if g.Initialized() {
		return true
	}
	g.logger.Warn().Str("op", op).Msg("Audio client not initialized")
	return false
}

// BufferSize returns the server buffer size in frames, or 0.
func (g *PortGraph) BufferSize(ctx context.Context) int {
	if !g.ready("buffer_size") {
		return 0
	}
	n, err := g.client.BufferSize(ctx)
	if err != nil {
		g.logger.Warn().Err(err).Msg("Failed to read buffer size")
		return 0
	}
	return n
}

// SampleRate returns the server sample rate in Hz, or 0.
func (g *PortGraph) SampleRate(ctx context.Context) float64 {
	if !g.ready("sample_rate") {
		return 0
	}
	rate, err := g.client.SampleRate(ctx)
	if err != nil {
		g.logger.Warn().Err(err).Msg("Failed to read sample rate")
		return 0
	}
	return rate
}

// HardwarePorts lists physical ports of the given type. isOutput selects
// hardware outputs, which the server exposes as input (playback) ports.
func (g *PortGraph) HardwarePorts(ctx context.Context, isAudio, isOutput bool) []string {
	ports := g.ports(ctx, "hardware_ports")
	names := make([]string, 0, len(ports))
	for _, p := range ports {
		if p.Physical && p.Audio == isAudio && p.Output != isOutput {
			names = append(names, p.Name)
		}
	}
	return names
}

// PortAlias returns the first alias of port, or "".
func (g *PortGraph) PortAlias(ctx context.Context, port string) string {
	if !g.ready("port_alias") {
		return ""
	}
	aliases, err := g.client.Aliases(ctx, port)
	if err != nil {
		g.logger.Warn().Err(err).Str("port", port).Msg("Failed to read port aliases")
		return ""
	}
	if len(aliases) == 0 {
		return ""
	}
	return aliases[0]
}

// PortConnections lists the ports connected to port.
func (g *PortGraph) PortConnections(ctx context.Context, port string) []string {
	if !g.ready("port_connections") {
		return []string{}
	}
	conns, err := g.client.Connections(ctx, port)
	if err != nil {
		g.logger.Warn().Err(err).Str("port", port).Msg("Failed to read port connections")
		return []string{}
	}
	if conns == nil {
		return []string{}
	}
	return conns
}

// HasMidiBeatClockSenderPort reports whether the beat clock sender is running.
func (g *PortGraph) HasMidiBeatClockSenderPort(ctx context.Context) bool {
	return g.hasPort(ctx, PortMidiBeatClockSender)
}

// HasSerialMidiInputPort reports whether the serial MIDI input exists.
func (g *PortGraph) HasSerialMidiInputPort(ctx context.Context) bool {
	return g.hasPort(ctx, PortSerialMidiInput)
}

// HasSerialMidiOutputPort reports whether the serial MIDI output exists.
func (g *PortGraph) HasSerialMidiOutputPort(ctx context.Context) bool {
	return g.hasPort(ctx, PortSerialMidiOutput)
}

// HasMidiMergerOutputPort reports whether the MIDI merger is running.
func (g *PortGraph) HasMidiMergerOutputPort(ctx context.Context) bool {
	return g.hasPort(ctx, PortMidiMergerOutput)
}

// HasMidiBroadcasterInputPort reports whether the MIDI broadcaster is running.
func (g *PortGraph) HasMidiBroadcasterInputPort(ctx context.Context) bool {
	return g.hasPort(ctx, PortMidiBroadcasterInput)
}

func (g *PortGraph) hasPort(ctx context.Context, name string) bool {
	for _, p := range g.ports(ctx, "has_port") {
		if p.Name == name {
			return true
		}
	}
	return false
}

func (g *PortGraph) ports(ctx context.Context, op string) []PortInfo {
	if !g.ready(op) {
		return nil
	}
	ports, err := g.client.Ports(ctx)
	if err != nil {
		g.logger.Warn().Err(err).Str("op", op).Msg("Failed to list ports")
		return nil
	}
	return ports
}

// ConnectPorts asks the host to connect a to b.
func (g *PortGraph) ConnectPorts(ctx context.Context, a, b string) error {
	return g.mutate(ctx, protocol.CmdConnect, a, b)
}

// DisconnectPorts asks the host to disconnect a from b.
func (g *PortGraph) DisconnectPorts(ctx context.Context, a, b string) error {
	return g.mutate(ctx, protocol.CmdDisconnect, a, b)
}

// DisconnectAllPorts disconnects every current connection of port, stopping
// at the first failure. Connections already removed stay removed.
//
// The peer list comes from the local client, so unlike the single-pair
// mutations this requires Init and reports a failed read instead of treating
// it as "no connections".
func (g *PortGraph) DisconnectAllPorts(ctx context.Context, port string) error {
	if !protocol.ValidArg(port) {
		return bridgeerr.Protocolf("invalid port name %q", port)
	}
	if !g.Initialized() {
		return bridgeerr.Protocolf("audio client not initialized")
	}

	peers, err := g.client.Connections(ctx, port)
	if err != nil {
		return fmt.Errorf("read connections of %s: %w", port, err)
	}
	done := make([]string, 0, len(peers))
	for _, peer := range peers {
		if err := g.mutate(ctx, protocol.CmdDisconnect, port, peer); err != nil {
			return &bridgeerr.PartialFailure{Operation: "disconnect_all_ports", Completed: done, Cause: err}
		}
		done = append(done, peer)
	}
	return nil
}

func (g *PortGraph) mutate(ctx context.Context, cmd, a, b string) error {
	if !protocol.ValidArg(a) || !protocol.ValidArg(b) {
		return bridgeerr.Protocolf("invalid port names %q, %q", a, b)
	}
	if _, err := g.host.Do(ctx, protocol.FormatCommand(cmd, a, b)); err != nil {
		return err
	}
	logging.Ctx(ctx).Debug().Str("cmd", cmd).Str("a", a).Str("b", b).Msg("Port graph updated")
	return nil
}

// ResetXruns resets the reported xrun count.
func (g *PortGraph) ResetXruns() {
	g.monitor.ResetXruns()
}

// Snapshot returns the current statistics.
func (g *PortGraph) Snapshot() Snapshot {
	return g.monitor.Snapshot()
}
