// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package dispatcher

import (
	"context"

	"github.com/tomtom215/pedalbridge/internal/audio"
	"github.com/tomtom215/pedalbridge/internal/validation"
)

type hardwarePortsParams struct {
	IsAudio  bool `json:"is_audio"`
	IsOutput bool `json:"is_output"`
}

type portParams struct {
	Port string `json:"port" validate:"hostarg"`
}

type portPairParams struct {
	PortA string `json:"port_a" validate:"hostarg"`
	PortB string `json:"port_b" validate:"hostarg"`
}

type (
	bufferSizeResult struct {
		BufferSize int `json:"buffer_size"`
	}

	sampleRateResult struct {
		SampleRate float64 `json:"sample_rate"`
	}

	portsResult struct {
		Ports []string `json:"ports"`
	}

	aliasResult struct {
		Port  string `json:"port"`
		Alias string `json:"alias"`
	}

	connectionsResult struct {
		Port        string   `json:"port"`
		Connections []string `json:"connections"`
	}

	presentResult struct {
		Present bool `json:"present"`
	}
)

func (d *Dispatcher) audioTable() map[string]methodFunc {
	return map[string]methodFunc{
		"init":                            d.audioInit,
		"close":                           d.audioClose,
		"get_buffer_size":                 d.getBufferSize,
		"get_sample_rate":                 d.getSampleRate,
		"get_hardware_ports":              d.getHardwarePorts,
		"get_port_alias":                  d.getPortAlias,
		"get_port_connections":            d.getPortConnections,
		"has_midi_beat_clock_sender_port": d.probe(audio.Manager.HasMidiBeatClockSenderPort),
		"has_serial_midi_input_port":      d.probe(audio.Manager.HasSerialMidiInputPort),
		"has_serial_midi_output_port":     d.probe(audio.Manager.HasSerialMidiOutputPort),
		"has_midi_merger_output_port":     d.probe(audio.Manager.HasMidiMergerOutputPort),
		"has_midi_broadcaster_input_port": d.probe(audio.Manager.HasMidiBroadcasterInputPort),
		"connect_ports":                   d.connectPorts,
		"disconnect_ports":                d.disconnectPorts,
		"disconnect_all_ports":            d.disconnectAllPorts,
		"reset_xruns":                     d.resetXruns,
		"get_jack_data":                   d.getJackData,
	}
}

// decodeValid decodes body into v and checks its validate tags.
func decodeValid(body []byte, v interface{}) error {
	if err := decodeParams(body, v); err != nil {
		return err
	}
	return validation.ValidateStruct(v)
}

func (d *Dispatcher) audioInit(ctx context.Context, _ []byte) (interface{}, error) {
	if err := d.audio.Init(ctx); err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

func (d *Dispatcher) audioClose(_ context.Context, _ []byte) (interface{}, error) {
	if err := d.audio.Close(); err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

func (d *Dispatcher) getBufferSize(ctx context.Context, _ []byte) (interface{}, error) {
	return bufferSizeResult{BufferSize: d.audio.BufferSize(ctx)}, nil
}

func (d *Dispatcher) getSampleRate(ctx context.Context, _ []byte) (interface{}, error) {
	return sampleRateResult{SampleRate: d.audio.SampleRate(ctx)}, nil
}

func (d *Dispatcher) getHardwarePorts(ctx context.Context, body []byte) (interface{}, error) {
	var p hardwarePortsParams
	if err := decodeParams(body, &p); err != nil {
		return nil, err
	}
	return portsResult{Ports: d.audio.HardwarePorts(ctx, p.IsAudio, p.IsOutput)}, nil
}

func (d *Dispatcher) getPortAlias(ctx context.Context, body []byte) (interface{}, error) {
	var p portParams
	if err := decodeValid(body, &p); err != nil {
		return nil, err
	}
	return aliasResult{Port: p.Port, Alias: d.audio.PortAlias(ctx, p.Port)}, nil
}

func (d *Dispatcher) getPortConnections(ctx context.Context, body []byte) (interface{}, error) {
	var p portParams
	if err := decodeValid(body, &p); err != nil {
		return nil, err
	}
	return connectionsResult{Port: p.Port, Connections: d.audio.PortConnections(ctx, p.Port)}, nil
}

func (d *Dispatcher) probe(fn func(audio.Manager, context.Context) bool) methodFunc {
	return func(ctx context.Context, _ []byte) (interface{}, error) {
		return presentResult{Present: fn(d.audio, ctx)}, nil
	}
}

func (d *Dispatcher) connectPorts(ctx context.Context, body []byte) (interface{}, error) {
	var p portPairParams
	if err := decodeValid(body, &p); err != nil {
		return nil, err
	}
	if err := d.audio.ConnectPorts(ctx, p.PortA, p.PortB); err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

func (d *Dispatcher) disconnectPorts(ctx context.Context, body []byte) (interface{}, error) {
	var p portPairParams
	if err := decodeValid(body, &p); err != nil {
		return nil, err
	}
	if err := d.audio.DisconnectPorts(ctx, p.PortA, p.PortB); err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

func (d *Dispatcher) disconnectAllPorts(ctx context.Context, body []byte) (interface{}, error) {
	var p portParams
	if err := decodeValid(body, &p); err != nil {
		return nil, err
	}
	if err := d.audio.DisconnectAllPorts(ctx, p.Port); err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

func (d *Dispatcher) resetXruns(_ context.Context, _ []byte) (interface{}, error) {
	d.audio.ResetXruns()
	return okResult{OK: true}, nil
}

func (d *Dispatcher) getJackData(_ context.Context, _ []byte) (interface{}, error) {
	return d.audio.Snapshot(), nil
}
