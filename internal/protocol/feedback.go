// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package protocol

import (
	"math"
	"strconv"
	"strings"
)

// Feedback event types. The first group is parsed from host lines; the
// second is emitted by the bridge itself when the instance table changes.
const (
	TypeParamSet          = "param_set"
	TypeAudioMonitor      = "audio_monitor"
	TypeOutputSet         = "output_set"
	TypeLog               = "log"
	TypeCPULoad           = "cpu_load"
	TypeTransport         = "transport"
	TypeMidiMapped        = "midi_mapped"
	TypeMidiProgramChange = "midi_program_change"
	TypeRaw               = "raw"

	TypePluginLoaded     = "plugin_loaded"
	TypePluginUnloaded   = "plugin_unloaded"
	TypeParameterChanged = "parameter_changed"
)

// Event is a structured feedback event as published to subscribers.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// ParamSet reports a parameter change made on the host side.
type ParamSet struct {
	HostInstance int     `json:"host_instance"`
	Symbol       string  `json:"symbol"`
	Value        float64 `json:"value"`
}

// AudioMonitor reports a level meter reading.
type AudioMonitor struct {
	Index int     `json:"index"`
	Value float64 `json:"value"`
}

// OutputSet reports a plugin output port value.
type OutputSet struct {
	HostInstance int     `json:"host_instance"`
	Symbol       string  `json:"symbol"`
	Value        float64 `json:"value"`
}

// Log is a host log message.
type Log struct {
	Level   int    `json:"level"`
	Message string `json:"message"`
}

// CPULoad reports DSP load and the xrun counter.
type CPULoad struct {
	Load    float64 `json:"load"`
	MaxLoad float64 `json:"max_load"`
	Xruns   int     `json:"xruns"`
}

// Transport reports the host transport state.
type Transport struct {
	Rolling        bool    `json:"rolling"`
	BeatsPerBar    float64 `json:"beats_per_bar"`
	BeatsPerMinute float64 `json:"beats_per_minute"`
}

// MidiMapped reports a MIDI learn result.
type MidiMapped struct {
	HostInstance int     `json:"host_instance"`
	Symbol       string  `json:"symbol"`
	Channel      int     `json:"channel"`
	Controller   int     `json:"controller"`
	Value        float64 `json:"value"`
	Minimum      float64 `json:"minimum"`
	Maximum      float64 `json:"maximum"`
}

// MidiProgramChange reports an incoming program change.
type MidiProgramChange struct {
	Program int `json:"program"`
	Channel int `json:"channel"`
}

// Raw carries a line the parser did not recognize.
type Raw struct {
	Line string `json:"line"`
}

// ParseFeedback turns one feedback line into an Event. The first token
// selects the variant. Unknown keywords, wrong field counts, and unparsable
// numbers all yield a TypeRaw event holding the trimmed line.
func ParseFeedback(line string) Event {
	s := trimLine(line)
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return rawEvent(s)
	}

	p := fieldParser{fields: fields[1:]}
	var data interface{}

	switch fields[0] {
	case TypeParamSet, TypeOutputSet:
		if len(p.fields) != 3 {
			return rawEvent(s)
		}
		hi, sym, val := p.int(0), p.fields[1], p.float(2)
		if fields[0] == TypeParamSet {
			data = ParamSet{HostInstance: hi, Symbol: sym, Value: val}
		} else {
			data = OutputSet{HostInstance: hi, Symbol: sym, Value: val}
		}
	case TypeAudioMonitor:
		if len(p.fields) != 2 {
			return rawEvent(s)
		}
		data = AudioMonitor{Index: p.int(0), Value: p.float(1)}
	case TypeLog:
		if len(p.fields) < 1 {
			return rawEvent(s)
		}
		// Message keeps the host's spacing.
		msg := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s[len(TypeLog):]), p.fields[0]))
		data = Log{Level: p.int(0), Message: msg}
	case TypeCPULoad:
		if len(p.fields) != 3 {
			return rawEvent(s)
		}
		data = CPULoad{Load: p.float(0), MaxLoad: p.float(1), Xruns: p.int(2)}
	case TypeTransport:
		if len(p.fields) != 3 {
			return rawEvent(s)
		}
		data = Transport{Rolling: p.bool(0), BeatsPerBar: p.float(1), BeatsPerMinute: p.float(2)}
	case TypeMidiMapped:
		if len(p.fields) != 7 {
			return rawEvent(s)
		}
		data = MidiMapped{
			HostInstance: p.int(0),
			Symbol:       p.fields[1],
			Channel:      p.int(2),
			Controller:   p.int(3),
			Value:        p.float(4),
			Minimum:      p.float(5),
			Maximum:      p.float(6),
		}
	case TypeMidiProgramChange:
		if len(p.fields) != 2 {
			return rawEvent(s)
		}
		data = MidiProgramChange{Program: p.int(0), Channel: p.int(1)}
	default:
		return rawEvent(s)
	}

	if p.failed {
		return rawEvent(s)
	}
	return Event{Type: fields[0], Data: data}
}

func rawEvent(line string) Event {
	return Event{Type: TypeRaw, Data: Raw{Line: line}}
}

// fieldParser converts positional fields and remembers the first failure.
type fieldParser struct {
	fields []string
	failed bool
}

func (p *fieldParser) int(i int) int {
	v, err := strconv.Atoi(p.fields[i])
	if err != nil {
		p.failed = true
	}
	return v
}

func (p *fieldParser) float(i int) float64 {
	v, ok := parseFinite(p.fields[i])
	if !ok {
		p.failed = true
	}
	return v
}

// parseFinite rejects NaN and infinities, which have no JSON encoding.
func parseFinite(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func (p *fieldParser) bool(i int) bool {
	switch p.fields[i] {
	case "1", "true":
		return true
	case "0", "false":
		return false
	}
	p.failed = true
	return false
}
