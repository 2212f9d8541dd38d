// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package audio

import (
	"sync"

	"github.com/tomtom215/pedalbridge/internal/metrics"
	"github.com/tomtom215/pedalbridge/internal/protocol"
)

// Snapshot is a point-in-time view of the audio server statistics.
type Snapshot struct {
	CPULoad        float64 `json:"cpu_load"`
	Xruns          int     `json:"xruns"`
	Rolling        bool    `json:"rolling"`
	BeatsPerBar    float64 `json:"beats_per_bar"`
	BeatsPerMinute float64 `json:"beats_per_minute"`
}

// Monitor holds the latest statistics reported on the feedback stream.
type Monitor struct {
	mu sync.Mutex

	cpuLoad        float64
	hostXruns      int
	xrunBaseline   int
	rolling        bool
	beatsPerBar    float64
	beatsPerMinute float64
}

// NewMonitor returns an empty Monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// RecordCPULoad stores a cpu_load report.
func (m *Monitor) RecordCPULoad(c protocol.CPULoad) {
	m.mu.Lock()
	m.cpuLoad = c.Load
	// The host counter restarted; drop a baseline taken before it.
	if c.Xruns < m.xrunBaseline {
		m.xrunBaseline = 0
	}
	m.hostXruns = c.Xruns
	xruns := m.hostXruns - m.xrunBaseline
	m.mu.Unlock()

	metrics.RecordAudioStats(c.Load, xruns)
}

// RecordTransport stores a transport report.
func (m *Monitor) RecordTransport(t protocol.Transport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rolling = t.Rolling
	m.beatsPerBar = t.BeatsPerBar
	m.beatsPerMinute = t.BeatsPerMinute
}

// ResetXruns zeroes the reported xrun count from now on.
func (m *Monitor) ResetXruns() {
	m.mu.Lock()
	m.xrunBaseline = m.hostXruns
	load := m.cpuLoad
	m.mu.Unlock()

	metrics.RecordAudioStats(load, 0)
}

// Snapshot returns the current values.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		CPULoad:        m.cpuLoad,
		Xruns:          m.hostXruns - m.xrunBaseline,
		Rolling:        m.rolling,
		BeatsPerBar:    m.beatsPerBar,
		BeatsPerMinute: m.beatsPerMinute,
	}
}
