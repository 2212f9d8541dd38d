// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package health

import (
	"sync/atomic"

	"github.com/tomtom215/pedalbridge/internal/metrics"
)

// Status values.
const (
	StatusStarting  = "starting"
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

var statusMessages = map[string]string{
	StatusStarting:  "bridge starting",
	StatusHealthy:   "bridge connected to audio host",
	StatusDegraded:  "feedback stream disconnected",
	StatusUnhealthy: "audio host command port unreachable",
}

// Report is the health reply body.
type Report struct {
	Status            string `json:"status"`
	Message           string `json:"message"`
	CommandConnected  bool   `json:"command_connected"`
	FeedbackConnected bool   `json:"feedback_connected"`
}

// State is the shared connectivity state.
type State struct {
	commandConnected  atomic.Bool
	feedbackConnected atomic.Bool
	queried           atomic.Bool
}

// NewState returns a State with both links down and no query served yet.
func NewState() *State {
	return &State{}
}

// SetCommandConnected records the outcome of the latest command round trip.
func (s *State) SetCommandConnected(connected bool) {
	s.commandConnected.Store(connected)
	metrics.SetHostCommandConnected(connected)
}

// SetFeedbackConnected records whether the feedback stream is up.
func (s *State) SetFeedbackConnected(connected bool) {
	s.feedbackConnected.Store(connected)
	metrics.SetFeedbackConnected(connected)
}

// CommandConnected reports the command flag.
func (s *State) CommandConnected() bool {
	return s.commandConnected.Load()
}

// FeedbackConnected reports the feedback flag.
func (s *State) FeedbackConnected() bool {
	return s.feedbackConnected.Load()
}

// Status maps the two flags to a status.
func Status(commandConnected, feedbackConnected bool) string {
	switch {
	case !commandConnected:
		return StatusUnhealthy
	case !feedbackConnected:
		return StatusDegraded
	default:
		return StatusHealthy
	}
}

// Query answers a health query. The first call reports "starting" and
// latches; every later call reports the computed status.
func (s *State) Query() Report {
	if s.queried.CompareAndSwap(false, true) {
		return s.report(StatusStarting)
	}
	return s.Current()
}

// Peek reports what the next query would answer without latching.
func (s *State) Peek() Report {
	if !s.queried.Load() {
		return s.report(StatusStarting)
	}
	return s.Current()
}

// Current reports the computed status, ignoring the startup latch.
func (s *State) Current() Report {
	return s.report(Status(s.CommandConnected(), s.FeedbackConnected()))
}

func (s *State) report(status string) Report {
	return Report{
		Status:            status,
		Message:           statusMessages[status],
		CommandConnected:  s.CommandConnected(),
		FeedbackConnected: s.FeedbackConnected(),
	}
}
