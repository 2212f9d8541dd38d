// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package metrics

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/pedalbridge/internal/bridgeerr"
)

func TestRecordHostCommand(t *testing.T) {
	tests := []struct {
		name    string
		command string
		err     error
		result  string
	}{
		{"accepted", "add", nil, "ok"},
		{"rejected", "remove", &bridgeerr.HostError{Code: -1}, "rejected"},
		{"unreachable", "param_set", bridgeerr.Unavailable("127.0.0.1:5555", io.EOF), "unavailable"},
		{"garbled reply", "param_get", bridgeerr.Protocolf("bad reply"), "protocol_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(HostCommandsTotal.WithLabelValues(tt.command, tt.result))
			RecordHostCommand(tt.command, 2*time.Millisecond, tt.err)
			after := testutil.ToFloat64(HostCommandsTotal.WithLabelValues(tt.command, tt.result))
			if after != before+1 {
				t.Errorf("host_commands_total{%s,%s} = %v, want %v", tt.command, tt.result, after, before+1)
			}
		})
	}
}

func TestRecordRequest(t *testing.T) {
	before := testutil.ToFloat64(RequestsTotal.WithLabelValues("plugin", "unknown", bridgeerr.KindUnknownMethod))
	RecordRequest("plugin", "unknown", time.Millisecond, bridgeerr.UnknownMethod("plugin", "unknown"))
	after := testutil.ToFloat64(RequestsTotal.WithLabelValues("plugin", "unknown", bridgeerr.KindUnknownMethod))
	if after != before+1 {
		t.Errorf("requests_total = %v, want %v", after, before+1)
	}

	RecordRequest("audio", "init", time.Millisecond, errors.New("boom"))
	if got := testutil.ToFloat64(RequestsTotal.WithLabelValues("audio", "init", bridgeerr.KindInternal)); got < 1 {
		t.Errorf("internal error should be labelled %q", bridgeerr.KindInternal)
	}
}

func TestGauges(t *testing.T) {
	SetHostCommandConnected(true)
	if got := testutil.ToFloat64(HostCommandConnected); got != 1 {
		t.Errorf("host_command_connected = %v, want 1", got)
	}
	SetFeedbackConnected(false)
	if got := testutil.ToFloat64(FeedbackConnected); got != 0 {
		t.Errorf("feedback_connected = %v, want 0", got)
	}
	SetPluginInstances(3)
	if got := testutil.ToFloat64(PluginInstances); got != 3 {
		t.Errorf("plugin_instances = %v, want 3", got)
	}
	RecordAudioStats(42.5, 7)
	if got := testutil.ToFloat64(AudioCPULoad); got != 42.5 {
		t.Errorf("audio_cpu_load = %v, want 42.5", got)
	}
	if got := testutil.ToFloat64(AudioXruns); got != 7 {
		t.Errorf("audio_xruns = %v, want 7", got)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("active requests = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("active requests = %v, want %v", got, before)
	}
}
