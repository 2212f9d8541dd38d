// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

/*
Package metrics provides Prometheus metrics for the bridge.

Collectors are registered with the default registry through promauto and
served by the ops router at /metrics:

	curl http://127.0.0.1:9470/metrics

# Available Metrics

Host link:
  - pedalbridge_host_command_duration_seconds{command}
  - pedalbridge_host_commands_total{command,result}
  - pedalbridge_host_command_connected
  - circuit_breaker_* for the "audio-host" breaker

Command endpoint:
  - pedalbridge_requests_total{action,method,kind}
  - pedalbridge_request_duration_seconds{action}

Feedback:
  - pedalbridge_feedback_events_total{type}
  - pedalbridge_feedback_connected, pedalbridge_feedback_reconnects_total
  - pedalbridge_audio_cpu_load_percent, pedalbridge_audio_xruns

State:
  - pedalbridge_plugin_instances, pedalbridge_catalog_plugins

Components call the Record and Set helpers rather than touching collectors directly.
*/
package metrics
