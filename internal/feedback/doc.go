// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

// Package feedback keeps one persistent connection to the audio host's
// feedback port and republishes every line as a structured event.
//
// The Reader cycles through disconnected, connecting, and streaming. It
// redials after a fixed backoff until its context is cancelled, and flips
// health.State's feedback flag when it enters and leaves streaming.
//
// Lines end with a newline or a NUL byte. Each is parsed with
// protocol.ParseFeedback and published on "<prefix>.feedback.<type>" in
// arrival order. A few event types also update local state:
//
//   - param_set: the owning instance's cached parameter value
//   - cpu_load, transport: the audio.Monitor behind get_jack_data
//
// Lines the parser does not recognize are published as "raw" events; the
// matching warning log is rate limited so a chatty host cannot flood it.
package feedback
