// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

// Package dispatcher serves the command subject.
//
// Requests arrive as JSON on "<prefix>.command" and are handled strictly one
// at a time through eventbus.ServeEndpoint. The request body selects one of
// four shapes:
//
//	{"command": "param_get 0 gain"}                       raw pass-through
//	{"name": "param_get", "args": [0, "gain"]}            structured pass-through
//	{"action": "plugin", "method": "load_plugin", ...}    plugin manager
//	{"action": "audio", "method": "get_buffer_size"}      audio manager
//
// {"action": "health"} is answered from the shared health.State as a
// convenience for clients that only hold the command subject.
//
// Pass-through commands are answered with the host's reply:
//
//	{"status": "ok", "code": 0, "raw": "resp 0 0.5", "payload": "0.5"}
//
// Every failure becomes {"error": "...", "kind": "..."} (see bridgeerr.Reply).
// A panic inside a handler is recovered and reported with kind "internal";
// the endpoint keeps serving.
package dispatcher
