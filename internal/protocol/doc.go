// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

// Package protocol parses and formats the audio host's line-oriented text protocol.
//
// The package does no I/O. Commands are a keyword followed by space-separated
// arguments; replies have the form "resp <code>[ <payload>]"; the feedback port
// emits one event per line, selected by its first token.
//
//	line := protocol.FormatCommand(protocol.CmdParamSet, "3", "gain", protocol.FormatFloat(0.5))
//	resp, err := protocol.ParseResponse("resp 0")
//	ev := protocol.ParseFeedback("param_set 3 gain 0.500000")
//
// ParseFeedback never fails: lines it cannot read come back as TypeRaw events
// so a protocol change on the host side never stops event delivery.
package protocol
