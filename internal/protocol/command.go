// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package protocol

import (
	"strconv"
	"strings"
)

// Host command keywords.
const (
	CmdAdd          = "add"
	CmdRemove       = "remove"
	CmdParamSet     = "param_set"
	CmdParamGet     = "param_get"
	CmdBypass       = "bypass"
	CmdPresetLoad   = "preset_load"
	CmdPresetSave   = "preset_save"
	CmdConnect      = "connect"
	CmdDisconnect   = "disconnect"
	CmdBundleAdd    = "bundle_add"
	CmdBundleRemove = "bundle_remove"
)

var commands = map[string]struct{}{
	CmdAdd: {}, CmdRemove: {}, CmdParamSet: {}, CmdParamGet: {}, CmdBypass: {},
	CmdPresetLoad: {}, CmdPresetSave: {}, CmdConnect: {}, CmdDisconnect: {},
	CmdBundleAdd: {}, CmdBundleRemove: {},
}

// IsCommand reports whether name is one of the Cmd keywords above.
func IsCommand(name string) bool {
	_, ok := commands[name]
	return ok
}

// FormatCommand joins name and args with single spaces. Arguments are not
// escaped; callers must not pass values containing whitespace or terminators.
func FormatCommand(name string, args ...string) string {
	if len(args) == 0 {
		return name
	}
	var b strings.Builder
	b.WriteString(name)
	for _, a := range args {
		b.WriteByte(' ')
		b.WriteString(a)
	}
	return b.String()
}

// FormatFloat renders a parameter value in the shortest form that round-trips.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatBool renders a flag as the host's 1 or 0.
func FormatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// FormatInt renders an integer argument.
func FormatInt(i int) string {
	return strconv.Itoa(i)
}

// ValidArg reports whether s can be sent as a single argument.
func ValidArg(s string) bool {
	return s != "" && !strings.ContainsAny(s, " \t\r\n\x00")
}
