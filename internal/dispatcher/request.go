// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package dispatcher

import (
	"bytes"
	"errors"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/pedalbridge/internal/bridgeerr"
	"github.com/tomtom215/pedalbridge/internal/protocol"
)

// Envelope actions.
const (
	ActionPlugin = "plugin"
	ActionAudio  = "audio"
	ActionHealth = "health"

	// Labels used in metrics for pass-through requests.
	actionRaw        = "raw"
	actionStructured = "structured"

	methodPassThrough = "pass_through"
	methodUnknown     = "unknown"
	methodInvalid     = "invalid"
)

type kind int

const (
	kindInvalid kind = iota
	kindRaw
	kindStructured
	kindPlugin
	kindAudio
	kindHealth
)

// envelope holds the discriminating fields of a request. Method-specific
// fields are decoded separately from the same body.
type envelope struct {
	Action  string            `json:"action"`
	Method  string            `json:"method"`
	Command *string           `json:"command"`
	Name    *string           `json:"name"`
	Args    []json.RawMessage `json:"args"`
}

type request struct {
	kind   kind
	action string
	method string
	line   string
	body   []byte
}

func decodeRequest(data []byte) (request, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return request{}, bridgeerr.Protocolf("empty request")
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return request{}, bridgeerr.Protocolf("request is not a JSON object: %v", err)
	}

	switch {
	case env.Action == ActionPlugin:
		return request{kind: kindPlugin, action: ActionPlugin, method: env.Method, body: data}, nil
	case env.Action == ActionAudio:
		return request{kind: kindAudio, action: ActionAudio, method: env.Method, body: data}, nil
	case env.Action == ActionHealth:
		return request{kind: kindHealth, action: ActionHealth, method: ActionHealth}, nil
	case env.Action != "":
		return request{}, bridgeerr.Protocolf("unknown action %q", env.Action)
	case env.Command != nil:
		line, err := rawLine(*env.Command)
		if err != nil {
			return request{}, err
		}
		return request{kind: kindRaw, action: actionRaw, method: commandName(line), line: line}, nil
	case env.Name != nil:
		line, err := structuredLine(*env.Name, env.Args)
		if err != nil {
			return request{}, err
		}
		return request{kind: kindStructured, action: actionStructured, method: *env.Name, line: line}, nil
	default:
		return request{}, bridgeerr.Protocolf("request has no action, command, or name")
	}
}

// rawLine forwards text as-is. It must stay one line on the wire.
func rawLine(text string) (string, error) {
	line := strings.TrimSpace(text)
	if line == "" {
		return "", bridgeerr.Protocolf("command is empty")
	}
	if strings.ContainsAny(line, "\x00\n\r") {
		return "", bridgeerr.Protocolf("command must be a single line")
	}
	return line, nil
}

func structuredLine(name string, rawArgs []json.RawMessage) (string, error) {
	if !protocol.ValidArg(name) {
		return "", bridgeerr.Protocolf("name %q must be a single word", name)
	}
	args := make([]string, 0, len(rawArgs))
	for i, raw := range rawArgs {
		arg, err := formatArg(raw)
		if err != nil {
			return "", bridgeerr.Protocolf("args[%d]: %v", i, err)
		}
		args = append(args, arg)
	}
	return protocol.FormatCommand(name, args...), nil
}

// formatArg renders a JSON scalar the way the host expects it.
func formatArg(raw json.RawMessage) (string, error) {
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return "", err
	}

	var s string
	switch t := v.(type) {
	case string:
		s = t
	case json.Number:
		s = t.String()
	case bool:
		s = protocol.FormatBool(t)
	default:
		return "", errNotScalar
	}
	if !protocol.ValidArg(s) {
		return "", errBadArg
	}
	return s, nil
}

var (
	errNotScalar = errors.New("argument must be a JSON scalar")
	errBadArg    = errors.New("argument must be a non-empty word without whitespace")
)

// methodLabel bounds the method label on request metrics. Pass-through
// requests share one label and unknown method names are counted together.
func methodLabel(req request, err error) string {
	switch {
	case req.kind == kindRaw || req.kind == kindStructured:
		return methodPassThrough
	case errors.Is(err, bridgeerr.ErrUnknownMethod):
		return methodUnknown
	}
	return req.method
}

func commandName(line string) string {
	if i := strings.IndexByte(line, ' '); i > 0 {
		return line[:i]
	}
	return line
}
