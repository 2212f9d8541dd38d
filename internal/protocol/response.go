// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package protocol

import (
	"strconv"
	"strings"

	"github.com/tomtom215/pedalbridge/internal/bridgeerr"
)

const respKeyword = "resp"

// Response is a parsed host reply.
type Response struct {
	Code    int
	Payload string
}

// OK reports whether the host accepted the command.
func (r Response) OK() bool {
	return r.Code == 0
}

// ParseResponse parses "resp <code>[ <payload>]". Surrounding whitespace and NUL
// bytes are ignored. The payload keeps its internal spacing.
func ParseResponse(line string) (Response, error) {
	s := trimLine(line)
	rest, ok := strings.CutPrefix(s, respKeyword)
	if !ok || (rest != "" && rest[0] != ' ' && rest[0] != '\t') {
		return Response{}, bridgeerr.Protocolf("not a reply: %q", s)
	}
	rest = strings.TrimLeft(rest, " \t")
	if rest == "" {
		return Response{}, bridgeerr.Protocolf("reply without code: %q", s)
	}

	codeText, payload, _ := strings.Cut(rest, " ")
	code, err := strconv.Atoi(codeText)
	if err != nil {
		return Response{}, bridgeerr.Protocolf("reply code %q is not an integer", codeText)
	}
	return Response{Code: code, Payload: strings.TrimSpace(payload)}, nil
}

// PayloadFloat parses the payload as a float, for param_get replies.
func (r Response) PayloadFloat() (float64, bool) {
	if r.Payload == "" {
		return 0, false
	}
	return parseFinite(strings.Fields(r.Payload)[0])
}

func trimLine(line string) string {
	return strings.Trim(line, " \t\r\n\x00")
}
