// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

// Package bridgeerr defines the error taxonomy shared by the bridge components.
//
// Callers match with errors.Is for the sentinel kinds and errors.As for
// *HostError and *PartialFailure. Kind maps any error to the stable string
// reported in the "kind" field of error replies.
package bridgeerr

import (
	"errors"
	"fmt"
	"strings"
)

// ErrProtocol marks malformed requests or host replies.
var ErrProtocol = errors.New("protocol error")

// ErrUnknownMethod marks a request naming a method the bridge does not implement.
var ErrUnknownMethod = errors.New("unknown method")

// ErrUpstreamUnavailable marks a failed dial, write, or reply timeout against the audio host.
var ErrUpstreamUnavailable = errors.New("audio host unavailable")

// ErrInstanceNotFound marks a request that references an unknown instance_id.
var ErrInstanceNotFound = errors.New("instance not found")

// ErrNotFound marks catalog lookups (plugin, preset, bundle) with no match.
var ErrNotFound = errors.New("not found")

// Reply kinds.
const (
	KindProtocol            = "protocol_error"
	KindUnknownMethod       = "unknown_method"
	KindUpstreamUnavailable = "upstream_unavailable"
	KindInstanceNotFound    = "instance_not_found"
	KindNotFound            = "not_found"
	KindHostError           = "host_error"
	KindPartialFailure      = "partial_failure"
	KindInternal            = "internal"
)

// HostError is a well-formed host reply carrying a failure code.
type HostError struct {
	Command string
	Code    int
	Payload string
}

func (e *HostError) Error() string {
	name := e.Command
	if i := strings.IndexByte(name, ' '); i > 0 {
		name = name[:i]
	}
	if e.Payload != "" {
		return fmt.Sprintf("host rejected %s: code %d: %s", name, e.Code, e.Payload)
	}
	return fmt.Sprintf("host rejected %s: code %d", name, e.Code)
}

// PartialFailure reports a bulk operation that stopped at its first failure.
// Completed lists the items handled before Cause occurred. Nothing is rolled back.
type PartialFailure struct {
	Operation string
	Completed []string
	Cause     error
}

func (e *PartialFailure) Error() string {
	return fmt.Sprintf("%s stopped after %d item(s): %v", e.Operation, len(e.Completed), e.Cause)
}

func (e *PartialFailure) Unwrap() error {
	return e.Cause
}

// Protocolf returns an ErrProtocol with a formatted detail.
func Protocolf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrProtocol, fmt.Sprintf(format, args...))
}

// UnknownMethod returns an ErrUnknownMethod naming the method and its envelope.
func UnknownMethod(action, method string) error {
	if action == "" {
		return fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	return fmt.Errorf("%w: %s.%s", ErrUnknownMethod, action, method)
}

// Unavailable wraps a transport failure against addr as ErrUpstreamUnavailable.
func Unavailable(addr string, cause error) error {
	return fmt.Errorf("%w: %s: %w", ErrUpstreamUnavailable, addr, cause)
}

// InstanceNotFound returns an ErrInstanceNotFound naming the id.
func InstanceNotFound(id string) error {
	return fmt.Errorf("%w: %s", ErrInstanceNotFound, id)
}

// NotFound returns an ErrNotFound for a catalog entity.
func NotFound(what, key string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, what, key)
}

// Kind classifies err for error replies.
func Kind(err error) string {
	var partial *PartialFailure
	var hostErr *HostError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &partial):
		return KindPartialFailure
	case errors.Is(err, ErrUpstreamUnavailable):
		return KindUpstreamUnavailable
	case errors.As(err, &hostErr):
		return KindHostError
	case errors.Is(err, ErrInstanceNotFound):
		return KindInstanceNotFound
	case errors.Is(err, ErrUnknownMethod):
		return KindUnknownMethod
	case errors.Is(err, ErrProtocol):
		return KindProtocol
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	default:
		return KindInternal
	}
}

// Reply is the wire form of an error answered to a bus client.
//
// Completed is set for partial failures and lists the items handled before
// the operation stopped.
type Reply struct {
	Error     string   `json:"error"`
	Kind      string   `json:"kind"`
	Completed []string `json:"completed,omitempty"`
}

// NewReply builds the error reply for err.
func NewReply(err error) Reply {
	reply := Reply{Error: err.Error(), Kind: Kind(err)}
	var partial *PartialFailure
	if errors.As(err, &partial) {
		reply.Completed = partial.Completed
	}
	return reply
}
