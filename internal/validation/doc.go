// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

// Package validation provides struct validation using go-playground/validator v10.
//
// The dispatcher decodes each plugin and audio request into a typed struct
// and validates it here before any host command is formatted. Field names in
// messages are the JSON names the client sent, so a missing instance reads
// "instance_id is required".
//
// # Custom Tags
//
//   - hostarg: non-empty and free of whitespace and NUL, so the value can be
//     sent as a single host protocol argument
//
// # Errors
//
// ValidateStruct returns *RequestValidationError, which unwraps to
// bridgeerr.ErrProtocol so the dispatcher replies with kind "protocol_error".
//
//	type setParameter struct {
//	    InstanceID string  `json:"instance_id" validate:"required"`
//	    Symbol     string  `json:"symbol" validate:"hostarg"`
//	    Value      float64 `json:"value"`
//	}
//
//	if err := validation.ValidateStruct(&req); err != nil {
//	    return nil, err
//	}
package validation
