// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package plugins

import "github.com/tomtom215/pedalbridge/internal/validation"

// Argument sets checked before a host command is formatted.

type loadArgs struct {
	URI string `json:"uri" validate:"hostarg"`
}

type instanceArgs struct {
	InstanceID string `json:"instance_id" validate:"required"`
}

type parameterArgs struct {
	InstanceID string `json:"instance_id" validate:"required"`
	Symbol     string `json:"symbol" validate:"hostarg"`
}

type loadPresetArgs struct {
	InstanceID string `json:"instance_id" validate:"required"`
	PresetURI  string `json:"preset_uri" validate:"hostarg"`
}

type savePresetArgs struct {
	InstanceID string `json:"instance_id" validate:"required"`
	Name       string `json:"name" validate:"hostarg"`
	Dir        string `json:"dir" validate:"hostarg"`
	File       string `json:"file" validate:"hostarg"`
}

type uriArgs struct {
	URI string `json:"uri" validate:"required"`
}

type bundleArgs struct {
	Path string `json:"bundle_path" validate:"hostarg"`
}

func validateStruct(v interface{}) error {
	return validation.ValidateStruct(v)
}
