// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

// Package plugins owns the table of plugin instances loaded on the audio host.
//
// Each instance has two identifiers:
//
//   - instance_id: a UUID minted by the bridge when a load succeeds. It is
//     never reused.
//   - host_instance: the host's small integer slot. The bridge proposes the
//     lowest free slot on load; a slot is reused only after its previous
//     instance is unloaded.
//
// The table changes only after the host confirms a command, so a failed
// host call leaves it untouched. Mutations are written to the instance
// journal and announced as plugin_loaded, plugin_unloaded, and
// parameter_changed events.
//
// Plugin metadata (names, presets, GUI resources, bundles) comes from a
// plugin index exported by the host, in YAML or JSON. The bridge reads it
// and never scans plugin bundles itself.
package plugins
