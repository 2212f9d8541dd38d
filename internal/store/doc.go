// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

// Package store is the BadgerDB-backed journal of live plugin instances.
//
// The plugin manager writes every instance mutation here so a restarted
// bridge can rebuild its instance_id to host_instance mapping. Values are
// raw JSON; the journal does not know the record type.
//
// An empty path opens Badger in in-memory mode, which keeps the same code
// path for tests and journal-less deployments.
package store
