// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

// Package health tracks the bridge's connectivity to the audio host and
// answers health queries on their own bus subject.
//
// State holds two independent flags, written by the host link (command port)
// and the feedback reader (event port). It is created once in main and shared
// by pointer; all access is atomic.
//
// Status table:
//
//	command  feedback  status
//	false    any       unhealthy
//	true     false     degraded
//	true     true      healthy
//
// The first query served after startup reports "starting" and latches, so a
// supervisor polling the bridge sees one explicit startup transition.
package health
