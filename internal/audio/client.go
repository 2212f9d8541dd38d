// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package audio

import "context"

// PortInfo describes one audio server port.
type PortInfo struct {
	Name     string `json:"name"`
	Audio    bool   `json:"audio"`
	Output   bool   `json:"output"`
	Physical bool   `json:"physical"`
}

// Client is a read-only handle on the local audio server.
type Client interface {
	Open(ctx context.Context) error
	Close() error
	BufferSize(ctx context.Context) (int, error)
	SampleRate(ctx context.Context) (float64, error)
	Ports(ctx context.Context) ([]PortInfo, error)
	Aliases(ctx context.Context, port string) ([]string, error)
	Connections(ctx context.Context, port string) ([]string, error)
}
