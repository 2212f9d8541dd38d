// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package config

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Config holds all bridge configuration loaded from defaults, an optional
// YAML file, and environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in values for every option
//  2. Config File: Optional YAML config file (config.yaml or CONFIG_PATH)
//  3. Environment Variables: Override any setting via environment variables
//
// Config is immutable after Load() and safe for concurrent read access.
type Config struct {
	Host    HostConfig    `koanf:"host"`
	Bus     BusConfig     `koanf:"bus"`
	Ops     OpsConfig     `koanf:"ops"`
	Catalog CatalogConfig `koanf:"catalog"`
	Store   StoreConfig   `koanf:"store"`
	Breaker BreakerConfig `koanf:"breaker"`
	Logging LoggingConfig `koanf:"logging"`
}

// HostConfig describes how to reach the audio host.
type HostConfig struct {
	// Address is the audio host's IP or hostname.
	Address string `koanf:"address"`

	// CommandPort accepts one command per transient connection.
	CommandPort int `koanf:"command_port"`

	// FeedbackPort streams asynchronous event lines.
	FeedbackPort int `koanf:"feedback_port"`

	// Timeout bounds the wait for a command reply.
	Timeout time.Duration `koanf:"timeout"`

	// DialTimeout bounds TCP connection establishment.
	DialTimeout time.Duration `koanf:"dial_timeout"`

	// Terminator ends each command line: "nul" (host default) or "newline".
	Terminator string `koanf:"terminator"`

	// StartupWait is how long startup waits for the command port to accept
	// connections before serving anyway. Zero skips the wait.
	StartupWait time.Duration `koanf:"startup_wait"`

	// FeedbackRetryBackoff is the fixed delay between feedback reconnect attempts.
	FeedbackRetryBackoff time.Duration `koanf:"feedback_retry_backoff"`
}

// CommandAddr returns host:port of the command port.
func (h HostConfig) CommandAddr() string {
	return net.JoinHostPort(h.Address, strconv.Itoa(h.CommandPort))
}

// FeedbackAddr returns host:port of the feedback port.
func (h HostConfig) FeedbackAddr() string {
	return net.JoinHostPort(h.Address, strconv.Itoa(h.FeedbackPort))
}

// TerminatorByte returns the byte that ends a command line.
func (h HostConfig) TerminatorByte() byte {
	if h.Terminator == TerminatorNewline {
		return '\n'
	}
	return 0
}

// Terminator names accepted by HostConfig.Terminator.
const (
	TerminatorNUL     = "nul"
	TerminatorNewline = "newline"
)

// BusConfig configures the NATS message bus that upstream clients use.
type BusConfig struct {
	// Embedded starts an in-process NATS server bound to Host:Port.
	Embedded bool `koanf:"embedded"`

	// Host and Port are the embedded server's bind address.
	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	// URL is the NATS server to connect to. Empty with Embedded=true means
	// the embedded server's own client URL.
	URL string `koanf:"url"`

	// SubjectPrefix namespaces the command, health, and feedback subjects.
	SubjectPrefix string `koanf:"subject_prefix"`

	// CommandPollInterval bounds each wait for the next request so the
	// endpoint loops notice shutdown.
	CommandPollInterval time.Duration `koanf:"command_poll_interval"`
}

// ClientURL returns the URL bridge components should dial.
func (b BusConfig) ClientURL() string {
	if b.URL != "" {
		return b.URL
	}
	return fmt.Sprintf("nats://%s", net.JoinHostPort(b.Host, strconv.Itoa(b.Port)))
}

// CommandSubject is the request/reply subject for commands.
func (b BusConfig) CommandSubject() string {
	return b.SubjectPrefix + ".command"
}

// HealthSubject is the request/reply subject for health queries.
func (b BusConfig) HealthSubject() string {
	return b.SubjectPrefix + ".health"
}

// FeedbackSubject returns the publish subject for one event type.
func (b BusConfig) FeedbackSubject(eventType string) string {
	return b.SubjectPrefix + ".feedback." + eventType
}

// FeedbackWildcard matches every feedback subject.
func (b BusConfig) FeedbackWildcard() string {
	return b.SubjectPrefix + ".feedback.>"
}

// OpsConfig configures the operator HTTP surface (metrics, health, instances, event tap).
type OpsConfig struct {
	Enabled     bool     `koanf:"enabled"`
	Addr        string   `koanf:"addr"`
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimit is the number of requests per minute per client IP.
	RateLimit int `koanf:"rate_limit"`
}

// CatalogConfig locates the host-exported plugin index.
type CatalogConfig struct {
	// Path to a YAML or JSON plugin index. Empty means an empty catalog.
	Path string `koanf:"path"`
}

// StoreConfig configures the instance journal.
type StoreConfig struct {
	// Path is the badger directory. Empty keeps the journal in memory.
	Path string `koanf:"path"`
}

// BreakerConfig configures the circuit breaker around host command calls.
type BreakerConfig struct {
	Enabled bool `koanf:"enabled"`

	// MaxFailures is the consecutive failure count that opens the breaker.
	MaxFailures uint32 `koanf:"max_failures"`

	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration `koanf:"timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes file:line in log entries.
	Caller bool `koanf:"caller"`
}
