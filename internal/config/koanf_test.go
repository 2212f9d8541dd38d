// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Host.CommandPort != 5555 {
		t.Errorf("Host.CommandPort = %d, want 5555", cfg.Host.CommandPort)
	}
	if cfg.Host.FeedbackPort != 5556 {
		t.Errorf("Host.FeedbackPort = %d, want 5556", cfg.Host.FeedbackPort)
	}
	if cfg.Host.Timeout != time.Second {
		t.Errorf("Host.Timeout = %v, want 1s", cfg.Host.Timeout)
	}
	if cfg.Host.Terminator != TerminatorNUL {
		t.Errorf("Host.Terminator = %q, want nul", cfg.Host.Terminator)
	}
	if cfg.Host.FeedbackRetryBackoff != 2*time.Second {
		t.Errorf("Host.FeedbackRetryBackoff = %v, want 2s", cfg.Host.FeedbackRetryBackoff)
	}
	if !cfg.Bus.Embedded {
		t.Error("Bus.Embedded should be true by default")
	}
	if cfg.Bus.CommandPollInterval != 500*time.Millisecond {
		t.Errorf("Bus.CommandPollInterval = %v, want 500ms", cfg.Bus.CommandPollInterval)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got: %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("HOST_ADDRESS", "10.0.0.7")
	t.Setenv("HOST_COMMAND_PORT", "6000")
	t.Setenv("HOST_TIMEOUT", "250ms")
	t.Setenv("HOST_TERMINATOR", "newline")
	t.Setenv("BUS_SUBJECT_PREFIX", "rig1")
	t.Setenv("OPS_CORS_ORIGINS", "http://a.local, http://b.local")
	t.Setenv("BREAKER_FAILURES", "3")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("UNRELATED_VARIABLE", "ignored")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Host.CommandAddr() != "10.0.0.7:6000" {
		t.Errorf("CommandAddr() = %q, want 10.0.0.7:6000", cfg.Host.CommandAddr())
	}
	if cfg.Host.FeedbackAddr() != "10.0.0.7:5556" {
		t.Errorf("FeedbackAddr() = %q, want 10.0.0.7:5556", cfg.Host.FeedbackAddr())
	}
	if cfg.Host.Timeout != 250*time.Millisecond {
		t.Errorf("Host.Timeout = %v, want 250ms", cfg.Host.Timeout)
	}
	if cfg.Host.TerminatorByte() != '\n' {
		t.Errorf("TerminatorByte() = %q, want newline", cfg.Host.TerminatorByte())
	}
	if cfg.Bus.CommandSubject() != "rig1.command" {
		t.Errorf("CommandSubject() = %q, want rig1.command", cfg.Bus.CommandSubject())
	}
	if got := cfg.Bus.FeedbackSubject("param_set"); got != "rig1.feedback.param_set" {
		t.Errorf("FeedbackSubject() = %q", got)
	}
	if len(cfg.Ops.CORSOrigins) != 2 || cfg.Ops.CORSOrigins[1] != "http://b.local" {
		t.Errorf("Ops.CORSOrigins = %v, want two trimmed origins", cfg.Ops.CORSOrigins)
	}
	if cfg.Breaker.MaxFailures != 3 {
		t.Errorf("Breaker.MaxFailures = %d, want 3", cfg.Breaker.MaxFailures)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pedalbridge.yaml")
	content := `
host:
  address: 192.168.1.20
  feedback_port: 7000
bus:
  embedded: false
  url: nats://bus.local:4222
catalog:
  path: /var/lib/host/plugins.yaml
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HOST_FEEDBACK_PORT", "7001")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Host.Address != "192.168.1.20" {
		t.Errorf("Host.Address = %q, want value from file", cfg.Host.Address)
	}
	if cfg.Host.FeedbackPort != 7001 {
		t.Errorf("Host.FeedbackPort = %d, env should win over file", cfg.Host.FeedbackPort)
	}
	if cfg.Bus.ClientURL() != "nats://bus.local:4222" {
		t.Errorf("Bus.ClientURL() = %q", cfg.Bus.ClientURL())
	}
	if cfg.Catalog.Path != "/var/lib/host/plugins.yaml" {
		t.Errorf("Catalog.Path = %q", cfg.Catalog.Path)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"command port zero", func(c *Config) { c.Host.CommandPort = 0 }, true},
		{"feedback port too large", func(c *Config) { c.Host.FeedbackPort = 70000 }, true},
		{"zero timeout", func(c *Config) { c.Host.Timeout = 0 }, true},
		{"negative startup wait", func(c *Config) { c.Host.StartupWait = -time.Second }, true},
		{"unknown terminator", func(c *Config) { c.Host.Terminator = "crlf" }, true},
		{"uppercase terminator", func(c *Config) { c.Host.Terminator = "NEWLINE" }, false},
		{"external bus without url", func(c *Config) { c.Bus.Embedded = false }, true},
		{"wildcard prefix", func(c *Config) { c.Bus.SubjectPrefix = "a.>" }, true},
		{"zero poll interval", func(c *Config) { c.Bus.CommandPollInterval = 0 }, true},
		{"ops without addr", func(c *Config) { c.Ops.Addr = "" }, true},
		{"ops disabled without addr", func(c *Config) { c.Ops.Enabled = false; c.Ops.Addr = "" }, false},
		{"breaker zero failures", func(c *Config) { c.Breaker.MaxFailures = 0 }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, true},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBusClientURL_Embedded(t *testing.T) {
	b := BusConfig{Embedded: true, Host: "127.0.0.1", Port: 4333}
	if got := b.ClientURL(); got != "nats://127.0.0.1:4333" {
		t.Errorf("ClientURL() = %q, want nats://127.0.0.1:4333", got)
	}
	if got := b.FeedbackWildcard(); got != ".feedback.>" {
		t.Errorf("FeedbackWildcard() with empty prefix = %q", got)
	}
}
