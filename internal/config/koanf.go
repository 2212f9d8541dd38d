// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"pedalbridge.yaml",
	"pedalbridge.yml",
	"/etc/pedalbridge/config.yaml",
	"/etc/pedalbridge/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// sliceConfigPaths are koanf paths given as comma-separated strings in the environment.
var sliceConfigPaths = []string{
	"ops.cors_origins",
}

// envMappings maps lower-cased environment variable names to koanf paths.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	"host_address":           "host.address",
	"host_command_port":      "host.command_port",
	"host_feedback_port":     "host.feedback_port",
	"host_timeout":           "host.timeout",
	"host_dial_timeout":      "host.dial_timeout",
	"host_terminator":        "host.terminator",
	"host_startup_wait":      "host.startup_wait",
	"feedback_retry_backoff": "host.feedback_retry_backoff",

	"bus_embedded":          "bus.embedded",
	"bus_host":              "bus.host",
	"bus_port":              "bus.port",
	"bus_url":               "bus.url",
	"bus_subject_prefix":    "bus.subject_prefix",
	"command_poll_interval": "bus.command_poll_interval",

	"ops_enabled":      "ops.enabled",
	"ops_addr":         "ops.addr",
	"ops_cors_origins": "ops.cors_origins",
	"ops_rate_limit":   "ops.rate_limit",

	"catalog_path": "catalog.path",
	"store_path":   "store.path",

	"breaker_enabled":  "breaker.enabled",
	"breaker_failures": "breaker.max_failures",
	"breaker_timeout":  "breaker.timeout",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Host: HostConfig{
			Address:              "127.0.0.1",
			CommandPort:          5555,
			FeedbackPort:         5556,
			Timeout:              1 * time.Second,
			DialTimeout:          1 * time.Second,
			Terminator:           TerminatorNUL,
			StartupWait:          30 * time.Second,
			FeedbackRetryBackoff: 2 * time.Second,
		},
		Bus: BusConfig{
			Embedded:            true,
			Host:                "127.0.0.1",
			Port:                4222,
			URL:                 "",
			SubjectPrefix:       "pedalbridge",
			CommandPollInterval: 500 * time.Millisecond,
		},
		Ops: OpsConfig{
			Enabled:     true,
			Addr:        "127.0.0.1:9470",
			CORSOrigins: []string{"*"},
			RateLimit:   120,
		},
		Catalog: CatalogConfig{Path: ""},
		Store:   StoreConfig{Path: ""},
		Breaker: BreakerConfig{
			Enabled:     true,
			MaxFailures: 5,
			Timeout:     5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load reads configuration using Koanf's layered approach:
//  1. Defaults from defaultConfig()
//  2. Optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. Environment variables (highest priority)
//
// The result is validated before it is returned.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables
	// HOST_COMMAND_PORT -> host.command_port
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file, or "" if none.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// processSliceFields splits comma-separated env values into string slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
