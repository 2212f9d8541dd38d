// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package config

import (
	"fmt"
	"strings"

	"github.com/tomtom215/pedalbridge/internal/logging"
)

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateHost(); err != nil {
		return err
	}

	if err := c.validateBus(); err != nil {
		return err
	}

	if err := c.validateOps(); err != nil {
		return err
	}

	if err := c.validateBreaker(); err != nil {
		return err
	}

	return c.validateLogging()
}

func (c *Config) validateHost() error {
	if c.Host.Address == "" {
		return fmt.Errorf("HOST_ADDRESS is required")
	}
	if err := validatePort(c.Host.CommandPort, "HOST_COMMAND_PORT"); err != nil {
		return err
	}
	if err := validatePort(c.Host.FeedbackPort, "HOST_FEEDBACK_PORT"); err != nil {
		return err
	}
	if c.Host.Timeout <= 0 {
		return fmt.Errorf("HOST_TIMEOUT must be positive, got %v", c.Host.Timeout)
	}
	if c.Host.DialTimeout <= 0 {
		return fmt.Errorf("HOST_DIAL_TIMEOUT must be positive, got %v", c.Host.DialTimeout)
	}
	if c.Host.StartupWait < 0 {
		return fmt.Errorf("HOST_STARTUP_WAIT must not be negative, got %v", c.Host.StartupWait)
	}
	if c.Host.FeedbackRetryBackoff <= 0 {
		return fmt.Errorf("FEEDBACK_RETRY_BACKOFF must be positive, got %v", c.Host.FeedbackRetryBackoff)
	}

	switch strings.ToLower(c.Host.Terminator) {
	case TerminatorNUL, TerminatorNewline:
		c.Host.Terminator = strings.ToLower(c.Host.Terminator)
	default:
		return fmt.Errorf("HOST_TERMINATOR must be %q or %q, got %q", TerminatorNUL, TerminatorNewline, c.Host.Terminator)
	}
	return nil
}

func (c *Config) validateBus() error {
	if c.Bus.Embedded {
		if err := validatePort(c.Bus.Port, "BUS_PORT"); err != nil {
			return err
		}
	} else if c.Bus.URL == "" {
		return fmt.Errorf("BUS_URL is required when BUS_EMBEDDED=false")
	}
	if c.Bus.SubjectPrefix == "" || strings.ContainsAny(c.Bus.SubjectPrefix, " *>") {
		return fmt.Errorf("BUS_SUBJECT_PREFIX must be a non-empty literal subject token, got %q", c.Bus.SubjectPrefix)
	}
	if c.Bus.CommandPollInterval <= 0 {
		return fmt.Errorf("COMMAND_POLL_INTERVAL must be positive, got %v", c.Bus.CommandPollInterval)
	}
	return nil
}

func (c *Config) validateOps() error {
	if !c.Ops.Enabled {
		return nil
	}
	if c.Ops.Addr == "" {
		return fmt.Errorf("OPS_ADDR is required when OPS_ENABLED=true")
	}
	if c.Ops.RateLimit < 0 {
		return fmt.Errorf("OPS_RATE_LIMIT must not be negative, got %d", c.Ops.RateLimit)
	}
	return nil
}

func (c *Config) validateBreaker() error {
	if !c.Breaker.Enabled {
		return nil
	}
	if c.Breaker.MaxFailures == 0 {
		return fmt.Errorf("BREAKER_FAILURES must be at least 1")
	}
	if c.Breaker.Timeout <= 0 {
		return fmt.Errorf("BREAKER_TIMEOUT must be positive, got %v", c.Breaker.Timeout)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}

func validatePort(port int, name string) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535, got %d", name, port)
	}
	return nil
}
