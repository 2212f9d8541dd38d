// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSlogHandler_Enabled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		zerologLevel zerolog.Level
		slogLevel    slog.Level
		want         bool
	}{
		{"debug logger enables debug", zerolog.DebugLevel, slog.LevelDebug, true},
		{"info logger disables debug", zerolog.InfoLevel, slog.LevelDebug, false},
		{"info logger enables warn", zerolog.InfoLevel, slog.LevelWarn, true},
		{"error logger disables warn", zerolog.ErrorLevel, slog.LevelWarn, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			handler := NewSlogHandlerWithLogger(zerolog.New(nil).Level(tt.zerologLevel))
			if got := handler.Enabled(context.Background(), tt.slogLevel); got != tt.want {
				t.Errorf("Enabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSlogHandler_Handle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level     slog.Level
		wantLevel string
	}{
		{slog.LevelDebug, "debug"},
		{slog.LevelInfo, "info"},
		{slog.LevelWarn, "warn"},
		{slog.LevelError, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.wantLevel, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			logger := slog.New(NewSlogHandlerWithLogger(zerolog.New(&buf).Level(zerolog.TraceLevel)))

			logger.Log(context.Background(), tt.level, "service restarted", "service", "feedback-reader")

			output := buf.String()
			if !strings.Contains(output, `"level":"`+tt.wantLevel+`"`) {
				t.Errorf("expected level %s in output: %s", tt.wantLevel, output)
			}
			if !strings.Contains(output, `"service":"feedback-reader"`) {
				t.Errorf("expected attribute in output: %s", output)
			}
		})
	}
}

func TestSlogHandler_WithAttrsAndGroups(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	handler := NewSlogHandlerWithLogger(zerolog.New(&buf))

	logger := slog.New(handler.WithAttrs([]slog.Attr{slog.String("tree", "root")}).WithGroup("svc"))
	logger.Info("backoff", "restarts", 3)

	output := buf.String()
	if !strings.Contains(output, `"svc.tree":"root"`) {
		t.Errorf("expected grouped preconfigured attr in output: %s", output)
	}
	if !strings.Contains(output, `"svc.restarts":3`) {
		t.Errorf("expected grouped attr in output: %s", output)
	}

	if handler.WithGroup("") != handler {
		t.Error("WithGroup(\"\") should return the same handler")
	}
}

func TestAddAttr_Kinds(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewSlogHandlerWithLogger(zerolog.New(&buf)))

	logger.Info("kinds",
		slog.Int64("i", -4),
		slog.Uint64("u", 7),
		slog.Float64("f", 0.5),
		slog.Bool("b", true),
		slog.Duration("d", time.Second),
		slog.Group("g", slog.String("inner", "x")),
	)

	output := buf.String()
	for _, want := range []string{`"i":-4`, `"u":7`, `"f":0.5`, `"b":true`, `"g.inner":"x"`} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in output: %s", want, output)
		}
	}
}

func TestNewSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))

	NewSlogLogger().Info("supervisor event")

	if !strings.Contains(buf.String(), "supervisor event") {
		t.Errorf("expected message in output: %s", buf.String())
	}
}
