// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package audio

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// DefaultToolTimeout bounds each JACK tool invocation.
const DefaultToolTimeout = 2 * time.Second

// runFunc executes a tool and returns its standard output.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// JackTools is a Client backed by jack_lsp, jack_bufsize and jack_samplerate.
type JackTools struct {
	timeout time.Duration
	run     runFunc
}

// NewJackTools creates a JackTools client. A zero timeout uses DefaultToolTimeout.
func NewJackTools(timeout time.Duration) *JackTools {
	if timeout <= 0 {
		timeout = DefaultToolTimeout
	}
	return &JackTools{timeout: timeout, run: execTool}
}

func execTool(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

func (j *JackTools) exec(ctx context.Context, name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()
	return j.run(ctx, name, args...)
}

// Open checks that the tools are installed and the server answers.
func (j *JackTools) Open(ctx context.Context) error {
	if _, err := j.SampleRate(ctx); err != nil {
		return fmt.Errorf("audio server not reachable: %w", err)
	}
	return nil
}

// Close is a no-op; each query is its own process.
func (j *JackTools) Close() error {
	return nil
}

// BufferSize parses "buffer size = 128" from jack_bufsize.
func (j *JackTools) BufferSize(ctx context.Context) (int, error) {
	out, err := j.exec(ctx, "jack_bufsize")
	if err != nil {
		return 0, err
	}
	return parseBufferSize(out)
}

// SampleRate parses jack_samplerate's single number.
func (j *JackTools) SampleRate(ctx context.Context) (float64, error) {
	out, err := j.exec(ctx, "jack_samplerate")
	if err != nil {
		return 0, err
	}
	rate, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse sample rate %q: %w", bytes.TrimSpace(out), err)
	}
	return rate, nil
}

// Ports lists every port with its type and flags (jack_lsp -p -t).
func (j *JackTools) Ports(ctx context.Context) ([]PortInfo, error) {
	out, err := j.exec(ctx, "jack_lsp", "-p", "-t")
	if err != nil {
		return nil, err
	}
	return parsePorts(out), nil
}

// Aliases lists the aliases of one port (jack_lsp -A).
func (j *JackTools) Aliases(ctx context.Context, port string) ([]string, error) {
	out, err := j.exec(ctx, "jack_lsp", "-A", port)
	if err != nil {
		return nil, err
	}
	return parseIndented(out, port), nil
}

// Connections lists the ports connected to one port (jack_lsp -c).
func (j *JackTools) Connections(ctx context.Context, port string) ([]string, error) {
	out, err := j.exec(ctx, "jack_lsp", "-c", port)
	if err != nil {
		return nil, err
	}
	return parseIndented(out, port), nil
}

func parseBufferSize(out []byte) (int, error) {
	s := strings.TrimSpace(string(out))
	if i := strings.LastIndexByte(s, '='); i >= 0 {
		s = strings.TrimSpace(s[i+1:])
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parse buffer size %q: %w", s, err)
	}
	return n, nil
}

// parsePorts reads jack_lsp -p -t output:
//
//	system:capture_1
//		properties: output,physical,terminal,
//		32 bit float mono audio
func parsePorts(out []byte) []PortInfo {
	var ports []PortInfo
	var cur *PortInfo

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if line[0] != ' ' && line[0] != '\t' {
			ports = append(ports, PortInfo{Name: strings.TrimSpace(line)})
			cur = &ports[len(ports)-1]
			continue
		}
		if cur == nil {
			continue
		}

		detail := strings.TrimSpace(line)
		if props, ok := strings.CutPrefix(detail, "properties:"); ok {
			for _, p := range strings.Split(props, ",") {
				switch strings.TrimSpace(p) {
				case "output":
					cur.Output = true
				case "physical":
					cur.Physical = true
				}
			}
			continue
		}
		if strings.HasSuffix(detail, "audio") {
			cur.Audio = true
		}
	}
	return ports
}

// parseIndented returns the indented lines under the header line equal to
// port. jack_lsp filters by substring, so other headers may appear.
func parseIndented(out []byte, port string) []string {
	var items []string
	inPort := false

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if line[0] != ' ' && line[0] != '\t' {
			inPort = strings.TrimSpace(line) == port
			continue
		}
		if inPort {
			items = append(items, strings.TrimSpace(line))
		}
	}
	return items
}
