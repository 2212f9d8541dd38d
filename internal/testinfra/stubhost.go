// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package testinfra

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/pedalbridge/internal/protocol"
)

// HandlerFunc returns the reply line for one command, without terminator.
// Returning "" sends nothing.
type HandlerFunc func(command string) string

// StubHost is a fake audio host command port.
type StubHost struct {
	listener net.Listener

	mu          sync.Mutex
	commands    []string
	handler     HandlerFunc
	silent      bool
	instances   map[int]string
	params      map[string]string
	connections map[string]bool

	wg sync.WaitGroup
}

// NewStubHost starts a stub host. It is closed when the test ends.
func NewStubHost(t *testing.T) *StubHost {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("stub host listen: %v", err)
	}

	h := &StubHost{
		listener:    ln,
		instances:   make(map[int]string),
		params:      make(map[string]string),
		connections: make(map[string]bool),
	}

	h.wg.Add(1)
	go h.acceptLoop()

	t.Cleanup(h.Close)
	return h
}

// Host returns the listen IP.
func (h *StubHost) Host() string {
	return h.listener.Addr().(*net.TCPAddr).IP.String()
}

// Port returns the listen port.
func (h *StubHost) Port() int {
	return h.listener.Addr().(*net.TCPAddr).Port
}

// Addr returns host:port.
func (h *StubHost) Addr() string {
	return h.listener.Addr().String()
}

// SetHandler replaces the default host model. Pass nil to restore it.
func (h *StubHost) SetHandler(fn HandlerFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handler = fn
}

// SetSilent makes the host read commands without ever replying.
func (h *StubHost) SetSilent(silent bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.silent = silent
}

// Commands returns every command received so far.
func (h *StubHost) Commands() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.commands))
	copy(out, h.commands)
	return out
}

// Instances returns the host_instance → uri map of the default model.
func (h *StubHost) Instances() map[int]string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[int]string, len(h.instances))
	for k, v := range h.instances {
		out[k] = v
	}
	return out
}

// Connections returns the connected port pairs as "a b", sorted.
func (h *StubHost) Connections() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.connections))
	for c := range h.connections {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Close stops accepting and waits for open connections to finish.
func (h *StubHost) Close() {
	_ = h.listener.Close()
	h.wg.Wait()
}

func (h *StubHost) acceptLoop() {
	defer h.wg.Done()
	for {
		conn, err := h.listener.Accept()
		if err != nil {
			return
		}
		h.wg.Add(1)
		go h.serveConn(conn)
	}
}

func (h *StubHost) serveConn(conn net.Conn) {
	defer h.wg.Done()
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(10 * time.Second))

	scanner := bufio.NewScanner(conn)
	scanner.Split(protocol.ScanLines)
	for scanner.Scan() {
		cmd := scanner.Text()

		h.mu.Lock()
		h.commands = append(h.commands, cmd)
		silent := h.silent
		handler := h.handler
		h.mu.Unlock()

		if silent {
			continue
		}

		var reply string
		if handler != nil {
			reply = handler(cmd)
		} else {
			reply = h.model(cmd)
		}
		if reply == "" {
			continue
		}
		if _, err := conn.Write(append([]byte(reply), 0)); err != nil {
			return
		}
	}
}

// model answers like the host does for the commands the bridge sends.
func (h *StubHost) model(cmd string) string {
	f := strings.Fields(cmd)
	if len(f) == 0 {
		return "resp -1"
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	switch f[0] {
	case protocol.CmdAdd:
		if len(f) != 3 {
			return "resp -1"
		}
		n, err := strconv.Atoi(f[2])
		if err != nil {
			return "resp -1"
		}
		if _, used := h.instances[n]; used {
			return "resp -2"
		}
		h.instances[n] = f[1]
		return fmt.Sprintf("resp %d", n)

	case protocol.CmdRemove:
		n, err := h.instanceArg(f)
		if err != nil {
			return "resp -1"
		}
		delete(h.instances, n)
		for k := range h.params {
			if strings.HasPrefix(k, strconv.Itoa(n)+"/") {
				delete(h.params, k)
			}
		}
		return "resp 0"

	case protocol.CmdParamSet:
		n, err := h.instanceArg(f)
		if err != nil || len(f) != 4 {
			return "resp -1"
		}
		h.params[fmt.Sprintf("%d/%s", n, f[2])] = f[3]
		return "resp 0"

	case protocol.CmdParamGet:
		n, err := h.instanceArg(f)
		if err != nil || len(f) != 3 {
			return "resp -1"
		}
		v, ok := h.params[fmt.Sprintf("%d/%s", n, f[2])]
		if !ok {
			return "resp 0"
		}
		return "resp 0 " + v

	case protocol.CmdBypass, protocol.CmdPresetLoad, protocol.CmdPresetSave:
		if _, err := h.instanceArg(f); err != nil {
			return "resp -1"
		}
		return "resp 0"

	case protocol.CmdConnect:
		if len(f) != 3 {
			return "resp -1"
		}
		h.connections[f[1]+" "+f[2]] = true
		return "resp 0"

	case protocol.CmdDisconnect:
		if len(f) != 3 || !h.connections[f[1]+" "+f[2]] {
			return "resp -1"
		}
		delete(h.connections, f[1]+" "+f[2])
		return "resp 0"

	case protocol.CmdBundleAdd, protocol.CmdBundleRemove:
		return "resp 0"

	default:
		return "resp -1"
	}
}

// instanceArg parses f[1] as a loaded host_instance (mu held).
func (h *StubHost) instanceArg(f []string) (int, error) {
	if len(f) < 2 {
		return 0, errors.New("missing instance")
	}
	n, err := strconv.Atoi(f[1])
	if err != nil {
		return 0, err
	}
	if _, ok := h.instances[n]; !ok {
		return 0, fmt.Errorf("instance %d not loaded", n)
	}
	return n, nil
}
