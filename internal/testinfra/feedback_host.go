// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package testinfra

import (
	"fmt"
	"net"
	"sync"
	"testing"
	"time"
)

// FeedbackHost is a fake audio host feedback port.
type FeedbackHost struct {
	listener net.Listener

	mu       sync.Mutex
	conn     net.Conn
	accepted int
	done     chan struct{}
}

// NewFeedbackHost starts a feedback listener. It is closed when the test ends.
func NewFeedbackHost(t *testing.T) *FeedbackHost {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("feedback host listen: %v", err)
	}

	f := &FeedbackHost{listener: ln, done: make(chan struct{})}
	go f.acceptLoop()
	t.Cleanup(f.Close)
	return f
}

// Host returns the listen IP.
func (f *FeedbackHost) Host() string {
	return f.listener.Addr().(*net.TCPAddr).IP.String()
}

// Port returns the listen port.
func (f *FeedbackHost) Port() int {
	return f.listener.Addr().(*net.TCPAddr).Port
}

// Accepted returns how many connections have been accepted.
func (f *FeedbackHost) Accepted() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accepted
}

// WaitForConnections waits until at least n connections have been accepted.
func (f *FeedbackHost) WaitForConnections(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if f.Accepted() >= n {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

// Send writes each line followed by terminator to the current connection.
func (f *FeedbackHost) Send(terminator byte, lines ...string) error {
	f.mu.Lock()
	conn := f.conn
	f.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("no feedback connection")
	}

	buf := make([]byte, 0, 64*len(lines))
	for _, l := range lines {
		buf = append(buf, l...)
		buf = append(buf, terminator)
	}
	_, err := conn.Write(buf)
	return err
}

// Drop closes the current connection so the reader must reconnect.
func (f *FeedbackHost) Drop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn != nil {
		_ = f.conn.Close()
		f.conn = nil
	}
}

// Close stops the listener and drops the current connection.
func (f *FeedbackHost) Close() {
	select {
	case <-f.done:
		return
	default:
		close(f.done)
	}
	_ = f.listener.Close()
	f.Drop()
}

func (f *FeedbackHost) acceptLoop() {
	for {
		conn, err := f.listener.Accept()
		if err != nil {
			return
		}
		f.mu.Lock()
		if f.conn != nil {
			_ = f.conn.Close()
		}
		f.conn = conn
		f.accepted++
		f.mu.Unlock()
	}
}
