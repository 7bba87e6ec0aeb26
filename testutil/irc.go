package testutil

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// MockIRCServer is a line-oriented TCP server standing in for an IRC
// server. It accepts a single client; lines it receives are queued for
// Expect and lines passed to Send are written back verbatim.
type MockIRCServer struct {
	ln    net.Listener
	lines chan string

	mu       sync.Mutex
	conn     net.Conn
	accepted chan struct{}
}

// NewMockIRCServer starts listening on a loopback port.
func NewMockIRCServer(t *testing.T) *MockIRCServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	m := &MockIRCServer{ln: ln, lines: make(chan string, 64), accepted: make(chan struct{})}
	go m.serve()
	t.Cleanup(m.Close)
	return m
}

func (m *MockIRCServer) serve() {
	conn, err := m.ln.Accept()
	if err != nil {
		close(m.lines)
		return
	}
	m.mu.Lock()
	m.conn = conn
	m.mu.Unlock()
	close(m.accepted)

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		m.lines <- strings.TrimRight(sc.Text(), "\r")
	}
	close(m.lines)
}

// Host returns the listener's host.
func (m *MockIRCServer) Host() string {
	host, _, _ := net.SplitHostPort(m.ln.Addr().String())
	return host
}

// Port returns the listener's port.
func (m *MockIRCServer) Port() int {
	_, port, _ := net.SplitHostPort(m.ln.Addr().String())
	p, _ := strconv.Atoi(port)
	return p
}

// Expect waits for a client line starting with prefix, skipping others,
// and returns it.
func (m *MockIRCServer) Expect(t *testing.T, prefix string) string {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case line, ok := <-m.lines:
			if !ok {
				t.Fatalf("connection closed waiting for %q", prefix)
			}
			if strings.HasPrefix(line, prefix) {
				return line
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q", prefix)
		}
	}
}

// Send writes raw lines to the client.
func (m *MockIRCServer) Send(t *testing.T, lines ...string) {
	t.Helper()
	select {
	case <-m.accepted:
	case <-time.After(3 * time.Second):
		t.Fatal("no client connected")
	}
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	for _, l := range lines {
		if _, err := fmt.Fprintf(conn, "%s\r\n", l); err != nil {
			t.Fatalf("send %q: %v", l, err)
		}
	}
}

// Close stops the listener and drops the client.
func (m *MockIRCServer) Close() {
	_ = m.ln.Close()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn != nil {
		_ = m.conn.Close()
	}
}
