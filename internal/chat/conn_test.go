package chat_test

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/omochice/turn-chat/internal/chat"
)

// mockConn is a scripted implementation of chat.Conn for testing.
// Each entry of reads is returned by one Read call; once exhausted Read
// returns readErr, or io.EOF when readErr is nil.
type mockConn struct {
	mu         sync.Mutex
	reads      [][]byte
	readErr    error
	writeErr   error
	written    [][]byte
	ops        []string
	closed     bool
	remoteAddr string
}

func newMockConn(reads ...string) *mockConn {
	m := &mockConn{remoteAddr: "127.0.0.1:1234"}
	for _, r := range reads {
		m.reads = append(m.reads, []byte(r))
	}
	return m
}

func (m *mockConn) Read(ctx context.Context, buf []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, "recv")
	if len(m.reads) == 0 {
		if m.readErr != nil {
			return 0, m.readErr
		}
		return 0, io.EOF
	}
	next := m.reads[0]
	m.reads = m.reads[1:]
	return copy(buf, next), nil
}

func (m *mockConn) Write(ctx context.Context, data []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, "send")
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	copied := make([]byte, len(data))
	copy(copied, data)
	m.written = append(m.written, copied)
	return len(data), nil
}

func (m *mockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockConn) RemoteAddr() string {
	return m.remoteAddr
}

func (m *mockConn) Written() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.written))
	for i, w := range m.written {
		out[i] = string(w)
	}
	return out
}

func (m *mockConn) Ops() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.ops...)
}

// Compile-time check that mockConn implements chat.Conn
var _ chat.Conn = (*mockConn)(nil)

// mockConsole feeds scripted input lines and records everything shown.
type mockConsole struct {
	mu       sync.Mutex
	input    []string
	inputErr error
	prompts  int
	shown    []string
	notices  []string
}

func newMockConsole(lines ...string) *mockConsole {
	return &mockConsole{input: lines}
}

func (c *mockConsole) Prompt(id chat.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts++
}

func (c *mockConsole) ReadLine() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.input) == 0 {
		if c.inputErr != nil {
			return "", c.inputErr
		}
		return "", io.EOF
	}
	line := c.input[0]
	c.input = c.input[1:]
	if !strings.HasSuffix(line, "\n") {
		return line, io.EOF
	}
	return line, nil
}

func (c *mockConsole) Display(payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shown = append(c.shown, string(payload))
}

func (c *mockConsole) Notice(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, msg)
}

func (c *mockConsole) Shown() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.shown...)
}

func (c *mockConsole) Notices() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.notices...)
}

var _ chat.Console = (*mockConsole)(nil)
