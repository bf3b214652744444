// Package tcp provides the TCP transport: IPv4 dialing, the chat.Conn
// adapters for raw and length-framed streams, and a sequential accept loop.
package tcp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/omochice/turn-chat/internal/chat"
	"github.com/omochice/turn-chat/pkg/protocol"
)

// Conn adapts net.Conn to chat.Conn without any framing: every Read is a
// single read from the socket and is taken to be one whole message, the
// way unframed peers expect.
type Conn struct {
	conn net.Conn
}

// NewConn wraps a net.Conn.
func NewConn(conn net.Conn) *Conn {
	return &Conn{conn: conn}
}

// Read implements chat.Conn.
func (c *Conn) Read(ctx context.Context, buf []byte) (int, error) {
	stop := WatchContext(ctx, c.conn)
	defer stop()
	n, err := c.conn.Read(buf)
	return n, contextErr(ctx, err)
}

// Write implements chat.Conn.
func (c *Conn) Write(ctx context.Context, data []byte) (int, error) {
	stop := WatchContext(ctx, c.conn)
	defer stop()
	n, err := c.conn.Write(data)
	return n, contextErr(ctx, err)
}

// Close implements chat.Conn.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// RemoteAddr implements chat.Conn.
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// FramedConn adapts net.Conn to chat.Conn using protocol frames, so message
// boundaries survive partial reads and coalesced writes.
type FramedConn struct {
	conn    net.Conn
	reader  *bufio.Reader
	sendSeq uint64
	recvSeq uint64
}

// NewFramedConn wraps a net.Conn with length-prefixed framing.
func NewFramedConn(conn net.Conn) *FramedConn {
	return &FramedConn{conn: conn, reader: bufio.NewReader(conn)}
}

// Read implements chat.Conn. A frame larger than buf, or one that arrives
// out of sequence, is a protocol violation.
func (c *FramedConn) Read(ctx context.Context, buf []byte) (int, error) {
	stop := WatchContext(ctx, c.conn)
	defer stop()

	f, err := protocol.ReadFrame(c.reader, len(buf))
	if err != nil {
		switch {
		case errors.Is(err, protocol.ErrFrameTooLarge):
			return 0, fmt.Errorf("%w: %v", chat.ErrPayloadTooLarge, err)
		case errors.Is(err, protocol.ErrMalformedFrame):
			return 0, fmt.Errorf("%w: %v", chat.ErrProtocolViolation, err)
		}
		return 0, contextErr(ctx, err)
	}
	if f.Seq != c.recvSeq+1 {
		return 0, fmt.Errorf("%w: frame %d received, expected %d", chat.ErrProtocolViolation, f.Seq, c.recvSeq+1)
	}
	c.recvSeq = f.Seq
	return copy(buf, f.Payload), nil
}

// Write implements chat.Conn. The frame goes out in one write.
func (c *FramedConn) Write(ctx context.Context, data []byte) (int, error) {
	stop := WatchContext(ctx, c.conn)
	defer stop()

	f := protocol.Frame{Seq: c.sendSeq + 1, Payload: data}
	if err := protocol.WriteFrame(c.conn, f); err != nil {
		return 0, contextErr(ctx, err)
	}
	c.sendSeq = f.Seq
	return len(data), nil
}

// Close implements chat.Conn.
func (c *FramedConn) Close() error {
	return c.conn.Close()
}

// RemoteAddr implements chat.Conn.
func (c *FramedConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// WatchContext interrupts blocking I/O on conn once ctx is done by moving
// its deadline into the past. The returned stop function detaches the
// watcher.
func WatchContext(ctx context.Context, conn net.Conn) (stop func() bool) {
	if ctx.Done() == nil {
		return func() bool { return true }
	}
	return context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Unix(1, 0))
	})
}

func contextErr(ctx context.Context, err error) error {
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("%w: %v", ctx.Err(), err)
	}
	return err
}
