// Package ws provides the WebSocket transport. Each chat message travels as
// one binary WebSocket message, so message boundaries are kept by the
// transport itself.
package ws

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/omochice/turn-chat/internal/chat"
	"github.com/omochice/turn-chat/internal/transport/tcp"
)

// maxControlPayload is the largest payload a control frame may carry.
const maxControlPayload = 125

// Conn adapts a WebSocket connection to chat.Conn using gobwas/ws.
type Conn struct {
	conn  net.Conn
	rw    io.ReadWriter
	state ws.State
}

// NewClientConn wraps the client side of an upgraded connection. br is the
// reader returned by the dialer, which may hold frames that arrived with
// the handshake response; it may be nil.
func NewClientConn(conn net.Conn, br *bufio.Reader) *Conn {
	c := &Conn{conn: conn, rw: conn, state: ws.StateClientSide}
	if br != nil {
		c.rw = struct {
			io.Reader
			io.Writer
		}{br, conn}
	}
	return c
}

// NewServerConn wraps the server side of an upgraded connection.
func NewServerConn(conn net.Conn) *Conn {
	return &Conn{conn: conn, rw: conn, state: ws.StateServerSide}
}

// Read implements chat.Conn. A message larger than buf is a protocol
// violation and is rejected before it is buffered; a close frame from the
// peer reads as io.EOF.
func (c *Conn) Read(ctx context.Context, buf []byte) (int, error) {
	stop := tcp.WatchContext(ctx, c.conn)
	defer stop()

	n, err := c.readMessage(buf)
	if err != nil {
		var closed wsutil.ClosedError
		switch {
		case errors.As(err, &closed):
			return 0, io.EOF
		case errors.Is(err, wsutil.ErrFrameTooLarge):
			return 0, fmt.Errorf("%w: %v", chat.ErrPayloadTooLarge, err)
		case errors.Is(err, chat.ErrPayloadTooLarge):
			return 0, err
		case ctx.Err() != nil:
			return 0, fmt.Errorf("%w: %v", ctx.Err(), err)
		}
		return 0, err
	}
	return n, nil
}

// readMessage reads the next data message into buf, answering control
// frames on the way. Frame headers announcing more than buf can hold are
// refused by the reader before their payload is read.
func (c *Conn) readMessage(buf []byte) (int, error) {
	maxFrame := int64(len(buf))
	if maxFrame < maxControlPayload {
		maxFrame = maxControlPayload
	}
	control := wsutil.ControlFrameHandler(c.rw, c.state)
	rd := wsutil.Reader{
		Source:         c.rw,
		State:          c.state,
		MaxFrameSize:   maxFrame,
		OnIntermediate: control,
	}

	for {
		hdr, err := rd.NextFrame()
		if err != nil {
			return 0, err
		}
		if hdr.OpCode.IsControl() {
			if err := control(hdr, &rd); err != nil {
				return 0, err
			}
			continue
		}
		if hdr.OpCode&(ws.OpText|ws.OpBinary) == 0 {
			if err := rd.Discard(); err != nil {
				return 0, err
			}
			continue
		}

		n := 0
		for n < len(buf) {
			m, err := rd.Read(buf[n:])
			n += m
			if err == io.EOF {
				return n, nil
			}
			if err != nil {
				return 0, err
			}
		}
		var extra [1]byte
		if m, _ := rd.Read(extra[:]); m > 0 {
			return 0, fmt.Errorf("%w: message exceeds %d bytes", chat.ErrPayloadTooLarge, len(buf))
		}
		return n, nil
	}
}

// Write implements chat.Conn.
func (c *Conn) Write(ctx context.Context, data []byte) (int, error) {
	stop := tcp.WatchContext(ctx, c.conn)
	defer stop()

	if err := wsutil.WriteMessage(c.conn, c.state, ws.OpBinary, data); err != nil {
		if ctx.Err() != nil {
			return 0, fmt.Errorf("%w: %v", ctx.Err(), err)
		}
		return 0, err
	}
	return len(data), nil
}

// Close sends a close frame and closes the connection.
func (c *Conn) Close() error {
	body := ws.NewCloseFrameBody(ws.StatusNormalClosure, "")
	_ = wsutil.WriteMessage(c.conn, c.state, ws.OpClose, body)
	return c.conn.Close()
}

// RemoteAddr implements chat.Conn.
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
