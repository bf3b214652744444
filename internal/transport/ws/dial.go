package ws

import (
	"context"
	"net"
	"net/url"
	"time"

	"github.com/gobwas/ws"

	"github.com/omochice/turn-chat/internal/chat"
	"github.com/omochice/turn-chat/internal/transport/tcp"
)

// Dial connects to ws://host:port/path. Address resolution and connect go
// through the TCP dialer so failures are classified the same way.
func Dial(ctx context.Context, host, port, path string, timeout time.Duration) (*Conn, error) {
	if path == "" {
		path = "/"
	}
	u := url.URL{Scheme: "ws", Host: net.JoinHostPort(host, port), Path: path}

	d := ws.Dialer{
		Timeout: timeout,
		NetDial: func(ctx context.Context, _, _ string) (net.Conn, error) {
			return tcp.Dial(ctx, host, port, timeout)
		},
	}
	conn, br, _, err := d.Dial(ctx, u.String())
	if err != nil {
		if chat.KindOf(err) == chat.KindUnknown {
			err = chat.NewError(chat.KindConnect, "websocket handshake", err)
		}
		return nil, err
	}
	return NewClientConn(conn, br), nil
}
