package ws

import (
	"bytes"
	"context"
	"net"
	"net/http"

	"github.com/gobwas/ws"
	"github.com/rs/zerolog"

	"github.com/omochice/turn-chat/internal/chat"
	"github.com/omochice/turn-chat/internal/transport/tcp"
)

// Upgrader returns a tcp.Upgrader that performs the WebSocket handshake on
// accepted sockets. Requests for any path other than path are rejected.
func Upgrader(path string) tcp.Upgrader {
	if path == "" {
		path = "/"
	}
	u := ws.Upgrader{
		OnRequest: func(uri []byte) error {
			if i := bytes.IndexByte(uri, '?'); i >= 0 {
				uri = uri[:i]
			}
			if string(uri) != path {
				return ws.RejectConnectionError(ws.RejectionStatus(http.StatusNotFound))
			}
			return nil
		},
	}
	return func(ctx context.Context, conn net.Conn) (chat.Conn, error) {
		stop := tcp.WatchContext(ctx, conn)
		defer stop()
		if _, err := u.Upgrade(conn); err != nil {
			return nil, err
		}
		return NewServerConn(conn), nil
	}
}

// New creates a server that accepts WebSocket peers on address.
func New(address, path string, handler tcp.Handler, logger zerolog.Logger) *tcp.Server {
	return tcp.New(address, handler, tcp.WithUpgrader(Upgrader(path)), tcp.WithLogger(logger))
}
