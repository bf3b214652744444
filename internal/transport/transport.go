// Package transport establishes chat connections and peer servers for the
// configured transport and framing.
package transport

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/omochice/turn-chat/internal/chat"
	"github.com/omochice/turn-chat/internal/config"
	"github.com/omochice/turn-chat/internal/transport/tcp"
	"github.com/omochice/turn-chat/internal/transport/ws"
)

// Dial connects to host:port and returns the stream a session runs over.
// Errors are *chat.Error values classified as address resolution or
// connect failures.
func Dial(ctx context.Context, cfg config.Config, host, port string) (chat.Conn, error) {
	if cfg.Transport == config.TransportWS {
		return ws.Dial(ctx, host, port, cfg.WSPath, cfg.DialTimeout)
	}

	conn, err := tcp.Dial(ctx, host, port, cfg.DialTimeout)
	if err != nil {
		return nil, err
	}
	if cfg.Framing == config.FramingLength {
		return tcp.NewFramedConn(conn), nil
	}
	return tcp.NewConn(conn), nil
}

// NewServer creates a server on address that hands each peer, one at a
// time, to handler.
func NewServer(cfg config.Config, address string, handler tcp.Handler, logger zerolog.Logger) *tcp.Server {
	if cfg.Transport == config.TransportWS {
		return ws.New(address, cfg.WSPath, handler, logger)
	}

	upgrader := tcp.RawUpgrader
	if cfg.Framing == config.FramingLength {
		upgrader = tcp.FramedUpgrader
	}
	return tcp.New(address, handler, tcp.WithUpgrader(upgrader), tcp.WithLogger(logger))
}
